// Package ipfs archives report blobs on an IPFS node through its HTTP
// API, yielding a content address clients can fetch independently.
package ipfs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/verisource/verisource/internal/core/domain"
	"github.com/verisource/verisource/internal/infrastructure/resilience"
)

type Client struct {
	apiURL     string
	httpClient *http.Client
	executor   *resilience.Executor
}

// New builds the archive client. An empty apiURL yields a client whose
// Available() is false; archival is skipped entirely in that case.
func New(apiURL string, executor *resilience.Executor) *Client {
	return &Client{
		apiURL:     strings.TrimRight(apiURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		executor:   executor,
	}
}

func (c *Client) Available() bool { return c.apiURL != "" }

type addResponse struct {
	Hash string `json:"Hash"`
	Size string `json:"Size"`
}

// Store pins the report blob via /api/v0/add and returns its content
// address.
func (c *Client) Store(ctx context.Context, reportJSON []byte) (domain.ArchiveReceipt, error) {
	if !c.Available() {
		return domain.ArchiveReceipt{}, errors.New("ipfs api not configured")
	}

	var response addResponse
	call := func(callCtx context.Context) error {
		return c.add(callCtx, reportJSON, &response)
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "ipfs.add", call, classifyIPFSError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return domain.ArchiveReceipt{}, fmt.Errorf("archive report: %w", err)
	}
	if response.Hash == "" {
		return domain.ArchiveReceipt{}, errors.New("ipfs add returned no hash")
	}

	size, _ := strconv.ParseInt(response.Size, 10, 64)
	return domain.ArchiveReceipt{ContentAddress: response.Hash, Size: size}, nil
}

func (c *Client) add(ctx context.Context, blob []byte, out *addResponse) error {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "report.json")
	if err != nil {
		return fmt.Errorf("create multipart: %w", err)
	}
	if _, err := part.Write(blob); err != nil {
		return fmt.Errorf("write multipart: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/api/v0/add?pin=true", &body)
	if err != nil {
		return fmt.Errorf("create add request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ipfs add request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &apiError{statusCode: resp.StatusCode, status: resp.Status, body: strings.TrimSpace(string(msg))}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode add response: %w", err)
	}
	return nil
}

type apiError struct {
	statusCode int
	status     string
	body       string
}

func (e *apiError) Error() string {
	if e.body == "" {
		return fmt.Sprintf("ipfs add status: %s", e.status)
	}
	return fmt.Sprintf("ipfs add status: %s: %s", e.status, e.body)
}

func classifyIPFSError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}
	var status *apiError
	if errors.As(err, &status) {
		retryable := status.statusCode >= 500
		return resilience.ErrorClassification{Retryable: retryable, RecordFailure: retryable}
	}
	return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
}
