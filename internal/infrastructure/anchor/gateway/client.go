// Package gateway anchors report hashes on an external tamper-evident
// ledger through its HTTP gateway.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/verisource/verisource/internal/core/domain"
	"github.com/verisource/verisource/internal/core/ports"
	"github.com/verisource/verisource/internal/infrastructure/resilience"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	executor   *resilience.Executor
}

// New builds the anchor client. An empty baseURL yields a client whose
// Available() is false; callers skip anchoring entirely in that case.
func New(baseURL string, executor *resilience.Executor) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		executor:   executor,
	}
}

func (c *Client) Available() bool { return c.baseURL != "" }

type anchorRequest struct {
	ReportID    string            `json:"report_id"`
	ContentHash string            `json:"content_hash"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

type anchorResponse struct {
	Reference  string    `json:"reference"`
	AnchoredAt time.Time `json:"anchored_at"`
}

func (c *Client) Anchor(ctx context.Context, reportID, contentHash string, metadata map[string]string) (domain.AnchorReceipt, error) {
	if !c.Available() {
		return domain.AnchorReceipt{}, errors.New("anchor gateway not configured")
	}

	payload := anchorRequest{ReportID: reportID, ContentHash: contentHash, Metadata: metadata}
	var response anchorResponse

	call := func(callCtx context.Context) error {
		return c.postJSON(callCtx, "/v1/anchors", payload, &response)
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "anchor.create", call, classifyHTTPError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return domain.AnchorReceipt{}, fmt.Errorf("anchor report: %w", err)
	}

	receipt := domain.AnchorReceipt{Reference: response.Reference, AnchoredAt: response.AnchoredAt}
	if receipt.AnchoredAt.IsZero() {
		receipt.AnchoredAt = time.Now().UTC()
	}
	return receipt, nil
}

type verifyResponse struct {
	Exists     bool              `json:"exists"`
	AnchoredAt time.Time         `json:"anchored_at"`
	Metadata   map[string]string `json:"metadata"`
}

func (c *Client) Verify(ctx context.Context, reportID string) (ports.AnchorVerification, error) {
	if !c.Available() {
		return ports.AnchorVerification{}, errors.New("anchor gateway not configured")
	}

	endpoint := c.baseURL + "/v1/anchors/" + url.PathEscape(reportID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return ports.AnchorVerification{}, fmt.Errorf("create verify request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ports.AnchorVerification{}, fmt.Errorf("anchor verify request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ports.AnchorVerification{Exists: false}, nil
	}
	if resp.StatusCode >= 300 {
		return ports.AnchorVerification{}, newStatusError("verify", resp)
	}

	var response verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return ports.AnchorVerification{}, fmt.Errorf("decode verify response: %w", err)
	}
	return ports.AnchorVerification{
		Exists:     response.Exists,
		AnchoredAt: response.AnchoredAt,
		Metadata:   response.Metadata,
	}, nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal anchor request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create anchor request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("anchor gateway request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return newStatusError("anchor", resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode anchor response: %w", err)
	}
	return nil
}

type statusError struct {
	operation  string
	statusCode int
	status     string
	body       string
}

func newStatusError(operation string, resp *http.Response) *statusError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	return &statusError{
		operation:  operation,
		statusCode: resp.StatusCode,
		status:     resp.Status,
		body:       strings.TrimSpace(string(body)),
	}
}

func (e *statusError) Error() string {
	if e.body == "" {
		return fmt.Sprintf("anchor gateway %s status: %s", e.operation, e.status)
	}
	return fmt.Sprintf("anchor gateway %s status: %s: %s", e.operation, e.status, e.body)
}

func classifyHTTPError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}
	var status *statusError
	if errors.As(err, &status) {
		retryable := status.statusCode >= 500 || status.statusCode == http.StatusTooManyRequests
		return resilience.ErrorClassification{Retryable: retryable, RecordFailure: retryable}
	}
	// Transport-level failures are worth another attempt.
	return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
}
