package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/verisource/verisource/internal/config"
	"github.com/verisource/verisource/internal/core/domain"
	"github.com/verisource/verisource/internal/core/ports"
)

type fakeChecker struct {
	report *domain.Report
	err    error
}

func (f fakeChecker) Check(context.Context, string) (*domain.Report, error) {
	return f.report, f.err
}

type fakeIngestor struct {
	sub *domain.Submission
	err error

	gotFilename string
	gotAnchor   bool
}

func (f *fakeIngestor) Upload(_ context.Context, filename, _, _ string, anchor bool, _ io.Reader) (*domain.Submission, error) {
	f.gotFilename = filename
	f.gotAnchor = anchor
	return f.sub, f.err
}

type fakeReportRepo struct {
	reports map[string]*domain.Report
}

func (f fakeReportRepo) Create(context.Context, *domain.Report, string) error { return nil }

func (f fakeReportRepo) GetByID(_ context.Context, reportID string) (*domain.Report, error) {
	report, ok := f.reports[reportID]
	if !ok {
		return nil, domain.WrapError(domain.ErrReportNotFound, "get report", domain.ErrReportNotFound)
	}
	return report, nil
}

func (f fakeReportRepo) SetAnchor(context.Context, string, domain.AnchorReceipt) error { return nil }
func (f fakeReportRepo) SetArchive(context.Context, string, domain.ArchiveReceipt) error {
	return nil
}
func (f fakeReportRepo) Count(context.Context) (int64, error) { return int64(len(f.reports)), nil }

type fakeSubmissionRepo struct {
	subs map[string]*domain.Submission
}

func (f fakeSubmissionRepo) Create(context.Context, *domain.Submission) error { return nil }

func (f fakeSubmissionRepo) GetByID(_ context.Context, id string) (*domain.Submission, error) {
	sub, ok := f.subs[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrSubmissionNotFound, "get submission", domain.ErrSubmissionNotFound)
	}
	return sub, nil
}

func (f fakeSubmissionRepo) UpdateStatus(context.Context, string, domain.SubmissionStatus, string) error {
	return nil
}
func (f fakeSubmissionRepo) SetReportID(context.Context, string, string) error { return nil }
func (f fakeSubmissionRepo) Count(context.Context) (int64, error)              { return int64(len(f.subs)), nil }

type fakeCorpus struct {
	count int64
}

func (f fakeCorpus) SearchCandidates(context.Context, []string, int) ([]domain.Candidate, error) {
	return nil, nil
}
func (f fakeCorpus) Sample(context.Context, int) ([]domain.Candidate, error) { return nil, nil }
func (f fakeCorpus) GetByID(context.Context, int64) (*domain.CorpusDocument, error) {
	return nil, domain.ErrDocumentNotFound
}
func (f fakeCorpus) Count(context.Context) (int64, error) { return f.count, nil }

type fakeAnchor struct {
	available    bool
	verification ports.AnchorVerification
	err          error
}

func (f fakeAnchor) Anchor(context.Context, string, string, map[string]string) (domain.AnchorReceipt, error) {
	return domain.AnchorReceipt{}, nil
}

func (f fakeAnchor) Verify(context.Context, string) (ports.AnchorVerification, error) {
	return f.verification, f.err
}

func (f fakeAnchor) Available() bool { return f.available }

type handlerDeps struct {
	cfg     config.Config
	checker ports.PlagiarismChecker
	ingest  ports.SubmissionIngestor
	reports ports.ReportRepository
	subs    ports.SubmissionRepository
	corpus  ports.CorpusIndex
	anchor  ports.AnchorService
}

func newTestHandler(deps handlerDeps) http.Handler {
	if deps.checker == nil {
		deps.checker = fakeChecker{report: sampleReport()}
	}
	if deps.ingest == nil {
		deps.ingest = &fakeIngestor{sub: &domain.Submission{ID: "sub-1", Status: domain.SubmissionUploaded}}
	}
	if deps.reports == nil {
		deps.reports = fakeReportRepo{}
	}
	if deps.subs == nil {
		deps.subs = fakeSubmissionRepo{}
	}
	if deps.corpus == nil {
		deps.corpus = fakeCorpus{}
	}
	if deps.anchor == nil {
		deps.anchor = fakeAnchor{}
	}
	router := NewRouter(deps.cfg, deps.checker, deps.ingest, deps.reports, deps.subs, deps.corpus, deps.anchor, nil)
	return router.Handler()
}

func sampleReport() *domain.Report {
	return &domain.Report{
		ReportID:            "RPT_20260314T092653_deadbeef",
		Timestamp:           time.Now().UTC(),
		OverallScore:        0.42,
		PlagiarismLevel:     "Low",
		DetectionMethods:    []string{domain.MethodLexical},
		Sources:             []domain.SourceSummary{},
		PlagiarizedSections: []domain.PlagiarizedSection{},
		Recommendations:     []string{"Low plagiarism detected. Ensure proper citations are added."},
	}
}

func TestCheckEndpointReturnsReport(t *testing.T) {
	handler := newTestHandler(handlerDeps{})

	body := strings.NewReader(`{"text":"Submission text under test."}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/checks", body)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}

	var report domain.Report
	if err := json.NewDecoder(res.Body).Decode(&report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if report.ReportID == "" || report.PlagiarismLevel != "Low" {
		t.Fatalf("unexpected report: %+v", report)
	}
}

func TestCheckEndpointRejectsEmptyText(t *testing.T) {
	handler := newTestHandler(handlerDeps{})

	req := httptest.NewRequest(http.MethodPost, "/v1/checks", strings.NewReader(`{"text":"  "}`))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestCheckEndpointRejectsInvalidJSON(t *testing.T) {
	handler := newTestHandler(handlerDeps{})

	req := httptest.NewRequest(http.MethodPost, "/v1/checks", strings.NewReader(`{broken`))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestCheckEndpointMapsDomainErrors(t *testing.T) {
	handler := newTestHandler(handlerDeps{
		checker: fakeChecker{err: domain.WrapError(domain.ErrInvalidInput, "check", domain.ErrInvalidInput)},
	})

	req := httptest.NewRequest(http.MethodPost, "/v1/checks", strings.NewReader(`{"text":"x y z"}`))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid input kind, got %d", res.Code)
	}
}

func TestUploadSubmissionAccepted(t *testing.T) {
	ingest := &fakeIngestor{sub: &domain.Submission{ID: "sub-1", Status: domain.SubmissionUploaded}}
	handler := newTestHandler(handlerDeps{ingest: ingest})

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "essay.txt")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte("essay body")); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := writer.WriteField("anchor", "true"); err != nil {
		t.Fatalf("write anchor field: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/submissions", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", res.Code, res.Body.String())
	}
	if ingest.gotFilename != "essay.txt" {
		t.Fatalf("filename = %q", ingest.gotFilename)
	}
	if !ingest.gotAnchor {
		t.Fatalf("anchor flag not propagated")
	}
}

func TestUploadSubmissionRequiresFile(t *testing.T) {
	handler := newTestHandler(handlerDeps{})

	req := httptest.NewRequest(http.MethodPost, "/v1/submissions", strings.NewReader("no multipart"))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestGetSubmissionByID(t *testing.T) {
	handler := newTestHandler(handlerDeps{
		subs: fakeSubmissionRepo{subs: map[string]*domain.Submission{
			"sub-1": {ID: "sub-1", Status: domain.SubmissionCompleted, ReportID: "RPT_X"},
		}},
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/submissions/sub-1", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	var sub domain.Submission
	if err := json.NewDecoder(res.Body).Decode(&sub); err != nil {
		t.Fatalf("decode submission: %v", err)
	}
	if sub.Status != domain.SubmissionCompleted || sub.ReportID != "RPT_X" {
		t.Fatalf("unexpected submission: %+v", sub)
	}
}

func TestGetSubmissionNotFound(t *testing.T) {
	handler := newTestHandler(handlerDeps{})

	req := httptest.NewRequest(http.MethodGet, "/v1/submissions/missing", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}
}

func TestGetReportByID(t *testing.T) {
	handler := newTestHandler(handlerDeps{
		reports: fakeReportRepo{reports: map[string]*domain.Report{
			"RPT_X": sampleReport(),
		}},
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/reports/RPT_X", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
}

func TestGetReportNotFound(t *testing.T) {
	handler := newTestHandler(handlerDeps{})

	req := httptest.NewRequest(http.MethodGet, "/v1/reports/missing", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}
}

func TestVerifyReportReturnsLedgerView(t *testing.T) {
	handler := newTestHandler(handlerDeps{
		anchor: fakeAnchor{
			available:    true,
			verification: ports.AnchorVerification{Exists: true, AnchoredAt: time.Now().UTC()},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/reports/RPT_X/verify", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	var verification ports.AnchorVerification
	if err := json.NewDecoder(res.Body).Decode(&verification); err != nil {
		t.Fatalf("decode verification: %v", err)
	}
	if !verification.Exists {
		t.Fatalf("expected exists=true, got %+v", verification)
	}
}

func TestVerifyReportWithoutAnchorConfigured(t *testing.T) {
	handler := newTestHandler(handlerDeps{anchor: fakeAnchor{available: false}})

	req := httptest.NewRequest(http.MethodGet, "/v1/reports/RPT_X/verify", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", res.Code)
	}
}

func TestGetStats(t *testing.T) {
	handler := newTestHandler(handlerDeps{
		corpus: fakeCorpus{count: 1200},
		reports: fakeReportRepo{reports: map[string]*domain.Report{
			"RPT_X": sampleReport(),
		}},
		subs: fakeSubmissionRepo{subs: map[string]*domain.Submission{
			"sub-1": {ID: "sub-1"},
			"sub-2": {ID: "sub-2"},
		}},
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/stats", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	var stats map[string]int64
	if err := json.NewDecoder(res.Body).Decode(&stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats["corpus_documents"] != 1200 || stats["reports"] != 1 || stats["submissions"] != 2 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestHealthz(t *testing.T) {
	handler := newTestHandler(handlerDeps{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if res.Header().Get("X-Request-Id") == "" {
		t.Fatalf("expected generated request id header")
	}
}

func TestMethodNotAllowed(t *testing.T) {
	handler := newTestHandler(handlerDeps{})

	req := httptest.NewRequest(http.MethodDelete, "/v1/checks", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", res.Code)
	}
}
