package httpadapter

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/verisource/verisource/internal/config"
	"github.com/verisource/verisource/internal/core/ports"
	"github.com/verisource/verisource/internal/observability/metrics"
)

const serviceName = "api"

// Router exposes the detection service: synchronous checks, asynchronous
// submissions, report retrieval with anchor verification, and corpus
// stats.
type Router struct {
	cfg         config.Config
	checker     ports.PlagiarismChecker
	ingestor    ports.SubmissionIngestor
	reports     ports.ReportRepository
	submissions ports.SubmissionRepository
	corpus      ports.CorpusIndex
	anchor      ports.AnchorService
	metrics     *metrics.HTTPServerMetrics
}

func NewRouter(
	cfg config.Config,
	checker ports.PlagiarismChecker,
	ingestor ports.SubmissionIngestor,
	reports ports.ReportRepository,
	submissions ports.SubmissionRepository,
	corpus ports.CorpusIndex,
	anchor ports.AnchorService,
	serverMetrics *metrics.HTTPServerMetrics,
) *Router {
	return &Router{
		cfg:         cfg,
		checker:     checker,
		ingestor:    ingestor,
		reports:     reports,
		submissions: submissions,
		corpus:      corpus,
		anchor:      anchor,
		metrics:     serverMetrics,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/checks", rt.checkDocument)
	mux.HandleFunc("/v1/submissions", rt.uploadSubmission)
	mux.HandleFunc("/v1/submissions/", rt.getSubmissionByID)
	mux.HandleFunc("/v1/reports/", rt.reportRoutes)
	mux.HandleFunc("/v1/stats", rt.getStats)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, rt.cfg.APIMaxConcurrent, 100*time.Millisecond)
	handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// checkDocument runs a full detection synchronously and returns the
// report without persisting it.
func (rt *Router) checkDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	start := time.Now()
	report, err := rt.checker.Check(r.Context(), req.Text)
	if err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordDetectionRun(serviceName, report.PlagiarismLevel,
			report.TotalSourcesChecked, len(report.Sources), time.Since(start))
	}

	writeJSON(w, http.StatusOK, report)
}

func (rt *Router) uploadSubmission(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	anchor := r.FormValue("anchor") == "true"
	userID := r.FormValue("user_id")

	sub, err := rt.ingestor.Upload(
		r.Context(),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		userID,
		anchor,
		file,
	)
	if err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, sub)
}

func (rt *Router) getSubmissionByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/submissions/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "submission id is required")
		return
	}

	sub, err := rt.submissions.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (rt *Router) reportRoutes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/v1/reports/")
	if id, ok := strings.CutSuffix(rest, "/verify"); ok {
		rt.verifyReport(w, r, id)
		return
	}
	if rest == "" || strings.Contains(rest, "/") {
		writeError(w, http.StatusBadRequest, "report id is required")
		return
	}

	report, err := rt.reports.GetByID(r.Context(), rest)
	if err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// verifyReport recomputes nothing locally; it asks the anchor ledger
// whether the report hash was anchored and returns the ledger's view.
func (rt *Router) verifyReport(w http.ResponseWriter, r *http.Request, reportID string) {
	if reportID == "" {
		writeError(w, http.StatusBadRequest, "report id is required")
		return
	}
	if rt.anchor == nil || !rt.anchor.Available() {
		writeError(w, http.StatusServiceUnavailable, "anchor verification not configured")
		return
	}

	verification, err := rt.anchor.Verify(r.Context(), reportID)
	if err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, verification)
}

func (rt *Router) getStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	corpusCount, err := rt.corpus.Count(r.Context())
	if err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}
	reportCount, err := rt.reports.Count(r.Context())
	if err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}
	submissionCount, err := rt.submissions.Count(r.Context())
	if err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{
		"corpus_documents": corpusCount,
		"reports":          reportCount,
		"submissions":      submissionCount,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
