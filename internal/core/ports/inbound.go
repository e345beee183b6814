package ports

import (
	"context"
	"io"

	"github.com/verisource/verisource/internal/core/domain"
)

// SubmissionIngestor is the inbound contract for async upload orchestration.
type SubmissionIngestor interface {
	Upload(ctx context.Context, filename, mimeType, userID string, anchor bool, body io.Reader) (*domain.Submission, error)
}

// PlagiarismChecker runs one synchronous detection run over already
// extracted submission text.
type PlagiarismChecker interface {
	Check(ctx context.Context, rawText string) (*domain.Report, error)
}

// SubmissionProcessor is the inbound contract for asynchronous runs.
type SubmissionProcessor interface {
	ProcessByID(ctx context.Context, submissionID string) error
}

// ReportReader is the inbound read model for finished reports.
type ReportReader interface {
	GetByID(ctx context.Context, reportID string) (*domain.Report, error)
}
