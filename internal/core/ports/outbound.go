package ports

import (
	"context"
	"io"
	"time"

	"github.com/verisource/verisource/internal/core/domain"
)

// CorpusIndex narrows the reference corpus to a bounded candidate set.
// SearchCandidates may fail when the lexical index is unavailable; Sample
// is the unordered fallback.
type CorpusIndex interface {
	SearchCandidates(ctx context.Context, queryTokens []string, maxResults int) ([]domain.Candidate, error)
	Sample(ctx context.Context, maxResults int) ([]domain.Candidate, error)
	GetByID(ctx context.Context, docID int64) (*domain.CorpusDocument, error)
	Count(ctx context.Context) (int64, error)
}

// SimilarityScorer is the polymorphic pairwise scoring capability.
// Implementations must be safe for concurrent calls. Available reports
// the process-wide capability flag fixed at construction; an unavailable
// scorer returns 0.0 from every call.
type SimilarityScorer interface {
	Method() string
	Available() bool
	CalculateSimilarity(ctx context.Context, a, b string) (float64, error)
}

// TextNormalizer produces the cleaned token stream used for index
// queries. Scorers always compare raw text.
type TextNormalizer interface {
	Tokens(text string) []string
}

// ReportRepository persists immutable detection reports.
type ReportRepository interface {
	Create(ctx context.Context, report *domain.Report, documentHash string) error
	GetByID(ctx context.Context, reportID string) (*domain.Report, error)
	SetAnchor(ctx context.Context, reportID string, receipt domain.AnchorReceipt) error
	SetArchive(ctx context.Context, reportID string, receipt domain.ArchiveReceipt) error
	Count(ctx context.Context) (int64, error)
}

// SubmissionRepository persists submission state across the async flow.
type SubmissionRepository interface {
	Create(ctx context.Context, sub *domain.Submission) error
	GetByID(ctx context.Context, id string) (*domain.Submission, error)
	UpdateStatus(ctx context.Context, id string, status domain.SubmissionStatus, errMessage string) error
	SetReportID(ctx context.Context, id, reportID string) error
	Count(ctx context.Context) (int64, error)
}

// ObjectStorage stores raw uploaded documents.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue publishes/consumes submission events.
type MessageQueue interface {
	PublishSubmissionReceived(ctx context.Context, submissionID string) error
	SubscribeSubmissionReceived(ctx context.Context, handler func(context.Context, string) error) error
}

// TextExtractor decodes a stored submission into plain text.
type TextExtractor interface {
	Extract(ctx context.Context, sub *domain.Submission) (string, error)
}

// AnchorService timestamps a report hash on an external tamper-evident
// ledger. Failures are non-fatal enrichment losses.
type AnchorService interface {
	Anchor(ctx context.Context, reportID, contentHash string, metadata map[string]string) (domain.AnchorReceipt, error)
	Verify(ctx context.Context, reportID string) (AnchorVerification, error)
	Available() bool
}

type AnchorVerification struct {
	Exists     bool              `json:"exists"`
	AnchoredAt time.Time         `json:"anchored_at,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// ArchiveService stores report blobs in content-addressed storage.
// Failures are non-fatal enrichment losses.
type ArchiveService interface {
	Store(ctx context.Context, reportJSON []byte) (domain.ArchiveReceipt, error)
	Available() bool
}
