package domain

import "time"

type SubmissionStatus string

const (
	SubmissionUploaded   SubmissionStatus = "uploaded"
	SubmissionProcessing SubmissionStatus = "processing"
	SubmissionCompleted  SubmissionStatus = "completed"
	SubmissionFailed     SubmissionStatus = "failed"
)

// Submission is an uploaded document awaiting or undergoing a detection run.
type Submission struct {
	ID          string           `json:"id"`
	Filename    string           `json:"filename"`
	MimeType    string           `json:"mime_type"`
	StoragePath string           `json:"storage_path"`
	UserID      string           `json:"user_id,omitempty"`
	ContentHash string           `json:"content_hash,omitempty"`
	ReportID    string           `json:"report_id,omitempty"`
	Status      SubmissionStatus `json:"status"`
	Error       string           `json:"error,omitempty"`
	Anchor      bool             `json:"anchor"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// CorpusDocument is a reference document owned by the corpus store.
type CorpusDocument struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Source    string    `json:"source,omitempty"`
	DocType   string    `json:"doc_type,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Candidate is a read-only corpus projection selected for deep scoring.
// Its lifetime is a single detection run.
type Candidate struct {
	DocID   int64
	Title   string
	Content string
}
