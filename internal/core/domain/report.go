package domain

import "time"

// SourceSummary is a ranked, per-document view of the best score entry
// that survived aggregation.
type SourceSummary struct {
	Title      string  `json:"title"`
	DocID      int64   `json:"doc_id"`
	Similarity float64 `json:"similarity"`
	Method     string  `json:"method"`
	RiskLevel  string  `json:"risk_level"`
}

// PlagiarizedSection flags one submission sentence found verbatim in a
// high-similarity candidate.
type PlagiarizedSection struct {
	SentenceIndex int     `json:"sentence_index"`
	Sentence      string  `json:"sentence"`
	Similarity    float64 `json:"similarity"`
	Source        string  `json:"source"`
	SourceID      int64   `json:"source_id"`
}

type DocumentStats struct {
	WordCount               int     `json:"word_count"`
	SentenceCount           int     `json:"sentence_count"`
	CharacterCount          int     `json:"character_count"`
	AverageWordsPerSentence float64 `json:"average_words_per_sentence"`
	ReadingLevel            string  `json:"reading_level"`
}

// AnchorReceipt records a tamper-evident anchoring of the report hash.
type AnchorReceipt struct {
	Reference  string    `json:"reference"`
	AnchoredAt time.Time `json:"anchored_at"`
}

// ArchiveReceipt records the content address of the archived report blob.
type ArchiveReceipt struct {
	ContentAddress string `json:"content_address"`
	Size           int64  `json:"size,omitempty"`
}

// Report is the immutable result of one detection run.
type Report struct {
	ReportID            string               `json:"report_id"`
	Timestamp           time.Time            `json:"timestamp"`
	OverallScore        float64              `json:"overall_score"`
	PlagiarismLevel     string               `json:"plagiarism_level"`
	DetectionMethods    []string             `json:"detection_methods"`
	TotalSourcesChecked int                  `json:"total_sources_checked"`
	Sources             []SourceSummary      `json:"sources"`
	PlagiarizedSections []PlagiarizedSection `json:"plagiarized_sections"`
	DocumentStats       DocumentStats        `json:"document_stats"`
	Recommendations     []string             `json:"recommendations"`
	Anchor              *AnchorReceipt       `json:"anchor,omitempty"`
	Archive             *ArchiveReceipt      `json:"archive,omitempty"`
}
