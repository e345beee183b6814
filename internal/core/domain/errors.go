package domain

import (
	"errors"
	"fmt"
)

var (
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrReportNotFound     = errors.New("report not found")
	ErrDocumentNotFound   = errors.New("corpus document not found")

	// ErrUnparseableSubmission means the uploaded document could not be
	// decoded into text. The only fatal pre-pipeline failure.
	ErrUnparseableSubmission = errors.New("unparseable submission")

	// ErrIndexUnavailable marks lexical index failures. Absorbed by the
	// candidate selector, never surfaced past it.
	ErrIndexUnavailable = errors.New("corpus index unavailable")

	// ErrScorerUnavailable marks a scoring backend that failed to load.
	ErrScorerUnavailable = errors.New("scorer unavailable")

	ErrInvalidInput = errors.New("invalid input")
	ErrTemporary    = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
