package usecase

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/verisource/verisource/internal/core/domain"
	"github.com/verisource/verisource/internal/core/ports"
)

// IngestSubmissionUseCase accepts an upload, persists its metadata and
// hands the detection run to the worker pool via the queue.
type IngestSubmissionUseCase struct {
	submissions ports.SubmissionRepository
	storage     ports.ObjectStorage
	queue       ports.MessageQueue
}

func NewIngestSubmissionUseCase(
	submissions ports.SubmissionRepository,
	storage ports.ObjectStorage,
	queue ports.MessageQueue,
) *IngestSubmissionUseCase {
	return &IngestSubmissionUseCase{
		submissions: submissions,
		storage:     storage,
		queue:       queue,
	}
}

func (uc *IngestSubmissionUseCase) Upload(
	ctx context.Context,
	filename, mimeType, userID string,
	anchor bool,
	body io.Reader,
) (*domain.Submission, error) {
	id := uuid.NewString()
	storageKey := fmt.Sprintf("%s_%s", id, sanitizeFilename(filename))
	now := time.Now().UTC()

	if err := uc.storage.Save(ctx, storageKey, body); err != nil {
		return nil, fmt.Errorf("save submission to storage: %w", err)
	}

	sub := &domain.Submission{
		ID:          id,
		Filename:    filename,
		MimeType:    mimeType,
		StoragePath: storageKey,
		UserID:      userID,
		Status:      domain.SubmissionUploaded,
		Anchor:      anchor,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := uc.submissions.Create(ctx, sub); err != nil {
		return nil, fmt.Errorf("create submission record: %w", err)
	}

	if err := uc.queue.PublishSubmissionReceived(ctx, sub.ID); err != nil {
		return nil, fmt.Errorf("publish submission event: %w", err)
	}

	return sub, nil
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" {
		return "document.bin"
	}
	return base
}
