package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/verisource/verisource/internal/core/domain"
)

type SubmissionRepository struct {
	db *sql.DB
}

func NewSubmissionRepository(db *sql.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

func (r *SubmissionRepository) Create(ctx context.Context, sub *domain.Submission) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO submissions (id, filename, mime_type, storage_path, user_id, content_hash, report_id, status, error_message, anchor, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
`,
		sub.ID, sub.Filename, sub.MimeType, sub.StoragePath, sub.UserID, sub.ContentHash,
		sub.ReportID, string(sub.Status), sub.Error, sub.Anchor, sub.CreatedAt, sub.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

func (r *SubmissionRepository) GetByID(ctx context.Context, id string) (*domain.Submission, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, filename, mime_type, storage_path, user_id, content_hash, report_id, status, error_message, anchor, created_at, updated_at
FROM submissions
WHERE id = $1
`, id)

	var sub domain.Submission
	var status string
	err := row.Scan(
		&sub.ID, &sub.Filename, &sub.MimeType, &sub.StoragePath, &sub.UserID, &sub.ContentHash,
		&sub.ReportID, &status, &sub.Error, &sub.Anchor, &sub.CreatedAt, &sub.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrSubmissionNotFound, "get submission", fmt.Errorf("id=%s", id))
		}
		return nil, fmt.Errorf("scan submission: %w", err)
	}
	sub.Status = domain.SubmissionStatus(status)
	return &sub, nil
}

func (r *SubmissionRepository) UpdateStatus(ctx context.Context, id string, status domain.SubmissionStatus, errMessage string) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE submissions
SET status = $2, error_message = $3, updated_at = $4
WHERE id = $1
`, id, string(status), errMessage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update submission status: %w", err)
	}
	return requireSubmissionRow(result, id)
}

func (r *SubmissionRepository) SetReportID(ctx context.Context, id, reportID string) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE submissions
SET report_id = $2, updated_at = $3
WHERE id = $1
`, id, reportID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set submission report id: %w", err)
	}
	return requireSubmissionRow(result, id)
}

func (r *SubmissionRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM submissions`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count submissions: %w", err)
	}
	return count, nil
}

func requireSubmissionRow(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return domain.WrapError(domain.ErrSubmissionNotFound, "update submission", fmt.Errorf("id=%s", id))
	}
	return nil
}
