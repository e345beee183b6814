package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/verisource/verisource/internal/core/domain"
)

// ReportRepository stores finished detection reports. The full report is
// kept as a JSONB payload; a few columns are lifted out for querying.
type ReportRepository struct {
	db *sql.DB
}

func NewReportRepository(db *sql.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

func (r *ReportRepository) Create(ctx context.Context, report *domain.Report, documentHash string) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report payload: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO reports (report_id, document_hash, overall_score, plagiarism_level, payload, created_at)
VALUES ($1,$2,$3,$4,$5,$6)
`, report.ReportID, documentHash, report.OverallScore, report.PlagiarismLevel, payload, report.Timestamp)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

func (r *ReportRepository) GetByID(ctx context.Context, reportID string) (*domain.Report, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT payload
FROM reports
WHERE report_id = $1
`, reportID)

	var payload []byte
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrReportNotFound, "get report", fmt.Errorf("id=%s", reportID))
		}
		return nil, fmt.Errorf("scan report: %w", err)
	}

	var report domain.Report
	if err := json.Unmarshal(payload, &report); err != nil {
		return nil, fmt.Errorf("unmarshal report payload: %w", err)
	}
	return &report, nil
}

// SetAnchor records the anchor receipt in both the lifted columns and the
// JSONB payload, so GetByID round-trips the enriched report.
func (r *ReportRepository) SetAnchor(ctx context.Context, reportID string, receipt domain.AnchorReceipt) error {
	receiptJSON, err := json.Marshal(receipt)
	if err != nil {
		return fmt.Errorf("marshal anchor receipt: %w", err)
	}

	result, err := r.db.ExecContext(ctx, `
UPDATE reports
SET anchor_reference = $2, anchored_at = $3, payload = jsonb_set(payload, '{anchor}', $4::jsonb)
WHERE report_id = $1
`, reportID, receipt.Reference, receipt.AnchoredAt, receiptJSON)
	if err != nil {
		return fmt.Errorf("set anchor receipt: %w", err)
	}
	return requireRow(result, reportID)
}

func (r *ReportRepository) SetArchive(ctx context.Context, reportID string, receipt domain.ArchiveReceipt) error {
	receiptJSON, err := json.Marshal(receipt)
	if err != nil {
		return fmt.Errorf("marshal archive receipt: %w", err)
	}

	result, err := r.db.ExecContext(ctx, `
UPDATE reports
SET archive_address = $2, archive_size = $3, payload = jsonb_set(payload, '{archive}', $4::jsonb)
WHERE report_id = $1
`, reportID, receipt.ContentAddress, receipt.Size, receiptJSON)
	if err != nil {
		return fmt.Errorf("set archive receipt: %w", err)
	}
	return requireRow(result, reportID)
}

func (r *ReportRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reports`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count reports: %w", err)
	}
	return count, nil
}

func requireRow(result sql.Result, reportID string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return domain.WrapError(domain.ErrReportNotFound, "update report", fmt.Errorf("id=%s", reportID))
	}
	return nil
}
