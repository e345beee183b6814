package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/verisource/verisource/internal/core/domain"
	"github.com/verisource/verisource/internal/core/ports"
)

// ProcessSubmissionUseCase drives one asynchronous detection run end to
// end: extract, check, persist, then best-effort anchoring and archival.
// Anchor and archive failures lose enrichment only; the stored report is
// the source of truth either way.
type ProcessSubmissionUseCase struct {
	submissions ports.SubmissionRepository
	extractor   ports.TextExtractor
	checker     ports.PlagiarismChecker
	reports     ports.ReportRepository
	anchor      ports.AnchorService
	archive     ports.ArchiveService
}

func NewProcessSubmissionUseCase(
	submissions ports.SubmissionRepository,
	extractor ports.TextExtractor,
	checker ports.PlagiarismChecker,
	reports ports.ReportRepository,
	anchor ports.AnchorService,
	archive ports.ArchiveService,
) *ProcessSubmissionUseCase {
	return &ProcessSubmissionUseCase{
		submissions: submissions,
		extractor:   extractor,
		checker:     checker,
		reports:     reports,
		anchor:      anchor,
		archive:     archive,
	}
}

func (uc *ProcessSubmissionUseCase) ProcessByID(ctx context.Context, submissionID string) error {
	if err := uc.submissions.UpdateStatus(ctx, submissionID, domain.SubmissionProcessing, ""); err != nil {
		return fmt.Errorf("set status=processing: %w", err)
	}

	report, err := uc.runDetection(ctx, submissionID)
	if err != nil {
		if failErr := uc.markFailed(ctx, submissionID, err); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	uc.enrichReport(ctx, submissionID, report)

	if err := uc.submissions.UpdateStatus(ctx, submissionID, domain.SubmissionCompleted, ""); err != nil {
		return fmt.Errorf("set status=completed: %w", err)
	}
	return nil
}

func (uc *ProcessSubmissionUseCase) runDetection(ctx context.Context, submissionID string) (*domain.Report, error) {
	sub, err := uc.submissions.GetByID(ctx, submissionID)
	if err != nil {
		return nil, fmt.Errorf("fetch submission by id: %w", err)
	}

	text, err := uc.extractor.Extract(ctx, sub)
	if err != nil {
		return nil, fmt.Errorf("extract submission text: %w", err)
	}

	report, err := uc.checker.Check(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("run detection: %w", err)
	}

	documentHash := sha256Hex([]byte(text))
	if err := uc.reports.Create(ctx, report, documentHash); err != nil {
		return nil, fmt.Errorf("persist report: %w", err)
	}
	if err := uc.submissions.SetReportID(ctx, submissionID, report.ReportID); err != nil {
		return nil, fmt.Errorf("link report to submission: %w", err)
	}

	uc.anchorReport(ctx, sub, report, documentHash)
	return report, nil
}

func (uc *ProcessSubmissionUseCase) anchorReport(ctx context.Context, sub *domain.Submission, report *domain.Report, documentHash string) {
	if !sub.Anchor || !uc.anchor.Available() {
		return
	}

	contentHash, err := reportChecksum(report)
	if err != nil {
		slog.Warn("report checksum failed, skipping anchor", "report_id", report.ReportID, "error", err)
		return
	}

	receipt, err := uc.anchor.Anchor(ctx, report.ReportID, contentHash, map[string]string{
		"document_hash":    documentHash,
		"plagiarism_level": report.PlagiarismLevel,
	})
	if err != nil {
		slog.Warn("anchor service failed, report stored without anchor", "report_id", report.ReportID, "error", err)
		return
	}

	report.Anchor = &receipt
	if err := uc.reports.SetAnchor(ctx, report.ReportID, receipt); err != nil {
		slog.Warn("persist anchor receipt failed", "report_id", report.ReportID, "error", err)
	}
}

// enrichReport archives the report blob. Best effort only.
func (uc *ProcessSubmissionUseCase) enrichReport(ctx context.Context, submissionID string, report *domain.Report) {
	if !uc.archive.Available() {
		return
	}

	blob, err := json.Marshal(report)
	if err != nil {
		slog.Warn("marshal report for archive failed", "report_id", report.ReportID, "error", err)
		return
	}

	receipt, err := uc.archive.Store(ctx, blob)
	if err != nil {
		slog.Warn("archive service failed, report stored without archive", "submission_id", submissionID, "report_id", report.ReportID, "error", err)
		return
	}

	report.Archive = &receipt
	if err := uc.reports.SetArchive(ctx, report.ReportID, receipt); err != nil {
		slog.Warn("persist archive receipt failed", "report_id", report.ReportID, "error", err)
	}
}

func (uc *ProcessSubmissionUseCase) markFailed(ctx context.Context, submissionID string, processErr error) error {
	if processErr == nil {
		return nil
	}
	return uc.submissions.UpdateStatus(ctx, submissionID, domain.SubmissionFailed, processErr.Error())
}

// reportChecksum hashes the canonical JSON encoding of the report.
func reportChecksum(report *domain.Report) (string, error) {
	blob, err := json.Marshal(report)
	if err != nil {
		return "", err
	}
	return sha256Hex(blob), nil
}

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
