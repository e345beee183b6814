package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/verisource/verisource/internal/core/domain"
	"github.com/verisource/verisource/internal/core/ports"
)

type extractorFake struct {
	text string
	err  error
}

func (f *extractorFake) Extract(context.Context, *domain.Submission) (string, error) {
	return f.text, f.err
}

type checkerFake struct {
	report *domain.Report
	err    error
}

func (f *checkerFake) Check(context.Context, string) (*domain.Report, error) {
	return f.report, f.err
}

type reportRepoFake struct {
	created   []*domain.Report
	hashes    []string
	createErr error
	anchors   map[string]domain.AnchorReceipt
	archives  map[string]domain.ArchiveReceipt
}

func (f *reportRepoFake) Create(_ context.Context, report *domain.Report, documentHash string) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, report)
	f.hashes = append(f.hashes, documentHash)
	return nil
}

func (f *reportRepoFake) GetByID(_ context.Context, reportID string) (*domain.Report, error) {
	for _, report := range f.created {
		if report.ReportID == reportID {
			return report, nil
		}
	}
	return nil, domain.ErrReportNotFound
}

func (f *reportRepoFake) SetAnchor(_ context.Context, reportID string, receipt domain.AnchorReceipt) error {
	if f.anchors == nil {
		f.anchors = make(map[string]domain.AnchorReceipt)
	}
	f.anchors[reportID] = receipt
	return nil
}

func (f *reportRepoFake) SetArchive(_ context.Context, reportID string, receipt domain.ArchiveReceipt) error {
	if f.archives == nil {
		f.archives = make(map[string]domain.ArchiveReceipt)
	}
	f.archives[reportID] = receipt
	return nil
}

func (f *reportRepoFake) Count(context.Context) (int64, error) {
	return int64(len(f.created)), nil
}

type anchorFake struct {
	available bool
	err       error
	calls     int
	lastHash  string
}

func (f *anchorFake) Anchor(_ context.Context, _, contentHash string, _ map[string]string) (domain.AnchorReceipt, error) {
	f.calls++
	f.lastHash = contentHash
	if f.err != nil {
		return domain.AnchorReceipt{}, f.err
	}
	return domain.AnchorReceipt{Reference: "tx-0001", AnchoredAt: time.Now().UTC()}, nil
}

func (f *anchorFake) Verify(context.Context, string) (ports.AnchorVerification, error) {
	return ports.AnchorVerification{Exists: f.calls > 0}, nil
}

func (f *anchorFake) Available() bool { return f.available }

type archiveFake struct {
	available bool
	err       error
	calls     int
}

func (f *archiveFake) Store(_ context.Context, reportJSON []byte) (domain.ArchiveReceipt, error) {
	f.calls++
	if f.err != nil {
		return domain.ArchiveReceipt{}, f.err
	}
	return domain.ArchiveReceipt{ContentAddress: "bafy-test", Size: int64(len(reportJSON))}, nil
}

func (f *archiveFake) Available() bool { return f.available }

func processFixture(anchorRequested bool) (*submissionRepoFake, *reportRepoFake, *domain.Report) {
	subs := &submissionRepoFake{
		byID: map[string]*domain.Submission{
			"sub-1": {ID: "sub-1", Filename: "essay.txt", Anchor: anchorRequested},
		},
	}
	report := &domain.Report{
		ReportID:        "RPT_20260314T092653_deadbeef",
		Timestamp:       time.Now().UTC(),
		OverallScore:    0.42,
		PlagiarismLevel: "Low",
	}
	return subs, &reportRepoFake{}, report
}

func TestProcessByIDHappyPath(t *testing.T) {
	subs, reports, report := processFixture(true)
	anchor := &anchorFake{available: true}
	archive := &archiveFake{available: true}

	uc := NewProcessSubmissionUseCase(
		subs,
		&extractorFake{text: "extracted submission text"},
		&checkerFake{report: report},
		reports,
		anchor,
		archive,
	)

	if err := uc.ProcessByID(context.Background(), "sub-1"); err != nil {
		t.Fatalf("ProcessByID() error = %v", err)
	}

	wantStatuses := []domain.SubmissionStatus{domain.SubmissionProcessing, domain.SubmissionCompleted}
	if len(subs.statuses) != 2 || subs.statuses[0] != wantStatuses[0] || subs.statuses[1] != wantStatuses[1] {
		t.Fatalf("status sequence = %v, want %v", subs.statuses, wantStatuses)
	}
	if len(reports.created) != 1 {
		t.Fatalf("expected one persisted report, got %d", len(reports.created))
	}
	if len(reports.hashes) != 1 || len(reports.hashes[0]) != 64 {
		t.Fatalf("expected sha256 document hash, got %v", reports.hashes)
	}
	if len(subs.reportIDs) != 1 || subs.reportIDs[0] != report.ReportID {
		t.Fatalf("expected report linked to submission, got %v", subs.reportIDs)
	}
	if anchor.calls != 1 {
		t.Fatalf("expected one anchor call, got %d", anchor.calls)
	}
	if _, ok := reports.anchors[report.ReportID]; !ok {
		t.Fatalf("anchor receipt not persisted")
	}
	if archive.calls != 1 {
		t.Fatalf("expected one archive call, got %d", archive.calls)
	}
	if _, ok := reports.archives[report.ReportID]; !ok {
		t.Fatalf("archive receipt not persisted")
	}
}

func TestProcessByIDExtractionFailureMarksFailed(t *testing.T) {
	subs, reports, _ := processFixture(false)
	extractErr := domain.WrapError(domain.ErrUnparseableSubmission, "extract", errors.New("invalid utf-8"))

	uc := NewProcessSubmissionUseCase(
		subs,
		&extractorFake{err: extractErr},
		&checkerFake{},
		reports,
		&anchorFake{},
		&archiveFake{},
	)

	err := uc.ProcessByID(context.Background(), "sub-1")
	if err == nil {
		t.Fatalf("expected extraction error to surface")
	}
	if !domain.IsKind(err, domain.ErrUnparseableSubmission) {
		t.Fatalf("expected ErrUnparseableSubmission, got %v", err)
	}

	last := subs.statuses[len(subs.statuses)-1]
	if last != domain.SubmissionFailed {
		t.Fatalf("final status = %q, want failed", last)
	}
	if subs.statusErrors[len(subs.statusErrors)-1] == "" {
		t.Fatalf("failed status must carry the error message")
	}
	if len(reports.created) != 0 {
		t.Fatalf("no report must be persisted on failure")
	}
}

func TestProcessByIDAnchorFailureIsNonFatal(t *testing.T) {
	subs, reports, report := processFixture(true)
	anchor := &anchorFake{available: true, err: errors.New("gateway timeout")}

	uc := NewProcessSubmissionUseCase(
		subs,
		&extractorFake{text: "text"},
		&checkerFake{report: report},
		reports,
		anchor,
		&archiveFake{},
	)

	if err := uc.ProcessByID(context.Background(), "sub-1"); err != nil {
		t.Fatalf("anchor failure must not fail processing, got %v", err)
	}
	if subs.statuses[len(subs.statuses)-1] != domain.SubmissionCompleted {
		t.Fatalf("final status = %q, want completed", subs.statuses[len(subs.statuses)-1])
	}
	if len(reports.anchors) != 0 {
		t.Fatalf("no anchor receipt expected after failure")
	}
	if report.Anchor != nil {
		t.Fatalf("report must stay unanchored after failure")
	}
}

func TestProcessByIDArchiveFailureIsNonFatal(t *testing.T) {
	subs, reports, report := processFixture(false)
	archive := &archiveFake{available: true, err: errors.New("node unreachable")}

	uc := NewProcessSubmissionUseCase(
		subs,
		&extractorFake{text: "text"},
		&checkerFake{report: report},
		reports,
		&anchorFake{},
		archive,
	)

	if err := uc.ProcessByID(context.Background(), "sub-1"); err != nil {
		t.Fatalf("archive failure must not fail processing, got %v", err)
	}
	if len(reports.archives) != 0 {
		t.Fatalf("no archive receipt expected after failure")
	}
	if report.Archive != nil {
		t.Fatalf("report must stay unarchived after failure")
	}
}

func TestProcessByIDSkipsAnchorWhenNotRequested(t *testing.T) {
	subs, reports, report := processFixture(false)
	anchor := &anchorFake{available: true}

	uc := NewProcessSubmissionUseCase(
		subs,
		&extractorFake{text: "text"},
		&checkerFake{report: report},
		reports,
		anchor,
		&archiveFake{},
	)

	if err := uc.ProcessByID(context.Background(), "sub-1"); err != nil {
		t.Fatalf("ProcessByID() error = %v", err)
	}
	if anchor.calls != 0 {
		t.Fatalf("anchor must not be called when the submission did not request it")
	}
}

func TestProcessByIDUnknownSubmissionMarksFailed(t *testing.T) {
	subs := &submissionRepoFake{byID: map[string]*domain.Submission{}}
	uc := NewProcessSubmissionUseCase(
		subs,
		&extractorFake{},
		&checkerFake{},
		&reportRepoFake{},
		&anchorFake{},
		&archiveFake{},
	)

	err := uc.ProcessByID(context.Background(), "missing")
	if err == nil {
		t.Fatalf("expected error for unknown submission")
	}
	if !domain.IsKind(err, domain.ErrSubmissionNotFound) {
		t.Fatalf("expected ErrSubmissionNotFound, got %v", err)
	}
}
