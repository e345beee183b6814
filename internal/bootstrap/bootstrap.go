package bootstrap

import (
	"context"
	"fmt"

	"github.com/verisource/verisource/internal/config"
	"github.com/verisource/verisource/internal/core/ports"
	"github.com/verisource/verisource/internal/core/usecase"
	"github.com/verisource/verisource/internal/infrastructure/anchor/gateway"
	"github.com/verisource/verisource/internal/infrastructure/archive/ipfs"
	"github.com/verisource/verisource/internal/infrastructure/corpus/sqlitefts"
	"github.com/verisource/verisource/internal/infrastructure/embedding/ollama"
	"github.com/verisource/verisource/internal/infrastructure/extractor/submission"
	"github.com/verisource/verisource/internal/infrastructure/queue/nats"
	"github.com/verisource/verisource/internal/infrastructure/repository/postgres"
	"github.com/verisource/verisource/internal/infrastructure/resilience"
	"github.com/verisource/verisource/internal/infrastructure/scoring/lexical"
	"github.com/verisource/verisource/internal/infrastructure/scoring/semantic"
	"github.com/verisource/verisource/internal/infrastructure/storage/localfs"
	"github.com/verisource/verisource/internal/infrastructure/textproc"
)

// App wires the full dependency graph once for both binaries; the api
// uses the inbound ports, the worker uses the queue and the processor.
type App struct {
	Config config.Config

	Queue       ports.MessageQueue
	Reports     ports.ReportRepository
	Submissions ports.SubmissionRepository
	Corpus      ports.CorpusIndex
	Anchor      ports.AnchorService

	CheckUC   ports.PlagiarismChecker
	IngestUC  ports.SubmissionIngestor
	ProcessUC ports.SubmissionProcessor

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		return nil, fmt.Errorf("ensure postgres schema: %w", err)
	}
	reports := postgres.NewReportRepository(db)
	submissions := postgres.NewSubmissionRepository(db)

	corpus, err := sqlitefts.Open(cfg.CorpusDBPath)
	if err != nil {
		return nil, fmt.Errorf("open corpus store: %w", err)
	}
	if err := corpus.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure corpus schema: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	embedClient := ollama.New(cfg.OllamaURL, cfg.OllamaEmbedModel)
	scorers := []ports.SimilarityScorer{
		lexical.New(),
		semantic.New(ctx, embedClient),
	}

	checkUC := usecase.NewDetectUseCase(
		usecase.DetectConfig{
			MaxCandidates:              cfg.MaxCandidates,
			QueryTokenLimit:            cfg.QueryTokenLimit,
			MethodWeights:              cfg.MethodWeights(),
			DefaultMethodWeight:        cfg.DefaultMethodWeight,
			SignificanceThreshold:      cfg.SignificanceThreshold,
			SourceThreshold:            cfg.SourceThreshold,
			SectionSimilarityThreshold: cfg.SectionSimilarityThreshold,
			MinSentenceLength:          cfg.MinSentenceLength,
		},
		corpus,
		textproc.NewCleaner(),
		scorers...,
	)

	anchor := gateway.New(cfg.AnchorGatewayURL, executor)
	archive := ipfs.New(cfg.IPFSAPIURL, executor)
	extractor := submission.NewExtractor(storage)

	ingestUC := usecase.NewIngestSubmissionUseCase(submissions, storage, queue)
	processUC := usecase.NewProcessSubmissionUseCase(submissions, extractor, checkUC, reports, anchor, archive)

	return &App{
		Config: cfg,

		Queue:       queue,
		Reports:     reports,
		Submissions: submissions,
		Corpus:      corpus,
		Anchor:      anchor,

		CheckUC:   checkUC,
		IngestUC:  ingestUC,
		ProcessUC: processUC,

		closeFn: func() {
			queue.Close()
			_ = corpus.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
