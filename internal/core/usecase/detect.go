package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/verisource/verisource/internal/core/domain"
	"github.com/verisource/verisource/internal/core/ports"
)

// DetectConfig carries the pipeline constants. Zero values fall back to
// the documented defaults, so a zero DetectConfig is usable in tests.
type DetectConfig struct {
	MaxCandidates   int
	QueryTokenLimit int

	MethodWeights       map[string]float64
	DefaultMethodWeight float64

	SignificanceThreshold float64
	SourceThreshold       float64

	SectionSimilarityThreshold float64
	MinSentenceLength          int
}

func (c DetectConfig) normalize() DetectConfig {
	out := c
	if out.MaxCandidates <= 0 {
		out.MaxCandidates = 100
	}
	if out.QueryTokenLimit <= 0 {
		out.QueryTokenLimit = 25
	}
	if out.MethodWeights == nil {
		out.MethodWeights = map[string]float64{
			domain.MethodLexical:  0.4,
			domain.MethodSemantic: 0.6,
		}
	}
	if out.DefaultMethodWeight <= 0 {
		out.DefaultMethodWeight = 0.5
	}
	if out.SignificanceThreshold <= 0 {
		out.SignificanceThreshold = 0.1
	}
	if out.SourceThreshold <= 0 {
		out.SourceThreshold = 0.3
	}
	if out.SectionSimilarityThreshold <= 0 {
		out.SectionSimilarityThreshold = 0.7
	}
	if out.MinSentenceLength <= 0 {
		out.MinSentenceLength = 10
	}
	return out
}

// DetectUseCase runs one synchronous detection: bounded candidate
// selection, per-candidate scoring under every registered method,
// aggregation, section location and report synthesis. It holds no
// per-run state; one instance serves concurrent runs.
type DetectUseCase struct {
	cfg        DetectConfig
	index      ports.CorpusIndex
	normalizer ports.TextNormalizer
	scorers    []ports.SimilarityScorer
}

func NewDetectUseCase(
	cfg DetectConfig,
	index ports.CorpusIndex,
	normalizer ports.TextNormalizer,
	scorers ...ports.SimilarityScorer,
) *DetectUseCase {
	return &DetectUseCase{
		cfg:        cfg.normalize(),
		index:      index,
		normalizer: normalizer,
		scorers:    scorers,
	}
}

func (uc *DetectUseCase) Check(ctx context.Context, rawText string) (*domain.Report, error) {
	if strings.TrimSpace(rawText) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "check document", errors.New("empty submission text"))
	}

	candidates := uc.selectCandidates(ctx, rawText)
	entries := uc.scoreCandidates(ctx, rawText, candidates)
	agg := aggregateScores(entries, uc.cfg)
	sections := locateSections(rawText, entries, uc.cfg)

	report := synthesizeReport(rawText, agg, sections, uc.detectionMethods(), len(candidates), time.Now())
	return report, nil
}

// scoreCandidates runs every scorer over every candidate. A failure
// scoring one candidate under one method skips that entry only; the run
// always completes with whatever entries survived.
func (uc *DetectUseCase) scoreCandidates(
	ctx context.Context,
	rawText string,
	candidates []domain.Candidate,
) []domain.ScoreEntry {
	entries := make([]domain.ScoreEntry, 0, len(candidates)*len(uc.scorers))
	for _, candidate := range candidates {
		for _, scorer := range uc.scorers {
			similarity, err := scorer.CalculateSimilarity(ctx, rawText, candidate.Content)
			if err != nil {
				slog.Warn("candidate scoring failed",
					"method", scorer.Method(),
					"doc_id", candidate.DocID,
					"error", err,
				)
				continue
			}
			entries = append(entries, domain.ScoreEntry{
				DocID:      candidate.DocID,
				Title:      candidate.Title,
				Content:    candidate.Content,
				Method:     scorer.Method(),
				Similarity: domain.ClampSimilarity(similarity),
			})
		}
	}
	return entries
}

func (uc *DetectUseCase) detectionMethods() []string {
	methods := make([]string, 0, len(uc.scorers))
	for _, scorer := range uc.scorers {
		if scorer.Available() {
			methods = append(methods, scorer.Method())
		}
	}
	return methods
}
