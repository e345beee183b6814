package usecase

import (
	"context"
	"log/slog"

	"github.com/verisource/verisource/internal/core/domain"
)

// selectCandidates narrows the corpus to a bounded candidate set via the
// lexical index. The full corpus is never scanned: every path, including
// both fallbacks, is capped at MaxCandidates. Index failures are absorbed
// here and never propagate past the selector.
func (uc *DetectUseCase) selectCandidates(ctx context.Context, rawText string) []domain.Candidate {
	tokens := dedupeTokens(uc.normalizer.Tokens(rawText))
	if len(tokens) > uc.cfg.QueryTokenLimit {
		tokens = tokens[:uc.cfg.QueryTokenLimit]
	}

	if len(tokens) == 0 {
		slog.Warn("no usable query tokens in submission, sampling corpus")
		return uc.sampleFallback(ctx)
	}

	candidates, err := uc.index.SearchCandidates(ctx, tokens, uc.cfg.MaxCandidates)
	if err != nil {
		slog.Warn("candidate index query failed, sampling corpus", "error", err)
		return uc.sampleFallback(ctx)
	}
	if len(candidates) == 0 {
		slog.Info("candidate index returned no matches, sampling corpus")
		return uc.sampleFallback(ctx)
	}
	return capCandidates(candidates, uc.cfg.MaxCandidates)
}

// sampleFallback degrades to an arbitrary bounded sample. A failure here
// degrades further to an empty candidate set; the run still completes.
func (uc *DetectUseCase) sampleFallback(ctx context.Context) []domain.Candidate {
	sample, err := uc.index.Sample(ctx, uc.cfg.MaxCandidates)
	if err != nil {
		slog.Error("corpus sample fallback failed, scoring zero candidates", "error", err)
		return nil
	}
	return capCandidates(sample, uc.cfg.MaxCandidates)
}

func capCandidates(candidates []domain.Candidate, limit int) []domain.Candidate {
	if limit <= 0 || len(candidates) <= limit {
		return candidates
	}
	return candidates[:limit]
}

func dedupeTokens(tokens []string) []string {
	if len(tokens) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if token == "" {
			continue
		}
		if _, ok := seen[token]; ok {
			continue
		}
		seen[token] = struct{}{}
		out = append(out, token)
	}
	return out
}
