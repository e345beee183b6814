package usecase

import (
	"sort"

	"github.com/verisource/verisource/internal/core/domain"
)

type aggregation struct {
	overallScore float64
	sources      []domain.SourceSummary
}

// aggregateScores combines per-candidate, per-method entries into the
// overall confidence score and the ranked source list. Entries at or
// below the significance threshold are discarded before anything else.
// The overall score is the arithmetic mean of weight-scaled similarities,
// which keeps it monotone non-decreasing in every retained similarity.
func aggregateScores(entries []domain.ScoreEntry, cfg DetectConfig) aggregation {
	retained := make([]domain.ScoreEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.Similarity > cfg.SignificanceThreshold {
			retained = append(retained, entry)
		}
	}
	if len(retained) == 0 {
		return aggregation{}
	}

	var weightedSum float64
	for _, entry := range retained {
		weightedSum += entry.Similarity * methodWeight(entry.Method, cfg)
	}

	return aggregation{
		overallScore: weightedSum / float64(len(retained)),
		sources:      rankSources(retained, cfg.SourceThreshold),
	}
}

// rankSources keeps, per document, the best-scoring retained entry above
// the source threshold, ranked descending by similarity.
func rankSources(retained []domain.ScoreEntry, threshold float64) []domain.SourceSummary {
	best := make(map[int64]domain.ScoreEntry, len(retained))
	for _, entry := range retained {
		if entry.Similarity <= threshold {
			continue
		}
		if current, ok := best[entry.DocID]; !ok || entry.Similarity > current.Similarity {
			best[entry.DocID] = entry
		}
	}
	if len(best) == 0 {
		return nil
	}

	sources := make([]domain.SourceSummary, 0, len(best))
	for _, entry := range best {
		sources = append(sources, domain.SourceSummary{
			Title:      entry.Title,
			DocID:      entry.DocID,
			Similarity: entry.Similarity,
			Method:     entry.Method,
			RiskLevel:  classifyRiskLevel(entry.Similarity),
		})
	}

	sort.SliceStable(sources, func(i, j int) bool {
		if sources[i].Similarity != sources[j].Similarity {
			return sources[i].Similarity > sources[j].Similarity
		}
		return sources[i].DocID < sources[j].DocID
	})
	return sources
}

func methodWeight(method string, cfg DetectConfig) float64 {
	if weight, ok := cfg.MethodWeights[method]; ok {
		return weight
	}
	return cfg.DefaultMethodWeight
}
