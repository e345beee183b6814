// Package semantic scores two texts by cosine similarity of their dense
// sentence embeddings. The embedding backend is an optional capability:
// its availability is probed once at construction and never re-checked,
// so a missing backend degrades every call to 0.0 instead of failing runs.
package semantic

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/verisource/verisource/internal/core/domain"
)

// Embedder produces a dense vector for one text. The shared handle must
// be safe for concurrent calls; the Ollama client satisfies this.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

type Scorer struct {
	embedder  Embedder
	available bool
}

// New probes the backend and fixes the capability flag for the process
// lifetime. A nil embedder or failed probe yields a scorer whose every
// call returns 0.0.
func New(ctx context.Context, embedder Embedder) *Scorer {
	if embedder == nil {
		return &Scorer{available: false}
	}

	probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	prober, ok := embedder.(interface{ Ping(context.Context) error })
	var err error
	if ok {
		err = prober.Ping(probeCtx)
	} else {
		_, err = embedder.EmbedQuery(probeCtx, "probe")
	}
	if err != nil {
		slog.Warn("semantic scorer disabled", "error", err)
		return &Scorer{available: false}
	}

	return &Scorer{embedder: embedder, available: true}
}

func (s *Scorer) Method() string { return domain.MethodSemantic }

func (s *Scorer) Available() bool { return s.available }

func (s *Scorer) CalculateSimilarity(ctx context.Context, a, b string) (float64, error) {
	if !s.available {
		return 0, nil
	}
	if a == "" || b == "" {
		return 0, nil
	}

	vecA, err := s.embedder.EmbedQuery(ctx, a)
	if err != nil {
		return 0, domain.WrapError(domain.ErrScorerUnavailable, "embed first text", err)
	}
	vecB, err := s.embedder.EmbedQuery(ctx, b)
	if err != nil {
		return 0, domain.WrapError(domain.ErrScorerUnavailable, "embed second text", err)
	}
	if len(vecA) != len(vecB) {
		return 0, fmt.Errorf("embedding dimension mismatch: %d/%d", len(vecA), len(vecB))
	}

	return domain.ClampSimilarity(cosine(vecA, vecB)), nil
}

func cosine(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
