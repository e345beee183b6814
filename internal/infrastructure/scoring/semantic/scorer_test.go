package semantic

import (
	"context"
	"errors"
	"testing"
)

type embedderFake struct {
	vectors map[string][]float32
	err     error
	pingErr error
	calls   int
}

func (f *embedderFake) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if vec, ok := f.vectors[text]; ok {
		return vec, nil
	}
	return []float32{1, 0, 0}, nil
}

func (f *embedderFake) Ping(context.Context) error { return f.pingErr }

func TestIdenticalEmbeddingsScoreOne(t *testing.T) {
	fake := &embedderFake{vectors: map[string][]float32{
		"same": {0.5, 0.5, 0.1},
	}}
	s := New(context.Background(), fake)
	if !s.Available() {
		t.Fatalf("expected scorer available after successful probe")
	}

	got, err := s.CalculateSimilarity(context.Background(), "same", "same")
	if err != nil {
		t.Fatalf("CalculateSimilarity() error = %v", err)
	}
	if got < 0.999 || got > 1 {
		t.Fatalf("identical embeddings similarity = %v, want ~1", got)
	}
}

func TestOrthogonalEmbeddingsScoreZero(t *testing.T) {
	fake := &embedderFake{vectors: map[string][]float32{
		"a": {1, 0, 0},
		"b": {0, 1, 0},
	}}
	s := New(context.Background(), fake)

	got, err := s.CalculateSimilarity(context.Background(), "a", "b")
	if err != nil {
		t.Fatalf("CalculateSimilarity() error = %v", err)
	}
	if got != 0 {
		t.Fatalf("orthogonal embeddings similarity = %v, want 0", got)
	}
}

func TestUnavailableBackendScoresZeroForever(t *testing.T) {
	fake := &embedderFake{pingErr: errors.New("backend down")}
	s := New(context.Background(), fake)
	if s.Available() {
		t.Fatalf("expected scorer unavailable after failed probe")
	}

	callsAfterProbe := fake.calls
	for i := 0; i < 3; i++ {
		got, err := s.CalculateSimilarity(context.Background(), "a", "b")
		if err != nil {
			t.Fatalf("CalculateSimilarity() error = %v", err)
		}
		if got != 0 {
			t.Fatalf("unavailable scorer similarity = %v, want 0", got)
		}
	}
	if fake.calls != callsAfterProbe {
		t.Fatalf("unavailable scorer must not call the backend")
	}
}

func TestNilEmbedderIsUnavailable(t *testing.T) {
	s := New(context.Background(), nil)
	if s.Available() {
		t.Fatalf("expected nil embedder to be unavailable")
	}
	got, err := s.CalculateSimilarity(context.Background(), "a", "b")
	if err != nil || got != 0 {
		t.Fatalf("CalculateSimilarity() = %v, %v; want 0, nil", got, err)
	}
}

func TestEmbeddingErrorPropagates(t *testing.T) {
	fake := &embedderFake{}
	s := New(context.Background(), fake)

	fake.err = errors.New("transient embed failure")
	if _, err := s.CalculateSimilarity(context.Background(), "a", "b"); err == nil {
		t.Fatalf("expected error from failing backend on an available scorer")
	}
}

func TestDimensionMismatchIsAnError(t *testing.T) {
	fake := &embedderFake{vectors: map[string][]float32{
		"a": {1, 0},
		"b": {0, 1, 0},
	}}
	s := New(context.Background(), fake)
	if _, err := s.CalculateSimilarity(context.Background(), "a", "b"); err == nil {
		t.Fatalf("expected dimension mismatch error")
	}
}
