package sqlitefts

import (
	"context"
	"testing"

	"github.com/verisource/verisource/internal/core/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	if err := store.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
	return store
}

func seedDocuments(t *testing.T, store *Store) {
	t.Helper()
	docs := []*domain.CorpusDocument{
		{Title: "Doc A", Content: "Machine learning is a subset of artificial intelligence.", Source: "seed", DocType: "article"},
		{Title: "Doc B", Content: "Cooking pasta requires salted boiling water.", Source: "seed", DocType: "article"},
		{Title: "Doc C", Content: "Neural networks learn representations from data.", Source: "seed", DocType: "article"},
	}
	for _, doc := range docs {
		if err := store.Add(context.Background(), doc); err != nil {
			t.Fatalf("Add(%q) error = %v", doc.Title, err)
		}
		if doc.ID == 0 {
			t.Fatalf("Add(%q) did not assign an id", doc.Title)
		}
	}
}

func TestSearchCandidatesMatchesTokenOverlap(t *testing.T) {
	store := openTestStore(t)
	seedDocuments(t, store)

	candidates, err := store.SearchCandidates(context.Background(), []string{"machine", "learning"}, 10)
	if err != nil {
		t.Fatalf("SearchCandidates() error = %v", err)
	}
	if len(candidates) == 0 {
		t.Fatalf("expected at least one candidate")
	}
	if candidates[0].Title != "Doc A" {
		t.Fatalf("expected Doc A ranked first, got %+v", candidates)
	}
	for _, c := range candidates {
		if c.Title == "Doc B" {
			t.Fatalf("Doc B shares no token with the query, got %+v", candidates)
		}
	}
}

func TestSearchCandidatesPrefixMatching(t *testing.T) {
	store := openTestStore(t)
	seedDocuments(t, store)

	candidates, err := store.SearchCandidates(context.Background(), []string{"learn"}, 10)
	if err != nil {
		t.Fatalf("SearchCandidates() error = %v", err)
	}
	// "learn" as a prefix covers both "learning" and "learn".
	if len(candidates) != 2 {
		t.Fatalf("expected 2 prefix matches, got %+v", candidates)
	}
}

func TestSearchCandidatesHonorsLimit(t *testing.T) {
	store := openTestStore(t)
	seedDocuments(t, store)

	candidates, err := store.SearchCandidates(context.Background(), []string{"machine", "pasta", "neural"}, 2)
	if err != nil {
		t.Fatalf("SearchCandidates() error = %v", err)
	}
	if len(candidates) > 2 {
		t.Fatalf("limit not honored: %+v", candidates)
	}
}

func TestSearchCandidatesRejectsEmptyQuery(t *testing.T) {
	store := openTestStore(t)

	_, err := store.SearchCandidates(context.Background(), nil, 10)
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestSearchCandidatesNeutralizesQuotes(t *testing.T) {
	store := openTestStore(t)
	seedDocuments(t, store)

	// FTS5 operators inside tokens must not break the query.
	_, err := store.SearchCandidates(context.Background(), []string{`mach"ine`, "NOT", "AND"}, 10)
	if err != nil {
		t.Fatalf("SearchCandidates() error = %v", err)
	}
}

func TestSample(t *testing.T) {
	store := openTestStore(t)
	seedDocuments(t, store)

	sample, err := store.Sample(context.Background(), 2)
	if err != nil {
		t.Fatalf("Sample() error = %v", err)
	}
	if len(sample) != 2 {
		t.Fatalf("expected 2 sampled documents, got %d", len(sample))
	}
}

func TestGetByID(t *testing.T) {
	store := openTestStore(t)
	seedDocuments(t, store)

	doc, err := store.GetByID(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if doc.Title != "Doc A" || doc.Source != "seed" {
		t.Fatalf("unexpected document: %+v", doc)
	}

	_, err = store.GetByID(context.Background(), 999)
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected not-found kind, got %v", err)
	}
}

func TestCount(t *testing.T) {
	store := openTestStore(t)

	count, err := store.Count(context.Background())
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 0 {
		t.Fatalf("empty corpus count = %d", count)
	}

	seedDocuments(t, store)
	count, err = store.Count(context.Background())
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 3 {
		t.Fatalf("count = %d, want 3", count)
	}
}

func TestFTSStaysInSyncOnDelete(t *testing.T) {
	store := openTestStore(t)
	seedDocuments(t, store)

	if _, err := store.db.ExecContext(context.Background(), `DELETE FROM documents WHERE title = 'Doc A'`); err != nil {
		t.Fatalf("delete error = %v", err)
	}

	candidates, err := store.SearchCandidates(context.Background(), []string{"machine"}, 10)
	if err != nil {
		t.Fatalf("SearchCandidates() error = %v", err)
	}
	if len(candidates) != 0 {
		t.Fatalf("deleted document still in index: %+v", candidates)
	}
}

func TestBuildMatchQuery(t *testing.T) {
	if got := buildMatchQuery([]string{"alpha", "beta"}); got != `"alpha"* OR "beta"*` {
		t.Fatalf("buildMatchQuery = %q", got)
	}
	if got := buildMatchQuery(nil); got != "" {
		t.Fatalf("empty tokens must yield empty query, got %q", got)
	}
}
