package sqlitefts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/verisource/verisource/internal/core/domain"
)

// Store keeps the reference corpus in SQLite with an FTS5 mirror used for
// candidate selection. The FTS table is kept in sync by triggers, so
// writers only ever touch the base table.
type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	// modernc's driver serializes writes; one connection avoids
	// SQLITE_BUSY under concurrent detection runs.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("sqlite ping: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) EnsureSchema(ctx context.Context) error {
	const query = `
CREATE TABLE IF NOT EXISTS documents (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	content TEXT NOT NULL,
	source TEXT NOT NULL DEFAULT '',
	doc_type TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE VIRTUAL TABLE IF NOT EXISTS documents_fts USING fts5(
	title, content, content=documents, content_rowid=id
);

CREATE TRIGGER IF NOT EXISTS documents_ai AFTER INSERT ON documents BEGIN
	INSERT INTO documents_fts(rowid, title, content) VALUES (new.id, new.title, new.content);
END;
CREATE TRIGGER IF NOT EXISTS documents_ad AFTER DELETE ON documents BEGIN
	INSERT INTO documents_fts(documents_fts, rowid, title, content) VALUES ('delete', old.id, old.title, old.content);
END;
CREATE TRIGGER IF NOT EXISTS documents_au AFTER UPDATE ON documents BEGIN
	INSERT INTO documents_fts(documents_fts, rowid, title, content) VALUES ('delete', old.id, old.title, old.content);
	INSERT INTO documents_fts(rowid, title, content) VALUES (new.id, new.title, new.content);
END;
`
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute corpus schema ddl: %w", err)
	}
	return nil
}

// SearchCandidates queries the FTS index with a disjunction of prefix
// terms, ranked by FTS5's bm25-based rank.
func (s *Store) SearchCandidates(ctx context.Context, queryTokens []string, maxResults int) ([]domain.Candidate, error) {
	match := buildMatchQuery(queryTokens)
	if match == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "search candidates", errors.New("no query tokens"))
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT d.id, d.title, d.content
FROM documents_fts f
JOIN documents d ON d.id = f.rowid
WHERE documents_fts MATCH ?
ORDER BY f.rank
LIMIT ?
`, match, maxResults)
	if err != nil {
		return nil, domain.WrapError(domain.ErrIndexUnavailable, "search candidates", err)
	}
	defer rows.Close()

	return scanCandidates(rows)
}

// Sample returns an unordered slice of corpus documents. It backs the
// degraded path when the FTS query fails or yields nothing.
func (s *Store) Sample(ctx context.Context, maxResults int) ([]domain.Candidate, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, title, content
FROM documents
LIMIT ?
`, maxResults)
	if err != nil {
		return nil, domain.WrapError(domain.ErrIndexUnavailable, "sample corpus", err)
	}
	defer rows.Close()

	return scanCandidates(rows)
}

func (s *Store) GetByID(ctx context.Context, docID int64) (*domain.CorpusDocument, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, title, content, source, doc_type, created_at
FROM documents
WHERE id = ?
`, docID)

	var doc domain.CorpusDocument
	err := row.Scan(&doc.ID, &doc.Title, &doc.Content, &doc.Source, &doc.DocType, &doc.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrDocumentNotFound, "get corpus document", fmt.Errorf("doc id %d", docID))
		}
		return nil, fmt.Errorf("scan corpus document: %w", err)
	}
	return &doc, nil
}

func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count corpus documents: %w", err)
	}
	return count, nil
}

func (s *Store) Add(ctx context.Context, doc *domain.CorpusDocument) error {
	now := doc.CreatedAt
	if now.IsZero() {
		now = time.Now().UTC()
	}
	result, err := s.db.ExecContext(ctx, `
INSERT INTO documents (title, content, source, doc_type, created_at)
VALUES (?, ?, ?, ?, ?)
`, doc.Title, doc.Content, doc.Source, doc.DocType, now)
	if err != nil {
		return fmt.Errorf("insert corpus document: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("corpus document insert id: %w", err)
	}
	doc.ID = id
	doc.CreatedAt = now
	return nil
}

// buildMatchQuery joins quoted prefix terms with OR so any token overlap
// surfaces a candidate. Tokens are quoted to keep FTS5 operators inert.
func buildMatchQuery(tokens []string) string {
	terms := make([]string, 0, len(tokens))
	for _, token := range tokens {
		token = strings.ReplaceAll(token, `"`, "")
		if token == "" {
			continue
		}
		terms = append(terms, fmt.Sprintf(`"%s"*`, token))
	}
	return strings.Join(terms, " OR ")
}

func scanCandidates(rows *sql.Rows) ([]domain.Candidate, error) {
	out := make([]domain.Candidate, 0)
	for rows.Next() {
		var c domain.Candidate
		if err := rows.Scan(&c.DocID, &c.Title, &c.Content); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candidates: %w", err)
	}
	return out, nil
}
