// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package corpus persists paper metadata and the citation adjacency in a
// SQLite database. Citation edges live in each paper row as a JSON array
// of verified corpus identifiers.
package corpus

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/paper-atlas/pkg/types"
)

// Store manages the papers SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the papers database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS papers (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		authors TEXT,
		abstract TEXT,
		categories TEXT,
		doi TEXT,
		connected_papers TEXT,
		year INTEGER,
		month INTEGER,
		day INTEGER
	)`)
	if err != nil {
		return fmt.Errorf("executing schema statement: %w", err)
	}
	return nil
}

// Upsert inserts or replaces a paper's metadata. On conflict the stored
// connected_papers value is left untouched: edges grow only through
// MergeEdges, and a metadata refresh must not reset them.
func (s *Store) Upsert(ctx context.Context, p *types.Paper) error {
	edges, _ := json.Marshal(sortedSet(p.ConnectedPapers))
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO papers (id, title, authors, abstract, categories, doi, connected_papers, year, month, day)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			title=excluded.title, authors=excluded.authors, abstract=excluded.abstract,
			categories=excluded.categories, doi=excluded.doi, year=excluded.year,
			month=excluded.month, day=excluded.day`,
		p.ID, p.Title, p.Authors, p.Abstract, p.Categories, p.DOI,
		string(edges), p.Year, p.Month, p.Day,
	)
	if err != nil {
		return fmt.Errorf("upserting paper %s: %w", p.ID, err)
	}
	return nil
}

// Lookup returns the paper record for id, or nil if the corpus does not
// contain it.
func (s *Store) Lookup(ctx context.Context, id string) (*types.Paper, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, authors, abstract, categories, doi, connected_papers, year, month, day
		 FROM papers WHERE id = ?`, id)

	p, err := scanPaper(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("looking up paper %s: %w", id, err)
	}
	return p, nil
}

// Exists reports whether id is a known corpus paper.
func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM papers WHERE id = ?`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking paper %s: %w", id, err)
	}
	return true, nil
}

// ExistsAll filters candidate ids down to those present in the corpus.
// A candidate also counts as present when only a versioned form of it is
// stored (e.g. "1234.5678" matches a stored "1234.5678v2"). The result
// is sorted; unknown candidates are silently dropped.
func (s *Store) ExistsAll(ctx context.Context, ids []string) ([]string, error) {
	var present []string
	for _, id := range ids {
		var one int
		err := s.db.QueryRowContext(ctx,
			`SELECT 1 FROM papers WHERE id = ? OR id LIKE ? || '%'`,
			id, id+"v").Scan(&one)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("checking candidate %s: %w", id, err)
		}
		present = append(present, id)
	}
	sort.Strings(present)
	return present, nil
}

// Title returns the paper title, or the "Paper {id}" placeholder when
// the id is unknown. Lookup failures also fall back to the placeholder;
// a missing title must never fail a traversal.
func (s *Store) Title(ctx context.Context, id string) string {
	var title string
	err := s.db.QueryRowContext(ctx, `SELECT title FROM papers WHERE id = ?`, id).Scan(&title)
	if err != nil || title == "" {
		return fmt.Sprintf("Paper %s", id)
	}
	return title
}

// Search returns up to limit papers whose title, authors, or id contain
// the query substring.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]*types.Paper, error) {
	if limit <= 0 {
		limit = 20
	}
	pattern := "%" + query + "%"
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, authors, abstract, categories, doi, connected_papers, year, month, day
		 FROM papers
		 WHERE title LIKE ? OR authors LIKE ? OR id LIKE ?
		 LIMIT ?`,
		pattern, pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("searching papers: %w", err)
	}
	defer rows.Close()

	var papers []*types.Paper
	for rows.Next() {
		p, err := scanPaper(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		papers = append(papers, p)
	}
	return papers, rows.Err()
}

// WithAbstracts returns a batch of papers that have non-empty abstracts,
// for embedding generation. Paging via limit/offset mirrors the batch
// indexer's scan order.
func (s *Store) WithAbstracts(ctx context.Context, limit, offset int) ([]*types.Paper, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, authors, abstract, categories, doi, connected_papers, year, month, day
		 FROM papers
		 WHERE abstract IS NOT NULL AND abstract != ''
		 ORDER BY id
		 LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing papers with abstracts: %w", err)
	}
	defer rows.Close()

	var papers []*types.Paper
	for rows.Next() {
		p, err := scanPaper(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		papers = append(papers, p)
	}
	return papers, rows.Err()
}

// CountWithAbstracts returns the number of papers eligible for embedding.
func (s *Store) CountWithAbstracts(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM papers WHERE abstract IS NOT NULL AND abstract != ''`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting papers: %w", err)
	}
	return n, nil
}

// Edges returns the recorded citation edges for id. An unknown paper or
// a malformed stored edge list yields an empty slice, never an error the
// caller has to handle specially.
func (s *Store) Edges(ctx context.Context, id string) ([]string, error) {
	var raw sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT connected_papers FROM papers WHERE id = ?`, id).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading edges for %s: %w", id, err)
	}
	return decodeEdges(raw), nil
}

// MergeEdges unions refs into the stored edge set for id and returns the
// number of edges actually added. The set difference is computed before
// writing, so repeated calls with the same refs are idempotent and the
// second call reports zero. Self-references are dropped here as a final
// guard: a paper never lists itself.
func (s *Store) MergeEdges(ctx context.Context, id string, refs []string) (int, error) {
	if len(refs) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var raw sql.NullString
	err = tx.QueryRowContext(ctx,
		`SELECT connected_papers FROM papers WHERE id = ?`, id).Scan(&raw)
	if err != nil && err != sql.ErrNoRows {
		return 0, fmt.Errorf("reading edges for %s: %w", id, err)
	}
	rowExists := err == nil

	current := make(map[string]bool)
	for _, e := range decodeEdges(raw) {
		current[e] = true
	}

	added := 0
	for _, ref := range refs {
		if ref == "" || ref == id || current[ref] {
			continue
		}
		current[ref] = true
		added++
	}
	if added == 0 {
		return 0, nil
	}

	merged := make([]string, 0, len(current))
	for e := range current {
		merged = append(merged, e)
	}
	sort.Strings(merged)
	encoded, _ := json.Marshal(merged)

	if rowExists {
		_, err = tx.ExecContext(ctx,
			`UPDATE papers SET connected_papers = ? WHERE id = ?`, string(encoded), id)
	} else {
		// Edges can be discovered for a paper the harvester has not
		// recorded yet; keep them under a stub row.
		_, err = tx.ExecContext(ctx,
			`INSERT INTO papers (id, title, connected_papers) VALUES (?, ?, ?)`,
			id, "", string(encoded))
	}
	if err != nil {
		return 0, fmt.Errorf("writing edges for %s: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing edges for %s: %w", id, err)
	}
	return added, nil
}

// decodeEdges parses a stored connected_papers value. Malformed JSON is
// treated as an empty edge set.
func decodeEdges(raw sql.NullString) []string {
	if !raw.Valid || strings.TrimSpace(raw.String) == "" {
		return nil
	}
	var edges []string
	if err := json.Unmarshal([]byte(raw.String), &edges); err != nil {
		return nil
	}
	return edges
}

func sortedSet(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// scanner abstracts sql.Row and sql.Rows for scanPaper.
type scanner interface {
	Scan(dest ...any) error
}

func scanPaper(row scanner) (*types.Paper, error) {
	var (
		p                                       types.Paper
		authors, abstract, categories, doi, raw sql.NullString
		year, month, day                        sql.NullInt64
	)
	err := row.Scan(&p.ID, &p.Title, &authors, &abstract, &categories, &doi,
		&raw, &year, &month, &day)
	if err != nil {
		return nil, err
	}
	p.Authors = authors.String
	p.Abstract = abstract.String
	p.Categories = categories.String
	p.DOI = doi.String
	p.ConnectedPapers = decodeEdges(raw)
	p.Year = int(year.Int64)
	p.Month = int(month.Int64)
	p.Day = int(day.Int64)
	return &p, nil
}
