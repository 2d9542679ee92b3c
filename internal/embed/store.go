// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package embed generates and stores abstract embeddings. Vectors live
// in their own SQLite database, one row per paper, serialized as
// little-endian float32 blobs.
package embed

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"

	_ "github.com/mattn/go-sqlite3"
)

// Record is one embedded paper. The metadata columns are denormalized
// from the corpus so ranking never needs a second database.
type Record struct {
	ID         string
	Title      string
	Abstract   string
	Authors    string
	Categories string
	Year       int
	Vector     []float32
}

// Store manages the embeddings SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the embeddings database at path.
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
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS paper_embeddings (
		id TEXT PRIMARY KEY,
		title TEXT,
		abstract TEXT,
		embedding BLOB NOT NULL,
		authors TEXT,
		categories TEXT,
		year INTEGER
	)`)
	if err != nil {
		return fmt.Errorf("executing schema statement: %w", err)
	}
	return nil
}

// Put inserts or fully replaces the record for rec.ID. Re-embedding a
// paper overwrites the old vector.
func (s *Store) Put(ctx context.Context, rec *Record) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO paper_embeddings
		 (id, title, abstract, embedding, authors, categories, year)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Title, rec.Abstract, encodeVector(rec.Vector),
		rec.Authors, rec.Categories, rec.Year)
	if err != nil {
		return fmt.Errorf("storing embedding for %s: %w", rec.ID, err)
	}
	return nil
}

// Vector returns the stored embedding for id, or nil if the paper has
// not been embedded.
func (s *Store) Vector(ctx context.Context, id string) ([]float32, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT embedding FROM paper_embeddings WHERE id = ?`, id).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading embedding for %s: %w", id, err)
	}
	return decodeVector(blob)
}

// Has reports whether id already has a stored embedding.
func (s *Store) Has(ctx context.Context, id string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM paper_embeddings WHERE id = ?`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking embedding for %s: %w", id, err)
	}
	return true, nil
}

// Count returns the number of stored embeddings.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM paper_embeddings`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting embeddings: %w", err)
	}
	return n, nil
}

// ScanVectors streams every record to fn in id order. A fn error stops
// the scan and is returned; records with undecodable blobs are passed
// over via the returned decode error.
func (s *Store) ScanVectors(ctx context.Context, fn func(rec *Record) error) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, abstract, embedding, authors, categories, year
		 FROM paper_embeddings ORDER BY id`)
	if err != nil {
		return fmt.Errorf("scanning embeddings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			rec                          Record
			blob                         []byte
			title, abstract, authors, cat sql.NullString
			year                         sql.NullInt64
		)
		if err := rows.Scan(&rec.ID, &title, &abstract, &blob, &authors, &cat, &year); err != nil {
			return fmt.Errorf("scanning row: %w", err)
		}
		rec.Title = title.String
		rec.Abstract = abstract.String
		rec.Authors = authors.String
		rec.Categories = cat.String
		rec.Year = int(year.Int64)

		rec.Vector, err = decodeVector(blob)
		if err != nil {
			return fmt.Errorf("decoding vector for %s: %w", rec.ID, err)
		}
		if err := fn(&rec); err != nil {
			return err
		}
	}
	return rows.Err()
}

// encodeVector packs a float32 slice as consecutive little-endian
// 4-byte words.
func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(blob []byte) ([]float32, error) {
	if len(blob)%4 != 0 {
		return nil, fmt.Errorf("vector blob length %d is not a multiple of 4", len(blob))
	}
	v := make([]float32, len(blob)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[4*i:]))
	}
	return v, nil
}
