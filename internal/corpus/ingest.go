// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package corpus

import (
	"bufio"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pdiddy/paper-atlas/pkg/types"
)

// IngestSummary holds counts from a corpus ingestion run.
type IngestSummary struct {
	Imported int
	Skipped  int
	Failed   int
}

// Total returns the number of records processed.
func (s IngestSummary) Total() int {
	return s.Imported + s.Skipped + s.Failed
}

// snapshotRecord is one line of the Kaggle arXiv metadata snapshot.
type snapshotRecord struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Authors    string `json:"authors"`
	Abstract   string `json:"abstract"`
	Categories string `json:"categories"`
	DOI        string `json:"doi"`
	UpdateDate string `json:"update_date"`
}

// IngestJSONLines loads papers from the arXiv metadata snapshot (one
// JSON object per line). Only cs.* papers are kept. Invalid lines are
// counted and skipped, never fatal.
func (s *Store) IngestJSONLines(ctx context.Context, r io.Reader, w io.Writer) (IngestSummary, error) {
	var summary IngestSummary

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var rec snapshotRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			fmt.Fprintf(w, "failed  invalid JSON line: %v\n", err)
			summary.Failed++
			continue
		}

		if !strings.HasPrefix(rec.Categories, "cs.") {
			summary.Skipped++
			continue
		}

		year, month, day := splitDate(rec.UpdateDate)
		paper := &types.Paper{
			ID:         rec.ID,
			Title:      rec.Title,
			Authors:    rec.Authors,
			Abstract:   rec.Abstract,
			Categories: rec.Categories,
			DOI:        rec.DOI,
			Year:       year,
			Month:      month,
			Day:        day,
		}
		if err := s.Upsert(ctx, paper); err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", rec.ID, err)
			summary.Failed++
			continue
		}
		summary.Imported++
	}
	if err := scanner.Err(); err != nil {
		return summary, fmt.Errorf("reading snapshot: %w", err)
	}

	fmt.Fprintf(w, "\nimported: %d, skipped: %d, failed: %d\n",
		summary.Imported, summary.Skipped, summary.Failed)
	return summary, nil
}

// csvColumns is the header the harvester writes.
var csvColumns = []string{
	"id", "title", "authors", "abstract",
	"categories", "connected_papers", "year", "month", "day",
}

// IngestCSV loads papers from a harvester CSV export. The header row is
// validated against the expected column order; malformed rows are
// counted and skipped.
func (s *Store) IngestCSV(ctx context.Context, r io.Reader, w io.Writer) (IngestSummary, error) {
	var summary IngestSummary

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(csvColumns)

	header, err := reader.Read()
	if err != nil {
		return summary, fmt.Errorf("reading CSV header: %w", err)
	}
	for i, col := range csvColumns {
		if header[i] != col {
			return summary, fmt.Errorf("unexpected CSV header: got %q at column %d, want %q", header[i], i, col)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			fmt.Fprintf(w, "failed  malformed row: %v\n", err)
			summary.Failed++
			continue
		}

		paper := &types.Paper{
			ID:         row[0],
			Title:      row[1],
			Authors:    row[2],
			Abstract:   row[3],
			Categories: row[4],
			Year:       atoiOrZero(row[6]),
			Month:      atoiOrZero(row[7]),
			Day:        atoiOrZero(row[8]),
		}
		if paper.ID == "" {
			summary.Skipped++
			continue
		}
		if err := s.Upsert(ctx, paper); err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", paper.ID, err)
			summary.Failed++
			continue
		}
		summary.Imported++
	}

	fmt.Fprintf(w, "\nimported: %d, skipped: %d, failed: %d\n",
		summary.Imported, summary.Skipped, summary.Failed)
	return summary, nil
}

// splitDate parses a "YYYY-MM-DD" date into components. Missing or
// malformed parts come back as zero.
func splitDate(date string) (year, month, day int) {
	parts := strings.Split(date, "-")
	if len(parts) >= 1 {
		year = atoiOrZero(parts[0])
	}
	if len(parts) >= 2 {
		month = atoiOrZero(parts[1])
	}
	if len(parts) >= 3 {
		day = atoiOrZero(parts[2])
	}
	return year, month, day
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}
