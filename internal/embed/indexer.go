// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package embed

import (
	"context"
	"fmt"
	"io"

	"github.com/pdiddy/paper-atlas/internal/corpus"
	"github.com/pdiddy/paper-atlas/internal/errlog"
)

// Embedder turns texts into vectors. Generator is the production
// implementation; tests substitute their own.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

const defaultBatchSize = 64

// Indexer walks the corpus and embeds every paper abstract that does
// not yet have a vector.
type Indexer struct {
	corpus    *corpus.Store
	store     *Store
	embedder  Embedder
	log       *errlog.Logger
	batchSize int
}

// NewIndexer builds an Indexer. batchSize caps papers per API call;
// zero or negative means the default.
func NewIndexer(c *corpus.Store, s *Store, e Embedder, log *errlog.Logger, batchSize int) *Indexer {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &Indexer{corpus: c, store: s, embedder: e, log: log, batchSize: batchSize}
}

// IndexSummary holds counts from an indexing run.
type IndexSummary struct {
	Embedded int
	Skipped  int
	Failed   int
}

// IndexCorpus embeds all corpus papers with abstracts, batch by batch,
// writing progress to w. Already-embedded papers are skipped, so
// interrupted runs resume where they left off. A failed batch is logged
// and counted, never fatal; only context cancellation stops the run.
func (ix *Indexer) IndexCorpus(ctx context.Context, w io.Writer) (IndexSummary, error) {
	var summary IndexSummary

	total, err := ix.corpus.CountWithAbstracts(ctx)
	if err != nil {
		return summary, fmt.Errorf("counting eligible papers: %w", err)
	}
	fmt.Fprintf(w, "embedding corpus: %d papers with abstracts\n", total)

	for offset := 0; ; offset += ix.batchSize {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		papers, err := ix.corpus.WithAbstracts(ctx, ix.batchSize, offset)
		if err != nil {
			return summary, fmt.Errorf("listing papers at offset %d: %w", offset, err)
		}
		if len(papers) == 0 {
			break
		}

		var batch []*Record
		for _, p := range papers {
			has, err := ix.store.Has(ctx, p.ID)
			if err != nil {
				ix.log.Error(p.ID, errlog.CategoryEmbed, "checking embedding: "+err.Error())
				summary.Failed++
				continue
			}
			if has {
				summary.Skipped++
				continue
			}
			batch = append(batch, &Record{
				ID:         p.ID,
				Title:      p.Title,
				Abstract:   p.Abstract,
				Authors:    p.Authors,
				Categories: p.Categories,
				Year:       p.Year,
			})
		}
		if len(batch) == 0 {
			continue
		}

		texts := make([]string, len(batch))
		for i, rec := range batch {
			texts[i] = rec.Abstract
		}
		vectors, err := ix.embedder.Embed(ctx, texts)
		if err != nil {
			if ctx.Err() != nil {
				return summary, ctx.Err()
			}
			for _, rec := range batch {
				ix.log.Error(rec.ID, errlog.CategoryEmbed, err.Error())
			}
			summary.Failed += len(batch)
			continue
		}

		for i, rec := range batch {
			rec.Vector = vectors[i]
			if err := ix.store.Put(ctx, rec); err != nil {
				ix.log.Error(rec.ID, errlog.CategoryEmbed, "storing embedding: "+err.Error())
				summary.Failed++
				continue
			}
			summary.Embedded++
		}
		fmt.Fprintf(w, "  %d embedded, %d skipped, %d failed\n",
			summary.Embedded, summary.Skipped, summary.Failed)
	}

	fmt.Fprintf(w, "done: %d embedded, %d skipped, %d failed\n",
		summary.Embedded, summary.Skipped, summary.Failed)
	return summary, nil
}

// EmbedPaper embeds a single paper's abstract and stores the result,
// overwriting any existing vector. Used when a paper arrives outside a
// bulk indexing run.
func (ix *Indexer) EmbedPaper(ctx context.Context, id, title, abstract, authors, categories string, year int) error {
	if abstract == "" {
		return fmt.Errorf("paper %s has no abstract", id)
	}
	vectors, err := ix.embedder.Embed(ctx, []string{abstract})
	if err != nil {
		return fmt.Errorf("embedding paper %s: %w", id, err)
	}
	return ix.store.Put(ctx, &Record{
		ID:         id,
		Title:      title,
		Abstract:   abstract,
		Authors:    authors,
		Categories: categories,
		Year:       year,
		Vector:     vectors[0],
	})
}
