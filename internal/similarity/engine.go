// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package similarity

import (
	"context"
	"fmt"
	"sort"

	"github.com/pdiddy/paper-atlas/internal/embed"
	"github.com/pdiddy/paper-atlas/internal/errlog"
	"github.com/pdiddy/paper-atlas/pkg/types"
)

// Engine answers nearest-neighbor queries over the embedding store with
// an exhaustive scan. The corpus is small enough that a linear pass
// beats the operational cost of an index.
type Engine struct {
	store    *embed.Store
	embedder embed.Embedder
	log      *errlog.Logger
}

// NewEngine builds an Engine over the embedding store. embedder is used
// only for free-text queries and may be nil when callers stick to
// vector and paper-id queries.
func NewEngine(store *embed.Store, embedder embed.Embedder, log *errlog.Logger) *Engine {
	return &Engine{store: store, embedder: embedder, log: log}
}

// RankAgainstCorpus scores every stored embedding against query and
// returns the topN matches, most similar first. Papers tying on
// similarity order by year, newest first. excludeID is left out of the
// results; records that fail to score are logged and skipped.
func (e *Engine) RankAgainstCorpus(ctx context.Context, query []float32, excludeID string, topN int) ([]types.RankedPaper, error) {
	// Validate the query once up front rather than per record.
	if _, err := Cosine(query, query); err != nil {
		return nil, fmt.Errorf("invalid query vector: %w", err)
	}

	var ranked []types.RankedPaper
	err := e.store.ScanVectors(ctx, func(rec *embed.Record) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if rec.ID == excludeID {
			return nil
		}
		sim, err := Cosine(query, rec.Vector)
		if err != nil {
			e.log.Error(rec.ID, errlog.CategorySearch, "scoring embedding: "+err.Error())
			return nil
		}
		ranked = append(ranked, types.RankedPaper{
			ID:         rec.ID,
			Title:      rec.Title,
			Abstract:   rec.Abstract,
			Authors:    rec.Authors,
			Categories: rec.Categories,
			Year:       rec.Year,
			Similarity: sim,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Similarity != ranked[j].Similarity {
			return ranked[i].Similarity > ranked[j].Similarity
		}
		return ranked[i].Year > ranked[j].Year
	})
	if topN > 0 && len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked, nil
}

// FindRelated returns the topN papers most similar to paperID. A paper
// without a stored embedding yields an empty result, not an error; the
// caller decides whether to fall back to a text query.
func (e *Engine) FindRelated(ctx context.Context, paperID string, topN int) ([]types.RankedPaper, error) {
	query, err := e.store.Vector(ctx, paperID)
	if err != nil {
		return nil, fmt.Errorf("loading embedding for %s: %w", paperID, err)
	}
	if query == nil {
		return []types.RankedPaper{}, nil
	}
	return e.RankAgainstCorpus(ctx, query, paperID, topN)
}

// FuzzySearch embeds free text and ranks the corpus against it.
func (e *Engine) FuzzySearch(ctx context.Context, text string, topN int) ([]types.RankedPaper, error) {
	vectors, err := e.embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("embedding query text: %w", err)
	}
	return e.RankAgainstCorpus(ctx, vectors[0], "", topN)
}
