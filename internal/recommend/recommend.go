// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package recommend composes reading recommendations for a paper from
// citation edges and embedding similarity.
package recommend

import (
	"context"

	"github.com/pdiddy/paper-atlas/internal/corpus"
	"github.com/pdiddy/paper-atlas/internal/errlog"
	"github.com/pdiddy/paper-atlas/pkg/types"
)

// Ranker is the similarity backend. similarity.Engine is the production
// implementation.
type Ranker interface {
	FindRelated(ctx context.Context, paperID string, topN int) ([]types.RankedPaper, error)
	FuzzySearch(ctx context.Context, text string, topN int) ([]types.RankedPaper, error)
}

// Composer builds recommendation sets.
type Composer struct {
	corpus *corpus.Store
	ranker Ranker
	cfg    types.RecommendConfig
	log    *errlog.Logger
}

// NewComposer builds a Composer. Zero config limits fall back to the
// defaults (5 hot, 10 scanned, 5 core).
func NewComposer(c *corpus.Store, r Ranker, cfg types.RecommendConfig, log *errlog.Logger) *Composer {
	if cfg.HotLimit <= 0 {
		cfg.HotLimit = 5
	}
	if cfg.CoreScanLimit <= 0 {
		cfg.CoreScanLimit = 10
	}
	if cfg.CoreLimit <= 0 {
		cfg.CoreLimit = 5
	}
	return &Composer{corpus: c, ranker: r, cfg: cfg, log: log}
}

// Compose returns recommendations for paperID.
//
// Hot papers are the most similar corpus papers the reader has not
// already reached through a direct citation. Core papers go one hop
// further: each of the top similarity candidates contributes its own
// closest neighbor, surfacing papers central to the surrounding
// literature rather than merely adjacent to the seed.
//
// Degraded inputs (unknown paper, missing abstract, similarity backend
// failures) produce an empty, well-formed result with the cause logged.
// Only context cancellation is returned as an error.
func (c *Composer) Compose(ctx context.Context, paperID string) (*types.Recommendations, error) {
	recs := &types.Recommendations{
		HotPapers:  []types.RankedPaper{},
		CorePapers: []types.RankedPaper{},
	}

	paper, err := c.corpus.Lookup(ctx, paperID)
	if err != nil {
		c.log.Error(paperID, errlog.CategorySearch, "looking up paper: "+err.Error())
		return recs, ctx.Err()
	}
	if paper == nil {
		c.log.Error(paperID, errlog.CategorySearch, "paper not in corpus")
		return recs, nil
	}

	// Direct citations are what the reader already has; exclude them.
	exclude := map[string]bool{paperID: true}
	edges, err := c.corpus.Edges(ctx, paperID)
	if err != nil {
		c.log.Error(paperID, errlog.CategorySearch, "reading edges: "+err.Error())
	}
	for _, e := range edges {
		exclude[e] = true
	}

	pool := c.candidates(ctx, paper)
	filtered := pool[:0]
	for _, cand := range pool {
		if !exclude[cand.ID] {
			filtered = append(filtered, cand)
		}
	}

	n := c.cfg.HotLimit
	if n > len(filtered) {
		n = len(filtered)
	}
	recs.HotPapers = append(recs.HotPapers, filtered[:n]...)

	recs.CorePapers = c.corePapers(ctx, filtered, exclude)
	return recs, ctx.Err()
}

// candidates returns the seed's similarity neighborhood, most similar
// first. A seed without an embedding falls back to embedding its
// abstract on the fly; any backend failure yields an empty pool.
func (c *Composer) candidates(ctx context.Context, paper *types.Paper) []types.RankedPaper {
	pool, err := c.ranker.FindRelated(ctx, paper.ID, 0)
	if err != nil {
		c.log.Error(paper.ID, errlog.CategorySearch, "finding related papers: "+err.Error())
		return nil
	}
	if len(pool) > 0 {
		return pool
	}

	if !paper.HasAbstract() {
		c.log.Error(paper.ID, errlog.CategorySearch, "paper has no embedding and no abstract")
		return nil
	}
	pool, err = c.ranker.FuzzySearch(ctx, paper.Abstract, 0)
	if err != nil {
		c.log.Error(paper.ID, errlog.CategorySearch, "fuzzy search fallback: "+err.Error())
		return nil
	}

	// The fallback query is the seed's own abstract, so the seed itself
	// can come back as its best match; Compose's exclusion set handles
	// that.
	return pool
}

// corePapers walks the top candidates and collects each one's closest
// neighbor not seen before. Shortfalls are backfilled with the next
// candidates from the pool itself.
func (c *Composer) corePapers(ctx context.Context, pool []types.RankedPaper, exclude map[string]bool) []types.RankedPaper {
	core := []types.RankedPaper{}

	seen := make(map[string]bool, len(exclude))
	for id := range exclude {
		seen[id] = true
	}

	scan := c.cfg.CoreScanLimit
	if scan > len(pool) {
		scan = len(pool)
	}
	for _, cand := range pool[:scan] {
		seen[cand.ID] = true
	}

	for _, cand := range pool[:scan] {
		if len(core) >= c.cfg.CoreLimit {
			break
		}
		related, err := c.ranker.FindRelated(ctx, cand.ID, c.cfg.CoreScanLimit)
		if err != nil {
			c.log.Error(cand.ID, errlog.CategorySearch, "expanding candidate: "+err.Error())
			continue
		}
		for _, rel := range related {
			if seen[rel.ID] {
				continue
			}
			seen[rel.ID] = true
			core = append(core, rel)
			break
		}
	}

	// Backfill from the pool beyond the scanned window.
	for _, cand := range pool {
		if len(core) >= c.cfg.CoreLimit {
			break
		}
		if seen[cand.ID] {
			continue
		}
		seen[cand.ID] = true
		core = append(core, cand)
	}
	return core
}
