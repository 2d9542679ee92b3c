// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package graph expands the citation graph around a seed paper by
// fetching documents, extracting references, and persisting verified
// edges layer by layer.
package graph

import (
	"context"

	"github.com/pdiddy/paper-atlas/internal/corpus"
	"github.com/pdiddy/paper-atlas/internal/errlog"
	"github.com/pdiddy/paper-atlas/internal/refs"
	"github.com/pdiddy/paper-atlas/pkg/types"
)

// MaxDegree is the deepest expansion the engine performs.
const MaxDegree = 3

// TextFetcher is the document retrieval collaborator. Text returns an
// empty string for any failure; it never errors.
type TextFetcher interface {
	Text(ctx context.Context, paperID string) string
}

// Expander walks the citation graph from a seed paper.
type Expander struct {
	store   *corpus.Store
	fetcher TextFetcher
	log     *errlog.Logger
}

// New builds an Expander over the given store and fetcher.
func New(store *corpus.Store, fetcher TextFetcher, log *errlog.Logger) *Expander {
	return &Expander{store: store, fetcher: fetcher, log: log}
}

// Expand produces a connection report for seedID up to the requested
// degree (clamped to 1..MaxDegree).
//
// Each node is processed at most once per call: if the store already
// records edges for it they are reused without refetching, otherwise the
// document is fetched, references extracted and verified against the
// corpus, and the new edges persisted before they appear in the report.
// That ordering makes a later call for the same node see at least the
// edges reported here. Nodes whose text cannot be fetched are skipped.
//
// The only error Expand returns is context cancellation, checked between
// nodes so partially persisted edges remain valid (merges are idempotent
// and safe to resume).
func (e *Expander) Expand(ctx context.Context, seedID string, degree int) (*types.ConnectionReport, error) {
	if degree < 1 {
		degree = 1
	}
	if degree > MaxDegree {
		degree = MaxDegree
	}

	seed := refs.Normalize(seedID)

	first, err := e.nodeEdges(ctx, seed)
	if err != nil {
		return nil, err
	}
	if first == nil {
		// A seed with no fetchable text still yields a well-formed,
		// empty report.
		first = []string{}
	}

	report := &types.ConnectionReport{
		FirstDegree: types.FirstDegree{
			SourceID:    seed,
			SourceTitle: e.store.Title(ctx, seed),
			Connections: first,
		},
		SecondDegree: map[string][]string{},
		ThirdDegree:  map[string][]string{},
	}

	if degree < 2 {
		return report, nil
	}

	report.SecondDegree, err = e.layer(ctx, first)
	if err != nil {
		return nil, err
	}

	if degree < 3 {
		return report, nil
	}

	// The third layer expands every node referenced by the second.
	var secondEdges []string
	for _, edges := range report.SecondDegree {
		secondEdges = append(secondEdges, edges...)
	}
	report.ThirdDegree, err = e.layer(ctx, secondEdges)
	if err != nil {
		return nil, err
	}

	return report, nil
}

// layer expands each node independently and collects the results.
// Nodes appearing more than once in ids are expanded once.
func (e *Expander) layer(ctx context.Context, ids []string) (map[string][]string, error) {
	out := make(map[string][]string, len(ids))
	for _, id := range ids {
		if _, done := out[id]; done {
			continue
		}
		edges, err := e.nodeEdges(ctx, id)
		if err != nil {
			return nil, err
		}
		if edges == nil {
			continue
		}
		out[id] = edges
	}
	return out, nil
}

// nodeEdges returns the direct edges for one node, memoized against the
// store. A nil result means the node was skipped (no stored edges and no
// fetchable text, or a store failure — both logged, neither fatal); an
// empty non-nil result means the node was processed and genuinely cites
// nothing in the corpus. The only returned error is ctx cancellation.
func (e *Expander) nodeEdges(ctx context.Context, id string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stored, err := e.store.Edges(ctx, id)
	if err != nil {
		e.log.Error(id, errlog.CategoryRequest, "reading stored edges: "+err.Error())
		return nil, ctx.Err()
	}
	if len(stored) > 0 {
		return stored, nil
	}

	text := e.fetcher.Text(ctx, id)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if text == "" {
		return nil, nil
	}

	candidates := refs.Extract(text)
	self := refs.Normalize(id)
	filtered := candidates[:0]
	for _, c := range candidates {
		if c != self {
			filtered = append(filtered, c)
		}
	}

	verified, err := e.store.ExistsAll(ctx, filtered)
	if err != nil {
		e.log.Error(id, errlog.CategoryRequest, "verifying candidates: "+err.Error())
		return nil, ctx.Err()
	}

	// Persist before reporting; memoization correctness depends on it.
	if _, err := e.store.MergeEdges(ctx, id, verified); err != nil {
		e.log.Error(id, errlog.CategoryRequest, "persisting edges: "+err.Error())
		return nil, ctx.Err()
	}

	if verified == nil {
		verified = []string{}
	}
	return verified, nil
}
