// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package similarity

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-atlas/internal/embed"
	"github.com/pdiddy/paper-atlas/internal/errlog"
)

type fixedEmbedder struct {
	vector []float32
}

func (f *fixedEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = f.vector
	}
	return out, nil
}

func testEngine(t *testing.T, records ...*embed.Record) (*Engine, *embed.Store) {
	t.Helper()
	store, err := embed.Open(filepath.Join(t.TempDir(), "embeddings.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	for _, rec := range records {
		require.NoError(t, store.Put(ctx, rec))
	}
	return NewEngine(store, &fixedEmbedder{vector: []float32{1, 0}}, errlog.Nop()), store
}

func TestRankAgainstCorpus(t *testing.T) {
	e, _ := testEngine(t,
		&embed.Record{ID: "aligned", Vector: []float32{2, 0}, Year: 2020},
		&embed.Record{ID: "diagonal", Vector: []float32{1, 1}, Year: 2021},
		&embed.Record{ID: "orthogonal", Vector: []float32{0, 1}, Year: 2022},
	)

	ranked, err := e.RankAgainstCorpus(context.Background(), []float32{1, 0}, "", 0)
	require.NoError(t, err)
	require.Len(t, ranked, 3)
	assert.Equal(t, "aligned", ranked[0].ID)
	assert.Equal(t, "diagonal", ranked[1].ID)
	assert.Equal(t, "orthogonal", ranked[2].ID)
	assert.InDelta(t, 1.0, ranked[0].Similarity, 1e-9)
}

func TestRankAgainstCorpusTopNAndExclude(t *testing.T) {
	e, _ := testEngine(t,
		&embed.Record{ID: "self", Vector: []float32{1, 0}},
		&embed.Record{ID: "close", Vector: []float32{0.9, 0.1}},
		&embed.Record{ID: "far", Vector: []float32{0, 1}},
	)

	ranked, err := e.RankAgainstCorpus(context.Background(), []float32{1, 0}, "self", 1)
	require.NoError(t, err)
	require.Len(t, ranked, 1)
	assert.Equal(t, "close", ranked[0].ID)
}

func TestRankAgainstCorpusYearTieBreak(t *testing.T) {
	e, _ := testEngine(t,
		&embed.Record{ID: "older", Vector: []float32{1, 0}, Year: 2015},
		&embed.Record{ID: "newer", Vector: []float32{1, 0}, Year: 2024},
	)

	ranked, err := e.RankAgainstCorpus(context.Background(), []float32{1, 0}, "", 0)
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, "newer", ranked[0].ID)
}

func TestRankAgainstCorpusRejectsZeroQuery(t *testing.T) {
	e, _ := testEngine(t, &embed.Record{ID: "a", Vector: []float32{1, 0}})
	_, err := e.RankAgainstCorpus(context.Background(), []float32{0, 0}, "", 0)
	assert.ErrorIs(t, err, ErrZeroVector)
}

func TestRankAgainstCorpusSkipsBrokenRecords(t *testing.T) {
	e, _ := testEngine(t,
		&embed.Record{ID: "good", Vector: []float32{1, 0}},
		&embed.Record{ID: "zero", Vector: []float32{0, 0}},
		&embed.Record{ID: "wrong-dim", Vector: []float32{1, 2, 3}},
	)

	ranked, err := e.RankAgainstCorpus(context.Background(), []float32{1, 0}, "", 0)
	require.NoError(t, err)
	require.Len(t, ranked, 1)
	assert.Equal(t, "good", ranked[0].ID)
}

func TestFindRelatedMissingEmbedding(t *testing.T) {
	e, _ := testEngine(t, &embed.Record{ID: "a", Vector: []float32{1, 0}})

	ranked, err := e.FindRelated(context.Background(), "not-embedded", 5)
	require.NoError(t, err)
	assert.Empty(t, ranked)
}

func TestFindRelatedExcludesSelf(t *testing.T) {
	e, _ := testEngine(t,
		&embed.Record{ID: "a", Vector: []float32{1, 0}},
		&embed.Record{ID: "b", Vector: []float32{0.8, 0.2}},
	)

	ranked, err := e.FindRelated(context.Background(), "a", 5)
	require.NoError(t, err)
	require.Len(t, ranked, 1)
	assert.Equal(t, "b", ranked[0].ID)
}

func TestFuzzySearch(t *testing.T) {
	e, _ := testEngine(t,
		&embed.Record{ID: "aligned", Vector: []float32{1, 0}},
		&embed.Record{ID: "orthogonal", Vector: []float32{0, 1}},
	)

	ranked, err := e.FuzzySearch(context.Background(), "query text", 1)
	require.NoError(t, err)
	require.Len(t, ranked, 1)
	assert.Equal(t, "aligned", ranked[0].ID)
}
