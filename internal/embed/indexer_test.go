// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package embed

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/pdiddy/paper-atlas/internal/corpus"
	"github.com/pdiddy/paper-atlas/internal/errlog"
	"github.com/pdiddy/paper-atlas/pkg/types"
)

// stubEmbedder returns a fixed vector per text and counts calls.
type stubEmbedder struct {
	calls int
	fail  bool
}

func (s *stubEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	s.calls++
	if s.fail {
		return nil, errors.New("embedding backend down")
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(len(texts[i])), 1}
	}
	return out, nil
}

func testCorpus(t *testing.T, papers ...*types.Paper) *corpus.Store {
	t.Helper()
	c, err := corpus.Open(filepath.Join(t.TempDir(), "papers.db"))
	if err != nil {
		t.Fatalf("corpus.Open() error: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	ctx := context.Background()
	for _, p := range papers {
		if err := c.Upsert(ctx, p); err != nil {
			t.Fatalf("Upsert(%s) error: %v", p.ID, err)
		}
	}
	return c
}

func TestIndexCorpus(t *testing.T) {
	c := testCorpus(t,
		&types.Paper{ID: "1706.03762", Title: "Attention", Abstract: "About attention.", Year: 2017},
		&types.Paper{ID: "2301.07041", Title: "Later", Abstract: "About something else.", Year: 2023},
		&types.Paper{ID: "2302.00001", Title: "No Abstract"},
	)
	s := testEmbedStore(t)
	emb := &stubEmbedder{}
	ix := NewIndexer(c, s, emb, errlog.Nop(), 10)

	summary, err := ix.IndexCorpus(context.Background(), io.Discard)
	if err != nil {
		t.Fatalf("IndexCorpus() error: %v", err)
	}
	if summary.Embedded != 2 || summary.Skipped != 0 || summary.Failed != 0 {
		t.Errorf("summary = %+v, want 2 embedded", summary)
	}

	v, err := s.Vector(context.Background(), "1706.03762")
	if err != nil || v == nil {
		t.Errorf("Vector() = %v, %v, want stored vector", v, err)
	}
	if v, _ := s.Vector(context.Background(), "2302.00001"); v != nil {
		t.Error("paper without abstract was embedded")
	}
}

func TestIndexCorpusResumesSkippingEmbedded(t *testing.T) {
	c := testCorpus(t,
		&types.Paper{ID: "1706.03762", Abstract: "A.", Title: "First"},
		&types.Paper{ID: "2301.07041", Abstract: "B.", Title: "Second"},
	)
	s := testEmbedStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, &Record{ID: "1706.03762", Vector: []float32{9, 9}}); err != nil {
		t.Fatalf("Put() error: %v", err)
	}

	emb := &stubEmbedder{}
	ix := NewIndexer(c, s, emb, errlog.Nop(), 10)
	summary, err := ix.IndexCorpus(ctx, io.Discard)
	if err != nil {
		t.Fatalf("IndexCorpus() error: %v", err)
	}
	if summary.Embedded != 1 || summary.Skipped != 1 {
		t.Errorf("summary = %+v, want 1 embedded and 1 skipped", summary)
	}

	// The pre-existing vector survives a resumed run.
	v, _ := s.Vector(ctx, "1706.03762")
	if len(v) != 2 || v[0] != 9 {
		t.Errorf("pre-existing vector = %v, want untouched", v)
	}
}

func TestIndexCorpusAbsorbsBackendFailure(t *testing.T) {
	c := testCorpus(t, &types.Paper{ID: "1706.03762", Abstract: "A.", Title: "First"})
	s := testEmbedStore(t)
	ix := NewIndexer(c, s, &stubEmbedder{fail: true}, errlog.Nop(), 10)

	summary, err := ix.IndexCorpus(context.Background(), io.Discard)
	if err != nil {
		t.Fatalf("IndexCorpus() error: %v, want failures absorbed", err)
	}
	if summary.Failed != 1 || summary.Embedded != 0 {
		t.Errorf("summary = %+v, want 1 failed", summary)
	}
}

func TestEmbedPaperRequiresAbstract(t *testing.T) {
	s := testEmbedStore(t)
	ix := NewIndexer(testCorpus(t), s, &stubEmbedder{}, errlog.Nop(), 10)

	if err := ix.EmbedPaper(context.Background(), "2301.07041", "T", "", "", "", 2023); err == nil {
		t.Error("EmbedPaper() with empty abstract succeeded, want error")
	}
}

func TestEmbedPaperStoresVector(t *testing.T) {
	s := testEmbedStore(t)
	ix := NewIndexer(testCorpus(t), s, &stubEmbedder{}, errlog.Nop(), 10)
	ctx := context.Background()

	if err := ix.EmbedPaper(ctx, "2301.07041", "T", "An abstract.", "A. Author", "cs.LG", 2023); err != nil {
		t.Fatalf("EmbedPaper() error: %v", err)
	}
	v, err := s.Vector(ctx, "2301.07041")
	if err != nil || v == nil {
		t.Errorf("Vector() = %v, %v, want stored vector", v, err)
	}
}
