// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package graph

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/pdiddy/paper-atlas/internal/corpus"
	"github.com/pdiddy/paper-atlas/internal/errlog"
	"github.com/pdiddy/paper-atlas/pkg/types"
)

// fakeFetcher serves canned document text and counts calls per paper.
type fakeFetcher struct {
	texts map[string]string
	calls map[string]int
}

func newFakeFetcher(texts map[string]string) *fakeFetcher {
	return &fakeFetcher{texts: texts, calls: map[string]int{}}
}

func (f *fakeFetcher) Text(_ context.Context, paperID string) string {
	f.calls[paperID]++
	return f.texts[paperID]
}

func testExpander(t *testing.T, texts map[string]string, seed ...string) (*Expander, *corpus.Store, *fakeFetcher) {
	t.Helper()
	store, err := corpus.Open(filepath.Join(t.TempDir(), "papers.db"))
	if err != nil {
		t.Fatalf("corpus.Open() error: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	for _, id := range seed {
		err := store.Upsert(ctx, &types.Paper{ID: id, Title: "Title of " + id})
		if err != nil {
			t.Fatalf("Upsert(%s) error: %v", id, err)
		}
	}

	fetcher := newFakeFetcher(texts)
	return New(store, fetcher, errlog.Nop()), store, fetcher
}

func TestExpandSingleCitation(t *testing.T) {
	e, _, _ := testExpander(t,
		map[string]string{"2301.07041": "We build on arXiv:1234.5678 heavily."},
		"2301.07041", "1234.5678")

	report, err := e.Expand(context.Background(), "2301.07041", 1)
	if err != nil {
		t.Fatalf("Expand() error: %v", err)
	}

	if report.FirstDegree.SourceID != "2301.07041" {
		t.Errorf("SourceID = %q", report.FirstDegree.SourceID)
	}
	if report.FirstDegree.SourceTitle != "Title of 2301.07041" {
		t.Errorf("SourceTitle = %q", report.FirstDegree.SourceTitle)
	}
	if !reflect.DeepEqual(report.FirstDegree.Connections, []string{"1234.5678"}) {
		t.Errorf("Connections = %v, want [1234.5678]", report.FirstDegree.Connections)
	}
}

func TestExpandExcludesSelfReference(t *testing.T) {
	e, _, _ := testExpander(t,
		map[string]string{"2301.07041": "As we argued in arXiv:2301.07041v1 and in 1234.5678."},
		"2301.07041", "1234.5678")

	report, err := e.Expand(context.Background(), "2301.07041", 1)
	if err != nil {
		t.Fatalf("Expand() error: %v", err)
	}
	if !reflect.DeepEqual(report.FirstDegree.Connections, []string{"1234.5678"}) {
		t.Errorf("Connections = %v, self-reference must be excluded", report.FirstDegree.Connections)
	}
}

func TestExpandFiltersUnknownCandidates(t *testing.T) {
	e, _, _ := testExpander(t,
		map[string]string{"2301.07041": "Cites 1234.5678 and the unknown 9999.88888."},
		"2301.07041", "1234.5678")

	report, err := e.Expand(context.Background(), "2301.07041", 1)
	if err != nil {
		t.Fatalf("Expand() error: %v", err)
	}
	if !reflect.DeepEqual(report.FirstDegree.Connections, []string{"1234.5678"}) {
		t.Errorf("Connections = %v, unknown ids must be filtered", report.FirstDegree.Connections)
	}
}

func TestExpandMemoizesAcrossCalls(t *testing.T) {
	e, store, fetcher := testExpander(t,
		map[string]string{"2301.07041": "We build on arXiv:1234.5678."},
		"2301.07041", "1234.5678")
	ctx := context.Background()

	first, err := e.Expand(ctx, "2301.07041", 1)
	if err != nil {
		t.Fatalf("first Expand() error: %v", err)
	}
	if fetcher.calls["2301.07041"] != 1 {
		t.Fatalf("fetch calls after first expand = %d, want 1", fetcher.calls["2301.07041"])
	}

	// Edges persisted before the report was returned.
	edges, _ := store.Edges(ctx, "2301.07041")
	if !reflect.DeepEqual(edges, first.FirstDegree.Connections) {
		t.Errorf("persisted edges %v != reported %v", edges, first.FirstDegree.Connections)
	}

	second, err := e.Expand(ctx, "2301.07041", 1)
	if err != nil {
		t.Fatalf("second Expand() error: %v", err)
	}
	if fetcher.calls["2301.07041"] != 1 {
		t.Errorf("fetch calls after second expand = %d, want 1 (memoized)", fetcher.calls["2301.07041"])
	}
	if !reflect.DeepEqual(second.FirstDegree.Connections, first.FirstDegree.Connections) {
		t.Errorf("second report %v != first %v", second.FirstDegree.Connections, first.FirstDegree.Connections)
	}
}

func TestExpandThreeDegrees(t *testing.T) {
	e, _, _ := testExpander(t,
		map[string]string{
			"a0.00001": "Cites 1111.11111.",
			"1111.11111": "Cites 2222.22222.",
			"2222.22222": "Cites 3333.33333.",
		},
		"a0.00001", "1111.11111", "2222.22222", "3333.33333")

	report, err := e.Expand(context.Background(), "a0.00001", 3)
	if err != nil {
		t.Fatalf("Expand() error: %v", err)
	}

	if !reflect.DeepEqual(report.FirstDegree.Connections, []string{"1111.11111"}) {
		t.Fatalf("first degree = %v", report.FirstDegree.Connections)
	}
	if !reflect.DeepEqual(report.SecondDegree["1111.11111"], []string{"2222.22222"}) {
		t.Errorf("second degree = %v", report.SecondDegree)
	}
	if !reflect.DeepEqual(report.ThirdDegree["2222.22222"], []string{"3333.33333"}) {
		t.Errorf("third degree = %v", report.ThirdDegree)
	}
}

func TestExpandDegreeOneStopsEarly(t *testing.T) {
	e, _, fetcher := testExpander(t,
		map[string]string{
			"a0.00001": "Cites 1111.11111.",
			"1111.11111": "Cites 2222.22222.",
		},
		"a0.00001", "1111.11111", "2222.22222")

	report, err := e.Expand(context.Background(), "a0.00001", 1)
	if err != nil {
		t.Fatalf("Expand() error: %v", err)
	}
	if len(report.SecondDegree) != 0 || len(report.ThirdDegree) != 0 {
		t.Errorf("degree-1 report has deeper layers: %+v", report)
	}
	if fetcher.calls["1111.11111"] != 0 {
		t.Errorf("degree-1 expand fetched a neighbor")
	}
}

func TestExpandSkipsUnfetchableNodes(t *testing.T) {
	e, _, _ := testExpander(t,
		map[string]string{
			"a0.00001": "Cites 1111.11111 and 2222.22222.",
			"2222.22222": "Cites 3333.33333.",
			// 1111.11111 has no text: fetch failure.
		},
		"a0.00001", "1111.11111", "2222.22222", "3333.33333")

	report, err := e.Expand(context.Background(), "a0.00001", 2)
	if err != nil {
		t.Fatalf("Expand() error: %v", err)
	}
	if _, ok := report.SecondDegree["1111.11111"]; ok {
		t.Error("unfetchable node present in second degree map")
	}
	if !reflect.DeepEqual(report.SecondDegree["2222.22222"], []string{"3333.33333"}) {
		t.Errorf("second degree = %v", report.SecondDegree)
	}
}

func TestExpandUnknownSeedIsWellFormed(t *testing.T) {
	e, _, _ := testExpander(t, map[string]string{})

	report, err := e.Expand(context.Background(), "9999.99999", 3)
	if err != nil {
		t.Fatalf("Expand() error: %v", err)
	}
	if report.FirstDegree.SourceTitle != "Paper 9999.99999" {
		t.Errorf("SourceTitle = %q, want placeholder", report.FirstDegree.SourceTitle)
	}
	if report.FirstDegree.Connections == nil || len(report.FirstDegree.Connections) != 0 {
		t.Errorf("Connections = %#v, want empty non-nil", report.FirstDegree.Connections)
	}
	if len(report.SecondDegree) != 0 || len(report.ThirdDegree) != 0 {
		t.Errorf("deeper layers not empty: %+v", report)
	}
}

func TestExpandNormalizesSeedID(t *testing.T) {
	e, _, _ := testExpander(t,
		map[string]string{"2301.07041": "Cites 1234.5678."},
		"2301.07041", "1234.5678")

	report, err := e.Expand(context.Background(), "arXiv:2301.07041v2", 1)
	if err != nil {
		t.Fatalf("Expand() error: %v", err)
	}
	if report.FirstDegree.SourceID != "2301.07041" {
		t.Errorf("SourceID = %q, want normalized", report.FirstDegree.SourceID)
	}
}

func TestExpandCancelledContext(t *testing.T) {
	e, _, _ := testExpander(t,
		map[string]string{"2301.07041": "Cites 1234.5678."},
		"2301.07041", "1234.5678")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := e.Expand(ctx, "2301.07041", 3); err == nil {
		t.Error("Expand() with cancelled context succeeded, want error")
	}
}
