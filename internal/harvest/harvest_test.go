// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package harvest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/pdiddy/paper-atlas/internal/corpus"
	"github.com/pdiddy/paper-atlas/internal/errlog"
	"github.com/pdiddy/paper-atlas/pkg/types"
)

const feedTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">%s</feed>`

func atomEntryXML(id, title string) string {
	return fmt.Sprintf(`<entry>
		<id>http://arxiv.org/abs/%s</id>
		<title>%s</title>
		<summary>An abstract.</summary>
		<published>2023-01-17T12:00:00Z</published>
		<author><name>A. Author</name></author>
		<author><name>B. Author</name></author>
		<category term="cs.LG"/>
		<category term="cs.AI"/>
	</entry>`, id, title)
}

func testHarvestStore(t *testing.T) *corpus.Store {
	t.Helper()
	s, err := corpus.Open(filepath.Join(t.TempDir(), "papers.db"))
	if err != nil {
		t.Fatalf("corpus.Open() error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func withListingServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	old := listingAPIBase
	listingAPIBase = srv.URL
	t.Cleanup(func() {
		listingAPIBase = old
		srv.Close()
	})
	return srv
}

func TestRunHarvestsAndPages(t *testing.T) {
	var requests int
	withListingServer(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		if r.URL.Query().Get("start") == "0" {
			entries := atomEntryXML("2301.07041v2", "First Paper") +
				atomEntryXML("cs/0205001v1", "Legacy Paper")
			fmt.Fprintf(w, feedTemplate, entries)
			return
		}
		fmt.Fprintf(w, feedTemplate, "")
	})

	store := testHarvestStore(t)
	stateFile := filepath.Join(t.TempDir(), "last_updated.txt")
	h := New(http.DefaultClient, store, types.HarvestConfig{
		RequestDelay: time.Millisecond,
		StateFile:    stateFile,
	}, errlog.Nop())

	ctx := context.Background()
	start := time.Date(2023, 1, 16, 0, 0, 0, 0, time.UTC)
	end := time.Date(2023, 1, 20, 0, 0, 0, 0, time.UTC)

	summary, err := h.Run(ctx, start, end, io.Discard)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if summary.Harvested != 2 {
		t.Errorf("Harvested = %d, want 2", summary.Harvested)
	}
	if requests != 2 {
		t.Errorf("requests = %d, want 2 (one page plus empty page)", requests)
	}

	// Version suffixes are stripped before storage.
	p, err := store.Lookup(ctx, "2301.07041")
	if err != nil || p == nil {
		t.Fatalf("Lookup() = %v, %v, want stored paper", p, err)
	}
	if p.Title != "First Paper" || p.Authors != "A. Author, B. Author" {
		t.Errorf("stored paper = %+v", p)
	}
	if p.Categories != "cs.LG, cs.AI" || p.Year != 2023 || p.Month != 1 || p.Day != 17 {
		t.Errorf("stored paper fields = %+v", p)
	}
	if legacy, _ := store.Lookup(ctx, "cs/0205001"); legacy == nil {
		t.Error("legacy id not stored unversioned")
	}

	// The watermark records the end of the harvested window.
	mark, err := ReadWatermark(stateFile)
	if err != nil {
		t.Fatalf("ReadWatermark() error: %v", err)
	}
	if !mark.Equal(end) {
		t.Errorf("watermark = %v, want %v", mark, end)
	}
}

func TestRunSkipsFailedChunk(t *testing.T) {
	withListingServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	store := testHarvestStore(t)
	h := New(http.DefaultClient, store, types.HarvestConfig{
		RequestDelay: time.Millisecond,
	}, errlog.Nop())

	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2023, 1, 3, 0, 0, 0, 0, time.UTC)

	summary, err := h.Run(context.Background(), start, end, io.Discard)
	if err != nil {
		t.Fatalf("Run() error: %v, want chunk failure absorbed", err)
	}
	if summary.Harvested != 0 {
		t.Errorf("Harvested = %d, want 0", summary.Harvested)
	}
}

func TestFetchPaper(t *testing.T) {
	withListingServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("id_list") != "2301.07041" {
			t.Errorf("id_list = %q", r.URL.Query().Get("id_list"))
		}
		fmt.Fprintf(w, feedTemplate, atomEntryXML("2301.07041v1", "Fetched Paper"))
	})

	p, err := FetchPaper(context.Background(), http.DefaultClient, "2301.07041", "paper-atlas/0.1")
	if err != nil {
		t.Fatalf("FetchPaper() error: %v", err)
	}
	if p == nil || p.ID != "2301.07041" || p.Title != "Fetched Paper" {
		t.Errorf("FetchPaper() = %+v", p)
	}
}

func TestFetchPaperUnknownID(t *testing.T) {
	withListingServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, feedTemplate, "")
	})

	p, err := FetchPaper(context.Background(), http.DefaultClient, "9999.99999", "paper-atlas/0.1")
	if err != nil {
		t.Fatalf("FetchPaper() error: %v", err)
	}
	if p != nil {
		t.Errorf("FetchPaper() = %+v, want nil for unknown id", p)
	}
}

func TestExtractID(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"http://arxiv.org/abs/2504.13414v1", "2504.13414"},
		{"http://arxiv.org/abs/2504.13414", "2504.13414"},
		{"http://arxiv.org/abs/cs/0205001v1", "cs/0205001"},
		{"http://arxiv.org/abs/cs/0205001", "cs/0205001"},
		{"garbage", "garbage"},
	}
	for _, tt := range tests {
		if got := extractID(tt.in); got != tt.want {
			t.Errorf("extractID(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWatermarkRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "last_updated.txt")
	want := time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)

	if err := WriteWatermark(path, want); err != nil {
		t.Fatalf("WriteWatermark() error: %v", err)
	}
	got, err := ReadWatermark(path)
	if err != nil {
		t.Fatalf("ReadWatermark() error: %v", err)
	}
	if !got.Equal(want) {
		t.Errorf("watermark = %v, want %v", got, want)
	}
}
