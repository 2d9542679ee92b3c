// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package harvest pulls paper listings from the arXiv API into the
// corpus, windowed by submission date so interrupted runs resume from a
// recorded watermark.
package harvest

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/pdiddy/paper-atlas/internal/corpus"
	"github.com/pdiddy/paper-atlas/internal/errlog"
	"github.com/pdiddy/paper-atlas/internal/httputil"
	"github.com/pdiddy/paper-atlas/pkg/types"
)

// listingAPIBase is a package variable so tests can substitute an
// httptest server.
var listingAPIBase = "http://export.arxiv.org/api/query"

// arXiv Atom feed XML structures.
type atomFeed struct {
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	ID         string         `xml:"id"`
	Title      string         `xml:"title"`
	Summary    string         `xml:"summary"`
	Published  string         `xml:"published"`
	DOI        string         `xml:"doi"`
	Authors    []atomAuthor   `xml:"author"`
	Categories []atomCategory `xml:"category"`
}

type atomAuthor struct {
	Name string `xml:"name"`
}

type atomCategory struct {
	Term string `xml:"term,attr"`
}

// Summary holds counts from a harvest run.
type Summary struct {
	Harvested int
	Failed    int
	Pages     int
}

// Harvester walks the listing API and records papers in the corpus.
type Harvester struct {
	client *http.Client
	store  *corpus.Store
	cfg    types.HarvestConfig
	log    *errlog.Logger
}

// New builds a Harvester. Zero config values fall back to defaults
// (7-day chunks, 100 entries per page, 3s between requests).
func New(client *http.Client, store *corpus.Store, cfg types.HarvestConfig, log *errlog.Logger) *Harvester {
	if cfg.ChunkDays <= 0 {
		cfg.ChunkDays = 7
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 100
	}
	if cfg.RequestDelay <= 0 {
		cfg.RequestDelay = 3 * time.Second
	}
	return &Harvester{client: client, store: store, cfg: cfg, log: log}
}

// Run harvests all cs.* papers submitted between start and end, writing
// progress to w. The window is split into ChunkDays-sized chunks and
// each chunk paged through until the API returns no more entries. A
// failed chunk is logged and skipped so one bad window cannot sink the
// run; the watermark advances only on completion.
func (h *Harvester) Run(ctx context.Context, start, end time.Time, w io.Writer) (Summary, error) {
	var summary Summary

	for chunkStart := start; chunkStart.Before(end); {
		chunkEnd := chunkStart.AddDate(0, 0, h.cfg.ChunkDays)
		if chunkEnd.After(end) {
			chunkEnd = end
		}

		fmt.Fprintf(w, "harvesting %s to %s\n",
			chunkStart.Format("2006-01-02"), chunkEnd.Format("2006-01-02"))

		if err := h.harvestChunk(ctx, chunkStart, chunkEnd, &summary, w); err != nil {
			if ctx.Err() != nil {
				return summary, ctx.Err()
			}
			h.log.Error(chunkStart.Format("2006-01-02"), errlog.CategoryRequest, err.Error())
			fmt.Fprintf(w, "  chunk failed: %v\n", err)
		}

		// Advance one second past the chunk so windows never overlap.
		chunkStart = chunkEnd.Add(time.Second)
	}

	if h.cfg.StateFile != "" {
		if err := WriteWatermark(h.cfg.StateFile, end); err != nil {
			return summary, fmt.Errorf("recording watermark: %w", err)
		}
	}

	fmt.Fprintf(w, "\nharvested %d papers over %d pages (%d failed)\n",
		summary.Harvested, summary.Pages, summary.Failed)
	return summary, nil
}

func (h *Harvester) harvestChunk(ctx context.Context, start, end time.Time, summary *Summary, w io.Writer) error {
	query := fmt.Sprintf("cat:cs.* AND submittedDate:[%s TO %s]",
		start.Format("20060102150405"), end.Format("20060102150405"))

	for offset := 0; ; offset += h.cfg.PageSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		if offset > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(h.cfg.RequestDelay):
			}
		}

		feed, err := h.fetchPage(ctx, query, offset)
		if err != nil {
			return err
		}
		summary.Pages++
		if len(feed.Entries) == 0 {
			return nil
		}

		for _, entry := range feed.Entries {
			paper := entryToPaper(entry)
			if paper.ID == "" {
				summary.Failed++
				continue
			}
			if err := h.store.Upsert(ctx, paper); err != nil {
				h.log.Error(paper.ID, errlog.CategoryRequest, "storing paper: "+err.Error())
				summary.Failed++
				continue
			}
			summary.Harvested++
		}
		fmt.Fprintf(w, "  %d papers so far\n", summary.Harvested)
	}
}

func (h *Harvester) fetchPage(ctx context.Context, query string, offset int) (*atomFeed, error) {
	params := url.Values{}
	params.Set("search_query", query)
	params.Set("start", fmt.Sprintf("%d", offset))
	params.Set("max_results", fmt.Sprintf("%d", h.cfg.PageSize))
	params.Set("sortBy", "submittedDate")
	params.Set("sortOrder", "ascending")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, listingAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", h.cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, h.client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("listing API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("listing API returned HTTP %d", resp.StatusCode)
	}

	var feed atomFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("parsing listing response: %w", err)
	}
	return &feed, nil
}

// FetchPaper retrieves a single paper's metadata by id. A paper the API
// does not know yields (nil, nil).
func FetchPaper(ctx context.Context, client *http.Client, id, userAgent string) (*types.Paper, error) {
	apiURL := listingAPIBase + "?" + url.Values{"id_list": {id}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := httputil.DoWithRetry(ctx, client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("listing API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("listing API returned HTTP %d", resp.StatusCode)
	}

	var feed atomFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("parsing listing response: %w", err)
	}
	if len(feed.Entries) == 0 {
		return nil, nil
	}

	paper := entryToPaper(feed.Entries[0])
	if paper.ID == "" {
		return nil, fmt.Errorf("entry for %s has no usable id", id)
	}
	return paper, nil
}

// entryToPaper converts an Atom entry to a corpus record.
func entryToPaper(entry atomEntry) *types.Paper {
	authors := make([]string, 0, len(entry.Authors))
	for _, a := range entry.Authors {
		authors = append(authors, strings.TrimSpace(a.Name))
	}
	categories := make([]string, 0, len(entry.Categories))
	for _, c := range entry.Categories {
		categories = append(categories, c.Term)
	}

	paper := &types.Paper{
		ID:         extractID(entry.ID),
		Title:      strings.TrimSpace(entry.Title),
		Authors:    strings.Join(authors, ", "),
		Abstract:   strings.TrimSpace(entry.Summary),
		Categories: strings.Join(categories, ", "),
		DOI:        entry.DOI,
	}
	if t, err := time.Parse("2006-01-02T15:04:05Z", entry.Published); err == nil {
		paper.Year = t.Year()
		paper.Month = int(t.Month())
		paper.Day = t.Day()
	}
	return paper
}

// extractID pulls the bare paper id out of an Atom entry URL, dropping
// the version suffix. Both modern (abs/2504.13414v1) and legacy
// (abs/cs/0205001v1) forms are handled.
func extractID(entryURL string) string {
	_, after, found := strings.Cut(entryURL, "/abs/")
	if !found {
		return strings.TrimSpace(entryURL)
	}
	if i := strings.LastIndex(after, "v"); i > 0 {
		// Only strip a trailing version, not the "v" in a category.
		if _, err := fmt.Sscanf(after[i:], "v%d", new(int)); err == nil {
			after = after[:i]
		}
	}
	return after
}

// ReadWatermark loads the last harvested date from path.
func ReadWatermark(path string) (time.Time, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return time.Time{}, err
	}
	stamp := strings.TrimSpace(string(data))
	t, err := time.Parse("20060102", stamp)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing watermark %q: %w", stamp, err)
	}
	return t, nil
}

// WriteWatermark records t as the last harvested date at path.
func WriteWatermark(path string, t time.Time) error {
	return os.WriteFile(path, []byte(t.Format("20060102")), 0o644)
}
