// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch retrieves paper documents from arXiv and reduces them to
// plain text for reference extraction.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/pdiddy/paper-atlas/internal/errlog"
	"github.com/pdiddy/paper-atlas/pkg/types"
)

// pdfBaseURL is the arXiv PDF endpoint. Declared as a var so tests can
// substitute an httptest server.
var pdfBaseURL = "https://arxiv.org/pdf/"

// maxPDFBytes bounds how much of a response is read into memory.
const maxPDFBytes = 64 << 20

// Fetcher downloads paper PDFs and extracts their text.
//
// Every failure class is absorbed: Text returns an empty string and logs
// a structured entry instead of surfacing an error. Empty text means "no
// references discoverable", which callers treat as a skip, not a fault.
type Fetcher struct {
	client    *http.Client
	limiter   *rate.Limiter
	log       *errlog.Logger
	userAgent string
}

// New builds a Fetcher. The rate limiter enforces cfg.RequestInterval
// between outbound requests so traversals stay polite to arXiv.
func New(cfg types.FetchConfig, log *errlog.Logger) *Fetcher {
	interval := cfg.RequestInterval
	limiter := rate.NewLimiter(rate.Inf, 1)
	if interval > 0 {
		limiter = rate.NewLimiter(rate.Every(interval), 1)
	}
	return &Fetcher{
		client:    &http.Client{Timeout: cfg.Timeout},
		limiter:   limiter,
		log:       log,
		userAgent: cfg.UserAgent,
	}
}

// Text downloads the PDF for paperID and returns its plain text.
// A HEAD probe runs first so a missing paper costs one cheap request.
func (f *Fetcher) Text(ctx context.Context, paperID string) string {
	url := pdfBaseURL + paperID

	if err := f.limiter.Wait(ctx); err != nil {
		f.log.Error(paperID, errlog.CategoryRequest, err.Error())
		return ""
	}

	status, err := f.probe(ctx, url)
	if err != nil {
		f.log.Error(paperID, errlog.CategoryRequest, err.Error())
		return ""
	}
	if status != http.StatusOK {
		f.log.Error(paperID, errlog.CategoryHTTP, fmt.Sprintf("status code: %d", status))
		return ""
	}

	data, status, err := f.download(ctx, url)
	if err != nil {
		f.log.Error(paperID, errlog.CategoryRequest, err.Error())
		return ""
	}
	if status != http.StatusOK {
		f.log.Error(paperID, errlog.CategoryHTTP, fmt.Sprintf("status code: %d", status))
		return ""
	}

	text, err := extractText(data)
	if err != nil {
		f.log.Error(paperID, errlog.CategoryParse, err.Error())
		return ""
	}
	return text
}

func (f *Fetcher) probe(ctx context.Context, url string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("HEAD request: %w", err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return resp.StatusCode, nil
}

func (f *Fetcher) download(ctx context.Context, url string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/pdf")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("GET request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, resp.StatusCode, nil
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPDFBytes))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("reading body: %w", err)
	}
	return data, resp.StatusCode, nil
}
