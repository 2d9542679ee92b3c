// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/paper-atlas/internal/errlog"
	"github.com/pdiddy/paper-atlas/pkg/types"
)

func testFetcher(t *testing.T, log *errlog.Logger) *Fetcher {
	t.Helper()
	if log == nil {
		log = errlog.Nop()
	}
	return New(types.FetchConfig{
		HTTPConfig: types.HTTPConfig{Timeout: 5 * time.Second, UserAgent: "paper-atlas-test/0.1"},
	}, log)
}

func TestTextNotFoundReturnsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	oldBase := pdfBaseURL
	pdfBaseURL = srv.URL + "/"
	defer func() { pdfBaseURL = oldBase }()

	var buf bytes.Buffer
	f := testFetcher(t, errlog.NewWriter(&buf))

	if got := f.Text(context.Background(), "9999.99999"); got != "" {
		t.Errorf("Text() = %q, want empty for 404", got)
	}
	if !strings.Contains(buf.String(), errlog.CategoryHTTP) {
		t.Errorf("expected %q entry in log, got: %s", errlog.CategoryHTTP, buf.String())
	}
	if !strings.Contains(buf.String(), "9999.99999") {
		t.Errorf("log entry missing paper id: %s", buf.String())
	}
}

func TestTextTransportErrorReturnsEmpty(t *testing.T) {
	// Closed server: connection refused.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	oldBase := pdfBaseURL
	pdfBaseURL = srv.URL + "/"
	defer func() { pdfBaseURL = oldBase }()

	var buf bytes.Buffer
	f := testFetcher(t, errlog.NewWriter(&buf))

	if got := f.Text(context.Background(), "1234.5678"); got != "" {
		t.Errorf("Text() = %q, want empty for transport error", got)
	}
	if !strings.Contains(buf.String(), errlog.CategoryRequest) {
		t.Errorf("expected %q entry in log, got: %s", errlog.CategoryRequest, buf.String())
	}
}

func TestTextUnparsableBodyReturnsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("this is not a pdf"))
	}))
	defer srv.Close()

	oldBase := pdfBaseURL
	pdfBaseURL = srv.URL + "/"
	defer func() { pdfBaseURL = oldBase }()

	var buf bytes.Buffer
	f := testFetcher(t, errlog.NewWriter(&buf))

	if got := f.Text(context.Background(), "1234.5678"); got != "" {
		t.Errorf("Text() = %q, want empty for unparsable content", got)
	}
	if !strings.Contains(buf.String(), errlog.CategoryParse) {
		t.Errorf("expected %q entry in log, got: %s", errlog.CategoryParse, buf.String())
	}
}

func TestTextCancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("unreachable"))
	}))
	defer srv.Close()

	oldBase := pdfBaseURL
	pdfBaseURL = srv.URL + "/"
	defer func() { pdfBaseURL = oldBase }()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := testFetcher(t, nil)
	if got := f.Text(ctx, "1234.5678"); got != "" {
		t.Errorf("Text() = %q, want empty for cancelled context", got)
	}
}

func TestExtractTextRejectsGarbage(t *testing.T) {
	if _, err := extractText([]byte("%PDF-1.4 truncated garbage")); err == nil {
		t.Error("extractText() on garbage succeeded, want error")
	}
	if _, err := extractText(nil); err == nil {
		t.Error("extractText() on empty input succeeded, want error")
	}
}
