// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package errlog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestErrorAppendsEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "errors.log")

	l, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	l.Error("2301.07041", CategoryHTTP, "status code: 404")
	l.Error("cs/0205001", CategoryParse, "xref table damaged")
	if err := l.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log: %v", err)
	}
	content := string(data)

	lines := strings.Split(strings.TrimSpace(content), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d log lines, want 2", len(lines))
	}
	for _, want := range []string{"2301.07041", CategoryHTTP, "cs/0205001", CategoryParse} {
		if !strings.Contains(content, want) {
			t.Errorf("log missing %q", want)
		}
	}
}

func TestOpenAppendsAcrossSessions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "errors.log")

	first, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	first.Error("a", CategoryRequest, "timeout")
	first.Close()

	second, err := Open(path)
	if err != nil {
		t.Fatalf("reopening: %v", err)
	}
	second.Error("b", CategoryRequest, "timeout")
	second.Close()

	data, _ := os.ReadFile(path)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Errorf("got %d lines after reopen, want 2 (append-only)", len(lines))
	}
}

func TestNopDiscards(t *testing.T) {
	// Must not panic or write anywhere.
	Nop().Error("x", CategorySearch, "ignored")
}
