// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package errlog provides the append-only structured error log shared by
// the pipeline stages. Entries carry the subject paper ID, an error
// category, and a message; writing never fails the caller.
package errlog

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Error categories recorded by the fetch and similarity stages.
const (
	CategoryHTTP    = "http error"
	CategoryParse   = "parse error"
	CategoryRequest = "request error"
	CategorySearch  = "search error"
	CategoryEmbed   = "embedding error"
)

// Logger appends structured error entries to a log file.
// The zero-value-like Nop logger discards everything.
type Logger struct {
	zl zerolog.Logger
	f  *os.File
}

// Open creates or appends to the error log at path.
func Open(path string) (*Logger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening error log %s: %w", path, err)
	}
	return &Logger{
		zl: zerolog.New(f).With().Timestamp().Logger(),
		f:  f,
	}, nil
}

// NewWriter returns a Logger writing to w. Used by tests and by callers
// that want entries on stderr instead of a file.
func NewWriter(w io.Writer) *Logger {
	return &Logger{zl: zerolog.New(w).With().Timestamp().Logger()}
}

// Nop returns a Logger that discards all entries.
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// Error appends one entry. It never returns an error; a failed write is
// not allowed to disturb the pipeline that reported the failure.
func (l *Logger) Error(subjectID, category, message string) {
	l.zl.Error().
		Str("subject", subjectID).
		Str("category", category).
		Msg(message)
}

// Close releases the underlying file, if any.
func (l *Logger) Close() error {
	if l.f == nil {
		return nil
	}
	return l.f.Close()
}
