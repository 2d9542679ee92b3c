// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package similarity ranks corpus papers against a query vector by
// cosine similarity over the stored embeddings.
package similarity

import (
	"errors"
	"fmt"
	"math"
)

// ErrZeroVector marks a vector whose norm is zero. Cosine similarity is
// undefined for it, and pretending the answer is 0 would silently rank
// a broken embedding below everything instead of surfacing the fault.
var ErrZeroVector = errors.New("zero-norm vector")

// Cosine returns the cosine similarity of a and b in [-1, 1].
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("dimension mismatch: %d vs %d", len(a), len(b))
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, ErrZeroVector
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}
