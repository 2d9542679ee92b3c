// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "strings"

// Paper holds the corpus record for one arXiv paper.
//
// Authors and Categories are stored as the comma-separated free text the
// arXiv metadata feeds deliver; CategoryList splits the latter on demand.
// ConnectedPapers holds the direct citation edges discovered so far. Edges
// only ever grow, never contain the paper's own ID, and only reference
// identifiers present in the corpus.
type Paper struct {
	// ID is the canonical arXiv identifier with any version suffix
	// stripped (e.g. "2301.07041" or "cs/0205001").
	ID string `json:"id" yaml:"id"`

	// Title is the paper title.
	Title string `json:"title" yaml:"title"`

	// Authors is the comma-separated author list.
	Authors string `json:"authors" yaml:"authors"`

	// Abstract is the paper abstract. May be empty, in which case the
	// paper has no embedding.
	Abstract string `json:"abstract" yaml:"abstract"`

	// Categories is the comma-separated arXiv category tag list.
	Categories string `json:"categories" yaml:"categories"`

	// DOI is the registered DOI, if any.
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`

	// ConnectedPapers lists the IDs of papers this paper cites, as far
	// as reference extraction has discovered them.
	ConnectedPapers []string `json:"connected_papers" yaml:"connected_papers"`

	// Year, Month and Day are the publication date components.
	Year  int `json:"year" yaml:"year"`
	Month int `json:"month" yaml:"month"`
	Day   int `json:"day" yaml:"day"`
}

// CategoryList splits the comma-separated Categories field, preserving order.
func (p *Paper) CategoryList() []string {
	if p.Categories == "" {
		return nil
	}
	parts := strings.Split(p.Categories, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// HasAbstract reports whether the paper carries a non-empty abstract.
func (p *Paper) HasAbstract() bool {
	return strings.TrimSpace(p.Abstract) != ""
}
