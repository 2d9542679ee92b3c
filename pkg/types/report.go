// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// FirstDegree describes the seed paper and its direct citation edges.
type FirstDegree struct {
	// SourceID is the seed paper identifier.
	SourceID string `json:"source_id" yaml:"source_id"`

	// SourceTitle is the seed paper title, or a synthesized
	// "Paper {id}" placeholder when the seed is not in the corpus.
	SourceTitle string `json:"source_title" yaml:"source_title"`

	// Connections lists the verified first-degree edge IDs.
	Connections []string `json:"connections" yaml:"connections"`
}

// ConnectionReport is the result of a citation graph expansion.
// The second and third degree maps key each expanded node to its own
// direct edges; nodes whose text could not be fetched are absent.
type ConnectionReport struct {
	FirstDegree  FirstDegree         `json:"first_degree" yaml:"first_degree"`
	SecondDegree map[string][]string `json:"second_degree" yaml:"second_degree"`
	ThirdDegree  map[string][]string `json:"third_degree" yaml:"third_degree"`
}

// RankedPaper is one similarity search hit: corpus paper metadata plus
// its cosine similarity to the query vector.
type RankedPaper struct {
	ID         string  `json:"id" yaml:"id"`
	Title      string  `json:"title" yaml:"title"`
	Abstract   string  `json:"abstract,omitempty" yaml:"abstract,omitempty"`
	Authors    string  `json:"authors" yaml:"authors"`
	Categories string  `json:"categories,omitempty" yaml:"categories,omitempty"`
	Year       int     `json:"year" yaml:"year"`
	Similarity float64 `json:"similarity" yaml:"similarity"`
}

// Recommendations holds the two derived candidate lists for a paper.
//
// Hot papers are the top similarity matches against the paper's own
// abstract, with the paper itself and its explicit citations removed.
// Core papers refine that list one step further: each hot paper's own
// nearest match, deduplicated, backfilled from the hot list when the
// second-order walk comes up short.
type Recommendations struct {
	HotPapers  []RankedPaper `json:"hot_papers" yaml:"hot_papers"`
	CorePapers []RankedPaper `json:"core_papers" yaml:"core_papers"`
}
