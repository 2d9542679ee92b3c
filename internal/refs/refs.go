// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package refs pattern-matches arXiv paper identifiers out of raw
// document text and normalizes them to canonical corpus keys.
package refs

import (
	"regexp"
	"sort"
	"strings"
)

// rule pairs one identifier pattern with the normalizer for its matches.
// Rules are evaluated independently in priority order and the union of
// their matches is deduplicated, so an overly permissive rule cannot
// mask a more specific one.
type rule struct {
	re        *regexp.Regexp
	normalize func(string) string
}

// ruleSpec is the uncompiled form. Compilation failures drop the single
// offending rule; the remaining rules still run.
type ruleSpec struct {
	pattern   string
	normalize func(string) string
}

var ruleSpecs = []ruleSpec{
	// Modern identifiers, optionally arXiv:-prefixed and bracketed.
	{`(?i)\[arxiv:\d{4}\.\d{4,5}(?:v\d+)?\]`, normalizeModern},
	{`(?i)arxiv:\d{4}\.\d{4,5}(?:v\d+)?`, normalizeModern},
	{`\d{4}\.\d{4,5}(?:v\d+)?`, normalizeModern},

	// Legacy cs identifiers, with and without subcategory, including
	// the "ArXiv preprint cs.XX/NNNNNNN" prose form seen in references.
	{`(?i)\[arxiv:cs/\d{7}\]`, normalizeLegacy},
	{`(?i)arxiv:cs/\d{7}`, normalizeLegacy},
	{`(?i)cs/\d{7}`, normalizeLegacy},
	{`(?i)cs\.\s?[a-z]{2}/\d{7}`, normalizeLegacy},
	{`(?i)cs\s[a-z]{2}/\d{7}`, normalizeLegacy},
	{`(?i)arxiv\s+preprint\s+cs[.\s]\s?[a-z]{2}/\d{7}`, normalizeLegacy},
}

var rules = compileRules(ruleSpecs)

func compileRules(specs []ruleSpec) []rule {
	compiled := make([]rule, 0, len(specs))
	for _, spec := range specs {
		re, err := regexp.Compile(spec.pattern)
		if err != nil {
			continue
		}
		compiled = append(compiled, rule{re: re, normalize: spec.normalize})
	}
	return compiled
}

// Extract returns every normalized identifier found in text, deduplicated
// and sorted. Unmatched or empty input yields an empty slice, never an
// error; this function performs no I/O.
func Extract(text string) []string {
	if text == "" {
		return nil
	}

	seen := make(map[string]bool)
	for _, r := range rules {
		for _, match := range r.re.FindAllString(text, -1) {
			if id := r.normalize(match); id != "" {
				seen[id] = true
			}
		}
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// versionRe matches a trailing version suffix like "v1" or "v12".
var versionRe = regexp.MustCompile(`(?i)v\d+$`)

// legacyRe recognizes an already-extracted legacy-form identifier.
var legacyRe = regexp.MustCompile(`(?i)^(?:\[?arxiv:)?cs[.\s/]`)

// Normalize rewrites one identifier (however it appeared in text or a
// URL) to its canonical corpus key: legacy forms become "cs/NNNNNNN",
// modern forms lose prefix, brackets, and version suffix.
func Normalize(id string) string {
	if legacyRe.MatchString(id) {
		return normalizeLegacy(id)
	}
	return normalizeModern(id)
}

// normalizeLegacy rewrites any legacy-format match ("cs/1234567",
// "cs.CL/1234567", "arXiv:cs/1234567", ...) to "cs/digits".
func normalizeLegacy(match string) string {
	part := match
	if idx := strings.LastIndex(part, "/"); idx >= 0 {
		part = part[idx+1:]
	} else if idx := strings.LastIndex(part, "."); idx >= 0 {
		part = part[idx+1:]
	}
	part = strings.TrimSuffix(strings.TrimSpace(part), "]")
	part = versionRe.ReplaceAllString(part, "")
	if part == "" {
		return ""
	}
	return "cs/" + part
}

// normalizeModern strips brackets, the arXiv: prefix, and any version
// suffix from a modern-format match.
func normalizeModern(match string) string {
	id := strings.Trim(match, "[]")
	if idx := strings.Index(strings.ToLower(id), "arxiv:"); idx >= 0 {
		id = id[idx+len("arxiv:"):]
	}
	return versionRe.ReplaceAllString(strings.TrimSpace(id), "")
}
