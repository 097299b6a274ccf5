// Package prefilter drops obviously unusable items before the
// expensive enrichment stages run. Two mechanisms: per-target
// exclusion keywords from config, and keyword filter expressions.
package prefilter

import (
	"strings"

	"github.com/hotradar/hotradar/internal/model"
)

// Filter is a compiled keyword filter expression. Terms come in three
// forms: "+word" must appear, "!word" must not appear, and a plain
// word counts toward an any-of match.
type Filter struct {
	required []string
	excluded []string
	anyOf    []string
}

// Compile parses filter terms. Empty and whitespace-only terms are
// dropped; matching is case-insensitive substring.
func Compile(terms []string) Filter {
	var f Filter
	for _, t := range terms {
		t = strings.TrimSpace(strings.ToLower(t))
		if t == "" {
			continue
		}
		switch {
		case strings.HasPrefix(t, "+"):
			if w := strings.TrimSpace(t[1:]); w != "" {
				f.required = append(f.required, w)
			}
		case strings.HasPrefix(t, "!"):
			if w := strings.TrimSpace(t[1:]); w != "" {
				f.excluded = append(f.excluded, w)
			}
		default:
			f.anyOf = append(f.anyOf, t)
		}
	}
	return f
}

// Empty reports whether the filter matches everything.
func (f Filter) Empty() bool {
	return len(f.required) == 0 && len(f.excluded) == 0 && len(f.anyOf) == 0
}

// Match reports whether text passes: every required term present, no
// excluded term present, and at least one any-of term present when any
// were given.
func (f Filter) Match(text string) bool {
	text = strings.ToLower(text)
	for _, w := range f.excluded {
		if strings.Contains(text, w) {
			return false
		}
	}
	for _, w := range f.required {
		if !strings.Contains(text, w) {
			return false
		}
	}
	if len(f.anyOf) == 0 {
		return true
	}
	for _, w := range f.anyOf {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

// Positive-term weights for Score.
const (
	requiredWeight = 0.5
	normalWeight   = 0.3
)

// Score rates how strongly text matches the filter's positive terms.
// Zero means no match: an excluded term present, a required term
// absent, or none of the any-of terms found. A filter with no positive
// terms scores every passing text 1. Required terms together are worth
// requiredWeight; any-of terms contribute normalWeight scaled by the
// fraction matched.
func (f Filter) Score(text string) float64 {
	if !f.Match(text) {
		return 0
	}
	if len(f.required) == 0 && len(f.anyOf) == 0 {
		return 1
	}
	text = strings.ToLower(text)
	score := 0.0
	if len(f.required) > 0 {
		// Match guarantees every required term is present.
		score += requiredWeight
	}
	if len(f.anyOf) > 0 {
		hits := 0
		for _, w := range f.anyOf {
			if strings.Contains(text, w) {
				hits++
			}
		}
		score += normalWeight * float64(hits) / float64(len(f.anyOf))
	}
	return score
}

// Excluded reports whether a raw item trips a target's exclusion
// keyword list.
func Excluded(item model.RawItem, exclusions []string) bool {
	if len(exclusions) == 0 {
		return false
	}
	text := strings.ToLower(item.Title + " " + strings.Join(item.Tags, " "))
	for _, word := range exclusions {
		word = strings.TrimSpace(strings.ToLower(word))
		if word != "" && strings.Contains(text, word) {
			return true
		}
	}
	return false
}

// Apply returns the items passing both the exclusion list and the
// filter, preserving order.
func Apply(items []model.RawItem, exclusions []string, f Filter) []model.RawItem {
	out := make([]model.RawItem, 0, len(items))
	for _, it := range items {
		if Excluded(it, exclusions) {
			continue
		}
		if !f.Empty() && !f.Match(it.Title+" "+strings.Join(it.Tags, " ")) {
			continue
		}
		out = append(out, it)
	}
	return out
}
