package extract

import (
	"regexp"
	"strings"
)

// Hashtags on the source platforms mix CJK and Latin freely, so the
// pattern accepts Han characters alongside word characters.
var hashtagPattern = regexp.MustCompile(`#[\p{Han}a-zA-Z0-9_]+`)

// Hashtags returns every hashtag in s, deduplicated case-insensitively
// while keeping the first-seen spelling and order.
func Hashtags(s string) []string {
	matches := hashtagPattern.FindAllString(s, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		key := strings.ToLower(m)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, m)
	}
	return out
}

// MergeTags appends extra tags onto base, skipping case-insensitive
// duplicates.
func MergeTags(base, extra []string) []string {
	seen := make(map[string]bool, len(base))
	for _, t := range base {
		seen[strings.ToLower(t)] = true
	}
	out := base
	for _, t := range extra {
		key := strings.ToLower(t)
		if t == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
	}
	return out
}
