package brain

import (
	"encoding/json"
	"strings"
)

// Model output rarely arrives as clean JSON. It comes wrapped in prose,
// markdown fences, or with trailing commentary. These helpers pull out
// the first complete object and decode it without ever failing hard;
// callers get a validity flag and fall back to defaults when it is
// false.

// ExtractObject returns the first balanced top-level JSON object in s.
// Braces inside string literals are ignored.
func ExtractObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// DecodeLoose strips markdown fences, extracts the first JSON object
// and unmarshals it into v. Returns false when no usable object was
// found; v is left as the caller initialized it, so pre-filled
// defaults survive.
func DecodeLoose(s string, v any) bool {
	s = stripFences(s)
	obj, ok := ExtractObject(s)
	if !ok {
		return false
	}
	return json.Unmarshal([]byte(obj), v) == nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	if i := strings.LastIndex(s, "```"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
