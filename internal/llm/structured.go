package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

const rawErrLimit = 200

// ParseStructured extracts a JSON object from a model response and
// unmarshals it into out. Models wrap JSON in markdown fences or prose
// often enough that we try three shapes in order: fenced block, the
// whole response, first object or array substring. A response with no
// parsable JSON is the one extraction failure that surfaces as an
// error.
func ParseStructured(raw string, out any) error {
	candidate := strings.TrimSpace(raw)

	if fenced := stripFences(candidate); fenced != "" {
		candidate = fenced
	}

	if err := json.Unmarshal([]byte(candidate), out); err == nil {
		return nil
	}

	// Fall back to the first JSON object or array substring, whichever
	// opens earlier in the text.
	for _, sub := range []string{
		bracketSubstring(candidate, '{', '}'),
		bracketSubstring(candidate, '[', ']'),
	} {
		if sub == "" {
			continue
		}
		if err := json.Unmarshal([]byte(sub), out); err == nil {
			return nil
		}
	}

	return fmt.Errorf("no parsable JSON in response: %q", truncateRaw(raw))
}

// bracketSubstring returns the span from the first open bracket to the
// last matching close bracket, or "" when no such span exists.
func bracketSubstring(s string, open, close byte) string {
	start := strings.IndexByte(s, open)
	end := strings.LastIndexByte(s, close)
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}

// stripFences returns the contents of the first ``` fenced block, or ""
// when the text is not fenced.
func stripFences(s string) string {
	start := strings.Index(s, "```")
	if start < 0 {
		return ""
	}
	rest := s[start+3:]
	// Drop a language tag like "json" on the fence line.
	if nl := strings.Index(rest, "\n"); nl >= 0 {
		rest = rest[nl+1:]
	}
	end := strings.Index(rest, "```")
	if end < 0 {
		return strings.TrimSpace(rest)
	}
	return strings.TrimSpace(rest[:end])
}

func truncateRaw(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= rawErrLimit {
		return s
	}
	return s[:rawErrLimit] + "..."
}
