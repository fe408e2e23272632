package extract

import (
	"regexp"
	"strings"
)

// summaryMaxLen caps the summary, ellipsis included.
const summaryMaxLen = 300

// contentMarkers delimit where instruction scaffolding ends and the
// actual note begins. The *last* occurrence wins: prompts tend to quote
// their own instructions before the payload.
var contentMarkers = []string{
	"meeting note:",
	"meeting notes:",
	"transcript:",
	"conversation:",
	"content:",
	"notes:",
	"text:",
	"---",
}

// instructionVerbs mark lines that are imperative prompt instructions
// rather than note content.
var instructionVerbs = []string{
	"extract", "analyze", "analyse", "return", "parse", "summarize",
	"identify", "list", "generate", "provide", "please",
}

var sentenceRE = regexp.MustCompile(`[^.!?\n]+[.!?]?`)

// Summarize produces a 1–2 sentence summary of the note content,
// truncated to 300 characters. It never fails; when no usable sentence
// exists it degrades to a truncated slice of the raw input.
func Summarize(text string) string {
	content := noteContent(text)

	var sentences []string
	for _, s := range sentenceRE.FindAllString(content, -1) {
		s = strings.TrimSpace(s)
		if len(s) > 10 {
			sentences = append(sentences, s)
		}
		if len(sentences) == 2 {
			break
		}
	}

	if len(sentences) == 0 {
		return truncate(strings.TrimSpace(text), summaryMaxLen)
	}
	return truncate(strings.Join(sentences, " "), summaryMaxLen)
}

// noteContent locates the free-text payload of a block. It first looks
// for the last delimiter marker and takes everything after it when the
// remainder is substantial; otherwise it drops lines that look like
// prompt instructions and keeps the rest.
func noteContent(text string) string {
	lower := strings.ToLower(text)

	best := -1
	bestEnd := 0
	for _, marker := range contentMarkers {
		if idx := strings.LastIndex(lower, marker); idx > best {
			best = idx
			bestEnd = idx + len(marker)
		}
	}
	if best >= 0 {
		remainder := strings.TrimSpace(text[bestEnd:])
		if len(remainder) > 20 {
			return remainder
		}
	}

	var kept []string
	for _, line := range strings.Split(text, "\n") {
		if isInstructionLine(line) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

// isInstructionLine reports whether a line reads as an imperative
// prompt instruction (leading verb, or JSON formatting directives).
func isInstructionLine(line string) bool {
	trimmed := strings.ToLower(strings.TrimSpace(line))
	if trimmed == "" {
		return false
	}

	for _, verb := range instructionVerbs {
		if strings.HasPrefix(trimmed, verb+" ") || trimmed == verb {
			return true
		}
	}

	if strings.Contains(trimmed, "json") {
		for _, w := range []string{"return", "format", "valid"} {
			if strings.Contains(trimmed, w) {
				return true
			}
		}
	}
	return false
}

// truncate limits s to maxLen characters, appending an ellipsis marker
// when anything was cut.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
