// Package extract provides ClawCRM's offline heuristic extractor.
//
// Given a free-text block (typically a meeting note) it produces
// candidate person names, a short summary, and ranked topic phrases
// using only regex patterns and frequency counting — no model, no
// network. Every function in this package is total: parse ambiguity
// degrades to sentinel defaults, never to an error.
package extract

// UnknownPerson is the sentinel candidate returned when no person name
// survives extraction. Confirming it verbatim creates a Person with
// exactly this display name.
const UnknownPerson = "Unknown Person"

// Result is the extractor's output for one text block. It is transient:
// callers persist the derived meeting/person records, not the Result.
type Result struct {
	Intent  Intent   `json:"intent"`
	Names   []string `json:"names"`
	Summary string   `json:"summary"`
	Topics  []string `json:"topics"`
}

// Extractor runs the full heuristic pipeline. It is stateless and safe
// for concurrent use.
type Extractor struct{}

// NewExtractor creates an Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract classifies the text's intent and runs name, summary, and
// topic extraction. It never fails.
func (x *Extractor) Extract(text string) Result {
	return x.ExtractWithHint(text, "")
}

// ExtractWithHint is Extract with a caller-supplied intent override.
// An empty hint means classify from the text itself.
func (x *Extractor) ExtractWithHint(text string, hint Intent) Result {
	intent := hint
	if intent == "" {
		intent = Classify(text)
	}

	return Result{
		Intent:  intent,
		Names:   ExtractAllNames(text),
		Summary: Summarize(text),
		Topics:  Topics(text),
	}
}
