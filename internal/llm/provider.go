// Package llm abstracts the semantic backends ClawCRM can run on: a
// fully offline heuristic provider (the default) and an OpenAI-backed
// one for hosted models. Both expose the same Provider surface so the
// ingestion pipeline never knows which it is talking to.
package llm

import "context"

// Provider is the semantic backend contract. The system prompt is
// optional; pass "" when there is none.
type Provider interface {
	// Chat sends a prompt and returns the raw text completion.
	Chat(ctx context.Context, prompt, system string) (string, error)

	// ExtractStructured runs prompt expecting a JSON object back and
	// unmarshals it into out. Implementations must tolerate markdown
	// code fences and surrounding prose around the JSON.
	ExtractStructured(ctx context.Context, prompt, system string, out any) error

	// Embed returns a vector for text. Offline implementations return
	// a zero vector for empty input rather than an error.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Name identifies the provider in logs.
	Name() string
}
