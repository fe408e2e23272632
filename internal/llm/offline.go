package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Kyrillus/ClawCRM/internal/embed"
	"github.com/Kyrillus/ClawCRM/internal/extract"
)

// OfflineProvider implements Provider with no network at all: the
// heuristic extractor stands in for chat-style extraction and the
// hashing embedder for embeddings. This is the default backend.
type OfflineProvider struct {
	extractor *extract.Extractor
	embedder  *embed.HashEmbedder
}

// NewOfflineProvider builds the offline backend. Non-positive dims
// falls back to the embedder default.
func NewOfflineProvider(dims int) *OfflineProvider {
	return &OfflineProvider{
		extractor: extract.NewExtractor(),
		embedder:  embed.NewHashEmbedder(dims),
	}
}

// Chat answers with the heuristic extraction result serialized as JSON.
// There is no generative model behind it, so the system prompt is
// ignored; callers wanting structure should use ExtractStructured.
func (p *OfflineProvider) Chat(ctx context.Context, prompt, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	b, err := json.Marshal(p.extractor.Extract(prompt))
	if err != nil {
		return "", fmt.Errorf("marshal extraction: %w", err)
	}
	return string(b), nil
}

// ExtractStructured runs the heuristic extractor and maps its result
// into out via JSON. When out is *extract.Result the copy is direct.
func (p *OfflineProvider) ExtractStructured(ctx context.Context, prompt, _ string, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	res := p.extractor.Extract(prompt)
	if dst, ok := out.(*extract.Result); ok {
		*dst = res
		return nil
	}

	b, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal extraction: %w", err)
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("map extraction into %T: %w", out, err)
	}
	return nil
}

// Embed returns the hashing embedder's vector.
func (p *OfflineProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	return p.embedder.Embed(ctx, text)
}

// Dimensions reports the embedding width.
func (p *OfflineProvider) Dimensions() int {
	return p.embedder.Dimensions()
}

// Name identifies the provider in logs.
func (p *OfflineProvider) Name() string {
	return "offline"
}
