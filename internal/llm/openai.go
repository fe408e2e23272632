package llm

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const (
	defaultChatModel  = "gpt-4o-mini"
	defaultEmbedModel = "text-embedding-3-small"
	maxAttempts       = 3
)

// OpenAIConfig configures the hosted backend. BaseURL supports any
// OpenAI-compatible endpoint (Ollama, vLLM, LM Studio).
type OpenAIConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	EmbedModel string
}

// OpenAIProvider implements Provider against an OpenAI-compatible API.
type OpenAIProvider struct {
	client     *openai.Client
	model      string
	embedModel string
	log        *zap.Logger
}

// NewOpenAIProvider builds the hosted backend.
func NewOpenAIProvider(cfg OpenAIConfig, log *zap.Logger) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai provider: missing api key")
	}
	if log == nil {
		log = zap.NewNop()
	}

	cc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		cc.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = defaultChatModel
	}
	embedModel := cfg.EmbedModel
	if embedModel == "" {
		embedModel = defaultEmbedModel
	}

	return &OpenAIProvider{
		client:     openai.NewClientWithConfig(cc),
		model:      model,
		embedModel: embedModel,
		log:        log,
	}, nil
}

// Chat sends a single-turn completion request, retrying transient
// failures with linear backoff.
func (p *OpenAIProvider) Chat(ctx context.Context, prompt, system string) (string, error) {
	var messages []openai.ChatCompletionMessage
	if system != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role: openai.ChatMessageRoleSystem, Content: system,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleUser, Content: prompt,
	})

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:    p.model,
			Messages: messages,
		})
		if err == nil {
			if len(resp.Choices) == 0 {
				return "", fmt.Errorf("chat completion: empty response")
			}
			return resp.Choices[0].Message.Content, nil
		}

		lastErr = err
		p.log.Warn("chat completion failed",
			zap.Int("attempt", attempt),
			zap.String("model", p.model),
			zap.Error(err))
		if err := sleepCtx(ctx, time.Duration(attempt)*time.Second); err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("chat completion after %d attempts: %w", maxAttempts, lastErr)
}

// ExtractStructured asks for JSON and parses whatever comes back.
func (p *OpenAIProvider) ExtractStructured(ctx context.Context, prompt, system string, out any) error {
	raw, err := p.Chat(ctx, prompt, system)
	if err != nil {
		return err
	}
	return ParseStructured(raw, out)
}

// Embed fetches an embedding, retrying transient failures.
func (p *OpenAIProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input: []string{text},
			Model: openai.EmbeddingModel(p.embedModel),
		})
		if err == nil {
			if len(resp.Data) == 0 {
				return nil, fmt.Errorf("embedding: empty response")
			}
			return resp.Data[0].Embedding, nil
		}

		lastErr = err
		p.log.Warn("embedding request failed",
			zap.Int("attempt", attempt),
			zap.String("model", p.embedModel),
			zap.Error(err))
		if err := sleepCtx(ctx, time.Duration(attempt)*time.Second); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("embedding after %d attempts: %w", maxAttempts, lastErr)
}

// Name identifies the provider in logs.
func (p *OpenAIProvider) Name() string {
	return "openai/" + p.model
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
