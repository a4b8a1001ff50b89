package generate

import (
	"context"
	"errors"
	"math"

	openai "github.com/sashabaranov/go-openai"

	"github.com/hyperjump/jidai/internal/config"
)

// OpenAIBackend calls an OpenAI-compatible chat completions endpoint.
type OpenAIBackend struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
}

// NewOpenAIBackend returns a backend for cfg. BaseURL selects a compatible endpoint.
func NewOpenAIBackend(cfg config.GeneratorConfig) *OpenAIBackend {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &OpenAIBackend{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		maxTokens:   cfg.MaxOutputTokens,
		temperature: cfg.TemperatureOrDefault(),
	}
}

// Name returns "openai".
func (b *OpenAIBackend) Name() string { return "openai" }

// Generate sends p as a single-turn chat and returns the first choice.
func (b *OpenAIBackend) Generate(ctx context.Context, p Prompt) (string, error) {
	resp, err := b.client.CreateChatCompletion(ctx, b.request(p))
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no choices in completion")
	}
	return resp.Choices[0].Message.Content, nil
}

// request builds the completion request. The client drops a zero temperature
// from the JSON body, so 0 is sent as the smallest positive float32.
func (b *OpenAIBackend) request(p Prompt) openai.ChatCompletionRequest {
	temperature := b.temperature
	if temperature == 0 {
		temperature = math.SmallestNonzeroFloat32
	}
	return openai.ChatCompletionRequest{
		Model: b.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemInstruction},
			{Role: openai.ChatMessageRoleUser, Content: userMessage(p)},
		},
		MaxTokens:   b.maxTokens,
		Temperature: temperature,
	}
}
