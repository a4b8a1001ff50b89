package generate

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"

	"github.com/hyperjump/jidai/internal/config"
)

// DefaultOllamaHost is used when neither base_url nor OLLAMA_HOST is set.
const DefaultOllamaHost = "http://localhost:11434"

// OllamaBackend calls a local Ollama server.
type OllamaBackend struct {
	client      *api.Client
	model       string
	maxTokens   int
	temperature float32
}

// NewOllamaBackend returns a backend for the Ollama server at cfg.BaseURL.
func NewOllamaBackend(cfg config.GeneratorConfig) (*OllamaBackend, error) {
	host := cfg.BaseURL
	if host == "" {
		host = DefaultOllamaHost
	}
	u, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("parse ollama host: %w", err)
	}
	return &OllamaBackend{
		client:      api.NewClient(u, &http.Client{Timeout: cfg.Timeout}),
		model:       cfg.Model,
		maxTokens:   cfg.MaxOutputTokens,
		temperature: cfg.TemperatureOrDefault(),
	}, nil
}

// Name returns "ollama".
func (b *OllamaBackend) Name() string { return "ollama" }

// Generate runs a non-streaming chat request and returns the assistant message.
func (b *OllamaBackend) Generate(ctx context.Context, p Prompt) (string, error) {
	stream := false
	req := &api.ChatRequest{
		Model: b.model,
		Messages: []api.Message{
			{Role: "system", Content: systemInstruction},
			{Role: "user", Content: userMessage(p)},
		},
		Options: map[string]interface{}{
			"temperature": b.temperature,
			"num_predict": b.maxTokens,
		},
		Stream: &stream,
	}
	var out strings.Builder
	err := b.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		out.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", err
	}
	return out.String(), nil
}
