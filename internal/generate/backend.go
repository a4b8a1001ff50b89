// Package generate produces historical-context text for news passages using a
// generative model backend.
package generate

import (
	"context"
	"fmt"
	"strings"

	"github.com/hyperjump/jidai/internal/config"
)

// Prompt is a question answered against a passage.
type Prompt struct {
	Question string
	Passage  string
}

// Backend is a generative model that answers a Prompt.
type Backend interface {
	Generate(ctx context.Context, p Prompt) (string, error)
	Name() string
}

const systemInstruction = "You explain the historical background of current events for students preparing for civil services examinations. " +
	"Answer in one or two short paragraphs using only well established facts."

// userMessage renders the prompt for chat-style models.
func userMessage(p Prompt) string {
	var b strings.Builder
	b.WriteString("Question: ")
	b.WriteString(p.Question)
	b.WriteString("\n\nPassage:\n")
	b.WriteString(p.Passage)
	return b.String()
}

// NewBackend builds the backend named by cfg.Backend.
func NewBackend(cfg config.GeneratorConfig) (Backend, error) {
	switch cfg.Backend {
	case "openai":
		return NewOpenAIBackend(cfg), nil
	case "ollama":
		return NewOllamaBackend(cfg)
	case "echo", "":
		return EchoBackend{}, nil
	default:
		return nil, fmt.Errorf("unknown generator backend %q", cfg.Backend)
	}
}
