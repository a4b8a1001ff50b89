package generate

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/jidai/internal/metrics"
)

// Fallback texts returned instead of generated context.
const (
	FallbackEmptyText = "Unable to generate historical context due to empty article text."
	FallbackNoInputs  = "Unable to generate historical context for this article."
)

// Questions asked of the model.
const (
	QuestionEvent   = "What is the historical context of this event?"
	QuestionArticle = "What is the historical context of this news article?"
)

// Interpreter answers a question about a passage, always returning non-empty text.
type Interpreter interface {
	Interpret(ctx context.Context, question, passage string) string
}

// Generator wraps a Backend with input encoding, a per-call timeout and fallbacks.
type Generator struct {
	backend Backend
	encoder *Encoder
	timeout time.Duration
	logger  *zap.Logger
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithTimeout bounds each backend call.
func WithTimeout(d time.Duration) GeneratorOption {
	return func(g *Generator) { g.timeout = d }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) GeneratorOption {
	return func(g *Generator) { g.logger = l }
}

// NewGenerator returns a Generator over backend and encoder.
func NewGenerator(backend Backend, encoder *Encoder, opts ...GeneratorOption) *Generator {
	g := &Generator{backend: backend, encoder: encoder, logger: zap.NewNop()}
	if g.encoder == nil {
		g.encoder = NewEncoder(0)
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Interpret returns historical context for passage, or one of the fallback texts.
// A blank passage never reaches the backend.
func (g *Generator) Interpret(ctx context.Context, question, passage string) string {
	if strings.TrimSpace(passage) == "" {
		metrics.RecordGeneration("empty_text")
		return FallbackEmptyText
	}
	inputs, err := g.encoder.Encode(question, passage)
	if err != nil {
		g.logger.Debug("no model inputs", zap.Error(err))
		metrics.RecordGeneration("no_inputs")
		return FallbackNoInputs
	}
	if inputs.TruncatedWords > 0 {
		g.logger.Debug("passage truncated", zap.Int("kept", inputs.PassageTokens), zap.Int("dropped", inputs.TruncatedWords))
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	start := time.Now()
	out, err := g.backend.Generate(ctx, Prompt{Question: inputs.Question, Passage: inputs.Passage})
	metrics.GenerationDuration.WithLabelValues(g.backend.Name()).Observe(time.Since(start).Seconds())
	if err != nil {
		level := zap.WarnLevel
		if errors.Is(err, context.Canceled) {
			level = zap.DebugLevel
		}
		g.logger.Log(level, "generation failed", zap.String("backend", g.backend.Name()), zap.Error(err))
		metrics.RecordGeneration("error")
		return FallbackNoInputs
	}
	out = strings.TrimSpace(out)
	if out == "" {
		metrics.RecordGeneration("no_inputs")
		return FallbackNoInputs
	}
	metrics.RecordGeneration("generated")
	return out
}
