// Package pipeline wires date-scoped document location, text extraction and context
// generation into interpreted events.
package pipeline

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hyperjump/jidai/internal/generate"
	"github.com/hyperjump/jidai/internal/metrics"
	"github.com/hyperjump/jidai/internal/models"
	"github.com/hyperjump/jidai/internal/source"
)

const defaultConcurrency = 4

// DocumentExtractor retrieves the text behind a reference.
type DocumentExtractor interface {
	ExtractReference(ctx context.Context, ref models.DocumentReference, date models.DateQuery) (*models.ExtractedDocument, error)
}

// Interpreter produces InterpretedEvents for a date.
type Interpreter struct {
	locator      source.Locator
	extractor    DocumentExtractor
	generator    generate.Interpreter
	maxDocuments int
	concurrency  int
	logger       *zap.Logger
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithMaxDocuments caps the number of documents processed per request (0 = no cap).
func WithMaxDocuments(n int) Option {
	return func(p *Interpreter) { p.maxDocuments = n }
}

// WithConcurrency sets how many documents are processed at once.
func WithConcurrency(n int) Option {
	return func(p *Interpreter) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Interpreter) { p.logger = l }
}

// New returns an Interpreter. locator may be nil when only InterpretDocuments is used.
func New(locator source.Locator, extractor DocumentExtractor, generator generate.Interpreter, opts ...Option) *Interpreter {
	p := &Interpreter{
		locator:     locator,
		extractor:   extractor,
		generator:   generator,
		concurrency: defaultConcurrency,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// InterpretNews locates articles for date and query and explains each one.
// Documents that fail to extract are skipped.
func (p *Interpreter) InterpretNews(ctx context.Context, date models.DateQuery, query string) []models.InterpretedEvent {
	if p.locator == nil {
		return []models.InterpretedEvent{}
	}
	refs := p.locator.Locate(ctx, date, query)
	p.logger.Info("interpreting news", zap.String("date", date.String()), zap.String("query", query), zap.Int("documents", len(refs)))
	return p.run(ctx, "news", date, refs, generate.QuestionArticle, nil)
}

// InterpretDocuments explains the given documents. Documents whose text does not
// mention date are excluded; documents that fail to extract are skipped.
func (p *Interpreter) InterpretDocuments(ctx context.Context, date models.DateQuery, refs []models.DocumentReference) []models.InterpretedEvent {
	p.logger.Info("interpreting documents", zap.String("date", date.String()), zap.Int("documents", len(refs)))
	return p.run(ctx, "documents", date, refs, generate.QuestionEvent, func(doc *models.ExtractedDocument) bool {
		return date.MentionedIn(doc.FullText)
	})
}

func (p *Interpreter) run(ctx context.Context, flow string, date models.DateQuery, refs []models.DocumentReference, question string, keep func(*models.ExtractedDocument) bool) []models.InterpretedEvent {
	if p.maxDocuments > 0 && len(refs) > p.maxDocuments {
		p.logger.Debug("truncating documents", zap.Int("found", len(refs)), zap.Int("max", p.maxDocuments))
		refs = refs[:p.maxDocuments]
	}

	slots := make([]*models.InterpretedEvent, len(refs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, ref := range refs {
		g.Go(func() error {
			slots[i] = p.interpretOne(gctx, date, ref, question, keep)
			return nil
		})
	}
	_ = g.Wait()

	events := make([]models.InterpretedEvent, 0, len(refs))
	for _, ev := range slots {
		if ev != nil {
			events = append(events, *ev)
		}
	}
	metrics.InterpretedEvents.WithLabelValues(flow).Add(float64(len(events)))
	return events
}

func (p *Interpreter) interpretOne(ctx context.Context, date models.DateQuery, ref models.DocumentReference, question string, keep func(*models.ExtractedDocument) bool) *models.InterpretedEvent {
	doc, err := p.extractor.ExtractReference(ctx, ref, date)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		p.logger.Warn("skipping document", zap.String("location", ref.Location()), zap.Error(err))
		metrics.RecordExtractionFailure(string(ref.Kind))
		return nil
	}
	if keep != nil && !keep(doc) {
		p.logger.Debug("document does not mention date", zap.String("location", ref.Location()), zap.String("date", date.String()))
		return nil
	}
	return &models.InterpretedEvent{
		ID:                uuid.NewString(),
		Date:              date.String(),
		Title:             doc.Title,
		Summary:           doc.Summary,
		FullText:          doc.FullText,
		HistoricalContext: p.generator.Interpret(ctx, question, doc.FullText),
		SourceURL:         ref.URL,
		Source:            ref.Source,
	}
}
