// Package extract retrieves plain text for document references: web articles, PDFs
// and the other document formats kept in the local archive.
package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/hyperjump/jidai/internal/models"
	"github.com/hyperjump/jidai/pkg/utils"
	"go.uber.org/zap"
)

// Summary bounds for documents that carry no summary of their own.
const (
	summarySentences = 3
	summaryMaxChars  = 600
)

// Extractor extracts text from document references. It performs network and filesystem
// I/O on every call; nothing is cached between calls.
type Extractor struct {
	fetcher *Fetcher
	logger  *zap.Logger
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) ExtractorOption {
	return func(e *Extractor) { e.logger = l }
}

// NewExtractor returns an Extractor downloading remote documents with fetcher.
// A nil fetcher restricts the extractor to in-memory and local documents.
func NewExtractor(fetcher *Fetcher, opts ...ExtractorOption) *Extractor {
	e := &Extractor{fetcher: fetcher, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract reads the file at path and returns its text content.
// Returns an error if the file cannot be read or parsed.
func (e *Extractor) Extract(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if usesCat(ext) {
		return extractWithCat(path)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	return e.ExtractBytes(content, ext)
}

// ExtractBytes extracts text from content based on the given extension.
// ext should include the leading dot (e.g. ".pdf").
func (e *Extractor) ExtractBytes(content []byte, ext string) (string, error) {
	switch ext {
	case ".pdf":
		return extractPDF(content)
	case ".docx":
		return extractDOCX(content)
	case ".xlsx":
		return extractExcel(content)
	case ".odt", ".rtf":
		return extractCatBytes(content, ext)
	default:
		return extractPlain(content), nil
	}
}

// ExtractReference retrieves the document behind ref. Web pages that yield no usable text
// produce an empty FullText rather than an error. Any I/O or parse failure is returned as a
// *models.ExtractionError.
func (e *Extractor) ExtractReference(ctx context.Context, ref models.DocumentReference, date models.DateQuery) (*models.ExtractedDocument, error) {
	e.logger.Debug("extracting document", zap.String("kind", string(ref.Kind)), zap.String("location", ref.Location()))
	switch ref.Kind {
	case models.KindWebArticle:
		return e.extractWebArticle(ctx, ref, date)
	case models.KindPDF, models.KindFile:
		return e.extractDocument(ctx, ref, date)
	default:
		return nil, models.NewExtractionError(ref.Location(), "dispatch", fmt.Errorf("unsupported reference kind %q", ref.Kind))
	}
}

func (e *Extractor) extractWebArticle(ctx context.Context, ref models.DocumentReference, date models.DateQuery) (*models.ExtractedDocument, error) {
	if e.fetcher == nil {
		return nil, models.NewExtractionError(ref.URL, "fetch", errNoFetcher)
	}
	page, err := e.fetcher.Get(ctx, ref.URL)
	if err != nil {
		return nil, models.NewExtractionError(ref.URL, "fetch", err)
	}
	if page.IsPDF() {
		// Servers sometimes hand out PDFs behind extension-less links.
		pdfRef := ref
		pdfRef.Kind = models.KindPDF
		pdfRef.Data = page.Body
		return e.documentFromBytes(pdfRef, page.Body, ".pdf", date)
	}
	article := ParseArticle(page.Body, page.URL)
	title := article.Title
	if title == "" {
		title = ref.Title
	}
	summary := article.Summary
	if summary == "" {
		summary = utils.LeadSentences(article.Text, summarySentences, summaryMaxChars)
	}
	return &models.ExtractedDocument{
		Reference:  ref,
		Title:      title,
		Summary:    summary,
		FullText:   article.Text,
		SourceDate: date,
	}, nil
}

func (e *Extractor) extractDocument(ctx context.Context, ref models.DocumentReference, date models.DateQuery) (*models.ExtractedDocument, error) {
	ext := ref.Ext()
	if ref.Kind == models.KindPDF {
		ext = ".pdf"
	}
	switch {
	case ref.Data != nil:
		return e.documentFromBytes(ref, ref.Data, ext, date)
	case ref.Path != "":
		text, err := e.Extract(ref.Path)
		if err != nil {
			return nil, models.NewExtractionError(ref.Path, "extract "+strings.TrimPrefix(ext, "."), err)
		}
		return documentFromText(ref, text, date), nil
	case ref.URL != "":
		if e.fetcher == nil {
			return nil, models.NewExtractionError(ref.URL, "fetch", errNoFetcher)
		}
		page, err := e.fetcher.Get(ctx, ref.URL)
		if err != nil {
			return nil, models.NewExtractionError(ref.URL, "fetch", err)
		}
		return e.documentFromBytes(ref, page.Body, ext, date)
	default:
		return nil, models.NewExtractionError(ref.Location(), "open", errEmptyReference)
	}
}

func (e *Extractor) documentFromBytes(ref models.DocumentReference, data []byte, ext string, date models.DateQuery) (*models.ExtractedDocument, error) {
	text, err := e.ExtractBytes(data, ext)
	if err != nil {
		return nil, models.NewExtractionError(ref.Location(), "extract "+strings.TrimPrefix(ext, "."), err)
	}
	return documentFromText(ref, text, date), nil
}

func documentFromText(ref models.DocumentReference, text string, date models.DateQuery) *models.ExtractedDocument {
	title := ref.Title
	if title == "" {
		title = ref.Name
	}
	return &models.ExtractedDocument{
		Reference:  ref,
		Title:      title,
		Summary:    utils.LeadSentences(text, summarySentences, summaryMaxChars),
		FullText:   text,
		SourceDate: date,
	}
}

// extractPlain returns content as string, replacing invalid UTF-8 sequences
// with the replacement character.
func extractPlain(content []byte) string {
	if !utf8.Valid(content) {
		return strings.ToValidUTF8(string(content), "�")
	}
	return string(content)
}
