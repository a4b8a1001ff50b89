// Package archive keeps an in-memory, searchable catalogue of documents from the
// configured archive directories.
package archive

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"go.uber.org/zap"

	"github.com/hyperjump/jidai/internal/metrics"
	"github.com/hyperjump/jidai/internal/models"
	"github.com/hyperjump/jidai/internal/watcher"
	"github.com/hyperjump/jidai/pkg/utils"
)

var (
	// ErrOutsideArchive is returned when a reference resolves outside every archive root.
	ErrOutsideArchive = errors.New("path is outside the archive")
	// ErrNotArchived is returned when a reference names no archived file.
	ErrNotArchived = errors.New("document not found in archive")
)

// TextExtractor reads the text of a local file.
type TextExtractor interface {
	Extract(path string) (string, error)
}

type entry struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// Archive holds extracted text for archived files and a bleve index over it.
// It implements watcher.Handler.
type Archive struct {
	roots     []string
	extractor TextExtractor
	logger    *zap.Logger

	mu    sync.RWMutex
	texts map[string]string
	index bleve.Index
}

// New returns an empty Archive over roots backed by a memory-only bleve index.
func New(roots []string, extractor TextExtractor, logger *zap.Logger) (*Archive, error) {
	logger = utils.OrNop(logger)
	im := bleve.NewIndexMapping()
	doc := bleve.NewDocumentMapping()
	text := bleve.NewTextFieldMapping()
	text.Analyzer = standard.Name
	doc.AddFieldMappingsAt("content", text)
	doc.AddFieldMappingsAt("name", text)
	im.DefaultMapping = doc

	index, err := bleve.NewMemOnly(im)
	if err != nil {
		return nil, fmt.Errorf("create archive index: %w", err)
	}
	cleaned := make([]string, len(roots))
	for i, r := range roots {
		cleaned[i] = filepath.Clean(r)
	}
	return &Archive{
		roots:     cleaned,
		extractor: extractor,
		logger:    logger,
		texts:     make(map[string]string),
		index:     index,
	}, nil
}

// Upsert extracts path and (re)indexes it. Extraction failures drop the file from the archive.
func (a *Archive) Upsert(path string) {
	path = filepath.Clean(path)
	text, err := a.extractor.Extract(path)
	if err != nil {
		a.logger.Warn("archive extraction failed", zap.String("path", path), zap.Error(err))
		metrics.RecordExtractionFailure("archive")
		a.Remove(path)
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.index.Index(path, entry{Name: filepath.Base(path), Content: text}); err != nil {
		a.logger.Warn("archive index failed", zap.String("path", path), zap.Error(err))
		return
	}
	a.texts[path] = text
	metrics.ArchivedDocuments.Set(float64(len(a.texts)))
	a.logger.Debug("archived document", zap.String("path", path), zap.Int("chars", len(text)))
}

// Remove drops path from the archive.
func (a *Archive) Remove(path string) {
	path = filepath.Clean(path)
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.texts[path]; !ok {
		return
	}
	delete(a.texts, path)
	if err := a.index.Delete(path); err != nil {
		a.logger.Debug("archive delete failed", zap.String("path", path), zap.Error(err))
	}
	metrics.ArchivedDocuments.Set(float64(len(a.texts)))
}

// Len returns the number of archived documents.
func (a *Archive) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.texts)
}

// Find returns references to archived documents that mention date. A non-empty query
// further narrows the set to documents matching it. Results are ordered by path.
func (a *Archive) Find(date models.DateQuery, query string) []models.DocumentReference {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var allowed map[string]bool
	if query != "" {
		ids, err := a.search(query)
		if err != nil {
			a.logger.Warn("archive search failed", zap.String("query", query), zap.Error(err))
			return nil
		}
		allowed = ids
	}

	var paths []string
	for path, text := range a.texts {
		if allowed != nil && !allowed[path] {
			continue
		}
		if date.MentionedIn(text) {
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)
	refs := make([]models.DocumentReference, len(paths))
	for i, p := range paths {
		refs[i] = models.NewLocalFile(p)
		refs[i].Source = models.SourceArchive
	}
	return refs
}

// search runs a match query and returns the matching paths. Callers hold a.mu.
func (a *Archive) search(query string) (map[string]bool, error) {
	req := bleve.NewSearchRequest(bleve.NewMatchQuery(query))
	req.Size = len(a.texts) + 1
	res, err := a.index.Search(req)
	if err != nil {
		return nil, err
	}
	ids := make(map[string]bool, len(res.Hits))
	for _, hit := range res.Hits {
		ids[hit.ID] = true
	}
	return ids, nil
}

// Resolve maps a form-supplied file reference to an archived file. Relative names are
// looked up under each root in order. Paths escaping the roots are rejected.
func (a *Archive) Resolve(name string) (models.DocumentReference, error) {
	if name == "" {
		return models.DocumentReference{}, ErrNotArchived
	}
	var candidates []string
	if filepath.IsAbs(name) {
		candidates = []string{filepath.Clean(name)}
	} else {
		for _, root := range a.roots {
			candidates = append(candidates, filepath.Join(root, name))
		}
	}
	outside := true
	for _, path := range candidates {
		if !a.within(path) {
			continue
		}
		outside = false
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			ref := models.NewLocalFile(path)
			ref.Source = models.SourceArchive
			return ref, nil
		}
	}
	if outside {
		return models.DocumentReference{}, fmt.Errorf("%s: %w", name, ErrOutsideArchive)
	}
	return models.DocumentReference{}, fmt.Errorf("%s: %w", name, ErrNotArchived)
}

func (a *Archive) within(path string) bool {
	for _, root := range a.roots {
		if watcher.Within(root, path) {
			return true
		}
	}
	return false
}

// Close releases the index.
func (a *Archive) Close() error {
	return a.index.Close()
}
