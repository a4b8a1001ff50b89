package source

import (
	"context"

	"github.com/hyperjump/jidai/internal/metrics"
	"github.com/hyperjump/jidai/internal/models"
)

// ArchiveFinder searches archived documents by date.
type ArchiveFinder interface {
	Find(date models.DateQuery, query string) []models.DocumentReference
}

// ArchiveLocator adapts the local archive to the Locator interface.
type ArchiveLocator struct {
	finder ArchiveFinder
}

// NewArchiveLocator returns a locator backed by finder.
func NewArchiveLocator(finder ArchiveFinder) *ArchiveLocator {
	return &ArchiveLocator{finder: finder}
}

// Name returns "archive".
func (l *ArchiveLocator) Name() string { return "archive" }

// Locate returns archived documents mentioning date.
func (l *ArchiveLocator) Locate(_ context.Context, date models.DateQuery, query string) []models.DocumentReference {
	refs := l.finder.Find(date, query)
	metrics.LocatedDocuments.WithLabelValues(l.Name()).Add(float64(len(refs)))
	return refs
}
