// Package source finds documents relevant to a date: remote search results,
// news feed entries and files from the local archive.
package source

import (
	"context"

	"github.com/hyperjump/jidai/internal/models"
)

// Locator finds document references for a date and optional free-text query.
// Locate never fails: upstream problems are logged and yield an empty slice.
type Locator interface {
	Locate(ctx context.Context, date models.DateQuery, query string) []models.DocumentReference
	Name() string
}
