package source

import (
	"context"

	"go.uber.org/zap"

	"github.com/hyperjump/jidai/internal/models"
	"github.com/hyperjump/jidai/pkg/utils"
)

// Multi runs locators in order and merges their results.
type Multi struct {
	locators []Locator
	limit    int
	logger   *zap.Logger
}

// NewMulti returns a Locator over locators. limit caps the merged result (0 = no cap).
func NewMulti(limit int, logger *zap.Logger, locators ...Locator) *Multi {
	logger = utils.OrNop(logger)
	return &Multi{locators: locators, limit: limit, logger: logger}
}

// Name returns "multi".
func (m *Multi) Name() string { return "multi" }

// Locate concatenates results in locator order, dropping repeated locations.
func (m *Multi) Locate(ctx context.Context, date models.DateQuery, query string) []models.DocumentReference {
	seen := make(map[string]struct{})
	var out []models.DocumentReference
	for _, l := range m.locators {
		if ctx.Err() != nil {
			break
		}
		refs := l.Locate(ctx, date, query)
		m.logger.Debug("located documents", zap.String("locator", l.Name()), zap.Int("count", len(refs)))
		for _, ref := range refs {
			key := ref.Location()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, ref)
			if m.limit > 0 && len(out) >= m.limit {
				return out
			}
		}
	}
	return out
}
