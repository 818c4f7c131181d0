// Package settings persists the user-adjustable compass preferences:
// search radius and category filter. A Store holds one small JSON
// document in a key-value backend; the direction engine itself never
// talks to a store, callers load settings and pass the values through.
package settings

import (
	"context"

	"beercompass.app/internal/models"
)

// DefaultRadiusMeters is the out-of-the-box search range.
const DefaultRadiusMeters = 1000.0

// Settings is the persisted preference document. An empty category list
// means "all categories"; a radius of 0 means unlimited.
type Settings struct {
	RadiusMeters float64           `json:"radiusMeters"`
	Categories   []models.Category `json:"categories,omitempty"`
}

func DefaultSettings() Settings {
	return Settings{RadiusMeters: DefaultRadiusMeters}
}

// Normalize returns a sanitized copy of possibly hand-edited or stale
// stored values: unknown categories are dropped, duplicates collapse to
// their first occurrence, and negative radii become 0 (unlimited, the
// same meaning the query layer gives non-positive radii).
func (s Settings) Normalize() Settings {
	out := Settings{RadiusMeters: s.RadiusMeters}
	if out.RadiusMeters < 0 {
		out.RadiusMeters = 0
	}

	known := make(map[models.Category]bool, len(models.AllCategories()))
	for _, c := range models.AllCategories() {
		known[c] = true
	}

	seen := make(map[models.Category]bool, len(s.Categories))
	for _, c := range s.Categories {
		if !known[c] || seen[c] {
			continue
		}
		seen[c] = true
		out.Categories = append(out.Categories, c)
	}

	return out
}

// Store is a key-value backend holding the settings document. Load on an
// empty backend returns DefaultSettings rather than an error.
type Store interface {
	Load(ctx context.Context) (Settings, error)
	Save(ctx context.Context, s Settings) error
}
