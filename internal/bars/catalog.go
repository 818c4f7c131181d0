package bars

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"beercompass.app/internal/appconf"
	"beercompass.app/internal/geo"
	"beercompass.app/internal/logging"
	"beercompass.app/internal/models"
)

// Catalog is the in-memory bar database. The point set is immutable once
// loaded; queries never mutate it, so many readers can scan concurrently.
type Catalog struct {
	loader Loader
	logger *slog.Logger

	group singleflight.Group

	mu     sync.RWMutex
	points []models.GeoPoint
	meta   models.DatasetMeta
	loaded bool
}

// NewCatalog builds an empty Catalog over the given Loader. Call Load
// before querying.
func NewCatalog(loader Loader, logger *slog.Logger) *Catalog {
	return &Catalog{
		loader: loader,
		logger: logger,
	}
}

// InitCatalog builds a Catalog with the Loader selected by config.
func InitCatalog(config appconf.Config, logger *slog.Logger) (*Catalog, error) {
	loader, err := NewLoader(config)
	if err != nil {
		return nil, err
	}
	return NewCatalog(loader, logger), nil
}

// Load fetches and parses the dataset through the configured Loader.
// Concurrent callers share a single fetch; once a load has succeeded,
// later calls return immediately without touching the source. A failed
// load reports models.ErrDataUnavailable with the cause attached and may
// be retried.
func (c *Catalog) Load(ctx context.Context) error {
	c.mu.RLock()
	loaded := c.loaded
	c.mu.RUnlock()
	if loaded {
		return nil
	}

	_, err, _ := c.group.Do("load", func() (any, error) {
		// A flight that finished while we were queued may already have
		// populated the catalog.
		c.mu.RLock()
		alreadyLoaded := c.loaded
		c.mu.RUnlock()
		if alreadyLoaded {
			return nil, nil
		}

		start := time.Now()
		points, meta, err := c.loader.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", models.ErrDataUnavailable, err)
		}

		c.mu.Lock()
		c.points = points
		c.meta = meta
		c.loaded = true
		c.mu.Unlock()

		logging.LogOperation(c.logger, "dataset_loaded",
			slog.Int("bars_count", len(points)),
			slog.String("source", meta.Source),
			slog.Duration("duration", time.Since(start)))

		return nil, nil
	})
	return err
}

// Loaded reports whether a dataset has been successfully loaded.
func (c *Catalog) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// Meta returns the provenance block of the loaded dataset.
func (c *Catalog) Meta() models.DatasetMeta {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.meta
}

// Count returns the number of loaded points.
func (c *Catalog) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.points)
}

// Points returns the loaded point set. Callers must treat it as
// read-only; the slice is shared, not copied.
func (c *Catalog) Points() []models.GeoPoint {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.points
}

// Query returns every point matching the category filter within
// radiusMeters of the observer, with distance and initial bearing
// computed, sorted by ascending distance. An empty category list matches
// all categories; a radius of zero or below means unlimited. Equidistant
// points keep their dataset order.
func (c *Catalog) Query(lat, lon, radiusMeters float64, categories []models.Category) []models.TargetBar {
	c.mu.RLock()
	defer c.mu.RUnlock()

	wanted := make(map[models.Category]bool, len(categories))
	for _, category := range categories {
		wanted[category] = true
	}

	var results []models.TargetBar
	for _, p := range c.points {
		if len(wanted) > 0 && !wanted[p.Category] {
			continue
		}

		distance := geo.Haversine(lat, lon, p.Lat, p.Lon)
		if radiusMeters > 0 && distance > radiusMeters {
			continue
		}

		bearing := geo.BearingBetweenPoints(lat, lon, p.Lat, p.Lon)
		results = append(results, models.NewTargetBar(p, distance, bearing))
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].DistanceMeters < results[j].DistanceMeters
	})

	return results
}

// ByID looks up a single point by its dataset id.
func (c *Catalog) ByID(id int64) (models.GeoPoint, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, p := range c.points {
		if p.ID == id {
			return p, true
		}
	}
	return models.GeoPoint{}, false
}

// SearchByName returns points whose name contains the term,
// case-insensitively, in dataset order, truncated at limit. A limit of
// zero or below means no truncation.
func (c *Catalog) SearchByName(term string, limit int) []models.GeoPoint {
	needle := strings.ToLower(strings.TrimSpace(term))
	if needle == "" {
		return nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	var matches []models.GeoPoint
	for _, p := range c.points {
		if strings.Contains(strings.ToLower(p.Name), needle) {
			matches = append(matches, p)
			if limit > 0 && len(matches) >= limit {
				break
			}
		}
	}
	return matches
}
