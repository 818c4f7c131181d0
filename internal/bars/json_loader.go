package bars

import (
	"context"
	"encoding/json"
	"fmt"

	"beercompass.app/internal/logging"
	"beercompass.app/internal/models"
)

// jsonLoader reads the meta+bars dataset document produced by osmfetch,
// from a local path or an HTTP(S) URL.
type jsonLoader struct {
	source string
}

func (l *jsonLoader) Load(ctx context.Context) ([]models.GeoPoint, models.DatasetMeta, error) {
	b, err := rawDatasetData(ctx, l.source, logging.FromContext(ctx))
	if err != nil {
		return nil, models.DatasetMeta{}, err
	}

	var doc models.DatasetDocument
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, models.DatasetMeta{}, fmt.Errorf("error parsing dataset document: %w", err)
	}

	// Re-run the constructor so records with missing names, unknown
	// categories or nil tag maps are normalized the same way regardless
	// of loader.
	points := make([]models.GeoPoint, 0, len(doc.Bars))
	for _, p := range doc.Bars {
		category := models.ParseCategory(string(p.Category))
		points = append(points, models.NewGeoPoint(p.ID, p.Name, category, p.Lat, p.Lon, p.Attributes))
	}

	return points, doc.Meta, nil
}
