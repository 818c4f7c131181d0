package bars

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"math/rand"
	"strconv"

	"beercompass.app/internal/logging"
	"beercompass.app/internal/models"
)

// csvLoader reads the tabular dataset shape: a name,lat,lon header row
// followed by one record per line, quoted fields escaping embedded quotes
// by doubling them. Rows with missing or unparseable coordinates are
// skipped rather than failing the whole load.
type csvLoader struct {
	source string
}

func (l *csvLoader) Load(ctx context.Context) ([]models.GeoPoint, models.DatasetMeta, error) {
	b, err := rawDatasetData(ctx, l.source, logging.FromContext(ctx))
	if err != nil {
		return nil, models.DatasetMeta{}, err
	}

	reader := csv.NewReader(bytes.NewReader(b))
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, models.DatasetMeta{}, fmt.Errorf("error parsing dataset table: %w", err)
	}
	if len(records) == 0 {
		return nil, models.DatasetMeta{}, fmt.Errorf("dataset table is empty")
	}

	// The first row is always the header.
	var points []models.GeoPoint
	for _, record := range records[1:] {
		if len(record) < 3 {
			continue
		}

		lat, latErr := strconv.ParseFloat(record[1], 64)
		lon, lonErr := strconv.ParseFloat(record[2], 64)
		if latErr != nil || lonErr != nil {
			continue
		}

		// Tabular records carry no id, category or tags.
		points = append(points, models.NewGeoPoint(
			rand.Int63(), record[0], models.CategoryBar, lat, lon, nil))
	}

	meta := models.DatasetMeta{
		Total:  len(points),
		Source: l.source,
	}
	return points, meta, nil
}
