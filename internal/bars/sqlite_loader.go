package bars

import (
	"context"
	"fmt"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"beercompass.app/barsdb"
	"beercompass.app/internal/appconf"
	"beercompass.app/internal/logging"
	"beercompass.app/internal/models"
)

// sqliteLoader reads every bar out of a barsdb file produced by osmfetch.
type sqliteLoader struct {
	dbPath string
	env    appconf.Environment
}

func (l *sqliteLoader) Load(ctx context.Context) ([]models.GeoPoint, models.DatasetMeta, error) {
	client, err := barsdb.NewClient(barsdb.NewConfig(l.dbPath, l.env, false))
	if err != nil {
		return nil, models.DatasetMeta{}, fmt.Errorf("error opening bars database: %w", err)
	}
	defer logging.SafeCloseWithLogging(client, logging.FromContext(ctx), "bars_database")

	points, err := client.AllBars(ctx)
	if err != nil {
		return nil, models.DatasetMeta{}, err
	}

	meta := models.DatasetMeta{
		Total:   len(points),
		Source:  l.dbPath,
		License: barsdb.DatasetLicense,
	}
	return points, meta, nil
}
