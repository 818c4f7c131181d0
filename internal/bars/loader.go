// Package bars holds the point-of-interest catalog the compass picks
// targets from, together with the loaders that fill it from a dataset
// source.
package bars

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"beercompass.app/internal/appconf"
	"beercompass.app/internal/logging"
	"beercompass.app/internal/models"
)

// Loader fetches and parses a bar dataset from a configured source.
type Loader interface {
	Load(ctx context.Context) ([]models.GeoPoint, models.DatasetMeta, error)
}

// NewLoader selects a Loader implementation from the configured dataset
// format. An empty format defaults to the JSON document loader.
func NewLoader(config appconf.Config) (Loader, error) {
	switch config.DataFormat {
	case "", "json":
		return &jsonLoader{source: config.DataSource}, nil
	case "csv":
		return &csvLoader{source: config.DataSource}, nil
	case "sqlite":
		return &sqliteLoader{dbPath: config.DataSource, env: config.Env}, nil
	default:
		return nil, fmt.Errorf("unknown dataset format %q", config.DataFormat)
	}
}

// isLocalFile reports whether a dataset source names a file on disk rather
// than an HTTP(S) URL.
func isLocalFile(source string) bool {
	return !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://")
}

// rawDatasetData reads dataset bytes from either a URL or a local file
func rawDatasetData(ctx context.Context, source string, logger *slog.Logger) ([]byte, error) {
	if isLocalFile(source) {
		b, err := os.ReadFile(source)
		if err != nil {
			return nil, fmt.Errorf("error reading local dataset file: %w", err)
		}
		return b, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("error building dataset request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error downloading dataset: %w", err)
	}
	defer logging.SafeCloseWithLogging(resp.Body, logger, "dataset_download")

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("dataset request returned status %d", resp.StatusCode)
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading dataset response: %w", err)
	}
	return b, nil
}
