package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/time/rate"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"beercompass.app/barsdb"
	"beercompass.app/internal/appconf"
	"beercompass.app/internal/models"
	"beercompass.app/internal/overpass"
)

// datasetSource is stamped into the exported document's provenance block.
const datasetSource = "OpenStreetMap via Overpass API"

// config holds the osmfetch command's flag values.
type config struct {
	region      string
	bbox        string
	dbPath      string
	outputPath  string
	overpassURL string
	timeout     time.Duration
	delay       time.Duration
	combine     bool
	env         string
	verbose     bool
}

func main() {
	var cfg config

	flag.StringVar(&cfg.region, "region", "cities", "Region to download: a city preset (sf, nyc, london, berlin, tokyo, sydney, paris), cities, or world")
	flag.StringVar(&cfg.bbox, "bbox", "", "Explicit south,west,north,east bounding box (overrides -region)")
	flag.StringVar(&cfg.dbPath, "db", "data/bars.db", "SQLite cache holding downloaded regions")
	flag.StringVar(&cfg.outputPath, "output", "data/bars_data.json", "Dataset document to write")
	flag.StringVar(&cfg.overpassURL, "overpass-url", overpass.DefaultBaseURL, "Overpass API interpreter endpoint")
	flag.DurationVar(&cfg.timeout, "timeout", overpass.DefaultTimeout, "Per-request timeout, also sent as the query's server-side budget")
	flag.DurationVar(&cfg.delay, "delay", 3*time.Second, "Politeness delay between region downloads")
	flag.BoolVar(&cfg.combine, "combine", false, "Skip downloading and export the existing cache to the dataset document")
	flag.StringVar(&cfg.env, "env", "development", "Environment (development|test|production)")
	flag.BoolVar(&cfg.verbose, "verbose", false, "Verbose output")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	if err := run(context.Background(), cfg, logger); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config, logger *slog.Logger) error {
	db, err := barsdb.NewClient(barsdb.NewConfig(cfg.dbPath, appconf.EnvFlagToEnvironment(cfg.env), cfg.verbose))
	if err != nil {
		return fmt.Errorf("error opening bars database: %w", err)
	}
	defer db.Close() // nolint:errcheck

	if !cfg.combine {
		if err := download(ctx, cfg, db, logger); err != nil {
			return err
		}
	}

	return export(ctx, cfg, db, logger)
}

// download fetches every unfinished region into the cache. A region that
// fails stays unmarked, so the next run picks it up again.
func download(ctx context.Context, cfg config, db *barsdb.Client, logger *slog.Logger) error {
	regions, err := resolveRegions(cfg.region, cfg.bbox)
	if err != nil {
		return err
	}

	client := overpass.NewClient(overpass.Config{
		BaseURL: cfg.overpassURL,
		Timeout: cfg.timeout,
	}, logger)

	// One request per delay keeps the load on the public servers polite.
	limiter := rate.NewLimiter(rate.Every(cfg.delay), 1)

	logger.Info("starting download", "regions", len(regions), "timeout", cfg.timeout)

	var downloaded, skipped, failed int
	for i, reg := range regions {
		done, err := db.RegionDownloaded(ctx, reg.Name)
		if err != nil {
			return err
		}
		if done {
			skipped++
			if cfg.verbose {
				logger.Info("skipping region", "region", reg.Name, "progress", fmt.Sprintf("%d/%d", i+1, len(regions)))
			}
			continue
		}

		if err := limiter.Wait(ctx); err != nil {
			return err
		}

		points, err := client.FetchBars(ctx, reg.BBox)
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			// One bad block must not sink a world sweep.
			failed++
			logger.Error("region download failed", "region", reg.Name, "error", err)
			continue
		}

		if err := db.UpsertBars(ctx, reg.Name, points); err != nil {
			return err
		}
		if err := db.MarkRegionDownloaded(ctx, reg.Name, len(points)); err != nil {
			return err
		}

		downloaded++
		logger.Info("region downloaded", "region", reg.Name, "bars", len(points), "progress", fmt.Sprintf("%d/%d", i+1, len(regions)))
	}

	logger.Info("download finished", "downloaded", downloaded, "skipped", skipped, "failed", failed)
	return nil
}

// export writes everything in the cache as one dataset document, the
// shape the API server's json loader reads.
func export(ctx context.Context, cfg config, db *barsdb.Client, logger *slog.Logger) error {
	doc, err := db.ExportDocument(ctx, datasetSource, datasetRegion(cfg))
	if err != nil {
		return fmt.Errorf("error exporting dataset: %w", err)
	}

	if cfg.verbose {
		regions, err := db.DownloadedRegions(ctx)
		if err != nil {
			return err
		}
		counts, err := db.TableCounts()
		if err != nil {
			return err
		}
		logger.Info("cache state", "regions", len(regions), "tables", fmt.Sprintf("%v", counts))
	}

	if err := writeDocument(doc, cfg.outputPath); err != nil {
		return err
	}

	logger.Info("dataset written", "path", cfg.outputPath, "bars", doc.Meta.Total)
	return nil
}

// datasetRegion is the region label for the document's provenance block.
func datasetRegion(cfg config) string {
	if cfg.bbox != "" {
		return "custom"
	}
	if cfg.region == "" {
		return "cities"
	}
	return cfg.region
}

func writeDocument(doc models.DatasetDocument, path string) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("error encoding dataset: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("error creating output directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("error writing dataset: %w", err)
	}
	return nil
}
