package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beercompass.app/barsdb"
	"beercompass.app/internal/appconf"
	"beercompass.app/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestDB(t *testing.T) *barsdb.Client {
	t.Helper()

	db, err := barsdb.NewClient(barsdb.NewConfig(":memory:", appconf.Test, false))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// newOverpassStub serves a fixed two-element response and counts requests.
func newOverpassStub(t *testing.T) (*httptest.Server, *int) {
	t.Helper()

	requests := new(int)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*requests++
		fmt.Fprint(w, `{
			"elements": [
				{"type": "node", "id": 1, "lat": 37.77, "lon": -122.422,
				 "tags": {"amenity": "bar", "name": "Zeitgeist"}},
				{"type": "way", "id": 2, "center": {"lat": 37.7719, "lon": -122.4312},
				 "tags": {"amenity": "pub", "name": "Toronado"}}
			]
		}`)
	}))
	t.Cleanup(server.Close)
	return server, requests
}

func TestDownloadStoresAndResumesRegions(t *testing.T) {
	server, requests := newOverpassStub(t)
	db := newTestDB(t)

	cfg := config{
		region:      "sf",
		overpassURL: server.URL,
		timeout:     5 * time.Second,
	}

	require.NoError(t, download(context.Background(), cfg, db, testLogger()))
	assert.Equal(t, 1, *requests)

	downloaded, err := db.RegionDownloaded(context.Background(), "sf")
	require.NoError(t, err)
	assert.True(t, downloaded)

	count, err := db.CountBars(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	// A second pass finds the region cached and never touches the API
	require.NoError(t, download(context.Background(), cfg, db, testLogger()))
	assert.Equal(t, 1, *requests, "a downloaded region should be skipped on resume")
}

func TestDownloadLeavesFailedRegionsUnmarked(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)
	db := newTestDB(t)

	cfg := config{
		region:      "sf",
		overpassURL: server.URL,
		timeout:     5 * time.Second,
	}

	// The sweep carries on past a failed region rather than aborting
	require.NoError(t, download(context.Background(), cfg, db, testLogger()))

	downloaded, err := db.RegionDownloaded(context.Background(), "sf")
	require.NoError(t, err)
	assert.False(t, downloaded, "a failed region must stay eligible for the next run")

	count, err := db.CountBars(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestRunDownloadsAndWritesDataset(t *testing.T) {
	server, requests := newOverpassStub(t)
	outputPath := filepath.Join(t.TempDir(), "data", "bars_data.json")

	cfg := config{
		region:      "sf",
		dbPath:      ":memory:",
		outputPath:  outputPath,
		overpassURL: server.URL,
		timeout:     5 * time.Second,
		env:         "test",
	}

	require.NoError(t, run(context.Background(), cfg, testLogger()))
	assert.Equal(t, 1, *requests)

	data, err := os.ReadFile(outputPath)
	require.NoError(t, err)

	var doc models.DatasetDocument
	require.NoError(t, json.Unmarshal(data, &doc))

	assert.Equal(t, 2, doc.Meta.Total)
	assert.Equal(t, datasetSource, doc.Meta.Source)
	assert.Equal(t, "ODbL (OpenStreetMap)", doc.Meta.License)
	assert.Equal(t, "sf", doc.Meta.Region)
	assert.NotEmpty(t, doc.Meta.Generated)

	require.Len(t, doc.Bars, 2)
	assert.Equal(t, "Zeitgeist", doc.Bars[0].Name)
	assert.Equal(t, models.CategoryBar, doc.Bars[0].Category)
	assert.Equal(t, "Toronado", doc.Bars[1].Name)
	assert.Equal(t, models.CategoryPub, doc.Bars[1].Category)
}

func TestRunCombineSkipsDownloading(t *testing.T) {
	server, requests := newOverpassStub(t)
	outputPath := filepath.Join(t.TempDir(), "bars_data.json")

	cfg := config{
		region:      "sf",
		dbPath:      ":memory:",
		outputPath:  outputPath,
		overpassURL: server.URL,
		combine:     true,
		env:         "test",
	}

	require.NoError(t, run(context.Background(), cfg, testLogger()))
	assert.Zero(t, *requests, "combine mode must not hit the API")

	data, err := os.ReadFile(outputPath)
	require.NoError(t, err)

	var doc models.DatasetDocument
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Zero(t, doc.Meta.Total)
	assert.Empty(t, doc.Bars)
}

func TestDatasetRegion(t *testing.T) {
	assert.Equal(t, "custom", datasetRegion(config{bbox: "1,2,3,4", region: "sf"}))
	assert.Equal(t, "sf", datasetRegion(config{region: "sf"}))
	assert.Equal(t, "cities", datasetRegion(config{}))
}

func TestWriteDocumentCreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deep", "out.json")
	doc := models.DatasetDocument{
		Meta: models.DatasetMeta{Generated: "2026-01-01T00:00:00Z", Source: datasetSource},
	}

	require.NoError(t, writeDocument(doc, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), datasetSource)
}
