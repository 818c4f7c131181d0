package barsdb

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

func createRegionsTable(tx *sql.Tx) error {
	return createTable(tx, "regions", `
		CREATE TABLE IF NOT EXISTS regions (
			region TEXT PRIMARY KEY,
			bar_count INTEGER NOT NULL DEFAULT 0,
			downloaded_at TEXT NOT NULL
		);`,
	)
}

// RegionDownloaded reports whether a region's results are already stored, so
// interrupted world sweeps resume where they left off.
func (c *Client) RegionDownloaded(ctx context.Context, region string) (bool, error) {
	var count int
	err := c.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM regions WHERE region = ?;", region).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("error checking region %s: %w", region, err)
	}
	return count > 0, nil
}

// MarkRegionDownloaded records a completed region download.
func (c *Client) MarkRegionDownloaded(ctx context.Context, region string, barCount int) error {
	_, err := c.DB.ExecContext(ctx, `
		INSERT OR REPLACE INTO regions (region, bar_count, downloaded_at)
		VALUES (?, ?, ?);`,
		region, barCount, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("error marking region %s downloaded: %w", region, err)
	}
	return nil
}

// DownloadedRegions lists completed regions in download order.
func (c *Client) DownloadedRegions(ctx context.Context) ([]string, error) {
	rows, err := c.DB.QueryContext(ctx,
		"SELECT region FROM regions ORDER BY downloaded_at, region;")
	if err != nil {
		return nil, fmt.Errorf("error querying regions: %w", err)
	}
	defer rows.Close() // nolint:errcheck

	var regions []string
	for rows.Next() {
		var region string
		if err := rows.Scan(&region); err != nil {
			return nil, fmt.Errorf("error scanning region: %w", err)
		}
		regions = append(regions, region)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating regions: %w", err)
	}

	return regions, nil
}
