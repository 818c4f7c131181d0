package barsdb

import (
	"context"
	"database/sql"
	"fmt"

	"beercompass.app/internal/logging"
	"beercompass.app/internal/models"
)

func createBarsTable(tx *sql.Tx) error {
	return createTable(tx, "bars", `
		CREATE TABLE IF NOT EXISTS bars (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			category TEXT NOT NULL DEFAULT 'bar',
			lat REAL NOT NULL,
			lon REAL NOT NULL,
			region TEXT NOT NULL DEFAULT ''
		);`,
	)
}

func createBarTagsTable(tx *sql.Tx) error {
	return createTable(tx, "bar_tags", `
		CREATE TABLE IF NOT EXISTS bar_tags (
			bar_id INTEGER NOT NULL,
			key TEXT NOT NULL,
			value TEXT NOT NULL,
			PRIMARY KEY (bar_id, key)
		);`,
	)
}

// UpsertBars inserts or replaces bars and their tags inside a single
// transaction. Bars are tagged with the region they were downloaded for so
// partial world sweeps can be resumed.
func (c *Client) UpsertBars(ctx context.Context, region string, bars []models.GeoPoint) error {
	logger := logging.FromContext(ctx)

	tx, err := c.DB.Begin()
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer logging.SafeRollbackWithLogging(tx, logger, "upsert_bars")

	barStmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO bars (
			id, name, category, lat, lon, region
		) VALUES (?, ?, ?, ?, ?, ?);
	`)
	if err != nil {
		return fmt.Errorf("error preparing statement: %w", err)
	}
	defer barStmt.Close() // nolint:errcheck

	tagStmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO bar_tags (
			bar_id, key, value
		) VALUES (?, ?, ?);
	`)
	if err != nil {
		return fmt.Errorf("error preparing statement: %w", err)
	}
	defer tagStmt.Close() // nolint:errcheck

	for _, bar := range bars {
		_, err := barStmt.ExecContext(ctx,
			bar.ID, bar.Name, string(bar.Category), bar.Lat, bar.Lon, region,
		)
		if err != nil {
			return fmt.Errorf("error inserting bar %d: %w", bar.ID, err)
		}

		// Tag keys absent from the new set would survive INSERT OR REPLACE,
		// so clear the old rows first.
		_, err = tx.ExecContext(ctx, "DELETE FROM bar_tags WHERE bar_id = ?;", bar.ID)
		if err != nil {
			return fmt.Errorf("error clearing tags for bar %d: %w", bar.ID, err)
		}

		for key, value := range bar.Attributes {
			if _, err := tagStmt.ExecContext(ctx, bar.ID, key, value); err != nil {
				return fmt.Errorf("error inserting tag for bar %d: %w", bar.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing transaction: %w", err)
	}

	return nil
}

// AllBars returns every stored bar with its tags attached, ordered by id.
func (c *Client) AllBars(ctx context.Context) ([]models.GeoPoint, error) {
	return c.queryBars(ctx, `
		SELECT id, name, category, lat, lon FROM bars ORDER BY id;`)
}

// BarsWithinBounds returns bars inside the inclusive latitude/longitude box,
// ordered by id.
func (c *Client) BarsWithinBounds(ctx context.Context, minLat, maxLat, minLon, maxLon float64) ([]models.GeoPoint, error) {
	return c.queryBars(ctx, `
		SELECT id, name, category, lat, lon FROM bars
		WHERE lat BETWEEN ? AND ? AND lon BETWEEN ? AND ?
		ORDER BY id;`,
		minLat, maxLat, minLon, maxLon)
}

// CountBars returns the number of stored bars.
func (c *Client) CountBars(ctx context.Context) (int64, error) {
	var count int64
	err := c.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM bars;").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("error counting bars: %w", err)
	}
	return count, nil
}

func (c *Client) queryBars(ctx context.Context, query string, args ...any) ([]models.GeoPoint, error) {
	rows, err := c.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying bars: %w", err)
	}
	defer rows.Close() // nolint:errcheck

	var bars []models.GeoPoint
	index := make(map[int64]int)
	for rows.Next() {
		var p models.GeoPoint
		var category string
		if err := rows.Scan(&p.ID, &p.Name, &category, &p.Lat, &p.Lon); err != nil {
			return nil, fmt.Errorf("error scanning bar: %w", err)
		}
		p.Category = models.ParseCategory(category)
		p.Attributes = make(map[string]string)
		index[p.ID] = len(bars)
		bars = append(bars, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bars: %w", err)
	}

	if err := c.attachTags(ctx, bars, index); err != nil {
		return nil, err
	}

	return bars, nil
}

// attachTags fills Attributes for the given bars from bar_tags in one query.
func (c *Client) attachTags(ctx context.Context, bars []models.GeoPoint, index map[int64]int) error {
	if len(bars) == 0 {
		return nil
	}

	rows, err := c.DB.QueryContext(ctx, "SELECT bar_id, key, value FROM bar_tags;")
	if err != nil {
		return fmt.Errorf("error querying bar tags: %w", err)
	}
	defer rows.Close() // nolint:errcheck

	for rows.Next() {
		var barID int64
		var key, value string
		if err := rows.Scan(&barID, &key, &value); err != nil {
			return fmt.Errorf("error scanning bar tag: %w", err)
		}
		if i, ok := index[barID]; ok {
			bars[i].Attributes[key] = value
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating bar tags: %w", err)
	}

	return nil
}
