package barsdb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"beercompass.app/internal/models"
)

// DatasetLicense is stamped into every exported document. OpenStreetMap data
// is distributed under the Open Database License.
const DatasetLicense = "ODbL (OpenStreetMap)"

// Client is the main entry point for the library
type Client struct {
	config Config
	DB     *sql.DB
}

// NewClient creates a new Client with the provided configuration
func NewClient(config Config) (*Client, error) {
	db, err := InitDB(config)
	if err != nil {
		return nil, err
	}

	client := &Client{
		config: config,
		DB:     db,
	}
	return client, nil
}

func (c *Client) Close() error {
	return c.DB.Close()
}

// ExportDocument assembles the dataset document from everything stored,
// stamped with generation metadata. The source string describes the download
// mode that produced the data.
func (c *Client) ExportDocument(ctx context.Context, source, region string) (models.DatasetDocument, error) {
	bars, err := c.AllBars(ctx)
	if err != nil {
		return models.DatasetDocument{}, err
	}

	doc := models.DatasetDocument{
		Meta: models.DatasetMeta{
			Generated: time.Now().UTC().Format(time.RFC3339),
			Total:     len(bars),
			Source:    source,
			License:   DatasetLicense,
			Region:    region,
		},
		Bars: bars,
	}

	return doc, nil
}

// TableCounts returns per-table row counts, used for verbose import output
func (c *Client) TableCounts() (map[string]int, error) {
	rows, err := c.DB.Query("SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%'")
	if err != nil {
		return nil, fmt.Errorf("failed to query table names: %w", err)
	}
	defer rows.Close() // nolint:errcheck

	var tables []string
	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		tables = append(tables, tableName)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, table := range tables {
		var count int
		query := fmt.Sprintf("SELECT COUNT(*) FROM %s", table)
		if err := c.DB.QueryRow(query).Scan(&count); err != nil {
			return nil, err
		}
		counts[table] = count
	}

	return counts, nil
}
