package barsdb

import (
	"database/sql"
	"fmt"

	"beercompass.app/internal/appconf"
)

// InitDB creates a new SQLite database with tables for bars, their OSM tags,
// and per-region download bookkeeping
func InitDB(config Config) (*sql.DB, error) {
	if config.Env == appconf.Test && config.DBPath != ":memory:" {
		return nil, fmt.Errorf("test database must use in-memory storage, got %s", config.DBPath)
	}

	// Open database connection
	db, err := sql.Open("sqlite", config.DBPath)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	// Enable foreign keys
	_, err = db.Exec("PRAGMA foreign_keys = ON;")
	if err != nil {
		return nil, fmt.Errorf("error enabling foreign keys: %w", err)
	}

	// Create tables within a transaction
	tx, err := db.Begin()
	if err != nil {
		return nil, fmt.Errorf("error starting transaction: %w", err)
	}

	if err := createTables(tx); err != nil {
		tx.Rollback() // nolint:errcheck
		return nil, err
	}

	// Create indexes for better performance
	_, err = tx.Exec(`
		CREATE INDEX IF NOT EXISTS idx_bars_lat_lon ON bars(lat, lon);
		CREATE INDEX IF NOT EXISTS idx_bars_region ON bars(region);
		CREATE INDEX IF NOT EXISTS idx_bar_tags_bar_id ON bar_tags(bar_id);
	`)
	if err != nil {
		tx.Rollback() // nolint:errcheck
		return nil, fmt.Errorf("error creating indexes: %w", err)
	}

	// Commit transaction
	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("error committing transaction: %w", err)
	}

	return db, nil
}

func createTables(tx *sql.Tx) error {
	if err := createBarsTable(tx); err != nil {
		return err
	}
	if err := createBarTagsTable(tx); err != nil {
		return err
	}
	return createRegionsTable(tx)
}

// createTable creates a table in the database
func createTable(tx *sql.Tx, tableName string, createStmt string) error {
	if _, err := tx.Exec(createStmt); err != nil {
		return fmt.Errorf("error creating table %s: %w", tableName, err)
	}
	return nil
}
