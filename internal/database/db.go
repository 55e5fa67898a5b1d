package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// DB wraps the database connection
type DB struct {
	conn *sql.DB
	path string
}

// New creates a new database connection
func New(dbPath string) (*DB, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// WAL mode for better concurrency
	conn, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)

	return &DB{
		conn: conn,
		path: dbPath,
	}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying sql.DB connection
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Migrate creates the tables backing the reader interfaces.
func (db *DB) Migrate() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS daily_sales (
			entity_id  TEXT NOT NULL,
			sale_date  TEXT NOT NULL,
			quantity   REAL NOT NULL DEFAULT 0,
			revenue    REAL NOT NULL DEFAULT 0,
			PRIMARY KEY (entity_id, sale_date)
		)`,
		`CREATE TABLE IF NOT EXISTS price_rules (
			name            TEXT PRIMARY KEY,
			adjustment_type TEXT NOT NULL,
			value           REAL NOT NULL,
			priority        INTEGER NOT NULL DEFAULT 0,
			brand           TEXT,
			category        TEXT,
			platform        TEXT,
			condition       TEXT,
			active          INTEGER NOT NULL DEFAULT 1
		)`,
		`CREATE TABLE IF NOT EXISTS market_price_history (
			entity_id   TEXT NOT NULL,
			recorded_at TEXT NOT NULL,
			lowest_ask  REAL,
			highest_bid REAL,
			PRIMARY KEY (entity_id, recorded_at)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_daily_sales_entity_date
			ON daily_sales(entity_id, sale_date)`,
		`CREATE INDEX IF NOT EXISTS idx_price_history_entity
			ON market_price_history(entity_id, recorded_at)`,
	}

	for _, stmt := range schema {
		if _, err := db.conn.Exec(stmt); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}

	return nil
}

// Begin starts a new transaction
func (db *DB) Begin() (*sql.Tx, error) {
	return db.conn.Begin()
}
