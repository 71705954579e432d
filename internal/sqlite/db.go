package sqlite

import (
	"database/sql"
	"fmt"
	"testing"

	_ "modernc.org/sqlite"
)

// Open opens a SQLite database and configures pragmas. The pool is held at
// a single connection: SQLite serializes writers anyway, and an in-memory
// database only exists on the connection that created it.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA synchronous=NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", p, err)
		}
	}
	return db, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS lists (
    id           TEXT PRIMARY KEY,
    title        TEXT NOT NULL,
    shop_id      TEXT,
    status       TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'completed')),
    created_at   INTEGER NOT NULL,
    completed_at INTEGER,
    completed_by TEXT
);

CREATE INDEX IF NOT EXISTS idx_lists_shop_created ON lists (shop_id, created_at DESC);

CREATE TABLE IF NOT EXISTS list_items (
    list_id       TEXT NOT NULL REFERENCES lists (id) ON DELETE CASCADE,
    id            TEXT NOT NULL,
    position      INTEGER NOT NULL,
    sku           TEXT,
    name          TEXT NOT NULL,
    qty_requested INTEGER NOT NULL CHECK (qty_requested BETWEEN 1 AND 10000),
    qty_collected INTEGER CHECK (qty_collected >= 0),
    status        TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'collected', 'unavailable')),
    version       INTEGER NOT NULL DEFAULT 1,
    PRIMARY KEY (list_id, id)
);

CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY,
    username      TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    shop_id       TEXT,
    role          TEXT NOT NULL DEFAULT 'employee',
    active        INTEGER NOT NULL DEFAULT 1,
    last_login    INTEGER,
    created_at    INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS products (
    sku   TEXT PRIMARY KEY,
    name  TEXT NOT NULL,
    price TEXT NOT NULL
);
`

// EnsureSchema creates any missing tables. Timestamps are stored as unix
// nanoseconds so ordering by them is exact.
func EnsureSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// NewTestDB creates a fresh in-memory database with the schema applied.
func NewTestDB(t testing.TB) *sql.DB {
	t.Helper()

	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	if err := EnsureSchema(db); err != nil {
		db.Close()
		t.Fatalf("creating test database schema: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}
