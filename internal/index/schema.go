// Package index stores converted dictionary entries in SQLite, with FTS5
// full-text search when built with the sqlite_fts5 tag.
package index

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS entries (
	id         INTEGER PRIMARY KEY,
	headword   TEXT NOT NULL,
	definition TEXT NOT NULL DEFAULT '',
	homograph  INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS keys (
	word     TEXT NOT NULL COLLATE NOCASE,
	entry_id INTEGER NOT NULL REFERENCES entries(id) ON DELETE CASCADE,
	kind     TEXT NOT NULL DEFAULT 'headword',
	UNIQUE(word, entry_id)
);

CREATE INDEX IF NOT EXISTS idx_keys_word ON keys(word);
CREATE INDEX IF NOT EXISTS idx_keys_entry ON keys(entry_id);

CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS runs (
	id              TEXT PRIMARY KEY,
	source_checksum TEXT NOT NULL DEFAULT '',
	started_at      DATETIME NOT NULL,
	finished_at     DATETIME NOT NULL,
	entries         INTEGER NOT NULL DEFAULT 0,
	faults          INTEGER NOT NULL DEFAULT 0,
	metrics         TEXT NOT NULL DEFAULT '{}'
);
`

// DB wraps a sql.DB with index-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("index: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: ping: %w", err)
	}
	if _, err := conn.Exec(coreSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply core schema: %w", err)
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply fts schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
