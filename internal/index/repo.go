package index

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/starford/oedify/internal/apperr"
	"github.com/starford/oedify/internal/models"
)

// Key kinds.
const (
	KindHeadword  = "headword"
	KindAlternate = "alternate"
	KindSynonym   = "synonym"
)

// Key is one search key of an entry.
type Key struct {
	Word string
	Kind string
}

// EntryRow represents a row in the entries table with its keys.
type EntryRow struct {
	ID         int64
	Headword   string
	Definition string
	Homograph  int
	Keys       []Key
}

// SearchResult represents one search hit.
type SearchResult struct {
	EntryID   int64
	Headword  string
	Homograph int
	Snippet   string
}

// RunRow represents a recorded conversion run.
type RunRow struct {
	ID             string
	SourceChecksum string
	StartedAt      time.Time
	FinishedAt     time.Time
	Entries        int
	Faults         int
	Metrics        models.Metrics
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// Replacement swaps the whole entry set inside one transaction. It
// implements convert.Sink; nothing is visible to readers until Commit.
type Replacement struct {
	tx        *sql.Tx
	entryStmt *sql.Stmt
	keyStmt   *sql.Stmt
	count     int
}

// BeginReplace clears the entries inside a new transaction and returns a
// Replacement that accepts the new set in batches.
func (db *DB) BeginReplace() (*Replacement, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return nil, fmt.Errorf("index: begin tx: %w", err)
	}
	fail := func(err error) (*Replacement, error) {
		_ = tx.Rollback()
		return nil, err
	}

	if _, err := tx.Exec(`DELETE FROM keys`); err != nil {
		return fail(fmt.Errorf("index: clear keys: %w", err))
	}
	if _, err := tx.Exec(`DELETE FROM entries`); err != nil {
		return fail(fmt.Errorf("index: clear entries: %w", err))
	}
	if err := ftsReset(tx); err != nil {
		return fail(err)
	}

	entryStmt, err := tx.Prepare(`INSERT INTO entries (headword, definition, homograph) VALUES (?, ?, ?)`)
	if err != nil {
		return fail(fmt.Errorf("index: prepare entry insert: %w", err))
	}
	keyStmt, err := tx.Prepare(`INSERT OR IGNORE INTO keys (word, entry_id, kind) VALUES (?, ?, ?)`)
	if err != nil {
		entryStmt.Close()
		return fail(fmt.Errorf("index: prepare key insert: %w", err))
	}
	return &Replacement{tx: tx, entryStmt: entryStmt, keyStmt: keyStmt}, nil
}

// Put inserts one batch of entries.
func (r *Replacement) Put(ctx context.Context, batch []models.Entry) error {
	for _, e := range batch {
		if err := ctx.Err(); err != nil {
			return err
		}
		res, err := r.entryStmt.ExecContext(ctx, e.Headword, e.Definition, e.HomographIndex)
		if err != nil {
			return fmt.Errorf("index: insert entry %q: %w", e.Headword, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("index: entry id: %w", err)
		}
		for _, k := range entryKeys(e) {
			if _, err := r.keyStmt.ExecContext(ctx, k.Word, id, k.Kind); err != nil {
				return fmt.Errorf("index: insert key %q: %w", k.Word, err)
			}
		}
		if err := ftsInsert(r.tx, id, strings.Join(e.Words(), " "), e.Definition); err != nil {
			return err
		}
		r.count++
	}
	return nil
}

// Count is the number of entries put so far.
func (r *Replacement) Count() int { return r.count }

// SetMeta replaces the dictionary metadata within the transaction.
func (r *Replacement) SetMeta(fields []models.MetaField) error {
	return setMeta(r.tx, fields)
}

// RecordRun records run within the transaction.
func (r *Replacement) RecordRun(run RunRow) error {
	return recordRun(r.tx, run)
}

// Commit publishes the new entry set.
func (r *Replacement) Commit() error {
	r.close()
	if err := r.tx.Commit(); err != nil {
		return fmt.Errorf("index: commit: %w", err)
	}
	return nil
}

// Rollback discards the new entry set and keeps the previous one.
func (r *Replacement) Rollback() error {
	r.close()
	if err := r.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("index: rollback: %w", err)
	}
	return nil
}

func (r *Replacement) close() {
	r.entryStmt.Close()
	r.keyStmt.Close()
}

func entryKeys(e models.Entry) []Key {
	keys := []Key{{Word: e.Headword, Kind: KindHeadword}}
	for _, w := range e.Alternates {
		keys = append(keys, Key{Word: w, Kind: KindAlternate})
	}
	for _, w := range e.Synonyms {
		keys = append(keys, Key{Word: w, Kind: KindSynonym})
	}
	return keys
}

// Lookup returns every entry with a key equal to word, compared without
// regard to ASCII case, in conversion order.
func (db *DB) Lookup(word string) ([]EntryRow, error) {
	rows, err := db.conn.Query(`
		SELECT DISTINCT e.id, e.headword, e.definition, e.homograph
		FROM keys k
		JOIN entries e ON e.id = k.entry_id
		WHERE k.word = ?
		ORDER BY e.id
	`, word)
	if err != nil {
		return nil, fmt.Errorf("index: lookup: %w", err)
	}
	var out []EntryRow
	for rows.Next() {
		var e EntryRow
		if err := rows.Scan(&e.ID, &e.Headword, &e.Definition, &e.Homograph); err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		keys, err := db.keys(out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Keys = keys
	}
	return out, nil
}

func (db *DB) keys(entryID int64) ([]Key, error) {
	rows, err := db.conn.Query(`SELECT word, kind FROM keys WHERE entry_id = ? ORDER BY rowid`, entryID)
	if err != nil {
		return nil, fmt.Errorf("index: keys: %w", err)
	}
	defer rows.Close()

	var out []Key
	for rows.Next() {
		var k Key
		if err := rows.Scan(&k.Word, &k.Kind); err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

// EntryCount returns the number of stored entries.
func (db *DB) EntryCount() (int, error) {
	var n int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM entries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("index: count entries: %w", err)
	}
	return n, nil
}

func setMeta(ex execer, fields []models.MetaField) error {
	if _, err := ex.Exec(`DELETE FROM meta`); err != nil {
		return fmt.Errorf("index: clear meta: %w", err)
	}
	for _, f := range fields {
		_, err := ex.Exec(`
			INSERT INTO meta (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value
		`, f.Key, f.Value)
		if err != nil {
			return fmt.Errorf("index: set meta %q: %w", f.Key, err)
		}
	}
	return nil
}

// Meta returns the dictionary metadata in insertion order.
func (db *DB) Meta() ([]models.MetaField, error) {
	rows, err := db.conn.Query(`SELECT key, value FROM meta ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("index: meta: %w", err)
	}
	defer rows.Close()

	var out []models.MetaField
	for rows.Next() {
		var f models.MetaField
		if err := rows.Scan(&f.Key, &f.Value); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func recordRun(ex execer, r RunRow) error {
	metricsJSON, _ := json.Marshal(r.Metrics)
	_, err := ex.Exec(`
		INSERT INTO runs (id, source_checksum, started_at, finished_at, entries, faults, metrics)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.SourceChecksum, r.StartedAt.UTC(), r.FinishedAt.UTC(), r.Entries, r.Faults, string(metricsJSON))
	if err != nil {
		return fmt.Errorf("index: record run: %w", err)
	}
	return nil
}

// LatestRun returns the most recent run. Run IDs are ULIDs, so the
// lexically greatest ID is the newest.
func (db *DB) LatestRun() (*RunRow, error) {
	var (
		r           RunRow
		metricsJSON string
	)
	err := db.conn.QueryRow(`
		SELECT id, source_checksum, started_at, finished_at, entries, faults, metrics
		FROM runs
		ORDER BY id DESC
		LIMIT 1
	`).Scan(&r.ID, &r.SourceChecksum, &r.StartedAt, &r.FinishedAt, &r.Entries, &r.Faults, &metricsJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("index: latest run: %w", apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("index: latest run: %w", err)
	}
	_ = json.Unmarshal([]byte(metricsJSON), &r.Metrics)
	return &r, nil
}
