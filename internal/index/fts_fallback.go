//go:build !sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
)

func initFTS(_ *sql.DB) error {
	// FTS5 not available; search uses LIKE over keys and definitions.
	return nil
}

func ftsInsert(_ *sql.Tx, _ int64, _, _ string) error {
	// Keys and definitions are already stored; nothing extra to do.
	return nil
}

func ftsReset(_ *sql.Tx) error { return nil }

// Search performs a LIKE-based search (fallback when FTS5 is not compiled in).
// Entries whose keys match rank before entries matched only in the definition.
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	like := "%" + query + "%"
	rows, err := db.conn.Query(`
		SELECT e.id, e.headword, e.homograph, substr(e.definition, 1, 200),
		       MAX(CASE WHEN k.word LIKE ? THEN 1 ELSE 0 END) AS key_hit
		FROM entries e
		JOIN keys k ON k.entry_id = e.id
		WHERE k.word LIKE ? OR e.definition LIKE ?
		GROUP BY e.id
		ORDER BY key_hit DESC, e.id
		LIMIT ?
	`, like, like, like, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var (
			r      SearchResult
			keyHit int
		)
		if err := rows.Scan(&r.EntryID, &r.Headword, &r.Homograph, &r.Snippet, &keyHit); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
