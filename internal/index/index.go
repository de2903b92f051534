package index

import "github.com/starford/oedify/internal/models"

// EntryIndex defines the read operations over converted entries. Writes go
// through BeginReplace. Consumers should depend on this interface rather
// than the concrete *DB type to facilitate testing with mocks.
type EntryIndex interface {
	Lookup(word string) ([]EntryRow, error)
	Search(query string, limit int) ([]SearchResult, error)
	Meta() ([]models.MetaField, error)
	LatestRun() (*RunRow, error)
}

// Verify *DB satisfies EntryIndex at compile time.
var _ EntryIndex = (*DB)(nil)
