// Package testutil provides shared test helpers for setting up indexes and
// output directories.
package testutil

import (
	"context"
	"os"
	"testing"

	"github.com/starford/oedify/internal/index"
	"github.com/starford/oedify/internal/models"
	"github.com/starford/oedify/internal/storage"
)

// TestDB creates a temporary SQLite index that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "oedify-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// Seed replaces the contents of db the way a load does: entries, meta and
// runs in one committed transaction.
func Seed(t *testing.T, db *index.DB, entries []models.Entry, meta []models.MetaField, runs ...index.RunRow) {
	t.Helper()
	r, err := db.BeginReplace()
	if err != nil {
		t.Fatal(err)
	}
	defer r.Rollback() //nolint:errcheck // no-op after Commit

	if err := r.Put(context.Background(), entries); err != nil {
		t.Fatal(err)
	}
	if err := r.SetMeta(meta); err != nil {
		t.Fatal(err)
	}
	for _, run := range runs {
		if err := r.RecordRun(run); err != nil {
			t.Fatal(err)
		}
	}
	if err := r.Commit(); err != nil {
		t.Fatal(err)
	}
}

// TestOutput creates a temporary output directory with a storage.Provider.
func TestOutput(t *testing.T) (string, storage.Provider) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}
