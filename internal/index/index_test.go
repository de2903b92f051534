package index

import (
	"context"
	"errors"
	"os"
	"reflect"
	"testing"
	"time"

	"github.com/starford/oedify/internal/apperr"
	"github.com/starford/oedify/internal/models"
)

// testDB creates a temporary SQLite database for testing.
func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "oedify-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// replace swaps the stored set for entries, meta and runs in one transaction.
func replace(t *testing.T, db *DB, entries []models.Entry, meta []models.MetaField, runs ...RunRow) {
	t.Helper()
	r, err := db.BeginReplace()
	if err != nil {
		t.Fatalf("BeginReplace: %v", err)
	}
	if err := r.Put(context.Background(), entries); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := r.SetMeta(meta); err != nil {
		t.Fatalf("SetMeta: %v", err)
	}
	for _, run := range runs {
		if err := r.RecordRun(run); err != nil {
			t.Fatalf("RecordRun: %v", err)
		}
	}
	if err := r.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
}

var sampleEntries = []models.Entry{
	{Headword: "adj.", Alternates: []string{"adj"}, Definition: "<b>adj.</b> adjective"},
	{Headword: "bank", Definition: "<b><sup>I</sup></b> a slope", HomographIndex: 1},
	{Headword: "bank", Synonyms: []string{"bank holiday"}, Definition: "<b><sup>II</sup></b> a money house", HomographIndex: 2},
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	for _, table := range []string{"entries", "keys", "meta", "runs"} {
		var name string
		err := db.conn.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}
}

func TestReplaceAndLookup(t *testing.T) {
	db := testDB(t)
	replace(t, db, sampleEntries, nil)

	rows, err := db.Lookup("bank")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if len(rows) != 2 || rows[0].Homograph != 1 || rows[1].Homograph != 2 {
		t.Fatalf("rows = %+v", rows)
	}
	wantKeys := []Key{{Word: "bank", Kind: KindHeadword}, {Word: "bank holiday", Kind: KindSynonym}}
	if !reflect.DeepEqual(rows[1].Keys, wantKeys) {
		t.Errorf("keys = %+v", rows[1].Keys)
	}

	rows, _ = db.Lookup("ADJ")
	if len(rows) != 1 || rows[0].Headword != "adj." {
		t.Errorf("case-insensitive alternate lookup = %+v", rows)
	}

	rows, _ = db.Lookup("bank holiday")
	if len(rows) != 1 || rows[0].Homograph != 2 {
		t.Errorf("synonym lookup = %+v", rows)
	}
}

func TestReplacementDropsPrevious(t *testing.T) {
	db := testDB(t)
	replace(t, db, sampleEntries, nil)
	replace(t, db, []models.Entry{{Headword: "cat", Definition: "a feline"}}, nil)
	if rows, _ := db.Lookup("bank"); len(rows) != 0 {
		t.Errorf("stale entries: %+v", rows)
	}
	if n, _ := db.EntryCount(); n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
}

func TestReplacementRollbackKeepsPrevious(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	replace(t, db, sampleEntries, nil)

	r, err := db.BeginReplace()
	if err != nil {
		t.Fatalf("BeginReplace: %v", err)
	}
	_ = r.Put(ctx, []models.Entry{{Headword: "cat"}})
	if err := r.Rollback(); err != nil {
		t.Fatalf("Rollback: %v", err)
	}
	if n, _ := db.EntryCount(); n != len(sampleEntries) {
		t.Errorf("count = %d, want %d", n, len(sampleEntries))
	}
}

func TestLookup_NotFound(t *testing.T) {
	db := testDB(t)
	rows, err := db.Lookup("nonexistent")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("rows = %+v", rows)
	}
}

func TestMeta(t *testing.T) {
	db := testDB(t)
	fields := []models.MetaField{{Key: "bookname", Value: "OED"}, {Key: "author", Value: "Murray"}}
	replace(t, db, nil, []models.MetaField{{Key: "bookname", Value: "stale"}, {Key: "edition", Value: "1"}})
	replace(t, db, nil, fields)
	got, err := db.Meta()
	if err != nil {
		t.Fatalf("Meta: %v", err)
	}
	if !reflect.DeepEqual(got, fields) {
		t.Errorf("meta = %+v", got)
	}
}

func TestRuns(t *testing.T) {
	db := testDB(t)
	if _, err := db.LatestRun(); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}

	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	older := RunRow{ID: "01J0000000000000000000000A", SourceChecksum: "aaa", StartedAt: start, FinishedAt: start.Add(time.Second)}
	newer := RunRow{
		ID: "01J0000000000000000000000B", SourceChecksum: "bbb", StartedAt: start, FinishedAt: start.Add(2 * time.Second),
		Entries: 3, Faults: 1, Metrics: models.Metrics{SourceEntries: 2, FinalEntries: 3},
	}
	replace(t, db, nil, nil, newer, older)

	got, err := db.LatestRun()
	if err != nil {
		t.Fatalf("LatestRun: %v", err)
	}
	if got.ID != newer.ID || got.SourceChecksum != "bbb" || got.Entries != 3 || got.Faults != 1 {
		t.Errorf("latest = %+v", got)
	}
	if got.Metrics != newer.Metrics {
		t.Errorf("metrics = %+v", got.Metrics)
	}
	if !got.FinishedAt.Equal(newer.FinishedAt) {
		t.Errorf("finished_at = %v", got.FinishedAt)
	}
}

func TestSearch_Basic(t *testing.T) {
	db := testDB(t)
	replace(t, db, sampleEntries, nil)

	results, err := db.Search("money", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Headword != "bank" || results[0].Homograph != 2 {
		t.Errorf("results = %+v", results)
	}
}
