package storage

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"thinner/internal/slogutil"
)

func setupTestDB(t *testing.T) (*DB, string) {
	t.Helper()
	root := t.TempDir()

	db, err := Open(root, slogutil.NewDiscardLogger())
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Failed to close database: %v", err)
		}
	})
	return db, root
}

func TestDatabaseInitialization(t *testing.T) {
	db, root := setupTestDB(t)

	dbPath := filepath.Join(root, ".thinner", "thinner.db")
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Fatalf("Database file was not created at %s", dbPath)
	}
	if db.Path() != dbPath {
		t.Errorf("Path() = %s, want %s", db.Path(), dbPath)
	}

	var version int
	if err := db.conn.QueryRow("SELECT version FROM schema_version").Scan(&version); err != nil {
		t.Fatalf("Failed to get schema version: %v", err)
	}
	if version != currentSchemaVersion {
		t.Errorf("Expected schema version %d, got %d", currentSchemaVersion, version)
	}
}

func TestOpenRejectsNewerSchema(t *testing.T) {
	db, root := setupTestDB(t)
	if _, err := db.conn.Exec("UPDATE schema_version SET version = ?", currentSchemaVersion+1); err != nil {
		t.Fatalf("bump version: %v", err)
	}

	if again, err := Open(root, slogutil.NewDiscardLogger()); err == nil {
		_ = again.Close()
		t.Fatal("Open accepted a database from a newer schema")
	}
}

func TestReopenKeepsRuns(t *testing.T) {
	db, root := setupTestDB(t)
	ctx := context.Background()

	id, err := NewRunRepository(db).Record(ctx, &Run{Pass: "api", ModelPath: "roots.toml", CatalogDigest: "abc"})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	again, err := Open(root, slogutil.NewDiscardLogger())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer again.Close()

	run, err := NewRunRepository(again).Get(ctx, id)
	if err != nil || run == nil {
		t.Fatalf("Get after reopen = %v, %v", run, err)
	}
}

func TestRunRepository(t *testing.T) {
	db, _ := setupTestDB(t)
	repo := NewRunRepository(db)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	first := &Run{
		Pass:            "api",
		ModelPath:       "roots.toml",
		OutputPath:      "api.toml",
		CatalogDigest:   "d1",
		Profile:         "windows",
		Assemblies:      2,
		Types:           10,
		Members:         40,
		Iterations:      3,
		Hidden:          1,
		Unconstructible: []string{"Lib Lib.Orphan"},
		Duration:        1500 * time.Millisecond,
		CreatedAt:       base,
	}
	id, err := repo.Record(ctx, first)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if id == "" || first.ID != id {
		t.Fatalf("Record returned id %q, run has %q", id, first.ID)
	}

	second := &Run{Pass: "impl", ModelPath: "api.toml", CatalogDigest: "d1", CreatedAt: base.Add(time.Minute)}
	if _, err := repo.Record(ctx, second); err != nil {
		t.Fatalf("Record: %v", err)
	}

	got, err := repo.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !reflect.DeepEqual(got, first) {
		t.Errorf("Get = %+v\nwant  %+v", got, first)
	}

	missing, err := repo.Get(ctx, "nope")
	if err != nil || missing != nil {
		t.Errorf("Get(missing) = %v, %v; want nil, nil", missing, err)
	}

	runs, err := repo.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != second.ID {
		t.Fatalf("List order wrong: %+v", runs)
	}
	if runs[0].Unconstructible == nil || len(runs[0].Unconstructible) != 0 {
		t.Errorf("empty unconstructible list = %#v", runs[0].Unconstructible)
	}

	limited, err := repo.List(ctx, 1)
	if err != nil || len(limited) != 1 {
		t.Fatalf("List(1) = %d runs, %v", len(limited), err)
	}

	n, err := repo.Prune(ctx, base.Add(30*time.Second))
	if err != nil || n != 1 {
		t.Fatalf("Prune = %d, %v; want 1", n, err)
	}
	if got, _ := repo.Get(ctx, id); got != nil {
		t.Errorf("pruned run still present")
	}
}

func TestRecordRejectsUnknownPass(t *testing.T) {
	db, _ := setupTestDB(t)
	if _, err := NewRunRepository(db).Record(context.Background(), &Run{Pass: "full", ModelPath: "m", CatalogDigest: "d"}); err == nil {
		t.Error("Record accepted an unknown pass")
	}
}
