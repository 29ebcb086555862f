package database

import (
	"path/filepath"
	"testing"
)

func newTestContext(t *testing.T) *Context {
	t.Helper()
	dbCtx, err := CreateDatabase(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("CreateDatabase error: %v", err)
	}
	t.Cleanup(func() {
		_ = CloseDatabase(dbCtx)
	})
	return dbCtx
}

func TestCreateDatabaseAppliesMigrations(t *testing.T) {
	dbCtx := newTestContext(t)

	for _, table := range []string{"entries", "history", "history_state"} {
		var name string
		err := dbCtx.DB.QueryRow(
			"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table,
		).Scan(&name)
		if err != nil {
			t.Fatalf("expected table %s to exist: %v", table, err)
		}
	}
}

func TestCreateDatabaseIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	first, err := CreateDatabase(path)
	if err != nil {
		t.Fatalf("CreateDatabase error: %v", err)
	}
	if err := CloseDatabase(first); err != nil {
		t.Fatalf("CloseDatabase error: %v", err)
	}

	second, err := CreateDatabase(path)
	if err != nil {
		t.Fatalf("reopening the database failed: %v", err)
	}
	if err := CloseDatabase(second); err != nil {
		t.Fatalf("CloseDatabase error: %v", err)
	}
}

func TestCloseDatabaseNil(t *testing.T) {
	if err := CloseDatabase(nil); err != nil {
		t.Fatalf("CloseDatabase(nil) error: %v", err)
	}
}
