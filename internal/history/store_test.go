package history

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/modkeep/modkeep/internal/database"
	"github.com/modkeep/modkeep/internal/engine"
	"github.com/modkeep/modkeep/internal/mods"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbCtx, err := database.CreateDatabase(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("CreateDatabase error: %v", err)
	}
	t.Cleanup(func() {
		_ = database.CloseDatabase(dbCtx)
	})
	return NewStore(dbCtx)
}

func TestLoadEmptyHistory(t *testing.T) {
	s := newTestStore(t)

	entries, cursor, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(entries) != 0 || cursor != 0 {
		t.Fatalf("expected empty history, got %d entries cursor %d", len(entries), cursor)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	saved := []engine.StoredEntry{
		{ID: "a", Seq: 1, Kind: "rename", Category: mods.CategoryPak, Description: "Rename One.pak", Payload: []byte(`{"category":"pak","key":"One.pak","old_name":"","new_name":"One"}`)},
		{ID: "b", Seq: 2, Kind: "toggle", Category: mods.CategoryPak, Description: "Disable Two.pak", Payload: []byte(`{"category":"pak","key":"Two.pak","old_enabled":true,"new_enabled":false,"old_location":"","new_location":"disabled","preserve_position":true}`)},
	}
	if err := s.Save(ctx, saved, 1); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	entries, cursor, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cursor != 1 {
		t.Fatalf("unexpected cursor: %d", cursor)
	}
	if len(entries) != 2 {
		t.Fatalf("unexpected entry count: %d", len(entries))
	}
	if entries[0].ID != "a" || entries[1].ID != "b" {
		t.Fatalf("unexpected order: %#v", entries)
	}
	if entries[1].Kind != "toggle" || string(entries[1].Payload) != string(saved[1].Payload) {
		t.Fatalf("payload not preserved: %#v", entries[1])
	}
}

func TestSaveReplacesPreviousStack(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := []engine.StoredEntry{{ID: "a", Seq: 1, Kind: "rename", Category: mods.CategoryPak, Description: "x", Payload: []byte(`{}`)}}
	if err := s.Save(ctx, first, 1); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	second := []engine.StoredEntry{
		{ID: "b", Seq: 2, Kind: "rename", Category: mods.CategoryPak, Description: "y", Payload: []byte(`{}`)},
	}
	if err := s.Save(ctx, second, 0); err != nil {
		t.Fatalf("second Save error: %v", err)
	}

	entries, cursor, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != "b" {
		t.Fatalf("old stack not replaced: %#v", entries)
	}
	if cursor != 0 {
		t.Fatalf("unexpected cursor: %d", cursor)
	}
}
