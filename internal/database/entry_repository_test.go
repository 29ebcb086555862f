package database

import (
	"context"
	"errors"
	"testing"

	"github.com/modkeep/modkeep/internal/mods"
)

func int64Ptr(v int64) *int64 { return &v }

func TestEntryRepositoryCreateAndFind(t *testing.T) {
	dbCtx := newTestContext(t)
	repo := NewEntryRepository(dbCtx)
	ctx := context.Background()

	id, err := repo.Create(ctx, mods.Entry{
		Category:    mods.CategoryPak,
		Key:         "CoolMod.pak",
		DisplayName: "Cool Mod",
		GroupPath:   []string{"Graphics", "HD"},
		Enabled:     true,
		Location:    "Graphics",
		Protected:   false,
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if id == 0 {
		t.Fatal("expected non-zero row id")
	}

	entry, err := repo.FindByKey(ctx, mods.CategoryPak, "CoolMod.pak")
	if err != nil {
		t.Fatalf("FindByKey error: %v", err)
	}
	if entry.DisplayName != "Cool Mod" {
		t.Fatalf("unexpected display name: %q", entry.DisplayName)
	}
	if entry.Group() != "Graphics/HD" {
		t.Fatalf("unexpected group: %q", entry.Group())
	}
	if !entry.Enabled || entry.Location != "Graphics" {
		t.Fatalf("unexpected state: %#v", entry)
	}
	if entry.CreatedAt.IsZero() {
		t.Fatal("expected created_at to be set")
	}
}

func TestEntryRepositoryFindMissing(t *testing.T) {
	dbCtx := newTestContext(t)
	repo := NewEntryRepository(dbCtx)

	_, err := repo.FindByKey(context.Background(), mods.CategoryPak, "Ghost.pak")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestEntryRepositoryUniqueKeyPerCategory(t *testing.T) {
	dbCtx := newTestContext(t)
	repo := NewEntryRepository(dbCtx)
	ctx := context.Background()

	if _, err := repo.Create(ctx, mods.Entry{Category: mods.CategoryPak, Key: "Dup.pak", Enabled: true}); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if _, err := repo.Create(ctx, mods.Entry{Category: mods.CategoryPak, Key: "Dup.pak", Enabled: false}); err == nil {
		t.Fatal("expected unique constraint violation")
	}
	// Same key in another category is fine.
	if _, err := repo.Create(ctx, mods.Entry{Category: mods.CategoryLoader, Key: "Dup.pak", Enabled: true}); err != nil {
		t.Fatalf("cross-category insert error: %v", err)
	}
}

func TestEntryRepositoryUpdateState(t *testing.T) {
	dbCtx := newTestContext(t)
	repo := NewEntryRepository(dbCtx)
	ctx := context.Background()

	id, err := repo.Create(ctx, mods.Entry{
		Category:   mods.CategoryPlugin,
		Key:        "Quest.esp",
		Enabled:    true,
		OrderIndex: int64Ptr(3),
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	if err := repo.UpdateState(ctx, id, false, "", nil, int64Ptr(3)); err != nil {
		t.Fatalf("UpdateState error: %v", err)
	}

	entry, err := repo.FindByKey(ctx, mods.CategoryPlugin, "Quest.esp")
	if err != nil {
		t.Fatalf("FindByKey error: %v", err)
	}
	if entry.Enabled {
		t.Fatal("expected disabled")
	}
	if entry.OrderIndex != nil {
		t.Fatalf("expected cleared order index, got %v", *entry.OrderIndex)
	}
	if entry.RememberedIndex == nil || *entry.RememberedIndex != 3 {
		t.Fatalf("expected remembered index 3, got %v", entry.RememberedIndex)
	}
}

func TestEntryRepositoryUpdateDisplayNameClears(t *testing.T) {
	dbCtx := newTestContext(t)
	repo := NewEntryRepository(dbCtx)
	ctx := context.Background()

	id, err := repo.Create(ctx, mods.Entry{
		Category:    mods.CategoryPak,
		Key:         "Named.pak",
		DisplayName: "Label",
		Enabled:     true,
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	if err := repo.UpdateDisplayName(ctx, id, ""); err != nil {
		t.Fatalf("UpdateDisplayName error: %v", err)
	}
	entry, err := repo.FindByKey(ctx, mods.CategoryPak, "Named.pak")
	if err != nil {
		t.Fatalf("FindByKey error: %v", err)
	}
	if entry.DisplayName != "" {
		t.Fatalf("expected cleared display name, got %q", entry.DisplayName)
	}
	if entry.Name() != "Named.pak" {
		t.Fatalf("expected key fallback, got %q", entry.Name())
	}
}

func TestEntryRepositoryUpdateMissingRow(t *testing.T) {
	dbCtx := newTestContext(t)
	repo := NewEntryRepository(dbCtx)

	err := repo.UpdateDisplayName(context.Background(), 9999, "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestEntryRepositoryDelete(t *testing.T) {
	dbCtx := newTestContext(t)
	repo := NewEntryRepository(dbCtx)
	ctx := context.Background()

	id, err := repo.Create(ctx, mods.Entry{Category: mods.CategoryPak, Key: "Gone.pak", Enabled: true})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	deleted, err := repo.Delete(ctx, id)
	if err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if !deleted {
		t.Fatal("expected deletion")
	}
	deleted, err = repo.Delete(ctx, id)
	if err != nil {
		t.Fatalf("second Delete error: %v", err)
	}
	if deleted {
		t.Fatal("expected no-op on second delete")
	}
}

func TestEntryRepositoryListEnabledOrdered(t *testing.T) {
	dbCtx := newTestContext(t)
	repo := NewEntryRepository(dbCtx)
	ctx := context.Background()

	seed := []mods.Entry{
		{Category: mods.CategoryPlugin, Key: "Second.esp", Enabled: true, OrderIndex: int64Ptr(1)},
		{Category: mods.CategoryPlugin, Key: "First.esp", Enabled: true, OrderIndex: int64Ptr(0)},
		{Category: mods.CategoryPlugin, Key: "Off.esp", Enabled: false},
	}
	for _, e := range seed {
		if _, err := repo.Create(ctx, e); err != nil {
			t.Fatalf("Create(%s) error: %v", e.Key, err)
		}
	}

	ordered, err := repo.ListEnabledOrdered(ctx, mods.CategoryPlugin)
	if err != nil {
		t.Fatalf("ListEnabledOrdered error: %v", err)
	}
	if len(ordered) != 2 || ordered[0].Key != "First.esp" || ordered[1].Key != "Second.esp" {
		t.Fatalf("unexpected order: %#v", ordered)
	}
}
