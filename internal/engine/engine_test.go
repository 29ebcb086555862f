package engine

import (
	"context"
	"fmt"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modkeep/modkeep/internal/filesystem"
	"github.com/modkeep/modkeep/internal/loadorder"
	"github.com/modkeep/modkeep/internal/mods"
)

// fakeRegistry keeps entries in memory and mirrors the registry service
// surface the engine depends on.
type fakeRegistry struct {
	entries map[string]*mods.Entry
}

func newFakeRegistry(entries ...mods.Entry) *fakeRegistry {
	r := &fakeRegistry{entries: map[string]*mods.Entry{}}
	for i := range entries {
		e := entries[i]
		r.entries[entryKey(e.Category, e.Key)] = &e
	}
	return r
}

func entryKey(category mods.Category, key string) string {
	return string(category) + "/" + key
}

func (r *fakeRegistry) Get(_ context.Context, category mods.Category, key string) (*mods.Entry, error) {
	e, ok := r.entries[entryKey(category, key)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEntityNotFound, key)
	}
	copied := *e
	copied.GroupPath = slices.Clone(e.GroupPath)
	return &copied, nil
}

func (r *fakeRegistry) List(_ context.Context, category mods.Category) ([]mods.Entry, error) {
	var out []mods.Entry
	for _, e := range r.entries {
		if e.Category == category {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (r *fakeRegistry) Rename(_ context.Context, category mods.Category, key, displayName string) error {
	e, ok := r.entries[entryKey(category, key)]
	if !ok {
		return ErrEntityNotFound
	}
	e.DisplayName = displayName
	return nil
}

func (r *fakeRegistry) SetGroup(_ context.Context, category mods.Category, key string, groupPath []string) error {
	e, ok := r.entries[entryKey(category, key)]
	if !ok {
		return ErrEntityNotFound
	}
	e.GroupPath = slices.Clone(groupPath)
	return nil
}

func (r *fakeRegistry) SetState(_ context.Context, category mods.Category, key string, enabled bool, location string, orderIndex, rememberedIndex *int64) error {
	e, ok := r.entries[entryKey(category, key)]
	if !ok {
		return ErrEntityNotFound
	}
	e.Enabled = enabled
	e.Location = location
	e.OrderIndex = orderIndex
	e.RememberedIndex = rememberedIndex
	return nil
}

func (r *fakeRegistry) ApplyOrder(_ context.Context, category mods.Category, keys []string) error {
	for i, key := range keys {
		e, ok := r.entries[entryKey(category, key)]
		if !ok {
			return fmt.Errorf("%w: %s", ErrEntityNotFound, key)
		}
		v := int64(i)
		e.OrderIndex = &v
	}
	return nil
}

func (r *fakeRegistry) Delete(_ context.Context, category mods.Category, key string) (bool, error) {
	k := entryKey(category, key)
	if _, ok := r.entries[k]; !ok {
		return false, nil
	}
	delete(r.entries, k)
	return true, nil
}

// fakeFiles tracks each entry's location without touching the disk.
type fakeFiles struct {
	locations   map[string]string // category/key -> location
	failMove    bool
	relocations int
}

func newFakeFiles() *fakeFiles {
	return &fakeFiles{locations: map[string]string{}}
}

func (f *fakeFiles) put(category mods.Category, key, location string) {
	f.locations[entryKey(category, key)] = location
}

func (f *fakeFiles) Exists(category mods.Category, key, location string) bool {
	loc, ok := f.locations[entryKey(category, key)]
	return ok && loc == location
}

func (f *fakeFiles) Relocate(category mods.Category, key, from, to string) error {
	if f.failMove {
		return fmt.Errorf("move %s: permission denied", key)
	}
	k := entryKey(category, key)
	if f.locations[k] != from {
		return fmt.Errorf("no files for %s at %s", key, from)
	}
	f.locations[k] = to
	f.relocations++
	return nil
}

func (f *fakeFiles) Remove(category mods.Category, key, location string) error {
	delete(f.locations, entryKey(category, key))
	return nil
}

func (f *fakeFiles) Scan(category mods.Category) ([]filesystem.ScannedEntry, error) {
	var out []filesystem.ScannedEntry
	prefix := string(category) + "/"
	for k, loc := range f.locations {
		if len(k) > len(prefix) && k[:len(prefix)] == prefix {
			out = append(out, filesystem.ScannedEntry{
				Category: category,
				Key:      k[len(prefix):],
				Location: loc,
				Enabled:  !mods.IsDisabledLocation(loc),
			})
		}
	}
	return out, nil
}

// memPersist backs a real load-order controller in memory.
type memPersist struct {
	lines []string
}

func (m *memPersist) ReadOrder() ([]string, error) { return slices.Clone(m.lines), nil }

func (m *memPersist) WriteOrder(lines []string) error {
	m.lines = slices.Clone(lines)
	return nil
}

type recordedChange struct {
	category    mods.Category
	description string
}

type recordingNotifier struct {
	changes []recordedChange
}

func (n *recordingNotifier) OnChanged(category mods.Category, description string) {
	n.changes = append(n.changes, recordedChange{category: category, description: description})
}

type fixture struct {
	engine   *Engine
	registry *fakeRegistry
	files    *fakeFiles
	order    *loadorder.Controller
	persist  *memPersist
	notify   *recordingNotifier
}

func newFixture(t *testing.T, plugins []string, entries ...mods.Entry) *fixture {
	t.Helper()

	persist := &memPersist{lines: plugins}
	order, err := loadorder.NewController(persist, []string{"Oblivion.esm"})
	require.NoError(t, err)

	reg := newFakeRegistry(entries...)
	files := newFakeFiles()
	for _, e := range entries {
		if !e.Category.Ordered() {
			files.put(e.Category, e.Key, e.Location)
		}
	}

	notify := &recordingNotifier{}
	resolver := NewResolver(files, map[mods.Category][]string{
		mods.CategoryPak: {"~merged", "LogicMods"},
	})
	eng := New(reg, files, order, resolver, Options{Notifier: notify})

	return &fixture{engine: eng, registry: reg, files: files, order: order, persist: persist, notify: notify}
}

func int64Ptr(v int64) *int64 { return &v }

func pluginEntry(key string, index int64) mods.Entry {
	return mods.Entry{
		Category:   mods.CategoryPlugin,
		Key:        key,
		Enabled:    true,
		OrderIndex: int64Ptr(index),
	}
}

func TestToggleLeavesGroupIntact(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, nil, mods.Entry{
		Category:  mods.CategoryPak,
		Key:       "Textures.pak",
		GroupPath: []string{"Graphics"},
		Enabled:   true,
		Location:  "Graphics",
	})

	require.NoError(t, fx.engine.Toggle(ctx, mods.CategoryPak, "Textures.pak", false, true))

	entry, err := fx.registry.Get(ctx, mods.CategoryPak, "Textures.pak")
	require.NoError(t, err)
	assert.False(t, entry.Enabled)
	assert.Equal(t, "disabled/Graphics", entry.Location)
	assert.Equal(t, []string{"Graphics"}, entry.GroupPath, "group must survive the toggle")
	assert.True(t, fx.files.Exists(mods.CategoryPak, "Textures.pak", "disabled/Graphics"))
}

func TestToggleUndoRestoresFullState(t *testing.T) {
	ctx := context.Background()
	before := mods.Entry{
		Category:  mods.CategoryPak,
		Key:       "CoolMod.pak",
		GroupPath: []string{"Gameplay", "Combat"},
		Enabled:   true,
		Location:  "",
	}
	fx := newFixture(t, nil, before)

	require.NoError(t, fx.engine.Toggle(ctx, mods.CategoryPak, "CoolMod.pak", false, true))
	desc, err := fx.engine.Undo(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Disable CoolMod.pak", desc)

	after, err := fx.registry.Get(ctx, mods.CategoryPak, "CoolMod.pak")
	require.NoError(t, err)
	assert.Equal(t, before.Enabled, after.Enabled)
	assert.Equal(t, before.Location, after.Location)
	assert.Equal(t, before.GroupPath, after.GroupPath)
	assert.True(t, fx.files.Exists(mods.CategoryPak, "CoolMod.pak", ""))
}

func TestUndoFindsRelocatedFiles(t *testing.T) {
	// The files drift after the action is recorded; the revert must find
	// them through the resolver instead of the recorded location.
	ctx := context.Background()
	fx := newFixture(t, nil, mods.Entry{
		Category: mods.CategoryPak,
		Key:      "Drifter.pak",
		Enabled:  true,
		Location: "",
	})

	require.NoError(t, fx.engine.Toggle(ctx, mods.CategoryPak, "Drifter.pak", false, true))

	// Someone moves the disabled files into a merged area out-of-band.
	fx.files.put(mods.CategoryPak, "Drifter.pak", "~merged")

	_, err := fx.engine.Undo(ctx)
	require.NoError(t, err)
	assert.True(t, fx.files.Exists(mods.CategoryPak, "Drifter.pak", ""))
}

func TestReorderUndoRedoScenario(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, []string{"A.esp", "B.esp", "C.esp"},
		pluginEntry("A.esp", 0), pluginEntry("B.esp", 1), pluginEntry("C.esp", 2))

	require.NoError(t, fx.engine.Reorder(ctx, mods.CategoryPlugin, "C.esp", 0))
	assert.Equal(t, []string{"C.esp", "A.esp", "B.esp"}, fx.order.Active())

	_, err := fx.engine.Undo(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"A.esp", "B.esp", "C.esp"}, fx.order.Active())

	_, err = fx.engine.Redo(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"C.esp", "A.esp", "B.esp"}, fx.order.Active())

	// Unaffected entries carry the exact post-apply indices.
	a, err := fx.registry.Get(ctx, mods.CategoryPlugin, "A.esp")
	require.NoError(t, err)
	require.NotNil(t, a.OrderIndex)
	assert.Equal(t, int64(1), *a.OrderIndex)
	b, err := fx.registry.Get(ctx, mods.CategoryPlugin, "B.esp")
	require.NoError(t, err)
	require.NotNil(t, b.OrderIndex)
	assert.Equal(t, int64(2), *b.OrderIndex)
}

func TestPluginToggleRestoresPosition(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, []string{"A.esp", "B.esp", "C.esp"},
		pluginEntry("A.esp", 0), pluginEntry("B.esp", 1), pluginEntry("C.esp", 2))

	require.NoError(t, fx.engine.Toggle(ctx, mods.CategoryPlugin, "B.esp", false, true))
	assert.Equal(t, []string{"A.esp", "C.esp"}, fx.order.Active())

	b, err := fx.registry.Get(ctx, mods.CategoryPlugin, "B.esp")
	require.NoError(t, err)
	assert.False(t, b.Enabled)
	assert.Nil(t, b.OrderIndex)
	require.NotNil(t, b.RememberedIndex)
	assert.Equal(t, int64(1), *b.RememberedIndex)

	require.NoError(t, fx.engine.Toggle(ctx, mods.CategoryPlugin, "B.esp", true, true))
	assert.Equal(t, []string{"A.esp", "B.esp", "C.esp"}, fx.order.Active())
}

func TestLegacyDisableUndoRestoresOrder(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, []string{"A.esp", "B.esp", "C.esp"},
		pluginEntry("A.esp", 0), pluginEntry("B.esp", 1), pluginEntry("C.esp", 2))

	// Legacy mode discards the slot on disable, but the undo must still
	// put the plugin back exactly where it was, not append it.
	require.NoError(t, fx.engine.Toggle(ctx, mods.CategoryPlugin, "B.esp", false, false))
	assert.Equal(t, []string{"A.esp", "C.esp"}, fx.order.Active())
	assert.Equal(t, []string{"A.esp", "C.esp"}, fx.persist.lines)

	_, err := fx.engine.Undo(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"A.esp", "B.esp", "C.esp"}, fx.order.Active())

	b, err := fx.registry.Get(ctx, mods.CategoryPlugin, "B.esp")
	require.NoError(t, err)
	assert.True(t, b.Enabled)
	require.NotNil(t, b.OrderIndex)
	assert.Equal(t, int64(1), *b.OrderIndex)
	c, err := fx.registry.Get(ctx, mods.CategoryPlugin, "C.esp")
	require.NoError(t, err)
	require.NotNil(t, c.OrderIndex)
	assert.Equal(t, int64(2), *c.OrderIndex)

	_, err = fx.engine.Redo(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"A.esp", "C.esp"}, fx.order.Active())
}

func TestRemoveDisabledPluginDropsInertRow(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, []string{"A.esp", "B.esp"},
		pluginEntry("A.esp", 0), pluginEntry("B.esp", 1))

	require.NoError(t, fx.engine.Toggle(ctx, mods.CategoryPlugin, "B.esp", false, true))
	assert.Contains(t, fx.persist.lines, "#B.esp")

	require.NoError(t, fx.engine.Remove(ctx, mods.CategoryPlugin, "B.esp"))
	assert.Equal(t, []string{"A.esp"}, fx.persist.lines, "inert row must not outlive the entry")

	_, err := fx.registry.Get(ctx, mods.CategoryPlugin, "B.esp")
	assert.ErrorIs(t, err, ErrEntityNotFound)
	require.Len(t, fx.engine.History(), 1, "removal stays outside the history")
}

func TestDisableProtectedPluginRejected(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, []string{"Oblivion.esm", "A.esp"},
		pluginEntry("Oblivion.esm", 0), pluginEntry("A.esp", 1))

	err := fx.engine.Toggle(ctx, mods.CategoryPlugin, "Oblivion.esm", false, true)
	assert.ErrorIs(t, err, ErrProtectedEntity)
	assert.False(t, fx.engine.CanUndo(), "rejected toggle must not enter history")
	assert.Empty(t, fx.notify.changes)
}

func TestToggleNoChangeRejected(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, nil, mods.Entry{
		Category: mods.CategoryPak,
		Key:      "Same.pak",
		Enabled:  true,
	})

	err := fx.engine.Toggle(ctx, mods.CategoryPak, "Same.pak", true, true)
	assert.ErrorIs(t, err, ErrNoChange)
	assert.False(t, fx.engine.CanUndo())
}

func TestRenameRoundTrip(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, nil, mods.Entry{
		Category:    mods.CategoryPak,
		Key:         "Plain.pak",
		DisplayName: "Old Label",
		Enabled:     true,
	})

	require.NoError(t, fx.engine.Rename(ctx, mods.CategoryPak, "Plain.pak", "New Label"))
	entry, err := fx.registry.Get(ctx, mods.CategoryPak, "Plain.pak")
	require.NoError(t, err)
	assert.Equal(t, "New Label", entry.DisplayName)

	_, err = fx.engine.Undo(ctx)
	require.NoError(t, err)
	entry, err = fx.registry.Get(ctx, mods.CategoryPak, "Plain.pak")
	require.NoError(t, err)
	assert.Equal(t, "Old Label", entry.DisplayName)

	assert.ErrorIs(t, fx.engine.Rename(ctx, mods.CategoryPak, "Plain.pak", "Old Label"), ErrNoChange)
}

func TestSetGroupRoundTrip(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, nil, mods.Entry{
		Category:  mods.CategoryPak,
		Key:       "Grouped.pak",
		GroupPath: []string{"Graphics"},
		Enabled:   true,
	})

	require.NoError(t, fx.engine.SetGroup(ctx, mods.CategoryPak, "Grouped.pak", []string{"Gameplay", "Combat"}))
	_, err := fx.engine.Undo(ctx)
	require.NoError(t, err)

	entry, err := fx.registry.Get(ctx, mods.CategoryPak, "Grouped.pak")
	require.NoError(t, err)
	assert.Equal(t, []string{"Graphics"}, entry.GroupPath)
}

func TestBulkToggleIsOneHistoryEntry(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, nil,
		mods.Entry{Category: mods.CategoryPak, Key: "One.pak", Enabled: true},
		mods.Entry{Category: mods.CategoryPak, Key: "Two.pak", Enabled: true},
		mods.Entry{Category: mods.CategoryPak, Key: "Off.pak", Enabled: false, Location: "disabled"},
	)

	require.NoError(t, fx.engine.BulkToggle(ctx, mods.CategoryPak,
		[]string{"One.pak", "Two.pak", "Off.pak"}, false, true))

	records := fx.engine.History()
	require.Len(t, records, 1)
	assert.Equal(t, "Bulk Disable 2 pak mods", records[0].Description)

	desc, err := fx.engine.Undo(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Bulk Disable 2 pak mods", desc)
	for _, key := range []string{"One.pak", "Two.pak"} {
		entry, err := fx.registry.Get(ctx, mods.CategoryPak, key)
		require.NoError(t, err)
		assert.True(t, entry.Enabled, key)
	}
}

func TestBulkToggleAllSkippedIsNoChange(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, nil,
		mods.Entry{Category: mods.CategoryPak, Key: "Off.pak", Enabled: false, Location: "disabled"},
	)

	err := fx.engine.BulkToggle(ctx, mods.CategoryPak, []string{"Off.pak"}, false, true)
	assert.ErrorIs(t, err, ErrNoChange)
}

func TestBulkToggleRollsBackOnPartialFailure(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, nil,
		mods.Entry{Category: mods.CategoryPak, Key: "First.pak", Enabled: true},
		mods.Entry{Category: mods.CategoryPak, Key: "Second.pak", Enabled: true},
	)

	// Second child fails (its files are gone); the first must be rolled
	// back and nothing may enter the history.
	delete(fx.files.locations, entryKey(mods.CategoryPak, "Second.pak"))

	err := fx.engine.BulkToggle(ctx, mods.CategoryPak, []string{"First.pak", "Second.pak"}, false, true)
	require.Error(t, err)
	assert.False(t, fx.engine.CanUndo())

	first, err := fx.registry.Get(ctx, mods.CategoryPak, "First.pak")
	require.NoError(t, err)
	assert.True(t, first.Enabled)
	assert.True(t, fx.files.Exists(mods.CategoryPak, "First.pak", ""))
}

func TestRevertOrderIsSingleAction(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, []string{"B.esp", "A.esp", "#X.esp"},
		pluginEntry("A.esp", 1), pluginEntry("B.esp", 0))

	require.NoError(t, fx.engine.RevertOrder(ctx, mods.CategoryPlugin, []string{"A.esp", "B.esp"}))
	assert.Equal(t, []string{"A.esp", "B.esp"}, fx.order.Active())
	require.Len(t, fx.engine.History(), 1)

	_, err := fx.engine.Undo(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"B.esp", "A.esp"}, fx.order.Active())
	assert.NotNil(t, fx.order.RememberedIndex("X.esp"), "inert row restored with the snapshot")
}

func TestBusyRejection(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, nil, mods.Entry{
		Category: mods.CategoryPak,
		Key:      "Outer.pak",
		Enabled:  true,
	})

	// The notifier fires while the engine lock is held; a re-entrant
	// call must be rejected, not queued.
	var nested error
	fx.engine.notify = notifierFunc(func(mods.Category, string) {
		nested = fx.engine.Rename(ctx, mods.CategoryPak, "Outer.pak", "reentrant")
	})

	require.NoError(t, fx.engine.Toggle(ctx, mods.CategoryPak, "Outer.pak", false, true))
	assert.ErrorIs(t, nested, ErrBusy)
}

type notifierFunc func(mods.Category, string)

func (f notifierFunc) OnChanged(category mods.Category, description string) { f(category, description) }

func TestRemoveIsOutsideHistory(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, nil, mods.Entry{
		Category: mods.CategoryPak,
		Key:      "Doomed.pak",
		Enabled:  true,
	})

	require.NoError(t, fx.engine.Remove(ctx, mods.CategoryPak, "Doomed.pak"))
	assert.False(t, fx.engine.CanUndo())

	_, err := fx.registry.Get(ctx, mods.CategoryPak, "Doomed.pak")
	assert.ErrorIs(t, err, ErrEntityNotFound)
}

func TestNotificationsCarryDescriptions(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, nil, mods.Entry{
		Category: mods.CategoryPak,
		Key:      "Loud.pak",
		Enabled:  true,
	})

	require.NoError(t, fx.engine.Toggle(ctx, mods.CategoryPak, "Loud.pak", false, true))
	_, err := fx.engine.Undo(ctx)
	require.NoError(t, err)

	require.Len(t, fx.notify.changes, 2)
	assert.Equal(t, recordedChange{mods.CategoryPak, "Disable Loud.pak"}, fx.notify.changes[0])
	assert.Equal(t, recordedChange{mods.CategoryPak, "Disable Loud.pak"}, fx.notify.changes[1])
}
