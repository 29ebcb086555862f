// Package engine is the reversible-operation core: it builds actions
// with captured pre-state, commits them through a bounded undo/redo
// history, and re-resolves entry identity when a revert targets files
// that moved since the action was recorded.
package engine

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/modkeep/modkeep/internal/filesystem"
	"github.com/modkeep/modkeep/internal/mods"
)

// Registry is the metadata store the engine mutates through.
type Registry interface {
	Get(ctx context.Context, category mods.Category, key string) (*mods.Entry, error)
	List(ctx context.Context, category mods.Category) ([]mods.Entry, error)
	Rename(ctx context.Context, category mods.Category, key, displayName string) error
	SetGroup(ctx context.Context, category mods.Category, key string, groupPath []string) error
	SetState(ctx context.Context, category mods.Category, key string, enabled bool, location string, orderIndex, rememberedIndex *int64) error
	ApplyOrder(ctx context.Context, category mods.Category, keys []string) error
	Delete(ctx context.Context, category mods.Category, key string) (bool, error)
}

// Relocator is the physical file layer. Delete is one-way and never
// enters the history.
type Relocator interface {
	Exists(category mods.Category, key, location string) bool
	Relocate(category mods.Category, key, from, to string) error
	Remove(category mods.Category, key, location string) error
	Scan(category mods.Category) ([]filesystem.ScannedEntry, error)
}

// OrderController is the load-order state machine for the ordered category.
type OrderController interface {
	Active() []string
	IndexOf(key string) (int, bool)
	RememberedIndex(key string) *int64
	Protected(key string) bool
	Toggle(key string, enable, preservePosition bool, remembered *int64) error
	Reorder(key string, newIndex int) error
	Remove(key string) error
	Snapshot() []string
	Restore(snapshot []string) error
}

// Notifier is called after every committed mutation so collaborators can
// re-read the registry.
type Notifier interface {
	OnChanged(category mods.Category, description string)
}

type noopNotifier struct{}

func (noopNotifier) OnChanged(mods.Category, string) {}

// Engine drives all mutations. It is a synchronous state machine:
// overlapping calls are rejected with ErrBusy instead of queued.
type Engine struct {
	mu sync.Mutex

	registry Registry
	files    Relocator
	order    OrderController
	resolver *Resolver
	history  *History
	store    HistoryStore
	notify   Notifier
	log      *zap.Logger
}

// Options tunes an Engine beyond its required collaborators.
type Options struct {
	HistoryCap int
	// Store persists the undo history across processes; nil keeps it
	// in memory only.
	Store    HistoryStore
	Notifier Notifier
	Logger   *zap.Logger
}

// New creates an Engine over its collaborators.
func New(reg Registry, files Relocator, order OrderController, resolver *Resolver, opts Options) *Engine {
	notify := opts.Notifier
	if notify == nil {
		notify = noopNotifier{}
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		registry: reg,
		files:    files,
		order:    order,
		resolver: resolver,
		history:  NewHistory(opts.HistoryCap),
		store:    opts.Store,
		notify:   notify,
		log:      log,
	}
}

// LoadHistory rehydrates the undo history from the configured store.
func (e *Engine) LoadHistory(ctx context.Context) error {
	if e.store == nil {
		return nil
	}
	stored, cursor, err := e.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	entries := make([]HistoryEntry, 0, len(stored))
	for _, s := range stored {
		action, err := decodeAction(e.deps(), s.Kind, s.Payload)
		if err != nil {
			return fmt.Errorf("failed to decode history entry %s: %w", s.ID, err)
		}
		entries = append(entries, HistoryEntry{ID: s.ID, Seq: s.Seq, Action: action})
	}
	if cursor < 0 || cursor > len(entries) {
		cursor = len(entries)
	}
	e.history.restore(entries, cursor)
	return nil
}

// persistHistory writes the current stack to the store. The mutation
// already succeeded, so a failed save is logged rather than turned into
// a failure the caller would misread as the operation itself failing.
func (e *Engine) persistHistory(ctx context.Context) {
	if e.store == nil {
		return
	}
	stored := make([]StoredEntry, 0, len(e.history.entries))
	for _, entry := range e.history.entries {
		kind, payload, err := encodeAction(entry.Action)
		if err != nil {
			e.log.Error("failed to encode history entry", zap.Error(err))
			return
		}
		stored = append(stored, StoredEntry{
			ID:          entry.ID,
			Seq:         entry.Seq,
			Kind:        kind,
			Category:    entry.Action.Category(),
			Description: entry.Action.Describe(),
			Payload:     payload,
		})
	}
	if err := e.store.Save(ctx, stored, e.history.Cursor()); err != nil {
		e.log.Error("failed to save history", zap.Error(err))
	}
}

func (e *Engine) deps() deps {
	return deps{registry: e.registry, files: e.files, order: e.order, resolver: e.resolver}
}

// lock acquires the engine's exclusive scope or reports ErrBusy.
func (e *Engine) lock() error {
	if !e.mu.TryLock() {
		return ErrBusy
	}
	return nil
}

// commit runs an action through the history and emits the change
// notification on success.
func (e *Engine) commit(ctx context.Context, action Action) error {
	if err := e.history.Commit(ctx, action); err != nil {
		e.log.Debug("action failed", zap.String("action", action.Describe()), zap.Error(err))
		return err
	}
	e.log.Info("action committed",
		zap.String("action", action.Describe()),
		zap.String("category", string(action.Category())))
	e.persistHistory(ctx)
	e.notify.OnChanged(action.Category(), action.Describe())
	return nil
}

// Toggle enables or disables one entry.
func (e *Engine) Toggle(ctx context.Context, category mods.Category, key string, enable, preservePosition bool) error {
	if err := e.lock(); err != nil {
		return err
	}
	defer e.mu.Unlock()

	action, err := e.buildToggle(ctx, category, key, enable, preservePosition)
	if err != nil {
		return err
	}
	return e.commit(ctx, action)
}

// BulkToggle enables or disables several entries as one undoable action.
// Entries already in the requested state are skipped; if every entry is,
// the call reports ErrNoChange.
func (e *Engine) BulkToggle(ctx context.Context, category mods.Category, keys []string, enable, preservePosition bool) error {
	if err := e.lock(); err != nil {
		return err
	}
	defer e.mu.Unlock()

	var children []Action
	for _, key := range keys {
		action, err := e.buildToggle(ctx, category, key, enable, preservePosition)
		if err != nil {
			if errors.Is(err, ErrNoChange) {
				continue
			}
			return err
		}
		children = append(children, action)
	}
	if len(children) == 0 {
		return ErrNoChange
	}

	verb := "Disable"
	if enable {
		verb = "Enable"
	}
	label := fmt.Sprintf("Bulk %s %d %s mods", verb, len(children), category)
	return e.commit(ctx, newCompoundAction(category, children, label))
}

// buildToggle runs the pre-checks and captures the pre-state for one
// toggle. Callers hold the engine lock.
func (e *Engine) buildToggle(ctx context.Context, category mods.Category, key string, enable, preservePosition bool) (Action, error) {
	entry, err := e.registry.Get(ctx, category, key)
	if err != nil {
		return nil, translate(err)
	}
	if entry.Enabled == enable {
		return nil, ErrNoChange
	}
	if !enable && (entry.Protected || (category.Ordered() && e.order.Protected(key))) {
		return nil, fmt.Errorf("%w: %s", ErrProtectedEntity, key)
	}
	return newToggleAction(e.deps(), entry, enable, preservePosition), nil
}

// Rename sets an entry's display name. Empty clears it.
func (e *Engine) Rename(ctx context.Context, category mods.Category, key, newName string) error {
	if err := e.lock(); err != nil {
		return err
	}
	defer e.mu.Unlock()

	entry, err := e.registry.Get(ctx, category, key)
	if err != nil {
		return translate(err)
	}
	if entry.DisplayName == newName {
		return ErrNoChange
	}
	return e.commit(ctx, newRenameAction(e.deps(), entry, newName))
}

// SetGroup moves an entry to another group path. Empty ungroups it.
func (e *Engine) SetGroup(ctx context.Context, category mods.Category, key string, groupPath []string) error {
	if err := e.lock(); err != nil {
		return err
	}
	defer e.mu.Unlock()

	entry, err := e.registry.Get(ctx, category, key)
	if err != nil {
		return translate(err)
	}
	if slices.Equal(entry.GroupPath, groupPath) {
		return ErrNoChange
	}
	return e.commit(ctx, newGroupChangeAction(e.deps(), entry, groupPath))
}

// Reorder moves an enabled plugin to a new load-order position.
func (e *Engine) Reorder(ctx context.Context, category mods.Category, key string, newIndex int) error {
	if err := e.lock(); err != nil {
		return err
	}
	defer e.mu.Unlock()

	if !category.Ordered() {
		return fmt.Errorf("category %s carries no load order", category)
	}
	if _, err := e.registry.Get(ctx, category, key); err != nil {
		return translate(err)
	}
	oldIndex, ok := e.order.IndexOf(key)
	if !ok {
		return fmt.Errorf("%w: %s is not enabled", ErrEntityNotFound, key)
	}
	if oldIndex == newIndex {
		return ErrNoChange
	}
	return e.commit(ctx, newReorderAction(e.deps(), category, key, oldIndex, newIndex))
}

// RevertOrder replaces the whole load order with the target lines as a
// single undoable action.
func (e *Engine) RevertOrder(ctx context.Context, category mods.Category, target []string) error {
	if err := e.lock(); err != nil {
		return err
	}
	defer e.mu.Unlock()

	if !category.Ordered() {
		return fmt.Errorf("category %s carries no load order", category)
	}
	prior := e.order.Snapshot()
	if slices.Equal(prior, target) {
		return ErrNoChange
	}
	action := newRevertOrderAction(e.deps(), category, prior, target, "Revert load order to default")
	return e.commit(ctx, action)
}

// Undo reverts the most recent action and returns its description.
func (e *Engine) Undo(ctx context.Context) (string, error) {
	if err := e.lock(); err != nil {
		return "", err
	}
	defer e.mu.Unlock()

	action, err := e.history.Undo(ctx)
	if err != nil {
		return "", err
	}
	desc := action.Describe()
	e.log.Info("action undone", zap.String("action", desc))
	e.persistHistory(ctx)
	e.notify.OnChanged(action.Category(), desc)
	return desc, nil
}

// Redo re-applies the most recently undone action.
func (e *Engine) Redo(ctx context.Context) (string, error) {
	if err := e.lock(); err != nil {
		return "", err
	}
	defer e.mu.Unlock()

	action, err := e.history.Redo(ctx)
	if err != nil {
		return "", err
	}
	desc := action.Describe()
	e.log.Info("action redone", zap.String("action", desc))
	e.persistHistory(ctx)
	e.notify.OnChanged(action.Category(), desc)
	return desc, nil
}

// CanUndo reports whether an action can be undone.
func (e *Engine) CanUndo() bool { return e.history.CanUndo() }

// CanRedo reports whether an undone action can be re-applied.
func (e *Engine) CanRedo() bool { return e.history.CanRedo() }

// History lists the recorded actions in commit order.
func (e *Engine) History() []Record { return e.history.Records() }

// Remove deletes an entry's files and registry row. This is one-way and
// deliberately outside the undo history.
func (e *Engine) Remove(ctx context.Context, category mods.Category, key string) error {
	if err := e.lock(); err != nil {
		return err
	}
	defer e.mu.Unlock()

	entry, err := e.registry.Get(ctx, category, key)
	if err != nil {
		return translate(err)
	}
	if entry.Protected || (category.Ordered() && e.order.Protected(key)) {
		return fmt.Errorf("%w: %s", ErrProtectedEntity, key)
	}

	if category.Ordered() {
		// Drop the row whether it is active or inert; a removed plugin
		// must leave no trace in the persisted order.
		if err := e.order.Remove(key); err != nil {
			return translate(err)
		}
		if err := e.registry.ApplyOrder(ctx, category, e.order.Active()); err != nil {
			return translate(err)
		}
	}
	if err := e.files.Remove(category, key, entry.Location); err != nil {
		return err
	}
	if _, err := e.registry.Delete(ctx, category, key); err != nil {
		return translate(err)
	}

	desc := fmt.Sprintf("Remove %s", key)
	e.log.Info("entry removed", zap.String("key", key), zap.String("category", string(category)))
	e.notify.OnChanged(category, desc)
	return nil
}
