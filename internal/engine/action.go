package engine

import (
	"context"
	"fmt"

	"github.com/modkeep/modkeep/internal/mods"
)

// Action is one atomic, reversible unit of work. Apply and Revert must
// restore every captured field exactly; Describe labels the action in
// the history and in notifications.
type Action interface {
	Apply(ctx context.Context) error
	Revert(ctx context.Context) error
	Describe() string
	Category() mods.Category
}

// deps bundles the collaborators every action mutates through.
type deps struct {
	registry Registry
	files    Relocator
	order    OrderController
	resolver *Resolver
}

// toggleAction enables or disables one entry. For the ordered category
// it flips the entry's load-order row; for the others it relocates the
// backing files between the enabled and disabled trees.
type toggleAction struct {
	d deps

	category mods.Category
	key      string

	oldEnabled bool
	newEnabled bool

	oldLocation string
	newLocation string

	oldIndex      *int64 // active index before a disable, nil otherwise
	rememberedOld *int64 // registry hint captured before apply

	priorOrder []string // full order snapshot, ordered category only

	preservePosition bool
}

func newToggleAction(d deps, entry *mods.Entry, enable, preservePosition bool) *toggleAction {
	a := &toggleAction{
		d:                d,
		category:         entry.Category,
		key:              entry.Key,
		oldEnabled:       entry.Enabled,
		newEnabled:       enable,
		oldLocation:      entry.Location,
		oldIndex:         entry.OrderIndex,
		rememberedOld:    entry.RememberedIndex,
		preservePosition: preservePosition,
	}
	if entry.Category.Ordered() {
		// Plugins stay in place; only their load-order row changes.
		a.newLocation = entry.Location
		a.priorOrder = d.order.Snapshot()
		return a
	}
	if enable {
		a.newLocation, _ = mods.StripDisabledRoot(entry.Location)
	} else {
		a.newLocation = mods.DisabledLocation(entry.Location)
	}
	return a
}

func (a *toggleAction) Apply(ctx context.Context) error {
	if a.category.Ordered() {
		if err := a.d.order.Toggle(a.key, a.newEnabled, a.preservePosition, a.rememberedOld); err != nil {
			return translate(err)
		}
		return a.syncOrderState(ctx, a.newEnabled)
	}
	return a.relocate(ctx, a.oldLocation, a.newLocation, a.newEnabled)
}

// Revert restores the exact pre-action state. The ordered category
// replays the captured order snapshot wholesale, so even a disable that
// discarded its slot comes back at the original position.
func (a *toggleAction) Revert(ctx context.Context) error {
	if a.category.Ordered() {
		if err := a.d.order.Restore(a.priorOrder); err != nil {
			return translate(err)
		}
		if err := a.d.registry.ApplyOrder(ctx, a.category, a.d.order.Active()); err != nil {
			return translate(err)
		}
		return translate(a.d.registry.SetState(ctx, a.category, a.key, a.oldEnabled, a.oldLocation, a.oldIndex, a.rememberedOld))
	}
	return a.relocate(ctx, a.newLocation, a.oldLocation, a.oldEnabled)
}

// relocate performs one direction of a file-backed toggle. expected is
// where the files were last known to be; the resolver finds them if they
// drifted.
func (a *toggleAction) relocate(ctx context.Context, expected, target string, enable bool) error {
	current, err := a.d.resolver.Resolve(a.category, a.key, expected)
	if err != nil {
		return err
	}
	if current != target {
		if err := a.d.files.Relocate(a.category, a.key, current, target); err != nil {
			return err
		}
	}
	if err := a.d.registry.SetState(ctx, a.category, a.key, enable, target, nil, nil); err != nil {
		return translate(err)
	}
	return nil
}

// syncOrderState renumbers the registry's enabled plugins from the
// controller's active sequence and records the toggled entry's own
// enabled flag and remembered index.
func (a *toggleAction) syncOrderState(ctx context.Context, enable bool) error {
	if err := a.d.registry.ApplyOrder(ctx, a.category, a.d.order.Active()); err != nil {
		return translate(err)
	}
	var orderIndex *int64
	if idx, ok := a.d.order.IndexOf(a.key); ok {
		v := int64(idx)
		orderIndex = &v
	}
	remembered := a.d.order.RememberedIndex(a.key)
	if err := a.d.registry.SetState(ctx, a.category, a.key, enable, a.oldLocation, orderIndex, remembered); err != nil {
		return translate(err)
	}
	return nil
}

func (a *toggleAction) Describe() string {
	if a.newEnabled {
		return fmt.Sprintf("Enable %s", a.key)
	}
	return fmt.Sprintf("Disable %s", a.key)
}

func (a *toggleAction) Category() mods.Category { return a.category }

// renameAction changes an entry's display name.
type renameAction struct {
	d deps

	category mods.Category
	key      string
	oldName  string
	newName  string
}

func newRenameAction(d deps, entry *mods.Entry, newName string) *renameAction {
	return &renameAction{
		d:        d,
		category: entry.Category,
		key:      entry.Key,
		oldName:  entry.DisplayName,
		newName:  newName,
	}
}

func (a *renameAction) Apply(ctx context.Context) error {
	return translate(a.d.registry.Rename(ctx, a.category, a.key, a.newName))
}

func (a *renameAction) Revert(ctx context.Context) error {
	return translate(a.d.registry.Rename(ctx, a.category, a.key, a.oldName))
}

func (a *renameAction) Describe() string {
	if a.newName == "" {
		return fmt.Sprintf("Clear name of %s", a.key)
	}
	return fmt.Sprintf("Rename %s to %q", a.key, a.newName)
}

func (a *renameAction) Category() mods.Category { return a.category }

// groupChangeAction moves an entry to another group path.
type groupChangeAction struct {
	d deps

	category mods.Category
	key      string
	oldGroup []string
	newGroup []string
}

func newGroupChangeAction(d deps, entry *mods.Entry, newGroup []string) *groupChangeAction {
	return &groupChangeAction{
		d:        d,
		category: entry.Category,
		key:      entry.Key,
		oldGroup: entry.GroupPath,
		newGroup: newGroup,
	}
}

func (a *groupChangeAction) Apply(ctx context.Context) error {
	return translate(a.d.registry.SetGroup(ctx, a.category, a.key, a.newGroup))
}

func (a *groupChangeAction) Revert(ctx context.Context) error {
	return translate(a.d.registry.SetGroup(ctx, a.category, a.key, a.oldGroup))
}

func (a *groupChangeAction) Describe() string {
	if len(a.newGroup) == 0 {
		return fmt.Sprintf("Ungroup %s", a.key)
	}
	return fmt.Sprintf("Move %s to group %s", a.key, mods.JoinGroup(a.newGroup))
}

func (a *groupChangeAction) Category() mods.Category { return a.category }

// reorderAction moves one plugin to a new load-order position.
type reorderAction struct {
	d deps

	category mods.Category
	key      string
	oldIndex int
	newIndex int
}

func newReorderAction(d deps, category mods.Category, key string, oldIndex, newIndex int) *reorderAction {
	return &reorderAction{
		d:        d,
		category: category,
		key:      key,
		oldIndex: oldIndex,
		newIndex: newIndex,
	}
}

func (a *reorderAction) Apply(ctx context.Context) error {
	return a.move(ctx, a.newIndex)
}

func (a *reorderAction) Revert(ctx context.Context) error {
	return a.move(ctx, a.oldIndex)
}

func (a *reorderAction) move(ctx context.Context, index int) error {
	if err := a.d.order.Reorder(a.key, index); err != nil {
		return translate(err)
	}
	return translate(a.d.registry.ApplyOrder(ctx, a.category, a.d.order.Active()))
}

func (a *reorderAction) Describe() string {
	return fmt.Sprintf("Move %s to position %d", a.key, a.newIndex)
}

func (a *reorderAction) Category() mods.Category { return a.category }

// revertOrderAction replaces the whole load order with a target
// snapshot. Always recorded as one action, never per-entry moves.
type revertOrderAction struct {
	d deps

	category mods.Category
	prior    []string
	target   []string
	label    string
}

func newRevertOrderAction(d deps, category mods.Category, prior, target []string, label string) *revertOrderAction {
	return &revertOrderAction{
		d:        d,
		category: category,
		prior:    prior,
		target:   target,
		label:    label,
	}
}

func (a *revertOrderAction) Apply(ctx context.Context) error {
	return a.restore(ctx, a.target)
}

func (a *revertOrderAction) Revert(ctx context.Context) error {
	return a.restore(ctx, a.prior)
}

func (a *revertOrderAction) restore(ctx context.Context, snapshot []string) error {
	if err := a.d.order.Restore(snapshot); err != nil {
		return translate(err)
	}
	return translate(a.d.registry.ApplyOrder(ctx, a.category, a.d.order.Active()))
}

func (a *revertOrderAction) Describe() string { return a.label }

func (a *revertOrderAction) Category() mods.Category { return a.category }

// compoundAction groups several actions into one history entry. Apply
// rolls back already-applied children when a later one fails, so a
// failed compound never half-commits. Revert is all-or-nothing: it
// stops at the first child that fails to revert.
type compoundAction struct {
	category mods.Category
	children []Action
	label    string
}

func newCompoundAction(category mods.Category, children []Action, label string) *compoundAction {
	return &compoundAction{category: category, children: children, label: label}
}

func (a *compoundAction) Apply(ctx context.Context) error {
	for i, child := range a.children {
		if err := child.Apply(ctx); err != nil {
			for j := i - 1; j >= 0; j-- {
				_ = a.children[j].Revert(ctx)
			}
			return err
		}
	}
	return nil
}

func (a *compoundAction) Revert(ctx context.Context) error {
	for i := len(a.children) - 1; i >= 0; i-- {
		if err := a.children[i].Revert(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (a *compoundAction) Describe() string { return a.label }

func (a *compoundAction) Category() mods.Category { return a.category }
