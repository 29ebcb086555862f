// Package loadorder owns the ordered sequence of enabled plugins and its
// persisted representation. Every transition rewrites the file atomically
// before the in-memory state is committed.
package loadorder

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var (
	// ErrProtected is returned when disabling a protected default plugin.
	ErrProtected = errors.New("load order: plugin is protected")
	// ErrNotListed is returned when the named plugin has no row.
	ErrNotListed = errors.New("load order: plugin not listed")
	// ErrAlreadyActive is returned when enabling a plugin that is active.
	ErrAlreadyActive = errors.New("load order: plugin already active")
	// ErrIndexRange is returned for a reorder target outside [0, active count).
	ErrIndexRange = errors.New("load order: index out of range")
	// ErrPersist wraps a failed durable write; the in-memory order is
	// rolled back whenever it is returned.
	ErrPersist = errors.New("load order: persist failed")
)

// DefaultProtected lists the shipped game masters that must stay enabled.
var DefaultProtected = []string{
	"Oblivion.esm",
	"DLCBattlehornCastle.esp",
	"DLCFrostcrag.esp",
	"DLCHorseArmor.esp",
	"DLCMehrunesRazor.esp",
	"DLCOrrery.esp",
	"DLCShiveringIsles.esp",
	"DLCSpellTomes.esp",
	"DLCThievesDen.esp",
	"DLCVileLair.esp",
	"Knights.esp",
	"AltarESPMain.esp",
	"AltarDeluxe.esp",
	"AltarESPLocal.esp",
}

// Row is one line of the order file. Inert rows belong to disabled
// plugins whose slot is kept so the other positions stay stable.
type Row struct {
	Name  string
	Inert bool
}

// Controller is the state machine over the ordered category.
type Controller struct {
	persist   Persistence
	rows      []Row
	protected map[string]bool
}

// NewController loads the persisted order and returns a controller over
// it. Protected names may not be disabled; nil means DefaultProtected.
func NewController(persist Persistence, protected []string) (*Controller, error) {
	lines, err := persist.ReadOrder()
	if err != nil {
		return nil, err
	}
	if protected == nil {
		protected = DefaultProtected
	}
	set := make(map[string]bool, len(protected))
	for _, name := range protected {
		set[name] = true
	}
	return &Controller{
		persist:   persist,
		rows:      parseRows(lines),
		protected: set,
	}, nil
}

func parseRows(lines []string) []Row {
	rows := make([]Row, 0, len(lines))
	for _, line := range lines {
		if name, ok := strings.CutPrefix(line, "#"); ok {
			rows = append(rows, Row{Name: strings.TrimSpace(name), Inert: true})
			continue
		}
		rows = append(rows, Row{Name: line})
	}
	return rows
}

func renderRows(rows []Row) []string {
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		if row.Inert {
			lines = append(lines, "#"+row.Name)
			continue
		}
		lines = append(lines, row.Name)
	}
	return lines
}

// Active returns the enabled plugin names in order.
func (c *Controller) Active() []string {
	var names []string
	for _, row := range c.rows {
		if !row.Inert {
			names = append(names, row.Name)
		}
	}
	return names
}

// Rows returns a copy of every row, inert ones included.
func (c *Controller) Rows() []Row {
	return slices.Clone(c.rows)
}

// Snapshot captures the full persisted representation for a later Restore.
func (c *Controller) Snapshot() []string {
	return renderRows(c.rows)
}

// IndexOf returns the active index of a plugin, or false when it is not
// active.
func (c *Controller) IndexOf(key string) (int, bool) {
	idx := 0
	for _, row := range c.rows {
		if row.Inert {
			continue
		}
		if row.Name == key {
			return idx, true
		}
		idx++
	}
	return 0, false
}

// RememberedIndex returns the active index an inert row would re-enter
// at, or nil when the plugin has no inert row.
func (c *Controller) RememberedIndex(key string) *int64 {
	idx := int64(0)
	for _, row := range c.rows {
		if row.Inert {
			if row.Name == key {
				return &idx
			}
			continue
		}
		idx++
	}
	return nil
}

// Protected reports whether the plugin must remain enabled.
func (c *Controller) Protected(key string) bool {
	return c.protected[key]
}

// Toggle enables or disables a plugin.
//
// Disabling with preservePosition marks the row inert in place; without
// it (legacy mode) the row is removed entirely. Enabling flips an inert
// row back in place, or re-inserts at the remembered index when one is
// supplied and still in range, otherwise appends at the end.
func (c *Controller) Toggle(key string, enable, preservePosition bool, remembered *int64) error {
	if !enable && c.protected[key] {
		return fmt.Errorf("%w: %s", ErrProtected, key)
	}

	rows := slices.Clone(c.rows)

	if !enable {
		pos := slices.IndexFunc(rows, func(r Row) bool { return !r.Inert && r.Name == key })
		if pos < 0 {
			return fmt.Errorf("%w: %s", ErrNotListed, key)
		}
		if preservePosition {
			rows[pos].Inert = true
		} else {
			rows = slices.Delete(rows, pos, pos+1)
		}
		return c.commit(rows)
	}

	if slices.ContainsFunc(rows, func(r Row) bool { return !r.Inert && r.Name == key }) {
		return fmt.Errorf("%w: %s", ErrAlreadyActive, key)
	}

	if pos := slices.IndexFunc(rows, func(r Row) bool { return r.Inert && r.Name == key }); pos >= 0 {
		if preservePosition {
			rows[pos].Inert = false
			return c.commit(rows)
		}
		rows = slices.Delete(rows, pos, pos+1)
		rows = append(rows, Row{Name: key})
		return c.commit(rows)
	}

	activeCount := 0
	for _, row := range rows {
		if !row.Inert {
			activeCount++
		}
	}
	if preservePosition && remembered != nil && *remembered >= 0 && int(*remembered) < activeCount {
		rows = insertAtActiveIndex(rows, Row{Name: key}, int(*remembered))
		return c.commit(rows)
	}
	rows = append(rows, Row{Name: key})
	return c.commit(rows)
}

// Remove drops the plugin's row entirely, active or inert, so a deleted
// plugin leaves no trace in the order file. Removing an unlisted name is
// a no-op.
func (c *Controller) Remove(key string) error {
	if c.protected[key] {
		return fmt.Errorf("%w: %s", ErrProtected, key)
	}
	pos := slices.IndexFunc(c.rows, func(r Row) bool { return r.Name == key })
	if pos < 0 {
		return nil
	}
	rows := slices.Clone(c.rows)
	rows = slices.Delete(rows, pos, pos+1)
	return c.commit(rows)
}

// Reorder moves an active plugin to newIndex within [0, active count)
// and keeps inert rows anchored to their slots.
func (c *Controller) Reorder(key string, newIndex int) error {
	names := c.Active()
	pos := slices.Index(names, key)
	if pos < 0 {
		return fmt.Errorf("%w: %s", ErrNotListed, key)
	}
	if newIndex < 0 || newIndex >= len(names) {
		return fmt.Errorf("%w: %d (have %d active plugins)", ErrIndexRange, newIndex, len(names))
	}

	names = slices.Delete(names, pos, pos+1)
	names = slices.Insert(names, newIndex, key)

	rows := slices.Clone(c.rows)
	i := 0
	for j := range rows {
		if !rows[j].Inert {
			rows[j].Name = names[i]
			i++
		}
	}
	return c.commit(rows)
}

// Restore replaces the full order with a previously captured snapshot.
func (c *Controller) Restore(snapshot []string) error {
	return c.commit(parseRows(snapshot))
}

// commit persists the candidate rows and only then swaps them in. A
// failed write leaves the in-memory state untouched.
func (c *Controller) commit(rows []Row) error {
	if err := c.persist.WriteOrder(renderRows(rows)); err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	c.rows = rows
	return nil
}

func insertAtActiveIndex(rows []Row, row Row, index int) []Row {
	idx := 0
	for j := range rows {
		if rows[j].Inert {
			continue
		}
		if idx == index {
			return slices.Insert(rows, j, row)
		}
		idx++
	}
	return append(rows, row)
}
