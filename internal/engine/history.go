package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// DefaultHistoryCap bounds the undo history unless overridden.
const DefaultHistoryCap = 50

// HistoryEntry wraps a committed action with its identity and commit order.
type HistoryEntry struct {
	ID     string
	Seq    int
	Action Action
}

// History is the bounded undo/redo stack. The cursor counts how many
// entries are currently applied: entries[0:cursor] can be undone,
// entries[cursor:] can be redone.
type History struct {
	entries []HistoryEntry
	cursor  int
	cap     int
	nextSeq int
}

// NewHistory creates a history bounded at cap entries; cap <= 0 selects
// DefaultHistoryCap.
func NewHistory(cap int) *History {
	if cap <= 0 {
		cap = DefaultHistoryCap
	}
	return &History{cap: cap}
}

// Commit applies the action and records it. The stale redo tail is
// discarded first; when the history exceeds its cap the oldest entry is
// evicted for good. A failed apply leaves the history untouched.
func (h *History) Commit(ctx context.Context, action Action) error {
	if err := action.Apply(ctx); err != nil {
		return err
	}

	h.entries = h.entries[:h.cursor]
	h.nextSeq++
	h.entries = append(h.entries, HistoryEntry{
		ID:     uuid.NewString(),
		Seq:    h.nextSeq,
		Action: action,
	})
	h.cursor++

	if len(h.entries) > h.cap {
		over := len(h.entries) - h.cap
		h.entries = h.entries[over:]
		h.cursor -= over
	}
	return nil
}

// Undo reverts the most recent applied action and returns it. A failed
// revert leaves the cursor where it was, so the stack never claims an
// action was undone unless it actually was.
func (h *History) Undo(ctx context.Context) (Action, error) {
	if h.cursor == 0 {
		return nil, ErrNothingToUndo
	}
	entry := h.entries[h.cursor-1]
	if err := entry.Action.Revert(ctx); err != nil {
		return nil, fmt.Errorf("undo %s: %w", entry.Action.Describe(), err)
	}
	h.cursor--
	return entry.Action, nil
}

// Redo re-applies the next undone action and returns it.
func (h *History) Redo(ctx context.Context) (Action, error) {
	if h.cursor >= len(h.entries) {
		return nil, ErrNothingToRedo
	}
	entry := h.entries[h.cursor]
	if err := entry.Action.Apply(ctx); err != nil {
		return nil, fmt.Errorf("redo %s: %w", entry.Action.Describe(), err)
	}
	h.cursor++
	return entry.Action, nil
}

// CanUndo reports whether any applied action remains.
func (h *History) CanUndo() bool { return h.cursor > 0 }

// CanRedo reports whether an undone action can be re-applied.
func (h *History) CanRedo() bool { return h.cursor < len(h.entries) }

// Len returns the number of recorded entries.
func (h *History) Len() int { return len(h.entries) }

// Cursor returns the number of currently applied entries.
func (h *History) Cursor() int { return h.cursor }

// Record is a read-only view of one history entry.
type Record struct {
	ID          string
	Seq         int
	Description string
	Applied     bool
}

// restore replaces the history contents, used when rehydrating from a
// HistoryStore.
func (h *History) restore(entries []HistoryEntry, cursor int) {
	h.entries = entries
	h.cursor = cursor
	h.nextSeq = 0
	for _, e := range entries {
		if e.Seq > h.nextSeq {
			h.nextSeq = e.Seq
		}
	}
}

// Records lists the history in commit order.
func (h *History) Records() []Record {
	records := make([]Record, 0, len(h.entries))
	for i, entry := range h.entries {
		records = append(records, Record{
			ID:          entry.ID,
			Seq:         entry.Seq,
			Description: entry.Action.Describe(),
			Applied:     i < h.cursor,
		})
	}
	return records
}
