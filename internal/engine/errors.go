package engine

import (
	"errors"
	"fmt"

	"github.com/modkeep/modkeep/internal/loadorder"
	"github.com/modkeep/modkeep/internal/registry"
)

var (
	// ErrEntityNotFound means identity resolution exhausted every fallback.
	ErrEntityNotFound = errors.New("entity not found")
	// ErrProtectedEntity means the operation is forbidden on a protected entry.
	ErrProtectedEntity = errors.New("entity is protected")
	// ErrPersistence means a durable write failed; no state was mutated.
	ErrPersistence = errors.New("persistence failed")
	// ErrBusy means another engine call was mid-flight.
	ErrBusy = errors.New("engine is busy")
	// ErrNothingToUndo means the history cursor is at the beginning.
	ErrNothingToUndo = errors.New("nothing to undo")
	// ErrNothingToRedo means the history cursor is at the end.
	ErrNothingToRedo = errors.New("nothing to redo")
	// ErrNoChange means the requested post-state equals the pre-state.
	ErrNoChange = errors.New("no change")
)

// translate maps collaborator sentinels onto the engine's taxonomy so
// callers only ever match engine errors.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, loadorder.ErrProtected):
		return fmt.Errorf("%w: %w", ErrProtectedEntity, err)
	case errors.Is(err, loadorder.ErrPersist):
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	case errors.Is(err, loadorder.ErrNotListed), errors.Is(err, registry.ErrNotFound):
		return fmt.Errorf("%w: %w", ErrEntityNotFound, err)
	default:
		return err
	}
}
