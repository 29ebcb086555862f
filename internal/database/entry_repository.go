package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sqldb "github.com/modkeep/modkeep/internal/database/sqlc"

	"github.com/modkeep/modkeep/internal/mods"
)

// EntryRepository exposes row-level access to the entries table.
type EntryRepository struct {
	ctx *Context
}

// NewEntryRepository creates a repository bound to the given database context.
func NewEntryRepository(dbCtx *Context) *EntryRepository {
	return &EntryRepository{ctx: dbCtx}
}

// FindByKey returns the entry for (category, key) or ErrNotFound.
func (r *EntryRepository) FindByKey(ctx context.Context, category mods.Category, key string) (*mods.Entry, error) {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return nil, fmt.Errorf("entry repository: missing database context")
	}

	row, err := queries.FindEntryByCategoryAndKey(ctx, sqldb.FindEntryByCategoryAndKeyParams{
		Category: string(category),
		Key:      key,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	entry := mapEntryRow(row)
	return &entry, nil
}

// ListByCategory returns every entry in a category, sorted by key.
func (r *EntryRepository) ListByCategory(ctx context.Context, category mods.Category) ([]mods.Entry, error) {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return nil, fmt.Errorf("entry repository: missing database context")
	}

	rows, err := queries.ListEntriesByCategory(ctx, string(category))
	if err != nil {
		return nil, err
	}

	result := make([]mods.Entry, 0, len(rows))
	for _, row := range rows {
		result = append(result, mapEntryRow(row))
	}
	return result, nil
}

// ListEnabledOrdered returns the enabled, order-bearing entries of a
// category sorted by their order index.
func (r *EntryRepository) ListEnabledOrdered(ctx context.Context, category mods.Category) ([]mods.Entry, error) {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return nil, fmt.Errorf("entry repository: missing database context")
	}

	rows, err := queries.ListEnabledOrdered(ctx, string(category))
	if err != nil {
		return nil, err
	}

	result := make([]mods.Entry, 0, len(rows))
	for _, row := range rows {
		result = append(result, mapEntryRow(row))
	}
	return result, nil
}

// Create inserts a new entry and returns its row ID.
func (r *EntryRepository) Create(ctx context.Context, entry mods.Entry) (int64, error) {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return 0, fmt.Errorf("entry repository: missing database context")
	}

	res, err := queries.InsertEntry(ctx, insertParams(entry))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// UpdateDisplayName sets the display name (empty clears it back to the key fallback).
func (r *EntryRepository) UpdateDisplayName(ctx context.Context, id int64, displayName string) error {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return fmt.Errorf("entry repository: missing database context")
	}

	affected, err := queries.UpdateEntryDisplayName(ctx, sqldb.UpdateEntryDisplayNameParams{
		DisplayName: nullString(displayName),
		ID:          id,
	})
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateGroupPath sets the group path.
func (r *EntryRepository) UpdateGroupPath(ctx context.Context, id int64, groupPath []string) error {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return fmt.Errorf("entry repository: missing database context")
	}

	affected, err := queries.UpdateEntryGroupPath(ctx, sqldb.UpdateEntryGroupPathParams{
		GroupPath: mods.JoinGroup(groupPath),
		ID:        id,
	})
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateState sets the activation-related columns in one statement so a
// toggle never leaves enabled/location/index torn between rows.
func (r *EntryRepository) UpdateState(ctx context.Context, id int64, enabled bool, location string, orderIndex, rememberedIndex *int64) error {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return fmt.Errorf("entry repository: missing database context")
	}

	affected, err := queries.UpdateEntryState(ctx, sqldb.UpdateEntryStateParams{
		Enabled:         boolToInt64(enabled),
		Location:        location,
		OrderIndex:      nullInt64Ptr(orderIndex),
		RememberedIndex: nullInt64Ptr(rememberedIndex),
		ID:              id,
	})
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an entry row and reports whether anything was deleted.
func (r *EntryRepository) Delete(ctx context.Context, id int64) (bool, error) {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return false, fmt.Errorf("entry repository: missing database context")
	}

	affected, err := queries.DeleteEntryByID(ctx, id)
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
