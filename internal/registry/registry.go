// Package registry is the single source of truth for entry metadata.
// Every other component reads and writes entries through it.
package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/modkeep/modkeep/internal/database"
	sqldb "github.com/modkeep/modkeep/internal/database/sqlc"

	"github.com/modkeep/modkeep/internal/mods"
)

// ErrNotFound is returned when a requested entry is not found.
var ErrNotFound = errors.New("entry not found")

// Service exposes high-level registry operations over the entries table.
type Service struct {
	ctx  *database.Context
	repo *database.EntryRepository
}

// NewService creates a new registry Service.
func NewService(dbCtx *database.Context) *Service {
	return &Service{
		ctx:  dbCtx,
		repo: database.NewEntryRepository(dbCtx),
	}
}

// Get retrieves the entry for (category, key).
func (s *Service) Get(ctx context.Context, category mods.Category, key string) (*mods.Entry, error) {
	entry, err := s.repo.FindByKey(ctx, category, key)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return entry, nil
}

// List retrieves every entry in a category.
func (s *Service) List(ctx context.Context, category mods.Category) ([]mods.Entry, error) {
	return s.repo.ListByCategory(ctx, category)
}

// ListEnabledOrdered retrieves the enabled order-bearing entries sorted
// by index.
func (s *Service) ListEnabledOrdered(ctx context.Context, category mods.Category) ([]mods.Entry, error) {
	return s.repo.ListEnabledOrdered(ctx, category)
}

// Register inserts a discovered entry. The (category, key) pair must be
// unique; a second live entry with the same key is rejected by the
// schema constraint.
func (s *Service) Register(ctx context.Context, entry mods.Entry) (int64, error) {
	if !entry.Category.Valid() {
		return 0, fmt.Errorf("registry: unknown category %q", entry.Category)
	}
	if entry.Key == "" {
		return 0, fmt.Errorf("registry: empty key")
	}
	return s.repo.Create(ctx, entry)
}

// Rename sets the display name for (category, key). An empty name clears
// the label so the entry falls back to its file name.
func (s *Service) Rename(ctx context.Context, category mods.Category, key, displayName string) error {
	entry, err := s.Get(ctx, category, key)
	if err != nil {
		return err
	}
	return s.repo.UpdateDisplayName(ctx, entry.ID, displayName)
}

// SetGroup sets the group path for (category, key).
func (s *Service) SetGroup(ctx context.Context, category mods.Category, key string, groupPath []string) error {
	entry, err := s.Get(ctx, category, key)
	if err != nil {
		return err
	}
	return s.repo.UpdateGroupPath(ctx, entry.ID, groupPath)
}

// SetState updates the activation columns of (category, key) in one
// statement: enabled flag, physical location, order index, and the
// remembered-index hint.
func (s *Service) SetState(ctx context.Context, category mods.Category, key string, enabled bool, location string, orderIndex, rememberedIndex *int64) error {
	entry, err := s.Get(ctx, category, key)
	if err != nil {
		return err
	}
	return s.repo.UpdateState(ctx, entry.ID, enabled, location, orderIndex, rememberedIndex)
}

// ApplyOrder renumbers the enabled entries of an ordered category so
// their indices form the dense permutation given by keys. Runs in a
// single transaction so a partial renumber can never be observed.
func (s *Service) ApplyOrder(ctx context.Context, category mods.Category, keys []string) error {
	return s.withTx(ctx, func(txCtx context.Context, q *sqldb.Queries) error {
		for i, key := range keys {
			row, err := q.FindEntryByCategoryAndKey(txCtx, sqldb.FindEntryByCategoryAndKeyParams{
				Category: string(category),
				Key:      key,
			})
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return fmt.Errorf("%w: %s", ErrNotFound, key)
				}
				return err
			}
			if _, err := q.UpdateEntryOrderIndex(txCtx, sqldb.UpdateEntryOrderIndexParams{
				OrderIndex: sql.NullInt64{Int64: int64(i), Valid: true},
				ID:         row.ID,
			}); err != nil {
				return err
			}
		}
		return nil
	})
}

// Reset drops every entry row. Used by a full rebuild, where the
// registry is repopulated from the files on disk afterwards.
func (s *Service) Reset(ctx context.Context) error {
	q := sqldb.New(s.ctx.DB)
	return q.DeleteAllEntries(ctx)
}

// Delete removes the entry row for (category, key). Deletion is one-way
// and never enters the undo history.
func (s *Service) Delete(ctx context.Context, category mods.Category, key string) (bool, error) {
	entry, err := s.Get(ctx, category, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return s.repo.Delete(ctx, entry.ID)
}

func (s *Service) withTx(ctx context.Context, fn func(context.Context, *sqldb.Queries) error) error {
	if s.ctx == nil || s.ctx.DB == nil {
		return fmt.Errorf("registry: missing database context")
	}

	tx, err := s.ctx.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	queries := sqldb.New(tx)

	if err := fn(ctx, queries); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		_ = tx.Rollback()
		return err
	}

	return nil
}
