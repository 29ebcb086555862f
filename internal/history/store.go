// Package history persists the engine's undo stack in the registry
// database so it survives across invocations.
package history

import (
	"context"
	"fmt"

	"github.com/modkeep/modkeep/internal/database"
	sqldb "github.com/modkeep/modkeep/internal/database/sqlc"
	"github.com/modkeep/modkeep/internal/engine"
	"github.com/modkeep/modkeep/internal/mods"
)

// Store implements engine.HistoryStore over the history tables.
type Store struct {
	ctx *database.Context
}

// NewStore creates a Store over an open database context.
func NewStore(dbCtx *database.Context) *Store {
	return &Store{ctx: dbCtx}
}

// Load reads the stored stack and cursor. A missing cursor means no
// history was ever saved; the caller treats everything as applied.
func (s *Store) Load(ctx context.Context) ([]engine.StoredEntry, int, error) {
	rows, err := s.ctx.Queries.ListHistoryEntries(ctx)
	if err != nil {
		return nil, 0, err
	}
	entries := make([]engine.StoredEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, engine.StoredEntry{
			ID:          row.Uid,
			Seq:         int(row.Seq),
			Kind:        row.Kind,
			Category:    mods.Category(row.Category),
			Description: row.Description,
			Payload:     []byte(row.Payload),
		})
	}

	cursor, err := s.ctx.Queries.GetHistoryCursor(ctx)
	if err != nil {
		return nil, 0, err
	}
	if cursor < 0 {
		cursor = int64(len(entries))
	}
	return entries, int(cursor), nil
}

// Save replaces the stored stack and cursor in one transaction.
func (s *Store) Save(ctx context.Context, entries []engine.StoredEntry, cursor int) error {
	if s.ctx == nil || s.ctx.DB == nil {
		return fmt.Errorf("history: missing database context")
	}

	tx, err := s.ctx.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	queries := s.ctx.Queries
	if queries == nil {
		queries = sqldb.New(s.ctx.DB)
	}
	queries = queries.WithTx(tx)

	save := func() error {
		if err := queries.DeleteAllHistoryEntries(ctx); err != nil {
			return err
		}
		for _, entry := range entries {
			if err := queries.InsertHistoryEntry(ctx, sqldb.InsertHistoryEntryParams{
				Uid:         entry.ID,
				Seq:         int64(entry.Seq),
				Kind:        entry.Kind,
				Category:    string(entry.Category),
				Description: entry.Description,
				Payload:     string(entry.Payload),
			}); err != nil {
				return err
			}
		}
		return queries.SetHistoryCursor(ctx, int64(cursor))
	}

	if err := save(); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		_ = tx.Rollback()
		return err
	}
	return nil
}
