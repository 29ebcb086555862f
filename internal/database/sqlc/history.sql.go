package sqldb

import (
	"context"
	"database/sql"
	"errors"
)

// HistoryEntry mirrors a row of the history table.
type HistoryEntry struct {
	ID          int64
	Uid         string
	Seq         int64
	Kind        string
	Category    string
	Description string
	Payload     string
	CreatedAt   sql.NullTime
}

const listHistoryEntries = `SELECT id, uid, seq, kind, category, description, payload, created_at FROM history ORDER BY seq`

func (q *Queries) ListHistoryEntries(ctx context.Context) ([]HistoryEntry, error) {
	rows, err := q.db.QueryContext(ctx, listHistoryEntries)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		if err := rows.Scan(&e.ID, &e.Uid, &e.Seq, &e.Kind, &e.Category, &e.Description, &e.Payload, &e.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

const insertHistoryEntry = `INSERT INTO history (uid, seq, kind, category, description, payload)
VALUES (?, ?, ?, ?, ?, ?)`

type InsertHistoryEntryParams struct {
	Uid         string
	Seq         int64
	Kind        string
	Category    string
	Description string
	Payload     string
}

func (q *Queries) InsertHistoryEntry(ctx context.Context, arg InsertHistoryEntryParams) error {
	_, err := q.db.ExecContext(ctx, insertHistoryEntry,
		arg.Uid, arg.Seq, arg.Kind, arg.Category, arg.Description, arg.Payload)
	return err
}

const deleteAllHistoryEntries = `DELETE FROM history`

func (q *Queries) DeleteAllHistoryEntries(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteAllHistoryEntries)
	return err
}

const getHistoryCursor = `SELECT cursor FROM history_state WHERE id = 1`

// GetHistoryCursor returns the stored cursor, or -1 when none was saved yet.
func (q *Queries) GetHistoryCursor(ctx context.Context) (int64, error) {
	var cursor int64
	err := q.db.QueryRowContext(ctx, getHistoryCursor).Scan(&cursor)
	if errors.Is(err, sql.ErrNoRows) {
		return -1, nil
	}
	return cursor, err
}

const setHistoryCursor = `INSERT INTO history_state (id, cursor) VALUES (1, ?)
ON CONFLICT (id) DO UPDATE SET cursor = excluded.cursor`

func (q *Queries) SetHistoryCursor(ctx context.Context, cursor int64) error {
	_, err := q.db.ExecContext(ctx, setHistoryCursor, cursor)
	return err
}
