package sqldb

import (
	"context"
	"database/sql"
)

// Entry mirrors a row of the entries table.
type Entry struct {
	ID              int64
	Category        string
	Key             string
	DisplayName     sql.NullString
	GroupPath       string
	Enabled         int64
	Location        string
	OrderIndex      sql.NullInt64
	RememberedIndex sql.NullInt64
	Protected       int64
	CreatedAt       sql.NullTime
}

const entryColumns = `id, category, key, display_name, group_path, enabled, location, order_index, remembered_index, protected, created_at`

func scanEntry(row *sql.Row) (Entry, error) {
	var e Entry
	err := row.Scan(&e.ID, &e.Category, &e.Key, &e.DisplayName, &e.GroupPath, &e.Enabled, &e.Location, &e.OrderIndex, &e.RememberedIndex, &e.Protected, &e.CreatedAt)
	return e, err
}

const findEntryByCategoryAndKey = `SELECT ` + entryColumns + ` FROM entries WHERE category = ? AND key = ?`

type FindEntryByCategoryAndKeyParams struct {
	Category string
	Key      string
}

func (q *Queries) FindEntryByCategoryAndKey(ctx context.Context, arg FindEntryByCategoryAndKeyParams) (Entry, error) {
	return scanEntry(q.db.QueryRowContext(ctx, findEntryByCategoryAndKey, arg.Category, arg.Key))
}

const listEntriesByCategory = `SELECT ` + entryColumns + ` FROM entries WHERE category = ? ORDER BY key`

func (q *Queries) ListEntriesByCategory(ctx context.Context, category string) ([]Entry, error) {
	rows, err := q.db.QueryContext(ctx, listEntriesByCategory, category)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Category, &e.Key, &e.DisplayName, &e.GroupPath, &e.Enabled, &e.Location, &e.OrderIndex, &e.RememberedIndex, &e.Protected, &e.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

const listEnabledOrdered = `SELECT ` + entryColumns + ` FROM entries WHERE category = ? AND enabled = 1 AND order_index IS NOT NULL ORDER BY order_index`

func (q *Queries) ListEnabledOrdered(ctx context.Context, category string) ([]Entry, error) {
	rows, err := q.db.QueryContext(ctx, listEnabledOrdered, category)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Category, &e.Key, &e.DisplayName, &e.GroupPath, &e.Enabled, &e.Location, &e.OrderIndex, &e.RememberedIndex, &e.Protected, &e.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

const insertEntry = `INSERT INTO entries (category, key, display_name, group_path, enabled, location, order_index, remembered_index, protected)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

type InsertEntryParams struct {
	Category        string
	Key             string
	DisplayName     sql.NullString
	GroupPath       string
	Enabled         int64
	Location        string
	OrderIndex      sql.NullInt64
	RememberedIndex sql.NullInt64
	Protected       int64
}

func (q *Queries) InsertEntry(ctx context.Context, arg InsertEntryParams) (sql.Result, error) {
	return q.db.ExecContext(ctx, insertEntry,
		arg.Category, arg.Key, arg.DisplayName, arg.GroupPath, arg.Enabled,
		arg.Location, arg.OrderIndex, arg.RememberedIndex, arg.Protected)
}

const updateEntryDisplayName = `UPDATE entries SET display_name = ? WHERE id = ?`

type UpdateEntryDisplayNameParams struct {
	DisplayName sql.NullString
	ID          int64
}

func (q *Queries) UpdateEntryDisplayName(ctx context.Context, arg UpdateEntryDisplayNameParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateEntryDisplayName, arg.DisplayName, arg.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const updateEntryGroupPath = `UPDATE entries SET group_path = ? WHERE id = ?`

type UpdateEntryGroupPathParams struct {
	GroupPath string
	ID        int64
}

func (q *Queries) UpdateEntryGroupPath(ctx context.Context, arg UpdateEntryGroupPathParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateEntryGroupPath, arg.GroupPath, arg.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const updateEntryState = `UPDATE entries SET enabled = ?, location = ?, order_index = ?, remembered_index = ? WHERE id = ?`

type UpdateEntryStateParams struct {
	Enabled         int64
	Location        string
	OrderIndex      sql.NullInt64
	RememberedIndex sql.NullInt64
	ID              int64
}

func (q *Queries) UpdateEntryState(ctx context.Context, arg UpdateEntryStateParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateEntryState, arg.Enabled, arg.Location, arg.OrderIndex, arg.RememberedIndex, arg.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const updateEntryOrderIndex = `UPDATE entries SET order_index = ? WHERE id = ?`

type UpdateEntryOrderIndexParams struct {
	OrderIndex sql.NullInt64
	ID         int64
}

func (q *Queries) UpdateEntryOrderIndex(ctx context.Context, arg UpdateEntryOrderIndexParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateEntryOrderIndex, arg.OrderIndex, arg.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteEntryByID = `DELETE FROM entries WHERE id = ?`

func (q *Queries) DeleteEntryByID(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteEntryByID, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
