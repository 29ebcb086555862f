package database

import (
	sqldb "github.com/modkeep/modkeep/internal/database/sqlc"

	"github.com/modkeep/modkeep/internal/mods"
)

func mapEntryRow(row sqldb.Entry) mods.Entry {
	return mods.Entry{
		ID:              row.ID,
		Category:        mods.Category(row.Category),
		Key:             row.Key,
		DisplayName:     optionalString(row.DisplayName),
		GroupPath:       mods.SplitGroup(row.GroupPath),
		Enabled:         row.Enabled != 0,
		Location:        row.Location,
		OrderIndex:      optionalInt64Ptr(row.OrderIndex),
		RememberedIndex: optionalInt64Ptr(row.RememberedIndex),
		Protected:       row.Protected != 0,
		CreatedAt:       optionalTime(row.CreatedAt),
	}
}

func insertParams(e mods.Entry) sqldb.InsertEntryParams {
	return sqldb.InsertEntryParams{
		Category:        string(e.Category),
		Key:             e.Key,
		DisplayName:     nullString(e.DisplayName),
		GroupPath:       e.Group(),
		Enabled:         boolToInt64(e.Enabled),
		Location:        e.Location,
		OrderIndex:      nullInt64Ptr(e.OrderIndex),
		RememberedIndex: nullInt64Ptr(e.RememberedIndex),
		Protected:       boolToInt64(e.Protected),
	}
}
