package engine

import (
	"fmt"

	"github.com/modkeep/modkeep/internal/mods"
)

// Resolver recomputes an entry's current physical location from a
// possibly stale one. Toggles relocate files, so a revert recorded
// against yesterday's location must find wherever the files live now.
type Resolver struct {
	files   Relocator
	special map[mods.Category][]string
}

// NewResolver creates a Resolver over the file layer. special maps each
// category to the aggregate installation subfolders probed during
// fallback (for paks: merged areas like "~merged").
func NewResolver(files Relocator, special map[mods.Category][]string) *Resolver {
	return &Resolver{files: files, special: special}
}

// Resolve returns the entry's actual current location. The fallback
// chain runs in order and never short-circuits on a partial failure:
//
//  1. exact match at the expected location
//  2. expected location with the disabled-root prefix stripped
//  3. when stripping yields the category root, each special subfolder
//  4. name-only search across the whole category
func (r *Resolver) Resolve(category mods.Category, key, expected string) (string, error) {
	if r.files.Exists(category, key, expected) {
		return expected, nil
	}

	if sub, stripped := mods.StripDisabledRoot(expected); stripped {
		if r.files.Exists(category, key, sub) {
			return sub, nil
		}
		if sub == "" {
			for _, alias := range r.special[category] {
				if r.files.Exists(category, key, alias) {
					return alias, nil
				}
			}
		}
	}

	found, err := r.files.Scan(category)
	if err != nil {
		return "", err
	}
	for _, e := range found {
		if e.Key == key {
			return e.Location, nil
		}
	}

	return "", fmt.Errorf("%w: %s %s", ErrEntityNotFound, category, key)
}
