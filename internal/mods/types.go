// Package mods provides the data types shared by the registry, the
// reversible-operation engine, and the file layer.
package mods

import (
	"path"
	"strings"
	"time"
)

// Category classifies a managed entry. Only CategoryPlugin participates
// in the load order.
type Category string

const (
	// CategoryPlugin covers .esp plugins tracked in plugins.txt.
	CategoryPlugin Category = "plugin"
	// CategoryPak covers .pak archives (with .ucas/.utoc siblings).
	CategoryPak Category = "pak"
	// CategoryScript covers UE4SS-style Lua script mods.
	CategoryScript Category = "script"
	// CategoryLoader covers MagicLoader-style JSON config mods.
	CategoryLoader Category = "loader"
)

// All lists every known category in a stable order.
func All() []Category {
	return []Category{CategoryPlugin, CategoryPak, CategoryScript, CategoryLoader}
}

// Valid reports whether c names a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryPlugin, CategoryPak, CategoryScript, CategoryLoader:
		return true
	}
	return false
}

// Ordered reports whether entries of this category carry a load-order index.
func (c Category) Ordered() bool {
	return c == CategoryPlugin
}

// DisabledRoot is the location segment under which disabled entries live.
const DisabledRoot = "disabled"

// Entry is one managed mod unit. Key is the base file name and is unique
// within its category; Location is the subfolder the backing files
// currently reside in, relative to the category root, and is not stable
// across toggles.
type Entry struct {
	ID              int64
	Category        Category
	Key             string
	DisplayName     string // empty -> fall back to Key
	GroupPath       []string
	Enabled         bool
	Location        string
	OrderIndex      *int64 // dense permutation over enabled plugins; nil otherwise
	RememberedIndex *int64 // last-known index hint kept while disabled
	Protected       bool
	CreatedAt       time.Time
}

// Name returns the display name, falling back to the key.
func (e Entry) Name() string {
	if e.DisplayName != "" {
		return e.DisplayName
	}
	return e.Key
}

// Group returns the slash-joined group path, empty for ungrouped entries.
func (e Entry) Group() string {
	return JoinGroup(e.GroupPath)
}

// JoinGroup renders a group path as the slash-joined form stored in the
// registry.
func JoinGroup(parts []string) string {
	return strings.Join(parts, "/")
}

// SplitGroup parses the stored slash-joined group form.
func SplitGroup(group string) []string {
	if group == "" {
		return nil
	}
	return strings.Split(group, "/")
}

// DisabledLocation maps an enabled-side subfolder to its disabled-tree
// counterpart.
func DisabledLocation(subfolder string) string {
	if subfolder == "" {
		return DisabledRoot
	}
	return path.Join(DisabledRoot, subfolder)
}

// IsDisabledLocation reports whether loc lies under the disabled root.
func IsDisabledLocation(loc string) bool {
	return loc == DisabledRoot || strings.HasPrefix(loc, DisabledRoot+"/")
}

// StripDisabledRoot removes the disabled-root prefix from loc, returning
// the remaining subfolder (possibly empty) and whether the prefix was
// present.
func StripDisabledRoot(loc string) (string, bool) {
	if loc == DisabledRoot {
		return "", true
	}
	if rest, ok := strings.CutPrefix(loc, DisabledRoot+"/"); ok {
		return rest, true
	}
	return loc, false
}
