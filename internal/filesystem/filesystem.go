// Package filesystem moves entry files between the enabled and disabled
// trees and scans the category directories. It never creates or deletes
// mod content on its own; the engine directs every relocation.
package filesystem

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/modkeep/modkeep/internal/config"
	"github.com/modkeep/modkeep/internal/mods"
)

// Store performs physical file operations inside one game installation.
type Store struct {
	gameDir string
}

// NewStore creates a Store rooted at the game installation directory.
func NewStore(gameDir string) *Store {
	return &Store{gameDir: gameDir}
}

// LocationDir resolves a registry location string to an absolute directory.
func (s *Store) LocationDir(category mods.Category, location string) (string, error) {
	if sub, disabled := mods.StripDisabledRoot(location); disabled {
		root, err := config.DisabledDir(s.gameDir, category)
		if err != nil {
			return "", err
		}
		return filepath.Join(root, filepath.FromSlash(sub)), nil
	}
	root, err := config.CategoryRoot(s.gameDir, category)
	if err != nil {
		return "", err
	}
	return filepath.Join(root, filepath.FromSlash(location)), nil
}

// Exists reports whether the entry's backing path is present at the
// given location.
func (s *Store) Exists(category mods.Category, key, location string) bool {
	dir, err := s.LocationDir(category, location)
	if err != nil {
		return false
	}
	_, err = os.Stat(filepath.Join(dir, key))
	return err == nil
}

// Relocate moves an entry's backing files from one location to another.
// For pak entries every sibling sharing the base name moves along
// (.pak/.ucas/.utoc). If any move fails midway, the files moved so far
// are put back before the error is returned.
func (s *Store) Relocate(category mods.Category, key, from, to string) error {
	fromDir, err := s.LocationDir(category, from)
	if err != nil {
		return err
	}
	toDir, err := s.LocationDir(category, to)
	if err != nil {
		return err
	}

	names, err := s.relatedNames(category, fromDir, key)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		return fmt.Errorf("no files for %s at %s", key, fromDir)
	}

	if err := os.MkdirAll(toDir, 0o750); err != nil {
		return fmt.Errorf("failed to create target directory: %w", err)
	}

	type movedPair struct{ src, dst string }
	var moved []movedPair
	for _, name := range names {
		src := filepath.Join(fromDir, name)
		dst := filepath.Join(toDir, name)
		if err := os.Rename(src, dst); err != nil {
			for _, m := range moved {
				_ = os.Rename(m.dst, m.src)
			}
			return fmt.Errorf("failed to move %s: %w", name, err)
		}
		moved = append(moved, movedPair{src: src, dst: dst})
	}

	s.pruneEmptyDir(category, fromDir)
	return nil
}

// Remove deletes an entry's backing files at the given location. This is
// one-way; callers must not expect it to be undoable.
func (s *Store) Remove(category mods.Category, key, location string) error {
	dir, err := s.LocationDir(category, location)
	if err != nil {
		return err
	}

	names, err := s.relatedNames(category, dir, key)
	if err != nil {
		return err
	}
	for _, name := range names {
		if err := os.RemoveAll(filepath.Join(dir, name)); err != nil {
			return fmt.Errorf("failed to remove %s: %w", name, err)
		}
	}

	s.pruneEmptyDir(category, dir)
	return nil
}

// relatedNames lists the file (or directory) names that belong to an
// entry inside dir. Pak entries pull in every file with the same base
// name; other categories are a single path named by the key.
func (s *Store) relatedNames(category mods.Category, dir, key string) ([]string, error) {
	if category != mods.CategoryPak {
		if _, err := os.Stat(filepath.Join(dir, key)); err != nil {
			if os.IsNotExist(err) {
				return nil, nil
			}
			return nil, err
		}
		return []string{key}, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	base := strings.TrimSuffix(key, filepath.Ext(key))
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.TrimSuffix(name, filepath.Ext(name)) == base {
			names = append(names, name)
		}
	}
	return names, nil
}

// pruneEmptyDir removes an emptied subfolder, but never a category root.
func (s *Store) pruneEmptyDir(category mods.Category, dir string) {
	root, err := config.CategoryRoot(s.gameDir, category)
	if err != nil {
		return
	}
	disabledRoot, err := config.DisabledDir(s.gameDir, category)
	if err != nil {
		return
	}
	if dir == root || dir == disabledRoot {
		return
	}
	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) > 0 {
		return
	}
	_ = os.Remove(dir)
}

// ScannedEntry describes one entry found on disk.
type ScannedEntry struct {
	Category mods.Category
	Key      string
	Location string
	Enabled  bool
}

// Scan walks the enabled and disabled trees of a category, including all
// subfolders, and reports every entry found. Files are the source of
// truth; the registry is reconciled against this.
func (s *Store) Scan(category mods.Category) ([]ScannedEntry, error) {
	var found []ScannedEntry

	root, err := config.CategoryRoot(s.gameDir, category)
	if err != nil {
		return nil, err
	}
	enabled, err := scanTree(category, root, "", true)
	if err != nil {
		return nil, err
	}
	found = append(found, enabled...)

	disabledRoot, err := config.DisabledDir(s.gameDir, category)
	if err != nil {
		return nil, err
	}
	disabled, err := scanTree(category, disabledRoot, mods.DisabledRoot, false)
	if err != nil {
		return nil, err
	}
	found = append(found, disabled...)

	return found, nil
}

func scanTree(category mods.Category, root, locationPrefix string, enabled bool) ([]ScannedEntry, error) {
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return nil, nil
	}

	var found []ScannedEntry
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		sub := filepath.ToSlash(filepath.Dir(rel))
		if sub == "." {
			sub = ""
		}
		location := sub
		if locationPrefix != "" {
			location = locationPrefix
			if sub != "" {
				location = locationPrefix + "/" + sub
			}
		}

		if category == mods.CategoryScript {
			// Script mods are directories directly under the root.
			if d.IsDir() && filepath.Dir(rel) == "." {
				found = append(found, ScannedEntry{Category: category, Key: d.Name(), Location: location, Enabled: enabled})
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return nil
		}
		if !matchesCategory(category, d.Name()) {
			return nil
		}
		found = append(found, ScannedEntry{Category: category, Key: d.Name(), Location: location, Enabled: enabled})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

func matchesCategory(category mods.Category, name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	switch category {
	case mods.CategoryPlugin:
		return ext == ".esp" || ext == ".esm"
	case mods.CategoryPak:
		return ext == ".pak"
	case mods.CategoryLoader:
		return ext == ".json"
	default:
		return false
	}
}

// WriteFileAtomic writes data to path via a temp file in the same
// directory followed by a rename, so readers never observe a torn write.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}
