// Package config resolves the directories and files modkeep works with:
// its own data dir (registry database), the game installation, and the
// per-category mod directories inside it.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"

	"github.com/modkeep/modkeep/internal/mods"
)

// GetDataDir resolves the base directory for modkeep's own storage. It
// checks MODKEEP_DIR first, then XDG paths, and finally falls back to the
// user's home directory.
func GetDataDir() string {
	if explicit := os.Getenv("MODKEEP_DIR"); explicit != "" {
		return explicit
	}

	xdg.Reload()

	dataHome := xdg.DataHome
	if dataHome == "" {
		home := xdg.Home
		if home == "" {
			var err error
			home, err = os.UserHomeDir()
			if err != nil {
				return filepath.Join(os.TempDir(), "modkeep")
			}
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	return filepath.Join(dataHome, "modkeep")
}

// GetDBPath returns the absolute path to the SQLite registry file.
func GetDBPath() string {
	return filepath.Join(GetDataDir(), "registry.db")
}

func settingsPath() string {
	return filepath.Join(GetDataDir(), "settings.json")
}

type settings struct {
	GamePath string `json:"game_path"`
}

// GetGameDir resolves the game installation directory: MODKEEP_GAME_DIR
// wins, otherwise the saved settings file is consulted.
func GetGameDir() (string, error) {
	if explicit := os.Getenv("MODKEEP_GAME_DIR"); explicit != "" {
		return explicit, nil
	}

	data, err := os.ReadFile(settingsPath())
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("game path not configured: set MODKEEP_GAME_DIR or run 'modkeep path set'")
		}
		return "", fmt.Errorf("failed to read settings: %w", err)
	}

	var s settings
	if err := json.Unmarshal(data, &s); err != nil {
		return "", fmt.Errorf("failed to parse settings: %w", err)
	}
	if s.GamePath == "" {
		return "", fmt.Errorf("game path not configured: set MODKEEP_GAME_DIR or run 'modkeep path set'")
	}
	return s.GamePath, nil
}

// SaveGameDir persists the game installation directory to the settings file.
func SaveGameDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("invalid game path: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("invalid game path: %s is not a directory", path)
	}

	if err := os.MkdirAll(GetDataDir(), 0o750); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	data, err := json.MarshalIndent(settings{GamePath: path}, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(settingsPath(), data, 0o600); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	return nil
}

// Relative directories inside the game installation, per category. The
// pak layout follows the Unreal packaging convention; the plugin folder
// is where the game reads plugins.txt from.
const (
	pluginSubdir = "OblivionRemastered/Content/Dev/ObvData/Data"
	pakSubdir    = "OblivionRemastered/Content/Paks/~mods"
	scriptSubdir = "OblivionRemastered/Binaries/Win64/ue4ss/Mods"
	loaderSubdir = "OblivionRemastered/Binaries/Win64/MagicLoader/mods"
)

// CategoryRoot returns the enabled-side root directory for a category.
func CategoryRoot(gameDir string, category mods.Category) (string, error) {
	var sub string
	switch category {
	case mods.CategoryPlugin:
		sub = pluginSubdir
	case mods.CategoryPak:
		sub = pakSubdir
	case mods.CategoryScript:
		sub = scriptSubdir
	case mods.CategoryLoader:
		sub = loaderSubdir
	default:
		return "", fmt.Errorf("unknown category: %s", category)
	}
	return filepath.Join(gameDir, filepath.FromSlash(sub)), nil
}

// DisabledDir returns the disabled-side root for a category. Disabled
// entries live in a sibling tree of the enabled root so subfolders mirror
// between the two.
func DisabledDir(gameDir string, category mods.Category) (string, error) {
	root, err := CategoryRoot(gameDir, category)
	if err != nil {
		return "", err
	}
	return filepath.Join(filepath.Dir(root), mods.DisabledRoot), nil
}

// PluginsTxtPath returns the load-order file location inside the plugin
// data folder.
func PluginsTxtPath(gameDir string) string {
	return filepath.Join(gameDir, filepath.FromSlash(pluginSubdir), "plugins.txt")
}

// SpecialSubfolders lists the aggregate installation areas probed by the
// identity resolver when a disabled location normalizes to the category
// root but the files were installed through a merged area.
func SpecialSubfolders(category mods.Category) []string {
	switch category {
	case mods.CategoryPak:
		return []string{"~merged", "LogicMods"}
	default:
		return nil
	}
}
