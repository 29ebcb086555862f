package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/modkeep/modkeep/internal/config"
	"github.com/modkeep/modkeep/internal/database"
	"github.com/modkeep/modkeep/internal/engine"
	"github.com/modkeep/modkeep/internal/filesystem"
	"github.com/modkeep/modkeep/internal/history"
	"github.com/modkeep/modkeep/internal/loadorder"
	"github.com/modkeep/modkeep/internal/logging"
	"github.com/modkeep/modkeep/internal/mods"
	"github.com/modkeep/modkeep/internal/registry"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "modkeep",
	Short: "modkeep - a reversible mod manager for Oblivion Remastered",
	Long:  "modkeep tracks plugin, pak, script, and loader mods, keeps their metadata across enable/disable cycles, and makes every change undoable.",
}

func init() {
	rootCmd.Version = version
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newEnableCmd())
	rootCmd.AddCommand(newDisableCmd())
	rootCmd.AddCommand(newRenameCmd())
	rootCmd.AddCommand(newGroupCmd())
	rootCmd.AddCommand(newOrderCmd())
	rootCmd.AddCommand(newUndoCmd())
	rootCmd.AddCommand(newRedoCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newScanCmd())
	rootCmd.AddCommand(newRemoveCmd())
	rootCmd.AddCommand(newInfoCmd())
	rootCmd.AddCommand(newPathCmd())
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newMCPCmd())
}

// app bundles the wired engine stack for one command invocation.
type app struct {
	dbCtx    *database.Context
	registry *registry.Service
	store    *filesystem.Store
	order    *loadorder.Controller
	engine   *engine.Engine
	log      *zap.Logger
	gameDir  string
}

// newApp opens the registry database and wires the engine against the
// configured game installation. The returned cleanup must run after the
// command finishes.
func newApp() (*app, func(), error) {
	log, err := logging.New(verbose)
	if err != nil {
		return nil, nil, err
	}

	gameDir, err := config.GetGameDir()
	if err != nil {
		return nil, nil, err
	}

	dbCtx, err := database.CreateDatabase("")
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		database.CloseDatabase(dbCtx)
		_ = log.Sync()
	}

	reg := registry.NewService(dbCtx)
	store := filesystem.NewStore(gameDir)
	order, err := loadorder.NewController(loadorder.NewFile(config.PluginsTxtPath(gameDir)), nil)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to load plugins.txt: %w", err)
	}

	special := map[mods.Category][]string{}
	for _, category := range mods.All() {
		special[category] = config.SpecialSubfolders(category)
	}
	eng := engine.New(reg, store, order, engine.NewResolver(store, special), engine.Options{
		Store:  history.NewStore(dbCtx),
		Logger: log,
	})
	if err := eng.LoadHistory(context.Background()); err != nil {
		cleanup()
		return nil, nil, err
	}

	return &app{
		dbCtx:    dbCtx,
		registry: reg,
		store:    store,
		order:    order,
		engine:   eng,
		log:      log,
		gameDir:  gameDir,
	}, cleanup, nil
}

func parseCategoryArg(raw string) (mods.Category, error) {
	category := mods.Category(raw)
	if !category.Valid() {
		return "", fmt.Errorf("invalid category: %s (valid values: plugin, pak, script, loader)", raw)
	}
	return category, nil
}
