package scanner

import (
	"context"
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/modkeep/modkeep/internal/config"
	"github.com/modkeep/modkeep/internal/mods"
)

// Watcher reports external changes to the category directories. Drift
// is detected and surfaced, never repaired.
type Watcher struct {
	gameDir string
	log     *zap.Logger
	onDrift func(category mods.Category, path string)
}

// NewWatcher creates a Watcher over one game installation. onDrift is
// called for every observed change; log may be nil.
func NewWatcher(gameDir string, log *zap.Logger, onDrift func(category mods.Category, path string)) *Watcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Watcher{gameDir: gameDir, log: log, onDrift: onDrift}
}

// Run watches every category root (enabled and disabled trees) until
// the context is canceled.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer func() {
		_ = fw.Close()
	}()

	roots := map[string]mods.Category{}
	for _, category := range mods.All() {
		root, err := config.CategoryRoot(w.gameDir, category)
		if err != nil {
			return err
		}
		disabledRoot, err := config.DisabledDir(w.gameDir, category)
		if err != nil {
			return err
		}
		for _, dir := range []string{root, disabledRoot} {
			if err := fw.Add(dir); err != nil {
				// Missing directories are normal before the first install.
				w.log.Debug("skipping unwatchable directory",
					zap.String("dir", dir), zap.Error(err))
				continue
			}
			roots[dir] = category
		}
	}
	if len(roots) == 0 {
		return fmt.Errorf("no category directories to watch under %s", w.gameDir)
	}
	w.log.Info("watching for external changes", zap.Int("directories", len(roots)))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			category, ok := categoryForPath(roots, event.Name)
			if !ok {
				continue
			}
			w.log.Warn("external change detected",
				zap.String("category", string(category)),
				zap.String("path", event.Name),
				zap.String("op", event.Op.String()))
			if w.onDrift != nil {
				w.onDrift(category, event.Name)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Error("watcher error", zap.Error(err))
		}
	}
}

func categoryForPath(roots map[string]mods.Category, path string) (mods.Category, bool) {
	for root, category := range roots {
		if strings.HasPrefix(path, root) {
			return category, true
		}
	}
	return "", false
}
