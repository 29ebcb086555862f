// Package scanner reconciles the registry with what actually sits on
// disk. Files are the source of truth: unknown files become registry
// entries, vanished files lose their rows, moved files get their
// recorded location updated. The scanner never creates, moves, or
// deletes mod files itself.
package scanner

import (
	"context"

	"go.uber.org/zap"

	"github.com/modkeep/modkeep/internal/filesystem"
	"github.com/modkeep/modkeep/internal/mods"
)

// Registry is the metadata store the scanner reconciles against.
type Registry interface {
	List(ctx context.Context, category mods.Category) ([]mods.Entry, error)
	Register(ctx context.Context, entry mods.Entry) (int64, error)
	SetState(ctx context.Context, category mods.Category, key string, enabled bool, location string, orderIndex, rememberedIndex *int64) error
	Delete(ctx context.Context, category mods.Category, key string) (bool, error)
}

// Source lists the entries found on disk for a category.
type Source interface {
	Scan(category mods.Category) ([]filesystem.ScannedEntry, error)
}

// OrderInfo reports load-order placement for ordered entries; plugin
// files never move, so their enabled state comes from here rather than
// from their location.
type OrderInfo interface {
	IndexOf(key string) (int, bool)
	RememberedIndex(key string) *int64
}

// Report summarizes one reconcile pass over a category. Drifted lists
// ordered entries whose registry enabled flag disagrees with the load
// order; that drift is surfaced, never repaired.
type Report struct {
	Category mods.Category
	Added    []string
	Removed  []string
	Moved    []string
	Drifted  []string
}

// Empty reports whether the pass found nothing to change or flag.
func (r Report) Empty() bool {
	return len(r.Added) == 0 && len(r.Removed) == 0 && len(r.Moved) == 0 && len(r.Drifted) == 0
}

// Scanner walks category directories and folds the result into the
// registry.
type Scanner struct {
	registry Registry
	source   Source
	order    OrderInfo // consulted for ordered categories only
	log      *zap.Logger
}

// New creates a Scanner. order may be nil when no ordered category will
// be reconciled; log may be nil.
func New(reg Registry, source Source, order OrderInfo, log *zap.Logger) *Scanner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scanner{registry: reg, source: source, order: order, log: log}
}

// Reconcile brings the registry rows for one category in line with the
// files found on disk.
func (s *Scanner) Reconcile(ctx context.Context, category mods.Category) (Report, error) {
	report := Report{Category: category}

	scanned, err := s.source.Scan(category)
	if err != nil {
		return report, err
	}
	known, err := s.registry.List(ctx, category)
	if err != nil {
		return report, err
	}

	onDisk := make(map[string]filesystem.ScannedEntry, len(scanned))
	for _, e := range scanned {
		onDisk[e.Key] = e
	}
	inRegistry := make(map[string]mods.Entry, len(known))
	for _, e := range known {
		inRegistry[e.Key] = e
	}

	for key, found := range onDisk {
		existing, ok := inRegistry[key]
		if !ok {
			entry := s.newEntry(category, found)
			if _, err := s.registry.Register(ctx, entry); err != nil {
				return report, err
			}
			s.log.Info("registered new entry",
				zap.String("category", string(category)), zap.String("key", key))
			report.Added = append(report.Added, key)
			continue
		}
		if category.Ordered() {
			// Plugin files stay put, so there is nothing to move, but
			// the registry can still disagree with the load order.
			if s.order != nil {
				_, active := s.order.IndexOf(key)
				if existing.Enabled != active {
					s.log.Warn("entry state disagrees with the load order",
						zap.String("category", string(category)),
						zap.String("key", key),
						zap.Bool("registry_enabled", existing.Enabled),
						zap.Bool("order_active", active))
					report.Drifted = append(report.Drifted, key)
				}
			}
			continue
		}
		if existing.Location != found.Location || existing.Enabled != found.Enabled {
			if err := s.registry.SetState(ctx, category, key, found.Enabled, found.Location, nil, existing.RememberedIndex); err != nil {
				return report, err
			}
			s.log.Warn("entry drifted on disk",
				zap.String("category", string(category)),
				zap.String("key", key),
				zap.String("recorded", existing.Location),
				zap.String("actual", found.Location))
			report.Moved = append(report.Moved, key)
		}
	}

	for key := range inRegistry {
		if _, ok := onDisk[key]; ok {
			continue
		}
		if _, err := s.registry.Delete(ctx, category, key); err != nil {
			return report, err
		}
		s.log.Info("dropped entry with missing files",
			zap.String("category", string(category)), zap.String("key", key))
		report.Removed = append(report.Removed, key)
	}

	return report, nil
}

// ReconcileAll runs Reconcile over every category.
func (s *Scanner) ReconcileAll(ctx context.Context) ([]Report, error) {
	var reports []Report
	for _, category := range mods.All() {
		report, err := s.Reconcile(ctx, category)
		if err != nil {
			return reports, err
		}
		reports = append(reports, report)
	}
	return reports, nil
}

func (s *Scanner) newEntry(category mods.Category, found filesystem.ScannedEntry) mods.Entry {
	entry := mods.Entry{
		Category: category,
		Key:      found.Key,
		Enabled:  found.Enabled,
		Location: found.Location,
	}
	if category.Ordered() && s.order != nil {
		if idx, ok := s.order.IndexOf(found.Key); ok {
			v := int64(idx)
			entry.Enabled = true
			entry.OrderIndex = &v
		} else {
			entry.Enabled = false
			entry.RememberedIndex = s.order.RememberedIndex(found.Key)
		}
	}
	return entry
}
