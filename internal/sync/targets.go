package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/filmatlas/filmatlas/internal/tmdb"
)

// Mode selects how an entity sync operation finds its target ids.
type Mode string

const (
	// ModeExport targets export ids not yet known locally.
	ModeExport Mode = "export"
	// ModeChanged targets locally-known ids the change log reports as
	// modified inside the trailing window.
	ModeChanged Mode = "changed"
	// ModeIDs targets an explicit id list.
	ModeIDs Mode = "ids"
)

// BatchOptions tunes an entity sync operation. The zero value falls
// back to the configured defaults.
type BatchOptions struct {
	BatchSize        int
	Limit            int
	SortByPopularity bool
	Days             int
	Date             time.Time
	Language         string
	CreateOnly       bool
	IDs              []int64
}

func (s *Service) fillDefaults(opts *BatchOptions) {
	if opts.BatchSize <= 0 {
		opts.BatchSize = s.cfg.Sync.BatchSize
	}
	if opts.Days <= 0 {
		opts.Days = s.cfg.Sync.Days
	}
	if opts.Language == "" {
		opts.Language = s.cfg.Sync.Language
	}
}

// idLister is the repository surface target resolution needs.
type idLister interface {
	ExistingIDs(ctx context.Context, ids []int64) (map[int64]struct{}, error)
	StaleIDs(ctx context.Context, changed map[int64]struct{}, before time.Time) ([]int64, error)
}

// targets resolves the id list for one mode. Export mode diffs the
// daily export against the local catalog so a bootstrap run only
// fetches what is missing. Changed mode unions the per-day change logs
// and drops ids already refreshed after the window opened.
func (s *Service) targets(ctx context.Context, kind tmdb.Kind, mode Mode, repo idLister, opts *BatchOptions) ([]int64, error) {
	switch mode {
	case ModeIDs:
		return limitIDs(opts.IDs, opts.Limit), nil

	case ModeExport:
		export, err := s.exports.Read(ctx, kind, opts.Date)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s export: %w", kind, err)
		}
		if opts.SortByPopularity {
			export.SortByPopularity()
		}
		known, err := repo.ExistingIDs(ctx, nil)
		if err != nil {
			return nil, err
		}
		fresh := make([]int64, 0, len(export.IDs))
		for _, id := range export.IDs {
			if _, ok := known[id]; !ok {
				fresh = append(fresh, id)
			}
		}
		s.logger.Info("export targets resolved",
			"kind", kind, "exported", len(export.IDs), "new", len(fresh), "skipped_lines", export.Skipped)
		return limitIDs(fresh, opts.Limit), nil

	case ModeChanged:
		changed, earliest, err := s.client.ChangedIDs(ctx, kind, opts.Days)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s change log: %w", kind, err)
		}
		stale, err := repo.StaleIDs(ctx, changed, earliest)
		if err != nil {
			return nil, err
		}
		s.logger.Info("change targets resolved",
			"kind", kind, "changed", len(changed), "stale", len(stale), "window_start", earliest)
		return limitIDs(stale, opts.Limit), nil

	default:
		return nil, fmt.Errorf("unknown sync mode %q", mode)
	}
}

func limitIDs(ids []int64, limit int) []int64 {
	if limit > 0 && len(ids) > limit {
		return ids[:limit]
	}
	return ids
}
