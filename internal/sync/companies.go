package sync

import (
	"context"
	"fmt"

	"github.com/filmatlas/filmatlas/internal/tmdb"
)

// SyncCompanies refreshes production companies from the daily export,
// or from an explicit id list. With CreateOnly set the export is diffed
// against the catalog and only brand-new companies are fetched; this is
// the daily pipeline's cheap fill-in pass.
func (s *Service) SyncCompanies(ctx context.Context, opts BatchOptions) (*Report, error) {
	s.fillDefaults(&opts)
	ids, err := s.exportTargets(ctx, tmdb.KindCompany, s.store.Companies.ExistingIDs, &opts)
	if err != nil {
		return nil, err
	}

	result, err := runBatch(ctx, s.logger.Named("companies"), ids, opts.BatchSize,
		func(ctx context.Context, id int64) (*tmdb.CompanyDetails, error) {
			return s.client.CompanyDetails(ctx, id)
		},
		func(ctx context.Context, payload *tmdb.CompanyDetails) (bool, error) {
			return s.store.Companies.Upsert(ctx, payload)
		})
	if err != nil {
		return result.report(), err
	}

	report := result.report()
	if len(result.NotFound) > 0 {
		removed, err := s.store.Companies.MarkRemoved(ctx, result.NotFound)
		if err != nil {
			return report, err
		}
		report.Removed = removed
		report.Skipped -= removed
	}
	return report, nil
}

// SyncCollections refreshes collections the same way.
func (s *Service) SyncCollections(ctx context.Context, opts BatchOptions) (*Report, error) {
	s.fillDefaults(&opts)
	ids, err := s.exportTargets(ctx, tmdb.KindCollection, s.store.Collections.ExistingIDs, &opts)
	if err != nil {
		return nil, err
	}

	result, err := runBatch(ctx, s.logger.Named("collections"), ids, opts.BatchSize,
		func(ctx context.Context, id int64) (*tmdb.CollectionDetails, error) {
			return s.client.CollectionDetails(ctx, id, opts.Language)
		},
		func(ctx context.Context, payload *tmdb.CollectionDetails) (bool, error) {
			return s.store.Collections.Upsert(ctx, payload)
		})
	if err != nil {
		return result.report(), err
	}

	report := result.report()
	if len(result.NotFound) > 0 {
		removed, err := s.store.Collections.MarkRemoved(ctx, result.NotFound)
		if err != nil {
			return report, err
		}
		report.Removed = removed
		report.Skipped -= removed
	}
	return report, nil
}

// exportTargets resolves ids for the kinds that have no change log.
// Explicit ids win; otherwise the full export, narrowed to unknown ids
// when CreateOnly is set.
func (s *Service) exportTargets(ctx context.Context, kind tmdb.Kind, existing func(context.Context, []int64) (map[int64]struct{}, error), opts *BatchOptions) ([]int64, error) {
	if len(opts.IDs) > 0 {
		return limitIDs(opts.IDs, opts.Limit), nil
	}

	export, err := s.exports.Read(ctx, kind, opts.Date)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s export: %w", kind, err)
	}
	if opts.SortByPopularity {
		export.SortByPopularity()
	}
	ids := export.IDs
	if opts.CreateOnly {
		known, err := existing(ctx, nil)
		if err != nil {
			return nil, err
		}
		fresh := make([]int64, 0, len(ids))
		for _, id := range ids {
			if _, ok := known[id]; !ok {
				fresh = append(fresh, id)
			}
		}
		ids = fresh
	}
	s.logger.Info("export targets resolved",
		"kind", kind, "exported", len(export.IDs), "targets", len(ids), "skipped_lines", export.Skipped)
	return limitIDs(ids, opts.Limit), nil
}
