package sync

import (
	"context"
	"fmt"

	"github.com/filmatlas/filmatlas/internal/tmdb"
)

// dailyPopularityLimit bounds the daily popularity refresh to the most
// popular export entries; a full-export refresh is a separate manual run.
const dailyPopularityLimit = 10000

// RunDaily executes the full daily pipeline in a fixed order: new
// collections and companies, people and movies (new exports plus the
// trailing change windows), removal passes for every kind, derived
// metrics, popularity refresh and adult flag propagation. A failing
// step is logged and the pipeline moves on; later steps are still worth
// running and the next daily run retries everything anyway.
func (s *Service) RunDaily(ctx context.Context, opts BatchOptions) (*Report, error) {
	s.fillDefaults(&opts)
	logger := s.logger.Named("daily")

	createOnly := opts
	createOnly.CreateOnly = true
	popularity := opts
	popularity.Limit = dailyPopularityLimit

	steps := []struct {
		name string
		run  func(context.Context) (*Report, error)
	}{
		{"collections", func(ctx context.Context) (*Report, error) { return s.SyncCollections(ctx, createOnly) }},
		{"companies", func(ctx context.Context) (*Report, error) { return s.SyncCompanies(ctx, createOnly) }},
		{"people export", func(ctx context.Context) (*Report, error) { return s.SyncPeople(ctx, ModeExport, opts) }},
		{"people changed", func(ctx context.Context) (*Report, error) { return s.SyncPeople(ctx, ModeChanged, opts) }},
		{"movies export", func(ctx context.Context) (*Report, error) { return s.SyncMovies(ctx, ModeExport, opts) }},
		{"movies changed", func(ctx context.Context) (*Report, error) { return s.SyncMovies(ctx, ModeChanged, opts) }},
		{"removed collections", func(ctx context.Context) (*Report, error) { return s.SyncRemoved(ctx, tmdb.KindCollection, opts) }},
		{"removed companies", func(ctx context.Context) (*Report, error) { return s.SyncRemoved(ctx, tmdb.KindCompany, opts) }},
		{"removed people", func(ctx context.Context) (*Report, error) { return s.SyncRemoved(ctx, tmdb.KindPerson, opts) }},
		{"removed movies", func(ctx context.Context) (*Report, error) { return s.SyncRemoved(ctx, tmdb.KindMovie, opts) }},
		{"metrics", s.SyncMetrics},
		{"movie popularity", func(ctx context.Context) (*Report, error) {
			return s.SyncPopularity(ctx, tmdb.KindMovie, popularity)
		}},
		{"person popularity", func(ctx context.Context) (*Report, error) {
			return s.SyncPopularity(ctx, tmdb.KindPerson, popularity)
		}},
		{"adult flags", s.SyncAdultFlags},
	}

	total := &Report{}
	var failed []string
	for _, step := range steps {
		if ctx.Err() != nil {
			return total, ctx.Err()
		}
		logger.Info("daily step starting", "step", step.name)
		report, err := step.run(ctx)
		if err != nil {
			logger.Error("daily step failed", "step", step.name, "error", err)
			failed = append(failed, step.name)
			continue
		}
		logger.Info("daily step complete", "step", step.name, "report", report.String())
		total.Merge(report)
	}
	if len(failed) > 0 {
		return total, fmt.Errorf("daily pipeline finished with failed steps: %v", failed)
	}
	return total, nil
}
