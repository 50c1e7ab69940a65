package sync

import (
	"context"

	"github.com/filmatlas/filmatlas/internal/tmdb"
)

// SyncPeople fetches and upserts people selected by the given mode.
// Ids that come back 404 during the run are flagged removed right away;
// MarkRemoved ignores ids with no local row.
func (s *Service) SyncPeople(ctx context.Context, mode Mode, opts BatchOptions) (*Report, error) {
	s.fillDefaults(&opts)
	ids, err := s.targets(ctx, tmdb.KindPerson, mode, s.store.People, &opts)
	if err != nil {
		return nil, err
	}

	result, err := runBatch(ctx, s.logger.Named("people"), ids, opts.BatchSize,
		func(ctx context.Context, id int64) (*tmdb.PersonDetails, error) {
			return s.client.PersonDetails(ctx, id, opts.Language)
		},
		func(ctx context.Context, payload *tmdb.PersonDetails) (bool, error) {
			return s.store.People.Upsert(ctx, payload)
		})
	if err != nil {
		return result.report(), err
	}

	report := result.report()
	if len(result.NotFound) > 0 {
		removed, err := s.store.People.MarkRemoved(ctx, result.NotFound)
		if err != nil {
			return report, err
		}
		report.Removed = removed
		report.Skipped -= removed
	}
	return report, nil
}
