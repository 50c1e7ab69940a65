package sync

import (
	"context"
	"fmt"

	"github.com/filmatlas/filmatlas/internal/tmdb"
)

// SyncRemoved runs the removal pass for one kind: diff the daily export
// against the local live set, confirm each missing id with a detail
// fetch, and flag only the ids upstream answers 404 for. A single
// flaky export line must never wipe rows, so an unavailable or
// suspiciously small export skips the whole pass.
func (s *Service) SyncRemoved(ctx context.Context, kind tmdb.Kind, opts BatchOptions) (*Report, error) {
	s.fillDefaults(&opts)
	logger := s.logger.Named("removal").With("kind", kind)

	live, confirm, mark, err := s.removalHooks(kind, opts.Language)
	if err != nil {
		return nil, err
	}

	liveIDs, err := live(ctx)
	if err != nil {
		return nil, err
	}
	if len(liveIDs) == 0 {
		return &Report{}, nil
	}

	export, err := s.exports.Read(ctx, kind, opts.Date)
	if err != nil {
		logger.Warn("removal pass skipped, export unavailable", "error", err)
		return &Report{Skipped: int64(len(liveIDs))}, nil
	}
	if len(export.IDs)*2 < len(liveIDs) {
		logger.Warn("removal pass skipped, export suspiciously small",
			"exported", len(export.IDs), "live", len(liveIDs))
		return &Report{Skipped: int64(len(liveIDs))}, nil
	}

	candidates := make([]int64, 0)
	for _, id := range liveIDs {
		if !export.Contains(id) {
			candidates = append(candidates, id)
		}
	}
	if len(candidates) == 0 {
		logger.Info("removal pass clean", "live", len(liveIDs))
		return &Report{}, nil
	}
	logger.Info("confirming removal candidates", "candidates", len(candidates))

	result, err := runBatch(ctx, logger, candidates, opts.BatchSize, confirm,
		func(ctx context.Context, _ struct{}) (bool, error) { return false, nil })
	if err != nil {
		return nil, err
	}

	removed, err := mark(ctx, result.NotFound)
	if err != nil {
		return nil, err
	}
	logger.Info("removal pass complete",
		"candidates", len(candidates), "removed", removed, "still_live", len(result.Applied))
	return &Report{Removed: removed, Failed: int64(len(result.Failed))}, nil
}

// removalHooks binds the per-kind live listing, confirmation fetch and
// flagging. Confirmation discards the payload; only the 404 signal
// matters.
func (s *Service) removalHooks(kind tmdb.Kind, language string) (
	live func(context.Context) ([]int64, error),
	confirm func(context.Context, int64) (struct{}, error),
	mark func(context.Context, []int64) (int64, error),
	err error,
) {
	switch kind {
	case tmdb.KindMovie:
		return s.store.Movies.LiveIDs,
			func(ctx context.Context, id int64) (struct{}, error) {
				_, err := s.client.MovieDetails(ctx, id, language)
				return struct{}{}, err
			},
			s.store.Movies.MarkRemoved, nil
	case tmdb.KindPerson:
		return s.store.People.LiveIDs,
			func(ctx context.Context, id int64) (struct{}, error) {
				_, err := s.client.PersonDetails(ctx, id, language)
				return struct{}{}, err
			},
			s.store.People.MarkRemoved, nil
	case tmdb.KindCompany:
		return s.store.Companies.LiveIDs,
			func(ctx context.Context, id int64) (struct{}, error) {
				_, err := s.client.CompanyDetails(ctx, id)
				return struct{}{}, err
			},
			s.store.Companies.MarkRemoved, nil
	case tmdb.KindCollection:
		return s.store.Collections.LiveIDs,
			func(ctx context.Context, id int64) (struct{}, error) {
				_, err := s.client.CollectionDetails(ctx, id, language)
				return struct{}{}, err
			},
			s.store.Collections.MarkRemoved, nil
	default:
		return nil, nil, nil, fmt.Errorf("kind %q has no removal pass", kind)
	}
}
