package sync

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/filmatlas/filmatlas/internal/tmdb"
)

// personResolver deduplicates credited-person creation within one movie
// run. A person credited in many movies is fetched at most once, and
// concurrent workers needing the same person block until the winner has
// written the row.
type personResolver struct {
	flight singleflight.Group

	mu   sync.Mutex
	done map[int64]struct{}
}

func newPersonResolver() *personResolver {
	return &personResolver{done: make(map[int64]struct{})}
}

func (r *personResolver) resolved(id int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.done[id]
	return ok
}

func (r *personResolver) markResolved(id int64) {
	r.mu.Lock()
	r.done[id] = struct{}{}
	r.mu.Unlock()
}

// SyncMovies fetches and upserts movies selected by the given mode.
// People credited in a movie but unknown locally are fetched and
// created before the movie itself; a movie whose credited people cannot
// be resolved is counted as failed, never written with dangling roles.
func (s *Service) SyncMovies(ctx context.Context, mode Mode, opts BatchOptions) (*Report, error) {
	s.fillDefaults(&opts)
	ids, err := s.targets(ctx, tmdb.KindMovie, mode, s.store.Movies, &opts)
	if err != nil {
		return nil, err
	}

	resolver := newPersonResolver()
	result, err := runBatch(ctx, s.logger.Named("movies"), ids, opts.BatchSize,
		func(ctx context.Context, id int64) (*tmdb.MovieDetails, error) {
			details, err := s.client.MovieDetails(ctx, id, opts.Language)
			if err != nil {
				return nil, err
			}
			if err := s.ensureCreditedPeople(ctx, details, opts.Language, resolver); err != nil {
				return nil, err
			}
			return details, nil
		},
		func(ctx context.Context, payload *tmdb.MovieDetails) (bool, error) {
			if _, err := s.store.Companies.EnsureFromRefs(ctx, payload.ProdCompanies); err != nil {
				return false, err
			}
			return s.store.Movies.Upsert(ctx, payload)
		})
	if err != nil {
		return result.report(), err
	}

	report := result.report()
	if len(result.NotFound) > 0 {
		removed, err := s.store.Movies.MarkRemoved(ctx, result.NotFound)
		if err != nil {
			return report, err
		}
		report.Removed = removed
		report.Skipped -= removed
	}
	return report, nil
}

// ensureCreditedPeople creates local rows for every person credited in
// the payload that the catalog does not know yet. People gone upstream
// are tolerated; the upsert drops their roles. Any other fetch error
// fails the movie.
func (s *Service) ensureCreditedPeople(ctx context.Context, details *tmdb.MovieDetails, language string, resolver *personResolver) error {
	total := len(details.Credits.Cast) + len(details.Credits.Crew)
	seen := make(map[int64]struct{}, total)
	ids := make([]int64, 0, total)
	for _, m := range details.Credits.Cast {
		if _, dup := seen[m.PersonID]; !dup {
			seen[m.PersonID] = struct{}{}
			ids = append(ids, m.PersonID)
		}
	}
	for _, m := range details.Credits.Crew {
		if _, dup := seen[m.PersonID]; !dup {
			seen[m.PersonID] = struct{}{}
			ids = append(ids, m.PersonID)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	known, err := s.store.People.ExistingIDs(ctx, ids)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if _, ok := known[id]; ok {
			continue
		}
		if resolver.resolved(id) {
			continue
		}
		id := id
		_, err, _ := resolver.flight.Do(strconv.FormatInt(id, 10), func() (any, error) {
			person, err := s.client.PersonDetails(ctx, id, language)
			if err != nil {
				if errors.Is(err, tmdb.ErrNotFound) {
					s.logger.Debug("credited person gone upstream", "movie", details.ID, "person", id)
					resolver.markResolved(id)
					return nil, nil
				}
				return nil, err
			}
			if _, err := s.store.People.Upsert(ctx, person); err != nil {
				return nil, err
			}
			resolver.markResolved(id)
			return nil, nil
		})
		if err != nil {
			return fmt.Errorf("failed to resolve credited person %d: %w", id, err)
		}
	}
	return nil
}
