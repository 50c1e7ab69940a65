package sync

import (
	"context"
	"fmt"

	"github.com/filmatlas/filmatlas/internal/tmdb"
)

// SyncPopularity refreshes popularity scores for movies or people from
// the daily export's per-line popularity field, without any detail
// fetches. Limit selects the top-N most popular export entries.
func (s *Service) SyncPopularity(ctx context.Context, kind tmdb.Kind, opts BatchOptions) (*Report, error) {
	s.fillDefaults(&opts)

	var update func(context.Context, map[int64]float64) (int64, error)
	switch kind {
	case tmdb.KindMovie:
		update = s.store.Movies.UpdatePopularity
	case tmdb.KindPerson:
		update = s.store.People.UpdatePopularity
	default:
		return nil, fmt.Errorf("kind %q carries no popularity scores", kind)
	}

	export, err := s.exports.Read(ctx, kind, opts.Date)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s export: %w", kind, err)
	}
	export.SortByPopularity()
	ids := limitIDs(export.IDs, opts.Limit)

	scores := make(map[int64]float64, len(ids))
	for _, id := range ids {
		scores[id] = export.Popularity[id]
	}
	updated, err := update(ctx, scores)
	if err != nil {
		return nil, err
	}
	s.logger.Info("popularity refreshed", "kind", kind, "scored", len(scores), "updated", updated)
	return &Report{Updated: updated}, nil
}
