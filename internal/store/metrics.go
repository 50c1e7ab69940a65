package store

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-hclog"
	"gorm.io/gorm"

	"github.com/filmatlas/filmatlas/internal/database"
)

// MetricsRepository recomputes the derived counters stored on people,
// production companies and collections. All statements are correlated
// subquery UPDATEs so they run unchanged on sqlite and postgres.
type MetricsRepository struct {
	db     *gorm.DB
	logger hclog.Logger
}

// RecomputeAll refreshes every derived metric. Removed movies never
// contribute to any counter.
func (r *MetricsRepository) RecomputeAll(ctx context.Context) error {
	if err := r.RecomputeRoleCounts(ctx); err != nil {
		return err
	}
	if err := r.RecomputeCompanyCounts(ctx); err != nil {
		return err
	}
	return r.RecomputeCollectionStats(ctx)
}

// RecomputeRoleCounts rewrites cast_roles_count and crew_roles_count on
// every person. A person appearing twice in one movie's cast counts the
// movie once.
func (r *MetricsRepository) RecomputeRoleCounts(ctx context.Context) error {
	db := r.db.WithContext(ctx)

	err := db.Exec(`
		UPDATE people SET cast_roles_count = (
			SELECT COUNT(DISTINCT mc.movie_id)
			FROM movie_casts mc
			JOIN movies m ON m.tmdb_id = mc.movie_id
			WHERE mc.person_id = people.tmdb_id AND m.removed = ?
		)`, false).Error
	if err != nil {
		return fmt.Errorf("failed to recompute cast role counts: %w", err)
	}

	err = db.Exec(`
		UPDATE people SET crew_roles_count = (
			SELECT COUNT(DISTINCT mc.movie_id)
			FROM movie_crews mc
			JOIN movies m ON m.tmdb_id = mc.movie_id
			WHERE mc.person_id = people.tmdb_id AND m.removed = ?
		)`, false).Error
	if err != nil {
		return fmt.Errorf("failed to recompute crew role counts: %w", err)
	}
	return nil
}

// RecomputeCompanyCounts rewrites movie_count on every production
// company.
func (r *MetricsRepository) RecomputeCompanyCounts(ctx context.Context) error {
	err := r.db.WithContext(ctx).Exec(`
		UPDATE production_companies SET movie_count = (
			SELECT COUNT(DISTINCT mpc.movie_tmdb_id)
			FROM movie_production_companies mpc
			JOIN movies m ON m.tmdb_id = mpc.movie_tmdb_id
			WHERE mpc.production_company_tmdb_id = production_companies.tmdb_id
			  AND m.removed = ?
		)`, false).Error
	if err != nil {
		return fmt.Errorf("failed to recompute company movie counts: %w", err)
	}
	return nil
}

// RecomputeCollectionStats rewrites movies_released and avg_popularity
// on every collection. movies_released counts only released, live
// member movies; avg_popularity averages over all live members and
// falls back to zero for empty collections.
func (r *MetricsRepository) RecomputeCollectionStats(ctx context.Context) error {
	db := r.db.WithContext(ctx)

	err := db.Exec(`
		UPDATE collections SET movies_released = (
			SELECT COUNT(m.tmdb_id)
			FROM movies m
			WHERE m.collection_id = collections.tmdb_id
			  AND m.removed = ? AND m.status = ?
		)`, false, database.StatusReleased).Error
	if err != nil {
		return fmt.Errorf("failed to recompute collection release counts: %w", err)
	}

	err = db.Exec(`
		UPDATE collections SET avg_popularity = (
			SELECT COALESCE(AVG(m.popularity), 0)
			FROM movies m
			WHERE m.collection_id = collections.tmdb_id AND m.removed = ?
		)`, false).Error
	if err != nil {
		return fmt.Errorf("failed to recompute collection popularity: %w", err)
	}
	return nil
}

// PropagateAdultFlags marks movies adult when their collection is
// adult, and returns how many rows changed.
func (r *MetricsRepository) PropagateAdultFlags(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).Exec(`
		UPDATE movies SET adult = ?
		WHERE adult = ? AND collection_id IN (
			SELECT tmdb_id FROM collections WHERE adult = ?
		)`, true, false, true)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to propagate adult flags: %w", result.Error)
	}
	return result.RowsAffected, nil
}
