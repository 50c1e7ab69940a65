package store

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/filmatlas/filmatlas/internal/database"
	"github.com/filmatlas/filmatlas/internal/slugify"
	"github.com/filmatlas/filmatlas/internal/tmdb"
)

// PersonRepository performs atomic per-person upserts and id queries.
type PersonRepository struct {
	db     *gorm.DB
	logger hclog.Logger
}

// Upsert creates or fully replaces one person from its detail payload.
// Slug, created_at and the adult flag survive updates; everything else
// is replaced. A successful upsert clears the removed flag.
func (r *PersonRepository) Upsert(ctx context.Context, payload *tmdb.PersonDetails) (created bool, err error) {
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing database.Person
		findErr := tx.First(&existing, "tmdb_id = ?", payload.ID).Error
		if findErr != nil && findErr != gorm.ErrRecordNotFound {
			return fmt.Errorf("failed to look up person %d: %w", payload.ID, findErr)
		}

		now := time.Now().UTC()
		person := database.Person{
			TMDBID:             payload.ID,
			Name:               payload.Name,
			IMDBID:             payload.IMDBID,
			KnownForDepartment: payload.KnownForDepartment,
			Biography:          payload.Biography,
			PlaceOfBirth:       payload.PlaceOfBirth,
			Gender:             database.GenderFromCode(payload.Gender),
			Birthday:           parseDate(payload.Birthday),
			Deathday:           parseDate(payload.Deathday),
			ProfilePath:        payload.ProfilePath,
			Popularity:         payload.Popularity,
			Adult:              payload.Adult,
			Removed:            false,
			LastUpdate:         now,
			CreatedAt:          now,
		}

		if findErr == nil {
			person.Slug = existing.Slug
			person.CreatedAt = existing.CreatedAt
			person.Adult = existing.Adult
		} else {
			created = true
			person.Slug = slugify.New(func(slug string) bool {
				return slugTaken(tx, &database.Person{}, slug)
			}).Slug(payload.Name)
		}

		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tmdb_id"}},
			UpdateAll: true,
		}).Create(&person).Error; err != nil {
			return fmt.Errorf("failed to upsert person %d: %w", payload.ID, err)
		}
		return nil
	})
	return created, err
}

// ExistingIDs returns which of the given ids are known locally. With no
// ids it returns every known id.
func (r *PersonRepository) ExistingIDs(ctx context.Context, ids []int64) (map[int64]struct{}, error) {
	return existingIDs(r.db.WithContext(ctx), &database.Person{}, ids)
}

// LiveIDs returns all non-removed person ids.
func (r *PersonRepository) LiveIDs(ctx context.Context) ([]int64, error) {
	return liveIDs(r.db.WithContext(ctx), &database.Person{})
}

// StaleIDs filters the changed-id set down to rows that are still live
// and were last updated before the change window opened.
func (r *PersonRepository) StaleIDs(ctx context.Context, changed map[int64]struct{}, before time.Time) ([]int64, error) {
	return staleIDs(r.db.WithContext(ctx), &database.Person{}, changed, before)
}

// MarkRemoved flags the given ids as removed from upstream. It is the
// only write that sets the flag and is idempotent: already-removed rows
// do not count toward the returned total.
func (r *PersonRepository) MarkRemoved(ctx context.Context, ids []int64) (int64, error) {
	return markRemoved(r.db.WithContext(ctx), &database.Person{}, ids)
}

// UpdatePopularity refreshes popularity scores from an export snapshot.
// Only rows whose stored score differs are touched.
func (r *PersonRepository) UpdatePopularity(ctx context.Context, scores map[int64]float64) (int64, error) {
	return updatePopularity(r.db.WithContext(ctx), &database.Person{}, scores)
}

// Shared id-query helpers. Every entity repository exposes the same
// surface over its own model.

func existingIDs(db *gorm.DB, model any, ids []int64) (map[int64]struct{}, error) {
	result := make(map[int64]struct{})
	if ids == nil {
		var all []int64
		if err := db.Model(model).Pluck("tmdb_id", &all).Error; err != nil {
			return nil, fmt.Errorf("failed to list ids: %w", err)
		}
		for _, id := range all {
			result[id] = struct{}{}
		}
		return result, nil
	}

	for _, chunk := range chunkIDs(ids, 500) {
		var found []int64
		if err := db.Model(model).Where("tmdb_id IN ?", chunk).Pluck("tmdb_id", &found).Error; err != nil {
			return nil, fmt.Errorf("failed to filter known ids: %w", err)
		}
		for _, id := range found {
			result[id] = struct{}{}
		}
	}
	return result, nil
}

func liveIDs(db *gorm.DB, model any) ([]int64, error) {
	var ids []int64
	if err := db.Model(model).Where("removed = ?", false).Pluck("tmdb_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to list live ids: %w", err)
	}
	return ids, nil
}

func staleIDs(db *gorm.DB, model any, changed map[int64]struct{}, before time.Time) ([]int64, error) {
	candidates := make([]int64, 0, len(changed))
	for id := range changed {
		candidates = append(candidates, id)
	}

	var stale []int64
	for _, chunk := range chunkIDs(candidates, 500) {
		var found []int64
		err := db.Model(model).
			Where("tmdb_id IN ? AND removed = ? AND last_update < ?", chunk, false, before).
			Pluck("tmdb_id", &found).Error
		if err != nil {
			return nil, fmt.Errorf("failed to filter stale ids: %w", err)
		}
		stale = append(stale, found...)
	}
	return stale, nil
}

func markRemoved(db *gorm.DB, model any, ids []int64) (int64, error) {
	var total int64
	for _, chunk := range chunkIDs(ids, 500) {
		result := db.Model(model).
			Where("tmdb_id IN ? AND removed = ?", chunk, false).
			Update("removed", true)
		if result.Error != nil {
			return total, fmt.Errorf("failed to mark removed: %w", result.Error)
		}
		total += result.RowsAffected
	}
	return total, nil
}

func updatePopularity(db *gorm.DB, model any, scores map[int64]float64) (int64, error) {
	var total int64
	for id, score := range scores {
		result := db.Model(model).
			Where("tmdb_id = ? AND popularity <> ?", id, score).
			Update("popularity", score)
		if result.Error != nil {
			return total, fmt.Errorf("failed to update popularity for %d: %w", id, result.Error)
		}
		total += result.RowsAffected
	}
	return total, nil
}
