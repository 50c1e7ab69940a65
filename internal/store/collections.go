package store

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-hclog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/filmatlas/filmatlas/internal/database"
	"github.com/filmatlas/filmatlas/internal/slugify"
	"github.com/filmatlas/filmatlas/internal/tmdb"
)

// CollectionRepository performs atomic per-collection upserts and id
// queries. Collections referenced by movies before their own detail
// fetch exist as placeholder rows enriched later.
type CollectionRepository struct {
	db     *gorm.DB
	logger hclog.Logger
}

// Upsert creates or fully replaces one collection from its detail payload.
func (r *CollectionRepository) Upsert(ctx context.Context, payload *tmdb.CollectionDetails) (created bool, err error) {
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing database.Collection
		findErr := tx.First(&existing, "tmdb_id = ?", payload.ID).Error
		if findErr != nil && findErr != gorm.ErrRecordNotFound {
			return fmt.Errorf("failed to look up collection %d: %w", payload.ID, findErr)
		}

		collection := database.Collection{
			TMDBID:       payload.ID,
			Name:         payload.Name,
			Overview:     payload.Overview,
			PosterPath:   payload.PosterPath,
			BackdropPath: payload.BackdropPath,
			Removed:      false,
		}

		if findErr == nil {
			collection.Slug = existing.Slug
			collection.Adult = existing.Adult
			collection.MoviesReleased = existing.MoviesReleased
			collection.AvgPopularity = existing.AvgPopularity
		} else {
			created = true
			collection.Slug = slugify.New(func(slug string) bool {
				return slugTaken(tx, &database.Collection{}, slug)
			}).Slug(payload.Name)
		}

		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tmdb_id"}},
			UpdateAll: true,
		}).Create(&collection).Error; err != nil {
			return fmt.Errorf("failed to upsert collection %d: %w", payload.ID, err)
		}
		return nil
	})
	return created, err
}

// ensureCollection creates a placeholder row for a collection referenced
// by a movie payload, inside the caller's transaction. The placeholder
// carries the inline fields only; its own detail fetch enriches it.
func ensureCollection(tx *gorm.DB, ref *tmdb.CollectionRef) error {
	if ref == nil {
		return nil
	}

	var count int64
	if err := tx.Model(&database.Collection{}).Where("tmdb_id = ?", ref.ID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to look up collection %d: %w", ref.ID, err)
	}
	if count > 0 {
		return nil
	}

	collection := database.Collection{
		TMDBID: ref.ID,
		Name:   ref.Name,
		Slug: slugify.New(func(slug string) bool {
			return slugTaken(tx, &database.Collection{}, slug)
		}).Slug(ref.Name),
		PosterPath:   ref.PosterPath,
		BackdropPath: ref.BackdropPath,
	}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&collection).Error; err != nil {
		return fmt.Errorf("failed to create collection placeholder %d: %w", ref.ID, err)
	}
	return nil
}

// ExistingIDs returns which of the given ids are known locally. With no
// ids it returns every known id.
func (r *CollectionRepository) ExistingIDs(ctx context.Context, ids []int64) (map[int64]struct{}, error) {
	return existingIDs(r.db.WithContext(ctx), &database.Collection{}, ids)
}

// LiveIDs returns all non-removed collection ids.
func (r *CollectionRepository) LiveIDs(ctx context.Context) ([]int64, error) {
	return liveIDs(r.db.WithContext(ctx), &database.Collection{})
}

// MarkRemoved flags the given ids as removed from upstream.
func (r *CollectionRepository) MarkRemoved(ctx context.Context, ids []int64) (int64, error) {
	return markRemoved(r.db.WithContext(ctx), &database.Collection{}, ids)
}
