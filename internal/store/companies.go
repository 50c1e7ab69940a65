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

// CompanyRepository performs atomic per-company upserts and id queries.
type CompanyRepository struct {
	db     *gorm.DB
	logger hclog.Logger
}

// Upsert creates or fully replaces one production company. Unknown
// origin country codes are created defensively inside the same
// transaction.
func (r *CompanyRepository) Upsert(ctx context.Context, payload *tmdb.CompanyDetails) (created bool, err error) {
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing database.ProductionCompany
		findErr := tx.First(&existing, "tmdb_id = ?", payload.ID).Error
		if findErr != nil && findErr != gorm.ErrRecordNotFound {
			return fmt.Errorf("failed to look up company %d: %w", payload.ID, findErr)
		}

		var originCode *string
		if payload.OriginCountry != "" {
			if err := ensureCountry(tx, payload.OriginCountry, ""); err != nil {
				return fmt.Errorf("failed to ensure country %s: %w", payload.OriginCountry, err)
			}
			code := payload.OriginCountry
			originCode = &code
		}

		company := database.ProductionCompany{
			TMDBID:            payload.ID,
			Name:              payload.Name,
			LogoPath:          payload.LogoPath,
			OriginCountryCode: originCode,
			Removed:           false,
		}

		if findErr == nil {
			company.Slug = existing.Slug
			company.Adult = existing.Adult
			company.MovieCount = existing.MovieCount
		} else {
			created = true
			company.Slug = slugify.New(func(slug string) bool {
				return slugTaken(tx, &database.ProductionCompany{}, slug)
			}).Slug(payload.Name)
		}

		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tmdb_id"}},
			UpdateAll: true,
		}).Create(&company).Error; err != nil {
			return fmt.Errorf("failed to upsert company %d: %w", payload.ID, err)
		}
		return nil
	})
	return created, err
}

// EnsureFromRefs creates placeholder rows for companies referenced by a
// movie payload that are not yet known locally, so movie-company links
// always resolve. Returns the number created.
func (r *CompanyRepository) EnsureFromRefs(ctx context.Context, refs []tmdb.CompanyRef) (int64, error) {
	var created int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		slugger := slugify.New(func(slug string) bool {
			return slugTaken(tx, &database.ProductionCompany{}, slug)
		})

		seen := make(map[int64]struct{}, len(refs))
		for _, ref := range refs {
			if _, dup := seen[ref.ID]; dup {
				continue
			}
			seen[ref.ID] = struct{}{}

			var count int64
			if err := tx.Model(&database.ProductionCompany{}).Where("tmdb_id = ?", ref.ID).Count(&count).Error; err != nil {
				return fmt.Errorf("failed to look up company %d: %w", ref.ID, err)
			}
			if count > 0 {
				continue
			}

			var originCode *string
			if ref.OriginCountry != "" {
				if err := ensureCountry(tx, ref.OriginCountry, ""); err != nil {
					return fmt.Errorf("failed to ensure country %s: %w", ref.OriginCountry, err)
				}
				code := ref.OriginCountry
				originCode = &code
			}

			company := database.ProductionCompany{
				TMDBID:            ref.ID,
				Name:              ref.Name,
				Slug:              slugger.Slug(ref.Name),
				LogoPath:          ref.LogoPath,
				OriginCountryCode: originCode,
			}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&company).Error; err != nil {
				return fmt.Errorf("failed to create company %d: %w", ref.ID, err)
			}
			created++
		}
		return nil
	})
	return created, err
}

// ExistingIDs returns which of the given ids are known locally. With no
// ids it returns every known id.
func (r *CompanyRepository) ExistingIDs(ctx context.Context, ids []int64) (map[int64]struct{}, error) {
	return existingIDs(r.db.WithContext(ctx), &database.ProductionCompany{}, ids)
}

// LiveIDs returns all non-removed company ids.
func (r *CompanyRepository) LiveIDs(ctx context.Context) ([]int64, error) {
	return liveIDs(r.db.WithContext(ctx), &database.ProductionCompany{})
}

// MarkRemoved flags the given ids as removed from upstream.
func (r *CompanyRepository) MarkRemoved(ctx context.Context, ids []int64) (int64, error) {
	return markRemoved(r.db.WithContext(ctx), &database.ProductionCompany{}, ids)
}
