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

// ReferenceRepository maintains the static reference sets: genres,
// countries and languages. All loads are idempotent upserts; unknown
// codes met during entity upserts are created defensively with the
// placeholder name "unknown" and enriched by the next reference load.
type ReferenceRepository struct {
	db     *gorm.DB
	logger hclog.Logger
}

// UpsertGenres creates or updates the official genre list.
func (r *ReferenceRepository) UpsertGenres(ctx context.Context, genres []tmdb.Genre) (created, updated int64, err error) {
	db := r.db.WithContext(ctx)
	slugger := slugify.New(func(slug string) bool {
		return slugTaken(db, &database.Genre{}, slug)
	})

	for _, g := range genres {
		var existing database.Genre
		findErr := db.First(&existing, "tmdb_id = ?", g.ID).Error

		switch {
		case findErr == nil:
			if err := db.Model(&existing).Update("name", g.Name).Error; err != nil {
				return created, updated, fmt.Errorf("failed to update genre %d: %w", g.ID, err)
			}
			updated++
		case findErr == gorm.ErrRecordNotFound:
			genre := database.Genre{TMDBID: g.ID, Name: g.Name, Slug: slugger.Slug(g.Name)}
			if err := db.Create(&genre).Error; err != nil {
				return created, updated, fmt.Errorf("failed to create genre %d: %w", g.ID, err)
			}
			created++
		default:
			return created, updated, fmt.Errorf("failed to look up genre %d: %w", g.ID, findErr)
		}
	}
	return created, updated, nil
}

// UpsertCountries creates or updates the country reference set.
func (r *ReferenceRepository) UpsertCountries(ctx context.Context, countries []tmdb.Country) (created, updated int64, err error) {
	db := r.db.WithContext(ctx)
	slugger := slugify.New(func(slug string) bool {
		return slugTaken(db, &database.Country{}, slug)
	})

	for _, c := range countries {
		var existing database.Country
		findErr := db.First(&existing, "code = ?", c.Code).Error

		switch {
		case findErr == nil:
			if err := db.Model(&existing).Update("name", c.EnglishName).Error; err != nil {
				return created, updated, fmt.Errorf("failed to update country %s: %w", c.Code, err)
			}
			updated++
		case findErr == gorm.ErrRecordNotFound:
			country := database.Country{Code: c.Code, Name: c.EnglishName, Slug: slugger.Slug(c.EnglishName)}
			if err := db.Create(&country).Error; err != nil {
				return created, updated, fmt.Errorf("failed to create country %s: %w", c.Code, err)
			}
			created++
		default:
			return created, updated, fmt.Errorf("failed to look up country %s: %w", c.Code, findErr)
		}
	}
	return created, updated, nil
}

// UpsertLanguages creates or updates the language reference set.
func (r *ReferenceRepository) UpsertLanguages(ctx context.Context, languages []tmdb.Language) (created, updated int64, err error) {
	db := r.db.WithContext(ctx)
	slugger := slugify.New(func(slug string) bool {
		return slugTaken(db, &database.Language{}, slug)
	})

	for _, l := range languages {
		var existing database.Language
		findErr := db.First(&existing, "code = ?", l.Code).Error

		switch {
		case findErr == nil:
			if err := db.Model(&existing).Update("name", l.EnglishName).Error; err != nil {
				return created, updated, fmt.Errorf("failed to update language %s: %w", l.Code, err)
			}
			updated++
		case findErr == gorm.ErrRecordNotFound:
			language := database.Language{Code: l.Code, Name: l.EnglishName, Slug: slugger.Slug(l.EnglishName)}
			if err := db.Create(&language).Error; err != nil {
				return created, updated, fmt.Errorf("failed to create language %s: %w", l.Code, err)
			}
			created++
		default:
			return created, updated, fmt.Errorf("failed to look up language %s: %w", l.Code, findErr)
		}
	}
	return created, updated, nil
}

// ensureCountry creates a country row for an unknown code inside the
// caller's transaction. Codes without a name get the "unknown"
// placeholder, replaced by the next full reference load.
func ensureCountry(tx *gorm.DB, code, name string) error {
	if code == "" {
		return nil
	}
	if name == "" {
		name = "unknown"
	}
	country := database.Country{Code: code, Name: name, Slug: slugify.New(func(slug string) bool {
		return slugTaken(tx, &database.Country{}, slug)
	}).Slug(name + "-" + code)}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&country).Error
}

// ensureLanguage creates a language row for an unknown code inside the
// caller's transaction.
func ensureLanguage(tx *gorm.DB, code, name string) error {
	if code == "" {
		return nil
	}
	if name == "" {
		name = "unknown"
	}
	language := database.Language{Code: code, Name: name, Slug: slugify.New(func(slug string) bool {
		return slugTaken(tx, &database.Language{}, slug)
	}).Slug(name + "-" + code)}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&language).Error
}

// ensureGenre creates a genre row for an id not yet known locally.
func ensureGenre(tx *gorm.DB, id int64, name string) error {
	if name == "" {
		name = "unknown"
	}
	genre := database.Genre{TMDBID: id, Name: name, Slug: slugify.New(func(slug string) bool {
		return slugTaken(tx, &database.Genre{}, slug)
	}).Slug(name)}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&genre).Error
}
