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

// MovieRepository performs atomic per-movie upserts. One upsert maps a
// detail payload to the movie row, its reference-data links, its
// company links and its full cast/crew set, in a single transaction.
type MovieRepository struct {
	db     *gorm.DB
	logger hclog.Logger
}

// Upsert creates or fully replaces one movie and all of its relations.
// The payload's role list replaces the stored one wholesale; upstream
// has no role-level diffs. Roles referencing people unknown locally are
// dropped (fetch ordering should have created them first). A failure
// anywhere rolls the whole movie back to its prior state.
func (r *MovieRepository) Upsert(ctx context.Context, payload *tmdb.MovieDetails) (created bool, err error) {
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing database.Movie
		findErr := tx.First(&existing, "tmdb_id = ?", payload.ID).Error
		if findErr != nil && findErr != gorm.ErrRecordNotFound {
			return fmt.Errorf("failed to look up movie %d: %w", payload.ID, findErr)
		}

		// Reference rows first so every link below resolves.
		var originalLanguage *string
		if payload.OriginalLanguage != "" {
			if err := ensureLanguage(tx, payload.OriginalLanguage, ""); err != nil {
				return err
			}
			code := payload.OriginalLanguage
			originalLanguage = &code
		}

		genreIDs := make([]int64, 0, len(payload.Genres))
		for _, g := range payload.Genres {
			if err := ensureGenre(tx, g.ID, g.Name); err != nil {
				return err
			}
			genreIDs = append(genreIDs, g.ID)
		}
		for _, l := range payload.SpokenLanguages {
			if err := ensureLanguage(tx, l.Code, l.EnglishName); err != nil {
				return err
			}
		}
		for _, code := range payload.OriginCountry {
			if err := ensureCountry(tx, code, ""); err != nil {
				return err
			}
		}
		for _, c := range payload.ProdCountries {
			if err := ensureCountry(tx, c.Code, c.Name); err != nil {
				return err
			}
		}

		if err := ensureCollection(tx, payload.Collection); err != nil {
			return err
		}
		var collectionID *int64
		if payload.Collection != nil {
			id := payload.Collection.ID
			collectionID = &id
		}

		now := time.Now().UTC()
		movie := database.Movie{
			TMDBID:               payload.ID,
			Title:                payload.Title,
			IMDBID:               payload.IMDBID,
			ReleaseDate:          parseDate(payload.ReleaseDate),
			OriginalTitle:        payload.OriginalTitle,
			OriginalLanguageCode: originalLanguage,
			Overview:             payload.Overview,
			Tagline:              payload.Tagline,
			CollectionID:         collectionID,
			PosterPath:           payload.PosterPath,
			BackdropPath:         payload.BackdropPath,
			Status:               database.StatusFromString(payload.Status),
			Budget:               payload.Budget,
			Revenue:              payload.Revenue,
			Runtime:              payload.Runtime,
			Popularity:           payload.Popularity,
			Adult:                payload.Adult,
			Removed:              false,
			LastUpdate:           now,
			CreatedAt:            now,
		}
		movie.Categorize(genreIDs)

		if findErr == nil {
			movie.Slug = existing.Slug
			movie.CreatedAt = existing.CreatedAt
			movie.Adult = existing.Adult
		} else {
			created = true
			movie.Slug = slugify.New(func(slug string) bool {
				return slugTaken(tx, &database.Movie{}, slug)
			}).Slug(payload.Title)
		}

		if err := tx.Omit(clause.Associations).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tmdb_id"}},
			UpdateAll: true,
		}).Create(&movie).Error; err != nil {
			return fmt.Errorf("failed to upsert movie %d: %w", payload.ID, err)
		}

		if err := r.replaceLinks(tx, &movie, payload); err != nil {
			return err
		}
		return r.replaceRoles(tx, payload)
	})
	return created, err
}

// replaceLinks rewrites the movie's many-to-many link rows to exactly
// match the payload.
func (r *MovieRepository) replaceLinks(tx *gorm.DB, movie *database.Movie, payload *tmdb.MovieDetails) error {
	genres := make([]database.Genre, 0, len(payload.Genres))
	for _, g := range payload.Genres {
		genres = append(genres, database.Genre{TMDBID: g.ID})
	}
	if err := tx.Model(movie).Association("Genres").Replace(genres); err != nil {
		return fmt.Errorf("failed to replace genres for movie %d: %w", movie.TMDBID, err)
	}

	spoken := make([]database.Language, 0, len(payload.SpokenLanguages))
	for _, l := range payload.SpokenLanguages {
		spoken = append(spoken, database.Language{Code: l.Code})
	}
	if err := tx.Model(movie).Association("SpokenLanguages").Replace(spoken); err != nil {
		return fmt.Errorf("failed to replace spoken languages for movie %d: %w", movie.TMDBID, err)
	}

	origin := make([]database.Country, 0, len(payload.OriginCountry))
	for _, code := range payload.OriginCountry {
		origin = append(origin, database.Country{Code: code})
	}
	if err := tx.Model(movie).Association("OriginCountries").Replace(origin); err != nil {
		return fmt.Errorf("failed to replace origin countries for movie %d: %w", movie.TMDBID, err)
	}

	prodCountries := make([]database.Country, 0, len(payload.ProdCountries))
	for _, c := range payload.ProdCountries {
		prodCountries = append(prodCountries, database.Country{Code: c.Code})
	}
	if err := tx.Model(movie).Association("ProductionCountries").Replace(prodCountries); err != nil {
		return fmt.Errorf("failed to replace production countries for movie %d: %w", movie.TMDBID, err)
	}

	seen := make(map[int64]struct{}, len(payload.ProdCompanies))
	companies := make([]database.ProductionCompany, 0, len(payload.ProdCompanies))
	for _, c := range payload.ProdCompanies {
		if _, dup := seen[c.ID]; dup {
			continue
		}
		seen[c.ID] = struct{}{}
		companies = append(companies, database.ProductionCompany{TMDBID: c.ID})
	}
	if err := tx.Model(movie).Association("ProductionCompanies").Replace(companies); err != nil {
		return fmt.Errorf("failed to replace production companies for movie %d: %w", movie.TMDBID, err)
	}

	return nil
}

// replaceRoles deletes the movie's stored cast and crew and inserts the
// payload's current lists. Roles whose person has no local row are
// dropped to keep referential integrity.
func (r *MovieRepository) replaceRoles(tx *gorm.DB, payload *tmdb.MovieDetails) error {
	personIDs := make([]int64, 0, len(payload.Credits.Cast)+len(payload.Credits.Crew))
	for _, member := range payload.Credits.Cast {
		personIDs = append(personIDs, member.PersonID)
	}
	for _, member := range payload.Credits.Crew {
		personIDs = append(personIDs, member.PersonID)
	}
	known, err := existingIDs(tx, &database.Person{}, personIDs)
	if err != nil {
		return err
	}

	if err := tx.Where("movie_id = ?", payload.ID).Delete(&database.MovieCast{}).Error; err != nil {
		return fmt.Errorf("failed to clear cast for movie %d: %w", payload.ID, err)
	}
	if err := tx.Where("movie_id = ?", payload.ID).Delete(&database.MovieCrew{}).Error; err != nil {
		return fmt.Errorf("failed to clear crew for movie %d: %w", payload.ID, err)
	}

	var cast []database.MovieCast
	castSeen := make(map[[2]interface{}]struct{})
	for _, member := range payload.Credits.Cast {
		if _, ok := known[member.PersonID]; !ok {
			r.logger.Debug("dropping cast role for unknown person",
				"movie", payload.ID, "person", member.PersonID)
			continue
		}
		key := [2]interface{}{member.PersonID, member.Character}
		if _, dup := castSeen[key]; dup {
			continue
		}
		castSeen[key] = struct{}{}
		cast = append(cast, database.MovieCast{
			MovieID:   payload.ID,
			PersonID:  member.PersonID,
			Character: member.Character,
			Ord:       member.Order,
		})
	}
	if len(cast) > 0 {
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&cast).Error; err != nil {
			return fmt.Errorf("failed to insert cast for movie %d: %w", payload.ID, err)
		}
	}

	var crew []database.MovieCrew
	crewSeen := make(map[[3]interface{}]struct{})
	for _, member := range payload.Credits.Crew {
		if _, ok := known[member.PersonID]; !ok {
			r.logger.Debug("dropping crew role for unknown person",
				"movie", payload.ID, "person", member.PersonID)
			continue
		}
		key := [3]interface{}{member.PersonID, member.Department, member.Job}
		if _, dup := crewSeen[key]; dup {
			continue
		}
		crewSeen[key] = struct{}{}
		crew = append(crew, database.MovieCrew{
			MovieID:    payload.ID,
			PersonID:   member.PersonID,
			Department: member.Department,
			Job:        member.Job,
		})
	}
	if len(crew) > 0 {
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&crew).Error; err != nil {
			return fmt.Errorf("failed to insert crew for movie %d: %w", payload.ID, err)
		}
	}

	return nil
}

// ExistingIDs returns which of the given ids are known locally. With no
// ids it returns every known id.
func (r *MovieRepository) ExistingIDs(ctx context.Context, ids []int64) (map[int64]struct{}, error) {
	return existingIDs(r.db.WithContext(ctx), &database.Movie{}, ids)
}

// LiveIDs returns all non-removed movie ids.
func (r *MovieRepository) LiveIDs(ctx context.Context) ([]int64, error) {
	return liveIDs(r.db.WithContext(ctx), &database.Movie{})
}

// StaleIDs filters the changed-id set down to rows that are still live
// and were last updated before the change window opened.
func (r *MovieRepository) StaleIDs(ctx context.Context, changed map[int64]struct{}, before time.Time) ([]int64, error) {
	return staleIDs(r.db.WithContext(ctx), &database.Movie{}, changed, before)
}

// MarkRemoved flags the given ids as removed from upstream.
func (r *MovieRepository) MarkRemoved(ctx context.Context, ids []int64) (int64, error) {
	return markRemoved(r.db.WithContext(ctx), &database.Movie{}, ids)
}

// UpdatePopularity refreshes popularity scores from an export snapshot.
func (r *MovieRepository) UpdatePopularity(ctx context.Context, scores map[int64]float64) (int64, error) {
	return updatePopularity(r.db.WithContext(ctx), &database.Movie{}, scores)
}
