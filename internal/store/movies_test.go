package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filmatlas/filmatlas/internal/database"
	"github.com/filmatlas/filmatlas/internal/tmdb"
)

func matrixPayload() *tmdb.MovieDetails {
	return &tmdb.MovieDetails{
		ID:               603,
		Title:            "The Matrix",
		IMDBID:           "tt0133093",
		OriginalTitle:    "The Matrix",
		OriginalLanguage: "en",
		Overview:         "A computer hacker learns the truth.",
		ReleaseDate:      "1999-03-30",
		Status:           "Released",
		Budget:           63000000,
		Revenue:          463517383,
		Runtime:          136,
		Popularity:       85.3,
		Genres: []tmdb.Genre{
			{ID: 28, Name: "Action"},
			{ID: 878, Name: "Science Fiction"},
		},
		SpokenLanguages: []tmdb.LanguageRef{{Code: "en", EnglishName: "English"}},
		OriginCountry:   []string{"US"},
		ProdCountries:   []tmdb.CountryRef{{Code: "US", Name: "United States of America"}},
		ProdCompanies:   []tmdb.CompanyRef{{ID: 79, Name: "Village Roadshow"}},
		Collection:      &tmdb.CollectionRef{ID: 2344, Name: "The Matrix Collection"},
		Credits: tmdb.Credits{
			Cast: []tmdb.CastMember{
				{PersonID: 6384, Name: "Keanu Reeves", Character: "Neo", Order: 0},
				{PersonID: 2975, Name: "Laurence Fishburne", Character: "Morpheus", Order: 1},
			},
			Crew: []tmdb.CrewMember{
				{PersonID: 9340, Name: "Lana Wachowski", Department: "Directing", Job: "Director"},
			},
		},
	}
}

func createPeople(t *testing.T, st *Store, ids ...int64) {
	t.Helper()
	for _, id := range ids {
		_, err := st.People.Upsert(context.Background(), &tmdb.PersonDetails{ID: id, Name: "person"})
		require.NoError(t, err)
	}
}

func TestMovieUpsertFull(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()
	createPeople(t, st, 6384, 2975, 9340)

	created, err := st.Movies.Upsert(ctx, matrixPayload())
	require.NoError(t, err)
	assert.True(t, created)

	var movie database.Movie
	err = st.DB().
		Preload("Genres").Preload("SpokenLanguages").
		Preload("OriginCountries").Preload("ProductionCountries").
		Preload("ProductionCompanies").Preload("Cast").Preload("Crew").
		First(&movie, "tmdb_id = ?", 603).Error
	require.NoError(t, err)

	assert.Equal(t, "the-matrix", movie.Slug)
	assert.Equal(t, database.StatusReleased, movie.Status)
	require.NotNil(t, movie.ReleaseDate)
	assert.Equal(t, 1999, movie.ReleaseDate.Year())
	require.NotNil(t, movie.OriginalLanguageCode)
	assert.Equal(t, "en", *movie.OriginalLanguageCode)
	require.NotNil(t, movie.CollectionID)
	assert.Equal(t, int64(2344), *movie.CollectionID)
	assert.False(t, movie.Documentary)
	assert.False(t, movie.TVMovie)
	assert.False(t, movie.Short)
	assert.False(t, movie.Removed)

	assert.Len(t, movie.Genres, 2)
	assert.Len(t, movie.SpokenLanguages, 1)
	assert.Len(t, movie.OriginCountries, 1)
	assert.Len(t, movie.ProductionCountries, 1)
	assert.Len(t, movie.ProductionCompanies, 1)
	require.Len(t, movie.Cast, 2)
	assert.Len(t, movie.Crew, 1)

	// Unknown reference codes got placeholder rows inside the same tx.
	var genre database.Genre
	require.NoError(t, st.DB().First(&genre, "tmdb_id = ?", 878).Error)
	assert.Equal(t, "Science Fiction", genre.Name)
	var collection database.Collection
	require.NoError(t, st.DB().First(&collection, "tmdb_id = ?", 2344).Error)
	assert.Equal(t, "The Matrix Collection", collection.Name)
}

func TestMovieUpsertIdempotent(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()
	createPeople(t, st, 6384, 2975, 9340)

	created, err := st.Movies.Upsert(ctx, matrixPayload())
	require.NoError(t, err)
	assert.True(t, created)

	created, err = st.Movies.Upsert(ctx, matrixPayload())
	require.NoError(t, err)
	assert.False(t, created)

	var movie database.Movie
	require.NoError(t, st.DB().Preload("Cast").Preload("Genres").First(&movie, "tmdb_id = ?", 603).Error)
	assert.Equal(t, "the-matrix", movie.Slug)
	assert.Len(t, movie.Cast, 2)
	assert.Len(t, movie.Genres, 2)

	var castRows int64
	require.NoError(t, st.DB().Model(&database.MovieCast{}).Count(&castRows).Error)
	assert.Equal(t, int64(2), castRows)
}

func TestMovieRoleReplacement(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()
	createPeople(t, st, 6384, 2975, 9340, 530)

	_, err := st.Movies.Upsert(ctx, matrixPayload())
	require.NoError(t, err)

	// The refreshed payload renames a character, drops one role and
	// adds another. The stored set must match exactly.
	refreshed := matrixPayload()
	refreshed.Credits.Cast = []tmdb.CastMember{
		{PersonID: 6384, Character: "Neo / Thomas Anderson", Order: 0},
		{PersonID: 530, Character: "Agent Smith", Order: 2},
	}
	_, err = st.Movies.Upsert(ctx, refreshed)
	require.NoError(t, err)

	var cast []database.MovieCast
	require.NoError(t, st.DB().Where("movie_id = ?", 603).Order("ord").Find(&cast).Error)
	require.Len(t, cast, 2)
	assert.Equal(t, "Neo / Thomas Anderson", cast[0].Character)
	assert.Equal(t, int64(530), cast[1].PersonID)
}

func TestMovieUpsertDropsUnknownPersonRoles(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()
	// Only two of the three credited people exist locally.
	createPeople(t, st, 6384, 9340)

	_, err := st.Movies.Upsert(ctx, matrixPayload())
	require.NoError(t, err)

	var cast []database.MovieCast
	require.NoError(t, st.DB().Where("movie_id = ?", 603).Find(&cast).Error)
	require.Len(t, cast, 1)
	assert.Equal(t, int64(6384), cast[0].PersonID)
}

func TestMovieUpsertPreservesSlugAndAdult(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()
	createPeople(t, st, 6384, 2975, 9340)

	_, err := st.Movies.Upsert(ctx, matrixPayload())
	require.NoError(t, err)
	require.NoError(t, st.DB().Model(&database.Movie{}).Where("tmdb_id = ?", 603).Update("adult", true).Error)

	refreshed := matrixPayload()
	refreshed.Title = "The Matrix (Remastered)"
	_, err = st.Movies.Upsert(ctx, refreshed)
	require.NoError(t, err)

	var movie database.Movie
	require.NoError(t, st.DB().First(&movie, "tmdb_id = ?", 603).Error)
	assert.Equal(t, "The Matrix (Remastered)", movie.Title)
	assert.Equal(t, "the-matrix", movie.Slug)
	assert.True(t, movie.Adult)
}

func TestMovieCategorization(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()

	payload := &tmdb.MovieDetails{
		ID:      77,
		Title:   "Short Doc",
		Status:  "Released",
		Runtime: 32,
		Genres:  []tmdb.Genre{{ID: 99, Name: "Documentary"}},
	}
	_, err := st.Movies.Upsert(ctx, payload)
	require.NoError(t, err)

	var movie database.Movie
	require.NoError(t, st.DB().First(&movie, "tmdb_id = ?", 77).Error)
	assert.True(t, movie.Documentary)
	assert.True(t, movie.Short)
	assert.False(t, movie.TVMovie)
}
