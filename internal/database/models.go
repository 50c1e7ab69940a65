package database

import (
	"time"
)

// Movie release status, mapped from the upstream string values.
const (
	StatusUnknown = iota
	StatusCanceled
	StatusRumored
	StatusPlanned
	StatusInProduction
	StatusPostProduction
	StatusReleased
)

// StatusFromString maps the upstream status string to its local code.
func StatusFromString(s string) int {
	switch s {
	case "Canceled":
		return StatusCanceled
	case "Rumored":
		return StatusRumored
	case "Planned":
		return StatusPlanned
	case "In Production":
		return StatusInProduction
	case "Post Production":
		return StatusPostProduction
	case "Released":
		return StatusReleased
	default:
		return StatusUnknown
	}
}

// GenderFromCode maps the upstream numeric gender to its local value.
func GenderFromCode(code int) string {
	switch code {
	case 1:
		return "F"
	case 2:
		return "M"
	case 3:
		return "NB"
	default:
		return ""
	}
}

// Genre ids with special handling during categorization.
const (
	GenreDocumentary = 99
	GenreTVMovie     = 10770
)

// A movie running 40 minutes or less counts as a short.
const shortRuntimeMinutes = 40

// Country is an ISO 3166-1 alpha-2 reference entry.
type Country struct {
	Code string `gorm:"primaryKey;size:2" json:"code"`
	Name string `gorm:"size:64;not null" json:"name"`
	Slug string `gorm:"size:60;uniqueIndex" json:"slug"`
}

// Language is an ISO 639-1 reference entry.
type Language struct {
	Code string `gorm:"primaryKey;size:2" json:"code"`
	Name string `gorm:"size:32;not null" json:"name"`
	Slug string `gorm:"size:60;uniqueIndex" json:"slug"`
}

// Genre is a movie genre keyed by its upstream id.
type Genre struct {
	TMDBID int64  `gorm:"column:tmdb_id;primaryKey" json:"tmdb_id"`
	Name   string `gorm:"size:32;not null" json:"name"`
	Slug   string `gorm:"size:60;uniqueIndex" json:"slug"`
}

// ProductionCompany mirrors an upstream production company.
type ProductionCompany struct {
	TMDBID int64  `gorm:"column:tmdb_id;primaryKey" json:"tmdb_id"`
	Name   string `gorm:"size:256;not null" json:"name"`
	Slug   string `gorm:"size:60;uniqueIndex" json:"slug"`

	LogoPath          string  `gorm:"size:64" json:"logo_path"`
	OriginCountryCode *string `gorm:"size:2" json:"origin_country_code"`

	// Derived: number of non-removed movies produced. Cache, not truth.
	MovieCount int64 `gorm:"default:0;index" json:"movie_count"`

	Adult   bool `gorm:"default:false" json:"adult"`
	Removed bool `gorm:"default:false;index" json:"removed"`
}

// Collection groups movies released as a series (e.g. a film trilogy).
type Collection struct {
	TMDBID int64  `gorm:"column:tmdb_id;primaryKey" json:"tmdb_id"`
	Name   string `gorm:"size:256;not null" json:"name"`
	Slug   string `gorm:"size:60;uniqueIndex" json:"slug"`

	Overview     string `json:"overview"`
	PosterPath   string `gorm:"size:64" json:"poster_path"`
	BackdropPath string `gorm:"size:64" json:"backdrop_path"`

	// Derived aggregates over member movies. Caches, not truth.
	MoviesReleased int64   `gorm:"default:0" json:"movies_released"`
	AvgPopularity  float64 `gorm:"default:0;index" json:"avg_popularity"`

	Adult   bool `gorm:"default:false" json:"adult"`
	Removed bool `gorm:"default:false;index" json:"removed"`
}

// Person is anyone involved in the making of movies.
type Person struct {
	TMDBID int64  `gorm:"column:tmdb_id;primaryKey" json:"tmdb_id"`
	Name   string `gorm:"size:128;not null" json:"name"`
	Slug   string `gorm:"size:60;uniqueIndex" json:"slug"`

	IMDBID             string `gorm:"column:imdb_id;size:16" json:"imdb_id"`
	KnownForDepartment string `gorm:"size:32" json:"known_for_department"`
	Biography          string `json:"biography"`
	PlaceOfBirth       string `gorm:"size:256" json:"place_of_birth"`

	// "", "F", "M" or "NB"
	Gender string `gorm:"size:2" json:"gender"`

	Birthday    *time.Time `json:"birthday"`
	Deathday    *time.Time `json:"deathday"`
	ProfilePath string     `gorm:"size:64" json:"profile_path"`

	Popularity float64 `gorm:"default:0;index" json:"popularity"`

	// Derived role counts over non-removed movies. Caches, not truth.
	CastRolesCount int64 `gorm:"default:0" json:"cast_roles_count"`
	CrewRolesCount int64 `gorm:"default:0" json:"crew_roles_count"`

	Adult   bool `gorm:"default:false" json:"adult"`
	Removed bool `gorm:"default:false;index" json:"removed"`

	LastUpdate time.Time `json:"last_update"`
	CreatedAt  time.Time `json:"created_at"`
}

// Movie is the central catalog entity.
type Movie struct {
	TMDBID int64  `gorm:"column:tmdb_id;primaryKey" json:"tmdb_id"`
	Title  string `gorm:"size:512;not null" json:"title"`
	Slug   string `gorm:"size:60;uniqueIndex" json:"slug"`

	IMDBID      string     `gorm:"column:imdb_id;size:16" json:"imdb_id"`
	ReleaseDate *time.Time `gorm:"index" json:"release_date"`

	OriginalTitle        string  `gorm:"size:512" json:"original_title"`
	OriginalLanguageCode *string `gorm:"size:2" json:"original_language_code"`

	Overview string `json:"overview"`
	Tagline  string `gorm:"size:512" json:"tagline"`

	// Weak reference: the collection row may itself be removed.
	CollectionID *int64 `gorm:"index" json:"collection_id"`

	PosterPath   string `gorm:"size:64" json:"poster_path"`
	BackdropPath string `gorm:"size:64" json:"backdrop_path"`

	Status  int   `gorm:"default:0" json:"status"`
	Budget  int64 `gorm:"default:0" json:"budget"`
	Revenue int64 `gorm:"default:0" json:"revenue"`

	// Runtime in minutes.
	Runtime int `gorm:"default:0" json:"runtime"`

	Documentary bool `gorm:"default:false" json:"documentary"`
	TVMovie     bool `gorm:"column:tv_movie;default:false" json:"tv_movie"`
	Short       bool `gorm:"default:false" json:"short"`

	Popularity float64 `gorm:"default:0;index" json:"popularity"`

	Adult   bool `gorm:"default:false" json:"adult"`
	Removed bool `gorm:"default:false;index" json:"removed"`

	LastUpdate time.Time `json:"last_update"`
	CreatedAt  time.Time `json:"created_at"`

	Genres              []Genre             `gorm:"many2many:movie_genres" json:"genres,omitempty"`
	SpokenLanguages     []Language          `gorm:"many2many:movie_spoken_languages" json:"spoken_languages,omitempty"`
	OriginCountries     []Country           `gorm:"many2many:movie_origin_countries" json:"origin_countries,omitempty"`
	ProductionCountries []Country           `gorm:"many2many:movie_production_countries" json:"production_countries,omitempty"`
	ProductionCompanies []ProductionCompany `gorm:"many2many:movie_production_companies" json:"production_companies,omitempty"`

	Cast []MovieCast `gorm:"foreignKey:MovieID;constraint:OnDelete:CASCADE" json:"cast,omitempty"`
	Crew []MovieCrew `gorm:"foreignKey:MovieID;constraint:OnDelete:CASCADE" json:"crew,omitempty"`
}

// Categorize sets the documentary, tv_movie and short flags from the
// movie's genre ids and runtime.
func (m *Movie) Categorize(genreIDs []int64) {
	m.Documentary = false
	m.TVMovie = false
	for _, id := range genreIDs {
		switch id {
		case GenreDocumentary:
			m.Documentary = true
		case GenreTVMovie:
			m.TVMovie = true
		}
	}
	m.Short = m.Runtime > 0 && m.Runtime <= shortRuntimeMinutes
}

// MovieCast is one acting credit. Its identity is the
// (movie, person, character) tuple; upstream assigns it no id.
type MovieCast struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	MovieID   int64  `gorm:"index;uniqueIndex:idx_cast_identity;not null" json:"movie_id"`
	PersonID  int64  `gorm:"index;uniqueIndex:idx_cast_identity;not null" json:"person_id"`
	Character string `gorm:"size:512;uniqueIndex:idx_cast_identity" json:"character"`
	Ord       int    `gorm:"default:0" json:"ord"`
}

// MovieCrew is one crew credit. Its identity is the
// (movie, person, department, job) tuple.
type MovieCrew struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	MovieID    int64  `gorm:"index;uniqueIndex:idx_crew_identity;not null" json:"movie_id"`
	PersonID   int64  `gorm:"index;uniqueIndex:idx_crew_identity;not null" json:"person_id"`
	Department string `gorm:"size:32;uniqueIndex:idx_crew_identity" json:"department"`
	Job        string `gorm:"size:64;uniqueIndex:idx_crew_identity" json:"job"`
}
