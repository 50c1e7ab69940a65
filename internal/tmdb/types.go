package tmdb

// Kind identifies an upstream entity kind.
type Kind string

// Entity kinds with daily ID exports and/or change logs.
const (
	KindMovie      Kind = "movie"
	KindPerson     Kind = "person"
	KindCollection Kind = "collection"
	KindCompany    Kind = "company"
)

// exportPrefixes maps a kind to its export file name prefix.
var exportPrefixes = map[Kind]string{
	KindMovie:      "movie",
	KindPerson:     "person",
	KindCollection: "collection",
	KindCompany:    "production_company",
}

// Genre is one entry of the official genre list.
type Genre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Country is one entry of the countries configuration.
type Country struct {
	Code        string `json:"iso_3166_1"`
	EnglishName string `json:"english_name"`
	NativeName  string `json:"native_name"`
}

// Language is one entry of the languages configuration.
type Language struct {
	Code        string `json:"iso_639_1"`
	EnglishName string `json:"english_name"`
	Name        string `json:"name"`
}

// CastMember is one acting credit in a movie's credits block.
type CastMember struct {
	PersonID  int64  `json:"id"`
	Name      string `json:"name"`
	Character string `json:"character"`
	Order     int    `json:"order"`
}

// CrewMember is one crew credit in a movie's credits block.
type CrewMember struct {
	PersonID   int64  `json:"id"`
	Name       string `json:"name"`
	Department string `json:"department"`
	Job        string `json:"job"`
}

// Credits wraps a movie's cast and crew lists.
type Credits struct {
	Cast []CastMember `json:"cast"`
	Crew []CrewMember `json:"crew"`
}

// CompanyRef is the inline company record embedded in a movie payload.
type CompanyRef struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	LogoPath      string `json:"logo_path"`
	OriginCountry string `json:"origin_country"`
}

// CollectionRef is the inline collection record embedded in a movie payload.
type CollectionRef struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	PosterPath   string `json:"poster_path"`
	BackdropPath string `json:"backdrop_path"`
}

// CountryRef is an inline production country entry.
type CountryRef struct {
	Code string `json:"iso_3166_1"`
	Name string `json:"name"`
}

// LanguageRef is an inline spoken language entry.
type LanguageRef struct {
	Code        string `json:"iso_639_1"`
	EnglishName string `json:"english_name"`
}

// MovieDetails is the response of GET /movie/{id}?append_to_response=credits.
type MovieDetails struct {
	ID               int64          `json:"id"`
	Title            string         `json:"title"`
	IMDBID           string         `json:"imdb_id"`
	OriginalTitle    string         `json:"original_title"`
	OriginalLanguage string         `json:"original_language"`
	Overview         string         `json:"overview"`
	Tagline          string         `json:"tagline"`
	ReleaseDate      string         `json:"release_date"`
	Status           string         `json:"status"`
	Budget           int64          `json:"budget"`
	Revenue          int64          `json:"revenue"`
	Runtime          int            `json:"runtime"`
	Popularity       float64        `json:"popularity"`
	Adult            bool           `json:"adult"`
	PosterPath       string         `json:"poster_path"`
	BackdropPath     string         `json:"backdrop_path"`
	Genres           []Genre        `json:"genres"`
	SpokenLanguages  []LanguageRef  `json:"spoken_languages"`
	OriginCountry    []string       `json:"origin_country"`
	ProdCountries    []CountryRef   `json:"production_countries"`
	ProdCompanies    []CompanyRef   `json:"production_companies"`
	Collection       *CollectionRef `json:"belongs_to_collection"`
	Credits          Credits        `json:"credits"`
}

// PersonDetails is the response of GET /person/{id}.
type PersonDetails struct {
	ID                 int64   `json:"id"`
	Name               string  `json:"name"`
	IMDBID             string  `json:"imdb_id"`
	KnownForDepartment string  `json:"known_for_department"`
	Biography          string  `json:"biography"`
	PlaceOfBirth       string  `json:"place_of_birth"`
	Gender             int     `json:"gender"`
	Birthday           string  `json:"birthday"`
	Deathday           string  `json:"deathday"`
	ProfilePath        string  `json:"profile_path"`
	Popularity         float64 `json:"popularity"`
	Adult              bool    `json:"adult"`
}

// CompanyDetails is the response of GET /company/{id}.
type CompanyDetails struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	LogoPath      string `json:"logo_path"`
	OriginCountry string `json:"origin_country"`
}

// CollectionDetails is the response of GET /collection/{id}.
type CollectionDetails struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Overview     string `json:"overview"`
	PosterPath   string `json:"poster_path"`
	BackdropPath string `json:"backdrop_path"`
}

type genreList struct {
	Genres []Genre `json:"genres"`
}

type changesPage struct {
	Results []struct {
		ID    int64 `json:"id"`
		Adult bool  `json:"adult"`
	} `json:"results"`
	Page       int `json:"page"`
	TotalPages int `json:"total_pages"`
}
