package sync

import (
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/filmatlas/filmatlas/internal/config"
	"github.com/filmatlas/filmatlas/internal/database"
	"github.com/filmatlas/filmatlas/internal/store"
	"github.com/filmatlas/filmatlas/internal/tmdb"
)

// testService wires a Service against an httptest API, an httptest
// export host and an in-memory catalog.
func testService(t *testing.T, api http.Handler, exports map[string][]string) (*Service, *store.Store) {
	t.Helper()

	apiSrv := httptest.NewServer(api)
	t.Cleanup(apiSrv.Close)

	exportSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for prefix, lines := range exports {
			if strings.HasPrefix(r.URL.Path, "/"+prefix+"_ids_") {
				gz := gzip.NewWriter(w)
				for _, line := range lines {
					gz.Write([]byte(line + "\n"))
				}
				gz.Close()
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(exportSrv.Close)

	cfg := config.Default()
	cfg.TMDB.AccessToken = "test"
	cfg.TMDB.BaseURL = apiSrv.URL + "/"
	cfg.TMDB.ExportBaseURL = exportSrv.URL + "/"
	cfg.TMDB.MaxRetries = 1

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	logger := hclog.NewNullLogger()
	st := store.New(db, logger)
	client := tmdb.NewClient(cfg.TMDB, logger)
	reader := tmdb.NewExportReader(cfg.TMDB, logger)
	return NewService(cfg, st, client, reader, logger), st
}

func TestSyncMoviesByIDs(t *testing.T) {
	api := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/movie/603":
			w.Write([]byte(`{
				"id": 603, "title": "The Matrix", "status": "Released", "runtime": 136,
				"genres": [{"id": 28, "name": "Action"}],
				"production_companies": [{"id": 79, "name": "Village Roadshow"}],
				"credits": {"cast": [{"id": 6384, "name": "Keanu Reeves", "character": "Neo", "order": 0}]}
			}`))
		case "/person/6384":
			w.Write([]byte(`{"id": 6384, "name": "Keanu Reeves", "gender": 2}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	svc, st := testService(t, api, nil)

	report, err := svc.SyncMovies(context.Background(), ModeIDs, BatchOptions{IDs: []int64{603}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), report.Created)
	assert.Equal(t, int64(0), report.Failed)

	// The credited person was created before the movie.
	var movie database.Movie
	require.NoError(t, st.DB().Preload("Cast").First(&movie, "tmdb_id = ?", 603).Error)
	require.Len(t, movie.Cast, 1)
	var person database.Person
	require.NoError(t, st.DB().First(&person, "tmdb_id = ?", 6384).Error)
	assert.Equal(t, "M", person.Gender)
	var company database.ProductionCompany
	require.NoError(t, st.DB().First(&company, "tmdb_id = ?", 79).Error)
	assert.Equal(t, "Village Roadshow", company.Name)
}

func TestSyncMoviesGoneIDFlagsRemoval(t *testing.T) {
	api := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	svc, st := testService(t, api, nil)
	seedMovie(t, st, 42, "Old Movie")

	report, err := svc.SyncMovies(context.Background(), ModeIDs, BatchOptions{IDs: []int64{42, 43}})
	require.NoError(t, err)
	// 42 existed and gets flagged; 43 never existed, nothing to flag.
	assert.Equal(t, int64(1), report.Removed)
	assert.Equal(t, int64(1), report.Skipped)

	live, err := st.Movies.LiveIDs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, live)
}

func seedMovie(t *testing.T, st *store.Store, id int64, title string) {
	t.Helper()
	_, err := st.Movies.Upsert(context.Background(), &tmdb.MovieDetails{ID: id, Title: title, Status: "Released"})
	require.NoError(t, err)
}

func seedPeople(t *testing.T, st *store.Store, ids ...int64) {
	t.Helper()
	for _, id := range ids {
		_, err := st.People.Upsert(context.Background(), &tmdb.PersonDetails{ID: id, Name: "person"})
		require.NoError(t, err)
	}
}

func TestSyncRemovedConfirmsByFetch(t *testing.T) {
	api := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Person 3 is gone upstream; everyone else still resolves.
		if r.URL.Path == "/person/3" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`{"id": 2, "name": "still here"}`))
	})
	svc, st := testService(t, api, map[string][]string{
		"person": {`{"id": 1}`, `{"id": 2}`, `{"id": 4}`},
	})
	seedPeople(t, st, 1, 2, 3)

	report, err := svc.SyncRemoved(context.Background(), tmdb.KindPerson, BatchOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), report.Removed)

	live, err := st.People.LiveIDs(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{1, 2}, live)
}

func TestSyncRemovedCandidateStillLiveIsKept(t *testing.T) {
	api := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"id": 3, "name": "still here"}`))
	})
	svc, st := testService(t, api, map[string][]string{
		"person": {`{"id": 1}`, `{"id": 2}`},
	})
	seedPeople(t, st, 1, 2, 3)

	report, err := svc.SyncRemoved(context.Background(), tmdb.KindPerson, BatchOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), report.Removed)

	live, err := st.People.LiveIDs(context.Background())
	require.NoError(t, err)
	assert.Len(t, live, 3)
}

func TestSyncRemovedSkipsSuspiciousExport(t *testing.T) {
	api := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Error("no confirmation fetch should happen when the pass is skipped")
	})
	svc, st := testService(t, api, map[string][]string{
		"person": {`{"id": 1}`},
	})
	seedPeople(t, st, 1, 2, 3)

	report, err := svc.SyncRemoved(context.Background(), tmdb.KindPerson, BatchOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), report.Removed)
	assert.Equal(t, int64(3), report.Skipped)
}

func TestSyncRemovedSkipsUnavailableExport(t *testing.T) {
	api := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Error("no confirmation fetch should happen when the export is missing")
	})
	svc, st := testService(t, api, nil)
	seedPeople(t, st, 1)

	report, err := svc.SyncRemoved(context.Background(), tmdb.KindPerson, BatchOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), report.Removed)
	assert.Equal(t, int64(1), report.Skipped)
}

func TestSyncPopularityTopN(t *testing.T) {
	svc, st := testService(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}), map[string][]string{
		"person": {
			`{"id": 1, "popularity": 5.0}`,
			`{"id": 2, "popularity": 90.0}`,
			`{"id": 3, "popularity": 40.0}`,
		},
	})
	seedPeople(t, st, 1, 2, 3)

	report, err := svc.SyncPopularity(context.Background(), tmdb.KindPerson, BatchOptions{Limit: 2})
	require.NoError(t, err)
	// Persons 2 and 3 take the export scores; person 1 is outside the top-2.
	assert.Equal(t, int64(2), report.Updated)

	var person database.Person
	require.NoError(t, st.DB().First(&person, "tmdb_id = ?", 2).Error)
	assert.Equal(t, 90.0, person.Popularity)
	person = database.Person{}
	require.NoError(t, st.DB().First(&person, "tmdb_id = ?", 1).Error)
	assert.Equal(t, 0.0, person.Popularity)
}

func TestSyncGenres(t *testing.T) {
	svc, st := testService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/genre/movie/list", r.URL.Path)
		w.Write([]byte(`{"genres": [{"id": 28, "name": "Action"}, {"id": 18, "name": "Drama"}]}`))
	}), nil)

	report, err := svc.SyncGenres(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), report.Created)

	report, err = svc.SyncGenres(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), report.Updated)

	var count int64
	require.NoError(t, st.DB().Model(&database.Genre{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestSyncPeopleChangedWindow(t *testing.T) {
	today := time.Now().UTC().Truncate(24 * time.Hour).Format("2006-01-02")
	api := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/person/changes":
			if r.URL.Query().Get("start_date") == today {
				w.Write([]byte(`{"results": [{"id": 1}, {"id": 99}], "page": 1, "total_pages": 1}`))
				return
			}
			w.Write([]byte(`{"results": [], "page": 1, "total_pages": 1}`))
		case r.URL.Path == "/person/1":
			w.Write([]byte(`{"id": 1, "name": "refreshed"}`))
		default:
			t.Errorf("unexpected fetch %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})
	svc, st := testService(t, api, nil)
	seedPeople(t, st, 1)
	// Age the row so it counts as stale for the window.
	require.NoError(t, st.DB().Model(&database.Person{}).
		Where("tmdb_id = ?", 1).Update("last_update", time.Now().UTC().AddDate(0, 0, -7)).Error)

	report, err := svc.SyncPeople(context.Background(), ModeChanged, BatchOptions{Days: 1})
	require.NoError(t, err)
	// Only the locally-known stale id is refreshed; 99 is unknown here.
	assert.Equal(t, int64(1), report.Updated)

	var person database.Person
	require.NoError(t, st.DB().First(&person, "tmdb_id = ?", 1).Error)
	assert.Equal(t, "refreshed", person.Name)
}
