package tmdb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filmatlas/filmatlas/internal/config"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient(config.TMDBConfig{
		AccessToken:       "test-token",
		BaseURL:           srv.URL + "/",
		RequestTimeout:    5 * time.Second,
		RequestsPerWindow: 100,
		Window:            time.Second,
		MaxRetries:        3,
	}, hclog.NewNullLogger())
	c.retryInitial = time.Millisecond
	return c
}

func TestMovieDetails(t *testing.T) {
	var gotAuth, gotQuery string
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.RawQuery
		assert.Equal(t, "/movie/603", r.URL.Path)
		w.Write([]byte(`{
			"id": 603, "title": "The Matrix", "status": "Released",
			"runtime": 136, "genres": [{"id": 28, "name": "Action"}],
			"belongs_to_collection": {"id": 2344, "name": "The Matrix Collection"},
			"credits": {
				"cast": [{"id": 6384, "name": "Keanu Reeves", "character": "Neo", "order": 0}],
				"crew": [{"id": 9340, "name": "Lana Wachowski", "department": "Directing", "job": "Director"}]
			}
		}`))
	}))

	movie, err := c.MovieDetails(context.Background(), 603, "en-US")
	require.NoError(t, err)
	assert.Equal(t, "Bearer test-token", gotAuth)
	assert.Contains(t, gotQuery, "append_to_response=credits")
	assert.Contains(t, gotQuery, "language=en-US")
	assert.Equal(t, "The Matrix", movie.Title)
	require.NotNil(t, movie.Collection)
	assert.Equal(t, int64(2344), movie.Collection.ID)
	require.Len(t, movie.Credits.Cast, 1)
	assert.Equal(t, int64(6384), movie.Credits.Cast[0].PersonID)
	assert.Equal(t, "Director", movie.Credits.Crew[0].Job)
}

func TestGetNotFoundNeverRetries(t *testing.T) {
	var calls atomic.Int32
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := c.MovieDetails(context.Background(), 1, "")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGetGoneMeansNotFound(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusGone)
	}))
	_, err := c.PersonDetails(context.Background(), 1, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"id": 5, "name": "Pixar"}`))
	}))

	company, err := c.CompanyDetails(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, "Pixar", company.Name)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGetServerErrorsExhaustBudget(t *testing.T) {
	var calls atomic.Int32
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))

	_, err := c.CompanyDetails(context.Background(), 5)
	assert.ErrorIs(t, err, ErrUnavailable)
	// MaxRetries retries on top of the initial attempt.
	assert.Equal(t, int32(4), calls.Load())
}

func TestGetRateLimitedThenSuccess(t *testing.T) {
	var calls atomic.Int32
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"id": 9, "name": "Fox"}`))
	}))

	company, err := c.CompanyDetails(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, "Fox", company.Name)
}

func TestGetRateLimitExhaustion(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	_, err := c.CompanyDetails(context.Background(), 9)
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestGetMalformedBody(t *testing.T) {
	var calls atomic.Int32
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"id": not json`))
	}))

	_, err := c.CompanyDetails(context.Background(), 9)
	var decodeErr *DecodeError
	assert.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, int32(1), calls.Load())
}

func TestLimiterAdmission(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"id": 1, "name": "x"}`))
	}))
	t.Cleanup(srv.Close)

	// 2 requests per second with burst 2: ten concurrent fetches need
	// four windows for the last admission.
	c := NewClient(config.TMDBConfig{
		AccessToken:       "t",
		BaseURL:           srv.URL + "/",
		RequestTimeout:    5 * time.Second,
		RequestsPerWindow: 2,
		Window:            time.Second,
		MaxRetries:        0,
	}, hclog.NewNullLogger())
	c.retryInitial = time.Millisecond

	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.CompanyDetails(context.Background(), 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	elapsed := time.Since(start)
	assert.Equal(t, int32(6), calls.Load())
	// First two pass on the burst, the remaining four wait for tokens.
	assert.GreaterOrEqual(t, elapsed, 1500*time.Millisecond)
}

func TestGetContextCancellation(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.CompanyDetails(ctx, 1)
	assert.ErrorIs(t, err, context.Canceled)
}
