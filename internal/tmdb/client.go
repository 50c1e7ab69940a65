package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/hashicorp/go-hclog"
	"golang.org/x/time/rate"

	"github.com/filmatlas/filmatlas/internal/config"
)

// Fetch error taxonomy. Callers distinguish outcomes with errors.Is.
var (
	// ErrNotFound means the entity is gone upstream. Never retried.
	ErrNotFound = errors.New("entity not found upstream")

	// ErrRateLimited means the retry budget ran out while the upstream
	// kept answering with rate-limit responses.
	ErrRateLimited = errors.New("upstream rate limit retries exhausted")

	// ErrUnavailable means transient failures persisted past the retry
	// budget.
	ErrUnavailable = errors.New("upstream unavailable")
)

// DecodeError reports a payload that could not be decoded. It is
// terminal for the request but never fatal for a batch.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode response for %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Client is a rate-limited TMDB API client. The limiter is the single
// admission gate shared by every concurrent fetch of a run.
type Client struct {
	cfg        config.TMDBConfig
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     hclog.Logger

	// Initial backoff delay, overridable for tests.
	retryInitial time.Duration
}

// NewClient creates a Client with its own token-bucket limiter sized to
// the configured request budget.
func NewClient(cfg config.TMDBConfig, logger hclog.Logger) *Client {
	perSecond := float64(cfg.RequestsPerWindow) / cfg.Window.Seconds()
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		limiter:      rate.NewLimiter(rate.Limit(perSecond), cfg.RequestsPerWindow),
		logger:       logger.Named("tmdb"),
		retryInitial: 500 * time.Millisecond,
	}
}

// Limiter exposes the shared admission gate so collaborators reuse it
// instead of creating their own.
func (c *Client) Limiter() *rate.Limiter { return c.limiter }

func (c *Client) buildURL(path string, params url.Values) string {
	u := c.cfg.BaseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return u
}

// get fetches one API path and decodes the JSON body into out. It waits
// on the limiter before every attempt, retries 429/5xx/network failures
// with exponential backoff and jitter, and surfaces 404/410 immediately.
func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	reqURL := c.buildURL(path, params)

	rateLimited := false

	op := func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			rateLimited = false
			return fmt.Errorf("request failed: %w", err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return fmt.Errorf("failed to read response body: %w", err)
			}
			if err := json.Unmarshal(body, out); err != nil {
				return backoff.Permanent(&DecodeError{Path: path, Err: err})
			}
			return nil

		case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
			return backoff.Permanent(ErrNotFound)

		case resp.StatusCode == http.StatusTooManyRequests:
			rateLimited = true
			if delay := retryAfter(resp); delay > 0 {
				c.logger.Debug("rate limited upstream, honoring Retry-After", "path", path, "delay", delay)
				if err := sleepCtx(ctx, delay); err != nil {
					return backoff.Permanent(err)
				}
			}
			return fmt.Errorf("upstream rate limit hit for %s", path)

		case resp.StatusCode >= 500:
			rateLimited = false
			return fmt.Errorf("upstream returned status %d for %s", resp.StatusCode, path)

		default:
			return backoff.Permanent(fmt.Errorf("unexpected status %d for %s", resp.StatusCode, path))
		}
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.retryInitial
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(c.cfg.MaxRetries)), ctx)

	err := backoff.Retry(op, policy)
	if err == nil {
		return nil
	}

	var decodeErr *DecodeError
	switch {
	case errors.Is(err, ErrNotFound):
		return ErrNotFound
	case errors.As(err, &decodeErr):
		return decodeErr
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		return err
	case rateLimited:
		c.logger.Warn("rate limit retries exhausted", "path", path, "error", err)
		return fmt.Errorf("%w: %v", ErrRateLimited, err)
	default:
		c.logger.Warn("retries exhausted", "path", path, "error", err)
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
}

// retryAfter parses a Retry-After header given in seconds.
func retryAfter(resp *http.Response) time.Duration {
	v := resp.Header.Get("Retry-After")
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// MovieDetails fetches one movie with its credits appended.
func (c *Client) MovieDetails(ctx context.Context, id int64, language string) (*MovieDetails, error) {
	params := url.Values{"append_to_response": {"credits"}}
	if language != "" {
		params.Set("language", language)
	}
	var movie MovieDetails
	if err := c.get(ctx, "movie/"+strconv.FormatInt(id, 10), params, &movie); err != nil {
		return nil, err
	}
	return &movie, nil
}

// PersonDetails fetches one person.
func (c *Client) PersonDetails(ctx context.Context, id int64, language string) (*PersonDetails, error) {
	params := url.Values{}
	if language != "" {
		params.Set("language", language)
	}
	var person PersonDetails
	if err := c.get(ctx, "person/"+strconv.FormatInt(id, 10), params, &person); err != nil {
		return nil, err
	}
	return &person, nil
}

// CompanyDetails fetches one production company.
func (c *Client) CompanyDetails(ctx context.Context, id int64) (*CompanyDetails, error) {
	var company CompanyDetails
	if err := c.get(ctx, "company/"+strconv.FormatInt(id, 10), nil, &company); err != nil {
		return nil, err
	}
	return &company, nil
}

// CollectionDetails fetches one collection.
func (c *Client) CollectionDetails(ctx context.Context, id int64, language string) (*CollectionDetails, error) {
	params := url.Values{}
	if language != "" {
		params.Set("language", language)
	}
	var collection CollectionDetails
	if err := c.get(ctx, "collection/"+strconv.FormatInt(id, 10), params, &collection); err != nil {
		return nil, err
	}
	return &collection, nil
}

// Genres fetches the official movie genre list.
func (c *Client) Genres(ctx context.Context, language string) ([]Genre, error) {
	params := url.Values{}
	if language != "" {
		params.Set("language", language)
	}
	var list genreList
	if err := c.get(ctx, "genre/movie/list", params, &list); err != nil {
		return nil, err
	}
	return list.Genres, nil
}

// Countries fetches the countries configuration.
func (c *Client) Countries(ctx context.Context, language string) ([]Country, error) {
	params := url.Values{}
	if language != "" {
		params.Set("language", language)
	}
	var countries []Country
	if err := c.get(ctx, "configuration/countries", params, &countries); err != nil {
		return nil, err
	}
	return countries, nil
}

// Languages fetches the languages configuration.
func (c *Client) Languages(ctx context.Context) ([]Language, error) {
	var languages []Language
	if err := c.get(ctx, "configuration/languages", nil, &languages); err != nil {
		return nil, err
	}
	return languages, nil
}
