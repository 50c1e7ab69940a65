package sync

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"

	"github.com/filmatlas/filmatlas/internal/tmdb"
)

// BatchResult is the per-id outcome of one runBatch invocation.
type BatchResult struct {
	Applied   []int64
	NotFound  []int64
	Failed    []int64
	Created   int64
	Updated   int64
	Processed int
}

// runBatch fetches and applies the given ids in sequential chunks of
// batchSize. Inside a chunk every fetch runs concurrently; admission is
// controlled solely by the client's rate limiter. Each successful fetch
// is applied from its worker. Per-id errors never abort the run; ids
// that came back 404 land in NotFound, other failures in Failed. A
// first chunk with zero successes aborts the run, since the remaining
// chunks would fail the same way.
func runBatch[T any](
	ctx context.Context,
	logger hclog.Logger,
	ids []int64,
	batchSize int,
	fetch func(ctx context.Context, id int64) (T, error),
	apply func(ctx context.Context, payload T) (created bool, err error),
) (*BatchResult, error) {
	if batchSize <= 0 {
		batchSize = 100
	}
	result := &BatchResult{}
	var mu sync.Mutex
	var applyMu sync.Mutex

	for start := 0; start < len(ids); start += batchSize {
		end := start + batchSize
		if end > len(ids) {
			end = len(ids)
		}
		chunk := ids[start:end]

		g, gctx := errgroup.WithContext(ctx)
		for _, id := range chunk {
			id := id
			g.Go(func() error {
				payload, err := fetch(gctx, id)
				if err != nil {
					if errors.Is(err, tmdb.ErrNotFound) {
						mu.Lock()
						result.NotFound = append(result.NotFound, id)
						mu.Unlock()
						return nil
					}
					if gctx.Err() != nil {
						return gctx.Err()
					}
					logger.Warn("fetch failed", "id", id, "error", err)
					mu.Lock()
					result.Failed = append(result.Failed, id)
					mu.Unlock()
					return nil
				}

				// Upserts serialize across workers. sqlite allows a
				// single writer and the batches are fetch-bound anyway.
				applyMu.Lock()
				created, err := apply(gctx, payload)
				applyMu.Unlock()
				if err != nil {
					logger.Warn("apply failed", "id", id, "error", err)
					mu.Lock()
					result.Failed = append(result.Failed, id)
					mu.Unlock()
					return nil
				}

				mu.Lock()
				result.Applied = append(result.Applied, id)
				if created {
					result.Created++
				} else {
					result.Updated++
				}
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return result, err
		}
		result.Processed += len(chunk)

		if start == 0 && len(result.Applied) == 0 && len(result.NotFound) == 0 && len(result.Failed) == len(chunk) {
			return result, fmt.Errorf("first batch of %d ids failed entirely, aborting", len(chunk))
		}
		logger.Info("batch progress",
			"processed", result.Processed,
			"total", len(ids),
			"created", result.Created,
			"updated", result.Updated,
			"not_found", len(result.NotFound),
			"failed", len(result.Failed))
	}
	return result, nil
}

// report converts a batch result into an operation report. Ids that
// vanished upstream are counted as skipped here; removal is owned by
// the dedicated removal pass.
func (r *BatchResult) report() *Report {
	return &Report{
		Created: r.Created,
		Updated: r.Updated,
		Failed:  int64(len(r.Failed)),
		Skipped: int64(len(r.NotFound)),
	}
}
