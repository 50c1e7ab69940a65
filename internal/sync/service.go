// Package sync orchestrates catalog synchronization against the remote
// API: batch fetches, removal passes, derived metric recomputation and
// the daily pipeline tying them together.
package sync

import (
	"github.com/hashicorp/go-hclog"

	"github.com/filmatlas/filmatlas/internal/config"
	"github.com/filmatlas/filmatlas/internal/store"
	"github.com/filmatlas/filmatlas/internal/tmdb"
)

// Service runs sync operations. Every operation is safe to re-run; a
// failed run leaves the catalog in a consistent, partially-updated
// state that the next run completes.
type Service struct {
	cfg     *config.Config
	store   *store.Store
	client  *tmdb.Client
	exports *tmdb.ExportReader
	logger  hclog.Logger
}

// NewService wires a Service from its collaborators.
func NewService(cfg *config.Config, st *store.Store, client *tmdb.Client, exports *tmdb.ExportReader, logger hclog.Logger) *Service {
	return &Service{
		cfg:     cfg,
		store:   st,
		client:  client,
		exports: exports,
		logger:  logger.Named("sync"),
	}
}
