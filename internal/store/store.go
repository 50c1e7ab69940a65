// Package store owns all writes to the local catalog. Each entity kind
// has a repository performing atomic per-entity upserts keyed by the
// upstream id; derived aggregates are recomputed from scratch by the
// metrics repository.
package store

import (
	"time"

	"github.com/hashicorp/go-hclog"
	"gorm.io/gorm"
)

// Store bundles the per-kind repositories over one database handle.
type Store struct {
	db *gorm.DB

	Reference   *ReferenceRepository
	Movies      *MovieRepository
	People      *PersonRepository
	Companies   *CompanyRepository
	Collections *CollectionRepository
	Metrics     *MetricsRepository
}

// New creates a Store.
func New(db *gorm.DB, logger hclog.Logger) *Store {
	logger = logger.Named("store")
	return &Store{
		db:          db,
		Reference:   &ReferenceRepository{db: db, logger: logger},
		Movies:      &MovieRepository{db: db, logger: logger},
		People:      &PersonRepository{db: db, logger: logger},
		Companies:   &CompanyRepository{db: db, logger: logger},
		Collections: &CollectionRepository{db: db, logger: logger},
		Metrics:     &MetricsRepository{db: db, logger: logger},
	}
}

// DB exposes the underlying handle for read-only collaborators.
func (s *Store) DB() *gorm.DB { return s.db }

// slugTaken reports whether a slug already exists for the given model.
func slugTaken(db *gorm.DB, model any, slug string) bool {
	var count int64
	db.Model(model).Where("slug = ?", slug).Count(&count)
	return count > 0
}

// parseDate parses an upstream YYYY-MM-DD date, returning nil for empty
// or malformed values.
func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil
	}
	return &t
}

// chunkIDs splits ids for bounded-size IN clauses.
func chunkIDs(ids []int64, size int) [][]int64 {
	if size <= 0 {
		size = 500
	}
	var chunks [][]int64
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}
