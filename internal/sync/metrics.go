package sync

import "context"

// SyncMetrics recomputes every derived aggregate from scratch: person
// role counts, company movie counts and collection stats. Removed
// movies contribute to none of them.
func (s *Service) SyncMetrics(ctx context.Context) (*Report, error) {
	if err := s.store.Metrics.RecomputeAll(ctx); err != nil {
		return nil, err
	}
	s.logger.Info("derived metrics recomputed")
	return &Report{}, nil
}

// SyncAdultFlags propagates the adult flag from collections down to
// their member movies.
func (s *Service) SyncAdultFlags(ctx context.Context) (*Report, error) {
	updated, err := s.store.Metrics.PropagateAdultFlags(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("adult flags propagated", "updated", updated)
	return &Report{Updated: updated}, nil
}
