package sync

import (
	"context"
	"fmt"
)

// SyncGenres refreshes the genre list from the official configuration
// endpoint.
func (s *Service) SyncGenres(ctx context.Context) (*Report, error) {
	genres, err := s.client.Genres(ctx, s.cfg.Sync.Language)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch genre list: %w", err)
	}
	created, updated, err := s.store.Reference.UpsertGenres(ctx, genres)
	if err != nil {
		return nil, err
	}
	s.logger.Info("genres synced", "created", created, "updated", updated)
	return &Report{Created: created, Updated: updated}, nil
}

// SyncCountries refreshes the ISO 3166-1 country list.
func (s *Service) SyncCountries(ctx context.Context) (*Report, error) {
	countries, err := s.client.Countries(ctx, s.cfg.Sync.Language)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch country list: %w", err)
	}
	created, updated, err := s.store.Reference.UpsertCountries(ctx, countries)
	if err != nil {
		return nil, err
	}
	s.logger.Info("countries synced", "created", created, "updated", updated)
	return &Report{Created: created, Updated: updated}, nil
}

// SyncLanguages refreshes the ISO 639-1 language list.
func (s *Service) SyncLanguages(ctx context.Context) (*Report, error) {
	languages, err := s.client.Languages(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch language list: %w", err)
	}
	created, updated, err := s.store.Reference.UpsertLanguages(ctx, languages)
	if err != nil {
		return nil, err
	}
	s.logger.Info("languages synced", "created", created, "updated", updated)
	return &Report{Created: created, Updated: updated}, nil
}
