package app

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/filmatlas/filmatlas/internal/sync"
)

var genresCmd = &cobra.Command{
	Use:   "genres",
	Short: "Sync the genre list",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withService(cmd, func(ctx context.Context, svc *sync.Service) (*sync.Report, error) {
			return svc.SyncGenres(ctx)
		})
	},
}

var countriesCmd = &cobra.Command{
	Use:   "countries",
	Short: "Sync the ISO 3166-1 country list",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withService(cmd, func(ctx context.Context, svc *sync.Service) (*sync.Report, error) {
			return svc.SyncCountries(ctx)
		})
	},
}

var languagesCmd = &cobra.Command{
	Use:   "languages",
	Short: "Sync the ISO 639-1 language list",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withService(cmd, func(ctx context.Context, svc *sync.Service) (*sync.Report, error) {
			return svc.SyncLanguages(ctx)
		})
	},
}
