package app

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/filmatlas/filmatlas/internal/sync"
)

func newPeopleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "people <export|changed|ids>",
		Short: "Sync people",
		Long:  "Sync people. Mode export bootstraps from the daily export, changed refreshes rows the change log reports as stale, ids targets an explicit --ids list.",
		Args:  cobra.ExactArgs(1),
	}
	opts := batchFlags(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		mode, err := parseMode(args[0])
		if err != nil {
			return err
		}
		o, err := opts()
		if err != nil {
			return err
		}
		return withService(cmd, func(ctx context.Context, svc *sync.Service) (*sync.Report, error) {
			return svc.SyncPeople(ctx, mode, o)
		})
	}
	return cmd
}

func newMoviesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "movies <export|changed|ids>",
		Short: "Sync movies with credits",
		Long:  "Sync movies. Mode export bootstraps from the daily export, changed refreshes rows the change log reports as stale, ids targets an explicit --ids list. Credited people missing locally are created first.",
		Args:  cobra.ExactArgs(1),
	}
	opts := batchFlags(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		mode, err := parseMode(args[0])
		if err != nil {
			return err
		}
		o, err := opts()
		if err != nil {
			return err
		}
		return withService(cmd, func(ctx context.Context, svc *sync.Service) (*sync.Report, error) {
			return svc.SyncMovies(ctx, mode, o)
		})
	}
	return cmd
}

func newCompaniesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "companies",
		Short: "Sync production companies from the daily export",
		Args:  cobra.NoArgs,
	}
	opts := batchFlags(cmd)
	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		o, err := opts()
		if err != nil {
			return err
		}
		return withService(cmd, func(ctx context.Context, svc *sync.Service) (*sync.Report, error) {
			return svc.SyncCompanies(ctx, o)
		})
	}
	return cmd
}

func newCollectionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collections",
		Short: "Sync collections from the daily export",
		Args:  cobra.NoArgs,
	}
	opts := batchFlags(cmd)
	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		o, err := opts()
		if err != nil {
			return err
		}
		return withService(cmd, func(ctx context.Context, svc *sync.Service) (*sync.Report, error) {
			return svc.SyncCollections(ctx, o)
		})
	}
	return cmd
}
