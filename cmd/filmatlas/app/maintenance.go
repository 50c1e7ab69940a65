package app

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/filmatlas/filmatlas/internal/sync"
)

func newRemovedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "removed <movie|person|company|collection>",
		Short: "Flag entities that vanished upstream",
		Long:  "Diff the daily export against the local live set and flag ids upstream confirms gone with a 404. An unavailable or suspiciously small export skips the pass.",
		Args:  cobra.ExactArgs(1),
	}
	opts := batchFlags(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		kind, err := parseKind(args[0])
		if err != nil {
			return err
		}
		o, err := opts()
		if err != nil {
			return err
		}
		return withService(cmd, func(ctx context.Context, svc *sync.Service) (*sync.Report, error) {
			return svc.SyncRemoved(ctx, kind, o)
		})
	}
	return cmd
}

func newPopularityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "popularity <movie|person>",
		Short: "Refresh popularity scores from the daily export",
		Args:  cobra.ExactArgs(1),
	}
	opts := batchFlags(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		kind, err := parseKind(args[0])
		if err != nil {
			return err
		}
		o, err := opts()
		if err != nil {
			return err
		}
		return withService(cmd, func(ctx context.Context, svc *sync.Service) (*sync.Report, error) {
			return svc.SyncPopularity(ctx, kind, o)
		})
	}
	return cmd
}

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Recompute derived aggregates",
	Long:  "Recompute person role counts, company movie counts and collection stats from scratch.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withService(cmd, func(ctx context.Context, svc *sync.Service) (*sync.Report, error) {
			return svc.SyncMetrics(ctx)
		})
	},
}

var adultFlagsCmd = &cobra.Command{
	Use:   "adult-flags",
	Short: "Propagate collection adult flags to member movies",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withService(cmd, func(ctx context.Context, svc *sync.Service) (*sync.Report, error) {
			return svc.SyncAdultFlags(ctx)
		})
	},
}

func newDailyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "daily",
		Short: "Run the full daily pipeline",
		Long:  "Run every sync step in the scheduler's fixed order: new collections and companies, people and movies, removal passes, metrics, popularity and adult flags.",
		Args:  cobra.NoArgs,
	}
	opts := batchFlags(cmd)
	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		o, err := opts()
		if err != nil {
			return err
		}
		return withService(cmd, func(ctx context.Context, svc *sync.Service) (*sync.Report, error) {
			return svc.RunDaily(ctx, o)
		})
	}
	return cmd
}
