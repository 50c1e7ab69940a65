// Package app wires the filmatlas command tree. Every subcommand is one
// independently runnable, idempotent sync operation; the daily command
// chains them in the scheduler's fixed order.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/filmatlas/filmatlas/internal/config"
	"github.com/filmatlas/filmatlas/internal/database"
	"github.com/filmatlas/filmatlas/internal/logger"
	"github.com/filmatlas/filmatlas/internal/store"
	"github.com/filmatlas/filmatlas/internal/sync"
	"github.com/filmatlas/filmatlas/internal/tmdb"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:               "filmatlas",
	Short:             "Movie catalog synchronization tool",
	Long:              "filmatlas keeps a local movie catalog in sync with the remote API: reference data, people, movies, companies, collections, removals and derived metrics.",
	DisableAutoGenTag: true,
	SilenceUsage:      true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

// NewRootCmd assembles the command tree.
func NewRootCmd() *cobra.Command {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")

	rootCmd.AddCommand(genresCmd)
	rootCmd.AddCommand(countriesCmd)
	rootCmd.AddCommand(languagesCmd)
	rootCmd.AddCommand(newPeopleCmd())
	rootCmd.AddCommand(newMoviesCmd())
	rootCmd.AddCommand(newCompaniesCmd())
	rootCmd.AddCommand(newCollectionsCmd())
	rootCmd.AddCommand(newRemovedCmd())
	rootCmd.AddCommand(newPopularityCmd())
	rootCmd.AddCommand(metricsCmd)
	rootCmd.AddCommand(adultFlagsCmd)
	rootCmd.AddCommand(newDailyCmd())

	return rootCmd
}

// withService builds the full collaborator chain and hands a ready
// Service to the command body, printing the resulting report.
func withService(cmd *cobra.Command, fn func(ctx context.Context, svc *sync.Service) (*sync.Report, error)) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := logger.New(cfg.Logging)

	db, err := database.Open(cfg.Database)
	if err != nil {
		return err
	}

	svc := sync.NewService(cfg,
		store.New(db, log),
		tmdb.NewClient(cfg.TMDB, log),
		tmdb.NewExportReader(cfg.TMDB, log),
		log)

	report, err := fn(cmd.Context(), svc)
	if report != nil {
		fmt.Fprintln(cmd.OutOrStdout(), report.String())
	}
	return err
}

// batchFlags registers the shared batch tuning flags and returns a
// builder reading them back into options.
func batchFlags(cmd *cobra.Command) func() (sync.BatchOptions, error) {
	flags := cmd.Flags()
	flags.Int("batch-size", 0, "ids fetched per batch (default from config)")
	flags.Int("days", 0, "trailing change-log window in days (default from config)")
	flags.Int("limit", 0, "cap the number of ids processed, 0 means all")
	flags.Bool("sort-by-popularity", false, "process the most popular export ids first")
	flags.Int64Slice("ids", nil, "explicit id list")
	flags.String("date", "", "export date as YYYY-MM-DD (default today)")
	flags.String("language", "", "payload language (default from config)")
	flags.Bool("create-only", false, "only fetch export ids with no local row")

	return func() (sync.BatchOptions, error) {
		var opts sync.BatchOptions
		var err error
		if opts.BatchSize, err = flags.GetInt("batch-size"); err != nil {
			return opts, err
		}
		if opts.Days, err = flags.GetInt("days"); err != nil {
			return opts, err
		}
		if opts.Limit, err = flags.GetInt("limit"); err != nil {
			return opts, err
		}
		if opts.SortByPopularity, err = flags.GetBool("sort-by-popularity"); err != nil {
			return opts, err
		}
		if opts.IDs, err = flags.GetInt64Slice("ids"); err != nil {
			return opts, err
		}
		if opts.Language, err = flags.GetString("language"); err != nil {
			return opts, err
		}
		if opts.CreateOnly, err = flags.GetBool("create-only"); err != nil {
			return opts, err
		}
		date, err := flags.GetString("date")
		if err != nil {
			return opts, err
		}
		if date != "" {
			opts.Date, err = time.Parse("2006-01-02", date)
			if err != nil {
				return opts, fmt.Errorf("invalid --date %q: %w", date, err)
			}
		}
		return opts, nil
	}
}

// parseMode validates the people/movies mode argument.
func parseMode(arg string) (sync.Mode, error) {
	switch sync.Mode(arg) {
	case sync.ModeExport, sync.ModeChanged, sync.ModeIDs:
		return sync.Mode(arg), nil
	default:
		return "", fmt.Errorf("unknown mode %q, want export, changed or ids", arg)
	}
}

// parseKind validates an entity kind argument.
func parseKind(arg string) (tmdb.Kind, error) {
	switch tmdb.Kind(arg) {
	case tmdb.KindMovie, tmdb.KindPerson, tmdb.KindCompany, tmdb.KindCollection:
		return tmdb.Kind(arg), nil
	default:
		return "", fmt.Errorf("unknown kind %q, want movie, person, company or collection", arg)
	}
}
