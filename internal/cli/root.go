// Package cli implements rosterctl, the operator command line for the
// roster service: snapshot exports, demo data and check-in QR codes.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/rollcall/internal/config"
	"github.com/JonMunkholm/rollcall/internal/core"
	_ "github.com/JonMunkholm/rollcall/internal/core/tables" // Register all tables
	"github.com/JonMunkholm/rollcall/internal/logging"
	"github.com/JonMunkholm/rollcall/internal/metrics"
	"github.com/JonMunkholm/rollcall/internal/store"
)

// Version is stamped at build time with -ldflags "-X".
var Version = "dev"

// commandTimeout bounds a single store-backed command.
const commandTimeout = 2 * time.Minute

type options struct {
	envFile   string
	logLevel  string
	logFormat string
}

// env bundles what store-backed commands need.
type env struct {
	cfg     *config.Config
	store   core.Store
	service *core.Service
}

// Execute runs rosterctl with os.Args.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "rosterctl",
		Short: "rosterctl - volunteer roster and events administration",
		Long: `rosterctl works directly against the roster database.

It exports curated snapshots of the registered tables, seeds demo data,
renders check-in QR codes and records attendance without going through
the HTTP server. Settings come from the same environment variables
as the server.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.envFile != "" {
				if err := godotenv.Load(opts.envFile); err != nil {
					return fmt.Errorf("load env file: %w", err)
				}
			} else {
				// A missing default .env is fine
				_ = godotenv.Load()
			}
			slog.SetDefault(logging.New(cmd.ErrOrStderr(), opts.logLevel, opts.logFormat))
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "env file to load (default: .env when present)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "text", "log format: text or json")

	rootCmd.AddCommand(
		newVersionCmd(),
		newEntitiesCmd(),
		newExportCmd(),
		newSeedCmd(),
		newQRCmd(),
		newCheckinCmd(),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "rosterctl %s\n", Version)
		},
	}
}

// withStore loads configuration, opens the store and runs fn with a
// timeout-bound context. The store is closed when fn returns.
func withStore(cmd *cobra.Command, fn func(ctx context.Context, e *env) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()

	st, err := store.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	service := core.NewService(st, nil, core.ServiceConfig{
		FetchTimeout: cfg.Database.FetchTimeout,
		Metrics:      metrics.New(),
	})
	return fn(ctx, &env{cfg: cfg, store: st, service: service})
}

// userError renders err with its mapped user message when one exists.
func userError(err error) error {
	if core.IsUserFacing(err) {
		return fmt.Errorf("%s: %w", core.FormatUserError(err), err)
	}
	return err
}
