package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"fintrack/internal/backend"
	"fintrack/internal/cli"
	"fintrack/internal/config"
	applog "fintrack/internal/log"
	"fintrack/internal/services"
)

// app carries the global flags shared by every subcommand.
type app struct {
	backendType string
	dbPath      string
	seed        string
	readOnly    bool
	logLevel    string

	logger *slog.Logger
}

func newRootCmd(out io.Writer) *cobra.Command {
	cfg := config.Load()
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "fintrackctl",
		Short:         "Import, export and report monthly financial snapshots",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			a.logger = slog.New(cli.NewHandler(cmd.ErrOrStderr(), a.logLevel, "pretty"))
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	rootCmd.SetOut(out)

	rootCmd.PersistentFlags().StringVar(&a.backendType, "backend", cfg.DataBackend, "Storage backend (memory|sqlite)")
	rootCmd.PersistentFlags().StringVar(&a.dbPath, "db", cfg.SQLiteDBPath, "SQLite database path")
	rootCmd.PersistentFlags().StringVar(&a.seed, "seed", cfg.SeedCSV, "History CSV loaded into an empty store")
	rootCmd.PersistentFlags().BoolVar(&a.readOnly, "read-only", cfg.ReadOnly, "Reject every change")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "warn", "Log level (debug|info|warn|error)")

	rootCmd.AddCommand(a.importCmd())
	rootCmd.AddCommand(a.exportCmd(cfg.ExportLocale))
	rootCmd.AddCommand(a.reportCmd())
	return rootCmd
}

// requirePersistent rejects writes to the memory backend, whose data would
// vanish when the command exits.
func (a *app) requirePersistent() error {
	if backend.BackendType(a.backendType) == backend.MemoryBackend {
		return fmt.Errorf("the %s backend does not outlive the command; use --backend %s to store changes",
			backend.MemoryBackend, backend.SQLiteBackend)
	}
	return nil
}

// open builds the backend selected by the flags and a service over it. The
// returned cleanup closes the backend.
func (a *app) open(ctx context.Context) (*services.SnapshotService, func(), error) {
	bt := backend.BackendType(a.backendType)
	if !bt.IsValid() {
		return nil, nil, fmt.Errorf("invalid backend %q: must be one of %v", a.backendType, backend.GetBackendTypeStrings())
	}
	logger := a.logger
	if logger == nil {
		logger = slog.New(cli.NewHandler(os.Stderr, a.logLevel, "text"))
	}

	result, err := backend.NewFactory(logger).CreateBackend(ctx, backend.Config{
		Type:         bt,
		SQLiteDBPath: a.dbPath,
		SeedCSV:      a.seed,
	})
	if err != nil {
		return nil, nil, err
	}

	svc := services.NewSnapshotService(result.Store,
		services.WithReadOnly(a.readOnly),
		services.WithLogger(cli.AppLogger(logger, applog.ComponentCLI)),
	)
	cleanup := func() {
		if result.Cleanup != nil {
			if err := result.Cleanup(); err != nil {
				logger.Warn("Backend cleanup failed", applog.FieldError, err)
			}
		}
	}
	return svc, cleanup, nil
}

func main() {
	cli.LoadEnvFile()
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
