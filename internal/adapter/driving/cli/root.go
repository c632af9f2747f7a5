// Package cli implements the pendingchecks command line on top of cobra.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ericfisherdev/pendingchecks/internal/config"
	"github.com/ericfisherdev/pendingchecks/internal/domain/port/driven"
	"github.com/ericfisherdev/pendingchecks/internal/exec"
)

// ExitPending is the exit code used by --fail-on-pending when any check is
// still pending or running.
const ExitPending = 8

// ExitError asks main to exit with Code. A nil Err means nothing is printed.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// ProviderFactory builds the ChecksProvider for a resolved configuration.
type ProviderFactory func(cfg *config.Config) (driven.ChecksProvider, error)

// HistoryOpener opens the history store at path. The returned close function
// releases it.
type HistoryOpener func(ctx context.Context, path string) (driven.HistoryStore, func() error, error)

// App carries the dependencies shared by every command.
type App struct {
	Stdout      io.Writer
	Stderr      io.Writer
	Executor    exec.CommandExecutor
	NewProvider ProviderFactory
	OpenHistory HistoryOpener
	Version     string

	cfg *config.Config
}

// NewRootCmd builds the command tree.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "pendingchecks",
		Short:         "Show the CI checks still outstanding on pull requests and commits",
		Version:       app.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.setup(cmd)
		},
	}

	root.SetOut(app.Stdout)
	root.SetErr(app.Stderr)

	pf := root.PersistentFlags()
	pf.String("config", "", "Path to a YAML config file")
	pf.StringP("repo", "R", "", "Repository as [HOST/]OWNER/REPO (default: current directory)")
	pf.String("log-level", "", "Log level: debug, info, warn or error")

	root.AddCommand(
		newListCmd(app),
		newApprovalsCmd(app),
		newHistoryCmd(app),
		newServeCmd(app),
	)

	return root
}

// setup loads configuration, applies the persistent flags and installs the
// logger.
func (app *App) setup(cmd *cobra.Command) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadFrom(path)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("repo") {
		cfg.Repo, _ = flags.GetString("repo")
	}
	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}

	level, err := config.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(app.Stderr, &slog.HandlerOptions{Level: level})))

	app.cfg = cfg
	return nil
}

// resolve validates the configuration and fills in repository and token.
func (app *App) resolve() (*config.Config, error) {
	cfg := app.cfg
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.ResolveRepository(); err != nil {
		return nil, err
	}
	if err := cfg.ResolveToken(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openHistory opens the configured history database.
func (app *App) openHistory(ctx context.Context) (driven.HistoryStore, func() error, error) {
	if app.OpenHistory == nil {
		return nil, nil, errors.New("history store is not available")
	}
	store, closeFn, err := app.OpenHistory(ctx, app.cfg.HistoryDB)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open history database %s: %w", app.cfg.HistoryDB, err)
	}
	return store, closeFn, nil
}

func closeQuietly(closeFn func() error) {
	if err := closeFn(); err != nil {
		slog.Error("error closing history database", "error", err)
	}
}
