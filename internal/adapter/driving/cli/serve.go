package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	httphandler "github.com/ericfisherdev/pendingchecks/internal/adapter/driving/http"
	"github.com/ericfisherdev/pendingchecks/internal/adapter/driving/web"
	"github.com/ericfisherdev/pendingchecks/internal/application"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API and HTML pages",
		Long: `Serve pending checks over HTTP.

  GET /api/v1/repos/{owner}/{repo}/pending   structured JSON
  GET /repos/{owner}/{repo}                  HTML page
  GET /api/v1/history                        recorded evaluations (with --record)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, app)
		},
	}

	flags := cmd.Flags()
	flags.String("listen", "", "Address to listen on (default from config, 127.0.0.1:8080)")
	flags.String("approval-strategy", "", "Default approval strategy: generic or approval")
	flags.StringSlice("ignore", nil, "Check name to ignore (repeatable)")
	flags.Int("concurrency", 0, "Subjects evaluated in parallel")
	flags.Int("max-pages", 0, "Maximum pages fetched per listing")
	flags.Bool("record", false, "Record every evaluation served in the history database")
	flags.Duration("refresh", 0, "Auto-refresh interval of HTML pages (default: watch interval)")

	return cmd
}

func runServe(cmd *cobra.Command, app *App) error {
	ctx := cmd.Context()
	flags := cmd.Flags()

	applyCheckFlags(flags, app.cfg)
	if flags.Changed("listen") {
		app.cfg.ListenAddr, _ = flags.GetString("listen")
	}

	cfg := app.cfg
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.ResolveToken(); err != nil {
		return err
	}

	provider, err := app.NewProvider(cfg)
	if err != nil {
		return fmt.Errorf("failed to create GitHub client: %w", err)
	}

	evaluators := application.NewEvaluators(provider, application.CheckOptions{
		Strategy:     cfg.ApprovalStrategy,
		IgnoreChecks: cfg.IgnoreChecks,
		Concurrency:  cfg.Concurrency,
	})

	var history *application.HistoryService
	if cfg.Record {
		store, closeFn, err := app.openHistory(ctx)
		if err != nil {
			return err
		}
		defer closeQuietly(closeFn)
		history = application.NewHistoryService(store)
	}

	refresh, _ := flags.GetDuration("refresh")
	if refresh <= 0 {
		refresh = cfg.WatchInterval
	}

	logger := slog.Default()
	mux := http.NewServeMux()
	httphandler.RegisterAPIRoutes(mux, httphandler.NewHandler(evaluators, history, cfg.Record, logger))
	web.RegisterRoutes(mux, web.NewHandler(evaluators, refresh, logger))

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           httphandler.ApplyMiddleware(mux, logger),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return serve(ctx, app, srv)
}

// serve runs srv until ctx is done, then shuts it down gracefully.
func serve(ctx context.Context, app *App, srv *http.Server) error {
	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", srv.Addr, err)
	}

	fmt.Fprintf(app.Stderr, "Serving on http://%s\n", ln.Addr())
	slog.Info("http server starting", "addr", ln.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}

	slog.Info("shutdown complete")
	return nil
}
