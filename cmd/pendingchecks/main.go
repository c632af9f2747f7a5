package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	githubadapter "github.com/ericfisherdev/pendingchecks/internal/adapter/driven/github"
	sqliteadapter "github.com/ericfisherdev/pendingchecks/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/pendingchecks/internal/adapter/driving/cli"
	"github.com/ericfisherdev/pendingchecks/internal/config"
	"github.com/ericfisherdev/pendingchecks/internal/domain/port/driven"
	"github.com/ericfisherdev/pendingchecks/internal/exec"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.App{
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
		Executor:    exec.NewRealExecutor(),
		NewProvider: newProvider,
		OpenHistory: openHistory,
		Version:     version,
	}

	err := cli.NewRootCmd(app).ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	var exitErr *cli.ExitError
	if errors.As(err, &exitErr) {
		if exitErr.Err != nil {
			fmt.Fprintln(os.Stderr, "Error:", exitErr.Err)
		}
		return exitErr.Code
	}

	fmt.Fprintln(os.Stderr, "Error:", err)
	return 1
}

func newProvider(cfg *config.Config) (driven.ChecksProvider, error) {
	return githubadapter.NewClient(cfg.Token, cfg.Host, githubadapter.WithMaxPages(cfg.MaxPages))
}

func openHistory(ctx context.Context, path string) (driven.HistoryStore, func() error, error) {
	db, err := sqliteadapter.Open(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	return sqliteadapter.NewHistoryRepo(db), db.Close, nil
}
