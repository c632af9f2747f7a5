package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ericfisherdev/pendingchecks/internal/application"
	"github.com/ericfisherdev/pendingchecks/internal/config"
	"github.com/ericfisherdev/pendingchecks/internal/domain/model"
	"github.com/ericfisherdev/pendingchecks/internal/exec"
	"github.com/ericfisherdev/pendingchecks/internal/render"
)

func newListCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List pending and running checks",
		Long: `List the checks that are still pending or running.

Without --pr or --commit every open pull request of the repository is
evaluated. --commit HEAD evaluates the local HEAD commit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChecks(cmd, app, false)
		},
	}

	addCheckFlags(cmd.Flags())
	cmd.Flags().String("approval-strategy", "", "Approval strategy: generic or approval")

	return cmd
}

func newApprovalsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "approvals",
		Short: "List checks waiting for approval and missing required checks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChecks(cmd, app, true)
		},
	}

	addCheckFlags(cmd.Flags())

	return cmd
}

func addCheckFlags(flags *pflag.FlagSet) {
	flags.IntSlice("pr", nil, "Pull request number (repeatable)")
	flags.StringSlice("commit", nil, "Commit SHA, branch or HEAD (repeatable)")
	flags.String("author", "", "Only pull requests opened by this login")
	flags.Bool("draft", true, "Include draft pull requests")
	flags.StringP("format", "f", "", "Output format: detailed, table, json or markdown")
	flags.StringSlice("ignore", nil, "Check name to ignore (repeatable)")
	flags.Int("concurrency", 0, "Subjects evaluated in parallel")
	flags.Int("max-pages", 0, "Maximum pages fetched per listing")
	flags.Duration("watch", 0, "Re-evaluate until nothing is outstanding; --watch=30s sets the interval")
	flags.Lookup("watch").NoOptDefVal = "0s"
	flags.Bool("fail-on-pending", false, fmt.Sprintf("Exit with status %d when any check is pending or running", ExitPending))
	flags.Bool("record", false, "Record the evaluation in the history database")
}

// applyCheckFlags overrides configuration with the flags the user set.
func applyCheckFlags(flags *pflag.FlagSet, cfg *config.Config) {
	if flags.Changed("format") {
		cfg.Format, _ = flags.GetString("format")
	}
	if flags.Lookup("approval-strategy") != nil && flags.Changed("approval-strategy") {
		s, _ := flags.GetString("approval-strategy")
		cfg.ApprovalStrategy = model.ApprovalStrategy(s)
	}
	if flags.Changed("ignore") {
		ignore, _ := flags.GetStringSlice("ignore")
		cfg.IgnoreChecks = append(cfg.IgnoreChecks, ignore...)
	}
	if flags.Changed("concurrency") {
		cfg.Concurrency, _ = flags.GetInt("concurrency")
	}
	if flags.Changed("max-pages") {
		cfg.MaxPages, _ = flags.GetInt("max-pages")
	}
	if flags.Changed("record") {
		cfg.Record, _ = flags.GetBool("record")
	}
}

func runChecks(cmd *cobra.Command, app *App, approvals bool) error {
	ctx := cmd.Context()
	flags := cmd.Flags()

	applyCheckFlags(flags, app.cfg)
	if approvals {
		app.cfg.ApprovalStrategy = model.StrategyApproval
	}

	cfg, err := app.resolve()
	if err != nil {
		return err
	}

	format, err := render.ParseFormat(cfg.Format)
	if err != nil {
		return err
	}

	q, err := buildQuery(ctx, app, flags, cfg.Repo)
	if err != nil {
		return err
	}

	provider, err := app.NewProvider(cfg)
	if err != nil {
		return fmt.Errorf("failed to create GitHub client: %w", err)
	}

	svc := application.NewCheckService(provider, application.CheckOptions{
		Strategy:     cfg.ApprovalStrategy,
		IgnoreChecks: cfg.IgnoreChecks,
		Concurrency:  cfg.Concurrency,
	})

	opts := render.Options{}
	if approvals {
		opts.Filter = application.NeedsApproval
	}

	var summary model.AggregateSummary
	if flags.Changed("watch") {
		summary, err = watch(ctx, app, flags, svc, q, format, opts)
	} else {
		summary, err = svc.Evaluate(ctx, q)
		if err == nil {
			err = render.Render(app.Stdout, format, summary, opts)
		}
	}
	if err != nil {
		return err
	}

	if cfg.Record {
		if err := recordSummary(ctx, app, cfg, summary); err != nil {
			return err
		}
	}

	failOnPending, _ := flags.GetBool("fail-on-pending")
	if failOnPending && len(summary.Reports) == 0 && summary.FailedSubjects > 0 {
		return &ExitError{Code: 1, Err: fmt.Errorf("no subject could be evaluated (%d failed)", summary.FailedSubjects)}
	}
	if failOnPending && application.HasOutstanding(summary, opts.Filter) {
		return &ExitError{Code: ExitPending}
	}

	return nil
}

// buildQuery turns the subject flags into a SubjectQuery, resolving HEAD to
// the local commit.
func buildQuery(ctx context.Context, app *App, flags *pflag.FlagSet, repo string) (application.SubjectQuery, error) {
	prs, _ := flags.GetIntSlice("pr")
	commits, _ := flags.GetStringSlice("commit")
	author, _ := flags.GetString("author")
	drafts, _ := flags.GetBool("draft")

	for i, ref := range commits {
		if !strings.EqualFold(ref, "HEAD") {
			continue
		}
		sha, err := exec.HeadCommit(ctx, app.Executor)
		if err != nil {
			return application.SubjectQuery{}, fmt.Errorf("failed to resolve HEAD: %w", err)
		}
		commits[i] = sha
	}

	return application.SubjectQuery{
		Repo:          repo,
		PRNumbers:     prs,
		Commits:       commits,
		Author:        author,
		ExcludeDrafts: !drafts,
	}, nil
}

func watch(
	ctx context.Context,
	app *App,
	flags *pflag.FlagSet,
	evaluator application.Evaluator,
	q application.SubjectQuery,
	format render.Format,
	opts render.Options,
) (model.AggregateSummary, error) {
	interval, _ := flags.GetDuration("watch")
	if interval <= 0 {
		interval = app.cfg.WatchInterval
	}

	var rendered int
	svc := application.NewWatchService(evaluator, interval, opts.Filter)
	summary, err := svc.Run(ctx, q, func(cycle int, s model.AggregateSummary) error {
		if cycle > 1 && format != render.FormatJSON {
			fmt.Fprintln(app.Stdout)
		}
		slog.Info("watch cycle", "cycle", cycle, "interval", interval)
		rendered++
		return render.Render(app.Stdout, format, s, opts)
	})
	// An interrupt ends a watch normally once something was shown.
	if errors.Is(err, context.Canceled) && rendered > 0 {
		return summary, nil
	}
	return summary, err
}

// recordSummary stores summary even when ctx was canceled by an interrupted
// watch.
func recordSummary(ctx context.Context, app *App, cfg *config.Config, summary model.AggregateSummary) error {
	ctx = context.WithoutCancel(ctx)

	store, closeFn, err := app.openHistory(ctx)
	if err != nil {
		return err
	}
	defer closeQuietly(closeFn)

	eval, err := application.NewHistoryService(store).Record(ctx, cfg.Repo, cfg.ApprovalStrategy, summary)
	if err != nil {
		return fmt.Errorf("failed to record evaluation: %w", err)
	}

	fmt.Fprintf(app.Stderr, "Recorded evaluation %s\n", eval.ID)
	return nil
}
