package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ericfisherdev/pendingchecks/internal/application"
	"github.com/ericfisherdev/pendingchecks/internal/domain/model"
)

func newHistoryCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [evaluation-id]",
		Short: "Show recorded evaluations",
		Long: `Show recorded evaluations, newest first.

With an evaluation ID, show the subjects recorded by that evaluation.
--repo limits the listing to one repository; --all-repos lists every one.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeFn, err := app.openHistory(cmd.Context())
			if err != nil {
				return err
			}
			defer closeQuietly(closeFn)

			svc := application.NewHistoryService(store)

			if len(args) == 1 {
				subjects, err := svc.Subjects(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("failed to load evaluation: %w", err)
				}
				return printSubjects(app, subjects)
			}

			if app.cfg.Repo != "" {
				if err := app.cfg.ResolveRepository(); err != nil {
					return err
				}
			}
			repo := app.cfg.Repo
			if all, _ := cmd.Flags().GetBool("all-repos"); all {
				repo = ""
			}
			limit, _ := cmd.Flags().GetInt("limit")

			evals, err := svc.Recent(cmd.Context(), repo, limit)
			if err != nil {
				return fmt.Errorf("failed to list evaluations: %w", err)
			}
			return printEvaluations(app, evals)
		},
	}

	cmd.Flags().IntP("limit", "n", 20, "Maximum number of evaluations to show")
	cmd.Flags().Bool("all-repos", false, "Ignore --repo and list every repository")

	return cmd
}

func printEvaluations(app *App, evals []model.Evaluation) error {
	if len(evals) == 0 {
		fmt.Fprintln(app.Stdout, "No evaluations recorded.")
		return nil
	}

	w := tabwriter.NewWriter(app.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tREPO\tSTRATEGY\tEVALUATED\tSUBJECTS\tWITH PENDING\tPENDING\tRUNNING\tFAILED")
	fmt.Fprintln(w, "--\t----\t--------\t---------\t--------\t------------\t-------\t-------\t------")
	for _, e := range evals {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%d\t%d\n",
			e.ID,
			e.Repo,
			e.Strategy,
			e.EvaluatedAt.Local().Format(time.DateTime),
			e.TotalSubjects,
			e.SubjectsWithPending,
			e.PendingCount,
			e.RunningCount,
			e.FailedSubjects,
		)
	}
	return w.Flush()
}

func printSubjects(app *App, subjects []model.EvaluationSubject) error {
	if len(subjects) == 0 {
		fmt.Fprintln(app.Stdout, "No subjects recorded for this evaluation.")
		return nil
	}

	w := tabwriter.NewWriter(app.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "SUBJECT\tTITLE\tSTATE\tPENDING\tRUNNING\tCOMPLETED\tPENDING CHECKS")
	fmt.Fprintln(w, "-------\t-----\t-----\t-------\t-------\t---------\t--------------")
	for _, s := range subjects {
		state := string(s.CIStatus)
		names := strings.Join(s.PendingNames, ", ")
		if s.Err != "" {
			state = "error"
			names = s.Err
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			s.SubjectKey, s.Title, state, s.Pending, s.Running, s.Completed, names)
	}
	return w.Flush()
}
