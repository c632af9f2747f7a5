package render_test

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/pendingchecks/internal/application"
	"github.com/ericfisherdev/pendingchecks/internal/domain/model"
	"github.com/ericfisherdev/pendingchecks/internal/render"
)

func init() {
	color.NoColor = true
}

func prSubject(number int, title string) model.Subject {
	return model.Subject{
		Kind:       model.SubjectPullRequest,
		Repo:       "org/repo",
		Number:     number,
		Title:      title,
		URL:        fmt.Sprintf("https://github.com/org/repo/pull/%d", number),
		Author:     "alice",
		HeadSHA:    "abc1234def",
		BaseBranch: "main",
	}
}

// report runs the classification pipeline over feeds for one Subject.
func report(subject model.Subject, feeds model.Feeds, strategy model.ApprovalStrategy) model.SubjectReport {
	return model.SubjectReport{
		Subject:        subject,
		Classification: application.Evaluate(feeds, application.NewClassifier(strategy), nil),
		CIStatus:       model.CIStatusPending,
	}
}

func mixedSummary() model.AggregateSummary {
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	queued := report(prSubject(1, "Add feature X"), model.Feeds{
		WorkflowRuns: []model.WorkflowRun{{
			Name: "CI", Status: "queued", Event: "pull_request",
			URL: "https://github.com/org/repo/actions/runs/1", CreatedAt: created,
		}},
	}, model.StrategyGeneric)

	done := report(prSubject(2, "Fix bug Y"), model.Feeds{
		CheckRuns: []model.CheckRun{{Name: "Test Suite", Status: "completed", Conclusion: "success"}},
	}, model.StrategyGeneric)
	done.CIStatus = model.CIStatusPassing

	failed := model.SubjectReport{
		Subject: prSubject(3, "Broken"),
		Err:     "fetching pull request org/repo#3: 404 Not Found",
	}

	return application.BuildSummary([]model.SubjectReport{queued, done, failed})
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    render.Format
		wantErr bool
	}{
		{in: "detailed", want: render.FormatDetailed},
		{in: "TABLE", want: render.FormatTable},
		{in: " json ", want: render.FormatJSON},
		{in: "markdown", want: render.FormatMarkdown},
		{in: "yaml", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := render.ParseFormat(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, model.ErrConfiguration)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTable_QueuedWorkflowRunRow(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, render.Table(&buf, mixedSummary(), render.Options{}))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 5)
	assert.Contains(t, lines[0], "SUBJECT")
	assert.Contains(t, lines[0], "PENDING CHECKS")

	assert.Contains(t, lines[2], "org/repo#1")
	assert.Contains(t, lines[2], "CI (queued)")

	assert.Contains(t, lines[3], "org/repo#2")
	assert.NotContains(t, lines[3], "Test Suite")

	assert.Contains(t, lines[4], "org/repo#3")
	assert.Contains(t, lines[4], "error")
}

func TestTable_JoinsPendingNames(t *testing.T) {
	r := report(prSubject(4, "Many"), model.Feeds{
		WorkflowRuns:   []model.WorkflowRun{{Name: "CI", Status: "queued"}},
		CommitStatuses: []model.CommitStatus{{Context: "ci/jenkins", State: "pending"}},
		RequiredChecks: []string{"Security Scan"},
	}, model.StrategyGeneric)

	var buf bytes.Buffer
	require.NoError(t, render.Table(&buf, application.BuildSummary([]model.SubjectReport{r}), render.Options{}))

	assert.Contains(t, buf.String(), "CI (queued), ci/jenkins (pending), Security Scan (missing)")
}

func TestDetailed_OmitsSubjectsWithoutOutstandingRecords(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, render.Detailed(&buf, mixedSummary(), render.Options{}))
	out := buf.String()

	assert.Contains(t, out, "org/repo#1 Add feature X")
	assert.Contains(t, out, "Pending (1):")
	assert.Contains(t, out, "CI [workflow_run] queued")
	assert.Contains(t, out, "source:      pull_request")
	assert.Contains(t, out, "created:     2026-01-02T03:04:05Z")
	assert.Contains(t, out, "url:         https://github.com/org/repo/actions/runs/1")

	assert.NotContains(t, out, "Fix bug Y")
	assert.Contains(t, out, "2 subject(s) evaluated, 1 with pending checks: 1 pending, 0 running, 1 completed")
	assert.Contains(t, out, "error: org/repo#3: fetching pull request org/repo#3: 404 Not Found")
}

func TestDetailed_NothingOutstanding(t *testing.T) {
	done := report(prSubject(2, "Fix bug Y"), model.Feeds{
		CheckRuns: []model.CheckRun{{Name: "Test Suite", Status: "completed", Conclusion: "success"}},
	}, model.StrategyGeneric)

	var buf bytes.Buffer
	require.NoError(t, render.Detailed(&buf, application.BuildSummary([]model.SubjectReport{done}), render.Options{}))

	assert.Contains(t, buf.String(), "No pending or running checks.")
}

func TestDetailed_PrintsWarnings(t *testing.T) {
	r := report(prSubject(1, "Add feature X"), model.Feeds{}, model.StrategyGeneric)
	r.Warnings = []string{"fetch check runs for org/repo#1: boom"}

	var buf bytes.Buffer
	require.NoError(t, render.Detailed(&buf, application.BuildSummary([]model.SubjectReport{r}), render.Options{}))

	assert.Contains(t, buf.String(), model.NoChecksName)
	assert.Contains(t, buf.String(), "warning: org/repo#1: fetch check runs for org/repo#1: boom")
}

func TestDetailed_ApprovalFilter(t *testing.T) {
	r := report(prSubject(5, "Deploy"), model.Feeds{
		WorkflowRuns: []model.WorkflowRun{
			{Name: "Deploy", Status: "completed", Conclusion: "action_required"},
			{Name: "Lint", Status: "queued"},
			{Name: "Release", Status: "waiting"},
		},
	}, model.StrategyApproval)

	var buf bytes.Buffer
	opts := render.Options{Filter: application.NeedsApproval}
	require.NoError(t, render.Detailed(&buf, application.BuildSummary([]model.SubjectReport{r}), opts))
	out := buf.String()

	assert.Contains(t, out, "Deploy [workflow_run] completed")
	assert.Contains(t, out, "conclusion:  action_required")
	assert.Contains(t, out, "Release [workflow_run] waiting")
	assert.NotContains(t, out, "Lint")
}

func TestStructured_RoundTrip(t *testing.T) {
	summary := mixedSummary()

	var buf bytes.Buffer
	require.NoError(t, render.Structured(&buf, summary))

	reports, err := render.ParseStructured(&buf)
	require.NoError(t, err)

	assert.Equal(t, summary, application.BuildSummary(reports))
}

func TestStructured_Schema(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, render.Structured(&buf, mixedSummary()))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "["))
	assert.Contains(t, out, `"id": "org/repo#1"`)
	assert.Contains(t, out, `"id": "org/repo#3"`)
	assert.Contains(t, out, `"pendingChecks": [`)
	assert.Contains(t, out, `"name": "CI"`)
	assert.Contains(t, out, `"type": "workflow_run"`)
	assert.Contains(t, out, `"status": "queued"`)
	assert.Contains(t, out, `"createdAt": "2026-01-02T03:04:05Z"`)
	assert.Contains(t, out, `"error": "fetching pull request org/repo#3: 404 Not Found"`)
}

func TestStructured_DoesNotMutateInput(t *testing.T) {
	summary := mixedSummary()
	before := mixedSummary()

	var buf bytes.Buffer
	require.NoError(t, render.Render(&buf, render.FormatJSON, summary, render.Options{}))
	require.NoError(t, render.Render(&buf, render.FormatDetailed, summary, render.Options{Filter: application.NeedsApproval}))
	require.NoError(t, render.Render(&buf, render.FormatTable, summary, render.Options{}))
	require.NoError(t, render.Render(&buf, render.FormatMarkdown, summary, render.Options{}))

	assert.Equal(t, before, summary)
}

func TestMarkdown(t *testing.T) {
	r := report(prSubject(1, "Pipe | title"), model.Feeds{
		WorkflowRuns:   []model.WorkflowRun{{Name: "CI", Status: "in_progress", URL: "https://ci/1"}},
		RequiredChecks: []string{"Security Scan"},
	}, model.StrategyGeneric)

	var buf bytes.Buffer
	require.NoError(t, render.Markdown(&buf, application.BuildSummary([]model.SubjectReport{r}), render.Options{}))
	out := buf.String()

	assert.Contains(t, out, "## Pending checks")
	assert.Contains(t, out, `Pipe \| title`)
	assert.Contains(t, out, "| 1 | 1 |")
	assert.Contains(t, out, "### #1 Pipe | title")
	assert.Contains(t, out, "- [**CI**](https://ci/1) `workflow_run` in_progress")
	assert.Contains(t, out, "- **Security Scan** `required_check` missing (required)")
}
