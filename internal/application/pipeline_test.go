package application

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/pendingchecks/internal/domain/model"
)

// --- Normalize tests ---

func TestNormalize_TagsKinds(t *testing.T) {
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	records := Normalize(model.Feeds{
		WorkflowRuns: []model.WorkflowRun{
			{Name: "CI", Status: "queued", Event: "pull_request", URL: "https://example.com/run/1", CreatedAt: created},
		},
		CheckRuns: []model.CheckRun{
			{Name: "lint", Status: "completed", Conclusion: "success", App: "GitHub Actions"},
		},
		CommitStatuses: []model.CommitStatus{
			{Context: "ci/circleci", State: "pending", Description: "Build queued", URL: "https://circleci.com/1"},
		},
	})

	require.Len(t, records, 3)

	assert.Equal(t, model.KindWorkflowRun, records[0].Kind)
	assert.Equal(t, "CI", records[0].Name)
	assert.Equal(t, model.StatusQueued, records[0].Status)
	assert.Equal(t, "pull_request", records[0].Source)
	assert.Equal(t, created, records[0].CreatedAt)

	assert.Equal(t, model.KindCheckRun, records[1].Kind)
	assert.Equal(t, "success", records[1].Conclusion)
	assert.Equal(t, "GitHub Actions", records[1].Source)

	assert.Equal(t, model.KindCommitStatus, records[2].Kind)
	assert.Equal(t, "ci/circleci", records[2].Name)
	assert.Equal(t, model.StatusPending, records[2].Status)
	assert.Equal(t, "Build queued", records[2].Description)
}

func TestNormalize_RequiredChecks(t *testing.T) {
	t.Run("absent required check becomes missing record", func(t *testing.T) {
		records := Normalize(model.Feeds{
			CheckRuns:      []model.CheckRun{{Name: "build", Status: "completed", Conclusion: "success"}},
			RequiredChecks: []string{"Security Scan"},
		})

		require.Len(t, records, 2)
		assert.Equal(t, "Security Scan", records[1].Name)
		assert.Equal(t, model.KindRequiredCheck, records[1].Kind)
		assert.Equal(t, model.StatusMissing, records[1].Status)
		assert.True(t, records[1].Required)
	})

	t.Run("present required check marks existing records case-insensitively", func(t *testing.T) {
		records := Normalize(model.Feeds{
			CheckRuns:      []model.CheckRun{{Name: "Build", Status: "in_progress"}},
			CommitStatuses: []model.CommitStatus{{Context: "lint", State: "success"}},
			RequiredChecks: []string{"build", "LINT"},
		})

		require.Len(t, records, 2, "no gap records when every required check is reported")
		assert.True(t, records[0].Required)
		assert.True(t, records[1].Required)
	})

	t.Run("duplicate required names produce one gap", func(t *testing.T) {
		records := Normalize(model.Feeds{RequiredChecks: []string{"deploy", "Deploy"}})

		require.Len(t, records, 1)
		assert.Equal(t, "deploy", records[0].Name)
	})

	t.Run("no required checks leaves records unmarked", func(t *testing.T) {
		records := Normalize(model.Feeds{CheckRuns: []model.CheckRun{{Name: "build"}}})

		require.Len(t, records, 1)
		assert.False(t, records[0].Required)
	})
}

func TestNormalize_MalformedItemsBecomeEmptyFields(t *testing.T) {
	records := Normalize(model.Feeds{
		WorkflowRuns: []model.WorkflowRun{{}},
	})

	require.Len(t, records, 1)
	assert.Equal(t, "", records[0].Name)
	assert.Equal(t, model.CheckStatus(""), records[0].Status)
	assert.True(t, records[0].CreatedAt.IsZero())
}

// --- Aggregate tests ---

func TestAggregate_DedupFirstSeenWins(t *testing.T) {
	records := []model.CheckRecord{
		{Name: "build", Kind: model.KindCheckRun, Status: model.StatusInProgress},
		{Name: "Build", Kind: model.KindCheckRun, Status: model.StatusCompleted},
		{Name: "build", Kind: model.KindCommitStatus, Status: model.StatusPending},
	}

	got := Aggregate(records)

	require.Len(t, got, 2)
	assert.Equal(t, model.StatusInProgress, got[0].Status, "first-seen check run wins")
	assert.Equal(t, model.KindCommitStatus, got[1].Kind, "same name with a different kind is kept")
}

func TestAggregate_OrdersByKind(t *testing.T) {
	records := []model.CheckRecord{
		{Name: "gap", Kind: model.KindRequiredCheck},
		{Name: "status-a", Kind: model.KindCommitStatus},
		{Name: "check-a", Kind: model.KindCheckRun},
		{Name: "wf-a", Kind: model.KindWorkflowRun},
		{Name: "check-b", Kind: model.KindCheckRun},
		{Name: "wf-b", Kind: model.KindWorkflowRun},
	}

	got := Aggregate(records)

	names := make([]string, 0, len(got))
	for _, r := range got {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"wf-a", "wf-b", "check-a", "check-b", "status-a", "gap"}, names)
}

func TestAggregate_NoDuplicateGrowth(t *testing.T) {
	records := []model.CheckRecord{
		{Name: "a", Kind: model.KindWorkflowRun},
		{Name: "a", Kind: model.KindWorkflowRun},
		{Name: "b", Kind: model.KindCheckRun},
		{Name: "a", Kind: model.KindCheckRun},
	}

	first := Aggregate(records)
	second := Aggregate(first)

	assert.LessOrEqual(t, len(second), len(first))
	assert.Equal(t, first, second, "aggregation is idempotent")
	assert.Len(t, records, 4, "input is not modified")
}

func TestWithoutIgnored(t *testing.T) {
	records := []model.CheckRecord{
		{Name: "build"},
		{Name: "Codecov"},
		{Name: "lint"},
	}

	got := WithoutIgnored(records, []string{" codecov ", "lint"})

	require.Len(t, got, 1)
	assert.Equal(t, "build", got[0].Name)
	assert.Equal(t, records, WithoutIgnored(records, nil))
}

// --- Evaluate tests ---

func TestEvaluate_ClassifiesMergedFeeds(t *testing.T) {
	generic := NewClassifier(model.StrategyGeneric)

	t.Run("queued workflow run is pending", func(t *testing.T) {
		result := Evaluate(model.Feeds{
			WorkflowRuns: []model.WorkflowRun{{Name: "CI", Status: "queued", Event: "pull_request"}},
		}, generic, nil)

		require.Len(t, result.Pending, 1)
		assert.Equal(t, "CI", result.Pending[0].Name)
		assert.Empty(t, result.Running)
		assert.Empty(t, result.Completed)
	})

	t.Run("successful check run is completed", func(t *testing.T) {
		result := Evaluate(model.Feeds{
			CheckRuns: []model.CheckRun{{Name: "Test Suite", Status: "completed", Conclusion: "success"}},
		}, generic, nil)

		assert.Empty(t, result.Pending)
		require.Len(t, result.Completed, 1)
		assert.Equal(t, "Test Suite", result.Completed[0].Name)
	})

	t.Run("unreported required check is pending as missing", func(t *testing.T) {
		result := Evaluate(model.Feeds{
			CheckRuns:      []model.CheckRun{{Name: "build", Status: "completed", Conclusion: "success"}},
			RequiredChecks: []string{"Security Scan"},
		}, generic, nil)

		require.Len(t, result.Pending, 1)
		assert.Equal(t, "Security Scan", result.Pending[0].Name)
		assert.Equal(t, model.StatusMissing, result.Pending[0].Status)
		assert.Equal(t, model.KindRequiredCheck, result.Pending[0].Kind)
	})

	t.Run("commit status and check run sharing a name stay separate", func(t *testing.T) {
		result := Evaluate(model.Feeds{
			CheckRuns:      []model.CheckRun{{Name: "azure-pipelines", Status: "completed"}},
			CommitStatuses: []model.CommitStatus{{Context: "azure-pipelines", State: "pending"}},
		}, generic, nil)

		require.Len(t, result.Pending, 1)
		assert.Equal(t, model.KindCommitStatus, result.Pending[0].Kind)
		require.Len(t, result.Completed, 1)
		assert.Equal(t, model.KindCheckRun, result.Completed[0].Kind)
	})

	t.Run("no records from any feed yields the sentinel", func(t *testing.T) {
		result := Evaluate(model.Feeds{}, generic, nil)

		require.Len(t, result.Pending, 1)
		assert.Equal(t, model.NoChecksName, result.Pending[0].Name)
		assert.Equal(t, 1, result.Total())
	})

	t.Run("ignoring every record does not yield the sentinel", func(t *testing.T) {
		result := Evaluate(model.Feeds{
			CheckRuns: []model.CheckRun{{Name: "codecov", Status: "queued"}},
		}, generic, []string{"codecov"})

		assert.Equal(t, 0, result.Total())
	})
}

// --- computeCIStatus tests (table-driven) ---

func TestComputeCIStatus(t *testing.T) {
	tests := []struct {
		name   string
		result model.ClassificationResult
		want   model.CIStatus
	}{
		{
			name: "all passing",
			result: model.ClassificationResult{Completed: []model.CheckRecord{
				{Status: model.StatusCompleted, Conclusion: model.ConclusionSuccess},
				{Status: model.StatusSuccess},
			}},
			want: model.CIStatusPassing,
		},
		{
			name: "failing takes precedence over pending",
			result: model.ClassificationResult{
				Pending:   []model.CheckRecord{{Status: model.StatusQueued}},
				Completed: []model.CheckRecord{{Status: model.StatusCompleted, Conclusion: model.ConclusionFailure}},
			},
			want: model.CIStatusFailing,
		},
		{
			name:   "running is pending",
			result: model.ClassificationResult{Running: []model.CheckRecord{{Status: model.StatusInProgress}}},
			want:   model.CIStatusPending,
		},
		{
			name:   "commit status error is failing",
			result: model.ClassificationResult{Completed: []model.CheckRecord{{Status: model.StatusError}}},
			want:   model.CIStatusFailing,
		},
		{
			name:   "timed out is failing",
			result: model.ClassificationResult{Completed: []model.CheckRecord{{Status: model.StatusCompleted, Conclusion: model.ConclusionTimedOut}}},
			want:   model.CIStatusFailing,
		},
		{
			name: "completed action_required is failing",
			result: model.ClassificationResult{Completed: []model.CheckRecord{
				{Status: model.StatusCompleted, Conclusion: model.ConclusionSuccess},
				{Status: model.StatusCompleted, Conclusion: model.ConclusionActionRequired},
			}},
			want: model.CIStatusFailing,
		},
		{
			name: "pending action_required is pending",
			result: model.ClassificationResult{
				Pending:   []model.CheckRecord{{Status: model.StatusCompleted, Conclusion: model.ConclusionActionRequired}},
				Completed: []model.CheckRecord{{Status: model.StatusCompleted, Conclusion: model.ConclusionSuccess}},
			},
			want: model.CIStatusPending,
		},
		{
			name:   "skipped is passing",
			result: model.ClassificationResult{Completed: []model.CheckRecord{{Status: model.StatusCompleted, Conclusion: model.ConclusionSkipped}}},
			want:   model.CIStatusPassing,
		},
		{
			name:   "sentinel only is unknown",
			result: model.ClassificationResult{Pending: []model.CheckRecord{model.NoChecksRecord()}},
			want:   model.CIStatusUnknown,
		},
		{
			name:   "empty is unknown",
			result: model.ClassificationResult{},
			want:   model.CIStatusUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, computeCIStatus(tt.result))
		})
	}
}

// --- BuildSummary tests ---

func TestBuildSummary(t *testing.T) {
	reports := []model.SubjectReport{
		{
			Subject: model.Subject{Kind: model.SubjectPullRequest, Repo: "org/repo", Number: 1},
			Classification: model.ClassificationResult{
				Pending:   []model.CheckRecord{{Name: "CI"}, {Name: "lint"}},
				Running:   []model.CheckRecord{{Name: "test"}},
				Completed: []model.CheckRecord{{Name: "build"}},
			},
		},
		{
			Subject: model.Subject{Kind: model.SubjectPullRequest, Repo: "org/repo", Number: 2},
			Classification: model.ClassificationResult{
				Completed: []model.CheckRecord{{Name: "build"}},
			},
		},
		{
			Subject: model.Subject{Kind: model.SubjectPullRequest, Repo: "org/repo", Number: 3},
			Err:     "boom",
		},
	}

	summary := BuildSummary(reports)

	assert.Equal(t, 2, summary.TotalSubjects)
	assert.Equal(t, 1, summary.SubjectsWithPending)
	assert.Equal(t, 2, summary.PendingCount)
	assert.Equal(t, 1, summary.RunningCount)
	assert.Equal(t, 2, summary.CompletedCount)
	assert.Equal(t, 1, summary.FailedSubjects)
	require.Len(t, summary.Reports, 2)
	require.Len(t, summary.Failures, 1)
	assert.Equal(t, 3, summary.Failures[0].Subject.Number)
	assert.True(t, summary.Outstanding())
}

func TestBuildSummary_SentinelCountsAsPending(t *testing.T) {
	result := Evaluate(model.Feeds{}, NewClassifier(model.StrategyGeneric), nil)
	summary := BuildSummary([]model.SubjectReport{{Classification: result}})

	assert.Equal(t, 1, summary.PendingCount)
	assert.Equal(t, 1, summary.SubjectsWithPending)
}

func TestValidateRepo(t *testing.T) {
	require.NoError(t, ValidateRepo("octocat/hello-world"))
	require.NoError(t, ValidateRepo("my.org/repo_name-2"))

	for _, bad := range []string{"", "octocat", "octocat/", "/repo", "a/b/c", "owner/re po"} {
		err := ValidateRepo(bad)
		require.Error(t, err, bad)
		assert.ErrorIs(t, err, model.ErrConfiguration, bad)
	}
}
