package github_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ghAdapter "github.com/ericfisherdev/pendingchecks/internal/adapter/driven/github"
	"github.com/ericfisherdev/pendingchecks/internal/domain/model"
)

// newTestClient creates a Client backed by the given httptest handler.
func newTestClient(t *testing.T, handler http.Handler, opts ...ghAdapter.Option) *ghAdapter.Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := ghAdapter.NewClientWithHTTPClient(server.Client(), server.URL+"/", opts...)
	require.NoError(t, err)

	return client
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func testSubject() model.Subject {
	return model.Subject{
		Kind:       model.SubjectPullRequest,
		Repo:       "owner/repo",
		Number:     42,
		HeadSHA:    "abc123",
		BaseBranch: "main",
	}
}

func TestGetPullRequest(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/owner/repo/pulls/42", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{
			"number":   42,
			"title":    "Add feature X",
			"draft":    true,
			"html_url": "https://github.com/owner/repo/pull/42",
			"user":     map[string]any{"login": "alice"},
			"head":     map[string]any{"ref": "feature-x", "sha": "abc123"},
			"base":     map[string]any{"ref": "main"},
		})
	})

	client := newTestClient(t, mux)
	subject, err := client.GetPullRequest(context.Background(), "owner/repo", 42)

	require.NoError(t, err)
	assert.Equal(t, model.SubjectPullRequest, subject.Kind)
	assert.Equal(t, "owner/repo", subject.Repo)
	assert.Equal(t, 42, subject.Number)
	assert.Equal(t, "Add feature X", subject.Title)
	assert.Equal(t, "alice", subject.Author)
	assert.Equal(t, "abc123", subject.HeadSHA)
	assert.Equal(t, "main", subject.BaseBranch)
	assert.Equal(t, "https://github.com/owner/repo/pull/42", subject.URL)
	assert.True(t, subject.IsDraft)
}

func TestGetPullRequest_NotFound(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message":"Not Found"}`)
	})

	client := newTestClient(t, handler)
	_, err := client.GetPullRequest(context.Background(), "owner/repo", 99)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "owner/repo#99")
}

func TestListOpenPullRequests_Pagination(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "open", r.URL.Query().Get("state"))

		page := r.URL.Query().Get("page")
		if page == "" || page == "1" {
			w.Header().Set("Link", fmt.Sprintf(`<%s?page=2>; rel="next"`, "http://"+r.Host+r.URL.Path))
			writeJSON(t, w, []map[string]any{
				{"number": 1, "title": "First", "head": map[string]any{"sha": "sha1"}, "base": map[string]any{"ref": "main"}},
			})
			return
		}

		writeJSON(t, w, []map[string]any{
			{"number": 2, "title": "Second", "head": map[string]any{"sha": "sha2"}, "base": map[string]any{"ref": "main"}},
		})
	})

	client := newTestClient(t, handler)
	result, err := client.ListOpenPullRequests(context.Background(), "owner/repo")

	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, 1, result[0].Number)
	assert.Equal(t, "sha1", result[0].HeadSHA)
	assert.Equal(t, 2, result[1].Number)
}

func TestListOpenPullRequests_PageLimit(t *testing.T) {
	var calls atomic.Int32

	// Every page claims a successor; the client must stop at the bound.
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		w.Header().Set("Link", fmt.Sprintf(`<%s?page=%d>; rel="next"`, "http://"+r.Host+r.URL.Path, n+1))
		writeJSON(t, w, []map[string]any{{"number": n}})
	})

	client := newTestClient(t, handler, ghAdapter.WithMaxPages(2))
	result, err := client.ListOpenPullRequests(context.Background(), "owner/repo")

	require.NoError(t, err)
	assert.Len(t, result, 2)
	assert.Equal(t, int32(2), calls.Load())
}

func TestListOpenPullRequests_InvalidRepoName(t *testing.T) {
	client := newTestClient(t, http.NotFoundHandler())

	for _, name := range []string{"", "noslash", "/repo", "owner/"} {
		t.Run(name, func(t *testing.T) {
			_, err := client.ListOpenPullRequests(context.Background(), name)
			require.Error(t, err)
			assert.ErrorIs(t, err, model.ErrConfiguration)
		})
	}
}

func TestGetCommit(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/owner/repo/commits/HEAD", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{
			"sha":      "deadbeefcafe",
			"html_url": "https://github.com/owner/repo/commit/deadbeefcafe",
			"commit":   map[string]any{"message": "Fix flaky test\n\nLonger body."},
			"author":   map[string]any{"login": "bob"},
		})
	})
	mux.HandleFunc("GET /repos/owner/repo", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{"default_branch": "trunk"})
	})

	client := newTestClient(t, mux)
	subject, err := client.GetCommit(context.Background(), "owner/repo", "HEAD")

	require.NoError(t, err)
	assert.Equal(t, model.SubjectCommit, subject.Kind)
	assert.Equal(t, "deadbeefcafe", subject.HeadSHA)
	assert.Equal(t, "Fix flaky test", subject.Title)
	assert.Equal(t, "bob", subject.Author)
	assert.Equal(t, "trunk", subject.BaseBranch)
	assert.Equal(t, "owner/repo@deadbee", subject.Key())
}

func TestListWorkflowRuns(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/owner/repo/actions/runs", r.URL.Path)
		assert.Equal(t, "abc123", r.URL.Query().Get("head_sha"))
		writeJSON(t, w, map[string]any{
			"total_count": 2,
			"workflow_runs": []map[string]any{
				{
					"name":       "CI",
					"status":     "queued",
					"event":      "pull_request",
					"html_url":   "https://github.com/owner/repo/actions/runs/1",
					"head_sha":   "abc123",
					"created_at": "2026-01-01T00:00:00Z",
				},
				{
					"name":       "Deploy",
					"status":     "completed",
					"conclusion": "action_required",
					"head_sha":   "abc123",
				},
			},
		})
	})

	client := newTestClient(t, handler)
	runs, err := client.ListWorkflowRuns(context.Background(), testSubject())

	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "CI", runs[0].Name)
	assert.Equal(t, "queued", runs[0].Status)
	assert.Equal(t, "pull_request", runs[0].Event)
	assert.Equal(t, 2026, runs[0].CreatedAt.Year())
	assert.Equal(t, "action_required", runs[1].Conclusion)
}

func TestListCheckRuns(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/owner/repo/commits/abc123/check-runs", r.URL.Path)
		writeJSON(t, w, map[string]any{
			"total_count": 1,
			"check_runs": []map[string]any{
				{
					"name":        "lint",
					"status":      "in_progress",
					"details_url": "https://ci.example.com/lint",
					"started_at":  "2026-01-01T00:00:00Z",
					"app":         map[string]any{"name": "GitHub Actions"},
				},
			},
		})
	})

	client := newTestClient(t, handler)
	runs, err := client.ListCheckRuns(context.Background(), testSubject())

	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "lint", runs[0].Name)
	assert.Equal(t, "in_progress", runs[0].Status)
	assert.Equal(t, "GitHub Actions", runs[0].App)
	assert.Equal(t, "https://ci.example.com/lint", runs[0].URL)
	assert.False(t, runs[0].CreatedAt.IsZero())
}

func TestListCommitStatuses(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/owner/repo/commits/abc123/statuses", r.URL.Path)
		writeJSON(t, w, []map[string]any{
			{"context": "ci/jenkins", "state": "success", "target_url": "https://jenkins/2"},
			{"context": "ci/jenkins", "state": "pending", "description": "Build started"},
		})
	})

	client := newTestClient(t, handler)
	statuses, err := client.ListCommitStatuses(context.Background(), testSubject())

	require.NoError(t, err)
	require.Len(t, statuses, 2)
	assert.Equal(t, "ci/jenkins", statuses[0].Context)
	assert.Equal(t, "success", statuses[0].State)
	assert.Equal(t, "https://jenkins/2", statuses[0].URL)
	assert.Equal(t, "Build started", statuses[1].Description)
}

func TestListCommitStatuses_ServerError(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	client := newTestClient(t, handler)
	_, err := client.ListCommitStatuses(context.Background(), testSubject())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "commit statuses")
}

func TestListRequiredChecks(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/owner/repo/branches/main/protection/required_status_checks", r.URL.Path)
		writeJSON(t, w, map[string]any{
			"strict": true,
			"checks": []map[string]any{
				{"context": "ci/build"},
				{"context": "lint"},
			},
		})
	})

	client := newTestClient(t, handler)
	checks, err := client.ListRequiredChecks(context.Background(), testSubject())

	require.NoError(t, err)
	assert.Equal(t, []string{"ci/build", "lint"}, checks)
}

func TestListRequiredChecks_Unprotected(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{name: "not found", status: http.StatusNotFound},
		{name: "forbidden", status: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, `{"message":"Branch not protected"}`)
			})

			client := newTestClient(t, handler)
			checks, err := client.ListRequiredChecks(context.Background(), testSubject())

			require.NoError(t, err)
			assert.Nil(t, checks)
		})
	}
}

func TestListRequiredChecks_NoBaseBranch(t *testing.T) {
	var calls atomic.Int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})

	subject := testSubject()
	subject.BaseBranch = ""

	client := newTestClient(t, handler)
	checks, err := client.ListRequiredChecks(context.Background(), subject)

	require.NoError(t, err)
	assert.Nil(t, checks)
	assert.Zero(t, calls.Load())
}
