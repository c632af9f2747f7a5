// Package github implements the ChecksProvider port using the go-github library.
package github

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v82/github"
	"github.com/gregjones/httpcache"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"

	"github.com/ericfisherdev/pendingchecks/internal/domain/model"
	"github.com/ericfisherdev/pendingchecks/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ChecksProvider = (*Client)(nil)

// DefaultMaxPages bounds every paginated listing when no limit is configured.
const DefaultMaxPages = 5

// perPage is the page size requested from every list endpoint.
const perPage = 100

// Client implements the driven.ChecksProvider port using the go-github library.
type Client struct {
	gh       *gh.Client
	maxPages int
}

// Option configures a Client.
type Option func(*Client)

// WithMaxPages bounds paginated listings to n pages of 100 items.
func WithMaxPages(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxPages = n
		}
	}
}

// NewClient creates a new GitHub API client with the following transport stack:
//  1. httpcache (ETag-based conditional request caching)
//  2. go-github-ratelimit (secondary rate limit middleware, sleeps on 429)
//  3. go-github (GitHub REST API client with token auth)
//
// host selects GitHub Enterprise Server when it is neither empty nor github.com.
func NewClient(token, host string, opts ...Option) (*Client, error) {
	cacheTransport := httpcache.NewMemoryCacheTransport()
	rateLimitClient := github_ratelimit.NewClient(cacheTransport)
	client := gh.NewClient(rateLimitClient).WithAuthToken(token)

	if host != "" && host != "github.com" {
		base := "https://" + host + "/api/v3/"
		upload := "https://" + host + "/api/uploads/"
		enterprise, err := client.WithEnterpriseURLs(base, upload)
		if err != nil {
			return nil, fmt.Errorf("configuring enterprise host %s: %w", host, err)
		}
		client = enterprise
	}

	return newClient(client, opts), nil
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and base URL.
// This constructor is intended for testing, allowing injection of an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL string, opts ...Option) (*Client, error) {
	client := gh.NewClient(httpClient)

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	client.BaseURL = u

	return newClient(client, opts), nil
}

func newClient(client *gh.Client, opts []Option) *Client {
	c := &Client{gh: client, maxPages: DefaultMaxPages}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetPullRequest returns the Subject for a single pull request.
func (c *Client) GetPullRequest(ctx context.Context, repoFullName string, number int) (*model.Subject, error) {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return nil, err
	}

	pr, resp, err := c.gh.PullRequests.Get(ctx, owner, repo, number)
	if err != nil {
		return nil, fmt.Errorf("fetching pull request %s#%d: %w", repoFullName, number, err)
	}

	logRateLimit(resp, repoFullName+"/pull", 0, 1)

	subject := mapPullRequest(pr, repoFullName)
	return &subject, nil
}

// ListOpenPullRequests retrieves open pull requests for the repository,
// most recently updated first, up to the page bound.
func (c *Client) ListOpenPullRequests(ctx context.Context, repoFullName string) ([]model.Subject, error) {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return nil, err
	}

	opts := &gh.PullRequestListOptions{
		State:     "open",
		Sort:      "updated",
		Direction: "desc",
		ListOptions: gh.ListOptions{
			PerPage: perPage,
		},
	}

	allPRs := []model.Subject{}

	for pages := 1; ; pages++ {
		prs, resp, err := c.gh.PullRequests.List(ctx, owner, repo, opts)
		if err != nil {
			return nil, fmt.Errorf("listing pull requests for %s (page %d): %w", repoFullName, opts.Page, err)
		}

		logRateLimit(resp, repoFullName+"/pulls", opts.Page, len(prs))

		for _, pr := range prs {
			allPRs = append(allPRs, mapPullRequest(pr, repoFullName))
		}

		if !c.nextPage(resp, &opts.ListOptions, pages, repoFullName+"/pulls") {
			break
		}
	}

	return allPRs, nil
}

// GetCommit returns the Subject for a commit SHA or branch name. BaseBranch is
// the repository's default branch, whose protection supplies the required checks.
func (c *Client) GetCommit(ctx context.Context, repoFullName string, ref string) (*model.Subject, error) {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return nil, err
	}

	commit, resp, err := c.gh.Repositories.GetCommit(ctx, owner, repo, ref, nil)
	if err != nil {
		return nil, fmt.Errorf("fetching commit %s@%s: %w", repoFullName, ref, err)
	}

	logRateLimit(resp, repoFullName+"/commit", 0, 1)

	repository, resp, err := c.gh.Repositories.Get(ctx, owner, repo)
	if err != nil {
		return nil, fmt.Errorf("fetching repository %s: %w", repoFullName, err)
	}

	logRateLimit(resp, repoFullName, 0, 1)

	title, _, _ := strings.Cut(commit.GetCommit().GetMessage(), "\n")

	return &model.Subject{
		Kind:       model.SubjectCommit,
		Repo:       repoFullName,
		Title:      title,
		URL:        commit.GetHTMLURL(),
		Author:     commit.GetAuthor().GetLogin(),
		HeadSHA:    commit.GetSHA(),
		BaseBranch: repository.GetDefaultBranch(),
	}, nil
}

// ListWorkflowRuns retrieves the GitHub Actions runs triggered for the
// Subject's head commit.
func (c *Client) ListWorkflowRuns(ctx context.Context, subject model.Subject) ([]model.WorkflowRun, error) {
	owner, repo, err := splitRepo(subject.Repo)
	if err != nil {
		return nil, err
	}

	opts := &gh.ListWorkflowRunsOptions{
		HeadSHA:     subject.HeadSHA,
		ListOptions: gh.ListOptions{PerPage: perPage},
	}

	var allRuns []model.WorkflowRun

	for pages := 1; ; pages++ {
		result, resp, err := c.gh.Actions.ListRepositoryWorkflowRuns(ctx, owner, repo, opts)
		if err != nil {
			return nil, fmt.Errorf("listing workflow runs for %s (page %d): %w", subject.Key(), opts.Page, err)
		}

		logRateLimit(resp, subject.Repo+"/actions/runs", opts.Page, len(result.WorkflowRuns))

		for _, run := range result.WorkflowRuns {
			allRuns = append(allRuns, mapWorkflowRun(run))
		}

		if !c.nextPage(resp, &opts.ListOptions, pages, subject.Repo+"/actions/runs") {
			break
		}
	}

	return allRuns, nil
}

// ListCheckRuns retrieves all check runs for the Subject's head commit.
func (c *Client) ListCheckRuns(ctx context.Context, subject model.Subject) ([]model.CheckRun, error) {
	owner, repo, err := splitRepo(subject.Repo)
	if err != nil {
		return nil, err
	}

	opts := &gh.ListCheckRunsOptions{
		ListOptions: gh.ListOptions{PerPage: perPage},
	}

	var allRuns []model.CheckRun

	for pages := 1; ; pages++ {
		result, resp, err := c.gh.Checks.ListCheckRunsForRef(ctx, owner, repo, subject.HeadSHA, opts)
		if err != nil {
			return nil, fmt.Errorf("listing check runs for %s (page %d): %w", subject.Key(), opts.Page, err)
		}

		logRateLimit(resp, subject.Repo+"/check-runs", opts.Page, len(result.CheckRuns))

		for _, cr := range result.CheckRuns {
			allRuns = append(allRuns, mapCheckRun(cr))
		}

		if !c.nextPage(resp, &opts.ListOptions, pages, subject.Repo+"/check-runs") {
			break
		}
	}

	return allRuns, nil
}

// ListCommitStatuses retrieves the legacy commit statuses for the Subject's
// head commit, newest first. A context may appear several times; callers keep
// the first occurrence.
func (c *Client) ListCommitStatuses(ctx context.Context, subject model.Subject) ([]model.CommitStatus, error) {
	owner, repo, err := splitRepo(subject.Repo)
	if err != nil {
		return nil, err
	}

	opts := &gh.ListOptions{PerPage: perPage}
	var allStatuses []model.CommitStatus

	for pages := 1; ; pages++ {
		statuses, resp, err := c.gh.Repositories.ListStatuses(ctx, owner, repo, subject.HeadSHA, opts)
		if err != nil {
			return nil, fmt.Errorf("listing commit statuses for %s (page %d): %w", subject.Key(), opts.Page, err)
		}

		logRateLimit(resp, subject.Repo+"/statuses", opts.Page, len(statuses))

		for _, s := range statuses {
			allStatuses = append(allStatuses, mapCommitStatus(s))
		}

		if !c.nextPage(resp, opts, pages, subject.Repo+"/statuses") {
			break
		}
	}

	return allStatuses, nil
}

// ListRequiredChecks returns the list of required status check contexts for
// the Subject's base branch. Returns nil, nil if the branch is not protected
// (404), if we lack permissions (403), or if the Subject has no base branch.
func (c *Client) ListRequiredChecks(ctx context.Context, subject model.Subject) ([]string, error) {
	if subject.BaseBranch == "" {
		return nil, nil
	}

	owner, repo, err := splitRepo(subject.Repo)
	if err != nil {
		return nil, err
	}

	checks, resp, err := c.gh.Repositories.GetRequiredStatusChecks(ctx, owner, repo, subject.BaseBranch)
	if err != nil {
		if resp != nil && (resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusForbidden) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetching required status checks for %s branch %s: %w", subject.Repo, subject.BaseBranch, err)
	}

	logRateLimit(resp, subject.Repo+"/required-checks", 0, 0)

	requiredContexts := checks.GetChecks()
	if requiredContexts == nil {
		return nil, nil
	}

	var contexts []string
	for _, check := range requiredContexts {
		contexts = append(contexts, check.Context)
	}

	return contexts, nil
}

// nextPage advances opts to the next page. It returns false on the last page
// or once the page bound is reached.
func (c *Client) nextPage(resp *gh.Response, opts *gh.ListOptions, pages int, endpoint string) bool {
	if resp == nil || resp.NextPage == 0 {
		return false
	}
	if pages >= c.maxPages {
		slog.Warn("page limit reached, results truncated",
			"endpoint", endpoint,
			"max_pages", c.maxPages,
		)
		return false
	}
	opts.Page = resp.NextPage
	return true
}

// logRateLimit logs the GitHub API rate limit status after each call.
func logRateLimit(resp *gh.Response, endpoint string, page, count int) {
	if resp == nil {
		return
	}

	slog.Debug("github api call",
		"endpoint", endpoint,
		"page", page,
		"count", count,
		"rate_remaining", resp.Rate.Remaining,
		"rate_limit", resp.Rate.Limit,
	)

	if resp.Rate.Limit > 0 && resp.Rate.Remaining < 100 {
		slog.Warn("github rate limit low",
			"remaining", resp.Rate.Remaining,
			"reset_in", time.Until(resp.Rate.Reset.Time).Round(time.Second),
		)
	}
}

// mapPullRequest converts a go-github PullRequest to a pull request Subject.
// It uses GetXxx() helper methods exclusively to avoid nil pointer panics.
func mapPullRequest(pr *gh.PullRequest, repoFullName string) model.Subject {
	return model.Subject{
		Kind:       model.SubjectPullRequest,
		Repo:       repoFullName,
		Number:     pr.GetNumber(),
		Title:      pr.GetTitle(),
		URL:        pr.GetHTMLURL(),
		Author:     pr.GetUser().GetLogin(),
		HeadSHA:    pr.GetHead().GetSHA(),
		BaseBranch: pr.GetBase().GetRef(),
		IsDraft:    pr.GetDraft(),
	}
}

// mapWorkflowRun converts a go-github WorkflowRun to a domain model WorkflowRun.
func mapWorkflowRun(run *gh.WorkflowRun) model.WorkflowRun {
	return model.WorkflowRun{
		Name:       run.GetName(),
		Status:     run.GetStatus(),
		Conclusion: run.GetConclusion(),
		Event:      run.GetEvent(),
		URL:        run.GetHTMLURL(),
		HeadSHA:    run.GetHeadSHA(),
		CreatedAt:  run.GetCreatedAt().Time,
	}
}

// mapCheckRun converts a go-github CheckRun to a domain model CheckRun.
func mapCheckRun(cr *gh.CheckRun) model.CheckRun {
	var startedAt time.Time
	if cr.StartedAt != nil {
		startedAt = cr.GetStartedAt().Time
	}

	return model.CheckRun{
		Name:       cr.GetName(),
		Status:     cr.GetStatus(),
		Conclusion: cr.GetConclusion(),
		URL:        cr.GetDetailsURL(),
		App:        cr.GetApp().GetName(),
		CreatedAt:  startedAt,
	}
}

// mapCommitStatus converts a go-github RepoStatus to a domain model CommitStatus.
func mapCommitStatus(s *gh.RepoStatus) model.CommitStatus {
	return model.CommitStatus{
		Context:     s.GetContext(),
		State:       s.GetState(),
		Description: s.GetDescription(),
		URL:         s.GetTargetURL(),
		CreatedAt:   s.GetCreatedAt().Time,
	}
}

// splitRepo splits a "owner/repo" string into its two components.
func splitRepo(fullName string) (string, string, error) {
	parts := strings.SplitN(fullName, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repo name %q: expected owner/repo: %w", fullName, model.ErrConfiguration)
	}
	return parts[0], parts[1], nil
}
