// Package application contains use-case orchestration services.
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ericfisherdev/pendingchecks/internal/domain/model"
	"github.com/ericfisherdev/pendingchecks/internal/domain/port/driven"
)

// DefaultConcurrency is the number of Subjects evaluated in parallel when
// CheckOptions.Concurrency is not set.
const DefaultConcurrency = 4

// SubjectQuery selects the Subjects to evaluate. When neither PRNumbers nor
// Commits is set, every open pull request of Repo is evaluated.
type SubjectQuery struct {
	Repo          string
	PRNumbers     []int
	Commits       []string
	Author        string // Only pull requests opened by this login.
	ExcludeDrafts bool
}

// CheckOptions configures a CheckService.
type CheckOptions struct {
	Strategy     model.ApprovalStrategy
	IgnoreChecks []string
	Concurrency  int
}

// CheckService resolves Subjects, fetches their check feeds through the
// ChecksProvider and runs the classification pipeline over each one.
type CheckService struct {
	provider    driven.ChecksProvider
	classifier  Classifier
	ignore      []string
	concurrency int
}

// NewCheckService creates a CheckService with the given provider and options.
func NewCheckService(provider driven.ChecksProvider, opts CheckOptions) *CheckService {
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	return &CheckService{
		provider:    provider,
		classifier:  NewClassifier(opts.Strategy),
		ignore:      opts.IgnoreChecks,
		concurrency: concurrency,
	}
}

// Strategy returns the approval strategy the service classifies with.
func (s *CheckService) Strategy() model.ApprovalStrategy {
	return s.classifier.Strategy
}

// Evaluate resolves the Subjects selected by q and evaluates each of them.
// Per-Subject failures are reported in the summary; only configuration
// errors and a failed pull request listing abort the call.
func (s *CheckService) Evaluate(ctx context.Context, q SubjectQuery) (model.AggregateSummary, error) {
	start := time.Now()

	subjects, failures, err := s.ResolveSubjects(ctx, q)
	if err != nil {
		return model.AggregateSummary{}, err
	}

	reports := append(s.EvaluateSubjects(ctx, subjects), failures...)
	summary := BuildSummary(reports)

	slog.Info("evaluation complete",
		"repo", q.Repo,
		"subjects", summary.TotalSubjects,
		"with_pending", summary.SubjectsWithPending,
		"failed", summary.FailedSubjects,
		"duration", time.Since(start).Round(time.Millisecond),
	)

	return summary, nil
}

// ResolveSubjects turns q into concrete Subjects. Explicitly requested pull
// requests or commits that cannot be fetched are returned as failed reports.
func (s *CheckService) ResolveSubjects(ctx context.Context, q SubjectQuery) ([]model.Subject, []model.SubjectReport, error) {
	if err := ValidateRepo(q.Repo); err != nil {
		return nil, nil, err
	}

	if len(q.PRNumbers) == 0 && len(q.Commits) == 0 {
		prs, err := s.provider.ListOpenPullRequests(ctx, q.Repo)
		if err != nil {
			return nil, nil, fmt.Errorf("listing open pull requests for %s: %w", q.Repo, err)
		}
		return filterPullRequests(prs, q), nil, nil
	}

	var subjects []model.Subject
	var failures []model.SubjectReport

	for _, number := range q.PRNumbers {
		if number <= 0 {
			return nil, nil, fmt.Errorf("invalid pull request number %d: %w", number, model.ErrConfiguration)
		}

		pr, err := s.provider.GetPullRequest(ctx, q.Repo, number)
		if err != nil {
			subject := model.Subject{Kind: model.SubjectPullRequest, Repo: q.Repo, Number: number}
			slog.Warn("pull request lookup failed", "subject", subject.Key(), "error", err)
			failures = append(failures, model.SubjectReport{Subject: subject, CIStatus: model.CIStatusUnknown, Err: err.Error()})
			continue
		}
		subjects = append(subjects, *pr)
	}

	for _, ref := range q.Commits {
		if strings.TrimSpace(ref) == "" {
			return nil, nil, fmt.Errorf("empty commit reference: %w", model.ErrConfiguration)
		}

		commit, err := s.provider.GetCommit(ctx, q.Repo, ref)
		if err != nil {
			subject := model.Subject{Kind: model.SubjectCommit, Repo: q.Repo, HeadSHA: ref}
			slog.Warn("commit lookup failed", "subject", subject.Key(), "error", err)
			failures = append(failures, model.SubjectReport{Subject: subject, CIStatus: model.CIStatusUnknown, Err: err.Error()})
			continue
		}
		subjects = append(subjects, *commit)
	}

	return subjects, failures, nil
}

// filterPullRequests applies the author and draft filters of q.
func filterPullRequests(prs []model.Subject, q SubjectQuery) []model.Subject {
	out := make([]model.Subject, 0, len(prs))
	for _, pr := range prs {
		if q.Author != "" && !strings.EqualFold(pr.Author, q.Author) {
			continue
		}
		if q.ExcludeDrafts && pr.IsDraft {
			continue
		}
		out = append(out, pr)
	}
	return out
}

// EvaluateSubjects evaluates every Subject with bounded parallelism. The
// returned reports are in the same order as subjects. Each goroutine writes
// only its own slot.
func (s *CheckService) EvaluateSubjects(ctx context.Context, subjects []model.Subject) []model.SubjectReport {
	reports := make([]model.SubjectReport, len(subjects))

	var g errgroup.Group
	g.SetLimit(s.concurrency)

	for i, subject := range subjects {
		g.Go(func() error {
			reports[i] = s.evaluateSubject(ctx, subject)
			return nil
		})
	}
	_ = g.Wait() // Goroutines never return errors; failures live in the reports.

	return reports
}

// evaluateSubject fetches all feeds for one Subject and classifies them.
func (s *CheckService) evaluateSubject(ctx context.Context, subject model.Subject) model.SubjectReport {
	if err := ctx.Err(); err != nil {
		return model.SubjectReport{Subject: subject, CIStatus: model.CIStatusUnknown, Err: err.Error()}
	}

	feeds, feedErrs := s.fetchFeeds(ctx, subject)

	report := model.SubjectReport{Subject: subject}
	for _, err := range feedErrs {
		report.Warnings = append(report.Warnings, err.Error())
	}

	if len(feedErrs) == feedCount {
		report.CIStatus = model.CIStatusUnknown
		report.Err = fmt.Sprintf("all check feeds failed: %v", errors.Join(feedErrs...))
		return report
	}

	report.Classification = Evaluate(feeds, s.classifier, s.ignore)
	report.CIStatus = computeCIStatus(report.Classification)

	slog.Debug("subject evaluated",
		"subject", subject.Key(),
		"pending", len(report.Classification.Pending),
		"running", len(report.Classification.Running),
		"completed", len(report.Classification.Completed),
		"ci_status", string(report.CIStatus),
	)

	return report
}

// feedCount is the number of check feeds fetched per Subject.
const feedCount = 4

// fetchFeeds fetches the four check feeds for a Subject. Each fetch step is
// independent -- a failed feed is logged, left empty and returned as a FeedError.
func (s *CheckService) fetchFeeds(ctx context.Context, subject model.Subject) (model.Feeds, []error) {
	var feeds model.Feeds
	var errs []error
	key := subject.Key()

	fail := func(feed string, err error) {
		fe := &FeedError{Feed: feed, Subject: key, Err: err}
		slog.Warn("check feed fetch failed", "subject", key, "feed", feed, "error", err)
		errs = append(errs, fe)
	}

	runs, err := s.provider.ListWorkflowRuns(ctx, subject)
	if err != nil {
		fail(FeedWorkflowRuns, err)
	} else {
		feeds.WorkflowRuns = runs
	}

	checkRuns, err := s.provider.ListCheckRuns(ctx, subject)
	if err != nil {
		fail(FeedCheckRuns, err)
	} else {
		feeds.CheckRuns = checkRuns
	}

	statuses, err := s.provider.ListCommitStatuses(ctx, subject)
	if err != nil {
		fail(FeedCommitStatuses, err)
	} else {
		feeds.CommitStatuses = statuses
	}

	required, err := s.provider.ListRequiredChecks(ctx, subject)
	if err != nil {
		fail(FeedRequiredChecks, err)
	} else {
		feeds.RequiredChecks = required
	}

	return feeds, errs
}
