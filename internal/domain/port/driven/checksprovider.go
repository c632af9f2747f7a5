package driven

import (
	"context"

	"github.com/ericfisherdev/pendingchecks/internal/domain/model"
)

// ChecksProvider defines the driven port for reading check state from the
// hosting platform. Each feed method may fail independently.
type ChecksProvider interface {
	// Subject resolution

	// GetPullRequest returns the Subject for a single pull request.
	GetPullRequest(ctx context.Context, repoFullName string, number int) (*model.Subject, error)
	// ListOpenPullRequests returns a Subject for every open pull request.
	ListOpenPullRequests(ctx context.Context, repoFullName string) ([]model.Subject, error)
	// GetCommit returns the Subject for a commit SHA or branch name. BaseBranch
	// is set to the repository's default branch.
	GetCommit(ctx context.Context, repoFullName string, ref string) (*model.Subject, error)

	// Check feeds

	ListWorkflowRuns(ctx context.Context, subject model.Subject) ([]model.WorkflowRun, error)
	ListCheckRuns(ctx context.Context, subject model.Subject) ([]model.CheckRun, error)
	ListCommitStatuses(ctx context.Context, subject model.Subject) ([]model.CommitStatus, error)
	// ListRequiredChecks returns the required status check contexts of the
	// Subject's base branch. Returns nil if the branch is unprotected.
	ListRequiredChecks(ctx context.Context, subject model.Subject) ([]string, error)
}
