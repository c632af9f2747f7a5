package model

import "time"

// WorkflowRun is one GitHub Actions workflow run reported for a Subject's head commit.
type WorkflowRun struct {
	Name       string
	Status     string // queued, in_progress, completed, waiting, requested, pending.
	Conclusion string
	Event      string // Triggering event, e.g. "pull_request".
	URL        string
	HeadSHA    string
	CreatedAt  time.Time
}

// CheckRun represents an individual CI/CD check run from the GitHub Checks API.
type CheckRun struct {
	Name       string    // Check run name (e.g., "build", "lint").
	Status     string    // queued, in_progress, completed, waiting, requested, pending.
	Conclusion string    // success, failure, neutral, cancelled, skipped, timed_out, action_required.
	URL        string    // URL to the check run details page.
	App        string    // Name of the GitHub App that created the check run.
	CreatedAt  time.Time // When the check run started.
}

// CommitStatus represents an individual status entry from the GitHub Status API.
type CommitStatus struct {
	Context     string // CI service identifier (e.g., "ci/circleci").
	State       string // success, failure, pending, error.
	Description string // Human-readable description of the status.
	URL         string // URL for more details on the status.
	CreatedAt   time.Time
}

// Feeds bundles the raw items of the four check feeds for one Subject. A nil
// slice means the feed returned nothing or failed.
type Feeds struct {
	WorkflowRuns   []WorkflowRun
	CheckRuns      []CheckRun
	CommitStatuses []CommitStatus
	RequiredChecks []string
}
