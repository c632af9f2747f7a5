package model

// CheckKind identifies which feed a CheckRecord originated from.
type CheckKind string

const (
	KindWorkflowRun   CheckKind = "workflow_run"
	KindCheckRun      CheckKind = "check_run"
	KindCommitStatus  CheckKind = "commit_status"
	KindRequiredCheck CheckKind = "required_check"
	KindNoChecks      CheckKind = "no_checks" // Synthesized when no feed reported anything.
)

// kindOrder is the display order of kinds within a Subject.
var kindOrder = map[CheckKind]int{
	KindWorkflowRun:   0,
	KindCheckRun:      1,
	KindCommitStatus:  2,
	KindRequiredCheck: 3,
	KindNoChecks:      4,
}

// Rank returns the display position of the kind. Unknown kinds sort last.
func (k CheckKind) Rank() int {
	if r, ok := kindOrder[k]; ok {
		return r
	}
	return len(kindOrder)
}

// CheckStatus is the provider-reported status of a check, workflow run or
// commit status. Values outside the declared constants are kept verbatim.
type CheckStatus string

const (
	StatusQueued     CheckStatus = "queued"
	StatusPending    CheckStatus = "pending"
	StatusWaiting    CheckStatus = "waiting"
	StatusRequested  CheckStatus = "requested"
	StatusMissing    CheckStatus = "missing"
	StatusInProgress CheckStatus = "in_progress"
	StatusCompleted  CheckStatus = "completed"

	// Commit status states reported by the legacy Status API.
	StatusSuccess CheckStatus = "success"
	StatusFailure CheckStatus = "failure"
	StatusError   CheckStatus = "error"
)

// Known reports whether s is one of the declared status constants.
func (s CheckStatus) Known() bool {
	switch s {
	case StatusQueued, StatusPending, StatusWaiting, StatusRequested, StatusMissing,
		StatusInProgress, StatusCompleted, StatusSuccess, StatusFailure, StatusError:
		return true
	}
	return false
}

// Conclusion values a completed check may carry.
const (
	ConclusionSuccess        = "success"
	ConclusionFailure        = "failure"
	ConclusionNeutral        = "neutral"
	ConclusionCancelled      = "cancelled" //nolint:misspell // GitHub API spelling.
	ConclusionSkipped        = "skipped"
	ConclusionTimedOut       = "timed_out"
	ConclusionActionRequired = "action_required"
)

// Bucket is one of the three disjoint classification outcomes.
type Bucket string

const (
	BucketPending   Bucket = "pending"
	BucketRunning   Bucket = "running"
	BucketCompleted Bucket = "completed"
)

// ApprovalStrategy selects how a completed record with an action_required
// conclusion is classified.
type ApprovalStrategy string

const (
	// StrategyGeneric leaves action_required records in the Completed bucket.
	StrategyGeneric ApprovalStrategy = "generic"
	// StrategyApproval treats action_required records as Pending, awaiting a
	// manual approval.
	StrategyApproval ApprovalStrategy = "approval"
)

// Valid reports whether s is a supported strategy.
func (s ApprovalStrategy) Valid() bool {
	return s == StrategyGeneric || s == StrategyApproval
}

// CIStatus represents the overall CI state of a Subject.
type CIStatus string

const (
	CIStatusPassing CIStatus = "passing"
	CIStatusFailing CIStatus = "failing"
	CIStatusPending CIStatus = "pending"
	CIStatusUnknown CIStatus = "unknown"
)

// SubjectKind distinguishes pull requests from bare commits.
type SubjectKind string

const (
	SubjectPullRequest SubjectKind = "pull_request"
	SubjectCommit      SubjectKind = "commit"
)
