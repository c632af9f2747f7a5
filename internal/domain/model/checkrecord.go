package model

import "time"

// NoChecksName is the name of the sentinel record synthesized for a Subject
// on which CI has not reported anything yet.
const NoChecksName = "No checks detected"

// CheckRecord is the normalized shape of one observed check, workflow run,
// commit status or required-check gap.
type CheckRecord struct {
	Name        string
	Kind        CheckKind
	Status      CheckStatus
	Conclusion  string // Only meaningful when Status is completed.
	URL         string
	Description string
	Source      string // Workflow event or check run app; display only.
	Required    bool   // Name appears in the branch's required status checks.
	CreatedAt   time.Time
}

// NoChecksRecord returns the sentinel record.
func NoChecksRecord() CheckRecord {
	return CheckRecord{
		Name:        NoChecksName,
		Kind:        KindNoChecks,
		Status:      StatusPending,
		Description: "CI has not reported any checks for this subject yet",
	}
}

// ClassificationResult partitions a Subject's records into three disjoint buckets.
type ClassificationResult struct {
	Pending   []CheckRecord
	Running   []CheckRecord
	Completed []CheckRecord
}

// Total returns the number of classified records.
func (c ClassificationResult) Total() int {
	return len(c.Pending) + len(c.Running) + len(c.Completed)
}

// Outstanding reports whether anything is pending or running.
func (c ClassificationResult) Outstanding() bool {
	return len(c.Pending) > 0 || len(c.Running) > 0
}
