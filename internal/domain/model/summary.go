package model

// SubjectReport is the evaluated state of one Subject.
type SubjectReport struct {
	Subject        Subject
	Classification ClassificationResult
	CIStatus       CIStatus
	Warnings       []string // Feed failures that were tolerated.
	Err            string   // Non-empty when the Subject could not be evaluated.
}

// Failed reports whether the Subject could not be evaluated.
func (r SubjectReport) Failed() bool {
	return r.Err != ""
}

// AggregateSummary holds counts across all successfully evaluated Subjects
// plus the per-Subject detail consumed by renderers.
type AggregateSummary struct {
	TotalSubjects       int
	SubjectsWithPending int
	PendingCount        int
	RunningCount        int
	CompletedCount      int
	FailedSubjects      int

	Reports  []SubjectReport // Successfully evaluated, in request order.
	Failures []SubjectReport // Subjects whose evaluation failed.
}

// Outstanding reports whether any Subject has pending or running records.
func (s AggregateSummary) Outstanding() bool {
	return s.PendingCount > 0 || s.RunningCount > 0
}
