package model

import "time"

// Evaluation is a recorded copy of one AggregateSummary.
type Evaluation struct {
	ID                  string
	Repo                string
	Strategy            ApprovalStrategy
	EvaluatedAt         time.Time
	TotalSubjects       int
	SubjectsWithPending int
	PendingCount        int
	RunningCount        int
	CompletedCount      int
	FailedSubjects      int
}

// EvaluationSubject is the per-Subject row of a recorded Evaluation.
type EvaluationSubject struct {
	EvaluationID string
	SubjectKey   string
	Title        string
	CIStatus     CIStatus
	Pending      int
	Running      int
	Completed    int
	PendingNames []string
	Err          string
}
