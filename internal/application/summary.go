package application

import "github.com/ericfisherdev/pendingchecks/internal/domain/model"

// BuildSummary computes aggregate counts over reports. Failed reports are kept
// in Failures and excluded from every count except FailedSubjects.
func BuildSummary(reports []model.SubjectReport) model.AggregateSummary {
	var summary model.AggregateSummary

	for _, r := range reports {
		if r.Failed() {
			summary.Failures = append(summary.Failures, r)
			summary.FailedSubjects++
			continue
		}

		summary.Reports = append(summary.Reports, r)
		summary.TotalSubjects++
		summary.PendingCount += len(r.Classification.Pending)
		summary.RunningCount += len(r.Classification.Running)
		summary.CompletedCount += len(r.Classification.Completed)
		if len(r.Classification.Pending) > 0 {
			summary.SubjectsWithPending++
		}
	}

	return summary
}
