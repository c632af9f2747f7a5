package application

import "github.com/ericfisherdev/pendingchecks/internal/domain/model"

// computeCIStatus collapses a classification into a single CIStatus.
// Priority: failing > pending > passing > unknown. The no-checks sentinel
// counts as unknown.
func computeCIStatus(c model.ClassificationResult) model.CIStatus {
	if c.Total() == 0 || (c.Total() == 1 && len(c.Pending) == 1 && c.Pending[0].Kind == model.KindNoChecks) {
		return model.CIStatusUnknown
	}

	var hasFailing bool
	for _, r := range c.Completed {
		if isFailing(r) {
			hasFailing = true
			break
		}
	}

	if hasFailing {
		return model.CIStatusFailing
	}
	if c.Outstanding() {
		return model.CIStatusPending
	}
	return model.CIStatusPassing
}

// isFailing reports whether a completed record represents a failure.
// action_required only reaches the completed bucket under the generic
// strategy, where it blocks the run like a failure. The approval strategy
// classifies it as pending, so the status is pending there.
func isFailing(r model.CheckRecord) bool {
	switch r.Status {
	case model.StatusFailure, model.StatusError:
		return true
	case model.StatusCompleted:
		switch r.Conclusion {
		case model.ConclusionFailure, model.ConclusionCancelled, "canceled", model.ConclusionTimedOut, model.ConclusionActionRequired: //nolint:misspell // GitHub API uses both spellings.
			return true
		}
	}
	return false
}
