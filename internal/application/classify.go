package application

import "github.com/ericfisherdev/pendingchecks/internal/domain/model"

// Classifier assigns CheckRecords to the Pending, Running or Completed bucket.
type Classifier struct {
	Strategy model.ApprovalStrategy
}

// NewClassifier returns a Classifier for the given strategy. An empty
// strategy selects StrategyGeneric.
func NewClassifier(strategy model.ApprovalStrategy) Classifier {
	if strategy == "" {
		strategy = model.StrategyGeneric
	}
	return Classifier{Strategy: strategy}
}

// Classify returns the bucket for a single record. Unrecognized statuses are
// Completed so that no record is ever dropped.
func (c Classifier) Classify(r model.CheckRecord) model.Bucket {
	switch r.Status {
	case model.StatusQueued, model.StatusPending, model.StatusWaiting, model.StatusRequested, model.StatusMissing:
		return model.BucketPending
	case model.StatusInProgress:
		return model.BucketRunning
	case model.StatusCompleted:
		if c.Strategy == model.StrategyApproval && r.Conclusion == model.ConclusionActionRequired {
			return model.BucketPending
		}
		return model.BucketCompleted
	default:
		return model.BucketCompleted
	}
}

// ClassifyRecords partitions records into buckets, preserving order within
// each bucket. An empty input yields a single Pending sentinel record.
func (c Classifier) ClassifyRecords(records []model.CheckRecord) model.ClassificationResult {
	if len(records) == 0 {
		return model.ClassificationResult{Pending: []model.CheckRecord{model.NoChecksRecord()}}
	}

	var result model.ClassificationResult
	for _, r := range records {
		switch c.Classify(r) {
		case model.BucketPending:
			result.Pending = append(result.Pending, r)
		case model.BucketRunning:
			result.Running = append(result.Running, r)
		default:
			result.Completed = append(result.Completed, r)
		}
	}
	return result
}

// AwaitingApproval reports whether a record is blocked on a manual approval:
// a waiting workflow run or a completed check asking for action.
func AwaitingApproval(r model.CheckRecord) bool {
	return r.Status == model.StatusWaiting ||
		(r.Status == model.StatusCompleted && r.Conclusion == model.ConclusionActionRequired)
}

// NeedsApproval selects what the approvals view shows: records awaiting
// approval and required checks that have not reported.
func NeedsApproval(r model.CheckRecord) bool {
	return AwaitingApproval(r) || (r.Kind == model.KindRequiredCheck && r.Status == model.StatusMissing)
}
