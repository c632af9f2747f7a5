package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/ericfisherdev/pendingchecks/internal/domain/model"
)

// Evaluator is the subset of CheckService the watch loop depends on.
type Evaluator interface {
	Evaluate(ctx context.Context, q SubjectQuery) (model.AggregateSummary, error)
}

// CycleFunc receives the summary of every watch cycle.
type CycleFunc func(cycle int, summary model.AggregateSummary) error

// WatchService re-evaluates a query on an interval until nothing is pending
// or running.
type WatchService struct {
	evaluator Evaluator
	interval  time.Duration
	keep      func(model.CheckRecord) bool
}

// NewWatchService creates a WatchService polling at the given interval.
// When keep is non-nil, only pending or running records it selects keep the
// loop going.
func NewWatchService(evaluator Evaluator, interval time.Duration, keep func(model.CheckRecord) bool) *WatchService {
	return &WatchService{
		evaluator: evaluator,
		interval:  interval,
		keep:      keep,
	}
}

// HasOutstanding reports whether any pending or running record passes keep.
// A nil keep selects every record.
func HasOutstanding(summary model.AggregateSummary, keep func(model.CheckRecord) bool) bool {
	if keep == nil {
		return summary.Outstanding()
	}
	for _, r := range summary.Reports {
		for _, records := range [][]model.CheckRecord{r.Classification.Pending, r.Classification.Running} {
			for _, rec := range records {
				if keep(rec) {
					return true
				}
			}
		}
	}
	return false
}

// Run evaluates immediately, then on every tick, calling onCycle with each
// summary. It returns the last summary once no Subject has outstanding checks,
// or the context error when ctx is canceled first. A cycle interrupted by
// cancellation is discarded without calling onCycle, so the returned summary
// is the last complete one (zero if none completed). Evaluation and callback
// errors end the loop.
func (s *WatchService) Run(ctx context.Context, q SubjectQuery, onCycle CycleFunc) (model.AggregateSummary, error) {
	cycle := 1
	summary, done, err := s.runCycle(ctx, q, cycle, onCycle)
	if err != nil || done {
		return summary, err
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("watch stopped", "cycles", cycle)
			return summary, ctx.Err()
		case <-ticker.C:
			cycle++
			var next model.AggregateSummary
			next, done, err = s.runCycle(ctx, q, cycle, onCycle)
			if err != nil {
				return summary, err
			}
			summary = next
			if done {
				return summary, nil
			}
		}
	}
}

func (s *WatchService) runCycle(ctx context.Context, q SubjectQuery, cycle int, onCycle CycleFunc) (model.AggregateSummary, bool, error) {
	summary, err := s.evaluator.Evaluate(ctx, q)
	if err != nil {
		return summary, false, err
	}
	// Subjects fail individually when ctx is canceled mid-evaluation.
	if err := ctx.Err(); err != nil {
		return model.AggregateSummary{}, false, err
	}

	if onCycle != nil {
		if err := onCycle(cycle, summary); err != nil {
			return summary, false, err
		}
	}

	done := !HasOutstanding(summary, s.keep)
	slog.Debug("watch cycle complete",
		"cycle", cycle,
		"pending", summary.PendingCount,
		"running", summary.RunningCount,
		"done", done,
	)

	return summary, done, nil
}
