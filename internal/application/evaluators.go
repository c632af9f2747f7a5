package application

import (
	"fmt"

	"github.com/ericfisherdev/pendingchecks/internal/domain/model"
	"github.com/ericfisherdev/pendingchecks/internal/domain/port/driven"
)

// Evaluators holds one Evaluator per approval strategy so request-driven
// adapters can pick a strategy per call.
type Evaluators struct {
	byStrategy map[model.ApprovalStrategy]Evaluator
	fallback   model.ApprovalStrategy
}

// NewEvaluators builds a CheckService for each strategy. opts.Strategy is the
// strategy used when a caller does not name one.
func NewEvaluators(provider driven.ChecksProvider, opts CheckOptions) *Evaluators {
	fallback := opts.Strategy
	if fallback == "" {
		fallback = model.StrategyGeneric
	}

	byStrategy := make(map[model.ApprovalStrategy]Evaluator, 2)
	for _, strategy := range []model.ApprovalStrategy{model.StrategyGeneric, model.StrategyApproval} {
		o := opts
		o.Strategy = strategy
		byStrategy[strategy] = NewCheckService(provider, o)
	}

	return &Evaluators{byStrategy: byStrategy, fallback: fallback}
}

// For returns the Evaluator for strategy. An empty strategy selects the
// configured default.
func (e *Evaluators) For(strategy model.ApprovalStrategy) (Evaluator, error) {
	if strategy == "" {
		strategy = e.fallback
	}
	ev, ok := e.byStrategy[strategy]
	if !ok {
		return nil, fmt.Errorf("unknown approval strategy %q: %w", strategy, model.ErrConfiguration)
	}
	return ev, nil
}
