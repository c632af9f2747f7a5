package httphandler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/ericfisherdev/pendingchecks/internal/application"
	"github.com/ericfisherdev/pendingchecks/internal/domain/model"
)

// ParseQuery reads the Subject selection from the request's query string:
// pr and commit (repeatable or comma-separated), author, drafts=false and
// strategy.
func ParseQuery(r *http.Request, repoFullName string) (application.SubjectQuery, model.ApprovalStrategy, error) {
	values := r.URL.Query()

	if err := application.ValidateRepo(repoFullName); err != nil {
		return application.SubjectQuery{}, "", err
	}

	q := application.SubjectQuery{
		Repo:    repoFullName,
		Author:  values.Get("author"),
		Commits: splitValues(values["commit"]),
	}

	for _, v := range splitValues(values["pr"]) {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return application.SubjectQuery{}, "", fmt.Errorf("invalid pr %q", v)
		}
		q.PRNumbers = append(q.PRNumbers, n)
	}

	if v := values.Get("drafts"); v != "" {
		include, err := strconv.ParseBool(v)
		if err != nil {
			return application.SubjectQuery{}, "", fmt.Errorf("invalid drafts %q", v)
		}
		q.ExcludeDrafts = !include
	}

	strategy := model.ApprovalStrategy(values.Get("strategy"))
	if strategy != "" && !strategy.Valid() {
		return application.SubjectQuery{}, "", fmt.Errorf("invalid strategy %q: want generic or approval", strategy)
	}

	return q, strategy, nil
}

// Evaluate runs q with the strategy's evaluator. On error it also returns the
// HTTP status to answer with: 400 for configuration errors, 502 otherwise.
func Evaluate(r *http.Request, evaluators EvaluatorSource, q application.SubjectQuery, strategy model.ApprovalStrategy) (model.AggregateSummary, int, error) {
	evaluator, err := evaluators.For(strategy)
	if err != nil {
		return model.AggregateSummary{}, http.StatusBadRequest, err
	}

	summary, err := evaluator.Evaluate(r.Context(), q)
	if err != nil {
		if errors.Is(err, model.ErrConfiguration) {
			return model.AggregateSummary{}, http.StatusBadRequest, err
		}
		return model.AggregateSummary{}, http.StatusBadGateway, err
	}

	return summary, http.StatusOK, nil
}

func splitValues(raw []string) []string {
	var out []string
	for _, v := range raw {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
