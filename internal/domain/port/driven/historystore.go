package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/pendingchecks/internal/domain/model"
)

// ErrEvaluationNotFound indicates the requested evaluation does not exist.
var ErrEvaluationNotFound = errors.New("evaluation not found")

// HistoryStore defines the driven port for recording evaluations.
type HistoryStore interface {
	// Record stores the evaluation and its subjects atomically.
	Record(ctx context.Context, eval model.Evaluation, subjects []model.EvaluationSubject) error
	// ListRecent returns the most recent evaluations for repo, newest first.
	// An empty repo matches all repositories.
	ListRecent(ctx context.Context, repo string, limit int) ([]model.Evaluation, error)
	// SubjectsFor returns the subject rows of an evaluation, ordered by subject key.
	SubjectsFor(ctx context.Context, evaluationID string) ([]model.EvaluationSubject, error)
}
