package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ericfisherdev/pendingchecks/internal/domain/model"
	"github.com/ericfisherdev/pendingchecks/internal/domain/port/driven"
)

// HistoryService records evaluation summaries and reads them back.
type HistoryService struct {
	store driven.HistoryStore
	now   func() time.Time
	newID func() string
}

// NewHistoryService creates a HistoryService backed by store.
func NewHistoryService(store driven.HistoryStore) *HistoryService {
	return &HistoryService{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
}

// Record stores a copy of summary for repo and returns the stored evaluation.
func (s *HistoryService) Record(ctx context.Context, repo string, strategy model.ApprovalStrategy, summary model.AggregateSummary) (model.Evaluation, error) {
	eval := model.Evaluation{
		ID:                  s.newID(),
		Repo:                repo,
		Strategy:            strategy,
		EvaluatedAt:         s.now(),
		TotalSubjects:       summary.TotalSubjects,
		SubjectsWithPending: summary.SubjectsWithPending,
		PendingCount:        summary.PendingCount,
		RunningCount:        summary.RunningCount,
		CompletedCount:      summary.CompletedCount,
		FailedSubjects:      summary.FailedSubjects,
	}

	subjects := make([]model.EvaluationSubject, 0, len(summary.Reports)+len(summary.Failures))
	for _, r := range summary.Reports {
		subjects = append(subjects, toEvaluationSubject(eval.ID, r))
	}
	for _, r := range summary.Failures {
		subjects = append(subjects, toEvaluationSubject(eval.ID, r))
	}

	if err := s.store.Record(ctx, eval, subjects); err != nil {
		return model.Evaluation{}, fmt.Errorf("record evaluation for %s: %w", repo, err)
	}

	return eval, nil
}

// Recent returns up to limit evaluations for repo, newest first.
func (s *HistoryService) Recent(ctx context.Context, repo string, limit int) ([]model.Evaluation, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.store.ListRecent(ctx, repo, limit)
}

// Subjects returns the subject rows of one evaluation.
func (s *HistoryService) Subjects(ctx context.Context, evaluationID string) ([]model.EvaluationSubject, error) {
	return s.store.SubjectsFor(ctx, evaluationID)
}

func toEvaluationSubject(evaluationID string, r model.SubjectReport) model.EvaluationSubject {
	names := make([]string, 0, len(r.Classification.Pending))
	for _, rec := range r.Classification.Pending {
		names = append(names, rec.Name)
	}

	return model.EvaluationSubject{
		EvaluationID: evaluationID,
		SubjectKey:   r.Subject.Key(),
		Title:        r.Subject.Title,
		CIStatus:     r.CIStatus,
		Pending:      len(r.Classification.Pending),
		Running:      len(r.Classification.Running),
		Completed:    len(r.Classification.Completed),
		PendingNames: names,
		Err:          r.Err,
	}
}
