package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ericfisherdev/pendingchecks/internal/domain/model"
	"github.com/ericfisherdev/pendingchecks/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.HistoryStore = (*HistoryRepo)(nil)

// timeLayout is fixed-width so evaluated_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// HistoryRepo is the SQLite implementation of the HistoryStore port interface.
type HistoryRepo struct {
	db *DB
}

// NewHistoryRepo creates a new HistoryRepo backed by the given DB.
func NewHistoryRepo(db *DB) *HistoryRepo {
	return &HistoryRepo{db: db}
}

// Record inserts an evaluation and its subject rows in a single transaction.
func (r *HistoryRepo) Record(ctx context.Context, eval model.Evaluation, subjects []model.EvaluationSubject) error {
	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback after commit is a no-op.

	const evalQuery = `
		INSERT INTO evaluations (
			id, repo, strategy, evaluated_at, total_subjects, subjects_with_pending,
			pending_count, running_count, completed_count, failed_subjects
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	if _, err := tx.ExecContext(ctx, evalQuery,
		eval.ID, eval.Repo, string(eval.Strategy), formatTime(eval.EvaluatedAt),
		eval.TotalSubjects, eval.SubjectsWithPending,
		eval.PendingCount, eval.RunningCount, eval.CompletedCount, eval.FailedSubjects,
	); err != nil {
		return fmt.Errorf("insert evaluation %s: %w", eval.ID, err)
	}

	const subjectQuery = `
		INSERT INTO evaluation_subjects (
			evaluation_id, subject_key, title, ci_status, pending, running, completed, pending_names, error
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	for _, s := range subjects {
		names := s.PendingNames
		if names == nil {
			names = []string{}
		}
		namesJSON, err := json.Marshal(names)
		if err != nil {
			return fmt.Errorf("encode pending names for %s: %w", s.SubjectKey, err)
		}

		if _, err := tx.ExecContext(ctx, subjectQuery,
			eval.ID, s.SubjectKey, s.Title, string(s.CIStatus),
			s.Pending, s.Running, s.Completed, string(namesJSON), s.Err,
		); err != nil {
			return fmt.Errorf("insert subject %s for evaluation %s: %w", s.SubjectKey, eval.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit evaluation %s: %w", eval.ID, err)
	}

	return nil
}

// ListRecent returns up to limit evaluations, newest first. An empty repo
// matches every repository.
func (r *HistoryRepo) ListRecent(ctx context.Context, repo string, limit int) ([]model.Evaluation, error) {
	const query = `
		SELECT id, repo, strategy, evaluated_at, total_subjects, subjects_with_pending,
		       pending_count, running_count, completed_count, failed_subjects
		FROM evaluations
		WHERE (? = '' OR repo = ?)
		ORDER BY evaluated_at DESC, id
		LIMIT ?
	`

	rows, err := r.db.Reader.QueryContext(ctx, query, repo, repo, limit)
	if err != nil {
		return nil, fmt.Errorf("query evaluations for %q: %w", repo, err)
	}
	defer rows.Close()

	evals := []model.Evaluation{}
	for rows.Next() {
		eval, err := scanEvaluation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan evaluation: %w", err)
		}
		evals = append(evals, *eval)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate evaluations: %w", err)
	}

	return evals, nil
}

// SubjectsFor returns the subject rows of an evaluation ordered by subject
// key. Returns driven.ErrEvaluationNotFound if the evaluation does not exist.
func (r *HistoryRepo) SubjectsFor(ctx context.Context, evaluationID string) ([]model.EvaluationSubject, error) {
	var exists int
	err := r.db.Reader.QueryRowContext(ctx, `SELECT 1 FROM evaluations WHERE id = ?`, evaluationID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("evaluation %s: %w", evaluationID, driven.ErrEvaluationNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query evaluation %s: %w", evaluationID, err)
	}

	const query = `
		SELECT evaluation_id, subject_key, title, ci_status, pending, running, completed, pending_names, error
		FROM evaluation_subjects
		WHERE evaluation_id = ?
		ORDER BY subject_key, id
	`

	rows, err := r.db.Reader.QueryContext(ctx, query, evaluationID)
	if err != nil {
		return nil, fmt.Errorf("query subjects for evaluation %s: %w", evaluationID, err)
	}
	defer rows.Close()

	subjects := []model.EvaluationSubject{}
	for rows.Next() {
		s, err := scanEvaluationSubject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan evaluation subject: %w", err)
		}
		subjects = append(subjects, *s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate evaluation subjects: %w", err)
	}

	return subjects, nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanEvaluation(s scanner) (*model.Evaluation, error) {
	var eval model.Evaluation
	var strategy, evaluatedAt string

	err := s.Scan(
		&eval.ID, &eval.Repo, &strategy, &evaluatedAt,
		&eval.TotalSubjects, &eval.SubjectsWithPending,
		&eval.PendingCount, &eval.RunningCount, &eval.CompletedCount, &eval.FailedSubjects,
	)
	if err != nil {
		return nil, err
	}

	eval.Strategy = model.ApprovalStrategy(strategy)
	eval.EvaluatedAt, err = parseTime(evaluatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse evaluated_at: %w", err)
	}

	return &eval, nil
}

func scanEvaluationSubject(s scanner) (*model.EvaluationSubject, error) {
	var es model.EvaluationSubject
	var ciStatus, namesJSON string

	err := s.Scan(
		&es.EvaluationID, &es.SubjectKey, &es.Title, &ciStatus,
		&es.Pending, &es.Running, &es.Completed, &namesJSON, &es.Err,
	)
	if err != nil {
		return nil, err
	}

	es.CIStatus = model.CIStatus(ciStatus)
	if err := json.Unmarshal([]byte(namesJSON), &es.PendingNames); err != nil {
		return nil, fmt.Errorf("decode pending_names: %w", err)
	}

	return &es, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime accepts the stored layout plus the formats SQLite's own
// datetime functions produce.
func parseTime(s string) (time.Time, error) {
	formats := []string{
		timeLayout,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05Z",
		time.RFC3339Nano,
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized time format: %s", s)
}
