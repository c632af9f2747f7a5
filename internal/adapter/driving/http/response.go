package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ericfisherdev/pendingchecks/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// EvaluationResponse is the JSON representation of a recorded evaluation.
type EvaluationResponse struct {
	ID                  string `json:"id"`
	Repo                string `json:"repo"`
	Strategy            string `json:"strategy"`
	EvaluatedAt         string `json:"evaluated_at"`
	TotalSubjects       int    `json:"total_subjects"`
	SubjectsWithPending int    `json:"subjects_with_pending"`
	PendingCount        int    `json:"pending_count"`
	RunningCount        int    `json:"running_count"`
	CompletedCount      int    `json:"completed_count"`
	FailedSubjects      int    `json:"failed_subjects"`
}

// EvaluationSubjectResponse is one Subject row of a recorded evaluation.
type EvaluationSubjectResponse struct {
	SubjectKey   string   `json:"subject"`
	Title        string   `json:"title"`
	CIStatus     string   `json:"ci_status"`
	Pending      int      `json:"pending"`
	Running      int      `json:"running"`
	Completed    int      `json:"completed"`
	PendingNames []string `json:"pending_names"`
	Error        string   `json:"error,omitempty"`
}

func toEvaluationResponse(e model.Evaluation) EvaluationResponse {
	return EvaluationResponse{
		ID:                  e.ID,
		Repo:                e.Repo,
		Strategy:            string(e.Strategy),
		EvaluatedAt:         e.EvaluatedAt.UTC().Format(time.RFC3339),
		TotalSubjects:       e.TotalSubjects,
		SubjectsWithPending: e.SubjectsWithPending,
		PendingCount:        e.PendingCount,
		RunningCount:        e.RunningCount,
		CompletedCount:      e.CompletedCount,
		FailedSubjects:      e.FailedSubjects,
	}
}

func toEvaluationSubjectResponse(s model.EvaluationSubject) EvaluationSubjectResponse {
	names := s.PendingNames
	if names == nil {
		names = []string{}
	}

	return EvaluationSubjectResponse{
		SubjectKey:   s.SubjectKey,
		Title:        s.Title,
		CIStatus:     string(s.CIStatus),
		Pending:      s.Pending,
		Running:      s.Running,
		Completed:    s.Completed,
		PendingNames: names,
		Error:        s.Err,
	}
}
