// Package httphandler implements the REST API driving adapter.
package httphandler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/ericfisherdev/pendingchecks/internal/application"
	"github.com/ericfisherdev/pendingchecks/internal/domain/model"
	"github.com/ericfisherdev/pendingchecks/internal/domain/port/driven"
	"github.com/ericfisherdev/pendingchecks/internal/render"
)

// EvaluatorSource returns the Evaluator for an approval strategy.
// Implemented by *application.Evaluators.
type EvaluatorSource interface {
	For(strategy model.ApprovalStrategy) (application.Evaluator, error)
}

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	evaluators EvaluatorSource
	history    *application.HistoryService
	record     bool
	logger     *slog.Logger
}

// NewHandler creates a Handler. history may be nil, which disables the
// history endpoints; record stores every evaluation served when history is set.
func NewHandler(
	evaluators EvaluatorSource,
	history *application.HistoryService,
	record bool,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		evaluators: evaluators,
		history:    history,
		record:     record && history != nil,
		logger:     logger,
	}
}

// RegisterAPIRoutes registers all REST API routes on the provided mux.
func RegisterAPIRoutes(mux *http.ServeMux, h *Handler) {
	mux.HandleFunc("GET /api/v1/health", h.Health)
	mux.HandleFunc("GET /api/v1/repos/{owner}/{repo}/pending", h.Pending)
	mux.HandleFunc("GET /api/v1/history", h.ListHistory)
	mux.HandleFunc("GET /api/v1/history/{id}", h.GetHistory)
}

// NewServeMux creates an http.Handler with the API routes registered and
// wrapped with middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	RegisterAPIRoutes(mux, h)
	return ApplyMiddleware(mux, logger)
}

// Pending evaluates the repository's open pull requests (or the pull requests
// and commits named in the query) and returns the structured documents.
func (h *Handler) Pending(w http.ResponseWriter, r *http.Request) {
	repoFullName := r.PathValue("owner") + "/" + r.PathValue("repo")

	q, strategy, err := ParseQuery(r, repoFullName)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	summary, status, err := Evaluate(r, h.evaluators, q, strategy)
	if err != nil {
		if status == http.StatusBadRequest {
			writeError(w, status, err.Error())
			return
		}
		h.logger.Error("failed to evaluate checks", "repo", repoFullName, "error", err)
		writeError(w, status, "failed to fetch checks from github")
		return
	}

	if h.record {
		if _, err := h.history.Record(r.Context(), repoFullName, strategy, summary); err != nil {
			h.logger.Warn("failed to record evaluation", "repo", repoFullName, "error", err)
		}
	}

	writeJSON(w, http.StatusOK, render.Documents(summary))
}

// ListHistory returns recent recorded evaluations, optionally filtered by
// ?repo=owner/name and bounded by ?limit=N.
func (h *Handler) ListHistory(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeError(w, http.StatusNotFound, "history is not enabled")
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	evals, err := h.history.Recent(r.Context(), r.URL.Query().Get("repo"), limit)
	if err != nil {
		h.logger.Error("failed to list evaluations", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]EvaluationResponse, 0, len(evals))
	for _, e := range evals {
		resp = append(resp, toEvaluationResponse(e))
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetHistory returns the per-subject rows of one recorded evaluation.
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeError(w, http.StatusNotFound, "history is not enabled")
		return
	}

	id := r.PathValue("id")
	subjects, err := h.history.Subjects(r.Context(), id)
	if err != nil {
		if errors.Is(err, driven.ErrEvaluationNotFound) {
			writeError(w, http.StatusNotFound, "evaluation not found")
			return
		}
		h.logger.Error("failed to get evaluation", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]EvaluationSubjectResponse, 0, len(subjects))
	for _, s := range subjects {
		resp = append(resp, toEvaluationSubjectResponse(s))
	}

	writeJSON(w, http.StatusOK, resp)
}

// Health returns a simple health check response.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}
