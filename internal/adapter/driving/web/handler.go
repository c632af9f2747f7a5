// Package web serves a server-rendered HTML view of a repository's pending checks.
package web

import (
	"bytes"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	httphandler "github.com/ericfisherdev/pendingchecks/internal/adapter/driving/http"
	"github.com/ericfisherdev/pendingchecks/internal/application"
	"github.com/ericfisherdev/pendingchecks/internal/domain/model"
	"github.com/ericfisherdev/pendingchecks/internal/render"
)

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/page.html"))

// pageData is the view model of page.html.
type pageData struct {
	Title          string
	Strategy       model.ApprovalStrategy
	GeneratedAt    string
	RefreshSeconds int
	Body           template.HTML
	Error          string
}

// Handler is the web driving adapter that renders the Markdown report as HTML.
type Handler struct {
	evaluators httphandler.EvaluatorSource
	refresh    time.Duration
	logger     *slog.Logger
}

// NewHandler creates a Handler. A positive refresh makes pages reload
// themselves on that interval.
func NewHandler(evaluators httphandler.EvaluatorSource, refresh time.Duration, logger *slog.Logger) *Handler {
	return &Handler{
		evaluators: evaluators,
		refresh:    refresh,
		logger:     logger,
	}
}

// RepoPage evaluates a repository and renders the result. It accepts the same
// query parameters as the JSON API.
func (h *Handler) RepoPage(w http.ResponseWriter, r *http.Request) {
	repoFullName := r.PathValue("owner") + "/" + r.PathValue("repo")
	data := pageData{
		Title:          "Pending checks: " + repoFullName,
		GeneratedAt:    time.Now().UTC().Format(time.RFC1123),
		RefreshSeconds: int(h.refresh.Seconds()),
	}

	q, strategy, err := httphandler.ParseQuery(r, repoFullName)
	if err != nil {
		data.Error = err.Error()
		h.writePage(w, http.StatusBadRequest, data)
		return
	}
	data.Strategy = strategy
	if data.Strategy == "" {
		data.Strategy = model.StrategyGeneric
	}

	summary, status, err := httphandler.Evaluate(r, h.evaluators, q, strategy)
	if err != nil {
		h.logger.Error("failed to evaluate checks", "repo", repoFullName, "error", err)
		data.Error = fmt.Sprintf("Could not evaluate checks for %s.", repoFullName)
		if status == http.StatusBadRequest {
			data.Error = err.Error()
		}
		h.writePage(w, status, data)
		return
	}

	opts := render.Options{}
	if strategy == model.StrategyApproval {
		opts.Filter = application.NeedsApproval
	}

	body, err := RenderReport(summary, opts)
	if err != nil {
		h.logger.Error("failed to render report", "repo", repoFullName, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	data.Body = body
	h.writePage(w, http.StatusOK, data)
}

func (h *Handler) writePage(w http.ResponseWriter, status int, data pageData) {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		h.logger.Error("failed to render page", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
