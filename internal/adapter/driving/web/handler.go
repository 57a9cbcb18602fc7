// Package web implements the HTML GUI driving adapter. The dashboard page is
// served from embedded static assets and talks to the JSON API.
package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/branchpulse/branchpulse/internal/application"
)

// Handler is the web GUI driving adapter.
type Handler struct {
	fetchSvc  *application.FetchService
	notifySvc *application.NotifyService
	logger    *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(fetchSvc *application.FetchService, notifySvc *application.NotifyService, logger *slog.Logger) *Handler {
	return &Handler{
		fetchSvc:  fetchSvc,
		notifySvc: notifySvc,
		logger:    logger,
	}
}

// Dashboard serves the dashboard page.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	page, err := StaticFS.ReadFile("static/index.html")
	if err != nil {
		h.logger.Error("failed to read dashboard page", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}

// previewRequest is the JSON body for the notification preview endpoint.
type previewRequest struct {
	Branches []string `json:"branches"`
}

// NotifyPreview renders the issue body that Notify would produce for the
// selected branches, as sanitized HTML, without contacting the hosting API.
func (h *Handler) NotifyPreview(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	body, err := h.notifySvc.PreviewIssueBody(req.Branches)
	switch {
	case errors.Is(err, application.ErrNoSession):
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	case errors.Is(err, application.ErrFetchActive):
		http.Error(w, err.Error(), http.StatusConflict)
		return
	case errors.Is(err, application.ErrEmptySelection):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		h.logger.Error("notification preview failed", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(RenderMarkdown(body)))
}
