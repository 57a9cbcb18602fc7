// Package httphandler is the HTTP driving adapter that serves the REST API.
package httphandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/branchpulse/branchpulse/internal/application"
	"github.com/branchpulse/branchpulse/internal/domain/model"
	"github.com/branchpulse/branchpulse/internal/domain/port/driven"
)

// historyLimit bounds the session and deletion history endpoints.
const historyLimit = 50

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	fetchSvc     *application.FetchService
	cleanupSvc   *application.CleanupService
	notifySvc    *application.NotifyService
	sessionStore driven.SessionStore
	defaultToken string
	defaultStale int
	logger       *slog.Logger
}

// NewHandler creates a Handler with all required dependencies. defaultToken
// and defaultStale fill in start-fetch requests that omit them.
func NewHandler(
	fetchSvc *application.FetchService,
	cleanupSvc *application.CleanupService,
	notifySvc *application.NotifyService,
	sessionStore driven.SessionStore,
	defaultToken string,
	defaultStale int,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		fetchSvc:     fetchSvc,
		cleanupSvc:   cleanupSvc,
		notifySvc:    notifySvc,
		sessionStore: sessionStore,
		defaultToken: defaultToken,
		defaultStale: defaultStale,
		logger:       logger,
	}
}

// RegisterAPIRoutes registers all API routes on the provided mux.
func RegisterAPIRoutes(mux *http.ServeMux, h *Handler) {
	mux.HandleFunc("POST /api/v1/fetch/start", h.StartFetch)
	mux.HandleFunc("POST /api/v1/fetch/stop", h.StopFetch)
	mux.HandleFunc("GET /api/v1/fetch/status", h.FetchStatus)
	mux.HandleFunc("GET /api/v1/branches", h.ListBranches)
	mux.HandleFunc("GET /api/v1/branches/export", h.ExportBranches)
	mux.HandleFunc("GET /api/v1/branches/candidates", h.ListCandidates)
	mux.HandleFunc("POST /api/v1/branches/delete", h.DeleteBranches)
	mux.HandleFunc("POST /api/v1/notify", h.Notify)
	mux.HandleFunc("GET /api/v1/sessions", h.ListSessions)
	mux.HandleFunc("GET /api/v1/deletions", h.ListDeletions)
	mux.HandleFunc("GET /api/v1/health", h.Health)
}

// StartFetch begins a new fetch session for the requested repository.
func (h *Handler) StartFetch(w http.ResponseWriter, r *http.Request) {
	var req StartFetchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Token == "" {
		req.Token = h.defaultToken
	}
	if req.StaleDays == 0 {
		req.StaleDays = h.defaultStale
	}

	err := h.fetchSvc.StartFetch(application.FetchParams{
		Owner:     req.Owner,
		Repo:      req.Repo,
		StaleDays: req.StaleDays,
		Token:     req.Token,
	})
	if errors.Is(err, application.ErrFetchActive) {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "fetching"})
}

// StopFetch signals the background unit to stop after its current page.
func (h *Handler) StopFetch(w http.ResponseWriter, _ *http.Request) {
	stopped := h.fetchSvc.StopFetch()
	writeJSON(w, http.StatusOK, map[string]bool{"stopped": stopped})
}

// FetchStatus reports the current session's progress.
func (h *Handler) FetchStatus(w http.ResponseWriter, _ *http.Request) {
	status, ok := h.fetchSvc.Status()
	if !ok {
		writeJSON(w, http.StatusOK, StatusResponse{State: string(model.FetchStateIdle)})
		return
	}
	writeJSON(w, http.StatusOK, toStatusResponse(status))
}

// ListBranches returns the active snapshot and per-category counts,
// optionally filtered by ?category=.
func (h *Handler) ListBranches(w http.ResponseWriter, r *http.Request) {
	session, err := h.fetchSvc.Current()
	if errors.Is(err, application.ErrNoSession) {
		writeJSON(w, http.StatusOK, BranchListResponse{Branches: []BranchResponse{}, Counts: emptyCounts()})
		return
	}

	var records []model.BranchRecord
	if category := r.URL.Query().Get("category"); category != "" {
		records = session.SnapshotCategory(model.Category(category))
	} else {
		records = session.Snapshot()
	}

	resp := BranchListResponse{
		Branches: make([]BranchResponse, 0, len(records)),
		Counts:   make(map[string]int, len(model.Categories)),
	}
	for _, record := range records {
		resp.Branches = append(resp.Branches, toBranchResponse(record))
	}
	for category, count := range session.Counts() {
		resp.Counts[string(category)] = count
	}

	writeJSON(w, http.StatusOK, resp)
}

// ExportBranches streams the active snapshot as a CSV attachment.
func (h *Handler) ExportBranches(w http.ResponseWriter, _ *http.Request) {
	session, err := h.fetchSvc.Current()
	if errors.Is(err, application.ErrNoSession) {
		writeError(w, http.StatusNotFound, "no fetch session")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="branch_details.csv"`)

	if err := application.WriteCSV(w, session.Snapshot()); err != nil {
		h.logger.Error("csv export failed", "error", err)
	}
}

// ListCandidates returns the branches eligible for deletion.
func (h *Handler) ListCandidates(w http.ResponseWriter, _ *http.Request) {
	candidates, err := h.cleanupSvc.Candidates()
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	resp := make([]BranchResponse, 0, len(candidates))
	for _, record := range candidates {
		resp = append(resp, toBranchResponse(record))
	}
	writeJSON(w, http.StatusOK, resp)
}

// DeleteBranches runs one deletion pass over the requested branches.
func (h *Handler) DeleteBranches(w http.ResponseWriter, r *http.Request) {
	var req DeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	deleted, failed, err := h.cleanupSvc.DeleteBranches(r.Context(), req.Branches)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, DeleteResponse{Deleted: deleted, Failed: failed})
}

// Notify emits a cleanup notification for the requested branches.
func (h *Handler) Notify(w http.ResponseWriter, r *http.Request) {
	var req NotifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.notifySvc.Notify(r.Context(), req.Branches, req.Via)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, NotifyResponse{
		Via:        result.Via,
		IssueURL:   result.IssueURL,
		Recipients: result.Recipients,
		Groups:     result.Groups,
	})
}

// ListSessions returns recent fetch-session history.
func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.sessionStore.ListRecent(r.Context(), historyLimit)
	if err != nil {
		h.logger.Error("failed to list sessions", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]SessionResponse, 0, len(summaries))
	for _, summary := range summaries {
		resp = append(resp, toSessionResponse(summary))
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListDeletions returns recent deletion audit-log entries.
func (h *Handler) ListDeletions(w http.ResponseWriter, r *http.Request) {
	entries, err := h.cleanupSvc.RecentDeletions(r.Context(), historyLimit)
	if err != nil {
		h.logger.Error("failed to list deletions", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]DeletionResponse, 0, len(entries))
	for _, entry := range entries {
		resp = append(resp, toDeletionResponse(entry))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Health is the liveness endpoint.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// writeServiceError maps application sentinel errors to HTTP statuses.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, application.ErrNoSession):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, application.ErrFetchActive):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, application.ErrEmptySelection):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func emptyCounts() map[string]int {
	counts := make(map[string]int, len(model.Categories))
	for _, category := range model.Categories {
		counts[string(category)] = 0
	}
	return counts
}
