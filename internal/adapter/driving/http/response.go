package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/branchpulse/branchpulse/internal/application"
	"github.com/branchpulse/branchpulse/internal/domain/model"
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

// BranchResponse is the JSON representation of one classified branch.
type BranchResponse struct {
	Name        string `json:"name"`
	LastCommit  string `json:"last_commit"`
	Category    string `json:"category"`
	AuthorName  string `json:"author_name"`
	AuthorEmail string `json:"author_email"`
}

// BranchListResponse carries the active snapshot and the per-category counts.
type BranchListResponse struct {
	Branches []BranchResponse `json:"branches"`
	Counts   map[string]int   `json:"counts"`
}

// StatusResponse is the JSON representation of the fetch unit's progress.
type StatusResponse struct {
	Owner     string `json:"owner"`
	Repo      string `json:"repo"`
	StaleDays int    `json:"stale_days"`
	State     string `json:"state"`
	Branches  int    `json:"branches"`
	Pages     int    `json:"pages"`
	Skipped   int    `json:"skipped"`
	Error     string `json:"error,omitempty"`
}

// StartFetchRequest is the JSON body for the start-fetch endpoint.
type StartFetchRequest struct {
	Owner     string `json:"owner"`
	Repo      string `json:"repo"`
	StaleDays int    `json:"stale_days"`
	Token     string `json:"token"`
}

// DeleteRequest is the JSON body for the bulk deletion endpoint.
type DeleteRequest struct {
	Branches []string `json:"branches"`
}

// DeleteResponse reports the outcome of one deletion pass.
type DeleteResponse struct {
	Deleted int `json:"deleted"`
	Failed  int `json:"failed"`
}

// NotifyRequest is the JSON body for the notification endpoint.
type NotifyRequest struct {
	Branches []string `json:"branches"`
	Via      string   `json:"via"`
}

// NotifyResponse reports the artifact produced by a notification pass.
type NotifyResponse struct {
	Via        string   `json:"via"`
	IssueURL   string   `json:"issue_url,omitempty"`
	Recipients []string `json:"recipients,omitempty"`
	Groups     int      `json:"groups"`
}

// SessionResponse is the JSON representation of a persisted fetch session.
type SessionResponse struct {
	ID         int64  `json:"id"`
	Owner      string `json:"owner"`
	Repo       string `json:"repo"`
	StaleDays  int    `json:"stale_days"`
	State      string `json:"state"`
	Branches   int    `json:"branches"`
	Pages      int    `json:"pages"`
	Skipped    int    `json:"skipped"`
	Error      string `json:"error,omitempty"`
	StartedAt  string `json:"started_at"`
	FinishedAt string `json:"finished_at"`
}

// DeletionResponse is the JSON representation of one audit-log entry.
type DeletionResponse struct {
	ID        int64  `json:"id"`
	Owner     string `json:"owner"`
	Repo      string `json:"repo"`
	Branch    string `json:"branch"`
	Succeeded bool   `json:"succeeded"`
	Detail    string `json:"detail,omitempty"`
	DeletedAt string `json:"deleted_at"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// toBranchResponse converts a domain BranchRecord to its JSON representation.
func toBranchResponse(record model.BranchRecord) BranchResponse {
	return BranchResponse{
		Name:        record.Name,
		LastCommit:  record.LastCommitDate(),
		Category:    string(record.Category),
		AuthorName:  record.AuthorName,
		AuthorEmail: record.AuthorEmail,
	}
}

// toStatusResponse converts a session status to its JSON representation.
func toStatusResponse(status application.SessionStatus) StatusResponse {
	return StatusResponse{
		Owner:     status.Owner,
		Repo:      status.Repo,
		StaleDays: status.StaleDays,
		State:     string(status.State),
		Branches:  status.Branches,
		Pages:     status.Pages,
		Skipped:   status.Skipped,
		Error:     status.Error,
	}
}

// toSessionResponse converts a persisted fetch summary to its JSON representation.
func toSessionResponse(summary model.FetchSummary) SessionResponse {
	return SessionResponse{
		ID:         summary.ID,
		Owner:      summary.Owner,
		Repo:       summary.Repo,
		StaleDays:  summary.StaleDays,
		State:      string(summary.State),
		Branches:   summary.Branches,
		Pages:      summary.Pages,
		Skipped:    summary.Skipped,
		Error:      summary.Error,
		StartedAt:  summary.StartedAt.UTC().Format(time.RFC3339),
		FinishedAt: summary.FinishedAt.UTC().Format(time.RFC3339),
	}
}

// toDeletionResponse converts an audit-log entry to its JSON representation.
func toDeletionResponse(entry model.DeletionEntry) DeletionResponse {
	return DeletionResponse{
		ID:        entry.ID,
		Owner:     entry.Owner,
		Repo:      entry.Repo,
		Branch:    entry.Branch,
		Succeeded: entry.Succeeded,
		Detail:    entry.Detail,
		DeletedAt: entry.DeletedAt.UTC().Format(time.RFC3339),
	}
}
