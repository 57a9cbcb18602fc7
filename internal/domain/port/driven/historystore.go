package driven

import (
	"context"

	"github.com/branchpulse/branchpulse/internal/domain/model"
)

// SessionStore persists fetch-session outcomes for the history view.
type SessionStore interface {
	// Record appends a finished session summary.
	Record(ctx context.Context, summary model.FetchSummary) error
	// ListRecent returns up to limit summaries, most recent first.
	ListRecent(ctx context.Context, limit int) ([]model.FetchSummary, error)
}

// DeletionLogStore persists the audit trail of branch deletion attempts.
type DeletionLogStore interface {
	// Record appends one deletion attempt, successful or not.
	Record(ctx context.Context, entry model.DeletionEntry) error
	// ListRecent returns up to limit entries, most recent first.
	ListRecent(ctx context.Context, limit int) ([]model.DeletionEntry, error)
}
