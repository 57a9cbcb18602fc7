package sqlite

import (
	"context"
	"fmt"

	"github.com/branchpulse/branchpulse/internal/domain/model"
	"github.com/branchpulse/branchpulse/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.SessionStore = (*SessionRepo)(nil)

// SessionRepo is the SQLite implementation of the SessionStore port interface.
type SessionRepo struct {
	db *DB
}

// NewSessionRepo creates a new SessionRepo backed by the given DB.
func NewSessionRepo(db *DB) *SessionRepo {
	return &SessionRepo{db: db}
}

// Record appends a finished fetch-session summary.
func (r *SessionRepo) Record(ctx context.Context, summary model.FetchSummary) error {
	const query = `
		INSERT INTO fetch_sessions (owner, repo, stale_days, state, branches, pages, skipped, error, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Writer.ExecContext(ctx, query,
		summary.Owner, summary.Repo, summary.StaleDays, string(summary.State),
		summary.Branches, summary.Pages, summary.Skipped, summary.Error,
		summary.StartedAt.UTC().Format(timeFormat), summary.FinishedAt.UTC().Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("insert fetch session for %s/%s: %w", summary.Owner, summary.Repo, err)
	}

	return nil
}

// ListRecent returns up to limit session summaries, most recent first.
func (r *SessionRepo) ListRecent(ctx context.Context, limit int) ([]model.FetchSummary, error) {
	const query = `
		SELECT id, owner, repo, stale_days, state, branches, pages, skipped, error, started_at, finished_at
		FROM fetch_sessions
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`

	rows, err := r.db.Reader.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query fetch sessions: %w", err)
	}
	defer rows.Close()

	var summaries []model.FetchSummary
	for rows.Next() {
		summary, err := scanFetchSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("scan fetch session: %w", err)
		}
		summaries = append(summaries, *summary)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fetch sessions: %w", err)
	}

	return summaries, nil
}

func scanFetchSummary(s scanner) (*model.FetchSummary, error) {
	var summary model.FetchSummary
	var state, startedAt, finishedAt string

	err := s.Scan(
		&summary.ID, &summary.Owner, &summary.Repo, &summary.StaleDays, &state,
		&summary.Branches, &summary.Pages, &summary.Skipped, &summary.Error,
		&startedAt, &finishedAt,
	)
	if err != nil {
		return nil, err
	}

	summary.State = model.FetchState(state)

	if summary.StartedAt, err = parseTime(startedAt); err != nil {
		return nil, err
	}
	if summary.FinishedAt, err = parseTime(finishedAt); err != nil {
		return nil, err
	}

	return &summary, nil
}
