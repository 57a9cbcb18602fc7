package sqlite

import (
	"context"
	"fmt"

	"github.com/branchpulse/branchpulse/internal/domain/model"
	"github.com/branchpulse/branchpulse/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.DeletionLogStore = (*DeletionRepo)(nil)

// DeletionRepo is the SQLite implementation of the DeletionLogStore port interface.
type DeletionRepo struct {
	db *DB
}

// NewDeletionRepo creates a new DeletionRepo backed by the given DB.
func NewDeletionRepo(db *DB) *DeletionRepo {
	return &DeletionRepo{db: db}
}

// Record appends one deletion attempt to the audit log.
func (r *DeletionRepo) Record(ctx context.Context, entry model.DeletionEntry) error {
	const query = `
		INSERT INTO deletions (owner, repo, branch, succeeded, detail, deleted_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	succeeded := 0
	if entry.Succeeded {
		succeeded = 1
	}

	_, err := r.db.Writer.ExecContext(ctx, query,
		entry.Owner, entry.Repo, entry.Branch, succeeded, entry.Detail,
		entry.DeletedAt.UTC().Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("insert deletion for %s: %w", entry.Branch, err)
	}

	return nil
}

// ListRecent returns up to limit audit-log entries, most recent first.
func (r *DeletionRepo) ListRecent(ctx context.Context, limit int) ([]model.DeletionEntry, error) {
	const query = `
		SELECT id, owner, repo, branch, succeeded, detail, deleted_at
		FROM deletions
		ORDER BY deleted_at DESC, id DESC
		LIMIT ?
	`

	rows, err := r.db.Reader.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query deletions: %w", err)
	}
	defer rows.Close()

	var entries []model.DeletionEntry
	for rows.Next() {
		entry, err := scanDeletionEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan deletion: %w", err)
		}
		entries = append(entries, *entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate deletions: %w", err)
	}

	return entries, nil
}

func scanDeletionEntry(s scanner) (*model.DeletionEntry, error) {
	var entry model.DeletionEntry
	var succeeded int
	var deletedAt string

	err := s.Scan(
		&entry.ID, &entry.Owner, &entry.Repo, &entry.Branch,
		&succeeded, &entry.Detail, &deletedAt,
	)
	if err != nil {
		return nil, err
	}

	entry.Succeeded = succeeded != 0

	if entry.DeletedAt, err = parseTime(deletedAt); err != nil {
		return nil, err
	}

	return &entry, nil
}
