package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/branchpulse/branchpulse/internal/domain/model"
	"github.com/branchpulse/branchpulse/internal/domain/port/driven"
)

// CleanupService is the deletion executor. Protected and open-PR branches
// are excluded at two independent checkpoints: once when building the
// candidate list, and again when consuming a deletion request, so a stale
// candidate list can never slip a protected branch through.
type CleanupService struct {
	fetch *FetchService
	log   driven.DeletionLogStore
}

// NewCleanupService creates a CleanupService.
func NewCleanupService(fetch *FetchService, log driven.DeletionLogStore) *CleanupService {
	return &CleanupService{fetch: fetch, log: log}
}

// Candidates returns the branches eligible for deletion: every active record
// except protected branches and branches with an open pull request. This is
// the first of the two exclusion checkpoints.
func (c *CleanupService) Candidates() ([]model.BranchRecord, error) {
	session, _, err := c.fetch.StaticSession()
	if err != nil {
		return nil, err
	}

	var candidates []model.BranchRecord
	for _, record := range session.Snapshot() {
		if !deletable(record) {
			continue
		}
		candidates = append(candidates, record)
	}
	return candidates, nil
}

// DeleteBranches consumes a deletion request. Each branch gets one delete
// call; successes are removed from the store and recorded in the audit log,
// failures are counted and left in place. There is no automatic retry; a
// failed deletion requires a new user-initiated pass. Returns the success
// and failure counts.
func (c *CleanupService) DeleteBranches(ctx context.Context, names []string) (int, int, error) {
	session, client, err := c.fetch.StaticSession()
	if err != nil {
		return 0, 0, err
	}

	// The queue is a set: duplicates collapse, and the second exclusion
	// checkpoint runs here regardless of how the candidates were built.
	queue := make([]model.BranchRecord, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}

		record, ok := session.Lookup(name)
		if !ok || !deletable(record) {
			continue
		}
		queue = append(queue, record)
	}

	if len(queue) == 0 {
		return 0, 0, ErrEmptySelection
	}

	owner, repo := session.Owner(), session.Repo()
	var deleted, failed int

	for _, record := range queue {
		if err := client.DeleteBranch(ctx, owner, repo, record.Name); err != nil {
			failed++
			slog.Error("branch deletion failed", "owner", owner, "repo", repo, "branch", record.Name, "error", err)
			c.record(ctx, owner, repo, record.Name, false, err.Error())
			continue
		}

		deleted++
		session.MarkDeleted(record.Name)
		slog.Info("branch deleted", "owner", owner, "repo", repo, "branch", record.Name)
		c.record(ctx, owner, repo, record.Name, true, "")
	}

	slog.Info("deletion pass complete", "owner", owner, "repo", repo, "deleted", deleted, "failed", failed)
	return deleted, failed, nil
}

// RecentDeletions returns the most recent audit-log entries.
func (c *CleanupService) RecentDeletions(ctx context.Context, limit int) ([]model.DeletionEntry, error) {
	if c.log == nil {
		return nil, nil
	}
	return c.log.ListRecent(ctx, limit)
}

func (c *CleanupService) record(ctx context.Context, owner, repo, branch string, succeeded bool, detail string) {
	if c.log == nil {
		return
	}
	entry := model.DeletionEntry{
		Owner:     owner,
		Repo:      repo,
		Branch:    branch,
		Succeeded: succeeded,
		Detail:    detail,
		DeletedAt: time.Now().UTC(),
	}
	if err := c.log.Record(ctx, entry); err != nil {
		slog.Error("recording deletion failed", "branch", branch, "error", err)
	}
}

func deletable(record model.BranchRecord) bool {
	if model.IsProtectedBranch(record.Name) {
		return false
	}
	return record.Category != model.CategoryOpenPR
}
