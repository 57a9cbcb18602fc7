// Package driven defines the driven ports the application core depends on.
package driven

import (
	"context"
	"errors"

	"github.com/branchpulse/branchpulse/internal/domain/model"
)

// ErrUnauthorized is returned (wrapped) by GitHubClient implementations when
// the hosting API rejects a request with a 401/403-class status, typically a
// token missing the repo scope or pending SSO authorization. It aborts the
// current background fetch unit; partial results are kept.
var ErrUnauthorized = errors.New("github: unauthorized")

// IssueRequest is the input to GitHubClient.CreateIssue.
type IssueRequest struct {
	Title     string
	Body      string
	Labels    []string
	Assignees []string
}

// GitHubClient defines the driven port for the hosting API. Read methods feed
// the fetch unit; write methods serve deletion and notification.
type GitHubClient interface {
	// Read methods

	// FetchPullRequestHeads returns the head ref and state of the
	// repository's pull requests, all states, in a single bounded page.
	FetchPullRequestHeads(ctx context.Context, owner, repo string) ([]model.PullRequestHead, error)
	// ListBranchPage returns one page of branches (1-indexed). An empty
	// slice with a nil error signals the end of pagination.
	ListBranchPage(ctx context.Context, owner, repo string, page, perPage int) ([]model.BranchRef, error)
	// FetchTipCommit returns author metadata for the commit at sha.
	FetchTipCommit(ctx context.Context, owner, repo, sha string) (*model.CommitMeta, error)

	// Write methods

	// DeleteBranch deletes the given branch ref. A nil error means the API
	// confirmed the deletion.
	DeleteBranch(ctx context.Context, owner, repo, branch string) error
	// CreateIssue opens an issue and returns its HTML URL.
	CreateIssue(ctx context.Context, owner, repo string, req IssueRequest) (string, error)
	// ValidateToken verifies the client's credentials and returns the
	// authenticated username on success.
	ValidateToken(ctx context.Context) (string, error)
}
