package github

import (
	"context"
	"fmt"

	gh "github.com/google/go-github/v82/github"

	"github.com/branchpulse/branchpulse/internal/domain/port/driven"
)

// DeleteBranch deletes the branch's ref. go-github returns a nil error only
// when the API confirmed the deletion (204), which is the signal the cleanup
// service relies on.
func (c *Client) DeleteBranch(ctx context.Context, owner, repo, branch string) error {
	_, err := c.gh.Git.DeleteRef(ctx, owner, repo, "heads/"+branch)
	if err != nil {
		return apiError(fmt.Sprintf("deleting branch %s on %s/%s", branch, owner, repo), err)
	}
	return nil
}

// CreateIssue opens the cleanup notification issue and returns its HTML URL.
func (c *Client) CreateIssue(ctx context.Context, owner, repo string, req driven.IssueRequest) (string, error) {
	issueReq := &gh.IssueRequest{
		Title: gh.Ptr(req.Title),
		Body:  gh.Ptr(req.Body),
	}
	if len(req.Labels) > 0 {
		issueReq.Labels = &req.Labels
	}
	if len(req.Assignees) > 0 {
		issueReq.Assignees = &req.Assignees
	}

	issue, _, err := c.gh.Issues.Create(ctx, owner, repo, issueReq)
	if err != nil {
		return "", apiError(fmt.Sprintf("creating issue on %s/%s", owner, repo), err)
	}

	return issue.GetHTMLURL(), nil
}

// ValidateToken verifies the client's token against the authenticated-user
// endpoint and returns the login on success. The fetch unit is only launched
// after this succeeds, so a bad token fails the start request instead of
// aborting mid-pagination.
func (c *Client) ValidateToken(ctx context.Context) (string, error) {
	user, _, err := c.gh.Users.Get(ctx, "")
	if err != nil {
		return "", apiError("validating token", err)
	}
	return user.GetLogin(), nil
}
