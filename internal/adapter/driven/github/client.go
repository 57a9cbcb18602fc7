// Package github implements the GitHubClient port using the go-github library.
package github

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	gh "github.com/google/go-github/v82/github"
	"github.com/gregjones/httpcache"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"

	"github.com/branchpulse/branchpulse/internal/domain/model"
	"github.com/branchpulse/branchpulse/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.GitHubClient = (*Client)(nil)

// prIndexPageSize bounds the single pull-request index request. One page is
// sufficient for this tool's target repository sizes; there is deliberately
// no pagination loop here.
const prIndexPageSize = 100

// Client implements the driven.GitHubClient port using the go-github library.
type Client struct {
	gh *gh.Client
}

// NewClient creates a new GitHub API client with the following transport stack:
//  1. httpcache (ETag-based conditional request caching)
//  2. go-github-ratelimit (secondary rate limit middleware, sleeps on 429)
//  3. go-github (GitHub REST API client with PAT auth)
func NewClient(token string) *Client {
	cacheTransport := httpcache.NewMemoryCacheTransport()
	rateLimitClient := github_ratelimit.NewClient(cacheTransport)
	client := gh.NewClient(rateLimitClient).WithAuthToken(token)

	return &Client{gh: client}
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and base URL.
// This constructor is intended for testing, allowing injection of an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL string) (*Client, error) {
	client := gh.NewClient(httpClient)

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	client.BaseURL = u

	return &Client{gh: client}, nil
}

// FetchPullRequestHeads retrieves the head refs of the repository's pull
// requests, all states, in a single bounded page.
func (c *Client) FetchPullRequestHeads(ctx context.Context, owner, repo string) ([]model.PullRequestHead, error) {
	opts := &gh.PullRequestListOptions{
		State:       "all",
		ListOptions: gh.ListOptions{PerPage: prIndexPageSize},
	}

	prs, resp, err := c.gh.PullRequests.List(ctx, owner, repo, opts)
	if err != nil {
		return nil, apiError(fmt.Sprintf("listing pull requests for %s/%s", owner, repo), err)
	}

	logRateLimit(resp, owner+"/"+repo+"/pulls", 0, len(prs))

	heads := make([]model.PullRequestHead, 0, len(prs))
	for _, pr := range prs {
		heads = append(heads, model.PullRequestHead{
			Ref:   pr.GetHead().GetRef(),
			State: pr.GetState(),
		})
	}

	return heads, nil
}

// ListBranchPage retrieves one page of branches. An empty slice with a nil
// error is the pagination termination signal.
func (c *Client) ListBranchPage(ctx context.Context, owner, repo string, page, perPage int) ([]model.BranchRef, error) {
	opts := &gh.BranchListOptions{
		ListOptions: gh.ListOptions{Page: page, PerPage: perPage},
	}

	branches, resp, err := c.gh.Repositories.ListBranches(ctx, owner, repo, opts)
	if err != nil {
		return nil, apiError(fmt.Sprintf("listing branches for %s/%s (page %d)", owner, repo, page), err)
	}

	logRateLimit(resp, owner+"/"+repo+"/branches", page, len(branches))

	refs := make([]model.BranchRef, 0, len(branches))
	for _, branch := range branches {
		refs = append(refs, model.BranchRef{
			Name:      branch.GetName(),
			CommitSHA: branch.GetCommit().GetSHA(),
		})
	}

	return refs, nil
}

// FetchTipCommit retrieves author metadata for the commit at sha.
func (c *Client) FetchTipCommit(ctx context.Context, owner, repo, sha string) (*model.CommitMeta, error) {
	commit, resp, err := c.gh.Repositories.GetCommit(ctx, owner, repo, sha, nil)
	if err != nil {
		return nil, apiError(fmt.Sprintf("fetching commit %s for %s/%s", sha, owner, repo), err)
	}

	logRateLimit(resp, owner+"/"+repo+"/commit", 0, 1)

	author := commit.GetCommit().GetAuthor()
	return &model.CommitMeta{
		AuthorName:  author.GetName(),
		AuthorEmail: author.GetEmail(),
		Date:        author.GetDate().Time,
	}, nil
}

// apiError wraps a go-github error, translating 401/403 responses into the
// ErrUnauthorized sentinel so the fetch unit can distinguish authorization
// aborts from plain transport failures.
func apiError(op string, err error) error {
	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		code := ghErr.Response.StatusCode
		if code == http.StatusUnauthorized || code == http.StatusForbidden {
			return fmt.Errorf("%s: %w: %v", op, driven.ErrUnauthorized, err)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// logRateLimit logs the GitHub API rate limit status after each call.
func logRateLimit(resp *gh.Response, endpoint string, page, count int) {
	if resp == nil {
		return
	}

	slog.Debug("github api call",
		"endpoint", endpoint,
		"page", page,
		"count", count,
		"rate_remaining", resp.Rate.Remaining,
		"rate_limit", resp.Rate.Limit,
	)

	if resp.Rate.Remaining < 100 {
		slog.Warn("github rate limit low",
			"remaining", resp.Rate.Remaining,
			"reset_in", time.Until(resp.Rate.Reset.Time).Round(time.Second),
		)
	}
}
