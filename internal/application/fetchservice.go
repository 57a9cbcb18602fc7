package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/branchpulse/branchpulse/internal/domain/model"
	"github.com/branchpulse/branchpulse/internal/domain/port/driven"
)

// ClientFactory builds a GitHub client for a session's token. One client is
// constructed per fetch session, never at process scope.
type ClientFactory func(token string) driven.GitHubClient

// FetchParams are the inputs to StartFetch.
type FetchParams struct {
	Owner     string
	Repo      string
	StaleDays int
	Token     string
}

// FetchService owns the current dashboard session and its background fetch
// unit. The unit builds the PR index once, then pages through branches,
// resolving each branch's tip commit, classifying it, and merging whole
// pages into the session store. Cancellation is cooperative: a stop flag is
// checked at the top of every page iteration, and the in-flight page is
// allowed to finish.
type FetchService struct {
	baseCtx   context.Context
	newClient ClientFactory
	sessions  driven.SessionStore
	pageSize  int
	pageDelay time.Duration

	mu      sync.Mutex
	session *Session
	client  driven.GitHubClient
	stop    *atomic.Bool
}

// NewFetchService creates a FetchService. baseCtx bounds the lifetime of all
// background units (process shutdown aborts in-flight requests); user stops
// go through the cooperative flag instead.
func NewFetchService(
	baseCtx context.Context,
	newClient ClientFactory,
	sessions driven.SessionStore,
	pageSize int,
	pageDelay time.Duration,
) *FetchService {
	return &FetchService{
		baseCtx:   baseCtx,
		newClient: newClient,
		sessions:  sessions,
		pageSize:  pageSize,
		pageDelay: pageDelay,
	}
}

// StartFetch validates the token, then begins a new fetch session and its
// background unit. It returns ErrFetchActive while a previous unit is still
// running; a finished session is replaced, discarding its in-memory results
// (history stays in the session store).
func (s *FetchService) StartFetch(params FetchParams) error {
	if params.Owner == "" || params.Repo == "" {
		return fmt.Errorf("owner and repo are required")
	}
	if params.StaleDays <= 0 {
		return fmt.Errorf("stale_days must be positive, got %d", params.StaleDays)
	}
	if params.Token == "" {
		return fmt.Errorf("github token is required")
	}

	if err := s.activeErr(); err != nil {
		return err
	}

	// Validate before launching anything, outside the lock: a bad token
	// fails the start request here instead of aborting mid-pagination.
	client := s.newClient(params.Token)

	ctx, cancel := context.WithTimeout(s.baseCtx, 10*time.Second)
	defer cancel()
	login, err := client.ValidateToken(ctx)
	if err != nil {
		return fmt.Errorf("validating token: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Re-check under the lock; another start may have won the race during
	// validation.
	if s.session != nil && s.session.State().Active() {
		return ErrFetchActive
	}

	session := NewSession(params.Owner, params.Repo, params.StaleDays, time.Now().UTC())
	stop := &atomic.Bool{}

	s.session = session
	s.client = client
	s.stop = stop

	go s.run(session, client, stop)

	slog.Info("fetch started",
		"owner", params.Owner,
		"repo", params.Repo,
		"stale_days", params.StaleDays,
		"user", login,
	)

	return nil
}

func (s *FetchService) activeErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session != nil && s.session.State().Active() {
		return ErrFetchActive
	}
	return nil
}

// StopFetch signals the background unit to stop after its current page.
// It reports whether a running fetch was actually signalled.
func (s *FetchService) StopFetch() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil || !s.session.State().Active() {
		return false
	}
	s.stop.Store(true)
	slog.Info("fetch stop requested", "owner", s.session.Owner(), "repo", s.session.Repo())
	return true
}

// Status returns the current session's progress. ok is false before the
// first StartFetch.
func (s *FetchService) Status() (SessionStatus, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return SessionStatus{}, false
	}
	return s.session.Status(), true
}

// Current returns the current session, running or not.
func (s *FetchService) Current() (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return nil, ErrNoSession
	}
	return s.session, nil
}

// StaticSession returns the current session and its client once fetching is
// inactive. Deletion and notification go through this so they can never run
// concurrently with the background unit.
func (s *FetchService) StaticSession() (*Session, driven.GitHubClient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return nil, nil, ErrNoSession
	}
	if s.session.State().Active() {
		return nil, nil, ErrFetchActive
	}
	return s.session, s.client, nil
}

// run is the background fetch unit.
func (s *FetchService) run(session *Session, client driven.GitHubClient, stop *atomic.Bool) {
	ctx := s.baseCtx
	owner, repo := session.Owner(), session.Repo()

	// PR index first. Failure degrades to an empty map: every branch then
	// falls through to stale/no_pr classification.
	prMap := PRMap{}
	heads, err := client.FetchPullRequestHeads(ctx, owner, repo)
	if err != nil {
		slog.Warn("pull request index unavailable, classification degrades to stale/no_pr",
			"owner", owner, "repo", repo, "error", err)
	} else {
		prMap = BuildPRMap(heads)
		slog.Info("pull request index built", "owner", owner, "repo", repo, "heads", len(prMap))
	}

	for page := 1; ; page++ {
		if stop.Load() {
			s.finish(session, model.FetchStateCancelled, "")
			return
		}
		if ctx.Err() != nil {
			s.finish(session, model.FetchStateCancelled, "")
			return
		}

		refs, err := client.ListBranchPage(ctx, owner, repo, page, s.pageSize)
		if errors.Is(err, driven.ErrUnauthorized) {
			slog.Error("branch fetch forbidden; token may need the repo scope or SSO authorization",
				"owner", owner, "repo", repo, "page", page, "error", err)
			s.finish(session, model.FetchStateAborted, "authorization failed: "+err.Error())
			return
		}
		if err != nil {
			slog.Error("branch page fetch failed", "owner", owner, "repo", repo, "page", page, "error", err)
			s.finish(session, model.FetchStateAborted, err.Error())
			return
		}
		if len(refs) == 0 {
			slog.Info("pagination complete", "owner", owner, "repo", repo, "pages", page-1)
			s.finish(session, model.FetchStateCompleted, "")
			return
		}

		records, skipped := s.resolvePage(ctx, client, session, refs, prMap)
		session.AppendPage(records, skipped)

		slog.Info("branch page merged",
			"owner", owner,
			"repo", repo,
			"page", page,
			"branches", len(records),
			"skipped", skipped,
		)

		select {
		case <-time.After(s.pageDelay):
		case <-ctx.Done():
		}
	}
}

// resolvePage fetches tip-commit metadata for every branch in a page and
// classifies the ones that resolve. A failed commit lookup skips that single
// branch and never aborts the page.
func (s *FetchService) resolvePage(
	ctx context.Context,
	client driven.GitHubClient,
	session *Session,
	refs []model.BranchRef,
	prMap PRMap,
) ([]model.BranchRecord, int) {
	now := time.Now().UTC()
	records := make([]model.BranchRecord, 0, len(refs))
	skipped := 0

	for _, ref := range refs {
		meta, err := client.FetchTipCommit(ctx, session.Owner(), session.Repo(), ref.CommitSHA)
		if err != nil {
			slog.Warn("skipping branch, tip commit lookup failed",
				"branch", ref.Name, "error", err)
			skipped++
			continue
		}

		authorName := meta.AuthorName
		if authorName == "" {
			authorName = "Unknown"
		}
		authorEmail := meta.AuthorEmail
		if authorEmail == "" {
			authorEmail = "Unknown"
		}

		records = append(records, model.BranchRecord{
			Name:        ref.Name,
			LastCommit:  meta.Date,
			Category:    Classify(ref.Name, meta.Date, prMap, now, session.StaleDays()),
			AuthorName:  authorName,
			AuthorEmail: authorEmail,
		})
	}

	return records, skipped
}

// finish transitions the session and records its summary in the history
// store. Recording uses a detached context so a shutdown that cancelled the
// fetch does not also lose the summary.
func (s *FetchService) finish(session *Session, state model.FetchState, errText string) {
	session.finish(state, errText, time.Now().UTC())

	status := session.Status()
	slog.Info("fetch finished",
		"owner", status.Owner,
		"repo", status.Repo,
		"state", string(state),
		"branches", status.Branches,
		"pages", status.Pages,
		"skipped", status.Skipped,
	)

	if s.sessions == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.sessions.Record(ctx, session.Summary()); err != nil {
		slog.Error("recording fetch session failed", "error", err)
	}
}
