package application_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/branchpulse/branchpulse/internal/application"
	"github.com/branchpulse/branchpulse/internal/domain/model"
)

// mockMailer captures the last send.
type mockMailer struct {
	enabled    bool
	err        error
	recipients []string
	subject    string
	body       string
}

func (m *mockMailer) Send(_ context.Context, recipients []string, subject, htmlBody string) error {
	if m.err != nil {
		return m.err
	}
	m.recipients = recipients
	m.subject = subject
	m.body = htmlBody
	return nil
}

func (m *mockMailer) Enabled() bool { return m.enabled }

func notifyClient() *mockGitHubClient {
	commitDate := time.Now().UTC().AddDate(0, 0, -10)
	return &mockGitHubClient{
		branchPages: [][]model.BranchRef{{
			{Name: "feature/x1", CommitSHA: "x1-sha"},
			{Name: "feature/x2", CommitSHA: "x2-sha"},
			{Name: "feature/y", CommitSHA: "y-sha"},
			{Name: "feature/z", CommitSHA: "z-sha"},
		}},
		commits: map[string]model.CommitMeta{
			"x1-sha": {AuthorName: "Alice", AuthorEmail: "110465400+alice@users.noreply.example.com", Date: commitDate},
			"x2-sha": {AuthorName: "Alice", AuthorEmail: "110465400+alice@users.noreply.example.com", Date: commitDate},
			"y-sha":  {AuthorName: "Bob", AuthorEmail: "bob@example.com", Date: commitDate},
			"z-sha":  {AuthorName: "Carol Legacy", AuthorEmail: "", Date: commitDate},
		},
	}
}

func fetchedNotify(t *testing.T, client *mockGitHubClient, mailer *mockMailer) *application.NotifyService {
	t.Helper()

	fetchSvc := newFetchService(client, nil)
	status := runFetchToEnd(t, fetchSvc, defaultParams())
	require.Equal(t, model.FetchStateCompleted, status.State)

	if mailer == nil {
		return application.NewNotifyService(fetchSvc, nil)
	}
	return application.NewNotifyService(fetchSvc, mailer)
}

func TestMentionHandle(t *testing.T) {
	tests := []struct {
		name         string
		email        string
		author       string
		wantHandle   string
		wantUsername bool
	}{
		{"noreply address yields username", "110465400+alice@users.noreply.example.com", "Alice", "alice", true},
		{"noreply with hyphenated username", "42+dev-one@users.noreply.example.com", "Dev One", "dev-one", true},
		{"plain email used verbatim", "bob@example.com", "Bob", "bob@example.com", false},
		{"missing email falls back to name", "", "Carol Legacy", "Carol Legacy", false},
		{"unknown email falls back to name", "Unknown", "Carol Legacy", "Carol Legacy", false},
		{"noreply without id prefix is not anonymized", "alice@users.noreply.example.com", "Alice", "alice@users.noreply.example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handle, isUsername := application.MentionHandle(tt.email, tt.author)
			assert.Equal(t, tt.wantHandle, handle)
			assert.Equal(t, tt.wantUsername, isUsername)
		})
	}
}

func TestNotify_IssueGroupsByIdentity(t *testing.T) {
	client := notifyClient()
	notify := fetchedNotify(t, client, nil)

	selection := []string{"feature/x1", "feature/y", "feature/x2", "feature/z"}
	result, err := notify.Notify(context.Background(), selection, application.ViaIssue)
	require.NoError(t, err)

	assert.Equal(t, application.ViaIssue, result.Via)
	assert.Equal(t, 3, result.Groups)
	assert.NotEmpty(t, result.IssueURL)

	require.Len(t, client.issues, 1)
	issue := client.issues[0]

	assert.Equal(t, "Branch cleanup: 4 branches need attention", issue.Title)
	assert.Equal(t, []string{"branch-cleanup"}, issue.Labels)
	assert.Equal(t, []string{"alice"}, issue.Assignees, "only derived usernames are assignable")

	assert.Contains(t, issue.Body, "### @alice")
	assert.Contains(t, issue.Body, "### bob@example.com")
	assert.Contains(t, issue.Body, "### Carol Legacy")
	assert.Contains(t, issue.Body, "| `feature/x1` |")
	assert.Contains(t, issue.Body, "| `feature/x2` |")
	assert.Contains(t, issue.Body, "stale threshold: 90 days")
}

func TestNotify_EmptySelection(t *testing.T) {
	notify := fetchedNotify(t, notifyClient(), nil)

	_, err := notify.Notify(context.Background(), nil, application.ViaIssue)
	assert.ErrorIs(t, err, application.ErrEmptySelection)

	// Names that resolve to nothing are equivalent to an empty selection.
	_, err = notify.Notify(context.Background(), []string{"ghost"}, application.ViaIssue)
	assert.ErrorIs(t, err, application.ErrEmptySelection)
}

func TestNotify_UnknownChannel(t *testing.T) {
	notify := fetchedNotify(t, notifyClient(), nil)

	_, err := notify.Notify(context.Background(), []string{"feature/y"}, "pager")
	assert.ErrorContains(t, err, "unknown notification channel")
}

func TestNotify_EmailRecipients(t *testing.T) {
	mailer := &mockMailer{enabled: true}
	notify := fetchedNotify(t, notifyClient(), mailer)

	selection := []string{"feature/x1", "feature/x2", "feature/y"}
	result, err := notify.Notify(context.Background(), selection, application.ViaEmail)
	require.NoError(t, err)

	assert.Equal(t, application.ViaEmail, result.Via)
	assert.Equal(t, 2, result.Groups)
	// One address per identity, duplicates collapsed.
	assert.Equal(t, []string{"110465400+alice@users.noreply.example.com", "bob@example.com"}, result.Recipients)
	assert.Equal(t, result.Recipients, mailer.recipients)
	assert.Equal(t, "Branch cleanup notice for org/repo", mailer.subject)
	assert.Contains(t, mailer.body, "feature/y")
}

func TestNotify_EmailRequiresTransport(t *testing.T) {
	notify := fetchedNotify(t, notifyClient(), &mockMailer{enabled: false})

	_, err := notify.Notify(context.Background(), []string{"feature/y"}, application.ViaEmail)
	assert.ErrorContains(t, err, "SMTP")
}

func TestNotify_EmailNeedsUsableAddress(t *testing.T) {
	notify := fetchedNotify(t, notifyClient(), &mockMailer{enabled: true})

	// feature/z has no author email, only a display name.
	_, err := notify.Notify(context.Background(), []string{"feature/z"}, application.ViaEmail)
	assert.ErrorContains(t, err, "usable author email")
}

func TestPreviewIssueBody(t *testing.T) {
	notify := fetchedNotify(t, notifyClient(), nil)

	body, err := notify.PreviewIssueBody([]string{"feature/x1", "feature/y"})
	require.NoError(t, err)
	assert.Contains(t, body, "### @alice")
	assert.Contains(t, body, "### bob@example.com")

	_, err = notify.PreviewIssueBody(nil)
	assert.ErrorIs(t, err, application.ErrEmptySelection)
}

func TestBuildIssueBody_TablePerGroup(t *testing.T) {
	groups := []application.IdentityGroup{
		{
			Handle:     "alice",
			IsUsername: true,
			Email:      "110465400+alice@users.noreply.example.com",
			Branches: []model.BranchRecord{
				{Name: "old/one", LastCommit: time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC), Category: model.CategoryStale},
			},
		},
		{
			Handle: "bob@example.com",
			Email:  "bob@example.com",
			Branches: []model.BranchRecord{
				{Name: "old/two", LastCommit: time.Date(2025, 3, 2, 9, 0, 0, 0, time.UTC), Category: model.CategoryNoPR},
			},
		},
	}

	body := application.BuildIssueBody(90, groups)

	assert.Contains(t, body, "stale threshold: 90 days")
	assert.Contains(t, body, "### @alice")
	assert.Contains(t, body, "| `old/one` | 2025-01-15 | stale |")
	assert.Contains(t, body, "### bob@example.com")
	assert.Contains(t, body, "| `old/two` | 2025-03-02 | no_pr |")
}

func TestBuildEmailBody(t *testing.T) {
	groups := []application.IdentityGroup{
		{
			Handle: "bob@example.com",
			Email:  "bob@example.com",
			Branches: []model.BranchRecord{
				{Name: "old/two", LastCommit: time.Date(2025, 3, 2, 9, 0, 0, 0, time.UTC), Category: model.CategoryNoPR},
			},
		},
	}

	body := application.BuildEmailBody(groups)

	assert.Contains(t, body, "<h3>Branches needing cleanup (1)</h3>")
	assert.Contains(t, body, "<h4>bob@example.com</h4>")
	assert.Contains(t, body, "old/two (no_pr, last commit 2025-03-02)")
}
