package application

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/branchpulse/branchpulse/internal/domain/model"
	"github.com/branchpulse/branchpulse/internal/domain/port/driven"
)

// Delivery channels for Notify.
const (
	ViaIssue = "issue"
	ViaEmail = "email"
)

// NotifyResult describes the artifact produced by a notification pass.
type NotifyResult struct {
	Via        string
	IssueURL   string
	Recipients []string
	Groups     int
}

// IdentityGroup is one responsible identity and the selected branches
// attributed to it.
type IdentityGroup struct {
	Handle     string // Mention handle or raw identity string.
	IsUsername bool   // True when Handle is a platform username usable for @mention/assignment.
	Email      string // Raw author email, "" when unavailable.
	Branches   []model.BranchRecord
}

// NotifyService groups selected branches by responsible identity and emits a
// single summary artifact: a GitHub issue or an email.
type NotifyService struct {
	fetch  *FetchService
	mailer driven.Mailer
}

// NewNotifyService creates a NotifyService. mailer may be nil when no SMTP
// transport is configured; the email channel then reports itself disabled.
func NewNotifyService(fetch *FetchService, mailer driven.Mailer) *NotifyService {
	return &NotifyService{fetch: fetch, mailer: mailer}
}

// noreplyPattern matches GitHub's anonymized commit addresses,
// id+username@users.noreply.<domain>. The embedded username doubles as a
// mention handle.
var noreplyPattern = regexp.MustCompile(`^\d+\+([A-Za-z0-9-]+)@users\.noreply\.`)

// MentionHandle derives the identity handle for an author. Anonymized
// noreply addresses yield the embedded username; any other email is used
// verbatim; a missing email falls back to the display name.
func MentionHandle(email, name string) (handle string, isUsername bool) {
	if match := noreplyPattern.FindStringSubmatch(email); match != nil {
		return match[1], true
	}
	if email == "" || email == "Unknown" {
		return name, false
	}
	return email, false
}

// Notify emits one notification artifact for the selected branches. The
// selection must be non-empty after resolving against the active store;
// otherwise ErrEmptySelection is returned before any network call.
func (n *NotifyService) Notify(ctx context.Context, names []string, via string) (*NotifyResult, error) {
	session, client, err := n.fetch.StaticSession()
	if err != nil {
		return nil, err
	}

	groups := n.groupSelection(session, names)
	if len(groups) == 0 {
		return nil, ErrEmptySelection
	}

	switch via {
	case ViaIssue:
		return n.notifyIssue(ctx, client, session, groups)
	case ViaEmail:
		return n.notifyEmail(ctx, session, groups)
	default:
		return nil, fmt.Errorf("unknown notification channel %q", via)
	}
}

// PreviewIssueBody builds the issue body a notification pass would produce
// for the selection, without contacting the hosting API. The same
// preconditions apply: an inactive fetch and a non-empty selection.
func (n *NotifyService) PreviewIssueBody(names []string) (string, error) {
	session, _, err := n.fetch.StaticSession()
	if err != nil {
		return "", err
	}

	groups := n.groupSelection(session, names)
	if len(groups) == 0 {
		return "", ErrEmptySelection
	}

	return BuildIssueBody(session.StaleDays(), groups), nil
}

// groupSelection resolves the selected names against the active store and
// groups them by responsible identity, preserving first-seen order.
func (n *NotifyService) groupSelection(session *Session, names []string) []IdentityGroup {
	var groups []IdentityGroup
	index := make(map[string]int)
	seen := make(map[string]struct{}, len(names))

	for _, name := range names {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}

		record, ok := session.Lookup(name)
		if !ok {
			continue
		}

		handle, isUsername := MentionHandle(record.AuthorEmail, record.AuthorName)
		if i, ok := index[handle]; ok {
			groups[i].Branches = append(groups[i].Branches, record)
			continue
		}

		email := record.AuthorEmail
		if email == "Unknown" {
			email = ""
		}
		index[handle] = len(groups)
		groups = append(groups, IdentityGroup{
			Handle:     handle,
			IsUsername: isUsername,
			Email:      email,
			Branches:   []model.BranchRecord{record},
		})
	}

	return groups
}

func (n *NotifyService) notifyIssue(ctx context.Context, client driven.GitHubClient, session *Session, groups []IdentityGroup) (*NotifyResult, error) {
	total := 0
	var assignees []string
	for _, group := range groups {
		total += len(group.Branches)
		if group.IsUsername {
			assignees = append(assignees, group.Handle)
		}
	}

	req := driven.IssueRequest{
		Title:     fmt.Sprintf("Branch cleanup: %d branches need attention", total),
		Body:      BuildIssueBody(session.StaleDays(), groups),
		Labels:    []string{"branch-cleanup"},
		Assignees: assignees,
	}

	url, err := client.CreateIssue(ctx, session.Owner(), session.Repo(), req)
	if err != nil {
		return nil, fmt.Errorf("creating cleanup issue: %w", err)
	}

	slog.Info("cleanup issue created",
		"owner", session.Owner(),
		"repo", session.Repo(),
		"url", url,
		"groups", len(groups),
		"branches", total,
	)

	return &NotifyResult{Via: ViaIssue, IssueURL: url, Groups: len(groups)}, nil
}

func (n *NotifyService) notifyEmail(ctx context.Context, session *Session, groups []IdentityGroup) (*NotifyResult, error) {
	if n.mailer == nil || !n.mailer.Enabled() {
		return nil, fmt.Errorf("email notification requires SMTP configuration")
	}

	var recipients []string
	seen := make(map[string]struct{})
	for _, group := range groups {
		if group.Email == "" {
			continue
		}
		if _, dup := seen[group.Email]; dup {
			continue
		}
		seen[group.Email] = struct{}{}
		recipients = append(recipients, group.Email)
	}
	if len(recipients) == 0 {
		return nil, fmt.Errorf("no selected branch has a usable author email")
	}

	subject := fmt.Sprintf("Branch cleanup notice for %s/%s", session.Owner(), session.Repo())
	if err := n.mailer.Send(ctx, recipients, subject, BuildEmailBody(groups)); err != nil {
		return nil, fmt.Errorf("sending cleanup email: %w", err)
	}

	slog.Info("cleanup email sent",
		"owner", session.Owner(),
		"repo", session.Repo(),
		"recipients", len(recipients),
		"groups", len(groups),
	)

	return &NotifyResult{Via: ViaEmail, Recipients: recipients, Groups: len(groups)}, nil
}

// BuildIssueBody renders the markdown issue body: one table per identity
// group, mentioning platform usernames where one could be derived.
func BuildIssueBody(staleDays int, groups []IdentityGroup) string {
	var b strings.Builder

	b.WriteString("The following branches were flagged by the branch dashboard ")
	fmt.Fprintf(&b, "(stale threshold: %d days). Please delete or update them.\n", staleDays)

	for _, group := range groups {
		b.WriteString("\n### ")
		if group.IsUsername {
			b.WriteString("@")
		}
		b.WriteString(group.Handle)
		b.WriteString("\n\n")
		b.WriteString("| Branch | Last commit | Category |\n")
		b.WriteString("| --- | --- | --- |\n")
		for _, record := range group.Branches {
			fmt.Fprintf(&b, "| `%s` | %s | %s |\n",
				record.Name, record.LastCommitDate(), record.Category)
		}
	}

	return b.String()
}

// BuildEmailBody renders the HTML email body, one list section per identity.
func BuildEmailBody(groups []IdentityGroup) string {
	total := 0
	for _, group := range groups {
		total += len(group.Branches)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<h3>Branches needing cleanup (%d)</h3>", total)
	for _, group := range groups {
		fmt.Fprintf(&b, "<h4>%s</h4><ul>", group.Handle)
		for _, record := range group.Branches {
			fmt.Fprintf(&b, "<li>%s (%s, last commit %s)</li>",
				record.Name, record.Category, record.LastCommitDate())
		}
		b.WriteString("</ul>")
	}
	return b.String()
}
