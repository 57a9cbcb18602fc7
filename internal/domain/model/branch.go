package model

import (
	"strings"
	"time"
)

// BranchRecord is one classified branch row. Records are append-only: once
// merged into a session they are never mutated, only removed after a
// confirmed deletion.
type BranchRecord struct {
	Name        string
	LastCommit  time.Time
	Category    Category
	AuthorName  string
	AuthorEmail string
}

// LastCommitDate returns the commit date formatted for display (UTC, day
// precision). Staleness comparisons use the full LastCommit timestamp.
func (b BranchRecord) LastCommitDate() string {
	return b.LastCommit.UTC().Format("2006-01-02")
}

// AuthorRef is an (author, email, branch) triple, the unit the per-category
// groups and notification bodies are built from.
type AuthorRef struct {
	AuthorName  string
	AuthorEmail string
	Branch      string
}

// BranchRef is a branch as it appears in a fetched page, before its tip
// commit has been resolved.
type BranchRef struct {
	Name      string
	CommitSHA string
}

// CommitMeta is the author metadata of a branch's tip commit.
type CommitMeta struct {
	AuthorName  string
	AuthorEmail string
	Date        time.Time
}

// PullRequestHead is the slice of a pull request the classifier cares about:
// which branch it originates from and whether it is still open.
type PullRequestHead struct {
	Ref   string
	State string // "open" or "closed" as reported by the API.
}

// protectedBranches are never deletion candidates, regardless of category.
var protectedBranches = map[string]struct{}{
	"main":        {},
	"master":      {},
	"develop":     {},
	"development": {},
}

// IsProtectedBranch reports whether name is a protected branch. The check is
// case-insensitive.
func IsProtectedBranch(name string) bool {
	_, ok := protectedBranches[strings.ToLower(name)]
	return ok
}
