package model

import "time"

// FetchSummary is the persisted outcome of one fetch session, recorded when
// the background unit stops for any reason.
type FetchSummary struct {
	ID         int64
	Owner      string
	Repo       string
	StaleDays  int
	State      FetchState
	Branches   int
	Pages      int
	Skipped    int
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}

// DeletionEntry is one audit-log row for a branch deletion attempt.
type DeletionEntry struct {
	ID        int64
	Owner     string
	Repo      string
	Branch    string
	Succeeded bool
	Detail    string
	DeletedAt time.Time
}
