package application

import (
	"sync"
	"time"

	"github.com/branchpulse/branchpulse/internal/domain/model"
)

// Session is the aggregate store for one dashboard fetch session. The flat
// record list, the per-category groups, and the deleted set are all guarded
// by one mutex; the fetch unit appends a whole page inside a single critical
// section so a concurrent reader never observes a half-merged page.
type Session struct {
	owner     string
	repo      string
	staleDays int
	startedAt time.Time

	mu         sync.Mutex
	state      model.FetchState
	records    []model.BranchRecord
	groups     map[model.Category][]model.AuthorRef
	deleted    map[string]struct{}
	pages      int
	skipped    int
	errText    string
	finishedAt time.Time
}

// SessionStatus is a consistent point-in-time view of the session's progress.
type SessionStatus struct {
	Owner     string
	Repo      string
	StaleDays int
	State     model.FetchState
	Branches  int
	Pages     int
	Skipped   int
	Error     string
}

// NewSession creates an empty session in the running state.
func NewSession(owner, repo string, staleDays int, now time.Time) *Session {
	groups := make(map[model.Category][]model.AuthorRef, len(model.Categories))
	for _, category := range model.Categories {
		groups[category] = nil
	}

	return &Session{
		owner:     owner,
		repo:      repo,
		staleDays: staleDays,
		startedAt: now,
		state:     model.FetchStateRunning,
		groups:    groups,
		deleted:   make(map[string]struct{}),
	}
}

// Owner returns the repository owner this session was started for.
func (s *Session) Owner() string { return s.owner }

// Repo returns the repository name this session was started for.
func (s *Session) Repo() string { return s.repo }

// StaleDays returns the staleness threshold the session classifies with.
func (s *Session) StaleDays() int { return s.staleDays }

// AppendPage merges one fully resolved page into the store. Records and
// their category group entries are updated together, atomically per page.
// skipped counts branches whose commit lookup failed and were dropped.
func (s *Session) AppendPage(records []model.BranchRecord, skipped int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, record := range records {
		s.records = append(s.records, record)
		s.groups[record.Category] = append(s.groups[record.Category], model.AuthorRef{
			AuthorName:  record.AuthorName,
			AuthorEmail: record.AuthorEmail,
			Branch:      record.Name,
		})
	}

	s.pages++
	s.skipped += skipped
}

// Snapshot returns the active records in append order. Branches in the
// deleted set never reappear, even if a record with the same name were
// re-appended after deletion.
func (s *Session) Snapshot() []model.BranchRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.activeLocked("")
}

// SnapshotCategory returns the active records of a single category.
func (s *Session) SnapshotCategory(category model.Category) []model.BranchRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.activeLocked(category)
}

func (s *Session) activeLocked(category model.Category) []model.BranchRecord {
	active := make([]model.BranchRecord, 0, len(s.records))
	for _, record := range s.records {
		if _, gone := s.deleted[record.Name]; gone {
			continue
		}
		if category != "" && record.Category != category {
			continue
		}
		active = append(active, record)
	}
	return active
}

// Counts returns the number of active branches per category. Every category
// is present in the result, zero or not.
func (s *Session) Counts() map[model.Category]int {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make(map[model.Category]int, len(model.Categories))
	for _, category := range model.Categories {
		counts[category] = 0
	}
	for _, record := range s.records {
		if _, gone := s.deleted[record.Name]; gone {
			continue
		}
		counts[record.Category]++
	}
	return counts
}

// Lookup returns the active record for a branch name.
func (s *Session) Lookup(name string) (model.BranchRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, gone := s.deleted[name]; gone {
		return model.BranchRecord{}, false
	}
	for _, record := range s.records {
		if record.Name == name {
			return record, true
		}
	}
	return model.BranchRecord{}, false
}

// MarkDeleted removes a branch from the store after a confirmed deletion and
// records it in the deleted set. The record list and its category group are
// updated in the same critical section.
func (s *Session) MarkDeleted(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deleted[name] = struct{}{}

	for i, record := range s.records {
		if record.Name != name {
			continue
		}
		s.records = append(s.records[:i], s.records[i+1:]...)

		group := s.groups[record.Category]
		for j, ref := range group {
			if ref.Branch == name {
				s.groups[record.Category] = append(group[:j], group[j+1:]...)
				break
			}
		}
		break
	}
}

// Status returns a consistent snapshot of the session's progress.
func (s *Session) Status() SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	active := 0
	for _, record := range s.records {
		if _, gone := s.deleted[record.Name]; !gone {
			active++
		}
	}

	return SessionStatus{
		Owner:     s.owner,
		Repo:      s.repo,
		StaleDays: s.staleDays,
		State:     s.state,
		Branches:  active,
		Pages:     s.pages,
		Skipped:   s.skipped,
		Error:     s.errText,
	}
}

// State returns the session's current fetch state.
func (s *Session) State() model.FetchState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// finish transitions the session out of the running state. The first
// transition wins; later calls are ignored.
func (s *Session) finish(state model.FetchState, errText string, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != model.FetchStateRunning {
		return
	}
	s.state = state
	s.errText = errText
	s.finishedAt = now
}

// Summary converts the session into its persisted history form.
func (s *Session) Summary() model.FetchSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	return model.FetchSummary{
		Owner:      s.owner,
		Repo:       s.repo,
		StaleDays:  s.staleDays,
		State:      s.state,
		Branches:   len(s.records),
		Pages:      s.pages,
		Skipped:    s.skipped,
		Error:      s.errText,
		StartedAt:  s.startedAt,
		FinishedAt: s.finishedAt,
	}
}
