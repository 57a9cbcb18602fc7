package model

// Category is the lifecycle category assigned to a branch. Every branch gets
// exactly one.
type Category string

const (
	CategoryStale    Category = "stale"
	CategoryOpenPR   Category = "open_pr"
	CategoryClosedPR Category = "closed_pr"
	CategoryNoPR     Category = "no_pr"
)

// Categories lists all categories in display order.
var Categories = []Category{CategoryStale, CategoryOpenPR, CategoryClosedPR, CategoryNoPR}

// FetchState represents the lifecycle of a background fetch unit.
type FetchState string

const (
	// FetchStateIdle means no fetch has been started for the session yet.
	FetchStateIdle FetchState = "idle"
	// FetchStateRunning means the background unit is actively paging.
	FetchStateRunning FetchState = "running"
	// FetchStateCompleted means pagination terminated cleanly (empty page).
	FetchStateCompleted FetchState = "completed"
	// FetchStateCancelled means the user stopped the fetch cooperatively.
	FetchStateCancelled FetchState = "cancelled"
	// FetchStateAborted means an authorization or transport error ended the
	// fetch. Partial results remain visible.
	FetchStateAborted FetchState = "aborted"
)

// Active reports whether the background unit is still running. Deletion and
// notification are only permitted when the state is not active.
func (s FetchState) Active() bool {
	return s == FetchStateRunning
}
