package application

import "errors"

var (
	// ErrFetchActive is returned when an operation that requires a static
	// store (deletion, notification, starting another fetch) is attempted
	// while the background fetch unit is still running.
	ErrFetchActive = errors.New("a fetch is currently running")

	// ErrNoSession is returned when deletion, notification, or export is
	// attempted before any fetch session exists.
	ErrNoSession = errors.New("no fetch session")

	// ErrEmptySelection is returned when a deletion or notification request
	// resolves to zero branches. It is rejected before any network call.
	ErrEmptySelection = errors.New("no branches selected")
)
