package domain

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrNoQuote       = errors.New("no resolvable price in quote")
	ErrSweepDisabled = errors.New("automatic sweeping is disabled")
	ErrSweepRunning  = errors.New("a sweep is already running")
	ErrRateLimited   = errors.New("rate limited")
	ErrLockHeld      = errors.New("lock already held")

	// ErrPersistence marks storage failures on the commit path, so callers
	// can tell a failed write from a failed scrape.
	ErrPersistence = errors.New("persistence failure")
)
