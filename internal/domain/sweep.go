package domain

import "time"

// SweepFailure records a single game's failure during a sweep.
type SweepFailure struct {
	GameID string
	Title  string
	Stage  string // "scrape" or "persist"
	Reason string
}

// SweepSummary is the final report of one reconciliation sweep. A sweep
// always runs to completion and reports counts even under partial failure.
type SweepSummary struct {
	StartedAt  time.Time
	FinishedAt time.Time
	Processed  int
	Updated    int
	Skipped    int
	Failures   []SweepFailure
}
