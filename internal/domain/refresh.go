package domain

import "time"

// RefreshState tracks per-source archive bookkeeping.
type RefreshState struct {
	ID              int64     `db:"id"`
	Source          string    `db:"source"`
	LastRefreshedAt time.Time `db:"last_refreshed_at"`
	TotalArchived   int64     `db:"total_archived"`
}

// RefreshStats holds statistics about one refresh run.
type RefreshStats struct {
	Fetched   int
	New       int
	Updated   int
	Skipped   int
	Errors    int
	Published int
	Duration  time.Duration
}
