package state

import (
	"io"
	"time"
)

// RunStore handles run history persistence.
type RunStore interface {
	RecordRun(r *Run) error
	GetRun(id string) (*Run, error)
	ListRuns(limit int, status RunStatus) ([]Run, error)
	PurgeOldRuns(olderThan time.Duration) (int64, error)
}

// Migrator handles database schema migrations.
type Migrator interface {
	Migrate() error
}

// HistoryStore is everything the CLI needs from the history backend.
type HistoryStore interface {
	io.Closer
	Migrator
	RunStore
}

var (
	_ HistoryStore = (*DB)(nil)
	_ RunStore     = (*DB)(nil)
)
