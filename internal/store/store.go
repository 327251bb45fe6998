// Package store persists completed simulation runs.
package store

import (
	"context"
	"time"
)

// RunRecord is one persisted run: the model and strategy identity plus
// the full trace.
type RunRecord struct {
	ID         string
	Model      string
	Strategy   string
	Cycles     int
	CohortSize float64
	Effect     float64
	States     []string
	Dist       [][]float64
	Increments []float64
	CreatedAt  time.Time
}

// RunSummary is the listing view of a persisted run.
type RunSummary struct {
	ID        string
	Model     string
	Strategy  string
	Cycles    int
	Effect    float64
	CreatedAt time.Time
}

// RunStore persists and retrieves simulation runs. The engine never
// touches a store; persistence is the caller's side of the model
// boundary.
type RunStore interface {
	// SaveRun persists a run and returns its assigned ID.
	SaveRun(ctx context.Context, rec RunRecord) (string, error)

	// ListRuns returns summaries of all runs, newest first.
	ListRuns(ctx context.Context) ([]RunSummary, error)

	// GetRun returns the full record for a run, or nil if not found.
	GetRun(ctx context.Context, id string) (*RunRecord, error)

	// Close releases the underlying resources.
	Close() error
}
