package results

import (
	"github.com/google/uuid"

	"layout-verifier/internal/grid"
)

// Status is the lifecycle state of an analysis run.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusRunning   Status = "running"
	StatusPaused    Status = "paused"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Terminal reports whether the status is final.
func (s Status) Terminal() bool {
	switch s {
	case StatusCancelled, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// Run aggregates progress over one requested address set.
type Run struct {
	ID        uuid.UUID      `json:"id"`
	Status    Status         `json:"status"`
	Requested []grid.Address `json:"requested"` // enumeration order
	Succeeded int            `json:"succeeded"` // model-sourced results
	Fallback  int            `json:"fallback"`  // fallback-sourced results
	Failed    int            `json:"failed"`    // per-tile errors recorded
	Completed int            `json:"completed"`
}

// Queued returns the number of addresses without an outcome yet.
func (r Run) Queued() int {
	return len(r.Requested) - r.Completed
}
