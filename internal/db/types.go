package db

import (
	"time"

	"github.com/google/uuid"
)

// Run status values
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// Step status values
const (
	StepStatusCompleted = "completed"
	StepStatusFailed    = "failed"
)

// Run represents a pipeline run record
type Run struct {
	ID           uuid.UUID  `json:"id"`
	Source       string     `json:"source"`
	Sink         string     `json:"sink"`
	Status       string     `json:"status"`
	Fetched      int        `json:"fetched"`
	Rows         int        `json:"rows"`
	Written      int        `json:"written"`
	ErrorMessage *string    `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// RunStats are the counters recorded when a run finishes
type RunStats struct {
	Fetched int
	Rows    int
	Written int
}

// RunStep is one timed stage of a run
type RunStep struct {
	ID           uuid.UUID `json:"id"`
	RunID        uuid.UUID `json:"run_id"`
	Step         string    `json:"step"`
	Status       string    `json:"status"`
	DurationMs   int       `json:"duration_ms"`
	ErrorMessage *string   `json:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
