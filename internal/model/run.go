package model

import "time"

// RunStatus represents the state of a stored generation run.
type RunStatus string

const (
	RunStatusPending  RunStatus = "pending"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// GenerationSpec captures the arguments of a generation run. Together with
// the seed it fully determines the panel.
type GenerationSpec struct {
	Regions   int       `json:"regions"`
	Days      int       `json:"days"`
	StartDate time.Time `json:"start_date"`
	Seed      int64     `json:"seed"`
	Parallel  bool      `json:"parallel,omitempty"`
}

// Run is a persisted generation run: its spec plus bookkeeping.
type Run struct {
	ID        string         `json:"id"`
	Spec      GenerationSpec `json:"spec"`
	Status    RunStatus      `json:"status"`
	Rows      int            `json:"rows"`
	CreatedAt time.Time      `json:"created_at"`
}
