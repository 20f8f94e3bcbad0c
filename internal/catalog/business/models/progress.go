package models

import "time"

type RunStatus string

const (
	RunSyncing   RunStatus = "syncing"
	RunCompleted RunStatus = "completed"
	RunStopped   RunStatus = "stopped"
	RunError     RunStatus = "error"
)

func (s RunStatus) Terminal() bool {
	return s == RunCompleted || s == RunStopped || s == RunError
}

// SyncProgress is the live state of one sync run, keyed by connection ID.
type SyncProgress struct {
	RunID        string    `json:"runId"`
	ConnectionID string    `json:"connectionId"`
	Total        int       `json:"total"`
	Synced       int       `json:"synced"`
	Errors       int       `json:"errors"`
	Current      string    `json:"current"`
	Status       RunStatus `json:"status"`
	Message      string    `json:"message,omitempty"`
	ShouldStop   bool      `json:"shouldStop"`
	StartedAt    time.Time `json:"startedAt"`
}

// ProgressDelta is added to a SyncProgress atomically.
type ProgressDelta struct {
	Synced int
	Errors int
}
