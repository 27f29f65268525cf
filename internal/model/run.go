package model

import "time"

// RunStatus tracks the lifecycle of a recorded reconciliation run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// RunSummary is the persisted digest of a run: counts only, never row data.
type RunSummary struct {
	Sources         []SourceSummary `json:"sources"`
	TotalRows       int             `json:"total_rows"`
	TotalDuplicates int             `json:"total_duplicates"`
	TotalExceptions int             `json:"total_exceptions"`
	Hashed          bool            `json:"hashed"`
}

// Run is one recorded pipeline invocation.
type Run struct {
	ID        string      `json:"id"`
	Status    RunStatus   `json:"status"`
	Summary   *RunSummary `json:"summary,omitempty"`
	Error     string      `json:"error,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}
