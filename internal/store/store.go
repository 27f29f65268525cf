// Package store persists run records: one row per reconciliation
// invocation, carrying status and a counts-only summary. Identifier
// values, raw or hashed, are never written here.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/crestline-group/recon-cli/internal/model"
)

// ErrRunNotFound is returned by lookups and updates that match no run.
var ErrRunNotFound = eris.New("store: run not found")

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status model.RunStatus `json:"status,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for run records.
type Store interface {
	CreateRun(ctx context.Context) (*model.Run, error)
	CompleteRun(ctx context.Context, runID string, summary *model.RunSummary) error
	FailRun(ctx context.Context, runID string, runErr string) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	Migrate(ctx context.Context) error
	Close() error
}
