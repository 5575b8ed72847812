package ports

import (
	"context"

	"goposterior/domain/core"
	"goposterior/domain/run"
)

// RunRepository defines the interface for persisted analysis runs
type RunRepository interface {
	// Save stores a run; saving an existing ID replaces it
	Save(ctx context.Context, r *run.Run) error

	// Get retrieves a run by ID, or a not-found error
	Get(ctx context.Context, id core.RunID) (*run.Run, error)

	// List returns the newest runs first; limit <= 0 returns all
	List(ctx context.Context, limit int) ([]*run.Run, error)
}
