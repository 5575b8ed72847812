package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sort"
	"sync"

	"goposterior/domain/core"
	"goposterior/domain/posterior"
	"goposterior/domain/run"
	apperrors "goposterior/internal/errors"
	"goposterior/ports"
)

// RunRepository implements ports.RunRepository with in-memory storage.
// Runs are copied on the way in and out so callers cannot mutate the ledger.
type RunRepository struct {
	runs  map[core.RunID]*run.Run
	order []core.RunID
	mu    sync.RWMutex
}

// NewRunRepository creates an empty in-memory run ledger
func NewRunRepository() ports.RunRepository {
	return &RunRepository{runs: make(map[core.RunID]*run.Run)}
}

func (s *RunRepository) Save(ctx context.Context, r *run.Run) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r == nil {
		return apperrors.InvalidInput(core.ErrInvalidInput)
	}
	if err := r.Validate(); err != nil {
		return apperrors.InvalidInput(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[r.ID]; !exists {
		s.order = append(s.order, r.ID)
	}
	s.runs[r.ID] = clone(r)
	return nil
}

func (s *RunRepository) Get(ctx context.Context, id core.RunID) (*run.Run, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.runs[id]
	if !ok {
		return nil, apperrors.NotFound("run", fmt.Errorf("%w %s", core.ErrRunNotFound, id))
	}
	return clone(r), nil
}

func (s *RunRepository) List(ctx context.Context, limit int) ([]*run.Run, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*run.Run, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		out = append(out, clone(s.runs[s.order[i]]))
	}
	// Newest insert first, then by creation time for runs saved out of order
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func clone(r *run.Run) *run.Run {
	cp := *r
	cp.Prior = r.Prior.Clone()
	cp.Observation = r.Observation.Clone()
	if r.Results != nil {
		cp.Results = make([]posterior.Result, len(r.Results))
		for i, res := range r.Results {
			cp.Results[i] = res.Clone()
		}
	}
	cp.Densities = slices.Clone(r.Densities)
	cp.Skipped = maps.Clone(r.Skipped)
	cp.Source.Warnings = slices.Clone(r.Source.Warnings)
	return &cp
}
