package rng

import (
	"context"
	"math/rand"
)

// SeededAdapter implements ports.RNGPort on math/rand sources, whose
// sequence for a given seed is fixed across platforms and Go releases.
type SeededAdapter struct{}

// NewSeededAdapter creates a new seeded RNG adapter
func NewSeededAdapter() *SeededAdapter {
	return &SeededAdapter{}
}

// SeededStream creates a deterministic random number generator for a named operation
func (r *SeededAdapter) SeededStream(ctx context.Context, name string, seed int64) (*rand.Rand, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return rand.New(rand.NewSource(seed)), nil
}

// Stream creates a deterministic RNG stream for a specific run and method
func (r *SeededAdapter) Stream(ctx context.Context, runID, method string, baseSeed int64) (*rand.Rand, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	seed := baseSeed
	if runID != "" {
		seed = int64(hashString(runID)) + seed
	}
	if method != "" {
		seed = int64(hashString(method)) + seed
	}
	return rand.New(rand.NewSource(seed)), nil
}

// hashString creates a simple hash for deterministic seeding
func hashString(s string) uint32 {
	var hash uint32 = 5381
	for _, c := range s {
		hash = ((hash << 5) + hash) + uint32(c) // djb2
	}
	return hash
}
