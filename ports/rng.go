package ports

import (
	"context"
	"math/rand"
)

// RNGPort provides seeded random number generation for deterministic operations
type RNGPort interface {
	// SeededStream creates a deterministic random number generator for a named operation
	SeededStream(ctx context.Context, name string, seed int64) (*rand.Rand, error)

	// Stream derives a deterministic RNG stream for one run and one posterior method,
	// so each method's draws are independent of the order methods are sampled in
	Stream(ctx context.Context, runID, method string, baseSeed int64) (*rand.Rand, error)
}
