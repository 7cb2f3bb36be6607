package ports

import (
	"context"
	"math/rand"
)

// RNGPort provides seeded random number generation for deterministic operations
type RNGPort interface {
	// Stream creates a deterministic RNG stream for one surrogate of a named run.
	// Surrogates drawn from distinct streams are reproducible regardless of
	// the order workers pick them up in.
	Stream(ctx context.Context, runID, operation string, index int, baseSeed int64) (*rand.Rand, error)
}
