package rng

import (
	"context"
	"math/rand"

	"infodyn/ports"
)

// indexStride spreads surrogate indices apart in seed space
const indexStride = 1_000_003

// SeededAdapter implements ports.RNGPort with deterministic math/rand sources
type SeededAdapter struct{}

// NewSeededAdapter creates a new seeded RNG adapter
func NewSeededAdapter() ports.RNGPort {
	return &SeededAdapter{}
}

// Stream creates the RNG for one surrogate of a run. The same
// (runID, operation, index, baseSeed) always yields the same sequence.
func (r *SeededAdapter) Stream(ctx context.Context, runID, operation string, index int, baseSeed int64) (*rand.Rand, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	seed := baseSeed
	if runID != "" {
		seed = int64(hashString(runID)) + seed
	}
	if operation != "" {
		seed = int64(hashString(operation)) + seed
	}
	seed += int64(index+1) * indexStride
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
