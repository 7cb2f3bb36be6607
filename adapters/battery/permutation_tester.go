package battery

import (
	"context"
	"fmt"
	"math/rand"

	"infodyn/domain/core"
	"infodyn/domain/infomeasure"
	"infodyn/internal"
	"infodyn/ports"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

const (
	// DefaultPermutations is used when a caller asks for zero surrogates
	DefaultPermutations = 1000
	// DefaultWorkers bounds concurrent surrogate evaluations
	DefaultWorkers = 4

	permutationOperation = "mi-permutation"
)

// EstimatorFactory returns a fresh, unshared estimator for one surrogate
type EstimatorFactory func() ports.MutualInfoEstimator

// PermutationTester builds an empirical null distribution for a mutual
// information estimate by shuffling the rows of y relative to x. It works
// with any estimator, including those without an analytic null.
type PermutationTester struct {
	rngPort ports.RNGPort
	workers int
	runID   string
	logger  *internal.Logger
}

// NewPermutationTester creates a tester drawing one RNG stream per surrogate
func NewPermutationTester(rngPort ports.RNGPort) *PermutationTester {
	return &PermutationTester{
		rngPort: rngPort,
		workers: DefaultWorkers,
		logger:  internal.DefaultLogger.WithComponent("PermutationTester"),
	}
}

// SetWorkers configures how many surrogates are evaluated at once
func (pt *PermutationTester) SetWorkers(n int) {
	if n < 1 {
		n = 1
	}
	pt.workers = n
}

// SetRunID namespaces the RNG streams, so two runs with the same seed but
// different IDs draw different permutations.
func (pt *PermutationTester) SetRunID(id string) {
	pt.runID = id
}

// SetLogger replaces the tester's logger
func (pt *PermutationTester) SetLogger(l *internal.Logger) {
	pt.logger = l.WithComponent("PermutationTester")
}

// Test evaluates numPermutations surrogates and compares them with the
// observed estimate. Surrogate i always uses the same permutation for a
// given seed, independent of scheduling. The p-value is the proportion of
// surrogates greater than or equal to observed.
func (pt *PermutationTester) Test(
	ctx context.Context,
	factory EstimatorFactory,
	x, y [][]float64,
	observed float64,
	numPermutations int,
	seed int64,
) (*infomeasure.EmpiricalDistribution, error) {
	if factory == nil {
		return nil, core.NewInvalidInputError("estimator factory is nil")
	}
	if len(x) == 0 || len(x) != len(y) {
		return nil, core.NewDimMismatchError("permutation sample count", len(y), len(x))
	}
	if numPermutations < 0 {
		return nil, core.NewInvalidInputError("number of permutations must be >= 0, got %d", numPermutations)
	}
	if numPermutations == 0 {
		numPermutations = DefaultPermutations
	}

	surrogates := make([]float64, numPermutations)
	sem := semaphore.NewWeighted(int64(pt.workers))
	g, gctx := errgroup.WithContext(ctx)

	for i := 0; i < numPermutations; i++ {
		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}
		index := i
		g.Go(func() error {
			defer sem.Release(1)

			rng, err := pt.rngPort.Stream(gctx, pt.runID, permutationOperation, index, seed)
			if err != nil {
				return err
			}
			value, err := surrogate(factory(), x, y, rng)
			if err != nil {
				return fmt.Errorf("surrogate %d: %w", index, err)
			}
			surrogates[index] = value
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		pt.logger.Warn("aborted after error: %v", err)
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dist := infomeasure.NewEmpiricalDistribution(observed, surrogates)
	pt.logger.Debug("%d surrogates, observed=%.6f, null mean=%.6f, p=%.4f",
		numPermutations, observed, dist.Summary.Mean, dist.PValue)
	return dist, nil
}

// surrogate evaluates the estimator on x against a row permutation of y
func surrogate(est ports.MutualInfoEstimator, x, y [][]float64, rng *rand.Rand) (float64, error) {
	shuffled := make([][]float64, len(y))
	copy(shuffled, y)

	// Fisher-Yates shuffle
	for i := len(shuffled) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}

	if err := est.SetObservations(x, shuffled); err != nil {
		return 0, err
	}
	return est.ComputeAverageMI()
}
