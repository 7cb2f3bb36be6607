package mi

import (
	"fmt"
	"math"
	"sort"

	"infodyn/domain/core"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/mathext"
)

// KraskovConfig holds the options of the KSG estimator
type KraskovConfig struct {
	// K is the number of nearest neighbours in the joint space
	K int `json:"k" yaml:"k"`
	// Normalise standardises every column before neighbour search
	Normalise bool `json:"normalise" yaml:"normalise"`
}

// DefaultKraskovConfig returns K=4 with normalisation on
func DefaultKraskovConfig() KraskovConfig {
	return KraskovConfig{K: 4, Normalise: true}
}

// Validate checks the options
func (c KraskovConfig) Validate() error {
	if c.K < 1 {
		return fmt.Errorf("%w: KSG neighbour count must be >= 1, got %d", core.ErrInvalidOption, c.K)
	}
	return nil
}

// Kraskov estimates mutual information with the Kraskov-Stögbauer-Grassberger
// nearest-neighbour estimator (algorithm 1, max-norm):
//
//	I(X;Y) = ψ(k) + ψ(N) - <ψ(nx+1) + ψ(ny+1)>
//
// It makes no distributional assumption and therefore has no analytic null
// distribution; use a permutation test for significance. Neighbour search is
// brute force, O(N²·d).
type Kraskov struct {
	cfg KraskovConfig

	x, y   [][]float64
	locals []float64
	mi     float64
}

// NewKraskov creates a KSG estimator with the given options
func NewKraskov(cfg KraskovConfig) *Kraskov {
	return &Kraskov{cfg: cfg}
}

// SetObservations stores (optionally standardised) copies of the samples
func (k *Kraskov) SetObservations(x, y [][]float64) error {
	if err := k.cfg.Validate(); err != nil {
		return err
	}
	dimX, dimY, err := checkObservations(x, y)
	if err != nil {
		return err
	}
	if len(x) <= k.cfg.K {
		return core.NewTooFewSamplesError(len(x), k.cfg.K)
	}

	cx, cy := copyRows(x), copyRows(y)
	if k.cfg.Normalise {
		if err := standardiseColumns(cx, dimX); err != nil {
			return err
		}
		if err := standardiseColumns(cy, dimY); err != nil {
			return err
		}
	}

	k.x, k.y = cx, cy
	k.locals = nil
	k.mi = 0
	return nil
}

// ComputeAverageMI returns the KSG estimate in nats. Small negative values
// are possible under independence and are returned as is.
func (k *Kraskov) ComputeAverageMI() (float64, error) {
	if err := k.compute(); err != nil {
		return 0, err
	}
	return k.mi, nil
}

// ComputeLocalValues returns ψ(k) + ψ(N) - ψ(nx+1) - ψ(ny+1) per sample
func (k *Kraskov) ComputeLocalValues() ([]float64, error) {
	if err := k.compute(); err != nil {
		return nil, err
	}
	return append([]float64(nil), k.locals...), nil
}

// NumObservations returns N for the current observations
func (k *Kraskov) NumObservations() int {
	return len(k.x)
}

func (k *Kraskov) compute() error {
	if k.x == nil {
		return core.ErrNoObservations
	}
	if k.locals != nil {
		return nil
	}

	n := len(k.x)
	base := mathext.Digamma(float64(k.cfg.K)) + mathext.Digamma(float64(n))

	locals := make([]float64, n)
	dists := make([]float64, 0, n-1)
	dx := make([]float64, n)
	dy := make([]float64, n)

	sum := 0.0
	for i := 0; i < n; i++ {
		dists = dists[:0]
		for j := 0; j < n; j++ {
			dx[j] = maxNorm(k.x[i], k.x[j])
			dy[j] = maxNorm(k.y[i], k.y[j])
			if j != i {
				dists = append(dists, math.Max(dx[j], dy[j]))
			}
		}
		sort.Float64s(dists)
		eps := dists[k.cfg.K-1]

		nx, ny := 0, 0
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			if dx[j] < eps {
				nx++
			}
			if dy[j] < eps {
				ny++
			}
		}

		locals[i] = base - mathext.Digamma(float64(nx+1)) - mathext.Digamma(float64(ny+1))
		sum += locals[i]
	}

	avg := sum / float64(n)
	if math.IsNaN(avg) || math.IsInf(avg, 0) {
		return core.NewNumericalError("KSG estimate", core.ErrNonFiniteEstimate)
	}
	k.locals = locals
	k.mi = avg
	return nil
}

func maxNorm(a, b []float64) float64 {
	m := 0.0
	for i := range a {
		if d := math.Abs(a[i] - b[i]); d > m {
			m = d
		}
	}
	return m
}

func copyRows(rows [][]float64) [][]float64 {
	out := make([][]float64, len(rows))
	for i, r := range rows {
		out[i] = append([]float64(nil), r...)
	}
	return out
}

// standardiseColumns rescales each column in place to zero mean and unit
// sample standard deviation. Constant columns are only centred.
func standardiseColumns(rows [][]float64, dim int) error {
	col := make([]float64, len(rows))
	for j := 0; j < dim; j++ {
		for i := range rows {
			col[i] = rows[i][j]
		}
		mean, err := stats.Mean(col)
		if err != nil {
			return core.NewInvalidInputError("column %d: %v", j, err)
		}
		sd, err := stats.StandardDeviationSample(col)
		if err != nil {
			return core.NewInvalidInputError("column %d: %v", j, err)
		}
		if sd == 0 {
			sd = 1
		}
		for i := range rows {
			rows[i][j] = (rows[i][j] - mean) / sd
		}
	}
	return nil
}
