// Package mi implements mutual information estimators for continuous vector
// variables. All values are reported in nats.
package mi

import (
	"fmt"
	"math"

	"infodyn/domain/core"
	"infodyn/domain/infomeasure"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// DefaultMaxConditionNumber bounds the condition number of any correlation
// block. Beyond it the block is treated as singular.
const DefaultMaxConditionNumber = 1e12

// GaussianConfig holds the tuning options of the Gaussian estimator
type GaussianConfig struct {
	// BiasCorrection subtracts the analytic finite-sample bias of each
	// log-determinant. Corrected estimates can be slightly negative.
	BiasCorrection bool `json:"bias_correction" yaml:"bias_correction"`
	// MaxConditionNumber above which a covariance block is rejected
	MaxConditionNumber float64 `json:"max_condition_number" yaml:"max_condition_number"`
}

// DefaultGaussianConfig returns the estimator defaults: no bias correction
func DefaultGaussianConfig() GaussianConfig {
	return GaussianConfig{
		BiasCorrection:     false,
		MaxConditionNumber: DefaultMaxConditionNumber,
	}
}

// Validate checks the options
func (c GaussianConfig) Validate() error {
	if math.IsNaN(c.MaxConditionNumber) || c.MaxConditionNumber <= 1 {
		return fmt.Errorf("%w: max condition number must be > 1, got %v", core.ErrInvalidOption, c.MaxConditionNumber)
	}
	return nil
}

// Gaussian estimates mutual information between two jointly Gaussian
// vector variables X and Y from their covariance structure:
//
//	I(X;Y) = ½ ln( det ΣX · det ΣY / det Σ )
//
// Under independence, 2N·I is asymptotically chi-square with dX·dY degrees
// of freedom, which gives significance without resampling.
//
// A Gaussian is not safe for concurrent use.
type Gaussian struct {
	cfg GaussianConfig

	dimX int
	dimY int
	n    int

	cov   *mat.SymDense // joint covariance of (X,Y), unbiased
	means []float64     // nil when the covariance was supplied directly
	rows  *mat.Dense    // joint samples, nil when the covariance was supplied directly

	// derived from cov, reset whenever observations change
	factors  *blockFactors
	plainMI  float64
	computed bool
}

type blockFactors struct {
	x, y, joint *factor
}

// NewGaussian creates a Gaussian estimator with the given options
func NewGaussian(cfg GaussianConfig) *Gaussian {
	return &Gaussian{cfg: cfg}
}

// SetObservations computes the joint covariance of the concatenated (x, y)
// samples. It fails with core.ErrInvalidInput when shapes disagree, values
// are not finite, the options are invalid, or N <= dX+dY.
func (g *Gaussian) SetObservations(x, y [][]float64) error {
	if err := g.cfg.Validate(); err != nil {
		return err
	}
	dimX, dimY, err := checkObservations(x, y)
	if err != nil {
		return err
	}
	n := len(x)
	if n <= dimX+dimY {
		return core.NewTooFewSamplesError(n, dimX+dimY)
	}

	rows := jointMatrix(x, y, dimX, dimY)

	// CovarianceMatrix centres each column on its mean before accumulating
	var cov mat.SymDense
	stat.CovarianceMatrix(&cov, rows, nil)

	means := make([]float64, dimX+dimY)
	col := make([]float64, n)
	for j := range means {
		mat.Col(col, j, rows)
		means[j] = stat.Mean(col, nil)
	}

	g.reset()
	g.dimX, g.dimY, g.n = dimX, dimY, n
	g.cov = &cov
	g.means = means
	g.rows = rows
	return nil
}

// SetCovariance supplies the joint covariance directly, with X occupying the
// first dimX dimensions, as if estimated from n observations. Local values
// are unavailable afterwards since no samples are known.
func (g *Gaussian) SetCovariance(cov mat.Symmetric, dimX, n int) error {
	if err := g.cfg.Validate(); err != nil {
		return err
	}
	if cov == nil {
		return core.ErrEmptyInput
	}
	d := cov.SymmetricDim()
	if dimX < 1 || dimX >= d {
		return core.NewInvalidInputError("dimX %d must split a %dx%d covariance", dimX, d, d)
	}
	if n <= d {
		return core.NewTooFewSamplesError(n, d)
	}

	c := mat.NewSymDense(d, nil)
	for i := 0; i < d; i++ {
		for j := i; j < d; j++ {
			v := cov.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w at covariance (%d,%d)", core.ErrNonFinite, i, j)
			}
			c.SetSym(i, j, v)
		}
	}

	g.reset()
	g.dimX, g.dimY, g.n = dimX, d-dimX, n
	g.cov = c
	return nil
}

func (g *Gaussian) reset() {
	g.cov = nil
	g.means = nil
	g.rows = nil
	g.factors = nil
	g.plainMI = 0
	g.computed = false
}

// ComputeAverageMI returns the estimate in nats. It fails with
// core.ErrNumerical when any covariance block is singular, not positive
// definite or ill-conditioned; the value is never clamped.
func (g *Gaussian) ComputeAverageMI() (float64, error) {
	plain, err := g.computePlain()
	if err != nil {
		return 0, err
	}
	if !g.cfg.BiasCorrection {
		return plain, nil
	}
	return plain - g.biasOffset(), nil
}

// ComputeSignificance returns the analytic null distribution of the
// estimate: P(χ²(dX·dY) >= 2N·I). The statistic always uses the
// uncorrected estimate, for which the chi-square law holds. It is an
// asymptotic approximation and should not be trusted for very small N.
func (g *Gaussian) ComputeSignificance() (*infomeasure.ChiSquareDistribution, error) {
	plain, err := g.computePlain()
	if err != nil {
		return nil, err
	}
	return infomeasure.NewChiSquareDistribution(plain, g.n, g.dimX*g.dimY), nil
}

// ComputeLocalValues returns the pointwise mutual information
// ln p(x,y)/(p(x)p(y)) of every observation under the fitted Gaussians.
// The locals average exactly to ComputeAverageMI.
func (g *Gaussian) ComputeLocalValues() ([]float64, error) {
	if _, err := g.computePlain(); err != nil {
		return nil, err
	}
	if g.rows == nil {
		return nil, fmt.Errorf("%w: covariance was supplied without samples", core.ErrNoLocalValues)
	}

	d := g.dimX + g.dimY
	offset := g.plainMI
	if g.cfg.BiasCorrection {
		offset -= g.biasOffset()
	}

	locals := make([]float64, g.n)
	dev := make([]float64, d)
	for i := 0; i < g.n; i++ {
		for j := 0; j < d; j++ {
			dev[j] = g.rows.At(i, j) - g.means[j]
		}
		qJ, err := g.factors.joint.quadForm(dev)
		if err != nil {
			return nil, err
		}
		qX, err := g.factors.x.quadForm(dev[:g.dimX])
		if err != nil {
			return nil, err
		}
		qY, err := g.factors.y.quadForm(dev[g.dimX:])
		if err != nil {
			return nil, err
		}
		locals[i] = offset + 0.5*(qX+qY-qJ)
	}
	return locals, nil
}

// computePlain factorises the three covariance blocks once per observation
// set and caches the uncorrected estimate.
func (g *Gaussian) computePlain() (float64, error) {
	if g.cov == nil {
		return 0, core.ErrNoObservations
	}
	if g.computed {
		return g.plainMI, nil
	}

	d := g.dimX + g.dimY
	maxCond := g.cfg.MaxConditionNumber

	fx, err := factorize("X block", g.cov.SliceSym(0, g.dimX), maxCond)
	if err != nil {
		return 0, err
	}
	fy, err := factorize("Y block", g.cov.SliceSym(g.dimX, d), maxCond)
	if err != nil {
		return 0, err
	}
	fj, err := factorize("joint", g.cov, maxCond)
	if err != nil {
		return 0, err
	}

	plain := 0.5 * (fx.logDet + fy.logDet - fj.logDet)
	if math.IsNaN(plain) || math.IsInf(plain, 0) {
		return 0, core.NewNumericalError("estimate", core.ErrNonFiniteEstimate)
	}

	g.factors = &blockFactors{x: fx, y: fy, joint: fj}
	g.plainMI = plain
	g.computed = true
	return plain, nil
}

// biasOffset is the expected excess of the plug-in estimate over the true
// MI, ½(bX + bY - bJ) with b the log-det bias of each block.
func (g *Gaussian) biasOffset() float64 {
	bx := logDetBias(g.dimX, g.n)
	by := logDetBias(g.dimY, g.n)
	bj := logDetBias(g.dimX+g.dimY, g.n)
	return 0.5 * (bx + by - bj)
}

// Dims returns the widths of X and Y for the current observations
func (g *Gaussian) Dims() (dimX, dimY int) {
	return g.dimX, g.dimY
}

// NumObservations returns N for the current observations
func (g *Gaussian) NumObservations() int {
	return g.n
}

