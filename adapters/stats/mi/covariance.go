package mi

import (
	"math"

	"infodyn/domain/core"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/mathext"
)

// factor is the Cholesky factorisation of one covariance block, taken on
// the correlation scale. Working with correlations makes every log-det
// invariant to per-variable rescaling; the dropped ln(σ²) terms cancel in
// the mutual information combination.
type factor struct {
	chol   mat.Cholesky
	scale  []float64 // 1/σ per dimension
	logDet float64   // ln det R
}

func factorize(block string, cov mat.Symmetric, maxCond float64) (*factor, error) {
	d := cov.SymmetricDim()
	f := &factor{scale: make([]float64, d)}

	for i := 0; i < d; i++ {
		v := cov.At(i, i)
		if !(v > 0) || math.IsInf(v, 0) {
			return nil, core.NewNumericalError(block, core.ErrNonPositiveVar)
		}
		f.scale[i] = 1 / math.Sqrt(v)
	}

	corr := mat.NewSymDense(d, nil)
	for i := 0; i < d; i++ {
		corr.SetSym(i, i, 1)
		for j := i + 1; j < d; j++ {
			corr.SetSym(i, j, cov.At(i, j)*f.scale[i]*f.scale[j])
		}
	}

	if ok := f.chol.Factorize(corr); !ok {
		return nil, core.NewNumericalError(block, core.ErrNotPositiveDef)
	}
	if c := f.chol.Cond(); math.IsNaN(c) || c > maxCond {
		return nil, core.NewNumericalError(block, core.ErrIllConditioned)
	}

	f.logDet = f.chol.LogDet()
	if math.IsNaN(f.logDet) || math.IsInf(f.logDet, 0) {
		return nil, core.NewNumericalError(block, core.ErrNonFiniteEstimate)
	}
	return f, nil
}

// quadForm returns u'R⁻¹u for the standardised deviation u = (z-μ)/σ.
func (f *factor) quadForm(dev []float64) (float64, error) {
	u := mat.NewVecDense(len(dev), nil)
	for i, v := range dev {
		u.SetVec(i, v*f.scale[i])
	}
	var w mat.VecDense
	if err := f.chol.SolveVecTo(&w, u); err != nil {
		return 0, core.NewNumericalError("local value", core.ErrIllConditioned)
	}
	return mat.Dot(u, &w), nil
}

// logDetBias is E[ln det Σ̂] - ln det Σ for the unbiased covariance of d
// Gaussian dimensions from n samples, (n-1)Σ̂ being Wishart(Σ, n-1).
func logDetBias(d, n int) float64 {
	bias := float64(d) * math.Log(2/float64(n-1))
	for i := 1; i <= d; i++ {
		bias += mathext.Digamma(float64(n-i) / 2)
	}
	return bias
}
