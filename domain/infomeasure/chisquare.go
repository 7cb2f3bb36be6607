package infomeasure

import (
	"gonum.org/v1/gonum/stat/distuv"
)

// ChiSquareDistribution is the analytic null distribution of a Gaussian
// mutual information estimate. Under independence 2N·I is asymptotically
// chi-square with DegreesOfFreedom = dX·dY. The approximation degrades for
// small N; callers should not rely on it when N is of the order of dX·dY.
//
// Values are immutable once constructed.
type ChiSquareDistribution struct {
	ActualValue      float64 `json:"actual_value"`       // MI estimate, nats
	DegreesOfFreedom int     `json:"degrees_of_freedom"` // dX·dY
	Scale            float64 `json:"scale"`              // 2N
	Statistic        float64 `json:"statistic"`          // Scale·ActualValue
	PValue           float64 `json:"p_value"`            // P(χ² >= Statistic)
}

// NewChiSquareDistribution builds the null descriptor for an MI estimate in
// nats computed from n observations with the given degrees of freedom.
func NewChiSquareDistribution(actualValue float64, n, degreesOfFreedom int) *ChiSquareDistribution {
	scale := 2 * float64(n)
	statistic := scale * actualValue

	pValue := 1.0
	if degreesOfFreedom > 0 && statistic > 0 {
		pValue = distuv.ChiSquared{K: float64(degreesOfFreedom)}.Survival(statistic)
	}

	return &ChiSquareDistribution{
		ActualValue:      actualValue,
		DegreesOfFreedom: degreesOfFreedom,
		Scale:            scale,
		Statistic:        statistic,
		PValue:           pValue,
	}
}

func (d *ChiSquareDistribution) ObservedValue() float64 { return d.ActualValue }

func (d *ChiSquareDistribution) Probability() float64 { return d.PValue }

func (d *ChiSquareDistribution) Significant(alpha float64) bool {
	return d.PValue < alpha
}

// CriticalValue returns the MI value (nats) above which an estimate would be
// significant at level alpha.
func (d *ChiSquareDistribution) CriticalValue(alpha float64) float64 {
	if d.DegreesOfFreedom <= 0 || d.Scale <= 0 {
		return 0
	}
	q := distuv.ChiSquared{K: float64(d.DegreesOfFreedom)}.Quantile(1 - alpha)
	return q / d.Scale
}

// Mean is the expected MI (nats) under the null: dof / 2N. This is also the
// leading-order bias of the plug-in estimator.
func (d *ChiSquareDistribution) Mean() float64 {
	if d.Scale <= 0 {
		return 0
	}
	return float64(d.DegreesOfFreedom) / d.Scale
}
