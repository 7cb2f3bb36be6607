package infomeasure

import (
	"github.com/montanaflynn/stats"
)

// EmpiricalDistribution is a null distribution built from surrogate
// estimates, e.g. by permuting one variable relative to the other.
type EmpiricalDistribution struct {
	ActualValue float64                 `json:"actual_value"`
	Surrogates  []float64               `json:"surrogates,omitempty"`
	PValue      float64                 `json:"p_value"`
	ZScore      float64                 `json:"z_score"`
	Summary     NullDistributionSummary `json:"summary"`
}

// NewEmpiricalDistribution computes the p-value as the proportion of
// surrogates greater than or equal to the actual value.
func NewEmpiricalDistribution(actualValue float64, surrogates []float64) *EmpiricalDistribution {
	d := &EmpiricalDistribution{
		ActualValue: actualValue,
		Surrogates:  surrogates,
		PValue:      1.0,
	}
	if len(surrogates) == 0 {
		return d
	}

	extremeCount := 0
	for _, s := range surrogates {
		if s >= actualValue {
			extremeCount++
		}
	}
	d.PValue = float64(extremeCount) / float64(len(surrogates))

	mean, _ := stats.Mean(surrogates)
	// the sample deviation of a single surrogate is 0/0
	stdDev := 0.0
	if len(surrogates) > 1 {
		stdDev, _ = stats.StandardDeviationSample(surrogates)
	}
	min, _ := stats.Min(surrogates)
	max, _ := stats.Max(surrogates)
	p95, _ := stats.Percentile(surrogates, 95)
	p99, _ := stats.Percentile(surrogates, 99)

	d.Summary = NullDistributionSummary{
		Mean:         mean,
		StdDev:       stdDev,
		Min:          min,
		Max:          max,
		Percentile95: p95,
		Percentile99: p99,
	}
	if stdDev > 0 {
		d.ZScore = (actualValue - mean) / stdDev
	}

	return d
}

func (d *EmpiricalDistribution) ObservedValue() float64 { return d.ActualValue }

func (d *EmpiricalDistribution) Probability() float64 { return d.PValue }

func (d *EmpiricalDistribution) Significant(alpha float64) bool {
	return d.PValue < alpha
}
