// Package infomeasure holds the value types produced by information-measure
// estimators: unit conversions and the null distributions used to judge
// whether an estimate is statistically significant.
package infomeasure

import (
	"math"
)

// Units names the logarithm base an information value is expressed in
type Units string

const (
	UnitNats Units = "nats"
	UnitBits Units = "bits"
)

// NatsToBits converts a value in nats to bits
func NatsToBits(v float64) float64 {
	return v / math.Ln2
}

// BitsToNats converts a value in bits to nats
func BitsToNats(v float64) float64 {
	return v * math.Ln2
}

// MeasurementDistribution describes the distribution of an estimator's value
// under the null hypothesis of no relationship, together with the observed
// value it is compared against.
type MeasurementDistribution interface {
	// ObservedValue is the estimate computed from the real data
	ObservedValue() float64
	// Probability is P(null >= observed)
	Probability() float64
	// Significant reports whether the p-value is below alpha
	Significant(alpha float64) bool
}

// NullDistributionSummary provides key statistics about a sampled null distribution
type NullDistributionSummary struct {
	Mean         float64 `json:"mean"`
	StdDev       float64 `json:"std_dev"`
	Min          float64 `json:"min"`
	Max          float64 `json:"max"`
	Percentile95 float64 `json:"percentile_95"`
	Percentile99 float64 `json:"percentile_99"`
}
