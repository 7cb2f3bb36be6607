package ports

import (
	"infodyn/domain/infomeasure"
)

// MutualInfoEstimator is the capability every mutual information strategy
// provides: accept aligned samples of two vector variables and estimate the
// average mutual information between them in nats.
//
// Implementations are not safe for concurrent use. SetObservations followed
// by a compute call must be treated as one unit by callers sharing an
// instance.
type MutualInfoEstimator interface {
	// SetObservations replaces the current samples. x and y must have the
	// same number of rows; each has a fixed width.
	SetObservations(x, y [][]float64) error
	// ComputeAverageMI returns the estimate for the current samples in nats.
	ComputeAverageMI() (float64, error)
	// NumObservations returns the sample count currently set.
	NumObservations() int
}

// AnalyticNullDistributionComputer is implemented by estimators whose null
// distribution is known in closed form, so significance needs no resampling.
type AnalyticNullDistributionComputer interface {
	ComputeSignificance() (*infomeasure.ChiSquareDistribution, error)
}

// LocalValuesComputer is implemented by estimators that can attribute the
// average to individual samples.
type LocalValuesComputer interface {
	ComputeLocalValues() ([]float64, error)
}
