// Package embedding turns time series into (past state, next value) sample
// pairs for storage and transfer measures.
package embedding

import (
	"fmt"
	"math"

	"infodyn/domain/core"

	"github.com/montanaflynn/stats"
)

// Params describes a uniform history embedding: k past values spaced tau
// steps apart.
type Params struct {
	K   int `json:"k" yaml:"k" validate:"min=1"`
	Tau int `json:"tau" yaml:"tau" validate:"min=1"`
}

// DefaultParams returns k=1, tau=1
func DefaultParams() Params {
	return Params{K: 1, Tau: 1}
}

// Validate checks that both k and tau are positive
func (p Params) Validate() error {
	if p.K < 1 {
		return fmt.Errorf("%w: history length k must be >= 1, got %d", core.ErrInvalidEmbedding, p.K)
	}
	if p.Tau < 1 {
		return fmt.Errorf("%w: embedding delay tau must be >= 1, got %d", core.ErrInvalidEmbedding, p.Tau)
	}
	return nil
}

// Span is the number of steps consumed before the first next value
func (p Params) Span() int {
	return (p.K-1)*p.Tau + 1
}

// NumPairs returns how many pairs a series of the given length yields
func (p Params) NumPairs(length int) int {
	if n := length - p.Span(); n > 0 {
		return n
	}
	return 0
}

// Embed builds one pair per time step t from (k-1)·tau to T-2:
//
//	history[i] = x[t], x[t-tau], ..., x[t-(k-1)·tau]   (each lag contributes d values)
//	next[i]    = x[t+1]
//
// series is T rows of d variables.
func Embed(series [][]float64, p Params) (history, next [][]float64, err error) {
	if err := p.Validate(); err != nil {
		return nil, nil, err
	}
	dim, err := checkSeries(series)
	if err != nil {
		return nil, nil, err
	}

	n := p.NumPairs(len(series))
	if n == 0 {
		return nil, nil, fmt.Errorf("%w: series of length %d is too short for k=%d, tau=%d",
			core.ErrInvalidEmbedding, len(series), p.K, p.Tau)
	}

	start := (p.K - 1) * p.Tau
	history = make([][]float64, n)
	next = make([][]float64, n)
	for i := 0; i < n; i++ {
		t := start + i
		row := make([]float64, 0, p.K*dim)
		for lag := 0; lag < p.K; lag++ {
			row = append(row, series[t-lag*p.Tau]...)
		}
		history[i] = row
		next[i] = append([]float64(nil), series[t+1]...)
	}
	return history, next, nil
}

// EmbedScalar embeds a univariate series
func EmbedScalar(series []float64, p Params) (history, next [][]float64, err error) {
	rows := make([][]float64, len(series))
	for i, v := range series {
		rows[i] = []float64{v}
	}
	return Embed(rows, p)
}

// Normalise returns a copy of series with every variable rescaled to zero
// mean and unit sample standard deviation. A constant variable is an error.
func Normalise(series [][]float64) ([][]float64, error) {
	dim, err := checkSeries(series)
	if err != nil {
		return nil, err
	}

	out := make([][]float64, len(series))
	for i := range series {
		out[i] = make([]float64, dim)
	}

	col := make([]float64, len(series))
	for j := 0; j < dim; j++ {
		for i := range series {
			col[i] = series[i][j]
		}
		mean, err := stats.Mean(col)
		if err != nil {
			return nil, core.NewInvalidInputError("variable %d: %v", j, err)
		}
		sd, err := stats.StandardDeviationSample(col)
		if err != nil {
			return nil, core.NewInvalidInputError("variable %d: %v", j, err)
		}
		if sd == 0 || math.IsNaN(sd) {
			return nil, core.NewInvalidInputError("variable %d is constant", j)
		}
		for i := range series {
			out[i][j] = (series[i][j] - mean) / sd
		}
	}
	return out, nil
}

func checkSeries(series [][]float64) (int, error) {
	if len(series) == 0 {
		return 0, core.ErrEmptyInput
	}
	dim := len(series[0])
	if dim == 0 {
		return 0, core.NewInvalidInputError("series has zero variables")
	}
	for t, row := range series {
		if len(row) != dim {
			return 0, core.NewDimMismatchError(fmt.Sprintf("variables at step %d", t), len(row), dim)
		}
		for _, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return 0, fmt.Errorf("%w at step %d", core.ErrNonFinite, t)
			}
		}
	}
	return dim, nil
}
