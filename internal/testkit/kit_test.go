package testkit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"
)

func TestGenerator_Deterministic(t *testing.T) {
	a := NewGenerator(7).AR1(50, 0.5)
	b := NewGenerator(7).AR1(50, 0.5)
	assert.Equal(t, a, b)
}

func TestGenerator_CorrelatedHasRequestedCorrelation(t *testing.T) {
	x, y := NewGenerator(1).Correlated(20000, 0.6)
	xs := make([]float64, len(x))
	ys := make([]float64, len(y))
	for i := range x {
		xs[i], ys[i] = x[i][0], y[i][0]
	}
	assert.InDelta(t, 0.6, stat.Correlation(xs, ys, nil), 0.03)
}

func TestGenerator_AR1LagOneCorrelation(t *testing.T) {
	x := NewGenerator(2).AR1(20000, 0.8)
	assert.InDelta(t, 0.8, stat.Correlation(x[:len(x)-1], x[1:], nil), 0.03)
}

func TestScaleAndColumn(t *testing.T) {
	rows := Scale([][]float64{{1, 2}, {3, 4}}, 10, 100)
	assert.Equal(t, [][]float64{{10, 200}, {30, 400}}, rows)

	col := Column([]float64{1, 2, 3})
	require.Len(t, col, 3)
	assert.Equal(t, []float64{2}, col[1])
}

func TestTestKitAdapters(t *testing.T) {
	kit := NewTestKit()
	assert.NotNil(t, kit.RNGAdapter())
	assert.Same(t, kit.ResultRepository(), kit.ResultRepository())
}
