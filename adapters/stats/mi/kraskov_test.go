package mi

import (
	"math"
	"testing"

	"infodyn/domain/core"
	"infodyn/internal/testkit"
	"infodyn/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKraskov_CloseToGaussianOnGaussianData(t *testing.T) {
	x, y := testkit.NewGenerator(21).Correlated(2000, 0.6)

	k := NewKraskov(DefaultKraskovConfig())
	require.NoError(t, k.SetObservations(x, y))
	ksg, err := k.ComputeAverageMI()
	require.NoError(t, err)

	g := newGaussian(t, x, y)
	gauss, err := g.ComputeAverageMI()
	require.NoError(t, err)

	assert.InDelta(t, -0.5*math.Log(1-0.36), ksg, 0.05)
	assert.InDelta(t, gauss, ksg, 0.05)
}

func TestKraskov_Independent(t *testing.T) {
	gen := testkit.NewGenerator(22)
	k := NewKraskov(DefaultKraskovConfig())
	require.NoError(t, k.SetObservations(gen.Independent(1000, 2), gen.Independent(1000, 1)))

	got, err := k.ComputeAverageMI()
	require.NoError(t, err)
	assert.Less(t, math.Abs(got), 0.03)
}

func TestKraskov_LocalValuesAverageToMI(t *testing.T) {
	x, y := testkit.NewGenerator(23).Correlated(300, 0.4)
	k := NewKraskov(KraskovConfig{K: 3, Normalise: false})
	require.NoError(t, k.SetObservations(x, y))

	avg, err := k.ComputeAverageMI()
	require.NoError(t, err)
	locals, err := k.ComputeLocalValues()
	require.NoError(t, err)

	sum := 0.0
	for _, v := range locals {
		sum += v
	}
	assert.InDelta(t, avg, sum/float64(len(locals)), 1e-12)
	assert.Equal(t, 300, k.NumObservations())
}

func TestKraskov_NormalisationRemovesScale(t *testing.T) {
	x, y := testkit.NewGenerator(24).Correlated(500, 0.5)

	a := NewKraskov(DefaultKraskovConfig())
	require.NoError(t, a.SetObservations(x, y))
	b := NewKraskov(DefaultKraskovConfig())
	require.NoError(t, b.SetObservations(testkit.Scale(x, 250), y))

	ma, err := a.ComputeAverageMI()
	require.NoError(t, err)
	mb, err := b.ComputeAverageMI()
	require.NoError(t, err)
	assert.InDelta(t, ma, mb, 1e-3)
}

func TestKraskov_Validation(t *testing.T) {
	gen := testkit.NewGenerator(25)

	err := NewKraskov(KraskovConfig{K: 0}).SetObservations(gen.Independent(10, 1), gen.Independent(10, 1))
	assert.ErrorIs(t, err, core.ErrInvalidOption)

	err = NewKraskov(KraskovConfig{K: 4}).SetObservations(gen.Independent(4, 1), gen.Independent(4, 1))
	assert.ErrorIs(t, err, core.ErrTooFewSamples)

	err = NewKraskov(DefaultKraskovConfig()).SetObservations([][]float64{{1}}, [][]float64{{1}, {2}})
	assert.ErrorIs(t, err, core.ErrDimMismatch)

	_, err = NewKraskov(DefaultKraskovConfig()).ComputeAverageMI()
	assert.ErrorIs(t, err, core.ErrNoObservations)
}

func TestKraskov_IsolatedFromCallerMutation(t *testing.T) {
	x, y := testkit.NewGenerator(26).Correlated(50, 0.5)
	k := NewKraskov(KraskovConfig{K: 2})
	require.NoError(t, k.SetObservations(x, y))

	x[0][0] = 1e9
	got, err := k.ComputeAverageMI()
	require.NoError(t, err)

	fresh := NewKraskov(KraskovConfig{K: 2})
	xs, ys := testkit.NewGenerator(26).Correlated(50, 0.5)
	require.NoError(t, fresh.SetObservations(xs, ys))
	want, err := fresh.ComputeAverageMI()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestKraskov_HasNoAnalyticNull(t *testing.T) {
	var est ports.MutualInfoEstimator = NewKraskov(DefaultKraskovConfig())
	_, analytic := est.(ports.AnalyticNullDistributionComputer)
	_, local := est.(ports.LocalValuesComputer)
	assert.False(t, analytic)
	assert.True(t, local)
}
