package mi

import (
	"fmt"
	"math"

	"infodyn/domain/core"

	"gonum.org/v1/gonum/mat"
)

// checkObservations validates a pair of aligned sample sets and returns the
// width of each.
func checkObservations(x, y [][]float64) (dimX, dimY int, err error) {
	if len(x) == 0 || len(y) == 0 {
		return 0, 0, core.ErrEmptyInput
	}
	if len(x) != len(y) {
		return 0, 0, core.NewDimMismatchError("sample count of y", len(y), len(x))
	}

	dimX, dimY = len(x[0]), len(y[0])
	if dimX == 0 || dimY == 0 {
		return 0, 0, core.NewInvalidInputError("zero-width samples (dX=%d, dY=%d)", dimX, dimY)
	}

	for i := range x {
		if len(x[i]) != dimX {
			return 0, 0, core.NewDimMismatchError("width of x sample", len(x[i]), dimX)
		}
		if len(y[i]) != dimY {
			return 0, 0, core.NewDimMismatchError("width of y sample", len(y[i]), dimY)
		}
		if !allFinite(x[i]) || !allFinite(y[i]) {
			return 0, 0, fmt.Errorf("%w at sample %d", core.ErrNonFinite, i)
		}
	}

	return dimX, dimY, nil
}

func allFinite(v []float64) bool {
	for _, f := range v {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}

// jointMatrix lays out (x, y) rows side by side as an N x (dX+dY) matrix.
func jointMatrix(x, y [][]float64, dimX, dimY int) *mat.Dense {
	n := len(x)
	d := dimX + dimY
	data := make([]float64, n*d)
	for i := 0; i < n; i++ {
		copy(data[i*d:i*d+dimX], x[i])
		copy(data[i*d+dimX:(i+1)*d], y[i])
	}
	return mat.NewDense(n, d, data)
}
