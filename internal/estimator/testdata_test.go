package estimator

import (
	"testing"

	"github.com/GoSim-25-26J-441/hpsweep/pkg/utils"
)

// blobs returns two well separated gaussian clusters, one per class
func blobs(n int, seed int64) ([][]float64, []int) {
	rng := utils.NewRandSource(seed)
	X := make([][]float64, 0, 2*n)
	y := make([]int, 0, 2*n)
	for i := 0; i < n; i++ {
		X = append(X, []float64{rng.NormFloat64(-2, 1), rng.NormFloat64(-2, 1), rng.NormFloat64(0, 1)})
		y = append(y, 0)
		X = append(X, []float64{rng.NormFloat64(2, 1), rng.NormFloat64(2, 1), rng.NormFloat64(0, 1)})
		y = append(y, 1)
	}
	return X, y
}

func accuracy(t *testing.T, est Estimator, X [][]float64, y []int) float64 {
	t.Helper()
	pred := est.Predict(X)
	correct := 0
	for i := range y {
		if pred[i] == y[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(y))
}

func equalFloats(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
