// Package estimator implements the binary classifiers a sweep trains:
// CART trees, random forests, bagging, gradient boosting in two flavours,
// and a Pegasos SVM. Labels are 0/1 and PredictProba returns P(y=1).
package estimator

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// Estimator is a trainable binary classifier
type Estimator interface {
	Fit(X [][]float64, y []int) error
	PredictProba(X [][]float64) []float64
	Predict(X [][]float64) []int
}

// OOBScorer is implemented by bagged ensembles that keep out-of-bag votes
type OOBScorer interface {
	OOBScore() (float64, error)
}

// Params is a read-only view of one hyperparameter assignment
type Params interface {
	Get(name string) (any, bool)
	Keys() []string
}

// MapParams adapts a plain map to Params
type MapParams map[string]any

func (m MapParams) Get(name string) (any, bool) {
	v, ok := m[name]
	return v, ok
}

func (m MapParams) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var (
	// ErrNotFitted is returned when scoring an estimator before Fit
	ErrNotFitted = errors.New("estimator: not fitted")
	// ErrNoBootstrap is returned by OOBScore when bootstrap sampling was off
	ErrNoBootstrap = errors.New("estimator: out-of-bag score requires bootstrap sampling")
	// ErrNoOOBSamples is returned when every row landed in every bag
	ErrNoOOBSamples = errors.New("estimator: no out-of-bag samples")
)

// InvalidParamError reports an unknown hyperparameter or a bad value
type InvalidParamError struct {
	Family string
	Param  string
	Value  any
	Reason string
}

func (e *InvalidParamError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("%s: parameter %s: %s", e.Family, e.Param, e.Reason)
	}
	return fmt.Sprintf("%s: parameter %s=%v: %s", e.Family, e.Param, e.Value, e.Reason)
}

// InvalidInputError reports a malformed training set
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return "invalid training input: " + e.Reason
}

// checkXY validates a training set: non-empty, rectangular, finite, 0/1 labels
func checkXY(X [][]float64, y []int) error {
	if len(X) == 0 {
		return &InvalidInputError{Reason: "no rows"}
	}
	if len(X) != len(y) {
		return &InvalidInputError{Reason: fmt.Sprintf("%d rows but %d labels", len(X), len(y))}
	}
	width := len(X[0])
	if width == 0 {
		return &InvalidInputError{Reason: "no features"}
	}
	for i, row := range X {
		if len(row) != width {
			return &InvalidInputError{Reason: fmt.Sprintf("row %d has %d features, want %d", i, len(row), width)}
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return &InvalidInputError{Reason: fmt.Sprintf("row %d feature %d is not finite", i, j)}
			}
		}
		if y[i] != 0 && y[i] != 1 {
			return &InvalidInputError{Reason: fmt.Sprintf("row %d label %d is not 0 or 1", i, y[i])}
		}
	}
	return nil
}

// classifyProba thresholds probabilities at 0.5
func classifyProba(proba []float64) []int {
	out := make([]int, len(proba))
	for i, p := range proba {
		if p > 0.5 {
			out[i] = 1
		}
	}
	return out
}

// memberSeed derives the seed of the i-th ensemble member. RandSource treats
// zero as "seed from the clock", so it is skipped.
func memberSeed(seed int64, i int) int64 {
	s := seed + int64(i)
	if s == 0 {
		s = math.MinInt64
	}
	return s
}
