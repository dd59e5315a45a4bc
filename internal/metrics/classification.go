package metrics

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"
)

// Threshold is the probability above which a row is predicted positive
const Threshold = 0.5

var (
	// ErrEmpty is returned for metrics over zero rows
	ErrEmpty = errors.New("metrics: no rows")
	// ErrSingleClass is returned by AUC when the labels hold only one class
	ErrSingleClass = errors.New("metrics: AUC is undefined when only one class is present")
)

// LengthMismatchError indicates label and prediction slices of different lengths
type LengthMismatchError struct {
	Labels, Predictions int
}

func (e *LengthMismatchError) Error() string {
	return fmt.Sprintf("metrics: %d labels but %d predictions", e.Labels, e.Predictions)
}

func checkLengths(labels, predictions int) error {
	if labels != predictions {
		return &LengthMismatchError{Labels: labels, Predictions: predictions}
	}
	if labels == 0 {
		return ErrEmpty
	}
	return nil
}

// Classify turns probabilities into 0/1 labels with Threshold
func Classify(proba []float64) []int {
	out := make([]int, len(proba))
	for i, p := range proba {
		if p > Threshold {
			out[i] = 1
		}
	}
	return out
}

// Accuracy is the fraction of matching labels
func Accuracy(yTrue, yPred []int) (float64, error) {
	if err := checkLengths(len(yTrue), len(yPred)); err != nil {
		return 0, err
	}
	correct := 0
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(yTrue)), nil
}

// AUC is the area under the ROC curve of scores against 0/1 labels.
// Tied scores share credit.
func AUC(yTrue []int, scores []float64) (float64, error) {
	if err := checkLengths(len(yTrue), len(scores)); err != nil {
		return 0, err
	}
	if floats.HasNaN(scores) {
		return 0, fmt.Errorf("metrics: scores contain NaN")
	}

	y := make([]float64, len(scores))
	copy(y, scores)
	classes := make([]bool, len(yTrue))
	pos := 0
	for i, label := range yTrue {
		classes[i] = label == 1
		if classes[i] {
			pos++
		}
	}
	if pos == 0 || pos == len(yTrue) {
		return 0, ErrSingleClass
	}

	stat.SortWeightedLabeled(y, classes, nil)
	tpr, fpr, _ := stat.ROC(nil, y, classes, nil)
	return integrate.Trapezoidal(fpr, tpr), nil
}

// Confusion holds binary confusion counts
type Confusion struct {
	TP, FP, TN, FN int
}

// ConfusionMatrix counts outcomes with label 1 as positive
func ConfusionMatrix(yTrue, yPred []int) (Confusion, error) {
	var c Confusion
	if err := checkLengths(len(yTrue), len(yPred)); err != nil {
		return c, err
	}
	for i := range yTrue {
		switch {
		case yTrue[i] == 1 && yPred[i] == 1:
			c.TP++
		case yTrue[i] == 1:
			c.FN++
		case yPred[i] == 1:
			c.FP++
		default:
			c.TN++
		}
	}
	return c, nil
}

// PrecisionRecallF1 reports the positive-class scores. Undefined ratios are 0.
func PrecisionRecallF1(yTrue, yPred []int) (prec, rec, f1 float64, err error) {
	c, err := ConfusionMatrix(yTrue, yPred)
	if err != nil {
		return 0, 0, 0, err
	}
	if c.TP+c.FP > 0 {
		prec = float64(c.TP) / float64(c.TP+c.FP)
	}
	if c.TP+c.FN > 0 {
		rec = float64(c.TP) / float64(c.TP+c.FN)
	}
	if prec+rec > 0 {
		f1 = 2 * prec * rec / (prec + rec)
	}
	return prec, rec, f1, nil
}

// LogLoss is the mean binary cross-entropy, clipping probabilities to
// [eps, 1-eps].
func LogLoss(yTrue []int, proba []float64) (float64, error) {
	if err := checkLengths(len(yTrue), len(proba)); err != nil {
		return 0, err
	}
	const eps = 1e-15
	losses := make([]float64, len(proba))
	for i, p := range proba {
		p = math.Min(math.Max(p, eps), 1-eps)
		if yTrue[i] == 1 {
			losses[i] = -math.Log(p)
		} else {
			losses[i] = -math.Log(1 - p)
		}
	}
	return stat.Mean(losses, nil), nil
}
