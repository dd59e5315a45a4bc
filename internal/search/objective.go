package search

import (
	"context"
	"errors"
	"fmt"

	"github.com/GoSim-25-26J-441/hpsweep/internal/estimator"
	"github.com/GoSim-25-26J-441/hpsweep/internal/metrics"
)

// ErrOOBUnsupported is returned when the oob objective meets an estimator
// that does not keep out-of-bag votes.
var ErrOOBUnsupported = errors.New("estimator does not support out-of-bag scoring")

// Objective scores a fitted estimator. Higher is better.
type Objective interface {
	Name() string
	// UsesValidation reports whether Score reads the validation split.
	UsesValidation() bool
	Score(est estimator.Estimator, valid Holdout) (float64, error)
}

// ObjectiveType names a supported objective
type ObjectiveType string

const (
	// ObjectiveOOB scores by out-of-bag accuracy on the training set
	ObjectiveOOB ObjectiveType = "oob"
	// ObjectiveAccuracy scores by validation accuracy
	ObjectiveAccuracy ObjectiveType = "accuracy"
	// ObjectiveAUC scores by validation ROC AUC
	ObjectiveAUC ObjectiveType = "auc"
)

// Holdout is a labeled feature matrix
type Holdout struct {
	X [][]float64
	Y []int
}

// Len returns the number of rows
func (h Holdout) Len() int {
	return len(h.Y)
}

// NewObjective creates an objective from its name
func NewObjective(name string) (Objective, error) {
	switch ObjectiveType(name) {
	case ObjectiveOOB:
		return &OOBObjective{}, nil
	case ObjectiveAccuracy:
		return &AccuracyObjective{}, nil
	case ObjectiveAUC:
		return &AUCObjective{}, nil
	default:
		return nil, &UnknownObjectiveError{ObjectiveType: name}
	}
}

// OOBObjective uses the estimator's out-of-bag accuracy
type OOBObjective struct{}

func (o *OOBObjective) Name() string {
	return string(ObjectiveOOB)
}

func (o *OOBObjective) UsesValidation() bool {
	return false
}

func (o *OOBObjective) Score(est estimator.Estimator, _ Holdout) (float64, error) {
	scorer, ok := est.(estimator.OOBScorer)
	if !ok {
		return 0, ErrOOBUnsupported
	}
	return scorer.OOBScore()
}

// AccuracyObjective uses accuracy on the validation split
type AccuracyObjective struct{}

func (o *AccuracyObjective) Name() string {
	return string(ObjectiveAccuracy)
}

func (o *AccuracyObjective) UsesValidation() bool {
	return true
}

func (o *AccuracyObjective) Score(est estimator.Estimator, valid Holdout) (float64, error) {
	if valid.Len() == 0 {
		return 0, &EmptyHoldoutError{Objective: o.Name()}
	}
	return metrics.Accuracy(valid.Y, est.Predict(valid.X))
}

// AUCObjective uses ROC AUC on the validation split
type AUCObjective struct{}

func (o *AUCObjective) Name() string {
	return string(ObjectiveAUC)
}

func (o *AUCObjective) UsesValidation() bool {
	return true
}

func (o *AUCObjective) Score(est estimator.Estimator, valid Holdout) (float64, error) {
	if valid.Len() == 0 {
		return 0, &EmptyHoldoutError{Objective: o.Name()}
	}
	return metrics.AUC(valid.Y, est.PredictProba(valid.X))
}

// EstimatorFactory builds an untrained estimator for a combination
type EstimatorFactory func(c Combination) (estimator.Estimator, error)

// FitAndScore binds a factory, a training set and an objective into a
// FitScoreFunc for Runner.Run.
func FitAndScore(factory EstimatorFactory, train, valid Holdout, obj Objective) FitScoreFunc {
	return func(ctx context.Context, c Combination) (float64, error) {
		est, err := factory(c)
		if err != nil {
			return 0, err
		}
		if err := est.Fit(train.X, train.Y); err != nil {
			return 0, fmt.Errorf("fit: %w", err)
		}
		score, err := obj.Score(est, valid)
		if err != nil {
			return 0, fmt.Errorf("score %s: %w", obj.Name(), err)
		}
		return score, nil
	}
}

// BestKeeper holds on to the estimator of the best trial so the winner is
// available fitted once the sweep ends. It relies on Runner calling fit and
// the progress reporter in order for one trial at a time.
type BestKeeper struct {
	factory EstimatorFactory
	last    estimator.Estimator
	best    estimator.Estimator
}

// NewBestKeeper wraps factory
func NewBestKeeper(factory EstimatorFactory) *BestKeeper {
	return &BestKeeper{factory: factory}
}

// Factory builds an estimator and remembers it as the current trial's
func (k *BestKeeper) Factory(c Combination) (estimator.Estimator, error) {
	est, err := k.factory(c)
	k.last = est
	return est, err
}

// Observe keeps the current trial's estimator when the trial improved
func (k *BestKeeper) Observe(t Trial) {
	if t.Improved {
		k.best = k.last
	}
}

// Best returns the fitted estimator of the winning trial, or nil
func (k *BestKeeper) Best() estimator.Estimator {
	return k.best
}

// UnknownObjectiveError indicates an unknown objective type
type UnknownObjectiveError struct {
	ObjectiveType string
}

func (e *UnknownObjectiveError) Error() string {
	return "unknown objective type: " + e.ObjectiveType
}

// EmptyHoldoutError indicates a validation objective with no validation rows
type EmptyHoldoutError struct {
	Objective string
}

func (e *EmptyHoldoutError) Error() string {
	return "objective " + e.Objective + " needs a non-empty validation split"
}
