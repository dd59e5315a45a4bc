package search

import (
	"context"
	"errors"
	"testing"

	"github.com/GoSim-25-26J-441/hpsweep/internal/estimator"
)

// constEstimator predicts a fixed probability per row
type constEstimator struct {
	proba  []float64
	fitErr error
}

func (e *constEstimator) Fit(X [][]float64, y []int) error {
	return e.fitErr
}

func (e *constEstimator) PredictProba(X [][]float64) []float64 {
	return e.proba[:len(X)]
}

func (e *constEstimator) Predict(X [][]float64) []int {
	out := make([]int, len(X))
	for i, p := range e.PredictProba(X) {
		if p > 0.5 {
			out[i] = 1
		}
	}
	return out
}

type oobEstimator struct {
	constEstimator
	oob float64
}

func (e *oobEstimator) OOBScore() (float64, error) {
	return e.oob, nil
}

var _ estimator.OOBScorer = (*oobEstimator)(nil)

func TestNewObjective(t *testing.T) {
	for _, name := range []string{"oob", "accuracy", "auc"} {
		obj, err := NewObjective(name)
		if err != nil {
			t.Fatalf("NewObjective(%s): %v", name, err)
		}
		if obj.Name() != name {
			t.Fatalf("expected name %s, got %s", name, obj.Name())
		}
	}

	_, err := NewObjective("f2")
	var unknown *UnknownObjectiveError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected *UnknownObjectiveError, got %v", err)
	}
}

func TestAccuracyObjective(t *testing.T) {
	valid := Holdout{X: make([][]float64, 4), Y: []int{1, 0, 1, 0}}
	est := &constEstimator{proba: []float64{0.9, 0.2, 0.4, 0.1}}

	score, err := (&AccuracyObjective{}).Score(est, valid)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if score != 0.75 {
		t.Fatalf("expected 0.75, got %f", score)
	}

	_, err = (&AccuracyObjective{}).Score(est, Holdout{})
	var empty *EmptyHoldoutError
	if !errors.As(err, &empty) {
		t.Fatalf("expected *EmptyHoldoutError, got %v", err)
	}
}

func TestAUCObjective(t *testing.T) {
	valid := Holdout{X: make([][]float64, 4), Y: []int{1, 0, 1, 0}}
	est := &constEstimator{proba: []float64{0.9, 0.2, 0.4, 0.1}}

	score, err := (&AUCObjective{}).Score(est, valid)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if score != 1 {
		t.Fatalf("expected perfect ranking AUC 1, got %f", score)
	}
}

func TestOOBObjective(t *testing.T) {
	_, err := (&OOBObjective{}).Score(&constEstimator{}, Holdout{})
	if !errors.Is(err, ErrOOBUnsupported) {
		t.Fatalf("expected ErrOOBUnsupported, got %v", err)
	}

	score, err := (&OOBObjective{}).Score(&oobEstimator{oob: 0.81}, Holdout{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if score != 0.81 {
		t.Fatalf("expected 0.81, got %f", score)
	}
}

func TestFitAndScoreAbortsSweepOnOOBMismatch(t *testing.T) {
	factory := func(c Combination) (estimator.Estimator, error) {
		return &constEstimator{}, nil
	}
	fit := FitAndScore(factory, Holdout{}, Holdout{}, &OOBObjective{})

	_, err := NewRunner(0).Run(context.Background(), leafGrid(1, 2), fit)
	if !errors.Is(err, ErrOOBUnsupported) {
		t.Fatalf("expected ErrOOBUnsupported, got %v", err)
	}
	var trialErr *TrialError
	if !errors.As(err, &trialErr) || trialErr.Index != 0 {
		t.Fatalf("expected failure on trial 0, got %v", err)
	}
}

func TestFitAndScoreFitError(t *testing.T) {
	boom := errors.New("singular")
	factory := func(c Combination) (estimator.Estimator, error) {
		return &constEstimator{fitErr: boom}, nil
	}
	fit := FitAndScore(factory, Holdout{}, Holdout{}, &AccuracyObjective{})
	if _, err := fit(context.Background(), NewCombination(nil)); !errors.Is(err, boom) {
		t.Fatalf("expected fit error, got %v", err)
	}
}

func TestFitAndScoreWithRealEstimator(t *testing.T) {
	X := [][]float64{{0}, {1}, {2}, {3}, {10}, {11}, {12}, {13}}
	y := []int{0, 0, 0, 0, 1, 1, 1, 1}
	train := Holdout{X: X, Y: y}

	factory := func(c Combination) (estimator.Estimator, error) {
		return estimator.New("decision_tree", c, 1)
	}
	combos := Grid{"max_depth": {1, 2}}.MustExpand()
	result, err := NewRunner(0.5).Run(context.Background(), combos, FitAndScore(factory, train, train, &AccuracyObjective{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	best, score, err := result.Winner()
	if err != nil {
		t.Fatalf("expected a winner: %v", err)
	}
	if score != 1 {
		t.Fatalf("expected perfect accuracy, got %f", score)
	}
	if v, _ := best.Get("max_depth"); v != 1 {
		t.Fatalf("expected the first perfect combination to win, got %s", best)
	}
}

func TestBestKeeperKeepsWinningEstimator(t *testing.T) {
	built := 0
	var estimators []*constEstimator
	keeper := NewBestKeeper(func(c Combination) (estimator.Estimator, error) {
		built++
		leaf, _ := c.Get("leaf")
		// leaf=2 classifies every row correctly, the others miss half.
		proba := []float64{0.9, 0.9, 0.1, 0.1}
		if leaf == 2 {
			proba = []float64{0.9, 0.1, 0.9, 0.1}
		}
		est := &constEstimator{proba: proba}
		estimators = append(estimators, est)
		return est, nil
	})
	valid := Holdout{X: make([][]float64, 4), Y: []int{1, 0, 1, 0}}

	runner := NewRunner(0).WithProgressReporter(func(trial Trial, _ float64) {
		keeper.Observe(trial)
	})
	result, err := runner.Run(context.Background(), leafGrid(1, 2, 3), FitAndScore(keeper.Factory, Holdout{}, valid, &AccuracyObjective{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if built != 3 {
		t.Fatalf("expected one estimator per combination, built %d", built)
	}
	if best, _ := result.Best.Get("leaf"); best != 2 {
		t.Fatalf("expected leaf=2 to win, got %s", result.Best)
	}
	if keeper.Best() != estimators[1] {
		t.Fatal("keeper should hold the estimator fitted for the winning trial")
	}
}

func TestBestKeeperNoWinner(t *testing.T) {
	keeper := NewBestKeeper(func(c Combination) (estimator.Estimator, error) {
		return &constEstimator{proba: []float64{0.1, 0.1}}, nil
	})
	valid := Holdout{X: make([][]float64, 2), Y: []int{1, 1}}
	runner := NewRunner(0.5).WithProgressReporter(func(trial Trial, _ float64) {
		keeper.Observe(trial)
	})
	if _, err := runner.Run(context.Background(), leafGrid(1), FitAndScore(keeper.Factory, Holdout{}, valid, &AccuracyObjective{})); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if keeper.Best() != nil {
		t.Fatal("no estimator should be kept without a winner")
	}
}
