package search

import (
	"context"
	"errors"
	"math"
	"testing"
)

func leafGrid(values ...any) []Combination {
	return Grid{"leaf": values}.MustExpand()
}

// scripted returns a fit function that replays fixed scores and counts calls
func scripted(scores []float64, calls *int) FitScoreFunc {
	return func(_ context.Context, c Combination) (float64, error) {
		i := *calls
		*calls++
		return scores[i], nil
	}
}

func TestRunnerPicksBestAboveFloor(t *testing.T) {
	calls := 0
	result, err := NewRunner(0.5).Run(context.Background(), leafGrid(1, 3), scripted([]float64{0.80, 0.90}, &calls))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 fit calls, got %d", calls)
	}

	best, score, err := result.Winner()
	if err != nil {
		t.Fatalf("expected a winner, got %v", err)
	}
	if v, _ := best.Get("leaf"); v != 3 {
		t.Fatalf("expected leaf=3, got %v", best)
	}
	if score != 0.90 {
		t.Fatalf("expected score 0.90, got %f", score)
	}
	if !result.History[0].Improved || !result.History[1].Improved {
		t.Fatalf("expected both trials to improve, got %+v", result.History)
	}
}

func TestRunnerNoWinner(t *testing.T) {
	calls := 0
	result, err := NewRunner(0.5).Run(context.Background(), leafGrid(1), scripted([]float64{0.3}, &calls))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Found {
		t.Fatal("expected no winner")
	}
	if !result.Best.IsZero() {
		t.Fatalf("best should be unset, got %v", result.Best)
	}
	if _, _, err := result.Winner(); !errors.Is(err, ErrNoWinner) {
		t.Fatalf("expected ErrNoWinner, got %v", err)
	}
	if result.Evaluations != 1 {
		t.Fatalf("expected 1 evaluation, got %d", result.Evaluations)
	}
}

func TestRunnerEqualToFloorDoesNotWin(t *testing.T) {
	calls := 0
	result, err := NewRunner(0.5).Run(context.Background(), leafGrid(1, 2), scripted([]float64{0.5, 0.5}, &calls))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Found {
		t.Fatal("a score equal to the floor must not win")
	}
}

func TestRunnerFirstSeenWinsTies(t *testing.T) {
	calls := 0
	result, err := NewRunner(0).Run(context.Background(), leafGrid(1, 2, 3), scripted([]float64{0.7, 0.9, 0.9}, &calls))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	best, _, _ := result.Winner()
	if v, _ := best.Get("leaf"); v != 2 {
		t.Fatalf("expected first 0.9 (leaf=2) to win, got %v", best)
	}
	if result.History[2].Improved {
		t.Fatal("a tie must not count as an improvement")
	}
}

func TestRunnerNaNNeverImproves(t *testing.T) {
	calls := 0
	result, err := NewRunner(math.Inf(-1)).Run(context.Background(), leafGrid(1, 2), scripted([]float64{math.NaN(), 0.1}, &calls))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	best, score, err := result.Winner()
	if err != nil {
		t.Fatalf("expected a winner, got %v", err)
	}
	if v, _ := best.Get("leaf"); v != 2 || score != 0.1 {
		t.Fatalf("expected leaf=2 at 0.1, got %v at %f", best, score)
	}
}

func TestRunnerUnboundedFloorAcceptsAnyScore(t *testing.T) {
	calls := 0
	result, err := NewRunner(math.Inf(-1)).Run(context.Background(), leafGrid(1), scripted([]float64{0}, &calls))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Found {
		t.Fatal("expected score 0 to beat an unbounded floor")
	}
}

func TestRunnerFitErrorAborts(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	fit := func(_ context.Context, c Combination) (float64, error) {
		calls++
		if calls == 2 {
			return 0, boom
		}
		return 0.9, nil
	}

	result, err := NewRunner(0.5).Run(context.Background(), leafGrid(1, 2, 3), fit)
	if result != nil {
		t.Fatal("expected no partial result")
	}
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped boom, got %v", err)
	}
	var trialErr *TrialError
	if !errors.As(err, &trialErr) {
		t.Fatalf("expected *TrialError, got %T", err)
	}
	if trialErr.Index != 1 {
		t.Fatalf("expected failure at trial 1, got %d", trialErr.Index)
	}
	if calls != 2 {
		t.Fatalf("expected the sweep to stop after 2 calls, got %d", calls)
	}
}

func TestRunnerContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	fit := func(_ context.Context, c Combination) (float64, error) {
		calls++
		cancel()
		return 0.9, nil
	}

	_, err := NewRunner(0).Run(ctx, leafGrid(1, 2, 3), fit)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call before cancellation, got %d", calls)
	}
}

func TestRunnerProgressReporter(t *testing.T) {
	var bests []float64
	calls := 0
	runner := NewRunner(0.5).WithProgressReporter(func(trial Trial, best float64) {
		bests = append(bests, best)
	})
	_, err := runner.Run(context.Background(), leafGrid(1, 2, 3), scripted([]float64{0.4, 0.7, 0.6}, &calls))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []float64{0.5, 0.7, 0.7}
	for i := range want {
		if bests[i] != want[i] {
			t.Fatalf("progress %d: expected best %f, got %f", i, want[i], bests[i])
		}
	}
}

func TestRunnerEmptySweep(t *testing.T) {
	result, err := NewRunner(0.5).Run(context.Background(), nil, func(context.Context, Combination) (float64, error) {
		t.Fatal("fit must not be called")
		return 0, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Found || result.Evaluations != 0 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestRunnerNilFit(t *testing.T) {
	if _, err := NewRunner(0).Run(context.Background(), leafGrid(1), nil); err == nil {
		t.Fatal("expected error for nil fit function")
	}
}

func TestNewRunnerNaNFloor(t *testing.T) {
	if f := NewRunner(math.NaN()).Floor(); !math.IsInf(f, -1) {
		t.Fatalf("expected NaN floor to become -Inf, got %f", f)
	}
}

func TestRunnerDeterministic(t *testing.T) {
	combos := Grid{"a": {1, 2, 3}, "b": {"x", "y"}}.MustExpand()
	fit := func(_ context.Context, c Combination) (float64, error) {
		a, _ := c.Get("a")
		b, _ := c.Get("b")
		score := float64(a.(int)) / 10
		if b == "y" {
			score += 0.05
		}
		return score, nil
	}

	first, err := NewRunner(0).Run(context.Background(), combos, fit)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := NewRunner(0).Run(context.Background(), combos, fit)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !first.Best.Equal(second.Best) || first.BestScore != second.BestScore {
		t.Fatalf("sweeps disagree: %v/%f vs %v/%f", first.Best, first.BestScore, second.Best, second.BestScore)
	}
	if first.Best.String() != "{a=3, b=y}" {
		t.Fatalf("unexpected winner %s", first.Best)
	}
}
