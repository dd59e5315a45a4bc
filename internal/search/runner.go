package search

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/GoSim-25-26J-441/hpsweep/pkg/logger"
)

// ErrNoWinner is returned by Result.Winner when no combination beat the floor
var ErrNoWinner = errors.New("no combination scored above the floor")

// FitScoreFunc trains one model for a combination on a fixed training set
// and returns its score. Higher is better.
type FitScoreFunc func(ctx context.Context, c Combination) (float64, error)

// ProgressReporter is called after every trial with the best score so far.
// best is the floor until some trial improves on it.
type ProgressReporter func(trial Trial, best float64)

// Trial is one evaluated combination
type Trial struct {
	Index       int
	Combination Combination
	Score       float64
	Improved    bool
	Duration    time.Duration
}

// Result is the outcome of a sweep
type Result struct {
	Best        Combination
	BestScore   float64
	Found       bool
	Floor       float64
	Evaluations int
	History     []Trial
}

// Winner returns the best combination, or ErrNoWinner
func (r *Result) Winner() (Combination, float64, error) {
	if !r.Found {
		return Combination{}, 0, ErrNoWinner
	}
	return r.Best, r.BestScore, nil
}

// TrialError wraps a failure of the fit function
type TrialError struct {
	Index       int
	Combination Combination
	Err         error
}

func (e *TrialError) Error() string {
	return fmt.Sprintf("trial %d %s: %v", e.Index, e.Combination, e.Err)
}

func (e *TrialError) Unwrap() error {
	return e.Err
}

// Runner evaluates every combination once and keeps the best strictly
// above the floor. It owns its best-so-far state for the length of Run and
// is not meant to be shared between concurrent sweeps.
type Runner struct {
	floor    float64
	progress ProgressReporter
}

// NewRunner creates a runner with the given floor score. A NaN floor is
// treated as negative infinity.
func NewRunner(floor float64) *Runner {
	if math.IsNaN(floor) {
		floor = math.Inf(-1)
	}
	return &Runner{floor: floor}
}

// WithProgressReporter sets a callback invoked after each trial
func (r *Runner) WithProgressReporter(fn ProgressReporter) *Runner {
	r.progress = fn
	return r
}

// Floor returns the configured floor
func (r *Runner) Floor() float64 {
	return r.floor
}

// Run calls fit exactly once per combination, in order. The first fit error
// aborts the sweep and is returned as a *TrialError. A cancelled context
// aborts before the next fit.
func (r *Runner) Run(ctx context.Context, combos []Combination, fit FitScoreFunc) (*Result, error) {
	if fit == nil {
		return nil, fmt.Errorf("fit function is required")
	}

	log := logger.FromContext(ctx)
	result := &Result{
		BestScore: r.floor,
		Floor:     r.floor,
		History:   make([]Trial, 0, len(combos)),
	}

	for i, c := range combos {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("sweep aborted before trial %d: %w", i, err)
		}

		start := time.Now()
		score, err := fit(ctx, c)
		if err != nil {
			log.Error("trial failed", "trial", i, "params", c.String(), "error", err)
			return nil, &TrialError{Index: i, Combination: c, Err: err}
		}

		trial := Trial{
			Index:       i,
			Combination: c,
			Score:       score,
			Duration:    time.Since(start),
		}
		// NaN compares false, so it can never displace the incumbent.
		if score > result.BestScore {
			result.Best = c
			result.BestScore = score
			result.Found = true
			trial.Improved = true
		}
		result.Evaluations++
		result.History = append(result.History, trial)

		log.Debug("trial finished",
			"trial", i,
			"params", c.String(),
			"score", score,
			"improved", trial.Improved,
			"duration", trial.Duration,
		)
		if r.progress != nil {
			r.progress(trial, result.BestScore)
		}
	}

	if result.Found {
		log.Info("sweep finished", "evaluations", result.Evaluations, "best_params", result.Best.String(), "best_score", result.BestScore)
	} else {
		log.Warn("sweep finished without a winner", "evaluations", result.Evaluations, "floor", r.floor)
	}
	return result, nil
}
