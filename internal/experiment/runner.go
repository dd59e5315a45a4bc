// Package experiment runs every configured model sweep over one dataset:
// load, encode and partition once, sweep each model, keep the fitted winners,
// and report how they do on each split.
package experiment

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/GoSim-25-26J-441/hpsweep/internal/dataset"
	"github.com/GoSim-25-26J-441/hpsweep/internal/estimator"
	"github.com/GoSim-25-26J-441/hpsweep/internal/metrics"
	"github.com/GoSim-25-26J-441/hpsweep/internal/search"
	"github.com/GoSim-25-26J-441/hpsweep/pkg/config"
	"github.com/GoSim-25-26J-441/hpsweep/pkg/logger"
	"github.com/GoSim-25-26J-441/hpsweep/pkg/models"
	"github.com/GoSim-25-26J-441/hpsweep/pkg/utils"
)

// Recorder persists finished reports
type Recorder interface {
	SaveReport(ctx context.Context, r *Report) error
}

// Hooks observe a running experiment. Either field may be nil.
type Hooks struct {
	OnModelStart func(model string, trials int)
	OnTrial      func(model string, trial search.Trial, best float64, found bool)
}

// Runner executes experiments
type Runner struct {
	baseDir  string
	recorder Recorder
	hooks    Hooks
}

// Option configures a Runner
type Option func(*Runner)

// WithBaseDir resolves relative dataset and output paths against dir
func WithBaseDir(dir string) Option {
	return func(r *Runner) { r.baseDir = dir }
}

// WithRecorder saves every finished report
func WithRecorder(rec Recorder) Option {
	return func(r *Runner) { r.recorder = rec }
}

// WithHooks installs progress callbacks
func WithHooks(h Hooks) Option {
	return func(r *Runner) { r.hooks = h }
}

// NewRunner creates a runner
func NewRunner(opts ...Option) *Runner {
	r := &Runner{}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Run executes exp under a freshly generated sweep ID
func (r *Runner) Run(ctx context.Context, exp *config.Experiment) (*Report, error) {
	return r.RunWithID(ctx, utils.GenerateSweepID(), exp)
}

// RunWithID executes exp. A fit failure in any model aborts the whole run.
// Models whose sweep finds no winner are reported with Found=false and are
// not evaluated.
func (r *Runner) RunWithID(ctx context.Context, sweepID string, exp *config.Experiment) (*Report, error) {
	if exp == nil {
		return nil, fmt.Errorf("experiment is required")
	}

	log := logger.FromContext(ctx).With("sweep_id", sweepID, "experiment", exp.Name)
	ctx = logger.WithContext(ctx, log)
	start := time.Now()
	seed := exp.SeedOrDefault()

	data, err := r.prepare(exp, seed)
	if err != nil {
		return nil, err
	}
	log.Info("dataset prepared",
		"rows", data.rows,
		"features", len(data.features),
		"train", data.train.Len(),
		"validation", data.valid.Len(),
		"test", data.test.Len(),
	)

	report := &Report{
		SweepID:        sweepID,
		Experiment:     exp.Name,
		Seed:           seed,
		Rows:           data.rows,
		Features:       data.features,
		TrainRows:      data.train.Len(),
		ValidationRows: data.valid.Len(),
		TestRows:       data.test.Len(),
		StartedAt:      start,
	}

	fitted := make(map[string]estimator.Estimator)
	for i := range exp.Models {
		m := &exp.Models[i]
		mr, est, err := r.sweepModel(ctx, m, data, seed)
		if err != nil {
			return nil, fmt.Errorf("model %s: %w", m.Name, err)
		}
		report.Models = append(report.Models, mr)
		if est != nil {
			fitted[m.Name] = est
		}
	}

	if exp.Output != nil && exp.Output.SubmissionPath != "" {
		path, err := r.writeSubmission(ctx, exp, data, fitted)
		if err != nil {
			return nil, err
		}
		report.SubmissionPath = path
	}

	report.Duration = time.Since(start)
	if r.recorder != nil {
		if err := r.recorder.SaveReport(ctx, report); err != nil {
			return nil, fmt.Errorf("failed to save report: %w", err)
		}
	}
	log.Info("experiment finished", "models", len(report.Models), "duration", utils.FormatDuration(report.Duration))
	return report, nil
}

type preparedData struct {
	rows     int
	features []string
	encoder  *dataset.Encoder
	train    search.Holdout
	valid    search.Holdout
	test     search.Holdout
}

func (r *Runner) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || r.baseDir == "" {
		return path
	}
	return filepath.Join(r.baseDir, path)
}

// prepare loads, partitions and encodes the training file. The encoder only
// sees training rows.
func (r *Runner) prepare(exp *config.Experiment, seed int64) (*preparedData, error) {
	frame, err := dataset.LoadFile(r.resolve(exp.Dataset.TrainPath), dataset.SchemaFromConfig(exp.Dataset, true))
	if err != nil {
		return nil, fmt.Errorf("failed to load training data: %w", err)
	}

	fr := dataset.Fractions{Train: exp.Split.Train, Validation: exp.Split.Validation, Test: exp.Split.Test}
	part, err := dataset.Split(frame.Len(), frame.Labels, fr, seed, exp.Split.Stratify)
	if err != nil {
		return nil, fmt.Errorf("failed to partition data: %w", err)
	}

	enc, err := dataset.FitEncoder(frame, part.Train)
	if err != nil {
		return nil, fmt.Errorf("failed to fit encoder: %w", err)
	}
	X, err := enc.Transform(frame)
	if err != nil {
		return nil, fmt.Errorf("failed to encode data: %w", err)
	}

	holdout := func(idx []int) search.Holdout {
		return search.Holdout{X: dataset.SelectRows(X, idx), Y: dataset.Select(frame.Labels, idx)}
	}
	return &preparedData{
		rows:     frame.Len(),
		features: enc.FeatureNames(),
		encoder:  enc,
		train:    holdout(part.Train),
		valid:    holdout(part.Validation),
		test:     holdout(part.Test),
	}, nil
}

// Combinations returns what a model's sweep would evaluate, fixed values
// merged in.
func Combinations(m *config.ModelSweep, seed int64) ([]search.Combination, error) {
	var combos []search.Combination
	switch m.Search {
	case config.SearchRandom:
		sampler, err := search.NewSamplerFromConfig(m.Distributions, m.NIter, seed)
		if err != nil {
			return nil, err
		}
		if combos, err = sampler.Sample(); err != nil {
			return nil, err
		}
	default:
		grid := make(search.Grid, len(m.Grid))
		for k, v := range m.Grid {
			grid[k] = v
		}
		var err error
		if combos, err = grid.Expand(); err != nil {
			return nil, err
		}
	}
	return search.WithFixed(combos, m.Fixed), nil
}

func (r *Runner) sweepModel(ctx context.Context, m *config.ModelSweep, data *preparedData, seed int64) (*ModelReport, estimator.Estimator, error) {
	log := logger.FromContext(ctx).With("model", m.Name, "family", m.Family)
	ctx = logger.WithContext(ctx, log)
	start := time.Now()

	combos, err := Combinations(m, seed)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build combinations: %w", err)
	}
	obj, err := search.NewObjective(m.Objective)
	if err != nil {
		return nil, nil, err
	}
	if obj.UsesValidation() && data.valid.Len() == 0 {
		return nil, nil, &search.EmptyHoldoutError{Objective: obj.Name()}
	}

	keeper := search.NewBestKeeper(func(c search.Combination) (estimator.Estimator, error) {
		return estimator.New(m.Family, c, seed)
	})

	if r.hooks.OnModelStart != nil {
		r.hooks.OnModelStart(m.Name, len(combos))
	}
	found := false
	runner := search.NewRunner(m.FloorOrDefault()).WithProgressReporter(func(t search.Trial, best float64) {
		keeper.Observe(t)
		found = found || t.Improved
		if r.hooks.OnTrial != nil {
			r.hooks.OnTrial(m.Name, t, best, found)
		}
	})

	log.Info("sweep started", "combinations", len(combos), "objective", obj.Name(), "search", m.Search)
	result, err := runner.Run(ctx, combos, search.FitAndScore(keeper.Factory, data.train, data.valid, obj))
	if err != nil {
		return nil, nil, err
	}

	mr := &ModelReport{
		Name:      m.Name,
		Family:    m.Family,
		Objective: m.Objective,
		Search:    m.Search,
		Result:    result,
	}
	if _, _, err := result.Winner(); errors.Is(err, search.ErrNoWinner) {
		mr.Duration = time.Since(start)
		return mr, nil, nil
	}

	// The winner was trained on the train split during the sweep.
	est := keeper.Best()
	mr.Train = evaluate(ctx, est, data.train, "train")
	mr.Validation = evaluate(ctx, est, data.valid, "validation")
	mr.Test = evaluate(ctx, est, data.test, "test")
	mr.Duration = time.Since(start)
	return mr, est, nil
}

// evaluate reports the classification metrics of a split; nil for an empty
// split. A metric that cannot be computed is left unset and logged.
func evaluate(ctx context.Context, est estimator.Estimator, h search.Holdout, split string) *models.SplitMetrics {
	if h.Len() == 0 {
		return nil
	}
	log := logger.FromContext(ctx).With("split", split)
	proba := est.PredictProba(h.X)
	pred := metrics.Classify(proba)
	sm := &models.SplitMetrics{Rows: h.Len()}

	var err error
	if sm.Accuracy, err = metrics.Accuracy(h.Y, pred); err != nil {
		log.Warn("accuracy unavailable", "error", err)
	}
	if sm.Precision, sm.Recall, sm.F1, err = metrics.PrecisionRecallF1(h.Y, pred); err != nil {
		log.Warn("precision and recall unavailable", "error", err)
	}
	if sm.LogLoss, err = metrics.LogLoss(h.Y, proba); err != nil {
		log.Warn("log loss unavailable", "error", err)
	}
	if auc, err := metrics.AUC(h.Y, proba); err != nil {
		log.Warn("auc unavailable", "error", err)
	} else {
		sm.AUC = &auc
	}
	return sm
}

func (r *Runner) writeSubmission(ctx context.Context, exp *config.Experiment, data *preparedData, fitted map[string]estimator.Estimator) (string, error) {
	log := logger.FromContext(ctx)
	out := exp.Output
	est, ok := fitted[out.SubmissionModel]
	if !ok {
		log.Warn("no submission written: model has no winner", "model", out.SubmissionModel)
		return "", nil
	}

	frame, err := dataset.LoadFile(r.resolve(exp.Dataset.TestPath), dataset.SchemaFromConfig(exp.Dataset, false))
	if err != nil {
		return "", fmt.Errorf("failed to load test data: %w", err)
	}
	X, err := data.encoder.Transform(frame)
	if err != nil {
		return "", fmt.Errorf("failed to encode test data: %w", err)
	}

	path := r.resolve(out.SubmissionPath)
	header := out.SubmissionHeaderOrDefault(exp.Dataset.IDColumn, exp.Dataset.LabelColumn)
	if err := dataset.WriteSubmissionFile(path, header, frame.IDs, est.Predict(X)); err != nil {
		return "", err
	}
	log.Info("submission written", "path", path, "rows", frame.Len(), "model", out.SubmissionModel)
	return path, nil
}
