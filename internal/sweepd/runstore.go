package sweepd

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/GoSim-25-26J-441/hpsweep/internal/experiment"
	"github.com/GoSim-25-26J-441/hpsweep/pkg/config"
	"github.com/GoSim-25-26J-441/hpsweep/pkg/models"
	"github.com/GoSim-25-26J-441/hpsweep/pkg/utils"
)

var (
	ErrSweepNotFound  = errors.New("sweep not found")
	ErrSweepExists    = errors.New("sweep already exists")
	ErrSweepTerminal  = errors.New("sweep is terminal")
	ErrSweepIDMissing = errors.New("sweep_id is required")
	ErrInvalidSweepID = errors.New("sweep_id cannot contain '/' or ':'")
	ErrInvalidInput   = errors.New("invalid experiment")
)

// SweepInput is what a client submits to create a sweep
type SweepInput struct {
	ExperimentYAML string `json:"experiment_yaml"`
	CallbackURL    string `json:"callback_url,omitempty"`
	CallbackSecret string `json:"callback_secret,omitempty"`
}

type sweepRecord struct {
	sweep      models.Sweep
	input      SweepInput
	experiment *config.Experiment
	progress   *models.Progress
	report     *experiment.Report
}

// RunStore keeps sweep records in memory. Every accessor returns copies.
type RunStore struct {
	mu     sync.RWMutex
	sweeps map[string]*sweepRecord
	order  []string
}

func NewRunStore() *RunStore {
	return &RunStore{
		sweeps: make(map[string]*sweepRecord),
	}
}

// Create validates the experiment YAML and registers a pending sweep.
// An empty sweepID is replaced with a generated one.
func (s *RunStore) Create(sweepID string, input SweepInput) (models.Sweep, error) {
	if strings.ContainsAny(sweepID, "/:") {
		return models.Sweep{}, ErrInvalidSweepID
	}
	exp, err := config.ParseExperimentYAMLString(input.ExperimentYAML)
	if err != nil {
		return models.Sweep{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if sweepID == "" {
		sweepID = utils.GenerateSweepID()
	}
	if _, exists := s.sweeps[sweepID]; exists {
		return models.Sweep{}, fmt.Errorf("%w: %s", ErrSweepExists, sweepID)
	}

	rec := &sweepRecord{
		sweep: models.Sweep{
			ID:              sweepID,
			Status:          models.SweepStatusPending,
			Experiment:      exp.Name,
			CreatedAtUnixMs: utils.NowUnixMs(),
		},
		input:      input,
		experiment: exp,
		progress:   &models.Progress{},
	}
	s.sweeps[sweepID] = rec
	s.order = append(s.order, sweepID)
	return s.snapshot(rec), nil
}

// Get returns the current state of a sweep
func (s *RunStore) Get(sweepID string) (models.Sweep, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.sweeps[sweepID]
	if !ok {
		return models.Sweep{}, false
	}
	return s.snapshot(rec), true
}

// List returns up to limit sweeps in creation order, skipping offset. A zero
// status matches every sweep.
func (s *RunStore) List(limit, offset int, status models.SweepStatus) []models.Sweep {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}
	out := make([]models.Sweep, 0, minInt(limit, len(s.order)))
	skipped := 0
	for _, id := range s.order {
		rec := s.sweeps[id]
		if status != "" && rec.sweep.Status != status {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		out = append(out, s.snapshot(rec))
		if len(out) >= limit {
			break
		}
	}
	return out
}

// SetStatus moves a sweep to status. Terminal sweeps do not change.
func (s *RunStore) SetStatus(sweepID string, status models.SweepStatus, errMsg string) (models.Sweep, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.sweeps[sweepID]
	if !ok {
		return models.Sweep{}, fmt.Errorf("%w: %s", ErrSweepNotFound, sweepID)
	}
	if rec.sweep.Status.Terminal() {
		return s.snapshot(rec), fmt.Errorf("%w: %s", ErrSweepTerminal, sweepID)
	}

	rec.sweep.Status = status
	if errMsg != "" {
		rec.sweep.Error = errMsg
	}

	switch status {
	case models.SweepStatusRunning:
		if rec.sweep.StartedAtUnixMs == 0 {
			rec.sweep.StartedAtUnixMs = utils.NowUnixMs()
		}
	case models.SweepStatusCompleted, models.SweepStatusFailed, models.SweepStatusCancelled:
		rec.sweep.EndedAtUnixMs = utils.NowUnixMs()
	}
	return s.snapshot(rec), nil
}

// Begin moves a pending sweep to running. started is true only for the
// caller that made the transition; a sweep that is already running is
// returned unchanged with started false.
func (s *RunStore) Begin(sweepID string) (sw models.Sweep, started bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.sweeps[sweepID]
	if !ok {
		return models.Sweep{}, false, fmt.Errorf("%w: %s", ErrSweepNotFound, sweepID)
	}
	switch {
	case rec.sweep.Status == models.SweepStatusRunning:
		return s.snapshot(rec), false, nil
	case rec.sweep.Status.Terminal():
		return models.Sweep{}, false, fmt.Errorf("%w: %s", ErrSweepTerminal, sweepID)
	}

	rec.sweep.Status = models.SweepStatusRunning
	if rec.sweep.StartedAtUnixMs == 0 {
		rec.sweep.StartedAtUnixMs = utils.NowUnixMs()
	}
	return s.snapshot(rec), true, nil
}

// Complete attaches the finished report and marks a running sweep completed.
// A sweep that left the running state keeps no report.
func (s *RunStore) Complete(sweepID string, report *experiment.Report) (models.Sweep, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.sweeps[sweepID]
	if !ok {
		return models.Sweep{}, fmt.Errorf("%w: %s", ErrSweepNotFound, sweepID)
	}
	if rec.sweep.Status != models.SweepStatusRunning {
		return s.snapshot(rec), fmt.Errorf("%w: %s is %s", ErrSweepTerminal, sweepID, rec.sweep.Status)
	}
	rec.report = report
	rec.sweep.Status = models.SweepStatusCompleted
	rec.sweep.EndedAtUnixMs = utils.NowUnixMs()
	return s.snapshot(rec), nil
}

// Report returns the finished report, if any
func (s *RunStore) Report(sweepID string) (*experiment.Report, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.sweeps[sweepID]
	if !ok || rec.report == nil {
		return nil, false
	}
	return rec.report, true
}

func (s *RunStore) input(sweepID string) (SweepInput, *config.Experiment, *models.Progress, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.sweeps[sweepID]
	if !ok {
		return SweepInput{}, nil, nil, false
	}
	return rec.input, rec.experiment, rec.progress, true
}

func (s *RunStore) snapshot(rec *sweepRecord) models.Sweep {
	out := rec.sweep
	out.Progress = rec.progress.Snapshot()
	if rec.report != nil {
		out.Models = rec.report.Summaries(false)
	}
	return out
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
