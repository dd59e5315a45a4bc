package models

import (
	"math"
	"sync"
)

// SweepStatus represents the lifecycle state of a sweep
type SweepStatus string

const (
	SweepStatusPending   SweepStatus = "pending"
	SweepStatusRunning   SweepStatus = "running"
	SweepStatusCompleted SweepStatus = "completed"
	SweepStatusFailed    SweepStatus = "failed"
	SweepStatusCancelled SweepStatus = "cancelled"
)

// Terminal reports whether no further transition is possible.
func (s SweepStatus) Terminal() bool {
	return s == SweepStatusCompleted || s == SweepStatusFailed || s == SweepStatusCancelled
}

// SplitMetrics holds the evaluation of a winning model on one data split.
// AUC is nil when the split holds a single class.
type SplitMetrics struct {
	Rows      int      `json:"rows"`
	Accuracy  float64  `json:"accuracy"`
	AUC       *float64 `json:"auc,omitempty"`
	Precision float64  `json:"precision"`
	Recall    float64  `json:"recall"`
	F1        float64  `json:"f1"`
	LogLoss   float64  `json:"log_loss"`
}

// ModelSummary is the outcome of sweeping one configured model
type ModelSummary struct {
	Model       string         `json:"model"`
	Family      string         `json:"family"`
	Objective   string         `json:"objective"`
	Search      string         `json:"search"`
	Floor       *float64       `json:"floor,omitempty"`
	Found       bool           `json:"found"`
	BestParams  map[string]any `json:"best_params,omitempty"`
	BestScore   float64        `json:"best_score"`
	Evaluations int            `json:"evaluations"`
	DurationMs  int64          `json:"duration_ms"`
	Train       *SplitMetrics  `json:"train,omitempty"`
	Validation  *SplitMetrics  `json:"validation,omitempty"`
	Test        *SplitMetrics  `json:"test,omitempty"`
	Trials      []TrialRecord  `json:"trials,omitempty"`
}

// TrialRecord is one evaluated combination as exposed over the wire and in storage.
type TrialRecord struct {
	Index      int            `json:"index"`
	Params     map[string]any `json:"params"`
	Score      float64        `json:"score"`
	Improved   bool           `json:"improved"`
	DurationMs int64          `json:"duration_ms"`
}

// FloorPtr returns nil for an unbounded floor so it can be JSON encoded.
func FloorPtr(floor float64) *float64 {
	if math.IsInf(floor, 0) || math.IsNaN(floor) {
		return nil
	}
	return &floor
}

// SafeScore maps non-finite scores to zero for JSON encoding.
func SafeScore(score float64) float64 {
	if math.IsInf(score, 0) || math.IsNaN(score) {
		return 0
	}
	return score
}

// Progress tracks a running sweep
type Progress struct {
	mu          sync.RWMutex
	model       string
	trialsDone  int
	trialsTotal int
	bestScore   float64
	found       bool
}

// ProgressSnapshot is a point-in-time copy of Progress
type ProgressSnapshot struct {
	Model       string   `json:"model,omitempty"`
	TrialsDone  int      `json:"trials_done"`
	TrialsTotal int      `json:"trials_total"`
	BestScore   *float64 `json:"best_score,omitempty"`
}

// BeginModel resets per-model counters.
func (p *Progress) BeginModel(model string, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.model = model
	p.trialsTotal += total
	p.found = false
	p.bestScore = 0
}

// RecordTrial counts one finished trial
func (p *Progress) RecordTrial(bestScore float64, found bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.trialsDone++
	p.found = found
	if found {
		p.bestScore = bestScore
	}
}

// Snapshot returns a copy safe for encoding
func (p *Progress) Snapshot() ProgressSnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	snap := ProgressSnapshot{
		Model:       p.model,
		TrialsDone:  p.trialsDone,
		TrialsTotal: p.trialsTotal,
	}
	if p.found {
		best := p.bestScore
		snap.BestScore = &best
	}
	return snap
}

// Sweep is the externally visible record of a sweep
type Sweep struct {
	ID              string           `json:"id"`
	Status          SweepStatus      `json:"status"`
	Experiment      string           `json:"experiment"`
	CreatedAtUnixMs int64            `json:"created_at_unix_ms"`
	StartedAtUnixMs int64            `json:"started_at_unix_ms,omitempty"`
	EndedAtUnixMs   int64            `json:"ended_at_unix_ms,omitempty"`
	Error           string           `json:"error,omitempty"`
	Progress        ProgressSnapshot `json:"progress"`
	Models          []ModelSummary   `json:"models,omitempty"`
}
