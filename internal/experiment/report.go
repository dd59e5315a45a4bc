package experiment

import (
	"time"

	"github.com/GoSim-25-26J-441/hpsweep/internal/search"
	"github.com/GoSim-25-26J-441/hpsweep/pkg/models"
)

// Report is the outcome of one experiment run
type Report struct {
	SweepID        string
	Experiment     string
	Seed           int64
	Rows           int
	Features       []string
	TrainRows      int
	ValidationRows int
	TestRows       int
	Models         []*ModelReport
	SubmissionPath string
	StartedAt      time.Time
	Duration       time.Duration
}

// ModelReport is the outcome of sweeping one configured model
type ModelReport struct {
	Name       string
	Family     string
	Objective  string
	Search     string
	Result     *search.Result
	Train      *models.SplitMetrics
	Validation *models.SplitMetrics
	Test       *models.SplitMetrics
	Duration   time.Duration
}

// Model returns the report for a model name
func (r *Report) Model(name string) (*ModelReport, bool) {
	for _, m := range r.Models {
		if m.Name == name {
			return m, true
		}
	}
	return nil, false
}

// Summaries converts every model report to its wire form
func (r *Report) Summaries(includeTrials bool) []models.ModelSummary {
	out := make([]models.ModelSummary, len(r.Models))
	for i, m := range r.Models {
		out[i] = m.Summary(includeTrials)
	}
	return out
}

// Summary converts the model report to its wire form
func (m *ModelReport) Summary(includeTrials bool) models.ModelSummary {
	s := models.ModelSummary{
		Model:      m.Name,
		Family:     m.Family,
		Objective:  m.Objective,
		Search:     m.Search,
		Train:      m.Train,
		Validation: m.Validation,
		Test:       m.Test,
		DurationMs: m.Duration.Milliseconds(),
	}
	if m.Result == nil {
		return s
	}
	s.Floor = models.FloorPtr(m.Result.Floor)
	s.Evaluations = m.Result.Evaluations
	if best, score, err := m.Result.Winner(); err == nil {
		s.Found = true
		s.BestParams = best.Map()
		s.BestScore = models.SafeScore(score)
	}
	if includeTrials {
		s.Trials = TrialRecords(m.Result.History)
	}
	return s
}

// TrialRecords converts trial history to its wire form
func TrialRecords(history []search.Trial) []models.TrialRecord {
	out := make([]models.TrialRecord, len(history))
	for i, t := range history {
		out[i] = models.TrialRecord{
			Index:      t.Index,
			Params:     t.Combination.Map(),
			Score:      models.SafeScore(t.Score),
			Improved:   t.Improved,
			DurationMs: t.Duration.Milliseconds(),
		}
	}
	return out
}
