package config

import "math"

// DefaultSeed is used when an experiment does not pin its own seed.
const DefaultSeed int64 = 42

// Experiment is the root of an experiment YAML file: one dataset, one
// partitioning, and one sweep per model family.
type Experiment struct {
	Name     string       `yaml:"name"`
	LogLevel string       `yaml:"log_level,omitempty"` // empty keeps the command line level
	Seed     *int64       `yaml:"seed,omitempty"`
	Dataset  Dataset      `yaml:"dataset"`
	Split    Split        `yaml:"split"`
	Models   []ModelSweep `yaml:"models"`
	Output   *Output      `yaml:"output,omitempty"`
}

// Dataset describes the CSV inputs and how their columns are typed
type Dataset struct {
	TrainPath     string   `yaml:"train_path"`
	TestPath      string   `yaml:"test_path,omitempty"` // unlabeled rows for submission
	IDColumn      string   `yaml:"id_column"`
	LabelColumn   string   `yaml:"label_column"`
	PositiveLabel string   `yaml:"positive_label,omitempty"`
	Categorical   []string `yaml:"categorical,omitempty"`
	Drop          []string `yaml:"drop,omitempty"`
	MissingValues []string `yaml:"missing_values,omitempty"`
	Delimiter     string   `yaml:"delimiter,omitempty"`
}

// Split holds the train/validation/test fractions
type Split struct {
	Train      float64 `yaml:"train"`
	Validation float64 `yaml:"validation"`
	Test       float64 `yaml:"test"`
	Stratify   bool    `yaml:"stratify"`
}

// ModelSweep describes the hyperparameter sweep for one model family
type ModelSweep struct {
	Name          string                      `yaml:"name"`
	Family        string                      `yaml:"family"`    // random_forest, bagging, gradient_boosting, xgboost, svm, decision_tree
	Objective     string                      `yaml:"objective"` // oob, accuracy, auc
	Search        string                      `yaml:"search"`    // grid or random
	Floor         *float64                    `yaml:"floor,omitempty"`
	Fixed         map[string]any              `yaml:"fixed,omitempty"`
	Grid          map[string][]any            `yaml:"grid,omitempty"`
	Distributions map[string]DistributionSpec `yaml:"distributions,omitempty"`
	NIter         int                         `yaml:"n_iter,omitempty"`
}

// DistributionSpec describes one sampled dimension of a random search
type DistributionSpec struct {
	Type   string  `yaml:"type"` // choice, int, uniform, loguniform
	Low    float64 `yaml:"low,omitempty"`
	High   float64 `yaml:"high,omitempty"`
	Values []any   `yaml:"values,omitempty"`
}

// Output controls submission files and result persistence
type Output struct {
	SubmissionPath   string   `yaml:"submission_path,omitempty"`
	SubmissionModel  string   `yaml:"submission_model,omitempty"`
	SubmissionHeader []string `yaml:"submission_header,omitempty"`
	DBPath           string   `yaml:"db_path,omitempty"` // history database when no --db flag is given
}

// SeedOrDefault returns the configured seed or DefaultSeed
func (e *Experiment) SeedOrDefault() int64 {
	if e.Seed == nil {
		return DefaultSeed
	}
	return *e.Seed
}

// Model returns the sweep with the given name
func (e *Experiment) Model(name string) (*ModelSweep, bool) {
	for i := range e.Models {
		if e.Models[i].Name == name {
			return &e.Models[i], true
		}
	}
	return nil, false
}

// FloorOrDefault returns the configured floor score, or negative infinity so
// that any finite score can win.
func (m *ModelSweep) FloorOrDefault() float64 {
	if m.Floor == nil {
		return math.Inf(-1)
	}
	return *m.Floor
}

// MissingOrDefault returns the configured missing-value markers
func (d *Dataset) MissingOrDefault() []string {
	if len(d.MissingValues) == 0 {
		return []string{"", "NA", "?"}
	}
	return d.MissingValues
}

// DelimiterRune returns the field delimiter, defaulting to a comma
func (d *Dataset) DelimiterRune() rune {
	if d.Delimiter == "" {
		return ','
	}
	return []rune(d.Delimiter)[0]
}

// SubmissionHeaderOrDefault returns the header row of the submission file
func (o *Output) SubmissionHeaderOrDefault(idColumn, labelColumn string) []string {
	if len(o.SubmissionHeader) == 2 {
		return o.SubmissionHeader
	}
	return []string{idColumn, labelColumn}
}
