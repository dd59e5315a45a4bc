package config

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/GoSim-25-26J-441/hpsweep/internal/estimator"
)

// Search modes
const (
	SearchGrid   = "grid"
	SearchRandom = "random"
)

// Objective names
const (
	ObjectiveOOB      = "oob"
	ObjectiveAccuracy = "accuracy"
	ObjectiveAUC      = "auc"
)

// LoadExperiment loads and parses an experiment file
func LoadExperiment(path string) (*Experiment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read experiment file %s: %w", path, err)
	}
	exp, err := ParseExperimentYAML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse experiment file %s: %w", path, err)
	}
	return exp, nil
}

// validateExperiment performs validation on the experiment
func validateExperiment(exp *Experiment) error {
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if exp.LogLevel != "" && !validLogLevels[exp.LogLevel] {
		return fmt.Errorf("invalid log_level: %s (must be debug, info, warn, or error)", exp.LogLevel)
	}

	if err := validateDataset(&exp.Dataset); err != nil {
		return fmt.Errorf("dataset validation failed: %w", err)
	}
	if err := validateSplit(&exp.Split); err != nil {
		return fmt.Errorf("split validation failed: %w", err)
	}

	if len(exp.Models) == 0 {
		return fmt.Errorf("at least one model must be defined")
	}
	names := make(map[string]bool)
	for i := range exp.Models {
		m := &exp.Models[i]
		if names[m.Name] {
			return fmt.Errorf("duplicate model name: %s", m.Name)
		}
		names[m.Name] = true
		if err := validateModel(m, &exp.Split); err != nil {
			return fmt.Errorf("model %s: %w", m.Name, err)
		}
	}

	if exp.Output != nil {
		if err := validateOutput(exp.Output, exp); err != nil {
			return fmt.Errorf("output validation failed: %w", err)
		}
	}

	return nil
}

// validateDataset validates the dataset section
func validateDataset(d *Dataset) error {
	if d.TrainPath == "" {
		return fmt.Errorf("train_path cannot be empty")
	}
	if d.LabelColumn == "" {
		return fmt.Errorf("label_column cannot be empty")
	}
	if d.IDColumn == d.LabelColumn {
		return fmt.Errorf("id_column and label_column must differ")
	}
	if len([]rune(d.Delimiter)) > 1 {
		return fmt.Errorf("delimiter must be a single character, got %q", d.Delimiter)
	}
	for _, c := range d.Drop {
		if c == d.LabelColumn || (d.IDColumn != "" && c == d.IDColumn) {
			return fmt.Errorf("cannot drop id or label column %s", c)
		}
	}
	return nil
}

// validateSplit validates the partition fractions
func validateSplit(s *Split) error {
	if s.Train <= 0 {
		return fmt.Errorf("train fraction must be positive, got %f", s.Train)
	}
	if s.Validation < 0 || s.Test < 0 {
		return fmt.Errorf("validation and test fractions cannot be negative")
	}
	if sum := s.Train + s.Validation + s.Test; math.Abs(sum-1) > 1e-6 {
		return fmt.Errorf("fractions must sum to 1, got %f", sum)
	}
	return nil
}

// validateModel validates one model sweep
func validateModel(m *ModelSweep, split *Split) error {
	if !estimator.Known(m.Family) {
		return fmt.Errorf("unknown family: %s (must be one of %s)", m.Family, strings.Join(estimator.Families(), ", "))
	}

	switch m.Objective {
	case ObjectiveOOB:
		if !estimator.SupportsOOB(m.Family) {
			return fmt.Errorf("objective oob requires a bagging family, got %s", m.Family)
		}
	case ObjectiveAccuracy, ObjectiveAUC:
		if split.Validation <= 0 {
			return fmt.Errorf("objective %s requires a validation fraction", m.Objective)
		}
	default:
		return fmt.Errorf("invalid objective: %s (must be oob, accuracy, or auc)", m.Objective)
	}

	if m.Floor != nil && math.IsNaN(*m.Floor) {
		return fmt.Errorf("floor cannot be NaN")
	}

	switch m.Search {
	case SearchGrid:
		for name, values := range m.Grid {
			if len(values) == 0 {
				return fmt.Errorf("grid parameter %s has no values", name)
			}
		}
		if len(m.Distributions) > 0 {
			return fmt.Errorf("distributions are only used by random search")
		}
	case SearchRandom:
		if m.NIter <= 0 {
			return fmt.Errorf("n_iter must be positive for random search, got %d", m.NIter)
		}
		if len(m.Distributions) == 0 {
			return fmt.Errorf("random search requires at least one distribution")
		}
		for name, d := range m.Distributions {
			if err := validateDistribution(d); err != nil {
				return fmt.Errorf("distribution %s: %w", name, err)
			}
		}
		if len(m.Grid) > 0 {
			return fmt.Errorf("grid is only used by grid search")
		}
	default:
		return fmt.Errorf("invalid search: %s (must be grid or random)", m.Search)
	}

	for name := range m.Fixed {
		if _, ok := m.Grid[name]; ok {
			return fmt.Errorf("parameter %s is both fixed and swept", name)
		}
		if _, ok := m.Distributions[name]; ok {
			return fmt.Errorf("parameter %s is both fixed and swept", name)
		}
	}

	return nil
}

// validateDistribution validates a sampled dimension
func validateDistribution(d DistributionSpec) error {
	switch d.Type {
	case "choice":
		if len(d.Values) == 0 {
			return fmt.Errorf("choice needs at least one value")
		}
	case "int":
		if math.Trunc(d.Low) != d.Low || math.Trunc(d.High) != d.High {
			return fmt.Errorf("int bounds must be integers, got [%v, %v)", d.Low, d.High)
		}
		if d.High <= d.Low {
			return fmt.Errorf("high must exceed low, got [%v, %v)", d.Low, d.High)
		}
	case "uniform":
		if d.High <= d.Low {
			return fmt.Errorf("high must exceed low, got [%v, %v)", d.Low, d.High)
		}
	case "loguniform":
		if d.Low <= 0 {
			return fmt.Errorf("loguniform low must be positive, got %v", d.Low)
		}
		if d.High <= d.Low {
			return fmt.Errorf("high must exceed low, got [%v, %v)", d.Low, d.High)
		}
	default:
		return fmt.Errorf("invalid distribution type: %s (must be choice, int, uniform, or loguniform)", d.Type)
	}
	return nil
}

// validateOutput validates the output section
func validateOutput(o *Output, exp *Experiment) error {
	if o.SubmissionPath != "" {
		if exp.Dataset.TestPath == "" {
			return fmt.Errorf("submission_path requires dataset.test_path")
		}
		if exp.Dataset.IDColumn == "" {
			return fmt.Errorf("submission_path requires dataset.id_column")
		}
		if o.SubmissionModel == "" {
			return fmt.Errorf("submission_path requires submission_model")
		}
		if _, ok := exp.Model(o.SubmissionModel); !ok {
			return fmt.Errorf("submission_model %s is not a configured model", o.SubmissionModel)
		}
	}
	if len(o.SubmissionHeader) != 0 && len(o.SubmissionHeader) != 2 {
		return fmt.Errorf("submission_header must have exactly two columns, got %d", len(o.SubmissionHeader))
	}
	return nil
}
