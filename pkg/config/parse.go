package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// ParseExperimentYAML parses an Experiment from YAML bytes, applies defaults and validates it.
// This is used for APIs where the experiment is provided as payload (not via filesystem).
func ParseExperimentYAML(data []byte) (*Experiment, error) {
	var exp Experiment
	if err := yaml.Unmarshal(data, &exp); err != nil {
		return nil, fmt.Errorf("failed to parse experiment yaml: %w", err)
	}

	applyDefaults(&exp)

	if err := validateExperiment(&exp); err != nil {
		return nil, fmt.Errorf("invalid experiment: %w", err)
	}

	return &exp, nil
}

// ParseExperimentYAMLString parses an Experiment from a YAML string and validates it.
func ParseExperimentYAMLString(yamlText string) (*Experiment, error) {
	return ParseExperimentYAML([]byte(yamlText))
}

// MarshalExperimentYAML renders an experiment back to YAML.
func MarshalExperimentYAML(exp *Experiment) (string, error) {
	out, err := yaml.Marshal(exp)
	if err != nil {
		return "", fmt.Errorf("failed to marshal experiment: %w", err)
	}
	return string(out), nil
}

func applyDefaults(exp *Experiment) {
	if exp.Split.Train == 0 && exp.Split.Validation == 0 && exp.Split.Test == 0 {
		exp.Split.Train, exp.Split.Validation, exp.Split.Test = 0.6, 0.2, 0.2
	}
	for i := range exp.Models {
		m := &exp.Models[i]
		if m.Search == "" {
			if len(m.Distributions) > 0 {
				m.Search = SearchRandom
			} else {
				m.Search = SearchGrid
			}
		}
		if m.Objective == "" {
			m.Objective = ObjectiveAccuracy
		}
		if m.Name == "" {
			m.Name = m.Family
		}
	}
}
