package config

import (
	"math"
	"strings"
	"testing"
)

const validExperimentYAML = `
name: bank-marketing
seed: 7
dataset:
  train_path: data/train.csv
  test_path: data/test.csv
  id_column: id
  label_column: y
  positive_label: "yes"
  categorical: [job, marital]
split:
  train: 0.6
  validation: 0.2
  test: 0.2
  stratify: true
models:
  - name: rf
    family: random_forest
    objective: oob
    floor: 0.5
    fixed: {n_estimators: 50}
    grid:
      min_samples_leaf: [1, 3, 5]
      max_features: [sqrt, 0.5]
  - name: xgb
    family: xgboost
    objective: auc
    search: random
    n_iter: 10
    distributions:
      learning_rate: {type: loguniform, low: 0.01, high: 0.3}
      max_depth: {type: int, low: 2, high: 8}
      reg_lambda: {type: choice, values: [0, 1, 10]}
output:
  submission_path: out/submission.csv
  submission_model: rf
`

func TestParseExperimentYAMLString(t *testing.T) {
	exp, err := ParseExperimentYAMLString(validExperimentYAML)
	if err != nil {
		t.Fatalf("ParseExperimentYAMLString failed: %v", err)
	}
	if exp.Name != "bank-marketing" {
		t.Fatalf("expected name bank-marketing, got %q", exp.Name)
	}
	if exp.SeedOrDefault() != 7 {
		t.Fatalf("expected seed 7, got %d", exp.SeedOrDefault())
	}
	if exp.LogLevel != "" {
		t.Fatalf("an unset log level should stay empty, got %q", exp.LogLevel)
	}
	if len(exp.Models) != 2 {
		t.Fatalf("expected 2 models, got %d", len(exp.Models))
	}

	rf := exp.Models[0]
	if rf.Search != SearchGrid {
		t.Fatalf("expected grid search default, got %q", rf.Search)
	}
	if rf.FloorOrDefault() != 0.5 {
		t.Fatalf("expected floor 0.5, got %f", rf.FloorOrDefault())
	}
	leaves := rf.Grid["min_samples_leaf"]
	if len(leaves) != 3 || leaves[0] != 1 {
		t.Fatalf("expected int grid values, got %#v", leaves)
	}
	if rf.Fixed["n_estimators"] != 50 {
		t.Fatalf("expected fixed n_estimators 50, got %#v", rf.Fixed["n_estimators"])
	}

	xgb := exp.Models[1]
	if xgb.Distributions["learning_rate"].Type != "loguniform" {
		t.Fatalf("expected loguniform distribution")
	}
	if !math.IsInf(xgb.FloorOrDefault(), -1) {
		t.Fatalf("expected -Inf floor when unset, got %f", xgb.FloorOrDefault())
	}
}

func TestParseExperimentDefaults(t *testing.T) {
	exp, err := ParseExperimentYAMLString(`
dataset:
  train_path: train.csv
  label_column: y
models:
  - family: svm
`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exp.SeedOrDefault() != DefaultSeed {
		t.Fatalf("expected default seed, got %d", exp.SeedOrDefault())
	}
	if exp.Split.Train != 0.6 || exp.Split.Validation != 0.2 || exp.Split.Test != 0.2 {
		t.Fatalf("expected default split, got %+v", exp.Split)
	}
	m := exp.Models[0]
	if m.Name != "svm" || m.Objective != ObjectiveAccuracy || m.Search != SearchGrid {
		t.Fatalf("unexpected model defaults: %+v", m)
	}
	if got := exp.Dataset.MissingOrDefault(); len(got) != 3 {
		t.Fatalf("expected default missing markers, got %v", got)
	}
	if exp.Dataset.DelimiterRune() != ',' {
		t.Fatalf("expected comma delimiter")
	}
}

func TestParseExperimentYAMLStringInvalid(t *testing.T) {
	base := `
dataset:
  train_path: train.csv
  id_column: id
  label_column: y
`
	tests := []struct {
		name     string
		yamlText string
		wantErr  string
	}{
		{
			name:     "No models",
			yamlText: base + "models: []",
			wantErr:  "at least one model",
		},
		{
			name:     "Unknown family",
			yamlText: base + "models: [{family: knn}]",
			wantErr:  "unknown family",
		},
		{
			name:     "OOB on boosting",
			yamlText: base + "models: [{family: xgboost, objective: oob}]",
			wantErr:  "requires a bagging family",
		},
		{
			name:     "Bad objective",
			yamlText: base + "models: [{family: svm, objective: f1}]",
			wantErr:  "invalid objective",
		},
		{
			name:     "Empty grid values",
			yamlText: base + "models: [{family: svm, grid: {C: []}}]",
			wantErr:  "has no values",
		},
		{
			name:     "Random without n_iter",
			yamlText: base + "models: [{family: svm, search: random, distributions: {C: {type: uniform, low: 0.1, high: 10}}}]",
			wantErr:  "n_iter must be positive",
		},
		{
			name:     "Loguniform non-positive low",
			yamlText: base + "models: [{family: svm, n_iter: 3, distributions: {C: {type: loguniform, low: 0, high: 10}}}]",
			wantErr:  "low must be positive",
		},
		{
			name:     "Int with fractional bound",
			yamlText: base + "models: [{family: svm, n_iter: 3, distributions: {max_iter: {type: int, low: 1.5, high: 10}}}]",
			wantErr:  "must be integers",
		},
		{
			name:     "Fixed and swept",
			yamlText: base + "models: [{family: svm, fixed: {C: 1}, grid: {C: [1, 2]}}]",
			wantErr:  "both fixed and swept",
		},
		{
			name:     "Duplicate model",
			yamlText: base + "models: [{family: svm}, {family: svm}]",
			wantErr:  "duplicate model name",
		},
		{
			name: "Bad split",
			yamlText: base + `split: {train: 0.5, validation: 0.2, test: 0.2}
models: [{family: svm}]`,
			wantErr: "must sum to 1",
		},
		{
			name: "Accuracy without validation",
			yamlText: base + `split: {train: 0.8, validation: 0, test: 0.2}
models: [{family: svm}]`,
			wantErr: "requires a validation fraction",
		},
		{
			name: "Submission without test path",
			yamlText: base + `models: [{family: svm}]
output: {submission_path: out.csv, submission_model: svm}`,
			wantErr: "requires dataset.test_path",
		},
		{
			name: "Bad log level",
			yamlText: base + `log_level: loud
models: [{family: svm}]`,
			wantErr: "invalid log_level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseExperimentYAMLString(tt.yamlText)
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestMarshalExperimentYAMLRoundTrip(t *testing.T) {
	exp, err := ParseExperimentYAMLString(validExperimentYAML)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	out, err := MarshalExperimentYAML(exp)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	again, err := ParseExperimentYAMLString(out)
	if err != nil {
		t.Fatalf("re-parse failed: %v\n%s", err, out)
	}
	if len(again.Models) != len(exp.Models) || again.Models[1].NIter != 10 {
		t.Fatalf("round trip lost models: %+v", again.Models)
	}
}
