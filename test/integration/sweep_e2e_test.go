//go:build integration
// +build integration

package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/GoSim-25-26J-441/hpsweep/internal/store"
	"github.com/GoSim-25-26J-441/hpsweep/internal/sweepd"
	"github.com/GoSim-25-26J-441/hpsweep/pkg/models"
)

const e2eExperimentYAML = `
name: e2e
seed: 21
dataset:
  train_path: train.csv
  test_path: test.csv
  id_column: id
  label_column: label
split:
  train: 0.6
  validation: 0.2
  test: 0.2
  stratify: true
models:
  - name: tree
    family: decision_tree
    objective: auc
    floor: 0.5
    grid:
      max_depth: [2, 4]
  - name: bagging
    family: bagging
    objective: oob
    fixed: {n_estimators: 8}
    grid:
      max_depth: [2, 3]
  - name: gbm
    family: gradient_boosting
    objective: accuracy
    search: random
    n_iter: 2
    distributions:
      learning_rate: {type: loguniform, low: 0.05, high: 0.5}
      n_estimators: {type: int, low: 5, high: 15}
output:
  submission_path: submission.csv
  submission_model: tree
`

func writeE2EData(t *testing.T, dir string) {
	t.Helper()
	var train strings.Builder
	train.WriteString("id,age,fare,sex,label\n")
	for i := 0; i < 120; i++ {
		sex := "male"
		if i%3 == 0 {
			sex = "female"
		}
		age := 5 + (i*7)%60
		fare := float64((i*13)%90) + 0.5
		label := 0
		if sex == "female" || age < 12 {
			label = 1
		}
		fmt.Fprintf(&train, "p%d,%d,%.1f,%s,%d\n", i, age, fare, sex, label)
	}
	if err := os.WriteFile(filepath.Join(dir, "train.csv"), []byte(train.String()), 0o644); err != nil {
		t.Fatalf("write train: %v", err)
	}
	test := "id,age,fare,sex\nq1,30,10.5,female\nq2,40,8,male\nq3,,20,male\n"
	if err := os.WriteFile(filepath.Join(dir, "test.csv"), []byte(test), 0o644); err != nil {
		t.Fatalf("write test: %v", err)
	}
}

func TestIntegration_SweepOverHTTPIsRecorded(t *testing.T) {
	dir := t.TempDir()
	writeE2EData(t, dir)

	history, err := store.Open(filepath.Join(dir, "history.db"))
	if err != nil {
		t.Fatalf("open history: %v", err)
	}
	defer history.Close()

	runs := sweepd.NewRunStore()
	executor := sweepd.NewExecutor(runs, sweepd.WithBaseDir(dir), sweepd.WithRecorder(history))
	server := httptest.NewServer(sweepd.NewHTTPServer(runs, executor).Handler())
	defer server.Close()

	body, _ := json.Marshal(map[string]any{
		"sweep_id":        "e2e-1",
		"experiment_yaml": e2eExperimentYAML,
		"start":           true,
	})
	resp, err := http.Post(server.URL+"/v1/sweeps", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	var sw models.Sweep
	deadline := time.Now().Add(30 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(server.URL + "/v1/sweeps/e2e-1")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		var out struct {
			Sweep models.Sweep `json:"sweep"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			t.Fatalf("decode: %v", err)
		}
		resp.Body.Close()
		sw = out.Sweep
		if sw.Status.Terminal() {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	executor.Wait()

	if sw.Status != models.SweepStatusCompleted {
		t.Fatalf("expected completed sweep, got %s (%s)", sw.Status, sw.Error)
	}
	if sw.Progress.TrialsDone != 6 || sw.Progress.TrialsTotal != 6 {
		t.Fatalf("expected 6/6 trials, got %+v", sw.Progress)
	}
	if len(sw.Models) != 3 {
		t.Fatalf("expected 3 model summaries, got %d", len(sw.Models))
	}

	rec, err := history.Sweep(context.Background(), "e2e-1")
	if err != nil {
		t.Fatalf("history lookup: %v", err)
	}
	if len(rec.Models) != 3 {
		t.Fatalf("expected 3 recorded models, got %d", len(rec.Models))
	}
	trials, err := history.Trials(context.Background(), "e2e-1", "bagging")
	if err != nil {
		t.Fatalf("trials: %v", err)
	}
	if len(trials) != 2 {
		t.Fatalf("expected 2 bagging trials, got %d", len(trials))
	}

	sub, err := os.ReadFile(filepath.Join(dir, "submission.csv"))
	if err != nil {
		t.Fatalf("expected submission: %v", err)
	}
	if lines := strings.Split(strings.TrimSpace(string(sub)), "\n"); len(lines) != 4 || lines[0] != "id,label" {
		t.Fatalf("unexpected submission %q", sub)
	}
}
