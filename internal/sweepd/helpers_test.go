package sweepd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/GoSim-25-26J-441/hpsweep/pkg/models"
)

// writeTrainCSV writes a small separable dataset: label is 1 when x > 0.
func writeTrainCSV(t *testing.T, dir string) {
	t.Helper()
	var b strings.Builder
	b.WriteString("id,x,label\n")
	for i := 0; i < 40; i++ {
		x := float64(i%20) - 9.5
		label := 0
		if x > 0 {
			label = 1
		}
		fmt.Fprintf(&b, "r%d,%.1f,%d\n", i, x, label)
	}
	if err := os.WriteFile(filepath.Join(dir, "train.csv"), []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write train: %v", err)
	}
}

const testExperimentYAML = `
name: daemon-test
seed: 5
dataset:
  train_path: train.csv
  id_column: id
  label_column: label
split:
  train: 0.5
  validation: 0.5
models:
  - name: tree
    family: decision_tree
    objective: accuracy
    grid:
      max_depth: [1, 2]
`

// slowExperimentYAML takes long enough that a stop lands mid-sweep.
const slowExperimentYAML = `
name: daemon-slow
dataset:
  train_path: train.csv
  id_column: id
  label_column: label
split:
  train: 0.5
  validation: 0.5
models:
  - name: rf
    family: random_forest
    objective: accuracy
    fixed: {n_estimators: 500}
    grid:
      max_depth: [1, 2, 3, 4, 5, 6, 7, 8]
      min_samples_leaf: [1, 2, 3, 4]
      criterion: [gini, entropy]
`

func newTestExecutor(t *testing.T) (*RunStore, *Executor) {
	t.Helper()
	dir := t.TempDir()
	writeTrainCSV(t, dir)
	store := NewRunStore()
	return store, NewExecutor(store, WithBaseDir(dir))
}

func waitForStatus(t *testing.T, store *RunStore, id string, want models.SweepStatus) models.Sweep {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		sw, ok := store.Get(id)
		if !ok {
			t.Fatalf("sweep %s disappeared", id)
		}
		if sw.Status == want {
			return sw
		}
		if sw.Status.Terminal() {
			t.Fatalf("sweep %s ended as %s (error %q), want %s", id, sw.Status, sw.Error, want)
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for sweep %s to reach %s", id, want)
	return models.Sweep{}
}
