package utils

import (
	"strings"
	"sync"
	"testing"
)

func TestGenerateSweepIDConcurrent(t *testing.T) {
	const n = 200
	var mu sync.Mutex
	seen := make(map[string]bool, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := GenerateSweepID()
			mu.Lock()
			seen[id] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	if len(seen) != n {
		t.Fatalf("expected %d unique IDs, got %d", n, len(seen))
	}
}

func TestGenerateSweepID(t *testing.T) {
	id1 := GenerateSweepID()
	id2 := GenerateSweepID()

	if !strings.HasPrefix(id1, "sweep-") {
		t.Errorf("expected sweep- prefix, got %s", id1)
	}
	if id1 == id2 {
		t.Errorf("expected unique sweep IDs, got %s twice", id1)
	}
	// sweep-YYYYMMDD-HHMMSS-xxxxxxxx
	if len(id1) != len("sweep-20060102-150405-")+8 {
		t.Errorf("unexpected sweep ID length: %s", id1)
	}
}

func TestGenerateTrialID(t *testing.T) {
	got := GenerateTrialID("sweep-1", "rf", 7)
	if got != "sweep-1/rf/0007" {
		t.Fatalf("GenerateTrialID = %q", got)
	}
}
