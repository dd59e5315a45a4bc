package utils

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// idCounter disambiguates sweep IDs when the UUID source fails
var idCounter uint64

// GenerateSweepID generates a sweep ID with a timestamp prefix and a random UUID suffix.
func GenerateSweepID() string {
	timestamp := time.Now().UTC().Format("20060102-150405")
	id, err := uuid.NewRandom()
	if err != nil {
		count := atomic.AddUint64(&idCounter, 1)
		return fmt.Sprintf("sweep-%s-%x", timestamp, count)
	}
	return fmt.Sprintf("sweep-%s-%s", timestamp, id.String()[:8])
}

// GenerateTrialID builds the identifier of the i-th trial of a model inside a sweep.
func GenerateTrialID(sweepID, model string, index int) string {
	return fmt.Sprintf("%s/%s/%04d", sweepID, model, index)
}
