package utils

import (
	"math"
	"math/rand"
	"time"
)

// RandSource wraps a seeded generator so that sweeps, partitions and
// estimators can be replayed. It is not safe for concurrent use; give each
// goroutine its own source.
type RandSource struct {
	rng *rand.Rand
}

// NewRandSource creates a new random source with the given seed.
// A zero seed falls back to the current time.
func NewRandSource(seed int64) *RandSource {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &RandSource{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// Float64 returns a random float64 in [0.0, 1.0)
func (r *RandSource) Float64() float64 {
	return r.rng.Float64()
}

// Intn returns a random int in [0, n)
func (r *RandSource) Intn(n int) int {
	return r.rng.Intn(n)
}

// Perm returns a pseudo-random permutation of [0, n)
func (r *RandSource) Perm(n int) []int {
	return r.rng.Perm(n)
}

// NormFloat64 returns a normally distributed random number with mean and stddev
func (r *RandSource) NormFloat64(mean, stddev float64) float64 {
	return r.rng.NormFloat64()*stddev + mean
}

// UniformFloat64 returns a uniformly distributed random number in [min, max)
func (r *RandSource) UniformFloat64(min, max float64) float64 {
	return min + r.rng.Float64()*(max-min)
}

// LogUniformFloat64 returns a number whose logarithm is uniform in
// [log(min), log(max)). Both bounds must be positive.
func (r *RandSource) LogUniformFloat64(min, max float64) float64 {
	lo, hi := math.Log(min), math.Log(max)
	return math.Exp(lo + r.rng.Float64()*(hi-lo))
}

// SampleWithReplacement draws n indices from [0, n) with replacement.
func (r *RandSource) SampleWithReplacement(n, size int) []int {
	out := make([]int, size)
	for i := range out {
		out[i] = r.rng.Intn(n)
	}
	return out
}
