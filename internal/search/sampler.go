package search

import (
	"fmt"
	"math"
	"sort"

	"github.com/GoSim-25-26J-441/hpsweep/pkg/config"
	"github.com/GoSim-25-26J-441/hpsweep/pkg/utils"
)

// Distribution draws values for one sampled hyperparameter
type Distribution interface {
	Sample(r *utils.RandSource) any
	Validate() error
}

// Choice picks uniformly among a fixed list of values
type Choice struct {
	Values []any
}

func (d Choice) Sample(r *utils.RandSource) any {
	return d.Values[r.Intn(len(d.Values))]
}

func (d Choice) Validate() error {
	if len(d.Values) == 0 {
		return fmt.Errorf("choice needs at least one value")
	}
	return nil
}

// IntUniform draws integers uniformly from [Low, High)
type IntUniform struct {
	Low, High int
}

func (d IntUniform) Sample(r *utils.RandSource) any {
	return d.Low + r.Intn(d.High-d.Low)
}

func (d IntUniform) Validate() error {
	if d.High <= d.Low {
		return fmt.Errorf("int range [%d, %d) is empty", d.Low, d.High)
	}
	return nil
}

// Uniform draws floats uniformly from [Low, High)
type Uniform struct {
	Low, High float64
}

func (d Uniform) Sample(r *utils.RandSource) any {
	return r.UniformFloat64(d.Low, d.High)
}

func (d Uniform) Validate() error {
	if !(d.High > d.Low) {
		return fmt.Errorf("uniform range [%v, %v) is empty", d.Low, d.High)
	}
	return nil
}

// LogUniform draws floats whose logarithm is uniform in [log Low, log High)
type LogUniform struct {
	Low, High float64
}

func (d LogUniform) Sample(r *utils.RandSource) any {
	return r.LogUniformFloat64(d.Low, d.High)
}

func (d LogUniform) Validate() error {
	if !(d.Low > 0) {
		return fmt.Errorf("loguniform low must be positive, got %v", d.Low)
	}
	if !(d.High > d.Low) {
		return fmt.Errorf("loguniform range [%v, %v) is empty", d.Low, d.High)
	}
	return nil
}

// DistributionFromConfig converts a configured distribution
func DistributionFromConfig(spec config.DistributionSpec) (Distribution, error) {
	var d Distribution
	switch spec.Type {
	case "choice":
		d = Choice{Values: spec.Values}
	case "int":
		if math.Trunc(spec.Low) != spec.Low || math.Trunc(spec.High) != spec.High {
			return nil, fmt.Errorf("int bounds must be integers, got [%v, %v)", spec.Low, spec.High)
		}
		d = IntUniform{Low: int(spec.Low), High: int(spec.High)}
	case "uniform":
		d = Uniform{Low: spec.Low, High: spec.High}
	case "loguniform":
		d = LogUniform{Low: spec.Low, High: spec.High}
	default:
		return nil, fmt.Errorf("unknown distribution type: %s", spec.Type)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// Sampler draws a fixed number of combinations from a search space
type Sampler struct {
	Space map[string]Distribution
	NIter int
	Seed  int64
}

// NewSamplerFromConfig builds a sampler from configured distributions
func NewSamplerFromConfig(specs map[string]config.DistributionSpec, nIter int, seed int64) (*Sampler, error) {
	space := make(map[string]Distribution, len(specs))
	for name, spec := range specs {
		d, err := DistributionFromConfig(spec)
		if err != nil {
			return nil, fmt.Errorf("distribution %s: %w", name, err)
		}
		space[name] = d
	}
	return &Sampler{Space: space, NIter: nIter, Seed: seed}, nil
}

// Sample draws NIter combinations. The draw depends only on the seed and
// the space. When every dimension is a Choice the combinations are drawn
// without replacement from the expanded grid, so at most grid-size of them
// are returned.
func (s *Sampler) Sample() ([]Combination, error) {
	if s.NIter <= 0 {
		return nil, fmt.Errorf("n_iter must be positive, got %d", s.NIter)
	}
	if len(s.Space) == 0 {
		return nil, fmt.Errorf("sampler has no distributions")
	}

	keys := make([]string, 0, len(s.Space))
	allChoice := true
	for k, d := range s.Space {
		if err := d.Validate(); err != nil {
			return nil, fmt.Errorf("distribution %s: %w", k, err)
		}
		if _, ok := d.(Choice); !ok {
			allChoice = false
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rng := utils.NewRandSource(s.Seed)
	if allChoice {
		grid := make(Grid, len(keys))
		for _, k := range keys {
			grid[k] = s.Space[k].(Choice).Values
		}
		all, err := grid.Expand()
		if err != nil {
			return nil, err
		}
		n := s.NIter
		if n > len(all) {
			n = len(all)
		}
		perm := rng.Perm(len(all))
		combos := make([]Combination, n)
		for i := 0; i < n; i++ {
			combos[i] = all[perm[i]]
		}
		return combos, nil
	}

	combos := make([]Combination, s.NIter)
	for i := range combos {
		values := make(map[string]any, len(keys))
		for _, k := range keys {
			values[k] = s.Space[k].Sample(rng)
		}
		combos[i] = NewCombination(values)
	}
	return combos, nil
}
