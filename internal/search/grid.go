package search

import (
	"fmt"
	"sort"
)

// Grid maps each hyperparameter to the list of values to try
type Grid map[string][]any

// EmptyDimensionError indicates a grid key with no values
type EmptyDimensionError struct {
	Param string
}

func (e *EmptyDimensionError) Error() string {
	return "grid parameter has no values: " + e.Param
}

func (g Grid) sortedKeys() []string {
	keys := make([]string, 0, len(g))
	for k := range g {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Size returns the number of combinations Expand would produce
func (g Grid) Size() int {
	size := 1
	for _, vals := range g {
		size *= len(vals)
	}
	return size
}

// Expand returns the Cartesian product of the grid. Keys are visited in
// lexicographic order and the last key varies fastest.
func (g Grid) Expand() ([]Combination, error) {
	keys := g.sortedKeys()
	for _, k := range keys {
		if len(g[k]) == 0 {
			return nil, &EmptyDimensionError{Param: k}
		}
	}

	size := g.Size()
	combos := make([]Combination, 0, size)
	counters := make([]int, len(keys))
	for n := 0; n < size; n++ {
		values := make(map[string]any, len(keys))
		for i, k := range keys {
			values[k] = g[k][counters[i]]
		}
		combos = append(combos, NewCombination(values))

		for i := len(keys) - 1; i >= 0; i-- {
			counters[i]++
			if counters[i] < len(g[keys[i]]) {
				break
			}
			counters[i] = 0
		}
	}
	return combos, nil
}

// MustExpand is Expand for grids known to be valid
func (g Grid) MustExpand() []Combination {
	combos, err := g.Expand()
	if err != nil {
		panic(fmt.Sprintf("search: %v", err))
	}
	return combos
}
