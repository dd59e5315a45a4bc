package search

import (
	"fmt"
	"sort"
	"strings"
)

// Combination is one immutable assignment of hyperparameter values.
// Keys are held in sorted order; accessors never expose the backing map.
type Combination struct {
	keys   []string
	values map[string]any
}

// NewCombination copies values into a Combination
func NewCombination(values map[string]any) Combination {
	c := Combination{
		keys:   make([]string, 0, len(values)),
		values: make(map[string]any, len(values)),
	}
	for k, v := range values {
		c.keys = append(c.keys, k)
		c.values[k] = v
	}
	sort.Strings(c.keys)
	return c
}

// IsZero reports whether the combination was never assigned.
// An empty but assigned combination is not zero.
func (c Combination) IsZero() bool {
	return c.values == nil
}

// Len returns the number of parameters
func (c Combination) Len() int {
	return len(c.keys)
}

// Keys returns the parameter names in sorted order
func (c Combination) Keys() []string {
	out := make([]string, len(c.keys))
	copy(out, c.keys)
	return out
}

// Get returns the value bound to name
func (c Combination) Get(name string) (any, bool) {
	v, ok := c.values[name]
	return v, ok
}

// Map returns a copy of the underlying assignment
func (c Combination) Map() map[string]any {
	out := make(map[string]any, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out
}

// With returns a new combination with base values filled in for any key
// the combination does not already bind.
func (c Combination) With(base map[string]any) Combination {
	if len(base) == 0 {
		return c
	}
	merged := make(map[string]any, len(base)+len(c.values))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range c.values {
		merged[k] = v
	}
	return NewCombination(merged)
}

// Equal compares two combinations by their canonical form
func (c Combination) Equal(other Combination) bool {
	return c.String() == other.String()
}

// String renders the canonical form {a=1, b=gini}
func (c Combination) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range c.keys {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s=%v", k, c.values[k])
	}
	b.WriteByte('}')
	return b.String()
}

// WithFixed merges fixed values into every combination
func WithFixed(combos []Combination, fixed map[string]any) []Combination {
	if len(fixed) == 0 {
		return combos
	}
	out := make([]Combination, len(combos))
	for i, c := range combos {
		out[i] = c.With(fixed)
	}
	return out
}
