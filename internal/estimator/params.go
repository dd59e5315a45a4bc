package estimator

import (
	"fmt"
	"math"
	"strings"
)

// paramReader reads typed values out of Params, rejecting names the family
// does not accept. The first conversion error sticks.
type paramReader struct {
	family string
	params Params
	err    error
}

func newParamReader(family string, params Params, allowed ...string) (*paramReader, error) {
	if params == nil {
		params = MapParams(nil)
	}
	known := make(map[string]bool, len(allowed))
	for _, name := range allowed {
		known[name] = true
	}
	for _, k := range params.Keys() {
		if !known[k] {
			return nil, &InvalidParamError{
				Family: family,
				Param:  k,
				Reason: "unknown parameter (accepted: " + strings.Join(allowed, ", ") + ")",
			}
		}
	}
	return &paramReader{family: family, params: params}, nil
}

func (r *paramReader) fail(name string, v any, reason string) {
	if r.err == nil {
		r.err = &InvalidParamError{Family: r.family, Param: name, Value: v, Reason: reason}
	}
}

// Int reads an integer. Floats are accepted when integral, since JSON
// payloads carry every number as float64.
func (r *paramReader) Int(name string, def int) int {
	v, ok := r.params.Get(name)
	if !ok || v == nil {
		return def
	}
	switch n := v.(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case float64:
		if math.Trunc(n) == n && !math.IsInf(n, 0) {
			return int(n)
		}
	}
	r.fail(name, v, "must be an integer")
	return def
}

// Float reads a number
func (r *paramReader) Float(name string, def float64) float64 {
	v, ok := r.params.Get(name)
	if !ok || v == nil {
		return def
	}
	switch n := v.(type) {
	case float64:
		if !math.IsNaN(n) {
			return n
		}
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	r.fail(name, v, "must be a number")
	return def
}

// String reads a string
func (r *paramReader) String(name, def string) string {
	v, ok := r.params.Get(name)
	if !ok || v == nil {
		return def
	}
	s, ok := v.(string)
	if !ok {
		r.fail(name, v, "must be a string")
		return def
	}
	return s
}

// Bool reads a boolean
func (r *paramReader) Bool(name string, def bool) bool {
	v, ok := r.params.Get(name)
	if !ok || v == nil {
		return def
	}
	b, ok := v.(bool)
	if !ok {
		r.fail(name, v, "must be a boolean")
		return def
	}
	return b
}

// Seed reads random_state, falling back to the sweep seed
func (r *paramReader) Seed(def int64) int64 {
	v, ok := r.params.Get("random_state")
	if !ok || v == nil {
		return def
	}
	return int64(r.Int("random_state", int(def)))
}

// MaxFeatures reads a feature-subsampling setting
func (r *paramReader) MaxFeatures(name string, def MaxFeatures) MaxFeatures {
	v, ok := r.params.Get(name)
	if !ok || v == nil {
		return def
	}
	mf, err := ParseMaxFeatures(v)
	if err != nil {
		r.fail(name, v, err.Error())
		return def
	}
	return mf
}

// Check records an error unless cond holds
func (r *paramReader) Check(cond bool, name string, v any, reason string) {
	if !cond {
		r.fail(name, v, reason)
	}
}

func (r *paramReader) Err() error {
	return r.err
}

// MaxFeatures describes how many features a split or an ensemble member
// may see.
type MaxFeatures struct {
	mode     string
	count    int
	fraction float64
}

// Feature-subsampling presets
var (
	AllFeatures  = MaxFeatures{mode: "all"}
	SqrtFeatures = MaxFeatures{mode: "sqrt"}
	Log2Features = MaxFeatures{mode: "log2"}
)

// FeatureCount selects exactly k features
func FeatureCount(k int) MaxFeatures {
	return MaxFeatures{mode: "count", count: k}
}

// FeatureFraction selects round(f * p) features, at least one
func FeatureFraction(f float64) MaxFeatures {
	return MaxFeatures{mode: "fraction", fraction: f}
}

// ParseMaxFeatures accepts "all", "sqrt", "log2", a positive integer count,
// or a fraction in (0, 1]. An integral float above 1 is taken as a count.
func ParseMaxFeatures(v any) (MaxFeatures, error) {
	switch x := v.(type) {
	case string:
		switch strings.ToLower(x) {
		case "all", "none", "":
			return AllFeatures, nil
		case "sqrt", "auto":
			return SqrtFeatures, nil
		case "log2":
			return Log2Features, nil
		}
		return MaxFeatures{}, fmt.Errorf("unknown max_features %q", x)
	case int:
		if x < 1 {
			return MaxFeatures{}, fmt.Errorf("feature count must be positive")
		}
		return FeatureCount(x), nil
	case int64:
		if x < 1 {
			return MaxFeatures{}, fmt.Errorf("feature count must be positive")
		}
		return FeatureCount(int(x)), nil
	case float64:
		switch {
		case x > 0 && x <= 1:
			return FeatureFraction(x), nil
		case x > 1 && math.Trunc(x) == x:
			return FeatureCount(int(x)), nil
		}
		return MaxFeatures{}, fmt.Errorf("fraction must be in (0, 1]")
	}
	return MaxFeatures{}, fmt.Errorf("must be a count, a fraction, or sqrt/log2/all")
}

// Resolve returns the number of features to use out of p, in [1, p]
func (m MaxFeatures) Resolve(p int) int {
	var k int
	switch m.mode {
	case "sqrt":
		k = int(math.Sqrt(float64(p)))
	case "log2":
		k = int(math.Log2(float64(p)))
	case "count":
		k = m.count
	case "fraction":
		k = int(math.Round(m.fraction * float64(p)))
	default:
		k = p
	}
	if k < 1 {
		k = 1
	}
	if k > p {
		k = p
	}
	return k
}

func (m MaxFeatures) String() string {
	switch m.mode {
	case "count":
		return fmt.Sprintf("%d", m.count)
	case "fraction":
		return fmt.Sprintf("%g", m.fraction)
	case "":
		return "all"
	}
	return m.mode
}
