package utils

import "math"

// ClampFloat64 clamps a float64 value between min and max
func ClampFloat64(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// Sigmoid is the logistic function 1/(1+e^-x), clamped to avoid overflow.
func Sigmoid(x float64) float64 {
	if x < -35 {
		return 1e-15
	}
	if x > 35 {
		return 1 - 1e-15
	}
	return 1 / (1 + math.Exp(-x))
}
