// Package ease provides the easing curves used by the text transitions.
package ease

import "math"

// Clamp01 bounds t to [0, 1].
func Clamp01(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}

// OutCubic decelerates toward 1: 1 - (1-t)^3.
func OutCubic(t float64) float64 {
	inv := 1 - t
	return 1 - inv*inv*inv
}

// InOutSine accelerates then decelerates along a half cosine.
func InOutSine(t float64) float64 {
	return -(math.Cos(math.Pi*t) - 1) / 2
}

// OutBack overshoots past 1 before settling back to 1.
func OutBack(t float64) float64 {
	const c1 = 1.70158
	const c3 = c1 + 1
	return 1 + c3*math.Pow(t-1, 3) + c1*math.Pow(t-1, 2)
}
