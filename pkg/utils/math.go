package utils

import "math"

// Clamp limits v to [lo, hi]. When lo > hi, lo wins.
func Clamp(v, lo, hi float64) float64 {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}

// Round2 rounds to two decimals, enough precision for SVG coordinates.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
