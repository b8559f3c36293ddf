package domain

import "math"

// DefaultPrecision is the number of decimal places kept for distances and
// matched coordinates.
const DefaultPrecision = 4

// Round rounds v to digits decimal places, half away from zero. NaN and
// infinities are returned unchanged.
func Round(v float64, digits int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	p := math.Pow(10, float64(digits))
	return math.Round(v*p) / p
}
