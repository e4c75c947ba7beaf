package util

import (
	"math"
	"strconv"
)

// SafeDiv divides n by d, returning 0 when the denominator is too close
// to zero to trust.
func SafeDiv(n, d float64) float64 {
	const eps = 1e-12
	if d > eps || d < -eps {
		return n / d
	}
	return 0
}

// NonNeg clamps small negative noise (shunt readings can dip a hair below
// zero at idle) to 0 and guards against NaN.
func NonNeg(x float64) float64 {
	if x < 0 || math.IsNaN(x) {
		return 0
	}
	return x
}

// FmtFloat renders a value for CSV rows with fixed precision and no
// locale surprises.
func FmtFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
