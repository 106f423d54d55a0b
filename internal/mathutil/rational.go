package mathutil

import "math"

// GCD returns the greatest common divisor of a and b (non-negative inputs).
func GCD(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// ReduceRates rounds two sample rates to whole hertz and divides out their
// common factor. ok is false when either rate rounds to zero or below.
func ReduceRates(in, out float64) (num, den int, ok bool) {
	i := int(math.Round(in))
	o := int(math.Round(out))
	if i <= 0 || o <= 0 {
		return 0, 0, false
	}
	g := GCD(i, o)
	return i / g, o / g, true
}
