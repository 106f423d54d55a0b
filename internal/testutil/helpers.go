// Package testutil provides assertion and measurement helpers shared by the
// converter, ring buffer and delay line tests.
package testutil

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// DBTolerance is the tolerance for comparisons in decibels.
const DBTolerance = 0.01

// Float is the sample type constraint of the helpers.
type Float interface {
	~float32 | ~float64
}

// firstBad returns the index of the first sample rejected by ok, or -1.
func firstBad[F Float](s []F, ok func(v float64) bool) int {
	for i, v := range s {
		if !ok(float64(v)) {
			return i
		}
	}
	return -1
}

// AssertNoNaNOrInf fails if any sample is NaN or infinite.
func AssertNoNaNOrInf[F Float](t *testing.T, s []F, msgAndArgs ...any) bool {
	t.Helper()
	i := firstBad(s, func(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) })
	if i < 0 {
		return true
	}
	return assert.Fail(t, "sample is not finite", append([]any{"s[%d]=%v", i, s[i]}, msgAndArgs...)...)
}

// AssertAllInRange fails if any sample lies outside [lo, hi].
func AssertAllInRange[F Float](t *testing.T, s []F, lo, hi float64, msgAndArgs ...any) bool {
	t.Helper()
	i := firstBad(s, func(v float64) bool { return v >= lo && v <= hi })
	if i < 0 {
		return true
	}
	return assert.Fail(t, "sample out of range",
		append([]any{"s[%d]=%v outside [%v, %v]", i, s[i], lo, hi}, msgAndArgs...)...)
}

// AssertInRange fails if v lies outside [lo, hi].
func AssertInRange(t *testing.T, v, lo, hi float64, msgAndArgs ...any) bool {
	t.Helper()
	return AssertAllInRange(t, []float64{v}, lo, hi, msgAndArgs...)
}

// AssertSymmetric checks s[i] == s[n-1-i] within tol, the shape of a
// linear-phase kernel.
func AssertSymmetric[F Float](t *testing.T, s []F, tol float64) bool {
	t.Helper()
	n := len(s)
	for i := range n / 2 {
		if !assert.InDelta(t, float64(s[i]), float64(s[n-1-i]), tol, "kernel asymmetric at tap %d", i) {
			return false
		}
	}
	return true
}

// AssertOddLength checks that a kernel has a center tap.
func AssertOddLength[F Float](t *testing.T, s []F) bool {
	t.Helper()
	return assert.Equal(t, 1, len(s)%2, "kernel length %d has no center tap", len(s))
}

// AssertCenterIsMax checks that no tap exceeds the center tap.
func AssertCenterIsMax[F Float](t *testing.T, s []F) bool {
	t.Helper()
	if !assert.NotEmpty(t, s) {
		return false
	}
	c := len(s) / 2
	i := firstBad(s, func(v float64) bool { return v <= float64(s[c]) })
	if i < 0 {
		return true
	}
	return assert.Fail(t, "center tap is not the peak", "s[%d]=%v > s[%d]=%v", i, s[i], c, s[c])
}

// AssertDCGain checks the sum of the taps, which is the kernel's gain at
// 0 Hz.
func AssertDCGain[F Float](t *testing.T, s []F, want, tol float64) bool {
	t.Helper()
	var sum float64
	for _, v := range s {
		sum += float64(v)
	}
	return assert.InDelta(t, want, sum, tol, "DC gain")
}

// AssertRelativeError checks |got-want|/|want| <= tol, falling back to an
// absolute comparison when want is zero.
func AssertRelativeError(t *testing.T, want, got, tol float64, msgAndArgs ...any) bool {
	t.Helper()
	if want == 0 {
		return assert.InDelta(t, want, got, tol, msgAndArgs...)
	}
	return assert.InEpsilon(t, want, got, tol, msgAndArgs...)
}
