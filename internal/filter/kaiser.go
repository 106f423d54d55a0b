// Package filter designs the windowed-sinc kernels used by the streaming
// converter and evaluates their frequency response.
package filter

import (
	"math"

	"github.com/tphakala/go-audio-delay/internal/mathutil"
)

const (
	sincZeroThreshold = 1e-6
	halfWidthDivisor  = 0.5
)

// Kaiser evaluates a Kaiser window with parameter beta at the normalized
// distance t from its center (t in [0, 1]; 1 is the edge). i0Beta must be
// mathutil.BesselI0(beta); callers evaluating many points compute it once.
func Kaiser(t, beta, i0Beta float64) float64 {
	if t >= 1 {
		if t == 1 {
			return 1 / i0Beta
		}
		return 0
	}
	return mathutil.BesselI0(beta*math.Sqrt(1-t*t)) / i0Beta
}

// WindowedSinc returns cutoff·sinc(cutoff·x) tapered by a Kaiser window
// spanning taps input samples. x is measured in input samples from the
// kernel center and cutoff is a fraction of the input Nyquist frequency.
// The cutoff scaling keeps the DC gain of a kernel sampled at unit spacing
// close to one.
func WindowedSinc(x, cutoff float64, taps int, beta, i0Beta float64) float64 {
	ax := math.Abs(x)
	if ax < sincZeroThreshold {
		return cutoff
	}
	half := halfWidthDivisor * float64(taps)
	if ax > half {
		return 0
	}
	arg := math.Pi * x * cutoff
	return cutoff * math.Sin(arg) / arg * Kaiser(ax/half, beta, i0Beta)
}
