package testutil

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
)

// Float64s converts samples of any float type to float64.
func Float64s[F float32 | float64](s []F) []float64 {
	out := make([]float64, len(s))
	for i, v := range s {
		out[i] = float64(v)
	}
	return out
}

// RMS returns the root mean square of s, or 0 for an empty slice.
func RMS(s []float64) float64 {
	if len(s) == 0 {
		return 0
	}
	return floats.Norm(s, 2) / math.Sqrt(float64(len(s)))
}

// MaxAbsDiff returns the largest absolute difference between successive
// samples, a cheap click detector.
func MaxAbsDiff(s []float64) float64 {
	var worst float64
	for i := 1; i < len(s); i++ {
		worst = max(worst, math.Abs(s[i]-s[i-1]))
	}
	return worst
}

// PeakFrequency returns the frequency in hertz of the strongest non-DC bin
// of s sampled at sampleRate. The length of s sets the resolution.
func PeakFrequency(s []float64, sampleRate float64) float64 {
	if len(s) < 2 {
		return 0
	}
	fft := fourier.NewFFT(len(s))
	coeffs := fft.Coefficients(nil, s)

	peak := 1
	for i := 2; i < len(coeffs); i++ {
		if cmplx.Abs(coeffs[i]) > cmplx.Abs(coeffs[peak]) {
			peak = i
		}
	}
	return fft.Freq(peak) * sampleRate
}

// Ramp returns n samples of slope*i.
func Ramp(n int, slope float32) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(i) * slope
	}
	return out
}

// RampLag returns the smallest and largest delay, in samples, seen in out
// from index from onwards, given that the input was Ramp(len, slope).
// Output sample t of a delay of d samples is slope*(t-d).
func RampLag(out []float32, slope float32, from int) (minLag, maxLag float64) {
	minLag, maxLag = math.Inf(1), math.Inf(-1)
	for t := from; t < len(out); t++ {
		lag := float64(t) - float64(out[t])/float64(slope)
		minLag = min(minLag, lag)
		maxLag = max(maxLag, lag)
	}
	return minLag, maxLag
}
