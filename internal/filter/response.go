package filter

import "math"

// FilterResponse holds the frequency response of an FIR kernel.
type FilterResponse struct {
	// Frequencies normalized to the kernel's sample rate, 0 to 0.5.
	Frequencies []float64
	// Magnitude is the linear magnitude at each frequency.
	Magnitude []float64
	// Phase in radians.
	Phase []float64
}

// ComputeFrequencyResponse evaluates the DTFT of coeffs at numPoints evenly
// spaced frequencies from DC up to (not including) Nyquist.
func ComputeFrequencyResponse(coeffs []float64, numPoints int) FilterResponse {
	if numPoints <= 0 {
		numPoints = defaultResponsePoints
	}

	response := FilterResponse{
		Frequencies: make([]float64, numPoints),
		Magnitude:   make([]float64, numPoints),
		Phase:       make([]float64, numPoints),
	}

	for k := range numPoints {
		freq := float64(k) / float64(2*numPoints)
		response.Frequencies[k] = freq

		var re, im float64
		omega := 2 * math.Pi * freq
		for n, h := range coeffs {
			angle := omega * float64(n)
			re += h * math.Cos(angle)
			im -= h * math.Sin(angle)
		}

		response.Magnitude[k] = math.Hypot(re, im)
		response.Phase[k] = math.Atan2(im, re)
	}

	return response
}

// MagnitudeDB converts a linear magnitude to decibels, flooring at -200 dB.
func MagnitudeDB(magnitude float64) float64 {
	const minMagnitude = 1e-10
	return 20 * math.Log10(max(magnitude, minMagnitude))
}
