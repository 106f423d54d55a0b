package filter

const (
	// defaultResponsePoints is used when ComputeFrequencyResponse is asked
	// for a non-positive number of points.
	defaultResponsePoints = 512

	minBankTaps = 2

	// guardPhases are the extra kernels stored around [0, Oversample] so
	// that cubic interpolation at any phase reads q-1..q+2 in range.
	guardPhases = 3
)
