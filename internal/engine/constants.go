package engine

import "github.com/tphakala/go-audio-delay/internal/frame"

const (
	// MaxChannels is the widest interleaved stream a converter accepts.
	MaxChannels = frame.Max

	// chunkFrames bounds the input copied into the history buffer per pass.
	chunkFrames = 160

	// maxStretch caps how far downsampling lengthens the kernel.
	maxStretch = 4

	// tapAlign keeps kernel lengths a multiple of the widest SIMD lane count.
	tapAlign = 8

	// kernelCacheSlots is the number of designed kernel banks kept around,
	// enough for the ratios a drifting delay line flips between.
	kernelCacheSlots = 4

	defaultRate = 44100
)

// Lagrange cubic weights for interpolating between kernel phases.
const (
	sixth = 1.0 / 6
	third = 1.0 / 3
	half  = 0.5
)
