package delay

import "github.com/tphakala/go-audio-delay/internal/engine"

// Delay line defaults.
const (
	DefaultHistoryFrames = 1 << 21
	DefaultOutputFrames  = 16
	DefaultConvertFrames = 16
	DefaultThreshold     = 16

	// MinDelay and MaxDelay are the default delay range in seconds.
	MinDelay = 0.001
	MaxDelay = 10.0
)

// Converter quality range.
const (
	QualityMin     = int(engine.QualityMin)
	QualityDefault = int(engine.QualityDefault)
	QualityMax     = int(engine.QualityMax)

	DefaultQuality = QualityDefault
)

// MaxChannels is the widest stream a Converter or BlockHost carries.
const MaxChannels = engine.MaxChannels

// Correction ratios used by ModeStepped.
const (
	slowRatio = 0.5
	fastRatio = 2.0
)

// outputSlack is extra output room for one-shot conversions.
const outputSlack = 16

// Common sample rates.
const (
	RateCD       = 44100
	RateDAT      = 48000
	RateHiRes88  = 88200
	RateHiRes96  = 96000
	RateHiRes192 = 192000
)
