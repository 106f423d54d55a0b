package delay

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tphakala/go-audio-delay/internal/engine"
	"github.com/tphakala/go-audio-delay/internal/frame"
)

// Frame is one multichannel sample, up to eight channels.
type Frame = frame.Frame

// Mode selects how a delay line corrects drift between the requested delay
// and the buffered history.
type Mode int

const (
	// ModeStepped resamples the history at half, equal or double the
	// engine rate depending on the drift.
	ModeStepped Mode = iota

	// ModeDirect drops or holds whole frames and never resamples.
	ModeDirect

	modeCount
)

var modeNames = [modeCount]string{"stepped", "direct"}

func (m Mode) String() string {
	if m < 0 || m >= modeCount {
		return fmt.Sprintf("Mode(%d)", int(m))
	}
	return modeNames[m]
}

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool { return m >= 0 && m < modeCount }

// ParseMode parses a mode name as printed by Mode.String.
func ParseMode(s string) (Mode, error) {
	for i, name := range modeNames {
		if strings.EqualFold(s, name) {
			return Mode(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown mode %q", ErrInvalidConfig, s)
}

// UnmarshalText lets modes appear by name in config files and flags.
func (m *Mode) UnmarshalText(text []byte) error {
	v, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

func (m Mode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// Common errors.
var (
	// ErrInvalidConfig indicates invalid configuration parameters.
	ErrInvalidConfig = errors.New("invalid delay configuration")

	// ErrInvalidChannels and ErrInvalidQuality are returned by converters.
	ErrInvalidChannels = engine.ErrInvalidChannels
	ErrInvalidQuality  = engine.ErrInvalidQuality

	// ErrInvalidTap indicates a tap index out of range.
	ErrInvalidTap = errors.New("invalid tap")

	// ErrInvalidState indicates malformed or out of range persisted state.
	ErrInvalidState = errors.New("invalid delay state")
)

// WetInsert processes the wet signal inside the feedback loop, one sample
// per call. It runs on the audio goroutine and must not block.
type WetInsert func(wet float32) float32

// Config configures a Line or MultiTap.
type Config struct {
	// HistoryFrames is the history capacity, rounded up to a power of two.
	// It bounds the longest delay: MaxDelay*sampleRate must fit.
	HistoryFrames int

	// OutputFrames is the capacity of the output FIFO refilled by each
	// correction pass.
	OutputFrames int

	// ConvertFrames is the most history frames one correction pass reads.
	ConvertFrames int

	// Threshold is the drift in frames at which ModeStepped starts
	// resampling.
	Threshold int

	// MinDelay and MaxDelay clamp the requested delay, in seconds.
	MinDelay float64
	MaxDelay float64

	// Feedback is the share of the wet output mixed back into the input.
	Feedback float64

	// Mix is the wet share of the output: 0 is dry only, 1 wet only.
	Mix float64

	Mode Mode

	// Quality is the converter quality level, 0 to 10.
	Quality int
}

// DefaultConfig returns the standard configuration: two million frames of
// history, 16 frame correction passes, pure wet output without feedback.
func DefaultConfig() Config {
	return Config{
		HistoryFrames: DefaultHistoryFrames,
		OutputFrames:  DefaultOutputFrames,
		ConvertFrames: DefaultConvertFrames,
		Threshold:     DefaultThreshold,
		MinDelay:      MinDelay,
		MaxDelay:      MaxDelay,
		Feedback:      0,
		Mix:           1,
		Mode:          ModeStepped,
		Quality:       DefaultQuality,
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.HistoryFrames < 1 {
		return fmt.Errorf("%w: history frames must be positive", ErrInvalidConfig)
	}
	if c.OutputFrames < 1 {
		return fmt.Errorf("%w: output frames must be positive", ErrInvalidConfig)
	}
	if c.ConvertFrames < 1 {
		return fmt.Errorf("%w: convert frames must be positive", ErrInvalidConfig)
	}
	if c.Threshold < 1 {
		return fmt.Errorf("%w: threshold must be positive", ErrInvalidConfig)
	}
	if c.MinDelay < 0 || c.MaxDelay < c.MinDelay {
		return fmt.Errorf("%w: delay range [%g, %g] seconds", ErrInvalidConfig, c.MinDelay, c.MaxDelay)
	}
	if c.Feedback < 0 || c.Feedback > 1 {
		return fmt.Errorf("%w: feedback must be in [0, 1]", ErrInvalidConfig)
	}
	if c.Mix < 0 || c.Mix > 1 {
		return fmt.Errorf("%w: mix must be in [0, 1]", ErrInvalidConfig)
	}
	if !c.Mode.Valid() {
		return fmt.Errorf("%w: mode %d", ErrInvalidConfig, int(c.Mode))
	}
	if !engine.Quality(c.Quality).Valid() {
		return fmt.Errorf("%w: %d (must be %d..%d)", ErrInvalidQuality, c.Quality, engine.QualityMin, engine.QualityMax)
	}
	return nil
}
