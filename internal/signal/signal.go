// Package signal generates test and demo signals: ramps, sines, impulse
// trains and band-limited square waves.
package signal

import (
	"errors"
	"fmt"
	"math"

	"github.com/arl/blip"
)

// ErrInvalidSignal is returned for frequencies or rates out of range.
var ErrInvalidSignal = errors.New("invalid signal parameters")

const (
	// clocksPerSample sets the edge timing resolution of Square.
	clocksPerSample = 256

	// squareScale maps amplitude 1.0 to blip sample units, leaving
	// headroom for the band-limited overshoot.
	squareScale = 1 << 14
)

// Generator produces a mono signal one block at a time.
type Generator interface {
	// Read fills dst and returns len(dst).
	Read(dst []float32) int
}

// Ramp returns n samples of slope*i.
func Ramp(n int, slope float32) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(i) * slope
	}
	return out
}

// Impulses returns n samples with a unit impulse every period samples,
// starting at 0.
func Impulses(n, period int) []float32 {
	out := make([]float32, n)
	for i := 0; i < n && period > 0; i += period {
		out[i] = 1
	}
	return out
}

// Sine is a sine oscillator.
type Sine struct {
	phase, step float64
	amp         float64
}

// NewSine creates a sine of freq hertz at sampleRate.
func NewSine(freq, sampleRate, amplitude float64) (*Sine, error) {
	if err := checkRates(freq, sampleRate); err != nil {
		return nil, err
	}
	return &Sine{step: 2 * math.Pi * freq / sampleRate, amp: amplitude}, nil
}

func (s *Sine) Read(dst []float32) int {
	for i := range dst {
		dst[i] = float32(s.amp * math.Sin(s.phase))
		s.phase += s.step
		if s.phase >= 2*math.Pi {
			s.phase -= 2 * math.Pi
		}
	}
	return len(dst)
}

// Square is a band-limited square wave. Edges are placed with sub-sample
// accuracy by a band-limited step synthesizer, so the output has no
// aliasing from the discontinuities.
type Square struct {
	buf        *blip.Buffer
	halfPeriod float64 // in clocks
	edge       float64 // next edge, in clocks from the frame start
	amp, level int32
	tmp        []int16
}

// NewSquare creates a square wave of freq hertz at sampleRate.
func NewSquare(freq, sampleRate, amplitude float64) (*Square, error) {
	if err := checkRates(freq, sampleRate); err != nil {
		return nil, err
	}
	buf := blip.NewBuffer(blip.MaxFrame)
	clockRate := sampleRate * clocksPerSample
	buf.SetRates(clockRate, sampleRate)
	buf.Clear()
	return &Square{
		buf:        buf,
		halfPeriod: clockRate / (2 * freq),
		amp:        int32(amplitude * squareScale),
		tmp:        make([]int16, blip.MaxFrame),
	}, nil
}

func (s *Square) Read(dst []float32) int {
	for done := 0; done < len(dst); {
		n := min(len(dst)-done, blip.MaxFrame)
		dur := s.buf.ClocksNeeded(n)
		for s.edge < float64(dur) {
			next := s.amp
			if s.level > 0 {
				next = -s.amp
			}
			s.buf.AddDelta(uint64(s.edge), next-s.level)
			s.level = next
			s.edge += s.halfPeriod
		}
		// ClocksNeeded rounds up, so the frame yields exactly n samples
		s.buf.EndFrame(dur)
		s.edge -= float64(dur)

		got := s.buf.ReadSamples(s.tmp, n, blip.Mono)
		for i, v := range s.tmp[:got] {
			dst[done+i] = float32(v) / squareScale
		}
		done += got
	}
	return len(dst)
}

// Reset restarts the wave at a rising edge.
func (s *Square) Reset() {
	s.buf.Clear()
	s.edge = 0
	s.level = 0
}

func checkRates(freq, sampleRate float64) error {
	if sampleRate <= 0 {
		return fmt.Errorf("%w: sample rate %g", ErrInvalidSignal, sampleRate)
	}
	if freq <= 0 || freq >= sampleRate/2 {
		return fmt.Errorf("%w: frequency %g at %g Hz", ErrInvalidSignal, freq, sampleRate)
	}
	return nil
}
