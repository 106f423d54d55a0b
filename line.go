package delay

import (
	"fmt"

	"github.com/tphakala/go-audio-delay/internal/logging"
	"github.com/tphakala/go-audio-delay/ringbuf"
)

// Line is a mono delay line with feedback. Call ProcessSample once per
// engine frame.
type Line struct {
	cfg        Config
	history    *ringbuf.DoubleRingBuffer[float32]
	rt         *retimer
	lastWet    float32
	sampleRate float64
	feedback   float32
	mix        float32
	insert     WetInsert
}

// NewLine creates a delay line.
func NewLine(cfg Config) (*Line, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	rt, err := newRetimer(&cfg)
	if err != nil {
		return nil, fmt.Errorf("create converter: %w", err)
	}
	l := &Line{
		cfg:     cfg,
		history: ringbuf.NewDouble[float32](cfg.HistoryFrames),
		rt:      rt,
	}
	l.feedback = float32(cfg.Feedback)
	l.mix = float32(cfg.Mix)
	return l, nil
}

// ProcessSample pushes dry into the line and returns the output for a delay
// of delaySeconds at sampleRate. The delay is clamped to the configured
// range and to the history capacity. A change of sampleRate clears the line.
func (l *Line) ProcessSample(dry float32, delaySeconds, sampleRate float64) float32 {
	if sampleRate != l.sampleRate {
		if l.sampleRate != 0 {
			logging.ModDelay.Debugf("sample rate %g -> %g, clearing line", l.sampleRate, sampleRate)
		}
		l.sampleRate = sampleRate
		l.Reset()
	}

	index := l.index(delaySeconds, sampleRate)

	in := dry + l.lastWet*l.feedback
	if !l.history.Full() {
		l.history.Push(in)
	}

	wet := l.rt.next(l.history, index, sampleRate)
	if l.insert != nil {
		wet = l.insert(wet)
	}
	l.lastWet = wet
	return dry*(1-l.mix) + wet*l.mix
}

// Process runs ProcessSample over a block. dst and src may be the same
// slice.
func (l *Line) Process(dst, src []float32, delaySeconds, sampleRate float64) {
	for i, x := range src[:min(len(src), len(dst))] {
		dst[i] = l.ProcessSample(x, delaySeconds, sampleRate)
	}
}

// index converts a delay time into history frames.
func (l *Line) index(delaySeconds, sampleRate float64) float64 {
	d := min(max(delaySeconds, l.cfg.MinDelay), l.cfg.MaxDelay)
	return min(d*sampleRate, float64(l.history.Capacity()-1))
}

// Reset clears the history, the output FIFO, converter state and the
// feedback path.
func (l *Line) Reset() {
	l.history.Clear()
	l.rt.reset()
	l.lastWet = 0
}

// SetFeedback sets the feedback amount, clamped to [0, 1].
func (l *Line) SetFeedback(fb float64) {
	l.cfg.Feedback = min(max(fb, 0), 1)
	l.feedback = float32(l.cfg.Feedback)
}

// SetMix sets the wet share of the output, clamped to [0, 1].
func (l *Line) SetMix(mix float64) {
	l.cfg.Mix = min(max(mix, 0), 1)
	l.mix = float32(l.cfg.Mix)
}

// SetWetInsert routes the wet signal through f before it is mixed and fed
// back, so filtering or saturation in f shapes every repeat. nil removes the
// insert.
func (l *Line) SetWetInsert(f WetInsert) { l.insert = f }

// SetMode switches the correction mode. Buffered audio is kept.
func (l *Line) SetMode(m Mode) error {
	if !m.Valid() {
		return fmt.Errorf("%w: mode %d", ErrInvalidConfig, int(m))
	}
	l.cfg.Mode = m
	l.rt.mode = m
	return nil
}

// Mode returns the correction mode.
func (l *Line) Mode() Mode { return l.cfg.Mode }

// SetQuality changes the converter quality. Converter history is cleared.
func (l *Line) SetQuality(q int) error {
	if err := l.rt.src.SetQuality(q); err != nil {
		return err
	}
	l.cfg.Quality = q
	return nil
}

// Quality returns the converter quality.
func (l *Line) Quality() int { return l.cfg.Quality }

// Buffered returns the number of history frames waiting to be read.
func (l *Line) Buffered() int { return l.history.Size() }

// Ratio returns the output/input ratio used by the last correction pass.
func (l *Line) Ratio() float64 { return l.rt.ratio }

// Config returns the current configuration.
func (l *Line) Config() Config { return l.cfg }

// State returns the persisted part of the configuration.
func (l *Line) State() State {
	return State{Mode: l.cfg.Mode, Quality: l.cfg.Quality}
}

// ApplyState restores persisted configuration. Buffers are not touched
// beyond what SetQuality clears.
func (l *Line) ApplyState(s State) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if err := l.SetMode(s.Mode); err != nil {
		return err
	}
	return l.SetQuality(s.Quality)
}
