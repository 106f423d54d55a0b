package delay

import (
	"fmt"
	"math"

	"github.com/tphakala/go-audio-delay/internal/logging"
	"github.com/tphakala/go-audio-delay/ringbuf"
)

// FeedbackSum selects the sum of all taps as the feedback source.
const FeedbackSum = -1

// MultiTapConfig configures a MultiTap.
type MultiTapConfig struct {
	Config

	// Taps is the number of read heads.
	Taps int

	// FeedbackTap is the tap fed back into the input, or FeedbackSum.
	FeedbackTap int

	// Reverse plays the input backwards in windows as long as the
	// feedback tap's delay before it enters the history.
	Reverse bool
}

// DefaultMultiTapConfig returns DefaultConfig with taps read heads and the
// summed output as feedback source.
func DefaultMultiTapConfig(taps int) MultiTapConfig {
	return MultiTapConfig{
		Config:      DefaultConfig(),
		Taps:        taps,
		FeedbackTap: FeedbackSum,
	}
}

// Validate checks if the configuration is valid.
func (c *MultiTapConfig) Validate() error {
	if err := c.Config.Validate(); err != nil {
		return err
	}
	if c.Taps < 1 {
		return fmt.Errorf("%w: taps must be positive", ErrInvalidConfig)
	}
	if c.FeedbackTap != FeedbackSum && (c.FeedbackTap < 0 || c.FeedbackTap >= c.Taps) {
		return fmt.Errorf("%w: feedback tap %d of %d", ErrInvalidTap, c.FeedbackTap, c.Taps)
	}
	return nil
}

type tap struct {
	delay float64
	level float32
	hist  history
	rt    *retimer
	wet   float32
}

// MultiTap is a multi-head delay: one shared history read at several delay
// times, each head with its own converter and output FIFO.
type MultiTap struct {
	cfg        MultiTapConfig
	history    *ringbuf.MultiTapDoubleRingBuffer[float32]
	reverse    *ringbuf.ReverseRingBuffer[float32]
	taps       []tap
	sampleRate float64
	lastSum    float32
	insert     WetInsert
}

// NewMultiTap creates a multi-tap delay. Every tap starts at MinDelay with
// unity level.
func NewMultiTap(cfg MultiTapConfig) (*MultiTap, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	m := &MultiTap{
		cfg:     cfg,
		history: ringbuf.NewMultiTap[float32](cfg.HistoryFrames, cfg.Taps),
		taps:    make([]tap, cfg.Taps),
	}
	if cfg.Reverse {
		m.reverse = ringbuf.NewReverse[float32](cfg.HistoryFrames)
	}
	for k := range m.taps {
		rt, err := newRetimer(&cfg.Config)
		if err != nil {
			return nil, fmt.Errorf("tap %d converter: %w", k, err)
		}
		m.taps[k] = tap{
			delay: cfg.MinDelay,
			level: 1,
			hist:  tapHistory{buf: m.history, tap: k},
			rt:    rt,
		}
	}
	return m, nil
}

// SetTap sets the delay in seconds and the output level of tap k.
func (m *MultiTap) SetTap(k int, delaySeconds, level float64) error {
	if k < 0 || k >= len(m.taps) {
		return fmt.Errorf("%w: %d of %d", ErrInvalidTap, k, len(m.taps))
	}
	m.taps[k].delay = delaySeconds
	m.taps[k].level = float32(level)
	return nil
}

// SetFeedbackTap selects the feedback source, a tap index or FeedbackSum.
func (m *MultiTap) SetFeedbackTap(k int) error {
	if k != FeedbackSum && (k < 0 || k >= len(m.taps)) {
		return fmt.Errorf("%w: feedback tap %d of %d", ErrInvalidTap, k, len(m.taps))
	}
	m.cfg.FeedbackTap = k
	return nil
}

// SetFeedback sets the feedback amount, clamped to [0, 1].
func (m *MultiTap) SetFeedback(fb float64) { m.cfg.Feedback = min(max(fb, 0), 1) }

// SetReverse turns reversed input on or off. The reverse buffer is
// allocated the first time it is turned on.
func (m *MultiTap) SetReverse(on bool) {
	if on && m.reverse == nil {
		m.reverse = ringbuf.NewReverse[float32](m.cfg.HistoryFrames)
	}
	if on != m.cfg.Reverse && m.reverse != nil {
		m.reverse.Clear()
	}
	m.cfg.Reverse = on
}

// SetWetInsert routes the feedback source through f before it re-enters the
// history. Tap outputs are not affected. nil removes the insert.
func (m *MultiTap) SetWetInsert(f WetInsert) { m.insert = f }

// Taps returns the number of taps.
func (m *MultiTap) Taps() int { return len(m.taps) }

// Process pushes dry and returns the mix of dry and the level-weighted sum
// of every tap.
func (m *MultiTap) Process(dry float32, sampleRate float64) float32 {
	if sampleRate != m.sampleRate {
		if m.sampleRate != 0 {
			logging.ModDelay.Debugf("multitap sample rate %g -> %g, clearing history", m.sampleRate, sampleRate)
		}
		m.sampleRate = sampleRate
		m.ClearHistory()
	}

	fb := m.feedbackSource()
	if m.insert != nil {
		fb = m.insert(fb)
	}
	in := dry + fb*float32(m.cfg.Feedback)
	if m.cfg.Reverse {
		m.reverse.SetWindow(int(math.Round(m.index(m.feedbackDelay(), sampleRate))))
		m.reverse.Push(in)
		in = m.reverse.Shift()
	}
	if !m.history.Full() {
		m.history.Push(in)
	}

	var sum float32
	for k := range m.taps {
		t := &m.taps[k]
		t.wet = t.rt.next(t.hist, m.index(t.delay, sampleRate), sampleRate)
		sum += t.wet * t.level
	}
	m.lastSum = sum

	mix := float32(m.cfg.Mix)
	return dry*(1-mix) + sum*mix
}

// TapOutput returns the last unscaled output of tap k.
func (m *MultiTap) TapOutput(k int) float32 {
	if k < 0 || k >= len(m.taps) {
		return 0
	}
	return m.taps[k].wet
}

// Buffered returns the history frames waiting for tap k.
func (m *MultiTap) Buffered(k int) int { return m.history.Size(k) }

// ClearHistory empties the shared history, the reverse buffer and every
// tap's FIFO and converter.
func (m *MultiTap) ClearHistory() {
	m.history.Clear()
	if m.reverse != nil {
		m.reverse.Clear()
	}
	for k := range m.taps {
		m.taps[k].rt.reset()
		m.taps[k].wet = 0
	}
	m.lastSum = 0
}

func (m *MultiTap) feedbackSource() float32 {
	if m.cfg.FeedbackTap == FeedbackSum {
		return m.lastSum
	}
	return m.taps[m.cfg.FeedbackTap].wet
}

func (m *MultiTap) feedbackDelay() float64 {
	if m.cfg.FeedbackTap == FeedbackSum {
		var longest float64
		for _, t := range m.taps {
			longest = max(longest, t.delay)
		}
		return longest
	}
	return m.taps[m.cfg.FeedbackTap].delay
}

func (m *MultiTap) index(delaySeconds, sampleRate float64) float64 {
	d := min(max(delaySeconds, m.cfg.MinDelay), m.cfg.MaxDelay)
	return min(d*sampleRate, float64(m.history.Capacity()-1))
}
