package delay

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/go-audio-delay/internal/testutil"
)

const (
	testRate  = 1000.0
	rampSlope = float32(1.0 / 1024)
)

func testConfig(mode Mode) Config {
	cfg := DefaultConfig()
	cfg.HistoryFrames = 1 << 12
	cfg.Mode = mode
	return cfg
}

func newTestLine(t *testing.T, mode Mode) *Line {
	t.Helper()
	l, err := NewLine(testConfig(mode))
	require.NoError(t, err)
	return l
}

// run feeds in through l at a fixed delay and returns the output.
func run(l *Line, in []float32, delaySeconds float64) []float32 {
	out := make([]float32, len(in))
	l.Process(out, in, delaySeconds, testRate)
	return out
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr error
	}{
		{"default", func(*Config) {}, nil},
		{"zero history", func(c *Config) { c.HistoryFrames = 0 }, ErrInvalidConfig},
		{"zero output", func(c *Config) { c.OutputFrames = 0 }, ErrInvalidConfig},
		{"zero convert", func(c *Config) { c.ConvertFrames = 0 }, ErrInvalidConfig},
		{"zero threshold", func(c *Config) { c.Threshold = 0 }, ErrInvalidConfig},
		{"negative min delay", func(c *Config) { c.MinDelay = -1 }, ErrInvalidConfig},
		{"inverted range", func(c *Config) { c.MinDelay, c.MaxDelay = 2, 1 }, ErrInvalidConfig},
		{"feedback above one", func(c *Config) { c.Feedback = 1.5 }, ErrInvalidConfig},
		{"negative mix", func(c *Config) { c.Mix = -0.1 }, ErrInvalidConfig},
		{"unknown mode", func(c *Config) { c.Mode = modeCount }, ErrInvalidConfig},
		{"quality too high", func(c *Config) { c.Quality = QualityMax + 1 }, ErrInvalidQuality},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)

			_, err = NewLine(cfg)
			assert.Error(t, err)
		})
	}
}

func TestMode_Text(t *testing.T) {
	for _, m := range []Mode{ModeStepped, ModeDirect} {
		text, err := m.MarshalText()
		require.NoError(t, err)

		var got Mode
		require.NoError(t, got.UnmarshalText(text))
		assert.Equal(t, m, got)
	}

	m, err := ParseMode("DIRECT")
	require.NoError(t, err)
	assert.Equal(t, ModeDirect, m)

	_, err = ParseMode("tape")
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Equal(t, "Mode(7)", Mode(7).String())
}

// =============================================================================
// ModeStepped
// =============================================================================

func TestLine_SteppedConvergesToDelay(t *testing.T) {
	const index = 100
	l := newTestLine(t, ModeStepped)
	out := run(l, testutil.Ramp(4000, rampSlope), index/testRate)

	minLag, maxLag := testutil.RampLag(out, rampSlope, 2000)
	assert.Equal(t, minLag, maxLag, "lag must be constant once converged")
	assert.GreaterOrEqual(t, minLag, float64(index-DefaultThreshold))
	assert.LessOrEqual(t, maxLag, float64(index+DefaultThreshold-1))
	assert.Equal(t, 1.0, l.Ratio())
}

func TestLine_SteppedFollowsDelayChanges(t *testing.T) {
	tests := []struct {
		name          string
		before, after int
		wantRatio     float64
	}{
		{"shorter", 200, 50, slowRatio},
		{"longer", 50, 200, fastRatio},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newTestLine(t, ModeStepped)
			in := testutil.Ramp(6000, rampSlope)
			out := make([]float32, len(in))

			l.Process(out[:2000], in[:2000], float64(tt.before)/testRate, testRate)
			l.Process(out[2000:2020], in[2000:2020], float64(tt.after)/testRate, testRate)
			assert.Equal(t, tt.wantRatio, l.Ratio(), "correction direction")
			l.Process(out[2020:], in[2020:], float64(tt.after)/testRate, testRate)

			minLag, maxLag := testutil.RampLag(out, rampSlope, 4500)
			assert.Equal(t, minLag, maxLag)
			assert.GreaterOrEqual(t, minLag, float64(tt.after-DefaultThreshold))
			assert.LessOrEqual(t, maxLag, float64(tt.after+DefaultThreshold-1))
		})
	}
}

func TestLine_SteppedOutputStaysBounded(t *testing.T) {
	l := newTestLine(t, ModeStepped)
	in := make([]float32, 3000)
	for i := range in {
		in[i] = float32(math.Sin(2 * math.Pi * 10 * float64(i) / testRate))
	}
	delays := []float64{0.05, 0.3, 0.01, 0.2}
	out := make([]float32, len(in))
	for i := range in {
		out[i] = l.ProcessSample(in[i], delays[(i/700)%len(delays)], testRate)
	}
	testutil.AssertNoNaNOrInf(t, out)
	testutil.AssertAllInRange(t, out, -1.1, 1.1)
}

// =============================================================================
// ModeDirect
// =============================================================================

func TestLine_DirectIsExact(t *testing.T) {
	const index = 100
	l := newTestLine(t, ModeDirect)
	in := testutil.Ramp(1000, rampSlope)
	out := run(l, in, index/testRate)

	for i := range out {
		if i < index {
			require.Zero(t, out[i], "frame %d", i)
			continue
		}
		require.Equal(t, in[i-index], out[i], "frame %d", i)
	}
}

func TestLine_DirectFollowsDelayChanges(t *testing.T) {
	l := newTestLine(t, ModeDirect)
	in := testutil.Ramp(3000, rampSlope)
	out := make([]float32, len(in))

	l.Process(out[:1000], in[:1000], 0.2, testRate)
	l.Process(out[1000:2000], in[1000:2000], 0.05, testRate)
	l.Process(out[2000:], in[2000:], 0.3, testRate)

	for i := 1000; i < 2000; i++ {
		require.Equal(t, in[i-50], out[i], "frame %d", i)
	}
	// a longer delay holds the output until the history catches up
	for i := 2000; i < 2250; i++ {
		require.Zero(t, out[i], "frame %d", i)
	}
	for i := 2250; i < len(out); i++ {
		require.Equal(t, in[i-300], out[i], "frame %d", i)
	}
}

func TestLine_RefillReadsBoundedHistory(t *testing.T) {
	in := testutil.Ramp(2000, rampSlope)

	// stepped passes read at most ConvertFrames history frames, even while
	// the delay collapses from 500 to 10 frames
	l := newTestLine(t, ModeStepped)
	run(l, in[:1000], 0.5)
	for _, x := range in[1000:] {
		before := l.Buffered()
		l.ProcessSample(x, 0.01, testRate)
		read := before + 1 - l.Buffered()
		require.LessOrEqual(t, read, DefaultConvertFrames)
		require.GreaterOrEqual(t, read, 0)
	}

	// direct mode jumps: one pass drops the whole excess
	l = newTestLine(t, ModeDirect)
	run(l, in[:1000], 0.2)
	before := l.Buffered()
	l.ProcessSample(in[1000], 0.05, testRate)
	assert.Equal(t, 50, l.Buffered())
	assert.Greater(t, before+1-l.Buffered(), DefaultConvertFrames)
}

func TestLine_DelayIsClamped(t *testing.T) {
	t.Run("below minimum", func(t *testing.T) {
		l := newTestLine(t, ModeDirect)
		in := testutil.Ramp(100, rampSlope)
		out := run(l, in, 0)
		for i := 1; i < len(out); i++ {
			require.Equal(t, in[i-1], out[i])
		}
	})

	t.Run("history capacity", func(t *testing.T) {
		l := newTestLine(t, ModeDirect)
		in := testutil.Ramp(5000, rampSlope)
		out := run(l, in, MaxDelay)
		lag := 1<<12 - 1
		for i := lag; i < len(out); i++ {
			require.Equal(t, in[i-lag], out[i], "frame %d", i)
		}
		assert.Equal(t, lag, l.Buffered())
	})
}

// =============================================================================
// Feedback, mix and lifecycle
// =============================================================================

func TestLine_FeedbackEchoes(t *testing.T) {
	l := newTestLine(t, ModeDirect)
	l.SetFeedback(0.5)

	in := make([]float32, 60)
	in[0] = 1
	out := run(l, in, 0.01)

	// each echo passes one extra frame through the feedback path
	want := map[int]float32{10: 1, 21: 0.5, 32: 0.25, 43: 0.125, 54: 0.0625}
	for i, v := range out {
		assert.Equal(t, want[i], v, "frame %d", i)
	}
}

func TestLine_WetInsertShapesFeedback(t *testing.T) {
	l := newTestLine(t, ModeDirect)
	l.SetFeedback(0.5)
	var calls int
	l.SetWetInsert(func(wet float32) float32 {
		calls++
		return -0.5 * wet
	})

	in := make([]float32, 40)
	in[0] = 1
	out := run(l, in, 0.01)
	assert.Equal(t, len(in), calls)

	// the inserted gain and inversion compound on every repeat
	want := map[int]float32{10: -0.5, 21: 0.125, 32: -0.03125}
	for i, v := range out {
		assert.Equal(t, want[i], v, "frame %d", i)
	}

	l.SetWetInsert(nil)
	l.Reset()
	out = run(l, in, 0.01)
	assert.Equal(t, float32(1), out[10])
	assert.Equal(t, float32(0.5), out[21])
}

func TestLine_Mix(t *testing.T) {
	l := newTestLine(t, ModeDirect)
	l.SetMix(0)
	in := testutil.Ramp(50, rampSlope)
	assert.Equal(t, in, run(l, in, 0.01))

	l = newTestLine(t, ModeDirect)
	l.SetMix(0.5)
	out := run(l, in, 0.01)
	for i := 10; i < len(out); i++ {
		assert.InDelta(t, 0.5*in[i]+0.5*in[i-10], out[i], 1e-6)
	}

	l.SetMix(3)
	l.SetFeedback(-1)
	assert.Equal(t, 1.0, l.Config().Mix)
	assert.Zero(t, l.Config().Feedback)
}

func TestLine_SampleRateChangeClears(t *testing.T) {
	l := newTestLine(t, ModeDirect)
	for range 500 {
		l.ProcessSample(1, 0.1, testRate)
	}
	require.Equal(t, 100, l.Buffered())

	// the new rate starts from silence
	for i := range 150 {
		require.Zero(t, l.ProcessSample(1, 0.1, 2*testRate), "frame %d", i)
	}
	assert.Equal(t, 150, l.Buffered())
}

func TestLine_Reset(t *testing.T) {
	l := newTestLine(t, ModeStepped)
	l.SetFeedback(0.9)
	run(l, testutil.Ramp(300, rampSlope), 0.05)
	l.Reset()

	assert.Zero(t, l.Buffered())
	assert.Equal(t, 1.0, l.Ratio())
	assert.Zero(t, l.ProcessSample(0, 0.05, testRate))
}

func TestLine_SetModeAndQuality(t *testing.T) {
	l := newTestLine(t, ModeStepped)
	require.NoError(t, l.SetMode(ModeDirect))
	assert.Equal(t, ModeDirect, l.Mode())
	assert.ErrorIs(t, l.SetMode(Mode(-1)), ErrInvalidConfig)

	require.NoError(t, l.SetQuality(QualityMax))
	assert.Equal(t, QualityMax, l.Quality())
	assert.ErrorIs(t, l.SetQuality(QualityMax+1), ErrInvalidQuality)
	assert.Equal(t, QualityMax, l.Quality())
}

func BenchmarkLine_ProcessSample(b *testing.B) {
	l, err := NewLine(DefaultConfig())
	require.NoError(b, err)
	in := testutil.Ramp(4096, rampSlope)
	var i int
	for b.Loop() {
		l.ProcessSample(in[i&4095], 0.25, 48000)
		i++
	}
}
