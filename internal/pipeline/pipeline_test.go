package pipeline

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/go-audio-delay/internal/engine"
	"github.com/tphakala/go-audio-delay/internal/frame"
	"github.com/tphakala/go-audio-delay/internal/testutil"
)

type gainProcessor struct {
	size  int
	rate  float64
	gain  float32
	calls int
}

func (g *gainProcessor) BlockSize() int      { return g.size }
func (g *gainProcessor) SampleRate() float64 { return g.rate }
func (g *gainProcessor) Process(in, out []frame.Frame) {
	g.calls++
	for i := range in {
		for c := range in[i] {
			out[i][c] = in[i][c] * g.gain
		}
	}
}

func TestNewHost_RejectsBadProcessors(t *testing.T) {
	tests := []struct {
		name string
		proc *gainProcessor
	}{
		{"zero block", &gainProcessor{size: 0, rate: 32000}},
		{"huge block", &gainProcessor{size: maxBlockFrames + 1, rate: 32000}},
		{"zero rate", &gainProcessor{size: 32, rate: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewHost(tt.proc, 2, engine.QualityDefault)
			assert.ErrorIs(t, err, ErrInvalidProcessor)
		})
	}

	_, err := NewHost(&gainProcessor{size: 32, rate: 32000}, 0, engine.QualityDefault)
	assert.ErrorIs(t, err, engine.ErrInvalidChannels)
}

func TestHost_EqualRatesDelayByOneBlock(t *testing.T) {
	const block = 32
	p := &gainProcessor{size: block, rate: 48000, gain: 1}
	h, err := NewHost(p, 2, engine.QualityDefault)
	require.NoError(t, err)

	var out []frame.Frame
	for i := range 1000 {
		out = append(out, h.Step(frame.Frame{float32(i + 1), -float32(i + 1)}, 48000))
	}

	assert.Equal(t, float32(1), out[0][0], "first frame passes with the padded block")
	for i := 1; i < block; i++ {
		assert.Zero(t, out[i][0], "padding frame %d", i)
	}
	for i := block; i < len(out); i++ {
		want := float32(i + 1 - (block - 1))
		require.Equal(t, want, out[i][0], "frame %d", i)
		require.Equal(t, -want, out[i][1], "frame %d", i)
		require.Zero(t, out[i][2], "unused channel")
	}
	assert.Equal(t, 1000/block+1, p.calls)
	assert.Equal(t, uint64(p.calls), h.Blocks())
}

func TestHost_ConvertsAroundProcessorRate(t *testing.T) {
	const (
		engineRate = 48000.0
		freq       = 500.0
	)
	p := &gainProcessor{size: 32, rate: 32000, gain: 0.5}
	h, err := NewHost(p, 1, engine.QualityDefault)
	require.NoError(t, err)

	out := make([]float64, 24000)
	for i := range out {
		v := float32(math.Sin(2 * math.Pi * freq * float64(i) / engineRate))
		out[i] = float64(h.Step(frame.Frame{v}, engineRate)[0])
	}

	steady := out[4000:]
	assert.InDelta(t, 0.5/math.Sqrt2, testutil.RMS(steady), 0.02)
	assert.InDelta(t, freq, testutil.PeakFrequency(steady, engineRate), 2*engineRate/float64(len(steady)))
	assert.Positive(t, h.Latency(engineRate))
}

func TestHost_Reset(t *testing.T) {
	p := &gainProcessor{size: 16, rate: 44100, gain: 1}
	h, err := NewHost(p, 1, engine.QualityDefault)
	require.NoError(t, err)
	for i := range 40 {
		h.Step(frame.Frame{float32(i)}, 44100)
	}
	h.Reset()

	// after a reset the next step starts a fresh padded block
	got := h.Step(frame.Frame{7}, 44100)
	assert.Equal(t, float32(7), got[0])
	assert.Zero(t, h.Latency(44100))
}
