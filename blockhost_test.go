package delay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type invertProcessor struct {
	size int
	rate float64
}

func (p invertProcessor) BlockSize() int      { return p.size }
func (p invertProcessor) SampleRate() float64 { return p.rate }
func (p invertProcessor) Process(in, out []Frame) {
	for i := range in {
		for c := range in[i] {
			out[i][c] = -in[i][c]
		}
	}
}

func TestBlockHost_EqualRates(t *testing.T) {
	const block = 16
	h, err := NewBlockHost(invertProcessor{size: block, rate: RateDAT}, 1, DefaultQuality)
	require.NoError(t, err)
	assert.Zero(t, h.Latency(RateDAT))

	out := make([]float32, 300)
	for i := range out {
		out[i] = h.Step(Frame{float32(i + 1)}, RateDAT)[0]
	}

	assert.Equal(t, float32(-1), out[0])
	for i := block; i < len(out); i++ {
		require.Equal(t, -float32(i+1-(block-1)), out[i], "frame %d", i)
	}

	h.Reset()
	assert.Equal(t, float32(-5), h.Step(Frame{5}, RateDAT)[0])
}

func TestBlockHost_Errors(t *testing.T) {
	_, err := NewBlockHost(invertProcessor{size: 0, rate: RateDAT}, 1, DefaultQuality)
	assert.ErrorIs(t, err, ErrInvalidProcessor)

	_, err = NewBlockHost(invertProcessor{size: 16, rate: RateDAT}, MaxChannels+1, DefaultQuality)
	assert.ErrorIs(t, err, ErrInvalidChannels)

	_, err = NewBlockHost(invertProcessor{size: 16, rate: RateDAT}, 1, QualityMax+1)
	assert.ErrorIs(t, err, ErrInvalidQuality)
}

func TestBlockHost_DifferentRates(t *testing.T) {
	h, err := NewBlockHost(invertProcessor{size: 32, rate: RateCD}, 2, DefaultQuality)
	require.NoError(t, err)
	assert.Positive(t, h.Latency(RateDAT))

	var last Frame
	for range 5000 {
		last = h.Step(Frame{0.5, -0.25}, RateDAT)
	}
	assert.InDelta(t, -0.5, last[0], 1e-2)
	assert.InDelta(t, 0.25, last[1], 1e-2)
}
