package delay

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/go-audio-delay/internal/testutil"
)

func TestNewConverter_Options(t *testing.T) {
	c, err := NewConverter(2)
	require.NoError(t, err)
	in, out := c.Rates()
	assert.Equal(t, float64(RateCD), in)
	assert.Equal(t, float64(RateCD), out)
	assert.Equal(t, DefaultQuality, c.Quality())
	assert.True(t, c.Bypassed())

	c, err = NewConverter(1, WithQuality(QualityMax), WithRates(RateCD, RateDAT))
	require.NoError(t, err)
	assert.Equal(t, QualityMax, c.Quality())
	assert.False(t, c.Bypassed())
	assert.Positive(t, c.Latency())

	_, err = NewConverter(MaxChannels + 1)
	assert.ErrorIs(t, err, ErrInvalidChannels)
	_, err = NewConverter(1, WithQuality(-1))
	assert.ErrorIs(t, err, ErrInvalidQuality)
}

func TestConverter_ProcessFramesMatchesInterleaved(t *testing.T) {
	const n = 2000
	packed, err := NewConverter(2, WithRates(RateDAT, RateCD))
	require.NoError(t, err)
	framed, err := NewConverter(2, WithRates(RateDAT, RateCD))
	require.NoError(t, err)

	in := make([]float32, 2*n)
	frames := make([]Frame, n)
	for i := range n {
		l := float32(math.Sin(float64(i) * 0.05))
		r := float32(math.Cos(float64(i) * 0.02))
		in[2*i], in[2*i+1] = l, r
		frames[i][0], frames[i][1] = l, r
	}

	out := make([]float32, 2*n)
	used, made := packed.Process(in, n, out, n)

	outFrames := make([]Frame, n)
	fUsed, fMade := framed.ProcessFrames(frames, outFrames)

	require.Equal(t, used, fUsed)
	require.Equal(t, made, fMade)
	for i := range made {
		require.Equal(t, out[2*i], outFrames[i][0], "frame %d", i)
		require.Equal(t, out[2*i+1], outFrames[i][1], "frame %d", i)
		require.Zero(t, outFrames[i][2])
	}
}

func TestConverter_Convert(t *testing.T) {
	c, err := NewConverter(1, WithRates(RateDAT, RateDAT/2))
	require.NoError(t, err)

	in := testutil.Ramp(1000, rampSlope)
	out, produced, used := c.Convert(in, len(in), 1000)
	assert.Equal(t, len(in), used)
	assert.InDelta(t, 500, produced, 2)
	assert.Len(t, out, produced)

	c.Reset()
	out, produced, used = c.Convert(in, len(in), 10)
	assert.Equal(t, 10, produced)
	assert.Len(t, out, 10)
	assert.Less(t, used, len(in))

	// stereo: the count is in frames, the buffer in samples
	st, err := NewConverter(2, WithRates(RateDAT, RateDAT/2))
	require.NoError(t, err)
	out, produced, _ = st.Convert(Interleave([][]float32{in, in}), len(in), 1000)
	assert.Len(t, out, 2*produced)
}

func TestConverter_SetRatesKeepsBypassExact(t *testing.T) {
	c, err := NewConverter(1, WithRates(RateCD, RateDAT))
	require.NoError(t, err)
	require.NoError(t, c.SetRates(RateDAT, RateDAT))
	assert.True(t, c.Bypassed())

	in := testutil.Ramp(64, rampSlope)
	out, produced, used := c.Convert(in, len(in), len(in))
	assert.Equal(t, len(in), used)
	assert.Equal(t, len(in), produced)
	assert.Equal(t, in, out)
}
