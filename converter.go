package delay

import (
	"github.com/tphakala/go-audio-delay/internal/engine"
	"github.com/tphakala/go-audio-delay/internal/frame"
)

// Converter is a streaming sample rate converter for interleaved float32
// audio. Rates can change between calls without losing filter history;
// equal rates bypass filtering and copy frames exactly.
type Converter struct {
	eng *engine.Converter[float32]
}

type converterOptions struct {
	quality int
	in, out float64
}

// ConverterOption configures NewConverter.
type ConverterOption func(*converterOptions)

// WithQuality sets the converter quality, 0 to 10.
func WithQuality(q int) ConverterOption {
	return func(o *converterOptions) { o.quality = q }
}

// WithRates sets the initial input and output rates.
func WithRates(in, out float64) ConverterOption {
	return func(o *converterOptions) { o.in, o.out = in, out }
}

// NewConverter creates a converter for channels interleaved channels,
// 1 to MaxChannels. Without options it runs 44100 to 44100 Hz at the
// default quality.
func NewConverter(channels int, opts ...ConverterOption) (*Converter, error) {
	o := converterOptions{quality: DefaultQuality}
	for _, opt := range opts {
		opt(&o)
	}

	eng, err := engine.NewConverter[float32](channels, engine.Quality(o.quality))
	if err != nil {
		return nil, err
	}
	c := &Converter{eng: eng}
	if o.in > 0 && o.out > 0 {
		if err := eng.SetRates(o.in, o.out); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// SetRates changes the conversion rates in hertz. Unchanged or non-positive
// rates are ignored.
func (c *Converter) SetRates(in, out float64) error { return c.eng.SetRates(in, out) }

// Rates returns the current input and output rates.
func (c *Converter) Rates() (in, out float64) { return c.eng.Rates() }

// SetQuality changes quality and clears history. Not for the audio path.
func (c *Converter) SetQuality(q int) error { return c.eng.SetQuality(engine.Quality(q)) }

// Quality returns the current quality level.
func (c *Converter) Quality() int { return int(c.eng.Quality()) }

// SetChannels limits processing to the first n channels.
func (c *Converter) SetChannels(n int) error { return c.eng.SetChannels(n) }

// Channels returns the active channel count.
func (c *Converter) Channels() int { return c.eng.Channels() }

// Bypassed reports whether the rates are equal.
func (c *Converter) Bypassed() bool { return c.eng.Bypassed() }

// Latency returns the filter delay in input frames, when not bypassed.
func (c *Converter) Latency() int { return c.eng.Latency() }

// Reset clears filter history.
func (c *Converter) Reset() { c.eng.Reset() }

// Process converts up to inFrames interleaved frames from in into at most
// outFrames frames of out and returns the counts actually consumed and
// produced. Unconsumed input must be passed again.
func (c *Converter) Process(in []float32, inFrames int, out []float32, outFrames int) (consumed, produced int) {
	return c.eng.Process(in, inFrames, out, outFrames)
}

// ProcessStrided is Process for buffers whose frames are stride samples
// apart.
func (c *Converter) ProcessStrided(in []float32, inStride, inFrames int, out []float32, outStride, outFrames int) (consumed, produced int) {
	return c.eng.ProcessStrided(in, inStride, inFrames, out, outStride, outFrames)
}

// ProcessFrames converts Frame slices without copying them into an
// interleaved buffer.
func (c *Converter) ProcessFrames(in, out []Frame) (consumed, produced int) {
	return c.eng.ProcessStrided(frame.Samples(in), frame.Max, len(in), frame.Samples(out), frame.Max, len(out))
}

// Convert converts up to inFrames frames into a new buffer of at most
// outCapacity frames. It returns that buffer, the number of frames produced
// and the number of input frames consumed. Convert allocates; audio
// callbacks use Process.
func (c *Converter) Convert(in []float32, inFrames, outCapacity int) (out []float32, produced, consumed int) {
	ch := c.Channels()
	buf := make([]float32, outCapacity*ch)
	consumed, produced = c.Process(in, inFrames, buf, outCapacity)
	return buf[:produced*ch], produced, consumed
}
