// Package engine implements the streaming sample rate converter behind the
// delay line: a windowed-sinc polyphase interpolator with cubic
// interpolation between kernel phases, driven one block at a time with
// explicit consumed/produced frame counts.
//
// Rates are rounded to whole hertz and kept as a reduced fraction num/den
// (input over output). Output frame k is evaluated at input position
// k*num/den, tracked as an integer sample index plus a fraction in units
// of 1/den, so long runs never drift.
package engine

import (
	"fmt"

	"github.com/tphakala/go-audio-delay/internal/filter"
	"github.com/tphakala/go-audio-delay/internal/mathutil"
	"github.com/tphakala/go-audio-delay/internal/simdops"
)

// Converter converts interleaved multichannel audio between two sample
// rates. It is not safe for concurrent use and never allocates after
// construction except in SetQuality.
type Converter[F simdops.Float] struct {
	channels int // constructed capacity
	active   int
	quality  Quality

	inRate, outRate float64
	num, den        int
	intAdv, fracAdv int
	bypass          bool

	// time state shared by all channels
	lastSample int
	sampFrac   int

	maxTaps    int
	taps       int
	oversample int
	bank       *filter.KernelBank[F]
	cache      [kernelCacheSlots]kernelSlot[F]
	tick       uint64
	designs    int

	// mem[ch] holds maxTaps-1 frames of history followed by one input chunk.
	mem [][]F
	ops *simdops.Ops[F]
}

type kernelSlot[F simdops.Float] struct {
	num, den int
	bank     *filter.KernelBank[F]
	lastUse  uint64
}

// NewConverter creates a converter for up to channels interleaved channels,
// starting at 44100 Hz in and out.
func NewConverter[F simdops.Float](channels int, quality Quality) (*Converter[F], error) {
	if channels < 1 || channels > MaxChannels {
		return nil, fmt.Errorf("%w: %d (must be 1..%d)", ErrInvalidChannels, channels, MaxChannels)
	}
	if !quality.Valid() {
		return nil, fmt.Errorf("%w: %d (must be %d..%d)", ErrInvalidQuality, quality, QualityMin, QualityMax)
	}

	c := &Converter[F]{
		channels: channels,
		active:   channels,
		inRate:   defaultRate,
		outRate:  defaultRate,
		num:      1,
		den:      1,
		intAdv:   1,
		bypass:   true,
		ops:      simdops.For[F](),
	}
	c.allocate(quality)
	return c, nil
}

func (c *Converter[F]) allocate(q Quality) {
	s := q.row()
	c.quality = q
	c.maxTaps = q.maxTaps()

	hist := c.maxTaps - 1
	c.mem = make([][]F, c.channels)
	for ch := range c.mem {
		c.mem[ch] = make([]F, hist+chunkFrames)
	}
	for i := range c.cache {
		c.cache[i] = kernelSlot[F]{bank: filter.NewKernelBank[F](c.maxTaps, s.oversample)}
	}
	c.bank = nil
	c.tick = 0
}

// SetQuality switches quality level. Filter state is reallocated and the
// history cleared, so this belongs in setup code, not the audio path.
func (c *Converter[F]) SetQuality(q Quality) error {
	if !q.Valid() {
		return fmt.Errorf("%w: %d (must be %d..%d)", ErrInvalidQuality, q, QualityMin, QualityMax)
	}
	if q == c.quality {
		return nil
	}
	c.allocate(q)
	c.Reset()
	if !c.bypass {
		return c.selectKernel(c.num, c.den)
	}
	return nil
}

// Quality returns the current quality level.
func (c *Converter[F]) Quality() Quality { return c.quality }

// SetChannels sets how many interleaved channels Process handles, at most
// the constructed count.
func (c *Converter[F]) SetChannels(n int) error {
	if n < 1 || n > c.channels {
		return fmt.Errorf("%w: %d (must be 1..%d)", ErrInvalidChannels, n, c.channels)
	}
	c.active = n
	return nil
}

// Channels returns the number of active channels.
func (c *Converter[F]) Channels() int { return c.active }

// SetRates sets the input and output rates in hertz. It is a no-op when
// nothing changed or when either rate is not positive. History and phase
// carry over so the output stays continuous.
func (c *Converter[F]) SetRates(in, out float64) error {
	if in == c.inRate && out == c.outRate {
		return nil
	}
	num, den, ok := mathutil.ReduceRates(in, out)
	if !ok {
		return nil
	}
	if num == c.num && den == c.den {
		c.inRate, c.outRate = in, out
		return nil
	}
	if num != den {
		if err := c.selectKernel(num, den); err != nil {
			return err
		}
	}

	c.inRate, c.outRate = in, out
	// keep the fractional position, expressed in the new denominator
	c.sampFrac = min(c.sampFrac*den/c.den, den-1)
	c.num, c.den = num, den
	c.intAdv, c.fracAdv = num/den, num%den
	c.bypass = num == den
	return nil
}

// Rates returns the configured input and output rates.
func (c *Converter[F]) Rates() (in, out float64) { return c.inRate, c.outRate }

// Ratio returns the reduced input/output rate fraction.
func (c *Converter[F]) Ratio() (num, den int) { return c.num, c.den }

// Bypassed reports whether input and output rates are equal, in which case
// Process copies frames unchanged.
func (c *Converter[F]) Bypassed() bool { return c.bypass }

// Latency returns the group delay in input frames when not bypassed.
func (c *Converter[F]) Latency() int { return c.maxTaps / 2 }

// Reset clears history and phase.
func (c *Converter[F]) Reset() {
	for _, m := range c.mem {
		clear(m)
	}
	c.lastSample = 0
	c.sampFrac = 0
}

// bankParams derives the kernel for a reduced ratio from the quality table.
func (c *Converter[F]) bankParams(num, den int) filter.BankParams {
	return c.quality.BankParams(num, den)
}

// selectKernel makes the bank for num/den current, designing it into the
// least recently used cache slot on a miss.
func (c *Converter[F]) selectKernel(num, den int) error {
	c.tick++
	victim := 0
	for i := range c.cache {
		s := &c.cache[i]
		if s.num == num && s.den == den {
			s.lastUse = c.tick
			c.useBank(s.bank)
			return nil
		}
		if s.lastUse < c.cache[victim].lastUse {
			victim = i
		}
	}

	s := &c.cache[victim]
	if err := s.bank.Design(c.bankParams(num, den)); err != nil {
		s.num, s.den, s.lastUse = 0, 0, 0
		return fmt.Errorf("design kernel for %d/%d: %w", num, den, err)
	}
	c.designs++
	s.num, s.den, s.lastUse = num, den, c.tick
	c.useBank(s.bank)
	return nil
}

func (c *Converter[F]) useBank(b *filter.KernelBank[F]) {
	p := b.Params()
	c.bank = b
	c.taps = p.Taps
	c.oversample = p.Oversample
}

// Process converts interleaved frames with a stride equal to the active
// channel count. See ProcessStrided.
func (c *Converter[F]) Process(in []F, inFrames int, out []F, outFrames int) (consumed, produced int) {
	return c.ProcessStrided(in, c.active, inFrames, out, c.active, outFrames)
}

// ProcessStrided reads up to inFrames frames from in and writes up to
// outFrames frames to out. Frame i of a buffer starts at i*stride; the
// first Channels() samples of each frame are used.
//
// It returns the frames consumed and produced, 0 <= consumed <= inFrames
// and 0 <= produced <= outFrames. When both counts requested are positive
// at least one of them is positive. Unconsumed input must be offered again
// on the next call.
func (c *Converter[F]) ProcessStrided(in []F, inStride, inFrames int, out []F, outStride, outFrames int) (consumed, produced int) {
	if inFrames <= 0 || outFrames <= 0 {
		return 0, 0
	}
	if c.bypass {
		return c.copyThrough(in, inStride, out, outStride, min(inFrames, outFrames))
	}

	hist := c.maxTaps - 1
	for consumed < inFrames && produced < outFrames {
		chunk := min(inFrames-consumed, chunkFrames)
		c.load(in[consumed*inStride:], inStride, chunk)

		var n, ls, frac int
		for ch := range c.active {
			n, ls, frac = c.filterChannel(c.mem[ch], chunk, out[produced*outStride+ch:], outStride, outFrames-produced)
		}

		used := min(ls, chunk)
		c.lastSample = ls - used
		c.sampFrac = frac
		for ch := range c.active {
			m := c.mem[ch]
			copy(m[:hist], m[used:used+hist])
		}

		consumed += used
		produced += n
		if used < chunk {
			// output is full
			break
		}
	}
	return consumed, produced
}

// load copies chunk input frames behind the history of every active channel.
func (c *Converter[F]) load(in []F, stride, chunk int) {
	hist := c.maxTaps - 1
	for ch := range c.active {
		dst := c.mem[ch][hist : hist+chunk]
		for i := range dst {
			dst[i] = in[i*stride+ch]
		}
	}
}

// filterChannel produces output frames from one channel's history until the
// chunk or the output runs out, starting from the shared time state. It
// returns the frames written and the time state after them.
func (c *Converter[F]) filterChannel(mem []F, chunk int, out []F, stride, limit int) (n, ls, frac int) {
	ls, frac = c.lastSample, c.sampFrac
	taps := c.taps
	pad := (c.maxTaps - taps) / 2
	dot := c.ops.DotProductUnsafe

	for ls < chunk && n < limit {
		x := mem[ls+pad : ls+pad+taps]

		pos := frac * c.oversample
		q := pos / c.den
		t := float64(pos%c.den) / float64(c.den)
		w0, w1, w2, w3 := cubicWeights(t)

		acc := F(w0)*dot(x, c.bank.Phase(q+2)) +
			F(w1)*dot(x, c.bank.Phase(q+1)) +
			F(w2)*dot(x, c.bank.Phase(q)) +
			F(w3)*dot(x, c.bank.Phase(q-1))
		out[n*stride] = acc
		n++

		ls += c.intAdv
		frac += c.fracAdv
		if frac >= c.den {
			frac -= c.den
			ls++
		}
	}
	return n, ls, frac
}

// cubicWeights returns the Lagrange weights for kernel phases q+2, q+1, q
// and q-1 at fractional phase t in [0, 1).
func cubicWeights(t float64) (w0, w1, w2, w3 float64) {
	t2 := t * t
	t3 := t2 * t
	w0 = sixth * (t3 - t)
	w1 = t + half*t2 - half*t3
	w3 = -third*t + half*t2 - sixth*t3
	w2 = 1 - w0 - w1 - w3
	return w0, w1, w2, w3
}

// copyThrough is the equal-rate path. It copies n frames exactly and keeps
// the filter history current for when the rates diverge again.
func (c *Converter[F]) copyThrough(in []F, inStride int, out []F, outStride int, n int) (consumed, produced int) {
	for i := range n {
		src := in[i*inStride : i*inStride+c.active]
		copy(out[i*outStride:i*outStride+c.active], src)
	}

	hist := c.maxTaps - 1
	for done := 0; done < n; {
		chunk := min(n-done, chunkFrames)
		c.load(in[done*inStride:], inStride, chunk)
		for ch := range c.active {
			m := c.mem[ch]
			copy(m[:hist], m[chunk:chunk+hist])
		}
		done += chunk
	}
	return n, n
}
