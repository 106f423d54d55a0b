package delay

import (
	"math"

	"github.com/tphakala/go-audio-delay/ringbuf"
)

// history is the read side of a delay history: a single buffer, or one tap
// of a shared multi-tap buffer.
type history interface {
	Size() int
	StartData() []float32
	StartIncr(n int)
}

// tapHistory adapts one tap of a MultiTapDoubleRingBuffer to history.
type tapHistory struct {
	buf *ringbuf.MultiTapDoubleRingBuffer[float32]
	tap int
}

func (h tapHistory) Size() int            { return h.buf.Size(h.tap) }
func (h tapHistory) StartData() []float32 { return h.buf.StartData(h.tap) }
func (h tapHistory) StartIncr(n int)      { h.buf.StartIncr(h.tap, n) }

// retimer drains one history into a short output FIFO, correcting the
// buffered length towards the requested delay on every refill.
type retimer struct {
	src       *Converter
	out       *ringbuf.DoubleRingBuffer[float32]
	mode      Mode
	threshold float64
	maxRead   int
	ratio     float64
}

func newRetimer(cfg *Config) (*retimer, error) {
	src, err := NewConverter(1, WithQuality(cfg.Quality))
	if err != nil {
		return nil, err
	}
	return &retimer{
		src:       src,
		out:       ringbuf.NewDouble[float32](cfg.OutputFrames),
		mode:      cfg.Mode,
		threshold: float64(cfg.Threshold),
		maxRead:   cfg.ConvertFrames,
		ratio:     1,
	}, nil
}

// next returns the next wet sample for a delay of index frames, refilling
// the FIFO first when it is empty. It returns 0 while nothing is buffered.
func (r *retimer) next(h history, index, sampleRate float64) float32 {
	if r.out.Empty() {
		r.refill(h, index, sampleRate)
	}
	if r.out.Empty() {
		return 0
	}
	return r.out.Shift()
}

func (r *retimer) refill(h history, index, sampleRate float64) {
	size := h.Size()

	if r.mode == ModeDirect {
		excess := size - int(math.Round(index))
		if excess > 1 {
			h.StartIncr(excess - 1)
			excess = 1
		}
		if excess == 1 {
			r.out.Push(h.StartData()[0])
			h.StartIncr(1)
		}
		return
	}

	consume := index - float64(size)
	ratio := 1.0
	switch {
	case consume <= -r.threshold:
		ratio = slowRatio
	case consume >= r.threshold:
		ratio = fastRatio
	}
	if err := r.src.SetRates(sampleRate, sampleRate*ratio); err != nil {
		return
	}
	r.ratio = ratio

	in := h.StartData()
	dst := r.out.EndData()
	consumed, produced := r.src.Process(in, min(len(in), r.maxRead), dst, len(dst))
	h.StartIncr(consumed)
	r.out.EndIncr(produced)
}

func (r *retimer) reset() {
	r.out.Clear()
	r.src.Reset()
	r.ratio = 1
}
