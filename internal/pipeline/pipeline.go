// Package pipeline hosts fixed-block processors that run at their own
// internal sample rate inside a per-sample engine loop. Engine frames are
// buffered, converted to the processor rate one block at a time, processed
// and converted back into an output FIFO that the engine drains one frame
// per tick.
package pipeline

import (
	"errors"
	"fmt"

	"github.com/tphakala/go-audio-delay/internal/engine"
	"github.com/tphakala/go-audio-delay/internal/frame"
	"github.com/tphakala/go-audio-delay/ringbuf"
)

// ErrInvalidProcessor is returned for processors with unusable block size
// or rate.
var ErrInvalidProcessor = errors.New("invalid block processor")

// Processor transforms one block of BlockSize frames at SampleRate.
type Processor interface {
	BlockSize() int
	SampleRate() float64
	Process(in, out []frame.Frame)
}

// Host adapts a Processor to a per-frame Step call.
type Host struct {
	proc     Processor
	channels int

	in, out       *ringbuf.DoubleRingBuffer[frame.Frame]
	inSRC, outSRC *engine.Converter[float32]

	block     []frame.Frame
	processed []frame.Frame
	blocks    uint64
}

// NewHost creates a host for the first channels of each frame.
func NewHost(p Processor, channels int, quality engine.Quality) (*Host, error) {
	n := p.BlockSize()
	if n < 1 || n > maxBlockFrames {
		return nil, fmt.Errorf("%w: block size %d (must be 1..%d)", ErrInvalidProcessor, n, maxBlockFrames)
	}
	if p.SampleRate() <= 0 {
		return nil, fmt.Errorf("%w: sample rate %g", ErrInvalidProcessor, p.SampleRate())
	}

	inSRC, err := engine.NewConverter[float32](channels, quality)
	if err != nil {
		return nil, fmt.Errorf("input converter: %w", err)
	}
	outSRC, err := engine.NewConverter[float32](channels, quality)
	if err != nil {
		return nil, fmt.Errorf("output converter: %w", err)
	}

	capacity := max(minFIFOFrames, fifoBlocks*n)
	return &Host{
		proc:      p,
		channels:  channels,
		in:        ringbuf.NewDouble[frame.Frame](capacity),
		out:       ringbuf.NewDouble[frame.Frame](capacity),
		inSRC:     inSRC,
		outSRC:    outSRC,
		block:     make([]frame.Frame, n),
		processed: make([]frame.Frame, n),
	}, nil
}

// Step pushes one engine frame and returns one processed frame. A block is
// converted and processed whenever the output FIFO runs dry; the first
// block is padded with silence, so output starts after BlockSize-1 frames
// plus converter latency.
func (h *Host) Step(in frame.Frame, engineRate float64) frame.Frame {
	if !h.in.Full() {
		h.in.Push(in)
	}
	if h.out.Empty() {
		h.runBlock(engineRate)
	}
	if h.out.Empty() {
		return frame.Frame{}
	}
	return h.out.Shift()
}

func (h *Host) runBlock(engineRate float64) {
	rate := h.proc.SampleRate()

	// engine rate -> processor rate, one block, padded with silence
	_ = h.inSRC.SetRates(engineRate, rate)
	src := h.in.StartData()
	consumed, produced := h.inSRC.ProcessStrided(
		frame.Samples(src), frame.Max, len(src),
		frame.Samples(h.block), frame.Max, len(h.block))
	h.in.StartIncr(consumed)
	clear(h.block[produced:])

	h.proc.Process(h.block, h.processed)
	h.blocks++

	// processor rate -> engine rate, whatever fits
	_ = h.outSRC.SetRates(rate, engineRate)
	dst := h.out.EndData()
	_, produced = h.outSRC.ProcessStrided(
		frame.Samples(h.processed), frame.Max, len(h.processed),
		frame.Samples(dst), frame.Max, len(dst))
	h.out.EndIncr(produced)
}

// Blocks returns the number of blocks processed since creation.
func (h *Host) Blocks() uint64 { return h.blocks }

// Reset empties both FIFOs and clears converter history.
func (h *Host) Reset() {
	h.in.Clear()
	h.out.Clear()
	h.inSRC.Reset()
	h.outSRC.Reset()
}

// Latency returns the converter group delay in engine frames, excluding
// the block delay.
func (h *Host) Latency(engineRate float64) int {
	rate := h.proc.SampleRate()
	if rate == engineRate {
		return 0
	}
	in := float64(h.inSRC.Latency())
	out := float64(h.outSRC.Latency()) * engineRate / rate
	return int(in + out + 0.5)
}
