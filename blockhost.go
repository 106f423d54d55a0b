package delay

import (
	"github.com/tphakala/go-audio-delay/internal/engine"
	"github.com/tphakala/go-audio-delay/internal/pipeline"
)

// ErrInvalidProcessor is returned for processors with a block size or
// sample rate out of range.
var ErrInvalidProcessor = pipeline.ErrInvalidProcessor

// BlockProcessor processes fixed blocks of BlockSize frames at its own
// SampleRate. in and out both hold BlockSize frames.
type BlockProcessor interface {
	BlockSize() int
	SampleRate() float64
	Process(in, out []Frame)
}

// BlockHost runs a BlockProcessor inside a per-frame loop at the engine
// rate, converting into and out of the processor rate.
type BlockHost struct {
	host *pipeline.Host
}

// NewBlockHost wraps p for the first channels channels of every frame.
func NewBlockHost(p BlockProcessor, channels, quality int) (*BlockHost, error) {
	h, err := pipeline.NewHost(p, channels, engine.Quality(quality))
	if err != nil {
		return nil, err
	}
	return &BlockHost{host: h}, nil
}

// Step pushes one engine frame and returns one processed frame.
func (b *BlockHost) Step(in Frame, engineRate float64) Frame {
	return b.host.Step(in, engineRate)
}

// Reset drops buffered frames and converter history.
func (b *BlockHost) Reset() { b.host.Reset() }

// Latency returns the conversion delay in engine frames, not counting the
// one block of buffering.
func (b *BlockHost) Latency(engineRate float64) int { return b.host.Latency(engineRate) }
