// Package source decouples a PCM producer goroutine from a real-time
// consumer. The producer may block on file or generator I/O; the consumer
// only ever takes what is already buffered and pads the rest with silence.
package source

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"sync/atomic"
	"time"

	"github.com/smallnest/ringbuffer"

	"github.com/tphakala/go-audio-delay/internal/frame"
	"github.com/tphakala/go-audio-delay/internal/signal"
)

const (
	bytesPerSample = 4
	chunkFrames    = 256
	fullWait       = time.Millisecond
)

// ErrInvalidChannels is returned for channel counts outside 1..frame.Max.
var ErrInvalidChannels = errors.New("invalid channel count")

// Reader yields interleaved float32 samples. It returns io.EOF after the
// last sample.
type Reader interface {
	Read(dst []float32) (int, error)
}

// Stream buffers interleaved frames between a producer and a consumer.
type Stream struct {
	ring     *ringbuffer.RingBuffer
	channels int

	eof        atomic.Bool
	drained    atomic.Bool
	underflows atomic.Uint64
	frames     atomic.Uint64

	// consumer side
	raw []byte
}

// New creates a stream of channels interleaved channels buffering up to
// frames frames.
func New(channels, frames int) (*Stream, error) {
	if channels < 1 || channels > frame.Max {
		return nil, ErrInvalidChannels
	}
	frames = max(frames, chunkFrames)
	return &Stream{
		ring:     ringbuffer.New(frames * channels * bytesPerSample),
		channels: channels,
	}, nil
}

// Channels returns the channel count.
func (s *Stream) Channels() int { return s.channels }

// Produce copies r into the stream until r is exhausted or ctx is done.
// It waits while the buffer is full.
func (s *Stream) Produce(ctx context.Context, r Reader) error {
	samples := make([]float32, chunkFrames*s.channels)
	buf := make([]byte, len(samples)*bytesPerSample)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if s.ring.Free() < len(buf) {
			time.Sleep(fullWait)
			continue
		}

		n, err := r.Read(samples)
		n -= n % s.channels
		for i, v := range samples[:n] {
			binary.LittleEndian.PutUint32(buf[i*bytesPerSample:], math.Float32bits(v))
		}
		if werr := s.write(ctx, buf[:n*bytesPerSample]); werr != nil {
			return werr
		}
		if errors.Is(err, io.EOF) {
			s.eof.Store(true)
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (s *Stream) write(ctx context.Context, p []byte) error {
	for len(p) > 0 {
		n, _ := s.ring.Write(p)
		p = p[n:]
		if len(p) == 0 {
			break
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		time.Sleep(fullWait / 2)
	}
	return nil
}

// ReadFrames fills dst with buffered frames and pads the remainder with
// silence. It never blocks and returns the number of real frames. A short
// read before the producer finished counts as an underflow.
func (s *Stream) ReadFrames(dst []frame.Frame) int {
	frameBytes := s.channels * bytesPerSample
	avail := s.ring.Length() / frameBytes
	n := min(avail, len(dst))

	if need := n * frameBytes; cap(s.raw) < need {
		s.raw = make([]byte, need)
	}
	raw := s.raw[:n*frameBytes]
	got, _ := s.ring.TryRead(raw)
	n = got / frameBytes

	for i := range n {
		dst[i] = frame.Frame{}
		for c := range s.channels {
			off := (i*s.channels + c) * bytesPerSample
			dst[i][c] = math.Float32frombits(binary.LittleEndian.Uint32(raw[off:]))
		}
	}
	clear(dst[n:])

	if n < len(dst) {
		switch {
		case s.eof.Load() && s.ring.Length() == 0:
			s.drained.Store(true)
		default:
			s.underflows.Add(1)
		}
	}
	s.frames.Add(uint64(n))
	return n
}

// Buffered returns the number of whole frames waiting.
func (s *Stream) Buffered() int { return s.ring.Length() / (s.channels * bytesPerSample) }

// Underflows returns how many reads came up short while the producer was
// still running.
func (s *Stream) Underflows() uint64 { return s.underflows.Load() }

// FramesRead returns the number of real frames delivered.
func (s *Stream) FramesRead() uint64 { return s.frames.Load() }

// Drained reports whether the producer hit EOF and every frame was read.
func (s *Stream) Drained() bool { return s.drained.Load() }

// Samples reads from an interleaved buffer.
type Samples struct {
	data []float32
	pos  int
}

// FromSamples returns a Reader over interleaved samples.
func FromSamples(data []float32) *Samples { return &Samples{data: data} }

func (r *Samples) Read(dst []float32) (int, error) {
	n := copy(dst, r.data[r.pos:])
	r.pos += n
	if r.pos == len(r.data) {
		return n, io.EOF
	}
	return n, nil
}

// generator adapts an endless mono generator to channels channels.
type generator struct {
	g        signal.Generator
	channels int
	mono     []float32
}

// FromGenerator returns a Reader that never ends, copying the mono output
// of g to every channel.
func FromGenerator(g signal.Generator, channels int) Reader {
	return &generator{g: g, channels: channels}
}

func (r *generator) Read(dst []float32) (int, error) {
	frames := len(dst) / r.channels
	if cap(r.mono) < frames {
		r.mono = make([]float32, frames)
	}
	mono := r.mono[:frames]
	r.g.Read(mono)
	for i, v := range mono {
		for c := range r.channels {
			dst[i*r.channels+c] = v
		}
	}
	return frames * r.channels, nil
}
