package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	ossignal "os/signal"
	"sync"
	"time"

	"github.com/jfreymuth/oggvorbis"
	"golang.org/x/sync/errgroup"

	delay "github.com/tphakala/go-audio-delay"
	"github.com/tphakala/go-audio-delay/audio"
	"github.com/tphakala/go-audio-delay/internal/logging"
	"github.com/tphakala/go-audio-delay/internal/signal"
	"github.com/tphakala/go-audio-delay/internal/source"
)

const (
	// streamFrames is how far the source producer may run ahead.
	streamFrames = 1 << 13

	// idleWait is how long the engine sleeps while the bridge is inactive.
	idleWait = time.Millisecond

	sourceAmplitude = 0.5
)

type Play struct {
	Line delayFlags `embed:""`

	Driver     string  `help:"Audio driver." default:"${play_driver}"`
	Device     int     `help:"Device id." default:"${play_device}"`
	SampleRate int     `help:"Device sample rate in Hz." default:"${play_sample_rate}"`
	BlockSize  int     `help:"Device block size in frames." default:"${play_block_size}"`
	EngineRate int     `help:"Engine sample rate in Hz. A wav source runs at its own rate." default:"${play_engine_rate}"`
	Source     string  `help:"Input signal: square, sine, wav or ogg." enum:"square,sine,wav,ogg" default:"${play_source}"`
	Frequency  float64 `help:"Oscillator frequency in Hz." default:"${play_frequency}"`
	File       string  `help:"File played by the wav and ogg sources." type:"existingfile"`
	Seconds    float64 `help:"Stop after this many seconds, 0 to run until interrupted." default:"${play_seconds}"`
}

type playStats struct {
	engineRate float64
	deviceRate float64
	frames     uint64
	underflows uint64
	timeouts   uint64
	peak       float32
}

func (p *Play) Run() error {
	ctx, stop := ossignal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	stats, err := p.play(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Played %d frames at %g Hz through %s at %g Hz\n",
		stats.frames, stats.engineRate, p.Driver, stats.deviceRate)
	fmt.Printf("  peak %.3f, %d source underflows, %d bridge timeouts\n",
		stats.peak, stats.underflows, stats.timeouts)
	return nil
}

func (p *Play) play(ctx context.Context) (*playStats, error) {
	if p.Seconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(p.Seconds*float64(time.Second)))
		defer cancel()
	}

	var m meter
	reg, err := newRegistry(m.sink)
	if err != nil {
		return nil, err
	}
	defer func() { _ = reg.Close() }()

	bridge, err := audio.NewBridge(p.Line.Quality)
	if err != nil {
		return nil, err
	}
	port := audio.NewPort(reg, bridge)
	cfg := audio.StreamConfig{SampleRate: float64(p.SampleRate), BlockSize: p.BlockSize}
	if err := port.Open(p.Driver, p.Device, cfg); err != nil {
		return nil, err
	}
	defer func() { _ = port.Close() }()

	dev := port.Device()
	channels := dev.Outputs()
	if channels == 0 {
		return nil, fmt.Errorf("%w: %s device %d has no outputs", audio.ErrInvalidStream, p.Driver, p.Device)
	}

	reader, engineRate, closeSource, err := p.reader(channels)
	if err != nil {
		return nil, err
	}
	defer func() { _ = closeSource() }()
	stream, err := source.New(channels, streamFrames)
	if err != nil {
		return nil, err
	}
	lines, err := p.lines(channels)
	if err != nil {
		return nil, err
	}

	logging.ModCLI.WithFields(logging.Fields{
		"source":   p.Source,
		"channels": channels,
		"engine":   engineRate,
	}).Infof("playing")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return stream.Produce(gctx, reader) })
	g.Go(func() error {
		runEngine(gctx, bridge, stream, lines, p.Line.Delay, engineRate)
		return nil
	})
	if err := g.Wait(); err != nil && !isDone(err) {
		return nil, err
	}

	if err := port.Close(); err != nil {
		return nil, err
	}
	return &playStats{
		engineRate: engineRate,
		deviceRate: dev.SampleRate(),
		frames:     stream.FramesRead(),
		underflows: stream.Underflows(),
		timeouts:   bridge.Timeouts(),
		peak:       m.Peak(),
	}, nil
}

// reader returns the source for channels channels, the engine rate it
// runs at and a function releasing it.
func (p *Play) reader(channels int) (source.Reader, float64, func() error, error) {
	nop := func() error { return nil }
	rate := float64(p.EngineRate)
	switch p.Source {
	case "wav", "ogg":
		if p.File == "" {
			return nil, 0, nil, fmt.Errorf("the %s source needs --file", p.Source)
		}
		if p.Source == "ogg" {
			return openOgg(p.File, channels)
		}
		samples, fileRate, fileChannels, err := readWAV(p.File)
		if err != nil {
			return nil, 0, nil, err
		}
		return remap(source.FromSamples(samples), fileChannels, channels), float64(fileRate), nop, nil
	case "sine":
		g, err := signal.NewSine(p.Frequency, rate, sourceAmplitude)
		if err != nil {
			return nil, 0, nil, err
		}
		return source.FromGenerator(g, channels), rate, nop, nil
	default:
		g, err := signal.NewSquare(p.Frequency, rate, sourceAmplitude)
		if err != nil {
			return nil, 0, nil, err
		}
		return source.FromGenerator(g, channels), rate, nop, nil
	}
}

// openOgg streams an Ogg Vorbis file.
func openOgg(path string, channels int) (source.Reader, float64, func() error, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, nil, err
	}
	r, err := oggvorbis.NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, 0, nil, fmt.Errorf("invalid Ogg Vorbis file %s: %w", path, err)
	}
	return remap(r, r.Channels(), channels), float64(r.SampleRate()), f.Close, nil
}

func (p *Play) lines(channels int) ([]*delay.Line, error) {
	cfg, err := p.Line.config(0)
	if err != nil {
		return nil, err
	}
	lines := make([]*delay.Line, channels)
	for c := range lines {
		if lines[c], err = delay.NewLine(cfg); err != nil {
			return nil, err
		}
	}
	return lines, nil
}

// runEngine steps the bridge once per engine frame until ctx is done or
// the stream is drained.
func runEngine(ctx context.Context, bridge *audio.Bridge, stream *source.Stream, lines []*delay.Line, delaySeconds, rate float64) {
	in := make([]delay.Frame, 1)
	for ctx.Err() == nil && !stream.Drained() {
		if !bridge.Active() {
			time.Sleep(idleWait)
			continue
		}
		stream.ReadFrames(in)
		var out delay.Frame
		for c, l := range lines {
			out[c] = l.ProcessSample(in[0][c], delaySeconds, rate)
		}
		bridge.Step(out, rate)
	}
}

// remapReader converts interleaved samples with from channels into to
// channels, repeating source channels as needed.
type remapReader struct {
	r        source.Reader
	from, to int
	buf      []float32
}

func remap(r source.Reader, from, to int) source.Reader {
	if from == to {
		return r
	}
	return &remapReader{r: r, from: from, to: to}
}

func (m *remapReader) Read(dst []float32) (int, error) {
	frames := len(dst) / m.to
	if cap(m.buf) < frames*m.from {
		m.buf = make([]float32, frames*m.from)
	}
	n, err := m.r.Read(m.buf[:frames*m.from])
	got := n / m.from
	for i := range got {
		for c := range m.to {
			dst[i*m.to+c] = m.buf[i*m.from+c%m.from]
		}
	}
	return got * m.to, err
}

func isDone(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// meter tracks the peak level a device played.
type meter struct {
	mu   sync.Mutex
	peak float32
}

func (m *meter) sink(output []float32, frames int) {
	var peak float32
	for _, v := range output {
		peak = max(peak, v, -v)
	}
	m.mu.Lock()
	m.peak = max(m.peak, peak)
	m.mu.Unlock()
}

// Peak returns the largest absolute sample seen.
func (m *meter) Peak() float32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.peak
}
