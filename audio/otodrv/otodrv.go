//go:build oto

// Package otodrv is an output-only audio driver on top of oto. oto allows
// one context per process, so the driver opens it on first use and keeps
// it until Close.
package otodrv

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/tphakala/go-audio-delay/audio"
)

// Name is the driver name.
const Name = "oto"

const (
	channels         = 2
	bytesPerSample   = 4
	defaultRate      = 48000
	defaultBlockSize = 512
)

// Driver is the oto driver.
type Driver struct {
	mu   sync.Mutex
	ctx  *oto.Context
	rate int
}

// New creates an oto driver.
func New() *Driver { return &Driver{} }

func (d *Driver) Name() string { return Name }

func (d *Driver) Devices() ([]audio.DeviceInfo, error) {
	return []audio.DeviceInfo{info()}, nil
}

func info() audio.DeviceInfo {
	return audio.DeviceInfo{
		ID:                0,
		Name:              "Default output",
		Outputs:           channels,
		DefaultSampleRate: defaultRate,
	}
}

// Open opens the default output. The first Open fixes the sample rate for
// the life of the process.
func (d *Driver) Open(id int, cfg audio.StreamConfig) (audio.Device, error) {
	if id != 0 {
		return nil, fmt.Errorf("%w: %d", audio.ErrUnknownDevice, id)
	}
	rate := int(cfg.SampleRate)
	if rate == 0 {
		rate = defaultRate
	}
	block := cfg.BlockSize
	if block == 0 {
		block = defaultBlockSize
	}

	ctx, err := d.context(rate, block)
	if err != nil {
		return nil, err
	}
	return &Device{ctx: ctx, rate: float64(rate), block: block}, nil
}

func (d *Driver) context(rate, block int) (*oto.Context, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ctx != nil {
		if rate != d.rate {
			return nil, fmt.Errorf("%w: oto already runs at %d Hz", audio.ErrInvalidStream, d.rate)
		}
		return d.ctx, nil
	}

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   rate,
		ChannelCount: channels,
		Format:       oto.FormatFloat32LE,
		BufferSize:   time.Duration(block) * time.Second / time.Duration(rate),
	})
	if err != nil {
		return nil, fmt.Errorf("oto context: %w", err)
	}
	<-ready
	d.ctx, d.rate = ctx, rate
	return ctx, nil
}

// Close suspends the shared context.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ctx == nil {
		return nil
	}
	return d.ctx.Suspend()
}

// Device is the default output.
type Device struct {
	ctx    *oto.Context
	rate   float64
	block  int
	player *oto.Player
}

func (d *Device) Info() audio.DeviceInfo { return info() }
func (d *Device) SampleRate() float64    { return d.rate }
func (d *Device) BlockSize() int         { return d.block }
func (d *Device) Inputs() int            { return 0 }
func (d *Device) Outputs() int           { return channels }

// SetSampleRate only accepts the context rate.
func (d *Device) SetSampleRate(rate float64) error {
	if rate != d.rate {
		return fmt.Errorf("%w: oto runs at %g Hz", audio.ErrInvalidStream, d.rate)
	}
	return nil
}

func (d *Device) SetBlockSize(frames int) error {
	if d.player != nil {
		return audio.ErrRunning
	}
	if frames < 1 {
		return fmt.Errorf("%w: block size %d", audio.ErrInvalidStream, frames)
	}
	d.block = frames
	return nil
}

// Start plays the processor output. oto pulls bytes through an io.Reader,
// which runs one processor block per read.
func (d *Device) Start(p audio.Processor) error {
	if d.player != nil {
		return audio.ErrRunning
	}
	d.player = d.ctx.NewPlayer(&pull{
		proc: p,
		out:  make([]float32, d.block*channels),
	})
	d.player.SetBufferSize(d.block * channels * bytesPerSample)
	d.player.Play()
	return nil
}

func (d *Device) Stop() error {
	if d.player == nil {
		return nil
	}
	d.player.Pause()
	err := d.player.Close()
	d.player = nil
	return err
}

func (d *Device) Close() error { return d.Stop() }

// pull adapts a Processor to the io.Reader oto reads from.
type pull struct {
	proc audio.Processor
	out  []float32
}

func (r *pull) Read(b []byte) (int, error) {
	frames := min(len(b)/(channels*bytesPerSample), len(r.out)/channels)
	if frames == 0 {
		return 0, nil
	}
	out := r.out[:frames*channels]
	r.proc.ProcessBuffer(nil, out, frames)
	for i, v := range out {
		binary.LittleEndian.PutUint32(b[i*bytesPerSample:], math.Float32bits(v))
	}
	return len(out) * bytesPerSample, nil
}
