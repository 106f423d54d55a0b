// Package nulldrv is an audio driver without hardware. Its device calls
// the processor from a goroutine clocked by a ticker, or only on Tick when
// Manual is set.
package nulldrv

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tphakala/go-audio-delay/audio"
)

// Name is the driver name.
const Name = "null"

const (
	defaultRate      = 48000
	defaultBlockSize = 256
	maxBlockSize     = 1 << 14
)

// Options configures the driver's single device.
type Options struct {
	Inputs, Outputs int

	// Fill supplies device input for each block. Nil means silence.
	Fill func(input []float32, frames int)

	// Sink receives device output after each block.
	Sink func(output []float32, frames int)

	// Manual disables the clock goroutine; blocks run only on Tick.
	Manual bool
}

// Driver is the null driver.
type Driver struct {
	opts Options
}

// New creates a null driver with one device.
func New(opts Options) *Driver { return &Driver{opts: opts} }

func (d *Driver) Name() string { return Name }

func (d *Driver) Devices() ([]audio.DeviceInfo, error) {
	return []audio.DeviceInfo{d.info()}, nil
}

func (d *Driver) info() audio.DeviceInfo {
	return audio.DeviceInfo{
		ID:                0,
		Name:              "Null device",
		Inputs:            d.opts.Inputs,
		Outputs:           d.opts.Outputs,
		DefaultSampleRate: defaultRate,
	}
}

// Open opens the device. Only id 0 exists.
func (d *Driver) Open(id int, cfg audio.StreamConfig) (audio.Device, error) {
	if id != 0 {
		return nil, fmt.Errorf("%w: %d", audio.ErrUnknownDevice, id)
	}
	dev := &Device{
		info:    d.info(),
		opts:    d.opts,
		rate:    defaultRate,
		block:   defaultBlockSize,
		inputs:  d.opts.Inputs,
		outputs: d.opts.Outputs,
	}
	if cfg.Inputs > 0 {
		dev.inputs = min(cfg.Inputs, d.opts.Inputs)
	}
	if cfg.Outputs > 0 {
		dev.outputs = min(cfg.Outputs, d.opts.Outputs)
	}
	if cfg.SampleRate != 0 {
		if err := dev.SetSampleRate(cfg.SampleRate); err != nil {
			return nil, err
		}
	}
	if cfg.BlockSize != 0 {
		if err := dev.SetBlockSize(cfg.BlockSize); err != nil {
			return nil, err
		}
	}
	return dev, nil
}

// Device is the null device.
type Device struct {
	info audio.DeviceInfo
	opts Options

	mu              sync.Mutex
	rate            float64
	block           int
	inputs, outputs int
	proc            audio.Processor
	in, out         []float32
	cancel          context.CancelFunc
	done            chan struct{}
	blocks          uint64
}

func (d *Device) Info() audio.DeviceInfo { return d.info }

func (d *Device) SampleRate() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rate
}

func (d *Device) SetSampleRate(rate float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.proc != nil {
		return audio.ErrRunning
	}
	if rate <= 0 {
		return fmt.Errorf("%w: sample rate %g", audio.ErrInvalidStream, rate)
	}
	d.rate = rate
	return nil
}

func (d *Device) BlockSize() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.block
}

func (d *Device) SetBlockSize(frames int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.proc != nil {
		return audio.ErrRunning
	}
	if frames < 1 || frames > maxBlockSize {
		return fmt.Errorf("%w: block size %d (must be 1..%d)", audio.ErrInvalidStream, frames, maxBlockSize)
	}
	d.block = frames
	return nil
}

func (d *Device) Inputs() int  { return d.inputs }
func (d *Device) Outputs() int { return d.outputs }

// Start begins calling p, from the clock goroutine unless Manual is set.
func (d *Device) Start(p audio.Processor) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.proc != nil {
		return audio.ErrRunning
	}
	d.proc = p
	d.in = make([]float32, d.block*d.inputs)
	d.out = make([]float32, d.block*d.outputs)
	if d.opts.Manual {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	d.done = make(chan struct{})
	period := time.Duration(float64(time.Second) * float64(d.block) / d.rate)
	go d.run(ctx, period, d.done)
	return nil
}

func (d *Device) run(ctx context.Context, period time.Duration, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.Tick()
		}
	}
}

// Tick runs one block. It does nothing while the device is stopped.
func (d *Device) Tick() {
	d.mu.Lock()
	p, in, out, frames := d.proc, d.in, d.out, d.block
	d.mu.Unlock()
	if p == nil {
		return
	}

	if d.opts.Fill != nil {
		d.opts.Fill(in, frames)
	}
	p.ProcessBuffer(in, out, frames)
	if d.opts.Sink != nil {
		d.opts.Sink(out, frames)
	}

	d.mu.Lock()
	d.blocks++
	d.mu.Unlock()
}

// Blocks returns the number of blocks run.
func (d *Device) Blocks() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.blocks
}

// Stop stops the clock and waits for the current block to finish.
func (d *Device) Stop() error {
	d.mu.Lock()
	cancel, done := d.cancel, d.done
	d.proc, d.cancel, d.done = nil, nil, nil
	d.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	return nil
}

func (d *Device) Close() error { return d.Stop() }
