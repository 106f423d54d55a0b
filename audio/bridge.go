package audio

import (
	"fmt"
	"sync"
	"time"

	"github.com/tphakala/go-audio-delay/internal/engine"
	"github.com/tphakala/go-audio-delay/internal/frame"
	"github.com/tphakala/go-audio-delay/internal/logging"
	"github.com/tphakala/go-audio-delay/ringbuf"
)

// Bridge moves audio between a device callback and an engine loop that
// calls Step once per frame.
//
// The device side pushes its input frames and waits for enough converted
// engine output to fill the block. The engine side waits for device input,
// converts it to the engine rate, and stages its own output frames, which
// are converted to the device rate 16 at a time. Every wait is bounded: a
// device that stops calling back marks the bridge inactive and the engine
// carries on with silence, and an engine that stops stepping makes the
// device play silence. The next device callback reactivates the bridge.
type Bridge struct {
	mu sync.Mutex

	// guarded by mu
	devIn, devOut *ringbuf.DoubleRingBuffer[frame.Frame]
	active        bool
	inputs        int
	outputs       int
	deviceRate    float64
	blockSize     int
	timeouts      uint64

	engineWake chan struct{} // device -> engine
	deviceWake chan struct{} // engine -> device

	// engine side only
	inSRC, outSRC     *engine.Converter[float32]
	inStage, outStage *ringbuf.DoubleRingBuffer[frame.Frame]
	deviceTimeout     time.Duration
	engineTimeout     time.Duration
	lastWarn          time.Time
	suppressed        int
}

// BridgeOption configures NewBridge.
type BridgeOption func(*Bridge)

// WithTimeouts overrides DefaultDeviceTimeout and DefaultEngineTimeout.
func WithTimeouts(device, engine time.Duration) BridgeOption {
	return func(b *Bridge) { b.deviceTimeout, b.engineTimeout = device, engine }
}

// NewBridge creates an unconfigured bridge. quality is the converter
// quality, 0 to 10.
func NewBridge(quality int, opts ...BridgeOption) (*Bridge, error) {
	inSRC, err := engine.NewConverter[float32](frame.Max, engine.Quality(quality))
	if err != nil {
		return nil, fmt.Errorf("input converter: %w", err)
	}
	outSRC, err := engine.NewConverter[float32](frame.Max, engine.Quality(quality))
	if err != nil {
		return nil, fmt.Errorf("output converter: %w", err)
	}
	b := &Bridge{
		devIn:         ringbuf.NewDouble[frame.Frame](deviceBufferFrames),
		devOut:        ringbuf.NewDouble[frame.Frame](deviceBufferFrames),
		engineWake:    make(chan struct{}, 1),
		deviceWake:    make(chan struct{}, 1),
		inSRC:         inSRC,
		outSRC:        outSRC,
		inStage:       ringbuf.NewDouble[frame.Frame](stagingFrames),
		outStage:      ringbuf.NewDouble[frame.Frame](stagingFrames),
		deviceTimeout: DefaultDeviceTimeout,
		engineTimeout: DefaultEngineTimeout,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Configure adopts the channel counts, rate and block size of d and
// clears every buffer. The bridge stays inactive until the device calls
// back. Configure and Detach must not overlap a Step call.
func (b *Bridge) Configure(d Device) error {
	if d.Inputs() > frame.Max || d.Outputs() > frame.Max {
		return fmt.Errorf("%w: %d inputs, %d outputs (max %d)", ErrInvalidStream, d.Inputs(), d.Outputs(), frame.Max)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.inputs = d.Inputs()
	b.outputs = d.Outputs()
	b.deviceRate = d.SampleRate()
	b.blockSize = d.BlockSize()
	b.active = false
	b.clearLocked()
	return nil
}

// Detach marks the bridge as having no device.
func (b *Bridge) Detach() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.inputs, b.outputs = 0, 0
	b.active = false
	b.clearLocked()
}

func (b *Bridge) clearLocked() {
	b.devIn.Clear()
	b.devOut.Clear()
	b.inStage.Clear()
	b.outStage.Clear()
	b.inSRC.Reset()
	b.outSRC.Reset()
}

// Active reports whether both sides have been keeping up.
func (b *Bridge) Active() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.active
}

// Timeouts returns how many bounded waits have expired on either side.
func (b *Bridge) Timeouts() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.timeouts
}

// ProcessBuffer is the device side. It runs on the device callback.
func (b *Bridge) ProcessBuffer(input, output []float32, frames int) {
	defer notify(b.engineWake)

	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.active {
		b.active = true
		b.devIn.Clear()
		b.devOut.Clear()
	}

	for i := 0; i < frames && b.inputs > 0; i++ {
		if b.devIn.Full() {
			break
		}
		var f frame.Frame
		copy(f[:b.inputs], input[i*b.inputs:])
		b.devIn.Push(f)
	}

	if b.outputs == 0 {
		return
	}
	// the engine may be waiting for this input before it can produce output
	notify(b.engineWake)

	out := output[:frames*b.outputs]
	ready := func() bool { return b.devOut.Size() >= frames }
	if !b.waitLocked(ready, b.deviceWake, b.deviceTimeout) {
		clear(out)
		b.timeouts++
		b.warnLocked("device waited %v for %d engine frames, playing silence", b.deviceTimeout, frames)
		return
	}
	for i := range frames {
		f := b.devOut.Shift()
		for c := range b.outputs {
			out[i*b.outputs+c] = min(max(f[c], -1), 1)
		}
	}
}

// Step is the engine side, called once per engine frame. send is the
// frame for the device outputs; the returned frame holds the device inputs
// at the engine rate, or silence when none arrived.
func (b *Bridge) Step(send frame.Frame, engineRate float64) frame.Frame {
	b.mu.Lock()
	active, inputs, outputs := b.active, b.inputs, b.outputs
	deviceRate := b.deviceRate
	b.mu.Unlock()

	if inputs > 0 {
		_ = b.inSRC.SetRates(deviceRate, engineRate)
		_ = b.inSRC.SetChannels(inputs)
	}
	if outputs > 0 {
		_ = b.outSRC.SetRates(engineRate, deviceRate)
		_ = b.outSRC.SetChannels(outputs)
	}

	if active && inputs > 0 {
		b.pullInput()
	}

	var recv frame.Frame
	if !b.inStage.Empty() {
		recv = b.inStage.Shift()
	}

	if active && outputs > 0 {
		b.pushOutput(send)
		notify(b.deviceWake)
	}
	return recv
}

func (b *Bridge) pullInput() {
	b.mu.Lock()
	defer b.mu.Unlock()

	ready := func() bool { return !b.devIn.Empty() }
	if !b.waitLocked(ready, b.engineWake, b.engineTimeout) {
		b.active = false
		b.timeouts++
		b.warnLocked("engine waited %v for device input, bridge inactive", b.engineTimeout)
		return
	}
	in := b.devIn.StartData()
	out := b.inStage.EndData()
	used, made := b.inSRC.ProcessStrided(frame.Samples(in), frame.Max, len(in),
		frame.Samples(out), frame.Max, len(out))
	b.devIn.StartIncr(used)
	b.inStage.EndIncr(made)
}

func (b *Bridge) pushOutput(send frame.Frame) {
	if !b.outStage.Full() {
		b.outStage.Push(send)
	}
	if !b.outStage.Full() {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	room := func() bool { return b.devOut.Size() < b.blockSize }
	if !b.waitLocked(room, b.engineWake, b.engineTimeout) {
		b.active = false
		b.outStage.Clear()
		b.timeouts++
		b.warnLocked("engine waited %v for device to drain output, bridge inactive", b.engineTimeout)
		return
	}
	in := b.outStage.StartData()
	out := b.devOut.EndData()
	used, made := b.outSRC.ProcessStrided(frame.Samples(in), frame.Max, len(in),
		frame.Samples(out), frame.Max, len(out))
	b.outStage.StartIncr(used)
	b.devOut.EndIncr(made)
}

// waitLocked waits until cond holds, re-checking whenever wake fires, for
// at most timeout. b.mu is held on entry and on return.
func (b *Bridge) waitLocked(cond func() bool, wake <-chan struct{}, timeout time.Duration) bool {
	if cond() {
		return true
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		b.mu.Unlock()
		select {
		case <-wake:
			b.mu.Lock()
			if cond() {
				return true
			}
		case <-timer.C:
			b.mu.Lock()
			return cond()
		}
	}
}

func (b *Bridge) warnLocked(format string, args ...any) {
	now := time.Now()
	if now.Sub(b.lastWarn) < warnInterval {
		b.suppressed++
		return
	}
	entry := logging.ModAudio.WithField("timeouts", b.timeouts)
	if b.suppressed > 0 {
		entry = entry.WithField("suppressed", b.suppressed)
	}
	entry.Warnf(format, args...)
	b.lastWarn = now
	b.suppressed = 0
}

// notify wakes a waiter without blocking.
func notify(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
