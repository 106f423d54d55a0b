// Package audio connects delay lines running on an engine clock to audio
// devices running on their own callback clock.
//
// A Driver enumerates and opens Devices. A Device calls its Processor once
// per hardware block with interleaved float32 buffers. Bridge is the
// Processor that moves frames between the device callback and a
// per-frame engine loop, converting between the two sample rates and
// giving up on an unresponsive side after a bounded wait.
package audio

import "errors"

var (
	// ErrDuplicateDriver is returned when a driver name is registered twice.
	ErrDuplicateDriver = errors.New("audio driver already registered")

	// ErrUnknownDriver is returned for driver names that were never
	// registered.
	ErrUnknownDriver = errors.New("unknown audio driver")

	// ErrUnknownDevice is returned by drivers for device ids they do not
	// have.
	ErrUnknownDevice = errors.New("unknown audio device")

	// ErrInvalidStream is returned for stream settings a device cannot use.
	ErrInvalidStream = errors.New("invalid stream configuration")

	// ErrRunning is returned when a running device is started again or
	// reconfigured.
	ErrRunning = errors.New("audio device is running")
)

// DeviceInfo describes one device of a driver.
type DeviceInfo struct {
	ID                int
	Name              string
	Inputs, Outputs   int
	DefaultSampleRate float64
}

// StreamConfig requests stream settings when a device is opened. Zero
// fields take the device defaults.
type StreamConfig struct {
	SampleRate float64
	BlockSize  int
	Inputs     int
	Outputs    int
}

// Processor handles one device block. input holds frames*Inputs()
// interleaved samples and output frames*Outputs(); either may be nil when
// the device has no channels in that direction.
type Processor interface {
	ProcessBuffer(input, output []float32, frames int)
}

// Driver is an audio backend.
type Driver interface {
	Name() string
	Devices() ([]DeviceInfo, error)
	Open(id int, cfg StreamConfig) (Device, error)
}

// Device is an open audio device. Setters fail with ErrRunning while the
// device is started.
type Device interface {
	Info() DeviceInfo
	SampleRate() float64
	SetSampleRate(rate float64) error
	BlockSize() int
	SetBlockSize(frames int) error
	Inputs() int
	Outputs() int

	Start(p Processor) error
	Stop() error
	Close() error
}
