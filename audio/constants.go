package audio

import "time"

const (
	// deviceBufferFrames is the capacity of each device-side FIFO.
	deviceBufferFrames = 1 << 15

	// stagingFrames is the capacity of each engine-side FIFO.
	stagingFrames = 16

	// DefaultDeviceTimeout bounds how long a device callback waits for
	// engine output.
	DefaultDeviceTimeout = 100 * time.Millisecond

	// DefaultEngineTimeout bounds how long the engine waits for device
	// input or for room in the device output FIFO.
	DefaultEngineTimeout = 200 * time.Millisecond

	// warnInterval rate-limits timeout warnings.
	warnInterval = time.Second
)
