package audio_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/go-audio-delay/audio"
	"github.com/tphakala/go-audio-delay/audio/nulldrv"
	"github.com/tphakala/go-audio-delay/internal/frame"
)

const (
	shortWait = 5 * time.Millisecond
	testRate  = 48000.0
)

func openManual(t *testing.T, b *audio.Bridge, opts nulldrv.Options) *nulldrv.Device {
	t.Helper()
	opts.Manual = true
	dev, err := nulldrv.New(opts).Open(0, audio.StreamConfig{SampleRate: testRate, BlockSize: 32})
	require.NoError(t, err)
	require.NoError(t, b.Configure(dev))
	require.NoError(t, dev.Start(b))
	t.Cleanup(func() { _ = dev.Close() })
	return dev.(*nulldrv.Device)
}

func TestNewBridge_Quality(t *testing.T) {
	_, err := audio.NewBridge(11)
	assert.Error(t, err)
}

func TestBridge_InactiveEngineDoesNotWait(t *testing.T) {
	b, err := audio.NewBridge(4, audio.WithTimeouts(time.Hour, time.Hour))
	require.NoError(t, err)
	openManual(t, b, nulldrv.Options{Inputs: 2, Outputs: 2})

	for range 1000 {
		assert.Equal(t, frame.Frame{}, b.Step(frame.Frame{1, 1}, testRate))
	}
	assert.False(t, b.Active())
	assert.Zero(t, b.Timeouts())
}

func TestBridge_DeviceTimesOutWithoutEngine(t *testing.T) {
	b, err := audio.NewBridge(4, audio.WithTimeouts(shortWait, shortWait))
	require.NoError(t, err)

	var got []float32
	dev := openManual(t, b, nulldrv.Options{
		Outputs: 2,
		Sink:    func(out []float32, _ int) { got = append(got, out...) },
	})

	start := time.Now()
	dev.Tick()
	assert.GreaterOrEqual(t, time.Since(start), shortWait)

	assert.True(t, b.Active(), "a device callback activates the bridge")
	assert.Equal(t, uint64(1), b.Timeouts())
	require.Len(t, got, 64)
	for _, v := range got {
		assert.Zero(t, v)
	}
}

func TestBridge_EngineGivesUpOnSilentDevice(t *testing.T) {
	b, err := audio.NewBridge(4, audio.WithTimeouts(shortWait, shortWait))
	require.NoError(t, err)
	dev := openManual(t, b, nulldrv.Options{
		Inputs: 1,
		Fill: func(in []float32, _ int) {
			for i := range in {
				in[i] = 0.5
			}
		},
	})

	dev.Tick()
	require.True(t, b.Active())

	// 32 device frames are available, then the device goes quiet
	var got []float32
	for range 40 {
		got = append(got, b.Step(frame.Frame{}, testRate)[0])
	}
	assert.False(t, b.Active())
	assert.Equal(t, uint64(1), b.Timeouts())
	for i := range 32 {
		assert.Equal(t, float32(0.5), got[i], "frame %d", i)
	}

	// inactive bridges return silence without waiting
	start := time.Now()
	assert.Equal(t, frame.Frame{}, b.Step(frame.Frame{}, testRate))
	assert.Less(t, time.Since(start), shortWait)

	// the next callback reactivates
	dev.Tick()
	assert.True(t, b.Active())
}

func TestBridge_LoopbackThroughClockedDevice(t *testing.T) {
	b, err := audio.NewBridge(4)
	require.NoError(t, err)

	var (
		mu      sync.Mutex
		settled bool
	)
	drv := nulldrv.New(nulldrv.Options{
		Inputs:  2,
		Outputs: 2,
		Fill: func(in []float32, _ int) {
			for i := range in {
				in[i] = 0.25
			}
		},
		Sink: func(out []float32, _ int) {
			for _, v := range out {
				if v != 0.25 {
					return
				}
			}
			mu.Lock()
			settled = true
			mu.Unlock()
		},
	})
	reg, err := audio.NewRegistry(drv)
	require.NoError(t, err)
	port := audio.NewPort(reg, b)
	require.NoError(t, port.Open(nulldrv.Name, 0, audio.StreamConfig{SampleRate: testRate, BlockSize: 64}))
	defer func() { require.NoError(t, port.Close()) }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		// loop device input back to the device output, one frame late
		var prev frame.Frame
		for ctx.Err() == nil {
			prev = b.Step(prev, testRate)
		}
	}()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return settled
	}, 4*time.Second, 10*time.Millisecond)
	cancel()
	<-done
}

func TestBridge_ClampsOutput(t *testing.T) {
	b, err := audio.NewBridge(4, audio.WithTimeouts(time.Second, time.Second))
	require.NoError(t, err)

	var got []float32
	dev := openManual(t, b, nulldrv.Options{
		Outputs: 1,
		Sink:    func(out []float32, _ int) { got = append(got, out...) },
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		dev.Tick()
	}()
	// the device is waiting for 32 frames
	require.Eventually(t, b.Active, time.Second, time.Millisecond)
	for range 32 {
		b.Step(frame.Frame{3}, testRate)
	}
	<-done

	require.Len(t, got, 32)
	for _, v := range got {
		assert.Equal(t, float32(1), v)
	}
}
