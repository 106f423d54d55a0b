package main

import (
	"fmt"
	"path/filepath"
	"runtime"
	"slices"
	"time"

	"github.com/go-audio/audio"
	"golang.org/x/sync/errgroup"

	delay "github.com/tphakala/go-audio-delay"
	"github.com/tphakala/go-audio-delay/internal/logging"
)

// renderChunk is the number of frames decoded, processed and written at a
// time.
const renderChunk = 1 << 14

type Render struct {
	Line delayFlags `embed:""`

	Input  string `arg:"" name:"input" help:"Input WAV file." type:"existingfile"`
	Output string `arg:"" name:"output" help:"Output WAV file." type:"path"`

	Taps    []float64 `help:"Tap delays in seconds; selects the multi-tap line." placeholder:"SECONDS,..."`
	Reverse bool      `help:"Reverse the input in windows of the longest tap (multi-tap only)."`
	Tail    float64   `help:"Seconds of silence appended so echoes ring out." default:"${render_tail}"`
}

type renderStats struct {
	rate     int
	channels int
	bitDepth int
	frames   int64
	tail     int64
}

func (r *Render) Run() error {
	start := time.Now()
	stats, err := r.render()
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	fmt.Printf("Rendered %s -> %s\n", filepath.Base(r.Input), filepath.Base(r.Output))
	fmt.Printf("  %d Hz, %d channels, %d-bit\n", stats.rate, stats.channels, stats.bitDepth)
	fmt.Printf("  %d frames + %d tail frames\n", stats.frames, stats.tail)
	fmt.Printf("  Duration: %.2fs, Speed: %.1fx realtime\n",
		elapsed.Seconds(),
		float64(stats.frames+stats.tail)/float64(stats.rate)/elapsed.Seconds())
	return nil
}

func (r *Render) render() (stats *renderStats, err error) {
	input, err := openWAVInput(r.Input)
	if err != nil {
		return nil, err
	}
	defer func() { _ = input.Close() }()

	rate := float64(input.rate)
	procs, err := newChannelProcessors(&r.Line, r.Taps, r.Reverse, input.channels, rate)
	if err != nil {
		return nil, err
	}

	output, err := createWAVOutput(r.Output, input.rate, input.bitDepth, input.channels)
	if err != nil {
		return nil, err
	}
	// the header is only complete once the encoder is closed
	defer func() {
		if closeErr := output.Close(); err == nil {
			err = closeErr
		}
	}()

	bufs := newRenderBuffers(input.channels, input.bitDepth, input.format)
	stats = &renderStats{rate: input.rate, channels: input.channels, bitDepth: input.bitDepth}

	for {
		frames, err := input.readFrames(bufs.in)
		if err != nil {
			return nil, err
		}
		if frames == 0 {
			break
		}
		deinterleaveInto(bufs.in.Data, bufs.dry, bufs.invMaxVal)
		if err := bufs.flush(procs, frames, output); err != nil {
			return nil, err
		}
		stats.frames += int64(frames)
	}

	for _, dry := range bufs.dry {
		clear(dry)
	}
	for remaining := int64(r.Tail * rate); remaining > 0; {
		frames := int(min(remaining, renderChunk))
		if err := bufs.flush(procs, frames, output); err != nil {
			return nil, err
		}
		remaining -= int64(frames)
		stats.tail += int64(frames)
	}

	logging.ModCLI.WithField("frames", stats.frames).Debugf("rendered %s", r.Output)
	return stats, nil
}

// channelProcessor runs one channel of a render.
type channelProcessor interface {
	Process(dst, src []float32)
}

type lineProcessor struct {
	line  *delay.Line
	delay float64
	rate  float64
}

func (p *lineProcessor) Process(dst, src []float32) { p.line.Process(dst, src, p.delay, p.rate) }

type multiTapProcessor struct {
	mt   *delay.MultiTap
	rate float64
}

func (p *multiTapProcessor) Process(dst, src []float32) {
	for i, x := range src[:min(len(src), len(dst))] {
		dst[i] = p.mt.Process(x, p.rate)
	}
}

// newChannelProcessors builds one independent delay per channel: a Line,
// or a MultiTap when taps are given.
func newChannelProcessors(f *delayFlags, taps []float64, reverse bool, channels int, rate float64) ([]channelProcessor, error) {
	longest := slices.Max(append([]float64{f.Delay}, taps...))
	cfg, err := f.config(longest)
	if err != nil {
		return nil, err
	}
	cfg.HistoryFrames = max(cfg.HistoryFrames, int(cfg.MaxDelay*rate)+1)

	procs := make([]channelProcessor, channels)
	for ch := range procs {
		if len(taps) == 0 {
			line, err := delay.NewLine(cfg)
			if err != nil {
				return nil, err
			}
			procs[ch] = &lineProcessor{line: line, delay: f.Delay, rate: rate}
			continue
		}

		mcfg := delay.MultiTapConfig{
			Config:      cfg,
			Taps:        len(taps),
			FeedbackTap: delay.FeedbackSum,
			Reverse:     reverse,
		}
		mt, err := delay.NewMultiTap(mcfg)
		if err != nil {
			return nil, err
		}
		level := 1 / float64(len(taps))
		for k, d := range taps {
			if err := mt.SetTap(k, d, level); err != nil {
				return nil, err
			}
		}
		procs[ch] = &multiTapProcessor{mt: mt, rate: rate}
	}
	return procs, nil
}

// renderBuffers holds the preallocated buffers of a render.
type renderBuffers struct {
	in        *audio.IntBuffer
	dry, wet  [][]float32
	out       []int
	invMaxVal float64
	maxVal    float64
}

func newRenderBuffers(channels, bitDepth int, format *audio.Format) *renderBuffers {
	b := &renderBuffers{
		in: &audio.IntBuffer{
			Data:           make([]int, renderChunk*channels),
			Format:         format,
			SourceBitDepth: bitDepth,
		},
		dry:    make([][]float32, channels),
		wet:    make([][]float32, channels),
		out:    make([]int, renderChunk*channels),
		maxVal: getMaxValue(bitDepth),
	}
	b.invMaxVal = 1 / b.maxVal
	for ch := range channels {
		b.dry[ch] = make([]float32, renderChunk)
		b.wet[ch] = make([]float32, renderChunk)
	}
	return b
}

// flush processes frames frames of dry, one goroutine per channel, and
// writes the result.
func (b *renderBuffers) flush(procs []channelProcessor, frames int, out *wavOutput) error {
	if err := processChannels(procs, b.dry, b.wet, frames); err != nil {
		return err
	}
	n := interleaveInto(b.wet, frames, b.out, b.maxVal)
	if err := out.WriteSamples(b.out[:n]); err != nil {
		return fmt.Errorf("failed to write audio data: %w", err)
	}
	return nil
}

func processChannels(procs []channelProcessor, dry, wet [][]float32, frames int) error {
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for ch, p := range procs {
		g.Go(func() error {
			p.Process(wet[ch][:frames], dry[ch][:frames])
			return nil
		})
	}
	return g.Wait()
}
