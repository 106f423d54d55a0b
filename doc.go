// Package delay implements real-time delay lines that follow a continuously
// changing delay time by re-timing their history with a streaming sample
// rate converter.
//
// A [Line] pushes one dry sample per call into a long history buffer and
// drains one wet sample per call from a short output FIFO. Whenever that
// FIFO runs dry it is refilled from the oldest history frames, converted at
// a ratio chosen from how far the buffered length has drifted from the
// requested delay. The refill touches at most a few frames, so the per
// sample cost stays flat and nothing allocates after construction.
//
// # Quick Start
//
//	line, err := delay.NewLine(delay.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for i, x := range input {
//	    output[i] = line.ProcessSample(x, 0.25, 48000)
//	}
//
// # Correction Modes
//
//   - [ModeStepped] converts at 0.5, 1 or 2 times the engine rate once the
//     drift exceeds [Config.Threshold] frames. Delay time changes glide.
//   - [ModeDirect] never resamples; it drops or holds history frames so the
//     output is exactly the input delayed by a whole number of frames.
//
// # Other Building Blocks
//
//   - [MultiTap] reads several delay times from one shared history.
//   - [Converter] is the streaming converter on its own, for interleaved
//     buffers or [Frame] slices.
//   - [BlockHost] runs a fixed-block processor at its own sample rate inside
//     a per-sample loop.
//   - [ConvertChannels] converts whole planar buffers offline.
//
// The ring buffers behind all of these live in package ringbuf; the audio
// device layer lives in package audio.
//
// # Thread Safety
//
// Nothing in this package is safe for concurrent use. Each Line, MultiTap,
// Converter and BlockHost belongs to one audio goroutine.
package delay
