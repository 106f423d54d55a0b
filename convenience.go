package delay

import (
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"
)

// ConvertMono converts a whole mono signal in one call. The converter delay
// is compensated: the result starts at the first input frame and holds
// ceil(len(input)·outRate/inRate) frames.
func ConvertMono(input []float32, inRate, outRate float64, quality int) ([]float32, error) {
	c, err := NewConverter(1, WithQuality(quality), WithRates(inRate, outRate))
	if err != nil {
		return nil, err
	}
	if len(input) == 0 {
		return []float32{}, nil
	}
	if c.Bypassed() {
		out := make([]float32, len(input))
		copy(out, input)
		return out, nil
	}

	in, out := c.Rates()
	ratio := out / in
	latency := c.Latency()

	padded := make([]float32, len(input)+latency)
	copy(padded, input)

	room := int(math.Ceil(float64(len(padded))*ratio)) + outputSlack
	buf := make([]float32, room)

	var pos, n int
	for pos < len(padded) && n < room {
		consumed, produced := c.Process(padded[pos:], len(padded)-pos, buf[n:], room-n)
		if consumed == 0 && produced == 0 {
			break
		}
		pos += consumed
		n += produced
	}

	skip := min(int(math.Round(float64(latency)*ratio)), n)
	want := int(math.Ceil(float64(len(input)) * ratio))
	result := make([]float32, want)
	copy(result, buf[skip:n])
	return result, nil
}

// ConvertChannels converts each channel with ConvertMono, one goroutine per
// channel. All channels must have the same length.
func ConvertChannels(channels [][]float32, inRate, outRate float64, quality int) ([][]float32, error) {
	if len(channels) == 0 {
		return nil, fmt.Errorf("%w: no channels", ErrInvalidChannels)
	}
	for ch := range channels {
		if len(channels[ch]) != len(channels[0]) {
			return nil, fmt.Errorf("%w: channel %d has %d frames, want %d",
				ErrInvalidChannels, ch, len(channels[ch]), len(channels[0]))
		}
	}

	output := make([][]float32, len(channels))
	var g errgroup.Group
	for ch := range channels {
		g.Go(func() error {
			out, err := ConvertMono(channels[ch], inRate, outRate, quality)
			if err != nil {
				return fmt.Errorf("channel %d: %w", ch, err)
			}
			output[ch] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return output, nil
}

// Interleave merges planar channels into one interleaved buffer, truncated
// to the shortest channel.
// Output format: [c0[0], c1[0], ..., c0[1], c1[1], ...]
func Interleave(channels [][]float32) []float32 {
	if len(channels) == 0 {
		return nil
	}
	frames := len(channels[0])
	for _, c := range channels[1:] {
		frames = min(frames, len(c))
	}
	n := len(channels)
	out := make([]float32, frames*n)
	for i := range frames {
		for ch, c := range channels {
			out[i*n+ch] = c[i]
		}
	}
	return out
}

// Deinterleave splits an interleaved buffer into planar channels. A trailing
// partial frame is dropped.
func Deinterleave(interleaved []float32, channels int) [][]float32 {
	if channels < 1 {
		return nil
	}
	frames := len(interleaved) / channels
	out := make([][]float32, channels)
	for ch := range out {
		out[ch] = make([]float32, frames)
		for i := range frames {
			out[ch][i] = interleaved[i*channels+ch]
		}
	}
	return out
}
