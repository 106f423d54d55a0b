// Package frame defines the fixed-width multichannel sample frame shared by
// the converters, the block host and the audio bridge.
package frame

import "unsafe"

// Max is the number of channels a Frame can carry.
const Max = 8

// Frame holds one sample per channel. Unused channels are zero.
type Frame [Max]float32

// Samples views a slice of frames as interleaved float32 samples with a
// stride of Max. No data is copied.
func Samples(fs []Frame) []float32 {
	if len(fs) == 0 {
		return nil
	}
	return unsafe.Slice(&fs[0][0], len(fs)*Max)
}

// Clamp limits every channel of f to [lo, hi].
func (f Frame) Clamp(lo, hi float32) Frame {
	for i, v := range f {
		f[i] = min(max(v, lo), hi)
	}
	return f
}
