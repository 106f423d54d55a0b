package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/tphakala/go-audio-delay/internal/logging"
)

const (
	bitsPerSample16 = 16
	bitsPerSample24 = 24
	bitsPerSample32 = 32

	maxInt16 = 32767.0
	maxInt24 = 8388607.0
	maxInt32 = 2147483647.0

	wavFormatPCM = 1
)

var errUnsupportedBitDepth = errors.New("unsupported bit depth")

// wavInput holds validated input file information.
type wavInput struct {
	file     *os.File
	decoder  *wav.Decoder
	rate     int
	channels int
	bitDepth int
	format   *audio.Format
}

// openWAVInput opens and validates a PCM WAV file.
func openWAVInput(path string) (*wavInput, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		_ = f.Close()
		return nil, fmt.Errorf("invalid WAV file: %s", path)
	}

	format := decoder.Format()
	bitDepth := int(decoder.BitDepth)
	if getMaxValue(bitDepth) == 0 {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %d", errUnsupportedBitDepth, bitDepth)
	}

	logging.ModCLI.WithFields(logging.Fields{
		"rate":     format.SampleRate,
		"channels": format.NumChannels,
		"bits":     bitDepth,
	}).Debugf("opened %s", path)

	return &wavInput{
		file:     f,
		decoder:  decoder,
		rate:     format.SampleRate,
		channels: format.NumChannels,
		bitDepth: bitDepth,
		format:   format,
	}, nil
}

// Close closes the input file.
func (w *wavInput) Close() error {
	return w.file.Close()
}

// readFrames decodes up to len(buf.Data)/channels frames into buf and
// returns the whole frames read. It returns 0 at the end of the data.
func (w *wavInput) readFrames(buf *audio.IntBuffer) (int, error) {
	buf.Data = buf.Data[:cap(buf.Data)]
	n, err := w.decoder.PCMBuffer(buf)
	if err != nil && !errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("failed to read audio data: %w", err)
	}
	frames := n / w.channels
	buf.Data = buf.Data[:frames*w.channels]
	return frames, nil
}

// wavOutput wraps the output file and its encoder.
type wavOutput struct {
	file    *os.File
	encoder *wav.Encoder
	format  *audio.Format
	depth   int
}

// createWAVOutput creates a PCM WAV file.
func createWAVOutput(path string, sampleRate, bitDepth, channels int) (*wavOutput, error) {
	if getMaxValue(bitDepth) == 0 {
		return nil, fmt.Errorf("%w: %d", errUnsupportedBitDepth, bitDepth)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return &wavOutput{
		file:    f,
		encoder: wav.NewEncoder(f, sampleRate, bitDepth, channels, wavFormatPCM),
		format:  &audio.Format{SampleRate: sampleRate, NumChannels: channels},
		depth:   bitDepth,
	}, nil
}

// WriteSamples writes interleaved samples.
func (w *wavOutput) WriteSamples(samples []int) error {
	return w.encoder.Write(&audio.IntBuffer{
		Format:         w.format,
		Data:           samples,
		SourceBitDepth: w.depth,
	})
}

// Close finalizes the header and closes the file.
func (w *wavOutput) Close() error {
	return errors.Join(w.encoder.Close(), w.file.Close())
}

// getMaxValue returns the full scale sample value for bitDepth, or 0 when
// the depth is not supported.
func getMaxValue(bitDepth int) float64 {
	switch bitDepth {
	case bitsPerSample16:
		return maxInt16
	case bitsPerSample24:
		return maxInt24
	case bitsPerSample32:
		return maxInt32
	default:
		return 0
	}
}

// deinterleaveInto splits interleaved int samples into per-channel buffers
// scaled to [-1, 1].
func deinterleaveInto(data []int, channelBufs [][]float32, invMaxVal float64) {
	numChannels := len(channelBufs)
	frames := len(data) / numChannels
	for i := range frames {
		base := i * numChannels
		for ch, buf := range channelBufs {
			buf[i] = float32(float64(data[base+ch]) * invMaxVal)
		}
	}
}

// interleaveInto writes frames frames of channelBufs into dst as clamped
// int samples and returns the number of samples written.
func interleaveInto(channelBufs [][]float32, frames int, dst []int, maxVal float64) int {
	numChannels := len(channelBufs)
	total := frames * numChannels
	if numChannels == 0 || len(dst) < total {
		return 0
	}
	for i := range frames {
		base := i * numChannels
		for ch, buf := range channelBufs {
			sample := min(max(float64(buf[i]), -1), 1)
			dst[base+ch] = int(sample * maxVal)
		}
	}
	return total
}

// readWAV decodes a whole file into interleaved float32 samples.
func readWAV(path string) (samples []float32, rate, channels int, err error) {
	input, err := openWAVInput(path)
	if err != nil {
		return nil, 0, 0, err
	}
	defer func() { _ = input.Close() }()

	buf, err := input.decoder.FullPCMBuffer()
	if err != nil {
		return nil, 0, 0, fmt.Errorf("failed to read audio data: %w", err)
	}
	inv := 1 / getMaxValue(input.bitDepth)
	samples = make([]float32, len(buf.Data)-len(buf.Data)%input.channels)
	for i := range samples {
		samples[i] = float32(float64(buf.Data[i]) * inv)
	}
	return samples, input.rate, input.channels, nil
}
