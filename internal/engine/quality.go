package engine

import (
	"errors"
	"fmt"

	"github.com/tphakala/go-audio-delay/internal/filter"
	"github.com/tphakala/go-audio-delay/internal/mathutil"
)

// Errors returned by the converter.
var (
	ErrInvalidChannels = errors.New("invalid channel count")
	ErrInvalidQuality  = errors.New("invalid quality")
)

// Quality selects kernel length, phase resolution and bandwidth. Levels run
// from QualityMin (cheapest) to QualityMax.
type Quality int

const (
	QualityMin     Quality = 0
	QualityDefault Quality = 4
	QualityMax     Quality = 10
)

// Valid reports whether q is a known level.
func (q Quality) Valid() bool { return q >= QualityMin && q <= QualityMax }

func (q Quality) String() string { return fmt.Sprintf("Q%d", int(q)) }

// qualityRow is one row of the quality table.
type qualityRow struct {
	baseTaps   int     // kernel length at unity or upsampling ratios
	oversample int     // kernel phases per input sample
	downBW     float64 // passband edge when downsampling, fraction of output Nyquist
	upBW       float64 // passband edge when upsampling, fraction of input Nyquist
	stopDB     float64 // stopband attenuation, sets the Kaiser window
}

var qualityTable = [...]qualityRow{
	{8, 4, 0.830, 0.860, 63},
	{16, 4, 0.850, 0.880, 63},
	{32, 4, 0.882, 0.910, 63},
	{48, 8, 0.895, 0.917, 81},
	{64, 8, 0.921, 0.940, 81},
	{80, 16, 0.922, 0.940, 99},
	{96, 16, 0.940, 0.945, 99},
	{128, 16, 0.950, 0.950, 99},
	{160, 16, 0.960, 0.960, 99},
	{192, 32, 0.968, 0.968, 117},
	{256, 32, 0.975, 0.975, 117},
}

func (q Quality) row() qualityRow { return qualityTable[q] }

// maxTaps is the longest kernel q ever designs. Downsampling stretches the
// kernel by the ratio, capped at maxStretch.
func (q Quality) maxTaps() int { return q.row().baseTaps * maxStretch }

// BankParams returns the kernel q designs for the reduced ratio num/den
// (input/output). Downsampling lowers the cutoff below the output Nyquist
// and stretches the kernel to match, trading phase resolution for length.
func (q Quality) BankParams(num, den int) filter.BankParams {
	s := q.row()
	p := filter.BankParams{
		Taps:       s.baseTaps,
		Oversample: s.oversample,
		Cutoff:     s.upBW,
		Beta:       mathutil.KaiserBeta(s.stopDB),
	}
	if num <= den {
		return p
	}

	p.Cutoff = s.downBW * float64(den) / float64(num)
	taps := (s.baseTaps*num + den - 1) / den
	taps = (taps + tapAlign - 1) / tapAlign * tapAlign
	p.Taps = min(taps, q.maxTaps())
	for _, factor := range [...]int{2, 4, 8, 16} {
		if factor*den < num {
			p.Oversample >>= 1
		}
	}
	p.Oversample = max(p.Oversample, 1)
	return p
}
