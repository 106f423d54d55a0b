package main

import (
	"fmt"
	"io"
	"math"
	"os"
	"text/tabwriter"

	"github.com/tphakala/go-audio-delay/internal/engine"
	"github.com/tphakala/go-audio-delay/internal/filter"
	"github.com/tphakala/go-audio-delay/internal/mathutil"
)

const (
	// passbandShare is the part of the cutoff over which ripple is measured.
	passbandShare = 0.8

	halfPowerDB = -3.0103
)

type Analyze struct {
	Quality int     `help:"Quality level to analyze, -1 for all." default:"-1"`
	InRate  float64 `help:"Input sample rate in Hz." default:"44100"`
	OutRate float64 `help:"Output sample rate in Hz." default:"48000"`
	Points  int     `help:"Frequency response points." default:"8192"`
}

// kernelReport summarizes one converter kernel. Frequencies are fractions
// of the input Nyquist frequency.
type kernelReport struct {
	quality    int
	taps       int
	oversample int
	cutoff     float64
	halfPower  float64
	rippleDB   float64
	stopEdge   float64
	stopbandDB float64
}

func (a *Analyze) Run() error {
	return a.write(os.Stdout)
}

func (a *Analyze) write(out io.Writer) error {
	num, den, ok := mathutil.ReduceRates(a.InRate, a.OutRate)
	if !ok {
		return fmt.Errorf("invalid rates %g -> %g", a.InRate, a.OutRate)
	}
	lo, hi := int(engine.QualityMin), int(engine.QualityMax)
	if a.Quality >= 0 {
		lo, hi = a.Quality, a.Quality
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(w, "%g Hz -> %g Hz (%d/%d)\n", a.InRate, a.OutRate, num, den)
	fmt.Fprintln(w, "Q\tTAPS\tPHASES\tCUTOFF\t-3 dB\tRIPPLE dB\tSTOP FROM\tSTOP dB\t")
	for q := lo; q <= hi; q++ {
		r, err := analyzeKernel(engine.Quality(q), num, den, a.Points)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%d\t%d\t%d\t%.3f\t%.3f\t%.4f\t%.3f\t%.1f\t\n",
			r.quality, r.taps, r.oversample, r.cutoff, r.halfPower, r.rippleDB, r.stopEdge, r.stopbandDB)
	}
	return w.Flush()
}

// analyzeKernel designs the kernel q uses for num/den and measures its
// prototype response. The stopband starts where components would alias
// back into the passband.
func analyzeKernel(q engine.Quality, num, den, points int) (kernelReport, error) {
	if !q.Valid() {
		return kernelReport{}, fmt.Errorf("%w: %d", engine.ErrInvalidQuality, q)
	}
	p := q.BankParams(num, den)
	bank := filter.NewKernelBank[float64](p.Taps, p.Oversample)
	if err := bank.Design(p); err != nil {
		return kernelReport{}, err
	}
	resp := filter.ComputeFrequencyResponse(bank.Prototype(), points)

	nyquist := min(1, float64(den)/float64(num))
	r := kernelReport{
		quality:    int(q),
		taps:       p.Taps,
		oversample: p.Oversample,
		cutoff:     p.Cutoff,
		stopEdge:   2*nyquist - p.Cutoff,
		stopbandDB: math.Inf(-1),
	}

	dc := resp.Magnitude[0]
	var lowDB, highDB float64
	for k, f := range resp.Frequencies {
		f *= 2 * float64(p.Oversample)
		db := filter.MagnitudeDB(resp.Magnitude[k] / dc)
		switch {
		case f <= passbandShare*p.Cutoff:
			lowDB, highDB = min(lowDB, db), max(highDB, db)
		case f >= r.stopEdge:
			r.stopbandDB = max(r.stopbandDB, db)
		}
		if r.halfPower == 0 && db < halfPowerDB {
			r.halfPower = f
		}
	}
	r.rippleDB = highDB - lowDB
	return r, nil
}
