package filter

import (
	"errors"
	"fmt"

	"github.com/tphakala/go-audio-delay/internal/mathutil"
	"github.com/tphakala/go-audio-delay/internal/simdops"
)

// Errors returned by KernelBank design.
var (
	ErrInvalidBankParams = errors.New("invalid kernel bank parameters")
	ErrBankTooSmall      = errors.New("kernel bank storage too small")
)

// BankParams describes one windowed-sinc interpolation kernel set.
type BankParams struct {
	// Taps is the kernel length in input samples. Must be even.
	Taps int
	// Oversample is the number of kernel phases per input sample.
	Oversample int
	// Cutoff is the passband edge as a fraction of the input Nyquist, (0, 1].
	Cutoff float64
	// Beta is the Kaiser window parameter.
	Beta float64
}

// Validate checks the parameters.
func (p BankParams) Validate() error {
	if p.Taps < minBankTaps || p.Taps%2 != 0 {
		return fmt.Errorf("%w: taps %d must be even and >= %d", ErrInvalidBankParams, p.Taps, minBankTaps)
	}
	if p.Oversample < 1 {
		return fmt.Errorf("%w: oversample %d", ErrInvalidBankParams, p.Oversample)
	}
	if p.Cutoff <= 0 || p.Cutoff > 1 {
		return fmt.Errorf("%w: cutoff %g outside (0, 1]", ErrInvalidBankParams, p.Cutoff)
	}
	if p.Beta < 0 {
		return fmt.Errorf("%w: beta %g", ErrInvalidBankParams, p.Beta)
	}
	return nil
}

// Phases returns the number of stored kernels: Oversample+1 phases plus one
// guard phase on each side for cubic interpolation between phases.
func (p BankParams) Phases() int { return p.Oversample + guardPhases }

// KernelBank stores Phases() kernels of Taps coefficients each, phase-major,
// so every kernel is a contiguous slice ready for a SIMD dot product.
//
// Kernel q (q from -1 to Oversample+1) holds the prototype sampled at
// x = j + 1 - Taps/2 - q/Oversample for j in [0, Taps).
type KernelBank[F simdops.Float] struct {
	params BankParams
	coeffs []F
}

// NewKernelBank preallocates storage for kernels up to maxTaps long with up
// to maxOversample phases. Design never allocates within those limits.
func NewKernelBank[F simdops.Float](maxTaps, maxOversample int) *KernelBank[F] {
	return &KernelBank[F]{
		coeffs: make([]F, maxTaps*(maxOversample+guardPhases)),
	}
}

// Design fills the bank for p.
func (b *KernelBank[F]) Design(p BankParams) error {
	if err := p.Validate(); err != nil {
		return err
	}
	need := p.Taps * p.Phases()
	if need > len(b.coeffs) {
		return fmt.Errorf("%w: need %d coefficients, have %d", ErrBankTooSmall, need, len(b.coeffs))
	}

	i0Beta := mathutil.BesselI0(p.Beta)
	os := float64(p.Oversample)
	center := float64(p.Taps)/2 - 1
	for q := -1; q <= p.Oversample+1; q++ {
		kernel := b.coeffs[(q+1)*p.Taps : (q+2)*p.Taps]
		frac := float64(q) / os
		for j := range kernel {
			kernel[j] = F(WindowedSinc(float64(j)-center-frac, p.Cutoff, p.Taps, p.Beta, i0Beta))
		}
	}
	b.params = p
	return nil
}

// Params returns the parameters of the last successful Design.
func (b *KernelBank[F]) Params() BankParams { return b.params }

// Phase returns kernel q, -1 <= q <= Oversample+1.
func (b *KernelBank[F]) Phase(q int) []F {
	taps := b.params.Taps
	return b.coeffs[(q+1)*taps : (q+2)*taps]
}

// DCGain returns the coefficient sum of kernel q.
func (b *KernelBank[F]) DCGain(q int) float64 {
	return float64(simdops.For[F]().Sum(b.Phase(q)))
}

// Capacity returns the number of coefficients the bank can hold.
func (b *KernelBank[F]) Capacity() int { return len(b.coeffs) }

// Prototype returns the continuous kernel sampled Oversample times per input
// sample, as float64. Used for analysis, allocates.
func (b *KernelBank[F]) Prototype() []float64 {
	p := b.params
	n := p.Taps*p.Oversample + 1
	out := make([]float64, n)
	i0Beta := mathutil.BesselI0(p.Beta)
	half := float64(p.Taps) / 2
	for k := range out {
		x := float64(k)/float64(p.Oversample) - half
		out[k] = WindowedSinc(x, p.Cutoff, p.Taps, p.Beta, i0Beta)
	}
	return out
}
