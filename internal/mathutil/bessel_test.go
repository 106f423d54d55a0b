package mathutil

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tphakala/go-audio-delay/internal/testutil"
)

// i0Series sums the power series of I0 directly, slow but exact enough as a
// reference.
func i0Series(x float64) float64 {
	sum, term := 1.0, 1.0
	q := x * x / 4
	for k := 1; k < 200; k++ {
		term *= q / float64(k*k)
		sum += term
		if term < sum*1e-17 {
			break
		}
	}
	return sum
}

func TestBesselI0MatchesSeries(t *testing.T) {
	// both sides of the 3.75 switch between approximations
	for _, x := range []float64{0, 0.25, 1, 2.5, 3.7499, 3.75, 4, 6, 8.6, 12, 20} {
		testutil.AssertRelativeError(t, i0Series(x), BesselI0(x), 1e-6, "x=%g", x)
		assert.InDelta(t, BesselI0(x), BesselI0(-x), 0, "I0 is even at x=%g", x)
	}
}

func TestBesselI0Increasing(t *testing.T) {
	prev := BesselI0(0)
	assert.InDelta(t, 1.0, prev, 1e-15)
	for x := 0.05; x < 15; x += 0.05 {
		v := BesselI0(x)
		assert.Greater(t, v, prev, "x=%g", x)
		prev = v
	}
}

func TestKaiserBeta(t *testing.T) {
	tests := []struct {
		att    float64
		lo, hi float64
	}{
		{att: 10, lo: 0, hi: 0},
		{att: 21, lo: 0, hi: 0},
		{att: 40, lo: 3.39, hi: 3.40},
		{att: 50, lo: 4.53, hi: 4.54},
		{att: 70, lo: 6.75, hi: 6.76},
		{att: 100, lo: 10.06, hi: 10.07},
		{att: 140, lo: 14.46, hi: 14.47},
	}
	for _, tt := range tests {
		testutil.AssertInRange(t, KaiserBeta(tt.att), tt.lo, tt.hi, "att=%g", tt.att)
	}
}

func BenchmarkBesselI0(b *testing.B) {
	for b.Loop() {
		_ = BesselI0(7.5)
	}
}
