package ringbuf

import (
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// DoubleRingBuffer
// =============================================================================

// TestDoubleRingBuffer_MirrorConsistency mixes single pushes, bulk writes
// through EndData/EndIncr and bulk consumption, comparing StartData against
// a plain slice model after every operation.
func TestDoubleRingBuffer_MirrorConsistency(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	r := NewDouble[int](16)
	var model []int
	next := 0

	for step := range 5000 {
		switch rng.IntN(3) {
		case 0:
			if !r.Full() {
				r.Push(next)
				model = append(model, next)
				next++
			}
		case 1:
			w := r.EndData()
			require.Len(t, w, r.Free())
			n := rng.IntN(len(w) + 1)
			for i := range n {
				w[i] = next
				model = append(model, next)
				next++
			}
			r.EndIncr(n)
		case 2:
			n := rng.IntN(r.Size() + 1)
			r.StartIncr(n)
			model = model[n:]
		}

		require.Equal(t, len(model), r.Size(), "step %d", step)
		if diff := cmp.Diff(model, r.StartData(), cmpopts.EquateEmpty()); diff != "" {
			t.Fatalf("step %d: StartData mismatch (-model +buffer):\n%s", step, diff)
		}
	}
}

// TestDoubleRingBuffer_WindowAcrossBoundary places a full window so that it
// straddles the end of the primary half.
func TestDoubleRingBuffer_WindowAcrossBoundary(t *testing.T) {
	r := NewDouble[float32](8)
	for i := range 5 {
		r.Push(float32(i))
	}
	r.StartIncr(5)

	w := r.EndData()
	require.Len(t, w, 8)
	for i := range w {
		w[i] = float32(100 + i)
	}
	r.EndIncr(len(w))

	assert.True(t, r.Full())
	assert.Equal(t, []float32{100, 101, 102, 103, 104, 105, 106, 107}, r.StartData())

	// the mirrored front must match what a later window reads without wrap
	r.StartIncr(3)
	for i := range 3 {
		r.Push(float32(200 + i))
	}
	assert.Equal(t, []float32{103, 104, 105, 106, 107, 200, 201, 202}, r.StartData())
}

func TestDoubleRingBuffer_ShiftAndShiftSlice(t *testing.T) {
	r := NewDouble[int](4)
	r.PushSlice([]int{1, 2, 3})
	assert.Equal(t, 1, r.Shift())

	dst := make([]int, 2)
	r.ShiftSlice(dst)
	assert.Equal(t, []int{2, 3}, dst)
	assert.True(t, r.Empty())
}

func TestDoubleRingBuffer_OverflowPolicy(t *testing.T) {
	r := NewDouble[int](16)
	const pushes = 50
	for i := range pushes {
		r.Push(i)
	}
	assert.Equal(t, r.Capacity(), r.Size())
	assert.Equal(t, pushes-r.Capacity(), r.StartData()[0])
	assert.Equal(t, pushes-1, r.StartData()[r.Size()-1])
	assert.Equal(t, 0, r.Free())
	assert.Empty(t, r.EndData())
}

func TestDoubleRingBuffer_PushSliceDropsOldest(t *testing.T) {
	r := NewDouble[int](4)
	r.PushSlice([]int{1, 2, 3})
	r.PushSlice([]int{4, 5})
	assert.Equal(t, []int{2, 3, 4, 5}, r.StartData())
}

func TestDoubleRingBuffer_ZeroLengthOps(t *testing.T) {
	r := NewDouble[int](4)
	r.EndIncr(0)
	r.StartIncr(0)
	assert.True(t, r.Empty())
	assert.Empty(t, r.StartData())
	assert.Len(t, r.EndData(), 4)
}

func BenchmarkDoubleRingBuffer_BlockWrite(b *testing.B) {
	r := NewDouble[float32](1 << 12)
	b.ReportAllocs()
	for b.Loop() {
		w := r.EndData()
		n := min(len(w), 16)
		for j := range n {
			w[j] = float32(j)
		}
		r.EndIncr(n)
		r.StartIncr(min(r.Size(), 16))
	}
}
