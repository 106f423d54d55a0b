package ringbuf

// MultiTapDoubleRingBuffer is a DoubleRingBuffer with several independent
// read cursors ("taps") over one shared write history. Each tap has its own
// size and fill level; writes are shared.
type MultiTapDoubleRingBuffer[T any] struct {
	data   []T
	size   uint64
	mask   uint64
	starts []uint64
	end    uint64
}

// NewMultiTap creates a buffer of at least capacity elements (rounded up to
// a power of two) with the given number of taps. taps below 1 is treated as 1.
func NewMultiTap[T any](capacity, taps int) *MultiTapDoubleRingBuffer[T] {
	size := roundPow2(capacity)
	return &MultiTapDoubleRingBuffer[T]{
		data:   make([]T, 2*size),
		size:   uint64(size),
		mask:   uint64(size - 1),
		starts: make([]uint64, max(taps, 1)),
	}
}

// Taps returns the number of read cursors.
func (r *MultiTapDoubleRingBuffer[T]) Taps() int { return len(r.starts) }

// Push appends v to the shared history. Taps that are full lose their oldest
// element.
func (r *MultiTapDoubleRingBuffer[T]) Push(v T) {
	for k, s := range r.starts {
		if r.end-s == r.size {
			r.starts[k] = s + 1
		}
	}
	i := r.end & r.mask
	r.data[i] = v
	r.data[i+r.size] = v
	r.end++
}

// EndData returns the writable region. Its length is the free space of the
// fullest tap.
func (r *MultiTapDoubleRingBuffer[T]) EndData() []T {
	i := r.end & r.mask
	return r.data[i : i+uint64(r.Free())]
}

// EndIncr commits n elements written through EndData.
func (r *MultiTapDoubleRingBuffer[T]) EndIncr(n int) {
	if debug {
		assertf(n >= 0 && n <= r.Free(), "EndIncr(%d) with %d free", n, r.Free())
	}
	e := int(r.end & r.mask)
	e1 := e + n
	size := int(r.size)
	e2 := min(e1, size)
	copy(r.data[size+e:size+e2], r.data[e:e2])
	if e1 > size {
		copy(r.data[:e1-size], r.data[size:e1])
	}
	r.end += uint64(n)
}

// Free returns how many elements can be written before any tap overflows.
func (r *MultiTapDoubleRingBuffer[T]) Free() int {
	largest := uint64(0)
	for _, s := range r.starts {
		largest = max(largest, r.end-s)
	}
	return int(r.size - largest)
}

// Full reports whether any tap is full.
func (r *MultiTapDoubleRingBuffer[T]) Full() bool {
	for _, s := range r.starts {
		if r.end-s == r.size {
			return true
		}
	}
	return false
}

// Capacity returns the power of two capacity.
func (r *MultiTapDoubleRingBuffer[T]) Capacity() int { return int(r.size) }

// Clear empties every tap.
func (r *MultiTapDoubleRingBuffer[T]) Clear() {
	for k := range r.starts {
		r.starts[k] = r.end
	}
}

// ClearTap empties a single tap.
func (r *MultiTapDoubleRingBuffer[T]) ClearTap(tap int) { r.starts[tap] = r.end }

// Size returns the number of elements readable from tap.
func (r *MultiTapDoubleRingBuffer[T]) Size(tap int) int { return int(r.end - r.starts[tap]) }

// Empty reports whether tap has nothing to read.
func (r *MultiTapDoubleRingBuffer[T]) Empty(tap int) bool { return r.end == r.starts[tap] }

// FullTap reports whether tap holds Capacity elements.
func (r *MultiTapDoubleRingBuffer[T]) FullTap(tap int) bool { return r.end-r.starts[tap] == r.size }

// StartData returns the readable elements of tap as one contiguous slice.
func (r *MultiTapDoubleRingBuffer[T]) StartData(tap int) []T {
	s := r.starts[tap]
	i := s & r.mask
	return r.data[i : i+(r.end-s)]
}

// StartIncr consumes n elements from tap only.
func (r *MultiTapDoubleRingBuffer[T]) StartIncr(tap, n int) {
	if debug {
		assertf(n >= 0 && n <= r.Size(tap), "StartIncr(%d, %d) with size %d", tap, n, r.Size(tap))
	}
	r.starts[tap] += uint64(n)
}

// Shift removes and returns the oldest element of tap. The tap must not be
// empty.
func (r *MultiTapDoubleRingBuffer[T]) Shift(tap int) T {
	if debug {
		assertf(!r.Empty(tap), "Shift on empty tap %d", tap)
	}
	s := r.starts[tap]
	r.starts[tap] = s + 1
	return r.data[s&r.mask]
}
