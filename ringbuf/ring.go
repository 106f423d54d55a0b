// Package ringbuf provides fixed-capacity circular buffers for real-time
// audio: a plain ring, a mirrored "double" ring exposing contiguous windows,
// a multi-tap variant with independent read cursors, and a reversing reader.
//
// Capacities are powers of two. Cursors are monotonically increasing uint64
// values and only their masked low bits address storage, so they never need
// explicit wrapping.
//
// None of the buffers lock or allocate after construction. They are meant to
// be owned by a single goroutine. Calling Shift on an empty buffer or
// consuming more than Size elements is a caller bug; such calls are only
// checked when built with the ringbufdebug tag.
package ringbuf

// RingBuffer is a fixed-capacity FIFO.
type RingBuffer[T any] struct {
	data  []T
	mask  uint64
	start uint64
	end   uint64
}

// New creates a RingBuffer holding at least capacity elements. The capacity
// is rounded up to the next power of two.
func New[T any](capacity int) *RingBuffer[T] {
	size := roundPow2(capacity)
	return &RingBuffer[T]{
		data: make([]T, size),
		mask: uint64(size - 1),
	}
}

// Push appends v. When the buffer is full the oldest element is overwritten.
// Callers that must not lose old data check Full first.
func (r *RingBuffer[T]) Push(v T) {
	if r.end-r.start == uint64(len(r.data)) {
		r.start++
	}
	r.data[r.end&r.mask] = v
	r.end++
}

// PushSlice appends all of src. If src is longer than the capacity only its
// last Capacity elements are kept.
func (r *RingBuffer[T]) PushSlice(src []T) {
	size := len(r.data)
	if len(src) > size {
		src = src[len(src)-size:]
	}
	n := uint64(len(src))
	i := int(r.end & r.mask)
	first := copy(r.data[i:], src)
	copy(r.data, src[first:])

	r.end += n
	if r.end-r.start > uint64(size) {
		r.start = r.end - uint64(size)
	}
}

// Shift removes and returns the oldest element. The buffer must not be empty.
func (r *RingBuffer[T]) Shift() T {
	if debug {
		assertf(r.start != r.end, "Shift on empty buffer")
	}
	v := r.data[r.start&r.mask]
	r.start++
	return v
}

// ShiftSlice removes len(dst) oldest elements into dst. len(dst) must not
// exceed Size.
func (r *RingBuffer[T]) ShiftSlice(dst []T) {
	if debug {
		assertf(uint64(len(dst)) <= r.end-r.start, "ShiftSlice of %d with size %d", len(dst), r.end-r.start)
	}
	i := int(r.start & r.mask)
	first := copy(dst, r.data[i:])
	copy(dst[first:], r.data)
	r.start += uint64(len(dst))
}

// Clear empties the buffer without touching storage.
func (r *RingBuffer[T]) Clear() { r.start = r.end }

// Empty reports whether the buffer holds no elements.
func (r *RingBuffer[T]) Empty() bool { return r.start == r.end }

// Full reports whether Size equals Capacity.
func (r *RingBuffer[T]) Full() bool { return r.end-r.start == uint64(len(r.data)) }

// Size returns the number of buffered elements.
func (r *RingBuffer[T]) Size() int { return int(r.end - r.start) }

// Capacity returns the (power of two) capacity.
func (r *RingBuffer[T]) Capacity() int { return len(r.data) }

// Free returns Capacity minus Size.
func (r *RingBuffer[T]) Free() int { return len(r.data) - int(r.end-r.start) }

// roundPow2 returns the smallest power of two >= n, and at least 1.
func roundPow2(n int) int {
	size := 1
	for size < n {
		size <<= 1
	}
	return size
}
