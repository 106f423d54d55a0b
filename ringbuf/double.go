package ringbuf

// DoubleRingBuffer is a ring buffer whose storage is twice its capacity.
// Every element lives at index i and i+Capacity, so the readable and
// writable regions are always available as single contiguous slices. This
// lets resamplers read from and write into the buffer directly.
type DoubleRingBuffer[T any] struct {
	data  []T // 2*size
	size  uint64
	mask  uint64
	start uint64
	end   uint64
}

// NewDouble creates a DoubleRingBuffer holding at least capacity elements,
// rounded up to a power of two.
func NewDouble[T any](capacity int) *DoubleRingBuffer[T] {
	size := roundPow2(capacity)
	return &DoubleRingBuffer[T]{
		data: make([]T, 2*size),
		size: uint64(size),
		mask: uint64(size - 1),
	}
}

// Push appends v, overwriting the oldest element when full.
func (r *DoubleRingBuffer[T]) Push(v T) {
	if r.end-r.start == r.size {
		r.start++
	}
	i := r.end & r.mask
	r.data[i] = v
	r.data[i+r.size] = v
	r.end++
}

// PushSlice appends src through EndData/EndIncr. Only the last Capacity
// elements of an oversized src are kept.
func (r *DoubleRingBuffer[T]) PushSlice(src []T) {
	if len(src) > int(r.size) {
		src = src[len(src)-int(r.size):]
	}
	if free := r.Free(); len(src) > free {
		// make room by dropping the oldest elements
		r.start += uint64(len(src) - free)
	}
	n := copy(r.EndData(), src)
	r.EndIncr(n)
}

// Shift removes and returns the oldest element. The buffer must not be empty.
func (r *DoubleRingBuffer[T]) Shift() T {
	if debug {
		assertf(r.start != r.end, "Shift on empty buffer")
	}
	v := r.data[r.start&r.mask]
	r.start++
	return v
}

// ShiftSlice removes len(dst) oldest elements into dst.
func (r *DoubleRingBuffer[T]) ShiftSlice(dst []T) {
	n := copy(dst, r.StartData())
	if debug {
		assertf(n == len(dst), "ShiftSlice of %d with size %d", len(dst), n)
	}
	r.start += uint64(n)
}

// EndData returns the writable region, Free elements long. The slice is
// only valid until the next call on the buffer; commit writes with EndIncr.
func (r *DoubleRingBuffer[T]) EndData() []T {
	i := r.end & r.mask
	return r.data[i : i+r.size-(r.end-r.start)]
}

// EndIncr commits n elements written through EndData and refreshes the
// mirrored half.
func (r *DoubleRingBuffer[T]) EndIncr(n int) {
	if debug {
		assertf(n >= 0 && n <= r.Free(), "EndIncr(%d) with %d free", n, r.Free())
	}
	e := int(r.end & r.mask)
	e1 := e + n
	size := int(r.size)
	e2 := min(e1, size)
	// primary -> shadow
	copy(r.data[size+e:size+e2], r.data[e:e2])
	if e1 > size {
		// the write ran into the shadow half, mirror it back to the front
		copy(r.data[:e1-size], r.data[size:e1])
	}
	r.end += uint64(n)
}

// StartData returns the Size oldest elements as one contiguous slice.
func (r *DoubleRingBuffer[T]) StartData() []T {
	i := r.start & r.mask
	return r.data[i : i+(r.end-r.start)]
}

// StartIncr drops the n oldest elements.
func (r *DoubleRingBuffer[T]) StartIncr(n int) {
	if debug {
		assertf(n >= 0 && uint64(n) <= r.end-r.start, "StartIncr(%d) with size %d", n, r.end-r.start)
	}
	r.start += uint64(n)
}

// Clear empties the buffer.
func (r *DoubleRingBuffer[T]) Clear() { r.start = r.end }

// Empty reports whether the buffer holds no elements.
func (r *DoubleRingBuffer[T]) Empty() bool { return r.start == r.end }

// Full reports whether Size equals Capacity.
func (r *DoubleRingBuffer[T]) Full() bool { return r.end-r.start == r.size }

// Size returns the number of buffered elements.
func (r *DoubleRingBuffer[T]) Size() int { return int(r.end - r.start) }

// Capacity returns the power of two capacity.
func (r *DoubleRingBuffer[T]) Capacity() int { return int(r.size) }

// Free returns the number of elements EndData can accept.
func (r *DoubleRingBuffer[T]) Free() int { return int(r.size - (r.end - r.start)) }
