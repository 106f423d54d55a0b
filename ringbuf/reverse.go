package ringbuf

// ReverseRingBuffer records a stream and plays it back in reversed windows:
// each window starts at the newest sample and walks backwards for Window
// samples, then jumps to whatever is newest at that point.
type ReverseRingBuffer[T any] struct {
	data      []T
	mask      uint64
	end       uint64
	filled    uint64 // samples pushed since Clear, capped at capacity
	read      uint64
	remaining uint64
	window    uint64
}

// NewReverse creates a ReverseRingBuffer of at least capacity samples. The
// window starts at the full capacity.
func NewReverse[T any](capacity int) *ReverseRingBuffer[T] {
	size := roundPow2(capacity)
	return &ReverseRingBuffer[T]{
		data:   make([]T, size),
		mask:   uint64(size - 1),
		window: uint64(size),
	}
}

// SetWindow sets the reversed window length in samples, clamped to
// [1, Capacity]. The current window finishes first.
func (r *ReverseRingBuffer[T]) SetWindow(n int) {
	r.window = uint64(min(max(n, 1), len(r.data)))
}

// Window returns the reversed window length.
func (r *ReverseRingBuffer[T]) Window() int { return int(r.window) }

// Push records v.
func (r *ReverseRingBuffer[T]) Push(v T) {
	r.data[r.end&r.mask] = v
	r.end++
	if r.filled < uint64(len(r.data)) {
		r.filled++
	}
}

// Shift returns the next sample of the reversed stream, or the zero value
// when nothing was recorded since the last Clear.
func (r *ReverseRingBuffer[T]) Shift() T {
	if r.remaining == 0 {
		r.read = r.end
		r.remaining = min(r.window, r.filled)
		if r.remaining == 0 {
			var zero T
			return zero
		}
	}
	r.read--
	r.remaining--
	return r.data[r.read&r.mask]
}

// Clear forgets the recorded history and the current window.
func (r *ReverseRingBuffer[T]) Clear() {
	r.filled = 0
	r.remaining = 0
}

// Size returns the number of recorded samples available for reversal.
func (r *ReverseRingBuffer[T]) Size() int { return int(r.filled) }

// Capacity returns the power of two capacity.
func (r *ReverseRingBuffer[T]) Capacity() int { return len(r.data) }
