// Package ring provides a fixed-capacity FIFO with a configurable overflow policy.
package ring

// Policy selects what Push discards when the buffer is full.
type Policy int

const (
	// DropOldest overwrites the oldest element.
	DropOldest Policy = iota
	// DropNewest discards the element being pushed.
	DropNewest
)

// Buffer is a fixed-capacity FIFO.
// Not safe for concurrent use; caller must synchronize.
type Buffer[T any] struct {
	buf      []T
	head     int // next write position
	count    int
	policy   Policy
	overflow bool // set when an element was dropped, until cleared or drained
}

// New creates a buffer holding at most capacity elements. It panics if capacity < 1.
func New[T any](capacity int, policy Policy) *Buffer[T] {
	if capacity < 1 {
		panic("ring: capacity must be positive")
	}
	return &Buffer[T]{
		buf:    make([]T, capacity),
		policy: policy,
	}
}

// Push appends v. It returns false if an element was dropped to respect the capacity.
func (r *Buffer[T]) Push(v T) bool {
	if r.count == len(r.buf) {
		r.overflow = true
		if r.policy == DropNewest {
			return false
		}
		// Overwrite oldest: head is already pointing at it.
		r.buf[r.head] = v
		r.head = (r.head + 1) % len(r.buf)
		return false
	}
	r.buf[r.head] = v
	r.head = (r.head + 1) % len(r.buf)
	r.count++
	return true
}

// Pop removes and returns the oldest element.
func (r *Buffer[T]) Pop() (T, bool) {
	var zero T
	if r.count == 0 {
		return zero, false
	}
	i := r.tail()
	v := r.buf[i]
	r.buf[i] = zero
	r.count--
	return v, true
}

// DrainAll removes every element, oldest first, and clears the overflow flag.
func (r *Buffer[T]) DrainAll() []T {
	if r.count == 0 {
		r.overflow = false
		return nil
	}

	result := make([]T, r.count)
	start := r.tail()
	for i := range result {
		result[i] = r.buf[(start+i)%len(r.buf)]
	}

	clear(r.buf)
	r.count = 0
	r.head = 0
	r.overflow = false
	return result
}

// Len returns the number of buffered elements.
func (r *Buffer[T]) Len() int { return r.count }

// Cap returns the capacity.
func (r *Buffer[T]) Cap() int { return len(r.buf) }

// Overflowed reports whether an element was dropped since the last clear.
func (r *Buffer[T]) Overflowed() bool { return r.overflow }

// ClearOverflow resets the overflow flag.
func (r *Buffer[T]) ClearOverflow() { r.overflow = false }

// tail is the index of the oldest element.
func (r *Buffer[T]) tail() int {
	return (r.head - r.count + len(r.buf)) % len(r.buf)
}
