package history

// Ring is a fixed-capacity FIFO buffer. Pushing past capacity silently
// evicts the oldest entry. Entries are never modified after insertion.
type Ring[T any] struct {
	buf   []T
	start int // index of the oldest entry
	n     int
}

// NewRing returns an empty ring holding at most capacity entries. A ring
// with zero capacity accepts pushes and keeps nothing.
func NewRing[T any](capacity int) *Ring[T] {
	if capacity < 0 {
		capacity = 0
	}
	return &Ring[T]{buf: make([]T, capacity)}
}

// Push appends v, dropping the oldest entry when the ring is full.
func (r *Ring[T]) Push(v T) {
	if len(r.buf) == 0 {
		return
	}
	if r.n < len(r.buf) {
		r.buf[(r.start+r.n)%len(r.buf)] = v
		r.n++
		return
	}
	r.buf[r.start] = v
	r.start = (r.start + 1) % len(r.buf)
}

// Len returns the number of entries currently held.
func (r *Ring[T]) Len() int { return r.n }

// Cap returns the maximum number of entries.
func (r *Ring[T]) Cap() int { return len(r.buf) }

// Items returns a copy of the entries, oldest first.
func (r *Ring[T]) Items() []T {
	out := make([]T, r.n)
	for i := 0; i < r.n; i++ {
		out[i] = r.buf[(r.start+i)%len(r.buf)]
	}
	return out
}
