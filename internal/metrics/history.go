package metrics

import "iter"

// HistoryDepth is how many samples each rolling history retains,
// one minute of data at one sample per second.
const HistoryDepth = 60

// History is a fixed-capacity rolling sample buffer. Pushing beyond
// capacity evicts the oldest sample. The zero value is not usable;
// construct with NewHistory.
type History[T any] struct {
	buf   []T
	head  int
	count int
}

func NewHistory[T any](capacity int) *History[T] {
	if capacity <= 0 {
		capacity = HistoryDepth
	}
	return &History[T]{buf: make([]T, capacity)}
}

// Push appends v, evicting the oldest sample once the buffer is full.
func (h *History[T]) Push(v T) {
	if h.count < len(h.buf) {
		h.buf[(h.head+h.count)%len(h.buf)] = v
		h.count++
		return
	}
	h.buf[h.head] = v
	h.head = (h.head + 1) % len(h.buf)
}

func (h *History[T]) Len() int {
	return h.count
}

func (h *History[T]) Cap() int {
	return len(h.buf)
}

// At returns the i-th retained sample, oldest first.
func (h *History[T]) At(i int) T {
	if i < 0 || i >= h.count {
		var zero T
		return zero
	}
	return h.buf[(h.head+i)%len(h.buf)]
}

// All iterates the retained samples oldest to newest, yielding each
// sample's position counted from the current oldest element. Positions
// therefore restart at 0 after evictions, which lets the sequence feed
// chart coordinates directly.
func (h *History[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i := 0; i < h.count; i++ {
			if !yield(i, h.buf[(h.head+i)%len(h.buf)]) {
				return
			}
		}
	}
}

// Values copies the retained samples oldest to newest.
func (h *History[T]) Values() []T {
	out := make([]T, h.count)
	for i := range out {
		out[i] = h.buf[(h.head+i)%len(h.buf)]
	}
	return out
}
