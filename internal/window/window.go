// Package window provides a fixed-capacity rolling window indexed newest-first.
package window

// Rolling is a circular buffer of fixed capacity.
// Get(0) is the most recent value; the oldest value is evicted on overflow.
type Rolling[T any] struct {
	buf   []T
	head  int // slot of the most recent value
	count int
	total int // values added over the lifetime of the window
}

// New creates a rolling window holding at most capacity values.
// Capacity below 1 is raised to 1.
func New[T any](capacity int) *Rolling[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Rolling[T]{buf: make([]T, capacity), head: -1}
}

// Add appends v as the newest value.
func (w *Rolling[T]) Add(v T) {
	w.head = (w.head + 1) % len(w.buf)
	w.buf[w.head] = v
	if w.count < len(w.buf) {
		w.count++
	}
	w.total++
}

// Get returns the value at the given age (0 = newest).
// ok is false when age is outside [0, Count()).
func (w *Rolling[T]) Get(age int) (v T, ok bool) {
	if age < 0 || age >= w.count {
		return v, false
	}
	idx := (w.head - age + len(w.buf)) % len(w.buf)
	return w.buf[idx], true
}

// Count returns the number of stored values.
func (w *Rolling[T]) Count() int { return w.count }

// Capacity returns the fixed capacity.
func (w *Rolling[T]) Capacity() int { return len(w.buf) }

// Full reports whether the window holds Capacity() values.
func (w *Rolling[T]) Full() bool { return w.count == len(w.buf) }

// Total returns how many values were ever added, including evicted ones.
func (w *Rolling[T]) Total() int { return w.total }

// Newest returns up to n most recent values, newest first.
func (w *Rolling[T]) Newest(n int) []T {
	if n > w.count {
		n = w.count
	}
	out := make([]T, 0, n)
	for age := 0; age < n; age++ {
		v, _ := w.Get(age)
		out = append(out, v)
	}
	return out
}
