package integration

import "golang.org/x/exp/constraints"

// sample is one accepted point. known is false for a state imposed without
// a solved derivative, as after initial conditions.
type sample[T constraints.Float] struct {
	state, derivative T
	known             bool
}

// history is a fixed size ring of accepted samples. base moves backward on
// every push so at(0) is always the most recent sample.
type history[T constraints.Float] struct {
	buf   []sample[T]
	base  int
	count int
}

func newHistory[T constraints.Float](size int) *history[T] {
	if size < 1 {
		size = 1
	}
	return &history[T]{buf: make([]sample[T], size)}
}

func (h *history[T]) push(state, derivative T) {
	h.add(sample[T]{state, derivative, true})
}

func (h *history[T]) pushState(state T) {
	h.add(sample[T]{state: state})
}

func (h *history[T]) add(s sample[T]) {
	h.base = (h.base - 1 + len(h.buf)) % len(h.buf)
	h.buf[h.base] = s
	if h.count < len(h.buf) {
		h.count++
	}
}

func (h *history[T]) at(i int) sample[T] {
	return h.buf[(h.base+i)%len(h.buf)]
}

func (h *history[T]) len() int { return h.count }

// derivatives counts the most recent samples whose derivative is known.
func (h *history[T]) derivatives() int {
	n := 0
	for n < h.count && h.at(n).known {
		n++
	}
	return n
}

func (h *history[T]) reset() {
	clear(h.buf)
	h.base, h.count = 0, 0
}
