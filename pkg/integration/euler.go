package integration

import "golang.org/x/exp/constraints"

// BackwardEuler: x(t+dt) = x(t) + dt*x'(t+dt).
type BackwardEuler[T constraints.Float] struct {
	hist *history[T]
}

func NewBackwardEuler[T constraints.Float]() *BackwardEuler[T] {
	return &BackwardEuler[T]{hist: newHistory[T](1)}
}

func (m *BackwardEuler[T]) SetState(state, derivative T) { m.hist.push(state, derivative) }

func (m *BackwardEuler[T]) SetInitialState(state T) { m.hist.pushState(state) }

func (m *BackwardEuler[T]) Equivalents(dt T) (T, T, error) {
	if dt <= 0 {
		return 0, 0, ErrNonPositiveTimestep
	}
	if m.hist.len() == 0 {
		return 0, 0, ErrNoHistory
	}
	return dt, m.hist.at(0).state, nil
}

func (m *BackwardEuler[T]) Order() int { return 1 }

func (m *BackwardEuler[T]) Reset() { m.hist.reset() }

// Trapezoidal: x(t+dt) = x(t) + dt/2*(x'(t) + x'(t+dt)).
type Trapezoidal[T constraints.Float] struct {
	hist *history[T]
}

func NewTrapezoidal[T constraints.Float]() *Trapezoidal[T] {
	return &Trapezoidal[T]{hist: newHistory[T](1)}
}

func (m *Trapezoidal[T]) SetState(state, derivative T) { m.hist.push(state, derivative) }

func (m *Trapezoidal[T]) SetInitialState(state T) { m.hist.pushState(state) }

func (m *Trapezoidal[T]) Equivalents(dt T) (T, T, error) {
	if dt <= 0 {
		return 0, 0, ErrNonPositiveTimestep
	}
	if m.hist.len() == 0 {
		return 0, 0, ErrNoHistory
	}
	last := m.hist.at(0)
	if !last.known {
		return dt, last.state, nil
	}
	dy := dt / 2
	return dy, dy*last.derivative + last.state, nil
}

func (m *Trapezoidal[T]) Order() int { return 2 }

func (m *Trapezoidal[T]) Reset() { m.hist.reset() }
