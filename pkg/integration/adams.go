package integration

import (
	"golang.org/x/exp/constraints"

	"github.com/edp1096/spicesim/pkg/matrix"
)

// AdamsMoulton is the N-th order implicit Adams formula
//
//	x(n+1) = x(n) + dt*sum(beta[j]*x'(n+1-j), j=0..N-1)
//
// Order 1 is Backward Euler and order 2 is the trapezoidal rule. It needs
// max(1, N-1) accepted samples; with fewer, or fewer known derivatives, a
// lower order instance answers.
type AdamsMoulton[T constraints.Float] struct {
	order int
	beta  []T
	hist  *history[T]
	lower []*AdamsMoulton[T]
}

func NewAdamsMoulton[T constraints.Float](order int) (*AdamsMoulton[T], error) {
	if err := checkOrder(order); err != nil {
		return nil, err
	}
	return newAdamsMoulton(order, newHistory[T](required(order)))
}

func newAdamsMoulton[T constraints.Float](order int, hist *history[T]) (*AdamsMoulton[T], error) {
	beta, err := adamsCoefficients[T](order)
	if err != nil {
		return nil, err
	}
	return &AdamsMoulton[T]{order: order, beta: beta, hist: hist}, nil
}

func required(order int) int {
	return max(1, order-1)
}

// adamsCoefficients matches the formula on t^k, k = 1..order, with a unit
// step and derivative points at t = 0, -1, ..., 1-order.
func adamsCoefficients[T constraints.Float](order int) ([]T, error) {
	a := make([][]T, order)
	b := make([]T, order)
	for r := range order {
		a[r] = make([]T, order)
		for j := range order {
			a[r][j] = power(T(-j), r)
		}
		b[r] = power(T(-1), r) / T(r+1)
	}
	return matrix.Gauss(a, b)
}

func (m *AdamsMoulton[T]) SetState(state, derivative T) { m.hist.push(state, derivative) }

func (m *AdamsMoulton[T]) SetInitialState(state T) { m.hist.pushState(state) }

func (m *AdamsMoulton[T]) Equivalents(dt T) (T, T, error) {
	if dt <= 0 {
		return 0, 0, ErrNonPositiveTimestep
	}
	available := m.hist.len()
	if available == 0 {
		return 0, 0, ErrNoHistory
	}
	// order k reads k-1 derivatives
	usable := min(m.order, available+1, m.hist.derivatives()+1)
	if usable < m.order {
		low, err := m.startup(usable)
		if err != nil {
			return 0, 0, err
		}
		return low.Equivalents(dt)
	}

	y := m.hist.at(0).state
	for j := 1; j < m.order; j++ {
		y += dt * m.beta[j] * m.hist.at(j-1).derivative
	}
	return m.beta[0] * dt, y, nil
}

func (m *AdamsMoulton[T]) startup(order int) (*AdamsMoulton[T], error) {
	if m.lower == nil {
		m.lower = make([]*AdamsMoulton[T], m.order)
	}
	if m.lower[order] == nil {
		low, err := newAdamsMoulton(order, m.hist)
		if err != nil {
			return nil, err
		}
		m.lower[order] = low
	}
	return m.lower[order], nil
}

func (m *AdamsMoulton[T]) Order() int { return m.order }

func (m *AdamsMoulton[T]) Reset() { m.hist.reset() }
