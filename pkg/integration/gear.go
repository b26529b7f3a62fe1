package integration

import (
	"golang.org/x/exp/constraints"

	"github.com/edp1096/spicesim/pkg/matrix"
)

// Gear is the N-th order backward differentiation formula
//
//	x(n+1) = sum(alpha[i]*x(n-i), i=0..N-1) + beta*dt*x'(n+1)
//
// Until N samples are accepted a lower order instance over the same history
// answers instead.
type Gear[T constraints.Float] struct {
	order int
	alpha []T
	beta  T
	hist  *history[T]
	lower []*Gear[T]
}

func NewGear[T constraints.Float](order int) (*Gear[T], error) {
	if err := checkOrder(order); err != nil {
		return nil, err
	}
	return newGear(order, newHistory[T](order))
}

func newGear[T constraints.Float](order int, hist *history[T]) (*Gear[T], error) {
	alpha, beta, err := gearCoefficients[T](order)
	if err != nil {
		return nil, err
	}
	return &Gear[T]{order: order, alpha: alpha, beta: beta, hist: hist}, nil
}

// gearCoefficients matches the formula on t^k, k = 0..order, with a unit
// step and t(n+1) = 0.
func gearCoefficients[T constraints.Float](order int) ([]T, T, error) {
	n := order + 1
	a := make([][]T, n)
	b := make([]T, n)
	for k := range n {
		a[k] = make([]T, n)
		for i := range order {
			a[k][i] = power(T(-(i + 1)), k)
		}
	}
	a[1][order] = 1
	b[0] = 1

	x, err := matrix.Gauss(a, b)
	if err != nil {
		return nil, 0, err
	}
	return x[:order], x[order], nil
}

func (g *Gear[T]) SetState(state, derivative T) { g.hist.push(state, derivative) }

func (g *Gear[T]) SetInitialState(state T) { g.hist.pushState(state) }

func (g *Gear[T]) Equivalents(dt T) (T, T, error) {
	if dt <= 0 {
		return 0, 0, ErrNonPositiveTimestep
	}
	available := g.hist.len()
	if available == 0 {
		return 0, 0, ErrNoHistory
	}
	if available < g.order {
		low, err := g.startup(available)
		if err != nil {
			return 0, 0, err
		}
		return low.Equivalents(dt)
	}

	var y T
	for i, c := range g.alpha {
		y += c * g.hist.at(i).state
	}
	return g.beta * dt, y, nil
}

func (g *Gear[T]) startup(order int) (*Gear[T], error) {
	if g.lower == nil {
		g.lower = make([]*Gear[T], g.order)
	}
	if g.lower[order] == nil {
		low, err := newGear(order, g.hist)
		if err != nil {
			return nil, err
		}
		g.lower[order] = low
	}
	return g.lower[order], nil
}

func (g *Gear[T]) Order() int { return g.order }

func (g *Gear[T]) Reset() { g.hist.reset() }
