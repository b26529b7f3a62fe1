// Package integration implements the implicit integration methods used by
// energy-storage devices. A method turns the accepted history of a state
// variable and its derivative into the companion relation
//
//	x(t+dt) = dy*x'(t+dt) + y
//
// which the device stamps as a conductance and a current.
package integration

import (
	"errors"
	"fmt"

	"golang.org/x/exp/constraints"
)

// MaxOrder is the highest order accepted for the multistep methods.
const MaxOrder = 6

var (
	ErrNonPositiveTimestep = errors.New("integration: timestep must be positive")
	ErrNoHistory           = errors.New("integration: no accepted sample in history")
	ErrUnsupportedOrder    = errors.New("integration: unsupported order")
)

type Method[T constraints.Float] interface {
	// SetState records the sample of the just accepted time point.
	SetState(state, derivative T)
	// SetInitialState records an imposed state whose derivative is not
	// known yet. Methods reading past derivatives step first order from it.
	SetInitialState(state T)
	// Equivalents returns the companion coefficients for a step of dt.
	Equivalents(dt T) (dy, y T, err error)
	Order() int
	Reset()
}

type Kind int

const (
	KindEuler Kind = iota
	KindTrapezoidal
	KindGear
	KindAdamsMoulton
)

func (k Kind) String() string {
	switch k {
	case KindTrapezoidal:
		return "trapezoidal"
	case KindGear:
		return "gear"
	case KindAdamsMoulton:
		return "adams-moulton"
	default:
		return "euler"
	}
}

// ParseKind maps a configuration name to a Kind.
func ParseKind(name string) (Kind, error) {
	switch name {
	case "euler", "be":
		return KindEuler, nil
	case "trapezoidal", "trap":
		return KindTrapezoidal, nil
	case "gear", "bdf":
		return KindGear, nil
	case "adams-moulton", "am":
		return KindAdamsMoulton, nil
	}
	return KindEuler, fmt.Errorf("integration: unknown method %q", name)
}

// New builds a fresh method instance. Order is ignored by Euler and
// Trapezoidal.
func New[T constraints.Float](kind Kind, order int) (Method[T], error) {
	switch kind {
	case KindEuler:
		return NewBackwardEuler[T](), nil
	case KindTrapezoidal:
		return NewTrapezoidal[T](), nil
	case KindGear:
		return NewGear[T](order)
	case KindAdamsMoulton:
		return NewAdamsMoulton[T](order)
	}
	return nil, fmt.Errorf("integration: unknown kind %d", int(kind))
}

// Factory returns a constructor bound to kind and order, checked once.
func Factory[T constraints.Float](kind Kind, order int) (func() Method[T], error) {
	if _, err := New[T](kind, order); err != nil {
		return nil, err
	}
	return func() Method[T] {
		m, _ := New[T](kind, order)
		return m
	}, nil
}

func checkOrder(order int) error {
	if order < 1 || order > MaxOrder {
		return fmt.Errorf("%w: %d not in [1,%d]", ErrUnsupportedOrder, order, MaxOrder)
	}
	return nil
}

// power returns x^k with x^0 == 1 for every x.
func power[T constraints.Float](x T, k int) T {
	r := T(1)
	for range k {
		r *= x
	}
	return r
}
