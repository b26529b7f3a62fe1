// Package stamp holds the MNA stamping primitives shared by the device
// models. Every stamper is registered once against the equation builder and
// then stamped on each Newton-Raphson iteration. Values are checked before
// the first coefficient is written so a rejected stamp leaves the system
// untouched.
package stamp

import (
	"math"

	"github.com/edp1096/spicesim/pkg/matrix"
)

type entry struct {
	row, col int
	value    float64
}

func checkFinite(row, col int, values ...float64) error {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &matrix.NaNError{Row: row, Col: col, Value: v}
		}
	}
	return nil
}

func apply(sys *matrix.System, entries ...entry) error {
	for _, e := range entries {
		if err := sys.AddMatrixEntry(e.row, e.col, e.value); err != nil {
			return err
		}
	}
	return nil
}

// Conductance stamps an admittance g between A and B.
type Conductance struct {
	A, B int
}

func (s *Conductance) Register(_ *matrix.Builder[float64], a, b int) error {
	s.A, s.B = a, b
	return nil
}

func (s *Conductance) Stamp(sys *matrix.System, g float64) error {
	if err := checkFinite(s.A, s.B, g); err != nil {
		return err
	}
	return apply(sys,
		entry{s.A, s.A, g}, entry{s.B, s.B, g},
		entry{s.A, s.B, -g}, entry{s.B, s.A, -g},
	)
}

// Current stamps a current i injected into A and drawn out of B.
type Current struct {
	A, B int
}

func (s *Current) Register(_ *matrix.Builder[float64], a, b int) error {
	s.A, s.B = a, b
	return nil
}

func (s *Current) Stamp(sys *matrix.System, i float64) error {
	if err := checkFinite(s.A, -1, i); err != nil {
		return err
	}
	if err := sys.AddRightHandSideEntry(s.A, i); err != nil {
		return err
	}
	return sys.AddRightHandSideEntry(s.B, -i)
}

// Voltage stamps v(A) - v(B) = v through its own branch variable. The solved
// branch value is the current flowing from A through the element to B.
type Voltage struct {
	A, B   int
	branch int
}

func (s *Voltage) Register(b *matrix.Builder[float64], pos, neg int) error {
	k, err := b.AddVariable()
	if err != nil {
		return err
	}
	s.A, s.B, s.branch = pos, neg, k
	return nil
}

func (s *Voltage) Branch() int { return s.branch }

func (s *Voltage) Stamp(sys *matrix.System, v float64) error {
	if err := checkFinite(s.branch, -1, v); err != nil {
		return err
	}
	if err := s.incidence(sys); err != nil {
		return err
	}
	return sys.AddRightHandSideEntry(s.branch, v)
}

// StampWithResistance stamps v(A) - v(B) - r*i = v, the Thevenin form used by
// inductor companion models.
func (s *Voltage) StampWithResistance(sys *matrix.System, r, v float64) error {
	if err := checkFinite(s.branch, s.branch, r, v); err != nil {
		return err
	}
	if err := s.incidence(sys); err != nil {
		return err
	}
	if err := sys.AddMatrixEntry(s.branch, s.branch, -r); err != nil {
		return err
	}
	return sys.AddRightHandSideEntry(s.branch, v)
}

// Short binds A and B through the branch, a zero volt source.
func (s *Voltage) Short(sys *matrix.System) error {
	return sys.BindEquivalent(s.A, s.B, s.branch)
}

func (s *Voltage) incidence(sys *matrix.System) error {
	return apply(sys,
		entry{s.branch, s.A, 1}, entry{s.branch, s.B, -1},
		entry{s.A, s.branch, 1}, entry{s.B, s.branch, -1},
	)
}
