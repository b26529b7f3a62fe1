package stamp

import (
	"fmt"

	"github.com/edp1096/spicesim/pkg/matrix"
)

// Jacobian stamps the tangent plane of an n-terminal nonlinear element.
// Currents[t] is the current flowing into the element at terminal t, Jac[t][c]
// its derivative with respect to the voltage of terminal c, both evaluated at
// the terminal voltages V of the linearization point.
type Jacobian struct {
	Nodes []int
}

func (s *Jacobian) Register(_ *matrix.Builder[float64], nodes ...int) error {
	s.Nodes = append(s.Nodes[:0], nodes...)
	return nil
}

func (s *Jacobian) Stamp(sys *matrix.System, currents []float64, jac [][]float64, v []float64) error {
	n := len(s.Nodes)
	if len(currents) != n || len(jac) != n || len(v) != n {
		return fmt.Errorf("jacobian stamp: %w", matrix.ErrDimensionMismatch)
	}

	for t := range n {
		if err := checkFinite(s.Nodes[t], -1, currents[t]); err != nil {
			return err
		}
		if len(jac[t]) != n {
			return fmt.Errorf("jacobian stamp: %w", matrix.ErrDimensionMismatch)
		}
		if err := checkFinite(s.Nodes[t], s.Nodes[t], jac[t]...); err != nil {
			return err
		}
	}

	for t := range n {
		eq := currents[t]
		for c := range n {
			if err := sys.AddMatrixEntry(s.Nodes[t], s.Nodes[c], jac[t][c]); err != nil {
				return err
			}
			eq -= jac[t][c] * v[c]
		}
		if err := sys.AddRightHandSideEntry(s.Nodes[t], -eq); err != nil {
			return err
		}
	}
	return nil
}
