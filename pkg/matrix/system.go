package matrix

import (
	"fmt"
	"io"

	"golang.org/x/exp/constraints"
)

type Backend int

const (
	Dense Backend = iota
	Sparse
)

func (b Backend) String() string {
	switch b {
	case Sparse:
		return "sparse"
	default:
		return "dense"
	}
}

// ParseBackend maps a configuration name to a Backend.
func ParseBackend(name string) (Backend, error) {
	switch name {
	case "", "dense":
		return Dense, nil
	case "sparse":
		return Sparse, nil
	}
	return Dense, fmt.Errorf("matrix: unknown backend %q", name)
}

// Builder collects the unknowns of a circuit before the equation system is
// allocated. Index 0 is the ground node and never becomes an unknown.
type Builder[T constraints.Float] struct {
	nodes     int
	variables int
	built     bool
}

// NewBuilder starts a system with nodeCount node unknowns, ground included.
func NewBuilder[T constraints.Float](nodeCount int) *Builder[T] {
	if nodeCount < 1 {
		nodeCount = 1
	}
	return &Builder[T]{nodes: nodeCount}
}

// AddVariable allocates a branch variable after the node unknowns.
func (b *Builder[T]) AddVariable() (int, error) {
	if b.built {
		return 0, ErrFrozen
	}
	idx := b.nodes + b.variables
	b.variables++
	return idx, nil
}

func (b *Builder[T]) NodeCount() int { return b.nodes }

func (b *Builder[T]) Size() int { return b.nodes + b.variables }

// Build fixes the size and allocates the concrete system.
func (b *Builder[T]) Build(backend Backend) *EquationSystem[T] {
	b.built = true
	size := b.Size()

	a := make([][]T, size)
	for i := range a {
		a[i] = make([]T, size)
	}

	return &EquationSystem[T]{
		size:     size,
		nodes:    b.nodes,
		backend:  backend,
		a:        a,
		rhs:      make([]T, size),
		solution: make([]T, size),
	}
}

// EquationSystem is the MNA system A·x = b. Contributions accumulate until
// Solve, after which the system is read-only until Clear.
type EquationSystem[T constraints.Float] struct {
	size     int
	nodes    int
	backend  Backend
	a        [][]T
	rhs      []T
	solution []T
	solved   bool
}

// System is the default double precision instantiation.
type System = EquationSystem[float64]

func (s *EquationSystem[T]) Size() int { return s.size }

func (s *EquationSystem[T]) NodeCount() int { return s.nodes }

func (s *EquationSystem[T]) Backend() Backend { return s.backend }

func (s *EquationSystem[T]) AddMatrixEntry(row, col int, value T) error {
	if s.solved {
		return ErrFrozen
	}
	if row < 0 || col < 0 || row >= s.size || col >= s.size {
		return &IndexError{Row: row, Col: col, Size: s.size}
	}
	if !finite(value) {
		return &NaNError{Row: row, Col: col, Value: float64(value)}
	}
	if row == 0 || col == 0 {
		return nil
	}
	s.a[row][col] += value
	return nil
}

func (s *EquationSystem[T]) AddRightHandSideEntry(row int, value T) error {
	if s.solved {
		return ErrFrozen
	}
	if row < 0 || row >= s.size {
		return &IndexError{Row: row, Col: -1, Size: s.size}
	}
	if !finite(value) {
		return &NaNError{Row: row, Col: -1, Value: float64(value)}
	}
	if row == 0 {
		return nil
	}
	s.rhs[row] += value
	return nil
}

// BindEquivalent forces v(a) == v(b) through the constraint row of branch.
// The node indices stay distinct, the branch carries the current between them.
func (s *EquationSystem[T]) BindEquivalent(a, b, branch int) error {
	entries := [...]struct {
		row, col int
		v        T
	}{
		{branch, a, 1}, {branch, b, -1},
		{a, branch, 1}, {b, branch, -1},
	}
	for _, e := range entries {
		if err := s.AddMatrixEntry(e.row, e.col, e.v); err != nil {
			return err
		}
	}
	return nil
}

// Clear re-zeroes the coefficients and reopens the system for stamping.
func (s *EquationSystem[T]) Clear() {
	for i := range s.a {
		clear(s.a[i])
	}
	clear(s.rhs)
	s.solved = false
}

// Solve solves the system and freezes it. Repeated calls return the same
// solution until Clear.
func (s *EquationSystem[T]) Solve() ([]T, error) {
	if s.solved {
		return s.solution, nil
	}

	var (
		x   []T
		err error
	)
	switch s.backend {
	case Sparse:
		x, err = solveSparse(s.a, s.rhs)
	default:
		x, err = s.solveDense()
	}
	if err != nil {
		return nil, err
	}

	copy(s.solution, x)
	s.solution[0] = 0
	s.solved = true
	return s.solution, nil
}

// solveDense eliminates the unknowns 1..size-1; ground is dropped.
func (s *EquationSystem[T]) solveDense() ([]T, error) {
	n := s.size - 1
	if n == 0 {
		return make([]T, s.size), nil
	}

	a := make([][]T, n)
	for i := range n {
		a[i] = s.a[i+1][1:]
	}

	x, err := Gauss(a, s.rhs[1:])
	if err != nil {
		switch e := err.(type) {
		case *SingularMatrixError:
			return nil, &SingularMatrixError{Column: e.Column + 1}
		case *NaNInSolutionError:
			return nil, &NaNInSolutionError{Index: e.Index + 1}
		}
		return nil, err
	}

	return append([]T{0}, x...), nil
}

func (s *EquationSystem[T]) Solution() []T { return s.solution }

func (s *EquationSystem[T]) Solved() bool { return s.solved }

func (s *EquationSystem[T]) Entry(row, col int) T { return s.a[row][col] }

func (s *EquationSystem[T]) RHS(row int) T { return s.rhs[row] }

// Dump writes the stamped equations, one row per line.
func (s *EquationSystem[T]) Dump(w io.Writer) {
	fmt.Fprintf(w, "Circuit Equations (%dx%d):\n", s.size-1, s.size-1)
	fmt.Fprintln(w, "Node equations 1..n, followed by branch equations")

	for i := 1; i < s.size; i++ {
		fmt.Fprintf(w, "Equation %d:", i)
		for j := 1; j < s.size; j++ {
			if v := s.a[i][j]; v != 0 {
				fmt.Fprintf(w, "  %+g*x%d", float64(v), j)
			}
		}
		fmt.Fprintf(w, " = %g\n", float64(s.rhs[i]))
	}
}
