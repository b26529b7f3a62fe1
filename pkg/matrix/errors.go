package matrix

import (
	"errors"
	"fmt"
)

var (
	// ErrFrozen is returned when the system is edited after Build or Solve.
	ErrFrozen = errors.New("matrix: equation system is frozen")

	// ErrNaN marks a NaN or Inf value offered to the system.
	ErrNaN = errors.New("matrix: NaN or Inf value")

	ErrDimensionMismatch = errors.New("matrix: dimension mismatch")
)

type IndexError struct {
	Row, Col int
	Size     int
}

func (e *IndexError) Error() string {
	if e.Col < 0 {
		return fmt.Sprintf("matrix: index out of range (row=%d, size=%d)", e.Row, e.Size)
	}
	return fmt.Sprintf("matrix: index out of range (row=%d, col=%d, size=%d)", e.Row, e.Col, e.Size)
}

// NaNError reports where a non-finite contribution was rejected.
// Col is -1 for right hand side entries.
type NaNError struct {
	Row, Col int
	Value    float64
}

func (e *NaNError) Error() string {
	if e.Col < 0 {
		return fmt.Sprintf("matrix: non-finite rhs value %g at row %d", e.Value, e.Row)
	}
	return fmt.Sprintf("matrix: non-finite value %g at (%d,%d)", e.Value, e.Row, e.Col)
}

func (e *NaNError) Unwrap() error { return ErrNaN }

type SingularMatrixError struct {
	Column int
}

func (e *SingularMatrixError) Error() string {
	return fmt.Sprintf("matrix: singular matrix, no usable pivot in column %d", e.Column)
}

type NaNInSolutionError struct {
	Index int
}

func (e *NaNInSolutionError) Error() string {
	return fmt.Sprintf("matrix: NaN or Inf in solution at index %d", e.Index)
}

func (e *NaNInSolutionError) Unwrap() error { return ErrNaN }
