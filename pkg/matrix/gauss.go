package matrix

import (
	"math"

	"golang.org/x/exp/constraints"
)

// pivotTolerance is the magnitude below which a pivot candidate counts as zero.
const pivotTolerance = 1e-30

// Gauss solves a·x = b by Gaussian elimination with partial pivoting.
// Inputs are 0-based and left untouched.
func Gauss[T constraints.Float](a [][]T, b []T) ([]T, error) {
	n := len(b)
	if len(a) != n {
		return nil, ErrDimensionMismatch
	}

	m := make([][]T, n)
	for i := range a {
		if len(a[i]) != n {
			return nil, ErrDimensionMismatch
		}
		m[i] = make([]T, n)
		copy(m[i], a[i])
	}
	rhs := make([]T, n)
	copy(rhs, b)

	for k := 0; k < n; k++ {
		p := k
		best := abs(m[k][k])
		for i := k + 1; i < n; i++ {
			if v := abs(m[i][k]); v > best {
				best, p = v, i
			}
		}
		if float64(best) <= pivotTolerance {
			return nil, &SingularMatrixError{Column: k}
		}
		if p != k {
			m[p], m[k] = m[k], m[p]
			rhs[p], rhs[k] = rhs[k], rhs[p]
		}

		pivot := m[k][k]
		for i := k + 1; i < n; i++ {
			f := m[i][k] / pivot
			if f == 0 {
				continue
			}
			m[i][k] = 0
			for j := k + 1; j < n; j++ {
				m[i][j] -= f * m[k][j]
			}
			rhs[i] -= f * rhs[k]
		}
	}

	x := make([]T, n)
	for i := n - 1; i >= 0; i-- {
		sum := rhs[i]
		for j := i + 1; j < n; j++ {
			sum -= m[i][j] * x[j]
		}
		x[i] = sum / m[i][i]
		if !finite(x[i]) {
			return nil, &NaNInSolutionError{Index: i}
		}
	}

	return x, nil
}

func abs[T constraints.Float](v T) T {
	if v < 0 {
		return -v
	}
	return v
}

func finite[T constraints.Float](v T) bool {
	f := float64(v)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
