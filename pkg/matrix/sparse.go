package matrix

import (
	"fmt"

	"github.com/edp1096/sparse"
	"golang.org/x/exp/constraints"
)

func sparseConfig() *sparse.Configuration {
	return &sparse.Configuration{
		Real:                    true,
		Complex:                 false,
		SeparatedComplexVectors: false,
		Expandable:              true,
		Translate:               false,
		ModifiedNodal:           true,
		TiesMultiplier:          5,
		PrinterWidth:            140,
		Annotate:                0,
	}
}

// solveSparse loads the non-zero entries into a Markowitz ordered sparse
// matrix. Row and column 0 (ground) are skipped, the library is 1-based so
// the remaining indices map one to one.
func solveSparse[T constraints.Float](a [][]T, rhs []T) ([]T, error) {
	size := len(rhs) - 1
	if size == 0 {
		return make([]T, 1), nil
	}

	if col := emptyLine(a); col > 0 {
		return nil, &SingularMatrixError{Column: col}
	}

	mat, err := sparse.Create(int64(size), sparseConfig())
	if err != nil {
		return nil, fmt.Errorf("creating sparse matrix: %w", err)
	}
	defer mat.Destroy()

	for i := 1; i <= size; i++ {
		for j := 1; j <= size; j++ {
			if v := a[i][j]; v != 0 {
				mat.GetElement(int64(i), int64(j)).Real += float64(v)
			}
		}
	}

	b := make([]float64, size+1)
	for i := 1; i <= size; i++ {
		b[i] = float64(rhs[i])
	}

	if err := mat.Factor(); err != nil {
		// every factorization failure of the library is a missing pivot
		col := int(mat.SingularCol)
		if col > 0 && col <= size {
			col = int(mat.IntToExtColMap[col])
		}
		return nil, &SingularMatrixError{Column: max(col, 1)}
	}

	sol, err := mat.Solve(b)
	if err != nil {
		return nil, fmt.Errorf("sparse solve: %w", err)
	}

	x := make([]T, size+1)
	for i := 1; i <= size; i++ {
		x[i] = T(sol[i])
		if !finite(x[i]) {
			return nil, &NaNInSolutionError{Index: i}
		}
	}
	return x, nil
}

// emptyLine returns the first unknown whose row or column holds no entry.
func emptyLine[T constraints.Float](a [][]T) int {
	n := len(a)
	for i := 1; i < n; i++ {
		rowEmpty, colEmpty := true, true
		for j := 1; j < n; j++ {
			if a[i][j] != 0 {
				rowEmpty = false
			}
			if a[j][i] != 0 {
				colEmpty = false
			}
		}
		if rowEmpty || colEmpty {
			return i
		}
	}
	return 0
}
