package matrix

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// divider stamps a 10V source on node 1 and two 1k resistors 1-2, 2-0.
func divider(t *testing.T, backend Backend) *System {
	t.Helper()

	b := NewBuilder[float64](3)
	k, err := b.AddVariable()
	require.NoError(t, err)
	require.Equal(t, 3, k)

	sys := b.Build(backend)
	g := 1e-3
	stamps := []struct {
		r, c int
		v    float64
	}{
		{1, 1, g}, {1, 2, -g}, {2, 1, -g}, {2, 2, g},
		{2, 2, g}, {2, 0, -g}, {0, 2, -g}, {0, 0, g},
		{k, 1, 1}, {1, k, 1},
	}
	for _, s := range stamps {
		require.NoError(t, sys.AddMatrixEntry(s.r, s.c, s.v))
	}
	require.NoError(t, sys.AddRightHandSideEntry(k, 10))
	return sys
}

func TestSystemSolveDivider(t *testing.T) {
	for _, backend := range []Backend{Dense, Sparse} {
		t.Run(backend.String(), func(t *testing.T) {
			sys := divider(t, backend)

			x, err := sys.Solve()
			require.NoError(t, err)
			require.Len(t, x, 4)

			assert.Equal(t, 0.0, x[0])
			assert.InDelta(t, 10.0, x[1], 1e-12)
			assert.InDelta(t, 5.0, x[2], 1e-12)
			assert.InDelta(t, -5e-3, x[3], 1e-15)
		})
	}
}

func TestSystemAccumulatesAndDropsGround(t *testing.T) {
	sys := NewBuilder[float64](2).Build(Dense)

	require.NoError(t, sys.AddMatrixEntry(1, 1, 0.5))
	require.NoError(t, sys.AddMatrixEntry(1, 1, 0.25))
	require.NoError(t, sys.AddMatrixEntry(0, 1, 7))
	require.NoError(t, sys.AddRightHandSideEntry(0, 3))

	assert.Equal(t, 0.75, sys.Entry(1, 1))
	assert.Equal(t, 0.0, sys.Entry(0, 1))
	assert.Equal(t, 0.0, sys.RHS(0))
}

func TestSystemRejectsBadInput(t *testing.T) {
	sys := NewBuilder[float64](2).Build(Dense)

	var idx *IndexError
	require.ErrorAs(t, sys.AddMatrixEntry(2, 0, 1), &idx)
	require.ErrorAs(t, sys.AddRightHandSideEntry(-1, 1), &idx)

	err := sys.AddMatrixEntry(1, 1, math.NaN())
	assert.ErrorIs(t, err, ErrNaN)
	err = sys.AddRightHandSideEntry(1, math.Inf(1))
	assert.ErrorIs(t, err, ErrNaN)
	assert.Equal(t, 0.0, sys.Entry(1, 1))
	assert.Equal(t, 0.0, sys.RHS(1))
}

func TestSystemFreezeLifecycle(t *testing.T) {
	b := NewBuilder[float64](2)
	sys := b.Build(Dense)

	_, err := b.AddVariable()
	assert.ErrorIs(t, err, ErrFrozen)

	require.NoError(t, sys.AddMatrixEntry(1, 1, 2))
	require.NoError(t, sys.AddRightHandSideEntry(1, 4))
	x, err := sys.Solve()
	require.NoError(t, err)
	assert.Equal(t, 2.0, x[1])
	assert.True(t, sys.Solved())

	assert.ErrorIs(t, sys.AddMatrixEntry(1, 1, 1), ErrFrozen)
	assert.ErrorIs(t, sys.AddRightHandSideEntry(1, 1), ErrFrozen)

	sys.Clear()
	assert.False(t, sys.Solved())
	assert.Equal(t, 0.0, sys.Entry(1, 1))
	require.NoError(t, sys.AddMatrixEntry(1, 1, 1))
}

func TestSystemSingular(t *testing.T) {
	for _, backend := range []Backend{Dense, Sparse} {
		t.Run(backend.String(), func(t *testing.T) {
			sys := NewBuilder[float64](3).Build(backend)
			require.NoError(t, sys.AddMatrixEntry(1, 1, 1))
			require.NoError(t, sys.AddRightHandSideEntry(1, 1))

			_, err := sys.Solve()
			var singular *SingularMatrixError
			require.ErrorAs(t, err, &singular)
			assert.Equal(t, 2, singular.Column)
		})
	}
}

func TestSystemOverflowInSolution(t *testing.T) {
	for _, backend := range []Backend{Dense, Sparse} {
		t.Run(backend.String(), func(t *testing.T) {
			sys := NewBuilder[float64](3).Build(backend)
			require.NoError(t, sys.AddMatrixEntry(1, 1, 1))
			require.NoError(t, sys.AddMatrixEntry(2, 2, 1e-20))
			require.NoError(t, sys.AddRightHandSideEntry(1, 1))
			require.NoError(t, sys.AddRightHandSideEntry(2, 1e300))

			_, err := sys.Solve()
			var nan *NaNInSolutionError
			require.ErrorAs(t, err, &nan)
			assert.Equal(t, 2, nan.Index)
			assert.ErrorIs(t, err, ErrNaN)
			assert.False(t, sys.Solved())
		})
	}
}

func TestSystemBindEquivalent(t *testing.T) {
	b := NewBuilder[float64](3)
	k, err := b.AddVariable()
	require.NoError(t, err)
	sys := b.Build(Dense)

	// 1A into node 1, 2 ohm from node 2 to ground, nodes 1 and 2 bound
	require.NoError(t, sys.AddRightHandSideEntry(1, 1))
	require.NoError(t, sys.AddMatrixEntry(2, 2, 0.5))
	require.NoError(t, sys.BindEquivalent(1, 2, k))

	x, err := sys.Solve()
	require.NoError(t, err)
	assert.InDelta(t, 2.0, x[1], 1e-12)
	assert.InDelta(t, x[1], x[2], 1e-12)
	assert.InDelta(t, 1.0, x[k], 1e-12)
}

func TestSystemFloat32(t *testing.T) {
	sys := NewBuilder[float32](2).Build(Dense)
	require.NoError(t, sys.AddMatrixEntry(1, 1, 4))
	require.NoError(t, sys.AddRightHandSideEntry(1, 2))

	x, err := sys.Solve()
	require.NoError(t, err)
	assert.Equal(t, float32(0.5), x[1])
}

func TestSystemDump(t *testing.T) {
	sys := divider(t, Dense)

	var buf bytes.Buffer
	sys.Dump(&buf)
	assert.Contains(t, buf.String(), "Equation 3:  +1*x1 = 10")
}

func TestParseBackend(t *testing.T) {
	b, err := ParseBackend("sparse")
	require.NoError(t, err)
	assert.Equal(t, Sparse, b)

	b, err = ParseBackend("")
	require.NoError(t, err)
	assert.Equal(t, Dense, b)

	_, err = ParseBackend("lu")
	assert.Error(t, err)
}
