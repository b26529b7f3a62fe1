package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edp1096/spicesim/pkg/integration"
	"github.com/edp1096/spicesim/pkg/matrix"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.InDelta(t, 300.15, cfg.Kelvin(), 1e-12)

	newMethod, err := cfg.Integrator()
	require.NoError(t, err)
	assert.Equal(t, 2, newMethod().Order())

	backend, err := cfg.Backend()
	require.NoError(t, err)
	assert.Equal(t, matrix.Dense, backend)
}

func TestParseOverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
reltol: 1e-4
max_dc_iterations: 50
integration:
  method: gear
  order: 3
solver: sparse
`))
	require.NoError(t, err)
	assert.Equal(t, 1e-4, cfg.RelTol)
	assert.Equal(t, 50, cfg.MaxDcPointIterations)
	assert.Equal(t, Default().AbsTol, cfg.AbsTol)
	assert.Equal(t, Default().MaxTimeStep, cfg.MaxTimeStep)

	newMethod, err := cfg.Integrator()
	require.NoError(t, err)
	_, ok := newMethod().(*integration.Gear[float64])
	assert.True(t, ok)

	backend, err := cfg.Backend()
	require.NoError(t, err)
	assert.Equal(t, matrix.Sparse, backend)
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]string{
		"unknown method":  "integration: {method: runge-kutta}",
		"order too high":  "integration: {method: gear, order: 9}",
		"negative abstol": "abstol: -1",
		"reltol of one":   "reltol: 1",
		"zero iterations": "max_dc_iterations: 0",
		"unknown solver":  "solver: klu",
		"zero timestep":   "max_timestep: 0",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sim.yaml")
	require.NoError(t, os.WriteFile(path, []byte("temperature: 50\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.InDelta(t, 323.15, cfg.Kelvin(), 1e-12)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
