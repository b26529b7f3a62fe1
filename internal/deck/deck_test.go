package deck

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edp1096/spicesim/internal/config"
	"github.com/edp1096/spicesim/pkg/analysis"
	"github.com/edp1096/spicesim/pkg/device"
)

const dividerDeck = `
title: divider
options:
  reltol: 1e-4
devices:
  - {name: V1, type: V, nodes: [in, 0], value: 10}
  - {name: R1, type: R, nodes: [in, out], value: 3k}
  - {name: R2, type: R, nodes: [out, gnd], value: 1k}
  - {name: C1, type: C, nodes: [out, 0], value: 5n, ic: 0.5}
  - {name: RB, type: R, nodes: [out, 0], value: 1MEG}
ic:
  out: 2.5
analysis:
  op: true
  tran: {stop: 1m, step: 10u, max: 1u, uic: true}
`

func TestParseDivider(t *testing.T) {
	d, err := Parse([]byte(dividerDeck))
	require.NoError(t, err)

	want := config.Default()
	want.RelTol = 1e-4
	assert.Equal(t, want, d.Options)

	assert.True(t, d.Analysis.OP)
	require.NotNil(t, d.Analysis.Tran)
	assert.InDelta(t, 1e-3, float64(d.Analysis.Tran.Stop), 1e-15)
	assert.InDelta(t, 10e-6, float64(d.Analysis.Tran.Step), 1e-18)
	assert.True(t, d.Analysis.Tran.UIC)
	assert.Nil(t, d.Analysis.DC)

	ckt, err := d.Circuit()
	require.NoError(t, err)
	assert.Equal(t, "divider", ckt.Name())
	assert.Equal(t, 3, ckt.NodeCount())
	assert.Equal(t, map[int]float64{2: 2.5}, ckt.InitialVoltages())

	devs := ckt.Devices()
	require.Len(t, devs, 5)
	assert.Equal(t, []int{1, 2}, devs[1].GetNodes())
	assert.Equal(t, []int{2, 0}, devs[2].GetNodes())
	assert.InDelta(t, 3e3, devs[1].Base().Value, 1e-9)
	assert.InDelta(t, 5e-9, devs[3].Base().Value, 1e-21)
	assert.InDelta(t, 1e6, devs[4].Base().Value, 1e-6)
	c := devs[3].(*device.Capacitor)
	require.NotNil(t, c.InitialVoltage)
	assert.Equal(t, 0.5, *c.InitialVoltage)

	op := analysis.NewOP(analysis.WithConfig(d.Options))
	require.NoError(t, op.Setup(ckt))
	require.NoError(t, op.Execute())
	// 1k in parallel with 1MEG
	rp := 1e3 * 1e6 / (1e3 + 1e6)
	assert.InDelta(t, 10*rp/(3e3+rp), op.GetResults()["V(out)"][0], 1e-9)
}

func TestSubcircuits(t *testing.T) {
	d, err := Parse([]byte(`
models:
  dfast: {type: D, params: {IS: 1e-15, n: 1.5}}
subcircuits:
  half:
    ports: [a, b]
    devices:
      - {name: RA, type: R, nodes: [a, mid], value: 1k}
      - {name: RB, type: R, nodes: [mid, b], value: 1k}
  clamp:
    ports: [a]
    devices:
      - {name: XH, type: X, nodes: [a, k], subckt: half}
      - {name: D1, type: D, nodes: [k, 0], model: dfast}
devices:
  - {name: V1, type: V, nodes: [1, 0], wave: "SIN(0 1 1k)"}
  - {name: X1, type: X, nodes: [1], subckt: clamp}
  - {name: X2, type: X, nodes: [1, 0], subckt: half}
`))
	require.NoError(t, err)
	ckt, err := d.Circuit()
	require.NoError(t, err)

	devs := ckt.Devices()
	require.Len(t, devs, 3)
	v := devs[0].(*device.VoltageSource)
	assert.Equal(t, device.SIN, v.Wave.Type)

	clamp := devs[1].(*device.Subcircuit).Def
	assert.Equal(t, 1, clamp.Terminals)
	assert.Equal(t, 1, clamp.InternalNodes)
	half := devs[2].(*device.Subcircuit).Def
	assert.Same(t, half, clamp.Devices[0].(*device.Subcircuit).Def)
	assert.Equal(t, 1, half.InternalNodes)
	assert.Equal(t, []int{1, 3}, half.Devices[0].GetNodes())

	diode := clamp.Devices[1].(*device.Diode)
	assert.Equal(t, 1e-15, diode.Is)
	assert.Equal(t, 1.5, diode.N)

	flat, count, err := ckt.Expand()
	require.NoError(t, err)
	assert.Len(t, flat, 6)
	// X1 internal k, X1.XH internal mid, X2 internal mid
	assert.Equal(t, 5, count)
	require.NoError(t, ckt.Validate())
}

func TestTransistorPolarityFromModel(t *testing.T) {
	d, err := Parse([]byte(`
models:
  qp: {type: PNP, params: {bf: 50}}
devices:
  - {name: V1, type: V, nodes: [e, 0], value: 5}
  - {name: Q1, type: Q, nodes: [c, b, e], model: qp}
  - {name: Q2, type: Q, nodes: [c, b, e]}
  - {name: RB, type: R, nodes: [b, 0], value: 100k}
  - {name: RC, type: R, nodes: [c, 0], value: 1k}
`))
	require.NoError(t, err)
	ckt, err := d.Circuit()
	require.NoError(t, err)

	q1 := ckt.Devices()[1].(*device.Bjt)
	assert.Equal(t, device.PNP, q1.Polarity)
	assert.Equal(t, 50.0, q1.Bf)
	q2 := ckt.Devices()[2].(*device.Bjt)
	assert.Equal(t, device.NPN, q2.Polarity)
	assert.Equal(t, 100.0, q2.Bf)
}

func TestControlledSources(t *testing.T) {
	d, err := Parse([]byte(`
devices:
  - {name: V1, type: V, nodes: [1, 0], value: 1}
  - {name: R1, type: R, nodes: [1, 0], value: 1k}
  - {name: F1, type: F, nodes: [0, 2], ref: V1, value: 2}
  - {name: H1, type: H, nodes: [3, 0], ref: V1, value: 1k}
  - {name: E1, type: E, nodes: [4, 0, 1, 0], value: 10}
  - {name: G1, type: G, nodes: [0, 5, 1, 0], value: 1m}
  - {name: R2, type: R, nodes: [2, 0], value: 1k}
  - {name: R3, type: R, nodes: [3, 0], value: 1k}
  - {name: R4, type: R, nodes: [4, 0], value: 1k}
  - {name: R5, type: R, nodes: [5, 0], value: 1k}
`))
	require.NoError(t, err)
	ckt, err := d.Circuit()
	require.NoError(t, err)
	assert.Equal(t, "V1", ckt.Devices()[2].(device.CurrentControlled).Reference())
	assert.IsType(t, &device.VCVS{}, ckt.Devices()[4])
	assert.IsType(t, &device.VCCS{}, ckt.Devices()[5])
	require.NoError(t, ckt.Validate())
}

func TestDeckErrors(t *testing.T) {
	cases := map[string]string{
		"no devices":     `title: empty`,
		"bad type":       `devices: [{name: M1, type: M, nodes: [1, 0]}]`,
		"bad option":     "options: {solver: lu}\ndevices: [{name: R1, type: R, nodes: [1, 0], value: 1}]",
		"bad value":      `devices: [{name: R1, type: R, nodes: [1, 0], value: 1x.5}]`,
		"tran stop":      "analysis: {tran: {stop: 1u, step: 0}}\ndevices: [{name: R1, type: R, nodes: [1, 0], value: 1}]",
		"bad model type": "models: {m: {type: NMOS}}\ndevices: [{name: R1, type: R, nodes: [1, 0], value: 1}]",
	}
	for name, src := range cases {
		_, err := Parse([]byte(src))
		assert.Error(t, err, name)
	}
}

func TestBuildErrors(t *testing.T) {
	cases := map[string]string{
		"node count":     `devices: [{name: R1, type: R, nodes: [1, 2, 0], value: 1}]`,
		"missing value":  `devices: [{name: R1, type: R, nodes: [1, 0]}]`,
		"zero ohm":       `devices: [{name: R1, type: R, nodes: [1, 0], value: 0}]`,
		"value and wave": `devices: [{name: V1, type: V, nodes: [1, 0], value: 1, wave: "DC 1"}]`,
		"bad wave":       `devices: [{name: V1, type: V, nodes: [1, 0], wave: "SIN(1)"}]`,
		"no ref":         `devices: [{name: F1, type: F, nodes: [1, 0], value: 1}]`,
		"unknown model":  `devices: [{name: D1, type: D, nodes: [1, 0], model: nope}]`,
		"model kind":     "models: {q: {type: NPN}}\ndevices: [{name: D1, type: D, nodes: [1, 0], model: q}]",
		"unknown subckt": `devices: [{name: X1, type: X, nodes: [1], subckt: nope}]`,
		"recursive": `
subcircuits:
  loop:
    ports: [a]
    devices: [{name: X, type: X, nodes: [a], subckt: loop}]
devices: [{name: X1, type: X, nodes: [1], subckt: loop}]`,
		"port count": `
subcircuits:
  one:
    ports: [a]
    devices: [{name: R, type: R, nodes: [a, 0], value: 1}]
devices: [{name: X1, type: X, nodes: [1, 2], subckt: one}]`,
		"ground port": `
subcircuits:
  g:
    ports: [gnd]
    devices: [{name: R, type: R, nodes: [gnd, 0], value: 1}]
devices: [{name: X1, type: X, nodes: [1], subckt: g}]`,
		"ic node": "ic: {nowhere: 1}\ndevices: [{name: R1, type: R, nodes: [1, 0], value: 1}]",
		"duplicate": `devices: [{name: R1, type: R, nodes: [1, 0], value: 1}, {name: R1, type: R, nodes: [1, 0], value: 1}]`,
	}
	for name, src := range cases {
		d, err := Parse([]byte(src))
		require.NoError(t, err, name)
		_, err = d.Circuit()
		assert.Error(t, err, name)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deck.yaml")
	require.NoError(t, os.WriteFile(path, []byte(dividerDeck), 0o644))
	d, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "divider", d.Title)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
