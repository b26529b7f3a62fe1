package netlist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edp1096/spicesim/pkg/device"
)

func TestParseValue(t *testing.T) {
	cases := map[string]float64{
		"1":      1,
		"-2.5":   -2.5,
		".5":     0.5,
		"1e-3":   1e-3,
		"4.7k":   4.7e3,
		"4.7K":   4.7e3,
		"1MEG":   1e6,
		"1meg":   1e6,
		"1M":     1e-3,
		"5n":     5e-9,
		"10uF":   10e-6,
		"100p":   100e-12,
		"2G":     2e9,
		"3T":     3e12,
		"1f":     1e-15,
		"10V":    10,
		" 33 ":   33,
		"1.5e3k": 1.5e6,
	}
	for in, want := range cases {
		got, err := ParseValue(in)
		require.NoError(t, err, in)
		assert.InEpsilon(t, want, got, 1e-12, in)
	}

	for _, bad := range []string{"", "k", "abc", "1.2.3", "--1"} {
		_, err := ParseValue(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseWaveform(t *testing.T) {
	w, err := ParseWaveform("5")
	require.NoError(t, err)
	assert.Equal(t, device.DCWave(5), w)

	w, err = ParseWaveform("DC 3.3")
	require.NoError(t, err)
	assert.Equal(t, device.DCWave(3.3), w)

	w, err = ParseWaveform("SIN(0 1 1k)")
	require.NoError(t, err)
	assert.Equal(t, device.SinWave(0, 1, 1e3, 0), w)

	w, err = ParseWaveform("sin(0.5 2 60 90)")
	require.NoError(t, err)
	assert.Equal(t, device.SinWave(0.5, 2, 60, 90), w)

	w, err = ParseWaveform("PULSE(0 1 0 1n 1n 5u 10u)")
	require.NoError(t, err)
	assert.Equal(t, device.PULSE, w.Type)
	assert.InDelta(t, 1e-9, w.Rise, 1e-21)
	assert.InDelta(t, 5e-6, w.PWidth, 1e-18)
	assert.InDelta(t, 10e-6, w.Period, 1e-18)

	w, err = ParseWaveform("PWL(0 0, 1m 1, 2m 0)")
	require.NoError(t, err)
	assert.Equal(t, device.PWL, w.Type)
	assert.Equal(t, []float64{0, 1, 0}, w.Values)
	assert.InDelta(t, 2e-3, w.Times[2], 1e-15)
}

func TestParseWaveformErrors(t *testing.T) {
	for _, bad := range []string{
		"SIN(0 1)",
		"PULSE(0 1 0)",
		"PWL(0 0 1m)",
		"PWL(1m 0 0 1)",
		"SIN(0 1 1k",
		"TRI(0 1)",
		"DC",
		"DC x",
	} {
		_, err := ParseWaveform(bad)
		assert.Error(t, err, bad)
	}
}
