package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edp1096/spicesim/internal/config"
	"github.com/edp1096/spicesim/pkg/circuit"
	"github.com/edp1096/spicesim/pkg/device"
)

func run(t *testing.T, a Analysis, ckt *circuit.Circuit) map[string][]float64 {
	t.Helper()
	require.NoError(t, a.Setup(ckt))
	require.NoError(t, a.Execute())
	return a.GetResults()
}

func TestOperatingPointResults(t *testing.T) {
	ckt := circuit.New("divider")
	in, out := ckt.AddNode("in"), ckt.AddNode("out")
	ckt.MustAdd(
		device.NewDCVoltageSource("V1", in, 0, 10),
		device.NewResistor("R1", in, out, 3e3),
		device.NewResistor("R2", out, 0, 1e3),
	)

	res := run(t, NewOP(), ckt)
	assert.InDelta(t, 10, res["V(in)"][0], 1e-12)
	assert.InDelta(t, 2.5, res["V(out)"][0], 1e-12)
	assert.InDelta(t, 2.5e-3, res["I(R1)"][0], 1e-15)
	assert.InDelta(t, -2.5e-3, res["I(V1)"][0], 1e-15)
	assert.Equal(t, []string{"V(in)", "V(out)", "I(R1)", "I(R2)", "I(V1)"}, Names(res))
}

func TestOperatingPointNeedsSetup(t *testing.T) {
	assert.Error(t, NewOP().Execute())
	assert.Error(t, NewTransient(0, 1e-3, 1e-4, 0, false).Execute())
	assert.Error(t, NewDCSweep("V1", 0, 1, 0.1).Execute())
}

func TestTransientPulseIntoRC(t *testing.T) {
	ckt := circuit.New("rc").MustAdd(
		device.NewPulseVoltageSource("V1", 1, 0, 0, 1, 0, 1e-9, 1e-9, 1, 2),
		device.NewResistor("R1", 1, 2, 1e3),
		device.NewCapacitor("C1", 2, 0, 1e-6),
	)
	cfg := config.Default()
	tr := NewTransient(0, 2e-3, 1e-4, 1e-6, false, WithConfig(cfg))
	res := run(t, tr, ckt)

	times := res["TIME"]
	require.Len(t, times, 21)
	assert.Zero(t, times[0])
	assert.InDelta(t, 2e-3, times[20], 1e-15)
	require.Len(t, res["V(2)"], 21)

	assert.InDelta(t, 0, res["V(2)"][0], 1e-12)
	assert.InDelta(t, 1-math.Exp(-1), res["V(2)"][10], 2e-3)
	assert.InDelta(t, 1-math.Exp(-2), res["V(2)"][20], 2e-3)
	// capacitor current is what flows through the resistor
	assert.InDelta(t, res["I(R1)"][20], res["I(C1)"][20], 1e-9)
}

func TestTransientStartTimeAndUIC(t *testing.T) {
	ckt := circuit.New("rc").MustAdd(
		device.NewDCVoltageSource("V1", 1, 0, 1),
		device.NewResistor("R1", 1, 2, 1e3),
		device.NewCapacitor("C1", 2, 0, 1e-6).WithInitialVoltage(0),
	)
	tr := NewTransient(5e-4, 1e-3, 1e-4, 1e-6, true)
	res := run(t, tr, ckt)

	times := res["TIME"]
	require.Len(t, times, 6)
	assert.InDelta(t, 5e-4, times[0], 1e-15)
	assert.InDelta(t, 1-math.Exp(-0.5), res["V(2)"][0], 2e-3)
	assert.InDelta(t, 1e-3, tr.Model.CurrentTimePoint(), 1e-15)
}

func TestTransientRejectsBadTimes(t *testing.T) {
	for _, tr := range []*Transient{
		NewTransient(0, 1e-3, 0, 0, false),
		NewTransient(0, 0, 1e-4, 0, false),
		NewTransient(2e-3, 1e-3, 1e-4, 0, false),
	} {
		assert.Error(t, tr.Setup(ladder()))
	}
}

func TestStoreTimeResultSkipsDuplicates(t *testing.T) {
	a := NewBaseAnalysis()
	a.StoreTimeResult(2e-5, map[string]float64{"V(1)": 1})
	a.StoreTimeResult(1.9999999e-5, map[string]float64{"V(1)": 2})
	a.StoreTimeResult(3e-5, map[string]float64{"V(1)": 3})
	assert.Equal(t, []float64{2e-5, 3e-5}, a.GetResults()["TIME"])
	assert.Equal(t, []float64{1, 3}, a.GetResults()["V(1)"])
}

func TestDCSweepDiode(t *testing.T) {
	sweep := NewDCSweep("V1", 0, 2, 0.5)
	res := run(t, sweep, diodeClamp())

	assert.Equal(t, []float64{0, 0.5, 1, 1.5, 2}, res["SWEEP"])
	vd := res["V(2)"]
	require.Len(t, vd, 5)
	assert.InDelta(t, 0, vd[0], 1e-9)
	for i := 1; i < len(vd); i++ {
		assert.Greater(t, vd[i], vd[i-1])
	}
	assert.Less(t, vd[4], 0.8)
	// the swept circuit is a copy
	assert.Equal(t, 5.0, diodeClamp().Devices()[0].(*device.VoltageSource).GetVoltage(0))
}

func TestDCSweepErrors(t *testing.T) {
	assert.Error(t, NewDCSweep("V9", 0, 1, 0.5).Setup(ladder()))
	assert.Error(t, NewDCSweep("R1", 0, 1, 0.5).Setup(ladder()))
	assert.Error(t, NewDCSweep("V1", 0, 1, 0).Setup(ladder()))
	assert.Error(t, NewDCSweep("V1", 1, 0, 0.5).Setup(ladder()))
}
