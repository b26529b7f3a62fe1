package circuit

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edp1096/spicesim/pkg/device"
)

func TestNodes(t *testing.T) {
	c := New("nodes")
	assert.Equal(t, 0, c.AddNode("gnd"))
	assert.Equal(t, 0, c.AddNode("0"))
	assert.Equal(t, 1, c.AddNode("in"))
	assert.Equal(t, 2, c.AddNode("out"))
	assert.Equal(t, 1, c.AddNode("in"))
	assert.Equal(t, 3, c.NodeCount())

	idx, ok := c.Node("out")
	require.True(t, ok)
	assert.Equal(t, 2, idx)
	_, ok = c.Node("missing")
	assert.False(t, ok)
	assert.Equal(t, "in", c.NodeName(1))
	assert.Equal(t, "", c.NodeName(7))

	// numeric nodes past the count are created on Add
	require.NoError(t, c.Add(device.NewResistor("R1", 2, 5, 1e3)))
	assert.Equal(t, 6, c.NodeCount())
	assert.Equal(t, "5", c.NodeName(5))
}

func TestAddRejects(t *testing.T) {
	c := New("add")
	require.NoError(t, c.Add(device.NewResistor("R1", 1, 0, 1)))
	assert.Error(t, c.Add(device.NewResistor("R1", 1, 0, 1)))
	assert.Error(t, c.Add(device.NewResistor("", 1, 0, 1)))
	assert.Error(t, c.Add(device.NewResistor("R2", -1, 0, 1)))
	assert.Error(t, c.Add(nil))

	def := &device.SubcircuitDefinition{Name: "pair", Terminals: 2}
	assert.Error(t, c.Add(device.NewSubcircuit("X1", def, 1)))
	assert.Len(t, c.Devices(), 1)
}

func TestInitialVoltages(t *testing.T) {
	c := New("ic").MustAdd(device.NewResistor("R1", 1, 0, 1))
	require.NoError(t, c.SetInitialVoltage(1, 2.5))
	assert.Error(t, c.SetInitialVoltage(0, 1))
	assert.Error(t, c.SetInitialVoltage(4, 1))

	got := c.InitialVoltages()
	assert.Equal(t, map[int]float64{1: 2.5}, got)
	got[1] = 0
	assert.Equal(t, 2.5, c.InitialVoltages()[1])
}

// divider: R from port 1 to the internal node, R from the internal node to port 2.
func divider() *device.SubcircuitDefinition {
	return &device.SubcircuitDefinition{
		Name:          "divider",
		Terminals:     2,
		InternalNodes: 1,
		Devices: []device.Definition{
			device.NewResistor("RA", 1, 3, 1),
			device.NewResistor("RB", 3, 2, 1),
		},
	}
}

func TestExpandNumbersInternalNodesDepthFirst(t *testing.T) {
	outer := &device.SubcircuitDefinition{
		Name:          "outer",
		Terminals:     1,
		InternalNodes: 1,
		Devices: []device.Definition{
			device.NewSubcircuit("XI", divider(), 1, 2),
			device.NewResistor("RO", 2, 0, 1),
		},
	}
	c := New("expand").MustAdd(
		device.NewDCVoltageSource("V1", 1, 0, 1),
		device.NewSubcircuit("X1", outer, 1),
		device.NewSubcircuit("X2", divider(), 1, 0),
	)

	devs, count, err := c.Expand()
	require.NoError(t, err)
	// X1 internal 2, X1.XI internal 3, X2 internal 4
	assert.Equal(t, 5, count)

	var names []string
	for _, d := range devs {
		names = append(names, d.GetName())
	}
	assert.Equal(t, []string{"V1", "X1.XI.RA", "X1.XI.RB", "X1.RO", "X2.RA", "X2.RB"}, names)
	assert.Equal(t, []int{1, 3}, devs[1].GetNodes())
	assert.Equal(t, []int{3, 2}, devs[2].GetNodes())
	assert.Equal(t, []int{2, 0}, devs[3].GetNodes())
	assert.Equal(t, []int{1, 4}, devs[4].GetNodes())

	// the circuit's own definitions are untouched
	assert.Equal(t, 2, c.NodeCount())
	require.NoError(t, c.Validate())
}

func TestValidateAcceptsLadder(t *testing.T) {
	c := New("ladder").MustAdd(
		device.NewDCVoltageSource("V1", 1, 0, 33),
		device.NewResistor("R1", 1, 2, 1),
		device.NewResistor("R2", 2, 0, 1),
		device.NewCapacitor("C1", 2, 0, 1e-6),
		device.NewInductor("L1", 2, 3, 1e-3),
		device.NewResistor("R3", 3, 0, 1),
		device.NewDCCurrentSource("I1", 0, 3, 1),
	)
	assert.NoError(t, c.Validate())
}

func TestVoltageSourceLoop(t *testing.T) {
	c := New("loop").MustAdd(
		device.NewDCVoltageSource("V1", 1, 0, 1),
		device.NewDCVoltageSource("V2", 1, 0, 2),
	)
	var cycle *VoltageBranchCycleError
	require.ErrorAs(t, c.Validate(), &cycle)
	assert.ElementsMatch(t, []string{"V1", "V2"}, cycle.Devices)
	assert.True(t, errors.Is(cycle, ErrTopology))
}

func TestVoltageLoopThroughInductors(t *testing.T) {
	c := New("loop").MustAdd(
		device.NewDCVoltageSource("V1", 1, 0, 1),
		device.NewInductor("L1", 1, 2, 1e-3),
		device.NewResistor("R1", 2, 3, 1),
		device.NewInductor("L2", 2, 0, 1e-3),
		device.NewResistor("R2", 3, 0, 1),
	)
	var cycle *VoltageBranchCycleError
	require.ErrorAs(t, c.Validate(), &cycle)
	assert.ElementsMatch(t, []string{"V1", "L1", "L2"}, cycle.Devices)
}

func TestShortedVoltageSource(t *testing.T) {
	c := New("short").MustAdd(
		device.NewResistor("R1", 1, 0, 1),
		device.NewDCVoltageSource("V1", 1, 1, 1),
	)
	var cycle *VoltageBranchCycleError
	require.ErrorAs(t, c.Validate(), &cycle)
	assert.Equal(t, []string{"V1"}, cycle.Devices)
}

func TestCurrentSourcesInSeries(t *testing.T) {
	c := New("cutset").MustAdd(
		device.NewDCCurrentSource("I1", 0, 1, 1),
		device.NewDCCurrentSource("I2", 1, 2, 1),
		device.NewResistor("R1", 2, 0, 1),
	)
	var cut *CurrentBranchCutsetError
	require.ErrorAs(t, c.Validate(), &cut)
	assert.Equal(t, []int{1}, cut.Nodes)
	assert.Equal(t, []string{"I1", "I2"}, cut.Devices)
}

func TestSeriesCapacitorsFloat(t *testing.T) {
	c := New("caps").MustAdd(
		device.NewDCVoltageSource("V1", 1, 0, 1),
		device.NewCapacitor("C1", 1, 2, 1e-6),
		device.NewCapacitor("C2", 2, 0, 1e-6),
	)
	var cut *CurrentBranchCutsetError
	require.ErrorAs(t, c.Validate(), &cut)
	assert.Equal(t, []int{2}, cut.Nodes)
}

func TestNoDcPathToGround(t *testing.T) {
	c := New("floating").MustAdd(
		device.NewDCVoltageSource("V1", 1, 0, 1),
		device.NewResistor("R1", 1, 0, 1),
		device.NewResistor("R2", 2, 3, 1),
	)
	var np *NoDcPathToGroundError
	require.ErrorAs(t, c.Validate(), &np)
	assert.Equal(t, []int{2, 3}, np.Nodes)
}

func TestDisconnectedSubcircuit(t *testing.T) {
	def := &device.SubcircuitDefinition{
		Name:      "split",
		Terminals: 4,
		Devices: []device.Definition{
			device.NewResistor("RA", 1, 2, 1),
			device.NewResistor("RB", 3, 4, 1),
		},
	}
	c := New("split").MustAdd(
		device.NewDCVoltageSource("V1", 1, 0, 1),
		device.NewResistor("R1", 2, 3, 1),
		device.NewResistor("R2", 4, 0, 1),
		device.NewSubcircuit("X1", def, 1, 2, 3, 4),
	)
	var nc *NotConnectedSubcircuitError
	require.ErrorAs(t, c.Validate(), &nc)
	assert.Equal(t, "X1", nc.Tag)
	assert.Equal(t, [][]int{{1, 2}, {3, 4}}, nc.Partitions)
}

func TestSubcircuitJoinedThroughGround(t *testing.T) {
	def := &device.SubcircuitDefinition{
		Name:      "shunts",
		Terminals: 2,
		Devices: []device.Definition{
			device.NewResistor("RA", 1, 0, 1),
			device.NewResistor("RB", 2, 0, 1),
		},
	}
	c := New("shunts").MustAdd(
		device.NewDCVoltageSource("V1", 1, 0, 1),
		device.NewResistor("R1", 1, 2, 1),
		device.NewSubcircuit("X1", def, 1, 2),
	)
	assert.NoError(t, c.Validate())
}

func TestUnknownReference(t *testing.T) {
	c := New("ref").MustAdd(
		device.NewDCVoltageSource("V1", 1, 0, 1),
		device.NewResistor("R1", 1, 0, 1),
		device.NewCCCS("F1", 2, 0, "R1", 2),
		device.NewResistor("R2", 2, 0, 1),
	)
	var ref *UnknownReferenceError
	require.ErrorAs(t, c.Validate(), &ref)
	assert.Equal(t, "F1", ref.Device)
	assert.Equal(t, "R1", ref.Reference)

	ok := New("ref").MustAdd(
		device.NewDCVoltageSource("V1", 1, 0, 1),
		device.NewResistor("R1", 1, 0, 1),
		device.NewCCCS("F1", 2, 0, "V1", 2),
		device.NewResistor("R2", 2, 0, 1),
	)
	assert.NoError(t, ok.Validate())
}

func TestWithDevice(t *testing.T) {
	c := New("swap").MustAdd(
		device.NewDCVoltageSource("V1", 1, 0, 1),
		device.NewResistor("R1", 1, 0, 1),
	)
	require.NoError(t, c.SetInitialVoltage(1, 0.5))

	swapped, err := c.WithDevice(device.NewDCVoltageSource("V1", 1, 0, 5))
	require.NoError(t, err)
	assert.Equal(t, 5.0, swapped.Devices()[0].(*device.VoltageSource).GetVoltage(0))
	assert.Equal(t, 1.0, c.Devices()[0].(*device.VoltageSource).GetVoltage(0))
	assert.Equal(t, 0.5, swapped.InitialVoltages()[1])

	_, err = c.WithDevice(device.NewResistor("R9", 1, 0, 1))
	assert.Error(t, err)
	_, err = c.WithDevice(device.NewResistor("R1", 1, 7, 1))
	assert.Error(t, err)
}
