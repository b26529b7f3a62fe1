// Package device holds the immutable device definitions a circuit is built
// from. Definitions carry resolved node indices (0 is ground) and static
// parameters only; per-analysis state lives in pkg/model.
package device

type Kind string

const (
	KindResistor      Kind = "R"
	KindCapacitor     Kind = "C"
	KindInductor      Kind = "L"
	KindVoltageSource Kind = "V"
	KindCurrentSource Kind = "I"
	KindDiode         Kind = "D"
	KindBjt           Kind = "Q"
	KindVCVS          Kind = "E"
	KindVCCS          Kind = "G"
	KindCCCS          Kind = "F"
	KindCCVS          Kind = "H"
	KindSubcircuit    Kind = "X"
)

// BranchKind tags a device branch for the topology checks.
type BranchKind int

const (
	Resistive BranchKind = iota
	VoltageDefined
	CurrentDefined
)

func (k BranchKind) String() string {
	switch k {
	case VoltageDefined:
		return "voltage"
	case CurrentDefined:
		return "current"
	default:
		return "resistive"
	}
}

type Branch struct {
	A, B int
	Kind BranchKind
}

type Definition interface {
	GetName() string
	GetType() Kind
	GetNodes() []int
	// Branches lists the terminal pairs the device connects at DC.
	// Controlling terminals are not branches.
	Branches() []Branch
	// Clone returns a deep copy sharing no mutable memory with the receiver.
	Clone() Definition
	Base() *BaseDevice
}

// CurrentControlled is implemented by devices that read the branch current
// of another device.
type CurrentControlled interface {
	Definition
	Reference() string
}

type BaseDevice struct {
	Name  string
	Nodes []int
	Value float64
}

func (d *BaseDevice) GetName() string { return d.Name }

func (d *BaseDevice) GetNodes() []int { return d.Nodes }

func (d *BaseDevice) GetValue() float64 { return d.Value }

func (d *BaseDevice) Base() *BaseDevice { return d }

func (d BaseDevice) clone() BaseDevice {
	d.Nodes = append([]int(nil), d.Nodes...)
	return d
}

func newBase(name string, value float64, nodes ...int) BaseDevice {
	return BaseDevice{Name: name, Value: value, Nodes: nodes}
}

// Rebind clones d with a new name and node list.
func Rebind(d Definition, name string, nodes []int) Definition {
	c := d.Clone()
	b := c.Base()
	b.Name = name
	b.Nodes = append([]int(nil), nodes...)
	return c
}

func twoTerminal(d *BaseDevice, kind BranchKind) []Branch {
	return []Branch{{A: d.Nodes[0], B: d.Nodes[1], Kind: kind}}
}
