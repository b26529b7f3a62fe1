package device

import "fmt"

// SubcircuitDefinition is a reusable device group. Inside it node 0 is the
// global ground, 1..Terminals are the ports and the following InternalNodes
// indices are private to each instance.
type SubcircuitDefinition struct {
	Name          string
	Terminals     int
	InternalNodes int
	Devices       []Definition
}

func (s *SubcircuitDefinition) nodeLimit() int { return s.Terminals + s.InternalNodes }

// Check verifies that every inner device stays within the declared nodes.
func (s *SubcircuitDefinition) Check() error {
	seen := make(map[string]bool, len(s.Devices))
	for _, d := range s.Devices {
		if seen[d.GetName()] {
			return fmt.Errorf("subcircuit %s: duplicate device %s", s.Name, d.GetName())
		}
		seen[d.GetName()] = true
		for _, n := range d.GetNodes() {
			if n < 0 || n > s.nodeLimit() {
				return fmt.Errorf("subcircuit %s: device %s uses node %d outside [0,%d]",
					s.Name, d.GetName(), n, s.nodeLimit())
			}
		}
	}
	return nil
}

type Subcircuit struct {
	BaseDevice
	Def *SubcircuitDefinition
}

// NewSubcircuit instantiates def with its ports bound to terminals.
func NewSubcircuit(name string, def *SubcircuitDefinition, terminals ...int) *Subcircuit {
	return &Subcircuit{BaseDevice: newBase(name, 0, terminals...), Def: def}
}

func (x *Subcircuit) GetType() Kind { return KindSubcircuit }

// Branches is empty; the topology checks work on the expanded devices.
func (x *Subcircuit) Branches() []Branch { return nil }

// Clone copies the instance. The definition is shared; Instantiate clones
// its devices.
func (x *Subcircuit) Clone() Definition {
	return &Subcircuit{BaseDevice: x.BaseDevice.clone(), Def: x.Def}
}

// Instantiate returns deep copies of the inner devices with nodes mapped into
// the parent numbering and names prefixed by the instance name. Internal nodes
// are taken from alloc. Nested subcircuits are returned unexpanded.
func (x *Subcircuit) Instantiate(alloc *NodeAllocator) ([]Definition, []int, error) {
	if x.Def == nil {
		return nil, nil, fmt.Errorf("subcircuit %s: no definition", x.Name)
	}
	if len(x.Nodes) != x.Def.Terminals {
		return nil, nil, fmt.Errorf("subcircuit %s: %s has %d terminals, %d connected",
			x.Name, x.Def.Name, x.Def.Terminals, len(x.Nodes))
	}
	if err := x.Def.Check(); err != nil {
		return nil, nil, err
	}

	internal := make([]int, x.Def.InternalNodes)
	if x.Def.InternalNodes > 0 {
		first := alloc.Allocate(x.Def.InternalNodes)
		for i := range internal {
			internal[i] = first + i
		}
	}

	mapNode := func(n int) int {
		switch {
		case n == 0:
			return 0
		case n <= x.Def.Terminals:
			return x.Nodes[n-1]
		default:
			return internal[n-x.Def.Terminals-1]
		}
	}

	prefix := x.Name + "."
	devices := make([]Definition, 0, len(x.Def.Devices))
	for _, inner := range x.Def.Devices {
		nodes := make([]int, len(inner.GetNodes()))
		for i, n := range inner.GetNodes() {
			nodes[i] = mapNode(n)
		}
		d := Rebind(inner, prefix+inner.GetName(), nodes)
		rescope(d, prefix)
		devices = append(devices, d)
	}
	return devices, internal, nil
}

// NodeAllocator hands out contiguous node ranges after the top level nodes.
type NodeAllocator struct {
	next int
}

func NewNodeAllocator(nodeCount int) *NodeAllocator {
	return &NodeAllocator{next: max(nodeCount, 1)}
}

// Allocate reserves n nodes and returns the first index.
func (a *NodeAllocator) Allocate(n int) int {
	first := a.next
	a.next += n
	return first
}

// NodeCount is the total node count including ground.
func (a *NodeAllocator) NodeCount() int { return a.next }
