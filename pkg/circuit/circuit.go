// Package circuit holds the finalized topology a simulation is built from:
// named nodes, device definitions with resolved node indices and initial
// voltage hints.
package circuit

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/edp1096/spicesim/pkg/device"
)

type Circuit struct {
	name      string
	nodeMap   map[string]int
	nodeNames []string
	devices   []device.Definition
	tags      map[string]bool
	initial   map[int]float64
}

func New(name string) *Circuit {
	return &Circuit{
		name:      name,
		nodeMap:   map[string]int{"0": 0},
		nodeNames: []string{"0"},
		tags:      make(map[string]bool),
		initial:   make(map[int]float64),
	}
}

func (c *Circuit) Name() string { return c.name }

func isGround(name string) bool { return name == "0" || name == "gnd" || name == "GND" }

// AddNode returns the index of name, creating the node on first use.
func (c *Circuit) AddNode(name string) int {
	if isGround(name) {
		return 0
	}
	if idx, ok := c.nodeMap[name]; ok {
		return idx
	}
	idx := len(c.nodeNames)
	c.nodeMap[name] = idx
	c.nodeNames = append(c.nodeNames, name)
	return idx
}

// Node looks up an existing node.
func (c *Circuit) Node(name string) (int, bool) {
	if isGround(name) {
		return 0, true
	}
	idx, ok := c.nodeMap[name]
	return idx, ok
}

// NodeName returns the name of node idx, "" when out of range.
func (c *Circuit) NodeName(idx int) string {
	if idx < 0 || idx >= len(c.nodeNames) {
		return ""
	}
	return c.nodeNames[idx]
}

// NodeCount is the number of top level nodes including ground.
func (c *Circuit) NodeCount() int { return len(c.nodeNames) }

// Add appends a device. Node indices past the current count create nodes
// named after their number.
func (c *Circuit) Add(def device.Definition) error {
	if def == nil {
		return fmt.Errorf("adding device: nil definition")
	}
	name := def.GetName()
	if name == "" {
		return fmt.Errorf("adding %s device: empty name", def.GetType())
	}
	if c.tags[name] {
		return fmt.Errorf("adding device %s: duplicate name", name)
	}
	for _, n := range def.GetNodes() {
		if n < 0 {
			return fmt.Errorf("adding device %s: negative node %d", name, n)
		}
	}
	if x, ok := def.(*device.Subcircuit); ok {
		if x.Def == nil {
			return fmt.Errorf("adding device %s: no subcircuit definition", name)
		}
		if len(x.Nodes) != x.Def.Terminals {
			return fmt.Errorf("adding device %s: %s has %d terminals, %d connected",
				name, x.Def.Name, x.Def.Terminals, len(x.Nodes))
		}
	}
	for _, n := range def.GetNodes() {
		for len(c.nodeNames) <= n {
			c.AddNode(strconv.Itoa(len(c.nodeNames)))
		}
	}
	c.tags[name] = true
	c.devices = append(c.devices, def)
	return nil
}

// MustAdd is Add for statically known circuits; it panics on error.
func (c *Circuit) MustAdd(defs ...device.Definition) *Circuit {
	for _, d := range defs {
		if err := c.Add(d); err != nil {
			panic(err)
		}
	}
	return c
}

func (c *Circuit) Devices() []device.Definition { return c.devices }

// WithDevice returns a copy of the circuit with the device named like def
// replaced by def.
func (c *Circuit) WithDevice(def device.Definition) (*Circuit, error) {
	out := &Circuit{
		name:      c.name,
		nodeMap:   make(map[string]int, len(c.nodeMap)),
		nodeNames: append([]string(nil), c.nodeNames...),
		devices:   append([]device.Definition(nil), c.devices...),
		tags:      make(map[string]bool, len(c.tags)),
		initial:   c.InitialVoltages(),
	}
	for k, v := range c.nodeMap {
		out.nodeMap[k] = v
	}
	for k := range c.tags {
		out.tags[k] = true
	}
	for i, d := range out.devices {
		if d.GetName() != def.GetName() {
			continue
		}
		for _, n := range def.GetNodes() {
			if n < 0 || n >= out.NodeCount() {
				return nil, fmt.Errorf("replacing device %s: node %d out of range", def.GetName(), n)
			}
		}
		out.devices[i] = def
		return out, nil
	}
	return nil, fmt.Errorf("replacing device %s: not found", def.GetName())
}

// SetInitialVoltage records a starting guess for node idx.
func (c *Circuit) SetInitialVoltage(idx int, v float64) error {
	if idx <= 0 || idx >= c.NodeCount() {
		return fmt.Errorf("initial voltage: node %d out of range [1,%d)", idx, c.NodeCount())
	}
	c.initial[idx] = v
	return nil
}

func (c *Circuit) InitialVoltages() map[int]float64 {
	out := make(map[int]float64, len(c.initial))
	for k, v := range c.initial {
		out[k] = v
	}
	return out
}

// Expand flattens subcircuit instances into leaf definitions. Internal nodes
// are numbered after the top level nodes in depth first order, the same order
// model.Factory allocates them in. The returned count includes ground.
func (c *Circuit) Expand() ([]device.Definition, int, error) {
	flat, err := c.expand()
	if err != nil {
		return nil, 0, err
	}
	return flat.devices, flat.nodeCount, nil
}

// instance is one expanded subcircuit with the nodes it owns and the leaf
// devices below it.
type instance struct {
	tag     string
	nodes   []int
	devices []device.Definition
}

type expansion struct {
	devices   []device.Definition
	instances []instance
	nodeCount int
}

func (c *Circuit) expand() (*expansion, error) {
	alloc := device.NewNodeAllocator(c.NodeCount())
	out := &expansion{}
	for _, d := range c.devices {
		leaves, err := expandOne(d, alloc, out, 0)
		if err != nil {
			return nil, err
		}
		out.devices = append(out.devices, leaves...)
	}
	out.nodeCount = alloc.NodeCount()
	return out, nil
}

const maxDepth = 64

func expandOne(d device.Definition, alloc *device.NodeAllocator, out *expansion, depth int) ([]device.Definition, error) {
	x, ok := d.(*device.Subcircuit)
	if !ok {
		return []device.Definition{d}, nil
	}
	if depth >= maxDepth {
		return nil, fmt.Errorf("expanding %s: subcircuit nesting deeper than %d", x.Name, maxDepth)
	}
	inner, internal, err := x.Instantiate(alloc)
	if err != nil {
		return nil, err
	}
	// reserve the slot so instances are listed in preorder
	slot := len(out.instances)
	out.instances = append(out.instances, instance{tag: x.Name})

	var leaves []device.Definition
	for _, d := range inner {
		sub, err := expandOne(d, alloc, out, depth+1)
		if err != nil {
			return nil, err
		}
		leaves = append(leaves, sub...)
	}

	nodes := append(append([]int(nil), x.Nodes...), internal...)
	sort.Ints(nodes)
	out.instances[slot].nodes = nodes
	out.instances[slot].devices = leaves
	return leaves, nil
}
