package circuit

import (
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/edp1096/spicesim/pkg/device"
)

// edge is a device branch between two circuit nodes.
type edge struct {
	device.Branch
	tag string
}

// Validate runs the topology checks on the expanded circuit. The first
// failing check is returned:
//
//  1. every subcircuit instance is internally connected
//  2. controlling references name a voltage defined device
//  3. every node reaches ground through some branch
//  4. no loop consists of voltage defined branches only
//  5. no node set hangs off the circuit by current defined branches only
func (c *Circuit) Validate() error {
	flat, err := c.expand()
	if err != nil {
		return err
	}
	for _, inst := range flat.instances {
		if err := checkInstance(inst); err != nil {
			return err
		}
	}
	if err := checkReferences(flat.devices); err != nil {
		return err
	}

	edges := branches(flat.devices)
	if err := checkGroundPath(edges, flat.nodeCount); err != nil {
		return err
	}
	if err := checkVoltageCycles(edges); err != nil {
		return err
	}
	return checkCurrentCutsets(edges, flat.nodeCount)
}

func branches(defs []device.Definition) []edge {
	var out []edge
	for _, d := range defs {
		for _, b := range d.Branches() {
			out = append(out, edge{Branch: b, tag: d.GetName()})
		}
	}
	return out
}

// connectivity builds the undirected graph of the kept edges over all nodes.
func connectivity(edges []edge, nodeCount int, keep func(edge) bool) *simple.UndirectedGraph {
	g := simple.NewUndirectedGraph()
	for n := range nodeCount {
		g.AddNode(simple.Node(n))
	}
	for _, e := range edges {
		if e.A == e.B || !keep(e) {
			continue
		}
		g.SetEdge(g.NewEdge(simple.Node(e.A), simple.Node(e.B)))
	}
	return g
}

func ids(nodes []graph.Node) []int {
	out := make([]int, len(nodes))
	for i, n := range nodes {
		out[i] = int(n.ID())
	}
	sort.Ints(out)
	return out
}

// groundless returns the sorted node sets of components without ground.
func groundless(g *simple.UndirectedGraph) [][]int {
	var out [][]int
	for _, cc := range topo.ConnectedComponents(g) {
		set := ids(cc)
		if set[0] == 0 {
			continue
		}
		out = append(out, set)
	}
	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	return out
}

func checkInstance(inst instance) error {
	owned := make(map[int]bool, len(inst.nodes))
	for _, n := range inst.nodes {
		owned[n] = true
	}
	g := simple.NewUndirectedGraph()
	for _, n := range inst.nodes {
		if g.Node(int64(n)) == nil {
			g.AddNode(simple.Node(n))
		}
	}
	for _, e := range branches(inst.devices) {
		if e.A == e.B {
			continue
		}
		g.SetEdge(g.NewEdge(simple.Node(e.A), simple.Node(e.B)))
	}
	var parts [][]int
	for _, cc := range topo.ConnectedComponents(g) {
		var part []int
		for _, n := range ids(cc) {
			// ground is shared with the parent and only joins partitions
			if owned[n] {
				part = append(part, n)
			}
		}
		if len(part) > 0 {
			parts = append(parts, part)
		}
	}
	if len(parts) <= 1 {
		return nil
	}
	sort.Slice(parts, func(i, j int) bool { return parts[i][0] < parts[j][0] })
	return &NotConnectedSubcircuitError{Tag: inst.tag, Partitions: parts}
}

func checkReferences(defs []device.Definition) error {
	voltage := make(map[string]bool, len(defs))
	for _, d := range defs {
		for _, b := range d.Branches() {
			if b.Kind == device.VoltageDefined {
				voltage[d.GetName()] = true
			}
		}
	}
	for _, d := range defs {
		cc, ok := d.(device.CurrentControlled)
		if !ok {
			continue
		}
		if !voltage[cc.Reference()] {
			return &UnknownReferenceError{Device: d.GetName(), Reference: cc.Reference()}
		}
	}
	return nil
}

func checkGroundPath(edges []edge, nodeCount int) error {
	g := connectivity(edges, nodeCount, func(edge) bool { return true })
	var floating []int
	for _, set := range groundless(g) {
		floating = append(floating, set...)
	}
	if len(floating) == 0 {
		return nil
	}
	sort.Ints(floating)
	return &NoDcPathToGroundError{Nodes: floating}
}

// checkVoltageCycles adds voltage defined edges to a union-find forest; an
// edge closing a loop is reported with the forest path between its ends.
func checkVoltageCycles(edges []edge) error {
	parent := make(map[int]int)
	var find func(int) int
	find = func(n int) int {
		p, ok := parent[n]
		if !ok || p == n {
			parent[n] = n
			return n
		}
		root := find(p)
		parent[n] = root
		return root
	}

	forest := simple.NewUndirectedGraph()
	owner := make(map[[2]int]string)
	key := func(a, b int) [2]int {
		if a > b {
			a, b = b, a
		}
		return [2]int{a, b}
	}

	for _, e := range edges {
		if e.Kind != device.VoltageDefined {
			continue
		}
		if e.A == e.B {
			return &VoltageBranchCycleError{Devices: []string{e.tag}}
		}
		ra, rb := find(e.A), find(e.B)
		if ra != rb {
			parent[ra] = rb
			forest.SetEdge(forest.NewEdge(simple.Node(e.A), simple.Node(e.B)))
			owner[key(e.A, e.B)] = e.tag
			continue
		}
		shortest := path.DijkstraFrom(simple.Node(e.A), forest)
		nodes, _ := shortest.To(int64(e.B))
		devices := make([]string, 0, len(nodes))
		for i := 1; i < len(nodes); i++ {
			devices = append(devices, owner[key(int(nodes[i-1].ID()), int(nodes[i].ID()))])
		}
		devices = append(devices, e.tag)
		return &VoltageBranchCycleError{Devices: devices}
	}
	return nil
}

// checkCurrentCutsets looks for components that lose their way to ground once
// current defined branches are removed.
func checkCurrentCutsets(edges []edge, nodeCount int) error {
	g := connectivity(edges, nodeCount, func(e edge) bool { return e.Kind != device.CurrentDefined })
	sets := groundless(g)
	if len(sets) == 0 {
		return nil
	}
	nodes := sets[0]
	in := make(map[int]bool, len(nodes))
	for _, n := range nodes {
		in[n] = true
	}
	var devices []string
	for _, e := range edges {
		if e.Kind == device.CurrentDefined && in[e.A] != in[e.B] {
			devices = append(devices, e.tag)
		}
	}
	return &CurrentBranchCutsetError{Nodes: nodes, Devices: devices}
}
