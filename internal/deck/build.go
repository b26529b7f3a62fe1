package deck

import (
	"fmt"
	"strings"

	"github.com/edp1096/spicesim/pkg/circuit"
	"github.com/edp1096/spicesim/pkg/device"
	"github.com/edp1096/spicesim/pkg/netlist"
)

var terminalCount = map[device.Kind]int{
	device.KindResistor:      2,
	device.KindCapacitor:     2,
	device.KindInductor:      2,
	device.KindVoltageSource: 2,
	device.KindCurrentSource: 2,
	device.KindDiode:         2,
	device.KindCCCS:          2,
	device.KindCCVS:          2,
	device.KindBjt:           3,
	device.KindVCVS:          4,
	device.KindVCCS:          4,
}

func isGround(name string) bool {
	return name == "0" || strings.EqualFold(name, "gnd")
}

// Circuit builds the top level circuit. Nodes are numbered in order of first
// use.
func (d *Deck) Circuit() (*circuit.Circuit, error) {
	b := &builder{
		deck:     d,
		subckts:  make(map[string]*device.SubcircuitDefinition),
		building: make(map[string]bool),
	}

	title := d.Title
	if title == "" {
		title = "circuit"
	}
	ckt := circuit.New(title)
	top := func(n string) int {
		if isGround(n) {
			return 0
		}
		return ckt.AddNode(n)
	}
	for _, dev := range d.Devices {
		def, err := b.device(dev, top)
		if err != nil {
			return nil, err
		}
		if err := ckt.Add(def); err != nil {
			return nil, err
		}
	}

	for name, v := range d.IC {
		idx, ok := ckt.Node(name)
		if !ok || idx == 0 {
			return nil, fmt.Errorf("initial condition on unknown node %s", name)
		}
		if err := ckt.SetInitialVoltage(idx, float64(v)); err != nil {
			return nil, err
		}
	}
	return ckt, nil
}

type builder struct {
	deck     *Deck
	subckts  map[string]*device.SubcircuitDefinition
	building map[string]bool
}

// subcircuit converts a subcircuit once and shares the definition between
// instances.
func (b *builder) subcircuit(name string) (*device.SubcircuitDefinition, error) {
	if def, ok := b.subckts[name]; ok {
		return def, nil
	}
	src, ok := b.deck.Subcircuits[name]
	if !ok {
		return nil, fmt.Errorf("unknown subcircuit %s", name)
	}
	if b.building[name] {
		return nil, fmt.Errorf("subcircuit %s instantiates itself", name)
	}
	b.building[name] = true
	defer delete(b.building, name)

	nodes := make(map[string]int, len(src.Ports))
	for i, p := range src.Ports {
		if isGround(p) {
			return nil, fmt.Errorf("subcircuit %s: ground cannot be a port", name)
		}
		nodes[p] = i + 1
	}
	next := len(src.Ports) + 1
	local := func(n string) int {
		if isGround(n) {
			return 0
		}
		if idx, ok := nodes[n]; ok {
			return idx
		}
		nodes[n] = next
		next++
		return nodes[n]
	}

	def := &device.SubcircuitDefinition{Name: name, Terminals: len(src.Ports)}
	for _, dev := range src.Devices {
		inner, err := b.device(dev, local)
		if err != nil {
			return nil, fmt.Errorf("subcircuit %s: %w", name, err)
		}
		def.Devices = append(def.Devices, inner)
	}
	def.InternalNodes = next - len(src.Ports) - 1
	if err := def.Check(); err != nil {
		return nil, err
	}
	b.subckts[name] = def
	return def, nil
}

func (b *builder) device(dev Device, node func(string) int) (device.Definition, error) {
	kind := device.Kind(dev.Type)
	if want, ok := terminalCount[kind]; ok && len(dev.Nodes) != want {
		return nil, fmt.Errorf("device %s: %s needs %d nodes, got %d", dev.Name, kind, want, len(dev.Nodes))
	}
	n := make([]int, len(dev.Nodes))
	for i, name := range dev.Nodes {
		n[i] = node(name)
	}

	value := func() (float64, error) {
		if dev.Value == nil {
			return 0, fmt.Errorf("device %s: missing value", dev.Name)
		}
		return float64(*dev.Value), nil
	}
	ref := func() (string, error) {
		if dev.Ref == "" {
			return "", fmt.Errorf("device %s: missing controlling source", dev.Name)
		}
		return dev.Ref, nil
	}

	switch kind {
	case device.KindResistor:
		v, err := value()
		if err != nil {
			return nil, err
		}
		if v == 0 {
			return nil, fmt.Errorf("device %s: zero resistance", dev.Name)
		}
		return device.NewResistor(dev.Name, n[0], n[1], v), nil

	case device.KindCapacitor:
		v, err := value()
		if err != nil {
			return nil, err
		}
		c := device.NewCapacitor(dev.Name, n[0], n[1], v)
		if dev.IC != nil {
			c = c.WithInitialVoltage(float64(*dev.IC))
		}
		return c, nil

	case device.KindInductor:
		v, err := value()
		if err != nil {
			return nil, err
		}
		l := device.NewInductor(dev.Name, n[0], n[1], v)
		if dev.IC != nil {
			l = l.WithInitialCurrent(float64(*dev.IC))
		}
		return l, nil

	case device.KindVoltageSource, device.KindCurrentSource:
		wave, err := b.waveform(dev)
		if err != nil {
			return nil, err
		}
		if kind == device.KindVoltageSource {
			return device.NewVoltageSource(dev.Name, n[0], n[1], wave), nil
		}
		return device.NewCurrentSource(dev.Name, n[0], n[1], wave), nil

	case device.KindDiode:
		d := device.NewDiode(dev.Name, n[0], n[1])
		params, err := b.model(dev, "D")
		if err != nil {
			return nil, err
		}
		if err := d.SetModelParameters(params); err != nil {
			return nil, err
		}
		return d, nil

	case device.KindBjt:
		polarity := device.NPN
		params, err := b.model(dev, "NPN", "PNP")
		if err != nil {
			return nil, err
		}
		if dev.Model != "" && b.deck.Models[dev.Model].Type == "PNP" {
			polarity = device.PNP
		}
		q := device.NewBJT(dev.Name, n[0], n[1], n[2], polarity)
		if err := q.SetModelParameters(params); err != nil {
			return nil, err
		}
		return q, nil

	case device.KindVCVS, device.KindVCCS:
		v, err := value()
		if err != nil {
			return nil, err
		}
		if kind == device.KindVCVS {
			return device.NewVCVS(dev.Name, n[0], n[1], n[2], n[3], v), nil
		}
		return device.NewVCCS(dev.Name, n[0], n[1], n[2], n[3], v), nil

	case device.KindCCCS, device.KindCCVS:
		v, err := value()
		if err != nil {
			return nil, err
		}
		r, err := ref()
		if err != nil {
			return nil, err
		}
		if kind == device.KindCCCS {
			return device.NewCCCS(dev.Name, n[0], n[1], r, v), nil
		}
		return device.NewCCVS(dev.Name, n[0], n[1], r, v), nil

	case device.KindSubcircuit:
		if dev.Subckt == "" {
			return nil, fmt.Errorf("device %s: missing subcircuit name", dev.Name)
		}
		def, err := b.subcircuit(dev.Subckt)
		if err != nil {
			return nil, err
		}
		if len(n) != def.Terminals {
			return nil, fmt.Errorf("device %s: %s has %d ports, got %d nodes", dev.Name, def.Name, def.Terminals, len(n))
		}
		return device.NewSubcircuit(dev.Name, def, n...), nil
	}
	return nil, fmt.Errorf("device %s: unsupported type %q", dev.Name, dev.Type)
}

func (b *builder) waveform(dev Device) (device.Waveform, error) {
	switch {
	case dev.Wave != "" && dev.Value != nil:
		return device.Waveform{}, fmt.Errorf("device %s: both value and wave given", dev.Name)
	case dev.Wave != "":
		w, err := netlist.ParseWaveform(dev.Wave)
		if err != nil {
			return device.Waveform{}, fmt.Errorf("device %s: %w", dev.Name, err)
		}
		return w, nil
	case dev.Value != nil:
		return device.DCWave(float64(*dev.Value)), nil
	}
	return device.Waveform{}, fmt.Errorf("device %s: missing value", dev.Name)
}

// model returns the parameters of the device's model, nil when it has none.
func (b *builder) model(dev Device, types ...string) (map[string]float64, error) {
	if dev.Model == "" {
		return nil, nil
	}
	m, ok := b.deck.Models[dev.Model]
	if !ok {
		return nil, fmt.Errorf("device %s: unknown model %s", dev.Name, dev.Model)
	}
	match := false
	for _, t := range types {
		match = match || m.Type == t
	}
	if !match {
		return nil, fmt.Errorf("device %s: model %s is %s, want %s", dev.Name, dev.Model, m.Type, strings.Join(types, " or "))
	}
	params := make(map[string]float64, len(m.Params))
	for k, v := range m.Params {
		params[strings.ToLower(k)] = float64(v)
	}
	return params, nil
}
