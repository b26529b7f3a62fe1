package model

import (
	"fmt"

	"github.com/edp1096/spicesim/pkg/device"
	"github.com/edp1096/spicesim/pkg/matrix"
	"github.com/edp1096/spicesim/pkg/stamp"
)

type VoltageSource struct {
	core
	src     *device.VoltageSource
	v       stamp.Voltage
	voltage float64
	current float64
}

func NewVoltageSource(def *device.VoltageSource) (*VoltageSource, error) {
	return &VoltageSource{core: core{def: def}, src: def}, nil
}

func (m *VoltageSource) Register(b *matrix.Builder[float64]) error {
	if err := m.register(); err != nil {
		return err
	}
	return m.v.Register(b, m.src.Nodes[0], m.src.Nodes[1])
}

func (m *VoltageSource) Branch() int { return m.v.Branch() }

func (m *VoltageSource) Stamp(ctx *Context, sys *matrix.System) error {
	if err := m.ready(); err != nil {
		return err
	}
	return m.stamped(m.v.Stamp(sys, m.src.GetVoltage(ctx.Time)))
}

func (m *VoltageSource) OnEquationSolution(ctx *Context) {
	m.voltage = ctx.Voltage(m.src.Nodes[0], m.src.Nodes[1])
	m.current = ctx.Value(m.v.Branch())
	m.solved()
}

func (m *VoltageSource) Voltage() float64 { return m.voltage }

// Current flows from the positive node through the source.
func (m *VoltageSource) Current() float64 { return m.current }

type CurrentSource struct {
	core
	src     *device.CurrentSource
	i       stamp.Current
	voltage float64
	current float64
}

func NewCurrentSource(def *device.CurrentSource) (*CurrentSource, error) {
	return &CurrentSource{core: core{def: def}, src: def}, nil
}

func (m *CurrentSource) Register(b *matrix.Builder[float64]) error {
	if err := m.register(); err != nil {
		return err
	}
	return m.i.Register(b, m.src.Nodes[0], m.src.Nodes[1])
}

func (m *CurrentSource) Stamp(ctx *Context, sys *matrix.System) error {
	if err := m.ready(); err != nil {
		return err
	}
	m.current = m.src.GetCurrent(ctx.Time)
	return m.stamped(m.i.Stamp(sys, m.current))
}

func (m *CurrentSource) OnEquationSolution(ctx *Context) {
	m.voltage = ctx.Voltage(m.src.Nodes[0], m.src.Nodes[1])
	m.solved()
}

func (m *CurrentSource) Voltage() float64 { return m.voltage }

func (m *CurrentSource) Current() float64 { return m.current }

type VCVS struct {
	core
	e       *device.VCVS
	s       stamp.VCVS
	voltage float64
	current float64
}

func NewVCVS(def *device.VCVS) (*VCVS, error) {
	return &VCVS{core: core{def: def}, e: def}, nil
}

func (m *VCVS) Register(b *matrix.Builder[float64]) error {
	if err := m.register(); err != nil {
		return err
	}
	n := m.e.Nodes
	return m.s.Register(b, n[0], n[1], n[2], n[3])
}

func (m *VCVS) Branch() int { return m.s.Branch() }

func (m *VCVS) Stamp(ctx *Context, sys *matrix.System) error {
	if err := m.ready(); err != nil {
		return err
	}
	return m.stamped(m.s.Stamp(sys, m.e.Value))
}

func (m *VCVS) OnEquationSolution(ctx *Context) {
	m.voltage = ctx.Voltage(m.e.Nodes[0], m.e.Nodes[1])
	m.current = ctx.Value(m.s.Branch())
	m.solved()
}

func (m *VCVS) Voltage() float64 { return m.voltage }

func (m *VCVS) Current() float64 { return m.current }

type VCCS struct {
	core
	g       *device.VCCS
	s       stamp.VCCS
	voltage float64
	current float64
}

func NewVCCS(def *device.VCCS) (*VCCS, error) {
	return &VCCS{core: core{def: def}, g: def}, nil
}

func (m *VCCS) Register(b *matrix.Builder[float64]) error {
	if err := m.register(); err != nil {
		return err
	}
	n := m.g.Nodes
	return m.s.Register(b, n[0], n[1], n[2], n[3])
}

func (m *VCCS) Stamp(ctx *Context, sys *matrix.System) error {
	if err := m.ready(); err != nil {
		return err
	}
	return m.stamped(m.s.Stamp(sys, m.g.Value))
}

func (m *VCCS) OnEquationSolution(ctx *Context) {
	n := m.g.Nodes
	m.voltage = ctx.Voltage(n[0], n[1])
	m.current = m.g.Value * ctx.Voltage(n[2], n[3])
	m.solved()
}

func (m *VCCS) Voltage() float64 { return m.voltage }

func (m *VCCS) Current() float64 { return m.current }

// reference resolves the sensing device of a current controlled source.
func reference(tag, ref string, find func(string) (Device, bool)) (BranchOwner, error) {
	d, ok := find(ref)
	if !ok {
		return nil, deviceError(tag, fmt.Errorf("unknown reference %q", ref))
	}
	owner, ok := d.(BranchOwner)
	if !ok {
		return nil, deviceError(tag, fmt.Errorf("reference %q carries no branch current", ref))
	}
	return owner, nil
}

type CCCS struct {
	core
	f       *device.CCCS
	s       stamp.CCCS
	ref     BranchOwner
	voltage float64
	current float64
}

func NewCCCS(def *device.CCCS) (*CCCS, error) {
	return &CCCS{core: core{def: def}, f: def}, nil
}

func (m *CCCS) Register(b *matrix.Builder[float64]) error {
	return m.register()
}

func (m *CCCS) Link(find func(string) (Device, bool)) error {
	owner, err := reference(m.tag(), m.f.Ref, find)
	if err != nil {
		return err
	}
	m.ref = owner
	return m.s.Register(nil, m.f.Nodes[0], m.f.Nodes[1], owner.Branch())
}

func (m *CCCS) Stamp(ctx *Context, sys *matrix.System) error {
	if err := m.ready(); err != nil {
		return err
	}
	if m.ref == nil {
		return deviceError(m.tag(), fmt.Errorf("reference %q not linked", m.f.Ref))
	}
	return m.stamped(m.s.Stamp(sys, m.f.Value))
}

func (m *CCCS) OnEquationSolution(ctx *Context) {
	m.voltage = ctx.Voltage(m.f.Nodes[0], m.f.Nodes[1])
	if m.ref != nil {
		m.current = m.f.Value * ctx.Value(m.ref.Branch())
	}
	m.solved()
}

func (m *CCCS) Voltage() float64 { return m.voltage }

func (m *CCCS) Current() float64 { return m.current }

type CCVS struct {
	core
	h       *device.CCVS
	s       stamp.CCVS
	linked  bool
	voltage float64
	current float64
}

func NewCCVS(def *device.CCVS) (*CCVS, error) {
	return &CCVS{core: core{def: def}, h: def}, nil
}

func (m *CCVS) Register(b *matrix.Builder[float64]) error {
	if err := m.register(); err != nil {
		return err
	}
	// the reference branch is filled in by Link
	return m.s.Register(b, m.h.Nodes[0], m.h.Nodes[1], 0)
}

func (m *CCVS) Link(find func(string) (Device, bool)) error {
	owner, err := reference(m.tag(), m.h.Ref, find)
	if err != nil {
		return err
	}
	m.s.Ref = owner.Branch()
	m.linked = true
	return nil
}

func (m *CCVS) Branch() int { return m.s.Branch() }

func (m *CCVS) Stamp(ctx *Context, sys *matrix.System) error {
	if err := m.ready(); err != nil {
		return err
	}
	if !m.linked {
		return deviceError(m.tag(), fmt.Errorf("reference %q not linked", m.h.Ref))
	}
	return m.stamped(m.s.Stamp(sys, m.h.Value))
}

func (m *CCVS) OnEquationSolution(ctx *Context) {
	m.voltage = ctx.Voltage(m.h.Nodes[0], m.h.Nodes[1])
	m.current = ctx.Value(m.s.Branch())
	m.solved()
}

func (m *CCVS) Voltage() float64 { return m.voltage }

func (m *CCVS) Current() float64 { return m.current }
