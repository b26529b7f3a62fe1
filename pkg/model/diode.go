package model

import (
	"fmt"

	"github.com/edp1096/spicesim/internal/consts"
	"github.com/edp1096/spicesim/pkg/device"
	"github.com/edp1096/spicesim/pkg/matrix"
	"github.com/edp1096/spicesim/pkg/stamp"
)

// Diode is linearized at the previous iteration's junction voltage:
// Geq = dId/dVd + Gmin and Ieq = Id - Geq*Vd.
type Diode struct {
	core
	d       *device.Diode
	g       stamp.Conductance
	i       stamp.Current
	vd      float64 // limited junction voltage of the linearization
	id      float64
	gd      float64
	limited bool
	voltage float64
}

func NewDiode(def *device.Diode) (*Diode, error) {
	if def.Is <= 0 || def.N <= 0 {
		return nil, deviceError(def.Name, fmt.Errorf("invalid model Is=%g N=%g", def.Is, def.N))
	}
	return &Diode{core: core{def: def}, d: def}, nil
}

func (m *Diode) Register(b *matrix.Builder[float64]) error {
	if err := m.register(); err != nil {
		return err
	}
	a, k := m.d.Nodes[0], m.d.Nodes[1]
	if err := m.g.Register(b, a, k); err != nil {
		return err
	}
	return m.i.Register(b, a, k)
}

// Stamp is a no-op; the linearization goes in through
// ApplyNonlinearModelValues.
func (m *Diode) Stamp(ctx *Context, sys *matrix.System) error {
	if err := m.ready(); err != nil {
		return err
	}
	return m.stamped(nil)
}

func (m *Diode) UpdateNonlinearModel(ctx *Context) error {
	if err := m.ready(); err != nil {
		return err
	}
	nvt := m.d.N * consts.ThermalVoltage(ctx.Temperature)
	is := m.d.SaturationCurrent(ctx.Temperature)

	vnew := ctx.Voltage(m.d.Nodes[0], m.d.Nodes[1])
	m.vd, m.limited = pnjlim(vnew, m.vd, nvt, criticalVoltage(is, nvt))

	id, gd := junction(m.vd, is, nvt)
	m.id = id + m.d.Gmin*m.vd
	m.gd = gd + m.d.Gmin
	if !finite(m.id, m.gd) {
		return deviceError(m.tag(), fmt.Errorf("vd=%g: %w", m.vd, matrix.ErrNaN))
	}
	m.phase = Updated
	return nil
}

func (m *Diode) ApplyNonlinearModelValues(sys *matrix.System) error {
	if err := m.g.Stamp(sys, m.gd); err != nil {
		return deviceError(m.tag(), err)
	}
	ieq := m.id - m.gd*m.vd
	if err := m.i.Stamp(sys, -ieq); err != nil {
		return deviceError(m.tag(), err)
	}
	m.phase = Stamped
	return nil
}

func (m *Diode) Converged() bool { return !m.limited }

func (m *Diode) OnEquationSolution(ctx *Context) {
	m.voltage = ctx.Voltage(m.d.Nodes[0], m.d.Nodes[1])
	m.solved()
}

func (m *Diode) Voltage() float64 { return m.voltage }

// Current is the anode to cathode current through the linearized junction.
func (m *Diode) Current() float64 { return m.id + m.gd*(m.voltage-m.vd) }

func (m *Diode) States() []State {
	return []State{
		{Name: "Vd", Value: func() float64 { return m.vd }},
		{Name: "Id", Value: func() float64 { return m.id }},
		{Name: "Gd", Value: func() float64 { return m.gd }},
	}
}
