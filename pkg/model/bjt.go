package model

import (
	"fmt"

	"github.com/edp1096/spicesim/internal/consts"
	"github.com/edp1096/spicesim/pkg/device"
	"github.com/edp1096/spicesim/pkg/matrix"
	"github.com/edp1096/spicesim/pkg/stamp"
)

// Bjt evaluates the Ebers-Moll transport equations
//
//	Icc = (iF - iR) * (1 - vbc/Vaf)
//	Ic  = Icc - iR/Br
//	Ib  = iF/Bf + iR/Br
//
// and stamps the terminal currents with their 3x3 Jacobian.
type Bjt struct {
	core
	q       *device.Bjt
	j       stamp.Jacobian
	vbe     float64
	vbc     float64
	ic, ib  float64
	jac     [3][3]float64
	limited bool
	vb      float64
}

func NewBjt(def *device.Bjt) (*Bjt, error) {
	if def.Is <= 0 || def.Bf <= 0 || def.Br <= 0 || def.Nf <= 0 || def.Nr <= 0 {
		return nil, deviceError(def.Name, fmt.Errorf("invalid model Is=%g Bf=%g Br=%g", def.Is, def.Bf, def.Br))
	}
	if def.Polarity != device.NPN && def.Polarity != device.PNP {
		return nil, deviceError(def.Name, fmt.Errorf("invalid polarity %d", def.Polarity))
	}
	return &Bjt{core: core{def: def}, q: def}, nil
}

func (m *Bjt) Register(b *matrix.Builder[float64]) error {
	if err := m.register(); err != nil {
		return err
	}
	return m.j.Register(b, m.q.Nodes...)
}

func (m *Bjt) Stamp(ctx *Context, sys *matrix.System) error {
	if err := m.ready(); err != nil {
		return err
	}
	return m.stamped(nil)
}

func (m *Bjt) UpdateNonlinearModel(ctx *Context) error {
	if err := m.ready(); err != nil {
		return err
	}
	p := float64(m.q.Polarity)
	vt := consts.ThermalVoltage(ctx.Temperature)
	is := m.q.SaturationCurrent(ctx.Temperature)
	vtf, vtr := m.q.Nf*vt, m.q.Nr*vt

	c, b, e := m.q.Nodes[0], m.q.Nodes[1], m.q.Nodes[2]
	m.vb = ctx.Value(b)
	var limBE, limBC bool
	m.vbe, limBE = pnjlim(p*ctx.Voltage(b, e), m.vbe, vtf, criticalVoltage(is, vtf))
	m.vbc, limBC = pnjlim(p*ctx.Voltage(b, c), m.vbc, vtr, criticalVoltage(is, vtr))
	m.limited = limBE || limBC

	iF, gF := junction(m.vbe, is, vtf)
	iR, gR := junction(m.vbc, is, vtr)

	k, dk := 1.0, 0.0
	if m.q.Vaf > 0 {
		k = 1 - m.vbc/m.q.Vaf
		dk = -1 / m.q.Vaf
	}

	m.ic = (iF-iR)*k - iR/m.q.Br
	m.ib = iF/m.q.Bf + iR/m.q.Br

	dIcBE := gF * k
	dIcBC := -gR*k + (iF-iR)*dk - gR/m.q.Br
	dIbBE := gF / m.q.Bf
	dIbBC := gR / m.q.Br

	// columns: vc, vb, ve; the polarity cancels in the derivatives
	m.jac[0] = [3]float64{-dIcBC, dIcBE + dIcBC, -dIcBE}
	m.jac[1] = [3]float64{-dIbBC, dIbBE + dIbBC, -dIbBE}
	for col := range 3 {
		m.jac[2][col] = -(m.jac[0][col] + m.jac[1][col])
	}

	if !finite(m.ic, m.ib, dIcBE, dIcBC, dIbBE, dIbBC) {
		return deviceError(m.tag(), fmt.Errorf("vbe=%g vbc=%g: %w", m.vbe, m.vbc, matrix.ErrNaN))
	}
	m.phase = Updated
	return nil
}

func (m *Bjt) ApplyNonlinearModelValues(sys *matrix.System) error {
	p := float64(m.q.Polarity)
	ic, ib := p*m.ic, p*m.ib
	currents := []float64{ic, ib, -(ic + ib)}
	jac := [][]float64{m.jac[0][:], m.jac[1][:], m.jac[2][:]}
	// terminal voltages consistent with the limited junction voltages
	v := []float64{m.vb - p*m.vbc, m.vb, m.vb - p*m.vbe}
	if err := m.j.Stamp(sys, currents, jac, v); err != nil {
		return deviceError(m.tag(), err)
	}
	m.phase = Stamped
	return nil
}

func (m *Bjt) Converged() bool { return !m.limited }

func (m *Bjt) OnEquationSolution(ctx *Context) { m.solved() }

// Currents returns the collector, base and emitter terminal currents flowing
// into the device.
func (m *Bjt) Currents() (float64, float64, float64) {
	p := float64(m.q.Polarity)
	return p * m.ic, p * m.ib, -p * (m.ic + m.ib)
}

func (m *Bjt) States() []State {
	return []State{
		{Name: "Vbe", Value: func() float64 { return m.vbe }},
		{Name: "Vbc", Value: func() float64 { return m.vbc }},
		{Name: "Ic", Value: func() float64 { ic, _, _ := m.Currents(); return ic }},
		{Name: "Ib", Value: func() float64 { _, ib, _ := m.Currents(); return ib }},
	}
}
