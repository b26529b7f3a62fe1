package model

import (
	"errors"
	"fmt"
	"math"

	"github.com/edp1096/spicesim/pkg/device"
	"github.com/edp1096/spicesim/pkg/integration"
	"github.com/edp1096/spicesim/pkg/matrix"
	"github.com/edp1096/spicesim/pkg/stamp"
)

type Resistor struct {
	core
	r       *device.Resistor
	stamper stamp.Conductance
	g       float64
	voltage float64
}

func NewResistor(def *device.Resistor) (*Resistor, error) {
	if def.Value == 0 {
		return nil, deviceError(def.Name, errors.New("zero resistance"))
	}
	return &Resistor{core: core{def: def}, r: def}, nil
}

func (m *Resistor) Register(b *matrix.Builder[float64]) error {
	if err := m.register(); err != nil {
		return err
	}
	return m.stamper.Register(b, m.r.Nodes[0], m.r.Nodes[1])
}

func (m *Resistor) Stamp(ctx *Context, sys *matrix.System) error {
	if err := m.ready(); err != nil {
		return err
	}
	m.g = 1.0 / m.r.Resistance(ctx.Temperature)
	return m.stamped(m.stamper.Stamp(sys, m.g))
}

func (m *Resistor) OnEquationSolution(ctx *Context) {
	m.voltage = ctx.Voltage(m.r.Nodes[0], m.r.Nodes[1])
	m.solved()
}

func (m *Resistor) Voltage() float64 { return m.voltage }

func (m *Resistor) Current() float64 { return m.voltage * m.g }

// Capacitor integrates charge. It is open at DC and stamps its companion
// conductance and current in transient.
type Capacitor struct {
	core
	c       *device.Capacitor
	g       stamp.Conductance
	i       stamp.Current
	method  integration.Method[float64]
	geq     float64
	ieq     float64
	voltage float64
	current float64
}

func NewCapacitor(def *device.Capacitor) (*Capacitor, error) {
	return &Capacitor{core: core{def: def}, c: def}, nil
}

func (m *Capacitor) Register(b *matrix.Builder[float64]) error {
	if err := m.register(); err != nil {
		return err
	}
	a, n := m.c.Nodes[0], m.c.Nodes[1]
	if err := m.g.Register(b, a, n); err != nil {
		return err
	}
	return m.i.Register(b, a, n)
}

func (m *Capacitor) Stamp(ctx *Context, sys *matrix.System) error {
	if err := m.ready(); err != nil {
		return err
	}
	if ctx.Mode == DC {
		return m.stamped(nil)
	}
	if err := m.g.Stamp(sys, m.geq); err != nil {
		return m.stamped(err)
	}
	return m.stamped(m.i.Stamp(sys, m.ieq))
}

func (m *Capacitor) OnEquationSolution(ctx *Context) {
	m.voltage = ctx.Voltage(m.c.Nodes[0], m.c.Nodes[1])
	if ctx.Mode == DC {
		m.current = 0
	} else {
		m.current = m.geq*m.voltage - m.ieq
	}
	m.solved()
}

func (m *Capacitor) UpdateTimeDependentModel(ctx *Context) error {
	if m.method == nil {
		return deviceError(m.tag(), ErrNotInitialized)
	}
	dy, y, err := m.method.Equivalents(ctx.TimeStep)
	if err != nil {
		return deviceError(m.tag(), err)
	}
	// q = C*v = dy*i + y
	m.geq = m.c.Value / dy
	m.ieq = y / dy
	if !finite(m.geq, m.ieq) {
		return deviceError(m.tag(), fmt.Errorf("companion model: %w", matrix.ErrNaN))
	}
	return nil
}

func (m *Capacitor) RollTimePoint(ctx *Context) error {
	m.method.SetState(m.c.Value*m.voltage, m.current)
	return nil
}

func (m *Capacitor) InitializeState(ctx *Context) error {
	if m.method == nil {
		m.method = ctx.Integrator()
	}
	m.method.Reset()
	m.voltage = ctx.Voltage(m.c.Nodes[0], m.c.Nodes[1])
	if ctx.UseInitialConditions && m.c.InitialVoltage != nil {
		m.voltage = *m.c.InitialVoltage
	}
	m.current = 0
	if ctx.UseInitialConditions {
		// no bias point, the current at t=0+ is unknown
		m.method.SetInitialState(m.c.Value * m.voltage)
		return nil
	}
	m.method.SetState(m.c.Value*m.voltage, 0)
	return nil
}

func (m *Capacitor) Voltage() float64 { return m.voltage }

func (m *Capacitor) Current() float64 { return m.current }

// Inductor owns a branch variable. It is a short at DC and stamps its
// companion resistance in transient.
type Inductor struct {
	core
	l       *device.Inductor
	v       stamp.Voltage
	method  integration.Method[float64]
	req     float64
	veq     float64
	voltage float64
	current float64
}

func NewInductor(def *device.Inductor) (*Inductor, error) {
	return &Inductor{core: core{def: def}, l: def}, nil
}

func (m *Inductor) Register(b *matrix.Builder[float64]) error {
	if err := m.register(); err != nil {
		return err
	}
	return m.v.Register(b, m.l.Nodes[0], m.l.Nodes[1])
}

func (m *Inductor) Branch() int { return m.v.Branch() }

func (m *Inductor) Stamp(ctx *Context, sys *matrix.System) error {
	if err := m.ready(); err != nil {
		return err
	}
	if ctx.Mode == DC {
		return m.stamped(m.v.Short(sys))
	}
	return m.stamped(m.v.StampWithResistance(sys, m.req, m.veq))
}

func (m *Inductor) OnEquationSolution(ctx *Context) {
	m.voltage = ctx.Voltage(m.l.Nodes[0], m.l.Nodes[1])
	m.current = ctx.Value(m.v.Branch())
	m.solved()
}

func (m *Inductor) UpdateTimeDependentModel(ctx *Context) error {
	if m.method == nil {
		return deviceError(m.tag(), ErrNotInitialized)
	}
	dy, y, err := m.method.Equivalents(ctx.TimeStep)
	if err != nil {
		return deviceError(m.tag(), err)
	}
	// flux = L*i = dy*v + y
	m.req = m.l.Value / dy
	m.veq = -y / dy
	if !finite(m.req, m.veq) {
		return deviceError(m.tag(), fmt.Errorf("companion model: %w", matrix.ErrNaN))
	}
	return nil
}

func (m *Inductor) RollTimePoint(ctx *Context) error {
	m.method.SetState(m.l.Value*m.current, m.voltage)
	return nil
}

func (m *Inductor) InitializeState(ctx *Context) error {
	if m.method == nil {
		m.method = ctx.Integrator()
	}
	m.method.Reset()
	m.current = ctx.Value(m.v.Branch())
	if ctx.UseInitialConditions && m.l.InitialCurrent != nil {
		m.current = *m.l.InitialCurrent
	}
	m.voltage = 0
	if ctx.UseInitialConditions {
		m.method.SetInitialState(m.l.Value * m.current)
		return nil
	}
	m.method.SetState(m.l.Value*m.current, 0)
	return nil
}

func (m *Inductor) Voltage() float64 { return m.voltage }

func (m *Inductor) Current() float64 { return m.current }

func finite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
