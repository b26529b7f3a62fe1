package model

import (
	"github.com/edp1096/spicesim/pkg/device"
	"github.com/edp1096/spicesim/pkg/matrix"
)

// Subcircuit forwards every call to the models of its instantiated devices.
type Subcircuit struct {
	core
	inner []Device
}

func NewSubcircuit(f *Factory, def *device.Subcircuit, nodes *device.NodeAllocator) (*Subcircuit, error) {
	defs, _, err := def.Instantiate(nodes)
	if err != nil {
		return nil, deviceError(def.Name, err)
	}
	m := &Subcircuit{core: core{def: def}}
	for _, d := range defs {
		inner, err := f.Build(d, nodes)
		if err != nil {
			return nil, err
		}
		m.inner = append(m.inner, inner)
	}
	return m, nil
}

func (m *Subcircuit) Children() []Device { return m.inner }

func (m *Subcircuit) Register(b *matrix.Builder[float64]) error {
	if err := m.register(); err != nil {
		return err
	}
	for _, d := range m.inner {
		if err := d.Register(b); err != nil {
			return err
		}
	}
	return nil
}

func (m *Subcircuit) Link(find func(string) (Device, bool)) error {
	for _, d := range m.inner {
		if l, ok := d.(Linker); ok {
			if err := l.Link(find); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *Subcircuit) Stamp(ctx *Context, sys *matrix.System) error {
	if err := m.ready(); err != nil {
		return err
	}
	for _, d := range m.inner {
		if err := d.Stamp(ctx, sys); err != nil {
			return err
		}
	}
	m.phase = Stamped
	return nil
}

func (m *Subcircuit) OnEquationSolution(ctx *Context) {
	for _, d := range m.inner {
		d.OnEquationSolution(ctx)
	}
	m.solved()
}

func (m *Subcircuit) UpdateNonlinearModel(ctx *Context) error {
	for _, d := range m.inner {
		if nl, ok := d.(NonLinear); ok {
			if err := nl.UpdateNonlinearModel(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *Subcircuit) ApplyNonlinearModelValues(sys *matrix.System) error {
	for _, d := range m.inner {
		if nl, ok := d.(NonLinear); ok {
			if err := nl.ApplyNonlinearModelValues(sys); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *Subcircuit) Converged() bool {
	for _, d := range m.inner {
		if nl, ok := d.(NonLinear); ok && !nl.Converged() {
			return false
		}
	}
	return true
}

func (m *Subcircuit) UpdateTimeDependentModel(ctx *Context) error {
	return m.eachTimeDependent(func(td TimeDependent) error { return td.UpdateTimeDependentModel(ctx) })
}

func (m *Subcircuit) RollTimePoint(ctx *Context) error {
	return m.eachTimeDependent(func(td TimeDependent) error { return td.RollTimePoint(ctx) })
}

func (m *Subcircuit) InitializeState(ctx *Context) error {
	return m.eachTimeDependent(func(td TimeDependent) error { return td.InitializeState(ctx) })
}

func (m *Subcircuit) eachTimeDependent(fn func(TimeDependent) error) error {
	for _, d := range m.inner {
		if td, ok := d.(TimeDependent); ok {
			if err := fn(td); err != nil {
				return err
			}
		}
	}
	return nil
}
