package model

import (
	"fmt"

	"github.com/edp1096/spicesim/pkg/device"
)

// Constructor builds the model of one definition. nodes hands out internal
// nodes to composite devices.
type Constructor func(f *Factory, def device.Definition, nodes *device.NodeAllocator) (Device, error)

// Factory maps device kinds to model constructors.
type Factory struct {
	ctors map[device.Kind]Constructor
}

// NewFactory returns a factory populated with the built-in models.
func NewFactory() *Factory {
	f := &Factory{ctors: make(map[device.Kind]Constructor)}
	f.Register(device.KindResistor, leaf(NewResistor))
	f.Register(device.KindCapacitor, leaf(NewCapacitor))
	f.Register(device.KindInductor, leaf(NewInductor))
	f.Register(device.KindVoltageSource, leaf(NewVoltageSource))
	f.Register(device.KindCurrentSource, leaf(NewCurrentSource))
	f.Register(device.KindDiode, leaf(NewDiode))
	f.Register(device.KindBjt, leaf(NewBjt))
	f.Register(device.KindVCVS, leaf(NewVCVS))
	f.Register(device.KindVCCS, leaf(NewVCCS))
	f.Register(device.KindCCCS, leaf(NewCCCS))
	f.Register(device.KindCCVS, leaf(NewCCVS))
	f.Register(device.KindSubcircuit, func(f *Factory, def device.Definition, nodes *device.NodeAllocator) (Device, error) {
		x, ok := def.(*device.Subcircuit)
		if !ok {
			return nil, mismatch(def)
		}
		return NewSubcircuit(f, x, nodes)
	})
	return f
}

// Register installs or replaces the constructor for kind.
func (f *Factory) Register(kind device.Kind, ctor Constructor) {
	f.ctors[kind] = ctor
}

func (f *Factory) Build(def device.Definition, nodes *device.NodeAllocator) (Device, error) {
	ctor, ok := f.ctors[def.GetType()]
	if !ok {
		return nil, deviceError(def.GetName(), fmt.Errorf("%w %q", ErrUnknownKind, def.GetType()))
	}
	return ctor(f, def, nodes)
}

// leaf adapts a typed constructor of a device without inner nodes.
func leaf[D device.Definition, M Device](ctor func(D) (M, error)) Constructor {
	return func(_ *Factory, def device.Definition, _ *device.NodeAllocator) (Device, error) {
		d, ok := def.(D)
		if !ok {
			return nil, mismatch(def)
		}
		m, err := ctor(d)
		if err != nil {
			return nil, err
		}
		return m, nil
	}
}

func mismatch(def device.Definition) error {
	return deviceError(def.GetName(), fmt.Errorf("definition %T does not match kind %q", def, def.GetType()))
}
