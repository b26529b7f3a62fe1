package device

import "github.com/edp1096/spicesim/internal/consts"

type Resistor struct {
	BaseDevice
	Tc1  float64
	Tc2  float64
	Tnom float64
}

func NewResistor(name string, a, b int, value float64) *Resistor {
	return &Resistor{
		BaseDevice: newBase(name, value, a, b),
		Tnom:       consts.TNOM,
	}
}

func (r *Resistor) GetType() Kind { return KindResistor }

func (r *Resistor) Branches() []Branch { return twoTerminal(&r.BaseDevice, Resistive) }

func (r *Resistor) Clone() Definition {
	c := *r
	c.BaseDevice = r.BaseDevice.clone()
	return &c
}

// Resistance returns the value corrected for temperature.
func (r *Resistor) Resistance(temp float64) float64 {
	dt := temp - r.Tnom
	return r.Value * (1.0 + r.Tc1*dt + r.Tc2*dt*dt)
}
