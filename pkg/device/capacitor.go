package device

type Capacitor struct {
	BaseDevice
	// InitialVoltage is used instead of the bias point when set.
	InitialVoltage *float64
}

func NewCapacitor(name string, a, b int, value float64) *Capacitor {
	return &Capacitor{BaseDevice: newBase(name, value, a, b)}
}

// WithInitialVoltage returns a copy carrying an IC= value.
func (c *Capacitor) WithInitialVoltage(v float64) *Capacitor {
	n := c.Clone().(*Capacitor)
	n.InitialVoltage = &v
	return n
}

func (c *Capacitor) GetType() Kind { return KindCapacitor }

// Open at DC.
func (c *Capacitor) Branches() []Branch { return twoTerminal(&c.BaseDevice, CurrentDefined) }

func (c *Capacitor) Clone() Definition {
	n := *c
	n.BaseDevice = c.BaseDevice.clone()
	if c.InitialVoltage != nil {
		v := *c.InitialVoltage
		n.InitialVoltage = &v
	}
	return &n
}
