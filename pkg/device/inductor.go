package device

type Inductor struct {
	BaseDevice
	// InitialCurrent is used instead of the bias point when set.
	InitialCurrent *float64
}

func NewInductor(name string, a, b int, value float64) *Inductor {
	return &Inductor{BaseDevice: newBase(name, value, a, b)}
}

// WithInitialCurrent returns a copy carrying an IC= value.
func (l *Inductor) WithInitialCurrent(i float64) *Inductor {
	n := l.Clone().(*Inductor)
	n.InitialCurrent = &i
	return n
}

func (l *Inductor) GetType() Kind { return KindInductor }

// Short at DC.
func (l *Inductor) Branches() []Branch { return twoTerminal(&l.BaseDevice, VoltageDefined) }

func (l *Inductor) Clone() Definition {
	n := *l
	n.BaseDevice = l.BaseDevice.clone()
	if l.InitialCurrent != nil {
		i := *l.InitialCurrent
		n.InitialCurrent = &i
	}
	return &n
}
