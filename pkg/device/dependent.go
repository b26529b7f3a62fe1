package device

// VCVS drives v(a)-v(b) = gain * (v(cp)-v(cn)).
type VCVS struct {
	BaseDevice
}

func NewVCVS(name string, a, b, cp, cn int, gain float64) *VCVS {
	return &VCVS{BaseDevice: newBase(name, gain, a, b, cp, cn)}
}

func (e *VCVS) GetType() Kind { return KindVCVS }

func (e *VCVS) Branches() []Branch { return twoTerminal(&e.BaseDevice, VoltageDefined) }

func (e *VCVS) Clone() Definition { return &VCVS{BaseDevice: e.BaseDevice.clone()} }

// VCCS injects gm * (v(cp)-v(cn)) into b, drawn out of a.
type VCCS struct {
	BaseDevice
}

func NewVCCS(name string, a, b, cp, cn int, gm float64) *VCCS {
	return &VCCS{BaseDevice: newBase(name, gm, a, b, cp, cn)}
}

func (g *VCCS) GetType() Kind { return KindVCCS }

func (g *VCCS) Branches() []Branch { return twoTerminal(&g.BaseDevice, CurrentDefined) }

func (g *VCCS) Clone() Definition { return &VCCS{BaseDevice: g.BaseDevice.clone()} }

// CCCS injects gain * i(Ref) into b, drawn out of a. Ref names a voltage
// defined device whose branch current is read.
type CCCS struct {
	BaseDevice
	Ref string
}

func NewCCCS(name string, a, b int, ref string, gain float64) *CCCS {
	return &CCCS{BaseDevice: newBase(name, gain, a, b), Ref: ref}
}

func (f *CCCS) GetType() Kind { return KindCCCS }

func (f *CCCS) Reference() string { return f.Ref }

func (f *CCCS) Branches() []Branch { return twoTerminal(&f.BaseDevice, CurrentDefined) }

func (f *CCCS) Clone() Definition { return &CCCS{BaseDevice: f.BaseDevice.clone(), Ref: f.Ref} }

// CCVS drives v(a)-v(b) = gain * i(Ref).
type CCVS struct {
	BaseDevice
	Ref string
}

func NewCCVS(name string, a, b int, ref string, gain float64) *CCVS {
	return &CCVS{BaseDevice: newBase(name, gain, a, b), Ref: ref}
}

func (h *CCVS) GetType() Kind { return KindCCVS }

func (h *CCVS) Reference() string { return h.Ref }

func (h *CCVS) Branches() []Branch { return twoTerminal(&h.BaseDevice, VoltageDefined) }

func (h *CCVS) Clone() Definition { return &CCVS{BaseDevice: h.BaseDevice.clone(), Ref: h.Ref} }

// rescope prefixes the reference of a current controlled clone.
func rescope(d Definition, prefix string) {
	switch c := d.(type) {
	case *CCCS:
		c.Ref = prefix + c.Ref
	case *CCVS:
		c.Ref = prefix + c.Ref
	}
}
