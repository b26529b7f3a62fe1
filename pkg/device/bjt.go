package device

import "github.com/edp1096/spicesim/internal/consts"

type Polarity int

const (
	NPN Polarity = 1
	PNP Polarity = -1
)

func (p Polarity) String() string {
	if p == PNP {
		return "pnp"
	}
	return "npn"
}

// Bjt is an Ebers-Moll transport model with forward Early effect.
// Nodes are collector, base, emitter.
type Bjt struct {
	BaseDevice
	Polarity Polarity
	Is       float64 // Transport saturation current
	Bf       float64 // Ideal maximum forward beta
	Br       float64 // Ideal maximum reverse beta
	Nf       float64 // Forward emission coefficient
	Nr       float64 // Reverse emission coefficient
	Vaf      float64 // Forward Early voltage, 0 disables
	Eg       float64 // Energy gap for temperature effect on Is
	Xti      float64 // Temperature exponent for effect on Is
	Tnom     float64 // Parameter measurement temperature
}

func NewBJT(name string, c, b, e int, polarity Polarity) *Bjt {
	q := &Bjt{BaseDevice: newBase(name, 0, c, b, e), Polarity: polarity}
	q.setDefaultParameters()
	return q
}

func (q *Bjt) setDefaultParameters() {
	q.Is = 1e-16
	q.Bf = 100.0
	q.Br = 1.0
	q.Nf = 1.0
	q.Nr = 1.0
	q.Vaf = 0
	q.Eg = 1.11
	q.Xti = 3.0
	q.Tnom = consts.TNOM
}

func (q *Bjt) SetModelParameters(params map[string]float64) error {
	return setParameters(q.Name, params, map[string]*float64{
		"is":   &q.Is,
		"bf":   &q.Bf,
		"br":   &q.Br,
		"nf":   &q.Nf,
		"nr":   &q.Nr,
		"vaf":  &q.Vaf,
		"eg":   &q.Eg,
		"xti":  &q.Xti,
		"tnom": &q.Tnom,
	})
}

func (q *Bjt) GetType() Kind { return KindBjt }

// Both junctions conduct at DC.
func (q *Bjt) Branches() []Branch {
	c, b, e := q.Nodes[0], q.Nodes[1], q.Nodes[2]
	return []Branch{
		{A: b, B: c, Kind: Resistive},
		{A: b, B: e, Kind: Resistive},
	}
}

func (q *Bjt) Clone() Definition {
	n := *q
	n.BaseDevice = q.BaseDevice.clone()
	return &n
}

func (q *Bjt) SaturationCurrent(temp float64) float64 {
	return saturationCurrent(q.Is, q.Nf, q.Eg, q.Xti, q.Tnom, temp)
}
