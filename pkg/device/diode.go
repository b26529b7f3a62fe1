package device

import (
	"fmt"
	"math"
	"sort"

	"github.com/edp1096/spicesim/internal/consts"
)

type Diode struct {
	BaseDevice
	Is   float64 // Saturation current
	N    float64 // Emission coefficient
	Gmin float64 // Minimum conductance across the junction
	Eg   float64 // Energy gap (eV)
	Xti  float64 // Saturation current temperature exponent
	Tnom float64 // Parameter measurement temperature (K)
}

// NewDiode connects the anode to a and the cathode to b.
func NewDiode(name string, a, b int) *Diode {
	d := &Diode{BaseDevice: newBase(name, 0, a, b)}
	d.setDefaultParameters()
	return d
}

func (d *Diode) setDefaultParameters() {
	d.Is = 1e-14
	d.N = 1.0
	d.Gmin = 1e-12
	d.Eg = 1.11 // Silicon bandgap
	d.Xti = 3.0
	d.Tnom = consts.TNOM
}

// SetModelParameters applies .MODEL style overrides keyed by lower case name.
func (d *Diode) SetModelParameters(params map[string]float64) error {
	return setParameters(d.Name, params, map[string]*float64{
		"is":   &d.Is,
		"n":    &d.N,
		"gmin": &d.Gmin,
		"eg":   &d.Eg,
		"xti":  &d.Xti,
		"tnom": &d.Tnom,
	})
}

func (d *Diode) GetType() Kind { return KindDiode }

func (d *Diode) Branches() []Branch { return twoTerminal(&d.BaseDevice, Resistive) }

func (d *Diode) Clone() Definition {
	n := *d
	n.BaseDevice = d.BaseDevice.clone()
	return &n
}

// SaturationCurrent returns Is at temp.
func (d *Diode) SaturationCurrent(temp float64) float64 {
	return saturationCurrent(d.Is, d.N, d.Eg, d.Xti, d.Tnom, temp)
}

func saturationCurrent(is, n, eg, xti, tnom, temp float64) float64 {
	if temp <= 0 || tnom <= 0 || temp == tnom {
		return is
	}
	ratio := temp / tnom
	vt := consts.ThermalVoltage(temp)
	return is * math.Pow(ratio, xti/n) * math.Exp((ratio-1.0)*eg/(n*vt))
}

func setParameters(name string, params map[string]float64, fields map[string]*float64) error {
	var unknown []string
	for key, value := range params {
		field, ok := fields[key]
		if !ok {
			unknown = append(unknown, key)
			continue
		}
		*field = value
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("device %s: unknown model parameters %v", name, unknown)
	}
	return nil
}
