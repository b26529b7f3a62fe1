package device

// CurrentSource injects its current into the first node and draws it out of
// the second.
type CurrentSource struct {
	BaseDevice
	Wave Waveform
}

func NewCurrentSource(name string, a, b int, wave Waveform) *CurrentSource {
	return &CurrentSource{
		BaseDevice: newBase(name, wave.At(0), a, b),
		Wave:       wave,
	}
}

func NewDCCurrentSource(name string, a, b int, value float64) *CurrentSource {
	return NewCurrentSource(name, a, b, DCWave(value))
}

func (i *CurrentSource) GetType() Kind { return KindCurrentSource }

func (i *CurrentSource) GetCurrent(t float64) float64 { return i.Wave.At(t) }

func (i *CurrentSource) Branches() []Branch { return twoTerminal(&i.BaseDevice, CurrentDefined) }

func (i *CurrentSource) Clone() Definition {
	n := *i
	n.BaseDevice = i.BaseDevice.clone()
	n.Wave = i.Wave.clone()
	return &n
}
