package device

type VoltageSource struct {
	BaseDevice
	Wave Waveform
}

func NewVoltageSource(name string, pos, neg int, wave Waveform) *VoltageSource {
	return &VoltageSource{
		BaseDevice: newBase(name, wave.At(0), pos, neg),
		Wave:       wave,
	}
}

func NewDCVoltageSource(name string, pos, neg int, value float64) *VoltageSource {
	return NewVoltageSource(name, pos, neg, DCWave(value))
}

func NewSinVoltageSource(name string, pos, neg int, offset, amplitude, freq, phase float64) *VoltageSource {
	return NewVoltageSource(name, pos, neg, SinWave(offset, amplitude, freq, phase))
}

func NewPulseVoltageSource(name string, pos, neg int, v1, v2, delay, rise, fall, pWidth, period float64) *VoltageSource {
	return NewVoltageSource(name, pos, neg, PulseWave(v1, v2, delay, rise, fall, pWidth, period))
}

func (v *VoltageSource) GetType() Kind { return KindVoltageSource }

func (v *VoltageSource) GetVoltage(t float64) float64 { return v.Wave.At(t) }

func (v *VoltageSource) Branches() []Branch { return twoTerminal(&v.BaseDevice, VoltageDefined) }

func (v *VoltageSource) Clone() Definition {
	n := *v
	n.BaseDevice = v.BaseDevice.clone()
	n.Wave = v.Wave.clone()
	return &n
}
