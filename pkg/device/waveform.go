package device

import (
	"fmt"
	"math"
)

type SourceType int

const (
	DC SourceType = iota
	SIN
	PULSE
	PWL
)

func (s SourceType) String() string {
	switch s {
	case SIN:
		return "SIN"
	case PULSE:
		return "PULSE"
	case PWL:
		return "PWL"
	default:
		return "DC"
	}
}

// Waveform is the time function of an independent source.
type Waveform struct {
	Type SourceType
	// DC, SIN offset
	Offset float64
	// SIN
	Amplitude float64
	Freq      float64
	Phase     float64 // degrees
	// PULSE
	V1, V2 float64
	Delay  float64
	Rise   float64
	Fall   float64
	PWidth float64
	Period float64
	// PWL
	Times  []float64
	Values []float64
}

func DCWave(value float64) Waveform {
	return Waveform{Type: DC, Offset: value}
}

func SinWave(offset, amplitude, freq, phase float64) Waveform {
	return Waveform{Type: SIN, Offset: offset, Amplitude: amplitude, Freq: freq, Phase: phase}
}

func PulseWave(v1, v2, delay, rise, fall, pWidth, period float64) Waveform {
	return Waveform{Type: PULSE, V1: v1, V2: v2, Delay: delay, Rise: rise, Fall: fall, PWidth: pWidth, Period: period}
}

func PWLWave(times, values []float64) (Waveform, error) {
	if len(times) == 0 || len(times) != len(values) {
		return Waveform{}, fmt.Errorf("pwl: %d times for %d values", len(times), len(values))
	}
	for i := 1; i < len(times); i++ {
		if times[i] <= times[i-1] {
			return Waveform{}, fmt.Errorf("pwl: times must increase (t[%d]=%g after %g)", i, times[i], times[i-1])
		}
	}
	return Waveform{
		Type:   PWL,
		Times:  append([]float64(nil), times...),
		Values: append([]float64(nil), values...),
	}, nil
}

// At evaluates the waveform at time t.
func (w Waveform) At(t float64) float64 {
	switch w.Type {
	case SIN:
		phaseRad := w.Phase * math.Pi / 180.0
		return w.Offset + w.Amplitude*math.Sin(2.0*math.Pi*w.Freq*t+phaseRad)
	case PULSE:
		return w.pulse(t)
	case PWL:
		return w.pwl(t)
	default:
		return w.Offset
	}
}

func (w Waveform) pulse(t float64) float64 {
	if t < w.Delay {
		return w.V1
	}

	t -= w.Delay
	if w.Period > 0 {
		t = math.Mod(t, w.Period)
	}

	if t < w.Rise {
		return w.V1 + (w.V2-w.V1)*t/w.Rise
	}
	if t < w.Rise+w.PWidth {
		return w.V2
	}

	fallStart := w.Rise + w.PWidth
	if t < fallStart+w.Fall {
		return w.V2 - (w.V2-w.V1)*(t-fallStart)/w.Fall
	}

	return w.V1
}

func (w Waveform) pwl(t float64) float64 {
	if t <= w.Times[0] {
		return w.Values[0]
	}

	last := len(w.Times) - 1
	if t >= w.Times[last] {
		return w.Values[last]
	}

	for i := 1; i < len(w.Times); i++ {
		if t <= w.Times[i] {
			t1, t2 := w.Times[i-1], w.Times[i]
			v1, v2 := w.Values[i-1], w.Values[i]
			return v1 + (v2-v1)*(t-t1)/(t2-t1)
		}
	}

	return w.Values[last]
}

func (w Waveform) clone() Waveform {
	w.Times = append([]float64(nil), w.Times...)
	w.Values = append([]float64(nil), w.Values...)
	return w
}
