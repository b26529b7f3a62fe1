package netlist

import (
	"fmt"
	"strings"

	"github.com/edp1096/spicesim/pkg/device"
)

// ParseWaveform reads an independent source description:
//
//	5 | DC 5
//	SIN(offset amplitude freq [phase])
//	PULSE(v1 v2 delay rise fall width period)
//	PWL(t1 v1 t2 v2 ...)
func ParseWaveform(src string) (device.Waveform, error) {
	src = strings.TrimSpace(src)
	kind, params := src, ""
	if open := strings.IndexByte(src, '('); open >= 0 {
		if !strings.HasSuffix(src, ")") {
			return device.Waveform{}, fmt.Errorf("unbalanced parenthesis in %q", src)
		}
		kind, params = strings.TrimSpace(src[:open]), src[open+1:len(src)-1]
	} else if fields := strings.Fields(src); len(fields) == 2 {
		kind, params = fields[0], fields[1]
	}

	fields := strings.Fields(strings.ReplaceAll(params, ",", " "))
	switch strings.ToUpper(kind) {
	case "DC":
		return parseDC(fields)
	case "SIN":
		return parseSin(fields)
	case "PULSE":
		return parsePulse(fields)
	case "PWL":
		return parsePWL(fields)
	}
	v, err := ParseValue(src)
	if err != nil {
		return device.Waveform{}, fmt.Errorf("unsupported source %q", src)
	}
	return device.DCWave(v), nil
}

func parseDC(fields []string) (device.Waveform, error) {
	if len(fields) != 1 {
		return device.Waveform{}, fmt.Errorf("DC needs one value, got %d", len(fields))
	}
	v, err := parseValues(fields, "DC")
	if err != nil {
		return device.Waveform{}, err
	}
	return device.DCWave(v[0]), nil
}

func parseSin(fields []string) (device.Waveform, error) {
	if len(fields) < 3 || len(fields) > 4 {
		return device.Waveform{}, fmt.Errorf("insufficient SIN parameters")
	}
	v, err := parseValues(fields, "SIN")
	if err != nil {
		return device.Waveform{}, err
	}
	phase := 0.0
	if len(v) > 3 {
		phase = v[3]
	}
	return device.SinWave(v[0], v[1], v[2], phase), nil
}

func parsePulse(fields []string) (device.Waveform, error) {
	if len(fields) != 7 {
		return device.Waveform{}, fmt.Errorf("insufficient PULSE parameters")
	}
	v, err := parseValues(fields, "PULSE")
	if err != nil {
		return device.Waveform{}, err
	}
	return device.PulseWave(v[0], v[1], v[2], v[3], v[4], v[5], v[6]), nil
}

func parsePWL(fields []string) (device.Waveform, error) {
	if len(fields) < 4 || len(fields)%2 != 0 {
		return device.Waveform{}, fmt.Errorf("insufficient or invalid PWL parameters, need pairs of time-value")
	}
	v, err := parseValues(fields, "PWL")
	if err != nil {
		return device.Waveform{}, err
	}
	times := make([]float64, 0, len(v)/2)
	values := make([]float64, 0, len(v)/2)
	for i := 0; i < len(v); i += 2 {
		times = append(times, v[i])
		values = append(values, v[i+1])
	}
	return device.PWLWave(times, values)
}
