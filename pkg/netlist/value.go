// Package netlist parses the SPICE value syntax used inside circuit decks:
// numbers with magnitude suffixes and independent source descriptions.
package netlist

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var unitMap = map[string]float64{
	"t":   1e12,  // tera
	"g":   1e9,   // giga
	"meg": 1e6,   // mega
	"k":   1e3,   // kilo
	"m":   1e-3,  // milli
	"mil": 25.4e-6,
	"u":   1e-6,  // micro
	"n":   1e-9,  // nano
	"p":   1e-12, // pico
	"f":   1e-15, // femto
}

// trailing letters after the scale factor are units and ignored, as in 10uF
var valuePattern = regexp.MustCompile(`^([-+]?(?:\d+\.?\d*|\.\d+)(?:[eE][-+]?\d+)?)(meg|mil|[tgkmunpf])?[a-z]*$`)

// ParseValue converts "4.7k", "1MEG", "5n", "10uF" or "1e-3" to a float.
// Scale factors are case insensitive, so "M" is milli as in SPICE.
func ParseValue(val string) (float64, error) {
	matches := valuePattern.FindStringSubmatch(strings.ToLower(strings.TrimSpace(val)))
	if matches == nil {
		return 0, fmt.Errorf("invalid value format: %q", val)
	}

	num, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return 0, err
	}

	// factor
	if multiplier, ok := unitMap[matches[2]]; ok {
		num *= multiplier
	}

	return num, nil
}

func parseValues(fields []string, what string) ([]float64, error) {
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := ParseValue(f)
		if err != nil {
			return nil, fmt.Errorf("invalid %s parameter %d: %w", what, i+1, err)
		}
		out[i] = v
	}
	return out, nil
}
