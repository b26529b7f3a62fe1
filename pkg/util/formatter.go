package util

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
)

func FormatValueFactor(value float64, unit string) string {
	absValue := math.Abs(value)
	switch {
	case absValue >= 1e6:
		return fmt.Sprintf("%.3f M%s", value/1e6, unit)
	case absValue >= 1e3:
		return fmt.Sprintf("%.3f k%s", value/1e3, unit)
	case absValue >= 1:
		return fmt.Sprintf("%.3f %s", value, unit)
	case absValue >= 1e-3:
		return fmt.Sprintf("%.3f m%s", value*1e3, unit)
	case absValue >= 1e-6:
		return fmt.Sprintf("%.3f u%s", value*1e6, unit)
	case absValue >= 1e-9:
		return fmt.Sprintf("%.3f n%s", value*1e9, unit)
	case absValue >= 1e-12:
		return fmt.Sprintf("%.3f p%s", value*1e12, unit)
	case absValue == 0:
		return fmt.Sprintf("%.3f %s", value, unit)
	default:
		return fmt.Sprintf("%.3e %s", value, unit)
	}
}

// Unit returns the unit of a result series: V for V(node), A for I(device)
// and s for TIME.
func Unit(name string) string {
	switch {
	case name == "TIME":
		return "s"
	case strings.HasPrefix(name, "V("):
		return "V"
	case strings.HasPrefix(name, "I("):
		return "A"
	}
	return ""
}

// SortNames orders result series with the axis first, then node voltages,
// then everything else.
func SortNames(results map[string][]float64) []string {
	rank := func(name string) int {
		switch {
		case name == "TIME" || name == "SWEEP":
			return 0
		case strings.HasPrefix(name, "V("):
			return 1
		default:
			return 2
		}
	}
	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		ri, rj := rank(names[i]), rank(names[j])
		if ri != rj {
			return ri < rj
		}
		return names[i] < names[j]
	})
	return names
}

// PrintResults writes one line per point. A result set without an axis is
// an operating point and is printed one value per line.
func PrintResults(w io.Writer, results map[string][]float64, sweepUnit string) error {
	names := SortNames(results)
	if len(names) == 0 {
		_, err := fmt.Fprintln(w, "no results")
		return err
	}

	axis := names[0]
	if axis != "TIME" && axis != "SWEEP" {
		for _, name := range names {
			if len(results[name]) == 0 {
				continue
			}
			if _, err := fmt.Fprintf(w, "%-12s = %s\n", name, FormatValueFactor(results[name][0], Unit(name))); err != nil {
				return err
			}
		}
		return nil
	}

	unit := Unit(axis)
	if axis == "SWEEP" {
		unit = sweepUnit
	}
	var sb strings.Builder
	for i, x := range results[axis] {
		sb.Reset()
		fmt.Fprintf(&sb, "%12s ", FormatValueFactor(x, unit))
		for _, name := range names[1:] {
			values := results[name]
			if i >= len(values) {
				continue
			}
			fmt.Fprintf(&sb, " %s=%s", name, FormatValueFactor(values[i], Unit(name)))
		}
		sb.WriteByte('\n')
		if _, err := io.WriteString(w, sb.String()); err != nil {
			return err
		}
	}
	return nil
}
