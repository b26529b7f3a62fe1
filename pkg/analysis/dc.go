package analysis

import (
	"fmt"

	"github.com/edp1096/spicesim/pkg/circuit"
	"github.com/edp1096/spicesim/pkg/device"
)

// DCSweep solves the operating point for every value of one independent
// source. Each point starts from the previous solution.
type DCSweep struct {
	BaseAnalysis
	sourceName string
	start      float64
	stop       float64
	increment  float64
	sweepVals  []float64
}

func NewDCSweep(source string, start, stop, increment float64, opts ...Option) *DCSweep {
	dc := &DCSweep{
		BaseAnalysis: *NewBaseAnalysis(opts...),
		sourceName:   source,
		start:        start,
		stop:         stop,
		increment:    increment,
	}

	if increment != 0 && (stop-start)/increment >= 0 {
		n := int((stop-start)/increment + 1e-9)
		for i := 0; i <= n; i++ {
			dc.sweepVals = append(dc.sweepVals, start+float64(i)*increment)
		}
	}
	return dc
}

func (dc *DCSweep) Setup(ckt *circuit.Circuit) error {
	if len(dc.sweepVals) == 0 {
		return fmt.Errorf("dc sweep: empty range %g to %g by %g", dc.start, dc.stop, dc.increment)
	}
	if _, err := dc.swept(ckt, dc.start); err != nil {
		return err
	}
	dc.Circuit = ckt
	return nil
}

// swept returns ckt with the source fixed at value.
func (dc *DCSweep) swept(ckt *circuit.Circuit, value float64) (*circuit.Circuit, error) {
	for _, d := range ckt.Devices() {
		if d.GetName() != dc.sourceName {
			continue
		}
		n := d.GetNodes()
		switch d.(type) {
		case *device.VoltageSource:
			return ckt.WithDevice(device.NewDCVoltageSource(dc.sourceName, n[0], n[1], value))
		case *device.CurrentSource:
			return ckt.WithDevice(device.NewDCCurrentSource(dc.sourceName, n[0], n[1], value))
		}
		return nil, fmt.Errorf("dc sweep: %s is not an independent source", dc.sourceName)
	}
	return nil, fmt.Errorf("dc sweep: source %s not found", dc.sourceName)
}

func (dc *DCSweep) Execute() error {
	if dc.Circuit == nil {
		return fmt.Errorf("dc sweep: circuit not set")
	}

	var guess []float64
	for _, val := range dc.sweepVals {
		ckt, err := dc.swept(dc.Circuit, val)
		if err != nil {
			return err
		}
		for node, v := range guess {
			if node > 0 && node < ckt.NodeCount() {
				if err := ckt.SetInitialVoltage(node, v); err != nil {
					return err
				}
			}
		}

		m, err := NewCircuitModel(ckt, dc.options...)
		if err != nil {
			return err
		}
		if err := m.EstablishDcBias(); err != nil {
			return fmt.Errorf("convergence error at %s=%g: %w", dc.sourceName, val, err)
		}
		dc.Model = m
		guess = m.NodeVoltages()
		dc.store("SWEEP", val, dc.Snapshot())
	}
	return nil
}
