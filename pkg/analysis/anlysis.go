// Package analysis drives simulations of a circuit: the Newton-Raphson
// circuit model and the operating point, transient and dc sweep analyses
// built on it.
package analysis

import (
	"fmt"

	"github.com/edp1096/spicesim/pkg/circuit"
	"github.com/edp1096/spicesim/pkg/model"
	"github.com/edp1096/spicesim/pkg/util"
)

type Analysis interface {
	Setup(ckt *circuit.Circuit) error
	Execute() error
	GetResults() map[string][]float64
}

type BaseAnalysis struct {
	Circuit *circuit.Circuit
	Model   *CircuitModel
	options []Option
	results map[string][]float64 // key: variable name, value: result by time
}

func NewBaseAnalysis(opts ...Option) *BaseAnalysis {
	return &BaseAnalysis{options: opts, results: make(map[string][]float64)}
}

// setup builds the circuit model with the analysis options.
func (a *BaseAnalysis) setup(ckt *circuit.Circuit) error {
	m, err := NewCircuitModel(ckt, a.options...)
	if err != nil {
		return err
	}
	a.Circuit = ckt
	a.Model = m
	return nil
}

// Snapshot names every top level observable: V(node) for the nodes and
// I(device) for the two terminal devices.
func (a *BaseAnalysis) Snapshot() map[string]float64 {
	out := make(map[string]float64)
	for i := 1; i < a.Circuit.NodeCount(); i++ {
		out[fmt.Sprintf("V(%s)", a.Circuit.NodeName(i))] = a.Model.NodeVoltage(i)
	}
	for _, d := range a.Model.Devices() {
		if tt, ok := d.(model.TwoTerminal); ok {
			out[fmt.Sprintf("I(%s)", d.Definition().GetName())] = tt.Current()
		}
	}
	return out
}

func (a *BaseAnalysis) StoreTimeResult(time float64, solution map[string]float64) {
	// Ignore same time
	if times := a.results["TIME"]; len(times) > 0 {
		lastTime := times[len(times)-1]
		if time == lastTime {
			return
		}
		// Compare rounded string. 1.999999e-05 == 2.000000e-05
		if util.FormatValueFactor(time, "s") == util.FormatValueFactor(lastTime, "s") {
			return
		}
	}
	a.store("TIME", time, solution)
}

func (a *BaseAnalysis) store(axis string, x float64, solution map[string]float64) {
	if axis != "" {
		a.results[axis] = append(a.results[axis], x)
	}
	for name, value := range solution {
		a.results[name] = append(a.results[name], value)
	}
}

func (a *BaseAnalysis) GetResults() map[string][]float64 {
	return a.results
}

// Names returns the stored result keys in display order: the axis first,
// then voltages, then currents.
func Names(results map[string][]float64) []string {
	return util.SortNames(results)
}
