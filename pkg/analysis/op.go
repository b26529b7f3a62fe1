package analysis

import (
	"fmt"

	"github.com/edp1096/spicesim/pkg/circuit"
)

type OperatingPoint struct{ BaseAnalysis }

func NewOP(opts ...Option) *OperatingPoint {
	return &OperatingPoint{
		BaseAnalysis: *NewBaseAnalysis(opts...),
	}
}

func (op *OperatingPoint) Setup(ckt *circuit.Circuit) error {
	return op.setup(ckt)
}

func (op *OperatingPoint) Execute() error {
	if op.Model == nil {
		return fmt.Errorf("operating point: circuit not set")
	}
	if err := op.Model.EstablishDcBias(); err != nil {
		return fmt.Errorf("operating point: %w", err)
	}
	op.store("", 0, op.Snapshot())
	return nil
}
