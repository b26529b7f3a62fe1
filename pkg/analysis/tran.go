package analysis

import (
	"fmt"
	"math"

	"github.com/edp1096/spicesim/pkg/circuit"
)

// Transient steps the circuit at fixed print intervals of timeStep. The
// circuit model substeps each interval to stay within maxStep.
type Transient struct {
	BaseAnalysis
	startTime float64
	stopTime  float64
	timeStep  float64
	maxStep   float64
	useUIC    bool
}

func NewTransient(tStart, tStop, tStep, tMax float64, uic bool, opts ...Option) *Transient {
	if tMax == 0 {
		tMax = tStep
	}

	return &Transient{
		BaseAnalysis: *NewBaseAnalysis(opts...),
		startTime:    tStart,
		stopTime:     tStop,
		timeStep:     tStep,
		maxStep:      min(tMax, tStep),
		useUIC:       uic,
	}
}

func (tr *Transient) Setup(ckt *circuit.Circuit) error {
	if !(tr.timeStep > 0) || !(tr.stopTime > 0) || tr.startTime < 0 || tr.startTime > tr.stopTime {
		return fmt.Errorf("transient: invalid times start=%g stop=%g step=%g", tr.startTime, tr.stopTime, tr.timeStep)
	}
	if err := tr.setup(ckt); err != nil {
		return err
	}
	return tr.Model.SetMaxTimeStep(tr.maxStep)
}

func (tr *Transient) Execute() error {
	if tr.Model == nil {
		return fmt.Errorf("transient: circuit not set")
	}

	if tr.useUIC {
		if err := tr.Model.UseInitialConditions(); err != nil {
			return fmt.Errorf("transient: %w", err)
		}
	} else if err := tr.Model.EstablishDcBias(); err != nil {
		return fmt.Errorf("operating point analysis error: %w", err)
	}
	if tr.startTime == 0 {
		tr.StoreTimeResult(0, tr.Snapshot())
	}

	// print points are k*timeStep so rounding does not accumulate
	points := int(math.Ceil(tr.stopTime/tr.timeStep - 1e-9))
	for k := 1; k <= points; k++ {
		next := min(float64(k)*tr.timeStep, tr.stopTime)
		dt := next - tr.Model.CurrentTimePoint()
		if dt <= 0 {
			continue
		}
		if err := tr.Model.AdvanceInTime(dt); err != nil {
			return fmt.Errorf("transient: %w", err)
		}
		if next >= tr.startTime-tr.timeStep*1e-9 {
			tr.StoreTimeResult(next, tr.Snapshot())
		}
	}
	return nil
}
