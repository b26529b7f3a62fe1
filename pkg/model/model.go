// Package model wraps device definitions into large-signal models that stamp
// the MNA system. A model is created per analysis and owns all mutable solve
// state; the definition it wraps is never modified.
package model

import (
	"errors"
	"fmt"

	"github.com/edp1096/spicesim/pkg/device"
	"github.com/edp1096/spicesim/pkg/integration"
	"github.com/edp1096/spicesim/pkg/matrix"
)

var (
	ErrNotRegistered     = errors.New("model: device used before Register")
	ErrAlreadyRegistered = errors.New("model: device registered twice")
	ErrUnknownKind       = errors.New("model: no constructor for device kind")
	ErrNotInitialized    = errors.New("model: time dependent state not initialized")
)

// DeviceError ties a failure to the device that produced it.
type DeviceError struct {
	Tag string
	Err error
}

func (e *DeviceError) Error() string { return fmt.Sprintf("device %s: %v", e.Tag, e.Err) }

func (e *DeviceError) Unwrap() error { return e.Err }

func deviceError(tag string, err error) error {
	if err == nil {
		return nil
	}
	var de *DeviceError
	if errors.As(err, &de) {
		return err
	}
	return &DeviceError{Tag: tag, Err: err}
}

type Mode int

const (
	DC Mode = iota
	Transient
)

func (m Mode) String() string {
	if m == Transient {
		return "transient"
	}
	return "dc"
}

// Context is the solve state shared with every model during one iteration.
type Context struct {
	Mode        Mode
	Time        float64
	TimeStep    float64
	Temperature float64 // K
	// Solution is the latest solved unknown vector, index 0 is ground.
	Solution []float64
	// UseInitialConditions skips the bias point: reactive devices start from
	// their IC values.
	UseInitialConditions bool
	Integrator           func() integration.Method[float64]
}

// Value returns solution[i], 0 for ground or before the first solve.
func (c *Context) Value(i int) float64 {
	if i <= 0 || i >= len(c.Solution) {
		return 0
	}
	return c.Solution[i]
}

func (c *Context) Voltage(a, b int) float64 { return c.Value(a) - c.Value(b) }

type Device interface {
	Definition() device.Definition
	// Register allocates branch variables. Called once, in circuit order.
	Register(b *matrix.Builder[float64]) error
	Stamp(ctx *Context, sys *matrix.System) error
	OnEquationSolution(ctx *Context)
}

// Linker is implemented by devices that refer to other devices by name.
// It runs after every device is registered.
type Linker interface {
	Link(find func(tag string) (Device, bool)) error
}

type NonLinear interface {
	// UpdateNonlinearModel linearizes around the latest solution.
	UpdateNonlinearModel(ctx *Context) error
	ApplyNonlinearModelValues(sys *matrix.System) error
	// Converged is false while the last update had to limit its input.
	Converged() bool
}

type TimeDependent interface {
	// UpdateTimeDependentModel refreshes the companion model for ctx.TimeStep.
	UpdateTimeDependentModel(ctx *Context) error
	// RollTimePoint commits the accepted solution into the history.
	RollTimePoint(ctx *Context) error
	// InitializeState seeds the history from the bias point.
	InitializeState(ctx *Context) error
}

type TwoTerminal interface {
	Voltage() float64
	Current() float64
}

type BranchOwner interface {
	Branch() int
}

type State struct {
	Name  string
	Value func() float64
}

type StateProvider interface {
	States() []State
}

// Composite is implemented by models that hold inner models.
type Composite interface {
	Children() []Device
}

type Phase int

const (
	Uninitialized Phase = iota
	Registered
	Stamped
	Updated
	Solved
)

func (p Phase) String() string {
	switch p {
	case Registered:
		return "registered"
	case Stamped:
		return "stamped"
	case Updated:
		return "updated"
	case Solved:
		return "solved"
	default:
		return "uninitialized"
	}
}

// core carries the definition and lifecycle every model shares.
type core struct {
	def   device.Definition
	phase Phase
}

func (c *core) Definition() device.Definition { return c.def }

func (c *core) Phase() Phase { return c.phase }

func (c *core) tag() string { return c.def.GetName() }

func (c *core) register() error {
	if c.phase != Uninitialized {
		return deviceError(c.tag(), ErrAlreadyRegistered)
	}
	c.phase = Registered
	return nil
}

func (c *core) ready() error {
	if c.phase == Uninitialized {
		return deviceError(c.tag(), ErrNotRegistered)
	}
	return nil
}

func (c *core) stamped(err error) error {
	if err != nil {
		return deviceError(c.tag(), err)
	}
	c.phase = Stamped
	return nil
}

func (c *core) solved() {
	if c.phase != Uninitialized {
		c.phase = Solved
	}
}
