package analysis

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/edp1096/spicesim/internal/config"
	"github.com/edp1096/spicesim/pkg/circuit"
	"github.com/edp1096/spicesim/pkg/device"
	"github.com/edp1096/spicesim/pkg/matrix"
	"github.com/edp1096/spicesim/pkg/model"
)

var (
	ErrNonPositiveStep = errors.New("analysis: time step must be positive")
	ErrTooManySubsteps = errors.New("analysis: too many substeps")
)

// maxSubsteps caps the substeps of a single AdvanceInTime call.
const maxSubsteps = 1 << 30

// IterationCountExceededError is returned when Newton-Raphson does not settle
// within the iteration cap. Residual is the largest unknown change of the
// last iteration.
type IterationCountExceededError struct {
	Iterations int
	Residual   float64
	Time       float64
}

func (e *IterationCountExceededError) Error() string {
	return fmt.Sprintf("no convergence after %d iterations at t=%g (residual %g)",
		e.Iterations, e.Time, e.Residual)
}

// NamedState is a diagnostic value of one device.
type NamedState struct {
	Device string
	model.State
}

type Option func(*CircuitModel)

func WithLogger(l *slog.Logger) Option {
	return func(m *CircuitModel) { m.log = l }
}

func WithConfig(cfg config.Simulation) Option {
	return func(m *CircuitModel) { m.cfg = cfg }
}

func WithFactory(f *model.Factory) Option {
	return func(m *CircuitModel) { m.factory = f }
}

// WithBackend overrides the solver named in the config.
func WithBackend(b matrix.Backend) Option {
	return func(m *CircuitModel) { m.backend = &b }
}

// CircuitModel owns the device models and the equation system of one
// circuit and drives the Newton-Raphson iterations of the bias point and of
// every time step.
type CircuitModel struct {
	ckt     *circuit.Circuit
	cfg     config.Simulation
	log     *slog.Logger
	factory *model.Factory
	backend *matrix.Backend

	devices   []model.Device
	index     map[string]model.Device
	nonlinear []model.NonLinear
	dynamic   []model.TimeDependent

	sys       *matrix.System
	ctx       model.Context
	nodeCount int
	solution  []float64

	time      float64
	lastIter  int
	totalIter int
	biased    bool
}

// NewCircuitModel validates ckt and builds one model per device definition.
func NewCircuitModel(ckt *circuit.Circuit, opts ...Option) (*CircuitModel, error) {
	m := &CircuitModel{
		ckt:     ckt,
		cfg:     config.Default(),
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		factory: model.NewFactory(),
		index:   make(map[string]model.Device),
	}
	for _, opt := range opts {
		opt(m)
	}
	if err := m.cfg.Validate(); err != nil {
		return nil, err
	}
	integrator, err := m.cfg.Integrator()
	if err != nil {
		return nil, err
	}
	backend := matrix.Dense
	if m.backend != nil {
		backend = *m.backend
	} else if backend, err = m.cfg.Backend(); err != nil {
		return nil, err
	}

	if err := ckt.Validate(); err != nil {
		return nil, fmt.Errorf("validating circuit %s: %w", ckt.Name(), err)
	}

	alloc := device.NewNodeAllocator(ckt.NodeCount())
	for _, def := range ckt.Devices() {
		d, err := m.factory.Build(def, alloc)
		if err != nil {
			return nil, fmt.Errorf("building model: %w", err)
		}
		m.devices = append(m.devices, d)
		if nl, ok := d.(model.NonLinear); ok {
			m.nonlinear = append(m.nonlinear, nl)
		}
		if td, ok := d.(model.TimeDependent); ok {
			m.dynamic = append(m.dynamic, td)
		}
		m.indexDevice(d)
	}
	m.nodeCount = alloc.NodeCount()

	builder := matrix.NewBuilder[float64](m.nodeCount)
	for _, d := range m.devices {
		if err := d.Register(builder); err != nil {
			return nil, fmt.Errorf("registering: %w", err)
		}
	}
	for _, d := range m.devices {
		if l, ok := d.(model.Linker); ok {
			if err := l.Link(m.FindDevice); err != nil {
				return nil, fmt.Errorf("linking: %w", err)
			}
		}
	}
	m.sys = builder.Build(backend)
	m.solution = make([]float64, m.sys.Size())
	m.ctx = model.Context{
		Temperature: m.cfg.Kelvin(),
		Integrator:  integrator,
	}

	m.log.Debug("circuit model built",
		"circuit", ckt.Name(),
		"devices", len(m.devices),
		"nodes", m.nodeCount,
		"unknowns", m.sys.Size()-1,
		"solver", backend.String())
	return m, nil
}

func (m *CircuitModel) indexDevice(d model.Device) {
	m.index[d.Definition().GetName()] = d
	if c, ok := d.(model.Composite); ok {
		for _, child := range c.Children() {
			m.indexDevice(child)
		}
	}
}

func (m *CircuitModel) Circuit() *circuit.Circuit { return m.ckt }

func (m *CircuitModel) Config() config.Simulation { return m.cfg }

func (m *CircuitModel) MaxTimeStep() float64 { return m.cfg.MaxTimeStep }

func (m *CircuitModel) SetMaxTimeStep(dt float64) error {
	if !(dt > 0) || math.IsInf(dt, 0) {
		return fmt.Errorf("max time step %g: %w", dt, ErrNonPositiveStep)
	}
	m.cfg.MaxTimeStep = dt
	return nil
}

func (m *CircuitModel) MaxDcPointIterations() int { return m.cfg.MaxDcPointIterations }

func (m *CircuitModel) SetMaxDcPointIterations(n int) error {
	if n < 1 {
		return fmt.Errorf("max dc point iterations %d: must be at least 1", n)
	}
	m.cfg.MaxDcPointIterations = n
	return nil
}

// EstablishDcBias solves the operating point at t=0 with capacitors open and
// inductors shorted, then seeds the history of every reactive device.
func (m *CircuitModel) EstablishDcBias() error {
	m.reset()
	m.ctx.Mode = model.DC
	m.ctx.UseInitialConditions = false
	m.seed()

	if err := m.iterate(m.cfg.MaxDcPointIterations); err != nil {
		return fmt.Errorf("dc bias: %w", err)
	}
	if err := m.initializeStates(); err != nil {
		return fmt.Errorf("dc bias: %w", err)
	}
	m.log.Info("dc bias established",
		"circuit", m.ckt.Name(),
		"iterations", m.lastIter)
	return nil
}

// UseInitialConditions skips the bias point. Reactive devices start from their
// IC values and node voltages from the circuit's initial voltage hints.
func (m *CircuitModel) UseInitialConditions() error {
	m.reset()
	m.seed()
	m.ctx.Mode = model.DC
	m.ctx.UseInitialConditions = true
	m.ctx.Solution = m.solution
	if err := m.initializeStates(); err != nil {
		return fmt.Errorf("initial conditions: %w", err)
	}
	m.log.Info("transient starts from initial conditions", "circuit", m.ckt.Name())
	return nil
}

// AdvanceInTime moves the simulation forward by dt in equal substeps no
// longer than MaxTimeStep.
func (m *CircuitModel) AdvanceInTime(dt float64) error {
	if !(dt > 0) || math.IsInf(dt, 0) {
		return fmt.Errorf("advance by %g: %w", dt, ErrNonPositiveStep)
	}
	if !m.biased {
		return fmt.Errorf("advance by %g: %w", dt, model.ErrNotInitialized)
	}

	ratio := math.Ceil(dt / m.cfg.MaxTimeStep)
	if !(ratio <= maxSubsteps) {
		return fmt.Errorf("advance by %g with max step %g: %w", dt, m.cfg.MaxTimeStep, ErrTooManySubsteps)
	}
	steps := int(ratio)
	// the ratio can land a hair above an integer
	if steps > 1 && dt/float64(steps-1) <= m.cfg.MaxTimeStep*(1+1e-12) {
		steps--
	}
	h := dt / float64(steps)
	start := m.time

	for k := 1; k <= steps; k++ {
		if err := m.step(h, start+float64(k)*h); err != nil {
			return err
		}
	}
	m.time = start + dt
	return nil
}

func (m *CircuitModel) step(h, t float64) error {
	m.ctx.Mode = model.Transient
	m.ctx.UseInitialConditions = false
	m.ctx.TimeStep = h
	m.ctx.Time = t

	for _, td := range m.dynamic {
		if err := td.UpdateTimeDependentModel(&m.ctx); err != nil {
			return fmt.Errorf("time step at t=%g: %w", t, err)
		}
	}
	if err := m.iterate(m.cfg.MaxTimeStepIterations); err != nil {
		return fmt.Errorf("time step at t=%g: %w", t, err)
	}
	for _, td := range m.dynamic {
		if err := td.RollTimePoint(&m.ctx); err != nil {
			return fmt.Errorf("time step at t=%g: %w", t, err)
		}
	}
	m.time = t
	m.log.Debug("time step accepted", "time", t, "step", h, "iterations", m.lastIter)
	return nil
}

// iterate runs Newton-Raphson from the current solution. A circuit without
// nonlinear devices is done after one solve.
func (m *CircuitModel) iterate(maxIter int) error {
	prev := append([]float64(nil), m.solution...)
	m.ctx.Solution = prev
	residual := math.Inf(1)

	for iter := 1; iter <= maxIter; iter++ {
		m.sys.Clear()
		for _, d := range m.devices {
			if err := d.Stamp(&m.ctx, m.sys); err != nil {
				return err
			}
		}
		for _, nl := range m.nonlinear {
			if err := nl.UpdateNonlinearModel(&m.ctx); err != nil {
				return err
			}
			if err := nl.ApplyNonlinearModelValues(m.sys); err != nil {
				return err
			}
		}

		x, err := m.sys.Solve()
		if err != nil {
			return err
		}

		var within bool
		residual, within = m.compare(prev, x)
		copy(m.solution, x)
		m.ctx.Solution = m.solution
		for _, d := range m.devices {
			d.OnEquationSolution(&m.ctx)
		}
		m.lastIter = iter
		m.totalIter++

		m.log.Debug("newton iteration", "time", m.ctx.Time, "iteration", iter, "residual", residual)

		if len(m.nonlinear) == 0 {
			return nil
		}
		if within && iter > 1 && m.devicesConverged() {
			return nil
		}
		prev = append(prev[:0], x...)
	}
	return &IterationCountExceededError{Iterations: maxIter, Residual: residual, Time: m.ctx.Time}
}

// compare returns the largest change and whether every unknown satisfies
// |new-old| <= abstol + reltol*max(|new|,|old|).
func (m *CircuitModel) compare(old, cur []float64) (float64, bool) {
	worst, within := 0.0, true
	for i := 1; i < len(cur); i++ {
		diff := math.Abs(cur[i] - old[i])
		worst = max(worst, diff)
		if diff > m.cfg.AbsTol+m.cfg.RelTol*max(math.Abs(cur[i]), math.Abs(old[i])) {
			within = false
		}
	}
	return worst, within
}

func (m *CircuitModel) devicesConverged() bool {
	for _, nl := range m.nonlinear {
		if !nl.Converged() {
			return false
		}
	}
	return true
}

func (m *CircuitModel) reset() {
	m.time = 0
	m.biased = false
	m.lastIter = 0
	m.ctx.Time = 0
	m.ctx.TimeStep = 0
	clear(m.solution)
}

// seed loads the initial voltage hints as the first guess.
func (m *CircuitModel) seed() {
	for node, v := range m.ckt.InitialVoltages() {
		if node < len(m.solution) {
			m.solution[node] = v
		}
	}
}

func (m *CircuitModel) initializeStates() error {
	m.ctx.Solution = m.solution
	for _, td := range m.dynamic {
		if err := td.InitializeState(&m.ctx); err != nil {
			return err
		}
	}
	m.biased = true
	return nil
}

// NodeVoltages returns a copy of the node voltages indexed by node, ground
// included. Internal subcircuit nodes follow the top level nodes.
func (m *CircuitModel) NodeVoltages() []float64 {
	return append([]float64(nil), m.solution[:m.nodeCount]...)
}

func (m *CircuitModel) NodeVoltage(node int) float64 {
	if node <= 0 || node >= m.nodeCount {
		return 0
	}
	return m.solution[node]
}

// Solution is a copy of the whole unknown vector, branch currents included.
func (m *CircuitModel) Solution() []float64 { return append([]float64(nil), m.solution...) }

func (m *CircuitModel) NodeCount() int { return m.nodeCount }

// FindDevice looks a model up by tag. Devices inside subcircuits are found by
// their prefixed tag such as "X1.R1".
func (m *CircuitModel) FindDevice(tag string) (model.Device, bool) {
	d, ok := m.index[tag]
	return d, ok
}

// Devices returns the top level models in circuit order.
func (m *CircuitModel) Devices() []model.Device { return m.devices }

// DeviceStateProviders lists the diagnostic values of every device in
// circuit order.
func (m *CircuitModel) DeviceStateProviders() []NamedState {
	var out []NamedState
	var walk func(d model.Device)
	walk = func(d model.Device) {
		if sp, ok := d.(model.StateProvider); ok {
			for _, s := range sp.States() {
				out = append(out, NamedState{Device: d.Definition().GetName(), State: s})
			}
		}
		if c, ok := d.(model.Composite); ok {
			for _, child := range c.Children() {
				walk(child)
			}
		}
	}
	for _, d := range m.devices {
		walk(d)
	}
	return out
}

func (m *CircuitModel) CurrentTimePoint() float64 { return m.time }

func (m *CircuitModel) LastNonLinearIterationCount() int { return m.lastIter }

func (m *CircuitModel) TotalNonLinearIterationCount() int { return m.totalIter }

// System exposes the equation system of the last iteration.
func (m *CircuitModel) System() *matrix.System { return m.sys }

