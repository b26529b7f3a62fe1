// Package config holds the solver options of a simulation run. Options load
// from YAML and are checked with struct tag validation.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/edp1096/spicesim/internal/consts"
	"github.com/edp1096/spicesim/pkg/integration"
	"github.com/edp1096/spicesim/pkg/matrix"
)

var validate = validator.New()

// Simulation is the option set of one circuit model.
type Simulation struct {
	AbsTol float64 `yaml:"abstol" validate:"gt=0"`
	RelTol float64 `yaml:"reltol" validate:"gt=0,lt=1"`
	// MaxDcPointIterations caps the Newton-Raphson loop of the bias point.
	MaxDcPointIterations int `yaml:"max_dc_iterations" validate:"gte=1"`
	// MaxTimeStepIterations caps the loop of every transient substep.
	MaxTimeStepIterations int     `yaml:"max_timestep_iterations" validate:"gte=1"`
	MaxTimeStep           float64 `yaml:"max_timestep" validate:"gt=0"`
	// Temperature in degrees Celsius.
	Temperature float64     `yaml:"temperature" validate:"gt=-273.15"`
	Integration Integration `yaml:"integration"`
	Solver      string      `yaml:"solver" validate:"oneof=dense sparse"`
}

type Integration struct {
	Method string `yaml:"method" validate:"oneof=euler be trapezoidal trap gear bdf adams-moulton am"`
	Order  int    `yaml:"order" validate:"gte=1,lte=6"`
}

// Default returns the options used when nothing is configured.
func Default() Simulation {
	return Simulation{
		AbsTol:                1e-12,
		RelTol:                1e-6,
		MaxDcPointIterations:  100,
		MaxTimeStepIterations: 50,
		MaxTimeStep:           1e-6,
		Temperature:           27,
		Integration:           Integration{Method: "trapezoidal", Order: 2},
		Solver:                "dense",
	}
}

// Load reads path over the defaults, so a file only needs the keys it changes.
func Load(path string) (Simulation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Simulation{}, fmt.Errorf("reading config: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (Simulation, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Simulation{}, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Simulation{}, err
	}
	return cfg, nil
}

func (s Simulation) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Kelvin is the simulation temperature in K.
func (s Simulation) Kelvin() float64 { return s.Temperature + consts.KELVIN }

// Integrator returns a constructor of independent integration methods.
func (s Simulation) Integrator() (func() integration.Method[float64], error) {
	kind, err := integration.ParseKind(s.Integration.Method)
	if err != nil {
		return nil, err
	}
	return integration.Factory[float64](kind, s.Integration.Order)
}

func (s Simulation) Backend() (matrix.Backend, error) {
	return matrix.ParseBackend(s.Solver)
}
