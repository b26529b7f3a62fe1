// Package deck reads a circuit description from YAML. A deck names its
// nodes, lists devices and subcircuits, and may carry solver options and
// the analyses to run.
package deck

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/edp1096/spicesim/internal/config"
	"github.com/edp1096/spicesim/pkg/netlist"
)

var validate = validator.New()

// Value is a number written in SPICE notation, like 4.7k or 1MEG.
type Value float64

func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a value", node.Line)
	}
	f, err := netlist.ParseValue(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*v = Value(f)
	return nil
}

type Deck struct {
	Title       string                `yaml:"title"`
	Options     config.Simulation     `yaml:"options"`
	Models      map[string]Model      `yaml:"models" validate:"dive"`
	Subcircuits map[string]Subcircuit `yaml:"subcircuits" validate:"dive"`
	Devices     []Device              `yaml:"devices" validate:"required,min=1,dive"`
	// IC maps node names to initial voltages.
	IC       map[string]Value `yaml:"ic"`
	Analysis Analysis         `yaml:"analysis"`
}

// Model is a named parameter set shared by diodes or transistors.
type Model struct {
	Type   string           `yaml:"type" validate:"oneof=D NPN PNP"`
	Params map[string]Value `yaml:"params"`
}

type Subcircuit struct {
	Ports   []string `yaml:"ports" validate:"required,min=1,unique,dive,required"`
	Devices []Device `yaml:"devices" validate:"required,min=1,dive"`
}

type Device struct {
	Name  string   `yaml:"name" validate:"required"`
	Type  string   `yaml:"type" validate:"oneof=R C L V I D Q E G F H X"`
	Nodes []string `yaml:"nodes" validate:"min=1,dive,required"`
	Value *Value   `yaml:"value"`
	// Wave is an independent source waveform, like SIN(0 1 1k).
	Wave  string `yaml:"wave"`
	Model string `yaml:"model"`
	// Ref names the voltage source whose current controls an F or H device.
	Ref    string `yaml:"ref"`
	Subckt string `yaml:"subckt"`
	// IC is the initial capacitor voltage or inductor current.
	IC *Value `yaml:"ic"`
}

type Analysis struct {
	OP   bool   `yaml:"op"`
	Tran *Tran  `yaml:"tran"`
	DC   *Sweep `yaml:"dc"`
}

type Tran struct {
	Start Value `yaml:"start" validate:"gte=0"`
	Stop  Value `yaml:"stop" validate:"gt=0,gtfield=Start"`
	Step  Value `yaml:"step" validate:"gt=0"`
	Max   Value `yaml:"max" validate:"gte=0"`
	UIC   bool  `yaml:"uic"`
}

type Sweep struct {
	Source string `yaml:"source" validate:"required"`
	Start  Value  `yaml:"start"`
	Stop   Value  `yaml:"stop"`
	Step   Value  `yaml:"step" validate:"gt=0"`
}

func Load(path string) (*Deck, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading deck: %w", err)
	}
	return Parse(data)
}

// Parse decodes a deck. Options not given keep their defaults.
func Parse(data []byte) (*Deck, error) {
	d := &Deck{Options: config.Default()}
	if err := yaml.Unmarshal(data, d); err != nil {
		return nil, fmt.Errorf("parsing deck: %w", err)
	}
	if err := validate.Struct(d); err != nil {
		return nil, fmt.Errorf("invalid deck: %w", err)
	}
	return d, nil
}
