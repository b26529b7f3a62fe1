package circuit

import (
	"errors"
	"fmt"
	"strings"
)

// ErrTopology is matched by every topology error through errors.Is.
var ErrTopology = errors.New("circuit: invalid topology")

type NoDcPathToGroundError struct {
	Nodes []int
}

func (e *NoDcPathToGroundError) Error() string {
	return fmt.Sprintf("no dc path to ground from nodes %v", e.Nodes)
}

func (e *NoDcPathToGroundError) Unwrap() error { return ErrTopology }

// VoltageBranchCycleError reports a loop made only of voltage defined
// branches.
type VoltageBranchCycleError struct {
	Devices []string
}

func (e *VoltageBranchCycleError) Error() string {
	return fmt.Sprintf("cycle of voltage defined branches: %s", strings.Join(e.Devices, ", "))
}

func (e *VoltageBranchCycleError) Unwrap() error { return ErrTopology }

// CurrentBranchCutsetError reports nodes joined to the rest of the circuit
// only through current defined branches.
type CurrentBranchCutsetError struct {
	Nodes   []int
	Devices []string
}

func (e *CurrentBranchCutsetError) Error() string {
	return fmt.Sprintf("nodes %v are cut off by current defined branches: %s",
		e.Nodes, strings.Join(e.Devices, ", "))
}

func (e *CurrentBranchCutsetError) Unwrap() error { return ErrTopology }

type NotConnectedSubcircuitError struct {
	Tag        string
	Partitions [][]int
}

func (e *NotConnectedSubcircuitError) Error() string {
	return fmt.Sprintf("subcircuit %s is not connected: partitions %v", e.Tag, e.Partitions)
}

func (e *NotConnectedSubcircuitError) Unwrap() error { return ErrTopology }

// UnknownReferenceError reports a current controlled source whose controlling
// device does not exist or has no branch current.
type UnknownReferenceError struct {
	Device    string
	Reference string
}

func (e *UnknownReferenceError) Error() string {
	return fmt.Sprintf("device %s: unknown controlling device %q", e.Device, e.Reference)
}

func (e *UnknownReferenceError) Unwrap() error { return ErrTopology }
