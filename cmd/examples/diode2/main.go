package main

import (
	"fmt"
	"log"
	"os"

	"github.com/edp1096/spicesim/pkg/analysis"
	"github.com/edp1096/spicesim/pkg/circuit"
	"github.com/edp1096/spicesim/pkg/device"
	"github.com/edp1096/spicesim/pkg/util"
)

func createCircuit() (*circuit.Circuit, error) {
	ckt := circuit.New("Diode DC Sweep Circuit")
	in, anode := ckt.AddNode("1"), ckt.AddNode("2")

	d1 := device.NewDiode("D1", anode, 0)
	if err := d1.SetModelParameters(map[string]float64{"is": 2.52e-9, "n": 1.752}); err != nil {
		return nil, err
	}
	for _, d := range []device.Definition{
		device.NewDCVoltageSource("Vsweep", in, 0, 0),
		device.NewResistor("Rs", in, anode, 10),
		d1,
	} {
		if err := ckt.Add(d); err != nil {
			return nil, fmt.Errorf("error device setup: %w", err)
		}
	}
	return ckt, nil
}

func main() {
	fmt.Print("===== Diode DC Sweep Example =====\n\n")

	ckt, err := createCircuit()
	if err != nil {
		log.Fatalf("error circuit generation: %v", err)
	}

	sweep := analysis.NewDCSweep("Vsweep", 0, 2, 0.1)
	if err := sweep.Setup(ckt); err != nil {
		log.Fatalf("error setting up sweep: %v", err)
	}
	if err := sweep.Execute(); err != nil {
		log.Fatalf("error running sweep: %v", err)
	}
	if err := util.PrintResults(os.Stdout, sweep.GetResults(), "V"); err != nil {
		log.Fatal(err)
	}
}
