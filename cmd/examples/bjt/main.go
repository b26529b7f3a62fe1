package main

import (
	"fmt"
	"log"
	"math"
	"os"

	"github.com/edp1096/spicesim/pkg/analysis"
	"github.com/edp1096/spicesim/pkg/circuit"
	"github.com/edp1096/spicesim/pkg/device"
	"github.com/edp1096/spicesim/pkg/model"
	"github.com/edp1096/spicesim/pkg/util"
)

// Q2N2222 parameters the transport model understands.
var q2n2222 = map[string]float64{
	"is":  1.8e-14, // Saturation current
	"bf":  100,     // Forward beta
	"vaf": 100,     // Early voltage
}

func createCircuit() (*circuit.Circuit, error) {
	ckt := circuit.New("BJT Common Emitter Amplifier Circuit")
	vcc, in, b, c, e, out := ckt.AddNode("vcc"), ckt.AddNode("in"), ckt.AddNode("b"),
		ckt.AddNode("c"), ckt.AddNode("e"), ckt.AddNode("out")

	q1 := device.NewBJT("Q1", c, b, e, device.NPN)
	if err := q1.SetModelParameters(q2n2222); err != nil {
		return nil, err
	}

	for _, d := range []device.Definition{
		device.NewDCVoltageSource("Vcc", vcc, 0, 12),
		device.NewSinVoltageSource("Vin", in, 0, 0, 0.01, 1e3, 0), // 10mV, 1kHz signal
		// Bias circuit
		device.NewResistor("Rc", vcc, c, 1e3),
		device.NewResistor("Rb1", vcc, b, 10e3),
		device.NewResistor("Rb2", b, 0, 2.2e3),
		device.NewResistor("Re", e, 0, 220),
		// Coupling capacitors
		device.NewCapacitor("Cin", in, b, 10e-6),
		device.NewCapacitor("Cout", c, out, 10e-6),
		device.NewResistor("RL", out, 0, 10e3),
		// Emitter bypass capacitor
		device.NewCapacitor("Ce", e, 0, 100e-6),
		q1,
	} {
		if err := ckt.Add(d); err != nil {
			return nil, fmt.Errorf("error device setup: %w", err)
		}
	}
	return ckt, nil
}

func main() {
	fmt.Print("===== BJT Common Emitter Amplifier Example =====\n\n")

	ckt, err := createCircuit()
	if err != nil {
		log.Fatalf("error circuit generation: %v", err)
	}
	fmt.Printf("  Name: %s\n", ckt.Name())
	fmt.Printf("  Node count: %d (except GND)\n\n", ckt.NodeCount()-1)

	fmt.Println("Running operating point analysis...")
	op := analysis.NewOP()
	if err := op.Setup(ckt); err != nil {
		log.Fatalf("error setting up operating point: %v", err)
	}
	if err := op.Execute(); err != nil {
		log.Fatalf("error running operating point: %v", err)
	}
	if err := util.PrintResults(os.Stdout, op.GetResults(), ""); err != nil {
		log.Fatal(err)
	}

	q, _ := op.Model.FindDevice("Q1")
	ic, ib, _ := q.(*model.Bjt).Currents()
	vb := op.Model.NodeVoltage(3)
	vc := op.Model.NodeVoltage(4)
	ve := op.Model.NodeVoltage(5)
	fmt.Println("\nBias:")
	fmt.Printf("  VBE = %s\n", util.FormatValueFactor(vb-ve, "V"))
	fmt.Printf("  VCE = %s\n", util.FormatValueFactor(vc-ve, "V"))
	fmt.Printf("  IC  = %s\n", util.FormatValueFactor(ic, "A"))
	fmt.Printf("  beta = %.1f\n", ic/ib)

	fmt.Println("\nRunning transient analysis (2 periods)...")
	tr := analysis.NewTransient(0, 2e-3, 10e-6, 1e-6, false)
	if err := tr.Setup(ckt); err != nil {
		log.Fatalf("error setting up transient: %v", err)
	}
	if err := tr.Execute(); err != nil {
		log.Fatalf("error running transient: %v", err)
	}
	res := tr.GetResults()

	// peak to peak over the second period
	vin, vout := res["V(in)"], res["V(out)"]
	half := len(vout) / 2
	inMin, inMax := math.Inf(1), math.Inf(-1)
	outMin, outMax := math.Inf(1), math.Inf(-1)
	for i := half; i < len(vout); i++ {
		inMin, inMax = math.Min(inMin, vin[i]), math.Max(inMax, vin[i])
		outMin, outMax = math.Min(outMin, vout[i]), math.Max(outMax, vout[i])
	}
	fmt.Printf("  Vin  p-p = %s\n", util.FormatValueFactor(inMax-inMin, "V"))
	fmt.Printf("  Vout p-p = %s\n", util.FormatValueFactor(outMax-outMin, "V"))
	fmt.Printf("  Gain = %.1f\n", (outMax-outMin)/(inMax-inMin))
}
