package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/edp1096/spicesim/internal/config"
	"github.com/edp1096/spicesim/internal/deck"
	"github.com/edp1096/spicesim/pkg/analysis"
	"github.com/edp1096/spicesim/pkg/circuit"
	"github.com/edp1096/spicesim/pkg/device"
	"github.com/edp1096/spicesim/pkg/netlist"
	"github.com/edp1096/spicesim/pkg/util"
)

type rootOptions struct {
	configPath string
	logLevel   string
	plotPath   string
}

// session is everything a subcommand needs after the deck is loaded.
type session struct {
	cmd  *cobra.Command
	opts *rootOptions
	deck *deck.Deck
	ckt  *circuit.Circuit
	cfg  config.Simulation
	log  *slog.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "spice",
		Short:         "Simulate analog circuits described in a YAML deck",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "solver options file, replaces the deck options")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&opts.plotPath, "plot", "", "write the node voltages of a sweep or transient to this PNG, the last analysis wins")

	root.AddCommand(
		newRunCmd(opts),
		newOPCmd(opts),
		newTranCmd(opts),
		newDCCmd(opts),
	)
	return root
}

func newRunCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run <deck.yaml>",
		Short: "Run the analyses listed in the deck, an operating point when none are",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := open(cmd, opts, args[0])
			if err != nil {
				return err
			}
			a := s.deck.Analysis
			if a.OP || (a.Tran == nil && a.DC == nil) {
				if err := s.execute("Operating point", analysis.NewOP(s.options()...), ""); err != nil {
					return err
				}
			}
			if a.DC != nil {
				if err := s.sweep(a.DC.Source, float64(a.DC.Start), float64(a.DC.Stop), float64(a.DC.Step)); err != nil {
					return err
				}
			}
			if t := a.Tran; t != nil {
				return s.transient(float64(t.Start), float64(t.Stop), float64(t.Step), float64(t.Max), t.UIC)
			}
			return nil
		},
	}
}

func newOPCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "op <deck.yaml>",
		Short: "Compute the dc operating point",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := open(cmd, opts, args[0])
			if err != nil {
				return err
			}
			return s.execute("Operating point", analysis.NewOP(s.options()...), "")
		},
	}
}

func newTranCmd(opts *rootOptions) *cobra.Command {
	var start, stop, step, tmax string
	var uic bool
	cmd := &cobra.Command{
		Use:   "tran <deck.yaml>",
		Short: "Run a transient analysis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := open(cmd, opts, args[0])
			if err != nil {
				return err
			}
			var t deck.Tran
			if s.deck.Analysis.Tran != nil {
				t = *s.deck.Analysis.Tran
			}
			for _, f := range []struct {
				flag string
				text string
				into *deck.Value
			}{
				{"start", start, &t.Start},
				{"stop", stop, &t.Stop},
				{"step", step, &t.Step},
				{"max", tmax, &t.Max},
			} {
				if !cmd.Flags().Changed(f.flag) {
					continue
				}
				v, err := netlist.ParseValue(f.text)
				if err != nil {
					return fmt.Errorf("--%s: %w", f.flag, err)
				}
				*f.into = deck.Value(v)
			}
			if cmd.Flags().Changed("uic") {
				t.UIC = uic
			}
			return s.transient(float64(t.Start), float64(t.Stop), float64(t.Step), float64(t.Max), t.UIC)
		},
	}
	cmd.Flags().StringVar(&start, "start", "0", "first printed time point")
	cmd.Flags().StringVar(&stop, "stop", "", "stop time")
	cmd.Flags().StringVar(&step, "step", "", "print step")
	cmd.Flags().StringVar(&tmax, "max", "0", "largest internal time step, the print step when 0")
	cmd.Flags().BoolVar(&uic, "uic", false, "use initial conditions instead of the bias point")
	return cmd
}

func newDCCmd(opts *rootOptions) *cobra.Command {
	var source, start, stop, step string
	cmd := &cobra.Command{
		Use:   "dc <deck.yaml>",
		Short: "Sweep an independent source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := open(cmd, opts, args[0])
			if err != nil {
				return err
			}
			var sw deck.Sweep
			if s.deck.Analysis.DC != nil {
				sw = *s.deck.Analysis.DC
			}
			if cmd.Flags().Changed("source") {
				sw.Source = source
			}
			for _, f := range []struct {
				flag string
				text string
				into *deck.Value
			}{
				{"start", start, &sw.Start},
				{"stop", stop, &sw.Stop},
				{"step", step, &sw.Step},
			} {
				if !cmd.Flags().Changed(f.flag) {
					continue
				}
				v, err := netlist.ParseValue(f.text)
				if err != nil {
					return fmt.Errorf("--%s: %w", f.flag, err)
				}
				*f.into = deck.Value(v)
			}
			return s.sweep(sw.Source, float64(sw.Start), float64(sw.Stop), float64(sw.Step))
		},
	}
	cmd.Flags().StringVar(&source, "source", "", "voltage or current source to sweep")
	cmd.Flags().StringVar(&start, "start", "0", "first value")
	cmd.Flags().StringVar(&stop, "stop", "", "last value")
	cmd.Flags().StringVar(&step, "step", "", "increment")
	return cmd
}

func open(cmd *cobra.Command, opts *rootOptions, path string) (*session, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(opts.logLevel)); err != nil {
		return nil, fmt.Errorf("--log-level: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	d, err := deck.Load(path)
	if err != nil {
		return nil, err
	}
	cfg := d.Options
	if opts.configPath != "" {
		if cfg, err = config.Load(opts.configPath); err != nil {
			return nil, err
		}
	}
	ckt, err := d.Circuit()
	if err != nil {
		return nil, err
	}
	logger.Info("deck loaded", "title", ckt.Name(), "nodes", ckt.NodeCount(), "devices", len(ckt.Devices()))
	return &session{cmd: cmd, opts: opts, deck: d, ckt: ckt, cfg: cfg, log: logger}, nil
}

func (s *session) options() []analysis.Option {
	return []analysis.Option{analysis.WithConfig(s.cfg), analysis.WithLogger(s.log)}
}

func (s *session) transient(start, stop, step, tmax float64, uic bool) error {
	tr := analysis.NewTransient(start, stop, step, tmax, uic, s.options()...)
	return s.execute("Transient", tr, "")
}

func (s *session) sweep(source string, start, stop, step float64) error {
	sw := analysis.NewDCSweep(source, start, stop, step, s.options()...)
	unit := "V"
	for _, d := range s.ckt.Devices() {
		if d.GetName() == source && d.GetType() == device.KindCurrentSource {
			unit = "A"
		}
	}
	return s.execute("DC sweep of "+source, sw, unit)
}

func (s *session) execute(title string, a analysis.Analysis, sweepUnit string) error {
	if err := a.Setup(s.ckt); err != nil {
		return fmt.Errorf("%s setup: %w", title, err)
	}
	if err := a.Execute(); err != nil {
		return fmt.Errorf("%s: %w", title, err)
	}
	results := a.GetResults()

	out := s.cmd.OutOrStdout()
	fmt.Fprintf(out, "\n%s (%s)\n", title, s.ckt.Name())
	if err := util.PrintResults(out, results, sweepUnit); err != nil {
		return err
	}
	if s.opts.plotPath != "" {
		_, isTran := results["TIME"]
		_, isSweep := results["SWEEP"]
		if isTran || isSweep {
			if err := writePlot(s.opts.plotPath, title, results); err != nil {
				return err
			}
			s.log.Info("plot written", "path", s.opts.plotPath)
		}
	}
	return nil
}
