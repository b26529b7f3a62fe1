package main

import (
	"fmt"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/edp1096/spicesim/pkg/util"
)

// writePlot draws every V(node) series against the analysis axis.
func writePlot(path, title string, results map[string][]float64) error {
	names := util.SortNames(results)
	axis := names[0]
	xs := results[axis]

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = strings.ToLower(axis)
	p.Y.Label.Text = "V"
	p.Legend.Top = true

	color := 0
	for _, name := range names[1:] {
		if !strings.HasPrefix(name, "V(") {
			continue
		}
		ys := results[name]
		pts := make(plotter.XYs, min(len(xs), len(ys)))
		for i := range pts {
			pts[i].X = xs[i]
			pts[i].Y = ys[i]
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("plotting %s: %w", name, err)
		}
		line.Color = plotutil.Color(color)
		color++
		p.Add(line)
		p.Legend.Add(name, line)
	}
	p.Add(plotter.NewGrid())

	if err := p.Save(8*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("saving plot: %w", err)
	}
	return nil
}
