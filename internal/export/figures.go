// Package export renders stored runs as figures with gonum/plot. The file
// extension passed to Save selects the format (svg, png, pdf, eps).
package export

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

const (
	DefaultWidth  = 5 * vg.Inch
	DefaultHeight = 4 * vg.Inch
)

var (
	initialColor = color.RGBA{R: 150, G: 150, B: 150, A: 255}
	finalColor   = color.RGBA{R: 200, G: 40, B: 40, A: 255}
	traceColor   = color.RGBA{R: 40, G: 90, B: 200, A: 255}
)

// ProfilePlot draws temperature against pressure for the initial and final
// profile of a history. Pressure increases downward on a log axis.
func ProfilePlot(pressures []float64, history [][]float64) (*plot.Plot, error) {
	if len(history) == 0 {
		return nil, fmt.Errorf("export: empty history")
	}
	p := plot.New()
	p.Title.Text = "Temperature profile"
	p.X.Label.Text = "Temperature [K]"
	p.Y.Label.Text = "Pressure [Pa]"
	p.Y.Scale = plot.InvertedScale{Normalizer: plot.LogScale{}}
	p.Y.Tick.Marker = plot.LogTicks{Prec: -1}

	if err := addProfile(p, "initial", pressures, history[0], initialColor); err != nil {
		return nil, err
	}
	if len(history) > 1 {
		if err := addProfile(p, "final", pressures, history[len(history)-1], finalColor); err != nil {
			return nil, err
		}
	}
	p.Legend.Top = true
	return p, nil
}

func addProfile(p *plot.Plot, name string, pressures, temperatures []float64, c color.Color) error {
	if len(pressures) != len(temperatures) {
		return fmt.Errorf("export: %d pressures for %d temperatures", len(pressures), len(temperatures))
	}
	xys := make(plotter.XYs, len(pressures))
	for i := range pressures {
		xys[i].X = temperatures[i]
		xys[i].Y = pressures[i]
	}
	l, err := plotter.NewLine(xys)
	if err != nil {
		return err
	}
	l.Color = c
	l.Width = vg.Points(1.5)
	p.Add(l)
	p.Legend.Add(name, l)
	return nil
}

// SpectrumPlot draws the outgoing spectral flux against wavelength in
// microns on a log axis.
func SpectrumPlot(wavelengths, flux []float64) (*plot.Plot, error) {
	if len(wavelengths) != len(flux) {
		return nil, fmt.Errorf("export: %d wavelengths for %d flux values", len(wavelengths), len(flux))
	}
	p := plot.New()
	p.Title.Text = "Outgoing spectrum"
	p.X.Label.Text = "Wavelength [µm]"
	p.Y.Label.Text = "Flux [W m⁻² m]"
	p.X.Scale = plot.LogScale{}
	p.X.Tick.Marker = plot.LogTicks{Prec: -1}

	xys := make(plotter.XYs, 0, len(flux))
	for j := range flux {
		xys = append(xys, plotter.XY{X: wavelengths[j] * 1e6, Y: flux[j]})
	}
	l, err := plotter.NewLine(xys)
	if err != nil {
		return nil, err
	}
	l.Color = traceColor
	p.Add(l)
	return p, nil
}

// ConvergencePlot draws the largest temperature change of each iteration on
// a log axis. Zero changes are dropped.
func ConvergencePlot(maxChange []float64) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Convergence"
	p.X.Label.Text = "Iteration"
	p.Y.Label.Text = "max |ΔT| [K]"
	p.Y.Scale = plot.LogScale{}
	p.Y.Tick.Marker = plot.LogTicks{Prec: -1}

	xys := make(plotter.XYs, 0, len(maxChange))
	for k, v := range maxChange {
		if v > 0 && !math.IsInf(v, 0) {
			xys = append(xys, plotter.XY{X: float64(k + 1), Y: v})
		}
	}
	if len(xys) == 0 {
		return nil, fmt.Errorf("export: no positive temperature changes to plot")
	}
	l, err := plotter.NewLine(xys)
	if err != nil {
		return nil, err
	}
	l.Color = traceColor
	p.Add(l)
	return p, nil
}

// Save writes p to path at the default size.
func Save(p *plot.Plot, path string) error {
	return p.Save(DefaultWidth, DefaultHeight, path)
}
