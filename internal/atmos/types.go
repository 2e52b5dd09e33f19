package atmos

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"
)

// Column is a plane-parallel atmosphere. Index 0 is the bottom layer;
// pressure strictly decreases with index.
type Column struct {
	Pressure    []float64 // Pa
	Temperature []float64 // K
}

// Len returns the number of layers.
func (c Column) Len() int { return len(c.Pressure) }

// Clone returns a deep copy of c.
func (c Column) Clone() Column {
	return Column{
		Pressure:    append([]float64(nil), c.Pressure...),
		Temperature: append([]float64(nil), c.Temperature...),
	}
}

// WithTemperature returns a column sharing c's pressures with the given
// temperature profile.
func (c Column) WithTemperature(t []float64) Column {
	return Column{Pressure: c.Pressure, Temperature: t}
}

// Validate checks the column invariants: at least two layers, matching
// lengths, positive strictly decreasing pressure and non-negative finite
// temperature.
func (c Column) Validate() error {
	if len(c.Pressure) < 2 {
		return invalid("pressure", -1, ErrTooFewLayers)
	}
	if len(c.Temperature) != len(c.Pressure) {
		return invalid("temperature", -1, fmt.Errorf("%w: %d temperatures for %d layers",
			ErrShapeMismatch, len(c.Temperature), len(c.Pressure)))
	}
	for i, p := range c.Pressure {
		if !(p > 0) || math.IsInf(p, 0) {
			return invalid("pressure", i, ErrInvalidPressure)
		}
		if i > 0 && p >= c.Pressure[i-1] {
			return invalid("pressure", i, ErrNonMonotonicPressure)
		}
	}
	for i, t := range c.Temperature {
		if !(t >= 0) || math.IsInf(t, 0) {
			return invalid("temperature", i, ErrInvalidTemperature)
		}
	}
	return nil
}

// IsFinite reports whether every temperature is a finite number.
func (c Column) IsFinite() bool {
	for _, t := range c.Temperature {
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return false
		}
	}
	return true
}

// LogPressures returns n pressures spaced evenly in log between bottom and
// top, ordered bottom to top.
func LogPressures(bottom, top float64, n int) ([]float64, error) {
	if n < 2 {
		return nil, ErrTooFewLayers
	}
	if !(bottom > top) || !(top > 0) {
		return nil, ErrNonMonotonicPressure
	}
	return floats.LogSpan(make([]float64, n), bottom, top), nil
}

// WavelengthGrid holds wavelengths in metres in strictly increasing order.
type WavelengthGrid []float64

// LogGrid returns n wavelengths spaced evenly in log between lo and hi.
func LogGrid(lo, hi float64, n int) (WavelengthGrid, error) {
	if n < 1 || !(lo > 0) || hi < lo || (n > 1 && hi == lo) {
		return nil, ErrInvalidWavelength
	}
	if n == 1 {
		return WavelengthGrid{lo}, nil
	}
	return WavelengthGrid(floats.LogSpan(make([]float64, n), lo, hi)), nil
}

// Len returns the number of wavelengths.
func (g WavelengthGrid) Len() int { return len(g) }

// Validate checks that the grid is non-empty, positive and strictly
// increasing.
func (g WavelengthGrid) Validate() error {
	if len(g) == 0 {
		return invalid("wavelength", -1, ErrInvalidWavelength)
	}
	for i, l := range g {
		if !(l > 0) || math.IsInf(l, 0) {
			return invalid("wavelength", i, ErrInvalidWavelength)
		}
		if i > 0 && l <= g[i-1] {
			return invalid("wavelength", i, ErrInvalidWavelength)
		}
	}
	return nil
}

// Wavenumbers returns 1/wavelength for every grid point, in grid order
// (decreasing).
func (g WavelengthGrid) Wavenumbers() []float64 {
	nu := make([]float64, len(g))
	for i, l := range g {
		nu[i] = 1 / l
	}
	return nu
}

// Bolometric integrates a spectrum given per unit wavenumber over the
// grid with the trapezoid rule. Grids with fewer than two points have no
// width and integrate to zero.
func (g WavelengthGrid) Bolometric(spectrum []float64) float64 {
	n := len(g)
	if n < 2 || len(spectrum) != n {
		return 0
	}
	nu := make([]float64, n)
	f := make([]float64, n)
	for i := range g {
		nu[n-1-i] = 1 / g[i]
		f[n-1-i] = spectrum[i]
	}
	return integrate.Trapezoidal(nu, f)
}

// FluxField holds the spectral fluxes of one emission pass.
//
// Up and Down have shape (layers, wavelengths). DeltaTau has shape
// (layers-1, wavelengths): DeltaTau[i] is the optical depth between layer
// i and layer i+1.
type FluxField struct {
	Up       [][]float64
	Down     [][]float64
	DeltaTau [][]float64
}

// NewFluxField allocates a zeroed field.
func NewFluxField(nLayers, nWavelengths int) *FluxField {
	f := &FluxField{
		Up:       make([][]float64, nLayers),
		Down:     make([][]float64, nLayers),
		DeltaTau: make([][]float64, max(nLayers-1, 0)),
	}
	for i := 0; i < nLayers; i++ {
		f.Up[i] = make([]float64, nWavelengths)
		f.Down[i] = make([]float64, nWavelengths)
	}
	for i := range f.DeltaTau {
		f.DeltaTau[i] = make([]float64, nWavelengths)
	}
	return f
}

// Layers returns the number of layers in the field.
func (f *FluxField) Layers() int { return len(f.Up) }

// Net returns the net upward spectral flux at a layer.
func (f *FluxField) Net(layer int) []float64 {
	net := make([]float64, len(f.Up[layer]))
	floats.SubTo(net, f.Up[layer], f.Down[layer])
	return net
}

// Clone returns a deep copy of f.
func (f *FluxField) Clone() *FluxField {
	c := &FluxField{
		Up:       cloneRows(f.Up),
		Down:     cloneRows(f.Down),
		DeltaTau: cloneRows(f.DeltaTau),
	}
	return c
}

func cloneRows(rows [][]float64) [][]float64 {
	out := make([][]float64, len(rows))
	for i, r := range rows {
		out[i] = append([]float64(nil), r...)
	}
	return out
}
