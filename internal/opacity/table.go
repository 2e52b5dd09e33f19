package opacity

import (
	"fmt"
	"math"
	"os"

	"gonum.org/v1/gonum/interp"
	"gopkg.in/yaml.v3"
)

// constant predicts the same value everywhere. It stands in for a
// one-point temperature grid, which PiecewiseLinear cannot fit.
type constant float64

func (c constant) Predict(float64) float64 { return float64(c) }

// Table is a tabulated opacity cube with one linear interpolator over the
// temperature grid per (layer, wavelength). It is read-only after
// construction and safe for concurrent use.
type Table struct {
	temperatures []float64
	predictors   [][]interp.Predictor
}

// NewTable builds a Table from grid temperatures [K] and kappa indexed as
// kappa[layer][wavelength][temperature point].
func NewTable(temperatures []float64, kappa [][][]float64) (*Table, error) {
	if len(temperatures) == 0 {
		return nil, ErrEmptyGrid
	}
	for i := 1; i < len(temperatures); i++ {
		if !(temperatures[i] > temperatures[i-1]) {
			return nil, fmt.Errorf("%w: point %d", ErrUnsortedGrid, i)
		}
	}
	if len(kappa) == 0 {
		return nil, fmt.Errorf("%w: no layers", ErrShapeMismatch)
	}

	nw := len(kappa[0])
	t := &Table{
		temperatures: append([]float64(nil), temperatures...),
		predictors:   make([][]interp.Predictor, len(kappa)),
	}
	for i, layer := range kappa {
		if len(layer) != nw {
			return nil, fmt.Errorf("%w: layer %d has %d wavelengths, want %d", ErrShapeMismatch, i, len(layer), nw)
		}
		t.predictors[i] = make([]interp.Predictor, nw)
		for j, ys := range layer {
			if len(ys) != len(temperatures) {
				return nil, fmt.Errorf("%w: layer %d wavelength %d has %d points, want %d",
					ErrShapeMismatch, i, j, len(ys), len(temperatures))
			}
			for _, y := range ys {
				if !(y >= 0) || math.IsInf(y, 0) {
					return nil, fmt.Errorf("%w: layer %d wavelength %d", ErrNegativeOpacity, i, j)
				}
			}
			p, err := fit(t.temperatures, ys)
			if err != nil {
				return nil, fmt.Errorf("opacity: layer %d wavelength %d: %w", i, j, err)
			}
			t.predictors[i][j] = p
		}
	}
	return t, nil
}

func fit(xs, ys []float64) (interp.Predictor, error) {
	if len(xs) == 1 {
		return constant(ys[0]), nil
	}
	var pl interp.PiecewiseLinear
	if err := pl.Fit(xs, ys); err != nil {
		return nil, err
	}
	return &pl, nil
}

// Kappa interpolates the table linearly in temperature. Temperatures
// outside the grid take the nearest end value.
func (t *Table) Kappa(layer, wavelength int, temperature float64) float64 {
	return t.predictors[layer][wavelength].Predict(temperature)
}

// Shape returns the number of layers and wavelengths of the table.
func (t *Table) Shape() (layers, wavelengths int) {
	if len(t.predictors) == 0 {
		return 0, 0
	}
	return len(t.predictors), len(t.predictors[0])
}

// Temperatures returns a copy of the temperature grid.
func (t *Table) Temperatures() []float64 {
	return append([]float64(nil), t.temperatures...)
}

// tableFile is the on-disk layout of an opacity table.
type tableFile struct {
	Temperatures []float64     `yaml:"temperatures"`
	Kappa        [][][]float64 `yaml:"kappa"`
}

// LoadTable reads a YAML opacity table with keys temperatures (K) and
// kappa (m^2 kg^-1, indexed layer, wavelength, temperature point).
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f tableFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("opacity: parse %s: %w", path, err)
	}
	return NewTable(f.Temperatures, f.Kappa)
}

// SaveTable writes temperatures and kappa in the layout LoadTable reads.
func SaveTable(path string, temperatures []float64, kappa [][][]float64) error {
	data, err := yaml.Marshal(tableFile{Temperatures: temperatures, Kappa: kappa})
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
