package emission

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/radtrans/internal/atmos"
	"github.com/san-kum/radtrans/internal/opacity"
	"github.com/san-kum/radtrans/internal/physconst"
	"github.com/san-kum/radtrans/internal/radiation"
)

func isothermal(t float64, pressure ...float64) atmos.Column {
	temps := make([]float64, len(pressure))
	for i := range temps {
		temps[i] = t
	}
	return atmos.Column{Pressure: pressure, Temperature: temps}
}

func testGrid(t *testing.T, n int) atmos.WavelengthGrid {
	t.Helper()
	grid, err := atmos.LogGrid(0.1e-6, 1000e-6, n)
	require.NoError(t, err)
	return grid
}

func TestEmit_IsothermalThickColumnIsBlackbody(t *testing.T) {
	const temp = 1000.0
	grid := testGrid(t, 400)
	col := isothermal(temp, 1e5, 1e4, 1e3)

	d, err := New(grid, opacity.Gray{Value: 100}, DefaultOptions())
	require.NoError(t, err)

	nu := d.Wavenumbers()
	b := Boundary{
		TOA:     make([]float64, grid.Len()),
		Surface: BlackbodyFlux(temp, 1, nu),
		Gravity: 10,
	}
	field, err := d.Emit(col, b)
	require.NoError(t, err)

	for j, n := range nu {
		want := math.Pi * radiation.Planck(temp, n)
		for i := 0; i < col.Len(); i++ {
			assert.InDelta(t, want, field.Up[i][j], 1e-9*want+1e-300, "up layer %d wavelength %d", i, j)
		}
		for i := 0; i < col.Len()-1; i++ {
			assert.InDelta(t, want, field.Down[i][j], 1e-9*want+1e-300, "down layer %d wavelength %d", i, j)
		}
		assert.Zero(t, field.Down[col.Len()-1][j])
	}

	sigmaT4 := physconst.StefanBoltzmann * math.Pow(temp, 4)
	assert.InEpsilon(t, sigmaT4, grid.Bolometric(field.Up[col.Len()-1]), 0.01)
}

func TestEmit_TransparentIsothermalColumnPassesBoundaries(t *testing.T) {
	grid := testGrid(t, 32)
	col := isothermal(600, 1e5, 3e4, 1e4, 3e3)

	d, err := New(grid, opacity.Gray{}, DefaultOptions())
	require.NoError(t, err)

	b := Boundary{
		TOA:     BlackbodyFlux(5000, 1e-3, d.Wavenumbers()),
		Surface: BlackbodyFlux(300, 1, d.Wavenumbers()),
		Gravity: 25,
	}
	field, err := d.Emit(col, b)
	require.NoError(t, err)

	top := col.Len() - 1
	for j := range grid {
		assert.InDelta(t, b.Surface[j], field.Up[top][j], 1e-9*math.Abs(b.Surface[j])+1e-300)
		assert.InDelta(t, b.TOA[j], field.Down[0][j], 1e-9*math.Abs(b.TOA[j])+1e-300)
		assert.Zero(t, field.DeltaTau[0][j])
	}
}

func TestEmit_TwoLayerMatchesPropagator(t *testing.T) {
	grid := atmos.WavelengthGrid{1e-6, 5e-6, 20e-6}
	col := atmos.Column{Pressure: []float64{2e4, 1e4}, Temperature: []float64{900, 700}}
	src, err := opacity.NewPowerLaw(opacity.PowerLaw{Reference: 1e-3, RefWavelength: 1e-6, WavelengthIndex: 1}, grid)
	require.NoError(t, err)

	d, err := New(grid, src, DefaultOptions())
	require.NoError(t, err)
	b := Boundary{TOA: []float64{1, 2, 3}, Surface: []float64{4, 5, 6}, Gravity: 10}

	field, err := d.Emit(col, b)
	require.NoError(t, err)

	for j, nu := range d.Wavenumbers() {
		dtau := radiation.DeltaTau(src.Kappa(0, j, 900), 2e4, 1e4, 10)
		c := radiation.NewCoefficients(0, 0, dtau)
		up, down := c.Flux(b.Surface[j], b.TOA[j], radiation.Planck(900, nu), radiation.Planck(700, nu), dtau)
		assert.Equal(t, dtau, field.DeltaTau[0][j])
		assert.Equal(t, up, field.Up[1][j])
		assert.Equal(t, down, field.Down[0][j])
	}
}

func TestEmit_DeterministicWithScattering(t *testing.T) {
	grid := testGrid(t, 200)
	col := atmos.Column{
		Pressure:    []float64{1e6, 3e5, 1e5, 3e4, 1e4, 3e3},
		Temperature: []float64{2200, 1900, 1600, 1400, 1300, 1250},
	}
	src, err := opacity.NewPowerLaw(opacity.PowerLaw{
		Reference: 5e-3, RefWavelength: 1e-6, WavelengthIndex: 0.5,
		RefTemperature: 1500, TemperatureIndex: 1,
	}, grid)
	require.NoError(t, err)

	opts := DefaultOptions()
	opts.Omega0 = 0.4
	opts.G0 = 0.2
	opts.MinChunk = 8
	d, err := New(grid, src, opts)
	require.NoError(t, err)

	b := Boundary{TOA: BlackbodyFlux(5500, 1e-4, d.Wavenumbers()), Gravity: 20}
	first, err := d.Emit(col, b)
	require.NoError(t, err)
	second, err := d.Emit(col, b)
	require.NoError(t, err)

	assert.Equal(t, first.Up, second.Up)
	assert.Equal(t, first.Down, second.Down)
	assert.Equal(t, first.DeltaTau, second.DeltaTau)
	for i := range first.Up {
		for j := range first.Up[i] {
			require.False(t, math.IsNaN(first.Up[i][j]) || math.IsNaN(first.Down[i][j]))
		}
	}
}

func TestEmit_DoesNotModifyInputs(t *testing.T) {
	grid := testGrid(t, 16)
	col := atmos.Column{Pressure: []float64{1e5, 1e4, 1e3}, Temperature: []float64{1200, 1000, 900}}
	orig := col.Clone()
	toa := BlackbodyFlux(6000, 1e-4, grid.Wavenumbers())
	toaCopy := append([]float64(nil), toa...)

	_, err := Emit(opacity.Gray{Value: 1e-3}, col, grid, Boundary{TOA: toa, Gravity: 10}, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, orig, col)
	assert.Equal(t, toaCopy, toa)
}

func TestEmit_Validation(t *testing.T) {
	grid := testGrid(t, 4)
	good := atmos.Column{Pressure: []float64{1e5, 1e4}, Temperature: []float64{1000, 900}}
	toa := make([]float64, 4)
	table, err := opacity.NewTable([]float64{1000}, [][][]float64{{{1}, {1}, {1}, {1}}, {{1}, {1}, {1}, {1}}, {{1}, {1}, {1}, {1}}})
	require.NoError(t, err)

	tests := []struct {
		name string
		src  opacity.Source
		col  atmos.Column
		b    Boundary
		want error
	}{
		{"one layer", opacity.Gray{}, atmos.Column{Pressure: []float64{1e5}, Temperature: []float64{1000}},
			Boundary{TOA: toa, Gravity: 10}, atmos.ErrTooFewLayers},
		{"pressure increases", opacity.Gray{}, atmos.Column{Pressure: []float64{1e4, 1e5}, Temperature: []float64{1000, 900}},
			Boundary{TOA: toa, Gravity: 10}, atmos.ErrNonMonotonicPressure},
		{"temperature shape", opacity.Gray{}, atmos.Column{Pressure: []float64{1e5, 1e4}, Temperature: []float64{1000}},
			Boundary{TOA: toa, Gravity: 10}, atmos.ErrShapeMismatch},
		{"toa shape", opacity.Gray{}, good, Boundary{TOA: toa[:2], Gravity: 10}, atmos.ErrShapeMismatch},
		{"surface shape", opacity.Gray{}, good, Boundary{TOA: toa, Surface: toa[:3], Gravity: 10}, atmos.ErrShapeMismatch},
		{"zero gravity", opacity.Gray{}, good, Boundary{TOA: toa}, atmos.ErrInvalidGravity},
		{"table shape", table, good, Boundary{TOA: toa, Gravity: 10}, opacity.ErrShapeMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Emit(tt.src, tt.col, grid, tt.b, DefaultOptions())
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestNew_Validation(t *testing.T) {
	_, err := New(atmos.WavelengthGrid{2e-6, 1e-6}, opacity.Gray{}, DefaultOptions())
	assert.ErrorIs(t, err, atmos.ErrInvalidWavelength)

	opts := DefaultOptions()
	opts.Omega0 = 1
	_, err = New(atmos.WavelengthGrid{1e-6}, opacity.Gray{}, opts)
	assert.ErrorIs(t, err, radiation.ErrScatteringDomain)

	d, err := New(atmos.WavelengthGrid{1e-6}, opacity.Gray{}, Options{})
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxSweeps, d.Options().MaxSweeps)
	assert.Equal(t, DefaultSweepTolerance, d.Options().SweepTolerance)
}

func TestBlackbodyFlux_Bolometric(t *testing.T) {
	grid := testGrid(t, 400)
	f := BlackbodyFlux(1500, 0.5, grid.Wavenumbers())
	want := 0.5 * physconst.StefanBoltzmann * math.Pow(1500, 4)
	assert.InEpsilon(t, want, grid.Bolometric(f), 0.01)
}
