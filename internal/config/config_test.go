package config

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/radtrans/internal/atmos"
	"github.com/san-kum/radtrans/internal/opacity"
	"github.com/san-kum/radtrans/internal/physconst"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Atmosphere.Layers != DefaultLayers {
		t.Errorf("expected %d layers, got %d", DefaultLayers, cfg.Atmosphere.Layers)
	}
	if cfg.Atmosphere.Gravity <= 0 {
		t.Error("gravity should be positive")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestPresetsValidate(t *testing.T) {
	for _, name := range ListPresets() {
		t.Run(name, func(t *testing.T) {
			cfg := GetPreset(name)
			require.NotNil(t, cfg)
			assert.Equal(t, name, cfg.Name)
			assert.NoError(t, cfg.Validate())
			_, err := cfg.Build(nil)
			assert.NoError(t, err)
		})
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if cfg := GetPreset("nonexistent"); cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestGetPreset_ReturnsCopy(t *testing.T) {
	cfg := GetPreset("toy")
	cfg.Atmosphere.Temperatures[0] = 1
	assert.Equal(t, 800.0, Presets["toy"].Atmosphere.Temperatures[0])
}

func TestListPresets(t *testing.T) {
	assert.Equal(t, []string{"hot_jupiter", "isothermal", "toy"}, ListPresets())
}

func TestLoadSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	cfg := GetPreset("hot_jupiter")
	cfg.Scattering.Omega0 = 0.3
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative gravity", func(c *Config) { c.Atmosphere.Gravity = -1 }},
		{"infinite temperature", func(c *Config) { c.Atmosphere.Temperature = math.Inf(1) }},
		{"NaN kappa", func(c *Config) { c.Opacity.Kappa = math.NaN() }},
		{"one layer", func(c *Config) { c.Atmosphere.Layers = 1 }},
		{"no wavelengths", func(c *Config) { c.Spectrum.Points = 0 }},
		{"unknown opacity", func(c *Config) { c.Opacity.Kind = "lookup" }},
		{"power law without reference", func(c *Config) { c.Opacity.Kind = OpacityPowerLaw }},
		{"table without path", func(c *Config) { c.Opacity.Kind = OpacityTable }},
		{"no iterations", func(c *Config) { c.Solver.MaxIterations = 0 }},
		{"zero threshold", func(c *Config) { c.Solver.ConvergenceThreshold = 0 }},
		{"negative flux tolerance", func(c *Config) { c.Solver.FluxTolerance = -1 }},
		{"column mass overflow", func(c *Config) {
			c.Atmosphere.BottomPressure = 1e300
			c.Atmosphere.Gravity = 1e-10
		}},
		{"optical depth overflow", func(c *Config) {
			c.Opacity.Kappa = 1e300
			c.Atmosphere.BottomPressure = 1e12
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidate_DerivedQuantities(t *testing.T) {
	cfg := GetPreset("toy")
	cfg.Atmosphere.Pressures = []float64{math.Inf(1), 1e4}
	assert.ErrorContains(t, cfg.Validate(), "atmosphere.pressures[0]")

	cfg = GetPreset("toy")
	cfg.Opacity.Kappa = 1e306
	assert.ErrorContains(t, cfg.Validate(), "optical depth")

	for _, name := range ListPresets() {
		assert.NoError(t, GetPreset(name).Validate(), name)
	}
}

func TestBuildColumn_Profile(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Atmosphere.Layers = 5
	cfg.Atmosphere.BottomPressure = 1e6
	cfg.Atmosphere.TopPressure = 1e2
	cfg.Atmosphere.Temperature = 2000
	cfg.Atmosphere.TopTemperature = 1000

	col, err := cfg.BuildColumn()
	require.NoError(t, err)
	require.Equal(t, 5, col.Len())
	assert.InDelta(t, 1e6, col.Pressure[0], 1e-6)
	assert.InDelta(t, 1e2, col.Pressure[4], 1e-9)
	assert.InDelta(t, 2000, col.Temperature[0], 1e-9)
	assert.InDelta(t, 1500, col.Temperature[2], 1e-9)
	assert.InDelta(t, 1000, col.Temperature[4], 1e-9)
}

func TestBuildColumn_Explicit(t *testing.T) {
	cfg := GetPreset("toy")
	col, err := cfg.BuildColumn()
	require.NoError(t, err)
	assert.Equal(t, []float64{1e5, 1e4}, col.Pressure)

	col.Temperature[0] = 0
	assert.Equal(t, 800.0, cfg.Atmosphere.Temperatures[0])

	cfg.Atmosphere.Temperatures = []float64{1}
	_, err = cfg.BuildColumn()
	assert.ErrorIs(t, err, atmos.ErrShapeMismatch)
}

func TestBuildOpacity(t *testing.T) {
	cfg := DefaultConfig()
	grid, err := cfg.BuildGrid()
	require.NoError(t, err)
	assert.Equal(t, DefaultWavelengthPoints, grid.Len())
	assert.InDelta(t, 0.3e-6, grid[0], 1e-18)

	src, err := cfg.BuildOpacity(grid)
	require.NoError(t, err)
	assert.Equal(t, DefaultKappa, src.Kappa(0, 0, 1000))

	path := filepath.Join(t.TempDir(), "table.yaml")
	require.NoError(t, opacity.SaveTable(path, []float64{100, 200}, [][][]float64{{{1, 3}}}))
	cfg.Opacity = OpacityConfig{Kind: OpacityTable, TablePath: path}
	src, err = cfg.BuildOpacity(atmos.WavelengthGrid{1e-6})
	require.NoError(t, err)
	assert.InDelta(t, 2, src.Kappa(0, 0, 150), 1e-12)
}

func TestBuildBoundary(t *testing.T) {
	cfg := DefaultConfig()
	grid, err := atmos.LogGrid(0.1e-6, 1000e-6, 400)
	require.NoError(t, err)

	b := cfg.BuildBoundary(grid.Wavenumbers())
	assert.Equal(t, cfg.Atmosphere.Gravity, b.Gravity)
	wantTOA := cfg.Boundary.Dilution * physconst.StefanBoltzmann * math.Pow(cfg.Boundary.StellarTemperature, 4)
	assert.InEpsilon(t, wantTOA, grid.Bolometric(b.TOA), 0.01)
	wantSurface := physconst.StefanBoltzmann * math.Pow(cfg.Boundary.InternalTemperature, 4)
	assert.InEpsilon(t, wantSurface, grid.Bolometric(b.Surface), 0.01)

	cfg.Boundary = BoundaryConfig{}
	b = cfg.BuildBoundary(grid.Wavenumbers())
	assert.Nil(t, b.Surface)
	assert.Zero(t, grid.Bolometric(b.TOA))
}

func TestSolverOptions(t *testing.T) {
	cfg := GetPreset("toy")
	opts := cfg.SolverOptions(nil)
	assert.Equal(t, 500, opts.MaxIterations)
	assert.False(t, opts.Convection)
	assert.InEpsilon(t, physconst.MeanMolecularMass, opts.Gas.MeanMolecularMass, 1e-12)
	assert.NotNil(t, opts.Log)
}
