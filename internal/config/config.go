package config

import (
	"fmt"
	"math"
	"os"

	"github.com/ctessum/unit"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/radtrans/internal/atmos"
	"github.com/san-kum/radtrans/internal/convection"
	"github.com/san-kum/radtrans/internal/emission"
	"github.com/san-kum/radtrans/internal/equilibrium"
	"github.com/san-kum/radtrans/internal/opacity"
	"github.com/san-kum/radtrans/internal/physconst"
)

const (
	DefaultLayers           = 30
	DefaultBottomPressure   = 1e7 // Pa
	DefaultTopPressure      = 10  // Pa
	DefaultTemperature      = 2000
	DefaultGravity          = 10
	DefaultMolecularWeight  = 2.4 // proton masses
	DefaultMinWavelengthUM  = 0.3
	DefaultMaxWavelengthUM  = 30
	DefaultWavelengthPoints = 200
	DefaultKappa            = 1e-3 // m^2 kg^-1
	DefaultStellarTemp      = 5800
	DefaultDilution         = 8.66e-3 // (R_sun / 0.05 au)^2
	DefaultInternalTemp     = 500

	micron = 1e-6
)

const (
	OpacityGray     = "gray"
	OpacityPowerLaw = "power_law"
	OpacityTable    = "table"
)

type Config struct {
	Name       string           `yaml:"name"`
	Atmosphere AtmosphereConfig `yaml:"atmosphere"`
	Spectrum   SpectrumConfig   `yaml:"spectrum"`
	Opacity    OpacityConfig    `yaml:"opacity"`
	Scattering ScatteringConfig `yaml:"scattering"`
	Boundary   BoundaryConfig   `yaml:"boundary"`
	Solver     SolverConfig     `yaml:"solver"`
}

// AtmosphereConfig describes the column. Explicit pressures and
// temperatures take precedence over the generated profile, which is log
// spaced in pressure and linear in log pressure in temperature.
type AtmosphereConfig struct {
	Layers           int       `yaml:"layers"`
	BottomPressure   float64   `yaml:"bottom_pressure"`
	TopPressure      float64   `yaml:"top_pressure"`
	Temperature      float64   `yaml:"temperature"`
	TopTemperature   float64   `yaml:"top_temperature,omitempty"`
	Pressures        []float64 `yaml:"pressures,omitempty"`
	Temperatures     []float64 `yaml:"temperatures,omitempty"`
	Gravity          float64   `yaml:"gravity"`
	MolecularWeight  float64   `yaml:"molecular_weight"`
	DegreesOfFreedom int       `yaml:"degrees_of_freedom"`
	MixingLength     float64   `yaml:"mixing_length"`
}

type SpectrumConfig struct {
	MinWavelengthUM float64 `yaml:"min_wavelength_um"`
	MaxWavelengthUM float64 `yaml:"max_wavelength_um"`
	Points          int     `yaml:"points"`
}

type OpacityConfig struct {
	Kind             string  `yaml:"kind"`
	Kappa            float64 `yaml:"kappa"`
	RefWavelengthUM  float64 `yaml:"ref_wavelength_um,omitempty"`
	WavelengthIndex  float64 `yaml:"wavelength_index,omitempty"`
	RefTemperature   float64 `yaml:"ref_temperature,omitempty"`
	TemperatureIndex float64 `yaml:"temperature_index,omitempty"`
	TablePath        string  `yaml:"table_path,omitempty"`
}

type ScatteringConfig struct {
	Omega0 float64 `yaml:"omega0"`
	G0     float64 `yaml:"g0"`
}

// BoundaryConfig sets the incident and internal fluxes. A zero stellar
// temperature means no irradiation; a zero internal temperature means no
// flux from below.
type BoundaryConfig struct {
	StellarTemperature  float64 `yaml:"stellar_temperature"`
	Dilution            float64 `yaml:"dilution"`
	InternalTemperature float64 `yaml:"internal_temperature"`
}

type SolverConfig struct {
	MaxIterations        int     `yaml:"max_iterations"`
	ConvergenceThreshold float64 `yaml:"convergence_threshold"`
	FluxTolerance        float64 `yaml:"flux_tolerance"`
	MaxStepFraction      float64 `yaml:"max_step_fraction"`
	MinTemperature       float64 `yaml:"min_temperature"`
	Convection           bool    `yaml:"convection"`
	SweepTolerance       float64 `yaml:"sweep_tolerance"`
	MaxSweeps            int     `yaml:"max_sweeps"`
}

func DefaultConfig() *Config {
	return &Config{
		Name: "default",
		Atmosphere: AtmosphereConfig{
			Layers:           DefaultLayers,
			BottomPressure:   DefaultBottomPressure,
			TopPressure:      DefaultTopPressure,
			Temperature:      DefaultTemperature,
			Gravity:          DefaultGravity,
			MolecularWeight:  DefaultMolecularWeight,
			DegreesOfFreedom: physconst.DegreesOfFreedom,
			MixingLength:     physconst.MixingLengthAlpha,
		},
		Spectrum: SpectrumConfig{
			MinWavelengthUM: DefaultMinWavelengthUM,
			MaxWavelengthUM: DefaultMaxWavelengthUM,
			Points:          DefaultWavelengthPoints,
		},
		Opacity: OpacityConfig{
			Kind:  OpacityGray,
			Kappa: DefaultKappa,
		},
		Boundary: BoundaryConfig{
			StellarTemperature:  DefaultStellarTemp,
			Dilution:            DefaultDilution,
			InternalTemperature: DefaultInternalTemp,
		},
		Solver: SolverConfig{
			MaxIterations:        equilibrium.DefaultMaxIterations,
			ConvergenceThreshold: equilibrium.DefaultConvergenceThreshold,
			FluxTolerance:        equilibrium.DefaultFluxTolerance,
			MaxStepFraction:      equilibrium.DefaultMaxStepFraction,
			MinTemperature:       equilibrium.DefaultMinTemperature,
			Convection:           true,
			SweepTolerance:       emission.DefaultSweepTolerance,
			MaxSweeps:            emission.DefaultMaxSweeps,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Clone returns a deep copy of c.
func (c *Config) Clone() *Config {
	out := *c
	if c.Atmosphere.Pressures != nil {
		out.Atmosphere.Pressures = append([]float64(nil), c.Atmosphere.Pressures...)
	}
	if c.Atmosphere.Temperatures != nil {
		out.Atmosphere.Temperatures = append([]float64(nil), c.Atmosphere.Temperatures...)
	}
	return &out
}

// Validate checks every physical quantity for finiteness, attaches its
// dimensions and checks its range. It also re-verifies the derived
// constants used by the numeric code.
func (c *Config) Validate() error {
	if err := physconst.Verify(); err != nil {
		return err
	}

	a := c.Atmosphere
	quantities := []struct {
		name     string
		value    float64
		dims     unit.Dimensions
		positive bool
	}{
		{"atmosphere.bottom_pressure", a.BottomPressure, physconst.Pressure, len(a.Pressures) == 0},
		{"atmosphere.top_pressure", a.TopPressure, physconst.Pressure, len(a.Pressures) == 0},
		{"atmosphere.temperature", a.Temperature, physconst.Temperature, false},
		{"atmosphere.top_temperature", a.TopTemperature, physconst.Temperature, false},
		{"atmosphere.gravity", a.Gravity, physconst.Acceleration, true},
		{"atmosphere.molecular_weight", a.MolecularWeight, unit.Dimless, true},
		{"atmosphere.mixing_length", a.MixingLength, unit.Dimless, true},
		{"spectrum.min_wavelength_um", c.Spectrum.MinWavelengthUM * micron, physconst.Length, true},
		{"spectrum.max_wavelength_um", c.Spectrum.MaxWavelengthUM * micron, physconst.Length, true},
		{"opacity.kappa", c.Opacity.Kappa, physconst.Opacity, false},
		{"opacity.ref_temperature", c.Opacity.RefTemperature, physconst.Temperature, false},
		{"boundary.stellar_temperature", c.Boundary.StellarTemperature, physconst.Temperature, false},
		{"boundary.dilution", c.Boundary.Dilution, unit.Dimless, false},
		{"boundary.internal_temperature", c.Boundary.InternalTemperature, physconst.Temperature, false},
		{"solver.convergence_threshold", c.Solver.ConvergenceThreshold, physconst.Temperature, true},
		{"solver.flux_tolerance", c.Solver.FluxTolerance, unit.Dimless, false},
		{"solver.min_temperature", c.Solver.MinTemperature, physconst.Temperature, false},
	}
	units := make(map[string]*unit.Unit, len(quantities))
	for _, q := range quantities {
		u, err := physconst.CheckQuantity(q.name, q.value, q.dims)
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		units[q.name] = u
		if q.positive && !(q.value > 0) {
			return fmt.Errorf("config: %s must be positive, got %g", q.name, q.value)
		}
		if q.value < 0 {
			return fmt.Errorf("config: %s must be non-negative, got %g", q.name, q.value)
		}
	}

	bottom := units["atmosphere.bottom_pressure"]
	if len(a.Pressures) > 0 {
		p, err := physconst.CheckQuantity("atmosphere.pressures[0]", a.Pressures[0], physconst.Pressure)
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		bottom = p
	}
	mass, err := physconst.ColumnMass(bottom, units["atmosphere.gravity"])
	if err != nil {
		return fmt.Errorf("config: atmosphere: %w", err)
	}
	if _, err := physconst.OpticalDepth(units["opacity.kappa"], mass); err != nil {
		return fmt.Errorf("config: opacity.kappa: %w", err)
	}

	if len(a.Pressures) == 0 && a.Layers < 2 {
		return fmt.Errorf("config: atmosphere.layers must be at least 2, got %d", a.Layers)
	}
	if a.DegreesOfFreedom < 0 {
		return fmt.Errorf("config: atmosphere.degrees_of_freedom must be non-negative, got %d", a.DegreesOfFreedom)
	}
	if c.Spectrum.Points < 1 {
		return fmt.Errorf("config: spectrum.points must be positive, got %d", c.Spectrum.Points)
	}
	switch c.Opacity.Kind {
	case OpacityGray:
	case OpacityPowerLaw:
		if !(c.Opacity.RefWavelengthUM > 0) {
			return fmt.Errorf("config: opacity.ref_wavelength_um must be positive for %s", OpacityPowerLaw)
		}
	case OpacityTable:
		if c.Opacity.TablePath == "" {
			return fmt.Errorf("config: opacity.table_path is required for %s", OpacityTable)
		}
	default:
		return fmt.Errorf("config: unknown opacity kind %q", c.Opacity.Kind)
	}
	if c.Solver.MaxIterations < 1 {
		return fmt.Errorf("config: solver.max_iterations must be positive, got %d", c.Solver.MaxIterations)
	}
	return nil
}

// Gas returns the composition used by the hydrostatic relations.
func (c *Config) Gas() convection.Gas {
	return convection.Gas{
		MeanMolecularMass: c.Atmosphere.MolecularWeight * physconst.ProtonMass,
		DegreesOfFreedom:  c.Atmosphere.DegreesOfFreedom,
		MixingLengthAlpha: c.Atmosphere.MixingLength,
	}
}

// BuildColumn returns the initial column.
func (c *Config) BuildColumn() (atmos.Column, error) {
	a := c.Atmosphere
	p := a.Pressures
	if len(p) == 0 {
		var err error
		p, err = atmos.LogPressures(a.BottomPressure, a.TopPressure, a.Layers)
		if err != nil {
			return atmos.Column{}, fmt.Errorf("config: %w", err)
		}
	} else {
		p = append([]float64(nil), p...)
	}

	t := a.Temperatures
	if len(t) == 0 {
		t = make([]float64, len(p))
		top := a.TopTemperature
		if top == 0 {
			top = a.Temperature
		}
		span := math.Log(p[0] / p[len(p)-1])
		for i := range t {
			frac := 0.0
			if span > 0 {
				frac = math.Log(p[0]/p[i]) / span
			}
			t[i] = a.Temperature + frac*(top-a.Temperature)
		}
	} else {
		t = append([]float64(nil), t...)
	}

	col := atmos.Column{Pressure: p, Temperature: t}
	if err := col.Validate(); err != nil {
		return atmos.Column{}, err
	}
	return col, nil
}

// BuildGrid returns the wavelength grid in metres.
func (c *Config) BuildGrid() (atmos.WavelengthGrid, error) {
	s := c.Spectrum
	return atmos.LogGrid(s.MinWavelengthUM*micron, s.MaxWavelengthUM*micron, s.Points)
}

// BuildOpacity returns the opacity source bound to grid.
func (c *Config) BuildOpacity(grid atmos.WavelengthGrid) (opacity.Source, error) {
	o := c.Opacity
	switch o.Kind {
	case OpacityGray:
		return opacity.NewGray(o.Kappa)
	case OpacityPowerLaw:
		return opacity.NewPowerLaw(opacity.PowerLaw{
			Reference:        o.Kappa,
			RefWavelength:    o.RefWavelengthUM * micron,
			WavelengthIndex:  o.WavelengthIndex,
			RefTemperature:   o.RefTemperature,
			TemperatureIndex: o.TemperatureIndex,
		}, grid)
	case OpacityTable:
		return opacity.LoadTable(o.TablePath)
	default:
		return nil, fmt.Errorf("config: unknown opacity kind %q", o.Kind)
	}
}

// BuildBoundary returns the boundary fluxes on the given wavenumbers.
func (c *Config) BuildBoundary(wavenumbers []float64) emission.Boundary {
	b := emission.Boundary{
		TOA:     make([]float64, len(wavenumbers)),
		Gravity: c.Atmosphere.Gravity,
	}
	if c.Boundary.StellarTemperature > 0 && c.Boundary.Dilution > 0 {
		b.TOA = emission.BlackbodyFlux(c.Boundary.StellarTemperature, c.Boundary.Dilution, wavenumbers)
	}
	if c.Boundary.InternalTemperature > 0 {
		b.Surface = emission.BlackbodyFlux(c.Boundary.InternalTemperature, 1, wavenumbers)
	}
	return b
}

func (c *Config) EmissionOptions() emission.Options {
	opts := emission.DefaultOptions()
	opts.Omega0 = c.Scattering.Omega0
	opts.G0 = c.Scattering.G0
	if c.Solver.SweepTolerance > 0 {
		opts.SweepTolerance = c.Solver.SweepTolerance
	}
	if c.Solver.MaxSweeps > 0 {
		opts.MaxSweeps = c.Solver.MaxSweeps
	}
	return opts
}

func (c *Config) SolverOptions(log logrus.FieldLogger) equilibrium.Options {
	opts := equilibrium.DefaultOptions()
	opts.MaxIterations = c.Solver.MaxIterations
	opts.ConvergenceThreshold = c.Solver.ConvergenceThreshold
	if c.Solver.FluxTolerance > 0 {
		opts.FluxTolerance = c.Solver.FluxTolerance
	}
	if c.Solver.MaxStepFraction > 0 {
		opts.MaxStepFraction = c.Solver.MaxStepFraction
	}
	opts.MinTemperature = c.Solver.MinTemperature
	opts.Convection = c.Solver.Convection
	opts.Gas = c.Gas()
	if log != nil {
		opts.Log = log
	}
	return opts
}

// Setup holds everything needed to run a configuration.
type Setup struct {
	Column   atmos.Column
	Grid     atmos.WavelengthGrid
	Driver   *emission.Driver
	Boundary emission.Boundary
	Options  equilibrium.Options
}

// Build validates c and constructs the column, grid, emission driver,
// boundary and solver options.
func (c *Config) Build(log logrus.FieldLogger) (*Setup, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	col, err := c.BuildColumn()
	if err != nil {
		return nil, err
	}
	grid, err := c.BuildGrid()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	src, err := c.BuildOpacity(grid)
	if err != nil {
		return nil, err
	}
	driver, err := emission.New(grid, src, c.EmissionOptions())
	if err != nil {
		return nil, err
	}
	return &Setup{
		Column:   col,
		Grid:     grid,
		Driver:   driver,
		Boundary: c.BuildBoundary(driver.Wavenumbers()),
		Options:  c.SolverOptions(log),
	}, nil
}

// NewSolver returns a solver positioned at the initial column.
func (s *Setup) NewSolver() (*equilibrium.Solver, error) {
	return equilibrium.New(s.Driver, s.Column, s.Boundary, s.Options)
}
