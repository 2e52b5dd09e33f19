package config

import "sort"

var Presets = map[string]*Config{
	"hot_jupiter": {
		Name: "hot_jupiter",
		Atmosphere: AtmosphereConfig{
			Layers: 30, BottomPressure: 1e7, TopPressure: 10,
			Temperature: 2500, TopTemperature: 1200,
			Gravity: 20, MolecularWeight: 2.4, DegreesOfFreedom: 5, MixingLength: 1,
		},
		Spectrum: SpectrumConfig{MinWavelengthUM: 0.3, MaxWavelengthUM: 30, Points: 200},
		Opacity: OpacityConfig{
			Kind: OpacityPowerLaw, Kappa: 2e-3, RefWavelengthUM: 1, WavelengthIndex: 1,
		},
		Boundary: BoundaryConfig{StellarTemperature: 5800, Dilution: 8.66e-3, InternalTemperature: 400},
		Solver: SolverConfig{
			MaxIterations: 4000, ConvergenceThreshold: 1, MaxStepFraction: 0.25,
			MinTemperature: 10, Convection: true,
		},
	},
	"isothermal": {
		Name: "isothermal",
		Atmosphere: AtmosphereConfig{
			Layers: 10, BottomPressure: 1e6, TopPressure: 100, Temperature: 1000,
			Gravity: 10, MolecularWeight: 2.4, DegreesOfFreedom: 5, MixingLength: 1,
		},
		Spectrum: SpectrumConfig{MinWavelengthUM: 0.3, MaxWavelengthUM: 100, Points: 200},
		Opacity:  OpacityConfig{Kind: OpacityGray, Kappa: 1e-4},
		Boundary: BoundaryConfig{InternalTemperature: 2100},
		Solver: SolverConfig{
			MaxIterations: 3000, ConvergenceThreshold: 1, MaxStepFraction: 0.25,
			MinTemperature: 10, Convection: true,
		},
	},
	"toy": {
		Name: "toy",
		Atmosphere: AtmosphereConfig{
			Pressures: []float64{1e5, 1e4}, Temperatures: []float64{800, 400},
			Gravity: 10, MolecularWeight: 2.4, DegreesOfFreedom: 5, MixingLength: 1,
		},
		Spectrum: SpectrumConfig{MinWavelengthUM: 0.3, MaxWavelengthUM: 300, Points: 150},
		Opacity:  OpacityConfig{Kind: OpacityGray, Kappa: 1e-4},
		Boundary: BoundaryConfig{InternalTemperature: 600},
		Solver: SolverConfig{
			MaxIterations: 500, ConvergenceThreshold: 0.5, MaxStepFraction: 0.25,
			MinTemperature: 1,
		},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

// ListPresets returns the preset names in sorted order.
func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
