package equilibrium

import (
	"github.com/sirupsen/logrus"

	"github.com/san-kum/radtrans/internal/atmos"
	"github.com/san-kum/radtrans/internal/convection"
)

const (
	DefaultMaxIterations        = 500
	DefaultConvergenceThreshold = 1.0 // K
	DefaultFluxTolerance        = 1e-3
	DefaultMaxStepFraction      = 0.25
	DefaultMinTemperature       = 1.0 // K
)

// Options control a run.
type Options struct {
	MaxIterations        int
	ConvergenceThreshold float64 // K
	// FluxTolerance is the largest flux a layer may absorb or lose at
	// convergence, relative to the flux entering the column.
	FluxTolerance float64
	// MaxStepFraction caps |dT| in one iteration at this fraction of the
	// layer temperature.
	MaxStepFraction float64
	MinTemperature  float64 // K
	// Convection adds the mixing-length flux to the divergence.
	Convection bool
	Gas        convection.Gas
	Log        logrus.FieldLogger
}

func DefaultOptions() Options {
	return Options{
		MaxIterations:        DefaultMaxIterations,
		ConvergenceThreshold: DefaultConvergenceThreshold,
		FluxTolerance:        DefaultFluxTolerance,
		MaxStepFraction:      DefaultMaxStepFraction,
		MinTemperature:       DefaultMinTemperature,
		Convection:           true,
		Gas:                  convection.DefaultGas(),
		Log:                  logrus.StandardLogger(),
	}
}

// Status is the state of a run.
type Status int

const (
	StatusIterating Status = iota
	StatusConverged
	StatusExhausted
)

func (s Status) String() string {
	switch s {
	case StatusIterating:
		return "iterating"
	case StatusConverged:
		return "converged"
	case StatusExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Iteration describes one accepted step.
type Iteration struct {
	Index          int
	Temperatures   []float64
	Change         []float64 // applied dT per layer
	MaxChange      float64
	NetFlux        []float64 // bolometric net upward radiative flux per layer
	ConvectiveFlux []float64
	Divergence     []float64
	Timestep       []float64

	// Imbalance is the total flux absorbed by each evolving layer before
	// the update [W m^-2]; zero at equilibrium. RelativeImbalance is its
	// largest magnitude over the flux entering the column.
	Imbalance         []float64
	RelativeImbalance float64

	Flux *atmos.FluxField
	Grid atmos.WavelengthGrid
}

// OutgoingFlux returns the bolometric upward flux leaving the top layer.
func (it Iteration) OutgoingFlux() float64 {
	top := it.Flux.Layers() - 1
	return it.Grid.Bolometric(it.Flux.Up[top])
}

// Metric accumulates a scalar over the iterations of a run.
type Metric interface {
	Name() string
	Observe(it Iteration)
	Value() float64
	Reset()
}

// Observer is notified after every accepted step.
type Observer interface {
	OnIteration(it Iteration)
}

// Result is the outcome of a run.
type Result struct {
	Temperatures []float64
	// History holds the initial profile followed by one profile per
	// iteration, shape (iterations+1, layers).
	History [][]float64
	// MaxChange and Imbalance hold the MaxChange and RelativeImbalance of
	// every iteration.
	MaxChange  []float64
	Imbalance  []float64
	Flux       *atmos.FluxField
	DeltaTau   [][]float64
	Converged  bool
	Status     Status
	Iterations int
	Metrics    map[string]float64
}

// HistoryByLayer returns the history transposed to (layers, iterations+1).
func (r *Result) HistoryByLayer() [][]float64 {
	if len(r.History) == 0 {
		return nil
	}
	nl := len(r.History[0])
	out := make([][]float64, nl)
	for i := range out {
		out[i] = make([]float64, len(r.History))
		for k, row := range r.History {
			out[i][k] = row[i]
		}
	}
	return out
}

// OutgoingSpectrum returns the upward spectral flux leaving the top layer
// in the final pass, or nil if no pass has run.
func (r *Result) OutgoingSpectrum() []float64 {
	if r.Flux == nil {
		return nil
	}
	return append([]float64(nil), r.Flux.Up[r.Flux.Layers()-1]...)
}
