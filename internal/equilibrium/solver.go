package equilibrium

import (
	"context"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/radtrans/internal/atmos"
	"github.com/san-kum/radtrans/internal/emission"
	"github.com/san-kum/radtrans/internal/physconst"
)

const (
	// minDamping bounds the per-layer damping multiplier from below so a
	// layer can always move toward a balance point that has shifted.
	minDamping    = 1.0 / 4096
	dampingGrowth = 1.2
)

// Solver iterates one column toward equilibrium.
type Solver struct {
	driver   *emission.Driver
	boundary emission.Boundary
	opts     Options

	metrics   []Metric
	observers []Observer

	col       atmos.Column
	damping   []float64
	lastDelta []float64
	fluxScale float64
	result    *Result
}

// New validates the inputs and returns a solver positioned before the
// first iteration. Temperatures below opts.MinTemperature are raised to
// it. The column is copied.
//
// Flux imbalances are measured against the bolometric flux entering the
// column through both boundaries, or sigma*T^4 of the hottest initial layer
// when no flux enters.
func New(driver *emission.Driver, col atmos.Column, b emission.Boundary, opts Options) (*Solver, error) {
	if driver == nil {
		return nil, fmt.Errorf("%w: nil emission driver", ErrInvalidOptions)
	}
	if err := validateOptions(opts); err != nil {
		return nil, err
	}
	if err := col.Validate(); err != nil {
		return nil, err
	}
	if err := b.Validate(driver.Grid().Len()); err != nil {
		return nil, err
	}
	if opts.Log == nil {
		opts.Log = logrus.StandardLogger()
	}

	col = col.Clone()
	for i, t := range col.Temperature {
		col.Temperature[i] = math.Max(t, opts.MinTemperature)
	}

	damping := make([]float64, col.Len())
	for i := range damping {
		damping[i] = 1
	}

	grid := driver.Grid()
	scale := grid.Bolometric(b.TOA) + grid.Bolometric(b.Surface)
	if !(scale > 0) {
		scale = physconst.StefanBoltzmann * math.Pow(floats.Max(col.Temperature), 4)
	}

	s := &Solver{
		driver:    driver,
		boundary:  b,
		opts:      opts,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
		col:       col,
		damping:   damping,
		lastDelta: make([]float64, col.Len()),
		fluxScale: scale,
		result: &Result{
			Temperatures: append([]float64(nil), col.Temperature...),
			History:      [][]float64{append([]float64(nil), col.Temperature...)},
			Metrics:      make(map[string]float64),
		},
	}
	return s, nil
}

func (s *Solver) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Solver) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// Column returns the current profile.
func (s *Solver) Column() atmos.Column { return s.col.Clone() }

// Status returns the state of the run.
func (s *Solver) Status() Status { return s.result.Status }

// Result returns the run outcome so far. It is valid after any number of
// steps.
func (s *Solver) Result() *Result {
	for _, m := range s.metrics {
		s.result.Metrics[m.Name()] = m.Value()
	}
	return s.result
}

// Run iterates until convergence, exhaustion or cancellation. A cancelled
// run returns the partial result together with the context error.
func (s *Solver) Run(ctx context.Context) (*Result, error) {
	for _, m := range s.metrics {
		m.Reset()
	}

	for s.result.Status == StatusIterating {
		select {
		case <-ctx.Done():
			return s.Result(), ctx.Err()
		default:
		}

		if _, err := s.Step(); err != nil {
			return s.Result(), err
		}
	}

	s.opts.Log.WithFields(logrus.Fields{
		"status":     s.result.Status.String(),
		"iterations": s.result.Iterations,
		"max_dT":     lastOrZero(s.result.MaxChange),
		"imbalance":  lastOrZero(s.result.Imbalance),
	}).Info("equilibrium run finished")

	return s.Result(), nil
}

// Step performs one iteration and returns its description. The run
// converges once the applied change is below the threshold and every
// evolving layer absorbs less than FluxTolerance of the reference flux. A
// failed step leaves the column and the damping state untouched.
func (s *Solver) Step() (Iteration, error) {
	if s.result.Status != StatusIterating {
		return Iteration{}, ErrAlreadyFinished
	}
	index := s.result.Iterations + 1

	field, err := s.driver.Emit(s.col, s.boundary)
	if err != nil {
		return Iteration{}, &StepError{Iteration: index, Layer: -1, Wrapped: err}
	}

	n := s.col.Len()
	grid := s.driver.Grid()
	gas := s.opts.Gas
	g := s.boundary.Gravity
	p, t := s.col.Pressure, s.col.Temperature

	net := make([]float64, n)
	for i := 0; i < n; i++ {
		net[i] = grid.Bolometric(field.Net(i))
	}
	conv := make([]float64, n)
	if s.opts.Convection {
		gas.Profile(conv, p, t, g)
	}

	it := Iteration{
		Index:          index,
		Change:         make([]float64, n),
		NetFlux:        net,
		ConvectiveFlux: conv,
		Divergence:     make([]float64, n),
		Timestep:       make([]float64, n),
		Imbalance:      make([]float64, n),
		Flux:           field,
		Grid:           grid,
	}

	next := append([]float64(nil), t...)
	damping := append([]float64(nil), s.damping...)
	lastDelta := append([]float64(nil), s.lastDelta...)
	worst := 0.0
	for i := 0; i < n-1; i++ {
		dz := gas.HeightIncrement(t[i], p[i], p[i+1], g)
		convBelow := 0.0
		if i > 0 {
			convBelow = conv[i-1]
		}
		div := DivergenceNetFlux(net[i], net[i+1], convBelow, conv[i], dz)
		dt := Timestep(gas, t[i], t[i+1], p[i], p[i+1], g, div)
		delta := TemperatureChange(gas, div, p[i], p[i+1], t[i], g, dt)

		step, d := stabilize(delta, lastDelta[i], damping[i], s.opts.MaxStepFraction*t[i])
		next[i] = math.Max(t[i]+step, s.opts.MinTemperature)
		if math.IsNaN(next[i]) || math.IsInf(next[i], 0) {
			return Iteration{}, &StepError{Iteration: index, Layer: i, Wrapped: ErrNonFinite}
		}
		damping[i] = d
		if delta != 0 {
			lastDelta[i] = delta
		}

		absorbed := (net[i] - net[i+1]) + (convBelow - conv[i])
		worst = math.Max(worst, math.Abs(absorbed))

		it.Divergence[i] = div
		it.Timestep[i] = dt
		it.Imbalance[i] = absorbed
		it.Change[i] = next[i] - t[i]
	}

	copy(s.damping, damping)
	copy(s.lastDelta, lastDelta)
	s.col = s.col.WithTemperature(next)
	it.Temperatures = append([]float64(nil), next...)
	it.MaxChange = floats.Norm(it.Change, math.Inf(1))
	it.RelativeImbalance = worst / s.fluxScale

	s.result.Iterations = index
	s.result.Temperatures = it.Temperatures
	s.result.History = append(s.result.History, append([]float64(nil), next...))
	s.result.MaxChange = append(s.result.MaxChange, it.MaxChange)
	s.result.Imbalance = append(s.result.Imbalance, it.RelativeImbalance)
	s.result.Flux = field
	s.result.DeltaTau = field.DeltaTau

	switch {
	case it.MaxChange < s.opts.ConvergenceThreshold && it.RelativeImbalance < s.opts.FluxTolerance:
		s.result.Status = StatusConverged
		s.result.Converged = true
	case index >= s.opts.MaxIterations:
		s.result.Status = StatusExhausted
	}

	s.opts.Log.WithFields(logrus.Fields{
		"iteration": index,
		"max_dT":    it.MaxChange,
		"imbalance": it.RelativeImbalance,
		"toa_flux":  it.OutgoingFlux(),
	}).Debug("equilibrium step")

	for _, m := range s.metrics {
		m.Observe(it)
	}
	for _, obs := range s.observers {
		obs.OnIteration(it)
	}

	return it, nil
}

// stabilize returns the damped step for a raw change delta, capped at
// limit, together with the layer's new damping multiplier. The multiplier
// halves when delta reverses the sign of the previous raw change and grows
// back toward one while the sign holds. It never drops below minDamping.
func stabilize(delta, previous, damping, limit float64) (float64, float64) {
	switch {
	case delta*previous < 0:
		damping = math.Max(damping*0.5, minDamping)
	case delta*previous > 0:
		damping = math.Min(damping*dampingGrowth, 1)
	}
	step := delta * damping
	return math.Max(-limit, math.Min(limit, step)), damping
}

func validateOptions(opts Options) error {
	if opts.MaxIterations < 1 {
		return fmt.Errorf("%w: max iterations must be positive, got %d", ErrInvalidOptions, opts.MaxIterations)
	}
	if !(opts.ConvergenceThreshold > 0) {
		return fmt.Errorf("%w: convergence threshold must be positive, got %g", ErrInvalidOptions, opts.ConvergenceThreshold)
	}
	if !(opts.FluxTolerance > 0) {
		return fmt.Errorf("%w: flux tolerance must be positive, got %g", ErrInvalidOptions, opts.FluxTolerance)
	}
	if !(opts.MaxStepFraction > 0) || opts.MaxStepFraction > 1 {
		return fmt.Errorf("%w: max step fraction must be in (0, 1], got %g", ErrInvalidOptions, opts.MaxStepFraction)
	}
	if opts.MinTemperature < 0 {
		return fmt.Errorf("%w: min temperature must be non-negative, got %g", ErrInvalidOptions, opts.MinTemperature)
	}
	if !(opts.Gas.MeanMolecularMass > 0) || opts.Gas.DegreesOfFreedom < 0 {
		return fmt.Errorf("%w: gas %+v", ErrInvalidOptions, opts.Gas)
	}
	return nil
}

func lastOrZero(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	return v[len(v)-1]
}
