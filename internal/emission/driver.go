package emission

import (
	"math"

	"github.com/san-kum/radtrans/internal/atmos"
	"github.com/san-kum/radtrans/internal/opacity"
	"github.com/san-kum/radtrans/internal/radiation"
)

const (
	DefaultSweepTolerance = 1e-10
	DefaultMaxSweeps      = 64
	DefaultMinChunk       = 64
)

// Options control a pass.
type Options struct {
	Omega0 float64 // single-scattering albedo
	G0     float64 // scattering asymmetry factor

	// SweepTolerance is the relative change of the flux field below which
	// repeated sweeps stop. Only used when Omega0 > 0.
	SweepTolerance float64
	// MaxSweeps bounds the number of upward/downward sweep pairs.
	MaxSweeps int
	// MinChunk is the smallest wavelength range handed to one goroutine.
	MinChunk int
}

func DefaultOptions() Options {
	return Options{
		SweepTolerance: DefaultSweepTolerance,
		MaxSweeps:      DefaultMaxSweeps,
		MinChunk:       DefaultMinChunk,
	}
}

// Driver computes emission passes on a fixed wavelength grid.
type Driver struct {
	grid        atmos.WavelengthGrid
	wavenumbers []float64
	opacity     opacity.Source
	opts        Options
}

// New validates the grid and the scattering parameters and returns a
// driver bound to them.
func New(grid atmos.WavelengthGrid, src opacity.Source, opts Options) (*Driver, error) {
	if err := grid.Validate(); err != nil {
		return nil, err
	}
	if err := radiation.ValidateScattering(opts.Omega0, opts.G0); err != nil {
		return nil, err
	}
	if opts.MaxSweeps < 1 {
		opts.MaxSweeps = DefaultMaxSweeps
	}
	if !(opts.SweepTolerance > 0) {
		opts.SweepTolerance = DefaultSweepTolerance
	}
	if opts.MinChunk < 1 {
		opts.MinChunk = DefaultMinChunk
	}
	return &Driver{
		grid:        grid,
		wavenumbers: grid.Wavenumbers(),
		opacity:     src,
		opts:        opts,
	}, nil
}

// Grid returns the wavelength grid of the driver.
func (d *Driver) Grid() atmos.WavelengthGrid { return d.grid }

// Wavenumbers returns 1/wavelength in grid order.
func (d *Driver) Wavenumbers() []float64 { return d.wavenumbers }

// Options returns the options in effect after defaults were applied.
func (d *Driver) Options() Options { return d.opts }

// pass holds the per-layer quantities shared by every sweep.
type pass struct {
	field  *atmos.FluxField
	planck [][]float64
	coeffs [][]radiation.Coefficients
}

// Emit runs one pass over col and returns the flux field. Inputs are
// validated before any computation; the column and boundary are not
// modified. Repeated calls with the same inputs return identical fields.
func (d *Driver) Emit(col atmos.Column, b Boundary) (*atmos.FluxField, error) {
	if err := col.Validate(); err != nil {
		return nil, err
	}
	nl, nw := col.Len(), d.grid.Len()
	if err := b.Validate(nw); err != nil {
		return nil, err
	}
	if err := opacity.CheckShape(d.opacity, nl, nw); err != nil {
		return nil, err
	}

	p := d.prepare(col, b.Gravity)
	copy(p.field.Down[nl-1], b.TOA)
	if b.Surface != nil {
		copy(p.field.Up[0], b.Surface)
	}

	if d.opts.Omega0 == 0 {
		d.sweepUp(p)
		d.sweepDown(p)
		return p.field, nil
	}

	prevUp := make([][]float64, nl)
	prevDown := make([][]float64, nl)
	for i := range prevUp {
		prevUp[i] = make([]float64, nw)
		prevDown[i] = make([]float64, nw)
	}
	for s := 0; s < d.opts.MaxSweeps; s++ {
		for i := 0; i < nl; i++ {
			copy(prevUp[i], p.field.Up[i])
			copy(prevDown[i], p.field.Down[i])
		}
		d.sweepUp(p)
		d.sweepDown(p)
		if converged(p.field.Up, prevUp, d.opts.SweepTolerance) &&
			converged(p.field.Down, prevDown, d.opts.SweepTolerance) {
			break
		}
	}
	return p.field, nil
}

// prepare evaluates the opacity, optical depth increment, Planck intensity
// and two-stream coefficients of every layer. Opacity for the pair (i, i+1)
// is taken at layer i and its temperature.
func (d *Driver) prepare(col atmos.Column, g float64) *pass {
	nl, nw := col.Len(), d.grid.Len()
	p := &pass{
		field:  atmos.NewFluxField(nl, nw),
		planck: make([][]float64, nl),
		coeffs: make([][]radiation.Coefficients, nl-1),
	}
	for i := 0; i < nl; i++ {
		p.planck[i] = make([]float64, nw)
		if i < nl-1 {
			p.coeffs[i] = make([]radiation.Coefficients, nw)
		}
	}

	for i := 0; i < nl; i++ {
		t := col.Temperature[i]
		atmos.ParallelFor(nw, d.opts.MinChunk, func(start, end int) {
			radiation.PlanckSpectrum(p.planck[i][start:end], t, d.wavenumbers[start:end])
			if i == nl-1 {
				return
			}
			dtau := p.field.DeltaTau[i]
			for j := start; j < end; j++ {
				kappa := d.opacity.Kappa(i, j, t)
				dtau[j] = radiation.DeltaTau(kappa, col.Pressure[i], col.Pressure[i+1], g)
				p.coeffs[i][j] = radiation.NewCoefficients(d.opts.Omega0, d.opts.G0, dtau[j])
			}
		})
	}
	return p
}

// exchange applies the propagator to the pair (i, i+1), writing the flux
// leaving upward into Up[i+1] and downward into Down[i].
func (d *Driver) exchange(p *pass, i int) {
	f := p.field
	atmos.ParallelFor(d.grid.Len(), d.opts.MinChunk, func(start, end int) {
		for j := start; j < end; j++ {
			f.Up[i+1][j], f.Down[i][j] = p.coeffs[i][j].Flux(
				f.Up[i][j], f.Down[i+1][j], p.planck[i][j], p.planck[i+1][j], f.DeltaTau[i][j])
		}
	})
}

func (d *Driver) sweepUp(p *pass) {
	for i := 0; i < p.field.Layers()-1; i++ {
		d.exchange(p, i)
	}
}

func (d *Driver) sweepDown(p *pass) {
	for i := p.field.Layers() - 2; i >= 0; i-- {
		d.exchange(p, i)
	}
}

func converged(cur, prev [][]float64, tol float64) bool {
	var diff, scale float64
	for i := range cur {
		for j := range cur[i] {
			diff = math.Max(diff, math.Abs(cur[i][j]-prev[i][j]))
			scale = math.Max(scale, math.Abs(cur[i][j]))
		}
	}
	return diff <= tol*scale
}

// Emit is a convenience wrapper that builds a Driver and runs one pass.
func Emit(src opacity.Source, col atmos.Column, grid atmos.WavelengthGrid, b Boundary, opts Options) (*atmos.FluxField, error) {
	d, err := New(grid, src, opts)
	if err != nil {
		return nil, err
	}
	return d.Emit(col, b)
}
