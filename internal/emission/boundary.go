package emission

import (
	"fmt"
	"math"

	"github.com/san-kum/radtrans/internal/atmos"
	"github.com/san-kum/radtrans/internal/radiation"
)

// Boundary holds the conditions applied at the edges of the column.
type Boundary struct {
	// TOA is the downward spectral flux entering the top layer.
	TOA []float64
	// Surface is the upward spectral flux entering the bottom layer. Nil
	// means no flux from below.
	Surface []float64
	// Gravity is the surface gravity [m s^-2].
	Gravity float64
}

// Validate checks the boundary against a grid of nWavelengths points.
func (b Boundary) Validate(nWavelengths int) error {
	if len(b.TOA) != nWavelengths {
		return &atmos.ValidationError{Field: "toa", Index: -1, Wrapped: fmt.Errorf("%w: %d values for %d wavelengths",
			atmos.ErrShapeMismatch, len(b.TOA), nWavelengths)}
	}
	if b.Surface != nil && len(b.Surface) != nWavelengths {
		return &atmos.ValidationError{Field: "surface", Index: -1, Wrapped: fmt.Errorf("%w: %d values for %d wavelengths",
			atmos.ErrShapeMismatch, len(b.Surface), nWavelengths)}
	}
	if !(b.Gravity > 0) || math.IsInf(b.Gravity, 0) {
		return &atmos.ValidationError{Field: "gravity", Index: -1, Wrapped: atmos.ErrInvalidGravity}
	}
	return nil
}

// BlackbodyFlux returns the spectral flux pi B(T) of a blackbody at every
// wavenumber, scaled by dilution. A star of radius R at distance a gives
// dilution (R/a)^2; an internal heat source uses 1.
func BlackbodyFlux(temperature, dilution float64, wavenumbers []float64) []float64 {
	f := radiation.PlanckSpectrum(nil, temperature, wavenumbers)
	for j := range f {
		f[j] *= math.Pi * dilution
	}
	return f
}
