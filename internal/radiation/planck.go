package radiation

import (
	"math"

	"github.com/san-kum/radtrans/internal/physconst"
)

const planckPrefactor = 2 * physconst.Planck * physconst.SpeedOfLight * physconst.SpeedOfLight

// Planck returns the blackbody intensity per unit wavenumber,
// 2 h c^2 nu^3 / (exp(h c nu / k_B T) - 1), in W m^-2 sr^-1 (m^-1)^-1.
//
// Zero or negative temperature or wavenumber yields 0, as does an exponent
// large enough to overflow.
func Planck(temperature, wavenumber float64) float64 {
	x := physconst.SecondRadiation * wavenumber * safeReciprocal(temperature)
	oneOverDenom := safeReciprocal(math.Expm1(x))
	return planckPrefactor * wavenumber * wavenumber * wavenumber * oneOverDenom
}

// PlanckSpectrum evaluates Planck at one temperature over all wavenumbers.
// If dst is nil a new slice is allocated.
func PlanckSpectrum(dst []float64, temperature float64, wavenumbers []float64) []float64 {
	if dst == nil {
		dst = make([]float64, len(wavenumbers))
	}
	for i, nu := range wavenumbers {
		dst[i] = Planck(temperature, nu)
	}
	return dst
}
