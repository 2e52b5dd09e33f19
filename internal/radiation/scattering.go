package radiation

import (
	"fmt"
	"math"
)

// Correction returns the improved two-stream correction term E(omega0, g0)
// of Deitrick et al. (2020) Eq. 19. Below an albedo of 0.1 the term is
// exactly 1.
func Correction(omega0, g0 float64) float64 {
	poly := 1.225 - 0.1582*g0 - 0.1777*omega0 - 0.07465*g0*g0 +
		0.2351*omega0*g0 - 0.05582*omega0*omega0
	return where(omega0 > 0.1, poly, 1)
}

// ValidateScattering rejects (omega0, g0) for which the transmission or the
// coupling coefficients are undefined: the albedo must lie in [0, 1), the
// asymmetry factor in [-1, 1], and E must exceed omega0.
func ValidateScattering(omega0, g0 float64) error {
	if math.IsNaN(omega0) || omega0 < 0 || omega0 >= 1 {
		return fmt.Errorf("%w: single-scattering albedo %g not in [0, 1)", ErrScatteringDomain, omega0)
	}
	if math.IsNaN(g0) || g0 < -1 || g0 > 1 {
		return fmt.Errorf("%w: asymmetry factor %g not in [-1, 1]", ErrScatteringDomain, g0)
	}
	if e := Correction(omega0, g0); e <= omega0 {
		return fmt.Errorf("%w: E(%g, %g) = %g does not exceed the albedo", ErrScatteringDomain, omega0, g0, e)
	}
	return nil
}
