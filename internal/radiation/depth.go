package radiation

// DeltaTau returns the optical depth contributed by a layer bounded by
// pressures p1 > p2 with opacity kappa [m^2 kg^-1] under gravity g
// (Malik et al. 2017 Eq. 19). The result is non-negative only if p1 > p2;
// that ordering is the caller's responsibility.
func DeltaTau(kappa, p1, p2, g float64) float64 {
	return (p1 - p2) / g * kappa
}
