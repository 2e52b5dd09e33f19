package equilibrium

import (
	"math"

	"github.com/san-kum/radtrans/internal/convection"
	"github.com/san-kum/radtrans/internal/physconst"
)

// DivergenceNetFlux returns the energy deposited per unit height in a
// layer [W m^-3]: the net radiative flux entering from below minus the net
// radiative flux leaving above, plus the convective flux arriving from the
// pair below minus the convective flux carried to the layer above. A
// positive value heats the layer.
func DivergenceNetFlux(netBelow, netAbove, convBelow, convAbove, dz float64) float64 {
	if !(dz > 0) {
		return 0
	}
	return ((netBelow - netAbove) + (convBelow - convAbove)) / dz
}

// StabilityPrefactor returns f = 1e5 / |dF|^0.9 with dF = div*dz expressed
// in erg cm^-2 s^-1 (Malik et al. 2017 Eq. 28). A zero flux imbalance
// gives f = 1.
func StabilityPrefactor(div, dz float64) float64 {
	dF := math.Abs(div * dz * physconst.FluxToCGS)
	if dF == 0 || math.IsNaN(dF) {
		return 1
	}
	return 1e5 / math.Pow(dF, 0.9)
}

// Timestep returns the pseudo-timestep of a layer [s]: the radiative
// timescale c_p p/(sigma g T^3), or the convective timescale
// sqrt(T/(g dGamma)) if that is shorter and the pair is superadiabatic,
// scaled by StabilityPrefactor (Malik et al. 2017 Eqs. 27-28).
func Timestep(gas convection.Gas, t1, t2, p1, p2, g, div float64) float64 {
	if !(t1 > 0) {
		return 0
	}
	dz := gas.HeightIncrement(t1, p1, p2, g)
	f := StabilityPrefactor(div, dz)

	dt := gas.SpecificHeat() * p1 / (physconst.StefanBoltzmann * g * t1 * t1 * t1)
	if dg := gas.DeltaGamma(t1, t2, p1, p2, g); dg > 0 {
		dt = math.Min(dt, math.Sqrt(t1/(g*dg)))
	}
	return f * dt
}

// TemperatureChange returns div*dt/(rho c_p) for the layer between p1 and
// p2 (Malik et al. 2017 Eq. 24).
func TemperatureChange(gas convection.Gas, div, p1, p2, t1, g, dt float64) float64 {
	rho := gas.Density(p1, p2, t1, g)
	if !(rho > 0) || math.IsInf(rho, 0) {
		return 0
	}
	return div * dt / (rho * gas.SpecificHeat())
}
