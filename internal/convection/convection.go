// Package convection implements the mixing-length convective flux between
// two adjacent layers and the hydrostatic helpers it is built from
// (Malik et al. 2017 Eqs. 18, 25 and the mixing-length closure).
//
// All quantities are SI. Layer 1 is the lower (higher pressure) layer.
package convection

import (
	"math"

	"github.com/san-kum/radtrans/internal/physconst"
)

// Gas describes the bulk composition used by the hydrostatic and
// convective relations.
type Gas struct {
	MeanMolecularMass float64 // kg
	DegreesOfFreedom  int
	MixingLengthAlpha float64 // mixing length in scale heights
}

// DefaultGas is an H2/He mixture with the default mixing-length ratio.
func DefaultGas() Gas {
	return Gas{
		MeanMolecularMass: physconst.MeanMolecularMass,
		DegreesOfFreedom:  physconst.DegreesOfFreedom,
		MixingLengthAlpha: physconst.MixingLengthAlpha,
	}
}

// SpecificHeat returns c_p = (2+n_dof)/(2 m) k_B [J kg^-1 K^-1].
func (gas Gas) SpecificHeat() float64 {
	return float64(2+gas.DegreesOfFreedom) / (2 * gas.MeanMolecularMass) * physconst.Boltzmann
}

// ScaleHeight returns k_B T/(m g).
func (gas Gas) ScaleHeight(t, g float64) float64 {
	return physconst.Boltzmann * t / (gas.MeanMolecularMass * g)
}

// HeightIncrement returns the thickness of the layer between p1 and p2,
// k_B T1/(m g) ln(p1/p2).
func (gas Gas) HeightIncrement(t1, p1, p2, g float64) float64 {
	return gas.ScaleHeight(t1, g) * math.Log(p1/p2)
}

// Density returns the mean density of the layer, (dp/g)/dz.
func (gas Gas) Density(p1, p2, t1, g float64) float64 {
	return (p1 - p2) / g / gas.HeightIncrement(t1, p1, p2, g)
}

// LapseRate returns the temperature decrease per unit height between the
// two layers.
func (gas Gas) LapseRate(t1, t2, p1, p2, g float64) float64 {
	return (t1 - t2) / gas.HeightIncrement(t1, p1, p2, g)
}

// AdiabaticLapseRate returns g/c_p.
func (gas Gas) AdiabaticLapseRate(g float64) float64 {
	return g / gas.SpecificHeat()
}

// DeltaGamma returns the superadiabatic excess of the lapse rate. It is
// positive when the pair is convectively unstable.
func (gas Gas) DeltaGamma(t1, t2, p1, p2, g float64) float64 {
	return gas.LapseRate(t1, t2, p1, p2, g) - gas.AdiabaticLapseRate(g)
}

// MixingLength returns alpha k_B T1/(m g).
func (gas Gas) MixingLength(t1, g float64) float64 {
	return gas.MixingLengthAlpha * gas.ScaleHeight(t1, g)
}

// Flux returns the upward convective energy flux [W m^-2] between a layer
// and the one above it:
//
//	rho c_p l^2 sqrt(g/T1) (Gamma - Gamma_ad)^1.5
//
// It is exactly zero when the lapse rate does not exceed the adiabatic one
// and for non-positive temperature or degenerate pressure ordering.
func (gas Gas) Flux(t1, t2, p1, p2, g float64) float64 {
	if !(t1 > 0) || !(p1 > p2) || !(p2 > 0) || !(g > 0) {
		return 0
	}
	dg := gas.DeltaGamma(t1, t2, p1, p2, g)
	if !(dg > 0) {
		return 0
	}
	l := gas.MixingLength(t1, g)
	return gas.Density(p1, p2, t1, g) * gas.SpecificHeat() * l * l *
		math.Sqrt(g/t1) * math.Pow(dg, 1.5)
}

// Profile returns the convective flux above every layer of a column. The
// top layer has no neighbour above and carries zero.
func (gas Gas) Profile(dst, pressure, temperature []float64, g float64) []float64 {
	n := len(pressure)
	if dst == nil {
		dst = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		if i == n-1 {
			dst[i] = 0
			continue
		}
		dst[i] = gas.Flux(temperature[i], temperature[i+1], pressure[i], pressure[i+1], g)
	}
	return dst
}
