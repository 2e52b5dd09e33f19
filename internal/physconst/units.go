package physconst

import (
	"fmt"
	"math"

	"github.com/ctessum/unit"
)

// Dimensions of the quantities that cross package boundaries.
var (
	Pressure        = unit.Pascal
	Temperature     = unit.Kelvin
	Length          = unit.Meter
	Acceleration    = unit.MeterPerSecond2
	Mass            = unit.Dimensions{unit.MassDim: 1}
	Time            = unit.Dimensions{unit.TimeDim: 1}
	Opacity         = unit.Dimensions{unit.LengthDim: 2, unit.MassDim: -1}
	Energy          = unit.Joule
	Flux            = unit.Dimensions{unit.MassDim: 1, unit.TimeDim: -3}
	SpecificHeatDim = unit.Dimensions{unit.LengthDim: 2, unit.TimeDim: -2, unit.TemperatureDim: -1}
	LapseRateDim    = unit.Dimensions{unit.TemperatureDim: 1, unit.LengthDim: -1}
	ColumnMassDim   = unit.Dimensions{unit.MassDim: 1, unit.LengthDim: -2}
)

func quantity(v float64, d unit.Dimensions) *unit.Unit { return unit.New(v, d) }

// SpecificHeat returns c_p = (2+nDOF)/(2 m) k_B with dimensions attached.
func SpecificHeat(meanMolecularMass float64, nDOF int) *unit.Unit {
	kB := quantity(Boltzmann, unit.Dimensions{unit.MassDim: 1, unit.LengthDim: 2, unit.TimeDim: -2, unit.TemperatureDim: -1})
	m := quantity(2*meanMolecularMass/float64(2+nDOF), Mass)
	return unit.Div(kB, m)
}

// RadiativeTimescale returns c_p p / (sigma g T^3) with dimensions attached.
func RadiativeTimescale(cp *unit.Unit, p, g, t float64) *unit.Unit {
	sigma := quantity(StefanBoltzmann, unit.Dimensions{unit.MassDim: 1, unit.TimeDim: -3, unit.TemperatureDim: -4})
	t3 := unit.Mul(quantity(t, Temperature), quantity(t, Temperature), quantity(t, Temperature))
	return unit.Div(unit.Mul(cp, quantity(p, Pressure)), sigma, quantity(g, Acceleration), t3)
}

// Verify recomputes the derived quantities used by the numeric fast path
// through the dimension-checked path and reports any dimensional or
// numerical disagreement. The reference atmosphere is arbitrary; only
// consistency matters.
func Verify() error {
	const (
		p = 1e5
		g = 10.0
		t = 1000.0
	)
	cp := SpecificHeat(MeanMolecularMass, DegreesOfFreedom)
	if err := cp.Check(SpecificHeatDim); err != nil {
		return fmt.Errorf("physconst: specific heat: %w", err)
	}
	fastCp := float64(2+DegreesOfFreedom) / (2 * MeanMolecularMass) * Boltzmann
	if !agree(cp.Value(), fastCp) {
		return fmt.Errorf("physconst: specific heat %g disagrees with %g", cp.Value(), fastCp)
	}

	gammaAd := unit.Div(quantity(g, Acceleration), cp)
	if err := gammaAd.Check(LapseRateDim); err != nil {
		return fmt.Errorf("physconst: adiabatic lapse rate: %w", err)
	}

	tau := RadiativeTimescale(cp, p, g, t)
	if err := tau.Check(Time); err != nil {
		return fmt.Errorf("physconst: radiative timescale: %w", err)
	}
	if fast := fastCp * p / (StefanBoltzmann * g * t * t * t); !agree(tau.Value(), fast) {
		return fmt.Errorf("physconst: radiative timescale %g disagrees with %g", tau.Value(), fast)
	}

	// h c nu / (k_B T) with nu in m^-1 must be dimensionless.
	h := quantity(Planck, unit.Dimensions{unit.MassDim: 1, unit.LengthDim: 2, unit.TimeDim: -1})
	c := quantity(SpeedOfLight, unit.Dimensions{unit.LengthDim: 1, unit.TimeDim: -1})
	kB := quantity(Boltzmann, unit.Dimensions{unit.MassDim: 1, unit.LengthDim: 2, unit.TimeDim: -2, unit.TemperatureDim: -1})
	nu := quantity(1e6, unit.Dimensions{unit.LengthDim: -1})
	x := unit.Div(unit.Mul(h, c, nu), kB, quantity(t, Temperature))
	if err := x.Check(unit.Dimless); err != nil {
		return fmt.Errorf("physconst: planck exponent: %w", err)
	}
	if !agree(x.Value(), SecondRadiation*1e6/t) {
		return fmt.Errorf("physconst: planck exponent %g disagrees with %g", x.Value(), SecondRadiation*1e6/t)
	}

	// dp/g*kappa must be dimensionless.
	dtau := unit.Div(unit.Mul(quantity(p, Pressure), quantity(1e-3, Opacity)), quantity(g, Acceleration))
	if err := dtau.Check(unit.Dimless); err != nil {
		return fmt.Errorf("physconst: optical depth: %w", err)
	}
	return nil
}

// CheckQuantity attaches d to v and returns an error naming the quantity if
// the value is not finite.
func CheckQuantity(name string, v float64, d unit.Dimensions) (*unit.Unit, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, fmt.Errorf("physconst: %s is not finite", name)
	}
	return quantity(v, d), nil
}

// ColumnMass returns the mass per unit area above pressure p, p/g, and
// checks that the operands carry the dimensions of a pressure and an
// acceleration.
func ColumnMass(p, g *unit.Unit) (*unit.Unit, error) {
	m := unit.Div(p, g)
	if err := m.Check(ColumnMassDim); err != nil {
		return nil, fmt.Errorf("physconst: column mass: %w", err)
	}
	if v := m.Value(); math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, fmt.Errorf("physconst: column mass %g is not finite", v)
	}
	return m, nil
}

// OpticalDepth returns kappa times a column mass and checks that the
// product is dimensionless and finite.
func OpticalDepth(kappa, columnMass *unit.Unit) (*unit.Unit, error) {
	tau := unit.Mul(kappa, columnMass)
	if err := tau.Check(unit.Dimless); err != nil {
		return nil, fmt.Errorf("physconst: optical depth: %w", err)
	}
	if v := tau.Value(); math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, fmt.Errorf("physconst: optical depth %g is not finite", v)
	}
	return tau, nil
}

func agree(a, b float64) bool {
	return math.Abs(a-b) <= 1e-12*math.Max(math.Abs(a), math.Abs(b))
}
