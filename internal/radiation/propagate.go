package radiation

import "math"

// Coefficients are the two-stream coefficients of one layer at one
// wavelength. They depend only on (omega0, g0, deltaTau).
type Coefficients struct {
	E            float64 // scattering correction term
	ZetaPlus     float64
	ZetaMinus    float64
	Chi          float64
	Xi           float64
	Psi          float64
	Pi           float64
	Transmission float64
	Scattering   float64 // 1 - omega0*g0
}

// NewCoefficients computes the transmission (Deitrick et al. 2020 Eq. B2)
// and the coupling coefficients (Malik et al. 2017 Eqs. 12-13).
func NewCoefficients(omega0, g0, deltaTau float64) Coefficients {
	e := Correction(omega0, g0)
	scattering := 1 - omega0*g0

	trans := math.Exp(-2 * math.Sqrt(e*(e-omega0)*scattering) * deltaTau)

	root := math.Sqrt((e - omega0) / e / scattering)
	zp := 0.5 * (1 + root)
	zm := 0.5 * (1 - root)
	t2 := trans * trans

	return Coefficients{
		E:            e,
		ZetaPlus:     zp,
		ZetaMinus:    zm,
		Chi:          zm*zm*t2 - zp*zp,
		Xi:           zp * zm * (1 - t2),
		Psi:          (zm*zm - zp*zp) * trans,
		Pi:           math.Pi * (1 - omega0) / (e - omega0),
		Transmission: trans,
		Scattering:   scattering,
	}
}

// Flux propagates one wavelength through one layer pair.
//
// f1Up is the flux entering the pair from below and f2Down the flux
// entering from above; b1 and b2 are the Planck intensities of the lower and
// upper layer. It returns the flux leaving through the top, f2Up, and the
// flux leaving through the bottom, f1Down (Deitrick et al. 2022 Eq. B4).
//
// A degenerate layer with chi == 0 passes both streams through unchanged.
func (c Coefficients) Flux(f1Up, f2Down, b1, b2, deltaTau float64) (f2Up, f1Down float64) {
	thin := deltaTau == 0
	x := where(thin, 1, deltaTau)
	bPrime := where(thin, 0, (b1-b2)/x)
	gradient := bPrime / (2 * c.E * c.Scattering)

	singular := c.Chi == 0
	chi := where(singular, 1, c.Chi)

	up := (c.Psi*f1Up - c.Xi*f2Down +
		c.Pi*(b2*(c.Chi+c.Xi)-c.Psi*b1+gradient*(c.Chi-c.Psi-c.Xi))) / chi
	down := (c.Psi*f2Down - c.Xi*f1Up +
		c.Pi*(b1*(c.Chi+c.Xi)-c.Psi*b2+gradient*(c.Xi+c.Psi-c.Chi))) / chi

	return where(singular, f1Up, up), where(singular, f2Down, down)
}

// Layer describes one layer pair for Propagate. All slices are indexed by
// wavelength and must have equal length.
type Layer struct {
	Wavenumber []float64
	F1Up       []float64 // flux into the pair from below
	F2Down     []float64 // flux into the pair from above
	T1, T2     float64   // lower and upper layer temperature
	DeltaTau   []float64
	Omega0, G0 float64
}

// Propagate computes the outgoing fluxes of a layer pair for every
// wavelength, writing the flux leaving through the top into f2Up and the
// flux leaving through the bottom into f1Down.
func Propagate(l Layer, f2Up, f1Down []float64) {
	for j, nu := range l.Wavenumber {
		c := NewCoefficients(l.Omega0, l.G0, l.DeltaTau[j])
		f2Up[j], f1Down[j] = c.Flux(l.F1Up[j], l.F2Down[j], Planck(l.T1, nu), Planck(l.T2, nu), l.DeltaTau[j])
	}
}
