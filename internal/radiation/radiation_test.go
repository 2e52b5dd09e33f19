package radiation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/integrate"

	"github.com/san-kum/radtrans/internal/physconst"
)

func TestCorrection_LowAlbedoIsExactlyOne(t *testing.T) {
	for _, omega0 := range []float64{0, 0.05, 0.1} {
		for g0 := -1.0; g0 <= 1.0; g0 += 0.25 {
			assert.Equal(t, 1.0, Correction(omega0, g0), "omega0=%g g0=%g", omega0, g0)
		}
	}
}

func TestCorrection_Polynomial(t *testing.T) {
	omega0, g0 := 0.5, 0.3
	want := 1.225 - 0.1582*g0 - 0.1777*omega0 - 0.07465*g0*g0 + 0.2351*omega0*g0 - 0.05582*omega0*omega0
	assert.InDelta(t, want, Correction(omega0, g0), 1e-15)
	assert.NotEqual(t, 1.0, Correction(0.1000001, 0))
}

func TestValidateScattering(t *testing.T) {
	tests := []struct {
		name          string
		omega0, g0    float64
		expectedError bool
	}{
		{"absorbing", 0, 0, false},
		{"scattering", 0.6, 0.4, false},
		{"negative albedo", -0.1, 0, true},
		{"conservative", 1, 0, true},
		{"asymmetry too large", 0.2, 1.5, true},
		{"NaN", math.NaN(), 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateScattering(tt.omega0, tt.g0)
			if tt.expectedError {
				assert.ErrorIs(t, err, ErrScatteringDomain)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPlanck_DegenerateInputs(t *testing.T) {
	cases := []struct{ temperature, wavenumber float64 }{
		{0, 1e6},
		{-10, 1e6},
		{300, 0},
		{300, -1e6},
		{0, 0},
		{1e-3, 1e7}, // exponent overflows
	}
	for _, c := range cases {
		b := Planck(c.temperature, c.wavenumber)
		assert.Equal(t, 0.0, b, "T=%g nu=%g", c.temperature, c.wavenumber)
		assert.False(t, math.IsNaN(b) || math.IsInf(b, 0))
	}
}

func TestPlanck_StefanBoltzmann(t *testing.T) {
	const temp = 1000.0
	n := 200001
	nu := make([]float64, n)
	b := make([]float64, n)
	for i := range nu {
		nu[i] = float64(i) * 100 // up to 2e7 m^-1, 0.05 micron
	}
	PlanckSpectrum(b, temp, nu)

	got := math.Pi * integrate.Trapezoidal(nu, b)
	want := physconst.StefanBoltzmann * math.Pow(temp, 4)
	assert.InEpsilon(t, want, got, 1e-4)
}

func TestPlanckSpectrum_Allocates(t *testing.T) {
	b := PlanckSpectrum(nil, 500, []float64{1e5, 2e5})
	require.Len(t, b, 2)
	assert.Equal(t, Planck(500, 2e5), b[1])
}

func TestDeltaTau(t *testing.T) {
	assert.InDelta(t, 1e4/10*0.01, DeltaTau(0.01, 2e4, 1e4, 10), 1e-12)
	assert.Zero(t, DeltaTau(0.01, 1e4, 1e4, 10))
}

func TestFlux_TransparentLayerPassesThrough(t *testing.T) {
	c := NewCoefficients(0, 0, 0)
	b := Planck(300, 1e5)

	up, down := c.Flux(7.5, 3.25, b, b, 0)
	assert.InDelta(t, 7.5, up, 1e-12)
	assert.InDelta(t, 3.25, down, 1e-12)
	assert.Equal(t, 1.0, c.Transmission)
}

func TestFlux_TransparentLayerAddsEmissionContrast(t *testing.T) {
	c := NewCoefficients(0, 0, 0)
	b1, b2 := Planck(400, 1e5), Planck(300, 1e5)

	up, down := c.Flux(1, 2, b1, b2, 0)
	assert.InDelta(t, 1+math.Pi*(b2-b1), up, 1e-9*b1)
	assert.InDelta(t, 2+math.Pi*(b1-b2), down, 1e-9*b1)
}

func TestFlux_ThickLimitApproachesBlackbody(t *testing.T) {
	const nu = 2e5
	b := Planck(800, nu)
	target := math.Pi * b

	prevUp, prevDown := math.Inf(1), math.Inf(1)
	for _, dtau := range []float64{1e-3, 1e-2, 0.1, 1, 10, 100} {
		c := NewCoefficients(0, 0, dtau)
		up, down := c.Flux(0, 4*target, b, b, dtau)

		errUp := math.Abs(up - target)
		errDown := math.Abs(down - target)
		assert.Less(t, errUp, prevUp, "dtau=%g", dtau)
		assert.Less(t, errDown, prevDown, "dtau=%g", dtau)
		prevUp, prevDown = errUp, errDown
	}
	assert.Less(t, prevUp, 1e-12*target)
	assert.Less(t, prevDown, 1e-12*target)
}

func TestFlux_ScatteringReflectsAndAbsorbs(t *testing.T) {
	c := NewCoefficients(0.5, 0, 1)
	up, down := c.Flux(1, 0, 0, 0, 1)

	assert.Greater(t, down, 0.0, "scattering layer should reflect part of the upward beam")
	assert.Greater(t, up, 0.0)
	assert.Less(t, up+down, 1.0)
}

func TestFlux_SingularChiPassesThrough(t *testing.T) {
	c := Coefficients{E: 1, Scattering: 1, Pi: math.Pi}
	up, down := c.Flux(2, 3, 10, 20, 1)
	assert.Equal(t, 2.0, up)
	assert.Equal(t, 3.0, down)
}

func TestPropagate_MatchesScalarKernel(t *testing.T) {
	l := Layer{
		Wavenumber: []float64{1e5, 2e5, 4e5},
		F1Up:       []float64{10, 20, 30},
		F2Down:     []float64{1, 2, 3},
		T1:         900,
		T2:         700,
		DeltaTau:   []float64{0, 0.5, 5},
		Omega0:     0.3,
		G0:         0.2,
	}
	up := make([]float64, 3)
	down := make([]float64, 3)
	Propagate(l, up, down)

	for j := range l.Wavenumber {
		c := NewCoefficients(l.Omega0, l.G0, l.DeltaTau[j])
		wantUp, wantDown := c.Flux(l.F1Up[j], l.F2Down[j], Planck(l.T1, l.Wavenumber[j]), Planck(l.T2, l.Wavenumber[j]), l.DeltaTau[j])
		assert.Equal(t, wantUp, up[j])
		assert.Equal(t, wantDown, down[j])
		assert.False(t, math.IsNaN(up[j]) || math.IsNaN(down[j]))
	}
}
