package opacity

import (
	"fmt"
	"math"
)

// Source yields the opacity of a layer at one wavelength of the grid,
// evaluated at the given temperature.
type Source interface {
	Kappa(layer, wavelength int, temperature float64) float64
}

// Shaper is implemented by sources bound to a fixed number of layers and
// wavelengths. Callers use it to reject mismatched inputs before a pass.
type Shaper interface {
	Shape() (layers, wavelengths int)
}

// CheckShape returns an error if src is a Shaper whose shape differs from
// the requested one. Sources without a shape always pass.
func CheckShape(src Source, layers, wavelengths int) error {
	s, ok := src.(Shaper)
	if !ok {
		return nil
	}
	l, w := s.Shape()
	if l != layers || w != wavelengths {
		return fmt.Errorf("%w: table is %dx%d, atmosphere is %dx%d",
			ErrShapeMismatch, l, w, layers, wavelengths)
	}
	return nil
}

// Gray is a wavelength- and temperature-independent opacity.
type Gray struct {
	Value float64
}

// NewGray returns a gray source with the given opacity.
func NewGray(kappa float64) (Gray, error) {
	if !(kappa >= 0) || math.IsInf(kappa, 0) {
		return Gray{}, fmt.Errorf("%w: %g", ErrNegativeOpacity, kappa)
	}
	return Gray{Value: kappa}, nil
}

func (g Gray) Kappa(int, int, float64) float64 { return g.Value }

// PowerLaw scales a reference opacity with wavelength and temperature:
//
//	kappa = Reference * (lambda/RefWavelength)^-WavelengthIndex * (T/RefTemperature)^TemperatureIndex
//
// A zero RefTemperature disables the temperature dependence.
type PowerLaw struct {
	Reference        float64
	RefWavelength    float64
	WavelengthIndex  float64
	RefTemperature   float64
	TemperatureIndex float64

	wavelengthFactor []float64
}

// NewPowerLaw binds p to a wavelength grid [m], precomputing the wavelength
// factor for every grid point.
func NewPowerLaw(p PowerLaw, wavelengths []float64) (*PowerLaw, error) {
	if !(p.Reference >= 0) || !(p.RefWavelength > 0) || p.RefTemperature < 0 {
		return nil, fmt.Errorf("%w: reference %g at %g m", ErrInvalidParameters, p.Reference, p.RefWavelength)
	}
	p.wavelengthFactor = make([]float64, len(wavelengths))
	for j, l := range wavelengths {
		p.wavelengthFactor[j] = math.Pow(l/p.RefWavelength, -p.WavelengthIndex)
	}
	return &p, nil
}

func (p *PowerLaw) Kappa(_, wavelength int, temperature float64) float64 {
	k := p.Reference * p.wavelengthFactor[wavelength]
	if p.RefTemperature > 0 && p.TemperatureIndex != 0 {
		k *= math.Pow(math.Max(temperature, 0)/p.RefTemperature, p.TemperatureIndex)
	}
	return k
}
