// Package physconst holds the physical constants used by the radiative
// transfer and convection code.
//
// Every value is in SI units. Wavelengths are metres, wavenumbers are
// inverse metres, pressures are pascals and fluxes are W m^-2 (spectral
// fluxes are per unit wavenumber, W m^-2 (m^-1)^-1). Nothing in this module
// works in CGS or microns; values read from the outside world are converted
// at the boundary.
package physconst

const (
	// Planck is Planck's constant [J s].
	Planck = 6.62607015e-34
	// SpeedOfLight is the speed of light in vacuum [m s^-1].
	SpeedOfLight = 299792458.0
	// Boltzmann is Boltzmann's constant [J K^-1].
	Boltzmann = 1.380649e-23
	// StefanBoltzmann is the Stefan-Boltzmann constant [W m^-2 K^-4].
	StefanBoltzmann = 5.670374419e-8
	// ProtonMass is the proton mass [kg].
	ProtonMass = 1.67262192369e-27

	// MeanMolecularMass is the default mean molecular mass of an H2/He
	// atmosphere, 2.4 proton masses [kg].
	MeanMolecularMass = 2.4 * ProtonMass
	// DegreesOfFreedom is the default number of degrees of freedom of a
	// diatomic gas.
	DegreesOfFreedom = 5
	// MixingLengthAlpha is the default ratio of mixing length to scale height.
	MixingLengthAlpha = 1.0

	// SecondRadiation is h*c/k_B [m K], the exponent scale of Planck's law.
	SecondRadiation = Planck * SpeedOfLight / Boltzmann

	// FluxToCGS converts a flux in W m^-2 to erg s^-1 cm^-2.
	FluxToCGS = 1e3
)
