// Package radiation implements the two-stream radiative transfer kernel:
// Planck emission, the scattering correction term E(omega0, g0), the layer
// optical depth and the closed-form flux propagator that exchanges upward
// and downward fluxes between two adjacent layers.
//
// Every function is pure. Guards against division by zero are written as
// elementwise selections (see where and safeReciprocal) so that both
// branches are always evaluated and no branch is taken on a per-element
// basis.
//
// The propagator follows Malik et al. (2017) Eqs. 12-15 with the
// corrections of Deitrick et al. (2020, 2022).
package radiation
