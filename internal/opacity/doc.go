// Package opacity provides the opacity collaborator consumed by the emission
// driver: a Source answers kappa [m^2 kg^-1] for a layer, a wavelength index
// and the layer's current temperature.
//
// Table interpolates a precomputed (layer, wavelength, grid temperature)
// cube linearly over the temperature axis, holding the end values outside
// the grid. Gray and PowerLaw are analytic sources used by presets and
// tests.
package opacity
