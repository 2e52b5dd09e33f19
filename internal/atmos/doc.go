// Package atmos provides the data model shared by the radiative transfer
// packages.
//
// The package defines the inputs and outputs of a plane-parallel,
// two-stream calculation:
//
//   - [Column]: layer pressures and temperatures, ordered bottom to top
//   - [WavelengthGrid]: strictly increasing, strictly positive wavelengths
//   - [FluxField]: upward and downward spectral fluxes per layer, plus the
//     optical depth increment of each layer pair
//
// All quantities are SI; see package physconst.
//
// # Example
//
//	col := atmos.Column{Pressure: p, Temperature: t}
//	if err := col.Validate(); err != nil {
//	    return err
//	}
//	grid, _ := atmos.LogGrid(0.3e-6, 30e-6, 200)
//	field := atmos.NewFluxField(col.Len(), grid.Len())
//
// # Thread Safety
//
// Column and WavelengthGrid are read-only once a run starts. A FluxField is
// owned by the single pass that fills it. [ParallelFor] may be used to split
// work along the wavelength axis only.
package atmos
