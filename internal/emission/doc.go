// Package emission runs one two-stream pass over a whole atmosphere.
//
// A pass precomputes the optical depth increment and the Planck intensity
// of every layer, then exchanges fluxes between adjacent layers with the
// propagator of package radiation. The upward sweep walks the layer pairs
// bottom to top and the downward sweep walks them top to bottom. Without
// scattering one upward and one downward sweep are exact; with scattering
// the pair of sweeps is repeated until the flux field stops changing.
//
// # Example
//
//	d, err := emission.New(grid, opacity.Gray{Value: 1e-3}, emission.DefaultOptions())
//	if err != nil {
//	    return err
//	}
//	field, err := d.Emit(col, emission.Boundary{TOA: toa, Gravity: 10})
//
// # Thread Safety
//
// A Driver holds no per-pass state and may be shared. Within a pass the
// wavelength axis is split across goroutines with atmos.ParallelFor; the
// layer axis is strictly sequential.
package emission
