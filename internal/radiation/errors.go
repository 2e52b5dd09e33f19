package radiation

import "errors"

// ErrScatteringDomain indicates scattering parameters for which the
// two-stream coefficients are undefined.
var ErrScatteringDomain = errors.New("radiation: scattering parameters out of domain")
