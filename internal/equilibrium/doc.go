// Package equilibrium iterates a temperature profile toward
// radiative-convective equilibrium.
//
// Each iteration runs one emission pass, forms the divergence of the net
// bolometric radiative flux plus the convective flux in every layer, takes
// an adaptive pseudo-timestep per layer (Malik et al. 2017 Eqs. 23-28) and
// updates the temperatures. The top layer is the upper boundary and is
// held fixed. A run ends when the largest temperature change falls below
// the convergence threshold or when the iteration budget is exhausted;
// exhaustion is reported in the Result, not as an error.
//
// # Example
//
//	s, err := equilibrium.New(driver, col, boundary, equilibrium.DefaultOptions())
//	if err != nil {
//	    return err
//	}
//	res, err := s.Run(ctx)
//	fmt.Println(res.Status, res.Iterations, res.Temperatures)
//
// # Thread Safety
//
// A Solver is not safe for concurrent use. Observers and metrics are
// called synchronously from Step.
package equilibrium
