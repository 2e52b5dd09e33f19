// Package viz renders a radiative-equilibrium run live in the terminal.
//
// [Model] is a Bubble Tea program that steps an equilibrium solver once per
// tick. The left panel draws the temperature-pressure profile on a braille
// [Canvas] with log pressure decreasing upward; the right panel shows the
// convergence history, the outgoing flux and the run metrics.
//
// # Key Bindings
//
//	Space - Pause/Resume iteration
//	N     - Single step while paused
//	R     - Restart from the initial profile
//	[ ]   - Replay the profile history
//	T     - Cycle color themes
//	?     - Show help overlay
package viz
