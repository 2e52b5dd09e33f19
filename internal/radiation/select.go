package radiation

// where returns a if cond holds and b otherwise. Callers compute both
// operands before selecting.
func where(cond bool, a, b float64) float64 {
	if cond {
		return a
	}
	return b
}

// safeReciprocal returns 1/x for x > 0 and 0 otherwise. The divisor is
// replaced before dividing so the discarded branch never produces Inf.
func safeReciprocal(x float64) float64 {
	positive := x > 0
	trueOp := where(positive, x, 0.5)
	return where(positive, 1/trueOp, 0)
}
