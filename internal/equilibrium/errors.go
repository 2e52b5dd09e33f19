package equilibrium

import (
	"errors"
	"fmt"
)

var (
	ErrNonFinite       = errors.New("equilibrium: temperature is not finite")
	ErrInvalidOptions  = errors.New("equilibrium: invalid options")
	ErrAlreadyFinished = errors.New("equilibrium: run already finished")
)

// StepError reports a failure in one iteration.
type StepError struct {
	Iteration int
	Layer     int
	Wrapped   error
}

func (e *StepError) Error() string {
	if e.Layer < 0 {
		return fmt.Sprintf("iteration %d: %v", e.Iteration, e.Wrapped)
	}
	return fmt.Sprintf("iteration %d, layer %d: %v", e.Iteration, e.Layer, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
