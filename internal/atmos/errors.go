package atmos

import (
	"errors"
	"fmt"
)

// Domain errors for invalid atmosphere inputs.
var (
	// ErrTooFewLayers indicates a column with fewer than two layers.
	ErrTooFewLayers = errors.New("atmos: column needs at least two layers")

	// ErrShapeMismatch indicates arrays whose lengths disagree.
	ErrShapeMismatch = errors.New("atmos: array shape mismatch")

	// ErrNonMonotonicPressure indicates pressures that do not strictly
	// decrease from the bottom layer to the top layer.
	ErrNonMonotonicPressure = errors.New("atmos: pressure must strictly decrease with altitude")

	// ErrInvalidPressure indicates a non-positive or non-finite pressure.
	ErrInvalidPressure = errors.New("atmos: pressure must be positive and finite")

	// ErrInvalidTemperature indicates a negative or non-finite temperature.
	ErrInvalidTemperature = errors.New("atmos: temperature must be non-negative and finite")

	// ErrInvalidWavelength indicates a non-positive, non-finite or
	// non-increasing wavelength.
	ErrInvalidWavelength = errors.New("atmos: wavelengths must be positive and strictly increasing")

	// ErrInvalidGravity indicates a non-positive gravity.
	ErrInvalidGravity = errors.New("atmos: gravity must be positive")
)

// ValidationError wraps an error with the offending field and index.
type ValidationError struct {
	Field   string
	Index   int
	Wrapped error
}

func (e *ValidationError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%s: %v", e.Field, e.Wrapped)
	}
	return fmt.Sprintf("%s[%d]: %v", e.Field, e.Index, e.Wrapped)
}

func (e *ValidationError) Unwrap() error {
	return e.Wrapped
}

func invalid(field string, index int, err error) error {
	return &ValidationError{Field: field, Index: index, Wrapped: err}
}
