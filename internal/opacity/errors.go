package opacity

import "errors"

var (
	ErrEmptyGrid         = errors.New("opacity: temperature grid is empty")
	ErrUnsortedGrid      = errors.New("opacity: temperature grid is not strictly increasing")
	ErrShapeMismatch     = errors.New("opacity: table shape does not match")
	ErrNegativeOpacity   = errors.New("opacity: negative or non-finite opacity")
	ErrInvalidParameters = errors.New("opacity: invalid model parameters")
)
