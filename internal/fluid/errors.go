package fluid

import "errors"

var (
	// ErrUnknownParameter is returned when a parameter name is not part of
	// the parameter surface.
	ErrUnknownParameter = errors.New("fluid: unknown parameter")
)
