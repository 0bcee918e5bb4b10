package envfile

import "errors"

var (
	// ErrCircularReference is returned when variable interpolation encounters
	// a reference cycle, including a variable referencing itself.
	ErrCircularReference = errors.New("circular variable reference")

	// ErrExpansionDepthExceeded is returned when variable interpolation
	// nests deeper than the configured limit.
	ErrExpansionDepthExceeded = errors.New("variable expansion depth exceeded")
)
