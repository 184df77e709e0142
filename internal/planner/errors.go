package planner

import "errors"

// Sentinel errors returned by the domain services. Callers distinguish
// them with errors.Is.
var (
	// ErrUnauthenticated is returned when an operation is attempted
	// without an owner identity. Checked before any SQL executes.
	ErrUnauthenticated = errors.New("unauthenticated: owner identity required")

	// ErrNotFound is returned when a row does not exist for the given
	// owner. Cross-owner lookups report not-found rather than leaking
	// another owner's row.
	ErrNotFound = errors.New("not found")

	// ErrValidation is returned when a payload fails validation.
	ErrValidation = errors.New("invalid payload")

	// ErrInvalidRange is returned when a time block's start is not
	// strictly before its end.
	ErrInvalidRange = errors.New("time block start must be before end")
)
