package event

import "errors"

// Domain errors for the event package.
var (
	// ErrNotFound is returned when no bucket matches the requested key.
	ErrNotFound = errors.New("event: not found")

	// ErrInvalidType is returned when an event type is not recognised.
	ErrInvalidType = errors.New("event: invalid type")

	// ErrInvalidDay is returned when a day key is not a calendar date.
	ErrInvalidDay = errors.New("event: invalid day")
)
