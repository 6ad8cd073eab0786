package workflow

import "errors"

var (
	// ErrInvalidTransition is returned when an action is not permitted from a status
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrInvalidStatus is returned when a status is not valid
	ErrInvalidStatus = errors.New("invalid status")

	// ErrUnexpectedTarget is returned when an action lands in a status the table does not list
	ErrUnexpectedTarget = errors.New("unexpected target status")
)
