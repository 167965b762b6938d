package control

import "errors"

// Domain-specific errors for level control.
var (
	// ErrEmptyModule is returned when a change names no module.
	ErrEmptyModule = errors.New("control: module cannot be empty")

	// ErrInvalidPayload is returned for control messages that cannot be decoded.
	ErrInvalidPayload = errors.New("control: invalid payload")

	// ErrRejected is returned when a final entry kept its level.
	ErrRejected = errors.New("control: change rejected by final entry")
)
