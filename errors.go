package logq

import "errors"

// Sentinel errors returned by the logger core.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrNoStore is returned by Save and Load when no settings store is attached.
	ErrNoStore = errors.New("logq: no settings store configured")

	// ErrInvalidLevel is returned when a level is outside [LevelError, LevelStub).
	ErrInvalidLevel = errors.New("logq: invalid level")

	// ErrNilSink is returned when a nil sink is registered.
	ErrNilSink = errors.New("logq: sink cannot be nil")
)
