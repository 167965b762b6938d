package sinks

import "errors"

// Domain errors for sinks.
var (
	// ErrClosed is returned by operations on a closed sink.
	ErrClosed = errors.New("sink closed")

	// ErrNoPath is returned when a file sink is created without a path.
	ErrNoPath = errors.New("file sink: path is required")
)
