package settings

import "errors"

// Domain errors for settings stores.
var (
	// ErrUnknownFormat is returned when a file extension has no codec.
	ErrUnknownFormat = errors.New("unknown settings file format")

	// ErrDecode is returned when a settings file cannot be parsed.
	ErrDecode = errors.New("decoding settings file")

	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("settings store closed")
)
