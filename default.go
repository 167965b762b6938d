package logq

import (
	"context"
	"sync"
)

var (
	defaultMu     sync.Mutex
	defaultLogger *Logger
)

// Default returns the process-wide Logger, creating one with default
// options (LevelDebug threshold, no sinks, no store) on first use.
//
// Programs that want sinks should build a Logger with New and install it
// with SetDefault before anything logs.
func Default() *Logger {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultLogger == nil {
		defaultLogger = New()
	}
	return defaultLogger
}

// SetDefault installs l as the process-wide Logger and returns the previous
// one (nil if none was created). The previous Logger is not shut down.
func SetDefault(l *Logger) *Logger {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	prev := defaultLogger
	defaultLogger = l
	return prev
}

// ShutdownDefault shuts down the process-wide Logger, if one exists, and
// clears it so a later Default call starts a fresh one.
func ShutdownDefault(ctx context.Context) error {
	defaultMu.Lock()
	l := defaultLogger
	defaultLogger = nil
	defaultMu.Unlock()

	if l == nil {
		return nil
	}
	return l.Shutdown(ctx)
}

// Errorf logs at LevelError through the default Logger.
func Errorf(format string, args ...any) {
	Default().printf(1, LevelError, nil, format, args...)
}

// Warningf logs at LevelWarning through the default Logger.
func Warningf(format string, args ...any) {
	Default().printf(1, LevelWarning, nil, format, args...)
}

// Logf logs at LevelLog through the default Logger.
func Logf(format string, args ...any) {
	Default().printf(1, LevelLog, nil, format, args...)
}

// Debugf logs at LevelDebug through the default Logger.
func Debugf(format string, args ...any) {
	Default().printf(1, LevelDebug, nil, format, args...)
}
