package logq

import (
	"errors"
	"fmt"
	"io"
	"sync"
)

// Sink receives fully rendered log lines.
//
// Write reports whether the line was accepted. A false result is counted
// and reported through diagnostics; the sink stays registered and the line
// is not retried. Sinks that also implement io.Closer are closed at
// shutdown in registration order.
type Sink interface {
	Write(message string) bool
}

// SinkFunc adapts a plain function to the Sink interface.
type SinkFunc func(message string) bool

// Write calls f(message).
func (f SinkFunc) Write(message string) bool {
	return f(message)
}

// SinkRegistry is the ordered set of sinks a Worker delivers to.
//
// Thread Safety:
//   - Add, Deliver and Close are safe for concurrent use.
//   - Deliver holds the registry lock for the whole fan-out, so every sink
//     write is serialised and a slow sink delays the others.
type SinkRegistry struct {
	mu     sync.Mutex
	sinks  []Sink
	closed bool
}

// NewSinkRegistry creates an empty registry.
func NewSinkRegistry() *SinkRegistry {
	return &SinkRegistry{}
}

// Add appends s to the registry. Sinks cannot be removed.
//
// Returns:
//   - error: ErrNilSink for a nil sink
func (r *SinkRegistry) Add(s Sink) error {
	if s == nil {
		return ErrNilSink
	}
	r.mu.Lock()
	r.sinks = append(r.sinks, s)
	r.mu.Unlock()
	return nil
}

// Len returns the number of registered sinks.
func (r *SinkRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sinks)
}

// Deliver writes message to every sink in registration order and returns
// the number of sinks that reported failure.
func (r *SinkRegistry) Deliver(message string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	failed := 0
	for _, s := range r.sinks {
		if !s.Write(message) {
			failed++
		}
	}
	return failed
}

// Close releases every sink in registration order and empties the registry.
// Later calls are no-ops.
//
// Returns:
//   - error: Joined errors from sinks implementing io.Closer
func (r *SinkRegistry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	var errs []error
	for i, s := range r.sinks {
		c, ok := s.(io.Closer)
		if !ok {
			continue
		}
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing sink %d (%T): %w", i, s, err))
		}
	}
	r.sinks = nil
	return errors.Join(errs...)
}
