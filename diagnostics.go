package logq

// Diagnostics receives the logger's own operational messages (worker start
// and stop, sink failures, persistence errors).
// Compatible with *slog.Logger and the infrastructure logging.Logger.
type Diagnostics interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopDiagnostics discards all diagnostics; used when none is configured.
type noopDiagnostics struct{}

func (noopDiagnostics) Debug(string, ...any) {}
func (noopDiagnostics) Info(string, ...any)  {}
func (noopDiagnostics) Warn(string, ...any)  {}
func (noopDiagnostics) Error(string, ...any) {}
