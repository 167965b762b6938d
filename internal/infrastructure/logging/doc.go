// Package logging provides structured diagnostic logging for logq itself.
//
// logq's product is the level-filtered message stream; this package is the
// separate channel the service uses to report on its own health (a sink
// that keeps failing, a settings file that no longer parses, a rejected
// API token). It wraps log/slog.
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "text"     # json, text
//	  output: "stderr"   # stdout, stderr, discard, or a file path
//
// A file path is rotated at 10 MB with three backups kept for 28 days.
//
// # Usage
//
//	diag := logging.New(cfg.Logging, version)
//	defer diag.Close()
//	logger := logq.New(logq.WithDiagnostics(diag))
//
// Never log secrets, tokens or passwords.
package logging
