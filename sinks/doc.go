// Package sinks provides logq.Sink implementations.
//
// Every sink receives fully rendered lines from the dispatch worker, one at
// a time, and reports whether the write succeeded. Sinks that hold
// resources implement io.Closer and are closed by Logger.Shutdown.
//
// Available sinks:
//   - Console: terminal output with per-level colours (lipgloss)
//   - File: append-only file with size based rotation (lumberjack)
//   - SQLite: archive table in the logq database
//   - MQTT: one publish per line on logq/log/<level>/<module>
//   - Influx: one log_messages point per line
//
// Sinks that route by level or module recover those fields with
// logq.ParseLine; lines that do not parse are still delivered.
package sinks
