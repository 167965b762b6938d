package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/nerrad567/logq/internal/infrastructure/config"
)

// Rotation for logging.output set to a file path. The process's own
// diagnostics are low volume.
const (
	fileMaxSizeMB  = 10
	fileMaxBackups = 3
	fileMaxAgeDays = 28
)

// Logger carries logq's own diagnostics: sink failures, settings reloads,
// API requests and broker events. It is separate from the lines logq
// delivers and never feeds back into them.
//
// Logger satisfies logq.Diagnostics. It is safe for concurrent use.
type Logger struct {
	*slog.Logger

	// closer is set on the root logger when output is a file.
	closer io.Closer
}

// New builds a Logger from the logging config section.
//
// logging.output is "stdout", "stderr" (the default), "discard", or a
// file path, which is rotated by size. Call Close when done with a file
// logger.
func New(cfg config.LoggingConfig, version string) *Logger {
	output, closer := openOutput(cfg.Output)
	l := NewWithWriter(cfg, version, output)
	l.closer = closer
	return l
}

func openOutput(name string) (io.Writer, io.Closer) {
	switch strings.ToLower(name) {
	case "", "stderr":
		return os.Stderr, nil
	case "stdout":
		return os.Stdout, nil
	case "discard":
		return io.Discard, nil
	}
	f := &lumberjack.Logger{
		Filename:   name,
		MaxSize:    fileMaxSizeMB,
		MaxBackups: fileMaxBackups,
		MaxAge:     fileMaxAgeDays,
	}
	return f, f
}

// NewWithWriter is New writing to output; cfg.Output is ignored.
func NewWithWriter(cfg config.LoggingConfig, version string, output io.Writer) *Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var h slog.Handler = slog.NewTextHandler(output, opts)
	if strings.EqualFold(cfg.Format, "json") {
		h = slog.NewJSONHandler(output, opts)
	}

	return &Logger{
		Logger: slog.New(h).With("service", "logq", "version", version),
	}
}

// parseLevel maps debug, info, warn or warning, and error to slog levels.
// Anything else is info.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// With returns a child logger carrying args on every record, e.g.
// logger.With("component", "api").
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// Close releases a file output. It is a no-op for other outputs and for
// loggers returned by With.
func (l *Logger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

// Default is the logger used before the config is loaded: text on stderr
// at info level.
func Default() *Logger {
	return NewWithWriter(config.LoggingConfig{Level: "info", Format: "text"}, "dev", os.Stderr)
}
