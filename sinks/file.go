package sinks

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// dirPermissions is the mode of directories created for log files.
const dirPermissions = 0750

// FileConfig configures a File sink. Zero rotation values use the
// lumberjack defaults (100 MB, keep everything).
type FileConfig struct {
	// Path is the log file. Its directory is created if missing.
	Path string

	// MaxSizeMB rotates the file once it grows past this size.
	MaxSizeMB int

	// MaxBackups is the number of rotated files to keep.
	MaxBackups int

	// MaxAgeDays removes rotated files older than this.
	MaxAgeDays int

	// Compress gzips rotated files.
	Compress bool
}

// File appends every line to a file, rotating it by size.
//
// The file is opened in append mode when the sink is created. Each message
// is followed by a newline and handed to the file immediately. Close
// writes one extra newline so consecutive runs are separated by a blank
// line.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type File struct {
	mu     sync.Mutex
	out    *lumberjack.Logger
	closed bool
}

// NewFile opens the log file described by cfg.
//
// Returns:
//   - *File: Ready sink
//   - error: ErrNoPath, or if the directory or file cannot be created
func NewFile(cfg FileConfig) (*File, error) {
	if cfg.Path == "" {
		return nil, ErrNoPath
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), dirPermissions); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}

	out := &lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}

	// A zero-length write opens (or creates) the file so a bad path is
	// reported here rather than on the first message.
	if _, err := out.Write(nil); err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	return &File{out: out}, nil
}

// Write implements logq.Sink. It returns false once the sink is closed or
// when the write fails.
func (f *File) Write(message string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return false
	}
	_, err := f.out.Write([]byte(message + "\n"))
	return err == nil
}

// Rotate closes the current file, renames it with a timestamp and starts a
// new one.
func (f *File) Rotate() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	if err := f.out.Rotate(); err != nil {
		return fmt.Errorf("rotating log file: %w", err)
	}
	return nil
}

// Close writes the trailing newline and closes the file. Later calls are
// no-ops.
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.closed = true

	_, werr := f.out.Write([]byte("\n"))
	if err := f.out.Close(); err != nil {
		return fmt.Errorf("closing log file: %w", err)
	}
	if werr != nil {
		return fmt.Errorf("writing log file trailer: %w", werr)
	}
	return nil
}
