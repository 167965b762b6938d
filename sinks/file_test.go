package sinks

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFile_WriteAndClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "logq.log")

	f, err := NewFile(FileConfig{Path: path})
	if err != nil {
		t.Fatalf("NewFile() error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("file not created on open: %v", err)
	}

	if !f.Write(warnLine) || !f.Write(errorLine) {
		t.Fatal("Write() = false")
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := f.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if f.Write(warnLine) {
		t.Error("Write() after Close = true")
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	want := warnLine + "\n" + errorLine + "\n\n"
	if string(got) != want {
		t.Errorf("file = %q, want %q", got, want)
	}
}

func TestFile_AppendsAcrossRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logq.log")

	for _, line := range []string{warnLine, errorLine} {
		f, err := NewFile(FileConfig{Path: path})
		if err != nil {
			t.Fatalf("NewFile() error = %v", err)
		}
		f.Write(line)
		if err := f.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	want := warnLine + "\n\n" + errorLine + "\n\n"
	if string(got) != want {
		t.Errorf("file = %q, want %q", got, want)
	}
}

func TestFile_Rotate(t *testing.T) {
	dir := t.TempDir()
	f, err := NewFile(FileConfig{Path: filepath.Join(dir, "logq.log"), MaxBackups: 3})
	if err != nil {
		t.Fatalf("NewFile() error = %v", err)
	}
	defer f.Close() //nolint:errcheck // Test cleanup

	f.Write(warnLine)
	if err := f.Rotate(); err != nil {
		t.Fatalf("Rotate() error = %v", err)
	}
	f.Write(errorLine)

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("directory holds %d files after Rotate, want 2", len(entries))
	}
}

func TestFile_Errors(t *testing.T) {
	if _, err := NewFile(FileConfig{}); !errors.Is(err, ErrNoPath) {
		t.Errorf("NewFile() error = %v, want ErrNoPath", err)
	}

	f, err := NewFile(FileConfig{Path: filepath.Join(t.TempDir(), "logq.log")})
	if err != nil {
		t.Fatalf("NewFile() error = %v", err)
	}
	f.Close() //nolint:errcheck // Test setup
	if err := f.Rotate(); !errors.Is(err, ErrClosed) {
		t.Errorf("Rotate() after Close error = %v, want ErrClosed", err)
	}
}
