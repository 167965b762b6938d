package sinks

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestConsole_Plain(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, false)

	if !c.Write(warnLine) || !c.Write(dumpLine) {
		t.Fatal("Write() = false")
	}

	want := warnLine + "\n" + dumpLine + "\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

func TestConsole_ColourKeepsText(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, true)

	for _, line := range []string{warnLine, errorLine, dumpLine, "not a rendered line"} {
		if !c.Write(line) {
			t.Fatalf("Write(%q) = false", line)
		}
	}

	out := buf.String()
	for _, want := range []string{"connection dropped", "disk full", "0x0000: 0102", "not a rendered line"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if !strings.Contains(out, "\n0x0000: 0102                                     '..'\n") {
		t.Errorf("hex dump continuation was altered:\n%q", out)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

func TestConsole_WriteError(t *testing.T) {
	c := NewConsole(failingWriter{}, false)
	if c.Write(warnLine) {
		t.Error("Write() = true on a failing writer")
	}
}
