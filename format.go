package logq

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimeLayout is the timestamp layout at the start of every rendered line.
const TimeLayout = "15:04:05.000"

// UnknownModule is used when a message is logged without a module name.
const UnknownModule = "unknown"

// noOrigin is rendered when the call site is not known.
const noOrigin = "-"

// Line is the structured form of a rendered message, recovered by ParseLine.
type Line struct {
	Time   string `json:"time"`
	Level  Level  `json:"level"`
	Origin string `json:"origin"`
	PID    int    `json:"pid"`
	Module string `json:"module"`
	Text   string `json:"text"`
}

// render builds the queued form of a message:
//
//	15:04:05.000 DEBUG  main.go:42 [4242] foonm-Foo: text
func render(t time.Time, level Level, origin string, pid int, module, text string) string {
	if origin == "" {
		origin = noOrigin
	}
	return fmt.Sprintf("%s %s %s [%d] %s: %s",
		t.Format(TimeLayout),
		level.paddedTag(),
		strings.ReplaceAll(origin, " ", "_"),
		pid,
		moduleColumn(module),
		text,
	)
}

// moduleColumn makes module safe to render as a single field.
func moduleColumn(module string) string {
	module = strings.TrimSpace(module)
	if module == "" {
		return UnknownModule
	}
	return strings.Join(strings.Fields(module), "_")
}

// ParseLine splits a rendered message back into its fields. Sinks that
// store or route messages by level or module use it.
func ParseLine(s string) (Line, bool) {
	var line Line

	ts, rest, ok := strings.Cut(s, " ")
	if !ok || len(ts) != len(TimeLayout) {
		return line, false
	}
	line.Time = ts

	tag, rest, ok := strings.Cut(strings.TrimLeft(rest, " "), " ")
	if !ok {
		return line, false
	}
	level, err := ParseLevel(tag)
	if err != nil {
		return line, false
	}
	line.Level = level

	line.Origin, rest, ok = strings.Cut(strings.TrimLeft(rest, " "), " ")
	if !ok {
		return line, false
	}

	pid, rest, ok := strings.Cut(rest, " ")
	if !ok || len(pid) < 3 || pid[0] != '[' || pid[len(pid)-1] != ']' {
		return line, false
	}
	if line.PID, err = strconv.Atoi(pid[1 : len(pid)-1]); err != nil {
		return line, false
	}

	line.Module, line.Text, ok = strings.Cut(rest, ": ")
	if !ok {
		return line, false
	}
	return line, true
}
