package logq

import (
	"fmt"
	"strconv"
	"strings"
)

// Level is a message severity. Lower values are more severe: LevelError
// passes every threshold, LevelDebugFine only the most verbose one.
type Level int

// Severity levels, most severe first.
const (
	LevelError Level = iota
	LevelWarning
	LevelWarningFine
	LevelLog
	LevelLogFine
	LevelDebug
	LevelDebugFine

	// LevelStub marks "no level". It is never used for filtering and is
	// returned by SetLevel when nothing could be stored.
	LevelStub
)

// tagWidth is the rendered width of the level column.
const tagWidth = 6

// levelInfo describes one row of the level table.
type levelInfo struct {
	name        string
	tag         string
	description string
}

var levelTable = [...]levelInfo{
	LevelError:       {"ERROR", "ERROR", "errors only"},
	LevelWarning:     {"WARNING", "WARN", "warnings and errors"},
	LevelWarningFine: {"WARNING_FINE", "WARNF", "detailed warnings"},
	LevelLog:         {"LOG", "LOG", "regular operational messages"},
	LevelLogFine:     {"LOG_FINE", "LOGF", "detailed operational messages"},
	LevelDebug:       {"DEBUG", "DEBUG", "debugging output"},
	LevelDebugFine:   {"DEBUG_FINE", "DEBUGF", "very verbose debugging output"},
	LevelStub:        {"STUB", "-", "no level"},
}

// aliases maps additional spellings accepted by ParseLevel.
var aliases = map[string]Level{
	"WARN":   LevelWarning,
	"INFO":   LevelLog,
	"NOTICE": LevelLogFine,
	"TRACE":  LevelDebugFine,
}

// Valid reports whether l is a real filtering level (0 <= l < LevelStub).
func (l Level) Valid() bool {
	return l >= LevelError && l < LevelStub
}

// String returns the level name, e.g. "WARNING_FINE".
func (l Level) String() string {
	if l < LevelError || l > LevelStub {
		return fmt.Sprintf("LEVEL(%d)", int(l))
	}
	return levelTable[l].name
}

// Tag returns the short column tag used in rendered lines, e.g. "WARNF".
func (l Level) Tag() string {
	if l < LevelError || l > LevelStub {
		return levelTable[LevelStub].tag
	}
	return levelTable[l].tag
}

// Description returns a human readable explanation of the level.
func (l Level) Description() string {
	if l < LevelError || l > LevelStub {
		return levelTable[LevelStub].description
	}
	return levelTable[l].description
}

// Passes reports whether a message at level l is delivered under threshold.
func (l Level) Passes(threshold Level) bool {
	return l.Valid() && threshold.Valid() && l <= threshold
}

// MarshalText implements encoding.TextMarshaler.
func (l Level) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLevel, int(l))
	}
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Level) UnmarshalText(text []byte) error {
	parsed, err := ParseLevel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// Levels returns every valid level, most severe first.
func Levels() []Level {
	out := make([]Level, 0, int(LevelStub))
	for l := LevelError; l < LevelStub; l++ {
		out = append(out, l)
	}
	return out
}

// ParseLevel converts a name, tag, alias or decimal value into a Level.
//
// Matching is case-insensitive; "-" and " " are accepted in place of "_".
// Anything that does not name a valid level yields LevelStub and
// ErrInvalidLevel.
func ParseLevel(s string) (Level, error) {
	key := strings.ToUpper(strings.TrimSpace(s))
	key = strings.NewReplacer("-", "_", " ", "_").Replace(key)
	if key == "" {
		return LevelStub, fmt.Errorf("%w: empty", ErrInvalidLevel)
	}

	if n, err := strconv.Atoi(key); err == nil {
		if l := Level(n); l.Valid() {
			return l, nil
		}
		return LevelStub, fmt.Errorf("%w: %d out of range", ErrInvalidLevel, n)
	}

	for l := LevelError; l < LevelStub; l++ {
		if key == levelTable[l].name || key == levelTable[l].tag {
			return l, nil
		}
	}
	if l, ok := aliases[key]; ok {
		return l, nil
	}
	return LevelStub, fmt.Errorf("%w: %q", ErrInvalidLevel, s)
}

// paddedTag returns the tag left-aligned in the level column.
func (l Level) paddedTag() string {
	return fmt.Sprintf("%-*s", tagWidth, l.Tag())
}
