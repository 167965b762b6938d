package sinks

import (
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/nerrad567/logq"
)

// levelColours maps each level to an ANSI 256 colour.
var levelColours = map[logq.Level]lipgloss.Color{
	logq.LevelError:       lipgloss.Color("196"),
	logq.LevelWarning:     lipgloss.Color("214"),
	logq.LevelWarningFine: lipgloss.Color("221"),
	logq.LevelLog:         lipgloss.Color("252"),
	logq.LevelLogFine:     lipgloss.Color("245"),
	logq.LevelDebug:       lipgloss.Color("86"),
	logq.LevelDebugFine:   lipgloss.Color("240"),
}

// Console writes lines to a terminal or any other io.Writer.
//
// With colour enabled the first line of each message is styled by level;
// hex dump continuation lines are written as is. Whether escape codes are
// actually emitted depends on what lipgloss detects for the writer.
type Console struct {
	mu     sync.Mutex
	w      io.Writer
	styles map[logq.Level]lipgloss.Style
}

// NewConsole creates a console sink writing to w.
func NewConsole(w io.Writer, colour bool) *Console {
	c := &Console{w: w}
	if colour {
		r := lipgloss.NewRenderer(w)
		c.styles = make(map[logq.Level]lipgloss.Style, len(levelColours))
		for level, fg := range levelColours {
			style := r.NewStyle().Foreground(fg)
			if level == logq.LevelError {
				style = style.Bold(true)
			}
			c.styles[level] = style
		}
	}
	return c
}

// Write implements logq.Sink.
func (c *Console) Write(message string) bool {
	out := message
	if c.styles != nil {
		out = c.colourise(message)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := io.WriteString(c.w, out+"\n")
	return err == nil
}

func (c *Console) colourise(message string) string {
	line, ok := logq.ParseLine(message)
	if !ok {
		return message
	}
	style, ok := c.styles[line.Level]
	if !ok {
		return message
	}

	head, rest, multi := strings.Cut(message, "\n")
	head = style.Render(head)
	if multi {
		return head + "\n" + rest
	}
	return head
}
