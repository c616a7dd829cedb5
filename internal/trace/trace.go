// Package trace provides the verbose logger used by the compiler and the
// matcher to report analysis decisions and execution steps.
package trace

import (
	"fmt"
	"io"
)

// Logger writes prefixed lines to an io.Writer when enabled.
// A nil *Logger and a Logger with a nil writer are both disabled.
type Logger struct {
	out    io.Writer
	prefix string
}

// NewLogger returns a logger writing to out. A nil out disables it.
func NewLogger(out io.Writer) *Logger {
	return &Logger{out: out, prefix: "[patc] "}
}

// Enabled reports whether log output is produced.
func (l *Logger) Enabled() bool {
	return l != nil && l.out != nil
}

// Log prints a formatted message if the logger is enabled.
func (l *Logger) Log(format string, args ...any) {
	if l.Enabled() {
		fmt.Fprintf(l.out, l.prefix+format+"\n", args...)
	}
}

// Section prints a section header if the logger is enabled.
func (l *Logger) Section(name string) {
	if l.Enabled() {
		fmt.Fprintf(l.out, "\n%s=== %s ===\n", l.prefix, name)
	}
}
