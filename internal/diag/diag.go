// Package diag provides cctr's process-level diagnostics: plain,
// unstructured lines written to stderr with fmt.Fprintf, left silent by
// default and enabled by -v/--trace, matching the teacher's own diagnostic
// style (log.Printf calls scattered through internal/linter and
// internal/lspserver) rather than a structured logging framework.
package diag

import (
	"fmt"
	"io"
	"os"
)

// Logger writes leveled diagnostic lines to an underlying writer, gated by
// a verbosity threshold set at construction.
type Logger struct {
	w         io.Writer
	verbosity int
}

// New builds a logger writing to w at the given verbosity. verbosity 0
// suppresses Info and Debug, 1 enables Info, 2+ enables Debug. Warn is
// always printed.
func New(w io.Writer, verbosity int) *Logger {
	return &Logger{w: w, verbosity: verbosity}
}

// Default returns a logger writing to stderr at the given verbosity, for use
// by cmd/cctr's entrypoint.
func Default(verbosity int) *Logger {
	return New(os.Stderr, verbosity)
}

// Warn prints msg unconditionally, followed by any key/value pairs in args.
func (l *Logger) Warn(msg string, args ...any) {
	l.printf("warn", msg, args)
}

// Info prints msg when verbosity is at least 1.
func (l *Logger) Info(msg string, args ...any) {
	if l.verbosity < 1 {
		return
	}
	l.printf("info", msg, args)
}

// Debug prints msg when verbosity is at least 2.
func (l *Logger) Debug(msg string, args ...any) {
	if l.verbosity < 2 {
		return
	}
	l.printf("debug", msg, args)
}

func (l *Logger) printf(level, msg string, args []any) {
	fmt.Fprintf(l.w, "cctr: %s: %s%s\n", level, msg, formatArgs(args))
}

// formatArgs renders a flat key/value arg list as " key=value key=value",
// dropping a trailing unpaired key rather than erroring.
func formatArgs(args []any) string {
	if len(args) == 0 {
		return ""
	}
	var out string
	for i := 0; i+1 < len(args); i += 2 {
		out += fmt.Sprintf(" %v=%v", args[i], args[i+1])
	}
	return out
}
