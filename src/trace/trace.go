/*
 * TeenyJVM - A minimal Java bytecode interpreter
 * Adapted from Jacobin VM conventions (jacobin/trace, jacobin/log).
 */

// Package trace is a small leveled logger written to stderr. It exists
// so the CLI and interpreter can narrate what they're doing at the
// same granularity Jacobin does -- one line per class loaded, one per
// invokestatic call, one per fatal error -- without pulling a logging framework into a program
// this size (Jacobin itself gets this far on fmt.Fprintln too, so
// there's no library to adopt here).
package trace

import (
	"fmt"
	"os"
)

// Level constants, lowest to highest verbosity. Level controls which
// calls below actually write a line; it defaults to WARNING.
const (
	SEVERE = iota
	WARNING
	INFO
	FINE
	FINEST
)

// Level is the current trace threshold. A call writes only if its own
// level is <= Level.
var Level = WARNING

func write(level int, prefix, msg string) {
	if level <= Level {
		fmt.Fprintln(os.Stderr, prefix+msg)
	}
}

// Trace logs an informational line (INFO level).
func Trace(msg string) { write(INFO, "[trace] ", msg) }

// Error logs a fatal condition. Error lines are always shown
// regardless of Level, matching Jacobin's SEVERE handling.
func Error(msg string) { fmt.Fprintln(os.Stderr, "[error] "+msg) }
