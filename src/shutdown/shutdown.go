/*
 * TeenyJVM - A minimal Java bytecode interpreter
 * Adapted from Jacobin VM conventions (jacobin/shutdown).
 */

// Package shutdown centralizes the process exit codes and the single
// call to os.Exit. Nothing below the cmd/teenyjvm boundary calls Exit
// directly -- the decoder and interpreter report failures as ordinary
// Go errors, and only the CLI layer classifies them and exits.
package shutdown

import "os"

// Exit codes returned to the OS. OK must be 0; the rest are small
// positive codes distinguishing the stage that failed, which is enough
// granularity for a CLI this small (no signal codes, no codes above 4).
const (
	OK                   = 0
	UsageException       = 1
	IOException          = 2
	ClassFormatException = 3
	RuntimeException     = 4
)

// Exit flushes nothing and terminates the process with the given code.
// The CLI flushes its buffered println output before it picks the code.
func Exit(code int) {
	os.Exit(code)
}
