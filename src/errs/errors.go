/*
 * TeenyJVM - A minimal Java bytecode interpreter
 * Adapted from Jacobin VM conventions.
 */

// Package errs defines the error taxonomy shared by the decoder and
// the interpreter. Every fallible operation in those two packages
// returns one of these sentinels wrapped with fmt.Errorf("%w: ...")
// so that callers can classify a failure with errors.Is while still
// getting a useful message on stderr.
package errs

import "errors"

var (
	// ErrMalformedClass covers every way the decoder can fail to make
	// sense of a class file: truncated streams, bad magic number, an
	// out-of-range constant pool index, an unrecognized constant pool tag, etc.
	ErrMalformedClass = errors.New("malformed class")

	// ErrMethodNotFound is returned by FindMethod/FindMethodFromIndex
	// when no method in the class matches the requested (name, descriptor).
	ErrMethodNotFound = errors.New("method not found")

	// ErrDivideByZero is returned by idiv/irem when the divisor is 0.
	ErrDivideByZero = errors.New("divide by zero")

	// ErrBadRef is returned when a heap reference is out of range.
	ErrBadRef = errors.New("bad heap reference")

	// ErrBadIndex is returned when an array index is out of range.
	ErrBadIndex = errors.New("bad array index")

	// ErrStackOverflow is returned when an opcode would push past max_stack.
	ErrStackOverflow = errors.New("operand stack overflow")

	// ErrStackUnderflow is returned when an opcode pops an empty operand stack.
	ErrStackUnderflow = errors.New("operand stack underflow")

	// ErrUnsupportedArrayType is returned by newarray for any atype other
	// than T_INT (10); this core has no representation for other element types.
	ErrUnsupportedArrayType = errors.New("unsupported array element type")
)
