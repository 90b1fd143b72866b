/*
 * TeenyJVM - A minimal Java bytecode interpreter
 */

// Package intrinsics maps a resolved (class, name, descriptor) method
// key to a host Go function, the generalized form of a hardcoded
// native-method special case. Mirrors the shape of Jacobin's
// gfunction.MethodSignatures tables (e.g. javaLangString.go's
// map[string]GMeth), narrowed to the one entry this core populates.
package intrinsics

import (
	"bufio"
	"fmt"
	"io"

	"teenyjvm/errs"
)

// Func is a host implementation of an intrinsic method. args holds the
// popped operand-stack arguments in declaration order (leftmost
// parameter first). A Func returns only an error: nothing is pushed
// back onto the operand stack, so only void intrinsics (like this
// core's one println) can be expressed.
type Func func(w io.Writer, args []int32) error

// key identifies an intrinsic by its fully resolved method signature,
// the same triple a real VM would use to look up a native method table.
type key struct {
	class      string
	name       string
	descriptor string
}

// Registry looks up host functions by resolved method signature.
type Registry struct {
	funcs map[key]Func
	out   *bufio.Writer
}

// NewRegistry returns a registry with the standard intrinsics
// installed, writing println output to w.
func NewRegistry(w io.Writer) *Registry {
	r := &Registry{
		funcs: make(map[key]Func),
		out:   bufio.NewWriter(w),
	}
	r.register("java/io/PrintStream", "println", "(I)V", printlnInt)
	return r
}

func (r *Registry) register(class, name, descriptor string, fn Func) {
	r.funcs[key{class, name, descriptor}] = fn
}

// Call resolves (class, name, descriptor) to its registered intrinsic
// and invokes it with args, writing any output to the registry's
// buffered writer. An unresolved triple is errs.ErrMethodNotFound,
// the same taxonomy entry classloader.FindMethod uses for a missing
// invokestatic target.
func (r *Registry) Call(class, name, descriptor string, args []int32) error {
	fn, ok := r.funcs[key{class, name, descriptor}]
	if !ok {
		return fmt.Errorf("%w: intrinsic %s.%s%s", errs.ErrMethodNotFound, class, name, descriptor)
	}
	return fn(r.out, args)
}

// Flush flushes any buffered println output. Callers should flush once
// at the end of a run rather than after every call, since println is
// the hot path of several of the end-to-end scenarios.
func (r *Registry) Flush() error {
	return r.out.Flush()
}

func printlnInt(w io.Writer, args []int32) error {
	if len(args) != 1 {
		return fmt.Errorf("println(I)V expects 1 argument, got %d", len(args))
	}
	_, err := fmt.Fprintf(w, "%d\n", args[0])
	return err
}
