/*
 * TeenyJVM - A minimal Java bytecode interpreter
 */

// Package interpreter is the fetch-decode-execute loop: given a
// method, its locals, the owning class image, and a heap, it runs the
// method's bytecode to completion and yields an optional result.
// Mirrors the frame/thread split of thanhhungg97's runtime.Frame, but
// collapsed to what this core needs: one frame per active call, no
// frame stack object since Go's own call stack plays that role across
// recursive invokestatic calls.
package interpreter

import (
	"fmt"

	"teenyjvm/errs"
)

// frame is the per-call execution context: program counter, operand
// stack, and the locals it was handed at entry. No frame outlives its
// Execute call.
type frame struct {
	pc int

	stack    []int32
	top      int // stack[0:top] holds the live operand stack
	maxStack int

	locals []int32
	code   []byte
}

func newFrame(code []byte, maxStack int, locals []int32) *frame {
	return &frame{
		code:     code,
		stack:    make([]int32, maxStack),
		maxStack: maxStack,
		locals:   locals,
	}
}

func (f *frame) push(v int32) error {
	if f.top >= f.maxStack {
		return fmt.Errorf("%w: operand stack depth %d exceeds max_stack %d", errs.ErrStackOverflow, f.top+1, f.maxStack)
	}
	f.stack[f.top] = v
	f.top++
	return nil
}

func (f *frame) pop() (int32, error) {
	if f.top <= 0 {
		return 0, fmt.Errorf("%w: pop on empty operand stack", errs.ErrStackUnderflow)
	}
	f.top--
	return f.stack[f.top], nil
}

func (f *frame) peek() (int32, error) {
	if f.top <= 0 {
		return 0, fmt.Errorf("%w: peek on empty operand stack", errs.ErrStackUnderflow)
	}
	return f.stack[f.top-1], nil
}

func (f *frame) localAt(index int) (int32, error) {
	if index < 0 || index >= len(f.locals) {
		return 0, fmt.Errorf("%w: local variable index %d out of range [0, %d)", errs.ErrMalformedClass, index, len(f.locals))
	}
	return f.locals[index], nil
}

func (f *frame) setLocal(index int, v int32) error {
	if index < 0 || index >= len(f.locals) {
		return fmt.Errorf("%w: local variable index %d out of range [0, %d)", errs.ErrMalformedClass, index, len(f.locals))
	}
	f.locals[index] = v
	return nil
}

// u1 reads the unsigned byte offset bytes after the opcode at pc.
func (f *frame) u1(offset int) (byte, error) {
	idx := f.pc + offset
	if idx < 0 || idx >= len(f.code) {
		return 0, fmt.Errorf("%w: bytecode operand at offset %d past end of code (length %d)", errs.ErrMalformedClass, idx, len(f.code))
	}
	return f.code[idx], nil
}

// u2 reads a big-endian unsigned 16-bit operand starting at offset
// bytes after the opcode.
func (f *frame) u2(offset int) (uint16, error) {
	hi, err := f.u1(offset)
	if err != nil {
		return 0, err
	}
	lo, err := f.u1(offset + 1)
	if err != nil {
		return 0, err
	}
	return uint16(hi)<<8 | uint16(lo), nil
}
