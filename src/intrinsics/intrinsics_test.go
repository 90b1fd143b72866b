/*
 * TeenyJVM - A minimal Java bytecode interpreter
 */

package intrinsics

import (
	"bytes"
	"errors"
	"testing"

	"teenyjvm/errs"
)

func TestCallWritesDecimalWithNewline(t *testing.T) {
	var buf bytes.Buffer
	r := NewRegistry(&buf)

	if err := r.Call("java/io/PrintStream", "println", "(I)V", []int32{42}); err != nil {
		t.Fatalf("Call returned error: %v", err)
	}
	if err := r.Flush(); err != nil {
		t.Fatalf("Flush returned error: %v", err)
	}
	if buf.String() != "42\n" {
		t.Errorf("Call output = %q, want %q", buf.String(), "42\n")
	}
}

func TestCallNegativeValue(t *testing.T) {
	var buf bytes.Buffer
	r := NewRegistry(&buf)

	_ = r.Call("java/io/PrintStream", "println", "(I)V", []int32{-7})
	_ = r.Flush()
	if buf.String() != "-7\n" {
		t.Errorf("Call output = %q, want %q", buf.String(), "-7\n")
	}
}

func TestCallUnregisteredDescriptorIsMethodNotFound(t *testing.T) {
	r := NewRegistry(&bytes.Buffer{})
	err := r.Call("java/io/PrintStream", "println", "(Ljava/lang/String;)V", []int32{0})
	if !errors.Is(err, errs.ErrMethodNotFound) {
		t.Errorf("Call on an unregistered descriptor = %v, want errs.ErrMethodNotFound", err)
	}
}

func TestCallUnregisteredClassIsMethodNotFound(t *testing.T) {
	r := NewRegistry(&bytes.Buffer{})
	err := r.Call("java/lang/Object", "toString", "()Ljava/lang/String;", nil)
	if !errors.Is(err, errs.ErrMethodNotFound) {
		t.Errorf("Call on an unregistered class = %v, want errs.ErrMethodNotFound", err)
	}
}

func TestCallWrongArgCount(t *testing.T) {
	var buf bytes.Buffer
	r := NewRegistry(&buf)
	if err := r.Call("java/io/PrintStream", "println", "(I)V", nil); err == nil {
		t.Error("Call with no arguments should return an error")
	}
}
