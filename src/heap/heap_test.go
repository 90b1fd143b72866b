/*
 * TeenyJVM - A minimal Java bytecode interpreter
 */

package heap

import (
	"errors"
	"testing"

	"teenyjvm/errs"
)

func TestArrayLengthMatchesAllocation(t *testing.T) {
	h := New()
	ref := h.NewArray(3)

	n, err := h.Length(ref)
	if err != nil {
		t.Fatalf("Length returned error: %v", err)
	}
	if n != 3 {
		t.Errorf("Length = %d, want 3", n)
	}
}

func TestIastoreIaloadRoundTrip(t *testing.T) {
	h := New()
	ref := h.NewArray(3)

	values := []int32{10, 20, 30}
	for i, v := range values {
		if err := h.Store(ref, int32(i), v); err != nil {
			t.Fatalf("Store(%d) returned error: %v", i, err)
		}
	}
	for i, want := range values {
		got, err := h.Load(ref, int32(i))
		if err != nil {
			t.Fatalf("Load(%d) returned error: %v", i, err)
		}
		if got != want {
			t.Errorf("Load(%d) = %d, want %d", i, got, want)
		}
	}
}

func TestNewArrayIsZeroFilled(t *testing.T) {
	h := New()
	ref := h.NewArray(4)
	for i := int32(0); i < 4; i++ {
		v, err := h.Load(ref, i)
		if err != nil {
			t.Fatalf("Load(%d) returned error: %v", i, err)
		}
		if v != 0 {
			t.Errorf("Load(%d) = %d, want 0", i, v)
		}
	}
}

func TestBadRefIsReported(t *testing.T) {
	h := New()
	h.NewArray(1)

	if _, err := h.Length(Ref(5)); !errors.Is(err, errs.ErrBadRef) {
		t.Errorf("Length(5) error = %v, want ErrBadRef", err)
	}
	if _, err := h.Length(Ref(-1)); !errors.Is(err, errs.ErrBadRef) {
		t.Errorf("Length(-1) error = %v, want ErrBadRef", err)
	}
}

func TestBadIndexIsReported(t *testing.T) {
	h := New()
	ref := h.NewArray(2)

	if _, err := h.Load(ref, 2); !errors.Is(err, errs.ErrBadIndex) {
		t.Errorf("Load(2) error = %v, want ErrBadIndex", err)
	}
	if _, err := h.Load(ref, -1); !errors.Is(err, errs.ErrBadIndex) {
		t.Errorf("Load(-1) error = %v, want ErrBadIndex", err)
	}
	if err := h.Store(ref, 2, 1); !errors.Is(err, errs.ErrBadIndex) {
		t.Errorf("Store(2) error = %v, want ErrBadIndex", err)
	}
}

func TestReferencesAreNeverReused(t *testing.T) {
	h := New()
	r1 := h.NewArray(1)
	r2 := h.NewArray(1)
	if r1 == r2 {
		t.Errorf("two allocations returned the same reference %d", r1)
	}
	if h.Size() != 2 {
		t.Errorf("Size() = %d, want 2", h.Size())
	}
}
