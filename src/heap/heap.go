/*
 * TeenyJVM - A minimal Java bytecode interpreter
 */

// Package heap is the monotonic store of integer arrays backing
// newarray/arraylength/iaload/iastore. An array's backing slot 0 holds
// its logical length n, and user-visible elements occupy slots 1..n; a
// reference is the array's index in the heap. Arrays are never freed
// individually -- the whole heap goes away when the process exits.
package heap

import "teenyjvm/errs"

// Ref is a non-negative index into a Heap, encoded in the same 32-bit
// word operand stack slots use for everything else.
type Ref int32

// Heap is an append-only vector of owned integer arrays.
type Heap struct {
	arrays [][]int32
}

// New returns an empty heap.
func New() *Heap {
	return &Heap{}
}

// NewArray allocates a zero-filled integer array of the given length
// and appends it, returning its reference. Slot 0 of the stored array
// holds length; length must be >= 0.
func (h *Heap) NewArray(length int32) Ref {
	arr := make([]int32, length+1)
	arr[0] = length
	h.arrays = append(h.arrays, arr)
	return Ref(len(h.arrays) - 1)
}

// get returns the raw backing array (length-prefixed) for ref, or an
// error if ref is out of range.
func (h *Heap) get(ref Ref) ([]int32, error) {
	if ref < 0 || int(ref) >= len(h.arrays) {
		return nil, errs.ErrBadRef
	}
	return h.arrays[ref], nil
}

// Length returns the logical length of the array at ref.
func (h *Heap) Length(ref Ref) (int32, error) {
	arr, err := h.get(ref)
	if err != nil {
		return 0, err
	}
	return arr[0], nil
}

// Load returns the element at idx (0-based, against the logical length)
// of the array at ref.
func (h *Heap) Load(ref Ref, idx int32) (int32, error) {
	arr, err := h.get(ref)
	if err != nil {
		return 0, err
	}
	if idx < 0 || idx >= arr[0] {
		return 0, errs.ErrBadIndex
	}
	return arr[idx+1], nil
}

// Store writes val into element idx (0-based) of the array at ref.
func (h *Heap) Store(ref Ref, idx int32, val int32) error {
	arr, err := h.get(ref)
	if err != nil {
		return err
	}
	if idx < 0 || idx >= arr[0] {
		return errs.ErrBadIndex
	}
	arr[idx+1] = val
	return nil
}

// Size returns the number of arrays currently allocated.
func (h *Heap) Size() int {
	return len(h.arrays)
}
