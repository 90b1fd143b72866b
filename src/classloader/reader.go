/*
 * TeenyJVM - A minimal Java bytecode interpreter
 */

package classloader

import (
	"fmt"

	"teenyjvm/errs"
)

// reader walks a class file's raw bytes with a cursor, the same role
// Jacobin's parser.go fills with freestanding intFrom2Bytes(bytes, pos)
// calls -- collected here into a small stateful helper so each parse
// step doesn't have to thread (pos, err) through by hand.
type reader struct {
	data []byte
	pos  int
}

func newReader(data []byte) *reader {
	return &reader{data: data}
}

func (r *reader) need(n int) error {
	if n < 0 || r.pos+n > len(r.data) {
		return fmt.Errorf("%w: unexpected end of file at offset %d, need %d more byte(s)",
			errs.ErrMalformedClass, r.pos, n)
	}
	return nil
}

func (r *reader) u8() (byte, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

func (r *reader) u16() (uint16, error) {
	if err := r.need(2); err != nil {
		return 0, err
	}
	v := uint16(r.data[r.pos])<<8 | uint16(r.data[r.pos+1])
	r.pos += 2
	return v, nil
}

func (r *reader) u32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := uint32(r.data[r.pos])<<24 | uint32(r.data[r.pos+1])<<16 |
		uint32(r.data[r.pos+2])<<8 | uint32(r.data[r.pos+3])
	r.pos += 4
	return v, nil
}

func (r *reader) bytes(n int) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *reader) skip(n int) error {
	if err := r.need(n); err != nil {
		return err
	}
	r.pos += n
	return nil
}
