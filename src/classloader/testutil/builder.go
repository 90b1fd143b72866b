/*
 * TeenyJVM - A minimal Java bytecode interpreter
 */

// Package testutil assembles synthetic .class file byte streams for
// tests, standing in for javac. It's deliberately minimal -- just
// enough constant pool and method-table shape to drive the decoder
// and interpreter tests in classloader and interpreter -- not a
// general-purpose class file writer.
package testutil

import (
	"bytes"
	"encoding/binary"
)

// ClassBuilder incrementally assembles a class file's constant pool
// and method table, then renders them to bytes with Bytes().
type ClassBuilder struct {
	cp        bytes.Buffer
	nextIndex uint16
	utf8Cache map[string]uint16
	methods   []methodSpec
}

type methodSpec struct {
	nameIndex, descIndex uint16
	maxStack, maxLocals  uint16
	code                 []byte
}

// NewClassBuilder returns a builder with an empty constant pool
// (index 0 is the reserved placeholder, so the first real entry is 1).
func NewClassBuilder() *ClassBuilder {
	return &ClassBuilder{nextIndex: 1, utf8Cache: make(map[string]uint16)}
}

func (b *ClassBuilder) alloc(slots uint16) uint16 {
	idx := b.nextIndex
	b.nextIndex += slots
	return idx
}

// UTF8 interns a string constant, returning its (possibly cached) pool index.
func (b *ClassBuilder) UTF8(s string) uint16 {
	if idx, ok := b.utf8Cache[s]; ok {
		return idx
	}
	idx := b.alloc(1)
	b.cp.WriteByte(1)
	binary.Write(&b.cp, binary.BigEndian, uint16(len(s)))
	b.cp.WriteString(s)
	b.utf8Cache[s] = idx
	return idx
}

// Integer adds an Integer constant (tag 3).
func (b *ClassBuilder) Integer(v int32) uint16 {
	idx := b.alloc(1)
	b.cp.WriteByte(3)
	binary.Write(&b.cp, binary.BigEndian, v)
	return idx
}

// Class adds a Class reference (tag 7) pointing at a UTF8 name entry.
func (b *ClassBuilder) Class(nameIndex uint16) uint16 {
	idx := b.alloc(1)
	b.cp.WriteByte(7)
	binary.Write(&b.cp, binary.BigEndian, nameIndex)
	return idx
}

// NameAndType adds a NameAndType entry (tag 12).
func (b *ClassBuilder) NameAndType(nameIndex, descIndex uint16) uint16 {
	idx := b.alloc(1)
	b.cp.WriteByte(12)
	binary.Write(&b.cp, binary.BigEndian, nameIndex)
	binary.Write(&b.cp, binary.BigEndian, descIndex)
	return idx
}

// Methodref adds a Methodref entry (tag 10).
func (b *ClassBuilder) Methodref(classIndex, nameAndTypeIndex uint16) uint16 {
	idx := b.alloc(1)
	b.cp.WriteByte(10)
	binary.Write(&b.cp, binary.BigEndian, classIndex)
	binary.Write(&b.cp, binary.BigEndian, nameAndTypeIndex)
	return idx
}

// Fieldref adds a Fieldref entry (tag 9). Its contents are never
// interpreted: the interpreter does not resolve getstatic's pool index.
func (b *ClassBuilder) Fieldref(classIndex, nameAndTypeIndex uint16) uint16 {
	idx := b.alloc(1)
	b.cp.WriteByte(9)
	binary.Write(&b.cp, binary.BigEndian, classIndex)
	binary.Write(&b.cp, binary.BigEndian, nameAndTypeIndex)
	return idx
}

// MethodrefSelf builds the Class/NameAndType/Methodref chain needed to
// call a method of this same class by (name, descriptor), as
// invokestatic requires.
func (b *ClassBuilder) MethodrefSelf(name, descriptor string) uint16 {
	classIndex := b.Class(b.UTF8("Test"))
	nat := b.NameAndType(b.UTF8(name), b.UTF8(descriptor))
	return b.Methodref(classIndex, nat)
}

// MethodrefExternal builds the Class/NameAndType/Methodref chain for a
// method of a class other than the one being built, as invokevirtual's
// intrinsic dispatch requires: its target is resolved by (class, name,
// descriptor) against the intrinsic registry, never against this
// class's own method table.
func (b *ClassBuilder) MethodrefExternal(className, name, descriptor string) uint16 {
	classIndex := b.Class(b.UTF8(className))
	nat := b.NameAndType(b.UTF8(name), b.UTF8(descriptor))
	return b.Methodref(classIndex, nat)
}

// AddMethod registers a method with the given bytecode body.
func (b *ClassBuilder) AddMethod(name, descriptor string, maxStack, maxLocals uint16, code []byte) {
	b.methods = append(b.methods, methodSpec{
		nameIndex: b.UTF8(name),
		descIndex: b.UTF8(descriptor),
		maxStack:  maxStack,
		maxLocals: maxLocals,
		code:      code,
	})
}

// Bytes renders the full class file.
func (b *ClassBuilder) Bytes() []byte {
	codeAttrName := b.UTF8("Code")

	var out bytes.Buffer
	be := binary.BigEndian
	binary.Write(&out, be, uint32(0xCAFEBABE))
	binary.Write(&out, be, uint16(0))  // minor_version
	binary.Write(&out, be, uint16(52)) // major_version (Java 8)
	binary.Write(&out, be, b.nextIndex)
	out.Write(b.cp.Bytes())

	binary.Write(&out, be, uint16(0x0021)) // access_flags
	binary.Write(&out, be, uint16(0))      // this_class
	binary.Write(&out, be, uint16(0))      // super_class
	binary.Write(&out, be, uint16(0))      // interfaces_count
	binary.Write(&out, be, uint16(0))      // fields_count

	binary.Write(&out, be, uint16(len(b.methods)))
	for _, m := range b.methods {
		binary.Write(&out, be, uint16(0x0009)) // ACC_PUBLIC | ACC_STATIC
		binary.Write(&out, be, m.nameIndex)
		binary.Write(&out, be, m.descIndex)
		binary.Write(&out, be, uint16(1)) // attributes_count
		binary.Write(&out, be, codeAttrName)
		attrLen := uint32(2 + 2 + 4 + len(m.code) + 2 + 2)
		binary.Write(&out, be, attrLen)
		binary.Write(&out, be, m.maxStack)
		binary.Write(&out, be, m.maxLocals)
		binary.Write(&out, be, uint32(len(m.code)))
		out.Write(m.code)
		binary.Write(&out, be, uint16(0)) // exception_table_length
		binary.Write(&out, be, uint16(0)) // attributes_count (nested)
	}

	return out.Bytes()
}
