/*
 * TeenyJVM - A minimal Java bytecode interpreter
 * Constant pool resolution, mirroring the shape of Jacobin's
 * classloader/CPutils.go (FetchCPentry, GetMethInfoFromCPmethref)
 * but narrowed to the handful of entry kinds this core reads at
 * run time: UTF8, Integer, Class, NameAndType, Methodref.
 */

package classloader

import (
	"fmt"

	"teenyjvm/errs"
)

func entryAt(cp []cpEntry, index uint16) (cpEntry, error) {
	if index < 1 || int(index) >= len(cp) {
		return cpEntry{}, fmt.Errorf("%w: constant pool index %d out of range [1, %d)",
			errs.ErrMalformedClass, index, len(cp))
	}
	return cp[index], nil
}

func utf8At(cp []cpEntry, index uint16) (string, error) {
	e, err := entryAt(cp, index)
	if err != nil {
		return "", err
	}
	if e.tag != tagUTF8 {
		return "", fmt.Errorf("%w: constant pool entry %d is not UTF8", errs.ErrMalformedClass, index)
	}
	return e.utf8, nil
}

// IntegerAt returns the 32-bit value of the Integer constant at index,
// as used by ldc. The index is the pool index exactly as encoded
// (1-based, no adjustment).
func (cf *ClassFile) IntegerAt(index uint16) (int32, error) {
	e, err := entryAt(cf.cp, index)
	if err != nil {
		return 0, err
	}
	if e.tag != tagInteger {
		return 0, fmt.Errorf("%w: constant pool entry %d is not an Integer constant", errs.ErrMalformedClass, index)
	}
	return e.intVal, nil
}

// nameAndTypeAt resolves a NameAndType entry to its (name, descriptor) strings.
func (cf *ClassFile) nameAndTypeAt(index uint16) (name, descriptor string, err error) {
	e, err := entryAt(cf.cp, index)
	if err != nil {
		return "", "", err
	}
	if e.tag != tagNameAndType {
		return "", "", fmt.Errorf("%w: constant pool entry %d is not a NameAndType", errs.ErrMalformedClass, index)
	}
	name, err = utf8At(cf.cp, e.ref1)
	if err != nil {
		return "", "", err
	}
	descriptor, err = utf8At(cf.cp, e.ref2)
	if err != nil {
		return "", "", err
	}
	return name, descriptor, nil
}

// classNameAt resolves a Class entry to its name string.
func (cf *ClassFile) classNameAt(index uint16) (string, error) {
	e, err := entryAt(cf.cp, index)
	if err != nil {
		return "", err
	}
	if e.tag != tagClass {
		return "", fmt.Errorf("%w: constant pool entry %d is not a Class", errs.ErrMalformedClass, index)
	}
	return utf8At(cf.cp, e.ref1)
}

// MethodrefTripleAt resolves a Methodref entry to the (class, name,
// descriptor) triple a virtual dispatch resolves against, unlike
// FindMethodFromIndex which assumes the callee is one of this class's
// own methods. invokevirtual's target is always a host intrinsic keyed
// by this triple, never a method declared in the running class.
func (cf *ClassFile) MethodrefTripleAt(cpIndex uint16) (class, name, descriptor string, err error) {
	e, err := entryAt(cf.cp, cpIndex)
	if err != nil {
		return "", "", "", err
	}
	if e.tag != tagMethodref {
		return "", "", "", fmt.Errorf("%w: constant pool entry %d is not a Methodref", errs.ErrMalformedClass, cpIndex)
	}
	class, err = cf.classNameAt(e.ref1)
	if err != nil {
		return "", "", "", err
	}
	name, descriptor, err = cf.nameAndTypeAt(e.ref2)
	if err != nil {
		return "", "", "", err
	}
	return class, name, descriptor, nil
}

// FindMethod returns the unique method matching (name, descriptor), or
// errs.ErrMethodNotFound.
func (cf *ClassFile) FindMethod(name, descriptor string) (*Method, error) {
	m, ok := cf.byKey[methodKey(name, descriptor)]
	if !ok {
		return nil, fmt.Errorf("%w: %s%s", errs.ErrMethodNotFound, name, descriptor)
	}
	return m, nil
}

// FindMethodFromIndex resolves a Methodref constant pool entry to its
// target method within this same class (this core supports single-class
// programs only, so every Methodref call site is assumed to target a
// method of the class it appears in).
func (cf *ClassFile) FindMethodFromIndex(cpIndex uint16) (*Method, error) {
	e, err := entryAt(cf.cp, cpIndex)
	if err != nil {
		return nil, err
	}
	if e.tag != tagMethodref {
		return nil, fmt.Errorf("%w: constant pool entry %d is not a Methodref", errs.ErrMalformedClass, cpIndex)
	}
	name, descriptor, err := cf.nameAndTypeAt(e.ref2)
	if err != nil {
		return nil, err
	}
	return cf.FindMethod(name, descriptor)
}

// ParameterCount parses a method descriptor "(T1T2...Tn)R" and counts
// the top-level parameter tokens. A token is a single primitive letter
// among BCSIZFJD, an L<classname>; reference, or one or more leading
// '[' followed by another token (an array of arrays is still one
// parameter). Only I and [I (and whatever else is needed to pass
// main's String[] argument through untouched) need behave correctly
// for this core.
func ParameterCount(descriptor string) (uint16, error) {
	if len(descriptor) == 0 || descriptor[0] != '(' {
		return 0, fmt.Errorf("%w: descriptor %q missing opening '('", errs.ErrMalformedClass, descriptor)
	}

	var count uint16
	i := 1
	for i < len(descriptor) && descriptor[i] != ')' {
		for i < len(descriptor) && descriptor[i] == '[' {
			i++
		}
		if i >= len(descriptor) {
			return 0, fmt.Errorf("%w: descriptor %q ends inside an array type", errs.ErrMalformedClass, descriptor)
		}
		switch descriptor[i] {
		case 'B', 'C', 'S', 'I', 'Z', 'F', 'J', 'D':
			i++
		case 'L':
			end := i
			for end < len(descriptor) && descriptor[end] != ';' {
				end++
			}
			if end >= len(descriptor) {
				return 0, fmt.Errorf("%w: descriptor %q has an unterminated class type", errs.ErrMalformedClass, descriptor)
			}
			i = end + 1
		default:
			return 0, fmt.Errorf("%w: descriptor %q has unrecognized type character %q", errs.ErrMalformedClass, descriptor, descriptor[i])
		}
		count++
	}
	if i >= len(descriptor) {
		return 0, fmt.Errorf("%w: descriptor %q missing closing ')'", errs.ErrMalformedClass, descriptor)
	}
	return count, nil
}
