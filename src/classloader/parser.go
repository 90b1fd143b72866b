/*
 * TeenyJVM - A minimal Java bytecode interpreter
 * Parses the JVMS §4 byte stream. Structure mirrors Jacobin's
 * classloader/parser.go: one function per top-level class-file section,
 * called in file order, each returning (possibly-advanced position
 * already tracked by the reader, error).
 */

package classloader

import (
	"fmt"

	"teenyjvm/errs"
)

const magicNumber = 0xCAFEBABE

// Parse decodes raw class file bytes into an immutable ClassFile. It
// fails with an error wrapping errs.ErrMalformedClass if the stream
// ends prematurely or a required structure is absent or unrecognized.
func Parse(data []byte) (*ClassFile, error) {
	r := newReader(data)

	if err := parseMagicNumber(r); err != nil {
		return nil, err
	}
	if err := r.skip(4); err != nil { // minor_version, major_version: not validated
		return nil, err
	}

	cp, err := parseConstantPool(r)
	if err != nil {
		return nil, err
	}

	if err := r.skip(2); err != nil { // access_flags: not needed by this core
		return nil, err
	}
	if err := r.skip(4); err != nil { // this_class, super_class: single-class core ignores both
		return nil, err
	}

	if err := skipInterfaces(r); err != nil {
		return nil, err
	}
	if err := skipFields(r); err != nil {
		return nil, err
	}

	methods, err := parseMethods(r, cp)
	if err != nil {
		return nil, err
	}

	cf := &ClassFile{
		cp:      cp,
		methods: methods,
		byKey:   make(map[string]*Method, len(methods)),
	}
	for i := range cf.methods {
		cf.byKey[methodKey(cf.methods[i].Name, cf.methods[i].Descriptor)] = &cf.methods[i]
	}
	return cf, nil
}

func methodKey(name, descriptor string) string {
	return name + "\x00" + descriptor
}

func parseMagicNumber(r *reader) error {
	magic, err := r.u32()
	if err != nil {
		return fmt.Errorf("%w: could not read magic number: %v", errs.ErrMalformedClass, err)
	}
	if magic != magicNumber {
		return fmt.Errorf("%w: bad magic number 0x%08X", errs.ErrMalformedClass, magic)
	}
	return nil
}

// parseConstantPool reads the cp count followed by that many (minus
// one, per JVMS's off-by-one convention) entries. long/double entries
// occupy two pool slots; the second slot is left as the zero-value
// placeholder and is never a valid target for a reference.
func parseConstantPool(r *reader) ([]cpEntry, error) {
	count, err := r.u16()
	if err != nil {
		return nil, fmt.Errorf("%w: could not read constant pool count: %v", errs.ErrMalformedClass, err)
	}

	cp := make([]cpEntry, count)
	for i := 1; i < int(count); i++ {
		tag, err := r.u8()
		if err != nil {
			return nil, fmt.Errorf("%w: could not read constant pool tag at entry %d: %v", errs.ErrMalformedClass, i, err)
		}

		switch tag {
		case tagUTF8:
			length, err := r.u16()
			if err != nil {
				return nil, fmt.Errorf("%w: bad UTF8 length at entry %d: %v", errs.ErrMalformedClass, i, err)
			}
			raw, err := r.bytes(int(length))
			if err != nil {
				return nil, fmt.Errorf("%w: truncated UTF8 at entry %d: %v", errs.ErrMalformedClass, i, err)
			}
			cp[i] = cpEntry{tag: tagUTF8, utf8: string(raw)}

		case tagInteger:
			v, err := r.u32()
			if err != nil {
				return nil, fmt.Errorf("%w: bad Integer constant at entry %d: %v", errs.ErrMalformedClass, i, err)
			}
			cp[i] = cpEntry{tag: tagInteger, intVal: int32(v)}

		case tagFloat:
			if err := r.skip(4); err != nil {
				return nil, fmt.Errorf("%w: bad Float constant at entry %d: %v", errs.ErrMalformedClass, i, err)
			}
			cp[i] = cpEntry{tag: tagFloat}

		case tagLong, tagDouble:
			if err := r.skip(8); err != nil {
				return nil, fmt.Errorf("%w: bad Long/Double constant at entry %d: %v", errs.ErrMalformedClass, i, err)
			}
			cp[i] = cpEntry{tag: tag}
			i++ // occupies the next slot too

		case tagClass:
			nameIndex, err := r.u16()
			if err != nil {
				return nil, fmt.Errorf("%w: bad Class reference at entry %d: %v", errs.ErrMalformedClass, i, err)
			}
			cp[i] = cpEntry{tag: tagClass, ref1: nameIndex}

		case tagString:
			if err := r.skip(2); err != nil {
				return nil, fmt.Errorf("%w: bad String constant at entry %d: %v", errs.ErrMalformedClass, i, err)
			}
			cp[i] = cpEntry{tag: tagString}

		case tagFieldref, tagMethodref:
			classIndex, err := r.u16()
			if err != nil {
				return nil, fmt.Errorf("%w: bad ref classIndex at entry %d: %v", errs.ErrMalformedClass, i, err)
			}
			natIndex, err := r.u16()
			if err != nil {
				return nil, fmt.Errorf("%w: bad ref nameAndTypeIndex at entry %d: %v", errs.ErrMalformedClass, i, err)
			}
			cp[i] = cpEntry{tag: tag, ref1: classIndex, ref2: natIndex}

		case tagInterfaceMethodref:
			if err := r.skip(4); err != nil {
				return nil, fmt.Errorf("%w: bad InterfaceMethodref at entry %d: %v", errs.ErrMalformedClass, i, err)
			}
			cp[i] = cpEntry{tag: tagInterfaceMethodref}

		case tagNameAndType:
			nameIndex, err := r.u16()
			if err != nil {
				return nil, fmt.Errorf("%w: bad NameAndType nameIndex at entry %d: %v", errs.ErrMalformedClass, i, err)
			}
			descIndex, err := r.u16()
			if err != nil {
				return nil, fmt.Errorf("%w: bad NameAndType descriptorIndex at entry %d: %v", errs.ErrMalformedClass, i, err)
			}
			cp[i] = cpEntry{tag: tagNameAndType, ref1: nameIndex, ref2: descIndex}

		case tagMethodHandle:
			if err := r.skip(3); err != nil { // reference_kind (u1) + reference_index (u2)
				return nil, fmt.Errorf("%w: bad MethodHandle at entry %d: %v", errs.ErrMalformedClass, i, err)
			}
			cp[i] = cpEntry{tag: tagMethodHandle}

		case tagMethodType:
			if err := r.skip(2); err != nil {
				return nil, fmt.Errorf("%w: bad MethodType at entry %d: %v", errs.ErrMalformedClass, i, err)
			}
			cp[i] = cpEntry{tag: tagMethodType}

		case tagDynamic, tagInvokeDynamic:
			if err := r.skip(4); err != nil {
				return nil, fmt.Errorf("%w: bad Dynamic/InvokeDynamic at entry %d: %v", errs.ErrMalformedClass, i, err)
			}
			cp[i] = cpEntry{tag: tag}

		case tagModule, tagPackage:
			if err := r.skip(2); err != nil {
				return nil, fmt.Errorf("%w: bad Module/Package at entry %d: %v", errs.ErrMalformedClass, i, err)
			}
			cp[i] = cpEntry{tag: tag}

		default:
			return nil, fmt.Errorf("%w: unrecognized constant pool tag %d at entry %d", errs.ErrMalformedClass, tag, i)
		}
	}
	return cp, nil
}

func skipInterfaces(r *reader) error {
	count, err := r.u16()
	if err != nil {
		return fmt.Errorf("%w: could not read interfaces_count: %v", errs.ErrMalformedClass, err)
	}
	if err := r.skip(int(count) * 2); err != nil {
		return fmt.Errorf("%w: truncated interfaces table: %v", errs.ErrMalformedClass, err)
	}
	return nil
}

func skipFields(r *reader) error {
	count, err := r.u16()
	if err != nil {
		return fmt.Errorf("%w: could not read fields_count: %v", errs.ErrMalformedClass, err)
	}
	for i := 0; i < int(count); i++ {
		if err := r.skip(6); err != nil { // access_flags, name_index, descriptor_index
			return fmt.Errorf("%w: truncated field %d: %v", errs.ErrMalformedClass, i, err)
		}
		if err := skipAttributes(r); err != nil {
			return fmt.Errorf("%w: truncated attributes for field %d: %v", errs.ErrMalformedClass, i, err)
		}
	}
	return nil
}

// skipAttributes consumes an attributes_count followed by that many
// (attr_name_index u2, attr_length u4, attr_length raw bytes) triples,
// discarding the contents. Used wherever this core doesn't care what
// the attribute says, just that the cursor lands past it.
func skipAttributes(r *reader) error {
	count, err := r.u16()
	if err != nil {
		return err
	}
	for i := 0; i < int(count); i++ {
		if err := r.skip(2); err != nil { // attribute_name_index
			return err
		}
		length, err := r.u32()
		if err != nil {
			return err
		}
		if err := r.skip(int(length)); err != nil {
			return err
		}
	}
	return nil
}

func parseMethods(r *reader, cp []cpEntry) ([]Method, error) {
	count, err := r.u16()
	if err != nil {
		return nil, fmt.Errorf("%w: could not read methods_count: %v", errs.ErrMalformedClass, err)
	}

	methods := make([]Method, 0, count)
	for i := 0; i < int(count); i++ {
		m, err := parseOneMethod(r, cp)
		if err != nil {
			return nil, fmt.Errorf("%w: method %d: %v", errs.ErrMalformedClass, i, err)
		}
		methods = append(methods, m)
	}
	return methods, nil
}

func parseOneMethod(r *reader, cp []cpEntry) (Method, error) {
	if err := r.skip(2); err != nil { // access_flags: not needed by this core
		return Method{}, err
	}

	nameIndex, err := r.u16()
	if err != nil {
		return Method{}, err
	}
	name, err := utf8At(cp, nameIndex)
	if err != nil {
		return Method{}, err
	}

	descIndex, err := r.u16()
	if err != nil {
		return Method{}, err
	}
	descriptor, err := utf8At(cp, descIndex)
	if err != nil {
		return Method{}, err
	}

	attrCount, err := r.u16()
	if err != nil {
		return Method{}, err
	}

	m := Method{Name: name, Descriptor: descriptor}
	haveCode := false

	for i := 0; i < int(attrCount); i++ {
		attrNameIndex, err := r.u16()
		if err != nil {
			return Method{}, err
		}
		attrLength, err := r.u32()
		if err != nil {
			return Method{}, err
		}
		attrName, err := utf8At(cp, attrNameIndex)
		if err != nil {
			return Method{}, err
		}

		if attrName == "Code" {
			maxStack, maxLocals, code, err := parseCodeAttribute(r)
			if err != nil {
				return Method{}, err
			}
			m.MaxStack = maxStack
			m.MaxLocals = maxLocals
			m.Code = code
			haveCode = true
		} else {
			if err := r.skip(int(attrLength)); err != nil {
				return Method{}, err
			}
		}
	}

	_ = haveCode // a method with no Code attribute simply never executes (empty code)
	return m, nil
}

// parseCodeAttribute reads the Code attribute body: max_stack,
// max_locals, code, then the exception table and nested attributes,
// both consumed for cursor alignment and otherwise discarded (this
// core has no exception-handling bytecodes to dispatch on).
func parseCodeAttribute(r *reader) (maxStack, maxLocals int, code []byte, err error) {
	ms, err := r.u16()
	if err != nil {
		return 0, 0, nil, err
	}
	ml, err := r.u16()
	if err != nil {
		return 0, 0, nil, err
	}
	codeLength, err := r.u32()
	if err != nil {
		return 0, 0, nil, err
	}
	codeBytes, err := r.bytes(int(codeLength))
	if err != nil {
		return 0, 0, nil, err
	}

	excCount, err := r.u16()
	if err != nil {
		return 0, 0, nil, err
	}
	if err := r.skip(int(excCount) * 8); err != nil { // start_pc, end_pc, handler_pc, catch_type, each u2
		return 0, 0, nil, err
	}

	if err := skipAttributes(r); err != nil {
		return 0, 0, nil, err
	}

	// codeBytes aliases the reader's backing array (which, via LoadFile,
	// aliases the file's mmap). That's intentional: the class image's
	// references stay valid for its lifetime, and the mapping isn't torn
	// down until the run ends, so no copy is needed.
	return int(ms), int(ml), codeBytes, nil
}
