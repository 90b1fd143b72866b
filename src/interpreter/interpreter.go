/*
 * TeenyJVM - A minimal Java bytecode interpreter
 */

package interpreter

import (
	"fmt"

	"teenyjvm/classloader"
	"teenyjvm/errs"
	"teenyjvm/heap"
	"teenyjvm/intrinsics"
	"teenyjvm/opcodes"
	"teenyjvm/trace"
)

// Execute runs method's bytecode to completion against cf (for
// constant-pool and method resolution) and h (for array operations),
// starting with the given locals. It returns a non-nil result for
// ireturn/areturn, nil for a bare return or falling off the end of the
// code array.
func Execute(method *classloader.Method, locals []int32, cf *classloader.ClassFile, h *heap.Heap, reg *intrinsics.Registry) (*int32, error) {
	f := newFrame(method.Code, method.MaxStack, locals)

	for f.pc < len(f.code) {
		opcode := f.code[f.pc]

		switch opcode {
		case opcodes.NOP:
			f.pc++

		case opcodes.ACONST_NULL:
			if err := f.push(0); err != nil {
				return nil, err
			}
			f.pc++

		case opcodes.ICONST_M1, opcodes.ICONST_0, opcodes.ICONST_1, opcodes.ICONST_2,
			opcodes.ICONST_3, opcodes.ICONST_4, opcodes.ICONST_5:
			if err := f.push(int32(opcode) - int32(opcodes.ICONST_0)); err != nil {
				return nil, err
			}
			f.pc++

		case opcodes.BIPUSH:
			b, err := f.u1(1)
			if err != nil {
				return nil, err
			}
			if err := f.push(int32(int8(b))); err != nil {
				return nil, err
			}
			f.pc += 2

		case opcodes.SIPUSH:
			v, err := f.u2(1)
			if err != nil {
				return nil, err
			}
			if err := f.push(int32(int16(v))); err != nil {
				return nil, err
			}
			f.pc += 3

		case opcodes.LDC:
			idx, err := f.u1(1)
			if err != nil {
				return nil, err
			}
			v, err := cf.IntegerAt(uint16(idx))
			if err != nil {
				return nil, err
			}
			if err := f.push(v); err != nil {
				return nil, err
			}
			f.pc += 2

		case opcodes.ILOAD, opcodes.ALOAD:
			idx, err := f.u1(1)
			if err != nil {
				return nil, err
			}
			v, err := f.localAt(int(idx))
			if err != nil {
				return nil, err
			}
			if err := f.push(v); err != nil {
				return nil, err
			}
			f.pc += 2

		case opcodes.ILOAD_0, opcodes.ILOAD_1, opcodes.ILOAD_2, opcodes.ILOAD_3:
			v, err := f.localAt(int(opcode - opcodes.ILOAD_0))
			if err != nil {
				return nil, err
			}
			if err := f.push(v); err != nil {
				return nil, err
			}
			f.pc++

		case opcodes.ALOAD_0, opcodes.ALOAD_1, opcodes.ALOAD_2, opcodes.ALOAD_3:
			v, err := f.localAt(int(opcode - opcodes.ALOAD_0))
			if err != nil {
				return nil, err
			}
			if err := f.push(v); err != nil {
				return nil, err
			}
			f.pc++

		case opcodes.ISTORE, opcodes.ASTORE:
			idx, err := f.u1(1)
			if err != nil {
				return nil, err
			}
			v, err := f.pop()
			if err != nil {
				return nil, err
			}
			if err := f.setLocal(int(idx), v); err != nil {
				return nil, err
			}
			f.pc += 2

		case opcodes.ISTORE_0, opcodes.ISTORE_1, opcodes.ISTORE_2, opcodes.ISTORE_3:
			v, err := f.pop()
			if err != nil {
				return nil, err
			}
			if err := f.setLocal(int(opcode-opcodes.ISTORE_0), v); err != nil {
				return nil, err
			}
			f.pc++

		case opcodes.ASTORE_0, opcodes.ASTORE_1, opcodes.ASTORE_2, opcodes.ASTORE_3:
			v, err := f.pop()
			if err != nil {
				return nil, err
			}
			if err := f.setLocal(int(opcode-opcodes.ASTORE_0), v); err != nil {
				return nil, err
			}
			f.pc++

		case opcodes.IINC:
			idx, err := f.u1(1)
			if err != nil {
				return nil, err
			}
			delta, err := f.u1(2)
			if err != nil {
				return nil, err
			}
			v, err := f.localAt(int(idx))
			if err != nil {
				return nil, err
			}
			if err := f.setLocal(int(idx), v+int32(int8(delta))); err != nil {
				return nil, err
			}
			f.pc += 3

		case opcodes.IADD, opcodes.ISUB, opcodes.IMUL:
			b, err := f.pop()
			if err != nil {
				return nil, err
			}
			a, err := f.pop()
			if err != nil {
				return nil, err
			}
			var result int32
			switch opcode {
			case opcodes.IADD:
				result = a + b
			case opcodes.ISUB:
				result = a - b
			case opcodes.IMUL:
				result = a * b
			}
			if err := f.push(result); err != nil {
				return nil, err
			}
			f.pc++

		case opcodes.IDIV, opcodes.IREM:
			b, err := f.pop()
			if err != nil {
				return nil, err
			}
			a, err := f.pop()
			if err != nil {
				return nil, err
			}
			if b == 0 {
				return nil, fmt.Errorf("%w: %s by zero", errs.ErrDivideByZero, opcodeName(opcode))
			}
			var result int32
			if opcode == opcodes.IDIV {
				if a == -(1<<31) && b == -1 {
					result = a // two's-complement wraparound: INT_MIN / -1 == INT_MIN
				} else {
					result = a / b
				}
			} else {
				if a == -(1<<31) && b == -1 {
					result = 0
				} else {
					result = a % b
				}
			}
			if err := f.push(result); err != nil {
				return nil, err
			}
			f.pc++

		case opcodes.INEG:
			a, err := f.pop()
			if err != nil {
				return nil, err
			}
			if err := f.push(-a); err != nil {
				return nil, err
			}
			f.pc++

		case opcodes.ISHL, opcodes.ISHR, opcodes.IUSHR:
			b, err := f.pop()
			if err != nil {
				return nil, err
			}
			a, err := f.pop()
			if err != nil {
				return nil, err
			}
			shift := uint32(b) & 0x1F
			var result int32
			switch opcode {
			case opcodes.ISHL:
				result = a << shift
			case opcodes.ISHR:
				result = a >> shift
			case opcodes.IUSHR:
				result = int32(uint32(a) >> shift)
			}
			if err := f.push(result); err != nil {
				return nil, err
			}
			f.pc++

		case opcodes.IAND, opcodes.IOR, opcodes.IXOR:
			b, err := f.pop()
			if err != nil {
				return nil, err
			}
			a, err := f.pop()
			if err != nil {
				return nil, err
			}
			var result int32
			switch opcode {
			case opcodes.IAND:
				result = a & b
			case opcodes.IOR:
				result = a | b
			case opcodes.IXOR:
				result = a ^ b
			}
			if err := f.push(result); err != nil {
				return nil, err
			}
			f.pc++

		case opcodes.DUP:
			v, err := f.peek()
			if err != nil {
				return nil, err
			}
			if err := f.push(v); err != nil {
				return nil, err
			}
			f.pc++

		case opcodes.IFEQ, opcodes.IFNE, opcodes.IFLT, opcodes.IFGE, opcodes.IFGT, opcodes.IFLE:
			v, err := f.pop()
			if err != nil {
				return nil, err
			}
			taken, err := compareToZero(opcode, v)
			if err != nil {
				return nil, err
			}
			if err := f.branch(taken); err != nil {
				return nil, err
			}

		case opcodes.IF_ICMPEQ, opcodes.IF_ICMPNE, opcodes.IF_ICMPLT,
			opcodes.IF_ICMPGE, opcodes.IF_ICMPGT, opcodes.IF_ICMPLE:
			b, err := f.pop()
			if err != nil {
				return nil, err
			}
			a, err := f.pop()
			if err != nil {
				return nil, err
			}
			taken, err := compareIcmp(opcode, a, b)
			if err != nil {
				return nil, err
			}
			if err := f.branch(taken); err != nil {
				return nil, err
			}

		case opcodes.GOTO:
			if err := f.branch(true); err != nil {
				return nil, err
			}

		case opcodes.IRETURN, opcodes.ARETURN:
			v, err := f.pop()
			if err != nil {
				return nil, err
			}
			return &v, nil

		case opcodes.RETURN:
			return nil, nil

		case opcodes.GETSTATIC:
			// No receiver is ever pushed: the println idiom's System.out
			// reference never reaches the operand stack in this core.
			f.pc += 3

		case opcodes.INVOKEVIRTUAL:
			poolIndex, err := f.u2(1)
			if err != nil {
				return nil, err
			}
			class, name, descriptor, err := cf.MethodrefTripleAt(poolIndex)
			if err != nil {
				return nil, err
			}
			paramCount, err := classloader.ParameterCount(descriptor)
			if err != nil {
				return nil, err
			}
			args := make([]int32, paramCount)
			for i := int(paramCount) - 1; i >= 0; i-- {
				v, err := f.pop()
				if err != nil {
					return nil, err
				}
				args[i] = v
			}
			if err := reg.Call(class, name, descriptor, args); err != nil {
				return nil, err
			}
			f.pc += 3

		case opcodes.INVOKESTATIC:
			poolIndex, err := f.u2(1)
			if err != nil {
				return nil, err
			}
			callee, err := cf.FindMethodFromIndex(poolIndex)
			if err != nil {
				return nil, err
			}
			paramCount, err := classloader.ParameterCount(callee.Descriptor)
			if err != nil {
				return nil, err
			}
			params := make([]int32, paramCount)
			for i := int(paramCount) - 1; i >= 0; i-- {
				v, err := f.pop()
				if err != nil {
					return nil, err
				}
				params[i] = v
			}
			calleeLocals := make([]int32, callee.MaxLocals)
			copy(calleeLocals, params)

			trace.Trace(fmt.Sprintf("invokestatic %s%s", callee.Name, callee.Descriptor))
			result, err := Execute(callee, calleeLocals, cf, h, reg)
			if err != nil {
				return nil, err
			}
			if result != nil {
				if err := f.push(*result); err != nil {
					return nil, err
				}
			}
			f.pc += 3

		case opcodes.NEWARRAY:
			atype, err := f.u1(1)
			if err != nil {
				return nil, err
			}
			if atype != opcodes.TINT {
				return nil, fmt.Errorf("%w: newarray atype %d", errs.ErrUnsupportedArrayType, atype)
			}
			length, err := f.pop()
			if err != nil {
				return nil, err
			}
			if length < 0 {
				return nil, fmt.Errorf("%w: negative array length %d", errs.ErrBadIndex, length)
			}
			ref := h.NewArray(length)
			if err := f.push(int32(ref)); err != nil {
				return nil, err
			}
			f.pc += 2

		case opcodes.ARRAYLENGTH:
			ref, err := f.pop()
			if err != nil {
				return nil, err
			}
			length, err := h.Length(heap.Ref(ref))
			if err != nil {
				return nil, err
			}
			if err := f.push(length); err != nil {
				return nil, err
			}
			f.pc++

		case opcodes.IALOAD:
			idx, err := f.pop()
			if err != nil {
				return nil, err
			}
			ref, err := f.pop()
			if err != nil {
				return nil, err
			}
			v, err := h.Load(heap.Ref(ref), idx)
			if err != nil {
				return nil, err
			}
			if err := f.push(v); err != nil {
				return nil, err
			}
			f.pc++

		case opcodes.IASTORE:
			val, err := f.pop()
			if err != nil {
				return nil, err
			}
			idx, err := f.pop()
			if err != nil {
				return nil, err
			}
			ref, err := f.pop()
			if err != nil {
				return nil, err
			}
			if err := h.Store(heap.Ref(ref), idx, val); err != nil {
				return nil, err
			}
			f.pc++

		default:
			return nil, fmt.Errorf("%w: unrecognized opcode 0x%02X at pc %d", errs.ErrMalformedClass, opcode, f.pc)
		}
	}

	return nil, nil
}

// branch reads the two-byte signed offset following the current
// opcode and, if taken, sets pc to (opcode address + offset); otherwise
// it advances past the 3-byte instruction. The offset bytes are read
// unsigned and combined before sign-extension, per the corrected
// encoding this core uses.
func (f *frame) branch(taken bool) error {
	opcodeAddr := f.pc
	raw, err := f.u2(1)
	if err != nil {
		return err
	}
	if !taken {
		f.pc += 3
		return nil
	}
	offset := int32(int16(raw))
	target := opcodeAddr + int(offset)
	if target < 0 || target >= len(f.code) {
		return fmt.Errorf("%w: branch target %d out of range [0, %d)", errs.ErrMalformedClass, target, len(f.code))
	}
	f.pc = target
	return nil
}

func compareToZero(opcode byte, v int32) (bool, error) {
	switch opcode {
	case opcodes.IFEQ:
		return v == 0, nil
	case opcodes.IFNE:
		return v != 0, nil
	case opcodes.IFLT:
		return v < 0, nil
	case opcodes.IFGE:
		return v >= 0, nil
	case opcodes.IFGT:
		return v > 0, nil
	case opcodes.IFLE:
		return v <= 0, nil
	default:
		return false, fmt.Errorf("%w: not an if<cond> opcode: 0x%02X", errs.ErrMalformedClass, opcode)
	}
}

func compareIcmp(opcode byte, a, b int32) (bool, error) {
	switch opcode {
	case opcodes.IF_ICMPEQ:
		return a == b, nil
	case opcodes.IF_ICMPNE:
		return a != b, nil
	case opcodes.IF_ICMPLT:
		return a < b, nil
	case opcodes.IF_ICMPGE:
		return a >= b, nil
	case opcodes.IF_ICMPGT:
		return a > b, nil
	case opcodes.IF_ICMPLE:
		return a <= b, nil
	default:
		return false, fmt.Errorf("%w: not an if_icmp<cond> opcode: 0x%02X", errs.ErrMalformedClass, opcode)
	}
}

func opcodeName(opcode byte) string {
	switch opcode {
	case opcodes.IDIV:
		return "idiv"
	case opcodes.IREM:
		return "irem"
	default:
		return fmt.Sprintf("0x%02X", opcode)
	}
}
