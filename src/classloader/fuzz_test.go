/*
 * TeenyJVM - A minimal Java bytecode interpreter
 */

package classloader

import (
	"testing"

	"teenyjvm/opcodes"

	"teenyjvm/classloader/testutil"
)

// FuzzParse feeds Parse a valid seed class file plus whatever the
// fuzzer mutates from it, asserting only that Parse never panics --
// every malformed input, however it's mangled, must come back as an
// error instead. This replaces the legacy dvyukov/go-fuzz harness the
// pack also offers; Go's native fuzzing (testing.F) covers the same
// ground without an external tool.
func FuzzParse(f *testing.F) {
	b := testutil.NewClassBuilder()
	addRef := b.MethodrefSelf("add", "(II)I")
	_ = addRef
	b.AddMethod("add", "(II)I", 2, 2, []byte{
		opcodes.ILOAD_0, opcodes.ILOAD_1, opcodes.IADD, opcodes.IRETURN,
	})
	b.AddMethod("main", "([Ljava/lang/String;)V", 0, 1, []byte{opcodes.RETURN})
	f.Add(b.Bytes())
	f.Add([]byte{})
	f.Add([]byte{0xCA, 0xFE, 0xBA, 0xBE})

	f.Fuzz(func(t *testing.T, data []byte) {
		defer func() {
			if r := recover(); r != nil {
				t.Fatalf("Parse panicked on input %v: %v", data, r)
			}
		}()
		_, _ = Parse(data)
	})
}
