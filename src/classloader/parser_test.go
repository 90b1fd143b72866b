/*
 * TeenyJVM - A minimal Java bytecode interpreter
 */

package classloader

import (
	"errors"
	"testing"

	"teenyjvm/classloader/testutil"
	"teenyjvm/errs"
	"teenyjvm/opcodes"
)

func simpleMainOnlyReturn() []byte {
	b := testutil.NewClassBuilder()
	b.AddMethod("main", "([Ljava/lang/String;)V", 0, 1, []byte{opcodes.RETURN})
	return b.Bytes()
}

func TestParseValidMinimalClass(t *testing.T) {
	cf, err := Parse(simpleMainOnlyReturn())
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	m, err := cf.FindMethod("main", "([Ljava/lang/String;)V")
	if err != nil {
		t.Fatalf("FindMethod(main) returned error: %v", err)
	}
	if len(m.Code) != 1 || m.Code[0] != opcodes.RETURN {
		t.Errorf("unexpected code: %v", m.Code)
	}
}

// mirrors the style of formatCheck_test.go: one test per defect,
// asserting the decoder reports it rather than panicking or silently
// misparsing.
func TestParseRejectsTruncatedAndMalformedInputs(t *testing.T) {
	valid := simpleMainOnlyReturn()

	tests := []struct {
		name string
		data []byte
	}{
		{"empty file", nil},
		{"truncated magic number", valid[:2]},
		{"bad magic number", append([]byte{0xDE, 0xAD, 0xBE, 0xEF}, valid[4:]...)},
		{"truncated after magic number", valid[:6]},
		{"truncated constant pool count", valid[:9]},
		{"truncated in the middle of the constant pool", valid[:30]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.data)
			if err == nil {
				t.Fatalf("Parse(%s) succeeded, want error", tt.name)
			}
			if !errors.Is(err, errs.ErrMalformedClass) {
				t.Errorf("Parse(%s) error = %v, want ErrMalformedClass", tt.name, err)
			}
		})
	}
}

func TestParseRejectsUnknownConstantPoolTag(t *testing.T) {
	valid := simpleMainOnlyReturn()
	// The first constant pool entry starts right after the 10-byte
	// header (magic=4, minor=2, major=2, cp_count=2). Its tag byte is
	// at offset 10.
	corrupted := append([]byte(nil), valid...)
	corrupted[10] = 0xFF

	_, err := Parse(corrupted)
	if !errors.Is(err, errs.ErrMalformedClass) {
		t.Errorf("Parse with unknown tag error = %v, want ErrMalformedClass", err)
	}
}

func TestFindMethodNotFound(t *testing.T) {
	cf, err := Parse(simpleMainOnlyReturn())
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if _, err := cf.FindMethod("doesNotExist", "()V"); !errors.Is(err, errs.ErrMethodNotFound) {
		t.Errorf("FindMethod error = %v, want ErrMethodNotFound", err)
	}
}

func TestFindMethodFromIndexResolvesMethodref(t *testing.T) {
	b := testutil.NewClassBuilder()
	addRef := b.MethodrefSelf("add", "(II)I")
	b.AddMethod("add", "(II)I", 2, 2, []byte{
		opcodes.ILOAD_0, opcodes.ILOAD_1, opcodes.IADD, opcodes.IRETURN,
	})
	b.AddMethod("main", "([Ljava/lang/String;)V", 0, 1, []byte{opcodes.RETURN})

	cf, err := Parse(b.Bytes())
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	m, err := cf.FindMethodFromIndex(addRef)
	if err != nil {
		t.Fatalf("FindMethodFromIndex returned error: %v", err)
	}
	if m.Name != "add" || m.Descriptor != "(II)I" {
		t.Errorf("resolved method = %s%s, want add(II)I", m.Name, m.Descriptor)
	}
}

func TestIntegerAt(t *testing.T) {
	b := testutil.NewClassBuilder()
	idx := b.Integer(-42)
	b.AddMethod("main", "([Ljava/lang/String;)V", 1, 1, []byte{opcodes.RETURN})

	cf, err := Parse(b.Bytes())
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	v, err := cf.IntegerAt(idx)
	if err != nil {
		t.Fatalf("IntegerAt returned error: %v", err)
	}
	if v != -42 {
		t.Errorf("IntegerAt = %d, want -42", v)
	}
}

func TestParameterCount(t *testing.T) {
	tests := []struct {
		descriptor string
		want       uint16
	}{
		{"()V", 0},
		{"(I)V", 1},
		{"(II)I", 2},
		{"([Ljava/lang/String;)V", 1},
		{"(ILjava/lang/String;[I)I", 3},
	}
	for _, tt := range tests {
		got, err := ParameterCount(tt.descriptor)
		if err != nil {
			t.Fatalf("ParameterCount(%q) returned error: %v", tt.descriptor, err)
		}
		if got != tt.want {
			t.Errorf("ParameterCount(%q) = %d, want %d", tt.descriptor, got, tt.want)
		}
	}
}

func TestParameterCountRejectsMalformedDescriptor(t *testing.T) {
	tests := []string{"", "IV)", "(I", "(L", "(Q)V"}
	for _, d := range tests {
		if _, err := ParameterCount(d); !errors.Is(err, errs.ErrMalformedClass) {
			t.Errorf("ParameterCount(%q) error = %v, want ErrMalformedClass", d, err)
		}
	}
}
