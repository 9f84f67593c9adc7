package asm

import (
	"strings"
	"testing"

	"svm/image"
	"svm/types"
)

func assemble(t *testing.T, source string) image.Program {
	t.Helper()
	p, err := Assemble("test.svm", strings.NewReader(source))
	if err != nil {
		t.Fatalf("assemble failed: %v", err)
	}
	return p
}

// A literal's pool index depends on the final, whole-program sub-pool
// sizes, not just how many of that kind appear before it textually - a
// Long literal seen first must still land after every Int.
func TestConstantPoolIndicesAccountForWholeProgram(t *testing.T) {
	p := assemble(t, `
		push 7L
		push 1
		push 2
	`)

	if p.Constants.IntCount() != 2 || p.Constants.LongCount() != 1 {
		t.Fatalf("expected 2 ints and 1 long, got %d ints %d longs", p.Constants.IntCount(), p.Constants.LongCount())
	}

	instr, ok := p.TopLevel.At(0)
	if !ok || instr.Op != image.OpPush {
		t.Fatalf("expected first instruction to be push")
	}
	typ, err := p.Constants.TypeOf(instr.Operand)
	if err != nil || typ != types.LongType {
		t.Fatalf("expected the first push's constant to resolve to Long, got %v err=%v", typ, err)
	}
	if p.Constants.Long(instr.Operand) != 7 {
		t.Fatalf("expected long value 7, got %d", p.Constants.Long(instr.Operand))
	}
}

// A structure may embed a field of an earlier-declared structure type.
func TestStructureCanEmbedEarlierDeclaredStructure(t *testing.T) {
	p := assemble(t, `
		.struct inner
			v int
		.endstruct

		.struct outer
			i inner
		.endstruct
	`)

	if len(p.Structures) != 2 {
		t.Fatalf("expected 2 structures, got %d", len(p.Structures))
	}
	outer := p.Structures[1]
	if outer.Fields[0].Type != p.Structures[0] {
		t.Fatalf("expected outer.i's type to be the same *types.Type as inner")
	}
}

// Embedding a structure declared later in the listing is rejected.
func TestStructureCannotEmbedLaterDeclaredStructure(t *testing.T) {
	_, err := Assemble("test.svm", strings.NewReader(`
		.struct outer
			i inner
		.endstruct

		.struct inner
			v int
		.endstruct
	`))
	if err == nil {
		t.Fatalf("expected an error referencing an undeclared structure type")
	}
}

// A structure field may declare an array modifier with "elem[count]"
// syntax, resolved into a types.NewArrayFieldType-built field.
func TestStructureFieldSupportsArrayModifier(t *testing.T) {
	p := assemble(t, `
		.struct withArray
			xs int[3]
		.endstruct
	`)

	st := p.Structures[0]
	if len(st.Fields) != 1 {
		t.Fatalf("expected 1 field, got %d", len(st.Fields))
	}
	arr := st.Fields[0].Type
	if !arr.IsArray() {
		t.Fatalf("expected an array type, got %v", arr)
	}
	if arr.Count != 3 || arr.Elem != types.IntType {
		t.Fatalf("expected 3 Int elements, got count=%d elem=%v", arr.Count, arr.Elem)
	}
}

// A malformed array modifier (missing closing bracket) is an error.
func TestMalformedArrayModifierIsAnError(t *testing.T) {
	_, err := Assemble("test.svm", strings.NewReader(`
		.struct bad
			xs int[3
		.endstruct
	`))
	if err == nil {
		t.Fatalf("expected an error for a malformed array modifier")
	}
}

func TestFunctionHeaderParsesArityAndResult(t *testing.T) {
	p := assemble(t, `
		.func f arity=2 result
			ret
		.endfunc
	`)
	if len(p.Functions) != 1 {
		t.Fatalf("expected 1 function, got %d", len(p.Functions))
	}
	fn := p.Functions[0]
	if fn.Arity != 2 || !fn.HasResult {
		t.Fatalf("expected arity=2 result=true, got arity=%d result=%v", fn.Arity, fn.HasResult)
	}
}

func TestLabelResolvesToFollowingInstruction(t *testing.T) {
	p := assemble(t, `
		jmp skip
		push 1
	skip:
		push 2
	`)
	jmp, _ := p.TopLevel.At(0)
	target, ok := p.TopLevel.Label(jmp.Operand)
	if !ok || target != 2 {
		t.Fatalf("expected label to resolve to instruction index 2, got %d ok=%v", target, ok)
	}
}

func TestUnknownMnemonicIsAnError(t *testing.T) {
	if _, err := Assemble("test.svm", strings.NewReader("bogus")); err == nil {
		t.Fatalf("expected an error for an unknown mnemonic")
	}
}
