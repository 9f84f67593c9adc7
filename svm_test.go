package svm

import (
	"fmt"
	"strings"
	"testing"

	"svm/asm"
	"svm/objects"
	"svm/types"
)

func assert(t *testing.T, cond bool, format string, args ...any) {
	if !cond {
		t.Fatalf(fmt.Sprintf("%v %s", cond, format), args...)
	}
}

func assembleAndLoad(t *testing.T, source string) *Interpreter {
	program, err := asm.Assemble("test.svm", strings.NewReader(source))
	assert(t, err == nil, "failed to assemble: %v", err)

	interp := New()
	interp.Load(program)
	return interp
}

// A failed ICmp (lhs < rhs) takes no branch and falls through to the
// instruction after the Jcc, landing on a fresh Int(0).
func TestICmpFallsThroughOnNoBranch(t *testing.T) {
	interp := assembleAndLoad(t, `
		push 0
		push 1
		icmp
		je L
		push 0
	L:
	`)
	err := interp.RunProgram()
	assert(t, err == nil, "unexpected exception: %v", err)

	result, err := interp.GetResult()
	assert(t, err == nil, "GetResult failed: %v", err)
	assert(t, result.Kind == ResultU32, "expected ResultU32, got %v", result.Kind)
	assert(t, result.U32 == 0, "expected 0, got %d", result.U32)
}

// New/copy/TStore/TLoad round-trips a value through an unmanaged
// allocation. TStore requires the value on top and the pointer directly
// beneath it, which is exactly the order copy-then-push leaves them in.
func TestUnmanagedTStoreTLoadRoundTrip(t *testing.T) {
	interp := assembleAndLoad(t, `
		new int
		copy
		push 42
		tstore
		tload
	`)
	err := interp.RunProgram()
	assert(t, err == nil, "unexpected exception: %v", err)

	result, err := interp.GetResult()
	assert(t, err == nil, "GetResult failed: %v", err)
	assert(t, result.Kind == ResultU32, "expected ResultU32, got %v", result.Kind)
	assert(t, result.U32 == 42, "expected 42, got %d", result.U32)
}

// New followed immediately by Delete leaves nothing behind and raises no
// exception.
func TestUnmanagedNewThenDelete(t *testing.T) {
	interp := assembleAndLoad(t, `
		new int
		delete
	`)
	err := interp.RunProgram()
	assert(t, err == nil, "unexpected exception: %v", err)

	result, err := interp.GetResult()
	assert(t, err == nil, "GetResult failed: %v", err)
	assert(t, result.Kind == ResultEmpty, "expected ResultEmpty, got %v", result.Kind)
}

// Calling a two-argument function adopts the already-pushed arguments as
// locals 0 and 1 in push order, and its result is re-pushed onto the
// caller's stack on RET.
func TestFunctionCallAddsArguments(t *testing.T) {
	interp := assembleAndLoad(t, `
		.func add2 arity=2 result
			load 0
			load 1
			add
			ret
		.endfunc

		push 40L
		push 2L
		call add2
	`)
	err := interp.RunProgram()
	assert(t, err == nil, "unexpected exception: %v", err)

	result, err := interp.GetResult()
	assert(t, err == nil, "GetResult failed: %v", err)
	assert(t, result.Kind == ResultU64, "expected ResultU64, got %v", result.Kind)
	assert(t, result.U64 == 42, "expected 42, got %d", result.U64)
}

// Dividing by zero raises a DivideByZero exception with a one-deep call
// stack (the root frame only).
func TestDivideByZeroRaisesException(t *testing.T) {
	interp := assembleAndLoad(t, `
		push 10
		push 0
		div
	`)
	err := interp.RunProgram()
	assert(t, err != nil, "expected an exception, got nil")

	exc, ok := err.(*Exception)
	assert(t, ok, "expected *Exception, got %T", err)
	assert(t, exc.Code == DivideByZero, "expected DivideByZero, got %v", exc.Code)

	stacks := interp.GetCallStacks()
	assert(t, len(stacks) == 1, "expected call stack depth 1, got %d", len(stacks))
}

// FLea on a heap-allocated structure addresses a field by adding its
// offset to the structure's own pointer; TStore/TLoad through that field
// pointer round-trip a Long stored at a non-zero offset.
func TestStructureFieldThroughHeapPointer(t *testing.T) {
	interp := assembleAndLoad(t, `
		.struct S
			i int
			l long
		.endstruct

		new S
		copy
		flea 1
		push 7L
		tstore
		copy
		flea 1
		tload
	`)
	err := interp.RunProgram()
	assert(t, err == nil, "unexpected exception: %v", err)

	result, err := interp.GetResult()
	assert(t, err == nil, "GetResult failed: %v", err)
	assert(t, result.Kind == ResultU64, "expected ResultU64, got %v", result.Kind)
	assert(t, result.U64 == 7, "expected 7, got %d", result.U64)
}

// A label may resolve both forward (to a later instruction) and backward
// (to an earlier one); this listing loops forever once started, so it is
// traced three steps at a time rather than run to completion.
func TestLabelsResolveForwardAndBackward(t *testing.T) {
	interp := assembleAndLoad(t, `
		jmp L2
	L1:
		push 1
	L2:
		jmp L1
	`)

	for i := 0; i < 3; i++ {
		ok := interp.step()
		assert(t, ok, "step %d: unexpected halt or exception", i)
	}

	buf, ok := interp.stk.TopBytes()
	assert(t, ok, "expected a value on the stack after 3 steps")
	assert(t, objects.DecodeTagCode(buf) == types.Int, "expected Int on top, got %v", objects.DecodeTagCode(buf))
	assert(t, objects.GetInt(buf) == 1, "expected top value 1, got %d", objects.GetInt(buf))
}

// A stack-resident local's address is a real byte offset, so Lea/Store
// still work identically to the heap case once a value has been bound as
// a local. Lea pushes the pointer after the value, so a swap is needed to
// put the value back on top before TStore.
func TestLeaAndStoreOnLocal(t *testing.T) {
	interp := assembleAndLoad(t, `
		push 1
		store 0
		push 99
		lea 0
		swap
		tstore
		load 0
	`)
	err := interp.RunProgram()
	assert(t, err == nil, "unexpected exception: %v", err)

	result, err := interp.GetResult()
	assert(t, err == nil, "GetResult failed: %v", err)
	assert(t, result.Kind == ResultU32, "expected ResultU32, got %v", result.Kind)
	assert(t, result.U32 == 99, "expected 99, got %d", result.U32)
}

// Popping an empty stack raises StackEmpty rather than panicking.
func TestPopEmptyStackRaisesException(t *testing.T) {
	interp := assembleAndLoad(t, `pop`)
	err := interp.RunProgram()
	assert(t, err != nil, "expected an exception, got nil")

	exc, ok := err.(*Exception)
	assert(t, ok, "expected *Exception, got %T", err)
	assert(t, exc.Code == StackEmpty, "expected StackEmpty, got %v", exc.Code)
}

// PushStructure and CopyStructure(new) build and duplicate a
// stack-resident structure; CopyStructure(to) copies between two
// managed-heap structures.
func TestStructureCopyOperations(t *testing.T) {
	interp := assembleAndLoad(t, `
		.struct pair
			a int
			b int
		.endstruct

		pushstructure pair
		copystructure pair

		gcnew pair
		gcnew pair
		copystructureto
	`)
	err := interp.RunProgram()
	assert(t, err == nil, "unexpected exception: %v", err)
}

// ToL converts an Int to a Long, widening its payload from 4 to 8 bytes;
// ToD/ToI round back through a Double.
func TestConversionsChain(t *testing.T) {
	interp := assembleAndLoad(t, `
		push 7
		tol
		tod
		toi
	`)
	err := interp.RunProgram()
	assert(t, err == nil, "unexpected exception: %v", err)

	result, err := interp.GetResult()
	assert(t, err == nil, "GetResult failed: %v", err)
	assert(t, result.Kind == ResultU32, "expected ResultU32, got %v", result.Kind)
	assert(t, result.U32 == 7, "expected 7, got %d", result.U32)
}

// ToI/ToL extract a GCPointer's numeric address the same way they do for
// an unmanaged Pointer.
func TestConvertGCPointerToInt(t *testing.T) {
	interp := assembleAndLoad(t, `
		.struct box
			v int
		.endstruct

		gcnew box
		toi
	`)
	err := interp.RunProgram()
	assert(t, err == nil, "unexpected exception: %v", err)

	result, err := interp.GetResult()
	assert(t, err == nil, "GetResult failed: %v", err)
	assert(t, result.Kind == ResultU32, "expected ResultU32, got %v", result.Kind)
}

// Converting a Double to a Pointer has no defined meaning and is a type
// error rather than a silent bit-reinterpretation.
func TestConvertDoubleToPointerIsAnError(t *testing.T) {
	interp := assembleAndLoad(t, `
		push 1.5
		top
	`)
	err := interp.RunProgram()
	assert(t, err != nil, "expected an exception, got nil")

	exc, ok := err.(*Exception)
	assert(t, ok, "expected *Exception, got %T", err)
	assert(t, exc.Code == StackDifferentType, "expected StackDifferentType, got %v", exc.Code)
}

// Clear lets the interpreter run again after an exception was recorded.
func TestClearAllowsRerunAfterException(t *testing.T) {
	interp := assembleAndLoad(t, `pop`)
	err := interp.RunProgram()
	assert(t, err != nil, "expected an exception on first run")
	assert(t, interp.GetException() != nil, "expected a recorded exception")

	interp.Clear()
	assert(t, interp.GetException() == nil, "Clear should drop the recorded exception")
}
