// Package svm is the interpreter engine: it holds a loaded
// program image, a typed stack and two heaps, and drives a flat
// dispatch-loop switch over Opcode until the root frame halts, an
// exception is raised, or the root instruction stream runs out.
package svm

import (
	"svm/heap"
	"svm/image"
	"svm/objects"
	"svm/stack"
	"svm/types"
)

// DefaultStackBytes is the stack size allocate_stack uses when the
// caller doesn't ask for a specific size.
const DefaultStackBytes = 1 << 20

// Interpreter is the engine. It owns its stack and heaps outright; no
// cross-instance sharing.
type Interpreter struct {
	program image.Program

	stk       *stack.Stack
	unmanaged *heap.UnmanagedHeap
	managed   *heap.ManagedHeap

	frames []frame
	locals []uint32 // LocalVariables: absolute stack offsets of every live local, across all active frames

	exception *Exception
}

// New builds an interpreter with a default-sized stack and empty heaps.
// Load must be called before Interpret.
func New() *Interpreter {
	return &Interpreter{
		stk:       stack.New(DefaultStackBytes),
		unmanaged: heap.NewUnmanagedHeap(0),
		managed:   heap.NewManagedHeap(),
	}
}

// AllocateStack (re)sizes the stack, discarding its current contents.
func (interp *Interpreter) AllocateStack(bytes uint32) {
	if bytes == 0 {
		bytes = DefaultStackBytes
	}
	interp.stk = stack.New(bytes)
}

// Load replaces the current program image and clears the stack, frame
// list, local variables and exception state.
func (interp *Interpreter) Load(program image.Program) {
	interp.program = program
	interp.stk = stack.New(interp.stk.Capacity())
	interp.frames = []frame{rootFrame(&interp.program.TopLevel)}
	interp.locals = nil
	interp.exception = nil
}

func (interp *Interpreter) curFrame() *frame {
	return &interp.frames[len(interp.frames)-1]
}

// Interpret runs until the root frame halts, an exception is raised, or
// the root stream is exhausted without an explicit RET (also a normal
// halt - RET at the root is itself only the early-exit form of the same
// thing). Re-entrant after an exception requires Clear first.
func (interp *Interpreter) Interpret() error {
	for {
		f := interp.curFrame()
		instr, ok := f.instructions.At(int(f.instrIndex))
		if !ok {
			if f.callerFrame == rootCaller {
				return nil
			}
			interp.raise(NoRetInstruction)
			return interp.exception
		}
		f.instrIndex++
		if !interp.dispatch(instr) {
			if interp.exception != nil {
				return interp.exception
			}
			return nil
		}
	}
}

// Clear drops a recorded exception so Interpret may run again: the
// interpreter is re-entrant after an exception only once the caller
// clears it first.
func (interp *Interpreter) Clear() {
	interp.exception = nil
}

func (interp *Interpreter) GetException() *Exception {
	return interp.exception
}

func (interp *Interpreter) GetCallStacks() []CallStackEntry {
	return interp.snapshotCallStacks()
}

// GetResult coerces the root frame's top of stack per its type tag, or
// reports ResultEmpty if the root has nothing on top.
func (interp *Interpreter) GetResult() (Result, error) {
	buf, ok := interp.stk.TopBytes()
	if !ok {
		return Result{Kind: ResultEmpty}, nil
	}
	t, err := objects.DecodeType(buf, interp.program.Structures)
	if err != nil {
		return Result{}, err
	}
	switch t.Code {
	case types.None:
		return Result{Kind: ResultEmpty}, nil
	case types.Int:
		return Result{Kind: ResultU32, U32: objects.GetInt(buf)}, nil
	case types.Long:
		return Result{Kind: ResultU64, U64: objects.GetLong(buf)}, nil
	case types.Double:
		return Result{Kind: ResultDouble, Double: objects.GetDouble(buf)}, nil
	case types.Pointer, types.GCPointer:
		return Result{Kind: ResultAddress, Address: objects.GetAddress(buf)}, nil
	default:
		cp := append([]byte(nil), buf...)
		return Result{Kind: ResultStructure, StructureBytes: cp}, nil
	}
}

// raise records a fault and stops the dispatch loop. It always returns
// false so instruction handlers can write `return interp.raise(Code)`.
func (interp *Interpreter) raise(code ExceptionCode) bool {
	f := interp.curFrame()
	instrIdx := f.instrIndex
	if instrIdx > 0 {
		instrIdx--
	}
	interp.exception = &Exception{
		Code:        code,
		Instruction: instrIdx,
		Depth:       len(interp.frames),
		CallStacks:  interp.snapshotCallStacks(),
	}
	return false
}

func (interp *Interpreter) snapshotCallStacks() []CallStackEntry {
	entries := make([]CallStackEntry, len(interp.frames))
	for i, fr := range interp.frames {
		var fn *uint32
		if fr.functionIndex != noFunction {
			idx := uint32(fr.functionIndex)
			fn = &idx
		}
		entries[i] = CallStackEntry{FunctionIndex: fn, Instruction: fr.instrIndex}
	}
	return entries
}

// resolveAddress dispatches a Pointer/GCPointer payload to its owning
// arena: stack offsets below the heap's Base partition index directly
// into the stack's backing array, addresses at or above it index the
// unmanaged heap, and managed addresses always index the managed heap
// (GCPointer never shares the unmanaged/stack space).
func (interp *Interpreter) resolveAddress(addr uint64, managed bool) ([]byte, ExceptionCode, bool) {
	if addr == 0 {
		return nil, NullPointer, false
	}
	if managed {
		buf, ok := interp.managed.At(addr)
		if !ok {
			return nil, UnknownAddress, false
		}
		return buf, 0, true
	}
	if addr >= heap.Base {
		buf, ok := interp.unmanaged.At(addr)
		if !ok {
			return nil, UnknownAddress, false
		}
		return buf, 0, true
	}
	if addr >= uint64(interp.stk.Capacity()) {
		return nil, UnknownAddress, false
	}
	return interp.stk.Raw()[addr:], 0, true
}
