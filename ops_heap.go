package svm

import (
	"svm/objects"
	"svm/types"
)

func initNew(t *types.Type, buf []byte) {
	if t.IsStructure() {
		objects.InitStructure(buf, t)
		return
	}
	objects.EncodeTag(t, buf)
}

// execNew allocates an unmanaged instance of code's type. Allocation
// failure pushes a null Pointer rather than raising - it is the caller's
// job to check for null, per the heap's own OOM contract.
func (interp *Interpreter) execNew(code uint32) bool {
	t, err := interp.program.TypeFromCode(types.Code(code))
	if err != nil || t.IsArray() {
		return interp.raise(TypeOutOfRange)
	}
	addr, ok := interp.unmanaged.Allocate(t.Size)
	if !ok {
		return interp.pushPointer(0)
	}
	buf, _ := interp.unmanaged.At(addr)
	initNew(t, buf)
	return interp.pushPointer(addr)
}

// execGCNew allocates a managed instance of code's type on the GC heap
// (collection itself is out of scope, see svm/heap).
func (interp *Interpreter) execGCNew(code uint32) bool {
	t, err := interp.program.TypeFromCode(types.Code(code))
	if err != nil || t.IsArray() {
		return interp.raise(TypeOutOfRange)
	}
	addr := interp.managed.Allocate(t, t.Size)
	buf, _ := interp.managed.At(addr)
	initNew(t, buf)
	return interp.pushGCPointer(addr)
}

// execDelete frees the unmanaged allocation the top Pointer names. A null
// pointer is a no-op; a GCPointer or any non-pointer is a type error -
// managed memory is never explicitly freed.
func (interp *Interpreter) execDelete() bool {
	buf, ok := interp.stk.TopBytes()
	if !ok {
		return interp.raise(StackEmpty)
	}
	if objects.DecodeTagCode(buf) != types.Pointer {
		return interp.raise(NotPointer)
	}
	addr := objects.GetAddress(buf)
	if addr != 0 && !interp.unmanaged.Deallocate(addr) {
		return interp.raise(UnknownAddress)
	}
	interp.stk.Pop()
	interp.pruneLocals()
	return true
}

func (interp *Interpreter) execNull() bool {
	return interp.pushPointer(0)
}

func (interp *Interpreter) execGCNull() bool {
	return interp.pushGCPointer(0)
}
