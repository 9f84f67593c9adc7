package svm

import (
	"svm/objects"
	"svm/types"
)

// execPushStructure allocates a new, zero-initialized instance of the
// structure named by code directly on the stack.
func (interp *Interpreter) execPushStructure(code uint32) bool {
	t, err := interp.program.TypeFromCode(types.Code(code))
	if err != nil || !t.IsStructure() {
		return interp.raise(TypeOutOfRange)
	}
	buf, ok := interp.stk.Reserve(t.Size)
	if !ok {
		return interp.raise(StackOverflow)
	}
	objects.InitStructure(buf, t)
	return true
}

// execCopyStructureNew validates the top object against the expected
// structure code, then duplicates it into a freshly reserved slot.
func (interp *Interpreter) execCopyStructureNew(code uint32) bool {
	t, err := interp.program.TypeFromCode(types.Code(code))
	if err != nil || !t.IsStructure() {
		return interp.raise(TypeOutOfRange)
	}
	top, ok := interp.stk.TopBytes()
	if !ok {
		return interp.raise(StackEmpty)
	}
	topType, err := objects.DecodeType(top, interp.program.Structures)
	if err != nil {
		return interp.raise(TypeOutOfRange)
	}
	if topType.Code != t.Code {
		return interp.raise(InvalidForStructure)
	}
	srcCopy := append([]byte(nil), top...)
	dst, ok := interp.stk.Reserve(t.Size)
	if !ok {
		return interp.raise(StackOverflow)
	}
	objects.CopyStructure(dst, srcCopy, t.Size)
	return true
}

// execCopyStructureTo pops two pointers (source beneath, destination on
// top), both of the same structure type, and overwrites the destination
// with a copy of the source.
func (interp *Interpreter) execCopyStructureTo() bool {
	toBuf, ok := interp.stk.TopBytes()
	if !ok {
		return interp.raise(StackEmpty)
	}
	fromBuf, ok := interp.stk.NthFromTop(1)
	if !ok {
		return interp.raise(StackEmpty)
	}
	toTag := objects.DecodeTagCode(toBuf)
	fromTag := objects.DecodeTagCode(fromBuf)
	if (toTag != types.Pointer && toTag != types.GCPointer) ||
		(fromTag != types.Pointer && fromTag != types.GCPointer) {
		return interp.raise(InvalidForPointer)
	}
	toAddr := objects.GetAddress(toBuf)
	fromAddr := objects.GetAddress(fromBuf)

	toRegion, code, ok := interp.resolveAddress(toAddr, toTag == types.GCPointer)
	if !ok {
		return interp.raise(code)
	}
	fromRegion, code, ok := interp.resolveAddress(fromAddr, fromTag == types.GCPointer)
	if !ok {
		return interp.raise(code)
	}
	toType, err := objects.DecodeType(toRegion, interp.program.Structures)
	if err != nil {
		return interp.raise(TypeOutOfRange)
	}
	fromType, err := objects.DecodeType(fromRegion, interp.program.Structures)
	if err != nil {
		return interp.raise(TypeOutOfRange)
	}
	if toType.Code != fromType.Code || !toType.IsStructure() {
		return interp.raise(StackDifferentType)
	}

	srcCopy := append([]byte(nil), fromRegion[:fromType.Size]...)
	objects.CopyStructure(toRegion, srcCopy, toType.Size)

	interp.stk.Pop()
	interp.stk.Pop()
	interp.pruneLocals()
	return true
}
