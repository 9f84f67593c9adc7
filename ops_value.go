package svm

import (
	"svm/objects"
	"svm/types"
)

// execPush decodes the constant pool entry at operand and pushes the
// matching fundamental object.
func (interp *Interpreter) execPush(operand uint32) bool {
	t, err := interp.program.Constants.TypeOf(operand)
	if err != nil {
		return interp.raise(ConstantPoolOutOfRange)
	}
	switch t.Code {
	case types.Int:
		return interp.pushInt(interp.program.Constants.Int(operand))
	case types.Long:
		return interp.pushLong(interp.program.Constants.Long(operand))
	case types.Double:
		return interp.pushDouble(interp.program.Constants.Double(operand))
	default:
		return interp.raise(ConstantPoolOutOfRange)
	}
}

// execPop removes the top object outright. If it was a bound local's
// backing bytes, pruneLocals drops the now-dangling variable entry as a
// byproduct - popping and unbinding are the same act, not two.
func (interp *Interpreter) execPop() bool {
	if _, ok := interp.stk.Pop(); !ok {
		return interp.raise(StackEmpty)
	}
	interp.pruneLocals()
	return true
}

func (interp *Interpreter) localOffset(v uint32) (uint32, bool) {
	f := interp.curFrame()
	idx := f.variableBegin + int(v)
	if idx < f.variableBegin || idx >= len(interp.locals) {
		return 0, false
	}
	return interp.locals[idx], true
}

// execLoad pushes a copy of local variable v's current value.
func (interp *Interpreter) execLoad(v uint32) bool {
	start, ok := interp.localOffset(v)
	if !ok {
		return interp.raise(LocalVariableOutOfRange)
	}
	t, err := interp.stk.TypeAt(start, interp.program.Structures)
	if err != nil {
		return interp.raise(TypeOutOfRange)
	}
	src, ok := interp.stk.BytesAt(start, t.Size)
	if !ok {
		return interp.raise(LocalVariableOutOfRange)
	}
	srcCopy := append([]byte(nil), src...)
	dst, ok := interp.stk.Reserve(t.Size)
	if !ok {
		return interp.raise(StackOverflow)
	}
	copy(dst, srcCopy)
	return true
}

// execStore binds the top value as local variable v, or - if v names the
// next unused slot in the current frame - adopts the top value in place as
// a brand new local without copying it. Binding an existing slot requires
// the incoming value's type to match what's already there.
func (interp *Interpreter) execStore(v uint32) bool {
	f := interp.curFrame()
	count := uint32(len(interp.locals) - f.variableBegin)

	if v == count {
		start, ok := interp.stk.TopStart()
		if !ok {
			return interp.raise(StackEmpty)
		}
		interp.locals = append(interp.locals, start)
		return true
	}
	if v > count {
		return interp.raise(LocalVariableInvalidIndex)
	}

	targetStart, _ := interp.localOffset(v)
	targetType, err := interp.stk.TypeAt(targetStart, interp.program.Structures)
	if err != nil {
		return interp.raise(TypeOutOfRange)
	}
	topBuf, ok := interp.stk.TopBytes()
	if !ok {
		return interp.raise(StackEmpty)
	}
	topType, err := objects.DecodeType(topBuf, interp.program.Structures)
	if err != nil {
		return interp.raise(TypeOutOfRange)
	}
	if topType.Code != targetType.Code {
		return interp.raise(StackDifferentType)
	}
	topCopy := append([]byte(nil), topBuf[:targetType.Size]...)
	dst, ok := interp.stk.BytesAt(targetStart, targetType.Size)
	if !ok {
		return interp.raise(LocalVariableOutOfRange)
	}
	copy(dst, topCopy)
	interp.stk.Pop()
	interp.pruneLocals()
	return true
}

// execLea pushes an unmanaged Pointer to local variable v's stack slot.
func (interp *Interpreter) execLea(v uint32) bool {
	start, ok := interp.localOffset(v)
	if !ok {
		return interp.raise(LocalVariableOutOfRange)
	}
	return interp.pushPointer(uint64(start))
}

// execFLea replaces the top pointer (unmanaged or managed, to a
// structure) with a pointer of the same kind to its field-th field.
func (interp *Interpreter) execFLea(field uint32) bool {
	top, ok := interp.stk.TopBytes()
	if !ok {
		return interp.raise(StackEmpty)
	}
	tag := objects.DecodeTagCode(top)
	if tag != types.Pointer && tag != types.GCPointer {
		return interp.raise(InvalidForPointer)
	}
	addr := objects.GetAddress(top)
	region, code, ok := interp.resolveAddress(addr, tag == types.GCPointer)
	if !ok {
		return interp.raise(code)
	}
	st, err := objects.DecodeType(region, interp.program.Structures)
	if err != nil {
		return interp.raise(TypeOutOfRange)
	}
	if !st.IsStructure() || int(field) >= len(st.Fields) {
		return interp.raise(InvalidForStructure)
	}
	fieldAddr := addr + uint64(st.Fields[field].Offset)

	interp.stk.Pop()
	if tag == types.GCPointer {
		return interp.pushGCPointer(fieldAddr)
	}
	return interp.pushPointer(fieldAddr)
}

// execTLoad replaces the top pointer with a copy of the object it points
// at (through-load).
func (interp *Interpreter) execTLoad() bool {
	top, ok := interp.stk.TopBytes()
	if !ok {
		return interp.raise(StackEmpty)
	}
	tag := objects.DecodeTagCode(top)
	if tag != types.Pointer && tag != types.GCPointer {
		return interp.raise(InvalidForPointer)
	}
	addr := objects.GetAddress(top)
	region, code, ok := interp.resolveAddress(addr, tag == types.GCPointer)
	if !ok {
		return interp.raise(code)
	}
	t, err := objects.DecodeType(region, interp.program.Structures)
	if err != nil {
		return interp.raise(TypeOutOfRange)
	}
	valCopy := append([]byte(nil), region[:t.Size]...)

	interp.stk.Pop()
	dst, ok := interp.stk.Reserve(t.Size)
	if !ok {
		return interp.raise(StackOverflow)
	}
	copy(dst, valCopy)
	return true
}

// execTStore writes the value on top through the pointer one below it,
// asserting their types match, then pops both (through-store).
func (interp *Interpreter) execTStore() bool {
	valBuf, ok := interp.stk.TopBytes()
	if !ok {
		return interp.raise(StackEmpty)
	}
	ptrBuf, ok := interp.stk.NthFromTop(1)
	if !ok {
		return interp.raise(StackEmpty)
	}
	tag := objects.DecodeTagCode(ptrBuf)
	if tag != types.Pointer && tag != types.GCPointer {
		return interp.raise(InvalidForPointer)
	}
	addr := objects.GetAddress(ptrBuf)
	region, code, ok := interp.resolveAddress(addr, tag == types.GCPointer)
	if !ok {
		return interp.raise(code)
	}
	targetType, err := objects.DecodeType(region, interp.program.Structures)
	if err != nil {
		return interp.raise(TypeOutOfRange)
	}
	valType, err := objects.DecodeType(valBuf, interp.program.Structures)
	if err != nil {
		return interp.raise(TypeOutOfRange)
	}
	if valType.Code != targetType.Code {
		return interp.raise(StackDifferentType)
	}
	valCopy := append([]byte(nil), valBuf[:targetType.Size]...)
	copy(region[:targetType.Size], valCopy)

	interp.stk.Pop()
	interp.stk.Pop()
	interp.pruneLocals()
	return true
}

// execCopy duplicates the top object.
func (interp *Interpreter) execCopy() bool {
	top, ok := interp.stk.TopBytes()
	if !ok {
		return interp.raise(StackEmpty)
	}
	size := uint32(len(top))
	dst, ok := interp.stk.Reserve(size)
	if !ok {
		return interp.raise(StackOverflow)
	}
	copy(dst, top)
	return true
}

// execSwap exchanges the top two objects by value.
func (interp *Interpreter) execSwap() bool {
	if !interp.stk.SwapTop2() {
		return interp.raise(StackEmpty)
	}
	return true
}
