package svm

import (
	"svm/image"
	"svm/objects"
	"svm/types"
)

func (interp *Interpreter) execJmp(label uint32) bool {
	f := interp.curFrame()
	idx, ok := f.instructions.Label(label)
	if !ok {
		return interp.raise(LabelOutOfRange)
	}
	f.instrIndex = uint32(idx)
	return true
}

// execJcc pops an Int (the result of a prior Cmp/ICmp) and jumps if its
// sign matches the condition.
func (interp *Interpreter) execJcc(op image.Opcode, label uint32) bool {
	buf, ok := interp.stk.Pop()
	if !ok {
		return interp.raise(StackEmpty)
	}
	interp.pruneLocals()
	if objects.DecodeTagCode(buf) != types.Int {
		return interp.raise(StackDifferentType)
	}
	v := int32(objects.GetInt(buf))
	var take bool
	switch op {
	case image.OpJe:
		take = v == 0
	case image.OpJne:
		take = v != 0
	case image.OpJa:
		take = v > 0
	case image.OpJae:
		take = v >= 0
	case image.OpJb:
		take = v < 0
	case image.OpJbe:
		take = v <= 0
	}
	if !take {
		return true
	}
	f := interp.curFrame()
	idx, ok := f.instructions.Label(label)
	if !ok {
		return interp.raise(LabelOutOfRange)
	}
	f.instrIndex = uint32(idx)
	return true
}

// execCall adopts the Arity most recently pushed values as the callee's
// first local variables (no copy - they already live in the right place)
// and pushes a new frame over them.
func (interp *Interpreter) execCall(fnIndex uint32) bool {
	fn, err := interp.program.Function(fnIndex)
	if err != nil {
		return interp.raise(FunctionOutOfRange)
	}
	argStarts, ok := interp.stk.TopNStarts(int(fn.Arity))
	if !ok {
		return interp.raise(StackEmpty)
	}
	caller := interp.curFrame()
	callerInstr := caller.instrIndex - 1

	variableBegin := len(interp.locals)
	interp.locals = append(interp.locals, argStarts...)

	stackBegin := interp.stk.Used()
	if len(argStarts) > 0 {
		stackBegin = argStarts[0]
	}

	interp.frames = append(interp.frames, frame{
		functionIndex: int(fnIndex),
		instructions:  &fn.Instructions,
		hasResult:     fn.HasResult,
		stackBegin:    stackBegin,
		variableBegin: variableBegin,
		callerFrame:   len(interp.frames) - 1,
		callerInstr:   callerInstr,
	})
	return true
}

// execRet unwinds the current frame, truncating the stack back to where
// its value area began and re-pushing its result (if it has one) on top
// of the caller's stack. RET at the root is the normal halt signal,
// reported by returning false with no exception set.
func (interp *Interpreter) execRet() bool {
	f := interp.curFrame()
	if f.callerFrame == rootCaller {
		return false
	}

	var resultBuf []byte
	if f.hasResult {
		buf, ok := interp.stk.TopBytes()
		if !ok {
			return interp.raise(StackEmpty)
		}
		resultBuf = append([]byte(nil), buf...)
	}

	stackBegin, variableBegin, callerInstr := f.stackBegin, f.variableBegin, f.callerInstr

	interp.stk.TruncateTo(stackBegin)
	interp.locals = interp.locals[:variableBegin]
	interp.frames = interp.frames[:len(interp.frames)-1]

	if resultBuf != nil {
		dst, ok := interp.stk.Reserve(uint32(len(resultBuf)))
		if !ok {
			return interp.raise(StackOverflow)
		}
		copy(dst, resultBuf)
	}

	newTop := interp.curFrame()
	newTop.instrIndex = callerInstr + 1
	return true
}
