package svm

import (
	"svm/image"
	"svm/types"
)

// dispatch executes one decoded instruction. It returns true to keep the
// loop running, false to stop it - either because an exception was
// raised (interp.exception != nil) or because RET unwound past the root
// (the normal halt signal).
func (interp *Interpreter) dispatch(instr image.Instruction) bool {
	switch instr.Op {
	case image.OpNop:
		return true

	// Value operations
	case image.OpPush:
		return interp.execPush(instr.Operand)
	case image.OpPop:
		return interp.execPop()
	case image.OpLoad:
		return interp.execLoad(instr.Operand)
	case image.OpStore:
		return interp.execStore(instr.Operand)
	case image.OpLea:
		return interp.execLea(instr.Operand)
	case image.OpFLea:
		return interp.execFLea(instr.Operand)
	case image.OpTLoad:
		return interp.execTLoad()
	case image.OpTStore:
		return interp.execTStore()
	case image.OpCopy:
		return interp.execCopy()
	case image.OpSwap:
		return interp.execSwap()

	// Arithmetic / bitwise / comparison
	case image.OpAdd, image.OpSub, image.OpMul, image.OpIMul,
		image.OpDiv, image.OpIDiv, image.OpMod, image.OpIMod,
		image.OpAnd, image.OpOr, image.OpXor:
		return interp.execBinary(instr.Op)
	case image.OpShl, image.OpSal, image.OpShr, image.OpSar:
		return interp.execShift(instr.Op)
	case image.OpNeg:
		return interp.execNeg()
	case image.OpNot:
		return interp.execNot()
	case image.OpInc:
		return interp.execIncDec(int64(int32(instr.Operand)))
	case image.OpDec:
		return interp.execIncDec(-int64(int32(instr.Operand)))
	case image.OpCmp, image.OpICmp:
		return interp.execCmp(instr.Op == image.OpICmp)

	// Control flow
	case image.OpJmp:
		return interp.execJmp(instr.Operand)
	case image.OpJe, image.OpJne, image.OpJa, image.OpJae, image.OpJb, image.OpJbe:
		return interp.execJcc(instr.Op, instr.Operand)
	case image.OpCall:
		return interp.execCall(instr.Operand)
	case image.OpRet:
		return interp.execRet()

	// Structures
	case image.OpPushStructure:
		return interp.execPushStructure(instr.Operand)
	case image.OpCopyStructureNew:
		return interp.execCopyStructureNew(instr.Operand)
	case image.OpCopyStructureTo:
		return interp.execCopyStructureTo()

	// Conversions
	case image.OpToI:
		return interp.execConvert(types.Int)
	case image.OpToL:
		return interp.execConvert(types.Long)
	case image.OpToD:
		return interp.execConvert(types.Double)
	case image.OpToP:
		return interp.execConvert(types.Pointer)

	// Heap
	case image.OpNew:
		return interp.execNew(instr.Operand)
	case image.OpGCNew:
		return interp.execGCNew(instr.Operand)
	case image.OpDelete:
		return interp.execDelete()
	case image.OpNull:
		return interp.execNull()
	case image.OpGCNull:
		return interp.execGCNull()

	default:
		return interp.raise(TypeOutOfRange)
	}
}
