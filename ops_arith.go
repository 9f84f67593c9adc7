package svm

import (
	"svm/image"
	"svm/objects"
	"svm/types"
)

// popTwoSameType pops the top two objects, requiring identical type codes,
// and returns their raw bytes (oldest popped second) as independent copies
// since both slots get reused the moment anything else is pushed.
func (interp *Interpreter) popTwoSameType() ([]byte, []byte, *types.Type, bool) {
	rhsBuf, ok := interp.stk.TopBytes()
	if !ok {
		interp.raise(StackEmpty)
		return nil, nil, nil, false
	}
	lhsBuf, ok := interp.stk.NthFromTop(1)
	if !ok {
		interp.raise(StackEmpty)
		return nil, nil, nil, false
	}
	rhsType, err := objects.DecodeType(rhsBuf, interp.program.Structures)
	if err != nil {
		interp.raise(TypeOutOfRange)
		return nil, nil, nil, false
	}
	lhsType, err := objects.DecodeType(lhsBuf, interp.program.Structures)
	if err != nil {
		interp.raise(TypeOutOfRange)
		return nil, nil, nil, false
	}
	if rhsType.Code != lhsType.Code {
		interp.raise(StackDifferentType)
		return nil, nil, nil, false
	}
	rhs := append([]byte(nil), rhsBuf...)
	lhs := append([]byte(nil), lhsBuf...)
	interp.stk.Pop()
	interp.stk.Pop()
	interp.pruneLocals()
	return lhs, rhs, rhsType, true
}

// execBinary handles Add/Sub/Mul/IMul/Div/IDiv/Mod/IMod/And/Or/Xor: both
// operands pop as one type, and the I-variants of multiply/divide/modulo
// reinterpret the payload as signed.
func (interp *Interpreter) execBinary(op image.Opcode) bool {
	lhs, rhs, t, ok := interp.popTwoSameType()
	if !ok {
		return false
	}
	switch t.Code {
	case types.Int:
		return interp.binaryInt(op, objects.GetInt(lhs), objects.GetInt(rhs))
	case types.Long:
		return interp.binaryLong(op, objects.GetLong(lhs), objects.GetLong(rhs))
	case types.Double:
		return interp.binaryDouble(op, objects.GetDouble(lhs), objects.GetDouble(rhs))
	default:
		return interp.raise(StackDifferentType)
	}
}

func (interp *Interpreter) binaryInt(op image.Opcode, a, b uint32) bool {
	switch op {
	case image.OpAdd:
		return interp.pushInt(a + b)
	case image.OpSub:
		return interp.pushInt(a - b)
	case image.OpMul, image.OpIMul:
		return interp.pushInt(a * b)
	case image.OpDiv:
		if b == 0 {
			return interp.raise(DivideByZero)
		}
		return interp.pushInt(a / b)
	case image.OpIDiv:
		if b == 0 {
			return interp.raise(DivideByZero)
		}
		return interp.pushInt(uint32(int32(a) / int32(b)))
	case image.OpMod:
		if b == 0 {
			return interp.raise(DivideByZero)
		}
		return interp.pushInt(a % b)
	case image.OpIMod:
		if b == 0 {
			return interp.raise(DivideByZero)
		}
		return interp.pushInt(uint32(int32(a) % int32(b)))
	case image.OpAnd:
		return interp.pushInt(a & b)
	case image.OpOr:
		return interp.pushInt(a | b)
	case image.OpXor:
		return interp.pushInt(a ^ b)
	default:
		return interp.raise(StackDifferentType)
	}
}

func (interp *Interpreter) binaryLong(op image.Opcode, a, b uint64) bool {
	switch op {
	case image.OpAdd:
		return interp.pushLong(a + b)
	case image.OpSub:
		return interp.pushLong(a - b)
	case image.OpMul, image.OpIMul:
		return interp.pushLong(a * b)
	case image.OpDiv:
		if b == 0 {
			return interp.raise(DivideByZero)
		}
		return interp.pushLong(a / b)
	case image.OpIDiv:
		if b == 0 {
			return interp.raise(DivideByZero)
		}
		return interp.pushLong(uint64(int64(a) / int64(b)))
	case image.OpMod:
		if b == 0 {
			return interp.raise(DivideByZero)
		}
		return interp.pushLong(a % b)
	case image.OpIMod:
		if b == 0 {
			return interp.raise(DivideByZero)
		}
		return interp.pushLong(uint64(int64(a) % int64(b)))
	case image.OpAnd:
		return interp.pushLong(a & b)
	case image.OpOr:
		return interp.pushLong(a | b)
	case image.OpXor:
		return interp.pushLong(a ^ b)
	default:
		return interp.raise(StackDifferentType)
	}
}

// binaryDouble rejects Mod/IMod and the bitwise ops outright: there is no
// well-defined modulo or bit pattern for a floating point payload here, so
// this is a type error rather than a silent truncating conversion.
func (interp *Interpreter) binaryDouble(op image.Opcode, a, b float64) bool {
	switch op {
	case image.OpAdd:
		return interp.pushDouble(a + b)
	case image.OpSub:
		return interp.pushDouble(a - b)
	case image.OpMul, image.OpIMul:
		return interp.pushDouble(a * b)
	case image.OpDiv, image.OpIDiv:
		if b == 0 {
			return interp.raise(DivideByZero)
		}
		return interp.pushDouble(a / b)
	default:
		return interp.raise(StackDifferentType)
	}
}

// execShift handles Shl/Sal/Shr/Sar: an Int shift count on top, the value
// to shift (Int or Long) just below it.
func (interp *Interpreter) execShift(op image.Opcode) bool {
	countBuf, ok := interp.stk.TopBytes()
	if !ok {
		return interp.raise(StackEmpty)
	}
	valBuf, ok := interp.stk.NthFromTop(1)
	if !ok {
		return interp.raise(StackEmpty)
	}
	countType, err := objects.DecodeType(countBuf, interp.program.Structures)
	if err != nil || countType.Code != types.Int {
		return interp.raise(StackDifferentType)
	}
	valType, err := objects.DecodeType(valBuf, interp.program.Structures)
	if err != nil {
		return interp.raise(TypeOutOfRange)
	}
	count := objects.GetInt(countBuf)
	valCopy := append([]byte(nil), valBuf...)

	interp.stk.Pop()
	interp.stk.Pop()
	interp.pruneLocals()

	switch valType.Code {
	case types.Int:
		v := objects.GetInt(valCopy)
		n := count & 31
		switch op {
		case image.OpShl, image.OpSal:
			return interp.pushInt(v << n)
		case image.OpShr:
			return interp.pushInt(v >> n)
		case image.OpSar:
			return interp.pushInt(uint32(int32(v) >> n))
		}
	case types.Long:
		v := objects.GetLong(valCopy)
		n := uint64(count) & 63
		switch op {
		case image.OpShl, image.OpSal:
			return interp.pushLong(v << n)
		case image.OpShr:
			return interp.pushLong(v >> n)
		case image.OpSar:
			return interp.pushLong(uint64(int64(v) >> n))
		}
	}
	return interp.raise(StackDifferentType)
}

// execNeg negates the top numeric value in place.
func (interp *Interpreter) execNeg() bool {
	buf, ok := interp.stk.TopBytes()
	if !ok {
		return interp.raise(StackEmpty)
	}
	t, err := objects.DecodeType(buf, interp.program.Structures)
	if err != nil {
		return interp.raise(TypeOutOfRange)
	}
	switch t.Code {
	case types.Int:
		objects.SetIntPayload(buf, uint32(-int32(objects.GetInt(buf))))
	case types.Long:
		objects.SetLongPayload(buf, uint64(-int64(objects.GetLong(buf))))
	case types.Double:
		objects.SetDoublePayload(buf, -objects.GetDouble(buf))
	default:
		return interp.raise(StackDifferentType)
	}
	return true
}

// execNot flips every bit of the top Int or Long in place.
func (interp *Interpreter) execNot() bool {
	buf, ok := interp.stk.TopBytes()
	if !ok {
		return interp.raise(StackEmpty)
	}
	t, err := objects.DecodeType(buf, interp.program.Structures)
	if err != nil {
		return interp.raise(TypeOutOfRange)
	}
	switch t.Code {
	case types.Int:
		objects.SetIntPayload(buf, ^objects.GetInt(buf))
	case types.Long:
		objects.SetLongPayload(buf, ^objects.GetLong(buf))
	default:
		return interp.raise(StackDifferentType)
	}
	return true
}

// execIncDec adds delta (positive for Inc, negative for Dec) to the top
// numeric value in place.
func (interp *Interpreter) execIncDec(delta int64) bool {
	buf, ok := interp.stk.TopBytes()
	if !ok {
		return interp.raise(StackEmpty)
	}
	t, err := objects.DecodeType(buf, interp.program.Structures)
	if err != nil {
		return interp.raise(TypeOutOfRange)
	}
	switch t.Code {
	case types.Int:
		objects.SetIntPayload(buf, uint32(int64(int32(objects.GetInt(buf)))+delta))
	case types.Long:
		objects.SetLongPayload(buf, uint64(int64(objects.GetLong(buf))+delta))
	case types.Double:
		objects.SetDoublePayload(buf, objects.GetDouble(buf)+float64(delta))
	default:
		return interp.raise(StackDifferentType)
	}
	return true
}

// execCmp pops two same-type values (numeric or pointer) and pushes an Int
// of -1/0/1. signed selects ICmp's signed interpretation of Int/Long.
func (interp *Interpreter) execCmp(signed bool) bool {
	lhs, rhs, t, ok := interp.popTwoSameType()
	if !ok {
		return false
	}
	var cmp int
	switch t.Code {
	case types.Int:
		a, b := objects.GetInt(lhs), objects.GetInt(rhs)
		if signed {
			cmp = compareInt32(int32(a), int32(b))
		} else {
			cmp = compareUint32(a, b)
		}
	case types.Long:
		a, b := objects.GetLong(lhs), objects.GetLong(rhs)
		if signed {
			cmp = compareInt64(int64(a), int64(b))
		} else {
			cmp = compareUint64(a, b)
		}
	case types.Double:
		cmp = compareFloat64(objects.GetDouble(lhs), objects.GetDouble(rhs))
	case types.Pointer, types.GCPointer:
		cmp = compareUint64(objects.GetAddress(lhs), objects.GetAddress(rhs))
	default:
		return interp.raise(StackDifferentType)
	}
	return interp.pushInt(uint32(int32(cmp)))
}
