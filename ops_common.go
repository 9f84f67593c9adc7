package svm

import (
	"svm/objects"
	"svm/types"
)

// pruneLocals drops every LocalVariables entry whose recorded offset no
// longer falls inside the live stack region, so a bound local is silently
// unbound the moment the bytes backing it are popped or truncated away -
// there is no separate "unbind" step distinct from removing the bytes.
func (interp *Interpreter) pruneLocals() {
	used := interp.stk.Used()
	n := len(interp.locals)
	for n > 0 && interp.locals[n-1] >= used {
		n--
	}
	interp.locals = interp.locals[:n]
}

func (interp *Interpreter) pushInt(v uint32) bool {
	buf, ok := interp.stk.Reserve(types.IntType.Size)
	if !ok {
		return interp.raise(StackOverflow)
	}
	objects.PutInt(buf, v)
	return true
}

func (interp *Interpreter) pushLong(v uint64) bool {
	buf, ok := interp.stk.Reserve(types.LongType.Size)
	if !ok {
		return interp.raise(StackOverflow)
	}
	objects.PutLong(buf, v)
	return true
}

func (interp *Interpreter) pushDouble(v float64) bool {
	buf, ok := interp.stk.Reserve(types.DoubleType.Size)
	if !ok {
		return interp.raise(StackOverflow)
	}
	objects.PutDouble(buf, v)
	return true
}

func (interp *Interpreter) pushPointer(addr uint64) bool {
	buf, ok := interp.stk.Reserve(types.PointerType.Size)
	if !ok {
		return interp.raise(StackOverflow)
	}
	objects.PutPointer(buf, addr)
	return true
}

func (interp *Interpreter) pushGCPointer(addr uint64) bool {
	buf, ok := interp.stk.Reserve(types.GCPointerType.Size)
	if !ok {
		return interp.raise(StackOverflow)
	}
	objects.PutGCPointer(buf, addr)
	return true
}

func compareInt32(a, b int32) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareUint32(a, b uint32) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareUint64(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareFloat64(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
