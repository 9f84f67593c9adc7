package svm

import (
	"svm/objects"
	"svm/types"
)

// execConvert replaces the top value with its conversion to target,
// reinterpreting Int/Long/Double numerically and Pointer/GCPointer as a
// raw address. ToI/ToL accept either pointer kind, extracting its numeric
// address; ToP only accepts Pointer itself, since a GCPointer's address is
// never meaningful as an unmanaged pointer. Combinations with no defined
// meaning (Double<->Pointer) are a type error rather than a silent
// bit-reinterpretation.
func (interp *Interpreter) execConvert(target types.Code) bool {
	buf, ok := interp.stk.TopBytes()
	if !ok {
		return interp.raise(StackEmpty)
	}
	t, err := objects.DecodeType(buf, interp.program.Structures)
	if err != nil {
		return interp.raise(TypeOutOfRange)
	}

	var newSize uint32
	var write func(dst []byte)

	switch target {
	case types.Int:
		newSize = types.IntType.Size
		switch t.Code {
		case types.Int:
			v := objects.GetInt(buf)
			write = func(dst []byte) { objects.PutInt(dst, v) }
		case types.Long:
			v := uint32(objects.GetLong(buf))
			write = func(dst []byte) { objects.PutInt(dst, v) }
		case types.Double:
			v := uint32(int64(objects.GetDouble(buf)))
			write = func(dst []byte) { objects.PutInt(dst, v) }
		case types.Pointer, types.GCPointer:
			v := uint32(objects.GetAddress(buf))
			write = func(dst []byte) { objects.PutInt(dst, v) }
		}
	case types.Long:
		newSize = types.LongType.Size
		switch t.Code {
		case types.Int:
			v := uint64(objects.GetInt(buf))
			write = func(dst []byte) { objects.PutLong(dst, v) }
		case types.Long:
			v := objects.GetLong(buf)
			write = func(dst []byte) { objects.PutLong(dst, v) }
		case types.Double:
			v := uint64(int64(objects.GetDouble(buf)))
			write = func(dst []byte) { objects.PutLong(dst, v) }
		case types.Pointer, types.GCPointer:
			v := objects.GetAddress(buf)
			write = func(dst []byte) { objects.PutLong(dst, v) }
		}
	case types.Double:
		newSize = types.DoubleType.Size
		switch t.Code {
		case types.Int:
			v := float64(objects.GetInt(buf))
			write = func(dst []byte) { objects.PutDouble(dst, v) }
		case types.Long:
			v := float64(objects.GetLong(buf))
			write = func(dst []byte) { objects.PutDouble(dst, v) }
		case types.Double:
			v := objects.GetDouble(buf)
			write = func(dst []byte) { objects.PutDouble(dst, v) }
		}
	case types.Pointer:
		newSize = types.PointerType.Size
		switch t.Code {
		case types.Int:
			v := uint64(objects.GetInt(buf))
			write = func(dst []byte) { objects.PutPointer(dst, v) }
		case types.Long:
			v := objects.GetLong(buf)
			write = func(dst []byte) { objects.PutPointer(dst, v) }
		case types.Pointer:
			v := objects.GetAddress(buf)
			write = func(dst []byte) { objects.PutPointer(dst, v) }
		}
	}

	if write == nil {
		return interp.raise(StackDifferentType)
	}

	interp.stk.Pop()
	interp.pruneLocals()
	dst, ok := interp.stk.Reserve(newSize)
	if !ok {
		return interp.raise(StackOverflow)
	}
	write(dst)
	return true
}
