// Package objects implements the concrete in-memory representation of
// every typed value the engine manipulates: a Type tag followed by its
// payload, laid out as raw bytes so the stack and heap can move, copy and
// inspect values without runtime polymorphism.
package objects

import (
	"encoding/binary"
	"fmt"
	"math"

	"svm/types"
)

// order is the single endianness used for every payload in the engine.
var order = binary.LittleEndian

// EncodeTag writes t's Type tag (TagSize bytes) to the front of buf.
func EncodeTag(t *types.Type, buf []byte) {
	order.PutUint32(buf[0:4], uint32(t.Code))
	var idx uint32
	if t.Code >= types.FirstStructure {
		idx = uint32(t.Code - types.FirstStructure)
	}
	order.PutUint32(buf[4:8], idx)
}

// DecodeTagCode reads only the Code half of the tag at the front of buf.
func DecodeTagCode(buf []byte) types.Code {
	return types.Code(order.Uint32(buf[0:4]))
}

// DecodeType reads the full tag at the front of buf and resolves it
// against the given structure table.
func DecodeType(buf []byte, structures []*types.Type) (*types.Type, error) {
	return types.GetTypeFromTypeCode(structures, DecodeTagCode(buf))
}

// --- Int ---

func PutInt(buf []byte, v uint32) {
	EncodeTag(types.IntType, buf)
	order.PutUint32(buf[types.TagSize:], v)
}

func GetInt(buf []byte) uint32 {
	return order.Uint32(buf[types.TagSize:])
}

func SetIntPayload(buf []byte, v uint32) {
	order.PutUint32(buf[types.TagSize:], v)
}

// --- Long ---

func PutLong(buf []byte, v uint64) {
	EncodeTag(types.LongType, buf)
	order.PutUint64(buf[types.TagSize:], v)
}

func GetLong(buf []byte) uint64 {
	return order.Uint64(buf[types.TagSize:])
}

func SetLongPayload(buf []byte, v uint64) {
	order.PutUint64(buf[types.TagSize:], v)
}

// --- Double ---

func PutDouble(buf []byte, v float64) {
	EncodeTag(types.DoubleType, buf)
	order.PutUint64(buf[types.TagSize:], math.Float64bits(v))
}

func GetDouble(buf []byte) float64 {
	return math.Float64frombits(order.Uint64(buf[types.TagSize:]))
}

func SetDoublePayload(buf []byte, v float64) {
	order.PutUint64(buf[types.TagSize:], math.Float64bits(v))
}

// --- Pointer / GCPointer ---
//
// Addresses are opaque uint64 handles, never real process pointers. A
// Pointer names either a stack offset (below heap.Base) or an unmanaged
// heap address; a GCPointer names a managed heap address. Dereferencing
// always goes through the owning stack or heap.

func PutPointer(buf []byte, addr uint64) {
	EncodeTag(types.PointerType, buf)
	order.PutUint64(buf[types.TagSize:], addr)
}

func PutGCPointer(buf []byte, addr uint64) {
	EncodeTag(types.GCPointerType, buf)
	order.PutUint64(buf[types.TagSize:], addr)
}

func GetAddress(buf []byte) uint64 {
	return order.Uint64(buf[types.TagSize:])
}

func SetAddressPayload(buf []byte, addr uint64) {
	order.PutUint64(buf[types.TagSize:], addr)
}

// --- Structures and arrays ---

// InitStructure zero-fills buf[:st.Size] and writes the Type tag for st
// and for every field in declared order, recursing into nested structures
// and array fields. Payload bytes are left at zero; only tags are
// meaningful after InitStructure returns. Used identically whether buf
// backs a stack slot or a heap allocation.
func InitStructure(buf []byte, st *types.Type) {
	region := buf[:st.Size]
	for i := range region {
		region[i] = 0
	}
	EncodeTag(st, buf)
	for _, f := range st.Fields {
		initField(buf[f.Offset:], f.Type)
	}
}

func initField(buf []byte, t *types.Type) {
	switch {
	case t.IsStructure():
		EncodeTag(t, buf)
		for _, f := range t.Fields {
			initField(buf[f.Offset:], f.Type)
		}
	case t.IsArray():
		EncodeTag(t, buf)
		order.PutUint32(buf[types.TagSize:], t.Count)
		off := uint32(types.TagSize + 4)
		for i := uint32(0); i < t.Count; i++ {
			initField(buf[off:], t.Elem)
			off += t.Elem.Size
		}
	default:
		EncodeTag(t, buf)
	}
}

// CopyStructure deep-copies a structure (or array) instance of size n from
// src to dst. Because every nested field is already laid out flat at a
// fixed offset inside the outer instance (InitStructure's doing), copying
// the whole byte span is equivalent to recursing field-by-field - there is
// no indirection to chase.
func CopyStructure(dst, src []byte, n uint32) {
	copy(dst[:n], src[:n])
}

// String renders an object's tag and payload for diagnostics; the
// interpreter itself does not call it.
func String(buf []byte, structures []*types.Type) string {
	t, err := DecodeType(buf, structures)
	if err != nil {
		return fmt.Sprintf("<bad tag: %v>", err)
	}
	switch t.Code {
	case types.None:
		return "none"
	case types.Int:
		return fmt.Sprintf("int(%d)", GetInt(buf))
	case types.Long:
		return fmt.Sprintf("long(%d)", GetLong(buf))
	case types.Double:
		return fmt.Sprintf("double(%g)", GetDouble(buf))
	case types.Pointer:
		return fmt.Sprintf("pointer(0x%x)", GetAddress(buf))
	case types.GCPointer:
		return fmt.Sprintf("gcpointer(0x%x)", GetAddress(buf))
	default:
		return fmt.Sprintf("%s(...)", t.Name)
	}
}
