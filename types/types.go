// Package types defines the canonical type descriptors shared by every
// object the interpreter ever touches: the fundamental type singletons
// (None, Int, Long, Double, Pointer, GCPointer) and the user-defined
// structure layouts a loaded program contributes.
package types

import "fmt"

// Code is the stable, wire-visible identifier for a type. Fundamental
// codes are fixed; codes 10 and up address user structures by index
// (code - FirstStructure).
type Code uint32

const (
	None      Code = 0
	Int       Code = 1
	Long      Code = 2
	Double    Code = 3
	Pointer   Code = 4
	GCPointer Code = 5
	Array     Code = 6
	// 7-9 reserved

	FirstStructure Code = 10
)

func (c Code) String() string {
	switch c {
	case None:
		return "none"
	case Int:
		return "int"
	case Long:
		return "long"
	case Double:
		return "double"
	case Pointer:
		return "pointer"
	case GCPointer:
		return "gcpointer"
	case Array:
		return "array"
	default:
		if c >= FirstStructure {
			return fmt.Sprintf("struct#%d", c-FirstStructure)
		}
		return "reserved"
	}
}

// TagSize is the number of bytes every object's leading Type tag occupies
// once encoded onto the stack or heap. It is fixed regardless of the
// concrete type it tags.
const TagSize = 8

// Field describes one member of a structure type: its type and its
// declared byte offset from the start of the owning structure (the
// offset already accounts for the field's own tag).
type Field struct {
	Name   string
	Type   *Type
	Offset uint32
}

// Type is a lightweight, shareable descriptor. Fundamental types are
// singletons (see the package vars below); structure types are owned and
// indexed by a program image's structure table, one per user-defined
// layout.
//
// Size always includes the leading TagSize bytes, since Size is what
// callers use to reserve or allocate storage for one instance of the
// type - see Stack.Reserve / the heap allocators.
type Type struct {
	Code   Code
	Size   uint32
	Align  uint32
	Name   string
	Fields []Field // non-nil only when Code is a structure

	// Elem/Count are only meaningful for Array, which is a modifier used
	// for fixed-size structure fields; Array is never itself a storable
	// top-level type.
	Elem  *Type
	Count uint32
}

func (t *Type) String() string {
	if t == nil {
		return "<nil type>"
	}
	return t.Name
}

// IsFundamental reports whether t is one of the process-wide singleton
// descriptors (None through GCPointer).
func (t *Type) IsFundamental() bool {
	return t.Code >= None && t.Code < Array
}

// IsStructure reports whether t is a user-defined structure layout.
func (t *Type) IsStructure() bool {
	return t.Code >= FirstStructure
}

// IsArray reports whether t is an array-modifier type used for a
// structure field.
func (t *Type) IsArray() bool {
	return t.Code == Array
}

var (
	// NoneTypeVal backs NoneType; uninitialized stack tags decode to it.
	NoneTypeVal = Type{Code: None, Size: TagSize, Align: TagSize, Name: "none"}
	IntTypeVal  = Type{Code: Int, Size: TagSize + 4, Align: 4, Name: "int"}
	LongTypeVal = Type{Code: Long, Size: TagSize + 8, Align: 8, Name: "long"}
	// DoubleTypeVal backs DoubleType.
	DoubleTypeVal    = Type{Code: Double, Size: TagSize + 8, Align: 8, Name: "double"}
	PointerTypeVal   = Type{Code: Pointer, Size: TagSize + 8, Align: 8, Name: "pointer"}
	GCPointerTypeVal = Type{Code: GCPointer, Size: TagSize + 8, Align: 8, Name: "gcpointer"}

	NoneType      = &NoneTypeVal
	IntType       = &IntTypeVal
	LongType      = &LongTypeVal
	DoubleType    = &DoubleTypeVal
	PointerType   = &PointerTypeVal
	GCPointerType = &GCPointerTypeVal
)

// fundamentalByCode indexes the singletons by Code for GetTypeFromTypeCode.
var fundamentalByCode = map[Code]*Type{
	None:      NoneType,
	Int:       IntType,
	Long:      LongType,
	Double:    DoubleType,
	Pointer:   PointerType,
	GCPointer: GCPointerType,
}

// NewStructureType builds a structure descriptor. size and align are
// supplied by the loader (the program image owns the authoritative
// layout), fields carry their pre-computed offsets.
func NewStructureType(code Code, name string, size, align uint32, fields []Field) *Type {
	return &Type{Code: code, Size: size, Align: align, Name: name, Fields: fields}
}

// NewArrayFieldType builds the Array modifier type used for a fixed-size
// array field inside a structure: Count copies of elem, each carrying its
// own tag, preceded by the array object's own tag and count word.
func NewArrayFieldType(elem *Type, count uint32) *Type {
	return &Type{
		Code:  Array,
		Size:  TagSize + 4 + count*elem.Size,
		Align: elem.Align,
		Name:  fmt.Sprintf("%s[%d]", elem.Name, count),
		Elem:  elem,
		Count: count,
	}
}

// GetTypeFromTypeCode resolves a fundamental code (0-6) or a structure
// code (10+i) against the given structure table. Array (6) is a valid
// code to resolve (for introspection) but callers that need a storable
// slot type must reject it themselves.
func GetTypeFromTypeCode(structures []*Type, code Code) (*Type, error) {
	if t, ok := fundamentalByCode[code]; ok {
		return t, nil
	}
	if code == Array {
		return &Type{Code: Array, Name: "array"}, nil
	}
	if code < FirstStructure {
		return nil, fmt.Errorf("types: code %d is reserved", code)
	}
	idx := code - FirstStructure
	if int(idx) >= len(structures) {
		return nil, fmt.Errorf("types: structure code %d out of range", code)
	}
	return structures[idx], nil
}
