package svm

import "fmt"

// ResultKind discriminates which alternative of Result is populated.
// Coercion from the root frame's top-of-stack type happens once, in
// GetResult.
type ResultKind int

const (
	ResultEmpty ResultKind = iota
	ResultU32
	ResultU64
	ResultDouble
	ResultAddress
	ResultStructure
)

// Result is the root frame's terminal value, coerced per its type tag.
// StructureBytes holds the raw tag+payload for a structure result; it is
// a copy, safe to read after the interpreter has moved on.
type Result struct {
	Kind           ResultKind
	U32            uint32
	U64            uint64
	Double         float64
	Address        uint64
	StructureBytes []byte
}

func (r Result) String() string {
	switch r.Kind {
	case ResultEmpty:
		return "<empty>"
	case ResultU32:
		return fmt.Sprintf("%d", r.U32)
	case ResultU64:
		return fmt.Sprintf("%d", r.U64)
	case ResultDouble:
		return fmt.Sprintf("%g", r.Double)
	case ResultAddress:
		return fmt.Sprintf("0x%x", r.Address)
	case ResultStructure:
		return fmt.Sprintf("<structure %d bytes>", len(r.StructureBytes))
	default:
		return "<unknown>"
	}
}
