package svm

import "fmt"

// ExceptionCode is the stable, wire-visible fault enumeration. Every
// recoverable fault the engine can hit is one of these; there is no
// in-bytecode try/catch, only this flat report.
type ExceptionCode uint32

const (
	StackOverflow ExceptionCode = iota
	StackEmpty
	StackDifferentType
	ConstantPoolOutOfRange
	DivideByZero
	LocalVariableOutOfRange
	LocalVariableInvalidIndex
	LabelOutOfRange
	FunctionOutOfRange
	TopOfCallStack
	NoRetInstruction
	NullPointer
	NotPointer
	InvalidForPointer
	InvalidForStructure
	TypeOutOfRange
	UnknownAddress
)

func (c ExceptionCode) String() string {
	switch c {
	case StackOverflow:
		return "StackOverflow"
	case StackEmpty:
		return "StackEmpty"
	case StackDifferentType:
		return "StackDifferentType"
	case ConstantPoolOutOfRange:
		return "ConstantPoolOutOfRange"
	case DivideByZero:
		return "DivideByZero"
	case LocalVariableOutOfRange:
		return "LocalVariableOutOfRange"
	case LocalVariableInvalidIndex:
		return "LocalVariableInvalidIndex"
	case LabelOutOfRange:
		return "LabelOutOfRange"
	case FunctionOutOfRange:
		return "FunctionOutOfRange"
	case TopOfCallStack:
		return "TopOfCallStack"
	case NoRetInstruction:
		return "NoRetInstruction"
	case NullPointer:
		return "NullPointer"
	case NotPointer:
		return "NotPointer"
	case InvalidForPointer:
		return "InvalidForPointer"
	case InvalidForStructure:
		return "InvalidForStructure"
	case TypeOutOfRange:
		return "TypeOutOfRange"
	case UnknownAddress:
		return "UnknownAddress"
	default:
		return fmt.Sprintf("ExceptionCode(%d)", uint32(c))
	}
}

// CallStackEntry is one diagnostic snapshot entry for GetCallStacks: the
// function index (nil for the root) and the instruction index active in
// that frame at the moment of the fault or query.
type CallStackEntry struct {
	FunctionIndex *uint32
	Instruction   uint32
}

// Exception is the engine's recorded fault: its code, the instruction
// that raised it, the call depth, and a snapshot of every active frame -
// everything get_call_stacks() and get_exception() need without holding
// a live reference into the (possibly already-unwound) frame list.
type Exception struct {
	Code        ExceptionCode
	Instruction uint32
	Depth       int
	CallStacks  []CallStackEntry
}

func (e *Exception) Error() string {
	return fmt.Sprintf("svm: %s at instruction %d (depth %d)", e.Code, e.Instruction, e.Depth)
}
