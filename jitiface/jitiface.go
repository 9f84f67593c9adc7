// Package jitiface is the frozen interface a native-code-generating peer
// would implement to compile a function's Instructions down to machine
// code instead of interpreting it - out of scope for this engine (see
// SPEC_FULL.md's Non-goals), but the contract is fixed here so such a peer
// can be added later without touching svm itself.
//
// The method set mirrors the original project's x86 encoder
// (jit/x86/Builder.hpp: Mov/Push/Pop/Add/Sub/Mul/IMul/Div/IDiv/Neg/And/Or/
// Xor/Not/Shl/Sal/Shr/Sar over a register-or-memory operand), generalized
// from that one architecture to an arch-neutral Go interface.
package jitiface

// Register is an opaque, backend-defined machine register handle.
type Register uint8

// Address is a backend-defined memory operand: base register plus a
// constant displacement, the addressing mode every Instruction operand
// that isn't a bare register or immediate reduces to.
type Address struct {
	Base        Register
	Displacement int32
}

// Operand is either a Register or an Address, mirroring the original
// encoder's RM (register-or-memory) variant type.
type Operand struct {
	Reg     Register
	Addr    Address
	IsAddr  bool
}

// Encoder emits native instructions for one compiled function body. A
// concrete implementation owns its own backing byte buffer and target
// architecture; Result returns the finished machine code once every
// Instruction has been translated.
type Encoder interface {
	MovImm(dst Register, imm uint64)
	MovReg(dst Register, src Operand)
	MovToAddress(dst Address, src Register)

	Push(src Operand)
	Pop(dst Operand)

	Add(dst Register, src Operand)
	Sub(dst Register, src Operand)
	Mul(src Operand)
	IMul(src Operand)
	Div(src Operand)
	IDiv(src Operand)
	Neg(dst Operand)

	And(dst Register, src Operand)
	Or(dst Register, src Operand)
	Xor(dst Register, src Operand)
	Not(dst Operand)

	Shl(dst Operand, count Operand)
	Sal(dst Operand, count Operand)
	Shr(dst Operand, count Operand)
	Sar(dst Operand, count Operand)

	// Result returns the encoded machine code accumulated so far.
	Result() []byte
}
