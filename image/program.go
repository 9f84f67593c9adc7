// Package image defines the immutable loaded program artifact the
// interpreter consumes: a path, a constant pool, a structure table, a
// function table, and the top-level instruction stream. Everything here
// is produced by the (out-of-scope) loader/compiler; the interpreter only
// ever reads it.
package image

import (
	"fmt"

	"svm/types"
)

// Program is the immutable program image. Once constructed it is never
// mutated - the interpreter holds it by value for the life of a Load.
type Program struct {
	Path         string
	Constants    ConstantPool
	Structures   []*types.Type
	Functions    []Function
	TopLevel     Instructions
}

func NewProgram(path string, constants ConstantPool, structures []*types.Type, functions []Function, topLevel Instructions) Program {
	return Program{
		Path:       path,
		Constants:  constants,
		Structures: structures,
		Functions:  functions,
		TopLevel:   topLevel,
	}
}

func (p *Program) IsEmpty() bool {
	return p.Path == "" && p.Constants.IsEmpty() && p.TopLevel.IsEmpty()
}

// TypeFromCode resolves a fundamental or structure type code against this
// image's structure table.
func (p *Program) TypeFromCode(code types.Code) (*types.Type, error) {
	return types.GetTypeFromTypeCode(p.Structures, code)
}

// Function looks up a callable function by index, out of range is an
// error the interpreter turns into FunctionOutOfRange.
func (p *Program) Function(index uint32) (*Function, error) {
	if int(index) >= len(p.Functions) {
		return nil, fmt.Errorf("image: function %d out of range", index)
	}
	return &p.Functions[index], nil
}
