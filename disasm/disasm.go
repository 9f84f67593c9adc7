// Package disasm is the (out-of-scope) textual disassembler: it turns a
// loaded image.Program back into the listing syntax svm/asm accepts,
// covering SVM's structure table, function table and top-level stream.
// The constant pool itself is not printed; a push shows its pool index.
package disasm

import (
	"fmt"
	"io"
	"strings"

	"svm/image"
)

// Program renders every structure, function and the top level stream.
func Program(w io.Writer, p *image.Program) {
	for _, st := range p.Structures {
		fmt.Fprintf(w, ".struct %s\n", st.Name)
		for _, f := range st.Fields {
			fmt.Fprintf(w, "  %s %s\n", f.Name, f.Type.Name)
		}
		fmt.Fprintln(w, ".endstruct")
		fmt.Fprintln(w)
	}

	for _, fn := range p.Functions {
		opts := fmt.Sprintf("arity=%d", fn.Arity)
		if fn.HasResult {
			opts += " result"
		}
		fmt.Fprintf(w, ".func %s %s\n", fn.Name, opts)
		Instructions(w, &fn.Instructions, "  ")
		fmt.Fprintln(w, ".endfunc")
		fmt.Fprintln(w)
	}

	Instructions(w, &p.TopLevel, "")
}

// Instructions renders one instruction stream. Label names are erased by
// the time a program is loaded (svm/image only keeps the id->index
// table), so a jump's target is shown as a resolved instruction index
// rather than the original label text - see FormatAt.
func Instructions(w io.Writer, instrs *image.Instructions, indent string) {
	for i := 0; ; i++ {
		instr, ok := instrs.At(i)
		if !ok {
			break
		}
		fmt.Fprintf(w, "%s%s\n", indent, FormatAt(instrs, i, instr))
	}
}

// FormatAt renders one already-decoded instruction, annotating jump
// targets with a comment since labels are erased once assembled. A call
// is shown with its bare function index.
func FormatAt(instrs *image.Instructions, index int, instr image.Instruction) string {
	s := instr.String()
	switch instr.Op {
	case image.OpJmp, image.OpJe, image.OpJne, image.OpJa, image.OpJae, image.OpJb, image.OpJbe:
		if target, ok := instrs.Label(instr.Operand); ok {
			s = fmt.Sprintf("%s\t; -> %d", s, target)
		}
	}
	return s
}

// String renders an entire program as one listing, for callers that don't
// want to manage an io.Writer themselves.
func String(p *image.Program) string {
	var b strings.Builder
	Program(&b, p)
	return b.String()
}
