package svm

import (
	"bufio"
	"fmt"
	"io"
	"runtime/debug"
	"strconv"
	"strings"

	"svm/disasm"
)

// RunProgram interprets the loaded program start to finish. It disables
// the garbage collector for the duration of the run, so collection never
// interrupts the dispatch loop, and restores the previous GC percentage
// on the way out.
func (interp *Interpreter) RunProgram() error {
	restore := disableGC()
	defer restore()

	err := interp.Interpret()
	if exc, ok := err.(*Exception); ok {
		return exc
	}
	return err
}

func disableGC() func() {
	previous := debug.SetGCPercent(-1)
	return func() { debug.SetGCPercent(previous) }
}

// RunProgramDebugMode drives the same interpreter one instruction at a
// time from commands read line by line from in, with a
// next/run/break/program command set.
func (interp *Interpreter) RunProgramDebugMode(in io.Reader, out io.Writer) error {
	fmt.Fprint(out, "Commands:\n\tn or next: execute next instruction\n\tr or run: run program\n\tb or break <index>: toggle a breakpoint\n\tprogram: print the loaded program\n\n")

	reader := bufio.NewReader(in)
	breakpoints := make(map[int]struct{})
	waitForInput := true

	interp.printState(out)

	for {
		line := ""
		if waitForInput {
			fmt.Fprint(out, "\n->")
			line, _ = reader.ReadString('\n')
			line = strings.ToLower(strings.TrimSpace(line))
		} else if _, hit := breakpoints[int(interp.curFrame().instrIndex)]; hit {
			fmt.Fprintln(out, "breakpoint")
			interp.printState(out)
			waitForInput = true
			continue
		}

		switch {
		case !waitForInput || line == "n" || line == "next":
			if !interp.step() {
				if interp.exception != nil {
					fmt.Fprintln(out, interp.exception.Error())
					return interp.exception
				}
				fmt.Fprintln(out, "program finished")
				return nil
			}
			if waitForInput {
				interp.printState(out)
			}
		case line == "program":
			disasm.Program(out, &interp.program)
		case line == "r" || line == "run":
			waitForInput = false
		case strings.HasPrefix(line, "b"):
			arg := strings.TrimSpace(strings.TrimPrefix(line, "b"))
			arg = strings.TrimSpace(strings.TrimPrefix(arg, "reak"))
			n, err := strconv.Atoi(arg)
			if err != nil {
				fmt.Fprintln(out, "unknown instruction index:", arg)
				continue
			}
			if _, ok := breakpoints[n]; ok {
				delete(breakpoints, n)
			} else {
				breakpoints[n] = struct{}{}
			}
		}
	}
}

// step executes exactly one instruction, mirroring Interpret's loop body.
func (interp *Interpreter) step() bool {
	f := interp.curFrame()
	instr, ok := f.instructions.At(int(f.instrIndex))
	if !ok {
		if f.callerFrame == rootCaller {
			return false
		}
		interp.raise(NoRetInstruction)
		return false
	}
	f.instrIndex++
	return interp.dispatch(instr)
}

func (interp *Interpreter) printState(out io.Writer) {
	f := interp.curFrame()
	if instr, ok := f.instructions.At(int(f.instrIndex)); ok {
		fmt.Fprintln(out, "  next instruction>", disasm.FormatAt(f.instructions, int(f.instrIndex), instr))
	}
	fmt.Fprintln(out, "  frames>", len(interp.frames), " locals>", len(interp.locals))
	fmt.Fprintln(out, "  stack used>", interp.stk.Used())
}
