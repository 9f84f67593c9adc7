// Command svm assembles and runs SVM bytecode listings. It is the thin
// CLI shell around the svm engine, svm/asm and svm/disasm packages - all
// of the interesting behavior lives in those packages, following the
// same root-main-as-dispatcher shape as this project's original
// single-file driver.
package main

import (
	"fmt"
	"os"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"svm"
	"svm/asm"
	"svm/disasm"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "svm",
		Short:         "Assemble, run and disassemble SVM bytecode listings",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	var stackBytes uint32
	var debugMode bool

	runCmd := &cobra.Command{
		Use:   "run <file.svm>",
		Short: "Assemble and run a listing to completion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			interp, err := loadInterpreter(args[0], stackBytes)
			if err != nil {
				return err
			}

			if debugMode {
				return interp.RunProgramDebugMode(os.Stdin, os.Stdout)
			}

			if err := interp.RunProgram(); err != nil {
				return err
			}
			result, err := interp.GetResult()
			if err != nil {
				return err
			}
			fmt.Println(result)
			return nil
		},
	}
	runCmd.Flags().Uint32Var(&stackBytes, "stack", svm.DefaultStackBytes, "stack size in bytes")
	runCmd.Flags().BoolVar(&debugMode, "debug", false, "enter single-step debug mode")
	root.AddCommand(runCmd)

	disasmCmd := &cobra.Command{
		Use:   "disasm <file.svm>",
		Short: "Assemble a listing and print its decoded form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			program, err := asm.Assemble(args[0], f)
			if err != nil {
				return err
			}
			disasm.Program(os.Stdout, &program)
			return nil
		},
	}
	root.AddCommand(disasmCmd)

	root.AddCommand(newReplCmd(&stackBytes))

	return root
}

func loadInterpreter(path string, stackBytes uint32) (*svm.Interpreter, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	program, err := asm.Assemble(path, f)
	if err != nil {
		return nil, err
	}

	interp := svm.New()
	if stackBytes != 0 {
		interp.AllocateStack(stackBytes)
	}
	interp.Load(program)
	return interp, nil
}

// newReplCmd drives a readline-backed loop that reassembles and reruns a
// listing on every "r" command, useful for iterating on a program
// without leaving the shell.
func newReplCmd(stackBytes *uint32) *cobra.Command {
	return &cobra.Command{
		Use:   "repl <file.svm>",
		Short: "Interactively reassemble and run a listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rl, err := readline.New("svm> ")
			if err != nil {
				return err
			}
			defer rl.Close()

			path := args[0]
			fmt.Fprintln(rl.Stdout(), "commands: r (run), q (quit)")
			for {
				line, err := rl.Readline()
				if err != nil {
					return nil
				}
				switch line {
				case "q", "quit":
					return nil
				case "r", "run":
					interp, err := loadInterpreter(path, *stackBytes)
					if err != nil {
						fmt.Fprintln(rl.Stdout(), err)
						continue
					}
					if err := interp.RunProgram(); err != nil {
						fmt.Fprintln(rl.Stdout(), err)
						continue
					}
					result, err := interp.GetResult()
					if err != nil {
						fmt.Fprintln(rl.Stdout(), err)
						continue
					}
					fmt.Fprintln(rl.Stdout(), result)
				}
			}
		},
	}
}
