// Command birlvm is the command-line driver for the core engine: it reads
// assembled instructions from a file and runs them to completion, or drops
// into an interactive REPL. It plays the role the specification calls an
// "external collaborator" (§1) - everything interesting lives in package
// vm; this binary only wires stdin/stdout, flags, and the plugin table
// together, the way the teacher project's main.go wires its own VM.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"birlvm/asm"
	"birlvm/repl"
	"birlvm/stdlib"
	"birlvm/vm"
)

var (
	stackSize   int
	interactive bool
	debug       bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "birlvm",
		Short: "birlvm runs and explores the bytecode interpreter core",
	}
	root.PersistentFlags().IntVar(&stackSize, "stack-size", 16, "default local slots allocated per call frame")
	root.PersistentFlags().BoolVar(&debug, "debug", false, "emit per-instruction debug logs to stderr; run also single-steps through an n/r/b command loop")

	root.AddCommand(newRunCmd())
	root.AddCommand(newReplCmd())
	return root
}

func newLogger() zerolog.Logger {
	if !debug {
		return zerolog.Nop()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [file]",
		Short: "assemble and run a program to completion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			instrs, err := asm.AssembleReader(f)
			if err != nil {
				return fmt.Errorf("assemble %s: %w", args[0], err)
			}

			machine := vm.New(
				vm.WithStackSize(stackSize),
				vm.WithInteractive(interactive),
				vm.WithStdout(os.Stdout),
				vm.WithStdin(os.Stdin),
				vm.WithLogger(newLogger()),
			)
			stdlib.Register(machine)

			id := machine.AddCode(instrs)
			machine.SetEntryFrame(id)

			if debug {
				return runDebugLoop(machine, os.Stdin, os.Stdout)
			}

			for {
				status, err := machine.Step()
				if err != nil {
					machine.Flush()
					return err
				}
				switch status {
				case vm.StatusQuit, vm.StatusHalt:
					return machine.Flush()
				}
			}
		},
	}
	cmd.Flags().BoolVar(&interactive, "interactive", false, "auto-print returned and called values in debug form")
	return cmd
}

func newReplCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repl",
		Short: "start an interactive read-eval-print loop",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			machine := vm.New(
				vm.WithStackSize(stackSize),
				vm.WithInteractive(true),
				vm.WithStdout(os.Stdout),
				vm.WithStdin(os.Stdin),
				vm.WithLogger(newLogger()),
			)
			stdlib.Register(machine)

			r, err := repl.New(machine, repl.WithLogger(newLogger()))
			if err != nil {
				return err
			}
			defer r.Close()

			return r.Run()
		},
	}
	return cmd
}
