// Package repl is the interactive read-eval-print loop driving the core
// engine one line at a time, grounded on the teacher's RunProgramDebugMode
// command loop (vm/run.go in the retrieved project) but rebuilt around
// chzyer/readline for line editing/history instead of a bare bufio.Reader,
// and around assembling+stepping one statement at a time instead of
// single-stepping a pre-compiled program.
package repl

import (
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"birlvm/asm"
	"birlvm/vm"
)

// REPL owns the readline instance and the VM it drives. Interactive mode is
// always enabled on the underlying VM (§4.9/§4.10's auto-print behavior),
// since that is the entire point of this driver.
type REPL struct {
	machine *vm.VM
	rl      *readline.Instance
	log     zerolog.Logger
}

// Option configures a REPL at construction time.
type Option func(*REPL)

func WithLogger(l zerolog.Logger) Option {
	return func(r *REPL) { r.log = l }
}

// New builds a REPL around an existing VM (already configured with stdout,
// plugins, stack size, etc. by the caller) and a readline instance reading
// from stdin/writing to stdout.
func New(machine *vm.VM, opts ...Option) (*REPL, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "birlvm> ",
		HistoryFile:     "",
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		return nil, errors.Wrap(err, "initializing readline")
	}

	machine.SetInteractive(true)

	r := &REPL{machine: machine, rl: rl, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

func (r *REPL) Close() error {
	return r.rl.Close()
}

// Run reads lines until EOF/Ctrl-D or the VM quits. Each line is assembled
// independently and appended as a fresh code entry, then single-stepped to
// completion; assembly or runtime errors are reported and the loop
// continues with the next line, matching §7's "driver decides whether to
// halt or recover" policy for REPL-mode errors.
func (r *REPL) Run() error {
	for {
		line, err := r.rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return r.machine.Flush()
		}
		if err != nil {
			return errors.Wrap(err, "reading line")
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if err := r.evalLine(line); err != nil {
			fmt.Fprintln(r.rl.Stderr(), err)
		}

		if r.machine.HasQuit() {
			return r.machine.Flush()
		}
	}
}

func (r *REPL) evalLine(line string) error {
	instrs, err := asm.Assemble(line)
	if err != nil {
		return errors.Wrap(err, "assemble")
	}
	if len(instrs) == 0 {
		return nil
	}
	// Halt terminates this line's instruction stream cleanly; without it,
	// running off the end of a one-line code entry would read past the end
	// of the slice and surface as a StateError instead of ordinary
	// completion.
	instrs = append(instrs, vm.Instruction{Op: vm.OpHalt})
	r.log.Debug().Str("line", line).Int("instructions", len(instrs)).Msg("eval")

	id := r.machine.AddCode(instrs)
	r.machine.SetEntryFrame(id)

	for {
		status, err := r.machine.Step()
		if err != nil {
			return err
		}
		switch status {
		case vm.StatusNormal, vm.StatusReturned:
			continue
		case vm.StatusQuit, vm.StatusHalt:
			return nil
		}
	}
}
