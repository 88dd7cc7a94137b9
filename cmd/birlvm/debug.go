package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"birlvm/vm"
)

// runDebugLoop is a direct descendant of the teacher's ExecProgramDebugMode/
// RunProgramDebugMode command loop (vm/exec.go, vm/run.go in the retrieved
// project): n/next single-steps, r/run free-runs until a breakpoint or
// completion, b/break <frame-id> toggles a breakpoint on a frame id (the
// closest analogue this machine has to the teacher's instruction-address
// breakpoints, since pc alone is ambiguous across code entries). Every
// stop prints the frame/register state the teacher's printCurrentState
// dumped.
func runDebugLoop(machine *vm.VM, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, "Commands:\n\tn or next: execute next instruction\n\tr or run: run program\n\tb or break <frame-id>: break on frame id (or remove break)")

	printState(machine, out)

	reader := bufio.NewReader(in)
	waitForInput := true
	breakAtFrames := make(map[int]struct{})
	lastBreakFrame := -1

	for {
		line := ""
		if waitForInput {
			fmt.Fprint(out, "\n-> ")
			raw, err := reader.ReadString('\n')
			if err != nil && raw == "" {
				return machine.Flush()
			}
			line = strings.ToLower(strings.TrimSpace(raw))
		} else {
			state := machine.DumpState()
			if _, ok := breakAtFrames[state.FrameID]; ok && lastBreakFrame != state.FrameID {
				fmt.Fprintln(out, "breakpoint")
				printState(machine, out)
				waitForInput = true
				lastBreakFrame = state.FrameID
				continue
			}
		}

		switch {
		case !waitForInput || line == "n" || line == "next":
			lastBreakFrame = -1
			status, err := machine.Step()
			if waitForInput {
				printState(machine, out)
			}
			if err != nil {
				machine.Flush()
				return err
			}
			if status == vm.StatusQuit || status == vm.StatusHalt {
				return machine.Flush()
			}
		case line == "r" || line == "run":
			waitForInput = false
		case strings.HasPrefix(line, "b"):
			arg := strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(line, "break"), "b"))
			frameID, err := strconv.Atoi(arg)
			if err != nil {
				fmt.Fprintln(out, "unknown frame id:", err)
				continue
			}
			if _, ok := breakAtFrames[frameID]; ok {
				delete(breakAtFrames, frameID)
			} else {
				breakAtFrames[frameID] = struct{}{}
			}
		}
	}
}

func printState(machine *vm.VM, out io.Writer) {
	s := machine.DumpState()
	if s.HasNext {
		fmt.Fprintf(out, "  next instruction> %s\n", s.NextInstr)
	}
	fmt.Fprintf(out, "  frame> id=%d pc=%d skip_level=%d\n", s.FrameID, s.PC, s.SkipLevel)
	fmt.Fprintf(out, "  registers> math_a=%v math_b=%v intermediate=%v secondary=%v\n",
		s.MathA, s.MathB, s.Intermediate, s.Secondary)
}
