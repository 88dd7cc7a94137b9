package vm

// This file is the plugin-facing surface of the vm package: the subset of
// internal helpers a host-supplied Plugin (§4.10) is allowed to call back
// into, exported under names that don't leak the unexported instruction
// helpers directly.

// FormatPlain renders val the way PrintMathB does, untagged.
func (v *VM) FormatPlain(val Value) (string, error) {
	return v.formatPlain(val)
}

// FormatDebug renders val the way PrintMathBDebug does, tagged with its
// type category.
func (v *VM) FormatDebug(val Value) (string, error) {
	return v.formatDebug(val)
}

// Add exposes the Add operator (§4.4) to plugins, e.g. one that reduces a
// variable number of arguments.
func (v *VM) Add(left, right Value) (Value, error) {
	return v.add(left, right)
}

// Length returns the length of a Text or List value.
func (v *VM) Length(val Value) (int, error) {
	switch val.Kind() {
	case KindText:
		s, err := v.heap.Text(val.Handle())
		if err != nil {
			return 0, err
		}
		return len(s), nil
	case KindList:
		items, err := v.heap.List(val.Handle())
		if err != nil {
			return 0, err
		}
		return len(items), nil
	default:
		return 0, newTypeError("len requires Text or List, got %s", val.Kind())
	}
}

// Flush flushes any buffered stdout output. Embedders should call this
// once after a run loop terminates, since a program is not obligated to
// issue its own FlushStdout before quitting.
func (v *VM) Flush() error {
	return v.flushStdout()
}

// NewTypeError lets a plugin report a contract violation (wrong argument
// count or kind) using the same error taxonomy as the core engine (§7).
func NewTypeError(format string, args ...any) error {
	return newTypeError(format, args...)
}

// State is a snapshot of the last-ready frame and the process-wide
// registers, the fields the teacher's printCurrentState dumped after every
// single-stepped instruction (vm.go in the retrieved project).
type State struct {
	FrameID   int
	PC        int
	NextInstr Instruction
	HasNext   bool
	SkipLevel int

	MathA        Value
	MathB        Value
	Intermediate Value
	Secondary    Value
}

// MathA returns the math_a register, mirroring the existing MathB accessor.
func (v *VM) MathA() Value { return v.regs.mathA }

// DumpState captures State for the frame Step will execute next, for a
// single-step debugger driver to print.
func (v *VM) DumpState() State {
	f := v.getLastReady()
	code := v.CodeFor(f.id)
	s := State{
		FrameID:      f.id,
		PC:           f.pc,
		SkipLevel:    f.skipLevel,
		MathA:        v.regs.mathA,
		MathB:        v.regs.mathB,
		Intermediate: v.regs.intermediate,
		Secondary:    v.regs.secondary,
	}
	if f.pc >= 0 && f.pc < len(code) {
		s.NextInstr = code[f.pc]
		s.HasNext = true
	}
	return s
}
