package vm

// makeNewFrame implements MakeNewFrame (§4.9): push a not-ready frame sized
// to default_stack_size.
func (v *VM) makeNewFrame(codeID int) {
	f := newFrame(codeID, v.regs.defaultStackSize)
	v.frames = append(v.frames, f)
}

// setLastFrameReady implements SetLastFrameReady (§4.9): the frame most
// recently pushed becomes ready, and from this point "current frame"
// queries resolve to it.
func (v *VM) setLastFrameReady() {
	v.lastPushed().ready = true
}

// returnFrame implements Return (§4.9). If exactly one frame remains, the
// program has quit. Otherwise the top frame is popped, math_b is written
// into slot 0 of the new top frame, and only then are the popped frame's
// slots swept for ref decrements (DESIGN.md open question 1), so a returned
// value that was also held in one of those slots is adopted before the
// sweep releases the popped frame's reference to it.
func (v *VM) returnFrame() (Status, error) {
	if len(v.frames) == 1 {
		v.regs.hasQuit = true
		return StatusQuit, nil
	}

	popped := v.frames[len(v.frames)-1]
	v.frames = v.frames[:len(v.frames)-1]

	returnValue := v.regs.mathB
	newTop := v.frames[len(v.frames)-1]
	if err := v.writeSlot(newTop, 0, returnValue); err != nil {
		return StatusNormal, err
	}

	if err := v.sweepFrameRefs(popped); err != nil {
		return StatusNormal, err
	}

	if len(v.frames) == 1 && v.regs.isInteractive {
		if err := v.printMathBDebug(); err != nil {
			return StatusNormal, err
		}
		if err := v.printNewLine(); err != nil {
			return StatusNormal, err
		}
	}

	return StatusReturned, nil
}

// executeIf implements ExecuteIf (§4.5). Skip-level is a "current frame"
// query like pc and local-variable access, so it routes through the
// last-*ready* frame, not the last pushed one (only Compare, WriteVarToLast
// and CallPlugin's result write deliberately target the last pushed frame).
// At skip level
// 0, the last comparison recorded by Compare is tested against req; a
// mismatch bumps the skip level to 1. At skip level > 0, the skip level
// always bumps (tracking nested conditionals that are themselves being
// skipped).
func (v *VM) executeIf(req CompareReq) error {
	f := v.getLastReady()
	if f.skipLevel > 0 {
		f.skipLevel++
		return nil
	}

	if !f.hasComparison {
		return newStateError("execute_if with no prior compare in this frame")
	}
	if !req.satisfiedBy(f.lastComp) {
		f.skipLevel = 1
	}
	return nil
}

// endConditionalBlock implements EndConditionalBlock (§4.5): decrement the
// skip level if positive, no-op at 0.
func (v *VM) endConditionalBlock() {
	f := v.getLastReady()
	if f.skipLevel > 0 {
		f.skipLevel--
	}
}

// increaseSkippingLevel implements IncreaseSkippingLevel (§4.5): explicit
// bump, used by the compiler where an unconditional block should be
// skipped through.
func (v *VM) increaseSkippingLevel() {
	v.getLastReady().skipLevel++
}

// addLoopLabel implements AddLoopLabel (§4.6): push a label whose start_pc
// is the current pc (the next instruction to execute).
func (v *VM) addLoopLabel() {
	f := v.getLastReady()
	f.labels = append(f.labels, loopLabel{startPC: f.pc})
}

// registerIncrementOnRestore implements RegisterIncrementOnRestore (§4.6):
// set the top label's index address and stepping (from the current math_b),
// and advance its start_pc by 1 so the registration instruction itself is
// not re-executed on restore.
func (v *VM) registerIncrementOnRestore(addr uint32) error {
	f := v.getLastReady()
	if len(f.labels) == 0 {
		return newStateError("register_increment_on_restore with no active loop label")
	}
	label := &f.labels[len(f.labels)-1]
	label.hasIndex = true
	label.indexAddr = addr
	label.stepping = v.regs.mathB
	label.startPC++
	return nil
}

// restoreLoopLabel implements RestoreLoopLabel (§4.6): set pc to the
// label's start_pc, and if an index address was registered, read its
// current value, add the stepping value, and write it back.
func (v *VM) restoreLoopLabel() error {
	f := v.getLastReady()
	if len(f.labels) == 0 {
		return newStateError("restore_loop_label with no active loop label")
	}
	label := f.labels[len(f.labels)-1]

	if label.hasIndex {
		current, err := readSlot(f, int(label.indexAddr))
		if err != nil {
			return err
		}
		next, err := v.add(current, label.stepping)
		if err != nil {
			return err
		}
		if err := v.writeSlot(f, int(label.indexAddr), next); err != nil {
			return err
		}
	}

	f.pc = label.startPC
	return nil
}

// popLoopLabel implements PopLoopLabel (§4.6): drop the top label.
func (v *VM) popLoopLabel() error {
	f := v.getLastReady()
	if len(f.labels) == 0 {
		return newStateError("pop_loop_label with no active loop label")
	}
	f.labels = f.labels[:len(f.labels)-1]
	return nil
}
