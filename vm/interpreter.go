package vm

// materializeRaw turns a compiler-supplied RawValue into a live Value,
// allocating a heap item for RawText (§6).
func (v *VM) materializeRaw(raw RawValue) (Value, error) {
	switch raw.Kind {
	case RawNull:
		return Null(), nil
	case RawInteger:
		return Integer(raw.Integer), nil
	case RawNumber:
		return Number(raw.Number), nil
	case RawText:
		return Text(v.newHeapText(raw.Text)), nil
	default:
		return Value{}, newTypeError("unknown raw value kind %d", raw.Kind)
	}
}

// Step decodes and executes exactly one instruction from the current
// frame's code, per §4.13:
//  1. If skip level > 0 and the instruction is not EndConditionalBlock,
//     return Normal without any side effect. pc still advances.
//  2. Otherwise dispatch on the opcode.
//  3. Return one of Normal, Quit, Returned, Halt.
//
// Every error an opcode handler returns is also logged at warn level
// (§10.3) before it reaches the caller, so a driver running with a
// non-Nop logger sees the failure even if it discards the error itself.
func (v *VM) Step() (Status, error) {
	status, err := v.step()
	if err != nil {
		v.log.Warn().Err(err).Msg("step returned error")
	}
	return status, err
}

func (v *VM) step() (Status, error) {
	f := v.getLastReady()
	code := v.CodeFor(f.id)
	if f.pc < 0 || f.pc >= len(code) {
		return StatusHalt, newStateError("pc %d out of range for frame id %d (code length %d)", f.pc, f.id, len(code))
	}

	instr := code[f.pc]
	f.pc++

	if f.skipLevel > 0 && instr.Op != OpEndConditionalBlock {
		return StatusNormal, nil
	}

	v.log.Debug().Stringer("op", instr.Op).Int("frame_id", f.id).Int("pc", f.pc-1).Msg("dispatch")

	switch instr.Op {
	case OpNop:
		return StatusNormal, nil

	case OpPrintMathB:
		return StatusNormal, v.printMathB()
	case OpPrintMathBDebug:
		return StatusNormal, v.printMathBDebug()
	case OpPrintNewLine:
		return StatusNormal, v.printNewLine()
	case OpFlushStdout:
		return StatusNormal, v.flushStdout()
	case OpQuit:
		v.regs.hasQuit = true
		return StatusQuit, nil
	case OpHalt:
		return StatusHalt, nil

	case OpCompare:
		c, err := v.compare(v.regs.mathA, v.regs.mathB)
		if err != nil {
			return StatusNormal, err
		}
		top := v.lastPushed()
		top.hasComparison = true
		top.lastComp = c
		return StatusNormal, nil
	case OpReturn:
		return v.returnFrame()
	case OpEndConditionalBlock:
		v.endConditionalBlock()
		return StatusNormal, nil
	case OpExecuteIf:
		return StatusNormal, v.executeIf(instr.Req)
	case OpIncreaseSkippingLevel:
		v.increaseSkippingLevel()
		return StatusNormal, nil

	case OpMakeNewFrame:
		v.makeNewFrame(int(instr.Addr))
		return StatusNormal, nil
	case OpSetLastFrameReady:
		v.setLastFrameReady()
		return StatusNormal, nil

	case OpAssertMathBCompatible:
		return StatusNormal, v.assertMathBCompatible(instr.Assert)
	case OpReadInput:
		return StatusNormal, v.readInput()
	case OpConvertToString:
		return StatusNormal, v.convertToString()
	case OpConvertToNum:
		return StatusNormal, v.convertToNum()
	case OpConvertToInt:
		return StatusNormal, v.convertToInt()

	case OpPushValMathA:
		val, err := v.materializeRaw(instr.Raw)
		if err != nil {
			return StatusNormal, err
		}
		v.regs.mathA = val
		return StatusNormal, nil
	case OpPushValMathB:
		val, err := v.materializeRaw(instr.Raw)
		if err != nil {
			return StatusNormal, err
		}
		v.regs.mathB = val
		return StatusNormal, nil
	case OpPushIntermediateToA:
		v.regs.mathA = v.regs.intermediate
		return StatusNormal, nil
	case OpPushIntermediateToB:
		v.regs.mathB = v.regs.intermediate
		return StatusNormal, nil
	case OpPushMathBToSecondary:
		v.regs.secondary = v.regs.mathB
		return StatusNormal, nil
	case OpClearSecondary:
		v.regs.secondary = Null()
		return StatusNormal, nil

	case OpReadGlobalVarFrom:
		val, err := readSlot(v.frames[0], int(instr.Addr))
		if err != nil {
			return StatusNormal, err
		}
		v.regs.intermediate = val
		return StatusNormal, nil
	case OpWriteGlobalVarTo:
		return StatusNormal, v.writeSlot(v.frames[0], int(instr.Addr), v.regs.mathB)
	case OpReadVarFrom:
		val, err := readSlot(v.getLastReady(), int(instr.Addr))
		if err != nil {
			return StatusNormal, err
		}
		v.regs.intermediate = val
		return StatusNormal, nil
	case OpWriteVarTo:
		return StatusNormal, v.writeSlot(v.getLastReady(), int(instr.Addr), v.regs.mathB)
	case OpWriteVarToLast:
		return StatusNormal, v.writeSlot(v.lastPushed(), int(instr.Addr), v.regs.mathB)
	case OpTryDecrementRefAt:
		return StatusNormal, v.tryDecrementRefAt(int(instr.Addr))

	case OpSwapMath:
		v.regs.mathA, v.regs.mathB = v.regs.mathB, v.regs.mathA
		return StatusNormal, nil
	case OpClearMath:
		v.regs.mathA = Null()
		v.regs.mathB = Null()
		return StatusNormal, nil
	case OpAdd:
		result, err := v.add(v.regs.mathA, v.regs.mathB)
		if err != nil {
			return StatusNormal, err
		}
		v.regs.mathB = result
		return StatusNormal, nil
	case OpSub:
		result, err := v.sub(v.regs.mathA, v.regs.mathB)
		if err != nil {
			return StatusNormal, err
		}
		v.regs.mathB = result
		return StatusNormal, nil
	case OpMul:
		result, err := v.mul(v.regs.mathA, v.regs.mathB)
		if err != nil {
			return StatusNormal, err
		}
		v.regs.mathB = result
		return StatusNormal, nil
	case OpDiv:
		result, err := v.div(v.regs.mathA, v.regs.mathB)
		if err != nil {
			return StatusNormal, err
		}
		v.regs.mathB = result
		return StatusNormal, nil

	case OpAddLoopLabel:
		v.addLoopLabel()
		return StatusNormal, nil
	case OpRestoreLoopLabel:
		return StatusNormal, v.restoreLoopLabel()
	case OpPopLoopLabel:
		return StatusNormal, v.popLoopLabel()
	case OpRegisterIncrementOnRestore:
		return StatusNormal, v.registerIncrementOnRestore(instr.Addr)
	case OpSetFirstExpressionOperation:
		v.regs.firstOperation = true
		return StatusNormal, nil

	case OpMakeNewList:
		v.makeNewList()
		return StatusNormal, nil
	case OpIndexList:
		return StatusNormal, v.indexList()
	case OpAddToListAtIndex:
		return StatusNormal, v.addToListAtIndex()
	case OpRemoveFromListAtIndex:
		return StatusNormal, v.removeFromListAtIndex()
	case OpQueryListSize:
		return StatusNormal, v.queryListSize()

	case OpCallPlugin:
		return v.callPlugin(instr.Addr, instr.Argc)
	case OpPushMathBPluginArgument:
		v.pushMathBPluginArgument()
		return StatusNormal, nil

	default:
		return StatusHalt, newStateError("unknown opcode %v", instr.Op)
	}
}
