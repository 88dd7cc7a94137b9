package vm

// pushMathBPluginArgument pushes math_b onto the process-wide plugin
// argument stack (§4.10).
func (v *VM) pushMathBPluginArgument() {
	v.pluginArgStack = append(v.pluginArgStack, v.regs.mathB)
}

// callPlugin implements CallPlugin (§4.10):
//  1. fail if address or argument count is out of bounds
//  2. pop num arguments LIFO (the last pushed becomes arg 0)
//  3. invoke the plugin
//  4. on a returned value, write it into slot 0 of the topmost frame, and
//     echo it in interactive mode at global scope while preserving math_b.
func (v *VM) callPlugin(address, num uint32) (Status, error) {
	if int(address) >= len(v.plugins) {
		return StatusNormal, newResourceError("invalid plugin address %d", address)
	}
	if int(num) > len(v.pluginArgStack) {
		return StatusNormal, newResourceError("call_plugin requested %d args but only %d are on the stack", num, len(v.pluginArgStack))
	}

	start := len(v.pluginArgStack) - int(num)
	popped := v.pluginArgStack[start:]

	// LIFO: the last pushed argument becomes arg 0.
	args := make([]Value, num)
	for i, val := range popped {
		args[int(num)-1-i] = val
	}
	v.pluginArgStack = v.pluginArgStack[:start]

	result, err := v.plugins[address](args, v)
	if err != nil {
		return StatusNormal, err
	}
	if result == nil {
		return StatusNormal, nil
	}

	top := v.lastPushed()
	if err := v.writeSlot(top, 0, *result); err != nil {
		return StatusNormal, err
	}

	if v.regs.isInteractive && len(v.frames) == 1 {
		saved := v.regs.mathB
		v.regs.mathB = *result
		if err := v.printMathBDebug(); err != nil {
			return StatusNormal, err
		}
		if err := v.printNewLine(); err != nil {
			return StatusNormal, err
		}
		v.regs.mathB = saved
	}

	return StatusNormal, nil
}
