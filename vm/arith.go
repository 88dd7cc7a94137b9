package vm

// newHeapText/newHeapList allocate a heap item with ref_count 0 and charge
// the informational numSpecialItems counter of the newest ready frame
// (§4.3's "charge the newest ready frame for this allocation"). The item
// itself stays alive per invariant 3 of §3 until a slot write adopts it.
func (v *VM) newHeapText(s string) Handle {
	h := v.heap.AddText(s, 0)
	v.frames[v.getLastReadyIndex()].numSpecialItems++
	return h
}

func (v *VM) newHeapList(items []Value) Handle {
	h := v.heap.AddList(items, 0)
	v.frames[v.getLastReadyIndex()].numSpecialItems++
	return h
}

// add implements §4.4's Add semantics over (left, right), consuming and
// clearing regs.firstOperation as described in the design note of §9.
func (v *VM) add(left, right Value) (Value, error) {
	if left.IsNull() {
		return Null(), nil
	}
	if right.IsNull() {
		return Value{}, newTypeError("cannot add %s to Null", right.Kind())
	}
	if !isCompatible(left, right) {
		return Value{}, newTypeError("incompatible operands for add: %s and %s", left.Kind(), right.Kind())
	}

	switch {
	case isNumeric(left) && isNumeric(right):
		return numericAdd(left, right), nil
	case left.Kind() == KindText:
		first := v.regs.firstOperation
		v.regs.firstOperation = false

		leftStr, err := v.heap.Text(left.Handle())
		if err != nil {
			return Value{}, err
		}
		rightStr, err := v.heap.Text(right.Handle())
		if err != nil {
			return Value{}, err
		}

		var joined string
		if first {
			joined = rightStr + leftStr
		} else {
			joined = leftStr + rightStr
		}
		return Text(v.newHeapText(joined)), nil
	case left.Kind() == KindList:
		leftList, err := v.heap.List(left.Handle())
		if err != nil {
			return Value{}, err
		}
		rightList, err := v.heap.List(right.Handle())
		if err != nil {
			return Value{}, err
		}

		joined := make([]Value, 0, len(leftList)+len(rightList))
		joined = append(joined, leftList...)
		joined = append(joined, rightList...)
		return List(v.newHeapList(joined)), nil
	default:
		return Value{}, newTypeError("add not defined for %s", left.Kind())
	}
}

func numericAdd(left, right Value) Value {
	if left.Kind() == KindInteger && right.Kind() == KindInteger {
		return Integer(left.Int() + right.Int())
	}
	return Number(left.AsFloat() + right.AsFloat())
}

// sub, mul and div are only defined for numeric operands (§4.4: "Text -,
// *, / : not defined"; "Other operators on lists fail").
func (v *VM) sub(left, right Value) (Value, error) {
	if left.IsNull() {
		return Null(), nil
	}
	if right.IsNull() {
		return Value{}, newTypeError("cannot sub %s from Null", right.Kind())
	}
	if !isNumeric(left) || !isNumeric(right) {
		return Value{}, newTypeError("sub requires numeric operands, got %s and %s", left.Kind(), right.Kind())
	}
	if left.Kind() == KindInteger && right.Kind() == KindInteger {
		return Integer(left.Int() - right.Int()), nil
	}
	return Number(left.AsFloat() - right.AsFloat()), nil
}

func (v *VM) mul(left, right Value) (Value, error) {
	if left.IsNull() {
		return Null(), nil
	}
	if right.IsNull() {
		return Value{}, newTypeError("cannot mul %s by Null", right.Kind())
	}
	if !isNumeric(left) || !isNumeric(right) {
		return Value{}, newTypeError("mul requires numeric operands, got %s and %s", left.Kind(), right.Kind())
	}
	if left.Kind() == KindInteger && right.Kind() == KindInteger {
		return Integer(left.Int() * right.Int()), nil
	}
	return Number(left.AsFloat() * right.AsFloat()), nil
}

func (v *VM) div(left, right Value) (Value, error) {
	if left.IsNull() {
		return Null(), nil
	}
	if right.IsNull() {
		return Value{}, newTypeError("cannot div %s by Null", right.Kind())
	}
	if !isNumeric(left) || !isNumeric(right) {
		return Value{}, newTypeError("div requires numeric operands, got %s and %s", left.Kind(), right.Kind())
	}
	if left.Kind() == KindInteger && right.Kind() == KindInteger {
		if right.Int() == 0 {
			return Value{}, newDomainError("integer division by zero")
		}
		return Integer(left.Int() / right.Int()), nil
	}
	return Number(left.AsFloat() / right.AsFloat()), nil
}

// compare implements §4.4's Compare semantics. Lists only ever compare
// Equal or NotEqual, so a LessOrEqual/MoreOrEqual request on list operands
// is satisfied only when the lists are equal.
func (v *VM) compare(left, right Value) (Comparison, error) {
	switch {
	case left.IsNull() && right.IsNull():
		return Equal, nil
	case left.IsNull() || right.IsNull():
		return NotEqual, nil
	case isNumeric(left) && isNumeric(right):
		lf, rf := left.AsFloat(), right.AsFloat()
		switch {
		case lf < rf:
			return LessThan, nil
		case lf > rf:
			return MoreThan, nil
		default:
			return Equal, nil
		}
	case left.Kind() == KindText && right.Kind() == KindText:
		ls, err := v.heap.Text(left.Handle())
		if err != nil {
			return 0, err
		}
		rs, err := v.heap.Text(right.Handle())
		if err != nil {
			return 0, err
		}
		if len(ls) != len(rs) {
			if len(ls) > len(rs) {
				return MoreThan, nil
			}
			return LessThan, nil
		}
		if ls == rs {
			return Equal, nil
		}
		return NotEqual, nil
	case left.Kind() == KindList && right.Kind() == KindList:
		return v.compareLists(left.Handle(), right.Handle())
	default:
		return NotEqual, nil
	}
}

func (v *VM) compareLists(leftHandle, rightHandle Handle) (Comparison, error) {
	left, err := v.heap.List(leftHandle)
	if err != nil {
		return 0, err
	}
	right, err := v.heap.List(rightHandle)
	if err != nil {
		return 0, err
	}

	if len(left) != len(right) {
		return NotEqual, nil
	}
	for i := range left {
		c, err := v.compare(left[i], right[i])
		if err != nil {
			return 0, err
		}
		if c != Equal {
			return NotEqual, nil
		}
	}
	return Equal, nil
}
