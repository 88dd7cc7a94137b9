package vm

// makeNewList implements MakeNewList (§4.7): allocate an empty list, deposit
// List(handle) in math_b.
func (v *VM) makeNewList() {
	v.regs.mathB = List(v.newHeapList(nil))
}

// indexList implements IndexList (§4.7): list in intermediate, Integer(i)
// in math_b. Replaces math_b with the element, or fails if out of bounds.
func (v *VM) indexList() error {
	if v.regs.intermediate.Kind() != KindList {
		return newTypeError("index_list requires a list in intermediate, got %s", v.regs.intermediate.Kind())
	}
	if v.regs.mathB.Kind() != KindInteger {
		return newTypeError("index_list requires an integer index in math_b, got %s", v.regs.mathB.Kind())
	}

	items, err := v.heap.List(v.regs.intermediate.Handle())
	if err != nil {
		return err
	}

	idx := v.regs.mathB.Int()
	if idx < 0 || idx >= int64(len(items)) {
		return newDomainError("list index %d out of bounds (len %d)", idx, len(items))
	}

	v.regs.mathB = items[idx]
	return nil
}

// addToListAtIndex implements AddToListAtIndex (§4.7): list handle in
// intermediate, value in math_b, index in secondary. Null secondary
// appends; an in-bounds integer inserts; an integer at or past the end
// appends; a negative integer fails with a DomainError.
func (v *VM) addToListAtIndex() error {
	if v.regs.intermediate.Kind() != KindList {
		return newTypeError("add_to_list_at_index requires a list in intermediate, got %s", v.regs.intermediate.Kind())
	}

	handle := v.regs.intermediate.Handle()
	items, err := v.heap.List(handle)
	if err != nil {
		return err
	}
	value := v.regs.mathB

	if v.regs.secondary.IsNull() {
		items = append(items, value)
	} else if v.regs.secondary.Kind() == KindInteger {
		idx := v.regs.secondary.Int()
		if idx < 0 {
			return newDomainError("negative list index %d", idx)
		}
		if idx >= int64(len(items)) {
			items = append(items, value)
		} else {
			items = append(items, Value{})
			copy(items[idx+1:], items[idx:])
			items[idx] = value
		}
	} else {
		return newTypeError("add_to_list_at_index requires Null or Integer in secondary, got %s", v.regs.secondary.Kind())
	}

	return v.heap.SetList(handle, items)
}

// removeFromListAtIndex implements RemoveFromListAtIndex (§4.7): same
// addressing as IndexList, removes by index.
func (v *VM) removeFromListAtIndex() error {
	if v.regs.intermediate.Kind() != KindList {
		return newTypeError("remove_from_list_at_index requires a list in intermediate, got %s", v.regs.intermediate.Kind())
	}
	if v.regs.mathB.Kind() != KindInteger {
		return newTypeError("remove_from_list_at_index requires an integer index in math_b, got %s", v.regs.mathB.Kind())
	}

	handle := v.regs.intermediate.Handle()
	items, err := v.heap.List(handle)
	if err != nil {
		return err
	}

	idx := v.regs.mathB.Int()
	if idx < 0 || idx >= int64(len(items)) {
		return newDomainError("list index %d out of bounds (len %d)", idx, len(items))
	}

	items = append(items[:idx], items[idx+1:]...)
	return v.heap.SetList(handle, items)
}

// queryListSize implements QueryListSize (§4.7): deposit Integer(len) in
// math_b.
func (v *VM) queryListSize() error {
	if v.regs.intermediate.Kind() != KindList {
		return newTypeError("query_list_size requires a list in intermediate, got %s", v.regs.intermediate.Kind())
	}
	items, err := v.heap.List(v.regs.intermediate.Handle())
	if err != nil {
		return err
	}
	v.regs.mathB = Integer(int64(len(items)))
	return nil
}
