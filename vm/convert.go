package vm

import (
	"strconv"
	"strings"
)

// assertMathBCompatible implements AssertMathBCompatible (§4.12): Integer is
// accepted where Number is requested (numeric widening); every other
// mismatch fails.
func (v *VM) assertMathBCompatible(kind AssertKind) error {
	got := v.regs.mathB.Kind()
	switch kind {
	case AssertInteger:
		if got != KindInteger {
			return newTypeError("expected Integer, got %s", got)
		}
	case AssertNumber:
		if got != KindNumber && got != KindInteger {
			return newTypeError("expected Number, got %s", got)
		}
	case AssertText:
		if got != KindText {
			return newTypeError("expected Text, got %s", got)
		}
	case AssertList:
		if got != KindList {
			return newTypeError("expected List, got %s", got)
		}
	default:
		return newTypeError("unknown assert kind %d", kind)
	}
	return nil
}

// convertToInt implements ConvertToInt (§4.12), converting math_b in place.
func (v *VM) convertToInt() error {
	switch v.regs.mathB.Kind() {
	case KindInteger:
		return nil
	case KindNumber:
		v.regs.mathB = Integer(int64(v.regs.mathB.Num()))
		return nil
	case KindText:
		s, err := v.heap.Text(v.regs.mathB.Handle())
		if err != nil {
			return err
		}
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return newTypeError("cannot convert %q to Integer", s)
		}
		v.regs.mathB = Integer(n)
		return nil
	default:
		return newTypeError("cannot convert %s to Integer", v.regs.mathB.Kind())
	}
}

// convertToNum implements ConvertToNum (§4.12).
func (v *VM) convertToNum() error {
	switch v.regs.mathB.Kind() {
	case KindNumber:
		return nil
	case KindInteger:
		v.regs.mathB = Number(v.regs.mathB.AsFloat())
		return nil
	case KindText:
		s, err := v.heap.Text(v.regs.mathB.Handle())
		if err != nil {
			return err
		}
		n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return newTypeError("cannot convert %q to Number", s)
		}
		v.regs.mathB = Number(n)
		return nil
	default:
		return newTypeError("cannot convert %s to Number", v.regs.mathB.Kind())
	}
}

// convertToString implements ConvertToString (§4.12): allocates a fresh
// heap item for the string result, unless math_b is already Text (in which
// case the handle is reused).
func (v *VM) convertToString() error {
	if v.regs.mathB.Kind() == KindText {
		return nil
	}

	s, err := v.formatPlain(v.regs.mathB)
	if err != nil {
		return err
	}
	v.regs.mathB = Text(v.newHeapText(s))
	return nil
}
