package vm

import (
	"fmt"
	"strconv"
	"strings"
)

// formatPlain renders a Value the way PrintMathB does - no type tag, lists
// rendered element-by-element using formatPlain recursively, with string
// elements unquoted.
func (v *VM) formatPlain(val Value) (string, error) {
	switch val.Kind() {
	case KindNull:
		return "null", nil
	case KindInteger:
		return strconv.FormatInt(val.Int(), 10), nil
	case KindNumber:
		return strconv.FormatFloat(val.Num(), 'g', -1, 64), nil
	case KindText:
		return v.heap.Text(val.Handle())
	case KindList:
		return v.formatListPlain(val.Handle())
	default:
		return "", newTypeError("cannot format %s value", val.Kind())
	}
}

func (v *VM) formatListPlain(handle Handle) (string, error) {
	items, err := v.heap.List(handle)
	if err != nil {
		return "", err
	}
	parts := make([]string, len(items))
	for i, item := range items {
		s, err := v.formatPlain(item)
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	return "[ " + strings.Join(parts, ", ") + " ]", nil
}

// formatDebug renders a Value the way PrintMathBDebug does (§4.11): tagged
// with its type category, e.g. "(Integer) 3", "(Text) \"hi\"". A list gets
// a single "(List)" tag; its elements are rendered untagged, with text
// children quoted.
func (v *VM) formatDebug(val Value) (string, error) {
	switch val.Kind() {
	case KindText:
		s, err := v.heap.Text(val.Handle())
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(Text) %q", s), nil
	case KindList:
		s, err := v.formatListDebug(val.Handle())
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(List) %s", s), nil
	default:
		plain, err := v.formatPlain(val)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(%s) %s", val.Kind(), plain), nil
	}
}

func (v *VM) formatListDebug(handle Handle) (string, error) {
	items, err := v.heap.List(handle)
	if err != nil {
		return "", err
	}
	parts := make([]string, len(items))
	for i, item := range items {
		if item.Kind() == KindText {
			s, err := v.heap.Text(item.Handle())
			if err != nil {
				return "", err
			}
			parts[i] = fmt.Sprintf("%q", s)
		} else {
			s, err := v.formatPlain(item)
			if err != nil {
				return "", err
			}
			parts[i] = s
		}
	}
	return "[ " + strings.Join(parts, ", ") + " ]", nil
}

func (v *VM) printMathB() error {
	if v.stdout == nil {
		return nil
	}
	s, err := v.formatPlain(v.regs.mathB)
	if err != nil {
		return err
	}
	if _, err := v.stdout.WriteString(s); err != nil {
		return newIOError(err, "writing print_math_b output")
	}
	return nil
}

func (v *VM) printMathBDebug() error {
	if v.stdout == nil {
		return nil
	}
	s, err := v.formatDebug(v.regs.mathB)
	if err != nil {
		return err
	}
	if _, err := v.stdout.WriteString(s); err != nil {
		return newIOError(err, "writing print_math_b_debug output")
	}
	return nil
}

func (v *VM) printNewLine() error {
	if v.stdout == nil {
		return nil
	}
	if _, err := v.stdout.WriteString("\n"); err != nil {
		return newIOError(err, "writing newline")
	}
	return nil
}

func (v *VM) flushStdout() error {
	if v.stdout == nil {
		return nil
	}
	if err := v.stdout.Flush(); err != nil {
		return newIOError(err, "flushing stdout")
	}
	return nil
}

// readInput implements ReadInput (§4.11): read one line, strip the trailing
// delimiter, allocate a heap text item charged to the last-ready frame,
// deposit the handle in intermediate.
func (v *VM) readInput() error {
	if v.stdin == nil {
		return newIOError(nil, "no input configured")
	}
	line, err := v.stdin.ReadString('\n')
	if err != nil && line == "" {
		return newIOError(err, "reading input")
	}
	line = strings.TrimRight(line, "\r\n")

	v.regs.intermediate = Text(v.newHeapText(line))
	return nil
}
