package vm

import "fmt"

// Kind tags the variant held by a Value. It never changes identity - a Value
// is always freely copyable regardless of which kind it holds.
type Kind byte

const (
	KindNull Kind = iota
	KindInteger
	KindNumber
	KindText
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "Null"
	case KindInteger:
		return "Integer"
	case KindNumber:
		return "Number"
	case KindText:
		return "Text"
	case KindList:
		return "List"
	default:
		return "?unknown?"
	}
}

// Value is the dynamic value every register, slot and heap list element
// holds. Only Text and List carry a Handle into the heap; Integer and Number
// are stored inline. The zero Value is Null.
type Value struct {
	kind    Kind
	integer int64
	number  float64
	handle  Handle
}

func Null() Value { return Value{kind: KindNull} }

func Integer(i int64) Value { return Value{kind: KindInteger, integer: i} }

func Number(f float64) Value { return Value{kind: KindNumber, number: f} }

func Text(h Handle) Value { return Value{kind: KindText, handle: h} }

func List(h Handle) Value { return Value{kind: KindList, handle: h} }

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool { return v.kind == KindNull }

// Int panics if v is not KindInteger - callers must check Kind first, same
// as every other accessor here. This mirrors the teacher's "trust the
// decoded instruction" discipline: by the time arithmetic touches a Value,
// AssertMathBCompatible or the opcode's own type check has already run.
func (v Value) Int() int64 {
	if v.kind != KindInteger {
		panic(fmt.Sprintf("Int() called on %s value", v.kind))
	}
	return v.integer
}

func (v Value) Num() float64 {
	if v.kind != KindNumber {
		panic(fmt.Sprintf("Num() called on %s value", v.kind))
	}
	return v.number
}

func (v Value) Handle() Handle {
	if v.kind != KindText && v.kind != KindList {
		panic(fmt.Sprintf("Handle() called on %s value", v.kind))
	}
	return v.handle
}

// IsHeapBacked is true for the two kinds whose Value carries a heap Handle
// and therefore participates in the reference-counting protocol of §4.8.
func (v Value) IsHeapBacked() bool {
	return v.kind == KindText || v.kind == KindList
}

// AsFloat widens an Integer or Number to float64. Callers must have already
// established v is numeric (e.g. via isCompatible).
func (v Value) AsFloat() float64 {
	switch v.kind {
	case KindInteger:
		return float64(v.integer)
	case KindNumber:
		return v.number
	default:
		panic(fmt.Sprintf("AsFloat() called on %s value", v.kind))
	}
}

func isNumeric(v Value) bool {
	return v.kind == KindInteger || v.kind == KindNumber
}

// isCompatible implements §4.4's compatibility rule: both numeric (any mix
// of Integer/Number), or both Text, or both List. Null is never compatible,
// including with itself, under this rule - Null arithmetic is special-cased
// by the caller before isCompatible is consulted.
func isCompatible(left, right Value) bool {
	if isNumeric(left) && isNumeric(right) {
		return true
	}
	return left.kind == right.kind && (left.kind == KindText || left.kind == KindList)
}
