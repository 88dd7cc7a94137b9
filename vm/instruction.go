package vm

import "fmt"

// Op is the opcode of one instruction. The set is fixed by §6 of the spec -
// it is the schema the upstream compiler (out of scope here) targets.
type Op byte

const (
	OpNop Op = iota

	OpPrintMathB
	OpPrintMathBDebug
	OpPrintNewLine
	OpFlushStdout
	OpQuit
	OpHalt

	OpCompare
	OpReturn
	OpEndConditionalBlock
	OpExecuteIf
	OpIncreaseSkippingLevel

	OpMakeNewFrame
	OpSetLastFrameReady

	OpAssertMathBCompatible
	OpReadInput
	OpConvertToString
	OpConvertToNum
	OpConvertToInt

	OpPushValMathA
	OpPushValMathB
	OpPushIntermediateToA
	OpPushIntermediateToB
	OpPushMathBToSecondary
	OpClearSecondary

	OpReadGlobalVarFrom
	OpWriteGlobalVarTo
	OpReadVarFrom
	OpWriteVarTo
	OpWriteVarToLast
	OpTryDecrementRefAt

	OpSwapMath
	OpClearMath
	OpAdd
	OpSub
	OpMul
	OpDiv

	OpAddLoopLabel
	OpRestoreLoopLabel
	OpPopLoopLabel
	OpRegisterIncrementOnRestore
	OpSetFirstExpressionOperation

	OpMakeNewList
	OpIndexList
	OpAddToListAtIndex
	OpRemoveFromListAtIndex
	OpQueryListSize

	OpCallPlugin
	OpPushMathBPluginArgument
)

var opNames = map[Op]string{
	OpNop:                         "nop",
	OpPrintMathB:                  "print_math_b",
	OpPrintMathBDebug:             "print_math_b_debug",
	OpPrintNewLine:                "print_new_line",
	OpFlushStdout:                 "flush_stdout",
	OpQuit:                        "quit",
	OpHalt:                        "halt",
	OpCompare:                     "compare",
	OpReturn:                      "return",
	OpEndConditionalBlock:         "end_conditional_block",
	OpExecuteIf:                   "execute_if",
	OpIncreaseSkippingLevel:       "increase_skipping_level",
	OpMakeNewFrame:                "make_new_frame",
	OpSetLastFrameReady:           "set_last_frame_ready",
	OpAssertMathBCompatible:       "assert_math_b_compatible",
	OpReadInput:                   "read_input",
	OpConvertToString:             "convert_to_string",
	OpConvertToNum:                "convert_to_num",
	OpConvertToInt:                "convert_to_int",
	OpPushValMathA:                "push_val_math_a",
	OpPushValMathB:                "push_val_math_b",
	OpPushIntermediateToA:         "push_intermediate_to_a",
	OpPushIntermediateToB:         "push_intermediate_to_b",
	OpPushMathBToSecondary:        "push_math_b_to_secondary",
	OpClearSecondary:              "clear_secondary",
	OpReadGlobalVarFrom:           "read_global_var_from",
	OpWriteGlobalVarTo:            "write_global_var_to",
	OpReadVarFrom:                 "read_var_from",
	OpWriteVarTo:                  "write_var_to",
	OpWriteVarToLast:              "write_var_to_last",
	OpTryDecrementRefAt:           "try_decrement_ref_at",
	OpSwapMath:                    "swap_math",
	OpClearMath:                   "clear_math",
	OpAdd:                         "add",
	OpSub:                         "sub",
	OpMul:                         "mul",
	OpDiv:                         "div",
	OpAddLoopLabel:                "add_loop_label",
	OpRestoreLoopLabel:            "restore_loop_label",
	OpPopLoopLabel:                "pop_loop_label",
	OpRegisterIncrementOnRestore:  "register_increment_on_restore",
	OpSetFirstExpressionOperation: "set_first_expression_operation",
	OpMakeNewList:                 "make_new_list",
	OpIndexList:                   "index_list",
	OpAddToListAtIndex:            "add_to_list_at_index",
	OpRemoveFromListAtIndex:       "remove_from_list_at_index",
	OpQueryListSize:               "query_list_size",
	OpCallPlugin:                  "call_plugin",
	OpPushMathBPluginArgument:     "push_math_b_plugin_argument",
}

func (o Op) String() string {
	if s, ok := opNames[o]; ok {
		return s
	}
	return "?unknown?"
}

// RawKind tags a RawValue - the literal payload carried by PushValMathA/B,
// as produced by the upstream compiler (§6).
type RawKind byte

const (
	RawNull RawKind = iota
	RawInteger
	RawNumber
	RawText
)

type RawValue struct {
	Kind    RawKind
	Integer int64
	Number  float64
	Text    string
}

func RawValInt(i int64) RawValue      { return RawValue{Kind: RawInteger, Integer: i} }
func RawValNum(f float64) RawValue    { return RawValue{Kind: RawNumber, Number: f} }
func RawValStr(s string) RawValue     { return RawValue{Kind: RawText, Text: s} }
func RawValNullValue() RawValue       { return RawValue{Kind: RawNull} }

// Comparison is the outcome of the Compare instruction (§4.4).
type Comparison byte

const (
	Equal Comparison = iota
	NotEqual
	LessThan
	MoreThan
)

func (c Comparison) String() string {
	switch c {
	case Equal:
		return "Equal"
	case NotEqual:
		return "NotEqual"
	case LessThan:
		return "LessThan"
	case MoreThan:
		return "MoreThan"
	default:
		return "?unknown?"
	}
}

// CompareReq is the kind of test ExecuteIf performs against the current
// frame's last_comparison (§4.5).
type CompareReq byte

const (
	ReqEqual CompareReq = iota
	ReqNotEqual
	ReqLess
	ReqLessOrEqual
	ReqMore
	ReqMoreOrEqual
)

func (r CompareReq) satisfiedBy(c Comparison) bool {
	switch r {
	case ReqEqual:
		return c == Equal
	case ReqNotEqual:
		return c == NotEqual
	case ReqLess:
		return c == LessThan
	case ReqLessOrEqual:
		return c == LessThan || c == Equal
	case ReqMore:
		return c == MoreThan
	case ReqMoreOrEqual:
		return c == MoreThan || c == Equal
	default:
		return false
	}
}

// AssertKind is the kind argument to AssertMathBCompatible (§4.12).
type AssertKind byte

const (
	AssertInteger AssertKind = iota
	AssertNumber
	AssertText
	AssertList
)

// Status is what Step returns after executing (or skipping) one instruction
// (§4.13).
type Status byte

const (
	StatusNormal Status = iota
	StatusQuit
	StatusReturned
	StatusHalt
)

func (s Status) String() string {
	switch s {
	case StatusNormal:
		return "Normal"
	case StatusQuit:
		return "Quit"
	case StatusReturned:
		return "Returned"
	case StatusHalt:
		return "Halt"
	default:
		return "?unknown?"
	}
}

// Instruction is one decoded opcode plus whichever of its operand fields
// apply. Keeping a single flat struct (rather than per-opcode payload types)
// mirrors the teacher's fixed-width Instruction and keeps the code table
// cheap to copy, as §3 requires ("instructions are cheap to copy").
type Instruction struct {
	Op Op

	// Addr is overloaded by opcode: frame/function id (MakeNewFrame), slot
	// address (ReadVarFrom/WriteVarTo/WriteVarToLast/ReadGlobalVarFrom/
	// WriteGlobalVarTo/TryDecrementRefAt/RegisterIncrementOnRestore),
	// plugin address (CallPlugin).
	Addr uint32
	// Argc is CallPlugin's argument count.
	Argc uint32

	Req    CompareReq
	Assert AssertKind
	Raw    RawValue
}

func (i Instruction) String() string {
	switch i.Op {
	case OpMakeNewFrame, OpReadVarFrom, OpWriteVarTo, OpWriteVarToLast,
		OpReadGlobalVarFrom, OpWriteGlobalVarTo, OpTryDecrementRefAt,
		OpRegisterIncrementOnRestore:
		return fmt.Sprintf("%s %d", i.Op, i.Addr)
	case OpCallPlugin:
		return fmt.Sprintf("%s %d %d", i.Op, i.Addr, i.Argc)
	case OpExecuteIf:
		return fmt.Sprintf("%s %d", i.Op, i.Req)
	case OpAssertMathBCompatible:
		return fmt.Sprintf("%s %d", i.Op, i.Assert)
	case OpPushValMathA, OpPushValMathB:
		return fmt.Sprintf("%s %v", i.Op, i.Raw)
	default:
		return i.Op.String()
	}
}
