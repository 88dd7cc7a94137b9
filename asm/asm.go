// Package asm is a minimal textual assembler for the birlvm instruction set.
// It exists to give the core interpreter something runnable from the
// command line and from tests, and is grounded on the comment-stripping and
// escape-sequence handling of the teacher project's own line-oriented
// assembler. It is explicitly NOT the source-language compiler described by
// the specification (that remains an external collaborator); it only turns
// one textual opcode-per-line format into vm.Instruction values.
package asm

import (
	"bufio"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"birlvm/vm"
)

var comments = regexp.MustCompile(`//.*`)

// escapeSeqReplacements mirrors the teacher's table for turning the
// two-character sequences produced by a text editor (\\n) back into their
// single-byte control-character form (\n).
var escapeSeqReplacements = map[string]string{
	`\a`: "\a",
	`\b`: "\b",
	`\f`: "\f",
	`\n`: "\n",
	`\r`: "\r",
	`\t`: "\t",
	`\v`: "\v",
}

var mnemonics = map[string]vm.Op{
	"nop":                            vm.OpNop,
	"print_math_b":                   vm.OpPrintMathB,
	"print_math_b_debug":             vm.OpPrintMathBDebug,
	"print_new_line":                 vm.OpPrintNewLine,
	"flush_stdout":                   vm.OpFlushStdout,
	"quit":                           vm.OpQuit,
	"halt":                           vm.OpHalt,
	"compare":                        vm.OpCompare,
	"return":                         vm.OpReturn,
	"end_conditional_block":         vm.OpEndConditionalBlock,
	"execute_if":                     vm.OpExecuteIf,
	"increase_skipping_level":        vm.OpIncreaseSkippingLevel,
	"make_new_frame":                 vm.OpMakeNewFrame,
	"set_last_frame_ready":           vm.OpSetLastFrameReady,
	"assert_math_b_compatible":       vm.OpAssertMathBCompatible,
	"read_input":                     vm.OpReadInput,
	"convert_to_string":              vm.OpConvertToString,
	"convert_to_num":                 vm.OpConvertToNum,
	"convert_to_int":                 vm.OpConvertToInt,
	"push_val_math_a":                vm.OpPushValMathA,
	"push_val_math_b":                vm.OpPushValMathB,
	"push_intermediate_to_a":         vm.OpPushIntermediateToA,
	"push_intermediate_to_b":         vm.OpPushIntermediateToB,
	"push_math_b_to_secondary":       vm.OpPushMathBToSecondary,
	"clear_secondary":                vm.OpClearSecondary,
	"read_global_var_from":           vm.OpReadGlobalVarFrom,
	"write_global_var_to":            vm.OpWriteGlobalVarTo,
	"read_var_from":                  vm.OpReadVarFrom,
	"write_var_to":                   vm.OpWriteVarTo,
	"write_var_to_last":              vm.OpWriteVarToLast,
	"try_decrement_ref_at":           vm.OpTryDecrementRefAt,
	"swap_math":                      vm.OpSwapMath,
	"clear_math":                     vm.OpClearMath,
	"add":                            vm.OpAdd,
	"sub":                            vm.OpSub,
	"mul":                            vm.OpMul,
	"div":                            vm.OpDiv,
	"add_loop_label":                 vm.OpAddLoopLabel,
	"restore_loop_label":             vm.OpRestoreLoopLabel,
	"pop_loop_label":                 vm.OpPopLoopLabel,
	"register_increment_on_restore":  vm.OpRegisterIncrementOnRestore,
	"set_first_expression_operation": vm.OpSetFirstExpressionOperation,
	"make_new_list":                  vm.OpMakeNewList,
	"index_list":                     vm.OpIndexList,
	"add_to_list_at_index":           vm.OpAddToListAtIndex,
	"remove_from_list_at_index":      vm.OpRemoveFromListAtIndex,
	"query_list_size":                vm.OpQueryListSize,
	"call_plugin":                    vm.OpCallPlugin,
	"push_math_b_plugin_argument":    vm.OpPushMathBPluginArgument,
}

var compareReqs = map[string]vm.CompareReq{
	"equal":         vm.ReqEqual,
	"not_equal":     vm.ReqNotEqual,
	"less":          vm.ReqLess,
	"less_or_equal": vm.ReqLessOrEqual,
	"more":          vm.ReqMore,
	"more_or_equal": vm.ReqMoreOrEqual,
}

var assertKinds = map[string]vm.AssertKind{
	"integer": vm.AssertInteger,
	"number":  vm.AssertNumber,
	"text":    vm.AssertText,
	"list":    vm.AssertList,
}

// Assemble turns a line-per-instruction source into a single instruction
// stream. Line format: "<mnemonic> [operand...]". Blank lines,
// whitespace-only lines and // comments are ignored. Label definitions
// ("name:") are rejected here - a single stream has nowhere for a
// make_new_frame reference to land - use AssembleProgram/Load for sources
// that declare labeled function blocks.
func Assemble(source string) ([]vm.Instruction, error) {
	var out []vm.Instruction

	scanner := bufio.NewScanner(strings.NewReader(source))
	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := preprocessLine(scanner.Text())
		if line == "" {
			continue
		}
		if isLabelDef(line) {
			return nil, errors.Errorf("line %d: labels are only valid in a multi-block program, see AssembleProgram", lineNo)
		}

		instr, label, err := parseLine(line)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", lineNo)
		}
		if label != "" {
			return nil, errors.Errorf("line %d: make_new_frame label %q needs AssembleProgram/Load", lineNo, label)
		}
		out = append(out, instr)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading assembly source")
	}
	return out, nil
}

// AssembleReader is a convenience wrapper for callers holding an io.Reader
// rather than a string (e.g. an open *os.File).
func AssembleReader(r io.Reader) ([]vm.Instruction, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "reading assembly source")
	}
	return Assemble(string(b))
}

// labelDef matches a bare "name:" line - a label declaration that starts a
// new function block, in the style of the teacher's compile.go (strings.
// HasSuffix(line, ":"), reject inner whitespace).
var labelDef = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*:$`)

func isLabelDef(line string) bool {
	return labelDef.MatchString(line)
}

// Block is one labeled function body in a multi-block program. The
// implicit leading block, before any label declaration, has an empty
// Label and is registered first.
type Block struct {
	Label  string
	Instrs []vm.Instruction
}

// Program is a fully parsed, label-resolved multi-block source: every
// make_new_frame reference to a label has already been rewritten to the
// position of that label's block within Blocks. Register with Load (or
// manually via VM.AddCode in Blocks order) to turn block positions into
// code ids.
type Program struct {
	Blocks []Block
}

// pendingLabelRef records a make_new_frame instruction whose operand named
// a label instead of a numeric address, to be resolved once every block's
// position is known.
type pendingLabelRef struct {
	block int
	instr int
	label string
}

// AssembleProgram parses a full source listing into labeled blocks and
// resolves every make_new_frame label reference to the target block's
// index, mirroring the teacher's two-pass preprocessLine/parseInputLine
// pipeline (collect labels, then rewrite references) but resolving to
// block position rather than byte offset, since this machine calls
// functions by code id rather than jumping to a pc.
func AssembleProgram(source string) (*Program, error) {
	prog := &Program{Blocks: []Block{{Label: ""}}}
	labelPos := map[string]int{}
	var pending []pendingLabelRef

	scanner := bufio.NewScanner(strings.NewReader(source))
	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := preprocessLine(scanner.Text())
		if line == "" {
			continue
		}

		if isLabelDef(line) {
			label := strings.TrimSuffix(line, ":")
			if _, exists := labelPos[label]; exists {
				return nil, errors.Errorf("line %d: label %q redefined", lineNo, label)
			}
			prog.Blocks = append(prog.Blocks, Block{Label: label})
			labelPos[label] = len(prog.Blocks) - 1
			continue
		}

		instr, label, err := parseLine(line)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", lineNo)
		}

		cur := len(prog.Blocks) - 1
		if label != "" {
			pending = append(pending, pendingLabelRef{block: cur, instr: len(prog.Blocks[cur].Instrs), label: label})
		}
		prog.Blocks[cur].Instrs = append(prog.Blocks[cur].Instrs, instr)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading assembly source")
	}

	for _, ref := range pending {
		pos, ok := labelPos[ref.label]
		if !ok {
			return nil, errors.Errorf("undefined label %q", ref.label)
		}
		prog.Blocks[ref.block].Instrs[ref.instr].Addr = uint32(pos)
	}

	// A program with no label definitions at all still produces one
	// (anonymous) block, so single-block sources work through this path
	// too. A program whose leading anonymous block never received any
	// instructions (every line started with a label) leaves a harmless
	// empty block 0 ahead of the labeled ones; Load registers it like any
	// other block, so no index rewriting is needed.
	return prog, nil
}

// Load assembles a full multi-block program and registers every block with
// v via AddCode, rewriting each make_new_frame's block-position Addr into
// the real code id AddCode returned for that block. It returns the code id
// of the first block, suitable for VM.SetEntryFrame.
func Load(v *vm.VM, r io.Reader) (int, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return 0, errors.Wrap(err, "reading assembly source")
	}
	prog, err := AssembleProgram(string(b))
	if err != nil {
		return 0, err
	}

	ids := make([]int, len(prog.Blocks))
	for i, blk := range prog.Blocks {
		ids[i] = v.AddCode(blk.Instrs)
	}
	for _, blk := range prog.Blocks {
		for j, instr := range blk.Instrs {
			if instr.Op == vm.OpMakeNewFrame {
				blk.Instrs[j].Addr = uint32(ids[instr.Addr])
			}
		}
	}
	return ids[0], nil
}

func preprocessLine(line string) string {
	line = comments.ReplaceAllString(line, "")
	return strings.TrimSpace(line)
}

// parseLine parses a single non-label, non-blank instruction line. The
// second return value is non-empty only for a make_new_frame whose operand
// named a label rather than a numeric block address - callers that don't
// support multi-block programs (Assemble) must reject that case.
func parseLine(line string) (vm.Instruction, string, error) {
	fields := strings.Fields(line)
	mnemonic := fields[0]
	args := fields[1:]

	op, ok := mnemonics[mnemonic]
	if !ok {
		return vm.Instruction{}, "", errors.Errorf("unknown mnemonic %q", mnemonic)
	}

	instr := vm.Instruction{Op: op}
	var label string

	switch op {
	case vm.OpMakeNewFrame:
		if len(args) != 1 {
			return vm.Instruction{}, "", errors.Errorf("%s requires exactly one address or label argument", mnemonic)
		}
		if n, err := strconv.ParseUint(args[0], 10, 32); err == nil {
			instr.Addr = uint32(n)
		} else {
			label = args[0]
		}

	case vm.OpReadVarFrom, vm.OpWriteVarTo, vm.OpWriteVarToLast,
		vm.OpReadGlobalVarFrom, vm.OpWriteGlobalVarTo, vm.OpTryDecrementRefAt,
		vm.OpRegisterIncrementOnRestore:
		addr, err := requireUint(args, mnemonic)
		if err != nil {
			return vm.Instruction{}, "", err
		}
		instr.Addr = addr

	case vm.OpCallPlugin:
		if len(args) != 2 {
			return vm.Instruction{}, "", errors.Errorf("%s requires 2 arguments (address, argc)", mnemonic)
		}
		addr, err := strconv.ParseUint(args[0], 10, 32)
		if err != nil {
			return vm.Instruction{}, "", errors.Wrapf(err, "%s address", mnemonic)
		}
		argc, err := strconv.ParseUint(args[1], 10, 32)
		if err != nil {
			return vm.Instruction{}, "", errors.Wrapf(err, "%s argc", mnemonic)
		}
		instr.Addr = uint32(addr)
		instr.Argc = uint32(argc)

	case vm.OpExecuteIf:
		if len(args) != 1 {
			return vm.Instruction{}, "", errors.Errorf("%s requires a comparison request", mnemonic)
		}
		req, ok := compareReqs[args[0]]
		if !ok {
			return vm.Instruction{}, "", errors.Errorf("unknown comparison request %q", args[0])
		}
		instr.Req = req

	case vm.OpAssertMathBCompatible:
		if len(args) != 1 {
			return vm.Instruction{}, "", errors.Errorf("%s requires a kind", mnemonic)
		}
		kind, ok := assertKinds[args[0]]
		if !ok {
			return vm.Instruction{}, "", errors.Errorf("unknown assert kind %q", args[0])
		}
		instr.Assert = kind

	case vm.OpPushValMathA, vm.OpPushValMathB:
		raw, err := parseRawValue(args)
		if err != nil {
			return vm.Instruction{}, "", errors.Wrapf(err, "%s", mnemonic)
		}
		instr.Raw = raw
	}

	return instr, label, nil
}

func requireUint(args []string, mnemonic string) (uint32, error) {
	if len(args) != 1 {
		return 0, errors.Errorf("%s requires exactly one address argument", mnemonic)
	}
	n, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		return 0, errors.Wrapf(err, "%s address", mnemonic)
	}
	return uint32(n), nil
}

// parseRawValue parses "int <n>", "num <f>", "text <literal>" or "null".
// The text literal is whatever remains of the line after the "text" tag,
// joined back with single spaces (so embedded words survive Fields()).
// Escape sequences in the literal are expanded after the join, so an
// escaped control character is not lost to field splitting or trimming.
func parseRawValue(args []string) (vm.RawValue, error) {
	if len(args) == 0 {
		return vm.RawValue{}, errors.New("expected a raw value")
	}
	switch args[0] {
	case "null":
		return vm.RawValNullValue(), nil
	case "int":
		if len(args) != 2 {
			return vm.RawValue{}, errors.New("int requires one integer literal")
		}
		n, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return vm.RawValue{}, errors.Wrap(err, "integer literal")
		}
		return vm.RawValInt(n), nil
	case "num":
		if len(args) != 2 {
			return vm.RawValue{}, errors.New("num requires one numeric literal")
		}
		f, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return vm.RawValue{}, errors.Wrap(err, "numeric literal")
		}
		return vm.RawValNum(f), nil
	case "text":
		lit := strings.Join(args[1:], " ")
		for seq, repl := range escapeSeqReplacements {
			lit = strings.ReplaceAll(lit, seq, repl)
		}
		return vm.RawValStr(lit), nil
	default:
		return vm.RawValue{}, errors.Errorf("unknown raw value tag %q", args[0])
	}
}
