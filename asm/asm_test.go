package asm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"birlvm/vm"
)

func TestAssembleIgnoresBlankLinesAndComments(t *testing.T) {
	src := `
		// a comment line
		nop   // trailing comment
		halt
	`
	instrs, err := Assemble(src)
	require.NoError(t, err)
	require.Len(t, instrs, 2)
	assert.Equal(t, vm.OpNop, instrs[0].Op)
	assert.Equal(t, vm.OpHalt, instrs[1].Op)
}

func TestAssembleAddressOperand(t *testing.T) {
	instrs, err := Assemble("write_var_to 3")
	require.NoError(t, err)
	require.Len(t, instrs, 1)
	assert.Equal(t, vm.OpWriteVarTo, instrs[0].Op)
	assert.Equal(t, uint32(3), instrs[0].Addr)
}

func TestAssembleCallPlugin(t *testing.T) {
	instrs, err := Assemble("call_plugin 2 3")
	require.NoError(t, err)
	require.Len(t, instrs, 1)
	assert.Equal(t, vm.OpCallPlugin, instrs[0].Op)
	assert.Equal(t, uint32(2), instrs[0].Addr)
	assert.Equal(t, uint32(3), instrs[0].Argc)
}

func TestAssembleExecuteIfComparison(t *testing.T) {
	instrs, err := Assemble("execute_if more_or_equal")
	require.NoError(t, err)
	require.Len(t, instrs, 1)
	assert.Equal(t, vm.ReqMoreOrEqual, instrs[0].Req)
}

func TestAssembleAssertKind(t *testing.T) {
	instrs, err := Assemble("assert_math_b_compatible list")
	require.NoError(t, err)
	require.Len(t, instrs, 1)
	assert.Equal(t, vm.AssertList, instrs[0].Assert)
}

func TestAssembleRawValues(t *testing.T) {
	cases := []struct {
		line string
		want vm.RawValue
	}{
		{"push_val_math_a null", vm.RawValNullValue()},
		{"push_val_math_a int 42", vm.RawValInt(42)},
		{"push_val_math_b num 3.5", vm.RawValNum(3.5)},
		{"push_val_math_b text hello there", vm.RawValStr("hello there")},
	}
	for _, c := range cases {
		instrs, err := Assemble(c.line)
		require.NoError(t, err, c.line)
		require.Len(t, instrs, 1, c.line)
		assert.Equal(t, c.want, instrs[0].Raw, c.line)
	}
}

func TestAssembleEscapeSequenceInTextLiteral(t *testing.T) {
	instrs, err := Assemble(`push_val_math_b text line one\nline two`)
	require.NoError(t, err)
	require.Len(t, instrs, 1)
	assert.Equal(t, vm.RawValStr("line one\nline two"), instrs[0].Raw)
}

func TestAssembleUnknownMnemonicFails(t *testing.T) {
	_, err := Assemble("frobnicate 1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mnemonic")
}

func TestAssembleMissingAddressOperandFails(t *testing.T) {
	_, err := Assemble("write_var_to")
	require.Error(t, err)
}

func TestAssembleReader(t *testing.T) {
	instrs, err := AssembleReader(strings.NewReader("nop\nhalt\n"))
	require.NoError(t, err)
	require.Len(t, instrs, 2)
}

func TestAssembleRejectsLabelOutsideProgram(t *testing.T) {
	_, err := Assemble("loop:\nhalt\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AssembleProgram")
}

func TestAssembleProgramResolvesLabelToBlockPosition(t *testing.T) {
	src := `
		make_new_frame worker
		set_last_frame_ready
		halt
	worker:
		return
	`
	prog, err := AssembleProgram(src)
	require.NoError(t, err)
	require.Len(t, prog.Blocks, 2)

	assert.Equal(t, "", prog.Blocks[0].Label)
	assert.Equal(t, "worker", prog.Blocks[1].Label)

	require.Len(t, prog.Blocks[0].Instrs, 3)
	assert.Equal(t, vm.OpMakeNewFrame, prog.Blocks[0].Instrs[0].Op)
	assert.Equal(t, uint32(1), prog.Blocks[0].Instrs[0].Addr, "worker resolves to block index 1")
}

func TestAssembleProgramUndefinedLabelFails(t *testing.T) {
	_, err := AssembleProgram("make_new_frame nowhere\nhalt\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "undefined label")
}

func TestAssembleProgramRedefinedLabelFails(t *testing.T) {
	_, err := AssembleProgram("a:\nhalt\na:\nhalt\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redefined")
}

func TestLoadRegistersBlocksAndRewritesAddresses(t *testing.T) {
	src := `
		make_new_frame worker
		set_last_frame_ready
		halt
	worker:
		return
	`
	machine := vm.New()
	// Register two unrelated code entries first so the worker block's real
	// AddCode id (3) diverges from its parse-time block position (1); a
	// rewrite bug that left the raw block position in place would be caught.
	machine.AddCode(nil)
	machine.AddCode(nil)

	entry, err := Load(machine, strings.NewReader(src))
	require.NoError(t, err)

	entryCode := machine.CodeFor(entry)
	require.Len(t, entryCode, 3)
	// Whatever code id AddCode actually assigned the worker block, the
	// make_new_frame instruction must reference it, not the raw block
	// position from the parse pass.
	workerID := entryCode[0].Addr
	assert.NotEqual(t, uint32(1), workerID, "must be rewritten to the real AddCode id, not the parse-time block position")
	workerCode := machine.CodeFor(int(workerID))
	require.Len(t, workerCode, 1)
	assert.Equal(t, vm.OpReturn, workerCode[0].Op)
}
