package vm

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestVM builds a VM with a single code entry running instrs to
// completion via Step, returning the VM and its captured stdout.
func newTestVM(t *testing.T, instrs []Instruction) (*VM, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	v := New(WithStdout(&out))
	id := v.AddCode(instrs)
	v.SetEntryFrame(id)
	return v, &out
}

func runToHalt(t *testing.T, v *VM) {
	t.Helper()
	for {
		status, err := v.Step()
		require.NoError(t, err)
		if status == StatusHalt || status == StatusQuit {
			require.NoError(t, v.Flush())
			return
		}
	}
}

func TestIntegerAdd(t *testing.T) {
	v, _ := newTestVM(t, []Instruction{
		{Op: OpPushValMathA, Raw: RawValInt(2)},
		{Op: OpPushValMathB, Raw: RawValInt(3)},
		{Op: OpAdd},
		{Op: OpHalt},
	})
	runToHalt(t, v)

	assert.Equal(t, KindInteger, v.MathB().Kind())
	assert.Equal(t, int64(5), v.MathB().Int())
}

func TestMixedAdd(t *testing.T) {
	v, _ := newTestVM(t, []Instruction{
		{Op: OpPushValMathA, Raw: RawValInt(2)},
		{Op: OpPushValMathB, Raw: RawValNum(0.5)},
		{Op: OpAdd},
		{Op: OpHalt},
	})
	runToHalt(t, v)

	assert.Equal(t, KindNumber, v.MathB().Kind())
	assert.Equal(t, 2.5, v.MathB().Num())
}

// TestNullArithmeticShortCircuits pins §4.4's Null arithmetic rule: Sub,
// Mul and Div all return Null when the left operand is Null, regardless of
// the right operand, the same way Add already does.
func TestNullArithmeticShortCircuits(t *testing.T) {
	for _, op := range []Op{OpSub, OpMul, OpDiv} {
		v, _ := newTestVM(t, []Instruction{
			{Op: OpPushValMathA, Raw: RawValNullValue()},
			{Op: OpPushValMathB, Raw: RawValInt(5)},
			{Op: op},
			{Op: OpHalt},
		})
		runToHalt(t, v)
		assert.True(t, v.MathB().IsNull(), "op %v should leave math_b Null", op)
	}
}

func TestTextConcatDefaultOrder(t *testing.T) {
	v, _ := newTestVM(t, []Instruction{
		{Op: OpPushValMathA, Raw: RawValStr("hi")},
		{Op: OpPushValMathB, Raw: RawValStr(" world")},
		{Op: OpAdd},
		{Op: OpHalt},
	})
	runToHalt(t, v)

	require.Equal(t, KindText, v.MathB().Kind())
	s, err := v.Heap().Text(v.MathB().Handle())
	require.NoError(t, err)
	assert.Equal(t, "hi world", s, "unflagged concatenation is left ++ right")
}

// TestTextConcatFirstOperationFlagSwapsOrder pins §4.4's flag rule directly:
// set, concatenation becomes right ++ left and the flag clears afterward.
func TestTextConcatFirstOperationFlagSwapsOrder(t *testing.T) {
	v, _ := newTestVM(t, []Instruction{
		{Op: OpPushValMathA, Raw: RawValStr("AAA")},
		{Op: OpPushValMathB, Raw: RawValStr("BBB")},
		{Op: OpSetFirstExpressionOperation},
		{Op: OpAdd},
		{Op: OpHalt},
	})
	runToHalt(t, v)

	require.Equal(t, KindText, v.MathB().Kind())
	s, err := v.Heap().Text(v.MathB().Handle())
	require.NoError(t, err)
	assert.Equal(t, "BBBAAA", s)
	assert.False(t, v.regs.firstOperation, "flag must clear after being consumed")
}

func TestConditionalSkip(t *testing.T) {
	body := func(a int64) []Instruction {
		return []Instruction{
			{Op: OpPushValMathA, Raw: RawValInt(a)},
			{Op: OpPushValMathB, Raw: RawValInt(1)},
			{Op: OpCompare},
			{Op: OpExecuteIf, Req: ReqEqual},
			{Op: OpPrintMathB},
			{Op: OpEndConditionalBlock},
			{Op: OpHalt},
		}
	}

	v, out := newTestVM(t, body(1))
	runToHalt(t, v)
	assert.Equal(t, "1", out.String())

	v2, out2 := newTestVM(t, body(2))
	runToHalt(t, v2)
	assert.Equal(t, "", out2.String())
}

// TestLoopCountdown reproduces scenario 5 of the specification, including
// its explicit note that the termination gate is the compiler's
// responsibility: an ExecuteIf(LessOrEqual)/Halt pair is added after the
// loop body, before RestoreLoopLabel, so the instruction stream halts deterministically instead
// of restoring forever once slot 0 reaches 0.
func TestLoopCountdown(t *testing.T) {
	instrs := []Instruction{
		{Op: OpPushValMathB, Raw: RawValInt(3)},
		{Op: OpWriteVarTo, Addr: 0}, // slot 0 = 3
		{Op: OpPushValMathB, Raw: RawValInt(-1)},
		{Op: OpAddLoopLabel},
		{Op: OpRegisterIncrementOnRestore, Addr: 0}, // stepping = -1, registered once
		{Op: OpReadVarFrom, Addr: 0},                // --- loop body starts here ---
		{Op: OpPushIntermediateToA},
		{Op: OpPushValMathB, Raw: RawValInt(0)},
		{Op: OpCompare}, // compare(slot0, 0)
		{Op: OpExecuteIf, Req: ReqMore},
		{Op: OpReadVarFrom, Addr: 0},
		{Op: OpPushIntermediateToB},
		{Op: OpPrintMathB},
		{Op: OpPrintNewLine},
		{Op: OpEndConditionalBlock},
		{Op: OpExecuteIf, Req: ReqLessOrEqual}, // slot0 <= 0 -> halt instead of restoring
		{Op: OpHalt},
		{Op: OpEndConditionalBlock},
		{Op: OpRestoreLoopLabel},
		{Op: OpPopLoopLabel},
		{Op: OpHalt},
	}

	v, out := newTestVM(t, instrs)
	runToHalt(t, v)

	assert.Equal(t, "3\n2\n1\n", out.String())
}

func TestPluginRoundtrip(t *testing.T) {
	v, _ := newTestVM(t, nil)
	sumAddr := v.AddPlugin(func(args []Value, v *VM) (*Value, error) {
		total := Integer(0)
		for _, a := range args {
			r, err := v.Add(total, a)
			if err != nil {
				return nil, err
			}
			total = r
		}
		return &total, nil
	})

	instrs := []Instruction{
		{Op: OpPushValMathB, Raw: RawValInt(4)},
		{Op: OpPushMathBPluginArgument},
		{Op: OpPushValMathB, Raw: RawValInt(5)},
		{Op: OpPushMathBPluginArgument},
		{Op: OpCallPlugin, Addr: uint32(sumAddr), Argc: 2},
		{Op: OpHalt},
	}
	id := v.AddCode(instrs)
	v.SetEntryFrame(id)
	runToHalt(t, v)

	top := v.frames[0]
	val, err := readSlot(top, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(9), val.Int())
}

func TestReturnFromOutermostFrameQuits(t *testing.T) {
	v, _ := newTestVM(t, []Instruction{
		{Op: OpReturn},
	})
	status, err := v.Step()
	require.NoError(t, err)
	assert.Equal(t, StatusQuit, status)
	assert.True(t, v.HasQuit())
}

func TestConvertRoundTrips(t *testing.T) {
	v := New()

	v.regs.mathB = Integer(42)
	require.NoError(t, v.convertToString())
	require.NoError(t, v.convertToInt())
	assert.Equal(t, int64(42), v.regs.mathB.Int())

	v.regs.mathB = Number(3.5)
	require.NoError(t, v.convertToString())
	require.NoError(t, v.convertToNum())
	assert.Equal(t, 3.5, v.regs.mathB.Num())
}

func TestSkipLevelNeverNegative(t *testing.T) {
	v := New()
	f := v.getLastReady()
	v.endConditionalBlock()
	assert.Equal(t, 0, f.skipLevel)
}

func TestListIdentitySharedByHandle(t *testing.T) {
	v := New()
	handle := v.newHeapList([]Value{Integer(1)})

	v.regs.intermediate = List(handle)
	v.regs.mathB = Integer(2)
	v.regs.secondary = Null()
	require.NoError(t, v.addToListAtIndex())

	items, err := v.Heap().List(handle)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}
