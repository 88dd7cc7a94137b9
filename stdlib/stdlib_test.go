package stdlib

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"birlvm/vm"
)

func TestRegisterReturnsDistinctAddresses(t *testing.T) {
	machine := vm.New()
	addrs := Register(machine)

	seen := make(map[int]string)
	for name, addr := range addrs {
		if other, ok := seen[addr]; ok {
			t.Fatalf("addresses for %q and %q collide at %d", name, other, addr)
		}
		seen[addr] = name
	}
	assert.ElementsMatch(t, []string{"len", "str", "typeof", "sum"}, keys(addrs))
}

func keys(m map[string]int) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func callPlugin(t *testing.T, machine *vm.VM, addrs map[string]int, name string, args ...vm.Value) vm.Value {
	t.Helper()
	instrs := make([]vm.Instruction, 0, len(args)*2+2)
	for _, a := range args {
		instrs = append(instrs,
			pushInstr(a),
			vm.Instruction{Op: vm.OpPushMathBPluginArgument},
		)
	}
	instrs = append(instrs,
		vm.Instruction{Op: vm.OpCallPlugin, Addr: uint32(addrs[name]), Argc: uint32(len(args))},
		// CallPlugin writes the result into slot 0 of the calling frame and
		// leaves math_b alone; move it into math_b for the caller to read.
		vm.Instruction{Op: vm.OpReadVarFrom, Addr: 0},
		vm.Instruction{Op: vm.OpPushIntermediateToB},
		vm.Instruction{Op: vm.OpHalt},
	)
	id := machine.AddCode(instrs)
	machine.SetEntryFrame(id)
	for {
		status, err := machine.Step()
		require.NoError(t, err)
		if status == vm.StatusHalt || status == vm.StatusQuit {
			break
		}
	}
	return machine.MathB()
}

// pushInstr builds a push-to-math-b instruction carrying a raw literal that
// reproduces the given already-materialized value. Text/List values are not
// expected here since callers only feed Integer/Number constants in; those
// come back out through the heap directly.
func pushInstr(val vm.Value) vm.Instruction {
	switch val.Kind() {
	case vm.KindInteger:
		return vm.Instruction{Op: vm.OpPushValMathB, Raw: vm.RawValInt(val.Int())}
	case vm.KindNumber:
		return vm.Instruction{Op: vm.OpPushValMathB, Raw: vm.RawValNum(val.Num())}
	default:
		panic("pushInstr: unsupported kind in test helper")
	}
}

func TestSumPluginAllIntegers(t *testing.T) {
	machine := vm.New()
	addrs := Register(machine)

	result := callPlugin(t, machine, addrs, "sum", vm.Integer(2), vm.Integer(3), vm.Integer(4))
	assert.Equal(t, vm.KindInteger, result.Kind())
	assert.Equal(t, int64(9), result.Int())
}

func TestSumPluginPromotesToNumber(t *testing.T) {
	machine := vm.New()
	addrs := Register(machine)

	result := callPlugin(t, machine, addrs, "sum", vm.Integer(2), vm.Number(0.5))
	assert.Equal(t, vm.KindNumber, result.Kind())
	assert.Equal(t, 2.5, result.Num())
}

func TestLenPluginOnText(t *testing.T) {
	machine := vm.New()
	Register(machine)
	handle := machine.Heap().AddText("hello", 1)

	n, err := lenPlugin([]vm.Value{vm.Text(handle)}, machine)
	require.NoError(t, err)
	assert.Equal(t, vm.Integer(5), *n)
}

func TestLenPluginOnList(t *testing.T) {
	machine := vm.New()
	handle := machine.Heap().AddList([]vm.Value{vm.Integer(1), vm.Integer(2), vm.Integer(3)}, 1)

	n, err := lenPlugin([]vm.Value{vm.List(handle)}, machine)
	require.NoError(t, err)
	assert.Equal(t, vm.Integer(3), *n)
}

func TestLenPluginRejectsWrongArgCount(t *testing.T) {
	machine := vm.New()
	_, err := lenPlugin(nil, machine)
	assert.Error(t, err)
}

func TestTypeofPlugin(t *testing.T) {
	machine := vm.New()

	result, err := typeofPlugin([]vm.Value{vm.Integer(1)}, machine)
	require.NoError(t, err)
	require.Equal(t, vm.KindText, result.Kind())
	s, err := machine.Heap().Text(result.Handle())
	require.NoError(t, err)
	assert.Equal(t, "Integer", s)
}

func TestStrPlugin(t *testing.T) {
	machine := vm.New()

	result, err := strPlugin([]vm.Value{vm.Integer(42)}, machine)
	require.NoError(t, err)
	require.Equal(t, vm.KindText, result.Kind())
	s, err := machine.Heap().Text(result.Handle())
	require.NoError(t, err)
	assert.Equal(t, "42", s)
}
