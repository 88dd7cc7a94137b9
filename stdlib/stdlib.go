// Package stdlib is the minimal plugin standard library: `len`, `str`,
// `typeof` and `sum`. These are the kind of native functions the
// specification describes as embedder-supplied (§4.10, §6); a real
// deployment would register a much larger set sourced from the language's
// standard library, out of scope for the core engine itself.
package stdlib

import (
	"birlvm/vm"
)

// Register installs every stdlib plugin into vm and returns their
// addresses, keyed by name, so a driver can wire the source-language
// compiler's plugin-address table.
func Register(v *vm.VM) map[string]int {
	addrs := make(map[string]int, 4)
	addrs["len"] = v.AddPlugin(lenPlugin)
	addrs["str"] = v.AddPlugin(strPlugin)
	addrs["typeof"] = v.AddPlugin(typeofPlugin)
	addrs["sum"] = v.AddPlugin(sumPlugin)
	return addrs
}

// lenPlugin returns the length of a Text or List argument.
func lenPlugin(args []vm.Value, v *vm.VM) (*vm.Value, error) {
	if len(args) != 1 {
		return nil, vm.NewTypeError("len expects exactly one argument")
	}
	n, err := v.Length(args[0])
	if err != nil {
		return nil, err
	}
	result := vm.Integer(int64(n))
	return &result, nil
}

// strPlugin renders any single argument as Text, charged to the calling
// frame (the same allocation discipline ConvertToString uses internally).
func strPlugin(args []vm.Value, v *vm.VM) (*vm.Value, error) {
	if len(args) != 1 {
		return nil, vm.NewTypeError("str expects exactly one argument")
	}
	s, err := v.FormatPlain(args[0])
	if err != nil {
		return nil, err
	}
	v.AdoptAtLastReady()
	handle := v.Heap().AddText(s, 0)
	result := vm.Text(handle)
	return &result, nil
}

// typeofPlugin returns the argument's kind name as Text.
func typeofPlugin(args []vm.Value, v *vm.VM) (*vm.Value, error) {
	if len(args) != 1 {
		return nil, vm.NewTypeError("typeof expects exactly one argument")
	}
	v.AdoptAtLastReady()
	handle := v.Heap().AddText(args[0].Kind().String(), 0)
	result := vm.Text(handle)
	return &result, nil
}

// sumPlugin adds every numeric argument, promoting to Number if any
// argument is a Number, matching the Add numeric-promotion rule.
func sumPlugin(args []vm.Value, v *vm.VM) (*vm.Value, error) {
	total := vm.Integer(0)
	for _, arg := range args {
		var err error
		total, err = v.Add(total, arg)
		if err != nil {
			return nil, err
		}
	}
	return &total, nil
}
