package vm

import (
	"bufio"
	"io"

	"github.com/rs/zerolog"
)

// Plugin is a host-supplied native function (§4.10/§6). It may call back
// into the VM, e.g. to allocate a heap item charged to the calling frame via
// VM.AdoptAtLastReady.
type Plugin func(args []Value, vm *VM) (*Value, error)

// VM is the whole interpreter: heap, registers, call stack, code table and
// plugin table. It holds exclusive ownership of all of these - §5 rules out
// any internal locking or reentrancy.
type VM struct {
	heap *Heap
	regs *registers

	frames []*Frame
	code   [][]Instruction

	plugins        []Plugin
	pluginArgStack []Value

	stdout *bufio.Writer
	stdin  *bufio.Reader

	log zerolog.Logger
}

// Option configures a VM at construction time.
type Option func(*VM)

func WithStackSize(n int) Option {
	return func(v *VM) { v.regs.defaultStackSize = n }
}

func WithInteractive(interactive bool) Option {
	return func(v *VM) { v.regs.isInteractive = interactive }
}

func WithStdout(w io.Writer) Option {
	return func(v *VM) { v.stdout = bufio.NewWriter(w) }
}

func WithStdin(r io.Reader) Option {
	return func(v *VM) { v.stdin = bufio.NewReader(r) }
}

func WithLogger(l zerolog.Logger) Option {
	return func(v *VM) { v.log = l }
}

// New creates a VM with an empty code table, no plugins, and a single
// top-level frame (already ready, per §4.9 - the outermost frame is never
// pending argument wiring since nothing calls it).
func New(opts ...Option) *VM {
	v := &VM{
		heap: NewHeap(),
		regs: newRegisters(),
		log:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(v)
	}

	top := newFrame(-1, v.regs.defaultStackSize)
	top.ready = true
	v.frames = append(v.frames, top)

	return v
}

func (v *VM) Heap() *Heap { return v.heap }

// AddCode registers a function body and returns its id, assigned by a
// monotonically increasing counter (§3's "Code table").
func (v *VM) AddCode(instrs []Instruction) int {
	id := v.regs.nextCodeIndex
	v.regs.nextCodeIndex++
	if id >= len(v.code) {
		grown := make([][]Instruction, id+1)
		copy(grown, v.code)
		v.code = grown
	}
	v.code[id] = instrs
	return id
}

func (v *VM) CodeFor(id int) []Instruction {
	if id < 0 || id >= len(v.code) {
		return nil
	}
	return v.code[id]
}

func (v *VM) AddPlugin(fn Plugin) int {
	id := v.regs.nextPluginIndex
	v.regs.nextPluginIndex++
	v.plugins = append(v.plugins, fn)
	return id
}

func (v *VM) SetInteractive(interactive bool) { v.regs.isInteractive = interactive }

func (v *VM) SetStackSize(n int) { v.regs.defaultStackSize = n }

func (v *VM) SetStdout(w io.Writer) { v.stdout = bufio.NewWriter(w) }

func (v *VM) SetStdin(r io.Reader) { v.stdin = bufio.NewReader(r) }

func (v *VM) HasQuit() bool { return v.regs.hasQuit }

func (v *VM) UnsetQuit() { v.regs.hasQuit = false }

// MathB exposes the math_b register - mainly useful for tests and for a
// REPL that wants to print the final value of a top-level expression.
func (v *VM) MathB() Value { return v.regs.mathB }

// getLastReady implements §4.3: search from the top of the call stack
// toward the bottom for the first frame with ready = true. This is what
// every "current frame" query routes through, except Compare (§4.4),
// WriteVarToLast (§4.8) and CallPlugin's result write (§4.10), which
// deliberately use the last *pushed* frame instead.
func (v *VM) getLastReady() *Frame {
	for i := len(v.frames) - 1; i >= 0; i-- {
		if v.frames[i].ready {
			return v.frames[i]
		}
	}
	// The outermost frame is always ready (constructed that way in New),
	// so this is unreachable in a correctly driven VM.
	return v.frames[0]
}

// getLastReadyIndex implements the narrower variant of §4.3: look only at
// the top two frames. This is the write-target for freshly allocated heap
// items - "charge the newest ready frame for this allocation".
func (v *VM) getLastReadyIndex() int {
	top := len(v.frames) - 1
	if v.frames[top].ready {
		return top
	}
	return top - 1
}

// AdoptAtLastReady lets a plugin allocate a heap item "charged" to the
// frame that is about to receive it, matching the bookkeeping the
// interpreter performs for ordinary heap allocations (§4.10).
func (v *VM) AdoptAtLastReady() *Frame {
	f := v.frames[v.getLastReadyIndex()]
	f.numSpecialItems++
	return f
}

func (v *VM) lastPushed() *Frame {
	return v.frames[len(v.frames)-1]
}

// SetEntryFrame points the outermost frame at a freshly registered code
// entry and rewinds its pc to 0. This is how a line-at-a-time driver (a
// REPL) feeds successive top-level statements into the same persistent
// frame, rather than the one-shot "load a whole program, run it" embedding.
func (v *VM) SetEntryFrame(codeID int) {
	v.frames[0].id = codeID
	v.frames[0].pc = 0
}
