// Package vm executes assembled Mezcal programs on a stack machine.
package vm

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"
	"time"

	"mezcal/pkg/asm"
	"mezcal/pkg/natives"
	"mezcal/pkg/value"
)

// DefaultMaxSteps bounds Run when no limit is configured.
const DefaultMaxSteps = 50_000_000

// ErrNoInput is returned by a LineReader that has no complete line yet. The
// machine then waits, and retries the read on the next Step.
var ErrNoInput = errors.New("no input available")

// ErrStepLimit stops a program that ran for more steps than allowed.
var ErrStepLimit = errors.New("step limit exceeded")

// LineReader supplies lines to readln.
type LineReader interface {
	ReadLine() (string, error)
}

type readerInput struct {
	sc *bufio.Scanner
}

// ReaderInput reads lines from r. At end of input it returns empty lines.
func ReaderInput(r io.Reader) LineReader {
	return &readerInput{sc: bufio.NewScanner(r)}
}

func (r *readerInput) ReadLine() (string, error) {
	if r.sc.Scan() {
		return r.sc.Text(), nil
	}
	if err := r.sc.Err(); err != nil {
		return "", err
	}
	return "", nil
}

// RuntimeError locates a failure inside the running program.
type RuntimeError struct {
	Function string
	PC       int
	Instr    asm.Instruction
	Err      error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%s: line %d: %s: %v", e.Function, e.Instr.Line, e.Instr, e.Err)
}

func (e *RuntimeError) Unwrap() error { return e.Err }

type frame struct {
	fn   *asm.Function
	pc   int
	vars map[string]value.Value
}

// VM is the machine state. Globals belong to main; each call gets a fresh
// set of locals.
type VM struct {
	prog    *asm.Program
	stack   []value.Value
	frames  []*frame
	globals map[string]value.Value

	Halted  bool
	Waiting bool // blocked in readln until input arrives
	Steps   int

	maxSteps int
	out      io.Writer
	in       LineReader
	rng      *rand.Rand
	log      *slog.Logger
}

// Option configures a VM.
type Option func(*VM)

// WithOutput sends writeln output to w. The default is stdout.
func WithOutput(w io.Writer) Option {
	return func(m *VM) { m.out = w }
}

// WithInput feeds readln from in. The default reads stdin.
func WithInput(in LineReader) Option {
	return func(m *VM) { m.in = in }
}

// WithMaxSteps limits how many instructions Run executes.
func WithMaxSteps(n int) Option {
	return func(m *VM) { m.maxSteps = n }
}

// WithSeed makes random reproducible.
func WithSeed(seed uint64) Option {
	return func(m *VM) { m.rng = rand.New(rand.NewPCG(seed, seed)) }
}

// WithLogger sets the logger for run activity. The default discards.
func WithLogger(l *slog.Logger) Option {
	return func(m *VM) { m.log = l }
}

// New returns a machine ready to run prog from the top of main.
func New(prog *asm.Program, opts ...Option) *VM {
	m := &VM{
		globals:  make(map[string]value.Value),
		maxSteps: DefaultMaxSteps,
		out:      os.Stdout,
		rng:      rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)),
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.in == nil {
		m.in = ReaderInput(os.Stdin)
	}
	m.Load(prog)
	return m
}

// Load replaces the program and restarts at the top of main. Globals, and
// segments of the previous program that prog does not redefine, survive, so
// a REPL can run one compiled line after another.
func (m *VM) Load(prog *asm.Program) {
	if m.prog != nil {
		for _, name := range m.prog.Names {
			if _, ok := prog.Functions[name]; !ok {
				prog.Names = append(prog.Names, name)
				prog.Functions[name] = m.prog.Functions[name]
			}
		}
	}
	m.prog = prog
	m.stack = m.stack[:0]
	m.frames = []*frame{{fn: prog.Functions["main"], vars: m.globals}}
	m.Halted = false
	m.Waiting = false
	m.Steps = 0
}

// Global returns a variable of main.
func (m *VM) Global(name string) (value.Value, bool) {
	v, ok := m.globals[name]
	return v, ok
}

// Stack returns a copy of the data stack, bottom first.
func (m *VM) Stack() []value.Value {
	out := make([]value.Value, len(m.stack))
	copy(out, m.stack)
	return out
}

// Top returns the value on top of the stack, if any.
func (m *VM) Top() (value.Value, bool) {
	if len(m.stack) == 0 {
		return value.Value{}, false
	}
	return m.stack[len(m.stack)-1], true
}

// Run steps until the program halts, waits for input, or fails. A machine
// left waiting by an earlier Run retries its read.
func (m *VM) Run() error {
	m.Waiting = false
	for !m.Halted && !m.Waiting {
		if m.maxSteps > 0 && m.Steps >= m.maxSteps {
			return ErrStepLimit
		}
		if err := m.Step(); err != nil {
			return err
		}
	}
	return nil
}

// Step executes one instruction.
func (m *VM) Step() error {
	if m.Halted {
		return nil
	}
	f := m.frames[len(m.frames)-1]
	if f.pc >= len(f.fn.Code) {
		m.ret()
		return nil
	}

	in := f.fn.Code[f.pc]
	if err := m.exec(f, in); err != nil {
		if errors.Is(err, ErrNoInput) {
			m.Waiting = true
			return nil
		}
		m.Halted = true
		return &RuntimeError{Function: f.fn.Name, PC: f.pc, Instr: in, Err: err}
	}
	m.Waiting = false
	m.Steps++
	return nil
}

// exec runs in. The frame's pc is advanced here, except by instructions that
// move it themselves.
func (m *VM) exec(f *frame, in asm.Instruction) error {
	switch in.Op {
	case asm.OpPush:
		m.push(in.Value)

	case asm.OpGet:
		v, ok := f.vars[in.Arg]
		if !ok {
			v, ok = m.globals[in.Arg]
		}
		if !ok {
			return fmt.Errorf("undefined variable '%s'", in.Arg)
		}
		m.push(v)

	case asm.OpPut:
		v, err := m.peek()
		if err != nil {
			return err
		}
		f.vars[in.Arg] = v

	case asm.OpPop:
		// no-op when empty: an if without else pops once more than it
		// pushed when its condition holds
		if len(m.stack) > 0 {
			m.stack = m.stack[:len(m.stack)-1]
		}

	case asm.OpAdd, asm.OpSub, asm.OpMul, asm.OpDiv:
		b, a, err := m.pop2()
		if err != nil {
			return err
		}
		if a.Kind != value.Number || b.Kind != value.Number {
			return fmt.Errorf("%s expects numbers, got %s and %s", in.Op, a.Kind, b.Kind)
		}
		m.push(value.Num(arith(in.Op, a.Num, b.Num)))

	case asm.OpCmp:
		b, a, err := m.pop2()
		if err != nil {
			return err
		}
		m.push(value.Num(float64(value.Compare(a, b))))

	case asm.OpAnd, asm.OpOr:
		b, a, err := m.pop2()
		if err != nil {
			return err
		}
		if in.Op == asm.OpAnd {
			m.push(value.Bool(a.Truthy() && b.Truthy()))
		} else {
			m.push(value.Bool(a.Truthy() || b.Truthy()))
		}

	case asm.OpNot:
		v, err := m.pop()
		if err != nil {
			return err
		}
		m.push(value.Bool(!v.Truthy()))

	case asm.OpBra:
		f.pc = in.Target
		return nil

	case asm.OpBeq, asm.OpBne, asm.OpBlt, asm.OpBle, asm.OpBgt, asm.OpBge:
		v, err := m.peek()
		if err != nil {
			return err
		}
		if v.Kind != value.Number {
			return fmt.Errorf("%s expects a number on the stack, got %q", in.Op, v.String())
		}
		if taken(in.Op, v.Num) {
			f.pc = in.Target
			return nil
		}

	case asm.OpCall:
		return m.call(f, in.Arg)

	case asm.OpEnd:
		m.ret()
		return nil

	default:
		return fmt.Errorf("unknown opcode %d", in.Op)
	}
	f.pc++
	return nil
}

// call enters a segment, or runs a native in place. A segment shadows a
// native of the same name.
func (m *VM) call(f *frame, name string) error {
	if fn, ok := m.prog.Functions[name]; ok && name != "main" {
		f.pc++
		m.frames = append(m.frames, &frame{fn: fn, vars: make(map[string]value.Value)})
		m.log.Debug("call", "function", name, "depth", len(m.frames))
		return nil
	}

	nat, ok := natives.Lookup(name)
	if !ok {
		return fmt.Errorf("undefined function '%s'", name)
	}
	if len(m.stack) < nat.Arity {
		return fmt.Errorf("%s expects %d arguments, stack holds %d", name, nat.Arity, len(m.stack))
	}
	args := make([]value.Value, nat.Arity)
	copy(args, m.stack[len(m.stack)-nat.Arity:])
	result, err := nat.Fn(m, args)
	if err != nil {
		return err
	}
	m.stack = m.stack[:len(m.stack)-nat.Arity]
	m.push(result)
	f.pc++
	return nil
}

// ret leaves the current segment. Leaving main halts the machine.
func (m *VM) ret() {
	if len(m.frames) == 1 {
		m.Halted = true
		return
	}
	m.frames = m.frames[:len(m.frames)-1]
}

func (m *VM) push(v value.Value) { m.stack = append(m.stack, v) }

func (m *VM) peek() (value.Value, error) {
	if len(m.stack) == 0 {
		return value.Value{}, errors.New("stack underflow")
	}
	return m.stack[len(m.stack)-1], nil
}

func (m *VM) pop() (value.Value, error) {
	v, err := m.peek()
	if err != nil {
		return v, err
	}
	m.stack = m.stack[:len(m.stack)-1]
	return v, nil
}

// pop2 pops the top value b, then the one below it, a.
func (m *VM) pop2() (b, a value.Value, err error) {
	if len(m.stack) < 2 {
		return b, a, errors.New("stack underflow")
	}
	b = m.stack[len(m.stack)-1]
	a = m.stack[len(m.stack)-2]
	m.stack = m.stack[:len(m.stack)-2]
	return b, a, nil
}

func arith(op asm.Opcode, a, b float64) float64 {
	switch op {
	case asm.OpAdd:
		return a + b
	case asm.OpSub:
		return a - b
	case asm.OpMul:
		return a * b
	}
	return a / b
}

// taken reports whether a conditional branch jumps for the flag v.
func taken(op asm.Opcode, v float64) bool {
	switch op {
	case asm.OpBeq:
		return v == 0
	case asm.OpBne:
		return v != 0
	case asm.OpBlt:
		return v < 0
	case asm.OpBle:
		return v <= 0
	case asm.OpBgt:
		return v > 0
	}
	return v >= 0
}

// natives.Env

func (m *VM) WriteLine(s string) error {
	_, err := fmt.Fprintln(m.out, s)
	return err
}

func (m *VM) ReadLine() (string, error) { return m.in.ReadLine() }

func (m *VM) Clock() float64 { return float64(time.Now().UnixMilli()) }

func (m *VM) Random() float64 { return m.rng.Float64() }
