// Package asm turns the text instructions of each segment into executable
// form, checking the instruction set and the label rules on the way.
package asm

import (
	"fmt"
	"strings"
	"unicode"

	"mezcal/pkg/value"
)

// Opcode is a decoded mnemonic.
type Opcode int

const (
	OpPush Opcode = iota
	OpGet
	OpPut
	OpPop
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpCmp
	OpAnd
	OpOr
	OpNot
	OpCall
	OpBra
	OpBeq
	OpBne
	OpBlt
	OpBle
	OpBgt
	OpBge
	OpEnd
)

var zeroOperandOps = map[string]Opcode{
	"pop": OpPop,
	"add": OpAdd,
	"sub": OpSub,
	"mul": OpMul,
	"div": OpDiv,
	"cmp": OpCmp,
	"and": OpAnd,
	"or":  OpOr,
	"not": OpNot,
	"end": OpEnd,
}

var nameOperandOps = map[string]Opcode{
	"get":  OpGet,
	"put":  OpPut,
	"call": OpCall,
}

var branchOps = map[string]Opcode{
	"bra": OpBra,
	"beq": OpBeq,
	"bne": OpBne,
	"blt": OpBlt,
	"ble": OpBle,
	"bgt": OpBgt,
	"bge": OpBge,
}

var opNames = map[Opcode]string{OpPush: "push"}

func init() {
	for _, ops := range []map[string]Opcode{zeroOperandOps, nameOperandOps, branchOps} {
		for name, op := range ops {
			opNames[op] = name
		}
	}
}

func (op Opcode) String() string {
	if name, ok := opNames[op]; ok {
		return name
	}
	return fmt.Sprintf("Opcode(%d)", int(op))
}

// Instruction is one decoded line. Arg holds the name operand of get, put
// and call, and the label of a branch; Target is that label's resolved index.
type Instruction struct {
	Op     Opcode
	Arg    string
	Value  value.Value
	Target int
	Line   int // 1-based line within the segment
}

func (in Instruction) String() string {
	switch {
	case in.Op == OpPush:
		return "push " + in.Value.Literal()
	case in.Arg != "":
		return in.Op.String() + " " + in.Arg
	}
	return in.Op.String()
}

// Function is an assembled segment. Labels maps each label to the index of
// the instruction that follows its definition.
type Function struct {
	Name   string
	Code   []Instruction
	Labels map[string]int
}

// Program is every assembled segment, in declaration order.
type Program struct {
	Names     []string
	Functions map[string]*Function
}

// Source is anything holding named instruction listings.
type Source interface {
	Names() []string
	Code(name string) []string
}

// Error locates an assembly failure.
type Error struct {
	Function string
	Line     int
	Msg      string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: line %d: %s", e.Function, e.Line, e.Msg)
}

type Assembler struct {
	name   string
	labels map[string]int
}

type parsedLine struct {
	lineNo   int
	labels   []string
	mnemonic string
	operand  string
}

func NewAssembler(name string) *Assembler {
	return &Assembler{name: name, labels: make(map[string]int)}
}

// Assemble assembles every segment of src.
func Assemble(src Source) (*Program, error) {
	prog := &Program{Functions: make(map[string]*Function)}
	for _, name := range src.Names() {
		fn, err := NewAssembler(name).Assemble(src.Code(name))
		if err != nil {
			return nil, err
		}
		prog.Names = append(prog.Names, name)
		prog.Functions[name] = fn
	}
	if _, ok := prog.Functions["main"]; !ok {
		return nil, &Error{Function: "main", Msg: "program has no main segment"}
	}
	return prog, nil
}

// Verify assembles src and throws the result away.
func Verify(src Source) error {
	_, err := Assemble(src)
	return err
}

// Assemble decodes one segment. Pass one collects label definitions, pass
// two decodes instructions and resolves branch targets.
func (a *Assembler) Assemble(lines []string) (*Function, error) {
	parsed, err := a.pass1(lines)
	if err != nil {
		return nil, err
	}
	code, err := a.pass2(parsed)
	if err != nil {
		return nil, err
	}
	return &Function{Name: a.name, Code: code, Labels: a.labels}, nil
}

func (a *Assembler) pass1(lines []string) ([]parsedLine, error) {
	var parsed []parsedLine
	index := 0
	for i, raw := range lines {
		lineNo := i + 1
		p, err := a.parseLine(raw, lineNo)
		if err != nil {
			return nil, err
		}
		for _, lbl := range p.labels {
			if _, exists := a.labels[lbl]; exists {
				return nil, a.errorf(lineNo, "duplicate label '%s'", lbl)
			}
			a.labels[lbl] = index
		}
		if p.mnemonic == "" {
			continue
		}
		parsed = append(parsed, p)
		index++
	}
	return parsed, nil
}

func (a *Assembler) pass2(parsed []parsedLine) ([]Instruction, error) {
	code := make([]Instruction, 0, len(parsed))
	for _, p := range parsed {
		in := Instruction{Line: p.lineNo}
		switch {
		case p.mnemonic == "push":
			if p.operand == "" {
				return nil, a.errorf(p.lineNo, "push expects a literal")
			}
			v, err := value.Parse(p.operand)
			if err != nil {
				return nil, a.errorf(p.lineNo, "%v", err)
			}
			in.Op, in.Value = OpPush, v

		case hasOp(zeroOperandOps, p.mnemonic):
			if p.operand != "" {
				return nil, a.errorf(p.lineNo, "%s takes no operand", p.mnemonic)
			}
			in.Op = zeroOperandOps[p.mnemonic]

		case hasOp(nameOperandOps, p.mnemonic):
			if !isName(p.operand) {
				return nil, a.errorf(p.lineNo, "%s expects a name, got '%s'", p.mnemonic, p.operand)
			}
			in.Op, in.Arg = nameOperandOps[p.mnemonic], p.operand

		case hasOp(branchOps, p.mnemonic):
			target, ok := a.labels[p.operand]
			if !ok {
				return nil, a.errorf(p.lineNo, "undefined label '%s'", p.operand)
			}
			in.Op, in.Arg, in.Target = branchOps[p.mnemonic], p.operand, target

		default:
			return nil, a.errorf(p.lineNo, "unknown instruction: %s", p.mnemonic)
		}
		code = append(code, in)
	}
	return code, nil
}

func hasOp(ops map[string]Opcode, mnemonic string) bool {
	_, ok := ops[mnemonic]
	return ok
}

func (a *Assembler) errorf(lineNo int, format string, args ...any) error {
	return &Error{Function: a.name, Line: lineNo, Msg: fmt.Sprintf(format, args...)}
}

func (a *Assembler) parseLine(raw string, lineNo int) (parsedLine, error) {
	p := parsedLine{lineNo: lineNo}

	line := strings.TrimSpace(stripComments(raw))
	for {
		colon := strings.IndexByte(line, ':')
		if colon <= 0 || strings.ContainsAny(line[:colon], " \t\"") {
			break
		}
		label := line[:colon]
		if !isIdentifier(label) {
			return p, a.errorf(lineNo, "invalid label '%s'", label)
		}
		p.labels = append(p.labels, label)
		line = strings.TrimSpace(line[colon+1:])
	}
	if line == "" {
		return p, nil
	}

	mnemonic, operand, _ := strings.Cut(line, " ")
	p.mnemonic = strings.ToLower(mnemonic)
	p.operand = strings.TrimSpace(operand)
	return p, nil
}

// stripComments drops everything from the first '#' outside a string.
func stripComments(line string) string {
	inString := false
	for i, r := range line {
		switch {
		case r == '"':
			inString = !inString
		case r == '#' && !inString:
			return line[:i]
		}
	}
	return line
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if i == 0 {
			if !unicode.IsLetter(r) && r != '_' {
				return false
			}
			continue
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return false
		}
	}
	return true
}

// isName accepts variable and function names: identifiers that may carry a
// $ or % sigil, and dotted native names such as str.concat.
func isName(s string) bool {
	s = strings.TrimRight(s, "$%")
	if s == "" {
		return false
	}
	for _, part := range strings.Split(s, ".") {
		if !isIdentifier(part) {
			return false
		}
	}
	return true
}
