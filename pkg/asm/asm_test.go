package asm

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"mezcal/pkg/value"
)

// listings is a Source over literal segments, main first.
type listings struct {
	names []string
	code  map[string][]string
}

func newListings(segs ...string) *listings {
	l := &listings{code: make(map[string][]string)}
	for i := 0; i+1 < len(segs); i += 2 {
		l.names = append(l.names, segs[i])
		l.code[segs[i]] = strings.Split(strings.TrimSpace(segs[i+1]), "\n")
	}
	return l
}

func (l *listings) Names() []string           { return l.names }
func (l *listings) Code(name string) []string { return l.code[name] }

func TestHelperFunctions(t *testing.T) {
	tests := []struct {
		input string
		ident bool
		name  bool
	}{
		{"abc", true, true},
		{"_abc", true, true},
		{"abc1", true, true},
		{"1abc", false, false},
		{"", false, false},
		{"ab-c", false, false},
		{"a$", false, true},
		{"n%", false, true},
		{"str.concat", false, true},
		{"str.", false, false},
		{"$", false, false},
	}
	for _, tc := range tests {
		if got := isIdentifier(tc.input); got != tc.ident {
			t.Errorf("isIdentifier(%q) = %v; want %v", tc.input, got, tc.ident)
		}
		if got := isName(tc.input); got != tc.name {
			t.Errorf("isName(%q) = %v; want %v", tc.input, got, tc.name)
		}
	}

	if got := stripComments(`push "a # b" # note`); got != `push "a # b" ` {
		t.Errorf("stripComments kept the wrong part: %q", got)
	}
}

func TestAssembleInstructions(t *testing.T) {
	fn, err := NewAssembler("main").Assemble([]string{
		"push 3",
		`push "a b"`,
		"get x$",
		"put x$",
		"call str.concat",
		"POP",
		"top:",
		"  cmp   # compare",
		"bge top",
		"end",
	})
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}

	want := []Instruction{
		{Op: OpPush, Value: value.Num(3), Line: 1},
		{Op: OpPush, Value: value.Str("a b"), Line: 2},
		{Op: OpGet, Arg: "x$", Line: 3},
		{Op: OpPut, Arg: "x$", Line: 4},
		{Op: OpCall, Arg: "str.concat", Line: 5},
		{Op: OpPop, Line: 6},
		{Op: OpCmp, Line: 8},
		{Op: OpBge, Arg: "top", Target: 6, Line: 9},
		{Op: OpEnd, Line: 10},
	}
	if !reflect.DeepEqual(fn.Code, want) {
		t.Errorf("code =\n%+v\nwant\n%+v", fn.Code, want)
	}
	if fn.Labels["top"] != 6 {
		t.Errorf("label top = %d, want 6", fn.Labels["top"])
	}
}

func TestLabels(t *testing.T) {
	// several labels on one line, and a label sharing a line with code
	fn, err := NewAssembler("f").Assemble([]string{
		"a: b:",
		"c: push 1",
		"bra a",
		"d:",
	})
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	wantLabels := map[string]int{"a": 0, "b": 0, "c": 0, "d": 2}
	if !reflect.DeepEqual(fn.Labels, wantLabels) {
		t.Errorf("labels = %v, want %v", fn.Labels, wantLabels)
	}
	if len(fn.Code) != 2 || fn.Code[1].Target != 0 {
		t.Errorf("unexpected code %+v", fn.Code)
	}
}

func TestInstructionString(t *testing.T) {
	lines := []string{"push 2.5", `push "hi"`, "get n", "call pi", "bne __3", "add", "end"}
	fn, err := NewAssembler("main").Assemble(append(lines, "__3:"))
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	for i, in := range fn.Code {
		if in.String() != lines[i] {
			t.Errorf("instruction %d = %q, want %q", i, in.String(), lines[i])
		}
	}
}

func TestAssembleErrors(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		line  int
		msg   string
	}{
		{"unknown mnemonic", []string{"push 1", "jmp x"}, 2, "unknown instruction: jmp"},
		{"undefined label", []string{"bra nowhere"}, 1, "undefined label 'nowhere'"},
		{"duplicate label", []string{"l:", "push 1", "l:"}, 3, "duplicate label 'l'"},
		{"push without operand", []string{"push"}, 1, "push expects a literal"},
		{"bad literal", []string{"push abc"}, 1, "invalid literal"},
		{"unterminated string", []string{`push "abc`}, 1, "unterminated string literal"},
		{"operand on pop", []string{"pop 1"}, 1, "pop takes no operand"},
		{"get without name", []string{"get"}, 1, "get expects a name"},
		{"call a number", []string{"call 3"}, 1, "call expects a name"},
		{"invalid label", []string{"1x: pop"}, 1, "invalid label '1x'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAssembler("seg").Assemble(tt.lines)
			var ae *Error
			if !errors.As(err, &ae) {
				t.Fatalf("expected *Error, got %v", err)
			}
			if ae.Function != "seg" || ae.Line != tt.line {
				t.Errorf("error at %s:%d, want seg:%d", ae.Function, ae.Line, tt.line)
			}
			if !strings.Contains(ae.Msg, tt.msg) {
				t.Errorf("message %q does not contain %q", ae.Msg, tt.msg)
			}
		})
	}
}

func TestAssembleProgram(t *testing.T) {
	src := newListings(
		"main", "push 2\npush 3\ncall add\nend",
		"add", "put b\npop\nput a\npop\nget a\nget b\nadd\nend",
	)
	prog, err := Assemble(src)
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	if !reflect.DeepEqual(prog.Names, []string{"main", "add"}) {
		t.Errorf("names = %v", prog.Names)
	}
	if got := len(prog.Functions["add"].Code); got != 8 {
		t.Errorf("add has %d instructions", got)
	}
	if prog.Functions["main"].Name != "main" {
		t.Errorf("function name not set")
	}

	// labels are per segment
	src = newListings("main", "bra l\nl:\nend", "f", "bra l\nend")
	err = Verify(src)
	var ae *Error
	if !errors.As(err, &ae) || ae.Function != "f" {
		t.Errorf("expected an undefined label in f, got %v", err)
	}

	if err := Verify(newListings("f", "end")); err == nil {
		t.Error("expected an error without main")
	}
}
