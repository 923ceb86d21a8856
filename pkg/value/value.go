// Package value is the runtime value shared by the virtual machine and the
// native functions: a number or a piece of text.
package value

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind tells which field of a Value is meaningful.
type Kind int

const (
	Number Kind = iota
	Text
)

func (k Kind) String() string {
	if k == Text {
		return "text"
	}
	return "number"
}

type Value struct {
	Kind Kind
	Num  float64
	Str  string
}

func Num(f float64) Value { return Value{Kind: Number, Num: f} }

func Str(s string) Value { return Value{Kind: Text, Str: s} }

// Bool maps true to 1 and false to 0.
func Bool(b bool) Value {
	if b {
		return Num(1)
	}
	return Num(0)
}

// Truthy is false for 0 and for the empty string.
func (v Value) Truthy() bool {
	if v.Kind == Text {
		return v.Str != ""
	}
	return v.Num != 0
}

func (v Value) String() string {
	if v.Kind == Text {
		return v.Str
	}
	return strconv.FormatFloat(v.Num, 'f', -1, 64)
}

// Literal renders v the way a push operand is written.
func (v Value) Literal() string {
	if v.Kind == Text {
		return `"` + v.Str + `"`
	}
	return v.String()
}

// Parse reads a push operand: "quoted text" or a decimal number.
func Parse(lit string) (Value, error) {
	if strings.HasPrefix(lit, `"`) {
		if len(lit) < 2 || !strings.HasSuffix(lit, `"`) {
			return Value{}, fmt.Errorf("unterminated string literal %s", lit)
		}
		return Str(lit[1 : len(lit)-1]), nil
	}
	f, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return Value{}, fmt.Errorf("invalid literal %q", lit)
	}
	return Num(f), nil
}

// FromInput turns a line read from the user into a number when it reads as
// one, and text otherwise.
func FromInput(line string) Value {
	if f, err := strconv.ParseFloat(strings.TrimSpace(line), 64); err == nil {
		return Num(f)
	}
	return Str(line)
}

// Compare orders two values: numerically when both are numbers, by their
// text otherwise. It returns -1, 0 or 1.
func Compare(a, b Value) int {
	if a.Kind == Number && b.Kind == Number {
		switch {
		case a.Num < b.Num:
			return -1
		case a.Num > b.Num:
			return 1
		}
		return 0
	}
	return strings.Compare(a.String(), b.String())
}
