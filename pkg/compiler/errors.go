package compiler

import (
	"errors"
	"fmt"
	"strings"
)

// LexError is a single problem found while scanning.
type LexError struct {
	Line int
	Msg  string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

// LexErrors is every problem found in one scanning pass.
type LexErrors []*LexError

func (es LexErrors) Error() string {
	msgs := make([]string, len(es))
	for i, e := range es {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "\n")
}

// ParseError aborts compilation of a unit. Token is the offending token.
type ParseError struct {
	Token   Token
	Msg     string
	Snippet string // trimmed source line, empty when the source is unknown
}

func (e *ParseError) Error() string {
	if e.Snippet == "" {
		return fmt.Sprintf("line %d: %s", e.Token.Line, e.Msg)
	}
	return fmt.Sprintf("line %d: %s\n  |> %s", e.Token.Line, e.Msg, e.Snippet)
}

// IsIncomplete reports whether err is a parse error at the end of input, so
// more source could still complete the unit.
func IsIncomplete(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe) && pe.Token.Type == EOF
}
