package compiler

import (
	"fmt"
	"strings"
)

// Expr is implemented by every node of the expression model. Nodes are built
// once, as their production is reduced, and never mutated. The emitted
// instructions are the real output; the tree is kept for inspection.
type Expr interface {
	exprNode()
	String() string
}

// Name is a read of a variable or a zero-argument function.
//
//	a$
//	^^  Name{Name: "a$"}
type Name struct {
	Name string
}

func (*Name) exprNode()        {}
func (n *Name) String() string { return n.Name }

// Number is a numeric literal.
type Number struct {
	Value  float64
	Lexeme string
}

func (*Number) exprNode()        {}
func (n *Number) String() string { return n.Lexeme }

// String is a string literal.
type String struct {
	Value string
}

func (*String) exprNode()        {}
func (s *String) String() string { return fmt.Sprintf("%q", s.Value) }

// FunctionCall is a call with parenthesised arguments.
//
//	pow(2, 3)
//	^^^ ^^^^  FunctionCall{Callee: pow, Args: [2 3]}
type FunctionCall struct {
	Callee Expr
	Args   []Expr
}

func (*FunctionCall) exprNode() {}
func (c *FunctionCall) String() string {
	return fmt.Sprintf("%s(%s)", c.Callee, joinExprs(c.Args, ", "))
}

// Prefix is a unary operator applied to its operand: -x, +x, not x.
type Prefix struct {
	Op      TokenType
	Operand Expr
}

func (*Prefix) exprNode() {}
func (p *Prefix) String() string {
	return fmt.Sprintf("(%s %s)", p.Op, p.Operand)
}

// Operator is a binary operation: Left Op Right.
//
//	x + 1
//	^ ^ ^
//	| | |
//	| | Right
//	| Op
//	Left
type Operator struct {
	Left  Expr
	Op    TokenType
	Right Expr
}

func (*Operator) exprNode() {}
func (o *Operator) String() string {
	return fmt.Sprintf("(%s %s %s)", o.Left, o.Op, o.Right)
}

// Postfix is an operator following its operand. The grammar has no postfix
// operators yet; the node exists so the model is closed over every form.
type Postfix struct {
	Operand Expr
	Op      TokenType
}

func (*Postfix) exprNode() {}
func (p *Postfix) String() string {
	return fmt.Sprintf("(%s %s)", p.Operand, p.Op)
}

// If is "if cond then a [else b]". Else is nil when absent.
type If struct {
	Condition Expr
	Then      Expr
	Else      Expr
}

func (*If) exprNode() {}
func (i *If) String() string {
	if i.Else == nil {
		return fmt.Sprintf("if %s then %s", i.Condition, i.Then)
	}
	return fmt.Sprintf("if %s then %s else %s", i.Condition, i.Then, i.Else)
}

// While is "while cond body".
type While struct {
	Condition Expr
	Body      Expr
}

func (*While) exprNode() {}
func (w *While) String() string {
	return fmt.Sprintf("while %s %s", w.Condition, w.Body)
}

// For is "for v = from to limit [step s] body". Step is nil when absent.
type For struct {
	From *Assignment
	To   Expr
	Step Expr
	Body Expr
}

func (*For) exprNode() {}
func (f *For) String() string {
	if f.Step == nil {
		return fmt.Sprintf("for %s to %s %s", f.From, f.To, f.Body)
	}
	return fmt.Sprintf("for %s to %s step %s %s", f.From, f.To, f.Step, f.Body)
}

// Function is a declaration. Its code lives in its own segment.
type Function struct {
	Name   string
	Params []string
	Body   []Expr
}

func (*Function) exprNode() {}
func (f *Function) String() string {
	return fmt.Sprintf("function %s(%s) [%s]", f.Name, strings.Join(f.Params, ", "), joinExprs(f.Body, "; "))
}

// Return ends the active segment with Value on top of the stack.
type Return struct {
	Value Expr
}

func (*Return) exprNode()        {}
func (r *Return) String() string { return fmt.Sprintf("return %s", r.Value) }

// Assignment stores Value into the variable named by Target.
type Assignment struct {
	Target *Name
	Value  Expr
}

func (*Assignment) exprNode() {}
func (a *Assignment) String() string {
	return fmt.Sprintf("%s = %s", a.Target, a.Value)
}

// Block is "begin ... end"; its value is that of the last expression.
type Block struct {
	Body []Expr
}

func (*Block) exprNode() {}
func (b *Block) String() string {
	return fmt.Sprintf("begin %s end", joinExprs(b.Body, "; "))
}

func joinExprs(exprs []Expr, sep string) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = e.String()
	}
	return strings.Join(parts, sep)
}

// isStringy reports whether e is textual by shape: a string literal or a name
// carrying the $ sigil. It does not see through variables or calls.
func isStringy(e Expr) bool {
	switch n := e.(type) {
	case *String:
		return true
	case *Name:
		return strings.HasSuffix(n.Name, "$")
	}
	return false
}
