package compiler

import (
	"errors"
	"strings"
	"testing"
)

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantTok TokenType
		wantMsg string
	}{
		{"missing then", "if x < 1 pi", IDENTIFIER, "Expected 'then'"},
		{"missing to", "for a = 0 100 x", NUMBER, "Expected 'to'"},
		{"missing right paren", "(1 + 2", EOF, "Expected ')'"},
		{"missing end of block", "begin a = 1", EOF, "Expected 'end'"},
		{"empty block", "begin end", END, "Expected expression"},
		{"missing end of function", "function f() begin 1", EOF, "Expected 'end'"},
		{"missing function body", "function f() 1", NUMBER, "Expected 'begin' or 'return'"},
		{"no prefix parselet", ")", RIGHT_PAREN, "Could not parse ')'"},
		{"operator with no left operand", "* 3", STAR, "Could not parse '*'"},
		{"dangling operator", "1 +", EOF, "Unexpected end of input"},
		{"for without assignment", "for 3 to 4 x", NUMBER, "Expected assignment"},
		{"assign to a literal", "3 = 4", EQUAL, "Invalid assignment target"},
		{"call a literal", "3(4)", LEFT_PAREN, "Only named functions"},
		{"nested function", "function f() begin function g() return 1 end", FUNCTION, "cannot be nested"},
		{"duplicate function", "function f() return 1\nfunction f() return 2", IDENTIFIER, "already declared"},
		{"function called main", "function main() return 1", IDENTIFIER, "already declared"},
		{"missing parameter name", "function f(1) return 1", NUMBER, "Expected parameter name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := Lex(tt.src)
			if err != nil {
				t.Fatalf("Lex failed: %v", err)
			}
			table, err := New(tokens, WithSource(tt.src)).Compile()
			if err == nil {
				t.Fatalf("expected an error, got\n%s", table)
			}
			if table != nil {
				t.Errorf("expected no segment table on failure")
			}
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("expected *ParseError, got %T: %v", err, err)
			}
			if pe.Token.Type != tt.wantTok {
				t.Errorf("offending token = %s, want %s", pe.Token.Type, tt.wantTok)
			}
			if !strings.Contains(pe.Msg, tt.wantMsg) {
				t.Errorf("message %q does not contain %q", pe.Msg, tt.wantMsg)
			}
		})
	}
}

func TestParseErrorQuotesSource(t *testing.T) {
	src := "a = 1\nb = (2"
	tokens, _ := Lex(src)
	_, err := New(tokens, WithSource(src)).Compile()
	if err == nil {
		t.Fatal("expected an error")
	}
	want := "line 2: Expected ')' after expression. Found ''.\n  |> b = (2"
	if err.Error() != want {
		t.Errorf("error = %q\nwant    %q", err.Error(), want)
	}

	_, err = New(tokens).Compile()
	if err == nil || strings.Contains(err.Error(), "|>") {
		t.Errorf("expected no snippet without source, got %v", err)
	}
}

func TestPrecedenceTable(t *testing.T) {
	order := []Precedence{NOTHING, ASSIGNMENT, BOOLEAN, CONDITIONAL, WHILE_PREC, SUM, PRODUCT, EXPONENT, PREFIX, POSTFIX, CALL}
	for i := 1; i < len(order); i++ {
		if order[i-1] >= order[i] {
			t.Errorf("%s should bind looser than %s", order[i-1], order[i])
		}
	}

	infix := map[TokenType]Precedence{
		EQUAL:         ASSIGNMENT,
		AND:           BOOLEAN,
		OR:            BOOLEAN,
		LESS:          CONDITIONAL,
		GREATER_EQUAL: CONDITIONAL,
		NOT_EQUAL:     CONDITIONAL,
		PLUS:          SUM,
		MINUS:         SUM,
		STAR:          PRODUCT,
		SLASH:         PRODUCT,
		POWER:         EXPONENT,
		LEFT_PAREN:    CALL,
	}
	for tt, want := range infix {
		p, ok := infixFor(tt)
		if !ok || p.prec != want {
			t.Errorf("infixFor(%s) = %s, %v; want %s", tt, p.prec, ok, want)
		}
	}

	for _, tt := range []TokenType{THEN, ELSE, END, TO, STEP, COMMA, RIGHT_PAREN, EOF} {
		if prefixFor(tt) != nil {
			t.Errorf("prefixFor(%s) should be nil", tt)
		}
		if _, ok := infixFor(tt); ok {
			t.Errorf("infixFor(%s) should not exist", tt)
		}
	}
}

func TestIsIncomplete(t *testing.T) {
	tests := []struct {
		src  string
		want bool
	}{
		{"function f(x) begin", true},
		{"if x < 1 then", true},
		{"y = (1 + 2", true},
		{"1 +", true},
		{"x = )", false},
		{"3 = 4", false},
	}
	for _, tt := range tests {
		tokens, err := Lex(tt.src)
		if err != nil {
			t.Fatalf("Lex(%q): %v", tt.src, err)
		}
		_, err = New(tokens).Compile()
		if got := IsIncomplete(err); got != tt.want {
			t.Errorf("IsIncomplete(%q) = %v, want %v (err %v)", tt.src, got, tt.want, err)
		}
	}
	if IsIncomplete(nil) {
		t.Error("nil error reported incomplete")
	}
}
