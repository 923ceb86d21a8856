package compiler

import (
	"errors"
	"reflect"
	"testing"
)

func TestLex(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []Token
		wantErr  bool
	}{
		{
			name:  "Empty",
			input: "",
			expected: []Token{
				{Type: EOF, Lexeme: "", Line: 1},
			},
		},
		{
			name:  "Operators",
			input: "+ - * / ^ ( ) ,",
			expected: []Token{
				{Type: PLUS, Lexeme: "+", Line: 1},
				{Type: MINUS, Lexeme: "-", Line: 1},
				{Type: STAR, Lexeme: "*", Line: 1},
				{Type: SLASH, Lexeme: "/", Line: 1},
				{Type: POWER, Lexeme: "^", Line: 1},
				{Type: LEFT_PAREN, Lexeme: "(", Line: 1},
				{Type: RIGHT_PAREN, Lexeme: ")", Line: 1},
				{Type: COMMA, Lexeme: ",", Line: 1},
				{Type: EOF, Lexeme: "", Line: 1},
			},
		},
		{
			name:  "Comparison spellings",
			input: "= == < <= =< > >= => <> ><",
			expected: []Token{
				{Type: EQUAL, Lexeme: "=", Line: 1},
				{Type: EQUAL_EQUAL, Lexeme: "==", Line: 1},
				{Type: LESS, Lexeme: "<", Line: 1},
				{Type: LESS_EQUAL, Lexeme: "<=", Line: 1},
				{Type: LESS_EQUAL, Lexeme: "=<", Line: 1},
				{Type: GREATER, Lexeme: ">", Line: 1},
				{Type: GREATER_EQUAL, Lexeme: ">=", Line: 1},
				{Type: GREATER_EQUAL, Lexeme: "=>", Line: 1},
				{Type: NOT_EQUAL, Lexeme: "<>", Line: 1},
				{Type: NOT_EQUAL, Lexeme: "><", Line: 1},
				{Type: EOF, Lexeme: "", Line: 1},
			},
		},
		{
			name:  "Keywords and Identifiers",
			input: "function let if then else return begin end while for to step and or not fib _x",
			expected: []Token{
				{Type: FUNCTION, Lexeme: "function", Line: 1},
				{Type: LET, Lexeme: "let", Line: 1},
				{Type: IF, Lexeme: "if", Line: 1},
				{Type: THEN, Lexeme: "then", Line: 1},
				{Type: ELSE, Lexeme: "else", Line: 1},
				{Type: RETURN, Lexeme: "return", Line: 1},
				{Type: BEGIN, Lexeme: "begin", Line: 1},
				{Type: END, Lexeme: "end", Line: 1},
				{Type: WHILE, Lexeme: "while", Line: 1},
				{Type: FOR, Lexeme: "for", Line: 1},
				{Type: TO, Lexeme: "to", Line: 1},
				{Type: STEP, Lexeme: "step", Line: 1},
				{Type: AND, Lexeme: "and", Line: 1},
				{Type: OR, Lexeme: "or", Line: 1},
				{Type: NOT, Lexeme: "not", Line: 1},
				{Type: IDENTIFIER, Lexeme: "fib", Line: 1},
				{Type: IDENTIFIER, Lexeme: "_x", Line: 1},
				{Type: EOF, Lexeme: "", Line: 1},
			},
		},
		{
			name:  "Sigils",
			input: "name$ count% a$b",
			expected: []Token{
				{Type: IDENTIFIER, Lexeme: "name$", Line: 1},
				{Type: IDENTIFIER, Lexeme: "count%", Line: 1},
				{Type: IDENTIFIER, Lexeme: "a$", Line: 1},
				{Type: IDENTIFIER, Lexeme: "b", Line: 1},
				{Type: EOF, Lexeme: "", Line: 1},
			},
		},
		{
			name:  "Keywords are lower case only",
			input: "If END",
			expected: []Token{
				{Type: IDENTIFIER, Lexeme: "If", Line: 1},
				{Type: IDENTIFIER, Lexeme: "END", Line: 1},
				{Type: EOF, Lexeme: "", Line: 1},
			},
		},
		{
			name:  "Numbers",
			input: "3 4.25 .5",
			expected: []Token{
				{Type: NUMBER, Lexeme: "3", Value: 3.0, Line: 1},
				{Type: NUMBER, Lexeme: "4.25", Value: 4.25, Line: 1},
				{Type: NUMBER, Lexeme: ".5", Value: 0.5, Line: 1},
				{Type: EOF, Lexeme: "", Line: 1},
			},
		},
		{
			name:  "String Literal",
			input: `"hello world"`,
			expected: []Token{
				{Type: STRING, Lexeme: `"hello world"`, Value: "hello world", Line: 1},
				{Type: EOF, Lexeme: "", Line: 1},
			},
		},
		{
			name:  "Comments and lines",
			input: "a # the first\nb\n# only a comment\nc",
			expected: []Token{
				{Type: IDENTIFIER, Lexeme: "a", Line: 1},
				{Type: IDENTIFIER, Lexeme: "b", Line: 2},
				{Type: IDENTIFIER, Lexeme: "c", Line: 4},
				{Type: EOF, Lexeme: "", Line: 4},
			},
		},
		{
			name:  "Adjacent Tokens",
			input: "x=y+1",
			expected: []Token{
				{Type: IDENTIFIER, Lexeme: "x", Line: 1},
				{Type: EQUAL, Lexeme: "=", Line: 1},
				{Type: IDENTIFIER, Lexeme: "y", Line: 1},
				{Type: PLUS, Lexeme: "+", Line: 1},
				{Type: NUMBER, Lexeme: "1", Value: 1.0, Line: 1},
				{Type: EOF, Lexeme: "", Line: 1},
			},
		},
		{
			name:    "Unterminated String",
			input:   `"hello`,
			wantErr: true,
		},
		{
			name:    "String across lines",
			input:   "\"hello\nworld\"",
			wantErr: true,
		},
		{
			name:    "Illegal character",
			input:   "a ; b",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Lex(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("Lex() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr {
				if !reflect.DeepEqual(got, tt.expected) {
					t.Errorf("Lex() = %v, want %v", got, tt.expected)
				}
			}
		})
	}
}

func TestLexCollectsEveryError(t *testing.T) {
	tokens, err := Lex("a ; b\n@ c\n\"open")
	var errs LexErrors
	if !errors.As(err, &errs) {
		t.Fatalf("expected LexErrors, got %v", err)
	}
	if len(errs) != 3 {
		t.Fatalf("expected 3 errors, got %d: %v", len(errs), errs)
	}

	wantLines := []int{1, 2, 3}
	for i, e := range errs {
		if e.Line != wantLines[i] {
			t.Errorf("error %d on line %d, want %d", i, e.Line, wantLines[i])
		}
	}
	if errs[0].Msg != "Syntax error near ';'" {
		t.Errorf("unexpected message %q", errs[0].Msg)
	}
	if errs[2].Msg != "Unterminated string" {
		t.Errorf("unexpected message %q", errs[2].Msg)
	}

	// scanning carries on past errors
	if last := tokens[len(tokens)-1]; last.Type != EOF {
		t.Errorf("expected EOF last, got %v", last)
	}
	if len(tokens) != 4 { // a b c EOF
		t.Errorf("expected 4 tokens, got %d: %v", len(tokens), tokens)
	}
}
