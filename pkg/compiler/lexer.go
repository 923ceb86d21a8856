package compiler

import (
	"strconv"
	"unicode"
)

// keywords maps source text to its keyword TokenType.
var keywords = map[string]TokenType{
	"function": FUNCTION,
	"let":      LET,
	"if":       IF,
	"then":     THEN,
	"else":     ELSE,
	"return":   RETURN,
	"begin":    BEGIN,
	"end":      END,
	"while":    WHILE,
	"for":      FOR,
	"to":       TO,
	"step":     STEP,
	"and":      AND,
	"or":       OR,
	"not":      NOT,
}

// Scanner holds all mutable state for a single scanning pass over src.
// Errors are collected rather than returned so one pass reports every problem.
type Scanner struct {
	src    []rune
	pos    int // index of the next rune to consume
	line   int // current 1-based source line
	tokens []Token
	errs   LexErrors
}

func NewScanner(src string) *Scanner {
	return &Scanner{src: []rune(src), line: 1}
}

// peek returns the rune at the current position without advancing.
func (s *Scanner) peek() rune {
	if s.pos >= len(s.src) {
		return 0
	}
	return s.src[s.pos]
}

// peek2 returns the rune one position ahead of the current position.
func (s *Scanner) peek2() rune {
	if s.pos+1 >= len(s.src) {
		return 0
	}
	return s.src[s.pos+1]
}

// advance consumes one rune and returns it.
func (s *Scanner) advance() rune {
	if s.pos >= len(s.src) {
		return 0
	}
	r := s.src[s.pos]
	s.pos++
	if r == '\n' {
		s.line++
	}
	return r
}

// match consumes the current rune if it equals want.
func (s *Scanner) match(want rune) bool {
	if s.pos >= len(s.src) || s.src[s.pos] != want {
		return false
	}
	s.advance()
	return true
}

func (s *Scanner) atEnd() bool { return s.pos >= len(s.src) }

func (s *Scanner) add(tt TokenType, lexeme string, value any, line int) {
	s.tokens = append(s.tokens, Token{Type: tt, Lexeme: lexeme, Value: value, Line: line})
}

func (s *Scanner) errorf(line int, msg string) {
	s.errs = append(s.errs, &LexError{Line: line, Msg: msg})
}

// skipLineComment discards everything from the current position to end-of-line.
// The opening '#' must already have been consumed.
func (s *Scanner) skipLineComment() {
	for !s.atEnd() && s.peek() != '\n' {
		s.advance()
	}
}

// scanIdent collects an identifier or keyword. A single trailing '$' or '%'
// is part of the name.
func (s *Scanner) scanIdent() {
	line := s.line
	start := s.pos
	for !s.atEnd() {
		r := s.peek()
		if !isAlpha(r) && !unicode.IsDigit(r) {
			break
		}
		s.advance()
	}
	if s.peek() == '$' || s.peek() == '%' {
		s.advance()
	}
	lexeme := string(s.src[start:s.pos])
	tt := IDENTIFIER
	if kw, ok := keywords[lexeme]; ok {
		tt = kw
	}
	s.add(tt, lexeme, nil, line)
}

// scanNumber collects digits with at most one decimal point.
func (s *Scanner) scanNumber() {
	line := s.line
	start := s.pos
	seenDot := false
	for !s.atEnd() {
		r := s.peek()
		if r == '.' && !seenDot && unicode.IsDigit(s.peek2()) {
			seenDot = true
			s.advance()
			continue
		}
		if !unicode.IsDigit(r) {
			break
		}
		s.advance()
	}
	lexeme := string(s.src[start:s.pos])
	value, err := strconv.ParseFloat(lexeme, 64)
	if err != nil {
		s.errorf(line, "Invalid number '"+lexeme+"'")
		return
	}
	s.add(NUMBER, lexeme, value, line)
}

// scanString collects a string literal. Strings cannot span lines and have no
// escape sequences.
func (s *Scanner) scanString() {
	line := s.line
	start := s.pos
	s.advance() // opening "
	for !s.atEnd() && s.peek() != '"' && s.peek() != '\n' {
		s.advance()
	}
	if s.atEnd() || s.peek() == '\n' {
		s.errorf(line, "Unterminated string")
		return
	}
	s.advance() // closing "
	lexeme := string(s.src[start:s.pos])
	s.add(STRING, lexeme, lexeme[1:len(lexeme)-1], line)
}

// scanToken consumes one lexical unit, recording a token or an error.
func (s *Scanner) scanToken() {
	ch := s.peek()
	line := s.line

	switch {
	case unicode.IsSpace(ch):
		s.advance()
		return
	case isAlpha(ch):
		s.scanIdent()
		return
	case unicode.IsDigit(ch), ch == '.' && unicode.IsDigit(s.peek2()):
		s.scanNumber()
		return
	case ch == '"':
		s.scanString()
		return
	}

	s.advance()
	switch ch {
	case '#':
		s.skipLineComment()
	case '(':
		s.add(LEFT_PAREN, "(", nil, line)
	case ')':
		s.add(RIGHT_PAREN, ")", nil, line)
	case ',':
		s.add(COMMA, ",", nil, line)
	case '-':
		s.add(MINUS, "-", nil, line)
	case '+':
		s.add(PLUS, "+", nil, line)
	case '/':
		s.add(SLASH, "/", nil, line)
	case '*':
		s.add(STAR, "*", nil, line)
	case '^':
		s.add(POWER, "^", nil, line)
	case '=':
		switch {
		case s.match('='):
			s.add(EQUAL_EQUAL, "==", nil, line)
		case s.match('<'):
			s.add(LESS_EQUAL, "=<", nil, line)
		case s.match('>'):
			s.add(GREATER_EQUAL, "=>", nil, line)
		default:
			s.add(EQUAL, "=", nil, line)
		}
	case '<':
		switch {
		case s.match('='):
			s.add(LESS_EQUAL, "<=", nil, line)
		case s.match('>'):
			s.add(NOT_EQUAL, "<>", nil, line)
		default:
			s.add(LESS, "<", nil, line)
		}
	case '>':
		switch {
		case s.match('='):
			s.add(GREATER_EQUAL, ">=", nil, line)
		case s.match('<'):
			s.add(NOT_EQUAL, "><", nil, line)
		default:
			s.add(GREATER, ">", nil, line)
		}
	default:
		s.errorf(line, "Syntax error near '"+string(ch)+"'")
	}
}

// ScanTokens runs to the end of the input and returns every token followed by
// EOF. Errors() reports what went wrong along the way.
func (s *Scanner) ScanTokens() []Token {
	for !s.atEnd() {
		s.scanToken()
	}
	s.add(EOF, "", nil, s.line)
	return s.tokens
}

// Errors returns the errors collected by ScanTokens.
func (s *Scanner) Errors() LexErrors { return s.errs }

func isAlpha(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// Lex tokenises src and returns all tokens including the final EOF token.
// The error, when non-nil, is a LexErrors listing every problem found.
func Lex(src string) ([]Token, error) {
	s := NewScanner(src)
	tokens := s.ScanTokens()
	if len(s.errs) > 0 {
		return tokens, s.errs
	}
	return tokens, nil
}
