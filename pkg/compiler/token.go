package compiler

import "fmt"

// TokenType identifies the category of a scanned token.
type TokenType int

const (
	EOF TokenType = iota // sentinel: end of input

	// Literals
	IDENTIFIER // variable / function name, optionally with a $ or % sigil
	NUMBER     // decimal literal, value carried as float64
	STRING     // string literal "..."

	// Keywords
	FUNCTION // "function"
	LET      // "let"
	IF       // "if"
	THEN     // "then"
	ELSE     // "else"
	RETURN   // "return"
	BEGIN    // "begin"
	END      // "end"
	WHILE    // "while"
	FOR      // "for"
	TO       // "to"
	STEP     // "step"
	AND      // "and"
	OR       // "or"
	NOT      // "not"

	// Delimiters
	LEFT_PAREN  // (
	RIGHT_PAREN // )
	COMMA       // ,

	// Arithmetic operators
	MINUS // -
	PLUS  // +
	SLASH // /
	STAR  // *
	POWER // ^

	// Assignment / comparison
	EQUAL         // =
	EQUAL_EQUAL   // ==
	NOT_EQUAL     // <> or ><
	GREATER       // >
	GREATER_EQUAL // >= or =>
	LESS          // <
	LESS_EQUAL    // <= or =<
)

var tokenNames = [...]string{
	EOF:           "EOF",
	IDENTIFIER:    "IDENTIFIER",
	NUMBER:        "NUMBER",
	STRING:        "STRING",
	FUNCTION:      "FUNCTION",
	LET:           "LET",
	IF:            "IF",
	THEN:          "THEN",
	ELSE:          "ELSE",
	RETURN:        "RETURN",
	BEGIN:         "BEGIN",
	END:           "END",
	WHILE:         "WHILE",
	FOR:           "FOR",
	TO:            "TO",
	STEP:          "STEP",
	AND:           "AND",
	OR:            "OR",
	NOT:           "NOT",
	LEFT_PAREN:    "LEFT_PAREN",
	RIGHT_PAREN:   "RIGHT_PAREN",
	COMMA:         "COMMA",
	MINUS:         "MINUS",
	PLUS:          "PLUS",
	SLASH:         "SLASH",
	STAR:          "STAR",
	POWER:         "POWER",
	EQUAL:         "EQUAL",
	EQUAL_EQUAL:   "EQUAL_EQUAL",
	NOT_EQUAL:     "NOT_EQUAL",
	GREATER:       "GREATER",
	GREATER_EQUAL: "GREATER_EQUAL",
	LESS:          "LESS",
	LESS_EQUAL:    "LESS_EQUAL",
}

func (tt TokenType) String() string {
	if int(tt) >= 0 && int(tt) < len(tokenNames) {
		return tokenNames[tt]
	}
	return fmt.Sprintf("TokenType(%d)", int(tt))
}

// Token is a single lexical unit produced by the Scanner.
type Token struct {
	Type   TokenType
	Lexeme string // the exact source text that was matched
	Value  any    // float64 for NUMBER, unquoted text for STRING, nil otherwise
	Line   int    // 1-based source line
}

func (t Token) String() string {
	return fmt.Sprintf("%-13s %-14q  line %d", t.Type, t.Lexeme, t.Line)
}
