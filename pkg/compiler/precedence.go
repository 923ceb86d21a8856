package compiler

// Precedence is the binding strength of an infix parselet, lowest first.
type Precedence int

const (
	NOTHING Precedence = iota
	ASSIGNMENT
	BOOLEAN
	CONDITIONAL
	WHILE_PREC
	SUM
	PRODUCT
	EXPONENT
	PREFIX
	POSTFIX
	CALL
)

var precedenceNames = [...]string{
	NOTHING:     "NOTHING",
	ASSIGNMENT:  "ASSIGNMENT",
	BOOLEAN:     "BOOLEAN",
	CONDITIONAL: "CONDITIONAL",
	WHILE_PREC:  "WHILE",
	SUM:         "SUM",
	PRODUCT:     "PRODUCT",
	EXPONENT:    "EXPONENT",
	PREFIX:      "PREFIX",
	POSTFIX:     "POSTFIX",
	CALL:        "CALL",
}

func (p Precedence) String() string {
	if int(p) >= 0 && int(p) < len(precedenceNames) {
		return precedenceNames[p]
	}
	return "Precedence(?)"
}

// prefixParselet parses (and emits code for) a construct that starts with tok.
type prefixParselet func(c *Compiler, tok Token) (Expr, error)

// infixParselet continues an expression whose left operand is already parsed.
type infixParselet struct {
	prec  Precedence
	parse func(c *Compiler, left Expr, tok Token) (Expr, error)
}

// prefixFor returns the prefix parselet for tt, or nil when tt cannot start
// an expression.
func prefixFor(tt TokenType) prefixParselet {
	switch tt {
	case IDENTIFIER:
		return parseName
	case NUMBER:
		return parseNumber
	case STRING:
		return parseString
	case LEFT_PAREN:
		return parseGroup
	case BEGIN:
		return parseBlock
	case IF:
		return parseIf
	case WHILE:
		return parseWhile
	case FOR:
		return parseFor
	case FUNCTION:
		return parseFunction
	case RETURN:
		return parseReturn
	case LET:
		return parseLet
	case MINUS, PLUS, NOT:
		return parsePrefixOperator
	case EOF, THEN, ELSE, END, TO, STEP, AND, OR, RIGHT_PAREN, COMMA,
		SLASH, STAR, POWER, EQUAL, EQUAL_EQUAL, NOT_EQUAL,
		GREATER, GREATER_EQUAL, LESS, LESS_EQUAL:
		return nil
	}
	return nil
}

// infixFor returns the infix parselet for tt. ok is false when tt never
// continues an expression.
func infixFor(tt TokenType) (p infixParselet, ok bool) {
	switch tt {
	case LEFT_PAREN:
		return infixParselet{CALL, parseCall}, true
	case EQUAL:
		return infixParselet{ASSIGNMENT, parseAssignment}, true
	case PLUS, MINUS:
		return infixParselet{SUM, parseBinary}, true
	case STAR, SLASH:
		return infixParselet{PRODUCT, parseBinary}, true
	case POWER:
		return infixParselet{EXPONENT, parseBinary}, true
	case LESS, LESS_EQUAL, GREATER, GREATER_EQUAL, EQUAL_EQUAL, NOT_EQUAL:
		return infixParselet{CONDITIONAL, parseComparison}, true
	case AND, OR:
		return infixParselet{BOOLEAN, parseBinary}, true
	case EOF, IDENTIFIER, NUMBER, STRING, FUNCTION, LET, IF, THEN, ELSE,
		RETURN, BEGIN, END, WHILE, FOR, TO, STEP, NOT, RIGHT_PAREN, COMMA:
		return infixParselet{}, false
	}
	return infixParselet{}, false
}

// rightAssociative reports whether the right operand of tt binds one level
// looser than tt itself.
func rightAssociative(tt TokenType) bool {
	return tt == POWER
}

// negatedBranch maps a comparison to the branch taken when it is false.
var negatedBranch = map[TokenType]string{
	LESS:          "bge",
	GREATER:       "ble",
	LESS_EQUAL:    "bgt",
	GREATER_EQUAL: "blt",
	EQUAL_EQUAL:   "bne",
	NOT_EQUAL:     "beq",
}

// binaryOpcode maps arithmetic and boolean operators to their instruction.
var binaryOpcode = map[TokenType]string{
	PLUS:  "add",
	MINUS: "sub",
	STAR:  "mul",
	SLASH: "div",
	POWER: "call pow",
	AND:   "and",
	OR:    "or",
}
