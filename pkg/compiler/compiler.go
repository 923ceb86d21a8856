package compiler

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"mezcal/pkg/natives"
)

// maxArity is the most parameters a function may declare, and the most
// arguments a call may pass.
const maxArity = 255

type config struct {
	source string
	logger *slog.Logger
	known  map[string]int
	shake  ShakeMode
}

// Option configures a Compiler or the Compile pipeline.
type Option func(*config)

// WithSource lets parse errors quote the offending source line.
func WithSource(src string) Option {
	return func(c *config) { c.source = src }
}

// WithLogger sets the structured logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithKnownFunctions declares functions compiled earlier (name to parameter
// count), so bare references to zero-parameter ones become calls. Used by the
// REPL, where each line is a separate unit.
func WithKnownFunctions(arity map[string]int) Option {
	return func(c *config) { c.known = arity }
}

// WithShake selects the dead-segment pass run by Compile.
func WithShake(mode ShakeMode) Option {
	return func(c *config) { c.shake = mode }
}

func newConfig(opts []Option) config {
	cfg := config{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		shake:  ShakeModeSingle,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// condition tracks the if/while condition being parsed. A comparison at its
// root branches straight to label; anything else is tested for truth after.
type condition struct {
	label    string
	depth    int // len(frames) of the condition's own parseExpression
	branched bool
}

// Compiler parses a token stream and emits stack machine assembly while it
// goes. One Compiler compiles exactly one unit.
//
// Every piece of mutable state lives here: the token cursor, the label
// counter, the segment table, and the active segment that emission targets.
type Compiler struct {
	tokens []Token
	pos    int

	labels   int
	segments *SegmentTable
	active   string
	arity    map[string]int

	frames []Precedence // minimum precedence of each open parseExpression
	cond   *condition
	buf    *[]string // non-nil while a sub-parse is being captured

	exprs       []Expr
	done        bool
	sourceLines []string
	log         *slog.Logger
}

// New returns a Compiler over tokens, which must end with EOF.
func New(tokens []Token, opts ...Option) *Compiler {
	cfg := newConfig(opts)
	c := &Compiler{
		tokens:   tokens,
		segments: NewSegmentTable(),
		active:   MainSegment,
		arity:    make(map[string]int),
		log:      cfg.logger,
	}
	for name, n := range cfg.known {
		c.arity[name] = n
	}
	if cfg.source != "" {
		c.sourceLines = strings.Split(cfg.source, "\n")
	}
	return c
}

// Compile consumes every token and returns the segment table. main ends with
// "end". A failed compile returns no table.
func (c *Compiler) Compile() (*SegmentTable, error) {
	if c.done {
		return nil, fmt.Errorf("compiler already used")
	}
	c.done = true

	for c.peek().Type != EOF {
		expr, err := c.parseExpression(NOTHING)
		if err != nil {
			return nil, err
		}
		c.exprs = append(c.exprs, expr)
	}

	c.active = MainSegment
	c.emit("end")
	c.log.Debug("compiled", "segments", c.segments.Len(), "labels", c.labels)
	return c.segments, nil
}

// Exprs returns the top-level expressions parsed by Compile.
func (c *Compiler) Exprs() []Expr { return c.exprs }

// Functions returns the parameter count of every function known to the
// compiler, including those passed in with WithKnownFunctions.
func (c *Compiler) Functions() map[string]int {
	out := make(map[string]int, len(c.arity))
	for k, v := range c.arity {
		out[k] = v
	}
	return out
}

// parseExpression is the Pratt loop: one prefix parselet, then infix
// parselets for as long as the next token binds tighter than prec.
func (c *Compiler) parseExpression(prec Precedence) (Expr, error) {
	c.frames = append(c.frames, prec)
	defer func() { c.frames = c.frames[:len(c.frames)-1] }()

	tok := c.advance()
	prefix := prefixFor(tok.Type)
	if prefix == nil {
		if tok.Type == EOF {
			return nil, c.errorAt(tok, "Unexpected end of input.")
		}
		return nil, c.errorAt(tok, "Could not parse '%s'.", tok.Lexeme)
	}

	left, err := prefix(c, tok)
	if err != nil {
		return nil, err
	}

	for prec < c.peekPrecedence() {
		tok = c.advance()
		infix, _ := infixFor(tok.Type)
		left, err = infix.parse(c, left, tok)
		if err != nil {
			return nil, err
		}
	}
	return left, nil
}

// parseCondition parses an if/while condition whose false branch goes to
// label. The flag the branch tested is left on the stack on both paths.
func (c *Compiler) parseCondition(label string) (Expr, error) {
	saved := c.cond
	cond := &condition{label: label, depth: len(c.frames) + 1}
	c.cond = cond
	expr, err := c.parseExpression(NOTHING)
	c.cond = saved
	if err != nil {
		return nil, err
	}
	if !cond.branched {
		c.emit("push 0", "cmp", "beq "+label, "pop")
	}
	return expr, nil
}

// atConditionRoot reports whether the comparison whose operands were just
// parsed is the whole condition being parsed.
func (c *Compiler) atConditionRoot() bool {
	if c.cond == nil || c.cond.branched || len(c.frames) != c.cond.depth {
		return false
	}
	return c.peekPrecedence() <= c.frames[len(c.frames)-1]
}

// capture runs parse with emission redirected to a private buffer and
// returns what it emitted instead of appending it to the active segment.
func (c *Compiler) capture(parse func() (Expr, error)) ([]string, Expr, error) {
	saved := c.buf
	var out []string
	c.buf = &out
	expr, err := parse()
	c.buf = saved
	return out, expr, err
}

// emit appends instructions to the capture buffer, if any, else to the
// active segment.
func (c *Compiler) emit(instrs ...string) {
	if c.buf != nil {
		*c.buf = append(*c.buf, instrs...)
		return
	}
	c.segments.append(c.active, instrs...)
}

// newLabel allocates the next label name. Its definition may be emitted
// after branches to it.
func (c *Compiler) newLabel() string {
	l := fmt.Sprintf("__%d", c.labels)
	c.labels++
	return l
}

// isZeroArity reports whether a bare name should be emitted as a call.
func (c *Compiler) isZeroArity(name string) bool {
	if n, ok := c.arity[name]; ok {
		return n == 0
	}
	return natives.IsZeroArity(name)
}

// peek returns the current token without consuming it.
func (c *Compiler) peek() Token {
	if c.pos >= len(c.tokens) {
		return Token{Type: EOF}
	}
	return c.tokens[c.pos]
}

// advance consumes and returns the current token. EOF is never consumed.
func (c *Compiler) advance() Token {
	tok := c.peek()
	if tok.Type != EOF {
		c.pos++
	}
	return tok
}

// match consumes the current token if it has type tt.
func (c *Compiler) match(tt TokenType) bool {
	if c.peek().Type != tt {
		return false
	}
	c.advance()
	return true
}

// expect consumes the current token if it matches tt, otherwise returns a
// ParseError carrying msg.
func (c *Compiler) expect(tt TokenType, msg string) (Token, error) {
	tok := c.peek()
	if tok.Type != tt {
		return tok, c.errorAt(tok, "%s Found '%s'.", msg, tok.Lexeme)
	}
	return c.advance(), nil
}

func (c *Compiler) peekPrecedence() Precedence {
	if p, ok := infixFor(c.peek().Type); ok {
		return p.prec
	}
	return NOTHING
}

// errorAt builds a ParseError for tok, quoting its source line when known.
func (c *Compiler) errorAt(tok Token, format string, args ...any) *ParseError {
	snippet := ""
	if idx := tok.Line - 1; idx >= 0 && idx < len(c.sourceLines) {
		snippet = strings.TrimSpace(c.sourceLines[idx])
	}
	return &ParseError{Token: tok, Msg: fmt.Sprintf(format, args...), Snippet: snippet}
}
