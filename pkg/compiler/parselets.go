package compiler

//  Prefix parselets

func parseName(c *Compiler, tok Token) (Expr, error) {
	name := &Name{Name: tok.Lexeme}
	switch next := c.peek().Type; {
	case next == EQUAL, next == LEFT_PAREN:
		// assignment target or callee; the infix parselet emits
	case c.isZeroArity(tok.Lexeme):
		c.emit("call " + tok.Lexeme)
	default:
		c.emit("get " + tok.Lexeme)
	}
	return name, nil
}

func parseNumber(c *Compiler, tok Token) (Expr, error) {
	c.emit("push " + tok.Lexeme)
	value, _ := tok.Value.(float64)
	return &Number{Value: value, Lexeme: tok.Lexeme}, nil
}

func parseString(c *Compiler, tok Token) (Expr, error) {
	c.emit("push " + tok.Lexeme)
	value, _ := tok.Value.(string)
	return &String{Value: value}, nil
}

// parseLet drops the optional "let" keyword.
func parseLet(c *Compiler, tok Token) (Expr, error) {
	return c.parseExpression(NOTHING)
}

func parseGroup(c *Compiler, tok Token) (Expr, error) {
	expr, err := c.parseExpression(NOTHING)
	if err != nil {
		return nil, err
	}
	if _, err := c.expect(RIGHT_PAREN, "Expected ')' after expression."); err != nil {
		return nil, err
	}
	return expr, nil
}

func parseBlock(c *Compiler, tok Token) (Expr, error) {
	if c.peek().Type == END {
		return nil, c.errorAt(c.peek(), "Expected expression after 'begin'.")
	}
	block := &Block{}
	for c.peek().Type != END {
		if c.peek().Type == EOF {
			return nil, c.errorAt(c.peek(), "Expected 'end' after block.")
		}
		expr, err := c.parseExpression(NOTHING)
		if err != nil {
			return nil, err
		}
		block.Body = append(block.Body, expr)
	}
	c.advance()
	return block, nil
}

// parseIf lowers "if cond then a else b" to
//
//	<cond> b<neg> L1, pop
//	<a>    bra L2
//	L1:    pop
//	<b>
//	L2:
//
// Without an else arm the tail is just "L1:", "pop".
func parseIf(c *Compiler, tok Token) (Expr, error) {
	l1 := c.newLabel()
	cond, err := c.parseCondition(l1)
	if err != nil {
		return nil, err
	}
	if _, err := c.expect(THEN, "Expected 'then' after if condition."); err != nil {
		return nil, err
	}
	then, err := c.parseExpression(NOTHING)
	if err != nil {
		return nil, err
	}

	if !c.match(ELSE) {
		c.emit(l1+":", "pop")
		return &If{Condition: cond, Then: then}, nil
	}

	l2 := c.newLabel()
	c.emit("bra "+l2, l1+":", "pop")
	els, err := c.parseExpression(NOTHING)
	if err != nil {
		return nil, err
	}
	c.emit(l2 + ":")
	return &If{Condition: cond, Then: then, Else: els}, nil
}

func parseWhile(c *Compiler, tok Token) (Expr, error) {
	top, exit := c.newLabel(), c.newLabel()
	c.emit(top + ":")
	cond, err := c.parseCondition(exit)
	if err != nil {
		return nil, err
	}
	body, err := c.parseExpression(NOTHING)
	if err != nil {
		return nil, err
	}
	c.emit("bra "+top, exit+":", "pop")
	return &While{Condition: cond, Body: body}, nil
}

// parseFor lowers "for v = from to limit step s body". The step expression is
// captured rather than emitted, and spliced into the increment after the body.
func parseFor(c *Compiler, tok Token) (Expr, error) {
	top, exit := c.newLabel(), c.newLabel()

	fromTok := c.peek()
	from, err := c.parseExpression(NOTHING)
	if err != nil {
		return nil, err
	}
	assign, ok := from.(*Assignment)
	if !ok {
		return nil, c.errorAt(fromTok, "Expected assignment after 'for'.")
	}
	v := assign.Target.Name

	c.emit(top+":", "get "+v)
	if _, err := c.expect(TO, "Expected 'to' after for assignment."); err != nil {
		return nil, err
	}
	to, err := c.parseExpression(NOTHING)
	if err != nil {
		return nil, err
	}
	c.emit("cmp", "bgt "+exit, "pop")

	step := []string{"push 1"}
	var stepExpr Expr
	if c.match(STEP) {
		step, stepExpr, err = c.capture(func() (Expr, error) {
			return c.parseExpression(NOTHING)
		})
		if err != nil {
			return nil, err
		}
	}

	body, err := c.parseExpression(NOTHING)
	if err != nil {
		return nil, err
	}

	c.emit(step...)
	c.emit("get "+v, "add", "put "+v, "pop", "bra "+top, exit+":", "pop")
	return &For{From: assign, To: to, Step: stepExpr, Body: body}, nil
}

// parseFunction compiles a declaration into its own segment. Arguments are
// on the stack left to right, so parameters are bound last first.
func parseFunction(c *Compiler, tok Token) (Expr, error) {
	if c.active != MainSegment {
		return nil, c.errorAt(tok, "Functions cannot be nested.")
	}
	nameTok, err := c.expect(IDENTIFIER, "Expected function name.")
	if err != nil {
		return nil, err
	}
	name := nameTok.Lexeme
	if name == MainSegment || c.segments.Has(name) {
		return nil, c.errorAt(nameTok, "Function '%s' is already declared.", name)
	}
	if _, err := c.expect(LEFT_PAREN, "Expected '(' after function name."); err != nil {
		return nil, err
	}

	var params []string
	if !c.match(RIGHT_PAREN) {
		for {
			if len(params) == maxArity {
				return nil, c.errorAt(c.peek(), "Can't have more than %d parameters.", maxArity)
			}
			p, err := c.expect(IDENTIFIER, "Expected parameter name.")
			if err != nil {
				return nil, err
			}
			params = append(params, p.Lexeme)
			if !c.match(COMMA) {
				break
			}
		}
		if _, err := c.expect(RIGHT_PAREN, "Expected ')' after parameters."); err != nil {
			return nil, err
		}
	}

	c.segments.add(name)
	c.arity[name] = len(params)

	savedBuf := c.buf
	c.buf = nil
	c.active = name
	defer func() {
		c.active = MainSegment
		c.buf = savedBuf
	}()

	for i := len(params) - 1; i >= 0; i-- {
		c.emit("put "+params[i], "pop")
	}

	var body []Expr
	if c.peek().Type == RETURN {
		expr, err := c.parseExpression(NOTHING)
		if err != nil {
			return nil, err
		}
		body = append(body, expr)
	} else {
		if _, err := c.expect(BEGIN, "Expected 'begin' or 'return' before function body."); err != nil {
			return nil, err
		}
		for c.peek().Type != END {
			if c.peek().Type == EOF {
				return nil, c.errorAt(c.peek(), "Expected 'end' after function body.")
			}
			expr, err := c.parseExpression(NOTHING)
			if err != nil {
				return nil, err
			}
			body = append(body, expr)
		}
		c.advance()
	}

	if c.segments.last(name) != "end" {
		c.emit("end")
	}
	c.log.Debug("function compiled", "name", name, "params", len(params))
	return &Function{Name: name, Params: params, Body: body}, nil
}

func parseReturn(c *Compiler, tok Token) (Expr, error) {
	value, err := c.parseExpression(NOTHING)
	if err != nil {
		return nil, err
	}
	c.emit("end")
	return &Return{Value: value}, nil
}

// parsePrefixOperator handles -x, +x and not x. A minus directly before a
// number literal folds into it.
func parsePrefixOperator(c *Compiler, tok Token) (Expr, error) {
	switch tok.Type {
	case MINUS:
		if c.peek().Type == NUMBER {
			num := c.advance()
			c.emit("push -" + num.Lexeme)
			value, _ := num.Value.(float64)
			return &Prefix{Op: MINUS, Operand: &Number{Value: value, Lexeme: num.Lexeme}}, nil
		}
		operand, err := c.parseExpression(PREFIX)
		if err != nil {
			return nil, err
		}
		c.emit("push -1", "mul")
		return &Prefix{Op: MINUS, Operand: operand}, nil
	case NOT:
		operand, err := c.parseExpression(BOOLEAN)
		if err != nil {
			return nil, err
		}
		c.emit("not")
		return &Prefix{Op: NOT, Operand: operand}, nil
	default:
		operand, err := c.parseExpression(PREFIX)
		if err != nil {
			return nil, err
		}
		return &Prefix{Op: tok.Type, Operand: operand}, nil
	}
}

//  Infix parselets

func parseBinary(c *Compiler, left Expr, tok Token) (Expr, error) {
	p, _ := infixFor(tok.Type)
	prec := p.prec
	if rightAssociative(tok.Type) {
		prec--
	}
	right, err := c.parseExpression(prec)
	if err != nil {
		return nil, err
	}

	op := binaryOpcode[tok.Type]
	if tok.Type == PLUS && (isStringy(left) || isStringy(right)) {
		op = "call str.concat"
	}
	c.emit(op)
	return &Operator{Left: left, Op: tok.Type, Right: right}, nil
}

// parseComparison emits cmp and then either branches to the enclosing
// condition's false label, or leaves 1 or 0 on the stack.
func parseComparison(c *Compiler, left Expr, tok Token) (Expr, error) {
	right, err := c.parseExpression(CONDITIONAL)
	if err != nil {
		return nil, err
	}

	if isStringy(left) || isStringy(right) {
		c.emit("call str.compare", "push 0")
	}
	c.emit("cmp")

	branch := negatedBranch[tok.Type]
	if c.atConditionRoot() {
		c.emit(branch+" "+c.cond.label, "pop")
		c.cond.branched = true
	} else {
		f, done := c.newLabel(), c.newLabel()
		c.emit(branch+" "+f, "pop", "push 1", "bra "+done, f+":", "pop", "push 0", done+":")
	}
	return &Operator{Left: left, Op: tok.Type, Right: right}, nil
}

func parseCall(c *Compiler, left Expr, tok Token) (Expr, error) {
	callee, ok := left.(*Name)
	if !ok {
		return nil, c.errorAt(tok, "Only named functions can be called.")
	}

	var args []Expr
	if !c.match(RIGHT_PAREN) {
		for {
			if len(args) == maxArity {
				return nil, c.errorAt(c.peek(), "Can't have more than %d arguments.", maxArity)
			}
			arg, err := c.parseExpression(NOTHING)
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if !c.match(COMMA) {
				break
			}
		}
		if _, err := c.expect(RIGHT_PAREN, "Expected ')' after arguments."); err != nil {
			return nil, err
		}
	}

	switch callee.Name {
	case "print":
		if len(args) == 0 {
			c.emit(`push ""`)
		}
		c.emit("call writeln", "pop")
	case "input":
		if len(args) > 0 {
			c.emit("call writeln", "pop")
		}
		c.emit("call readln")
	default:
		c.emit("call " + callee.Name)
	}
	return &FunctionCall{Callee: callee, Args: args}, nil
}

func parseAssignment(c *Compiler, left Expr, tok Token) (Expr, error) {
	target, ok := left.(*Name)
	if !ok {
		return nil, c.errorAt(tok, "Invalid assignment target.")
	}
	value, err := c.parseExpression(ASSIGNMENT - 1)
	if err != nil {
		return nil, err
	}
	c.emit("put "+target.Name, "pop")
	return &Assignment{Target: target, Value: value}, nil
}
