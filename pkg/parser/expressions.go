package parser

import (
	"strings"

	"cppparser/pkg/ast"
	"cppparser/pkg/lexer"
)

// binary operator precedences; higher binds tighter
var binaryPrecedence = map[lexer.TokenType]int{
	lexer.TokenDoublePipe:   1,
	lexer.TokenDoubleAmp:    2,
	lexer.TokenPipe:         3,
	lexer.TokenCaret:        4,
	lexer.TokenAmpersand:    5,
	lexer.TokenDoubleEquals: 6,
	lexer.TokenNotEquals:    6,
	lexer.TokenLess:         7,
	lexer.TokenGreater:      7,
	lexer.TokenLessEqual:    7,
	lexer.TokenGreaterEqual: 7,
	lexer.TokenSpaceship:    8,
	lexer.TokenLeftShift:    9,
	lexer.TokenRightShift:   9,
	lexer.TokenPlus:         10,
	lexer.TokenMinus:        10,
	lexer.TokenStar:         11,
	lexer.TokenSlash:        11,
	lexer.TokenPercent:      11,
	lexer.TokenDotStar:      12,
	lexer.TokenArrowStar:    12,
}

var assignmentOps = map[lexer.TokenType]bool{
	lexer.TokenEquals: true, lexer.TokenPlusEquals: true, lexer.TokenMinusEquals: true,
	lexer.TokenStarEquals: true, lexer.TokenSlashEquals: true, lexer.TokenPercentEquals: true,
	lexer.TokenAmpEquals: true, lexer.TokenPipeEquals: true, lexer.TokenCaretEquals: true,
	lexer.TokenLeftShiftEquals: true, lexer.TokenRightShiftEquals: true,
}

// parseExpression parses a full expression, comma operator included
func (p *Parser) parseExpression() (*ast.Expression, error) {
	e, err := p.parseAssignment()
	if err != nil {
		return nil, err
	}
	for p.check(lexer.TokenComma) && !p.checkAhead(1, lexer.TokenEllipsis) && p.angle == 0 {
		p.advance()
		y, err := p.parseAssignment()
		if err != nil {
			return nil, err
		}
		e = &ast.Expression{Kind: ast.ExprBinary, Op: ",", X: e, Y: y}
	}
	return e, nil
}

// parseAssignment parses assignment-expression, including throw and co_yield
func (p *Parser) parseAssignment() (*ast.Expression, error) {
	switch {
	case p.check(lexer.TokenThrow):
		p.advance()
		e := &ast.Expression{Kind: ast.ExprThrow}
		if p.startsOperand() {
			x, err := p.parseAssignment()
			if err != nil {
				return nil, err
			}
			e.X = x
		}
		return e, nil
	case p.check(lexer.TokenCoYield):
		p.advance()
		x, err := p.parseInitializerClause()
		if err != nil {
			return nil, err
		}
		return &ast.Expression{Kind: ast.ExprUnary, Op: "co_yield ", X: x}, nil
	}

	e, err := p.parseConditional()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); assignmentOps[tok.Type] && !(p.angle > 0 && tok.Type == lexer.TokenRightShiftEquals) {
		p.advance()
		y, err := p.parseInitializerClause()
		if err != nil {
			return nil, err
		}
		e = &ast.Expression{Kind: ast.ExprBinary, Op: lexer.Spelling(tok.Type), X: e, Y: y}
	}
	return e, nil
}

// parseInitializerClause parses an assignment-expression or a braced-init-list
func (p *Parser) parseInitializerClause() (*ast.Expression, error) {
	if p.check(lexer.TokenLeftBrace) {
		return p.parseBracedInitList()
	}
	return p.parseAssignment()
}

// parseConditional parses a ? b : c
func (p *Parser) parseConditional() (*ast.Expression, error) {
	cond, err := p.parseBinary(1)
	if err != nil {
		return nil, err
	}
	if !p.match(lexer.TokenQuestion) {
		return cond, nil
	}
	angle := p.angle
	p.angle = 0
	y, err := p.parseExpression()
	p.angle = angle
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokenColon, "':' in conditional expression"); err != nil {
		return nil, err
	}
	z, err := p.parseAssignment()
	if err != nil {
		return nil, err
	}
	return &ast.Expression{Kind: ast.ExprConditional, X: cond, Y: y, Z: z}, nil
}

// parseConstraintExpr parses the constraint of a requires-clause
func (p *Parser) parseConstraintExpr() (*ast.Expression, error) {
	return p.parseBinary(1)
}

// parseBinary parses binary operators of at least precedence min by precedence
// climbing. Inside template arguments '>' and '>>' end the expression, and an operator
// followed by '...' belongs to an enclosing fold-expression.
func (p *Parser) parseBinary(min int) (*ast.Expression, error) {
	p.enter()
	defer p.leave()

	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		prec, ok := binaryPrecedence[tok.Type]
		if !ok || prec < min {
			return left, nil
		}
		if p.angle > 0 && (tok.Type == lexer.TokenGreater || tok.Type == lexer.TokenRightShift) {
			return left, nil
		}
		if p.checkAhead(1, lexer.TokenEllipsis) {
			return left, nil
		}
		p.advance()
		right, err := p.parseBinary(prec + 1)
		if err != nil {
			return nil, err
		}
		left = &ast.Expression{Kind: ast.ExprBinary, Op: lexer.Spelling(tok.Type), X: left, Y: right}
	}
}

// parseUnary parses prefix operators, sizeof and friends, new, delete and casts
func (p *Parser) parseUnary() (*ast.Expression, error) {
	p.enter()
	defer p.leave()

	tok := p.peek()
	switch tok.Type {
	case lexer.TokenPlus, lexer.TokenMinus, lexer.TokenExclamation, lexer.TokenTilde,
		lexer.TokenStar, lexer.TokenAmpersand, lexer.TokenPlusPlus, lexer.TokenMinusMinus:
		p.advance()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.Expression{Kind: ast.ExprUnary, Op: lexer.Spelling(tok.Type), X: x}, nil

	case lexer.TokenCoAwait:
		p.advance()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.Expression{Kind: ast.ExprUnary, Op: "co_await ", X: x}, nil

	case lexer.TokenSizeof:
		p.advance()
		if p.match(lexer.TokenEllipsis) {
			return p.parseSizeofPack()
		}
		return p.parseSizeofOperand(ast.ExprSizeof)

	case lexer.TokenAlignof:
		p.advance()
		return p.parseSizeofOperand(ast.ExprAlignof)

	case lexer.TokenNoexcept:
		p.advance()
		x, err := p.parseParenExpression("noexcept")
		if err != nil {
			return nil, err
		}
		return &ast.Expression{Kind: ast.ExprNoexcept, X: x}, nil

	case lexer.TokenNew:
		return p.parseNew()

	case lexer.TokenDelete:
		return p.parseDelete()

	case lexer.TokenDoubleColon:
		if p.checkAhead(1, lexer.TokenNew) {
			p.advance()
			return p.parseNew()
		}
		if p.checkAhead(1, lexer.TokenDelete) {
			p.advance()
			return p.parseDelete()
		}

	case lexer.TokenIdentifier:
		switch tok.Value {
		case "__alignof__", "__alignof", "_Alignof":
			p.advance()
			return p.parseSizeofOperand(ast.ExprAlignof)
		case "__extension__":
			p.advance()
			return p.parseUnary()
		}

	case lexer.TokenLeftParen:
		if p.isTypeAhead(1) {
			e, ok, err := p.tryCast()
			if err != nil {
				return nil, err
			}
			if ok {
				return e, nil
			}
		}
	}
	return p.parsePostfix()
}

// tryCast parses a C-style cast (type) operand, restoring the cursor when the
// parenthesized tokens are not a type-id followed by an operand
func (p *Parser) tryCast() (*ast.Expression, bool, error) {
	var t ast.Type
	if !p.tentatively(func() error {
		p.advance() // (
		var err error
		angle := p.angle
		p.angle = 0
		t, err = p.parseTypeID()
		p.angle = angle
		if err != nil {
			return err
		}
		if _, err := p.expect(lexer.TokenRightParen, "')'"); err != nil {
			return err
		}
		if !p.startsOperand() {
			return p.expected("cast operand")
		}
		return nil
	}) {
		return nil, false, nil
	}
	var x *ast.Expression
	var err error
	if p.check(lexer.TokenLeftBrace) {
		x, err = p.parseBracedInitList()
	} else {
		x, err = p.parseUnary()
	}
	if err != nil {
		return nil, false, err
	}
	return &ast.Expression{Kind: ast.ExprCast, Type: t, X: x}, true, nil
}

// startsOperand reports whether the current token can begin an expression operand
func (p *Parser) startsOperand() bool {
	tok := p.peek()
	switch tok.Type {
	case lexer.TokenIdentifier, lexer.TokenNumber, lexer.TokenString, lexer.TokenCharLiteral,
		lexer.TokenLeftParen, lexer.TokenLeftBrace, lexer.TokenLeftBracket,
		lexer.TokenExclamation, lexer.TokenTilde, lexer.TokenMinus, lexer.TokenPlus,
		lexer.TokenStar, lexer.TokenAmpersand, lexer.TokenPlusPlus, lexer.TokenMinusMinus,
		lexer.TokenThis, lexer.TokenTrue, lexer.TokenFalse, lexer.TokenNullptr,
		lexer.TokenSizeof, lexer.TokenAlignof, lexer.TokenNew, lexer.TokenDelete,
		lexer.TokenDoubleColon, lexer.TokenStaticCast, lexer.TokenDynamicCast,
		lexer.TokenConstCast, lexer.TokenReinterpretCast, lexer.TokenTypeid,
		lexer.TokenNoexcept, lexer.TokenRequires, lexer.TokenOperator, lexer.TokenThrow,
		lexer.TokenTypename, lexer.TokenDecltype, lexer.TokenCoAwait:
		return true
	}
	return false
}

// parseSizeofOperand parses the operand of sizeof or alignof: (type-id) or a unary
// expression
func (p *Parser) parseSizeofOperand(kind ast.ExprKind) (*ast.Expression, error) {
	if p.check(lexer.TokenLeftParen) && p.isTypeAhead(1) {
		var t ast.Type
		if p.tentatively(func() error {
			p.advance()
			angle := p.angle
			p.angle = 0
			defer func() { p.angle = angle }()
			var err error
			if t, err = p.parseTypeID(); err != nil {
				return err
			}
			_, err = p.expect(lexer.TokenRightParen, "')'")
			return err
		}) {
			return &ast.Expression{Kind: kind, Type: t}, nil
		}
	}
	x, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return &ast.Expression{Kind: kind, X: x}, nil
}

// parseSizeofPack parses the (pack) of sizeof...(pack)
func (p *Parser) parseSizeofPack() (*ast.Expression, error) {
	if _, err := p.expect(lexer.TokenLeftParen, "'(' after sizeof..."); err != nil {
		return nil, err
	}
	name, err := p.expect(lexer.TokenIdentifier, "parameter pack name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokenRightParen, "')'"); err != nil {
		return nil, err
	}
	return &ast.Expression{Kind: ast.ExprSizeofPack, Text: name.Value, Decl: p.scope.Lookup(name.Value, true)}, nil
}

// parseParenExpression parses ( expression ) after the keyword what
func (p *Parser) parseParenExpression(what string) (*ast.Expression, error) {
	if _, err := p.expect(lexer.TokenLeftParen, "'(' after "+what); err != nil {
		return nil, err
	}
	angle := p.angle
	p.angle = 0
	defer func() { p.angle = angle }()
	e, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokenRightParen, "')' after "+what+" operand"); err != nil {
		return nil, err
	}
	return e, nil
}

// parseNew parses new [(placement)] type [initializer]
func (p *Parser) parseNew() (*ast.Expression, error) {
	p.advance() // new
	e := &ast.Expression{Kind: ast.ExprNew}
	angle := p.angle
	p.angle = 0
	defer func() { p.angle = angle }()

	if p.check(lexer.TokenLeftParen) && !p.isTypeAhead(1) {
		// placement arguments
		if _, err := p.parseCallArgs(); err != nil {
			return nil, err
		}
	}
	if p.check(lexer.TokenLeftParen) {
		p.advance()
		t, err := p.parseTypeID()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.TokenRightParen, "')' after new type"); err != nil {
			return nil, err
		}
		e.Type = t
	} else {
		t, err := p.parseTypeSpecifiers()
		if err != nil {
			return nil, err
		}
		for {
			op, ok, err := p.parsePtrOperator()
			if err != nil {
				return nil, err
			}
			if !ok {
				break
			}
			t = op(t)
		}
		for p.check(lexer.TokenLeftBracket) {
			w, err := p.parseArraySuffix()
			if err != nil {
				return nil, err
			}
			t = w(t)
			e.Array = true
		}
		e.Type = t
	}

	switch {
	case p.check(lexer.TokenLeftParen):
		args, err := p.parseCallArgs()
		if err != nil {
			return nil, err
		}
		e.Args = args
	case p.check(lexer.TokenLeftBrace):
		list, err := p.parseBracedInitList()
		if err != nil {
			return nil, err
		}
		e.Args, e.Braced = list.Args, true
	}
	return e, nil
}

// parseDelete parses delete [] operand
func (p *Parser) parseDelete() (*ast.Expression, error) {
	p.advance() // delete
	e := &ast.Expression{Kind: ast.ExprDelete}
	if p.check(lexer.TokenLeftBracket) && p.checkAhead(1, lexer.TokenRightBracket) {
		p.advance()
		p.advance()
		e.Array = true
	}
	x, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	e.X = x
	return e, nil
}

// parsePostfix parses calls, subscripts, member access and postfix increments
func (p *Parser) parsePostfix() (*ast.Expression, error) {
	e, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		switch tok.Type {
		case lexer.TokenLeftParen:
			args, err := p.parseCallArgs()
			if err != nil {
				return nil, err
			}
			e = &ast.Expression{Kind: ast.ExprCall, X: e, Args: args}
		case lexer.TokenLeftBracket:
			if p.checkAhead(1, lexer.TokenLeftBracket) {
				return e, nil
			}
			p.advance()
			angle := p.angle
			p.angle = 0
			idx, err := p.parseInitializerClause()
			p.angle = angle
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(lexer.TokenRightBracket, "']' after subscript"); err != nil {
				return nil, err
			}
			e = &ast.Expression{Kind: ast.ExprSubscript, X: e, Y: idx}
		case lexer.TokenDot, lexer.TokenArrow:
			p.advance()
			m, err := p.parseMemberName()
			if err != nil {
				return nil, err
			}
			m.X, m.Op = e, lexer.Spelling(tok.Type)
			e = m
		case lexer.TokenPlusPlus, lexer.TokenMinusMinus:
			p.advance()
			e = &ast.Expression{Kind: ast.ExprPostfix, Op: lexer.Spelling(tok.Type), X: e}
		default:
			return e, nil
		}
	}
}

// parseMemberName parses the name after . or ->
func (p *Parser) parseMemberName() (*ast.Expression, error) {
	e := &ast.Expression{Kind: ast.ExprMember}
	comp := ast.NameComponent{Template: p.match(lexer.TokenTemplate)}
	tok := p.peek()
	switch {
	case tok.Type == lexer.TokenTilde:
		p.advance()
		name, err := p.expect(lexer.TokenIdentifier, "destructor name")
		if err != nil {
			return nil, err
		}
		comp.Name = "~" + name.Value
	case tok.Type == lexer.TokenOperator:
		name, _, err := p.parseOperatorName()
		if err != nil {
			return nil, err
		}
		comp.Name = name
	case tok.Type == lexer.TokenIdentifier:
		p.advance()
		comp.Name = tok.Value
		// qualified member access such as x.Base::f
		for p.check(lexer.TokenDoubleColon) && p.checkAhead(1, lexer.TokenIdentifier) {
			p.advance()
			comp.Name += "::" + p.advance().Value
		}
	default:
		return nil, p.expected("member name")
	}
	if comp.Template && p.check(lexer.TokenLess) {
		args, err := p.parseTemplateArgs()
		if err != nil {
			return nil, err
		}
		comp.Args, comp.HasArgs = args, true
		e.TemplateArgs, e.HasTemplate = args, true
	}
	e.Text = comp.Name
	if comp.Template || comp.HasArgs {
		e.Ident = &ast.Identifier{Names: []ast.NameComponent{comp}}
	}
	return e, nil
}

// parseCallArgs parses ( initializer-list ). The result is non-nil even when empty.
func (p *Parser) parseCallArgs() ([]*ast.Expression, error) {
	if _, err := p.expect(lexer.TokenLeftParen, "'('"); err != nil {
		return nil, err
	}
	return p.parseExprList(lexer.TokenRightParen, "')' to close argument list")
}

// parseExprList parses comma separated initializer-clauses up to and including end
func (p *Parser) parseExprList(end lexer.TokenType, what string) ([]*ast.Expression, error) {
	angle := p.angle
	p.angle = 0
	defer func() { p.angle = angle }()

	args := []*ast.Expression{}
	for !p.check(end) {
		a, err := p.parseInitializerClause()
		if err != nil {
			return nil, err
		}
		if p.match(lexer.TokenEllipsis) {
			a = &ast.Expression{Kind: ast.ExprPack, X: a}
		}
		args = append(args, a)
		if !p.match(lexer.TokenComma) {
			break
		}
	}
	if _, err := p.expect(end, what); err != nil {
		return nil, err
	}
	return args, nil
}

// parseBracedInitList parses { initializer-list } with C designators
func (p *Parser) parseBracedInitList() (*ast.Expression, error) {
	p.advance() // {
	angle := p.angle
	p.angle = 0
	defer func() { p.angle = angle }()

	e := &ast.Expression{Kind: ast.ExprInitList, Braced: true, Args: []*ast.Expression{}}
	for !p.check(lexer.TokenRightBrace) {
		a, err := p.parseDesignatedInitializer()
		if err != nil {
			return nil, err
		}
		if p.match(lexer.TokenEllipsis) {
			a = &ast.Expression{Kind: ast.ExprPack, X: a}
		}
		e.Args = append(e.Args, a)
		if !p.match(lexer.TokenComma) {
			break
		}
	}
	if _, err := p.expect(lexer.TokenRightBrace, "'}' to close initializer list"); err != nil {
		return nil, err
	}
	return e, nil
}

// parseDesignatedInitializer parses [.member | [index]] = value or a plain clause
func (p *Parser) parseDesignatedInitializer() (*ast.Expression, error) {
	var designator *ast.Expression
	switch {
	case p.check(lexer.TokenDot) && p.checkAhead(1, lexer.TokenIdentifier):
		p.advance()
		designator = &ast.Expression{Kind: ast.ExprUnknown, Text: "." + p.advance().Value}
	case p.check(lexer.TokenLeftBracket) && !p.checkAhead(1, lexer.TokenLeftBracket) && p.designatorAhead():
		p.advance()
		idx, err := p.parseConditional()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.TokenRightBracket, "']' in designator"); err != nil {
			return nil, err
		}
		designator = &ast.Expression{Kind: ast.ExprUnknown, Text: "[" + ast.FormatExpr(idx, nil) + "]"}
	default:
		return p.parseInitializerClause()
	}
	p.match(lexer.TokenEquals)
	value, err := p.parseInitializerClause()
	if err != nil {
		return nil, err
	}
	return &ast.Expression{Kind: ast.ExprBinary, Op: "=", X: designator, Y: value}, nil
}

// designatorAhead tells [index] = value from a lambda in an initializer list
func (p *Parser) designatorAhead() bool {
	depth := 0
	for i := 0; ; i++ {
		switch p.peekAhead(i).Type {
		case lexer.TokenLeftBracket:
			depth++
		case lexer.TokenRightBracket:
			depth--
			if depth == 0 {
				return p.checkAhead(i+1, lexer.TokenEquals) || p.checkAhead(i+1, lexer.TokenLeftBrace)
			}
		case lexer.TokenEOF, lexer.TokenSemicolon:
			return false
		}
	}
}

// parsePrimary parses literals, names, parenthesized and fold expressions, lambdas,
// requires-expressions, named casts and functional casts
func (p *Parser) parsePrimary() (*ast.Expression, error) {
	tok := p.peek()
	switch tok.Type {
	case lexer.TokenNumber:
		p.advance()
		if isFloatLiteral(tok.Value) {
			return &ast.Expression{Kind: ast.ExprFloat, Text: tok.Value}, nil
		}
		return ast.NewInteger(tok.Value), nil
	case lexer.TokenString:
		parts := []string{p.advance().Value}
		for p.check(lexer.TokenString) {
			parts = append(parts, p.advance().Value)
		}
		return &ast.Expression{Kind: ast.ExprString, Text: strings.Join(parts, " ")}, nil
	case lexer.TokenCharLiteral:
		p.advance()
		return &ast.Expression{Kind: ast.ExprChar, Text: tok.Value}, nil
	case lexer.TokenTrue, lexer.TokenFalse:
		p.advance()
		return ast.NewBool(tok.Type == lexer.TokenTrue), nil
	case lexer.TokenNullptr:
		p.advance()
		return &ast.Expression{Kind: ast.ExprNullptr}, nil
	case lexer.TokenThis:
		p.advance()
		return &ast.Expression{Kind: ast.ExprThis}, nil

	case lexer.TokenLeftParen:
		return p.parseParenOrFold()
	case lexer.TokenLeftBracket:
		return p.parseLambda()
	case lexer.TokenLeftBrace:
		return p.parseBracedInitList()
	case lexer.TokenRequires:
		return p.parseRequiresExpression()

	case lexer.TokenStaticCast, lexer.TokenDynamicCast, lexer.TokenConstCast, lexer.TokenReinterpretCast:
		return p.parseNamedCast()
	case lexer.TokenTypeid:
		p.advance()
		return p.parseSizeofOperand(ast.ExprTypeid)

	case lexer.TokenDecltype:
		t, err := p.parseDecltype()
		if err != nil {
			return nil, err
		}
		return p.parseTypeExpression(t)
	case lexer.TokenTypename:
		t, err := p.parseTypenameSpecifier()
		if err != nil {
			return nil, err
		}
		return p.parseTypeExpression(t)

	case lexer.TokenVoid, lexer.TokenBool, lexer.TokenChar, lexer.TokenChar8, lexer.TokenChar16,
		lexer.TokenChar32, lexer.TokenWchar, lexer.TokenShort, lexer.TokenInt, lexer.TokenLong,
		lexer.TokenFloat, lexer.TokenDouble, lexer.TokenSigned, lexer.TokenUnsigned, lexer.TokenAuto:
		t, err := p.parseTypeSpecifiers()
		if err != nil {
			return nil, err
		}
		return p.parseTypeExpression(t)

	case lexer.TokenIdentifier, lexer.TokenDoubleColon, lexer.TokenOperator:
		if tok.Type == lexer.TokenIdentifier && isBuiltinName(tok.Value) && p.checkAhead(1, lexer.TokenLeftParen) &&
			p.scope.Lookup(tok.Value, true) == nil {
			return p.parseBuiltinCall()
		}
		return p.parseIDExpression()
	}
	return nil, p.expected("expression")
}

func isFloatLiteral(text string) bool {
	lower := strings.ToLower(text)
	if strings.HasPrefix(lower, "0x") {
		return strings.ContainsAny(lower, ".p")
	}
	return strings.ContainsAny(lower, ".e")
}

func isBuiltinName(name string) bool {
	return strings.HasPrefix(name, "__builtin_") || strings.HasPrefix(name, "__is_") ||
		strings.HasPrefix(name, "__has_") || strings.HasPrefix(name, "__underlying_type")
}

// parseBuiltinCall parses a compiler builtin whose arguments may be types
func (p *Parser) parseBuiltinCall() (*ast.Expression, error) {
	tok := p.advance()
	p.advance() // (
	angle := p.angle
	p.angle = 0
	defer func() { p.angle = angle }()

	args := []*ast.Expression{}
	for !p.check(lexer.TokenRightParen) {
		var t ast.Type
		if p.isTypeAhead(0) && p.tentatively(func() error {
			var err error
			if t, err = p.parseTypeID(); err != nil {
				return err
			}
			if !p.check(lexer.TokenComma) && !p.check(lexer.TokenRightParen) {
				return p.expected("',' or ')'")
			}
			return nil
		}) {
			args = append(args, &ast.Expression{Kind: ast.ExprTypeName, Type: t})
		} else {
			a, err := p.parseAssignment()
			if err != nil {
				return nil, err
			}
			args = append(args, a)
		}
		if !p.match(lexer.TokenComma) {
			break
		}
	}
	if _, err := p.expect(lexer.TokenRightParen, "')' after builtin arguments"); err != nil {
		return nil, err
	}
	callee := &ast.Expression{Kind: ast.ExprUnknown, Ident: ast.NewIdentifier(tok.Value)}
	return &ast.Expression{Kind: ast.ExprCall, X: callee, Args: args}, nil
}

// parseTypeExpression continues an expression that starts with a type: a functional
// cast T(args) or T{args}, or the type itself
func (p *Parser) parseTypeExpression(t ast.Type) (*ast.Expression, error) {
	switch {
	case p.check(lexer.TokenLeftParen):
		args, err := p.parseCallArgs()
		if err != nil {
			return nil, err
		}
		return &ast.Expression{Kind: ast.ExprConstruct, Type: t, Args: args}, nil
	case p.check(lexer.TokenLeftBrace):
		list, err := p.parseBracedInitList()
		if err != nil {
			return nil, err
		}
		return &ast.Expression{Kind: ast.ExprConstruct, Type: t, Args: list.Args, Braced: true}, nil
	}
	return &ast.Expression{Kind: ast.ExprTypeName, Type: t}, nil
}

// parseIDExpression resolves a possibly qualified name used as an expression
func (p *Parser) parseIDExpression() (*ast.Expression, error) {
	qn, err := p.parseQualifiedName(nameExpr)
	if err != nil {
		return nil, err
	}
	last := qn.id.Last()
	switch d := qn.decl.(type) {
	case *ast.Concept:
		return p.conceptConstraint(qn, d, 0), nil
	case *ast.Instance:
		return &ast.Expression{Kind: ast.ExprVariable, Decl: d, Ident: qn.id, TemplateArgs: last.Args, HasTemplate: last.HasArgs}, nil
	case *ast.Function, *ast.FunctionGroup:
		return &ast.Expression{Kind: ast.ExprFunction, Decl: d, Ident: qn.id, TemplateArgs: last.Args, HasTemplate: last.HasArgs}, nil
	case ast.Type:
		return p.parseTypeExpression(p.typeFromName(qn))
	}

	if qn.scope != nil && qn.decl == nil && !qn.dependent && !qn.unresolved && qn.id.IsScoped() {
		p.semanticf(qn.tok, "no member named %q in %q", last.Name, qn.id.Qualifier().String())
	}
	return &ast.Expression{Kind: ast.ExprUnknown, Ident: qn.id, TemplateArgs: last.Args, HasTemplate: last.HasArgs}, nil
}

// parseNamedCast parses static_cast<T>(e) and the other keyword casts
func (p *Parser) parseNamedCast() (*ast.Expression, error) {
	kw := p.advance()
	if _, err := p.expect(lexer.TokenLess, "'<' after "+kw.Value); err != nil {
		return nil, err
	}
	angle := p.angle
	p.angle = 1
	t, err := p.parseTypeID()
	p.angle = angle
	if err != nil {
		return nil, err
	}
	if !p.matchCloseAngle() {
		return nil, p.expected("'>' after cast type")
	}
	x, err := p.parseParenExpression(kw.Value)
	if err != nil {
		return nil, err
	}
	return &ast.Expression{Kind: ast.ExprCast, Op: kw.Value, Type: t, X: x}, nil
}

// parseParenOrFold parses ( expression ) and the fold-expressions
//
//	( ... op pack )  ( pack op ... )  ( init op ... op pack )  ( pack op ... op init )
func (p *Parser) parseParenOrFold() (*ast.Expression, error) {
	p.advance() // (
	angle := p.angle
	p.angle = 0
	defer func() { p.angle = angle }()

	if p.match(lexer.TokenEllipsis) {
		op, prec, ok := p.foldOperator()
		if !ok {
			return nil, p.expected("fold operator after '...'")
		}
		x, err := p.parseBinary(prec + 1)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.TokenRightParen, "')' to close fold expression"); err != nil {
			return nil, err
		}
		return &ast.Expression{Kind: ast.ExprFold, Op: op, X: x, FoldLeft: true}, nil
	}

	e, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if p.checkAhead(1, lexer.TokenEllipsis) {
		op, prec, ok := p.foldOperator()
		if ok {
			p.advance() // ...
			fold := &ast.Expression{Kind: ast.ExprFold, Op: op, X: e}
			if !p.check(lexer.TokenRightParen) {
				if _, _, ok := p.foldOperator(); !ok {
					return nil, p.expected("fold operator")
				}
				y, err := p.parseBinary(prec + 1)
				if err != nil {
					return nil, err
				}
				if mentionsPack(e) {
					fold.Y = y
				} else {
					fold.X, fold.Y, fold.FoldLeft = y, e, true
				}
			}
			e = fold
		}
	}
	if _, err := p.expect(lexer.TokenRightParen, "')'"); err != nil {
		return nil, err
	}
	return e, nil
}

// foldOperator consumes a binary operator usable in a fold-expression
func (p *Parser) foldOperator() (string, int, bool) {
	tok := p.peek()
	if tok.Type == lexer.TokenComma {
		p.advance()
		return ",", 0, true
	}
	if assignmentOps[tok.Type] {
		p.advance()
		return lexer.Spelling(tok.Type), 0, true
	}
	prec, ok := binaryPrecedence[tok.Type]
	if !ok {
		return "", 0, false
	}
	p.advance()
	return lexer.Spelling(tok.Type), prec, true
}

// mentionsPack reports whether e refers to a parameter pack
func mentionsPack(e *ast.Expression) bool {
	if e == nil {
		return false
	}
	switch d := e.Decl.(type) {
	case *ast.Instance:
		if d.Pack {
			return true
		}
	case *ast.TemplateParameterType:
		if d.Pack {
			return true
		}
	}
	if tp, ok := e.Type.(*ast.TemplateParameterType); ok && tp.Pack {
		return true
	}
	for _, a := range e.TemplateArgs {
		if tp, ok := a.Type.(*ast.TemplateParameterType); ok && tp.Pack {
			return true
		}
		if mentionsPack(a.Expr) {
			return true
		}
	}
	if mentionsPack(e.X) || mentionsPack(e.Y) || mentionsPack(e.Z) {
		return true
	}
	for _, a := range e.Args {
		if mentionsPack(a) {
			return true
		}
	}
	return false
}

// parseLambda parses [captures] <tparams> (params) specifiers -> ret requires { body }
func (p *Parser) parseLambda() (*ast.Expression, error) {
	captures, err := p.parseCaptures()
	if err != nil {
		return nil, err
	}
	lam := &ast.Lambda{Captures: captures}
	fn := &ast.Function{}

	outer := p.scope
	defer func() { p.scope = outer }()
	if p.check(lexer.TokenLess) {
		tmpl, err := p.parseTemplateHead()
		if err != nil {
			return nil, err
		}
		lam.Template = tmpl
		p.scope = tmpl
		if p.match(lexer.TokenRequires) {
			if tmpl.Requires, err = p.parseConstraintExpr(); err != nil {
				return nil, err
			}
		}
	}

	proto := ast.NewScope("", ast.ScopePrototype, p.scope)
	ft := &ast.FunctionType{Prototype: proto, Return: p.interner().Simple(ast.KindAuto, 0)}
	if p.check(lexer.TokenLeftParen) {
		params, variadic, implicit, err := p.parseParameterClause(proto)
		if err != nil {
			return nil, err
		}
		ft.Params, ft.Variadic, fn.Implicit = params, variadic, implicit
	}

	p.scope = proto
	for {
		tok := p.peek()
		switch {
		case tok.Type == lexer.TokenMutable:
			fn.Storage |= ast.StorageMutable
		case tok.Type == lexer.TokenConstexpr:
			fn.Storage |= ast.StorageConstexpr
		case tok.Type == lexer.TokenConsteval:
			fn.Storage |= ast.StorageConsteval
		case tok.Type == lexer.TokenStatic:
			fn.Storage |= ast.StorageStatic
		case tok.Type == lexer.TokenNoexcept:
			p.advance()
			ft.Flags |= ast.FuncNoexcept
			if p.check(lexer.TokenLeftParen) {
				if ft.Noexcept, err = p.parseParenExpression("noexcept"); err != nil {
					return nil, err
				}
			}
			continue
		case tok.Type == lexer.TokenLeftBracket && p.checkAhead(1, lexer.TokenLeftBracket),
			tok.Type == lexer.TokenIdentifier && isAttributeWord(tok.Value):
			if err := p.skipAttributes(); err != nil {
				return nil, err
			}
			continue
		case tok.Type == lexer.TokenArrow:
			p.advance()
			ret, err := p.parseTypeID()
			if err != nil {
				return nil, err
			}
			ft.Return = ret
			ft.Flags |= ast.FuncTrailingReturn
			continue
		case tok.Type == lexer.TokenRequires:
			p.advance()
			if fn.Requires, err = p.parseConstraintExpr(); err != nil {
				return nil, err
			}
			continue
		default:
			fn.Type = ft
			if !p.check(lexer.TokenLeftBrace) {
				return nil, p.expected("'{' to begin lambda body")
			}
			body, err := p.parseFunctionBody(fn, proto)
			if err != nil {
				return nil, err
			}
			fn.Body, lam.Body, lam.Function = body, body, fn
			return &ast.Expression{Kind: ast.ExprLambda, Lambda: lam}, nil
		}
		p.advance()
	}
}

// parseCaptures parses a lambda-introducer and returns the text of each capture
func (p *Parser) parseCaptures() ([]string, error) {
	p.advance() // [
	captures := []string{}
	start, depth := p.current, 0
	for {
		if p.isAtEnd() {
			return nil, p.expected("']' to close lambda captures")
		}
		switch p.peek().Type {
		case lexer.TokenLeftParen, lexer.TokenLeftBracket, lexer.TokenLeftBrace:
			depth++
		case lexer.TokenRightParen, lexer.TokenRightBrace:
			depth--
		case lexer.TokenRightBracket:
			if depth == 0 {
				if p.current > start {
					captures = append(captures, p.text(start, p.current))
				}
				p.advance()
				return captures, nil
			}
			depth--
		case lexer.TokenComma:
			if depth == 0 {
				captures = append(captures, p.text(start, p.current))
				p.advance()
				start = p.current
				continue
			}
		}
		p.advance()
	}
}
