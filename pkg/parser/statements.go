package parser

import (
	"cppparser/pkg/ast"
	"cppparser/pkg/lexer"
)

// parseFunctionBody parses an optional constructor initializer list and the body of fn.
// The body scope encloses the prototype scope holding the parameters.
func (p *Parser) parseFunctionBody(fn *ast.Function, proto *ast.Scope) (*ast.Statement, error) {
	parent := proto
	if parent == nil {
		parent = p.scope
	}
	fs := ast.NewScope(fn.Name(), ast.ScopeFunction, parent)
	fs.Owner = fn

	scope, angle := p.scope, p.angle
	p.scope, p.angle = fs, 0
	defer func() { p.scope, p.angle = scope, angle }()

	isTry := p.match(lexer.TokenTry)
	if p.match(lexer.TokenColon) {
		if err := p.parseCtorInitializer(); err != nil {
			return nil, err
		}
	}
	body, err := p.parseCompoundStatement(fs)
	if err != nil || !isTry {
		return body, err
	}
	handlers, err := p.parseHandlers()
	if err != nil {
		return nil, err
	}
	return &ast.Statement{Kind: ast.StmtTry, Loc: body.Loc, Body: body, Handlers: handlers, Scope: fs}, nil
}

// parseCompoundStatement parses { statements } in scope. A statement that fails to parse
// is reported and skipped, and parsing continues with the next one.
func (p *Parser) parseCompoundStatement(scope *ast.Scope) (*ast.Statement, error) {
	open, err := p.expect(lexer.TokenLeftBrace, "'{'")
	if err != nil {
		return nil, err
	}
	s := &ast.Statement{Kind: ast.StmtCompound, Loc: open.Location(), Scope: scope, Stmts: []*ast.Statement{}}

	outer := p.scope
	p.scope = scope
	defer func() { p.scope = outer }()

	for !p.check(lexer.TokenRightBrace) {
		if p.isAtEnd() {
			return nil, p.errorf(open, "expected '}' to match this '{'")
		}
		start := p.save()
		st, err := p.parseStatement()
		if err != nil {
			if p.speculate > 0 {
				return nil, err
			}
			p.scope = scope
			p.report(err)
			failed := p.current
			p.restore(start)
			p.skipDeclaration(failed)
			continue
		}
		s.Stmts = append(s.Stmts, st)
	}
	p.advance()
	return s, nil
}

// parseStatement parses one statement
func (p *Parser) parseStatement() (*ast.Statement, error) {
	p.enter()
	defer p.leave()

	tok := p.peek()
	loc := tok.Location()
	switch tok.Type {
	case lexer.TokenLeftBrace:
		return p.parseCompoundStatement(ast.NewScope("", ast.ScopeBlock, p.scope))
	case lexer.TokenSemicolon:
		p.advance()
		return &ast.Statement{Kind: ast.StmtNull, Loc: loc}, nil
	case lexer.TokenIf:
		return p.parseIf()
	case lexer.TokenWhile:
		return p.parseWhile()
	case lexer.TokenDo:
		return p.parseDo()
	case lexer.TokenFor:
		return p.parseFor()
	case lexer.TokenSwitch:
		return p.parseSwitch()
	case lexer.TokenCase:
		return p.parseCase()
	case lexer.TokenDefault:
		p.advance()
		if _, err := p.expect(lexer.TokenColon, "':' after default"); err != nil {
			return nil, err
		}
		return p.labeled(&ast.Statement{Kind: ast.StmtDefault, Loc: loc})
	case lexer.TokenReturn, lexer.TokenCoReturn:
		return p.parseReturn()
	case lexer.TokenBreak, lexer.TokenContinue:
		p.advance()
		kind := ast.StmtBreak
		if tok.Type == lexer.TokenContinue {
			kind = ast.StmtContinue
		}
		if _, err := p.expect(lexer.TokenSemicolon, "';' after "+tok.Value); err != nil {
			return nil, err
		}
		return &ast.Statement{Kind: kind, Loc: loc}, nil
	case lexer.TokenGoto:
		return p.parseGoto()
	case lexer.TokenTry:
		return p.parseTry()
	case lexer.TokenAsm:
		if err := p.skipAsmDeclaration(); err != nil {
			return nil, err
		}
		return &ast.Statement{Kind: ast.StmtNull, Loc: loc}, nil
	case lexer.TokenStaticAssert:
		d, err := p.parseStaticAssert()
		if err != nil {
			return nil, err
		}
		return &ast.Statement{Kind: ast.StmtDecl, Loc: loc, Decls: []ast.Declaration{d}}, nil
	case lexer.TokenUsing:
		d, err := p.parseUsing()
		if err != nil {
			return nil, err
		}
		return &ast.Statement{Kind: ast.StmtDecl, Loc: loc, Decls: declList(d)}, nil
	case lexer.TokenNamespace:
		if err := p.parseNamespace(false); err != nil {
			return nil, err
		}
		return &ast.Statement{Kind: ast.StmtDecl, Loc: loc}, nil
	case lexer.TokenIdentifier:
		if p.checkAhead(1, lexer.TokenColon) {
			p.advance()
			p.advance()
			return p.labeled(&ast.Statement{Kind: ast.StmtLabel, Loc: loc, Label: tok.Value})
		}
	}

	decls, done, ok, err := p.tryDeclaration(lexer.TokenSemicolon)
	if err != nil {
		return nil, err
	}
	if ok {
		if !done {
			if _, err := p.expect(lexer.TokenSemicolon, "';' after declaration"); err != nil {
				return nil, err
			}
		}
		return &ast.Statement{Kind: ast.StmtDecl, Loc: loc, Decls: decls}, nil
	}

	e, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokenSemicolon, "';' after expression"); err != nil {
		return nil, err
	}
	return &ast.Statement{Kind: ast.StmtExpr, Loc: loc, Expr: e}, nil
}

func declList(d ast.Declaration) []ast.Declaration {
	if d == nil {
		return nil
	}
	return []ast.Declaration{d}
}

// labeled attaches the statement following a label. A label may end a block.
func (p *Parser) labeled(s *ast.Statement) (*ast.Statement, error) {
	if p.check(lexer.TokenRightBrace) {
		return s, nil
	}
	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	s.Body = body
	return s, nil
}

// tryDeclaration parses a declaration when one starts at the cursor and is followed by
// one of the follow tokens. The declaration is first parsed tentatively into a scratch
// scope, then parsed again for real so diagnostics are reported once.
func (p *Parser) tryDeclaration(follow ...lexer.TokenType) (decls []ast.Declaration, done, ok bool, err error) {
	if !p.declarationAhead() {
		return nil, false, false, nil
	}
	start := p.save()
	scope := p.scope
	if !p.tentatively(func() error {
		p.scope = ast.NewScope("", ast.ScopeBlock, scope)
		defer func() { p.scope = scope }()
		_, done, err := p.parseDeclaration()
		if err != nil || done {
			return err
		}
		for _, tt := range follow {
			if p.check(tt) {
				return nil
			}
		}
		return p.expected("end of declaration")
	}) {
		return nil, false, false, nil
	}
	p.restore(start)
	decls, done, err = p.parseDeclaration()
	return decls, done, true, err
}

// declarationAhead decides whether a block-scope statement starts with a declaration
func (p *Parser) declarationAhead() bool {
	tok := p.peek()
	switch tok.Type {
	case lexer.TokenStatic, lexer.TokenExtern, lexer.TokenRegister, lexer.TokenThreadLocal,
		lexer.TokenConstexpr, lexer.TokenConstinit, lexer.TokenTypedef, lexer.TokenInline,
		lexer.TokenConst, lexer.TokenVolatile, lexer.TokenAuto, lexer.TokenStruct, lexer.TokenClass,
		lexer.TokenUnion, lexer.TokenEnum, lexer.TokenTypename, lexer.TokenDecltype,
		lexer.TokenVoid, lexer.TokenBool, lexer.TokenChar, lexer.TokenChar8, lexer.TokenChar16,
		lexer.TokenChar32, lexer.TokenWchar, lexer.TokenShort, lexer.TokenInt, lexer.TokenLong,
		lexer.TokenFloat, lexer.TokenDouble, lexer.TokenSigned, lexer.TokenUnsigned, lexer.TokenAlignas:
		return true
	case lexer.TokenLeftBracket:
		return p.checkAhead(1, lexer.TokenLeftBracket)
	case lexer.TokenIdentifier, lexer.TokenDoubleColon:
	default:
		return false
	}
	if tok.Type == lexer.TokenIdentifier && (gnuTypeWords[tok.Value] || ignoredWords[tok.Value] || isAttributeWord(tok.Value)) {
		return true
	}

	d, end := p.resolveAhead(0)
	if p.checkAhead(end, lexer.TokenLess) && isTemplateName(d) {
		next, ok := p.skipAngleAhead(end)
		if !ok {
			return false
		}
		end = next
	}
	next := p.peekAhead(end)
	switch d.(type) {
	case ast.Type:
		switch next.Type {
		case lexer.TokenLeftParen, lexer.TokenLeftBrace, lexer.TokenDot, lexer.TokenArrow, lexer.TokenDoubleColon:
			return false
		}
		return true
	case *ast.Concept:
		return next.Type == lexer.TokenAuto
	case nil:
		switch next.Type {
		case lexer.TokenIdentifier:
			return true
		case lexer.TokenStar, lexer.TokenAmpersand, lexer.TokenDoubleAmp:
			if !p.checkAhead(end+1, lexer.TokenIdentifier) {
				return false
			}
			switch p.peekAhead(end + 2).Type {
			case lexer.TokenEquals, lexer.TokenSemicolon, lexer.TokenComma, lexer.TokenLeftBracket:
				return true
			}
		}
	}
	return false
}

// parseCondition parses the parenthesized head of if, while and switch: an optional
// init-statement followed by an expression or a declaration with initializer
func (p *Parser) parseCondition(s *ast.Statement, allowInit bool) error {
	if _, err := p.expect(lexer.TokenLeftParen, "'('"); err != nil {
		return err
	}
	for {
		decls, _, ok, err := p.tryDeclaration(lexer.TokenSemicolon, lexer.TokenRightParen)
		if err != nil {
			return err
		}
		if ok {
			if allowInit && s.Init == nil && p.match(lexer.TokenSemicolon) {
				s.Init = &ast.Statement{Kind: ast.StmtDecl, Loc: s.Loc, Decls: decls}
				continue
			}
			s.Decls = decls
			break
		}
		if allowInit && s.Init == nil && p.match(lexer.TokenSemicolon) {
			s.Init = &ast.Statement{Kind: ast.StmtNull, Loc: s.Loc}
			continue
		}
		e, err := p.parseExpression()
		if err != nil {
			return err
		}
		if allowInit && s.Init == nil && p.match(lexer.TokenSemicolon) {
			s.Init = &ast.Statement{Kind: ast.StmtExpr, Loc: s.Loc, Expr: e}
			continue
		}
		s.Expr = e
		break
	}
	_, err := p.expect(lexer.TokenRightParen, "')' after condition")
	return err
}

// enterBlock opens the scope of a selection or iteration statement
func (p *Parser) enterBlock(s *ast.Statement) func() {
	outer := p.scope
	s.Scope = ast.NewScope("", ast.ScopeBlock, outer)
	p.scope = s.Scope
	return func() { p.scope = outer }
}

func (p *Parser) parseIf() (*ast.Statement, error) {
	tok := p.advance()
	s := &ast.Statement{Kind: ast.StmtIf, Loc: tok.Location()}
	if p.match(lexer.TokenConstexpr) {
		s.Constexpr = true
	}
	if p.check(lexer.TokenExclamation) && p.checkAhead(1, lexer.TokenConsteval) || p.check(lexer.TokenConsteval) {
		// if consteval { } has no condition
		p.match(lexer.TokenExclamation)
		p.advance()
		s.Expr = &ast.Expression{Kind: ast.ExprUnknown, Ident: ast.NewIdentifier("consteval")}
	} else {
		defer p.enterBlock(s)()
		if err := p.parseCondition(s, true); err != nil {
			return nil, err
		}
	}
	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	s.Body = body
	if p.match(lexer.TokenElse) {
		if s.Else, err = p.parseStatement(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (p *Parser) parseWhile() (*ast.Statement, error) {
	tok := p.advance()
	s := &ast.Statement{Kind: ast.StmtWhile, Loc: tok.Location()}
	defer p.enterBlock(s)()
	if err := p.parseCondition(s, false); err != nil {
		return nil, err
	}
	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	s.Body = body
	return s, nil
}

func (p *Parser) parseDo() (*ast.Statement, error) {
	tok := p.advance()
	s := &ast.Statement{Kind: ast.StmtDo, Loc: tok.Location()}
	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	s.Body = body
	if _, err := p.expect(lexer.TokenWhile, "'while' after do body"); err != nil {
		return nil, err
	}
	if s.Expr, err = p.parseParenExpression("while"); err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokenSemicolon, "';' after do-while"); err != nil {
		return nil, err
	}
	return s, nil
}

// parseFor parses the classic and the range-based for statement
func (p *Parser) parseFor() (*ast.Statement, error) {
	tok := p.advance()
	s := &ast.Statement{Kind: ast.StmtFor, Loc: tok.Location()}
	defer p.enterBlock(s)()
	if _, err := p.expect(lexer.TokenLeftParen, "'(' after for"); err != nil {
		return nil, err
	}

	if !p.match(lexer.TokenSemicolon) {
		decls, _, ok, err := p.tryDeclaration(lexer.TokenSemicolon, lexer.TokenColon)
		if err != nil {
			return nil, err
		}
		switch {
		case ok && p.match(lexer.TokenColon):
			return p.finishRangeFor(s, decls)
		case ok:
			s.Init = &ast.Statement{Kind: ast.StmtDecl, Loc: s.Loc, Decls: decls}
		default:
			e, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			s.Init = &ast.Statement{Kind: ast.StmtExpr, Loc: s.Loc, Expr: e}
		}
		if _, err := p.expect(lexer.TokenSemicolon, "';' in for"); err != nil {
			return nil, err
		}
		// for (init; decl : range)
		decls, _, ok, err = p.tryDeclaration(lexer.TokenColon)
		if err != nil {
			return nil, err
		}
		if ok {
			p.advance()
			return p.finishRangeFor(s, decls)
		}
	}

	if !p.check(lexer.TokenSemicolon) {
		e, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		s.Expr = e
	}
	if _, err := p.expect(lexer.TokenSemicolon, "';' in for"); err != nil {
		return nil, err
	}
	if !p.check(lexer.TokenRightParen) {
		e, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		s.Step = e
	}
	if _, err := p.expect(lexer.TokenRightParen, "')' after for"); err != nil {
		return nil, err
	}
	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	s.Body = body
	return s, nil
}

func (p *Parser) finishRangeFor(s *ast.Statement, decls []ast.Declaration) (*ast.Statement, error) {
	s.Kind, s.Decls = ast.StmtRangeFor, decls
	e, err := p.parseInitializerClause()
	if err != nil {
		return nil, err
	}
	s.Expr = e
	if _, err := p.expect(lexer.TokenRightParen, "')' after range"); err != nil {
		return nil, err
	}
	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	s.Body = body
	return s, nil
}

func (p *Parser) parseSwitch() (*ast.Statement, error) {
	tok := p.advance()
	s := &ast.Statement{Kind: ast.StmtSwitch, Loc: tok.Location()}
	defer p.enterBlock(s)()
	if err := p.parseCondition(s, true); err != nil {
		return nil, err
	}
	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	s.Body = body
	return s, nil
}

// parseCase parses case value: and the GNU range case low ... high:
func (p *Parser) parseCase() (*ast.Statement, error) {
	tok := p.advance()
	s := &ast.Statement{Kind: ast.StmtCase, Loc: tok.Location()}
	e, err := p.parseConditional()
	if err != nil {
		return nil, err
	}
	if p.match(lexer.TokenEllipsis) {
		high, err := p.parseConditional()
		if err != nil {
			return nil, err
		}
		e = &ast.Expression{Kind: ast.ExprBinary, Op: "...", X: e, Y: high}
	}
	s.Expr = e
	if _, err := p.expect(lexer.TokenColon, "':' after case value"); err != nil {
		return nil, err
	}
	return p.labeled(s)
}

// parseReturn parses return and co_return
func (p *Parser) parseReturn() (*ast.Statement, error) {
	tok := p.advance()
	s := &ast.Statement{Kind: ast.StmtReturn, Loc: tok.Location()}
	if !p.check(lexer.TokenSemicolon) {
		e, err := p.parseInitializerClause()
		if err != nil {
			return nil, err
		}
		s.Expr = e
	}
	if _, err := p.expect(lexer.TokenSemicolon, "';' after "+tok.Value); err != nil {
		return nil, err
	}
	return s, nil
}

// parseGoto parses goto label; and the GNU computed goto *expr;
func (p *Parser) parseGoto() (*ast.Statement, error) {
	tok := p.advance()
	s := &ast.Statement{Kind: ast.StmtGoto, Loc: tok.Location()}
	if p.check(lexer.TokenStar) {
		e, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		s.Label = ast.FormatExpr(e, p.scope)
	} else {
		label, err := p.expect(lexer.TokenIdentifier, "label after goto")
		if err != nil {
			return nil, err
		}
		s.Label = label.Value
	}
	if _, err := p.expect(lexer.TokenSemicolon, "';' after goto"); err != nil {
		return nil, err
	}
	return s, nil
}

func (p *Parser) parseTry() (*ast.Statement, error) {
	tok := p.advance()
	body, err := p.parseCompoundStatement(ast.NewScope("", ast.ScopeBlock, p.scope))
	if err != nil {
		return nil, err
	}
	handlers, err := p.parseHandlers()
	if err != nil {
		return nil, err
	}
	return &ast.Statement{Kind: ast.StmtTry, Loc: tok.Location(), Body: body, Handlers: handlers}, nil
}

// parseHandlers parses one or more catch clauses
func (p *Parser) parseHandlers() ([]*ast.Handler, error) {
	var handlers []*ast.Handler
	for p.check(lexer.TokenCatch) || len(handlers) == 0 {
		if _, err := p.expect(lexer.TokenCatch, "'catch' after try block"); err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.TokenLeftParen, "'(' after catch"); err != nil {
			return nil, err
		}
		hs := ast.NewScope("", ast.ScopeBlock, p.scope)
		h := &ast.Handler{}
		if !p.match(lexer.TokenEllipsis) {
			outer := p.scope
			p.scope = hs
			param, _, err := p.parseParameter(0)
			p.scope = outer
			if err != nil {
				return nil, err
			}
			if param.Name() != "" {
				hs.Add(param)
			}
			h.Param = param
		}
		if _, err := p.expect(lexer.TokenRightParen, "')' after exception declaration"); err != nil {
			return nil, err
		}
		body, err := p.parseCompoundStatement(hs)
		if err != nil {
			return nil, err
		}
		h.Body = body
		handlers = append(handlers, h)
	}
	return handlers, nil
}
