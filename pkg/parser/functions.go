package parser

import (
	"strings"

	"cppparser/pkg/ast"
	"cppparser/pkg/lexer"
)

// declareFunction binds a function declarator and parses what follows the parameter
// list: virt-specifiers, a trailing requires-clause, = 0/default/delete and the body.
// Bodies of member functions defined inside a class are parsed once the outermost class
// is complete.
func (p *Parser) declareFunction(ds *declSpec, d *declarator, ft *ast.FunctionType, base ast.DeclBase) (ast.Declaration, bool, error) {
	fn := &ast.Function{
		Instance: ast.Instance{DeclBase: base, Type: ft, Storage: ds.storage},
		Kind:     functionKind(ds, d, ft),
		Implicit: d.implicit,
	}
	if len(fn.Implicit) > 0 {
		p.bindImplicitParameters(fn)
	}

	for p.check(lexer.TokenIdentifier) {
		switch p.peek().Value {
		case "override":
			fn.Flags |= ast.FunctionOverride
		case "final":
			fn.Flags |= ast.FunctionFinal
		default:
			if !isAttributeWord(p.peek().Value) {
				return nil, false, p.expected("';' or function body")
			}
			if err := p.skipAttributes(); err != nil {
				return nil, false, err
			}
			continue
		}
		p.advance()
	}

	if p.match(lexer.TokenRequires) {
		scope := p.scope
		if d.proto != nil {
			p.scope = d.proto
		}
		e, err := p.parseConstraintExpr()
		p.scope = scope
		if err != nil {
			return nil, false, err
		}
		fn.Requires = e
	}

	if p.match(lexer.TokenEquals) {
		tok := p.peek()
		switch {
		case tok.Type == lexer.TokenNumber && tok.Value == "0":
			fn.Flags |= ast.FunctionPure
		case tok.Type == lexer.TokenDefault:
			fn.Flags |= ast.FunctionDefaulted
		case tok.Type == lexer.TokenDelete:
			fn.Flags |= ast.FunctionDeleted
		default:
			return nil, false, p.expected("'0', 'default' or 'delete'")
		}
		p.advance()
		if fn.Flags&ast.FunctionDeleted != 0 && p.check(lexer.TokenLeftParen) {
			if err := p.skipBalanced(); err != nil {
				return nil, false, err
			}
		}
	}

	p.attachComment(fn)
	bound := p.addDeclaration(fn, d.name)
	target, ok := bound.(*ast.Function)
	if !ok {
		target = fn
	}
	if target != fn {
		// an out-of-line definition names its parameters; keep that signature
		target.Type = ft
	}

	if !p.startsFunctionBody() {
		return target, false, nil
	}
	if p.classes > 0 {
		p.deferred = append(p.deferred, deferredBody{fn: target, proto: d.proto, at: p.save()})
		return target, true, p.skipFunctionBody()
	}
	body, err := p.parseFunctionBody(target, d.proto)
	if err != nil {
		return nil, false, err
	}
	target.Body = body
	p.trailingComment(target)
	return target, true, nil
}

// functionKind classifies a function by its declarator name and specifiers
func functionKind(ds *declSpec, d *declarator, ft *ast.FunctionType) ast.FunctionKind {
	name := d.name.id.Name()
	switch {
	case strings.HasPrefix(name, "~"):
		return ast.FunctionDestructor
	case d.name.conv != nil:
		return ast.FunctionConversion
	case strings.HasPrefix(name, "operator") && (len(name) == len("operator") || !isIdentChar(name[len("operator")])):
		return ast.FunctionOperator
	case ds.typ == nil && ft.Flags&ast.FuncTrailingReturn != 0:
		return ast.FunctionDeductionGuide
	case ds.typ == nil:
		return ast.FunctionConstructor
	}
	return ast.FunctionNormal
}

func isIdentChar(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

// bindImplicitParameters appends the template parameters invented for placeholder
// parameters to the function's template scope, creating one for a function that was
// not declared as a template
func (p *Parser) bindImplicitParameters(fn *ast.Function) {
	tmpl := p.scope
	if tmpl.Kind != ast.ScopeTemplate {
		tmpl = ast.NewScope("", ast.ScopeTemplate, p.scope)
		fn.Template = tmpl
	}
	for _, tp := range fn.Implicit {
		tp.Index = len(tmpl.Params)
		tmpl.AddParameter(tp)
	}
}

// startsFunctionBody reports whether a function body, a constructor initializer list or
// a function-try-block follows
func (p *Parser) startsFunctionBody() bool {
	switch p.peek().Type {
	case lexer.TokenLeftBrace, lexer.TokenTry:
		return true
	case lexer.TokenColon:
		return !p.checkAhead(1, lexer.TokenColon)
	}
	return false
}

// skipFunctionBody skips a body whose parsing is deferred. Braces after an identifier or
// '>' in a constructor initializer list initialize a member; the first other brace
// opens the body.
func (p *Parser) skipFunctionBody() error {
	isTry := p.match(lexer.TokenTry)
	if p.match(lexer.TokenColon) {
		for !p.check(lexer.TokenLeftBrace) || p.bracesInitializeMember() {
			if p.isAtEnd() {
				return p.expected("function body")
			}
			if p.check(lexer.TokenLeftParen) || p.check(lexer.TokenLeftBrace) {
				if err := p.skipBalanced(); err != nil {
					return err
				}
				continue
			}
			p.advance()
		}
	}
	if !p.check(lexer.TokenLeftBrace) {
		return p.expected("'{' to begin function body")
	}
	if err := p.skipBalanced(); err != nil {
		return err
	}
	for isTry && p.match(lexer.TokenCatch) {
		if !p.check(lexer.TokenLeftParen) {
			return p.expected("'(' after catch")
		}
		if err := p.skipBalanced(); err != nil {
			return err
		}
		if !p.check(lexer.TokenLeftBrace) {
			return p.expected("'{' after catch clause")
		}
		if err := p.skipBalanced(); err != nil {
			return err
		}
	}
	return nil
}

func (p *Parser) bracesInitializeMember() bool {
	switch p.previous().Type {
	case lexer.TokenIdentifier, lexer.TokenGreater, lexer.TokenRightShift:
		return true
	}
	return false
}

// parseDeferredBodies parses the member function bodies skipped while their classes
// were incomplete. Bodies may define local classes, which defer more bodies.
func (p *Parser) parseDeferredBodies() {
	resume := p.save()
	scope, access, comment := p.scope, p.access, p.pendingComment
	for len(p.deferred) > 0 {
		db := p.deferred[0]
		p.deferred = p.deferred[1:]
		p.restore(db.at)
		body, err := p.parseFunctionBody(db.fn, db.proto)
		if err != nil {
			if p.speculate == 0 {
				p.report(err)
			}
			continue
		}
		db.fn.Body = body
	}
	p.restore(resume)
	p.scope, p.access, p.pendingComment = scope, access, comment
}

// parseCtorInitializer parses : member(args), Base{args}, ... of a constructor
func (p *Parser) parseCtorInitializer() error {
	for {
		if _, err := p.parseQualifiedName(nameType); err != nil {
			return err
		}
		switch {
		case p.check(lexer.TokenLeftParen):
			if _, err := p.parseCallArgs(); err != nil {
				return err
			}
		case p.check(lexer.TokenLeftBrace):
			if _, err := p.parseBracedInitList(); err != nil {
				return err
			}
		default:
			return p.expected("'(' or '{' in member initializer")
		}
		p.match(lexer.TokenEllipsis)
		if !p.match(lexer.TokenComma) {
			return nil
		}
	}
}
