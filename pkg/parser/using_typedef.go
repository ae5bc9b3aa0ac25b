package parser

import (
	"cppparser/pkg/ast"
	"cppparser/pkg/lexer"
)

// parseUsing parses a using-directive, a using-enum-declaration, an alias-declaration
// or a using-declaration
func (p *Parser) parseUsing() (ast.Declaration, error) {
	tok := p.advance() // using
	switch {
	case p.check(lexer.TokenNamespace):
		return p.parseUsingDirective(tok)
	case p.check(lexer.TokenEnum):
		return p.parseUsingEnum(tok)
	case p.check(lexer.TokenIdentifier) && (p.checkAhead(1, lexer.TokenEquals) || p.checkAhead(1, lexer.TokenLeftBracket)):
		return p.parseAliasDeclaration()
	}
	return p.parseUsingDeclaration(tok)
}

// parseUsingDirective parses using namespace name;
func (p *Parser) parseUsingDirective(tok lexer.Token) (ast.Declaration, error) {
	p.advance() // namespace
	qn, err := p.parseQualifiedName(nameType)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokenSemicolon, "';' after using directive"); err != nil {
		return nil, err
	}
	ns, ok := qn.decl.(*ast.Namespace)
	switch {
	case qn.decl == nil:
		p.warnf(qn.tok, "unknown namespace %q", qn.id.String())
		return nil, nil
	case !ok:
		p.semanticf(qn.tok, "%q is not a namespace", qn.id.String())
		return nil, nil
	}
	u := &ast.Using{DeclBase: ast.DeclBase{Vis: p.visibility(), Loc: tok.Location()}, Directive: true, Target: ns}
	p.attachComment(u)
	scope := p.declarationScope()
	scope.Add(u)
	scope.AddUsingDirective(ns.Canonical().Members)
	return u, nil
}

// parseUsingEnum parses using enum E; which makes the enumerators of E visible
func (p *Parser) parseUsingEnum(tok lexer.Token) (ast.Declaration, error) {
	p.advance() // enum
	qn, err := p.parseQualifiedName(nameType)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokenSemicolon, "';' after using enum"); err != nil {
		return nil, err
	}
	e, ok := qn.decl.(*ast.EnumType)
	if !ok {
		p.semanticf(qn.tok, "%q is not an enumeration", qn.id.String())
		return nil, nil
	}
	u := &ast.Using{DeclBase: ast.DeclBase{Vis: p.visibility(), Loc: tok.Location()}, Directive: true, Target: e}
	scope := p.declarationScope()
	scope.Add(u)
	for _, v := range e.Values {
		scope.Import(v.Name(), v)
	}
	return u, nil
}

// parseAliasDeclaration parses using name [attributes] = type-id;
func (p *Parser) parseAliasDeclaration() (ast.Declaration, error) {
	name := p.advance()
	attrs, err := p.parseAttributes()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokenEquals, "'=' in alias declaration"); err != nil {
		return nil, err
	}
	td := &ast.TypedefType{
		DeclBase:    ast.DeclBase{Ident: ast.NewIdentifier(name.Value), Vis: p.visibility(), Loc: name.Location(), Attributes: attrs},
		UsingSyntax: true,
	}
	p.attachComment(td)

	if td.Aliased, err = p.parseTypeID(); err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokenSemicolon, "';' after alias declaration"); err != nil {
		return nil, err
	}
	p.trailingComment(td)
	return p.scope.Add(td), nil
}

// parseUsingDeclaration parses using [typename] qualified-name [...], ...; The target
// is imported into the current scope under its last name component.
func (p *Parser) parseUsingDeclaration(tok lexer.Token) (ast.Declaration, error) {
	var first ast.Declaration
	for {
		p.match(lexer.TokenTypename)
		qn, err := p.parseQualifiedName(nameExpr)
		if err != nil {
			return nil, err
		}
		if !qn.id.IsScoped() {
			return nil, p.errorf(qn.tok, "using-declaration requires a qualified name")
		}
		p.match(lexer.TokenEllipsis)
		if qn.decl == nil && !qn.dependent && !qn.unresolved && qn.scope != nil {
			p.semanticf(qn.tok, "no member named %q in %q", qn.id.Name(), qn.id.Qualifier().String())
		}
		last := *qn.id.Last()
		u := &ast.Using{
			DeclBase: ast.DeclBase{Ident: &ast.Identifier{Names: []ast.NameComponent{last}}, Vis: p.visibility(), Loc: qn.tok.Location()},
			Target:   qn.decl,
		}
		if first == nil {
			p.attachComment(u)
			first = u
		}
		p.declarationScope().Add(u)
		if !p.match(lexer.TokenComma) {
			break
		}
	}
	if _, err := p.expect(lexer.TokenSemicolon, "';' after using declaration"); err != nil {
		return nil, err
	}
	p.trailingComment(first)
	return first, nil
}
