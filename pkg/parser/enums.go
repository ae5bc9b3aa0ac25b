package parser

import (
	"cppparser/pkg/ast"
	"cppparser/pkg/lexer"
)

// parseEnumSpecifier parses an enum-specifier, an opaque enum declaration or an
// elaborated enum type specifier. It reports whether the enumeration was defined.
func (p *Parser) parseEnumSpecifier(ds *declSpec) (ast.Type, bool, error) {
	keyword := p.advance() // enum
	scoped := p.match(lexer.TokenClass, lexer.TokenStruct)
	attrs, err := p.parseAttributes()
	if err != nil {
		return nil, false, err
	}

	var qn *qualifiedName
	if p.check(lexer.TokenIdentifier) && !isAttributeWord(p.peek().Value) || p.check(lexer.TokenDoubleColon) {
		if qn, err = p.parseQualifiedName(nameType); err != nil {
			return nil, false, err
		}
	}
	var underlying ast.Type
	if p.check(lexer.TokenColon) && p.isTypeAhead(1) {
		p.advance()
		if underlying, err = p.parseTypeSpecifiers(); err != nil {
			return nil, false, err
		}
	}

	if !p.check(lexer.TokenLeftBrace) {
		if qn == nil {
			return nil, false, p.expected("enum name")
		}
		opaque := p.check(lexer.TokenSemicolon) && (scoped || underlying != nil)
		if e, ok := qn.decl.(*ast.EnumType); ok && (!opaque || e.Scope == p.declarationScope()) {
			return e, false, nil
		}
		if t, ok := qn.decl.(ast.Type); ok && !opaque {
			return t, false, nil
		}
		if qn.dependent || qn.id.IsScoped() {
			return p.typeFromName(qn), false, nil
		}
		e := p.newEnum(qn.id.Name(), qn.tok, scoped, underlying)
		e.Incomplete = true
		if !opaque {
			p.warnf(qn.tok, "use of undeclared enum %q", qn.id.Name())
		}
		p.attachComment(e)
		return p.scope.Add(e).(ast.Type), false, nil
	}

	var e *ast.EnumType
	if prior, ok := qn.declared().(*ast.EnumType); ok && prior.Incomplete && prior.Scope == p.declarationScope() {
		e = prior
		e.Incomplete = false
		if underlying != nil {
			e.Underlying = underlying
		}
	} else {
		name, tok := "", keyword
		if qn != nil {
			name, tok = qn.id.Name(), qn.tok
		}
		e = p.newEnum(name, tok, scoped, underlying)
		if name != "" {
			p.scope.Add(e)
		}
	}
	e.Attributes = append(e.Attributes, attrs...)
	p.attachComment(e)
	if err := p.parseEnumerators(e); err != nil {
		return nil, false, err
	}
	return e, true, nil
}

func (p *Parser) newEnum(name string, tok lexer.Token, scoped bool, underlying ast.Type) *ast.EnumType {
	e := &ast.EnumType{
		DeclBase:   ast.DeclBase{Vis: p.visibility(), Loc: tok.Location()},
		Scoped:     scoped,
		Underlying: underlying,
	}
	if name != "" {
		e.Ident = ast.NewIdentifier(name)
	}
	e.Members = ast.NewScope(name, ast.ScopeEnum, p.scope)
	e.Members.Owner = e
	return e
}

// parseEnumerators parses { name [= value], ... }. Enumerators of an unscoped
// enumeration are also visible in the enclosing scope.
func (p *Parser) parseEnumerators(e *ast.EnumType) error {
	p.advance() // {
	outer, angle := p.scope, p.angle
	p.scope, p.angle = e.Members, 0
	defer func() { p.scope, p.angle = outer, angle }()
	enclosing := declarationScopeOf(outer)

	for !p.check(lexer.TokenRightBrace) {
		p.takeComment()
		tok, err := p.expect(lexer.TokenIdentifier, "enumerator name")
		if err != nil {
			return err
		}
		attrs, err := p.parseAttributes()
		if err != nil {
			return err
		}
		v := &ast.Instance{
			DeclBase: ast.DeclBase{Ident: ast.NewIdentifier(tok.Value), Vis: ast.VisibilityPublic, Loc: tok.Location(), Attributes: attrs},
			Type:     e,
		}
		p.attachComment(v)
		if p.match(lexer.TokenEquals) {
			x, err := p.parseConditional()
			if err != nil {
				return err
			}
			v.Initializer, v.InitStyle = x, ast.InitEquals
		}
		e.Values = append(e.Values, v)
		e.Members.Add(v)
		if !e.Scoped {
			enclosing.Import(tok.Value, v)
		}
		if !p.match(lexer.TokenComma) {
			p.trailingComment(v)
			break
		}
		p.trailingComment(v)
	}
	_, err := p.expect(lexer.TokenRightBrace, "'}' to close enumeration")
	return err
}
