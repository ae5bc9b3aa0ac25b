package parser

import (
	"cppparser/pkg/ast"
	"cppparser/pkg/lexer"
)

// parseConcept parses concept Name = constraint-expression; after a template head. The
// concept is bound before its initializer is read, so the constraint may name it.
func (p *Parser) parseConcept(tmpl *ast.Scope) error {
	p.advance() // concept
	name, err := p.expect(lexer.TokenIdentifier, "concept name")
	if err != nil {
		return err
	}
	c := &ast.Concept{Instance: ast.Instance{
		DeclBase:  ast.DeclBase{Ident: ast.NewIdentifier(name.Value), Vis: p.visibility(), Loc: name.Location()},
		Type:      p.interner().Simple(ast.KindBool, 0),
		InitStyle: ast.InitEquals,
	}}
	p.attachComment(c)
	p.scope.Add(c)
	if c.Template == nil {
		c.Template = tmpl
	}

	if _, err := p.expect(lexer.TokenEquals, "'=' after concept name"); err != nil {
		return err
	}
	e, err := p.parseConstraintExpr()
	if err != nil {
		return err
	}
	c.Initializer = e
	if _, err := p.expect(lexer.TokenSemicolon, "';' after concept definition"); err != nil {
		return err
	}
	p.trailingComment(c)
	return nil
}

// parseRequiresExpression parses requires [(parameters)] { requirements }
func (p *Parser) parseRequiresExpression() (*ast.Expression, error) {
	p.advance() // requires
	e := &ast.Expression{Kind: ast.ExprRequires}
	rs := ast.NewScope("", ast.ScopeRequires, p.scope)
	if p.check(lexer.TokenLeftParen) {
		if _, _, _, err := p.parseParameterClause(rs); err != nil {
			return nil, err
		}
		e.Params = rs
	}

	scope, angle := p.scope, p.angle
	p.scope, p.angle = rs, 0
	defer func() { p.scope, p.angle = scope, angle }()

	if _, err := p.expect(lexer.TokenLeftBrace, "'{' to begin requirements"); err != nil {
		return nil, err
	}
	for !p.check(lexer.TokenRightBrace) {
		if p.isAtEnd() {
			return nil, p.expected("'}' to close requirements")
		}
		r, err := p.parseRequirement()
		if err != nil {
			return nil, err
		}
		e.Requirements = append(e.Requirements, r)
	}
	p.advance()
	return e, nil
}

// parseRequirement parses one simple, type, compound or nested requirement
func (p *Parser) parseRequirement() (*ast.Requirement, error) {
	var r *ast.Requirement
	switch {
	case p.check(lexer.TokenTypename):
		t, err := p.parseTypenameSpecifier()
		if err != nil {
			return nil, err
		}
		r = &ast.Requirement{Kind: ast.RequirementType, Type: t}

	case p.check(lexer.TokenLeftBrace):
		p.advance()
		x, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.TokenRightBrace, "'}' after compound requirement"); err != nil {
			return nil, err
		}
		r = &ast.Requirement{Kind: ast.RequirementCompound, Expr: x, Noexcept: p.match(lexer.TokenNoexcept)}
		if p.match(lexer.TokenArrow) {
			qn, err := p.parseQualifiedName(nameType)
			if err != nil {
				return nil, err
			}
			c, ok := qn.decl.(*ast.Concept)
			if !ok {
				if !qn.dependent {
					p.semanticf(qn.tok, "%q is not a concept", qn.id.String())
				}
				r.Constraint = &ast.Expression{Kind: ast.ExprUnknown, Ident: qn.id}
			} else {
				r.Constraint = p.conceptConstraint(qn, c, 1)
			}
		}

	case p.check(lexer.TokenRequires):
		p.advance()
		x, err := p.parseConstraintExpr()
		if err != nil {
			return nil, err
		}
		r = &ast.Requirement{Kind: ast.RequirementNested, Expr: x}

	default:
		x, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		r = &ast.Requirement{Kind: ast.RequirementSimple, Expr: x}
	}
	if _, err := p.expect(lexer.TokenSemicolon, "';' after requirement"); err != nil {
		return nil, err
	}
	return r, nil
}
