package parser

import (
	"cppparser/pkg/ast"
	"cppparser/pkg/lexer"
)

// parseTemplateDeclaration handles template<...> declarations, explicit
// specializations and explicit instantiations
func (p *Parser) parseTemplateDeclaration() error {
	p.advance() // template
	if !p.check(lexer.TokenLess) {
		return p.parseExplicitInstantiation()
	}

	tmpl, err := p.parseTemplateHead()
	if err != nil {
		return err
	}
	outer := p.scope
	p.scope = tmpl
	defer func() { p.scope = outer }()

	if p.match(lexer.TokenRequires) {
		e, err := p.parseConstraintExpr()
		if err != nil {
			return err
		}
		tmpl.Requires = e
	}

	switch p.peek().Type {
	case lexer.TokenTemplate:
		return p.parseTemplateDeclaration()
	case lexer.TokenConcept:
		return p.parseConcept(tmpl)
	case lexer.TokenUsing:
		_, err := p.parseUsing()
		return err
	case lexer.TokenExport:
		p.advance()
	}
	_, err = p.parseSimpleDeclaration()
	return err
}

// parseExplicitInstantiation parses template class X<int>; and similar. The
// instantiated declaration does not introduce a new name, so it is built in a scratch
// scope and dropped.
func (p *Parser) parseExplicitInstantiation() error {
	outer := p.scope
	p.scope = ast.NewScope("", ast.ScopeBlock, outer)
	defer func() { p.scope = outer }()
	if p.tentatively(func() error {
		_, err := p.parseSimpleDeclaration()
		return err
	}) {
		return nil
	}
	p.skipDeclaration(p.current)
	return nil
}

// parseTemplateHead parses <template-parameter-list> into a new template scope
func (p *Parser) parseTemplateHead() (*ast.Scope, error) {
	if _, err := p.expect(lexer.TokenLess, "'<' after template"); err != nil {
		return nil, err
	}
	tmpl := ast.NewScope("", ast.ScopeTemplate, p.scope)

	scope, angle := p.scope, p.angle
	p.scope, p.angle = tmpl, 1
	defer func() { p.scope, p.angle = scope, angle }()

	if p.matchCloseAngle() {
		return tmpl, nil
	}
	for {
		param, err := p.parseTemplateParameter(len(tmpl.Params))
		if err != nil {
			return nil, err
		}
		tmpl.AddParameter(param)
		if p.match(lexer.TokenComma) {
			continue
		}
		if p.matchCloseAngle() {
			return tmpl, nil
		}
		return nil, p.expected("',' or '>' in template parameter list")
	}
}

// parseTemplateParameter parses a type, template template, constrained or non-type
// template parameter
func (p *Parser) parseTemplateParameter(index int) (ast.Declaration, error) {
	tok := p.peek()
	switch {
	case tok.Type == lexer.TokenTemplate:
		p.advance()
		params, err := p.parseTemplateHead()
		if err != nil {
			return nil, err
		}
		if !p.match(lexer.TokenClass, lexer.TokenTypename) {
			return nil, p.expected("'class' or 'typename' in template template parameter")
		}
		tp := &ast.TemplateParameterType{Index: index, Params: params}
		if err := p.parseTypeParameterRest(tp); err != nil {
			return nil, err
		}
		return tp, nil

	case (tok.Type == lexer.TokenClass || tok.Type == lexer.TokenTypename) && p.isTypeParameter():
		p.advance()
		tp := &ast.TemplateParameterType{Index: index}
		if err := p.parseTypeParameterRest(tp); err != nil {
			return nil, err
		}
		return tp, nil

	case tok.Type == lexer.TokenIdentifier || tok.Type == lexer.TokenDoubleColon:
		cp := p.save()
		p.speculate++
		qn, err := p.parseQualifiedName(nameType)
		p.speculate--
		if err == nil {
			if c, ok := qn.decl.(*ast.Concept); ok && !p.check(lexer.TokenAuto) && !p.check(lexer.TokenDecltype) {
				tp := &ast.TemplateParameterType{Index: index, Constraint: p.conceptConstraint(qn, c, 1)}
				if err := p.parseTypeParameterRest(tp); err != nil {
					return nil, err
				}
				return tp, nil
			}
		}
		p.restore(cp)
	}

	// non-type parameter
	ds, err := p.parseDeclSpecifiers(specParam)
	if err != nil {
		return nil, err
	}
	if !ds.hasType() {
		return nil, p.expected("template parameter")
	}
	d, err := p.parseDeclarator(ds.typ, declOptional)
	if err != nil {
		return nil, err
	}
	inst := &ast.Instance{DeclBase: ast.DeclBase{Loc: tok.Location()}, Type: d.typ, Pack: d.pack}
	if d.name != nil {
		inst.Ident = d.name.id
	}
	if p.match(lexer.TokenEquals) {
		e, err := p.parseAssignment()
		if err != nil {
			return nil, err
		}
		inst.Initializer, inst.InitStyle = e, ast.InitEquals
	}
	return inst, nil
}

// isTypeParameter tells class/typename introducing a type parameter from an elaborated
// type or typename-specifier of a non-type parameter
func (p *Parser) isTypeParameter() bool {
	switch p.peekAhead(1).Type {
	case lexer.TokenEllipsis, lexer.TokenComma, lexer.TokenGreater, lexer.TokenRightShift, lexer.TokenEquals:
		return true
	case lexer.TokenIdentifier:
		switch p.peekAhead(2).Type {
		case lexer.TokenComma, lexer.TokenGreater, lexer.TokenRightShift, lexer.TokenEquals:
			return true
		}
	}
	return false
}

// parseTypeParameterRest parses [...] [name] [= default] of a type parameter
func (p *Parser) parseTypeParameterRest(tp *ast.TemplateParameterType) error {
	tp.Loc = p.peek().Location()
	if p.match(lexer.TokenEllipsis) {
		tp.Pack = true
	}
	if p.check(lexer.TokenIdentifier) {
		tok := p.advance()
		tp.Ident, tp.Loc = ast.NewIdentifier(tok.Value), tok.Location()
	}
	if !p.match(lexer.TokenEquals) {
		return nil
	}
	if tp.Params != nil {
		qn, err := p.parseQualifiedName(nameType)
		if err != nil {
			return err
		}
		tp.Default = p.typeFromName(qn)
		return nil
	}
	t, err := p.parseTypeID()
	if err != nil {
		return err
	}
	tp.Default = t
	return nil
}

// parseTemplateArgs parses <template-argument-list>. A '>>' closing two lists is split.
func (p *Parser) parseTemplateArgs() ([]*ast.TemplateArg, error) {
	if _, err := p.expect(lexer.TokenLess, "'<'"); err != nil {
		return nil, err
	}
	angle := p.angle
	p.angle = 1
	defer func() { p.angle = angle }()

	args := []*ast.TemplateArg{}
	if p.matchCloseAngle() {
		return args, nil
	}
	for {
		arg, err := p.parseTemplateArg()
		if err != nil {
			return nil, err
		}
		if p.match(lexer.TokenEllipsis) {
			arg.Pack = true
		}
		args = append(args, arg)
		if p.match(lexer.TokenComma) {
			continue
		}
		if p.matchCloseAngle() {
			return args, nil
		}
		return nil, p.expected("',' or '>' in template argument list")
	}
}

// parseTemplateArg parses one template argument, preferring a type-id
func (p *Parser) parseTemplateArg() (*ast.TemplateArg, error) {
	if p.isTypeAhead(0) {
		var t ast.Type
		if p.tentatively(func() error {
			var err error
			if t, err = p.parseTypeID(); err != nil {
				return err
			}
			switch p.peek().Type {
			case lexer.TokenComma, lexer.TokenGreater, lexer.TokenRightShift, lexer.TokenEllipsis:
				return nil
			}
			return p.expected("',' or '>'")
		}) {
			return &ast.TemplateArg{Type: t}, nil
		}
	}
	e, err := p.parseConditional()
	if err != nil {
		return nil, err
	}
	if e.Kind == ast.ExprTypeName && e.Type != nil {
		return &ast.TemplateArg{Type: e.Type}, nil
	}
	return &ast.TemplateArg{Expr: e}, nil
}

// conceptConstraint builds the concept-id expression of a type-constraint. implicit is
// the number of leading arguments supplied by the constrained type itself.
func (p *Parser) conceptConstraint(qn *qualifiedName, c *ast.Concept, implicit int) *ast.Expression {
	last := qn.id.Last()
	p.checkConceptArgs(c, last.Args, implicit, qn.tok)
	return &ast.Expression{
		Kind:         ast.ExprVariable,
		Decl:         c,
		Ident:        qn.id,
		TemplateArgs: last.Args,
		HasTemplate:  last.HasArgs,
	}
}

// checkConceptArgs reports a concept-id whose arguments do not match the concept's
// template parameters. Pack expansions are not checked.
func (p *Parser) checkConceptArgs(c *ast.Concept, args []*ast.TemplateArg, implicit int, tok lexer.Token) {
	if c.Template == nil {
		return
	}
	for _, a := range args {
		if a.Pack {
			return
		}
	}
	full := make([]*ast.TemplateArg, 0, implicit+len(args))
	for i := 0; i < implicit; i++ {
		full = append(full, &ast.TemplateArg{Type: p.interner().Simple(ast.KindAuto, 0)})
	}
	full = append(full, args...)
	if _, err := ast.BindTemplateArgs(c.Template, full); err != nil {
		p.semanticf(tok, "concept %s: %v", c.Name(), err)
	}
}
