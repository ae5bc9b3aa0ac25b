package parser

import (
	"strings"

	"cppparser/pkg/ast"
	"cppparser/pkg/lexer"
)

// parseSimpleDeclaration parses decl-specifiers followed by a comma separated list of
// init-declarators and the closing ';'.
func (p *Parser) parseSimpleDeclaration() ([]ast.Declaration, error) {
	decls, done, err := p.parseDeclaration()
	if err != nil || done {
		return decls, err
	}
	if _, err := p.expect(lexer.TokenSemicolon, "';' after declaration"); err != nil {
		return nil, err
	}
	if len(decls) > 0 {
		p.trailingComment(decls[len(decls)-1])
	}
	return decls, nil
}

// parseDeclaration parses a simple declaration up to its terminator. done is set when
// the declaration needs no terminator: it already consumed its ';', or it ended with a
// function body.
func (p *Parser) parseDeclaration() (decls []ast.Declaration, done bool, err error) {
	start := p.peek()
	attrs, err := p.parseAttributes()
	if err != nil {
		return nil, false, err
	}
	ds, err := p.parseDeclSpecifiers(specDecl)
	if err != nil {
		return nil, false, err
	}
	ds.attrs = append(attrs, ds.attrs...)

	switch {
	case p.check(lexer.TokenSemicolon):
		decls, err := p.finishTypeOnlyDeclaration(ds, start)
		return decls, true, err
	case p.check(lexer.TokenLeftBracket) && ds.placeholder == ast.KindAuto:
		decls, err := p.parseStructuredBinding(ds)
		return decls, false, err
	case p.check(lexer.TokenAmpersand) || p.check(lexer.TokenDoubleAmp):
		if ds.placeholder == ast.KindAuto && p.checkAhead(1, lexer.TokenLeftBracket) {
			decls, err := p.parseStructuredBinding(ds)
			return decls, false, err
		}
	}
	if !ds.hasType() && ds.storage == 0 && !p.startsDeclaratorName() && !p.check(lexer.TokenLeftParen) &&
		!p.check(lexer.TokenStar) && !p.check(lexer.TokenAmpersand) {
		return nil, false, p.expected("declaration")
	}

	for {
		d, err := p.parseDeclarator(ds.typ, declNamed)
		if err != nil {
			return nil, false, err
		}
		decl, hasBody, err := p.declare(ds, d)
		if err != nil {
			return nil, false, err
		}
		decls = append(decls, decl)
		if hasBody {
			return decls, true, nil
		}
		if !p.match(lexer.TokenComma) {
			return decls, false, nil
		}
	}
}

// parseStructuredBinding parses auto [a, b] = init. Each name is declared with the
// placeholder type of the specifiers.
func (p *Parser) parseStructuredBinding(ds *declSpec) ([]ast.Declaration, error) {
	t := ds.typ
	switch {
	case p.match(lexer.TokenAmpersand):
		t = p.interner().Reference(t, false)
	case p.match(lexer.TokenDoubleAmp):
		t = p.interner().Reference(t, true)
	}
	p.advance() // [
	var names []lexer.Token
	for {
		tok, err := p.expect(lexer.TokenIdentifier, "name in structured binding")
		if err != nil {
			return nil, err
		}
		names = append(names, tok)
		if !p.match(lexer.TokenComma) {
			break
		}
	}
	if _, err := p.expect(lexer.TokenRightBracket, "']' after structured binding"); err != nil {
		return nil, err
	}
	binding := &ast.Instance{Type: t, Storage: ds.storage}
	if err := p.parseInitializer(binding); err != nil {
		return nil, err
	}
	if binding.Initializer == nil && !p.check(lexer.TokenColon) {
		return nil, p.expected("initializer for structured binding")
	}
	decls := make([]ast.Declaration, 0, len(names))
	for i, tok := range names {
		inst := &ast.Instance{
			DeclBase: ast.DeclBase{Ident: ast.NewIdentifier(tok.Value), Vis: p.visibility(), Loc: tok.Location()},
			Type:     t,
			Storage:  ds.storage,
		}
		if i == 0 {
			inst.Initializer, inst.InitStyle = binding.Initializer, binding.InitStyle
		}
		decls = append(decls, p.scope.Add(inst))
	}
	return decls, nil
}

// finishTypeOnlyDeclaration completes a declaration without declarators, such as
// struct S { ... }; or an anonymous union member
func (p *Parser) finishTypeOnlyDeclaration(ds *declSpec, start lexer.Token) ([]ast.Declaration, error) {
	p.advance() // ;
	if ds.typ == nil && ds.defined == nil {
		if ds.storage != 0 {
			p.warnf(start, "declaration does not declare anything")
		}
		return nil, nil
	}
	t := ds.defined
	if t == nil {
		t = ds.typ
	}
	if ds.defined != nil && ds.defined.Base().Name() == "" && ds.defined.Base().Scope == nil {
		p.scope.Add(ds.defined)
		if st, ok := ds.defined.(*ast.StructType); ok {
			// anonymous struct or union: its members are found in the enclosing scope
			p.declarationScope().AddUsingDirective(st.Members)
		}
	}
	p.trailingComment(t)
	return []ast.Declaration{t}, nil
}

// declare builds the declaration for one declarator and binds it. It reports whether a
// function body was parsed.
func (p *Parser) declare(ds *declSpec, d *declarator) (ast.Declaration, bool, error) {
	base := ast.DeclBase{
		Vis:        p.visibility(),
		Loc:        d.tok.Location(),
		Attributes: append(append([]string(nil), ds.attrs...), d.attrs...),
	}
	if d.name != nil {
		last := *d.name.id.Last()
		base.Ident = &ast.Identifier{Names: []ast.NameComponent{last}}
	}

	if ds.storage.Has(ast.StorageTypedef) {
		return p.declareTypedef(ds, d, base)
	}
	if ft, ok := d.typ.(*ast.FunctionType); ok && d.name != nil {
		return p.declareFunction(ds, d, ft, base)
	}
	if ds.typ == nil {
		return nil, false, p.errorf(d.tok, "missing type specifier for %q", d.name.id.String())
	}

	if ds.defined != nil && ds.defined.Base().Name() == "" && ds.defined.Base().Scope == nil {
		p.scope.Add(ds.defined)
	}
	inst := &ast.Instance{DeclBase: base, Type: d.typ, Storage: ds.storage, Pack: d.pack}
	p.attachComment(inst)

	if p.check(lexer.TokenColon) && p.inClass() {
		p.advance()
		w, err := p.parseConditional()
		if err != nil {
			return nil, false, err
		}
		inst.BitWidth = w
	}

	scope := p.scope
	if d.name != nil && d.name.id.IsScoped() && d.name.scope != nil {
		p.scope = p.memberLookupScope(d.name.scope)
	}
	err := p.parseInitializer(inst)
	p.scope = scope
	if err != nil {
		return nil, false, err
	}
	return p.addDeclaration(inst, d.name), false, nil
}

// parseInitializer parses = value, (args) or {args} after a declarator
func (p *Parser) parseInitializer(inst *ast.Instance) error {
	switch {
	case p.check(lexer.TokenEquals):
		p.advance()
		e, err := p.parseInitializerClause()
		if err != nil {
			return err
		}
		inst.Initializer, inst.InitStyle = e, ast.InitEquals
	case p.check(lexer.TokenLeftParen):
		args, err := p.parseCallArgs()
		if err != nil {
			return err
		}
		inst.Initializer = &ast.Expression{Kind: ast.ExprInitList, Args: args}
		inst.InitStyle = ast.InitParen
	case p.check(lexer.TokenLeftBrace):
		list, err := p.parseBracedInitList()
		if err != nil {
			return err
		}
		inst.Initializer, inst.InitStyle = list, ast.InitBrace
	}
	return nil
}

// declareTypedef binds a typedef name. An unnamed class or enum takes the typedef name.
func (p *Parser) declareTypedef(ds *declSpec, d *declarator, base ast.DeclBase) (ast.Declaration, bool, error) {
	if d.name == nil {
		return nil, false, p.errorf(d.tok, "typedef requires a name")
	}
	if ds.defined != nil && ds.defined.Base().Name() == "" {
		ds.defined.Base().Ident = ast.NewIdentifier(d.name.id.Name())
		if m := ast.OwnedScope(ds.defined); m != nil {
			m.Name = d.name.id.Name()
		}
		p.scope.Add(ds.defined)
	}
	td := &ast.TypedefType{DeclBase: base, Aliased: d.typ}
	p.attachComment(td)
	return p.addDeclaration(td, d.name), false, nil
}

// parseStaticAssert parses static_assert(condition[, message]);
func (p *Parser) parseStaticAssert() (ast.Declaration, error) {
	tok := p.advance()
	if _, err := p.expect(lexer.TokenLeftParen, "'(' after "+tok.Value); err != nil {
		return nil, err
	}
	angle := p.angle
	p.angle = 0
	defer func() { p.angle = angle }()

	cond, err := p.parseAssignment()
	if err != nil {
		return nil, err
	}
	sa := &ast.StaticAssert{DeclBase: ast.DeclBase{Vis: p.visibility(), Loc: tok.Location()}, Cond: cond}
	if p.match(lexer.TokenComma) {
		var parts []string
		for p.check(lexer.TokenString) {
			parts = append(parts, p.advance().Value)
		}
		if len(parts) == 0 {
			return nil, p.expected("string literal message")
		}
		sa.Message = strings.Join(parts, " ")
	}
	if _, err := p.expect(lexer.TokenRightParen, "')' after static_assert"); err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokenSemicolon, "';' after static_assert"); err != nil {
		return nil, err
	}
	if v, ok := cond.EvaluateBool(); ok && !v && !cond.IsDependent() {
		p.semanticf(tok, "static assertion failed: %s", ast.FormatExpr(cond, p.scope))
	}
	p.attachComment(sa)
	return p.scope.Add(sa), nil
}
