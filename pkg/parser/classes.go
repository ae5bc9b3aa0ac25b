package parser

import (
	"cppparser/pkg/ast"
	"cppparser/pkg/lexer"
)

// parseClassSpecifier parses a class-specifier or an elaborated type specifier
// introduced by class, struct or union. It reports whether a class was defined.
func (p *Parser) parseClassSpecifier(ds *declSpec) (ast.Type, bool, error) {
	keyword := p.advance()
	kind := ast.KindStruct
	switch keyword.Type {
	case lexer.TokenClass:
		kind = ast.KindClass
	case lexer.TokenUnion:
		kind = ast.KindUnion
	}
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
	final := false
	if p.check(lexer.TokenIdentifier) && (p.peek().Value == "final" || p.peek().Value == "__final") &&
		(p.checkAhead(1, lexer.TokenLeftBrace) || p.checkAhead(1, lexer.TokenColon)) {
		p.advance()
		final = true
	}
	more, err := p.parseAttributes()
	if err != nil {
		return nil, false, err
	}
	attrs = append(attrs, more...)

	defining := p.check(lexer.TokenLeftBrace) || p.check(lexer.TokenColon) && !p.checkAhead(1, lexer.TokenColon) && qn != nil
	if !defining {
		if qn == nil {
			return nil, false, p.expected(keyword.Value + " name")
		}
		t, err := p.elaboratedClass(ds, qn, kind, keyword)
		return t, false, err
	}

	st, scope, err := p.declareClass(qn, kind, keyword)
	if err != nil {
		return nil, false, err
	}
	st.Final = final
	st.Attributes = append(st.Attributes, attrs...)
	p.attachComment(st)

	if p.match(lexer.TokenColon) {
		if err := p.parseBaseClause(st); err != nil {
			return nil, false, err
		}
	}
	if err := p.parseClassBody(st, scope); err != nil {
		return nil, false, err
	}
	if p.classes == 0 && len(p.deferred) > 0 {
		p.parseDeferredBodies()
	}
	return st, true, nil
}

// elaboratedClass resolves struct S that does not define S. A name that is not found
// declares an incomplete class: in the current scope for a forward declaration, in the
// enclosing namespace for a friend, and in the nearest non-class scope otherwise.
func (p *Parser) elaboratedClass(ds *declSpec, qn *qualifiedName, kind ast.StructKind, keyword lexer.Token) (ast.Type, error) {
	forward := p.check(lexer.TokenSemicolon) && ds.storage&ast.StorageFriend == 0
	if st, ok := qn.decl.(*ast.StructType); ok {
		last := qn.id.Last()
		switch {
		case last.HasArgs && forward:
			// explicit specialization declared but not defined
		case !forward || st.Scope == p.declarationScope():
			if last.HasArgs {
				return p.typeFromName(qn), nil
			}
			return st, nil
		}
	} else if t, ok := qn.decl.(ast.Type); ok && !forward {
		return t, nil
	}
	if qn.dependent || qn.id.IsScoped() {
		return p.typeFromName(qn), nil
	}

	st := &ast.StructType{
		DeclBase:   ast.DeclBase{Ident: ast.NewIdentifier(qn.id.Name()), Vis: p.visibility(), Loc: qn.tok.Location()},
		Kind:       kind,
		Incomplete: true,
	}
	if last := qn.id.Last(); last.HasArgs {
		p.specialize(st, qn)
	}
	switch {
	case forward:
		p.attachComment(st)
		return p.scope.Add(st).(ast.Type), nil
	case ds.storage&ast.StorageFriend != 0:
		p.namespaceScope().Add(st)
		return st, nil
	}
	s := p.scope
	for s.Parent != nil && (s.Kind == ast.ScopeClass || s.Kind == ast.ScopeTemplate || s.Kind == ast.ScopePrototype) {
		s = s.Parent
	}
	s.Add(st)
	return st, nil
}

// declareClass creates or completes the class being defined and binds it before its
// body is read, so members can name it
func (p *Parser) declareClass(qn *qualifiedName, kind ast.StructKind, keyword lexer.Token) (*ast.StructType, *ast.Scope, error) {
	target := p.scope
	parent := p.scope
	name := ""
	loc := keyword.Location()
	if qn != nil {
		name, loc = qn.id.Name(), qn.tok.Location()
		if qn.id.IsScoped() && qn.scope != nil {
			target = qn.scope
			parent = p.memberLookupScope(qn.scope)
		}
	}

	var st *ast.StructType
	if prior, ok := qn.declared().(*ast.StructType); ok && prior.Incomplete && qn.id.Last().HasArgs == (prior.Specialization != nil) &&
		prior.Scope == declarationScopeOf(target) {
		st = prior
		st.Incomplete = false
		st.Kind, st.Loc = kind, loc
		if p.scope.Kind == ast.ScopeTemplate {
			// the definition's parameter names are the ones its members use
			st.Template = p.scope
		}
	} else {
		st = &ast.StructType{DeclBase: ast.DeclBase{Vis: p.visibility(), Loc: loc}, Kind: kind}
		if name != "" {
			st.Ident = ast.NewIdentifier(name)
		}
		if qn != nil && qn.id.Last().HasArgs {
			if !p.specialize(st, qn) {
				return nil, nil, p.errorf(qn.tok, "%q is not a class template", name)
			}
		}
	}
	st.Members = ast.NewScope(name, ast.ScopeClass, parent)
	st.Members.Owner = st

	if st.Scope == nil {
		switch {
		case name == "":
			// bound once the declaration it appears in is complete
		case target != p.scope:
			if p.scope.Kind == ast.ScopeTemplate && st.Template == nil {
				st.Template = p.scope
			}
			target.Add(st)
		default:
			p.scope.Add(st)
		}
	}
	return st, st.Members, nil
}

// declared returns the declaration a class name resolved to, or nil
func (qn *qualifiedName) declared() ast.Declaration {
	if qn == nil {
		return nil
	}
	return qn.decl
}

func declarationScopeOf(s *ast.Scope) *ast.Scope {
	for s.Kind == ast.ScopeTemplate && s.Parent != nil {
		s = s.Parent
	}
	return s
}

// specialize records st as a specialization of the class template qn names
func (p *Parser) specialize(st *ast.StructType, qn *qualifiedName) bool {
	primary, ok := qn.decl.(*ast.StructType)
	if !ok {
		return false
	}
	for primary.Primary != nil {
		primary = primary.Primary
	}
	st.Specialization = qn.id.Last().Args
	st.Primary = primary
	primary.Specializations = append(primary.Specializations, st)
	return true
}

// parseBaseClause parses the base-specifier-list after ':'
func (p *Parser) parseBaseClause(st *ast.StructType) error {
	for {
		base := ast.BaseSpecifier{Access: defaultAccess(st.Kind)}
		if err := p.skipAttributes(); err != nil {
			return err
		}
	specifiers:
		for {
			switch p.peek().Type {
			case lexer.TokenVirtual:
				base.Virtual = true
			case lexer.TokenPublic:
				base.Access = ast.VisibilityPublic
			case lexer.TokenProtected:
				base.Access = ast.VisibilityProtected
			case lexer.TokenPrivate:
				base.Access = ast.VisibilityPrivate
			default:
				break specifiers
			}
			p.advance()
		}
		if p.check(lexer.TokenDecltype) {
			t, err := p.parseDecltype()
			if err != nil {
				return err
			}
			base.Type = t
		} else {
			qn, err := p.parseQualifiedName(nameType)
			if err != nil {
				return err
			}
			if qn.decl == nil && !qn.dependent {
				p.warnf(qn.tok, "unknown base class %q", qn.id.String())
			}
			base.Type = p.typeFromName(qn)
		}
		base.Pack = p.match(lexer.TokenEllipsis)
		st.Bases = append(st.Bases, base)
		if !p.match(lexer.TokenComma) {
			return nil
		}
	}
}

// parseClassBody parses { member-specification } into scope
func (p *Parser) parseClassBody(st *ast.StructType, scope *ast.Scope) error {
	if _, err := p.expect(lexer.TokenLeftBrace, "'{' to begin class body"); err != nil {
		return err
	}
	outer, access, published := p.scope, p.access, p.published
	p.scope, p.access, p.published = scope, defaultAccess(st.Kind), false
	p.classes++
	defer func() {
		p.scope, p.access, p.published = outer, access, published
		p.classes--
	}()

	p.parseDeclarationSeq(lexer.TokenRightBrace)
	_, err := p.expect(lexer.TokenRightBrace, "'}' to close class body")
	return err
}
