package parser

import (
	"cppparser/pkg/ast"
	"cppparser/pkg/lexer"
)

// parseNamespace parses a namespace definition, a nested namespace definition
// namespace a::b::c { ... }, or a namespace alias definition
func (p *Parser) parseNamespace(inline bool) error {
	tok := p.advance() // namespace
	if err := p.skipAttributes(); err != nil {
		return err
	}
	if p.check(lexer.TokenIdentifier) && p.checkAhead(1, lexer.TokenEquals) {
		return p.parseNamespaceAlias()
	}

	outer, access := p.scope, p.access
	defer func() { p.scope, p.access = outer, access }()

	var first *ast.Namespace
	if !p.check(lexer.TokenIdentifier) {
		first = p.openAnonymousNamespace(tok, inline)
	}
	for first == nil || p.check(lexer.TokenDoubleColon) {
		if first != nil {
			p.advance() // ::
		}
		nested := p.match(lexer.TokenInline)
		name, err := p.expect(lexer.TokenIdentifier, "namespace name")
		if err != nil {
			return err
		}
		ns := p.openNamespace(name, inline && first == nil || nested)
		if first == nil {
			first = ns
		}
	}
	p.attachComment(first)
	if err := p.skipAttributes(); err != nil {
		return err
	}

	if _, err := p.expect(lexer.TokenLeftBrace, "'{' to begin namespace"); err != nil {
		return err
	}
	p.access = ast.VisibilityPublic
	p.parseDeclarationSeq(lexer.TokenRightBrace)
	_, err := p.expect(lexer.TokenRightBrace, "'}' to close namespace")
	return err
}

// openNamespace reopens the namespace name of the current scope or creates it, and makes
// it the current scope
func (p *Parser) openNamespace(name lexer.Token, inline bool) *ast.Namespace {
	if ns, ok := p.scope.LookupLocal(name.Value).(*ast.Namespace); ok && ns.Alias == nil {
		p.scope = ns.Members
		return ns
	}
	ns := &ast.Namespace{
		DeclBase: ast.DeclBase{Ident: ast.NewIdentifier(name.Value), Loc: name.Location()},
		Inline:   inline,
	}
	ns.Members = ast.NewScope(name.Value, ast.ScopeNamespace, p.scope)
	ns.Members.Owner = ns
	p.scope.Add(ns)
	if inline {
		p.scope.AddUsingDirective(ns.Members)
	}
	p.scope = ns.Members
	return ns
}

// openAnonymousNamespace returns the unnamed namespace of the current scope. Its members
// are visible in the enclosing scope.
func (p *Parser) openAnonymousNamespace(tok lexer.Token, inline bool) *ast.Namespace {
	ns, ok := p.anonymous[p.scope]
	if !ok {
		ns = &ast.Namespace{DeclBase: ast.DeclBase{Loc: tok.Location()}, Inline: inline}
		ns.Members = ast.NewScope("", ast.ScopeNamespace, p.scope)
		ns.Members.Owner = ns
		p.scope.Add(ns)
		p.scope.AddUsingDirective(ns.Members)
		p.anonymous[p.scope] = ns
	}
	p.scope = ns.Members
	return ns
}

// parseNamespaceAlias parses namespace name = qualified-namespace-specifier;
func (p *Parser) parseNamespaceAlias() error {
	name := p.advance()
	p.advance() // =
	qn, err := p.parseQualifiedName(nameType)
	if err != nil {
		return err
	}
	target, ok := qn.decl.(*ast.Namespace)
	if !ok {
		return p.errorf(qn.tok, "%q is not a namespace", qn.id.String())
	}
	if _, err := p.expect(lexer.TokenSemicolon, "';' after namespace alias"); err != nil {
		return err
	}
	alias := &ast.Namespace{
		DeclBase: ast.DeclBase{Ident: ast.NewIdentifier(name.Value), Vis: p.visibility(), Loc: name.Location()},
		Alias:    target,
	}
	p.attachComment(alias)
	p.scope.Add(alias)
	return nil
}
