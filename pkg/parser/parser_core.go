package parser

import (
	"cppparser/pkg/ast"
	"cppparser/pkg/lexer"
)

// parseDeclarationSeq parses declarations until end is next. Each failed declaration is
// reported, skipped and replaced by an ast.ErrorDecl.
func (p *Parser) parseDeclarationSeq(end lexer.TokenType) {
	for !p.isAtEnd() && !p.check(end) {
		start := p.save()
		scope, access := p.scope, p.access
		if err := p.parseTopLevel(); err != nil {
			p.scope, p.access = scope, access
			p.recoverDeclaration(start, err)
		}
	}
}

// parseTopLevel parses one declaration of a namespace or class body
func (p *Parser) parseTopLevel() error {
	p.takeComment()
	tok := p.peek()

	switch tok.Type {
	case lexer.TokenSemicolon:
		p.advance()
		return nil
	case lexer.TokenNamespace:
		return p.parseNamespace(false)
	case lexer.TokenInline:
		if p.checkAhead(1, lexer.TokenNamespace) {
			p.advance()
			return p.parseNamespace(true)
		}
	case lexer.TokenTemplate:
		return p.parseTemplateDeclaration()
	case lexer.TokenUsing:
		_, err := p.parseUsing()
		return err
	case lexer.TokenStaticAssert:
		_, err := p.parseStaticAssert()
		return err
	case lexer.TokenExtern:
		if p.checkAhead(1, lexer.TokenString) {
			return p.parseLinkageSpecification()
		}
		if p.checkAhead(1, lexer.TokenTemplate) {
			p.advance()
			return p.parseTemplateDeclaration()
		}
	case lexer.TokenExport:
		p.advance()
		return nil
	case lexer.TokenPublic, lexer.TokenProtected, lexer.TokenPrivate, lexer.TokenPublished:
		if p.inClass() {
			return p.parseAccessSpecifier()
		}
	case lexer.TokenAsm:
		return p.skipAsmDeclaration()
	case lexer.TokenIdentifier:
		switch tok.Value {
		case "__begin_publish", "__end_publish":
			p.parsePublishMarker()
			return nil
		case "_Static_assert":
			_, err := p.parseStaticAssert()
			return err
		}
	case lexer.TokenRightBrace:
		return p.errorf(tok, "unexpected '}'")
	}

	_, err := p.parseSimpleDeclaration()
	return err
}

// parseLinkageSpecification parses extern "C" { ... } and extern "C" declaration
func (p *Parser) parseLinkageSpecification() error {
	p.advance() // extern
	p.advance() // "C"
	if !p.match(lexer.TokenLeftBrace) {
		return p.parseTopLevel()
	}
	p.parseDeclarationSeq(lexer.TokenRightBrace)
	_, err := p.expect(lexer.TokenRightBrace, "'}' to close linkage specification")
	return err
}

// skipAsmDeclaration skips asm("...");
func (p *Parser) skipAsmDeclaration() error {
	p.advance()
	for p.check(lexer.TokenVolatile) || p.checkIdent("__volatile__") {
		p.advance()
	}
	if !p.check(lexer.TokenLeftParen) {
		return p.expected("'(' after asm")
	}
	if err := p.skipBalanced(); err != nil {
		return err
	}
	_, err := p.expect(lexer.TokenSemicolon, "';' after asm declaration")
	return err
}

// recoverDeclaration reports err and skips the broken declaration that began at start.
// The skipped text is kept in an ErrorDecl so tools can still show it.
func (p *Parser) recoverDeclaration(start checkpoint, err error) {
	p.report(err)
	msg := err.Error()
	if se, ok := err.(*syntaxError); ok {
		msg = se.msg
	}
	failed := p.current
	p.restore(start)
	first := p.peek()
	p.skipDeclaration(failed)

	p.scope.Add(&ast.ErrorDecl{
		DeclBase: ast.DeclBase{Vis: p.visibility(), Loc: first.Location()},
		Message:  msg,
		Text:     p.text(start.current, p.current),
	})
}

// skipDeclaration advances past the end of the current declaration: a ';' or a
// balanced '}' at nesting level zero. It never stops before the token at index
// failed, and it stops in front of a '}' that closes an enclosing body.
func (p *Parser) skipDeclaration(failed int) {
	begin := p.current
	depth := 0
	for !p.isAtEnd() {
		tok := p.peek()
		switch tok.Type {
		case lexer.TokenLeftParen, lexer.TokenLeftBracket, lexer.TokenLeftBrace:
			depth++
		case lexer.TokenRightParen, lexer.TokenRightBracket:
			if depth > 0 {
				depth--
			}
		case lexer.TokenRightBrace:
			if depth == 0 {
				if p.current == begin {
					p.advance()
				}
				return
			}
			depth--
			if depth == 0 && p.current >= failed {
				p.advance()
				p.match(lexer.TokenSemicolon)
				return
			}
		case lexer.TokenSemicolon:
			if depth == 0 && p.current >= failed {
				p.advance()
				return
			}
		}
		p.advance()
	}
}

// skipBalanced skips from an opening bracket to just past its matching closer
func (p *Parser) skipBalanced() error {
	open := p.advance()
	depth := 1
	for depth > 0 {
		if p.isAtEnd() {
			return p.errorf(open, "unbalanced %q", open.Value)
		}
		switch p.advance().Type {
		case lexer.TokenLeftParen, lexer.TokenLeftBracket, lexer.TokenLeftBrace:
			depth++
		case lexer.TokenRightParen, lexer.TokenRightBracket, lexer.TokenRightBrace:
			depth--
		}
	}
	return nil
}

// inClass reports whether declarations are being parsed in a class body
func (p *Parser) inClass() bool {
	return p.scope.Kind == ast.ScopeClass
}

// currentClass returns the class whose body is being parsed, looking through template
// and prototype scopes
func (p *Parser) currentClass() *ast.StructType {
	for s := p.scope; s != nil; s = s.Parent {
		switch s.Kind {
		case ast.ScopeClass:
			st, _ := s.Owner.(*ast.StructType)
			return st
		case ast.ScopeTemplate, ast.ScopePrototype:
			continue
		}
		return nil
	}
	return nil
}

// declarationScope returns the scope that receives declarations made in the current
// scope, skipping template scopes
func (p *Parser) declarationScope() *ast.Scope {
	s := p.scope
	for s.Kind == ast.ScopeTemplate && s.Parent != nil {
		s = s.Parent
	}
	return s
}

// namespaceScope returns the innermost enclosing namespace or global scope
func (p *Parser) namespaceScope() *ast.Scope {
	s := p.scope
	for s.Kind != ast.ScopeNamespace && s.Kind != ast.ScopeGlobal && s.Parent != nil {
		s = s.Parent
	}
	return s
}
