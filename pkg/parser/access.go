package parser

import (
	"cppparser/pkg/ast"
	"cppparser/pkg/lexer"
)

// parseAccessSpecifier handles public:, protected:, private: and __published:
func (p *Parser) parseAccessSpecifier() error {
	tok := p.advance()
	if _, err := p.expect(lexer.TokenColon, "':' after access specifier"); err != nil {
		return err
	}
	switch tok.Type {
	case lexer.TokenPublic:
		p.access = ast.VisibilityPublic
	case lexer.TokenProtected:
		p.access = ast.VisibilityProtected
	case lexer.TokenPrivate:
		p.access = ast.VisibilityPrivate
	case lexer.TokenPublished:
		p.access = ast.VisibilityPublished
	}
	return nil
}

// parsePublishMarker handles the __begin_publish and __end_publish brackets
func (p *Parser) parsePublishMarker() {
	tok := p.advance()
	p.published = tok.Value == "__begin_publish"
}

// visibility returns the visibility of a declaration made at the current position
func (p *Parser) visibility() ast.Visibility {
	if p.published && p.access == ast.VisibilityPublic {
		return ast.VisibilityPublished
	}
	return p.access
}

// defaultAccess returns the access of members before the first access specifier
func defaultAccess(kind ast.StructKind) ast.Visibility {
	if kind == ast.KindClass {
		return ast.VisibilityPrivate
	}
	return ast.VisibilityPublic
}
