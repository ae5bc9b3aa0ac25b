package parser

import (
	"cppparser/pkg/ast"
	"cppparser/pkg/docstring"
)

// takeComment makes the Doxygen comment in front of the current token the pending one
func (p *Parser) takeComment() {
	p.pendingComment = nil
	if tok, ok := p.commentAt(p.current); ok && docstring.IsDoxygen(tok.Value) && !isTrailing(tok.Value) {
		p.pendingComment = docstring.Parse(tok.Value, tok.Location())
	}
}

// attachComment hands the pending comment to d. Only the first declaration of a
// declaration statement receives it.
func (p *Parser) attachComment(d ast.Declaration) {
	if p.pendingComment == nil || d == nil || p.speculate > 0 {
		return
	}
	if d.Base().Comment == nil {
		d.Base().Comment = p.pendingComment
	}
	p.pendingComment = nil
}

// trailingComment attaches a ///< comment that follows a member on the same line
func (p *Parser) trailingComment(d ast.Declaration) {
	tok, ok := p.commentAt(p.current)
	if !ok || d == nil || d.Base().Comment != nil {
		return
	}
	if isTrailing(tok.Value) {
		d.Base().Comment = docstring.Parse(tok.Value, tok.Location())
	}
}

func isTrailing(comment string) bool {
	return len(comment) > 3 && comment[3] == '<'
}
