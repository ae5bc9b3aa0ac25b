package parser

import (
	"cppparser/pkg/lexer"
	"cppparser/pkg/macro"
)

// tokenCache is a cursor over the preprocessed tokens of a translation unit. Parsing is
// tentative in places, so positions can be saved and restored.
type tokenCache struct {
	tokens   []lexer.Token
	comments map[int]lexer.Token // Doxygen comment preceding the token at an index
	current  int
	// split is set when the first '>' of a '>>' at current closed a template argument list
	split bool
}

// checkpoint is a saved cursor position
type checkpoint struct {
	current int
	split   bool
}

// newTokenCache drops comments and layout tokens, remembering Doxygen comments by the
// index of the token that follows them
func newTokenCache(toks []lexer.Token) *tokenCache {
	tc := &tokenCache{
		tokens:   make([]lexer.Token, 0, len(toks)),
		comments: make(map[int]lexer.Token),
	}
	for _, tok := range toks {
		switch {
		case tok.Type == lexer.TokenDoxygenComment:
			idx := len(tc.tokens)
			if prev, ok := tc.comments[idx]; ok {
				tok.Value = prev.Value + "\n" + tok.Value
				tok.Pos = prev.Pos
			}
			tc.comments[idx] = tok
		case tok.IsComment(), tok.Type == lexer.TokenNewline, tok.Type == lexer.TokenEOF:
		default:
			tc.tokens = append(tc.tokens, tok)
		}
	}
	return tc
}

func (tc *tokenCache) eof() lexer.Token {
	eof := lexer.Token{Type: lexer.TokenEOF}
	if n := len(tc.tokens); n > 0 {
		eof.Pos, eof.File = tc.tokens[n-1].Pos, tc.tokens[n-1].File
	}
	return eof
}

// peek returns the current token without advancing
func (tc *tokenCache) peek() lexer.Token {
	if tc.current >= len(tc.tokens) {
		return tc.eof()
	}
	tok := tc.tokens[tc.current]
	if tc.split {
		tok.Type, tok.Value = lexer.TokenGreater, ">"
	}
	return tok
}

// peekAhead looks ahead by offset tokens
func (tc *tokenCache) peekAhead(offset int) lexer.Token {
	if offset == 0 {
		return tc.peek()
	}
	if i := tc.current + offset; i < len(tc.tokens) {
		return tc.tokens[i]
	}
	return tc.eof()
}

// advance returns the current token and moves to the next
func (tc *tokenCache) advance() lexer.Token {
	tok := tc.peek()
	if tc.current < len(tc.tokens) {
		tc.current++
		tc.split = false
	}
	return tok
}

// previous returns the last consumed token
func (tc *tokenCache) previous() lexer.Token {
	if tc.current <= 0 || tc.current > len(tc.tokens) {
		return tc.eof()
	}
	return tc.tokens[tc.current-1]
}

// isAtEnd checks if all tokens are consumed
func (tc *tokenCache) isAtEnd() bool {
	return tc.current >= len(tc.tokens)
}

// check returns true if the current token is of the given type
func (tc *tokenCache) check(tt lexer.TokenType) bool {
	return tc.peek().Type == tt
}

// checkAhead returns true if the token offset positions ahead is of the given type
func (tc *tokenCache) checkAhead(offset int, tt lexer.TokenType) bool {
	return tc.peekAhead(offset).Type == tt
}

// checkIdent reports whether the current token is the identifier name
func (tc *tokenCache) checkIdent(name string) bool {
	tok := tc.peek()
	return tok.Type == lexer.TokenIdentifier && tok.Value == name
}

// match consumes the current token if it has one of the given types
func (tc *tokenCache) match(types ...lexer.TokenType) bool {
	for _, tt := range types {
		if tc.check(tt) {
			tc.advance()
			return true
		}
	}
	return false
}

// matchCloseAngle consumes a '>' closing a template argument list, splitting '>>'
func (tc *tokenCache) matchCloseAngle() bool {
	switch tc.peek().Type {
	case lexer.TokenGreater:
		tc.advance()
		return true
	case lexer.TokenRightShift:
		tc.split = true
		return true
	}
	return false
}

func (tc *tokenCache) save() checkpoint {
	return checkpoint{current: tc.current, split: tc.split}
}

func (tc *tokenCache) restore(cp checkpoint) {
	tc.current, tc.split = cp.current, cp.split
}

// text renders the tokens between two positions as source text
func (tc *tokenCache) text(from, to int) string {
	if to > len(tc.tokens) {
		to = len(tc.tokens)
	}
	if from >= to {
		return ""
	}
	return macro.Render(tc.tokens[from:to])
}

// commentAt returns the Doxygen comment preceding the token at index i
func (tc *tokenCache) commentAt(i int) (lexer.Token, bool) {
	tok, ok := tc.comments[i]
	return tok, ok
}
