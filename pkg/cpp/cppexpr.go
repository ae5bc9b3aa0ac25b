package cpp

import (
	"fmt"

	"cppparser/pkg/ast"
	"cppparser/pkg/lexer"
)

// condExpr evaluates the fully expanded tokens of an #if line
type condExpr struct {
	toks []lexer.Token
	pos  int
}

// evalCondition computes the value of a controlling expression. Identifiers left after
// macro expansion must already be replaced by 0.
func evalCondition(toks []lexer.Token) (int64, error) {
	if len(toks) == 0 {
		return 0, fmt.Errorf("#if with no expression")
	}
	e := &condExpr{toks: toks}
	v, err := e.comma()
	if err != nil {
		return 0, err
	}
	if e.pos < len(e.toks) {
		return 0, fmt.Errorf("unexpected %q in preprocessor expression", e.toks[e.pos].Value)
	}
	return v, nil
}

func (e *condExpr) peek() (lexer.Token, bool) {
	if e.pos >= len(e.toks) {
		return lexer.Token{}, false
	}
	return e.toks[e.pos], true
}

func (e *condExpr) expect(tt lexer.TokenType) error {
	tok, ok := e.peek()
	if !ok {
		return fmt.Errorf("expected %q at end of preprocessor expression", lexer.Spelling(tt))
	}
	if tok.Type != tt {
		return fmt.Errorf("expected %q in preprocessor expression, found %q", lexer.Spelling(tt), tok.Value)
	}
	e.pos++
	return nil
}

func (e *condExpr) comma() (int64, error) {
	v, err := e.ternary()
	for err == nil {
		tok, ok := e.peek()
		if !ok || tok.Type != lexer.TokenComma {
			break
		}
		e.pos++
		v, err = e.ternary()
	}
	return v, err
}

func (e *condExpr) ternary() (int64, error) {
	cond, err := e.binary(1)
	if err != nil {
		return 0, err
	}
	tok, ok := e.peek()
	if !ok || tok.Type != lexer.TokenQuestion {
		return cond, nil
	}
	e.pos++
	a, err := e.comma()
	if err != nil {
		return 0, err
	}
	if err := e.expect(lexer.TokenColon); err != nil {
		return 0, err
	}
	b, err := e.ternary()
	if err != nil {
		return 0, err
	}
	if cond != 0 {
		return a, nil
	}
	return b, nil
}

// precedence of the binary operators, higher binds tighter
func precedence(tt lexer.TokenType) int {
	switch tt {
	case lexer.TokenStar, lexer.TokenSlash, lexer.TokenPercent:
		return 10
	case lexer.TokenPlus, lexer.TokenMinus:
		return 9
	case lexer.TokenLeftShift, lexer.TokenRightShift:
		return 8
	case lexer.TokenLess, lexer.TokenGreater, lexer.TokenLessEqual, lexer.TokenGreaterEqual:
		return 7
	case lexer.TokenDoubleEquals, lexer.TokenNotEquals:
		return 6
	case lexer.TokenAmpersand:
		return 5
	case lexer.TokenCaret:
		return 4
	case lexer.TokenPipe:
		return 3
	case lexer.TokenDoubleAmp:
		return 2
	case lexer.TokenDoublePipe:
		return 1
	}
	return 0
}

func (e *condExpr) binary(minPrec int) (int64, error) {
	lhs, err := e.unary()
	if err != nil {
		return 0, err
	}
	for {
		tok, ok := e.peek()
		if !ok {
			return lhs, nil
		}
		prec := precedence(tok.Type)
		if prec == 0 || prec < minPrec {
			return lhs, nil
		}
		e.pos++
		rhs, err := e.binary(prec + 1)
		if err != nil {
			return 0, err
		}
		lhs, err = apply(tok, lhs, rhs)
		if err != nil {
			return 0, err
		}
	}
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func apply(op lexer.Token, l, r int64) (int64, error) {
	switch op.Type {
	case lexer.TokenStar:
		return l * r, nil
	case lexer.TokenSlash, lexer.TokenPercent:
		if r == 0 {
			return 0, fmt.Errorf("division by zero in preprocessor expression")
		}
		if op.Type == lexer.TokenSlash {
			return l / r, nil
		}
		return l % r, nil
	case lexer.TokenPlus:
		return l + r, nil
	case lexer.TokenMinus:
		return l - r, nil
	case lexer.TokenLeftShift:
		return l << uint64(r&63), nil
	case lexer.TokenRightShift:
		return l >> uint64(r&63), nil
	case lexer.TokenLess:
		return boolInt(l < r), nil
	case lexer.TokenGreater:
		return boolInt(l > r), nil
	case lexer.TokenLessEqual:
		return boolInt(l <= r), nil
	case lexer.TokenGreaterEqual:
		return boolInt(l >= r), nil
	case lexer.TokenDoubleEquals:
		return boolInt(l == r), nil
	case lexer.TokenNotEquals:
		return boolInt(l != r), nil
	case lexer.TokenAmpersand:
		return l & r, nil
	case lexer.TokenCaret:
		return l ^ r, nil
	case lexer.TokenPipe:
		return l | r, nil
	case lexer.TokenDoubleAmp:
		return boolInt(l != 0 && r != 0), nil
	case lexer.TokenDoublePipe:
		return boolInt(l != 0 || r != 0), nil
	}
	return 0, fmt.Errorf("unsupported operator %q in preprocessor expression", op.Value)
}

func (e *condExpr) unary() (int64, error) {
	tok, ok := e.peek()
	if !ok {
		return 0, fmt.Errorf("unexpected end of preprocessor expression")
	}
	e.pos++
	switch tok.Type {
	case lexer.TokenExclamation, lexer.TokenTilde, lexer.TokenMinus, lexer.TokenPlus:
		v, err := e.unary()
		if err != nil {
			return 0, err
		}
		switch tok.Type {
		case lexer.TokenExclamation:
			return boolInt(v == 0), nil
		case lexer.TokenTilde:
			return ^v, nil
		case lexer.TokenMinus:
			return -v, nil
		}
		return v, nil
	case lexer.TokenLeftParen:
		v, err := e.comma()
		if err != nil {
			return 0, err
		}
		return v, e.expect(lexer.TokenRightParen)
	case lexer.TokenNumber:
		v, ok := ast.ParseInteger(tok.Value)
		if !ok {
			return 0, fmt.Errorf("invalid integer constant %q in preprocessor expression", tok.Value)
		}
		return v, nil
	case lexer.TokenCharLiteral:
		v, ok := ast.ParseChar(tok.Value)
		if !ok {
			return 0, fmt.Errorf("invalid character constant %s in preprocessor expression", tok.Value)
		}
		return v, nil
	case lexer.TokenTrue:
		return 1, nil
	case lexer.TokenFalse:
		return 0, nil
	}
	return 0, fmt.Errorf("unexpected %q in preprocessor expression", tok.Value)
}
