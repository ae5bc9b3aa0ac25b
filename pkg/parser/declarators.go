package parser

import (
	"fmt"

	"cppparser/pkg/ast"
	"cppparser/pkg/lexer"
)

// declMode says whether a declarator must, may or must not have a name
type declMode int

const (
	declNamed    declMode = iota // variables, functions, members
	declOptional                 // function and template parameters
	declAbstract                 // type-ids
)

// declarator is the result of parsing one declarator around a base type
type declarator struct {
	name  *qualifiedName
	pack  bool
	typ   ast.Type
	tok   lexer.Token
	attrs []string

	// set when the declarator names a function: the scope of its parameters and the
	// template parameters synthesized for auto parameters
	proto    *ast.Scope
	implicit []*ast.TemplateParameterType
}

// typeWrapper applies one piece of declarator syntax to the type it modifies
type typeWrapper func(ast.Type) ast.Type

// parseDeclarator parses a declarator and applies it to base
func (p *Parser) parseDeclarator(base ast.Type, mode declMode) (*declarator, error) {
	d := &declarator{tok: p.peek()}
	wrap, err := p.parseDeclaratorParts(d, mode)
	if err != nil {
		return nil, err
	}
	d.typ = wrap(base)
	if mode == declNamed && d.name == nil && !p.check(lexer.TokenColon) {
		return nil, p.expected("declarator name")
	}
	return d, nil
}

// parseDeclaratorParts parses ptr-operators, the name or a nested declarator, and the
// array and function suffixes. The returned wrapper builds the declared type.
func (p *Parser) parseDeclaratorParts(d *declarator, mode declMode) (typeWrapper, error) {
	p.enter()
	defer p.leave()

	var ptrs []typeWrapper
	for {
		op, ok, err := p.parsePtrOperator()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		ptrs = append(ptrs, op)
	}
	if err := p.skipAttributes(); err != nil {
		return nil, err
	}
	if p.match(lexer.TokenEllipsis) {
		d.pack = true
	}

	var inner typeWrapper
	nameScope := p.scope
	switch {
	case p.check(lexer.TokenLeftParen) && p.isNestedDeclarator(mode):
		p.advance()
		w, err := p.parseDeclaratorParts(d, mode)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.TokenRightParen, "')' to close declarator"); err != nil {
			return nil, err
		}
		inner = w
	case mode != declAbstract && p.startsDeclaratorName():
		d.tok = p.peek()
		qn, err := p.parseQualifiedName(nameDeclarator)
		if err != nil {
			return nil, err
		}
		d.name = qn
		if qn.id.IsScoped() && qn.scope != nil {
			nameScope = p.memberLookupScope(qn.scope)
		}
	}
	topLevel := inner == nil

	var suffixes []typeWrapper
	for {
		switch {
		case p.check(lexer.TokenLeftBracket) && !p.checkAhead(1, lexer.TokenLeftBracket):
			w, err := p.parseArraySuffix()
			if err != nil {
				return nil, err
			}
			suffixes = append(suffixes, w)
			continue
		case p.check(lexer.TokenLeftParen) && (mode == declAbstract || d.name == nil || p.looksLikeParameters()):
			proto := ast.NewScope("", ast.ScopePrototype, nameScope)
			w, implicit, err := p.parseFunctionSuffix(proto)
			if err != nil {
				return nil, err
			}
			if topLevel && d.proto == nil {
				d.proto, d.implicit = proto, implicit
			}
			suffixes = append(suffixes, w)
			continue
		}
		break
	}

	attrs, err := p.parseAttributes()
	if err != nil {
		return nil, err
	}
	d.attrs = append(d.attrs, attrs...)

	return func(t ast.Type) ast.Type {
		for _, w := range ptrs {
			t = w(t)
		}
		for i := len(suffixes) - 1; i >= 0; i-- {
			t = suffixes[i](t)
		}
		if inner != nil {
			t = inner(t)
		}
		return t
	}, nil
}

// memberLookupScope returns a scope for the parameters and initializer of a member
// defined outside its class: names are found in the class first, then around the
// definition
func (p *Parser) memberLookupScope(class *ast.Scope) *ast.Scope {
	s := ast.NewScope("", ast.ScopeBlock, p.scope)
	s.AddUsingDirective(class)
	return s
}

// startsDeclaratorName reports whether the cursor is at a declarator-id
func (p *Parser) startsDeclaratorName() bool {
	tok := p.peek()
	switch tok.Type {
	case lexer.TokenIdentifier:
		return !isAttributeWord(tok.Value) && !ignoredWords[tok.Value]
	case lexer.TokenDoubleColon, lexer.TokenOperator:
		return true
	case lexer.TokenTilde:
		return p.checkAhead(1, lexer.TokenIdentifier)
	}
	return false
}

// parsePtrOperator parses one of *, &, && and Class::* with its cv-qualifiers
func (p *Parser) parsePtrOperator() (typeWrapper, bool, error) {
	in := p.interner()
	switch {
	case p.check(lexer.TokenStar):
		p.advance()
		c, v := p.parseCV()
		return func(t ast.Type) ast.Type { return in.CV(in.Pointer(t), c, v) }, true, nil
	case p.check(lexer.TokenAmpersand), p.check(lexer.TokenDoubleAmp):
		rvalue := p.advance().Type == lexer.TokenDoubleAmp
		p.parseCV()
		return func(t ast.Type) ast.Type { return in.Reference(t, rvalue) }, true, nil
	case p.isMemberPointerAhead(0):
		qn, err := p.parseQualifiedName(nameType)
		if err != nil {
			return nil, false, err
		}
		class := p.typeFromName(qn)
		p.advance() // ::
		p.advance() // *
		c, v := p.parseCV()
		return func(t ast.Type) ast.Type {
			return in.CV(&ast.PointerType{Pointee: t, MemberOf: class}, c, v)
		}, true, nil
	}
	return nil, false, nil
}

// parseCV reads cv-qualifiers after a ptr-operator, skipping restrict and attributes
func (p *Parser) parseCV() (isConst, isVolatile bool) {
	for {
		tok := p.peek()
		switch {
		case tok.Type == lexer.TokenConst || tok.Type == lexer.TokenIdentifier && tok.Value == "__const":
			isConst = true
		case tok.Type == lexer.TokenVolatile:
			isVolatile = true
		case tok.Type == lexer.TokenIdentifier && ignoredWords[tok.Value]:
		case tok.Type == lexer.TokenIdentifier && isAttributeWord(tok.Value):
			if p.skipAttributes() != nil {
				return
			}
			continue
		default:
			return
		}
		p.advance()
	}
}

// isMemberPointerAhead reports whether a nested-name-specifier followed by ::* starts
// offset tokens ahead
func (p *Parser) isMemberPointerAhead(offset int) bool {
	i := offset
	if p.checkAhead(i, lexer.TokenDoubleColon) {
		i++
	}
	for p.checkAhead(i, lexer.TokenIdentifier) {
		i++
		if p.checkAhead(i, lexer.TokenLess) {
			end, ok := p.skipAngleAhead(i)
			if !ok {
				return false
			}
			i = end
		}
		if !p.checkAhead(i, lexer.TokenDoubleColon) {
			return false
		}
		i++
		if p.checkAhead(i, lexer.TokenStar) {
			return true
		}
	}
	return false
}

// skipAngleAhead returns the offset just past the '>' matching the '<' at offset
func (p *Parser) skipAngleAhead(offset int) (int, bool) {
	depth := 0
	for i := offset; ; i++ {
		switch p.peekAhead(i).Type {
		case lexer.TokenLess:
			depth++
		case lexer.TokenGreater:
			depth--
		case lexer.TokenRightShift:
			depth -= 2
		case lexer.TokenSemicolon, lexer.TokenLeftBrace, lexer.TokenRightBrace, lexer.TokenEOF:
			return 0, false
		}
		if depth <= 0 {
			return i + 1, true
		}
	}
}

// isNestedDeclarator reports whether the '(' at the cursor opens a parenthesized
// declarator rather than a parameter list
func (p *Parser) isNestedDeclarator(mode declMode) bool {
	next := p.peekAhead(1)
	switch next.Type {
	case lexer.TokenStar, lexer.TokenAmpersand, lexer.TokenDoubleAmp, lexer.TokenCaret:
		return true
	case lexer.TokenIdentifier:
		if p.isMemberPointerAhead(1) {
			return true
		}
		if mode == declAbstract || isAttributeWord(next.Value) {
			return false
		}
		return !p.isTypeAhead(1)
	case lexer.TokenDoubleColon:
		if p.isMemberPointerAhead(1) {
			return true
		}
		return mode != declAbstract && !p.isTypeAhead(1)
	case lexer.TokenTilde, lexer.TokenOperator:
		return mode != declAbstract
	}
	return false
}

// looksLikeParameters decides whether a '(' after a declarator name opens a parameter
// list or a parenthesized initializer
func (p *Parser) looksLikeParameters() bool {
	next := p.peekAhead(1)
	switch next.Type {
	case lexer.TokenRightParen, lexer.TokenEllipsis:
		return true
	case lexer.TokenLeftBracket:
		return p.checkAhead(2, lexer.TokenLeftBracket)
	case lexer.TokenIdentifier, lexer.TokenDoubleColon:
		if next.Type == lexer.TokenIdentifier && (isAttributeWord(next.Value) || ignoredWords[next.Value]) {
			return true
		}
		if p.isTypeAhead(1) {
			return true
		}
		d, end := p.resolveAhead(1)
		if d != nil {
			return false
		}
		// an unknown name followed by a declarator
		switch p.peekAhead(end).Type {
		case lexer.TokenIdentifier:
			return true
		case lexer.TokenStar, lexer.TokenAmpersand, lexer.TokenDoubleAmp:
			switch p.peekAhead(end + 1).Type {
			case lexer.TokenIdentifier, lexer.TokenComma, lexer.TokenRightParen, lexer.TokenConst:
				return true
			}
		case lexer.TokenLess:
			// a template-id of an unknown template used as a parameter type
			if after, ok := p.skipAngleAhead(end); ok {
				return p.checkAhead(after, lexer.TokenIdentifier) || p.checkAhead(after, lexer.TokenAmpersand) ||
					p.checkAhead(after, lexer.TokenStar) || p.checkAhead(after, lexer.TokenDoubleAmp)
			}
		}
		return false
	}
	return p.isTypeAhead(1)
}

// parseArraySuffix parses [size]
func (p *Parser) parseArraySuffix() (typeWrapper, error) {
	p.advance() // [
	var size *ast.Expression
	if !p.check(lexer.TokenRightBracket) {
		angle := p.angle
		p.angle = 0
		e, err := p.parseExpression()
		p.angle = angle
		if err != nil {
			return nil, err
		}
		size = e
	}
	if _, err := p.expect(lexer.TokenRightBracket, "']' to close array bound"); err != nil {
		return nil, err
	}
	in := p.interner()
	return func(t ast.Type) ast.Type { return in.Array(t, size) }, nil
}

// parseFunctionSuffix parses a parameter list and the qualifiers that follow it
func (p *Parser) parseFunctionSuffix(proto *ast.Scope) (typeWrapper, []*ast.TemplateParameterType, error) {
	ft := &ast.FunctionType{Prototype: proto}
	params, variadic, implicit, err := p.parseParameterClause(proto)
	if err != nil {
		return nil, nil, err
	}
	ft.Params, ft.Variadic = params, variadic

	for {
		tok := p.peek()
		switch {
		case tok.Type == lexer.TokenConst:
			ft.Flags |= ast.FuncConst
		case tok.Type == lexer.TokenVolatile:
			ft.Flags |= ast.FuncVolatile
		case tok.Type == lexer.TokenAmpersand:
			ft.Flags |= ast.FuncLValueRef
		case tok.Type == lexer.TokenDoubleAmp:
			ft.Flags |= ast.FuncRValueRef
		case tok.Type == lexer.TokenNoexcept:
			p.advance()
			ft.Flags |= ast.FuncNoexcept
			if p.match(lexer.TokenLeftParen) {
				e, err := p.parseExpression()
				if err != nil {
					return nil, nil, err
				}
				if _, err := p.expect(lexer.TokenRightParen, "')' after noexcept"); err != nil {
					return nil, nil, err
				}
				ft.Noexcept = e
			}
			continue
		case tok.Type == lexer.TokenThrow:
			p.advance()
			if !p.check(lexer.TokenLeftParen) {
				return nil, nil, p.expected("'(' after throw")
			}
			if err := p.skipBalanced(); err != nil {
				return nil, nil, err
			}
			continue
		case tok.Type == lexer.TokenLeftBracket && p.checkAhead(1, lexer.TokenLeftBracket),
			tok.Type == lexer.TokenIdentifier && isAttributeWord(tok.Value) && tok.Value != "__asm__" && tok.Value != "__asm":
			if err := p.skipAttributes(); err != nil {
				return nil, nil, err
			}
			continue
		case tok.Type == lexer.TokenArrow:
			p.advance()
			scope := p.scope
			p.scope = proto
			ret, err := p.parseTypeID()
			p.scope = scope
			if err != nil {
				return nil, nil, err
			}
			ft.Return = ret
			ft.Flags |= ast.FuncTrailingReturn
			continue
		default:
			return func(t ast.Type) ast.Type {
				f := *ft
				if f.Flags&ast.FuncTrailingReturn == 0 {
					f.Return = t
				}
				return &f
			}, implicit, nil
		}
		p.advance()
	}
}

// parseParameterClause parses ( parameter-declaration-list [...] ) into proto
func (p *Parser) parseParameterClause(proto *ast.Scope) ([]*ast.Instance, bool, []*ast.TemplateParameterType, error) {
	if _, err := p.expect(lexer.TokenLeftParen, "'('"); err != nil {
		return nil, false, nil, err
	}
	if p.check(lexer.TokenVoid) && p.checkAhead(1, lexer.TokenRightParen) {
		p.advance()
		p.advance()
		return nil, false, nil, nil
	}

	scope, angle := p.scope, p.angle
	p.scope, p.angle = proto, 0
	defer func() { p.scope, p.angle = scope, angle }()

	var (
		params   []*ast.Instance
		implicit []*ast.TemplateParameterType
		variadic bool
	)
	for !p.check(lexer.TokenRightParen) {
		if p.match(lexer.TokenEllipsis) {
			variadic = true
			break
		}
		param, tp, err := p.parseParameter(len(implicit))
		if err != nil {
			return nil, false, nil, err
		}
		if param.Pack && param.Name() == "" && !ast.IsDependent(param.Type) {
			// int... is the C form of int, ...
			param.Pack = false
			variadic = true
		}
		if tp != nil {
			implicit = append(implicit, tp)
		}
		params = append(params, param)
		proto.AddParameter(param)
		if p.match(lexer.TokenEllipsis) {
			variadic = true
			break
		}
		if !p.match(lexer.TokenComma) {
			break
		}
	}
	if _, err := p.expect(lexer.TokenRightParen, "')' to close parameter list"); err != nil {
		return nil, false, nil, err
	}
	return params, variadic, implicit, nil
}

// parseParameter parses one parameter declaration. A parameter declared with a
// placeholder type also yields the template parameter it invents.
func (p *Parser) parseParameter(index int) (*ast.Instance, *ast.TemplateParameterType, error) {
	tok := p.peek()
	attrs, err := p.parseAttributes()
	if err != nil {
		return nil, nil, err
	}
	ds, err := p.parseDeclSpecifiers(specParam)
	if err != nil {
		return nil, nil, err
	}
	if !ds.hasType() {
		return nil, nil, p.expected("parameter type")
	}
	d, err := p.parseDeclarator(ds.typ, declOptional)
	if err != nil {
		return nil, nil, err
	}
	param := &ast.Instance{
		DeclBase: ast.DeclBase{Loc: tok.Location(), Attributes: append(attrs, ds.attrs...)},
		Type:     d.typ,
		Storage:  ds.storage,
		Pack:     d.pack,
	}
	if d.name != nil {
		param.Ident = d.name.id
		param.Loc = d.tok.Location()
	}
	if p.match(lexer.TokenEquals) {
		e, err := p.parseInitializerClause()
		if err != nil {
			return nil, nil, err
		}
		param.Initializer, param.InitStyle = e, ast.InitEquals
	}

	var tp *ast.TemplateParameterType
	if ds.placeholder == ast.KindAuto {
		tp = &ast.TemplateParameterType{
			DeclBase:   ast.DeclBase{Ident: ast.NewIdentifier(fmt.Sprintf("auto:%d", index+1)), Loc: param.Loc},
			Pack:       d.pack,
			Constraint: ds.constraint,
			Implicit:   true,
		}
	}
	return param, tp, nil
}
