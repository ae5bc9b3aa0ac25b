package parser

import (
	"cppparser/pkg/ast"
	"cppparser/pkg/lexer"
)

// nameMode selects which kinds of unqualified-id parseQualifiedName accepts
type nameMode int

const (
	nameExpr       nameMode = iota // id-expression; operator names allowed
	nameType                       // type name; classes hidden by values are still found
	nameDeclarator                 // declarator-id; destructor and operator names allowed
)

// qualifiedName is a possibly qualified name as written, with the declaration it
// resolved to
type qualifiedName struct {
	id         *ast.Identifier
	decl       ast.Declaration
	scope      *ast.Scope // scope the last component was looked up in, nil when unqualified
	dependent  bool       // a qualifier depends on a template parameter
	unresolved bool       // a qualifier could not be found
	conv       ast.Type   // target type of a conversion function name
	tok        lexer.Token
}

// parseQualifiedName reads [::] name {:: name}, resolving each component as it goes.
// Template arguments are read after names that resolve to templates or that follow the
// template disambiguator.
func (p *Parser) parseQualifiedName(mode nameMode) (*qualifiedName, error) {
	qn := &qualifiedName{id: &ast.Identifier{}, tok: p.peek()}
	var in *ast.Scope
	if p.match(lexer.TokenDoubleColon) {
		qn.id.Global = true
		in = p.tree.Global
		qn.scope = in
	}

	for {
		var comp ast.NameComponent
		if p.match(lexer.TokenTemplate) {
			comp.Template = true
		}
		tok := p.peek()
		switch {
		case tok.Type == lexer.TokenIdentifier:
			p.advance()
			comp.Name = tok.Value
		case mode == nameDeclarator && tok.Type == lexer.TokenTilde && p.checkAhead(1, lexer.TokenIdentifier):
			p.advance()
			comp.Name = "~" + p.advance().Value
		case mode != nameType && tok.Type == lexer.TokenOperator:
			name, conv, err := p.parseOperatorName()
			if err != nil {
				return nil, err
			}
			comp.Name, qn.conv = name, conv
		default:
			return nil, p.expected("identifier")
		}

		var d ast.Declaration
		if !qn.dependent && !qn.unresolved {
			if in == nil {
				d = p.lookup(comp.Name, mode == nameType || p.check(lexer.TokenDoubleColon))
			} else {
				d = in.LookupMember(comp.Name)
			}
		}
		if p.check(lexer.TokenLess) && (comp.Template || isTemplateName(d)) {
			args, err := p.parseTemplateArgs()
			if err != nil {
				return nil, err
			}
			comp.Args, comp.HasArgs = args, true
		}
		qn.id.Names = append(qn.id.Names, comp)
		qn.decl = d

		if !p.check(lexer.TokenDoubleColon) || !p.continuesName(mode) {
			return qn, nil
		}
		p.advance()
		switch {
		case qn.dependent || qn.unresolved:
		case d == nil:
			qn.unresolved = true
		default:
			in = ast.ScopeOf(d)
			if in == nil {
				qn.dependent = true
			}
		}
		qn.scope = in
	}
}

// continuesName reports whether the '::' at the cursor is followed by another name
// component rather than '*' of a pointer to member
func (p *Parser) continuesName(mode nameMode) bool {
	switch p.peekAhead(1).Type {
	case lexer.TokenIdentifier, lexer.TokenTemplate:
		return true
	case lexer.TokenOperator:
		return mode != nameType
	case lexer.TokenTilde:
		return mode == nameDeclarator
	}
	return false
}

// lookup finds name from the current scope. When a type is wanted, a class hidden by a
// function or variable of the same name is still found.
func (p *Parser) lookup(name string, wantType bool) ast.Declaration {
	d := p.scope.Lookup(name, true)
	if wantType {
		if _, ok := d.(ast.Type); !ok && ast.ScopeOf(d) == nil {
			if t := p.scope.LookupType(name); t != nil {
				return t
			}
		}
	}
	return d
}

// isTemplateName reports whether a '<' after a name referring to d opens template
// arguments
func isTemplateName(d ast.Declaration) bool {
	switch v := d.(type) {
	case nil:
		return false
	case *ast.FunctionGroup:
		for _, fn := range v.Functions {
			if fn.Template != nil && len(fn.Implicit) < len(fn.Template.Params) {
				return true
			}
		}
		return false
	case *ast.TemplateParameterType:
		return v.Params != nil
	}
	return d.Base().Template != nil
}

// typeFromName turns a resolved name into a type. Names that did not resolve to a type
// become TBD types.
func (p *Parser) typeFromName(qn *qualifiedName) ast.Type {
	last := qn.id.Last()
	if t, ok := qn.decl.(ast.Type); ok && !qn.dependent {
		if last.HasArgs {
			return &ast.TemplateIDType{DeclBase: ast.DeclBase{Ident: qn.id}, Template: t, Args: last.Args}
		}
		return t
	}
	return &ast.TBDType{DeclBase: ast.DeclBase{Ident: qn.id}}
}

// resolveAhead resolves the name starting offset tokens ahead without consuming it and
// returns the declaration with the offset just past the name. A qualifier written with
// template arguments is not followed.
func (p *Parser) resolveAhead(offset int) (ast.Declaration, int) {
	i := offset
	var in *ast.Scope
	if p.checkAhead(i, lexer.TokenDoubleColon) {
		in = p.tree.Global
		i++
	}
	for {
		tok := p.peekAhead(i)
		if tok.Type != lexer.TokenIdentifier {
			return nil, i
		}
		i++
		qualifies := p.checkAhead(i, lexer.TokenDoubleColon) && p.checkAhead(i+1, lexer.TokenIdentifier)
		var d ast.Declaration
		if in == nil {
			d = p.lookup(tok.Value, true)
		} else {
			d = in.LookupMember(tok.Value)
		}
		if !qualifies {
			return d, i
		}
		if in = ast.ScopeOf(d); in == nil {
			return d, i
		}
		i++
	}
}

// isTypeAhead reports whether the tokens offset positions ahead start a type-id
func (p *Parser) isTypeAhead(offset int) bool {
	tok := p.peekAhead(offset)
	switch tok.Type {
	case lexer.TokenVoid, lexer.TokenBool, lexer.TokenChar, lexer.TokenChar8, lexer.TokenChar16,
		lexer.TokenChar32, lexer.TokenWchar, lexer.TokenShort, lexer.TokenInt, lexer.TokenLong,
		lexer.TokenFloat, lexer.TokenDouble, lexer.TokenSigned, lexer.TokenUnsigned,
		lexer.TokenConst, lexer.TokenVolatile, lexer.TokenStruct, lexer.TokenClass,
		lexer.TokenUnion, lexer.TokenEnum, lexer.TokenTypename, lexer.TokenDecltype, lexer.TokenAuto:
		return true
	case lexer.TokenIdentifier, lexer.TokenDoubleColon:
		if tok.Type == lexer.TokenIdentifier && gnuTypeWords[tok.Value] {
			return true
		}
		d, end := p.resolveAhead(offset)
		switch d.(type) {
		case ast.Type:
			return true
		case *ast.Concept:
			// "SmallType auto" in a parameter or return type
			return p.checkAhead(end, lexer.TokenAuto) || p.checkAhead(end, lexer.TokenLess)
		}
	}
	return false
}

// addDeclaration binds d in the current scope. A qualified declarator name declares
// into the scope it names, completing an earlier declaration when there is one.
func (p *Parser) addDeclaration(d ast.Declaration, name *qualifiedName) ast.Declaration {
	if name == nil || !name.id.IsScoped() || name.scope == nil {
		return p.scope.Add(d)
	}
	if p.scope.Kind == ast.ScopeTemplate && d.Base().Template == nil {
		d.Base().Template = p.scope
	}
	if prior := mergeDeclaration(name.decl, d); prior != nil {
		return prior
	}
	return name.scope.Add(d)
}

// mergeDeclaration merges an out-of-line definition into the earlier declaration it
// defines and returns that declaration, or nil when there is none
func mergeDeclaration(prior, d ast.Declaration) ast.Declaration {
	switch v := d.(type) {
	case *ast.Function:
		group, ok := prior.(*ast.FunctionGroup)
		if !ok {
			return nil
		}
		ft := v.FuncType()
		for _, fn := range group.Functions {
			if pt := fn.FuncType(); fn.Body == nil && pt != nil && ft != nil &&
				len(pt.Params) == len(ft.Params) && pt.Flags&ast.FuncConst == ft.Flags&ast.FuncConst {
				return fn
			}
		}
	case *ast.Instance:
		inst, ok := prior.(*ast.Instance)
		if !ok {
			return nil
		}
		if v.Initializer != nil {
			inst.Initializer, inst.InitStyle = v.Initializer, v.InitStyle
		}
		return inst
	}
	return nil
}
