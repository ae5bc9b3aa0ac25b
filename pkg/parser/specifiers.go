package parser

import (
	"cppparser/pkg/ast"
	"cppparser/pkg/lexer"
)

// specContext says where a decl-specifier-seq appears
type specContext int

const (
	specDecl  specContext = iota // declaration or member declaration
	specParam                    // function parameter
	specType                     // type-id: template arguments, casts, sizeof, trailing returns
)

// declSpec collects the decl-specifier-seq of a declaration
type declSpec struct {
	storage    ast.StorageClass
	typ        ast.Type
	defined    ast.Type // class or enum defined by the specifiers
	attrs      []string
	isConst    bool
	isVolatile bool
	start      lexer.Token

	// fundamental type words
	kind  ast.SimpleKind
	flags ast.SimpleFlags
	longs int
	words bool

	placeholder ast.SimpleKind // KindAuto or KindDecltypeAuto
	constraint  *ast.Expression
}

// hasType reports whether a type specifier has been seen
func (ds *declSpec) hasType() bool {
	return ds.typ != nil || ds.words || ds.placeholder != ast.KindUnknown
}

// gnuTypeWords are identifiers that act as fundamental type specifiers
var gnuTypeWords = map[string]bool{
	"_Bool": true, "__int128": true, "__int64": true, "__int32": true, "__int16": true, "__int8": true,
	"_Complex": true, "__complex__": true, "_Float128": true, "__float128": true, "__signed__": true,
}

// ignoredWords are GNU and Microsoft keywords that do not change the declaration model
var ignoredWords = map[string]bool{
	"__extension__": true, "__restrict": true, "__restrict__": true, "restrict": true,
	"_Noreturn": true, "__cdecl": true, "__stdcall": true, "__fastcall": true, "__thiscall": true,
	"__vectorcall": true, "__w64": true, "__ptr64": true, "__ptr32": true, "_Nonnull": true,
	"_Nullable": true, "_Null_unspecified": true, "__unaligned": true, "__noreturn__": true,
}

// parseDeclSpecifiers reads a decl-specifier-seq. It stops at the first token that
// cannot continue it, usually the start of the declarator.
func (p *Parser) parseDeclSpecifiers(ctx specContext) (*declSpec, error) {
	ds := &declSpec{start: p.peek()}
	for {
		tok := p.peek()
		var storage ast.StorageClass
		switch tok.Type {
		case lexer.TokenStatic:
			storage = ast.StorageStatic
		case lexer.TokenExtern:
			storage = ast.StorageExtern
			if p.checkAhead(1, lexer.TokenString) {
				p.advance()
			}
		case lexer.TokenInline:
			storage = ast.StorageInline
		case lexer.TokenConstexpr:
			storage = ast.StorageConstexpr
		case lexer.TokenConsteval:
			storage = ast.StorageConsteval
		case lexer.TokenConstinit:
			storage = ast.StorageConstinit
		case lexer.TokenThreadLocal:
			storage = ast.StorageThreadLocal
		case lexer.TokenMutable:
			storage = ast.StorageMutable
		case lexer.TokenRegister:
			storage = ast.StorageRegister
		case lexer.TokenVirtual:
			storage = ast.StorageVirtual
		case lexer.TokenFriend:
			storage = ast.StorageFriend
		case lexer.TokenTypedef:
			storage = ast.StorageTypedef
		case lexer.TokenExplicit:
			p.advance()
			ds.storage |= ast.StorageExplicit
			if p.check(lexer.TokenLeftParen) {
				if err := p.skipBalanced(); err != nil {
					return nil, err
				}
			}
			continue

		case lexer.TokenConst:
			p.advance()
			ds.isConst = true
			continue
		case lexer.TokenVolatile:
			p.advance()
			ds.isVolatile = true
			continue

		case lexer.TokenVoid, lexer.TokenBool, lexer.TokenChar, lexer.TokenChar8, lexer.TokenChar16,
			lexer.TokenChar32, lexer.TokenWchar, lexer.TokenShort, lexer.TokenInt, lexer.TokenLong,
			lexer.TokenFloat, lexer.TokenDouble, lexer.TokenSigned, lexer.TokenUnsigned:
			if ds.typ != nil || ds.placeholder != ast.KindUnknown {
				return p.finishSpecifiers(ds), nil
			}
			p.advance()
			ds.fundamental(tok)
			continue

		case lexer.TokenAuto:
			if ds.hasType() {
				return p.finishSpecifiers(ds), nil
			}
			p.advance()
			ds.placeholder = ast.KindAuto
			continue

		case lexer.TokenDecltype:
			if ds.hasType() {
				return p.finishSpecifiers(ds), nil
			}
			if err := p.parseDecltypeSpecifier(ds); err != nil {
				return nil, err
			}
			continue

		case lexer.TokenClass, lexer.TokenStruct, lexer.TokenUnion:
			if ds.hasType() {
				return p.finishSpecifiers(ds), nil
			}
			t, defined, err := p.parseClassSpecifier(ds)
			if err != nil {
				return nil, err
			}
			ds.typ = t
			if defined {
				ds.defined = t
			}
			continue

		case lexer.TokenEnum:
			if ds.hasType() {
				return p.finishSpecifiers(ds), nil
			}
			t, defined, err := p.parseEnumSpecifier(ds)
			if err != nil {
				return nil, err
			}
			ds.typ = t
			if defined {
				ds.defined = t
			}
			continue

		case lexer.TokenTypename:
			if ds.hasType() {
				return p.finishSpecifiers(ds), nil
			}
			t, err := p.parseTypenameSpecifier()
			if err != nil {
				return nil, err
			}
			ds.typ = t
			continue

		case lexer.TokenLeftBracket, lexer.TokenAlignas:
			if tok.Type == lexer.TokenLeftBracket && !p.checkAhead(1, lexer.TokenLeftBracket) {
				return p.finishSpecifiers(ds), nil
			}
			attrs, err := p.parseAttributes()
			if err != nil {
				return nil, err
			}
			ds.attrs = append(ds.attrs, attrs...)
			continue

		case lexer.TokenIdentifier:
			switch {
			case isAttributeWord(tok.Value):
				attrs, err := p.parseAttributes()
				if err != nil {
					return nil, err
				}
				ds.attrs = append(ds.attrs, attrs...)
				continue
			case ignoredWords[tok.Value]:
				p.advance()
				continue
			case tok.Value == "__inline" || tok.Value == "__inline__" || tok.Value == "__forceinline":
				storage = ast.StorageInline
			case tok.Value == "__thread" || tok.Value == "_Thread_local":
				storage = ast.StorageThreadLocal
			case tok.Value == "__const":
				p.advance()
				ds.isConst = true
				continue
			case tok.Value == "__volatile" || tok.Value == "__volatile__":
				p.advance()
				ds.isVolatile = true
				continue
			case gnuTypeWords[tok.Value]:
				if ds.typ != nil || ds.placeholder != ast.KindUnknown {
					return p.finishSpecifiers(ds), nil
				}
				p.advance()
				ds.gnuFundamental(tok.Value)
				continue
			default:
				if ds.hasType() {
					return p.finishSpecifiers(ds), nil
				}
				ok, err := p.parseNamedTypeSpecifier(ds, ctx)
				if err != nil {
					return nil, err
				}
				if !ok {
					return p.finishSpecifiers(ds), nil
				}
				continue
			}

		case lexer.TokenDoubleColon:
			if ds.hasType() {
				return p.finishSpecifiers(ds), nil
			}
			ok, err := p.parseNamedTypeSpecifier(ds, ctx)
			if err != nil {
				return nil, err
			}
			if !ok {
				return p.finishSpecifiers(ds), nil
			}
			continue

		default:
			return p.finishSpecifiers(ds), nil
		}

		// storage class specifiers
		p.advance()
		ds.storage |= storage
	}
}

// fundamental records one fundamental type keyword
func (ds *declSpec) fundamental(tok lexer.Token) {
	ds.words = true
	switch tok.Type {
	case lexer.TokenVoid:
		ds.kind = ast.KindVoid
	case lexer.TokenBool:
		ds.kind = ast.KindBool
	case lexer.TokenChar:
		ds.kind = ast.KindChar
	case lexer.TokenChar8:
		ds.kind = ast.KindChar8
	case lexer.TokenChar16:
		ds.kind = ast.KindChar16
	case lexer.TokenChar32:
		ds.kind = ast.KindChar32
	case lexer.TokenWchar:
		ds.kind = ast.KindWChar
	case lexer.TokenInt:
		ds.kind = ast.KindInt
	case lexer.TokenFloat:
		ds.kind = ast.KindFloat
	case lexer.TokenDouble:
		ds.kind = ast.KindDouble
	case lexer.TokenShort:
		ds.flags |= ast.FlagShort
	case lexer.TokenLong:
		ds.longs++
	case lexer.TokenSigned:
		ds.flags |= ast.FlagSigned
	case lexer.TokenUnsigned:
		ds.flags |= ast.FlagUnsigned
	}
}

func (ds *declSpec) gnuFundamental(word string) {
	ds.words = true
	switch word {
	case "_Bool":
		ds.kind = ast.KindBool
	case "__int128":
		ds.kind = ast.KindInt
		ds.longs = 2
	case "__int64", "__int32", "__int16", "__int8":
		ds.kind = ast.KindInt
	case "_Float128", "__float128":
		ds.kind = ast.KindDouble
		ds.longs = 1
	case "__signed__":
		ds.flags |= ast.FlagSigned
	}
}

// finishSpecifiers builds the type of the specifiers, applying cv-qualifiers
func (p *Parser) finishSpecifiers(ds *declSpec) *declSpec {
	in := p.interner()
	t := ds.typ
	switch {
	case t != nil:
	case ds.placeholder != ast.KindUnknown:
		if ds.constraint != nil {
			t = &ast.SimpleType{Kind: ds.placeholder, Constraint: ds.constraint}
		} else {
			t = in.Simple(ds.placeholder, 0)
		}
	case ds.words:
		kind, flags := ds.kind, ds.flags
		if kind == ast.KindUnknown {
			kind = ast.KindInt
		}
		switch {
		case ds.longs >= 2:
			flags |= ast.FlagLongLong
		case ds.longs == 1:
			flags |= ast.FlagLong
		}
		t = in.Simple(kind, flags)
	}
	if t != nil && (ds.isConst || ds.isVolatile) {
		t = in.CV(t, ds.isConst, ds.isVolatile)
	}
	ds.typ = t
	return ds
}

// parseNamedTypeSpecifier handles a name in a decl-specifier-seq. It returns false,
// consuming nothing, when the name belongs to the declarator instead: constructors,
// deduction guides, out-of-line member names and variables of an unknown type.
func (p *Parser) parseNamedTypeSpecifier(ds *declSpec, ctx specContext) (bool, error) {
	cp := p.save()
	p.speculate++
	qn, err := p.parseQualifiedName(nameType)
	p.speculate--
	if err != nil {
		p.restore(cp)
		return false, nil
	}
	next := p.peek()
	if next.Type == lexer.TokenDoubleColon {
		// X::~X or X::operator=
		p.restore(cp)
		return false, nil
	}

	switch d := qn.decl.(type) {
	case *ast.Concept:
		if ds.hasType() {
			p.restore(cp)
			return false, nil
		}
		ds.constraint = p.conceptConstraint(qn, d, 1)
		switch {
		case p.match(lexer.TokenAuto):
			ds.placeholder = ast.KindAuto
		case p.check(lexer.TokenDecltype) && p.checkAhead(2, lexer.TokenAuto):
			p.advance()
			p.advance()
			p.advance()
			if _, err := p.expect(lexer.TokenRightParen, "')' after decltype(auto"); err != nil {
				return false, err
			}
			ds.placeholder = ast.KindDecltypeAuto
		default:
			return false, p.expected("'auto' after type-constraint")
		}
		return true, nil

	case ast.Type:
		if next.Type == lexer.TokenLeftParen && ctx == specDecl {
			if p.namesConstructor(qn) || p.isDeductionGuide(qn) {
				p.restore(cp)
				return false, nil
			}
		}
		p.recheckName(qn)
		ds.typ = p.typeFromName(qn)
		return true, nil
	}

	if qn.dependent {
		ds.typ = p.typeFromName(qn)
		return true, nil
	}
	if qn.decl == nil && p.unknownTypeFollows(ctx, next) {
		p.warnf(qn.tok, "unknown type name %q", qn.id.String())
		ds.typ = &ast.TBDType{DeclBase: ast.DeclBase{Ident: qn.id}}
		return true, nil
	}
	p.restore(cp)
	return false, nil
}

// recheckName repeats the semantic checks of a name first parsed speculatively
func (p *Parser) recheckName(qn *qualifiedName) {
	for _, comp := range qn.id.Names {
		for _, a := range comp.Args {
			if a.Expr != nil && a.Expr.IsConceptID() {
				c := a.Expr.Decl.(*ast.Concept)
				p.checkConceptArgs(c, a.Expr.TemplateArgs, 0, qn.tok)
			}
		}
	}
}

// unknownTypeFollows decides whether an unresolved name is a type from what follows it
func (p *Parser) unknownTypeFollows(ctx specContext, next lexer.Token) bool {
	if ctx != specDecl {
		return true
	}
	switch next.Type {
	case lexer.TokenIdentifier:
		return !ignoredWords[next.Value] || p.checkAhead(1, lexer.TokenIdentifier)
	case lexer.TokenStar, lexer.TokenAmpersand, lexer.TokenDoubleAmp:
		return p.checkAhead(1, lexer.TokenIdentifier) || p.checkAhead(1, lexer.TokenConst)
	case lexer.TokenConst, lexer.TokenVolatile, lexer.TokenOperator:
		return true
	}
	return false
}

// namesConstructor reports whether a type name followed by '(' declares a constructor
func (p *Parser) namesConstructor(qn *qualifiedName) bool {
	names := qn.id.Names
	if len(names) >= 2 {
		return names[len(names)-1].Name == names[len(names)-2].Name
	}
	st := p.currentClass()
	return st != nil && (qn.decl == ast.Declaration(st) || st.Name() == qn.id.Name()) && !qn.id.Global
}

// isDeductionGuide reports whether a class template name followed by a parenthesized
// list is a deduction guide: Name(params) -> type
func (p *Parser) isDeductionGuide(qn *qualifiedName) bool {
	if p.inClass() || qn.decl == nil || qn.decl.Base().Template == nil {
		return false
	}
	if _, ok := qn.decl.(*ast.StructType); !ok {
		return false
	}
	depth := 0
	for i := 0; ; i++ {
		switch p.peekAhead(i).Type {
		case lexer.TokenLeftParen:
			depth++
		case lexer.TokenRightParen:
			depth--
			if depth == 0 {
				return p.checkAhead(i+1, lexer.TokenArrow)
			}
		case lexer.TokenEOF, lexer.TokenSemicolon, lexer.TokenLeftBrace:
			return false
		}
	}
}

// parseDecltypeSpecifier handles decltype(expr) and decltype(auto)
func (p *Parser) parseDecltypeSpecifier(ds *declSpec) error {
	if p.checkAhead(1, lexer.TokenLeftParen) && p.checkAhead(2, lexer.TokenAuto) && p.checkAhead(3, lexer.TokenRightParen) {
		p.advance()
		p.advance()
		p.advance()
		p.advance()
		ds.placeholder = ast.KindDecltypeAuto
		return nil
	}
	t, err := p.parseDecltype()
	if err != nil {
		return err
	}
	ds.typ = t
	return nil
}

// parseDecltype parses decltype(expr)
func (p *Parser) parseDecltype() (ast.Type, error) {
	p.advance() // decltype
	if _, err := p.expect(lexer.TokenLeftParen, "'(' after decltype"); err != nil {
		return nil, err
	}
	angle := p.angle
	p.angle = 0
	defer func() { p.angle = angle }()
	e, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokenRightParen, "')' to close decltype"); err != nil {
		return nil, err
	}
	return &ast.DecltypeType{Expr: e}, nil
}

// parseTypenameSpecifier parses typename nested-name-specifier name
func (p *Parser) parseTypenameSpecifier() (ast.Type, error) {
	p.advance() // typename
	qn, err := p.parseQualifiedName(nameType)
	if err != nil {
		return nil, err
	}
	if _, ok := qn.decl.(ast.Type); ok && !qn.dependent {
		return p.typeFromName(qn), nil
	}
	return &ast.TBDType{DeclBase: ast.DeclBase{Ident: qn.id}, Typename: true}, nil
}

// parseTypeID parses a type-id: specifiers followed by an abstract declarator
func (p *Parser) parseTypeID() (ast.Type, error) {
	ds, err := p.parseDeclSpecifiers(specType)
	if err != nil {
		return nil, err
	}
	if !ds.hasType() {
		return nil, p.expected("type")
	}
	d, err := p.parseDeclarator(ds.typ, declAbstract)
	if err != nil {
		return nil, err
	}
	return d.typ, nil
}

// parseTypeSpecifiers parses a type without a declarator, as in a conversion function
// name or an enum base
func (p *Parser) parseTypeSpecifiers() (ast.Type, error) {
	ds, err := p.parseDeclSpecifiers(specType)
	if err != nil {
		return nil, err
	}
	if !ds.hasType() {
		return nil, p.expected("type")
	}
	return ds.typ, nil
}

func isAttributeWord(word string) bool {
	switch word {
	case "__attribute__", "__attribute", "__declspec", "__asm__", "__asm":
		return true
	}
	return false
}

// parseAttributes reads any sequence of [[...]], __attribute__((...)), __declspec(...),
// alignas(...) and asm labels, returning their text
func (p *Parser) parseAttributes() ([]string, error) {
	var attrs []string
	for {
		tok := p.peek()
		switch {
		case tok.Type == lexer.TokenLeftBracket && p.checkAhead(1, lexer.TokenLeftBracket):
			start := p.current
			if err := p.skipBalanced(); err != nil {
				return nil, err
			}
			attrs = append(attrs, p.text(start+2, p.current-2))
		case tok.Type == lexer.TokenAlignas || tok.Type == lexer.TokenAsm ||
			tok.Type == lexer.TokenIdentifier && isAttributeWord(tok.Value):
			start := p.current
			p.advance()
			if !p.check(lexer.TokenLeftParen) {
				return nil, p.expected("'(' after " + tok.Value)
			}
			if err := p.skipBalanced(); err != nil {
				return nil, err
			}
			attrs = append(attrs, p.text(start, p.current))
		default:
			return attrs, nil
		}
	}
}

// skipAttributes parses attributes whose text is not kept
func (p *Parser) skipAttributes() error {
	_, err := p.parseAttributes()
	return err
}

// parseOperatorName parses operator followed by an operator token or a conversion type
func (p *Parser) parseOperatorName() (string, ast.Type, error) {
	p.advance() // operator
	tok := p.peek()
	switch tok.Type {
	case lexer.TokenNew, lexer.TokenDelete:
		p.advance()
		name := "operator " + tok.Value
		if p.check(lexer.TokenLeftBracket) && p.checkAhead(1, lexer.TokenRightBracket) {
			p.advance()
			p.advance()
			name += "[]"
		}
		return name, nil, nil
	case lexer.TokenLeftParen:
		p.advance()
		if _, err := p.expect(lexer.TokenRightParen, "')' in operator()"); err != nil {
			return "", nil, err
		}
		return "operator()", nil, nil
	case lexer.TokenLeftBracket:
		p.advance()
		if _, err := p.expect(lexer.TokenRightBracket, "']' in operator[]"); err != nil {
			return "", nil, err
		}
		return "operator[]", nil, nil
	case lexer.TokenString:
		p.advance()
		if p.check(lexer.TokenIdentifier) {
			return "operator\"\" " + p.advance().Value, nil, nil
		}
		return "operator" + tok.Value, nil, nil
	case lexer.TokenCoAwait:
		p.advance()
		return "operator co_await", nil, nil
	}
	if isOperatorToken(tok.Type) {
		p.advance()
		if tok.Type == lexer.TokenGreater && p.split {
			p.split = false
		}
		return "operator" + lexer.Spelling(tok.Type), nil, nil
	}

	// conversion function
	t, err := p.parseTypeSpecifiers()
	if err != nil {
		return "", nil, err
	}
	for {
		op, ok, err := p.parsePtrOperator()
		if err != nil {
			return "", nil, err
		}
		if !ok {
			break
		}
		t = op(t)
	}
	return "operator " + ast.FormatType(t, "", nil), t, nil
}

func isOperatorToken(tt lexer.TokenType) bool {
	switch tt {
	case lexer.TokenPlus, lexer.TokenMinus, lexer.TokenStar, lexer.TokenSlash, lexer.TokenPercent,
		lexer.TokenCaret, lexer.TokenAmpersand, lexer.TokenPipe, lexer.TokenTilde, lexer.TokenExclamation,
		lexer.TokenEquals, lexer.TokenLess, lexer.TokenGreater, lexer.TokenPlusEquals, lexer.TokenMinusEquals,
		lexer.TokenStarEquals, lexer.TokenSlashEquals, lexer.TokenPercentEquals, lexer.TokenCaretEquals,
		lexer.TokenAmpEquals, lexer.TokenPipeEquals, lexer.TokenLeftShift, lexer.TokenRightShift,
		lexer.TokenLeftShiftEquals, lexer.TokenRightShiftEquals, lexer.TokenDoubleEquals, lexer.TokenNotEquals,
		lexer.TokenLessEqual, lexer.TokenGreaterEqual, lexer.TokenSpaceship, lexer.TokenDoubleAmp,
		lexer.TokenDoublePipe, lexer.TokenPlusPlus, lexer.TokenMinusMinus, lexer.TokenComma,
		lexer.TokenArrowStar, lexer.TokenArrow:
		return true
	}
	return false
}
