package ast

import (
	"fmt"
	"io"
	"strings"
)

// printer renders declarations relative to a vantage scope
type printer struct {
	sb       strings.Builder
	scope    *Scope
	complete bool
}

// Output renders d to w as seen from scope. With complete set, classes, enums,
// namespaces and function bodies are rendered with their contents.
func Output(w io.Writer, d Declaration, indent int, scope *Scope, complete bool) error {
	p := &printer{scope: scope, complete: complete}
	p.decl(d, indent)
	_, err := io.WriteString(w, p.sb.String())
	return err
}

// Format renders d on one line as seen from scope
func Format(d Declaration, scope *Scope) string {
	p := &printer{scope: scope}
	p.decl(d, 0)
	return p.sb.String()
}

// FormatType renders t as a declarator around name, e.g. "int (*name)[4]"
func FormatType(t Type, name string, scope *Scope) string {
	p := &printer{scope: scope}
	return p.declarator(t, name)
}

// FormatExpr renders e as seen from scope
func FormatExpr(e *Expression, scope *Scope) string {
	p := &printer{scope: scope}
	return p.expr(e)
}

func (p *printer) indent(n int) {
	p.sb.WriteString(strings.Repeat(" ", n))
}

func (p *printer) printf(format string, args ...interface{}) {
	fmt.Fprintf(&p.sb, format, args...)
}

// decl renders one declaration, without a trailing semicolon
func (p *printer) decl(d Declaration, indent int) {
	p.indent(indent)
	switch v := d.(type) {
	case *Concept:
		p.sb.WriteString(p.templateHeader(v.Template))
		p.printf("concept %s = %s", p.declName(&v.DeclBase), p.expr(v.Initializer))
	case *Function:
		p.function(v, indent)
	case *Instance:
		p.instance(v)
	case *FunctionGroup:
		for i, f := range v.Functions {
			if i > 0 {
				p.sb.WriteString("\n")
			}
			p.decl(f, indent)
		}
	case *Namespace:
		p.namespace(v, indent)
	case *Using:
		if v.Directive {
			target := v.Target
			if ns := AsNamespace(target); ns != nil {
				target = ns.Canonical()
			}
			p.printf("using namespace %s", p.localName(target))
		} else {
			p.printf("using %s", p.localName(v.Target))
		}
	case *StaticAssert:
		p.printf("static_assert(%s", p.expr(v.Cond))
		if v.Message != "" {
			p.printf(", %s", v.Message)
		}
		p.sb.WriteString(")")
	case *ErrorDecl:
		p.printf("/* error: %s */", v.Message)
	case *StructType:
		p.structType(v, indent)
	case *EnumType:
		p.enumType(v, indent)
	case *TypedefType:
		p.sb.WriteString(p.templateHeader(v.Template))
		if v.UsingSyntax {
			p.printf("using %s = %s", p.declName(&v.DeclBase), p.declarator(v.Aliased, ""))
		} else {
			p.printf("typedef %s", p.declarator(v.Aliased, p.declName(&v.DeclBase)))
		}
	case *TemplateParameterType:
		p.sb.WriteString(p.templateParam(v))
	case Type:
		p.sb.WriteString(p.declarator(v, ""))
	}
}

// declName is the name of a declaration as seen from the vantage scope
func (p *printer) declName(b *DeclBase) string {
	name := b.Name()
	if b.Ident != nil && len(b.Ident.Names) > 0 {
		if last := b.Ident.Last(); last.HasArgs {
			name += formatTemplateArgs(last.Args, p.scope)
		}
	}
	if b.Scope == nil || b.Scope.IsLocal() {
		return name
	}
	return b.Scope.LocalName(name, p.scope)
}

// localName is the name of a referenced entity as seen from the vantage scope
func (p *printer) localName(d Declaration) string {
	if d == nil {
		return ""
	}
	if n, ok := d.(*Namespace); ok && n.Alias != nil && n.Scope == nil {
		d = n.Canonical()
	}
	b := d.Base()
	name := b.Name()
	if b.Scope == nil || b.Scope.IsLocal() {
		return name
	}
	if _, ok := d.(*TemplateParameterType); ok {
		return name
	}
	return b.Scope.LocalName(name, p.scope)
}

// fullName is ::-prefixed path used for references to variables, functions and concepts
func fullName(d Declaration) string {
	b := d.Base()
	if b.Scope == nil || b.Scope.IsLocal() || b.Scope.Kind == ScopeTemplate {
		return b.Name()
	}
	return b.Scope.FullyScopedName() + "::" + b.Name()
}

func (p *printer) templateHeader(tmpl *Scope) string {
	if tmpl == nil {
		return ""
	}
	var params []string
	implicit := 0
	for _, param := range tmpl.Params {
		if tp, ok := param.(*TemplateParameterType); ok && tp.Implicit {
			implicit++
			continue
		}
		params = append(params, p.templateParam(param))
	}
	if len(params) == 0 && implicit > 0 {
		return ""
	}
	header := "template<" + strings.Join(params, ", ") + "> "
	if tmpl.Requires != nil {
		header += "requires " + p.expr(tmpl.Requires) + " "
	}
	return header
}

func (p *printer) templateParam(param Declaration) string {
	switch v := param.(type) {
	case *TemplateParameterType:
		var s string
		switch {
		case v.Params != nil:
			s = strings.TrimSuffix(p.templateHeader(v.Params), " ") + " class"
		case v.Constraint != nil:
			s = p.constraint(v.Constraint)
		default:
			s = "class"
		}
		if v.Pack {
			s += "..."
		}
		if name := v.Name(); name != "" {
			s += " " + name
		}
		if v.Default != nil {
			s += " = " + p.declarator(v.Default, "")
		}
		return s
	case *Instance:
		name := v.Name()
		if v.Pack {
			name = "..." + name
		}
		s := p.declarator(v.Type, name)
		if v.Initializer != nil {
			s += " = " + p.expr(v.Initializer)
		}
		return s
	}
	return ""
}

// constraint renders a type-constraint, the concept name with its explicit arguments
func (p *printer) constraint(e *Expression) string {
	if e == nil {
		return ""
	}
	if e.Kind != ExprVariable || e.Decl == nil {
		return p.expr(e)
	}
	s := p.localName(e.Decl)
	if e.HasTemplate {
		s += formatTemplateArgs(e.TemplateArgs, p.scope)
	}
	return s
}

func (p *printer) storage(s StorageClass) string {
	var parts []string
	for _, n := range storageNames {
		if s.Has(n.flag) {
			parts = append(parts, n.name)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, " ") + " "
}

func (p *printer) instance(v *Instance) {
	p.sb.WriteString(p.templateHeader(v.Template))
	p.sb.WriteString(p.storage(v.Storage))
	name := p.declName(&v.DeclBase)
	if v.Pack {
		name = "..." + name
	}
	p.sb.WriteString(p.declarator(v.Type, name))
	if v.BitWidth != nil {
		p.printf(" : %s", p.expr(v.BitWidth))
	}
	p.sb.WriteString(p.initializer(v))
}

func (p *printer) initializer(v *Instance) string {
	if v.Initializer == nil {
		return ""
	}
	switch v.InitStyle {
	case InitParen:
		return "(" + p.exprList(v.Initializer.Args) + ")"
	case InitBrace:
		return "{" + p.exprList(v.Initializer.Args) + "}"
	default:
		return " = " + p.expr(v.Initializer)
	}
}

func (p *printer) function(f *Function, indent int) {
	p.sb.WriteString(p.templateHeader(f.Template))
	p.sb.WriteString(p.storage(f.Storage))
	name := p.declName(&f.DeclBase)
	if ft := f.FuncType(); ft != nil {
		sig := p.declarator(ft, name)
		if f.Kind == FunctionDeductionGuide {
			sig = strings.TrimPrefix(sig, "auto ")
		}
		p.sb.WriteString(sig)
	} else {
		p.sb.WriteString(p.declarator(f.Type, name))
	}
	if f.Requires != nil {
		p.printf(" requires %s", p.expr(f.Requires))
	}
	switch {
	case f.Flags&FunctionPure != 0:
		p.sb.WriteString(" = 0")
	case f.Flags&FunctionDefaulted != 0:
		p.sb.WriteString(" = default")
	case f.Flags&FunctionDeleted != 0:
		p.sb.WriteString(" = delete")
	}
	if p.complete && f.Body != nil {
		p.sb.WriteString(" ")
		p.stmt(f.Body, indent, true)
	}
}

func (p *printer) namespace(n *Namespace, indent int) {
	if n.Alias != nil {
		p.printf("namespace %s = %s", n.Name(), p.localName(n.Alias.Canonical()))
		return
	}
	if n.Inline {
		p.sb.WriteString("inline ")
	}
	p.sb.WriteString("namespace")
	if name := n.Name(); name != "" {
		p.printf(" %s", name)
	}
	if !p.complete || n.Members == nil {
		return
	}
	p.sb.WriteString(" {\n")
	p.members(n.Members, indent+2, false)
	p.indent(indent)
	p.sb.WriteString("}")
}

// members renders the declarations of s, one per line
func (p *printer) members(s *Scope, indent int, access bool) {
	saved := p.scope
	p.scope = s
	defer func() { p.scope = saved }()

	vis := VisibilityPublic
	if st, ok := s.Owner.(*StructType); ok && st.Kind == KindClass {
		vis = VisibilityPrivate
	}
	for _, d := range s.Declarations() {
		if access && d.Base().Vis != vis {
			vis = d.Base().Vis
			p.indent(indent - 2)
			p.printf("%s:\n", vis)
		}
		p.decl(d, indent)
		p.sb.WriteString(";\n")
	}
}

func (p *printer) structType(st *StructType, indent int) {
	if !p.complete || st.Incomplete || st.Members == nil {
		p.sb.WriteString(p.typeName(st))
		return
	}
	p.sb.WriteString(p.templateHeader(st.Template))
	p.printf("%s %s", st.Kind, p.declName(&st.DeclBase))
	if st.Specialization != nil {
		p.sb.WriteString(formatTemplateArgs(st.Specialization, p.scope))
	}
	if st.Final {
		p.sb.WriteString(" final")
	}
	for i, b := range st.Bases {
		if i == 0 {
			p.sb.WriteString(" : ")
		} else {
			p.sb.WriteString(", ")
		}
		if b.Virtual {
			p.sb.WriteString("virtual ")
		}
		p.printf("%s %s", b.Access, p.declarator(b.Type, ""))
		if b.Pack {
			p.sb.WriteString("...")
		}
	}
	p.sb.WriteString(" {\n")
	p.members(st.Members, indent+2, true)
	p.indent(indent)
	p.sb.WriteString("}")
}

func (p *printer) enumType(e *EnumType, indent int) {
	if !p.complete || e.Incomplete {
		p.sb.WriteString(p.typeName(e))
		return
	}
	p.sb.WriteString("enum ")
	if e.Scoped {
		p.sb.WriteString("class ")
	}
	p.sb.WriteString(p.declName(&e.DeclBase))
	if e.Underlying != nil {
		p.printf(" : %s", p.declarator(e.Underlying, ""))
	}
	p.sb.WriteString(" {\n")
	for _, v := range e.Values {
		p.indent(indent + 2)
		p.sb.WriteString(v.Name())
		if v.Initializer != nil {
			p.printf(" = %s", p.expr(v.Initializer))
		}
		p.sb.WriteString(",\n")
	}
	p.indent(indent)
	p.sb.WriteString("}")
}

// typeName renders a type without a declarator
func (p *printer) typeName(t Type) string {
	switch v := t.(type) {
	case *SimpleType:
		return simpleName(v)
	case *StructType:
		s := v.Kind.String() + " " + p.localName(v)
		if v.Specialization != nil {
			s += formatTemplateArgs(v.Specialization, p.scope)
		}
		return s
	case *EnumType:
		return "enum " + p.localName(v)
	case *TypedefType:
		return p.localName(v)
	case *TemplateParameterType:
		return v.Name()
	case *TBDType:
		s := v.Ident.String()
		if v.Typename {
			s = "typename " + s
		}
		return s
	case *DecltypeType:
		return "decltype(" + p.expr(v.Expr) + ")"
	case *PackType:
		return p.declarator(v.Pattern, "") + "..."
	case *TemplateIDType:
		return p.localName(v.Template) + formatTemplateArgs(v.Args, p.scope)
	case nil:
		return "?"
	}
	return p.declarator(t, "")
}

func simpleName(t *SimpleType) string {
	sign := ""
	if t.Flags&FlagUnsigned != 0 {
		sign = "unsigned "
	} else if t.Flags&FlagSigned != 0 {
		sign = "signed "
	}
	switch t.Kind {
	case KindVoid:
		return "void"
	case KindBool:
		return "bool"
	case KindChar:
		return sign + "char"
	case KindWChar:
		return "wchar_t"
	case KindChar8:
		return "char8_t"
	case KindChar16:
		return "char16_t"
	case KindChar32:
		return "char32_t"
	case KindInt:
		switch {
		case t.Flags&FlagShort != 0:
			return sign + "short int"
		case t.Flags&FlagLongLong != 0:
			return sign + "long long int"
		case t.Flags&FlagLong != 0:
			return sign + "long int"
		}
		if sign == "signed " {
			return "int"
		}
		return sign + "int"
	case KindFloat:
		return "float"
	case KindDouble:
		if t.Flags&FlagLong != 0 {
			return "long double"
		}
		return "double"
	case KindAuto:
		return "auto"
	case KindDecltypeAuto:
		return "decltype(auto)"
	case KindNullptr:
		return "decltype(nullptr)"
	}
	return "unknown"
}

// declarator renders t wrapped around inner, following C declarator syntax
func (p *printer) declarator(t Type, inner string) string {
	switch v := t.(type) {
	case *PointerType:
		prefix := "*"
		if v.MemberOf != nil {
			prefix = p.typeName(v.MemberOf) + "::*"
		}
		return p.declarator(v.Pointee, wrap(v.Pointee, prefix+inner))
	case *ReferenceType:
		ref := "&"
		if v.RValue {
			ref = "&&"
		}
		return p.declarator(v.Referent, wrap(v.Referent, ref+inner))
	case *ConstType:
		cv := cvString(v.Const, v.Volatile)
		switch v.Inner.(type) {
		case *PointerType, *ReferenceType:
			if inner != "" {
				cv += " " + inner
			}
			return p.declarator(v.Inner, cv)
		}
		return cv + " " + p.declarator(v.Inner, inner)
	case *ArrayType:
		size := ""
		if v.Size != nil {
			size = p.expr(v.Size)
		}
		return p.declarator(v.Element, inner+"["+size+"]")
	case *FunctionType:
		sig := inner + "(" + p.params(v) + ")" + p.funcQualifiers(v)
		if v.Flags&FuncTrailingReturn != 0 && v.Return != nil {
			return "auto " + sig + " -> " + p.declarator(v.Return, "")
		}
		if v.Return == nil {
			return sig
		}
		return p.declarator(v.Return, sig)
	}
	base := p.typeName(t)
	if inner == "" {
		return base
	}
	return base + " " + inner
}

func wrap(t Type, s string) string {
	switch t.(type) {
	case *ArrayType, *FunctionType:
		return "(" + s + ")"
	}
	return s
}

func cvString(c, v bool) string {
	switch {
	case c && v:
		return "const volatile"
	case v:
		return "volatile"
	default:
		return "const"
	}
}

func (p *printer) params(ft *FunctionType) string {
	parts := make([]string, 0, len(ft.Params)+1)
	for _, param := range ft.Params {
		var s string
		switch {
		case param.Pack && param.Name() == "":
			s = p.declarator(param.Type, "") + "..."
		case param.Pack:
			s = p.declarator(param.Type, "..."+param.Name())
		default:
			s = p.declarator(param.Type, param.Name())
		}
		if param.Initializer != nil {
			s += " = " + p.expr(param.Initializer)
		}
		parts = append(parts, s)
	}
	if ft.Variadic {
		parts = append(parts, "...")
	}
	return strings.Join(parts, ", ")
}

func (p *printer) funcQualifiers(ft *FunctionType) string {
	var sb strings.Builder
	if ft.Flags&FuncConst != 0 {
		sb.WriteString(" const")
	}
	if ft.Flags&FuncVolatile != 0 {
		sb.WriteString(" volatile")
	}
	if ft.Flags&FuncLValueRef != 0 {
		sb.WriteString(" &")
	}
	if ft.Flags&FuncRValueRef != 0 {
		sb.WriteString(" &&")
	}
	if ft.Noexcept != nil {
		sb.WriteString(" noexcept(" + p.expr(ft.Noexcept) + ")")
	} else if ft.Flags&FuncNoexcept != 0 {
		sb.WriteString(" noexcept")
	}
	return sb.String()
}

func (p *printer) exprList(list []*Expression) string {
	parts := make([]string, len(list))
	for i, e := range list {
		parts[i] = p.expr(e)
	}
	return strings.Join(parts, ", ")
}

// expr renders an expression; binary operations are always parenthesized
func (p *printer) expr(e *Expression) string {
	if e == nil {
		return ""
	}
	switch e.Kind {
	case ExprInteger, ExprFloat, ExprString, ExprChar:
		return e.Text
	case ExprBool:
		return e.Text
	case ExprNullptr:
		return "nullptr"
	case ExprThis:
		return "this"
	case ExprVariable, ExprFunction:
		if e.Decl == nil {
			return e.Ident.String()
		}
		if g, ok := e.Decl.(*FunctionGroup); ok && len(g.Functions) > 0 {
			return fullName(g.Functions[0])
		}
		return fullName(e.Decl)
	case ExprUnknown:
		if e.Ident != nil {
			return e.Ident.String()
		}
		return e.Text
	case ExprTypeName:
		return p.declarator(e.Type, "")
	case ExprUnary:
		return e.Op + p.expr(e.X)
	case ExprPostfix:
		return p.expr(e.X) + e.Op
	case ExprBinary:
		return "(" + p.expr(e.X) + " " + e.Op + " " + p.expr(e.Y) + ")"
	case ExprConditional:
		return "(" + p.expr(e.X) + " ? " + p.expr(e.Y) + " : " + p.expr(e.Z) + ")"
	case ExprCall:
		return p.expr(e.X) + "(" + p.exprList(e.Args) + ")"
	case ExprSubscript:
		return p.expr(e.X) + "[" + p.expr(e.Y) + "]"
	case ExprMember:
		s := p.expr(e.X) + e.Op
		if e.Ident != nil {
			s += e.Ident.String()
		} else {
			s += e.Text
		}
		return s
	case ExprCast:
		if e.Op == "" {
			return "(" + p.declarator(e.Type, "") + ")" + p.expr(e.X)
		}
		return e.Op + "<" + p.declarator(e.Type, "") + ">(" + p.expr(e.X) + ")"
	case ExprSizeof, ExprAlignof, ExprTypeid:
		kw := map[ExprKind]string{ExprSizeof: "sizeof", ExprAlignof: "alignof", ExprTypeid: "typeid"}[e.Kind]
		if e.Type != nil {
			return kw + "(" + p.declarator(e.Type, "") + ")"
		}
		return kw + "(" + p.expr(e.X) + ")"
	case ExprSizeofPack:
		return "sizeof...(" + e.Text + ")"
	case ExprNoexcept:
		return "noexcept(" + p.expr(e.X) + ")"
	case ExprConstruct:
		if e.Braced {
			return p.declarator(e.Type, "") + "{" + p.exprList(e.Args) + "}"
		}
		return p.declarator(e.Type, "") + "(" + p.exprList(e.Args) + ")"
	case ExprInitList:
		return "{" + p.exprList(e.Args) + "}"
	case ExprNew:
		s := "new " + p.declarator(e.Type, "")
		if e.Args != nil {
			s += "(" + p.exprList(e.Args) + ")"
		}
		return s
	case ExprDelete:
		if e.Array {
			return "delete[] " + p.expr(e.X)
		}
		return "delete " + p.expr(e.X)
	case ExprThrow:
		if e.X == nil {
			return "throw"
		}
		return "throw " + p.expr(e.X)
	case ExprLambda:
		return p.lambda(e.Lambda)
	case ExprRequires:
		return p.requiresExpr(e)
	case ExprFold:
		switch {
		case e.Y != nil && e.FoldLeft:
			return "(" + p.expr(e.Y) + " " + e.Op + " ... " + e.Op + " " + p.expr(e.X) + ")"
		case e.Y != nil:
			return "(" + p.expr(e.X) + " " + e.Op + " ... " + e.Op + " " + p.expr(e.Y) + ")"
		case e.FoldLeft:
			return "(... " + e.Op + " " + p.expr(e.X) + ")"
		default:
			return "(" + p.expr(e.X) + " " + e.Op + " ...)"
		}
	case ExprPack:
		return p.expr(e.X) + "..."
	}
	return e.Text
}

func (p *printer) requiresExpr(e *Expression) string {
	var sb strings.Builder
	sb.WriteString("requires")
	if e.Params != nil && len(e.Params.Params) > 0 {
		parts := make([]string, len(e.Params.Params))
		for i, param := range e.Params.Params {
			if inst, ok := param.(*Instance); ok {
				parts[i] = p.declarator(inst.Type, inst.Name())
			}
		}
		sb.WriteString("(" + strings.Join(parts, ", ") + ")")
	}
	if len(e.Requirements) == 0 {
		sb.WriteString(" {}")
		return sb.String()
	}
	sb.WriteString(" { ")
	for _, r := range e.Requirements {
		sb.WriteString(p.requirement(r))
		sb.WriteString("; ")
	}
	sb.WriteString("}")
	return sb.String()
}

func (p *printer) requirement(r *Requirement) string {
	switch r.Kind {
	case RequirementType:
		s := p.declarator(r.Type, "")
		if !strings.HasPrefix(s, "typename ") {
			s = "typename " + s
		}
		return s
	case RequirementCompound:
		s := "{ " + p.expr(r.Expr) + " }"
		if r.Noexcept {
			s += " noexcept"
		}
		if r.Constraint != nil {
			s += " -> " + p.constraint(r.Constraint)
		}
		return s
	case RequirementNested:
		return "requires " + p.expr(r.Expr)
	}
	return p.expr(r.Expr)
}

func (p *printer) lambda(l *Lambda) string {
	if l == nil {
		return "[]{}"
	}
	var sb strings.Builder
	sb.WriteString("[" + strings.Join(l.Captures, ", ") + "]")
	if l.Template != nil {
		sb.WriteString(strings.TrimSuffix(strings.TrimPrefix(p.templateHeader(l.Template), "template"), " "))
	}
	if f := l.Function; f != nil {
		if ft := f.FuncType(); ft != nil {
			sb.WriteString("(" + p.params(ft) + ")" + p.funcQualifiers(ft))
			if ft.Flags&FuncTrailingReturn != 0 && ft.Return != nil {
				sb.WriteString(" -> " + p.declarator(ft.Return, ""))
			}
		}
		if f.Requires != nil {
			sb.WriteString(" requires " + p.expr(f.Requires))
		}
	}
	if l.Body == nil {
		sb.WriteString(" {}")
		return sb.String()
	}
	sub := &printer{scope: p.scope, complete: true}
	sub.sb.WriteString(" ")
	sub.stmt(l.Body, 0, false)
	sb.WriteString(sub.sb.String())
	return sb.String()
}

// stmt renders a statement. Without multiline the whole statement stays on one line.
func (p *printer) stmt(s *Statement, indent int, multiline bool) {
	nl := func() {
		if multiline {
			p.sb.WriteString("\n")
		} else {
			p.sb.WriteString(" ")
		}
	}
	ind := func(n int) {
		if multiline {
			p.indent(n)
		}
	}
	switch s.Kind {
	case StmtCompound:
		p.sb.WriteString("{")
		if len(s.Stmts) == 0 {
			p.sb.WriteString("}")
			return
		}
		nl()
		for _, c := range s.Stmts {
			ind(indent + 2)
			p.stmt(c, indent+2, multiline)
			nl()
		}
		ind(indent)
		p.sb.WriteString("}")
	case StmtNull:
		p.sb.WriteString(";")
	case StmtDecl:
		for i, d := range s.Decls {
			if i > 0 {
				p.sb.WriteString(" ")
			}
			p.decl(d, 0)
			p.sb.WriteString(";")
		}
	case StmtExpr:
		p.sb.WriteString(p.expr(s.Expr) + ";")
	case StmtIf:
		p.sb.WriteString("if ")
		if s.Constexpr {
			p.sb.WriteString("constexpr ")
		}
		p.sb.WriteString("(" + p.condition(s) + ") ")
		p.stmt(s.Body, indent, multiline)
		if s.Else != nil {
			p.sb.WriteString(" else ")
			p.stmt(s.Else, indent, multiline)
		}
	case StmtWhile:
		p.sb.WriteString("while (" + p.condition(s) + ") ")
		p.stmt(s.Body, indent, multiline)
	case StmtDo:
		p.sb.WriteString("do ")
		p.stmt(s.Body, indent, multiline)
		p.sb.WriteString(" while (" + p.expr(s.Expr) + ");")
	case StmtFor:
		p.sb.WriteString("for (")
		if s.Init != nil {
			p.stmt(s.Init, indent, false)
		} else {
			p.sb.WriteString(";")
		}
		p.sb.WriteString(" " + p.condition(s) + "; " + p.expr(s.Step) + ") ")
		p.stmt(s.Body, indent, multiline)
	case StmtRangeFor:
		p.sb.WriteString("for (")
		if len(s.Decls) > 0 {
			p.decl(s.Decls[0], 0)
		}
		p.sb.WriteString(" : " + p.expr(s.Expr) + ") ")
		p.stmt(s.Body, indent, multiline)
	case StmtSwitch:
		p.sb.WriteString("switch (" + p.condition(s) + ") ")
		p.stmt(s.Body, indent, multiline)
	case StmtCase:
		p.sb.WriteString("case " + p.expr(s.Expr) + ":")
		if s.Body != nil {
			p.sb.WriteString(" ")
			p.stmt(s.Body, indent, multiline)
		}
	case StmtDefault:
		p.sb.WriteString("default:")
		if s.Body != nil {
			p.sb.WriteString(" ")
			p.stmt(s.Body, indent, multiline)
		}
	case StmtReturn:
		if s.Expr == nil {
			p.sb.WriteString("return;")
		} else {
			p.sb.WriteString("return " + p.expr(s.Expr) + ";")
		}
	case StmtBreak:
		p.sb.WriteString("break;")
	case StmtContinue:
		p.sb.WriteString("continue;")
	case StmtGoto:
		p.sb.WriteString("goto " + s.Label + ";")
	case StmtLabel:
		p.sb.WriteString(s.Label + ":")
		if s.Body != nil {
			p.sb.WriteString(" ")
			p.stmt(s.Body, indent, multiline)
		}
	case StmtTry:
		p.sb.WriteString("try ")
		p.stmt(s.Body, indent, multiline)
		for _, h := range s.Handlers {
			p.sb.WriteString(" catch (")
			if h.Param == nil {
				p.sb.WriteString("...")
			} else {
				p.decl(h.Param, 0)
			}
			p.sb.WriteString(") ")
			p.stmt(h.Body, indent, multiline)
		}
	}
}

func (p *printer) condition(s *Statement) string {
	prefix := ""
	if s.Init != nil && s.Kind != StmtFor {
		sub := &printer{scope: p.scope}
		sub.stmt(s.Init, 0, false)
		prefix = sub.sb.String() + " "
	}
	if len(s.Decls) > 0 && s.Kind != StmtRangeFor {
		sub := &printer{scope: p.scope}
		sub.decl(s.Decls[0], 0)
		return prefix + sub.sb.String()
	}
	return prefix + p.expr(s.Expr)
}
