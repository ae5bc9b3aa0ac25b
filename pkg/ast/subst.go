package ast

import "fmt"

// SubstMap binds template parameters (TemplateParameterType or non-type parameter
// Instance) to arguments
type SubstMap map[Declaration]*TemplateArg

// BindTemplateArgs pairs the parameters of a template scope with arguments. A trailing
// parameter pack collects the remaining arguments; missing arguments take defaults.
func BindTemplateArgs(tmpl *Scope, args []*TemplateArg) (SubstMap, error) {
	subst := make(SubstMap)
	if tmpl == nil {
		return subst, nil
	}
	i := 0
	for _, param := range tmpl.Params {
		if tp, ok := param.(*TemplateParameterType); ok && tp.Implicit {
			continue
		}
		if isPackParam(param) {
			pack := &TemplateArg{Pack: true, Elems: []*TemplateArg{}}
			for ; i < len(args); i++ {
				pack.Elems = append(pack.Elems, args[i])
			}
			subst[param] = pack
			continue
		}
		if i < len(args) {
			subst[param] = args[i]
			i++
			continue
		}
		switch v := param.(type) {
		case *TemplateParameterType:
			if v.Default != nil {
				subst[param] = &TemplateArg{Type: SubstituteType(v.Default, subst, tmpl, tmpl.Global())}
				continue
			}
		case *Instance:
			if v.Initializer != nil {
				subst[param] = &TemplateArg{Expr: SubstituteExpr(v.Initializer, subst, tmpl, tmpl.Global())}
				continue
			}
		}
		return nil, fmt.Errorf("too few template arguments: missing %q", param.Base().Name())
	}
	if i < len(args) {
		return nil, fmt.Errorf("too many template arguments: expected %d, got %d", i, len(args))
	}
	return subst, nil
}

func isPackParam(d Declaration) bool {
	switch v := d.(type) {
	case *TemplateParameterType:
		return v.Pack
	case *Instance:
		return v.Pack
	}
	return false
}

// Instantiate binds args to the parameters of a template declaration and substitutes
func Instantiate(tmpl Declaration, args []*TemplateArg, global *Scope) (Declaration, error) {
	b := tmpl.Base()
	if b.Template == nil {
		return nil, fmt.Errorf("%s is not a template", b.Name())
	}
	subst, err := BindTemplateArgs(b.Template, args)
	if err != nil {
		return nil, fmt.Errorf("instantiating %s: %w", b.Name(), err)
	}
	return SubstituteDecl(tmpl, subst, b.Scope, global), nil
}

type substituter struct {
	subst    SubstMap
	current  *Scope
	global   *Scope
	interner *Interner
	depth    int
}

func newSubstituter(subst SubstMap, current, global *Scope) *substituter {
	s := &substituter{subst: subst, current: current, global: global}
	if global != nil {
		s.interner = global.Interner()
	} else {
		s.interner = NewInterner()
	}
	return s
}

// SubstituteDecl returns d with template parameters replaced per subst. The original is
// never modified; an unchanged declaration is returned as is. Substituting a Concept
// always yields a Concept.
func SubstituteDecl(d Declaration, subst SubstMap, current, global *Scope) Declaration {
	if d == nil || len(subst) == 0 {
		return d
	}
	return newSubstituter(subst, current, global).decl(d)
}

// SubstituteType returns t with template parameters replaced per subst
func SubstituteType(t Type, subst SubstMap, current, global *Scope) Type {
	if t == nil || len(subst) == 0 {
		return t
	}
	return newSubstituter(subst, current, global).typ(t)
}

// SubstituteExpr returns e with template parameters replaced per subst
func SubstituteExpr(e *Expression, subst SubstMap, current, global *Scope) *Expression {
	if e == nil || len(subst) == 0 {
		return e
	}
	return newSubstituter(subst, current, global).expr(e)
}

func (s *substituter) decl(d Declaration) Declaration {
	switch v := d.(type) {
	case *Concept:
		inst := s.instance(&v.Instance)
		if inst == &v.Instance {
			return v
		}
		return &Concept{Instance: *inst}
	case *Function:
		return s.function(v)
	case *Instance:
		return s.instance(v)
	case *FunctionGroup:
		group := &FunctionGroup{DeclBase: v.DeclBase}
		changed := false
		for _, f := range v.Functions {
			nf := s.function(f)
			changed = changed || nf != f
			group.Functions = append(group.Functions, nf)
		}
		if !changed {
			return v
		}
		return group
	case *StaticAssert:
		cond := s.expr(v.Cond)
		if cond == v.Cond {
			return v
		}
		c := *v
		c.Cond = cond
		return &c
	case Type:
		return s.typ(v)
	}
	return d
}

// specialize drops the template scope of a declaration whose parameters are all bound
// and returns its requires-clause with the arguments substituted. When fold is false
// there is nowhere to keep that clause, so a constrained template scope stays.
func (s *substituter) specialize(b *DeclBase, fold bool) *Expression {
	if b.Template == nil {
		return nil
	}
	for _, p := range b.Template.Params {
		if _, ok := s.subst[p]; !ok {
			return nil
		}
	}
	head := b.Template.Requires
	if head != nil && !fold {
		return nil
	}
	b.Template = nil
	return s.expr(head)
}

func (s *substituter) instance(v *Instance) *Instance {
	inst, _ := s.specializeInstance(v, false)
	return inst
}

func (s *substituter) specializeInstance(v *Instance, fold bool) (*Instance, *Expression) {
	t := s.typ(v.Type)
	init := s.expr(v.Initializer)
	width := s.expr(v.BitWidth)
	if t == v.Type && init == v.Initializer && width == v.BitWidth && !s.binds(v.Template) {
		return v, nil
	}
	c := *v
	c.Type = t
	c.Initializer = init
	c.BitWidth = width
	head := s.specialize(&c.DeclBase, fold)
	return &c, head
}

func (s *substituter) binds(tmpl *Scope) bool {
	if tmpl == nil {
		return false
	}
	for _, p := range tmpl.Params {
		if _, ok := s.subst[p]; ok {
			return true
		}
	}
	return false
}

func (s *substituter) function(f *Function) *Function {
	inst, head := s.specializeInstance(&f.Instance, true)
	req := s.expr(f.Requires)
	if inst == &f.Instance && req == f.Requires {
		return f
	}
	c := *f
	c.Instance = *inst
	c.Requires = req
	// The template head is gone; its constraint goes first in the trailing clause
	if head != nil {
		c.Requires = head
		if req != nil {
			c.Requires = &Expression{Kind: ExprBinary, Op: "&&", X: head, Y: req}
		}
	}
	return &c
}

func (s *substituter) typ(t Type) Type {
	if t == nil {
		return nil
	}
	s.depth++
	defer func() { s.depth-- }()
	if s.depth > maxEvalDepth {
		return t
	}

	switch v := t.(type) {
	case *TemplateParameterType:
		if arg, ok := s.subst[v]; ok && arg.Type != nil {
			return arg.Type
		}
		return v
	case *PointerType:
		pointee := s.typ(v.Pointee)
		member := s.typ(v.MemberOf)
		if pointee == v.Pointee && member == v.MemberOf {
			return v
		}
		if member != nil {
			return &PointerType{Pointee: pointee, MemberOf: member}
		}
		return s.interner.Pointer(pointee)
	case *ReferenceType:
		ref := s.typ(v.Referent)
		if ref == v.Referent {
			return v
		}
		if inner, ok := ref.(*ReferenceType); ok {
			// reference collapsing
			return s.interner.Reference(inner.Referent, inner.RValue && v.RValue)
		}
		return s.interner.Reference(ref, v.RValue)
	case *ConstType:
		inner := s.typ(v.Inner)
		if inner == v.Inner {
			return v
		}
		return s.interner.CV(inner, v.Const, v.Volatile)
	case *ArrayType:
		elem := s.typ(v.Element)
		size := s.expr(v.Size)
		if elem == v.Element && size == v.Size {
			return v
		}
		if n, ok := size.Evaluate(); ok && size != nil && size.Kind != ExprInteger {
			size = NewInteger(fmt.Sprint(n))
		}
		return s.interner.Array(elem, size)
	case *FunctionType:
		return s.functionType(v)
	case *TypedefType:
		aliased := s.typ(v.Aliased)
		if v.Template != nil && s.binds(v.Template) {
			return aliased
		}
		if aliased == v.Aliased {
			return v
		}
		c := *v
		c.Aliased = aliased
		return &c
	case *TemplateIDType:
		args := s.args(v.Args)
		if sameArgs(args, v.Args) {
			return v
		}
		return &TemplateIDType{DeclBase: v.DeclBase, Template: v.Template, Args: args}
	case *TBDType:
		return s.resolveTBD(v)
	case *DecltypeType:
		e := s.expr(v.Expr)
		if e == v.Expr {
			return v
		}
		return &DecltypeType{DeclBase: v.DeclBase, Expr: e}
	case *PackType:
		pattern := s.typ(v.Pattern)
		if pattern == v.Pattern {
			return v
		}
		return &PackType{DeclBase: v.DeclBase, Pattern: pattern}
	case *StructType:
		if v.Template != nil && s.binds(v.Template) {
			return s.instantiateStruct(v)
		}
		return v
	}
	return t
}

func (s *substituter) functionType(v *FunctionType) Type {
	ret := s.typ(v.Return)
	noexcept := s.expr(v.Noexcept)
	changed := ret != v.Return || noexcept != v.Noexcept
	params := make([]*Instance, 0, len(v.Params))
	for _, p := range v.Params {
		if p.Pack {
			if pack := s.packOf(p.Type); pack != nil {
				for i, elem := range pack.Elems {
					np := *p
					np.Pack = false
					np.Type = elem.Type
					if p.Name() != "" {
						np.Ident = NewIdentifier(fmt.Sprintf("%s%d", p.Name(), i))
					}
					params = append(params, &np)
				}
				changed = true
				continue
			}
		}
		np := s.instance(p)
		changed = changed || np != p
		params = append(params, np)
	}
	if !changed {
		return v
	}
	c := *v
	c.Return = ret
	c.Noexcept = noexcept
	c.Params = params
	return &c
}

// packOf returns the bound pack mentioned by a pack-expansion pattern
func (s *substituter) packOf(t Type) *TemplateArg {
	switch v := t.(type) {
	case *TemplateParameterType:
		if arg, ok := s.subst[v]; ok && arg.Elems != nil {
			return arg
		}
	case *PackType:
		return s.packOf(v.Pattern)
	case *PointerType:
		return s.packOf(v.Pointee)
	case *ReferenceType:
		return s.packOf(v.Referent)
	case *ConstType:
		return s.packOf(v.Inner)
	}
	return nil
}

// resolveTBD looks a dependent name up again once its leading parameter is bound
func (s *substituter) resolveTBD(v *TBDType) Type {
	if v.Ident == nil || len(v.Ident.Names) < 2 {
		return v
	}
	var scope *Scope
	first := v.Ident.Names[0].Name
	for p, arg := range s.subst {
		if p.Base().Name() == first && arg.Type != nil {
			scope = ScopeOf(arg.Type)
			break
		}
	}
	if scope == nil {
		return v
	}
	var d Declaration
	for _, n := range v.Ident.Names[1:] {
		if scope == nil {
			return v
		}
		d = scope.LookupMember(n.Name)
		scope = ScopeOf(d)
	}
	if t, ok := d.(Type); ok {
		return t
	}
	return v
}

// instantiateStruct copies a class template with its members substituted
func (s *substituter) instantiateStruct(v *StructType) Type {
	c := *v
	c.Template = nil
	c.Specializations = nil
	c.Primary = v
	name := v.Name()
	args := make([]*TemplateArg, 0, len(v.Template.Params))
	for _, p := range v.Template.Params {
		if arg, ok := s.subst[p]; ok {
			args = append(args, arg)
		}
	}
	c.Ident = &Identifier{Names: []NameComponent{{Name: name, Args: args, HasArgs: true}}}
	if v.Members != nil {
		members := NewScope(name, ScopeClass, v.Members.Parent)
		members.Owner = &c
		for _, d := range v.Members.Declarations() {
			nd := s.decl(d)
			if nd == d {
				// shared members keep their original scope
				members.decls = append(members.decls, d)
				members.Import(d.Base().Name(), d)
				continue
			}
			members.Add(nd)
		}
		c.Members = members
	}
	bases := make([]BaseSpecifier, len(v.Bases))
	for i, b := range v.Bases {
		b.Type = s.typ(b.Type)
		bases[i] = b
	}
	c.Bases = bases
	return &c
}

func (s *substituter) args(args []*TemplateArg) []*TemplateArg {
	out := make([]*TemplateArg, 0, len(args))
	for _, a := range args {
		if a.Pack {
			var pack *TemplateArg
			if a.Type != nil {
				pack = s.packOf(a.Type)
			} else if a.Expr != nil && a.Expr.Kind == ExprVariable {
				if arg, ok := s.subst[a.Expr.Decl]; ok && arg.Elems != nil {
					pack = arg
				}
			}
			if pack != nil {
				out = append(out, pack.Elems...)
				continue
			}
		}
		na := &TemplateArg{Pack: a.Pack, Elems: a.Elems}
		if a.Type != nil {
			na.Type = s.typ(a.Type)
		}
		if a.Expr != nil {
			na.Expr = s.expr(a.Expr)
			if na.Expr.Kind == ExprTypeName && na.Type == nil {
				na.Type, na.Expr = na.Expr.Type, nil
			}
		}
		if na.Type == a.Type && na.Expr == a.Expr {
			na = a
		}
		out = append(out, na)
	}
	return out
}

func sameArgs(a, b []*TemplateArg) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (s *substituter) exprs(list []*Expression) ([]*Expression, bool) {
	if list == nil {
		return nil, false
	}
	out := make([]*Expression, len(list))
	changed := false
	for i, e := range list {
		out[i] = s.expr(e)
		changed = changed || out[i] != e
	}
	return out, changed
}

func (s *substituter) expr(e *Expression) *Expression {
	if e == nil {
		return nil
	}
	s.depth++
	defer func() { s.depth-- }()
	if s.depth > maxEvalDepth {
		return e
	}

	switch e.Kind {
	case ExprVariable:
		if arg, ok := s.subst[e.Decl]; ok {
			switch {
			case arg.Expr != nil:
				return arg.Expr
			case arg.Type != nil:
				return &Expression{Kind: ExprTypeName, Type: arg.Type}
			}
		}
	case ExprTypeName:
		if tp, ok := e.Type.(*TemplateParameterType); ok {
			if arg, bound := s.subst[tp]; bound && arg.Expr != nil {
				return arg.Expr
			}
		}
	case ExprSizeofPack:
		if arg, ok := s.subst[e.Decl]; ok && arg.Elems != nil {
			return NewInteger(fmt.Sprint(len(arg.Elems)))
		}
	case ExprFold:
		if expanded := s.expandFold(e); expanded != nil {
			return expanded
		}
	}

	c := *e
	changed := false
	c.X, c.Y, c.Z = s.expr(e.X), s.expr(e.Y), s.expr(e.Z)
	changed = c.X != e.X || c.Y != e.Y || c.Z != e.Z
	if args, ok := s.exprs(e.Args); ok {
		c.Args, changed = args, true
	}
	if e.Type != nil {
		c.Type = s.typ(e.Type)
		changed = changed || c.Type != e.Type
	}
	if e.TemplateArgs != nil {
		c.TemplateArgs = s.args(e.TemplateArgs)
		changed = changed || !sameArgs(c.TemplateArgs, e.TemplateArgs)
	}
	if e.Requirements != nil {
		reqs := make([]*Requirement, len(e.Requirements))
		for i, r := range e.Requirements {
			nr := *r
			nr.Expr = s.expr(r.Expr)
			nr.Type = s.typ(r.Type)
			nr.Constraint = s.expr(r.Constraint)
			if nr.Expr != r.Expr || nr.Type != r.Type || nr.Constraint != r.Constraint {
				changed = true
				reqs[i] = &nr
			} else {
				reqs[i] = r
			}
		}
		c.Requirements = reqs
	}
	if !changed {
		return e
	}
	return &c
}

// expandFold expands a fold over a bound parameter pack into a chain of binary operations
func (s *substituter) expandFold(e *Expression) *Expression {
	pack := s.findPack(e.X)
	if pack == nil {
		return nil
	}
	param, arg := pack.param, pack.arg
	operands := make([]*Expression, 0, len(arg.Elems))
	for _, elem := range arg.Elems {
		single := make(SubstMap, len(s.subst))
		for k, v := range s.subst {
			single[k] = v
		}
		single[param] = elem
		operands = append(operands, newSubstituter(single, s.current, s.global).expr(e.X))
	}
	if e.Y != nil {
		init := s.expr(e.Y)
		if e.FoldLeft {
			operands = append([]*Expression{init}, operands...)
		} else {
			operands = append(operands, init)
		}
	}
	if len(operands) == 0 {
		switch e.Op {
		case "&&":
			return NewBool(true)
		case "||":
			return NewBool(false)
		}
		return &Expression{Kind: ExprUnknown, Text: "void()"}
	}
	if e.FoldLeft {
		acc := operands[0]
		for _, o := range operands[1:] {
			acc = &Expression{Kind: ExprBinary, Op: e.Op, X: acc, Y: o}
		}
		return acc
	}
	acc := operands[len(operands)-1]
	for i := len(operands) - 2; i >= 0; i-- {
		acc = &Expression{Kind: ExprBinary, Op: e.Op, X: operands[i], Y: acc}
	}
	return acc
}

type boundPack struct {
	param Declaration
	arg   *TemplateArg
}

// findPack locates a bound parameter pack mentioned in a fold operand
func (s *substituter) findPack(e *Expression) *boundPack {
	if e == nil {
		return nil
	}
	if arg, ok := s.subst[e.Decl]; ok && e.Decl != nil && arg.Elems != nil {
		return &boundPack{e.Decl, arg}
	}
	if e.Type != nil {
		if tp, ok := e.Type.(*TemplateParameterType); ok {
			if arg, bound := s.subst[tp]; bound && arg.Elems != nil {
				return &boundPack{tp, arg}
			}
		}
	}
	for _, a := range e.TemplateArgs {
		if tp, ok := a.Type.(*TemplateParameterType); ok {
			if arg, bound := s.subst[tp]; bound && arg.Elems != nil {
				return &boundPack{tp, arg}
			}
		}
		if bp := s.findPack(a.Expr); bp != nil {
			return bp
		}
	}
	for _, sub := range []*Expression{e.X, e.Y, e.Z} {
		if bp := s.findPack(sub); bp != nil {
			return bp
		}
	}
	for _, a := range e.Args {
		if bp := s.findPack(a); bp != nil {
			return bp
		}
	}
	return nil
}
