package ast

import "strings"

// ScopeKind identifies what kind of region a Scope represents
type ScopeKind int

const (
	ScopeGlobal ScopeKind = iota
	ScopeNamespace
	ScopeClass
	ScopeEnum
	ScopeTemplate
	ScopePrototype
	ScopeFunction
	ScopeBlock
	ScopeRequires
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeGlobal:
		return "global"
	case ScopeNamespace:
		return "namespace"
	case ScopeClass:
		return "class"
	case ScopeEnum:
		return "enum"
	case ScopeTemplate:
		return "template"
	case ScopePrototype:
		return "prototype"
	case ScopeFunction:
		return "function"
	case ScopeBlock:
		return "block"
	case ScopeRequires:
		return "requires"
	default:
		return "unknown"
	}
}

// Scope is a named region of declarations. It owns its direct declarations in insertion
// order and resolves names through its parent chain and using-directives.
type Scope struct {
	Name   string
	Kind   ScopeKind
	Parent *Scope
	Owner  Declaration // namespace, class, enum or function owning the scope

	// Params and Requires are set on template scopes.
	Params   []Declaration
	Requires *Expression

	decls    []Declaration
	types    map[string]Type
	values   map[string]Declaration
	usings   []*Scope
	interner *Interner
}

// NewGlobalScope creates the root scope of a parse session
func NewGlobalScope(interner *Interner) *Scope {
	s := NewScope("", ScopeGlobal, nil)
	s.interner = interner
	return s
}

// NewScope creates a scope nested in parent
func NewScope(name string, kind ScopeKind, parent *Scope) *Scope {
	return &Scope{
		Name:   name,
		Kind:   kind,
		Parent: parent,
		types:  make(map[string]Type),
		values: make(map[string]Declaration),
	}
}

// Global returns the root scope
func (s *Scope) Global() *Scope {
	for s.Parent != nil {
		s = s.Parent
	}
	return s
}

// Interner returns the type interner of the parse session
func (s *Scope) Interner() *Interner {
	g := s.Global()
	if g.interner == nil {
		g.interner = NewInterner()
	}
	return g.interner
}

// Declarations returns the declarations owned by this scope in insertion order
func (s *Scope) Declarations() []Declaration {
	return s.decls
}

// Add inserts a declaration and returns the declaration now bound to its name. A
// template scope records itself on the declaration and forwards it to its parent.
func (s *Scope) Add(d Declaration) Declaration {
	b := d.Base()
	if s.Kind == ScopeTemplate && s.Parent != nil {
		if b.Template == nil {
			b.Template = s
		}
		return s.Parent.Add(d)
	}
	b.Scope = s
	name := b.Name()
	if name == "" {
		s.decls = append(s.decls, d)
		return d
	}

	switch v := d.(type) {
	case *Function:
		group, ok := s.values[name].(*FunctionGroup)
		if !ok {
			group = &FunctionGroup{DeclBase: DeclBase{Ident: NewIdentifier(name), Scope: s, Vis: b.Vis}}
			s.values[name] = group
		}
		group.Functions = append(group.Functions, v)
	case *Using:
		if !v.Directive && v.Target != nil {
			s.Import(name, v.Target)
		}
	case Type:
		if existing, ok := s.types[name].(*StructType); ok {
			if st, isStruct := v.(*StructType); isStruct && st.Incomplete && !existing.Incomplete && st.Specialization == nil {
				return existing
			}
		}
		if st, isStruct := v.(*StructType); isStruct && st.Specialization != nil {
			// specializations are reached through their primary template
			s.decls = append(s.decls, d)
			return d
		}
		s.types[name] = v
	default:
		s.values[name] = d
	}
	s.decls = append(s.decls, d)
	return d
}

// Import binds name to d without taking ownership, as for enumerators of an unscoped
// enumeration or the target of a using-declaration.
func (s *Scope) Import(name string, d Declaration) {
	if t, ok := d.(Type); ok {
		s.types[name] = t
		return
	}
	s.values[name] = d
}

// AddParameter appends a template or function parameter
func (s *Scope) AddParameter(p Declaration) {
	p.Base().Scope = s
	s.Params = append(s.Params, p)
	name := p.Base().Name()
	if name == "" {
		return
	}
	if t, ok := p.(Type); ok {
		s.types[name] = t
	} else {
		s.values[name] = p
	}
	s.decls = append(s.decls, p)
}

// AddUsingDirective makes the members of other visible from this scope
func (s *Scope) AddUsingDirective(other *Scope) {
	if other == nil || other == s {
		return
	}
	for _, u := range s.usings {
		if u == other {
			return
		}
	}
	s.usings = append(s.usings, other)
}

// LookupLocal finds a name declared directly in this scope. Values shadow types, and a
// class scope finds its own injected class name.
func (s *Scope) LookupLocal(name string) Declaration {
	if d, ok := s.values[name]; ok {
		return d
	}
	if t, ok := s.types[name]; ok {
		return t
	}
	if s.Kind == ScopeClass && s.Owner != nil && s.Owner.Base().Name() == name {
		return s.Owner
	}
	return nil
}

// LookupMember finds a name in this scope, its base classes and its using-directives,
// without consulting enclosing scopes
func (s *Scope) LookupMember(name string) Declaration {
	return s.lookupMember(name, make(map[*Scope]bool))
}

func (s *Scope) lookupMember(name string, seen map[*Scope]bool) Declaration {
	if s == nil || seen[s] {
		return nil
	}
	seen[s] = true
	if d := s.LookupLocal(name); d != nil {
		return d
	}
	if st, ok := s.Owner.(*StructType); ok && s.Kind == ScopeClass {
		for _, base := range st.Bases {
			if bs := ScopeOf(base.Type); bs != nil {
				if d := bs.lookupMember(name, seen); d != nil {
					return d
				}
			}
		}
	}
	for _, u := range s.usings {
		if d := u.lookupMember(name, seen); d != nil {
			return d
		}
	}
	return nil
}

// Lookup finds a name in this scope and, when recurse is set, in the enclosing scopes
func (s *Scope) Lookup(name string, recurse bool) Declaration {
	for sc := s; sc != nil; sc = sc.Parent {
		if d := sc.LookupMember(name); d != nil {
			return d
		}
		if !recurse {
			break
		}
	}
	return nil
}

// LookupType finds the nearest type named name, skipping values that shadow it
func (s *Scope) LookupType(name string) Type {
	for sc := s; sc != nil; sc = sc.Parent {
		if t, ok := sc.types[name]; ok {
			return t
		}
		if sc.Kind == ScopeClass && sc.Owner != nil && sc.Owner.Base().Name() == name {
			if t, ok := sc.Owner.(Type); ok {
				return t
			}
		}
		for _, u := range sc.usings {
			if t, ok := u.LookupMember(name).(Type); ok {
				return t
			}
		}
	}
	return nil
}

// ScopeOf returns the scope members of d are looked up in, following namespace aliases,
// typedefs and template-ids
func ScopeOf(d Declaration) *Scope {
	for i := 0; i < 32 && d != nil; i++ {
		switch v := d.(type) {
		case *Namespace:
			return v.Canonical().Members
		case *StructType:
			return v.Members
		case *EnumType:
			return v.Members
		case *TypedefType:
			if v.Aliased == nil {
				return nil
			}
			d = v.Aliased
		case *TemplateIDType:
			d = v.Template
		case *ConstType:
			d = v.Inner
		default:
			return nil
		}
	}
	return nil
}

// FindScope resolves the qualifier of id, everything but the last component. It returns
// s itself for an unqualified identifier and nil when the qualifier cannot be resolved.
func (s *Scope) FindScope(id *Identifier) *Scope {
	if id == nil || !id.IsScoped() {
		return s
	}
	var cur *Scope
	if id.Global {
		cur = s.Global()
	}
	for _, n := range id.Names[:len(id.Names)-1] {
		var d Declaration
		if cur == nil {
			d = s.Lookup(n.Name, true)
		} else {
			d = cur.LookupMember(n.Name)
		}
		cur = ScopeOf(d)
		if cur == nil {
			return nil
		}
	}
	return cur
}

// FindSymbol resolves a possibly qualified identifier to a declaration
func (s *Scope) FindSymbol(id *Identifier) Declaration {
	if id == nil || len(id.Names) == 0 {
		return nil
	}
	if !id.IsScoped() {
		return s.Lookup(id.Name(), true)
	}
	q := s.FindScope(id)
	if q == nil {
		return nil
	}
	return q.LookupMember(id.Name())
}

// FindType resolves id to a type, or nil when it names something else
func (s *Scope) FindType(id *Identifier) Type {
	if id != nil && !id.IsScoped() {
		return s.LookupType(id.Name())
	}
	t, _ := s.FindSymbol(id).(Type)
	return t
}

// FindTemplate resolves id to a template: a class or alias template, a concept, or a
// function group holding a function template
func (s *Scope) FindTemplate(id *Identifier) Declaration {
	d := s.FindSymbol(id)
	if d == nil {
		return nil
	}
	if g, ok := d.(*FunctionGroup); ok {
		for _, f := range g.Functions {
			if f.Template != nil {
				return g
			}
		}
		return nil
	}
	if d.Base().Template != nil {
		return d
	}
	if tp, ok := d.(*TemplateParameterType); ok && tp.Params != nil {
		return d
	}
	return nil
}

// IsNamed reports whether the scope contributes a component to qualified names
func (s *Scope) IsNamed() bool {
	switch s.Kind {
	case ScopeNamespace, ScopeClass:
		return s.Name != ""
	case ScopeEnum:
		if e, ok := s.Owner.(*EnumType); ok {
			return e.Scoped && s.Name != ""
		}
	}
	return false
}

// IsLocal reports whether declarations of this scope are local to a function,
// prototype or requires-expression
func (s *Scope) IsLocal() bool {
	for sc := s; sc != nil; sc = sc.Parent {
		switch sc.Kind {
		case ScopeFunction, ScopeBlock, ScopePrototype, ScopeRequires:
			return true
		case ScopeTemplate:
			continue
		default:
			return false
		}
	}
	return false
}

// Path returns the names of the enclosing named scopes, outermost first
func (s *Scope) Path() []string {
	var path []string
	for sc := s; sc != nil; sc = sc.Parent {
		if sc.IsNamed() {
			path = append(path, sc.Name)
		}
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// FullyScopedName returns the qualified name of the scope with a leading ::, or "" for
// the global scope
func (s *Scope) FullyScopedName() string {
	path := s.Path()
	if len(path) == 0 {
		return ""
	}
	return "::" + strings.Join(path, "::")
}

// LocalName returns name qualified as needed to be read from vantage: the scopes between
// s and vantage (or the global scope) are prefixed
func (s *Scope) LocalName(name string, vantage *Scope) string {
	var parts []string
	for sc := s; sc != nil && sc != vantage; sc = sc.Parent {
		if sc.Kind == ScopeTemplate {
			continue
		}
		if sc.IsLocal() {
			break
		}
		if sc.IsNamed() {
			parts = append(parts, sc.Name)
		}
	}
	if len(parts) == 0 {
		return name
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, "::") + "::" + name
}

// Encloses reports whether other is s or nested inside s
func (s *Scope) Encloses(other *Scope) bool {
	for sc := other; sc != nil; sc = sc.Parent {
		if sc == s {
			return true
		}
	}
	return false
}
