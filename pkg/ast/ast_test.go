package ast

import "testing"

type fixture struct {
	global *Scope
	in     *Interner
}

func newFixture() *fixture {
	in := NewInterner()
	return &fixture{global: NewGlobalScope(in), in: in}
}

func (f *fixture) namespace(parent *Scope, name string) *Namespace {
	ns := &Namespace{DeclBase: DeclBase{Ident: NewIdentifier(name)}}
	ns.Members = NewScope(name, ScopeNamespace, parent)
	ns.Members.Owner = ns
	parent.Add(ns)
	return ns
}

func (f *fixture) typeParam(tmpl *Scope, name string, pack bool) *TemplateParameterType {
	tp := &TemplateParameterType{DeclBase: DeclBase{Ident: NewIdentifier(name)}, Index: len(tmpl.Params), Pack: pack}
	tmpl.AddParameter(tp)
	return tp
}

func (f *fixture) concept(tmpl *Scope, name string, init *Expression) *Concept {
	c := &Concept{Instance: Instance{
		DeclBase:    DeclBase{Ident: NewIdentifier(name)},
		Type:        f.in.Simple(KindBool, 0),
		Initializer: init,
	}}
	tmpl.Add(c)
	return c
}

func conceptID(c *Concept, args ...*TemplateArg) *Expression {
	return &Expression{Kind: ExprVariable, Decl: c, Ident: NewIdentifier(c.Name()), TemplateArgs: args, HasTemplate: true}
}

// smallType declares template<typename T> concept SmallType = sizeof(T) <= 8
func (f *fixture) smallType() *Concept {
	tmpl := NewScope("", ScopeTemplate, f.global)
	t := f.typeParam(tmpl, "T", false)
	return f.concept(tmpl, "SmallType", &Expression{
		Kind: ExprBinary,
		Op:   "<=",
		X:    &Expression{Kind: ExprSizeof, Type: t},
		Y:    NewInteger("8"),
	})
}

func TestNamespaceAliasLookup(t *testing.T) {
	f := newFixture()
	a := f.namespace(f.global, "a")
	b := f.namespace(a.Members, "b")
	inner := &Instance{DeclBase: DeclBase{Ident: NewIdentifier("inner_var")}, Type: f.in.Simple(KindInt, 0)}
	b.Members.Add(inner)
	typ := &StructType{DeclBase: DeclBase{Ident: NewIdentifier("Type")}, Incomplete: true}
	b.Members.Add(typ)

	alias := &Namespace{DeclBase: DeclBase{Ident: NewIdentifier("new_name")}, Alias: b}
	f.global.Add(alias)

	if got := f.global.FindSymbol(ParseIdentifier("new_name::inner_var")); got != inner {
		t.Errorf("new_name::inner_var resolved to %v", got)
	}
	if got := f.global.FindType(ParseIdentifier("new_name::Type")); got != typ {
		t.Errorf("new_name::Type resolved to %v", got)
	}
	if got := Format(alias, f.global); got != "namespace new_name = a::b" {
		t.Errorf("alias = %q", got)
	}

	// a directive naming the alias prints the namespace it stands for
	chained := &Namespace{DeclBase: DeclBase{Ident: NewIdentifier("n2")}, Alias: alias}
	f.global.Add(chained)
	for _, target := range []*Namespace{alias, chained} {
		directive := &Using{DeclBase: DeclBase{Ident: NewIdentifier(target.Name())}, Directive: true, Target: target}
		if got := Format(directive, f.global); got != "using namespace a::b" {
			t.Errorf("using namespace %s = %q", target.Name(), got)
		}
	}

	outer := &Instance{
		DeclBase:    DeclBase{Ident: NewIdentifier("outer_var")},
		Type:        typ,
		Initializer: &Expression{Kind: ExprVariable, Decl: inner},
	}
	f.global.Add(outer)
	want := "struct a::b::Type outer_var = ::a::b::inner_var"
	if got := Format(outer, f.global); got != want {
		t.Errorf("outer_var = %q, want %q", got, want)
	}
	if got := Format(outer, b.Members); got != "struct Type outer_var = ::a::b::inner_var" {
		t.Errorf("from a::b: %q", got)
	}
}

func TestScopeLookup(t *testing.T) {
	f := newFixture()
	ns := f.namespace(f.global, "ns")
	v := &Instance{DeclBase: DeclBase{Ident: NewIdentifier("v")}, Type: f.in.Simple(KindInt, 0)}
	ns.Members.Add(v)

	fn := NewScope("", ScopeFunction, ns.Members)
	if got := fn.Lookup("v", true); got != v {
		t.Errorf("recursive lookup = %v", got)
	}
	if got := fn.Lookup("v", false); got != nil {
		t.Errorf("local lookup = %v, want nil", got)
	}

	f.global.AddUsingDirective(ns.Members)
	if got := f.global.Lookup("v", false); got != v {
		t.Errorf("lookup through using-directive = %v", got)
	}

	overload := func() *Function {
		return &Function{Instance: Instance{
			DeclBase: DeclBase{Ident: NewIdentifier("f")},
			Type:     &FunctionType{Return: f.in.Simple(KindVoid, 0)},
		}}
	}
	ns.Members.Add(overload())
	ns.Members.Add(overload())
	group, ok := ns.Members.LookupLocal("f").(*FunctionGroup)
	if !ok || len(group.Functions) != 2 {
		t.Fatalf("overloads not grouped: %v", ns.Members.LookupLocal("f"))
	}
	if got := v.QualifiedName(); got != "::ns::v" {
		t.Errorf("QualifiedName = %q", got)
	}
}

func TestFormatConcepts(t *testing.T) {
	f := newFixture()
	small := f.smallType()

	tests := []struct {
		name string
		decl Declaration
		want string
	}{
		{"sizeof", small, "template<class T> concept SmallType = (sizeof(T) <= 8)"},
	}

	tmpl := NewScope("", ScopeTemplate, f.global)
	t1 := f.typeParam(tmpl, "T", false)
	also := f.concept(tmpl, "AlsoSmall", conceptID(small, &TemplateArg{Type: t1}))
	tests = append(tests, struct {
		name string
		decl Declaration
		want string
	}{"concept-id", also, "template<class T> concept AlsoSmall = ::SmallType"})

	tmpl = NewScope("", ScopeTemplate, f.global)
	t2 := f.typeParam(tmpl, "T", false)
	n := &Instance{DeclBase: DeclBase{Ident: NewIdentifier("N")}, Type: f.in.Simple(KindInt, 0)}
	tmpl.AddParameter(n)
	atLeast := f.concept(tmpl, "SizeAtLeast", &Expression{
		Kind: ExprBinary,
		Op:   ">=",
		X:    &Expression{Kind: ExprSizeof, Type: t2},
		Y:    &Expression{Kind: ExprVariable, Decl: n},
	})
	tests = append(tests, struct {
		name string
		decl Declaration
		want string
	}{"non-type parameter", atLeast, "template<class T, int N> concept SizeAtLeast = (sizeof(T) >= N)"})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Format(tt.decl, f.global); got != tt.want {
				t.Errorf("Format = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatAbbreviatedTemplate(t *testing.T) {
	f := newFixture()
	small := f.smallType()

	tmpl := NewScope("", ScopeTemplate, f.global)
	implicit := &TemplateParameterType{Implicit: true, Constraint: conceptID(small)}
	tmpl.AddParameter(implicit)

	x := &Instance{
		DeclBase: DeclBase{Ident: NewIdentifier("x")},
		Type:     &SimpleType{Kind: KindAuto, Constraint: conceptID(small)},
	}
	fn := &Function{
		Instance: Instance{
			DeclBase: DeclBase{Ident: NewIdentifier("func_auto_param")},
			Type:     &FunctionType{Return: f.in.Simple(KindVoid, 0), Params: []*Instance{x}},
		},
		Implicit: []*TemplateParameterType{implicit},
	}
	tmpl.Add(fn)

	if got := Format(fn, f.global); got != "void func_auto_param(auto x)" {
		t.Errorf("Format = %q", got)
	}
	if !IsTemplate(fn) {
		t.Error("abbreviated function template should carry its template scope")
	}
}

func TestFormatType(t *testing.T) {
	in := NewInterner()
	intT := in.Simple(KindInt, 0)
	charT := in.Simple(KindChar, 0)

	tests := []struct {
		name string
		typ  Type
		want string
	}{
		{"pointer to const", in.Pointer(in.CV(charT, true, false)), "const char *p"},
		{"const pointer", in.CV(in.Pointer(charT), true, false), "char *const p"},
		{"pointer to array", in.Pointer(in.Array(intT, NewInteger("4"))), "int (*p)[4]"},
		{"rvalue reference", in.Reference(intT, true), "int &&p"},
		{"unsigned long", in.Simple(KindInt, FlagUnsigned|FlagLong), "unsigned long int p"},
		{"function pointer", in.Pointer(&FunctionType{Return: intT, Params: []*Instance{{Type: charT}}}), "int (*p)(char)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatType(tt.typ, "p", nil); got != tt.want {
				t.Errorf("FormatType = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInterner(t *testing.T) {
	in := NewInterner()
	intT := in.Simple(KindInt, 0)
	if in.Simple(KindInt, 0) != intT {
		t.Error("simple types not shared")
	}
	if in.Pointer(intT) != in.Pointer(intT) {
		t.Error("pointers not shared")
	}
	if in.CV(in.CV(intT, true, false), false, true) != in.CV(intT, true, true) {
		t.Error("nested cv-qualifiers not merged")
	}
	if in.Array(intT, NewInteger("3")) != in.Array(intT, NewInteger("3")) {
		t.Error("arrays with literal bounds not shared")
	}
	hits, allocated := in.Stats()
	if hits == 0 || allocated == 0 {
		t.Errorf("Stats = %d, %d", hits, allocated)
	}
}

func TestAsQueries(t *testing.T) {
	queries := map[string]func(Declaration) bool{
		"instance":  func(d Declaration) bool { return AsInstance(d) != nil },
		"function":  func(d Declaration) bool { return AsFunction(d) != nil },
		"concept":   func(d Declaration) bool { return AsConcept(d) != nil },
		"group":     func(d Declaration) bool { return AsFunctionGroup(d) != nil },
		"namespace": func(d Declaration) bool { return AsNamespace(d) != nil },
		"using":     func(d Declaration) bool { return AsUsing(d) != nil },
		"type":      func(d Declaration) bool { return AsType(d) != nil },
		"struct":    func(d Declaration) bool { return AsStruct(d) != nil },
		"enum":      func(d Declaration) bool { return AsEnum(d) != nil },
		"typedef":   func(d Declaration) bool { return AsTypedef(d) != nil },
		"tparam":    func(d Declaration) bool { return AsTemplateParameter(d) != nil },
	}

	tests := []struct {
		name    string
		decl    Declaration
		matches []string
	}{
		{"instance", &Instance{}, []string{"instance"}},
		{"function", &Function{}, []string{"instance", "function"}},
		{"concept", &Concept{}, []string{"instance", "concept"}},
		{"function group", &FunctionGroup{}, nil},
		{"namespace", &Namespace{}, []string{"namespace"}},
		{"using", &Using{}, []string{"using"}},
		{"static_assert", &StaticAssert{}, nil},
		{"error", &ErrorDecl{}, nil},
		{"struct", &StructType{}, []string{"type", "struct"}},
		{"enum", &EnumType{}, []string{"type", "enum"}},
		{"typedef", &TypedefType{}, []string{"type", "typedef"}},
		{"template parameter", &TemplateParameterType{}, []string{"type", "tparam"}},
		{"simple", &SimpleType{Kind: KindInt}, []string{"type"}},
		{"pointer", &PointerType{}, []string{"type"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want := make(map[string]bool)
			for _, m := range tt.matches {
				want[m] = true
			}
			for query, is := range queries {
				if got := is(tt.decl); got != want[query] {
					t.Errorf("As %s on %T: non-nil = %v, want %v", query, tt.decl, got, want[query])
				}
			}
		})
	}

	// a Function's Instance view is its embedded Instance, not a copy
	fn := &Function{}
	if AsInstance(fn) != &fn.Instance {
		t.Error("AsInstance(function) does not alias the embedded Instance")
	}
	if AsFunction(nil) != nil || AsType(nil) != nil {
		t.Error("As queries on nil should return nil")
	}
}
