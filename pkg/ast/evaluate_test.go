package ast

import "testing"

func TestParseInteger(t *testing.T) {
	tests := []struct {
		text string
		want int64
		ok   bool
	}{
		{"42", 42, true},
		{"42ull", 42, true},
		{"0x1F", 31, true},
		{"010", 8, true},
		{"0b101", 5, true},
		{"1'000'000", 1000000, true},
		{"0", 0, true},
		{"abc", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseInteger(tt.text)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseInteger(%q) = %d, %v; want %d, %v", tt.text, got, ok, tt.want, tt.ok)
		}
	}
}

func TestEvaluateExpressions(t *testing.T) {
	bin := func(op string, x, y *Expression) *Expression {
		return &Expression{Kind: ExprBinary, Op: op, X: x, Y: y}
	}
	tests := []struct {
		name string
		expr *Expression
		want int64
		ok   bool
	}{
		{"arithmetic", bin("+", NewInteger("2"), bin("*", NewInteger("3"), NewInteger("4"))), 14, true},
		{"comparison", bin("<=", NewInteger("9"), NewInteger("8")), 0, true},
		{"division by zero", bin("/", NewInteger("1"), NewInteger("0")), 0, false},
		{"short circuit", bin("||", NewBool(true), &Expression{Kind: ExprUnknown, Text: "x"}), 1, true},
		{"unknown operand", bin("+", NewInteger("1"), &Expression{Kind: ExprUnknown, Text: "x"}), 0, false},
		{"char", &Expression{Kind: ExprChar, Text: `'\n'`}, 10, true},
		{"conditional", &Expression{Kind: ExprConditional, X: NewBool(false), Y: NewInteger("1"), Z: NewInteger("2")}, 2, true},
		{"not", &Expression{Kind: ExprUnary, Op: "!", X: NewInteger("0")}, 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.expr.Evaluate()
			if ok != tt.ok || (ok && got != tt.want) {
				t.Errorf("Evaluate = %d, %v; want %d, %v", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestSizeOf(t *testing.T) {
	in := NewInterner()
	members := NewScope("S", ScopeClass, nil)
	members.Add(&Instance{DeclBase: DeclBase{Ident: NewIdentifier("c")}, Type: in.Simple(KindChar, 0)})
	members.Add(&Instance{DeclBase: DeclBase{Ident: NewIdentifier("d")}, Type: in.Simple(KindDouble, 0)})
	members.Add(&Instance{DeclBase: DeclBase{Ident: NewIdentifier("s")}, Type: in.Simple(KindInt, 0), Storage: StorageStatic})
	st := &StructType{DeclBase: DeclBase{Ident: NewIdentifier("S")}, Members: members}

	tests := []struct {
		name string
		typ  Type
		want int64
	}{
		{"int", in.Simple(KindInt, 0), 4},
		{"long long", in.Simple(KindInt, FlagLongLong), 8},
		{"pointer", in.Pointer(in.Simple(KindChar, 0)), 8},
		{"array", in.Array(in.Simple(KindInt, FlagShort), NewInteger("5")), 10},
		{"padded struct", st, 16},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SizeOf(tt.typ)
			if !ok || got != tt.want {
				t.Errorf("SizeOf = %d, %v; want %d", got, ok, tt.want)
			}
		})
	}

	if _, ok := SizeOf(&StructType{Incomplete: true}); ok {
		t.Error("incomplete struct has no size")
	}
}

func TestConceptSatisfaction(t *testing.T) {
	f := newFixture()
	small := f.smallType()
	bigMembers := NewScope("Big", ScopeClass, f.global)
	for _, name := range []string{"a", "b"} {
		bigMembers.Add(&Instance{DeclBase: DeclBase{Ident: NewIdentifier(name)}, Type: f.in.Simple(KindDouble, 0)})
	}
	big := &StructType{DeclBase: DeclBase{Ident: NewIdentifier("Big")}, Members: bigMembers}

	tmpl := NewScope("", ScopeTemplate, f.global)
	ts := f.typeParam(tmpl, "Ts", true)
	allSmall := f.concept(tmpl, "AllSmall", &Expression{
		Kind: ExprFold,
		Op:   "&&",
		X:    conceptID(small, &TemplateArg{Type: ts}),
	})

	arg := func(t Type) *TemplateArg { return &TemplateArg{Type: t} }
	tests := []struct {
		name string
		expr *Expression
		want bool
	}{
		{"int is small", conceptID(small, arg(f.in.Simple(KindInt, 0))), true},
		{"struct is big", conceptID(small, arg(big)), false},
		{"fold over small types", conceptID(allSmall, arg(f.in.Simple(KindChar, 0)), arg(f.in.Simple(KindDouble, 0))), true},
		{"fold with a big type", conceptID(allSmall, arg(f.in.Simple(KindChar, 0)), arg(big)), false},
		{"empty fold", conceptID(allSmall), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.expr.EvaluateBool()
			if !ok || got != tt.want {
				t.Errorf("EvaluateBool = %v, %v; want %v", got, ok, tt.want)
			}
		})
	}

	if _, ok := conceptID(small).Evaluate(); ok {
		t.Error("concept-id without arguments should not evaluate")
	}
}

func TestSubstituteConcept(t *testing.T) {
	f := newFixture()
	small := f.smallType()
	subst, err := BindTemplateArgs(small.Template, []*TemplateArg{{Type: f.in.Simple(KindInt, 0)}})
	if err != nil {
		t.Fatal(err)
	}

	got := SubstituteDecl(small, subst, f.global, f.global)
	c, ok := got.(*Concept)
	if !ok {
		t.Fatalf("substituted concept is %T", got)
	}
	if c == small {
		t.Fatal("substitution modified nothing")
	}
	if c.Template != nil {
		t.Error("fully bound concept should no longer be a template")
	}
	if small.Template == nil {
		t.Error("original concept was modified")
	}
	if s := FormatExpr(c.Constraint(), f.global); s != "(sizeof(int) <= 8)" {
		t.Errorf("constraint = %q", s)
	}

	if _, err := BindTemplateArgs(small.Template, nil); err == nil {
		t.Error("missing argument not reported")
	}
	two := []*TemplateArg{{Type: f.in.Simple(KindInt, 0)}, {Type: f.in.Simple(KindChar, 0)}}
	if _, err := BindTemplateArgs(small.Template, two); err == nil {
		t.Error("extra argument not reported")
	}
}

func TestSubstituteDefaults(t *testing.T) {
	f := newFixture()
	tmpl := NewScope("", ScopeTemplate, f.global)
	tp := f.typeParam(tmpl, "T", false)
	u := f.typeParam(tmpl, "U", false)
	u.Default = f.in.Pointer(tp)

	subst, err := BindTemplateArgs(tmpl, []*TemplateArg{{Type: f.in.Simple(KindChar, 0)}})
	if err != nil {
		t.Fatal(err)
	}
	if got := subst[u].Type; got != f.in.Pointer(f.in.Simple(KindChar, 0)) {
		t.Errorf("default U = %s", FormatType(got, "", nil))
	}
}
