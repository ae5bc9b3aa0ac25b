package parser

import (
	"strings"
	"testing"

	"cppparser/pkg/ast"
	"cppparser/pkg/diag"
)

// parseSource parses content and fails the test when the parse could not complete
func parseSource(t *testing.T, content string) *ast.ScopeTree {
	t.Helper()
	parser := New()
	tree, err := parser.Parse("test.hpp", content)
	if err != nil {
		t.Fatalf("Failed to parse: %v", err)
	}
	return tree
}

func errorsOf(tree *ast.ScopeTree) []*diag.Diagnostic {
	var errs []*diag.Diagnostic
	for _, d := range tree.Diagnostics {
		if d.Severity >= diag.Error {
			errs = append(errs, d)
		}
	}
	return errs
}

func expectNoErrors(t *testing.T, tree *ast.ScopeTree) {
	t.Helper()
	for _, d := range errorsOf(tree) {
		t.Errorf("unexpected diagnostic: %v", d)
	}
}

func lookupFunction(t *testing.T, scope *ast.Scope, name string) *ast.Function {
	t.Helper()
	group, ok := scope.LookupLocal(name).(*ast.FunctionGroup)
	if !ok || len(group.Functions) == 0 {
		t.Fatalf("Expected function %s, got %T", name, scope.LookupLocal(name))
	}
	return group.Functions[0]
}

func TestBasicNamespaceParsing(t *testing.T) {
	content := `namespace TestNamespace {
    class TestClass {
    public:
        void publicMethod();
    private:
        int privateField;
    };
}`

	tree := parseSource(t, content)
	expectNoErrors(t, tree)

	// Should have 1 namespace at root level
	if len(tree.Declarations()) != 1 {
		t.Errorf("Expected 1 root declaration, got %d", len(tree.Declarations()))
	}

	ns, ok := tree.Global.LookupLocal("TestNamespace").(*ast.Namespace)
	if !ok {
		t.Fatalf("Expected namespace TestNamespace, got %T", tree.Global.LookupLocal("TestNamespace"))
	}

	class, ok := ns.Members.LookupLocal("TestClass").(*ast.StructType)
	if !ok || class.Kind != ast.KindClass {
		t.Fatalf("Expected class TestClass, got %T", ns.Members.LookupLocal("TestClass"))
	}
	if class.QualifiedName() != "::TestNamespace::TestClass" {
		t.Errorf("QualifiedName = %q", class.QualifiedName())
	}

	members := class.Members.Declarations()
	if len(members) != 2 {
		t.Fatalf("Expected 2 members in class, got %d", len(members))
	}
	if members[0].Base().Vis != ast.VisibilityPublic {
		t.Errorf("Expected public method, got %s", members[0].Base().Vis)
	}
	if members[1].Base().Vis != ast.VisibilityPrivate {
		t.Errorf("Expected private field, got %s", members[1].Base().Vis)
	}
	if tree.FindDeclaration("TestNamespace::TestClass::privateField") != members[1] {
		t.Error("FindDeclaration did not find the private field")
	}
}

func TestClassMembers(t *testing.T) {
	content := `struct Base {
    virtual ~Base();
    virtual int size() const = 0;
};

class Derived : public Base {
public:
    Derived() : count_(0) {}
    ~Derived() override;
    int size() const override { return count_; }
    explicit operator bool() const;
    Derived& operator+=(int n);
    static int instances;
private:
    int count_;
    unsigned flags : 3;
};`

	tree := parseSource(t, content)
	expectNoErrors(t, tree)

	base, ok := tree.FindDeclaration("Base").(*ast.StructType)
	if !ok {
		t.Fatal("Base not found")
	}
	if fn := lookupFunction(t, base.Members, "size"); fn.Flags&ast.FunctionPure == 0 {
		t.Error("Expected Base::size to be pure")
	}

	derived, ok := tree.FindDeclaration("Derived").(*ast.StructType)
	if !ok {
		t.Fatal("Derived not found")
	}
	if len(derived.Bases) != 1 || derived.Bases[0].Type != base || derived.Bases[0].Access != ast.VisibilityPublic {
		t.Errorf("Unexpected bases %+v", derived.Bases)
	}

	kinds := make(map[ast.FunctionKind]int)
	for _, d := range derived.Members.Declarations() {
		if fn := ast.AsFunction(d); fn != nil {
			kinds[fn.Kind]++
		}
	}
	for _, kind := range []ast.FunctionKind{ast.FunctionConstructor, ast.FunctionDestructor, ast.FunctionConversion, ast.FunctionOperator} {
		if kinds[kind] != 1 {
			t.Errorf("Expected one function of kind %d, got %d", kind, kinds[kind])
		}
	}

	if dtor := lookupFunction(t, derived.Members, "~Derived"); dtor.Flags&ast.FunctionOverride == 0 {
		t.Error("Expected ~Derived to be override")
	}

	count, ok := derived.Members.LookupLocal("count_").(*ast.Instance)
	if !ok || count.Vis != ast.VisibilityPrivate {
		t.Fatalf("Expected private count_, got %T", derived.Members.LookupLocal("count_"))
	}

	// the body refers to a member declared after it
	size := lookupFunction(t, derived.Members, "size")
	if size.Body == nil || len(size.Body.Stmts) != 1 {
		t.Fatal("Expected size to have a body with one statement")
	}
	ret := size.Body.Stmts[0]
	if ret.Kind != ast.StmtReturn || ret.Expr == nil || ret.Expr.Kind != ast.ExprVariable || ret.Expr.Decl != count {
		t.Errorf("Expected return of count_, got %+v", ret)
	}

	instances, ok := derived.Members.LookupLocal("instances").(*ast.Instance)
	if !ok || instances.Storage&ast.StorageStatic == 0 {
		t.Error("Expected static member instances")
	}
	flags, ok := derived.Members.LookupLocal("flags").(*ast.Instance)
	if !ok || flags.BitWidth == nil {
		t.Fatal("Expected bit-field flags")
	}
	if width, ok := flags.BitWidth.Evaluate(); !ok || width != 3 {
		t.Errorf("Expected bit width 3, got %d", width)
	}
}

func TestEnumerations(t *testing.T) {
	content := `enum Color { Red, Green = 5, Blue };
enum class Mode : unsigned char { Read = 1 << 0, Write = 1 << 1 };
int palette[Blue + 1];`

	tree := parseSource(t, content)
	expectNoErrors(t, tree)

	color, ok := tree.FindDeclaration("Color").(*ast.EnumType)
	if !ok || color.Scoped || len(color.Values) != 3 {
		t.Fatalf("Unexpected enum Color: %+v", tree.FindDeclaration("Color"))
	}

	tests := []struct {
		name  string
		scope *ast.Scope
		want  int64
	}{
		{"Red", tree.Global, 0},
		{"Green", tree.Global, 5},
		{"Blue", tree.Global, 6},
		{"Write", tree.FindDeclaration("Mode").(*ast.EnumType).Members, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, ok := tt.scope.LookupLocal(tt.name).(*ast.Instance)
			if !ok {
				t.Fatalf("enumerator %s not found", tt.name)
			}
			ref := &ast.Expression{Kind: ast.ExprVariable, Decl: v}
			if got, ok := ref.Evaluate(); !ok || got != tt.want {
				t.Errorf("%s = %d (ok=%v), want %d", tt.name, got, ok, tt.want)
			}
		})
	}

	// scoped enumerators stay in their enumeration
	if tree.Global.LookupLocal("Read") != nil {
		t.Error("Read should not be visible at global scope")
	}

	palette, ok := tree.Global.LookupLocal("palette").(*ast.Instance)
	if !ok {
		t.Fatal("palette not found")
	}
	arr, ok := palette.Type.(*ast.ArrayType)
	if !ok {
		t.Fatalf("Expected array type, got %T", palette.Type)
	}
	if n, ok := arr.Size.Evaluate(); !ok || n != 7 {
		t.Errorf("Expected array size 7, got %d", n)
	}
}

func TestNamespaces(t *testing.T) {
	content := `namespace outer { int first; }
namespace outer { int second; }
namespace outer::inner { int deep; }
namespace { int hidden; }
inline namespace v1 { int versioned; }
namespace shortcut = outer::inner;
using namespace outer;
int use = second;`

	tree := parseSource(t, content)
	expectNoErrors(t, tree)

	outer, ok := tree.Global.LookupLocal("outer").(*ast.Namespace)
	if !ok {
		t.Fatal("outer not found")
	}
	for _, name := range []string{"first", "second", "inner"} {
		if outer.Members.LookupLocal(name) == nil {
			t.Errorf("Expected %s in the reopened namespace", name)
		}
	}
	if tree.FindDeclaration("outer::inner::deep") == nil {
		t.Error("nested namespace member not found")
	}
	if tree.Global.Lookup("hidden", false) == nil {
		t.Error("anonymous namespace members should be visible in the enclosing scope")
	}
	if tree.Global.LookupMember("versioned") == nil {
		t.Error("inline namespace members should be visible in the enclosing scope")
	}

	alias, ok := tree.Global.LookupLocal("shortcut").(*ast.Namespace)
	if !ok || alias.Alias == nil || alias.Alias.Name() != "inner" {
		t.Errorf("Expected alias of inner, got %+v", tree.Global.LookupLocal("shortcut"))
	}

	use, ok := tree.Global.LookupLocal("use").(*ast.Instance)
	if !ok || use.Initializer == nil {
		t.Fatal("use not found")
	}
	if use.Initializer.Decl != outer.Members.LookupLocal("second") {
		t.Error("use should be initialized from outer::second")
	}
}

func TestUsingAndTypedefs(t *testing.T) {
	content := `namespace lib { struct Widget {}; }
using lib::Widget;
using Size = unsigned long;
typedef int (*Callback)(int);
Widget w;`

	tree := parseSource(t, content)
	expectNoErrors(t, tree)

	widget := tree.FindDeclaration("lib::Widget")
	if widget == nil {
		t.Fatal("lib::Widget not found")
	}
	if tree.Global.LookupLocal("Widget") != widget {
		t.Error("using-declaration should import lib::Widget")
	}

	size, ok := tree.Global.LookupLocal("Size").(*ast.TypedefType)
	if !ok || !size.UsingSyntax {
		t.Fatalf("Expected alias declaration Size, got %T", tree.Global.LookupLocal("Size"))
	}
	if st, ok := size.Aliased.(*ast.SimpleType); !ok || st.Flags&ast.FlagUnsigned == 0 || st.Flags&ast.FlagLong == 0 {
		t.Errorf("Expected unsigned long, got %+v", size.Aliased)
	}

	callback, ok := tree.Global.LookupLocal("Callback").(*ast.TypedefType)
	if !ok {
		t.Fatal("Callback not found")
	}
	ptr, ok := callback.Aliased.(*ast.PointerType)
	if !ok {
		t.Fatalf("Expected pointer type, got %T", callback.Aliased)
	}
	if ft, ok := ptr.Pointee.(*ast.FunctionType); !ok || len(ft.Params) != 1 {
		t.Errorf("Expected pointer to function of one parameter, got %T", ptr.Pointee)
	}

	w := tree.Global.LookupLocal("w")
	if got := ast.Format(w, tree.Global); got != "struct lib::Widget w" {
		t.Errorf("Format(w) = %q", got)
	}
}

func TestTemplates(t *testing.T) {
	content := `template <typename T, int N = 4>
struct Array {
    T data[N];
    int size() const { return N; }
};

template <>
struct Array<bool, 1> {};

template <class T>
T max_of(T a, T b);`

	tree := parseSource(t, content)
	expectNoErrors(t, tree)

	array, ok := tree.FindDeclaration("Array").(*ast.StructType)
	if !ok {
		t.Fatal("Array not found")
	}
	if !array.IsTemplate() || len(array.Template.Params) != 2 {
		t.Fatalf("Expected template with 2 parameters")
	}
	if len(array.Specializations) != 1 || array.Specializations[0].Primary != array {
		t.Errorf("Expected one specialization of Array, got %d", len(array.Specializations))
	}

	fn := lookupFunction(t, tree.Global, "max_of")
	if !fn.IsTemplate() {
		t.Error("max_of should be a function template")
	}
}

func TestStatements(t *testing.T) {
	content := `int total(int n) {
    int sum = 0;
    for (int i = 0; i < n; ++i) {
        if (i % 2 == 0) continue;
        sum += i;
    }
    while (n > 0) { --n; }
    switch (n) { case 0: break; default: return -1; }
    return sum;
}`

	tree := parseSource(t, content)
	expectNoErrors(t, tree)

	fn := lookupFunction(t, tree.Global, "total")
	if fn.Body == nil {
		t.Fatal("total has no body")
	}

	want := []ast.StmtKind{ast.StmtDecl, ast.StmtFor, ast.StmtWhile, ast.StmtSwitch, ast.StmtReturn}
	stmts := fn.Body.Stmts
	if len(stmts) != len(want) {
		t.Fatalf("Expected %d statements, got %d", len(want), len(stmts))
	}
	for i, kind := range want {
		if stmts[i].Kind != kind {
			t.Errorf("statement %d: got kind %d, want %d", i, stmts[i].Kind, kind)
		}
	}

	sum := stmts[0].Decls[0]
	ret := stmts[4]
	if ret.Expr == nil || ret.Expr.Decl != sum {
		t.Error("return should refer to the local sum")
	}
	if tree.Global.LookupLocal("sum") != nil {
		t.Error("local variables must not leak into the global scope")
	}
}

func TestErrorRecovery(t *testing.T) {
	content := `int a = ;
int b;
struct S {
    int ok1;
    int bad = ;
    int ok2;
};
int after;`

	tree := parseSource(t, content)

	if errs := errorsOf(tree); len(errs) != 2 {
		t.Fatalf("Expected 2 errors, got %d: %v", len(errs), errs)
	}

	decls := tree.Declarations()
	if _, ok := decls[0].(*ast.ErrorDecl); !ok {
		t.Errorf("Expected an error declaration first, got %T", decls[0])
	}
	for _, name := range []string{"b", "after"} {
		if tree.Global.LookupLocal(name) == nil {
			t.Errorf("Expected %s to be parsed after recovery", name)
		}
	}

	s, ok := tree.FindDeclaration("S").(*ast.StructType)
	if !ok {
		t.Fatal("S not found")
	}
	errorDecls := 0
	for _, d := range s.Members.Declarations() {
		if _, ok := d.(*ast.ErrorDecl); ok {
			errorDecls++
		}
	}
	if errorDecls != 1 {
		t.Errorf("Expected 1 error declaration in S, got %d", errorDecls)
	}
	for _, name := range []string{"ok1", "ok2"} {
		if s.Members.LookupLocal(name) == nil {
			t.Errorf("Expected member %s", name)
		}
	}
}

func TestDoxygenComments(t *testing.T) {
	content := `/**
 * Adds two numbers
 * @param a first operand
 * @return the sum
 */
int add(int a, int b);

struct Point {
    /// horizontal position
    int x;
    int y; ///< vertical position
};`

	tree := parseSource(t, content)
	expectNoErrors(t, tree)

	add := lookupFunction(t, tree.Global, "add")
	if add.Comment == nil {
		t.Fatal("add has no comment")
	}
	if add.Comment.Brief != "Adds two numbers" || add.Comment.Params["a"] != "first operand" || add.Comment.Returns != "the sum" {
		t.Errorf("Unexpected comment %+v", add.Comment)
	}

	point := tree.FindDeclaration("Point").(*ast.StructType)
	tests := []struct {
		member string
		brief  string
	}{
		{"x", "horizontal position"},
		{"y", "vertical position"},
	}
	for _, tt := range tests {
		d := point.Members.LookupLocal(tt.member)
		if d == nil || d.Base().Comment == nil {
			t.Errorf("%s has no comment", tt.member)
			continue
		}
		if d.Base().Comment.Brief != tt.brief {
			t.Errorf("%s: brief = %q, want %q", tt.member, d.Base().Comment.Brief, tt.brief)
		}
	}
}

func TestPublishedVisibility(t *testing.T) {
	content := `class Form {
__begin_publish
public:
    int Caption;
__end_publish
    int Other;
};`

	tree := parseSource(t, content)
	expectNoErrors(t, tree)

	form := tree.FindDeclaration("Form").(*ast.StructType)
	tests := []struct {
		member string
		want   ast.Visibility
	}{
		{"Caption", ast.VisibilityPublished},
		{"Other", ast.VisibilityPublic},
	}
	for _, tt := range tests {
		if got := form.Members.LookupLocal(tt.member).Base().Vis; got != tt.want {
			t.Errorf("%s: visibility %s, want %s", tt.member, got, tt.want)
		}
	}
}

func TestUnknownNames(t *testing.T) {
	content := `Unknown value;
int x = missing_value;`

	tree := parseSource(t, content)
	expectNoErrors(t, tree)

	value, ok := tree.Global.LookupLocal("value").(*ast.Instance)
	if !ok {
		t.Fatal("value not found")
	}
	if _, ok := value.Type.(*ast.TBDType); !ok {
		t.Errorf("Expected an unresolved type, got %T", value.Type)
	}

	warned := false
	for _, d := range tree.Diagnostics {
		if d.Severity == diag.Warning && strings.Contains(d.Message, "Unknown") {
			warned = true
		}
	}
	if !warned {
		t.Error("Expected a warning naming the unknown type")
	}

	x := tree.Global.LookupLocal("x").(*ast.Instance)
	if x.Initializer == nil || x.Initializer.Kind != ast.ExprUnknown {
		t.Errorf("Expected unresolved initializer, got %+v", x.Initializer)
	}
}

func TestNestingLimit(t *testing.T) {
	content := "int x = " + strings.Repeat("(", 40) + "1" + strings.Repeat(")", 40) + ";"

	parser := NewWithConfig(Config{MaxNesting: 16})
	tree, err := parser.Parse("deep.hpp", content)
	if err == nil && len(errorsOf(tree)) == 0 {
		t.Error("Expected the nesting limit to be reported")
	}
}
