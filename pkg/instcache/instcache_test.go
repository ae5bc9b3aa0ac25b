package instcache

import (
	"strings"
	"sync"
	"testing"

	"cppparser/pkg/ast"
	"cppparser/pkg/diag"
	"cppparser/pkg/parser"
)

const templatesSource = `template<class T, int N> struct Array { T data[N]; };
template<class T> using Vec = Array<T, 4>;
template<typename T> concept Small = sizeof(T) <= 8;
template<typename T> concept Big = sizeof(T) > 8;
template<class T> requires Small<T> void narrow(T) requires Small<T*>;

Vec<int> a;
Vec<int> b;
Array<char, 2> c;
bool small = Small<int>;
bool big = Big<int>;
int plain;
`

func parseTree(t *testing.T) *ast.ScopeTree {
	t.Helper()
	tree, err := parser.New().Parse("templates.hpp", templatesSource)
	if err != nil {
		t.Fatalf("Failed to parse: %v", err)
	}
	for _, d := range tree.Diagnostics {
		if d.Severity >= diag.Error {
			t.Fatalf("unexpected diagnostic: %v", d)
		}
	}
	return tree
}

func TestCollect(t *testing.T) {
	tree := parseTree(t)
	cache := Collect(tree, nil)

	uses := make(map[string]int)
	for _, inst := range cache.Instantiations() {
		uses[inst.Name] = inst.Uses
	}

	tests := []struct {
		name string
		uses int
	}{
		{"::Vec<int>", 2},
		{"::Array<char, 2>", 1},
		{"::Small<int>", 1},
		{"::Big<int>", 1},
	}
	for _, tt := range tests {
		if uses[tt.name] != tt.uses {
			t.Errorf("%s used %d times, want %d (have %v)", tt.name, uses[tt.name], tt.uses, uses)
		}
	}

	stats := cache.Stats()
	if stats.Entries != len(tests) || stats.Hits != 1 || stats.Misses != len(tests) {
		t.Errorf("Stats() = %+v", stats)
	}
}

func TestInstantiateMemoizes(t *testing.T) {
	tree := parseTree(t)
	cache := New(tree.Global, nil)
	vec := tree.Global.LookupLocal("Vec")
	if vec == nil {
		t.Fatal("Vec not found")
	}

	args := []*ast.TemplateArg{{Type: tree.Interner.Simple(ast.KindInt, 0)}}
	first, err := cache.Instantiate(vec, args)
	if err != nil {
		t.Fatalf("Instantiate failed: %v", err)
	}
	if first.Base().Template != nil {
		t.Error("instantiation should not be a template")
	}
	if got := ast.Format(first, tree.Global); !strings.Contains(got, "int") {
		t.Errorf("instantiation %q does not mention the argument", got)
	}

	// an equal argument list written separately hits the same entry
	second, err := cache.Instantiate(vec, []*ast.TemplateArg{{Type: tree.Interner.Simple(ast.KindInt, 0)}})
	if err != nil || second != first {
		t.Errorf("second Instantiate returned %v, %v; want the cached result", second, err)
	}
	if stats := cache.Stats(); stats.Hits != 1 || stats.Entries != 1 {
		t.Errorf("Stats() = %+v", stats)
	}
}

func TestInstantiateNonTemplate(t *testing.T) {
	tree := parseTree(t)
	cache := New(tree.Global, nil)
	plain := tree.Global.LookupLocal("plain")

	for i := 0; i < 2; i++ {
		if _, err := cache.Instantiate(plain, nil); err == nil {
			t.Errorf("call %d: expected an error for a non-template", i)
		}
	}
}

func TestSatisfies(t *testing.T) {
	tree := parseTree(t)
	cache := New(tree.Global, nil)
	intArg := []*ast.TemplateArg{{Type: tree.Interner.Simple(ast.KindInt, 0)}}

	tests := []struct {
		concept string
		want    bool
	}{
		{"Small", true},
		{"Big", false},
	}
	for _, tt := range tests {
		c, ok := tree.Global.LookupLocal(tt.concept).(*ast.Concept)
		if !ok {
			t.Fatalf("%s is not a concept", tt.concept)
		}
		for i := 0; i < 2; i++ {
			value, known := cache.Satisfies(c, intArg)
			if !known || value != tt.want {
				t.Errorf("%s<int> = %v (known=%v), want %v", tt.concept, value, known, tt.want)
			}
		}
	}
	if stats := cache.Stats(); stats.Hits != 2 || stats.Entries != 2 {
		t.Errorf("Stats() = %+v", stats)
	}
}

func TestName(t *testing.T) {
	tree := parseTree(t)
	array := tree.Global.LookupLocal("Array")
	args := []*ast.TemplateArg{
		{Type: tree.Interner.Simple(ast.KindChar, 0)},
		{Expr: &ast.Expression{Kind: ast.ExprInteger, Text: "2"}},
	}
	if got := Name(array, args); got != "::Array<char, 2>" {
		t.Errorf("Name() = %q", got)
	}
}

func TestInstantiateConcurrent(t *testing.T) {
	tree := parseTree(t)
	cache := New(tree.Global, nil)
	vec := tree.Global.LookupLocal("Vec")
	small, ok := tree.Global.LookupLocal("Small").(*ast.Concept)
	if vec == nil || !ok {
		t.Fatal("Vec or Small not found")
	}
	args := []*ast.TemplateArg{{Type: tree.Interner.Simple(ast.KindInt, 0)}}

	const workers, rounds = 8, 50
	results := make([][]ast.Declaration, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		w := w
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				d, err := cache.Instantiate(vec, args)
				if err != nil || d == nil {
					t.Errorf("Instantiate returned %v, %v", d, err)
					return
				}
				if value, known := cache.Satisfies(small, args); !known || !value {
					t.Errorf("Small<int> = %v (known=%v)", value, known)
					return
				}
				results[w] = append(results[w], d)
			}
		}()
	}
	wg.Wait()

	first := results[0][0]
	for _, list := range results {
		for _, d := range list {
			if d != first {
				t.Fatal("concurrent callers received different instantiations")
			}
		}
	}
	if stats := cache.Stats(); stats.Entries != 2 || stats.Misses != 2 || stats.Hits != 2*workers*rounds-2 {
		t.Errorf("Stats() = %+v", stats)
	}
}

func TestInstantiateKeepsConstraints(t *testing.T) {
	tree := parseTree(t)
	cache := New(tree.Global, nil)
	group, ok := tree.Global.LookupLocal("narrow").(*ast.FunctionGroup)
	if !ok || len(group.Functions) != 1 {
		t.Fatalf("narrow not found, got %T", tree.Global.LookupLocal("narrow"))
	}

	tests := []struct {
		arg  ast.Type
		want bool
	}{
		{tree.Interner.Simple(ast.KindInt, 0), true},
		{tree.Interner.Simple(ast.KindDouble, ast.FlagLong), false},
	}
	for _, tt := range tests {
		d, err := cache.Instantiate(group.Functions[0], []*ast.TemplateArg{{Type: tt.arg}})
		if err != nil {
			t.Fatalf("Instantiate failed: %v", err)
		}
		fn := ast.AsFunction(d)
		if fn == nil || fn.Template != nil {
			t.Fatalf("expected a specialized function, got %T", d)
		}
		// both the template-head and the trailing clause remain
		c := fn.Constraints()
		if c == nil || c.Kind != ast.ExprBinary || c.Op != "&&" {
			t.Fatalf("constraints = %q", ast.FormatExpr(c, tree.Global))
		}
		if got, ok := c.EvaluateBool(); !ok || got != tt.want {
			t.Errorf("narrow<%s> constraints = %v (ok=%v), want %v", ast.FormatType(tt.arg, "", tree.Global), got, ok, tt.want)
		}
	}
}
