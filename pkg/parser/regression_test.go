package parser

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cppparser/pkg/ast"
)

// checkLines returns the expected outputs written as "// CHECK: text" in a source file
func checkLines(t *testing.T, content string) []string {
	t.Helper()
	var checks []string
	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if text, ok := strings.CutPrefix(line, "// CHECK:"); ok {
			checks = append(checks, strings.TrimSpace(text))
		}
	}
	return checks
}

// formatAll renders every declaration of scope and of its nested namespaces as seen
// from the global scope
func formatAll(scope, global *ast.Scope, out map[string]bool) {
	for _, d := range scope.Declarations() {
		out[ast.Format(d, global)] = true
		if ns, ok := d.(*ast.Namespace); ok && ns.Alias == nil {
			formatAll(ns.Members, global, out)
		}
	}
}

func TestCorpusChecks(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("testdata", "*"))
	if err != nil {
		t.Fatal(err)
	}
	if len(files) == 0 {
		t.Fatal("no corpus files")
	}

	for _, file := range files {
		t.Run(filepath.Base(file), func(t *testing.T) {
			data, err := os.ReadFile(file)
			if err != nil {
				t.Fatal(err)
			}
			content := string(data)

			parser := New()
			tree, err := parser.Parse(filepath.Base(file), content)
			if err != nil {
				t.Fatalf("Failed to parse %s: %v", file, err)
			}
			for _, d := range errorsOf(tree) {
				t.Errorf("unexpected diagnostic: %v", d)
			}

			formatted := make(map[string]bool)
			formatAll(tree.Global, tree.Global, formatted)
			for _, want := range checkLines(t, content) {
				if !formatted[want] {
					t.Errorf("no declaration formats as %q", want)
				}
			}
		})
	}
}

func TestCorpusDeclarations(t *testing.T) {
	tests := []struct {
		file string
		name string
		want string
	}{
		{"namespace_alias.cxx", "new_name", "namespace new_name = a::b"},
		{"namespace_alias.cxx", "outer_var", "struct a::b::Type outer_var = ::a::b::inner_var"},
		{"recursive_macros.c", "sched_priority", "int sched_priority = 0"},
		{"recursive_macros.c", "__DECL_SIMD_ab", "int __DECL_SIMD_ab"},
		{"recursive_macros.c", "pVfs", "int pVfs = vfsList"},
		{"concepts.h", "AlwaysTrue", "template<class T> concept AlwaysTrue = true"},
		{"concepts.h", "SizeAtLeast", "template<class T, int N> concept SizeAtLeast = (sizeof(T) >= N)"},
		{"concepts.h", "func_auto_param", "void func_auto_param(auto x)"},
	}

	trees := make(map[string]*ast.ScopeTree)
	for _, tt := range tests {
		t.Run(tt.file+"/"+tt.name, func(t *testing.T) {
			tree, ok := trees[tt.file]
			if !ok {
				data, err := os.ReadFile(filepath.Join("testdata", tt.file))
				if err != nil {
					t.Fatal(err)
				}
				tree = parseSource(t, string(data))
				trees[tt.file] = tree
			}

			d := tree.Global.LookupLocal(tt.name)
			if d == nil {
				t.Fatalf("%s not found", tt.name)
			}
			if got := ast.Format(d, tree.Global); got != tt.want {
				t.Errorf("Format(%s) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestConceptsEvaluate(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("testdata", "concepts.h"))
	if err != nil {
		t.Fatal(err)
	}
	tree := parseSource(t, string(data))

	tests := []struct {
		name string
		want bool
	}{
		{"AlwaysTrue", true},
		{"AlwaysFalse", false},
	}
	for _, tt := range tests {
		c, ok := tree.Global.LookupLocal(tt.name).(*ast.Concept)
		if !ok {
			t.Errorf("%s is not a concept", tt.name)
			continue
		}
		if got, ok := c.Initializer.EvaluateBool(); !ok || got != tt.want {
			t.Errorf("%s evaluates to %v (ok=%v), want %v", tt.name, got, ok, tt.want)
		}
	}
}

// Instantiating a constrained function template keeps its template-head requires-clause
// ahead of the trailing one, with the arguments substituted.
func TestInstantiateConstrainedFunction(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("testdata", "concepts.h"))
	if err != nil {
		t.Fatal(err)
	}
	tree := parseSource(t, string(data))
	longDouble := tree.Interner.Simple(ast.KindDouble, ast.FlagLong)
	integer := tree.Interner.Simple(ast.KindInt, 0)

	tests := []struct {
		name      string
		arg       ast.Type
		want      string
		satisfied bool
	}{
		{"func_requires_after_template", longDouble, "::SmallType", false},
		{"func_requires_after_template", integer, "::SmallType", true},
		{"func_both_requires", longDouble, "(::AlwaysTrue && ::SmallType)", false},
		{"func_both_requires", integer, "(::AlwaysTrue && ::SmallType)", true},
		{"func_trailing_requires", longDouble, "::SmallType", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn := lookupFunction(t, tree.Global, tt.name)
			d, err := ast.Instantiate(fn, []*ast.TemplateArg{{Type: tt.arg}}, tree.Global)
			if err != nil {
				t.Fatalf("Instantiate failed: %v", err)
			}
			inst := ast.AsFunction(d)
			if inst == nil || inst.Template != nil {
				t.Fatalf("expected a specialized function, got %T", d)
			}

			constraints := inst.Constraints()
			if got := ast.FormatExpr(constraints, tree.Global); got != tt.want {
				t.Errorf("constraints = %q, want %q", got, tt.want)
			}
			if got, ok := constraints.EvaluateBool(); !ok || got != tt.satisfied {
				t.Errorf("constraints evaluate to %v (ok=%v), want %v", got, ok, tt.satisfied)
			}
			if fn.Template == nil || fn.Constraints() == nil {
				t.Error("instantiation modified the primary template")
			}
		})
	}
}

// Recursive macros used to send the expander into a loop; the parse must finish and
// yield the self-referencing name unchanged.
func TestSelfReferencingMacro(t *testing.T) {
	content := `#define foo foo
#define bar (bar + 1)
int foo = 1;
int x = bar;`

	tree := parseSource(t, content)
	expectNoErrors(t, tree)

	if tree.Global.LookupLocal("foo") == nil {
		t.Error("foo not declared")
	}
	x, ok := tree.Global.LookupLocal("x").(*ast.Instance)
	if !ok || x.Initializer == nil {
		t.Fatal("x not declared with an initializer")
	}
	if !strings.Contains(ast.FormatExpr(x.Initializer, tree.Global), "bar") {
		t.Errorf("initializer of x should keep the name bar, got %q", ast.FormatExpr(x.Initializer, tree.Global))
	}
}

func TestPreprocessorConditionals(t *testing.T) {
	content := `#define FEATURE 2
#if FEATURE > 1
int enabled;
#else
int disabled;
#endif
#ifdef MISSING
int missing;
#endif`

	tree := parseSource(t, content)
	expectNoErrors(t, tree)

	tests := []struct {
		name string
		want bool
	}{
		{"enabled", true},
		{"disabled", false},
		{"missing", false},
	}
	for _, tt := range tests {
		if got := tree.Global.LookupLocal(tt.name) != nil; got != tt.want {
			t.Errorf("%s declared = %v, want %v", tt.name, got, tt.want)
		}
	}

	parser := New()
	if _, err := parser.Parse("macros.hpp", content); err != nil {
		t.Fatal(err)
	}
	if parser.Macros().Lookup("FEATURE") == nil {
		t.Error("FEATURE should remain defined after the parse")
	}
}
