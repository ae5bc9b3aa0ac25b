package macro

import (
	"errors"
	"os"
	"strings"
	"testing"

	"cppparser/pkg/ast"
	"cppparser/pkg/diag"
	"cppparser/pkg/lexer"

	"gopkg.in/yaml.v3"
)

type expansionCase struct {
	Name            string   `yaml:"name"`
	Defines         []string `yaml:"defines"`
	Input           string   `yaml:"input"`
	Output          string   `yaml:"output"`
	ExpandUndefined bool     `yaml:"expand_undefined"`
	Ignores         []string `yaml:"ignores"`
	Errors          int      `yaml:"errors"`
}

func define(t *testing.T, table *Table, def string) *Macro {
	t.Helper()
	m, err := ParseDefinition(lexer.Lex("test.h", def))
	if err != nil {
		t.Fatalf("ParseDefinition(%q): %v", def, err)
	}
	table.Define(m)
	return m
}

func TestExpansionCases(t *testing.T) {
	data, err := os.ReadFile("testdata/expand.yaml")
	if err != nil {
		t.Fatalf("failed to read cases: %v", err)
	}
	var cases []expansionCase
	if err := yaml.Unmarshal(data, &cases); err != nil {
		t.Fatalf("failed to parse cases: %v", err)
	}
	if len(cases) == 0 {
		t.Fatal("no cases loaded")
	}

	for _, tc := range cases {
		t.Run(tc.Name, func(t *testing.T) {
			diags := diag.NewCollector(nil, 0)
			table := NewTable(diags)
			for _, def := range tc.Defines {
				define(t, table, def)
			}
			ignores := make(map[string]bool)
			for _, name := range tc.Ignores {
				ignores[name] = true
			}
			got, err := table.ExpandText(tc.Input, tc.ExpandUndefined, ignores)
			if err != nil {
				t.Fatalf("ExpandText: %v", err)
			}
			if got != tc.Output {
				t.Errorf("expansion of %q = %q, want %q", tc.Input, got, tc.Output)
			}
			if diags.ErrorCount() != tc.Errors {
				t.Errorf("got %d errors, want %d: %v", diags.ErrorCount(), tc.Errors, diags.Diagnostics())
			}
		})
	}
}

func TestUnterminatedArguments(t *testing.T) {
	table := NewTable(nil)
	define(t, table, "F(x) x")
	_, err := table.ExpandText("x + F(1, (2)", false, nil)
	var me *Error
	if !errors.As(err, &me) {
		t.Fatalf("expected a positioned error for an unterminated argument list, got %v", err)
	}
	if me.Loc.Line != 1 || me.Loc.Column != 5 {
		t.Errorf("error at %v, want line 1 column 5", me.Loc)
	}
}

func TestExpand(t *testing.T) {
	table := NewTable(nil)
	define(t, table, "MAX(a, b) ((a) > (b) ? (a) : (b))")
	got, err := table.Expand("MAX", []string{"1", "2"}, false, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got != "((1) > (2) ? (1) : (2))" {
		t.Errorf("Expand = %q", got)
	}
	if _, err := table.Expand("MIN", nil, false, nil); err == nil {
		t.Error("expanding an undefined macro should fail")
	}
}

func TestParseDefinition(t *testing.T) {
	tests := []struct {
		name     string
		def      string
		params   []string
		variadic int
		str      string
		wantErr  bool
	}{
		{name: "object-like", def: "N 42", variadic: -1, str: "#define N 42"},
		{name: "empty body", def: "EMPTY", variadic: -1, str: "#define EMPTY"},
		{name: "parenthesized body", def: "P (x)", variadic: -1, str: "#define P (x)"},
		{name: "function-like", def: "F(a, b) a + b", params: []string{"a", "b"}, variadic: -1, str: "#define F(a, b) a + b"},
		{name: "no parameters", def: "F() 1", variadic: -1, str: "#define F() 1"},
		{name: "variadic", def: "V(x, ...) x __VA_ARGS__", params: []string{"x", "__VA_ARGS__"}, variadic: 1, str: "#define V(x, ...) x __VA_ARGS__"},
		{name: "named variadic", def: "V(args...) f(args)", params: []string{"args"}, variadic: 0, str: "#define V(args...) f(args)"},
		{name: "operators", def: "CAT(a, b) a ## b #a", params: []string{"a", "b"}, variadic: -1, str: "#define CAT(a, b) a ## b #a"},
		{name: "paste at start", def: "BAD ## x", wantErr: true},
		{name: "paste at end", def: "BAD(x) x ##", wantErr: true},
		{name: "stringify non-parameter", def: "BAD(x) #y", wantErr: true},
		{name: "duplicate parameter", def: "BAD(x, x) x", wantErr: true},
		{name: "unterminated parameters", def: "BAD(x", wantErr: true},
		{name: "defined", def: "defined 1", wantErr: true},
		{name: "va_args outside variadic", def: "BAD(x) __VA_ARGS__", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := ParseDefinition(lexer.Lex("test.h", tt.def))
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected an error, got %s", m)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if strings.Join(m.Params, ",") != strings.Join(tt.params, ",") {
				t.Errorf("params = %v, want %v", m.Params, tt.params)
			}
			if m.Variadic != tt.variadic {
				t.Errorf("variadic = %d, want %d", m.Variadic, tt.variadic)
			}
			if got := m.String(); got != tt.str {
				t.Errorf("String() = %q, want %q", got, tt.str)
			}
		})
	}
}

func TestParseCommandLine(t *testing.T) {
	tests := []struct {
		def  string
		str  string
		fail bool
	}{
		{def: "DEBUG", str: "#define DEBUG 1"},
		{def: "LEVEL=3", str: "#define LEVEL 3"},
		{def: "EMPTY=", str: "#define EMPTY"},
		{def: "SQ(x)=x*x", str: "#define SQ(x) x*x"},
		{def: "=1", fail: true},
	}
	for _, tt := range tests {
		m, err := ParseCommandLine(tt.def)
		if tt.fail {
			if err == nil {
				t.Errorf("ParseCommandLine(%q) should fail", tt.def)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseCommandLine(%q): %v", tt.def, err)
			continue
		}
		if got := m.String(); got != tt.str {
			t.Errorf("ParseCommandLine(%q) = %q, want %q", tt.def, got, tt.str)
		}
	}
}

func TestEqual(t *testing.T) {
	parse := func(def string) *Macro {
		m, err := ParseDefinition(lexer.Lex("test.h", def))
		if err != nil {
			t.Fatal(err)
		}
		return m
	}
	if !parse("F(a) a + 1").Equal(parse("F(a)   a   +   1")) {
		t.Error("whitespace amount should not matter")
	}
	if parse("F(a) a + 1").Equal(parse("F(b) b + 1")) {
		t.Error("parameter names differ")
	}
	if parse("N 1").Equal(parse("N 2")) {
		t.Error("bodies differ")
	}
	if parse("N 1").Equal(parse("N() 1")) {
		t.Error("object-like and function-like differ")
	}
}

func TestDetermineType(t *testing.T) {
	in := ast.NewInterner()
	tests := []struct {
		def  string
		want ast.Type
	}{
		{"N 42", in.Simple(ast.KindInt, 0)},
		{"U 42u", in.Simple(ast.KindInt, ast.FlagUnsigned)},
		{"L 10L", in.Simple(ast.KindInt, ast.FlagLong)},
		{"ULL 10ULL", in.Simple(ast.KindInt, ast.FlagUnsigned|ast.FlagLongLong)},
		{"HEX 0x1F", in.Simple(ast.KindInt, 0)},
		{"NEG (-1)", in.Simple(ast.KindInt, 0)},
		{"PI 3.14", in.Simple(ast.KindDouble, 0)},
		{"F 1.0f", in.Simple(ast.KindFloat, 0)},
		{"E 1e10", in.Simple(ast.KindDouble, 0)},
		{`S "text"`, in.Pointer(in.CV(in.Simple(ast.KindChar, 0), true, false))},
		{"C 'c'", in.Simple(ast.KindChar, 0)},
		{"B true", in.Simple(ast.KindBool, 0)},
		{"EXPR a + b", nil},
		{"FN(x) 1", nil},
		{"EMPTY", nil},
	}
	for _, tt := range tests {
		m, err := ParseDefinition(lexer.Lex("test.h", tt.def))
		if err != nil {
			t.Fatal(err)
		}
		if got := m.DetermineType(in); got != tt.want {
			t.Errorf("DetermineType(%q) = %v, want %v", tt.def, got, tt.want)
		}
	}
}

func TestTable(t *testing.T) {
	table := NewTable(nil)
	first := define(t, table, "B 1")
	define(t, table, "A 2")
	if prev := table.Define(&Macro{Name: "B", Variadic: -1}); prev != first {
		t.Error("Define should return the replaced definition")
	}
	if got := strings.Join(table.Names(), ","); got != "A,B" {
		t.Errorf("Names = %s", got)
	}
	if !table.IsDefined("A") || !table.Undefine("A") || table.IsDefined("A") {
		t.Error("Undefine did not remove A")
	}
	if table.Undefine("A") {
		t.Error("Undefine of a missing macro should report false")
	}
	if table.Len() != 1 {
		t.Errorf("Len = %d", table.Len())
	}
}

func TestHideSet(t *testing.T) {
	var empty *HideSet
	a := empty.Add("a")
	ab := a.Add("b")
	if !ab.Contains("a") || !ab.Contains("b") || ab.Contains("c") {
		t.Error("Contains is wrong")
	}
	if ab.Add("a") != ab {
		t.Error("adding a present name should return the same set")
	}
	bc := empty.Add("b").Add("c")
	if got := ab.Intersect(bc); got.Len() != 1 || !got.Contains("b") {
		t.Errorf("Intersect has %d names", got.Len())
	}
	if got := ab.Union(bc); got.Len() != 3 {
		t.Errorf("Union has %d names", got.Len())
	}
	if empty.Len() != 0 || empty.Contains("a") {
		t.Error("nil set should be empty")
	}
}

func TestStringify(t *testing.T) {
	tests := []struct{ in, want string }{
		{"a   b", `"a b"`},
		{` "x  y" `, `"\"x  y\""`},
		{`'\''`, `"'\\''"`},
		{"", `""`},
		{`\ c`, `"\ c"`},
		{`a\b "\n"`, `"a\b \"\\n\""`},
	}
	for _, tt := range tests {
		if got := Stringify(tt.in); got != tt.want {
			t.Errorf("Stringify(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
