package formatter

import (
	"strings"
	"testing"

	"cppparser/pkg/ast"
	"cppparser/pkg/parser"
)

const calculatorSource = `namespace math {
/**
 * A simple calculator class
 * @see Printer
 */
class Calculator {
public:
    /// Adds two numbers
    int add(int a, int b);
    int subtract(int a, int b);
private:
    static int count;
};
}

int twice(int v) { return v * 2; }
`

func parseTree(t *testing.T, content string) *ast.ScopeTree {
	t.Helper()
	p := parser.New()
	tree, err := p.Parse("test.hpp", content)
	if err != nil {
		t.Fatalf("Failed to parse: %v", err)
	}
	return tree
}

func TestReconstructCode(t *testing.T) {
	tree := parseTree(t, calculatorSource)
	f := New()
	output := f.ReconstructCode(tree)

	tests := []struct {
		name     string
		contains string
	}{
		{"namespace opening", "namespace math {"},
		{"namespace closing", "} // namespace math"},
		{"class header", "class Calculator {"},
		{"access label", "private:"},
		{"class comment", "    /**\n     * @brief A simple calculator class\n"},
		{"see tag", "     * @see Printer\n"},
		{"member", "int subtract(int a, int b);"},
		{"function body", "int twice(int v) {"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !strings.Contains(output, tt.contains) {
				t.Errorf("Output missing %q:\n%s", tt.contains, output)
			}
		})
	}

	if !strings.HasSuffix(strings.TrimSpace(output), "}") {
		t.Errorf("Expected the output to end with the body of twice:\n%s", output)
	}
}

func TestWithoutComments(t *testing.T) {
	tree := parseTree(t, calculatorSource)
	output := New().WithoutComments().ReconstructCode(tree)
	if strings.Contains(output, "/**") {
		t.Errorf("Expected no comments:\n%s", output)
	}
	if !strings.Contains(output, "class Calculator {") {
		t.Errorf("Expected the class to be rendered:\n%s", output)
	}
}

func TestFormatDoxygenComment(t *testing.T) {
	comment := &ast.DoxygenComment{
		Raw:        "/** ... */",
		Brief:      "Adds two numbers",
		Detailed:   "Overflow wraps.",
		Params:     map[string]string{"b": "Second number", "a": "First number"},
		TParams:    map[string]string{"T": "Element type"},
		Returns:    "Sum of a and b",
		Throws:     []string{"nothing"},
		CustomTags: map[string]string{"note": "first\nsecond"},
	}

	want := `  /**
   * @brief Adds two numbers
   * Overflow wraps.
   *
   * @tparam T Element type
   * @param a First number
   * @param b Second number
   * @return Sum of a and b
   * @throws nothing
   * @note first
   * @note second
   */`

	f := &Formatter{indentSize: 2, useSpaces: true, comments: true}
	if got := f.formatDoxygenComment(comment, 1); got != want {
		t.Errorf("formatDoxygenComment() =\n%s\nwant\n%s", got, want)
	}

	if got := f.formatDoxygenComment(&ast.DoxygenComment{}, 0); got != "" {
		t.Errorf("Expected empty output for an empty comment, got %q", got)
	}
}

func TestGetIndent(t *testing.T) {
	tests := []struct {
		formatter *Formatter
		depth     int
		want      string
	}{
		{New(), 0, ""},
		{New(), 2, "        "},
		{&Formatter{indentSize: 2, useSpaces: true}, 3, "      "},
		{&Formatter{useSpaces: false}, 2, "\t\t"},
	}

	for _, tt := range tests {
		if got := tt.formatter.getIndent(tt.depth); got != tt.want {
			t.Errorf("getIndent(%d) = %q, want %q", tt.depth, got, tt.want)
		}
	}
}

func TestExtractContext(t *testing.T) {
	tree := parseTree(t, calculatorSource)
	add := tree.FindDeclaration("math::Calculator::add")
	if add == nil {
		t.Fatal("add not found")
	}

	f := New()
	output := f.ExtractContext(add, true, true)

	for _, want := range []string{
		"// Parent context:\nclass Calculator { /* ... */ };",
		"// Sibling context:",
		"subtract(",
		"// Target declaration:\n",
		"@brief Adds two numbers",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("ExtractContext output missing %q:\n%s", want, output)
		}
	}

	bare := f.ExtractContext(add, false, false)
	if strings.Contains(bare, "Parent context") || strings.Contains(bare, "Sibling context") {
		t.Errorf("Expected only the target declaration:\n%s", bare)
	}
}

func TestSummary(t *testing.T) {
	tree := parseTree(t, calculatorSource)
	count := tree.FindDeclaration("math::Calculator::count")
	if count == nil {
		t.Fatal("count not found")
	}

	summary := New().Summary(count)
	for _, want := range []string{
		"Kind: instance\n",
		"Name: count\n",
		"Full Name: ::math::Calculator::count\n",
		"Access: private\n",
		"Static: true\n",
		"Has Documentation: false\n",
	} {
		if !strings.Contains(summary, want) {
			t.Errorf("Summary missing %q:\n%s", want, summary)
		}
	}

	class := tree.FindDeclaration("math::Calculator")
	if summary := New().Summary(class); !strings.Contains(summary, "Has Documentation: true") || !strings.Contains(summary, "Members: 3") {
		t.Errorf("Unexpected class summary:\n%s", summary)
	}
}

func TestDump(t *testing.T) {
	tree := parseTree(t, calculatorSource)
	count := tree.FindDeclaration("math::Calculator::count")

	dump := New().Dump(count)
	if !strings.Contains(dump, `"count"`) {
		t.Errorf("Dump should show the identifier:\n%s", dump)
	}
	if !strings.Contains(dump, "scope class") {
		t.Errorf("Dump should name the enclosing scope:\n%s", dump)
	}
}
