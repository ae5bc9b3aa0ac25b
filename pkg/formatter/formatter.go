// Package formatter regenerates C++ source from a scope tree
package formatter

import (
	"fmt"
	"os"
	"os/exec"
	"reflect"
	"sort"
	"strings"

	"cppparser/pkg/ast"
	"cppparser/pkg/diag"

	"modernc.org/strutil"
)

// Formatter handles code reconstruction and formatting
type Formatter struct {
	indentSize int
	useSpaces  bool
	comments   bool
}

// New creates a new formatter
func New() *Formatter {
	return &Formatter{
		indentSize: 4,
		useSpaces:  true,
		comments:   true,
	}
}

// WithoutComments returns a formatter that omits documentation comments
func (f *Formatter) WithoutComments() *Formatter {
	c := *f
	c.comments = false
	return &c
}

// ReconstructCode regenerates the declarations of the whole tree
func (f *Formatter) ReconstructCode(tree *ast.ScopeTree) string {
	return f.RenderScope(tree.Global)
}

// RenderScope regenerates the declarations of one scope, names shown as seen from it
func (f *Formatter) RenderScope(scope *ast.Scope) string {
	var result strings.Builder
	for _, d := range scope.Declarations() {
		result.WriteString(f.reconstruct(d, scope, 0))
	}
	return result.String()
}

// ReconstructDeclaration regenerates one declaration and its contents as seen from
// its enclosing scope
func (f *Formatter) ReconstructDeclaration(d ast.Declaration) string {
	return f.reconstruct(d, d.Base().Scope, 0)
}

// reconstruct renders d at depth. Namespaces are walked here so that the comments of
// their members are kept; other declarations are rendered by package ast.
func (f *Formatter) reconstruct(d ast.Declaration, scope *ast.Scope, depth int) string {
	var result strings.Builder
	indent := f.getIndent(depth)

	if f.comments && ast.HasComment(d) {
		result.WriteString(f.formatDoxygenComment(d.Base().Comment, depth))
		result.WriteString("\n")
	}

	switch v := d.(type) {
	case *ast.Namespace:
		if v.Alias != nil {
			result.WriteString(indent + ast.Format(v, scope) + ";\n")
			return result.String()
		}
		result.WriteString(indent)
		if v.Inline {
			result.WriteString("inline ")
		}
		result.WriteString("namespace")
		if v.Name() != "" {
			result.WriteString(" " + v.Name())
		}
		result.WriteString(" {\n")
		for _, member := range v.Members.Declarations() {
			result.WriteString(f.reconstruct(member, v.Members, depth+1))
		}
		result.WriteString(indent + "}")
		if v.Name() != "" {
			result.WriteString(" // namespace " + v.Name())
		}
		result.WriteString("\n")
		return result.String()

	case *ast.FunctionGroup:
		for _, fn := range v.Functions {
			result.WriteString(f.reconstruct(fn, scope, depth))
		}
		return result.String()
	}

	if err := ast.Output(&result, d, len(indent), scope, true); err != nil {
		return result.String()
	}

	// Functions with a body end with their closing brace
	if fn := ast.AsFunction(d); fn == nil || fn.Body == nil {
		result.WriteString(";")
	}
	result.WriteString("\n")
	return result.String()
}

// FormatComment renders a comment as a Doxygen block at column zero. Comments built
// in memory have no Raw text yet; they are rendered from their fields all the same.
func (f *Formatter) FormatComment(comment *ast.DoxygenComment) string {
	if comment == nil {
		return ""
	}
	c := *comment
	if c.Raw == "" {
		c.Raw = "/** */"
	}
	return f.formatDoxygenComment(&c, 0)
}

// formatDoxygenComment formats a doxygen comment with proper indentation
func (f *Formatter) formatDoxygenComment(comment *ast.DoxygenComment, depth int) string {
	if comment == nil || comment.Raw == "" {
		return ""
	}

	var result strings.Builder
	indent := f.getIndent(depth)

	result.WriteString(indent + "/**\n")

	if comment.Brief != "" {
		result.WriteString(indent + " * @brief " + comment.Brief + "\n")
	}

	if comment.Detailed != "" {
		for _, line := range strings.Split(comment.Detailed, "\n") {
			if strings.TrimSpace(line) != "" {
				result.WriteString(indent + " * " + strings.TrimSpace(line) + "\n")
			} else {
				result.WriteString(indent + " *\n")
			}
		}
	}

	if len(comment.TParams) > 0 || len(comment.Params) > 0 {
		result.WriteString(indent + " *\n")
	}
	for _, name := range sortedKeys(comment.TParams) {
		result.WriteString(indent + " * @tparam " + name + " " + comment.TParams[name] + "\n")
	}
	for _, name := range sortedKeys(comment.Params) {
		result.WriteString(indent + " * @param " + name + " " + comment.Params[name] + "\n")
	}

	if comment.Returns != "" {
		result.WriteString(indent + " * @return " + comment.Returns + "\n")
	}

	for _, exception := range comment.Throws {
		result.WriteString(indent + " * @throws " + exception + "\n")
	}

	if comment.Since != "" {
		result.WriteString(indent + " * @since " + comment.Since + "\n")
	}

	if comment.Deprecated != "" {
		result.WriteString(indent + " * @deprecated " + comment.Deprecated + "\n")
	}

	for _, see := range comment.See {
		result.WriteString(indent + " * @see " + see + "\n")
	}

	for _, tag := range sortedKeys(comment.CustomTags) {
		for _, value := range strings.Split(comment.CustomTags[tag], "\n") {
			result.WriteString(indent + " * @" + tag + " " + value + "\n")
		}
	}

	result.WriteString(indent + " */")

	return result.String()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// getIndent returns the indentation string for the given depth
func (f *Formatter) getIndent(depth int) string {
	if f.useSpaces {
		return strings.Repeat(" ", depth*f.indentSize)
	}
	return strings.Repeat("\t", depth)
}

// FormatWithClang formats the code using clang-format
func (f *Formatter) FormatWithClang(code string) (string, error) {
	tmpFile, err := os.CreateTemp("", "cppparser-*.cpp")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmpFile.Name())
	defer tmpFile.Close()

	if _, err := tmpFile.WriteString(code); err != nil {
		return "", fmt.Errorf("failed to write to temp file: %w", err)
	}
	tmpFile.Close()

	cmd := exec.Command("clang-format", tmpFile.Name())
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("clang-format failed: %w", err)
	}

	return string(output), nil
}

// ExtractContext renders a declaration together with the signatures of its enclosing
// declaration and of its siblings
func (f *Formatter) ExtractContext(d ast.Declaration, includeParent bool, includeSiblings bool) string {
	var result strings.Builder
	scope := d.Base().Scope

	if includeParent && scope != nil && scope.Owner != nil {
		result.WriteString("// Parent context:\n")
		result.WriteString(f.formatSignature(scope.Owner, scope.Owner.Base().Scope))
		result.WriteString("\n\n")
	}

	if includeSiblings && scope != nil {
		result.WriteString("// Sibling context:\n")
		for _, sibling := range scope.Declarations() {
			if sibling != d {
				result.WriteString(f.formatSignature(sibling, scope))
				result.WriteString("\n")
			}
		}
		result.WriteString("\n")
	}

	result.WriteString("// Target declaration:\n")
	result.WriteString(f.ReconstructDeclaration(d))

	return result.String()
}

// formatSignature renders a declaration on one line, eliding bodies
func (f *Formatter) formatSignature(d ast.Declaration, scope *ast.Scope) string {
	switch v := d.(type) {
	case *ast.Namespace:
		if v.Alias == nil {
			return "namespace " + v.Name() + " { /* ... */ }"
		}
	case *ast.StructType:
		if !v.Incomplete {
			return v.Kind.String() + " " + v.Name() + " { /* ... */ };"
		}
	case *ast.EnumType:
		if !v.Incomplete {
			return "enum " + v.Name() + " { /* ... */ };"
		}
	}
	return ast.Format(d, scope) + ";"
}

// Summary describes a declaration one property per line
func (f *Formatter) Summary(d ast.Declaration) string {
	var result strings.Builder
	b := d.Base()

	result.WriteString(fmt.Sprintf("Kind: %s\n", d.SubType()))
	result.WriteString(fmt.Sprintf("Name: %s\n", b.Name()))
	result.WriteString(fmt.Sprintf("Full Name: %s\n", b.QualifiedName()))
	result.WriteString(fmt.Sprintf("Signature: %s\n", ast.Format(d, b.Scope)))
	if b.Loc.IsValid() {
		result.WriteString(fmt.Sprintf("Location: %s\n", b.Loc))
	}

	if b.Scope != nil && b.Scope.Kind == ast.ScopeClass {
		result.WriteString(fmt.Sprintf("Access: %s\n", b.Vis))
	}
	if b.Template != nil {
		result.WriteString(fmt.Sprintf("Template Parameters: %d\n", len(b.Template.Params)))
	}

	if inst := ast.AsInstance(d); inst != nil {
		if inst.Storage&ast.StorageStatic != 0 {
			result.WriteString("Static: true\n")
		}
		if inst.Storage&ast.StorageVirtual != 0 {
			result.WriteString("Virtual: true\n")
		}
	}
	if fn := ast.AsFunction(d); fn != nil {
		if ft := fn.FuncType(); ft != nil && ft.Flags&ast.FuncConst != 0 {
			result.WriteString("Const: true\n")
		}
		if fn.Body != nil {
			result.WriteString("Defined: true\n")
		}
	}

	if ast.HasComment(d) {
		result.WriteString("Has Documentation: true\n")
	} else {
		result.WriteString("Has Documentation: false\n")
	}

	if s := ast.OwnedScope(d); s != nil && len(s.Declarations()) > 0 {
		result.WriteString(fmt.Sprintf("Members: %d\n", len(s.Declarations())))
	}

	return result.String()
}

var dumpHooks = strutil.PrettyPrintHooks{
	reflect.TypeOf((*ast.Scope)(nil)): func(f strutil.Formatter, v interface{}, prefix, suffix string) {
		s := v.(*ast.Scope)
		f.Format(prefix)
		f.Format("scope %s %q", s.Kind, s.Name)
		f.Format(suffix)
	},
	reflect.TypeOf((*ast.Identifier)(nil)): func(f strutil.Formatter, v interface{}, prefix, suffix string) {
		f.Format(prefix)
		f.Format("%q", v.(*ast.Identifier).String())
		f.Format(suffix)
	},
	reflect.TypeOf(diag.Location{}): func(f strutil.Formatter, v interface{}, prefix, suffix string) {
		loc := v.(diag.Location)
		if !loc.IsValid() {
			return
		}
		f.Format(prefix)
		f.Format("%v", loc)
		f.Format(suffix)
	},
}

// Dump renders the fields of a declaration for debugging. Scopes are shown by name
// only; their contents are reached through the declarations that own them.
func (f *Formatter) Dump(d ast.Declaration) string {
	return strutil.PrettyString(d, "", "", dumpHooks)
}
