// Package document provides a high-level abstraction over a parsed C++ header and the
// Doxygen documentation of its declarations. It hides the scope tree behind lookups by
// qualified path and lets callers inspect, edit and regenerate documentation.
package document

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cppparser/pkg/ast"
	"cppparser/pkg/formatter"
	"cppparser/pkg/parser"
)

// Document represents a C++ header file with its parsed declarations
type Document struct {
	filename  string         // Original filename (if loaded from file)
	content   string         // Current content
	tree      *ast.ScopeTree // Parsed declarations
	formatter *formatter.Formatter
	modified  bool

	// Declarations by qualified path without the leading ::, overloads expanded
	byPath map[string][]ast.Declaration
	order  []string
}

// NewFromFile creates a new document by loading and parsing a file
func NewFromFile(filename string, cfg parser.Config) (*Document, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	absPath, err := filepath.Abs(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path for %s: %w", filename, err)
	}

	return NewFromContentWithConfig(absPath, string(content), cfg)
}

// NewFromContent creates a new document from content with a given name
func NewFromContent(name, content string) (*Document, error) {
	return NewFromContentWithConfig(name, content, parser.Config{})
}

// NewFromContentWithConfig creates a new document using a parser with cfg
func NewFromContentWithConfig(name, content string, cfg parser.Config) (*Document, error) {
	tree, err := parser.NewWithConfig(cfg).Parse(name, content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse content: %w", err)
	}

	doc := &Document{
		filename:  name,
		content:   content,
		tree:      tree,
		formatter: formatter.New(),
		byPath:    make(map[string][]ast.Declaration),
	}
	doc.index(tree.Global)
	return doc, nil
}

// index records the documentable declarations of scope and of the scopes they own
func (d *Document) index(scope *ast.Scope) {
	for _, decl := range scope.Declarations() {
		if g, ok := decl.(*ast.FunctionGroup); ok {
			for _, fn := range g.Functions {
				d.add(fn)
			}
			continue
		}
		if !documentable(decl) {
			continue
		}
		d.add(decl)
		if inner := ast.OwnedScope(decl); inner != nil {
			d.index(inner)
		}
	}
}

func (d *Document) add(decl ast.Declaration) {
	path := strings.TrimPrefix(decl.Base().QualifiedName(), "::")
	if _, seen := d.byPath[path]; !seen {
		d.order = append(d.order, path)
	}
	d.byPath[path] = append(d.byPath[path], decl)
}

// documentable reports whether a declaration can carry its own Doxygen comment
func documentable(decl ast.Declaration) bool {
	if decl.Base().Name() == "" {
		return false
	}
	switch v := decl.(type) {
	case *ast.Namespace:
		return v.Alias == nil
	case *ast.StructType, *ast.EnumType, *ast.TypedefType, *ast.Concept, *ast.Instance, *ast.Function:
		return true
	}
	return false
}

// Filename returns the document's filename
func (d *Document) Filename() string {
	return d.filename
}

// Content returns the content the document was parsed from, or last saved as
func (d *Document) Content() string {
	return d.content
}

// IsModified returns whether the documentation was changed since parsing or saving
func (d *Document) IsModified() bool {
	return d.modified
}

// Tree returns the underlying scope tree
func (d *Document) Tree() *ast.ScopeTree {
	return d.tree
}

// Find returns the declaration at a qualified path (e.g. "ns::Class::method"). For
// overloaded functions the first declared overload is returned.
func (d *Document) Find(path string) ast.Declaration {
	decls := d.byPath[strings.TrimPrefix(path, "::")]
	if len(decls) == 0 {
		return nil
	}
	return decls[0]
}

// FindOverloads returns every declaration at a qualified path
func (d *Document) FindOverloads(path string) []ast.Declaration {
	return d.byPath[strings.TrimPrefix(path, "::")]
}

// FindByName returns the declarations with a given simple name in any scope
func (d *Document) FindByName(name string) []ast.Declaration {
	var found []ast.Declaration
	for _, path := range d.order {
		for _, decl := range d.byPath[path] {
			if decl.Base().Name() == name {
				found = append(found, decl)
			}
		}
	}
	return found
}

// Declarations returns the documentable declarations in source order of discovery
func (d *Document) Declarations() []ast.Declaration {
	var all []ast.Declaration
	for _, path := range d.order {
		all = append(all, d.byPath[path]...)
	}
	return all
}

// Undocumented returns the documentable declarations without a Doxygen comment
func (d *Document) Undocumented() []ast.Declaration {
	var undocumented []ast.Declaration
	for _, decl := range d.Declarations() {
		if !ast.HasComment(decl) {
			undocumented = append(undocumented, decl)
		}
	}
	return undocumented
}

// Documentation Manipulation Methods

// edit returns the comment of the declaration at path, creating it when missing
func (d *Document) edit(path string) (ast.Declaration, *ast.DoxygenComment, error) {
	decl := d.Find(path)
	if decl == nil {
		return nil, nil, fmt.Errorf("declaration not found: %s", path)
	}
	b := decl.Base()
	if b.Comment == nil {
		b.Comment = &ast.DoxygenComment{}
	}
	if b.Comment.Params == nil {
		b.Comment.Params = make(map[string]string)
	}
	if b.Comment.CustomTags == nil {
		b.Comment.CustomTags = make(map[string]string)
	}
	return decl, b.Comment, nil
}

// touch regenerates the raw text of an edited comment
func (d *Document) touch(comment *ast.DoxygenComment) {
	comment.Raw = d.formatter.FormatComment(comment)
	d.modified = true
}

// SetComment replaces the Doxygen comment of a declaration
func (d *Document) SetComment(path string, comment *ast.DoxygenComment) error {
	decl := d.Find(path)
	if decl == nil {
		return fmt.Errorf("declaration not found: %s", path)
	}
	decl.Base().Comment = comment
	if comment != nil && comment.Raw == "" {
		d.touch(comment)
	}
	d.modified = true
	return nil
}

// SetBrief sets the brief description of a declaration
func (d *Document) SetBrief(path, brief string) error {
	_, comment, err := d.edit(path)
	if err != nil {
		return err
	}
	comment.Brief = brief
	d.touch(comment)
	return nil
}

// SetDetailed sets the detailed description of a declaration
func (d *Document) SetDetailed(path, detailed string) error {
	_, comment, err := d.edit(path)
	if err != nil {
		return err
	}
	comment.Detailed = detailed
	d.touch(comment)
	return nil
}

// SetParam adds or updates a parameter description of a function
func (d *Document) SetParam(path, param, description string) error {
	decl, comment, err := d.edit(path)
	if err != nil {
		return err
	}
	fn := ast.AsFunction(decl)
	if fn == nil {
		return fmt.Errorf("%s is not a function", path)
	}
	if !contains(paramNames(fn), param) {
		return fmt.Errorf("%s has no parameter %s", path, param)
	}
	comment.Params[param] = description
	d.touch(comment)
	return nil
}

// SetReturn sets the return description of a function
func (d *Document) SetReturn(path, description string) error {
	decl, comment, err := d.edit(path)
	if err != nil {
		return err
	}
	if fn := ast.AsFunction(decl); fn == nil || !returnsValue(fn) {
		return fmt.Errorf("%s does not return a value", path)
	}
	comment.Returns = description
	d.touch(comment)
	return nil
}

// AddGroup adds a declaration to a Doxygen group
func (d *Document) AddGroup(path, group string) error {
	_, comment, err := d.edit(path)
	if err != nil {
		return err
	}
	groups := strings.Fields(comment.CustomTags["ingroup"])
	if contains(groups, group) {
		return nil
	}
	comment.CustomTags["ingroup"] = strings.Join(append(groups, group), " ")
	d.touch(comment)
	return nil
}

// SetDeprecated marks a declaration as deprecated
func (d *Document) SetDeprecated(path, message string) error {
	_, comment, err := d.edit(path)
	if err != nil {
		return err
	}
	comment.Deprecated = message
	d.touch(comment)
	return nil
}

// SetCustomTag sets a Doxygen tag without a dedicated field
func (d *Document) SetCustomTag(path, tag, value string) error {
	_, comment, err := d.edit(path)
	if err != nil {
		return err
	}
	comment.CustomTags[tag] = value
	d.touch(comment)
	return nil
}

// DocumentationStats summarizes documentation coverage
type DocumentationStats struct {
	Total        int
	Documented   int
	Undocumented int
	Coverage     float64 // percent
}

// Stats returns documentation statistics for the document
func (d *Document) Stats() DocumentationStats {
	total := len(d.Declarations())
	undocumented := len(d.Undocumented())

	stats := DocumentationStats{
		Total:        total,
		Documented:   total - undocumented,
		Undocumented: undocumented,
	}
	if total > 0 {
		stats.Coverage = float64(stats.Documented) / float64(total) * 100.0
	}
	return stats
}

// BatchUpdate is a set of documentation changes to one declaration
type BatchUpdate struct {
	Path       string
	Brief      *string
	Detailed   *string
	Params     map[string]string
	Return     *string
	Groups     []string
	CustomTags map[string]string
	Deprecated *string
}

// ApplyBatchUpdates applies updates in order and stops at the first failure
func (d *Document) ApplyBatchUpdates(updates []BatchUpdate) error {
	for _, update := range updates {
		if update.Brief != nil {
			if err := d.SetBrief(update.Path, *update.Brief); err != nil {
				return err
			}
		}
		if update.Detailed != nil {
			if err := d.SetDetailed(update.Path, *update.Detailed); err != nil {
				return err
			}
		}
		for _, param := range sortedKeys(update.Params) {
			if err := d.SetParam(update.Path, param, update.Params[param]); err != nil {
				return err
			}
		}
		if update.Return != nil {
			if err := d.SetReturn(update.Path, *update.Return); err != nil {
				return err
			}
		}
		for _, group := range update.Groups {
			if err := d.AddGroup(update.Path, group); err != nil {
				return err
			}
		}
		for _, tag := range sortedKeys(update.CustomTags) {
			if err := d.SetCustomTag(update.Path, tag, update.CustomTags[tag]); err != nil {
				return err
			}
		}
		if update.Deprecated != nil {
			if err := d.SetDeprecated(update.Path, *update.Deprecated); err != nil {
				return err
			}
		}
	}
	return nil
}

// File Operations

// SaveToString regenerates the declarations with their current documentation
func (d *Document) SaveToString() string {
	return d.formatter.ReconstructCode(d.tree)
}

// SaveAs writes the regenerated declarations to a file
func (d *Document) SaveAs(filename string) error {
	code := d.SaveToString()
	if err := os.WriteFile(filename, []byte(code), 0644); err != nil {
		return fmt.Errorf("failed to write file %s: %w", filename, err)
	}

	d.content = code
	d.filename = filename
	d.modified = false
	return nil
}

// Context returns the declaration at path with its surrounding signatures
func (d *Document) Context(path string, includeParent, includeSiblings bool) (string, error) {
	decl := d.Find(path)
	if decl == nil {
		return "", fmt.Errorf("declaration not found: %s", path)
	}
	return d.formatter.ExtractContext(decl, includeParent, includeSiblings), nil
}

// Validation Methods

// Issue is a documentation problem found by Validate
type Issue struct {
	Path     string
	Kind     string // missing_documentation, missing_brief, missing_return, missing_param, unknown_param
	Message  string
	Severity string // "warning" or "info"
}

// Validate checks every documentable declaration for common documentation problems
func (d *Document) Validate() []Issue {
	var issues []Issue

	for _, path := range d.order {
		for _, decl := range d.byPath[path] {
			if !ast.HasComment(decl) {
				issues = append(issues, Issue{path, "missing_documentation", "declaration lacks Doxygen documentation", "warning"})
				continue
			}
			comment := decl.Base().Comment
			if comment.Brief == "" {
				issues = append(issues, Issue{path, "missing_brief", "documentation lacks a brief description", "info"})
			}

			fn := ast.AsFunction(decl)
			if fn == nil {
				continue
			}
			if returnsValue(fn) && comment.Returns == "" {
				issues = append(issues, Issue{path, "missing_return", "function lacks @return documentation", "info"})
			}
			params := paramNames(fn)
			for _, name := range params {
				if _, ok := comment.Params[name]; !ok {
					issues = append(issues, Issue{path, "missing_param", "parameter " + name + " is not documented", "info"})
				}
			}
			for _, name := range sortedKeys(comment.Params) {
				if !contains(params, name) {
					issues = append(issues, Issue{path, "unknown_param", "@param " + name + " names no parameter", "warning"})
				}
			}
		}
	}

	return issues
}

// String returns a string representation of the document
func (d *Document) String() string {
	stats := d.Stats()
	return fmt.Sprintf("Document[%s]: %d declarations, %.1f%% documented, modified=%t",
		filepath.Base(d.filename), stats.Total, stats.Coverage, d.modified)
}

func paramNames(fn *ast.Function) []string {
	ft := fn.FuncType()
	if ft == nil {
		return nil
	}
	var names []string
	for _, p := range ft.Params {
		if name := p.Name(); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// returnsValue reports whether fn has a non-void result
func returnsValue(fn *ast.Function) bool {
	if fn.Kind == ast.FunctionConstructor || fn.Kind == ast.FunctionDestructor {
		return false
	}
	ft := fn.FuncType()
	if ft == nil || ft.Return == nil {
		return false
	}
	st, ok := ast.Resolve(ft.Return).(*ast.SimpleType)
	return !ok || st.Kind != ast.KindVoid
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
