// Package xcheck compares the syntax errors found by the parser with those of the
// tree-sitter C++ grammar. Tree-sitter sees the unpreprocessed text, so macro-heavy
// files are expected to differ; the comparison is a triage aid, not a verdict.
package xcheck

import (
	"context"
	"fmt"
	"log/slog"

	"cppparser/pkg/diag"
	"cppparser/pkg/parser"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/cpp"
)

// Finding is an ERROR or MISSING node of the tree-sitter parse
type Finding struct {
	Line    int // 1-based
	Column  int // 1-based
	Missing bool
	Node    string
}

func (f Finding) String() string {
	kind := "error"
	if f.Missing {
		kind = "missing " + f.Node
	}
	return fmt.Sprintf("%d:%d: %s", f.Line, f.Column, kind)
}

// Result holds both views of one file
type Result struct {
	File       string
	TreeSitter []Finding
	Syntax     []*diag.Diagnostic // syntax errors reported by the parser
}

// Agree reports whether both parsers found the file clean, or both found errors
func (r *Result) Agree() bool {
	return (len(r.TreeSitter) == 0) == (len(r.Syntax) == 0)
}

// Findings parses content with tree-sitter and returns its error nodes in source order
func Findings(ctx context.Context, content []byte) ([]Finding, error) {
	p := sitter.NewParser()
	defer p.Close()
	p.SetLanguage(cpp.GetLanguage())

	tree, err := p.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse failed: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if !root.HasError() {
		return nil, nil
	}
	var findings []Finding
	collect(root, &findings)
	return findings, nil
}

func collect(n *sitter.Node, out *[]Finding) {
	if n.IsError() || n.IsMissing() {
		pt := n.StartPoint()
		*out = append(*out, Finding{
			Line:    int(pt.Row) + 1,
			Column:  int(pt.Column) + 1,
			Missing: n.IsMissing(),
			Node:    n.Type(),
		})
		if n.IsError() {
			return
		}
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child.HasError() || child.IsMissing() {
			collect(child, out)
		}
	}
}

// Check parses content with p and with tree-sitter
func Check(ctx context.Context, p *parser.Parser, filename string, content []byte) (*Result, error) {
	findings, err := Findings(ctx, content)
	if err != nil {
		return nil, err
	}
	result := &Result{File: filename, TreeSitter: findings}

	tree, err := p.Parse(filename, string(content))
	if tree != nil {
		for _, d := range tree.Diagnostics {
			if d.Severity >= diag.Error && d.Category == diag.CategorySyntax {
				result.Syntax = append(result.Syntax, d)
			}
		}
	}
	if err != nil {
		slog.Debug("xcheck.incomplete", "file", filename, "error", err)
	}

	if !result.Agree() {
		slog.Info("xcheck.disagree", "file", filename, "tree_sitter", len(result.TreeSitter), "syntax", len(result.Syntax))
	}
	return result, nil
}
