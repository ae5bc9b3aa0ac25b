// Package oracle runs the expected-output checks embedded in C and C++ sources. A line
// of the form
//
//	// CHECK: int x = 0
//
// expects the next declaration of the file to format exactly as the given text.
package oracle

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"cppparser/pkg/ast"
	"cppparser/pkg/config"
	"cppparser/pkg/diag"
	"cppparser/pkg/parser"

	"golang.org/x/sync/errgroup"
)

const checkPrefix = "// CHECK:"

// Check is one expectation read from a source file
type Check struct {
	Line int
	Want string
}

// Result pairs a check with the declaration it was compared against
type Result struct {
	Check
	Got  string
	Decl ast.Declaration // nil when no declaration follows the check
	Loc  diag.Location
}

// Passed reports whether the declaration formats as expected
func (r *Result) Passed() bool {
	return r.Decl != nil && r.Got == r.Want
}

// Report holds the results of one file
type Report struct {
	File        string
	Results     []*Result
	Diagnostics []*diag.Diagnostic
	Err         error // set when the file could not be parsed to its end
}

// Failures returns the results that did not pass
func (r *Report) Failures() []*Result {
	var failed []*Result
	for _, res := range r.Results {
		if !res.Passed() {
			failed = append(failed, res)
		}
	}
	return failed
}

// Errors returns the diagnostics of error severity
func (r *Report) Errors() []*diag.Diagnostic {
	var errs []*diag.Diagnostic
	for _, d := range r.Diagnostics {
		if d.Severity >= diag.Error {
			errs = append(errs, d)
		}
	}
	return errs
}

// OK reports whether the file parsed cleanly and every check passed
func (r *Report) OK() bool {
	return r.Err == nil && len(r.Errors()) == 0 && len(r.Failures()) == 0
}

// ParseChecks returns the checks of content in line order
func ParseChecks(content string) []Check {
	var checks []Check
	scanner := bufio.NewScanner(strings.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if want, ok := strings.CutPrefix(text, checkPrefix); ok {
			checks = append(checks, Check{Line: line, Want: strings.TrimSpace(want)})
		}
	}
	return checks
}

// Run parses content with p and evaluates its checks
func Run(p *parser.Parser, filename, content string) *Report {
	report := &Report{File: filename}
	tree, err := p.Parse(filename, content)
	report.Err = err
	if tree == nil {
		return report
	}
	report.Diagnostics = tree.Diagnostics

	decls := mainFileDeclarations(tree, filename)
	for _, check := range ParseChecks(content) {
		res := &Result{Check: check}
		if d := following(decls, check.Line); d != nil {
			res.Decl = d
			res.Loc = d.Base().Loc
			res.Got = ast.Format(d, tree.Global)
		}
		if !res.Passed() {
			slog.Debug("oracle.mismatch", "file", filename, "line", check.Line, "want", check.Want, "got", res.Got)
		}
		report.Results = append(report.Results, res)
	}
	return report
}

// RunFile reads and checks one file
func RunFile(cfg *config.Config, logger *slog.Logger, path string) (*Report, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	p := parser.NewWithConfig(cfg.ParserConfig(logger))
	return Run(p, path, string(content)), nil
}

// RunFiles checks files concurrently, at most jobs at a time. Reports are returned in
// the order of paths.
func RunFiles(ctx context.Context, cfg *config.Config, logger *slog.Logger, paths []string, jobs int) ([]*Report, error) {
	reports := make([]*Report, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	if jobs > 0 {
		g.SetLimit(jobs)
	}
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			report, err := RunFile(cfg, logger, path)
			if err != nil {
				return err
			}
			reports[i] = report
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

// mainFileDeclarations flattens the declarations of the global scope and of its
// namespaces that were written in filename, sorted by line
func mainFileDeclarations(tree *ast.ScopeTree, filename string) []ast.Declaration {
	var decls []ast.Declaration
	var walk func(scope *ast.Scope)
	walk = func(scope *ast.Scope) {
		for _, d := range scope.Declarations() {
			if g, ok := d.(*ast.FunctionGroup); ok {
				for _, fn := range g.Functions {
					decls = appendIfLocal(decls, fn, filename)
				}
				continue
			}
			decls = appendIfLocal(decls, d, filename)
			if ns, ok := d.(*ast.Namespace); ok && ns.Alias == nil {
				walk(ns.Members)
			}
		}
	}
	walk(tree.Global)

	sort.SliceStable(decls, func(i, j int) bool {
		return decls[i].Base().Loc.Line < decls[j].Base().Loc.Line
	})
	return decls
}

func appendIfLocal(decls []ast.Declaration, d ast.Declaration, filename string) []ast.Declaration {
	loc := d.Base().Loc
	if loc.Line <= 0 || (loc.File != "" && loc.File != filename) {
		return decls
	}
	return append(decls, d)
}

// following returns the first declaration starting after line
func following(decls []ast.Declaration, line int) ast.Declaration {
	i := sort.Search(len(decls), func(i int) bool {
		return decls[i].Base().Loc.Line > line
	})
	if i == len(decls) {
		return nil
	}
	return decls[i]
}
