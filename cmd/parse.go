package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"cppparser/pkg/ast"
	"cppparser/pkg/diag"
	"cppparser/pkg/formatter"

	"github.com/spf13/cobra"
	"github.com/zeebo/xxh3"
	"golang.org/x/sync/errgroup"
)

var parseCmd = &cobra.Command{
	Use:   "parse [file|directory]...",
	Short: "Parse C/C++ files and output their declarations",
	Long: `Parse C and C++ files and print the scope tree of their declarations.
Directories are searched recursively for sources. The output can be JSON for
further processing, an indented tree, regenerated code, or a human-readable listing.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := findCppFiles(args, cfg)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			return fmt.Errorf("no C/C++ files found in %s", strings.Join(args, ", "))
		}

		results, err := parseFiles(cmd.Context(), files)
		if err != nil {
			return err
		}

		format, _ := cmd.Flags().GetString("format")
		showAll, _ := cmd.Flags().GetBool("all")
		scopePath, _ := cmd.Flags().GetString("scope")

		failed := 0
		for _, res := range results {
			scope := res.tree.Global
			if scopePath != "" {
				d := res.tree.FindDeclaration(scopePath)
				if d == nil || ast.OwnedScope(d) == nil {
					return fmt.Errorf("scope not found in %s: %s", res.filename, scopePath)
				}
				scope = ast.OwnedScope(d)
			}

			switch format {
			case "json":
				err = outputJSON(res, scope, showAll)
			case "tree":
				outputTree(scope, 0, showAll)
			case "code":
				fmt.Print(formatter.New().RenderScope(scope))
			default:
				outputHuman(res, scope, showAll)
			}
			if err != nil {
				return err
			}
			if res.err != nil || hasErrors(res.tree) {
				failed++
			}
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d files had errors", failed, len(results))
		}
		return nil
	},
}

func init() {
	parseCmd.Flags().StringP("format", "f", "human", "Output format (human, json, tree, code)")
	parseCmd.Flags().BoolP("all", "a", false, "Include class members")
	parseCmd.Flags().String("scope", "", "Only show the declarations of this qualified scope")
}

type parseResult struct {
	filename string
	hash     uint64
	tree     *ast.ScopeTree
	err      error
}

// parseFiles parses files concurrently, one parser per file. Results are in the order
// of files.
func parseFiles(ctx context.Context, files []string) ([]*parseResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	results := make([]*parseResult, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.Jobs, 1))

	for i, filename := range files {
		i, filename := i, filename
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			content, err := os.ReadFile(filename)
			if err != nil {
				return fmt.Errorf("failed to read file %s: %w", filename, err)
			}

			tree, err := newParser().Parse(filename, string(content))
			if err != nil {
				logger.Error("parse.incomplete", "file", filename, "error", err)
			}
			results[i] = &parseResult{filename: filename, hash: xxh3.Hash(content), tree: tree, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func hasErrors(tree *ast.ScopeTree) bool {
	for _, d := range tree.Diagnostics {
		if d.Severity >= diag.Error {
			return true
		}
	}
	return false
}

// members returns the declarations shown under d, with overload groups expanded
func members(scope *ast.Scope) []ast.Declaration {
	var out []ast.Declaration
	for _, d := range scope.Declarations() {
		if g, ok := d.(*ast.FunctionGroup); ok {
			for _, fn := range g.Functions {
				out = append(out, fn)
			}
			continue
		}
		out = append(out, d)
	}
	return out
}

// children returns the scope shown nested under d
func children(d ast.Declaration, showAll bool) *ast.Scope {
	switch v := d.(type) {
	case *ast.Namespace:
		if v.Alias == nil {
			return v.Members
		}
	case *ast.StructType, *ast.EnumType:
		if showAll {
			return ast.OwnedScope(d)
		}
	}
	return nil
}

type jsonDecl struct {
	Kind       string     `json:"kind"`
	Name       string     `json:"name"`
	FullName   string     `json:"fullName"`
	Signature  string     `json:"signature"`
	Access     string     `json:"access,omitempty"`
	IsStatic   bool       `json:"isStatic,omitempty"`
	IsVirtual  bool       `json:"isVirtual,omitempty"`
	IsConst    bool       `json:"isConst,omitempty"`
	IsTemplate bool       `json:"isTemplate,omitempty"`
	HasComment bool       `json:"hasComment"`
	Brief      string     `json:"brief,omitempty"`
	File       string     `json:"file,omitempty"`
	Line       int        `json:"line"`
	Column     int        `json:"column"`
	Children   []jsonDecl `json:"children,omitempty"`
}

type jsonDiagnostic struct {
	Severity string `json:"severity"`
	Category string `json:"category"`
	Location string `json:"location"`
	Message  string `json:"message"`
}

func convertDecl(d ast.Declaration, showAll bool) jsonDecl {
	b := d.Base()
	jd := jsonDecl{
		Kind:       d.SubType().String(),
		Name:       b.Name(),
		FullName:   b.QualifiedName(),
		Signature:  ast.Format(d, b.Scope),
		IsTemplate: b.Template != nil,
		HasComment: ast.HasComment(d),
		File:       b.Loc.File,
		Line:       b.Loc.Line,
		Column:     b.Loc.Column,
	}
	if b.Scope != nil && b.Scope.Kind == ast.ScopeClass {
		jd.Access = b.Vis.String()
	}
	if inst := ast.AsInstance(d); inst != nil {
		jd.IsStatic = inst.Storage&ast.StorageStatic != 0
		jd.IsVirtual = inst.Storage&ast.StorageVirtual != 0
	}
	if fn := ast.AsFunction(d); fn != nil {
		if ft := fn.FuncType(); ft != nil {
			jd.IsConst = ft.Flags&ast.FuncConst != 0
		}
	}
	if jd.HasComment {
		jd.Brief = b.Comment.Brief
	}

	if scope := children(d, showAll); scope != nil {
		for _, child := range members(scope) {
			jd.Children = append(jd.Children, convertDecl(child, showAll))
		}
	}
	return jd
}

func outputJSON(res *parseResult, scope *ast.Scope, showAll bool) error {
	decls := []jsonDecl{}
	for _, d := range members(scope) {
		decls = append(decls, convertDecl(d, showAll))
	}

	diags := []jsonDiagnostic{}
	for _, d := range res.tree.Diagnostics {
		diags = append(diags, jsonDiagnostic{
			Severity: d.Severity.String(),
			Category: d.Category.String(),
			Location: d.Location.String(),
			Message:  d.Message,
		})
	}

	output := map[string]interface{}{
		"filename":     res.filename,
		"hash":         fmt.Sprintf("%016x", res.hash),
		"declarations": decls,
		"diagnostics":  diags,
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

func outputTree(scope *ast.Scope, depth int, showAll bool) {
	for _, d := range members(scope) {
		fmt.Printf("%s%s %s\n", strings.Repeat("  ", depth), d.SubType(), d.Base().Name())
		if child := children(d, showAll); child != nil {
			outputTree(child, depth+1, showAll)
		}
	}
}

func outputHuman(res *parseResult, scope *ast.Scope, showAll bool) {
	fmt.Printf("Parsed file: %s\n", res.filename)
	fmt.Printf("=====================================\n\n")

	counts := make(map[string]int)
	total, documented := 0, 0
	var walk func(scope *ast.Scope, depth int)
	walk = func(scope *ast.Scope, depth int) {
		for _, d := range members(scope) {
			printDecl(d, depth)
			total++
			counts[d.SubType().String()]++
			if ast.HasComment(d) {
				documented++
			}
			if child := children(d, showAll); child != nil {
				walk(child, depth+1)
			}
		}
	}
	walk(scope, 0)

	fmt.Printf("\nSummary:\n")
	fmt.Printf("--------\n")
	fmt.Printf("Total declarations: %d\n", total)

	kinds := make([]string, 0, len(counts))
	for kind := range counts {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	for _, kind := range kinds {
		fmt.Printf("%s: %d\n", kind, counts[kind])
	}
	if total > 0 {
		fmt.Printf("Documented: %d (%.1f%%)\n", documented, float64(documented)/float64(total)*100)
	}

	for _, d := range res.tree.Diagnostics {
		fmt.Println(d.Error())
	}
	if res.err != nil {
		fmt.Printf("Parse stopped: %v\n", res.err)
	}
	fmt.Println()
}

func printDecl(d ast.Declaration, depth int) {
	indent := strings.Repeat("  ", depth)
	b := d.Base()

	fmt.Printf("%s%s: %s", indent, d.SubType(), b.Name())
	if full := b.QualifiedName(); full != "::"+b.Name() {
		fmt.Printf(" (%s)", full)
	}
	if b.Scope != nil && b.Scope.Kind == ast.ScopeClass {
		fmt.Printf(" [%s]", b.Vis)
	}
	if inst := ast.AsInstance(d); inst != nil {
		if inst.Storage&ast.StorageStatic != 0 {
			fmt.Printf(" [static]")
		}
		if inst.Storage&ast.StorageVirtual != 0 {
			fmt.Printf(" [virtual]")
		}
	}
	if ast.HasComment(d) {
		fmt.Printf(" [documented]")
	}

	fmt.Printf("\n%s  Signature: %s\n", indent, ast.Format(d, b.Scope))
	if b.Loc.IsValid() {
		fmt.Printf("%s  Location: Line %d, Column %d\n", indent, b.Loc.Line, b.Loc.Column)
	}
	if ast.HasComment(d) && b.Comment.Brief != "" {
		fmt.Printf("%s  Brief: %s\n", indent, b.Comment.Brief)
	}
}
