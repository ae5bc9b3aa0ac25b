package cmd

import (
	"fmt"
	"os"

	"cppparser/pkg/ast"
	"cppparser/pkg/formatter"

	"github.com/spf13/cobra"
)

var extractCmd = &cobra.Command{
	Use:   "extract [file] [qualified-name]",
	Short: "Extract the declaration of a qualified name with its context",
	Long: `Extract the declaration named by a qualified path such as namespace::class::method,
optionally with the signatures of its enclosing declaration and of its siblings.
A leading :: is accepted for names of the global scope.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		filename := args[0]
		path := args[1]

		tree, err := parseFile(filename)
		if err != nil {
			return err
		}

		d := tree.FindDeclaration(path)
		if d == nil {
			return fmt.Errorf("declaration not found: %s", path)
		}

		includeParent, _ := cmd.Flags().GetBool("parent")
		includeSiblings, _ := cmd.Flags().GetBool("siblings")
		scopeOnly, _ := cmd.Flags().GetBool("scope")
		summary, _ := cmd.Flags().GetBool("summary")
		dump, _ := cmd.Flags().GetBool("dump")

		f := formatter.New()

		var output string
		switch {
		case summary:
			output = f.Summary(d)
		case dump:
			output = f.Dump(d) + "\n"
		case scopeOnly:
			scope := ast.OwnedScope(d)
			if scope == nil {
				return fmt.Errorf("%s has no members", path)
			}
			output = f.RenderScope(scope)
		default:
			output = f.ExtractContext(d, includeParent, includeSiblings)
		}

		fmt.Print(output)
		return nil
	},
}

func init() {
	extractCmd.Flags().BoolP("parent", "p", false, "Include parent context")
	extractCmd.Flags().BoolP("siblings", "s", false, "Include sibling context")
	extractCmd.Flags().BoolP("scope", "", false, "Print only the members of the declaration")
	extractCmd.Flags().Bool("summary", false, "Print the properties of the declaration")
	extractCmd.Flags().Bool("dump", false, "Print the fields of the declaration for debugging")
}

// parseFile reads and parses one file. Diagnostics go to stderr; a file that could not
// be processed to its end is an error.
func parseFile(filename string) (*ast.ScopeTree, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	tree, err := newParser().Parse(filename, string(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse file %s: %w", filename, err)
	}
	return tree, nil
}
