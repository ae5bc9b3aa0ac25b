package cmd

import (
	"fmt"
	"os"
	"strings"

	"cppparser/pkg/cpp"
	"cppparser/pkg/diag"
	"cppparser/pkg/lexer"
	"cppparser/pkg/macro"

	"github.com/spf13/cobra"
)

var preprocessCmd = &cobra.Command{
	Use:   "preprocess [file]",
	Short: "Print the macro-expanded token stream of a file",
	Long: `Run the preprocessor over a file and print the resulting tokens, one source line
per output line. Conditional sections that are not taken and directives are removed.
With --macros the definitions in effect at the end of the file are printed instead.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filename := args[0]
		content, err := os.ReadFile(filename)
		if err != nil {
			return fmt.Errorf("failed to read file %s: %w", filename, err)
		}

		pc := cfg.ParserConfig(logger)
		diags := diag.NewCollector(os.Stderr, cfg.MaxErrors)
		diags.SetLogger(logger)
		pp := cpp.New(pc.Preprocessor, pc.Resolver, diags)
		pp.Push(filename, string(content))

		toks, err := pp.Tokens()
		if err != nil {
			return fmt.Errorf("failed to preprocess file %s: %w", filename, err)
		}

		if listMacros, _ := cmd.Flags().GetBool("macros"); listMacros {
			table := pp.Macros()
			for _, name := range table.Names() {
				if m := table.Lookup(name); m.Dynamic == nil {
					fmt.Println(m.String())
				}
			}
		} else {
			fmt.Print(renderLines(toks))
		}

		if diags.HasErrors() {
			return fmt.Errorf("%d errors in %s", diags.ErrorCount(), filename)
		}
		return nil
	},
}

func init() {
	preprocessCmd.Flags().Bool("macros", false, "Print the macro table instead of the tokens")
}

// renderLines joins tokens into text, starting a new line where the source did
func renderLines(toks []lexer.Token) string {
	var out strings.Builder
	start := 0
	for i := 1; i <= len(toks); i++ {
		if i == len(toks) || toks[i].BOL {
			out.WriteString(macro.Render(toks[start:i]))
			out.WriteString("\n")
			start = i
		}
	}
	return out.String()
}
