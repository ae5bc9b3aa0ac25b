package cmd

import (
	"fmt"
	"os"

	"cppparser/pkg/formatter"

	"github.com/spf13/cobra"
)

var formatCmd = &cobra.Command{
	Use:   "format [file]",
	Short: "Regenerate a C++ file from its declarations",
	Long: `Parse a C++ file and regenerate its declarations as source, with documentation
comments normalized to Doxygen blocks. Macros are expanded and preprocessor
directives are not reproduced. The result can be passed through clang-format.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tree, err := parseFile(args[0])
		if err != nil {
			return err
		}

		f := formatter.New()
		if noComments, _ := cmd.Flags().GetBool("no-comments"); noComments {
			f = f.WithoutComments()
		}
		reconstructed := f.ReconstructCode(tree)

		// Apply clang-format if requested
		useClang, _ := cmd.Flags().GetBool("clang-format")
		if useClang {
			formatted, err := f.FormatWithClang(reconstructed)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Warning: clang-format failed: %v\n", err)
				fmt.Print(reconstructed)
			} else {
				fmt.Print(formatted)
			}
		} else {
			fmt.Print(reconstructed)
		}

		return nil
	},
}

func init() {
	formatCmd.Flags().BoolP("clang-format", "c", false, "Apply clang-format to the output")
	formatCmd.Flags().Bool("no-comments", false, "Omit documentation comments")
}
