package cmd

import (
	"fmt"
	"os"

	"cppparser/pkg/xcheck"

	"github.com/spf13/cobra"
)

var xcheckCmd = &cobra.Command{
	Use:   "xcheck [file|directory]...",
	Short: "Compare syntax errors with the tree-sitter C++ grammar",
	Long: `Parse each file with cppparser and with tree-sitter-cpp and report the files on
which they disagree about the presence of syntax errors. Tree-sitter does not run
the preprocessor, so files relying on macros for their syntax are expected to differ.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := findCppFiles(args, cfg)
		if err != nil {
			return err
		}

		disagree := 0
		for _, filename := range files {
			content, err := os.ReadFile(filename)
			if err != nil {
				return fmt.Errorf("failed to read file %s: %w", filename, err)
			}

			res, err := xcheck.Check(cmd.Context(), newParser(), filename, content)
			if err != nil {
				return err
			}
			if res.Agree() {
				continue
			}

			disagree++
			fmt.Printf("%s: tree-sitter %d, cppparser %d\n", filename, len(res.TreeSitter), len(res.Syntax))
			for _, f := range res.TreeSitter {
				fmt.Printf("  tree-sitter %s:%s\n", filename, f)
			}
			for _, d := range res.Syntax {
				fmt.Printf("  cppparser   %s\n", d.Error())
			}
		}

		fmt.Printf("%d files, %d disagreements\n", len(files), disagree)
		return nil
	},
}
