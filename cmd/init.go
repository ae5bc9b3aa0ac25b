package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"cppparser/pkg/config"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init [directory]",
	Short: "Write a " + config.FileName + " configuration file",
	Long: `Write a ` + config.FileName + ` configuration file into a directory. The settings
given on the command line (-I, -isystem, -D, -U, --max-errors, --jobs) are stored in
it, and an include directory found next to the file is added to the include paths.

Examples:
  # Initialize the current directory
  cppparser init .

  # Store a define and an include path
  cppparser init -D NDEBUG -I third_party/include src/`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		targetDir := "."
		if len(args) > 0 {
			targetDir = args[0]
		}
		path := filepath.Join(targetDir, config.FileName)

		overwrite, _ := cmd.Flags().GetBool("overwrite")
		if _, err := os.Stat(path); err == nil && !overwrite {
			return fmt.Errorf("%s already exists, use --overwrite to replace it", path)
		}

		c := config.Default()
		c.Merge(config.Overrides{
			IncludePaths:       relativeTo(targetDir, includePaths),
			SystemIncludePaths: relativeTo(targetDir, systemIncludes),
			Defines:            defines,
			Undefines:          undefines,
			MaxErrors:          maxErrors,
			LogLevel:           logLevel,
			Jobs:               jobs,
		})
		if len(c.IncludePaths) == 0 {
			if info, err := os.Stat(filepath.Join(targetDir, "include")); err == nil && info.IsDir() {
				c.IncludePaths = []string{"include"}
			}
		}

		if err := config.Write(path, c); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		fmt.Printf("Wrote %s\n", path)
		return nil
	},
}

func init() {
	initCmd.Flags().Bool("overwrite", false, "Overwrite an existing configuration file")
}

// relativeTo rewrites paths given relative to the working directory as relative to dir
func relativeTo(dir string, paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if !filepath.IsAbs(p) {
			if abs, err := filepath.Abs(p); err == nil {
				if absDir, err := filepath.Abs(dir); err == nil {
					if rel, err := filepath.Rel(absDir, abs); err == nil {
						p = rel
					}
				}
			}
		}
		out = append(out, p)
	}
	return out
}
