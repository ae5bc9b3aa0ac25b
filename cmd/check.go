package cmd

import (
	"fmt"

	"cppparser/pkg/oracle"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check [file|directory]...",
	Short: "Run the // CHECK: expectations embedded in source files",
	Long: `Parse each file and compare every "// CHECK: text" line with the formatted
declaration that follows it. Files are checked concurrently; the command fails when
a check does not match or a file has errors.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := findCppFiles(args, cfg)
		if err != nil {
			return err
		}

		reports, err := oracle.RunFiles(cmd.Context(), cfg, logger, files, cfg.Jobs)
		if err != nil {
			return err
		}

		verbose, _ := cmd.Flags().GetBool("verbose")
		checks, failed, broken := 0, 0, 0
		for _, report := range reports {
			checks += len(report.Results)
			for _, d := range report.Errors() {
				fmt.Println(d.Error())
			}
			if report.Err != nil {
				fmt.Printf("%s: parse stopped: %v\n", report.File, report.Err)
			}
			if !report.OK() {
				broken++
			}

			for _, res := range report.Results {
				switch {
				case res.Passed():
					if verbose {
						fmt.Printf("PASS %s:%d: %s\n", report.File, res.Line, res.Want)
					}
				case res.Decl == nil:
					failed++
					fmt.Printf("FAIL %s:%d: no declaration follows\n  want: %s\n", report.File, res.Line, res.Want)
				default:
					failed++
					fmt.Printf("FAIL %s:%d: declaration at line %d\n  want: %s\n  got:  %s\n", report.File, res.Line, res.Loc.Line, res.Want, res.Got)
				}
			}
		}

		fmt.Printf("%d files, %d checks, %d failed\n", len(reports), checks, failed)
		if broken > 0 {
			return fmt.Errorf("%d of %d files failed", broken, len(reports))
		}
		return nil
	},
}

func init() {
	checkCmd.Flags().BoolP("verbose", "v", false, "Also list passing checks")
}
