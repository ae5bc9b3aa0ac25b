package cmd

import (
	"fmt"

	"cppparser/pkg/document"

	"github.com/spf13/cobra"
)

var docsCmd = &cobra.Command{
	Use:   "docs [file|directory]...",
	Short: "Report documentation coverage and problems",
	Long: `Report how many declarations carry Doxygen documentation and check the
documentation for missing briefs, undocumented parameters and results, and @param
tags that name no parameter.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := findCppFiles(args, cfg)
		if err != nil {
			return err
		}

		showInfo, _ := cmd.Flags().GetBool("info")
		total, documented := 0, 0
		for _, filename := range files {
			doc, err := document.NewFromFile(filename, cfg.ParserConfig(logger))
			if err != nil {
				return err
			}

			stats := doc.Stats()
			total += stats.Total
			documented += stats.Documented
			fmt.Printf("%s: %d/%d documented (%.1f%%)\n", filename, stats.Documented, stats.Total, stats.Coverage)

			for _, issue := range doc.Validate() {
				if issue.Severity == "info" && !showInfo {
					continue
				}
				fmt.Printf("  %s: %s: %s\n", issue.Severity, issue.Path, issue.Message)
			}
		}

		if len(files) > 1 && total > 0 {
			fmt.Printf("Total: %d/%d documented (%.1f%%)\n", documented, total, float64(documented)/float64(total)*100)
		}
		return nil
	},
}

func init() {
	docsCmd.Flags().Bool("info", false, "Also list informational findings")
	rootCmd.AddCommand(docsCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(batchUpdateCmd)
}
