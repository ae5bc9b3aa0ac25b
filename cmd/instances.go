package cmd

import (
	"fmt"

	"cppparser/pkg/ast"
	"cppparser/pkg/instcache"

	"github.com/spf13/cobra"
)

var instancesCmd = &cobra.Command{
	Use:   "instances [file]",
	Short: "List the template instantiations named by a file",
	Long: `Parse a file and instantiate every template-id it names outside of templates.
Concept-ids used in initializers are evaluated. Each distinct instantiation is
listed once with its use count.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tree, err := parseFile(args[0])
		if err != nil {
			return err
		}

		cache := instcache.Collect(tree, logger)
		stats := cache.Stats()
		for _, inst := range cache.Instantiations() {
			fmt.Printf("%016x %s (uses: %d)\n", inst.Hash, inst.Name, inst.Uses)
			switch {
			case inst.Err != nil:
				fmt.Printf("  error: %v\n", inst.Err)
			case inst.Result != nil:
				if c, ok := inst.Template.(*ast.Concept); ok {
					value, known := cache.Satisfies(c, inst.Args)
					if known {
						fmt.Printf("  satisfied: %v\n", value)
					} else {
						fmt.Printf("  satisfied: unknown\n")
					}
					continue
				}
				fmt.Printf("  %s\n", ast.Format(inst.Result, tree.Global))
			}
		}

		fmt.Printf("%d instantiations, %d cache hits\n", stats.Entries, stats.Hits)
		return nil
	},
}
