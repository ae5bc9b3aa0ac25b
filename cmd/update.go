package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"cppparser/pkg/diag"
	"cppparser/pkg/docstring"
	"cppparser/pkg/document"
	"cppparser/pkg/formatter"

	"github.com/spf13/cobra"
)

var updateCmd = &cobra.Command{
	Use:   "update [file] [qualified-name] [comment-file]",
	Short: "Replace the Doxygen comment of a declaration",
	Long: `Replace the Doxygen comment of one declaration and regenerate the file.
The comment can be provided via a file or stdin. The output is the regenerated
source: macros are expanded and directives are not reproduced.`,
	Args: cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		filename := args[0]
		path := args[1]

		var commentContent []byte
		var err error
		if len(args) == 3 {
			commentContent, err = os.ReadFile(args[2])
			if err != nil {
				return fmt.Errorf("failed to read comment file %s: %w", args[2], err)
			}
		} else {
			commentContent, err = io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("failed to read from stdin: %w", err)
			}
		}

		comment := docstring.Parse(string(commentContent), diag.Location{})
		if comment == nil {
			return fmt.Errorf("invalid doxygen comment format")
		}

		doc, err := document.NewFromFile(filename, cfg.ParserConfig(logger))
		if err != nil {
			return err
		}
		if err := doc.SetComment(path, comment); err != nil {
			return err
		}
		return writeDocument(cmd, doc, filename)
	},
}

// BatchUpdateInput is the JSON document read by batch-update
type BatchUpdateInput struct {
	SourceFile string `json:"sourceFile"`
	Updates    []struct {
		Path       string            `json:"path"`
		Comment    string            `json:"comment,omitempty"`
		Brief      *string           `json:"brief,omitempty"`
		Detailed   *string           `json:"detailed,omitempty"`
		Params     map[string]string `json:"params,omitempty"`
		Return     *string           `json:"return,omitempty"`
		Groups     []string          `json:"groups,omitempty"`
		Deprecated *string           `json:"deprecated,omitempty"`
		CustomTags map[string]string `json:"tags,omitempty"`
	} `json:"updates"`
}

var batchUpdateCmd = &cobra.Command{
	Use:   "batch-update [json-file]",
	Short: "Update the documentation of several declarations from JSON input",
	Long: `Update the documentation of several declarations of one file.
The input should be a JSON file with the following structure:
{
  "sourceFile": "path/to/header.hpp",
  "updates": [
    {
      "path": "namespace::class::method",
      "comment": "/**\n * Brief description\n */"
    },
    {
      "path": "namespace::function",
      "brief": "Does a thing",
      "params": {"x": "The input"},
      "return": "The result"
    }
  ]
}
A "comment" replaces the whole comment; the other fields edit it.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonContent, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read JSON file: %w", err)
		}

		var input BatchUpdateInput
		if err := json.Unmarshal(jsonContent, &input); err != nil {
			return fmt.Errorf("failed to parse JSON: %w", err)
		}

		doc, err := document.NewFromFile(input.SourceFile, cfg.ParserConfig(logger))
		if err != nil {
			return err
		}

		var updates []document.BatchUpdate
		for _, u := range input.Updates {
			if u.Comment != "" {
				if err := doc.SetComment(u.Path, docstring.Parse(u.Comment, diag.Location{})); err != nil {
					return err
				}
			}
			updates = append(updates, document.BatchUpdate{
				Path:       u.Path,
				Brief:      u.Brief,
				Detailed:   u.Detailed,
				Params:     u.Params,
				Return:     u.Return,
				Groups:     u.Groups,
				Deprecated: u.Deprecated,
				CustomTags: u.CustomTags,
			})
		}
		if err := doc.ApplyBatchUpdates(updates); err != nil {
			return err
		}

		fmt.Fprintf(os.Stderr, "Applied %d updates\n", len(input.Updates))
		return writeDocument(cmd, doc, input.SourceFile)
	},
}

func init() {
	for _, c := range []*cobra.Command{updateCmd, batchUpdateCmd} {
		c.Flags().BoolP("in-place", "i", false, "Update the file in place")
		c.Flags().StringP("output", "o", "", "Write output to specific file")
		c.Flags().BoolP("format", "f", false, "Apply clang-format to the result")
		c.Flags().BoolP("backup", "b", false, "Create backup when updating in place")
	}
}

// writeDocument regenerates doc and writes it where the output flags say
func writeDocument(cmd *cobra.Command, doc *document.Document, filename string) error {
	inPlace, _ := cmd.Flags().GetBool("in-place")
	outputFile, _ := cmd.Flags().GetString("output")
	useClangFormat, _ := cmd.Flags().GetBool("format")
	backup, _ := cmd.Flags().GetBool("backup")

	updatedContent := doc.SaveToString()
	if useClangFormat {
		formatted, err := formatter.New().FormatWithClang(updatedContent)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: clang-format failed: %v\n", err)
		} else {
			updatedContent = formatted
		}
	}

	switch {
	case inPlace:
		return writeInPlace(filename, updatedContent, backup)
	case outputFile != "":
		return os.WriteFile(outputFile, []byte(updatedContent), 0644)
	default:
		fmt.Print(updatedContent)
	}
	return nil
}

// writeInPlace writes content to a file, optionally creating a backup
func writeInPlace(filename, content string, backup bool) error {
	if backup {
		backupFile := filename + ".bak"
		originalContent, err := os.ReadFile(filename)
		if err != nil {
			return fmt.Errorf("failed to read original file for backup: %w", err)
		}

		if err := os.WriteFile(backupFile, originalContent, 0644); err != nil {
			return fmt.Errorf("failed to create backup file: %w", err)
		}

		fmt.Fprintf(os.Stderr, "Backup created: %s\n", backupFile)
	}

	return os.WriteFile(filename, []byte(content), 0644)
}
