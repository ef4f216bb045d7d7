package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rmarinbe/argsfuzz/internal/docs"
	"github.com/rmarinbe/argsfuzz/internal/parser"
)

// NewDocsCommand creates the docs subcommand
func NewDocsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docs <schema-file>",
		Short: "Render schema documentation",
		Long: `Render a human-readable report of the schema's argument surface:
flags, value kinds and bounds, rules, positionals, and subcommands.

The output format follows the output path extension: .html renders HTML,
anything else (or stdout) emits Markdown.

Examples:
  argsfuzz docs tool.json                 # Markdown to stdout
  argsfuzz docs tool.json -o surface.md   # Markdown file
  argsfuzz docs tool.json -o surface.html # HTML file`,
		Args: cobra.ExactArgs(1),
		RunE: runDocs,
	}

	cmd.Flags().StringP("output", "o", "", "Output file (default: stdout)")

	return cmd
}

func runDocs(cmd *cobra.Command, args []string) error {
	result, err := parser.ParseFile(args[0])
	if err != nil {
		return err
	}

	output, _ := cmd.Flags().GetString("output")

	if output == "" {
		fmt.Fprint(cmd.OutOrStdout(), docs.RenderMarkdown(result.Schema))
		return nil
	}

	var data []byte
	if strings.EqualFold(filepath.Ext(output), ".html") {
		data, err = docs.RenderHTML(result.Schema)
		if err != nil {
			return err
		}
	} else {
		data = []byte(docs.RenderMarkdown(result.Schema))
	}

	if err := os.WriteFile(output, data, 0644); err != nil {
		return fmt.Errorf("write docs to %s: %w", output, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", output)
	return nil
}
