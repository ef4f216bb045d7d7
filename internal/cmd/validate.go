package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/rmarinbe/argsfuzz/internal/fuzzer"
	"github.com/rmarinbe/argsfuzz/internal/parser"
	"github.com/rmarinbe/argsfuzz/internal/values"
)

// NewValidateCommand creates and returns the validate subcommand
func NewValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <schema-file>...",
		Short: "Validate one or more schema files",
		Long: `Parse and validate schema files, checking for:
  - Known value kinds and rule types
  - Bound ordering (min <= max) and list count consistency
  - Rule and depends_on references resolving to arguments or groups
  - Custom generators registered for every referenced name
  - Rules reaching a fixed point (no contradictory rule sets)

Exit code: 0 if valid, 1 if errors found`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return validateSchemas(args, cmd.OutOrStdout())
		},
		SilenceUsage: true,
	}

	return cmd
}

// validateSchemas validates each schema file, reporting per-file results.
// Returns an error if any file fails.
func validateSchemas(paths []string, output io.Writer) error {
	registry := values.NewRegistry()
	failed := 0

	for _, path := range paths {
		if err := validateSchema(path, registry, output); err != nil {
			fmt.Fprintf(output, "✗ %s: %v\n", path, err)
			failed++
			continue
		}
		fmt.Fprintf(output, "✓ %s\n", path)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d schema file(s) failed validation", failed, len(paths))
	}
	return nil
}

func validateSchema(path string, registry *values.Registry, output io.Writer) error {
	result, err := parser.ParseFile(path)
	if err != nil {
		return err
	}
	for _, warning := range result.Warnings {
		fmt.Fprintf(output, "  warning: %s\n", warning)
	}

	fz := fuzzer.New(result.Schema, registry, values.NewCachedLister(), fuzzer.Options{
		NumCases: 1,
		Seed:     0,
	})
	if err := fz.Preflight(); err != nil {
		return err
	}

	fmt.Fprintf(output, "  arguments: %d, positionals: %d, rules: %d, subcommands: %d\n",
		len(result.Schema.Arguments), len(result.Schema.Positionals),
		len(result.Schema.Rules), len(result.Schema.Subcommands))
	return nil
}
