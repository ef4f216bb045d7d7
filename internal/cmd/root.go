package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for argsfuzz
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "argsfuzz",
		Short: "Schema-driven CLI argument corpus generator",
		Long: `Argsfuzz turns a declarative schema of a command-line tool's argument
surface into a corpus of command-line invocations for fuzzing and testing.

Given arguments, subcommands, positionals, and inter-argument rules
(dependency, mutual exclusion, required-one-of, all-or-none), it produces
constraint-consistent combinations with generated values, and can derive
deliberately-invalid variants that violate exactly one constraint.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
	}

	// Add subcommands
	cmd.AddCommand(NewGenerateCommand())
	cmd.AddCommand(NewValidateCommand())
	cmd.AddCommand(NewDocsCommand())

	return cmd
}
