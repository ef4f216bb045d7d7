// Package assembler orders a generated case into its final command-line
// token sequence.
//
// Global arguments come first, then the subcommand token, then the scope's
// flag-form arguments in declaration order, then positionals ascending by
// position. Tokens are emitted unescaped; shell quoting, if any, belongs to
// the corpus writer.
package assembler

import (
	"math/rand"
	"strings"

	"github.com/rmarinbe/argsfuzz/internal/models"
)

// Assemble renders the case into tokens, consuming rng for the flag-spelling
// and equals-form draws. equalsProb is the probability of emitting
// "--flag=value" instead of "--flag value"; only long flags use the equals
// form.
func Assemble(c *models.Case, equalsProb float64, rng *rand.Rand) []string {
	var tokens []string

	for i := range c.Globals {
		tokens = appendArg(tokens, &c.Globals[i], equalsProb, rng)
	}
	if c.Subcommand != "" {
		tokens = append(tokens, c.Subcommand)
	}
	for i := range c.Args {
		tokens = appendArg(tokens, &c.Args[i], equalsProb, rng)
	}
	for i := range c.Positional {
		tokens = append(tokens, c.Positional[i].Values...)
	}

	return tokens
}

// appendArg emits every occurrence of one argument. Each occurrence draws
// its own flag spelling and equals-form decision.
func appendArg(tokens []string, ca *models.CaseArg, equalsProb float64, rng *rand.Rand) []string {
	for _, occ := range ca.Occurrences {
		flag := ca.Arg.Flags[rng.Intn(len(ca.Arg.Flags))]
		if !occ.HasValue {
			tokens = append(tokens, flag)
			continue
		}
		if strings.HasPrefix(flag, "--") && rng.Float64() < equalsProb {
			tokens = append(tokens, flag+"="+occ.Value)
			continue
		}
		tokens = append(tokens, flag, occ.Value)
	}
	return tokens
}
