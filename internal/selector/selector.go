// Package selector decides which arguments, positionals, and subcommand make
// up a single generated case.
//
// Selection draws from the case's random stream in a fixed order: subcommand
// choice, per-argument probability pass, rule enforcement, min/max window
// adjustment, repeat counts, then positional inclusion. The constraint
// resolver is consulted after the tentative probability pass and again
// whenever the window adjustment changes the selection.
package selector

import (
	"math/rand"

	"github.com/rmarinbe/argsfuzz/internal/models"
	"github.com/rmarinbe/argsfuzz/internal/resolver"
)

// Inclusion probability for positionals that are neither required nor given
// an explicit probability by the schema.
const optionalPositionalProbability = 0.5

// Variadic positionals repeat between 1 and maxVariadicCount occurrences.
const maxVariadicCount = 3

// SelectedArg is one chosen argument with its occurrence count.
type SelectedArg struct {
	Arg         *models.Argument
	Occurrences int
}

// SelectedPositional is one chosen positional with its occurrence count
// (greater than 1 only for variadic positionals).
type SelectedPositional struct {
	Positional  *models.Positional
	Occurrences int
}

// Result is a constraint-consistent selection for one case. Arguments appear
// in schema declaration order, positionals in ascending position order.
type Result struct {
	Subcommand  string // Empty when no subcommand is used
	Args        []SelectedArg
	Positionals []SelectedPositional
}

// Selector performs per-case selection against a shared schema.
type Selector struct {
	schema *models.Schema
}

// New creates a selector for the schema.
func New(schema *models.Schema) *Selector {
	return &Selector{schema: schema}
}

// Select produces one constraint-consistent selection, consuming only rng.
// minArgs/maxArgs bound the final argument count; maxArgs <= 0 means the
// schema's generation configuration applies.
func (s *Selector) Select(rng *rand.Rand, minArgs, maxArgs int) (*Result, error) {
	if maxArgs <= 0 {
		maxArgs = s.schema.Generation.MaxArgs
	}
	if minArgs <= 0 {
		minArgs = s.schema.Generation.MinArgs
	}

	scope := s.chooseScope(rng)
	res := resolver.New(scope, rng)

	// Tentative probability pass; required arguments are forced by Enforce.
	sel := resolver.NewSelection()
	for _, arg := range scope.Arguments {
		if !arg.Required && rng.Float64() < arg.Probability {
			sel[arg.Name] = true
		}
	}

	sel, err := res.Enforce(sel)
	if err != nil {
		return nil, err
	}

	sel, err = s.applyWindow(rng, res, scope, sel, minArgs, maxArgs)
	if err != nil {
		return nil, err
	}

	result := &Result{Subcommand: scope.Subcommand}

	// Repeat counts, drawn in declaration order.
	for _, arg := range scope.Arguments {
		if !sel[arg.Name] {
			continue
		}
		occ := 1
		if arg.Repeat != nil {
			occ = arg.Repeat.MinOccurs
			if span := arg.Repeat.MaxOccurs - arg.Repeat.MinOccurs; span > 0 {
				occ += rng.Intn(span + 1)
			}
		}
		result.Args = append(result.Args, SelectedArg{Arg: arg, Occurrences: occ})
	}

	// Positionals, in position order.
	for _, pos := range scope.Positionals {
		if !pos.Required && rng.Float64() >= optionalPositionalProbability {
			continue
		}
		occ := 1
		if pos.Variadic {
			occ = 1 + rng.Intn(maxVariadicCount)
		}
		result.Positionals = append(result.Positionals, SelectedPositional{Positional: pos, Occurrences: occ})
	}

	return result, nil
}

// chooseScope picks the subcommand scope (or the root) for this case.
// Subcommands are weighted by their probability; an implicit "no subcommand"
// branch carries the remaining weight, never less than 10% of the total.
func (s *Selector) chooseScope(rng *rand.Rand) *models.Scope {
	if len(s.schema.Subcommands) == 0 {
		return s.schema.RootScope()
	}

	total := 0.0
	for _, sub := range s.schema.Subcommands {
		total += sub.Probability
	}
	none := 1.0 - total
	if none < total*0.1 {
		none = total * 0.1
	}
	if total == 0 {
		return s.schema.RootScope()
	}

	draw := rng.Float64() * (total + none)
	for _, sub := range s.schema.Subcommands {
		if draw < sub.Probability {
			return s.schema.SubcommandScope(sub.Name)
		}
		draw -= sub.Probability
	}
	return s.schema.RootScope()
}

// applyWindow enforces the [minArgs, maxArgs] argument-count window after
// rule resolution. Additions re-run rule enforcement; removals only touch
// arguments not involved in any rule, so the selection stays consistent.
func (s *Selector) applyWindow(rng *rand.Rand, res *resolver.Resolver, scope *models.Scope,
	sel resolver.Selection, minArgs, maxArgs int) (resolver.Selection, error) {

	if len(sel) < minArgs {
		sel = s.fillToFloor(rng, res, scope, sel, minArgs)
		var err error
		sel, err = res.Enforce(sel)
		if err != nil {
			return nil, err
		}
	}

	if len(sel) > maxArgs {
		sel = s.trimToCeiling(rng, res, scope, sel, maxArgs)
	}
	return sel, nil
}

// fillToFloor adds eligible arguments by random draw until the floor is met
// or no eligible argument remains. An argument is eligible when it is not
// yet selected, has nonzero probability, and adding it would not break a
// mutually_exclusive rule.
func (s *Selector) fillToFloor(rng *rand.Rand, res *resolver.Resolver, scope *models.Scope,
	sel resolver.Selection, minArgs int) resolver.Selection {

	var candidates []string
	for _, arg := range scope.Arguments {
		if !sel[arg.Name] && arg.Probability > 0 {
			candidates = append(candidates, arg.Name)
		}
	}
	rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})

	for _, name := range candidates {
		if len(sel) >= minArgs {
			break
		}
		if !res.WouldViolate(sel, name) {
			sel[name] = true
		}
	}
	return sel
}

// trimToCeiling drops non-required, rule-uninvolved arguments at random
// until the selection is at or below the ceiling. Required and rule-forced
// arguments are never dropped; a ceiling below the forced minimum is
// satisfied as closely as possible.
func (s *Selector) trimToCeiling(rng *rand.Rand, res *resolver.Resolver, scope *models.Scope,
	sel resolver.Selection, maxArgs int) resolver.Selection {

	keep := res.Involved(sel)

	var removable []string
	for _, arg := range scope.Arguments {
		if sel[arg.Name] && !keep[arg.Name] {
			removable = append(removable, arg.Name)
		}
	}
	rng.Shuffle(len(removable), func(i, j int) {
		removable[i], removable[j] = removable[j], removable[i]
	})

	for _, name := range removable {
		if len(sel) <= maxArgs {
			break
		}
		delete(sel, name)
	}
	return sel
}
