// Package resolver enforces cross-argument rules over a tentative argument
// selection.
//
// Rules are applied in a fixed order within each pass so that results are
// deterministic for a given random stream: requires, mutually_exclusive,
// all_or_none, one_of_required, then depends_on. Passes repeat until no rule
// forces a further change; a schema whose rules never reach a fixed point
// within maxPasses is contradictory and reported as a configuration error.
package resolver

import (
	"math/rand"
	"sort"

	"github.com/rmarinbe/argsfuzz/internal/models"
)

// maxPasses bounds rule enforcement. A well-formed schema stabilizes in one
// or two passes; hitting the cap means the rules contradict each other.
const maxPasses = 5

// Selection is the mutable set of argument names chosen for one case.
type Selection map[string]bool

// NewSelection builds a selection from argument names.
func NewSelection(names ...string) Selection {
	sel := make(Selection, len(names))
	for _, n := range names {
		sel[n] = true
	}
	return sel
}

// Names returns the selected argument names sorted lexically. Use for
// stable iteration when declaration order is unavailable.
func (s Selection) Names() []string {
	names := make([]string, 0, len(s))
	for n := range s {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Clone returns an independent copy of the selection.
func (s Selection) Clone() Selection {
	c := make(Selection, len(s))
	for n := range s {
		c[n] = true
	}
	return c
}

// Resolver applies rule corrections within a single scope. One resolver is
// created per case per scope and consumes only the case's random stream.
type Resolver struct {
	scope *models.Scope
	rng   *rand.Rand
}

// New creates a resolver for the given scope and case stream.
func New(scope *models.Scope, rng *rand.Rand) *Resolver {
	return &Resolver{scope: scope, rng: rng}
}

// Expand resolves a rule's argument-or-group reference list to concrete
// argument names, preserving declaration order and dropping duplicates.
func (r *Resolver) Expand(refs []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, ref := range refs {
		if members := r.scope.Group(ref); members != nil {
			for _, m := range members {
				if !seen[m] {
					seen[m] = true
					out = append(out, m)
				}
			}
			continue
		}
		if !seen[ref] {
			seen[ref] = true
			out = append(out, ref)
		}
	}
	return out
}

// Enforce applies rule corrections to the selection until a fixed point is
// reached. Required arguments are force-selected first. The input selection
// is modified in place and also returned.
func (r *Resolver) Enforce(sel Selection) (Selection, error) {
	for _, arg := range r.scope.Arguments {
		if arg.Required {
			sel[arg.Name] = true
		}
	}

	for pass := 0; pass < maxPasses; pass++ {
		if !r.enforcePass(sel) {
			return sel, nil
		}
	}
	return nil, models.NewConfigurationError(r.scope.Subcommand,
		"rules did not stabilize within %d passes; contradictory rule set", maxPasses)
}

// enforcePass runs one full pass over all rule kinds. Reports whether the
// selection changed.
func (r *Resolver) enforcePass(sel Selection) bool {
	changed := false

	for _, rule := range r.scope.Rules {
		if rule.Kind == models.RuleRequires {
			changed = r.applyRequires(sel, rule) || changed
		}
	}
	for _, rule := range r.scope.Rules {
		if rule.Kind == models.RuleMutuallyExclusive {
			changed = r.applyMutuallyExclusive(sel, rule) || changed
		}
	}
	for _, rule := range r.scope.Rules {
		if rule.Kind == models.RuleAllOrNone {
			changed = r.applyAllOrNone(sel, rule) || changed
		}
	}
	for _, rule := range r.scope.Rules {
		if rule.Kind == models.RuleOneOfRequired {
			changed = r.applyOneOfRequired(sel, rule) || changed
		}
	}
	changed = r.applyDependsOn(sel) || changed

	return changed
}

// applyRequires force-selects the remaining references when the first-listed
// trigger is present. Group references are satisfied by any already-selected
// member, otherwise one member is picked from the stream.
func (r *Resolver) applyRequires(sel Selection, rule *models.Rule) bool {
	trigger := rule.Arguments[0]
	if !r.refSatisfied(sel, trigger) {
		return false
	}
	changed := false
	for _, ref := range rule.Arguments[1:] {
		changed = r.forceRef(sel, ref) || changed
	}
	return changed
}

// applyMutuallyExclusive keeps exactly one selected member, chosen via the
// case stream, when more than one is present.
func (r *Resolver) applyMutuallyExclusive(sel Selection, rule *models.Rule) bool {
	members := r.Expand(rule.Arguments)
	var present []string
	for _, m := range members {
		if sel[m] {
			present = append(present, m)
		}
	}
	if len(present) <= 1 {
		return false
	}
	keep := present[r.rng.Intn(len(present))]
	for _, m := range present {
		if m != keep {
			delete(sel, m)
		}
	}
	return true
}

// applyAllOrNone force-selects every listed member when any is present.
func (r *Resolver) applyAllOrNone(sel Selection, rule *models.Rule) bool {
	members := r.Expand(rule.Arguments)
	any := false
	for _, m := range members {
		if sel[m] {
			any = true
			break
		}
	}
	if !any {
		return false
	}
	changed := false
	for _, m := range members {
		if !sel[m] && r.scope.Argument(m) != nil {
			sel[m] = true
			changed = true
		}
	}
	return changed
}

// applyOneOfRequired force-selects exactly one member, chosen via the case
// stream, when none is present.
func (r *Resolver) applyOneOfRequired(sel Selection, rule *models.Rule) bool {
	members := r.Expand(rule.Arguments)
	for _, m := range members {
		if sel[m] {
			return false
		}
	}
	eligible := r.eligibleMembers(members)
	if len(eligible) == 0 {
		return false
	}
	sel[eligible[r.rng.Intn(len(eligible))]] = true
	return true
}

// applyDependsOn force-selects each dependency target of every selected
// argument. Conditional dependencies force their target too; whether the
// target's value then satisfies the condition is settled after value
// generation by EnforceConditionals. Arguments are visited in declaration
// order so stream consumption is reproducible.
func (r *Resolver) applyDependsOn(sel Selection) bool {
	changed := false
	for _, arg := range r.scope.Arguments {
		if !sel[arg.Name] {
			continue
		}
		for _, ref := range arg.DependsOn {
			changed = r.forceRef(sel, models.ParseDependency(ref).Target) || changed
		}
	}
	return changed
}

// EnforceConditionals drops selected arguments whose value-conditional
// dependencies are unsatisfied. valueOf reports the generated value for an
// argument name; a missing value (flag targets, unselected targets) never
// satisfies a condition. Conditions consult values only, so one sweep in
// declaration order settles every argument. Returns the dropped names in
// declaration order.
func (r *Resolver) EnforceConditionals(sel Selection, valueOf func(string) (string, bool)) []string {
	var dropped []string
	for _, arg := range r.scope.Arguments {
		if !sel[arg.Name] {
			continue
		}
		for _, ref := range arg.DependsOn {
			dep := models.ParseDependency(ref)
			if !dep.Conditional() {
				continue
			}
			if value, ok := valueOf(dep.Target); !dep.Satisfied(value, ok) {
				delete(sel, arg.Name)
				dropped = append(dropped, arg.Name)
				break
			}
		}
	}
	return dropped
}

// refSatisfied reports whether an argument-or-group reference is covered by
// the current selection.
func (r *Resolver) refSatisfied(sel Selection, ref string) bool {
	if members := r.scope.Group(ref); members != nil {
		for _, m := range members {
			if sel[m] {
				return true
			}
		}
		return false
	}
	return sel[ref]
}

// forceRef ensures a reference is covered: a plain argument is selected
// directly, a group gets one seeded-random member unless one is already
// selected. Reports whether the selection changed.
func (r *Resolver) forceRef(sel Selection, ref string) bool {
	if members := r.scope.Group(ref); members != nil {
		for _, m := range members {
			if sel[m] {
				return false
			}
		}
		eligible := r.eligibleMembers(members)
		if len(eligible) == 0 {
			// Nothing with nonzero probability; pick any existing member.
			for _, m := range members {
				if r.scope.Argument(m) != nil {
					eligible = append(eligible, m)
				}
			}
		}
		if len(eligible) == 0 {
			return false
		}
		sel[eligible[r.rng.Intn(len(eligible))]] = true
		return true
	}
	if sel[ref] || r.scope.Argument(ref) == nil {
		return false
	}
	sel[ref] = true
	return true
}

// eligibleMembers filters member names to arguments that exist in the scope
// with nonzero probability. Zero-probability arguments may be force-selected
// when named directly but are never picked as a random representative.
func (r *Resolver) eligibleMembers(members []string) []string {
	var eligible []string
	for _, m := range members {
		if arg := r.scope.Argument(m); arg != nil && arg.Probability > 0 {
			eligible = append(eligible, m)
		}
	}
	return eligible
}

// WouldViolate reports whether adding candidate to the selection would break
// a mutually_exclusive rule. The selector uses it when filling toward the
// minimum argument count.
func (r *Resolver) WouldViolate(sel Selection, candidate string) bool {
	for _, rule := range r.scope.Rules {
		if rule.Kind != models.RuleMutuallyExclusive {
			continue
		}
		members := r.Expand(rule.Arguments)
		inRule := false
		selectedInRule := 0
		for _, m := range members {
			if m == candidate {
				inRule = true
			}
			if sel[m] {
				selectedInRule++
			}
		}
		if inRule && selectedInRule > 0 {
			return true
		}
	}
	return false
}

// Involved returns the set of selected arguments that cannot be dropped when
// trimming toward a ceiling: required arguments, rule participants,
// dependency targets, and arguments carrying dependencies. One selected
// member of each satisfied one_of_required rule is always kept.
func (r *Resolver) Involved(sel Selection) map[string]bool {
	keep := make(map[string]bool)

	for _, arg := range r.scope.Arguments {
		if !sel[arg.Name] {
			continue
		}
		if arg.Required {
			keep[arg.Name] = true
		}
		if len(arg.DependsOn) > 0 {
			keep[arg.Name] = true
			for _, ref := range arg.DependsOn {
				for _, m := range r.Expand([]string{models.ParseDependency(ref).Target}) {
					if sel[m] {
						keep[m] = true
					}
				}
			}
		}
	}

	for _, rule := range r.scope.Rules {
		members := r.Expand(rule.Arguments)
		switch rule.Kind {
		case models.RuleOneOfRequired:
			var present []string
			for _, m := range members {
				if sel[m] {
					present = append(present, m)
				}
			}
			if len(present) > 0 {
				keep[present[r.rng.Intn(len(present))]] = true
			}
		case models.RuleAllOrNone, models.RuleRequires:
			for _, m := range members {
				if sel[m] {
					keep[m] = true
				}
			}
		}
	}

	return keep
}
