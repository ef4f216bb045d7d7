// Package mutator derives deliberately-invalid cases from valid ones.
//
// Exactly one violation strategy is applied per invalid case, chosen
// uniformly among the strategies applicable to the case and schema at hand.
// Applicability is checked without consuming the random stream, and every
// structural candidate is verified to violate only its intended constraint
// class, so all other constraints remain satisfied. When no strategy
// applies, the case is left valid and the caller counts it separately.
package mutator

import (
	"fmt"
	"math/rand"
	"regexp"
	"strconv"

	"github.com/rmarinbe/argsfuzz/internal/models"
	"github.com/rmarinbe/argsfuzz/internal/resolver"
	"github.com/rmarinbe/argsfuzz/internal/values"
)

// Strategy names, reported in generation statistics and the corpus manifest.
const (
	StrategyDropRequired    = "drop_required"
	StrategyForceExclusive  = "force_mutually_exclusive"
	StrategyClearOneOf      = "clear_one_of_required"
	StrategySubsetAllOrNone = "subset_all_or_none"
	StrategyOmitDependency  = "omit_dependency"
	StrategyNumericBounds   = "numeric_out_of_bounds"
	StrategyEnumInvalid     = "enum_invalid"
	StrategyPatternMismatch = "pattern_mismatch"
	StrategyRepeatBounds    = "repeat_out_of_bounds"
)

// Probe values used to find a string that violates a pattern. The first
// probe the pattern rejects becomes the mutation payload.
var patternProbes = []string{"!", "_", "invalid!", "", "0", "zz~zz"}

// Mutator applies violation strategies within one case's scope.
type Mutator struct {
	scope *models.Scope
	res   *resolver.Resolver
	rng   *rand.Rand
	gen   *values.Generator
}

// New creates a mutator for one case. rng is the case stream; gen generates
// values for arguments a strategy force-adds.
func New(scope *models.Scope, rng *rand.Rand, gen *values.Generator) *Mutator {
	return &Mutator{
		scope: scope,
		res:   resolver.New(scope, rng),
		rng:   rng,
		gen:   gen,
	}
}

// A candidate is one concrete mutation under some strategy.
type candidate struct {
	apply func(c *models.Case) error
}

// Mutate applies exactly one violation strategy to the case, marking it
// invalid and recording the strategy name. Returns false (case untouched,
// still valid) when no strategy is applicable.
func (m *Mutator) Mutate(c *models.Case) (string, bool, error) {
	type strat struct {
		name       string
		candidates []candidate
	}

	all := []strat{
		{StrategyDropRequired, m.dropRequiredCandidates(c)},
		{StrategyForceExclusive, m.forceExclusiveCandidates(c)},
		{StrategyClearOneOf, m.clearOneOfCandidates(c)},
		{StrategySubsetAllOrNone, m.subsetAllOrNoneCandidates(c)},
		{StrategyOmitDependency, m.omitDependencyCandidates(c)},
		{StrategyNumericBounds, m.numericCandidates(c)},
		{StrategyEnumInvalid, m.enumCandidates(c)},
		{StrategyPatternMismatch, m.patternCandidates(c)},
		{StrategyRepeatBounds, m.repeatCandidates(c)},
	}

	var applicable []strat
	for _, s := range all {
		if len(s.candidates) > 0 {
			applicable = append(applicable, s)
		}
	}
	if len(applicable) == 0 {
		return "", false, nil
	}

	chosen := applicable[m.rng.Intn(len(applicable))]
	cand := chosen.candidates[m.rng.Intn(len(chosen.candidates))]
	if err := cand.apply(c); err != nil {
		return "", false, err
	}
	c.Valid = false
	c.Strategy = chosen.name
	return chosen.name, true, nil
}

// selectionSet returns the case's selected scope argument names.
func selectionSet(c *models.Case) map[string]bool {
	sel := make(map[string]bool, len(c.Args))
	for i := range c.Args {
		sel[c.Args[i].Arg.Name] = true
	}
	return sel
}

// violationClasses identifies which selection-level constraint classes a
// hypothetical selection breaks: "required", "mutex", "one_of",
// "all_or_none", "depends".
func (m *Mutator) violationClasses(sel map[string]bool) map[string]bool {
	out := make(map[string]bool)

	for _, arg := range m.scope.Arguments {
		if arg.Required && !sel[arg.Name] {
			out["required"] = true
		}
	}

	for _, rule := range m.scope.Rules {
		members := m.res.Expand(rule.Arguments)
		present, existing := 0, 0
		for _, name := range members {
			if m.scope.Argument(name) != nil {
				existing++
			}
			if sel[name] {
				present++
			}
		}
		switch rule.Kind {
		case models.RuleMutuallyExclusive:
			if present > 1 {
				out["mutex"] = true
			}
		case models.RuleOneOfRequired:
			if present == 0 {
				out["one_of"] = true
			}
		case models.RuleAllOrNone:
			if present > 0 && present < existing {
				out["all_or_none"] = true
			}
		case models.RuleRequires:
			if m.refCovered(sel, rule.Arguments[0]) {
				for _, ref := range rule.Arguments[1:] {
					if !m.refCovered(sel, ref) {
						out["depends"] = true
					}
				}
			}
		}
	}

	for _, arg := range m.scope.Arguments {
		if !sel[arg.Name] {
			continue
		}
		for _, ref := range arg.DependsOn {
			// Conditional dependencies ("mode=fast") are judged here by
			// target presence only; value conditions are settled during
			// case construction.
			if !m.refCovered(sel, models.ParseDependency(ref).Target) {
				out["depends"] = true
			}
		}
	}

	return out
}

func (m *Mutator) refCovered(sel map[string]bool, ref string) bool {
	if members := m.scope.Group(ref); members != nil {
		for _, member := range members {
			if sel[member] {
				return true
			}
		}
		return false
	}
	return sel[ref]
}

// violatesOnly reports whether the selection breaks the intended class and
// nothing else.
func (m *Mutator) violatesOnly(sel map[string]bool, class string) bool {
	got := m.violationClasses(sel)
	return len(got) == 1 && got[class]
}

// dropRequiredCandidates removes one required argument or positional.
func (m *Mutator) dropRequiredCandidates(c *models.Case) []candidate {
	var out []candidate

	for i := range c.Args {
		arg := c.Args[i].Arg
		if !arg.Required {
			continue
		}
		sel := selectionSet(c)
		delete(sel, arg.Name)
		if !m.violatesOnly(sel, "required") {
			continue
		}
		name := arg.Name
		out = append(out, candidate{apply: func(c *models.Case) error {
			c.RemoveArg(name)
			return nil
		}})
	}

	for i := range c.Positional {
		if !c.Positional[i].Positional.Required {
			continue
		}
		idx := i
		out = append(out, candidate{apply: func(c *models.Case) error {
			c.Positional = append(c.Positional[:idx], c.Positional[idx+1:]...)
			return nil
		}})
	}

	return out
}

// forceExclusiveCandidates adds a second member of a mutually_exclusive set.
func (m *Mutator) forceExclusiveCandidates(c *models.Case) []candidate {
	var out []candidate
	for _, rule := range m.scope.Rules {
		if rule.Kind != models.RuleMutuallyExclusive {
			continue
		}
		members := m.res.Expand(rule.Arguments)
		sel := selectionSet(c)
		anySelected := false
		for _, name := range members {
			if sel[name] {
				anySelected = true
				break
			}
		}
		for _, name := range members {
			arg := m.scope.Argument(name)
			if arg == nil || sel[name] {
				continue
			}
			trial := selectionSet(c)
			trial[name] = true
			if !anySelected {
				// Need two present; add the first selected member too.
				continue
			}
			if !m.violatesOnly(trial, "mutex") {
				continue
			}
			out = append(out, candidate{apply: m.addArgMutation(arg)})
		}
	}
	return out
}

// clearOneOfCandidates removes every selected member of a one_of_required
// rule.
func (m *Mutator) clearOneOfCandidates(c *models.Case) []candidate {
	var out []candidate
	for _, rule := range m.scope.Rules {
		if rule.Kind != models.RuleOneOfRequired {
			continue
		}
		members := m.res.Expand(rule.Arguments)
		sel := selectionSet(c)
		var present []string
		for _, name := range members {
			if sel[name] {
				present = append(present, name)
			}
		}
		if len(present) == 0 {
			continue
		}
		trial := selectionSet(c)
		for _, name := range present {
			delete(trial, name)
		}
		if !m.violatesOnly(trial, "one_of") {
			continue
		}
		toRemove := present
		out = append(out, candidate{apply: func(c *models.Case) error {
			for _, name := range toRemove {
				c.RemoveArg(name)
			}
			return nil
		}})
	}
	return out
}

// subsetAllOrNoneCandidates leaves a strict subset of an all_or_none set
// selected: either by dropping one member from a fully-selected set or by
// adding one member to an empty one.
func (m *Mutator) subsetAllOrNoneCandidates(c *models.Case) []candidate {
	var out []candidate
	for _, rule := range m.scope.Rules {
		if rule.Kind != models.RuleAllOrNone {
			continue
		}
		members := m.res.Expand(rule.Arguments)
		var existing []string
		for _, name := range members {
			if m.scope.Argument(name) != nil {
				existing = append(existing, name)
			}
		}
		if len(existing) < 2 {
			continue
		}
		sel := selectionSet(c)
		present := 0
		for _, name := range existing {
			if sel[name] {
				present++
			}
		}

		if present == len(existing) {
			for _, name := range existing {
				trial := selectionSet(c)
				delete(trial, name)
				if !m.violatesOnly(trial, "all_or_none") {
					continue
				}
				removed := name
				out = append(out, candidate{apply: func(c *models.Case) error {
					c.RemoveArg(removed)
					return nil
				}})
			}
		} else if present == 0 {
			for _, name := range existing {
				trial := selectionSet(c)
				trial[name] = true
				if !m.violatesOnly(trial, "all_or_none") {
					continue
				}
				out = append(out, candidate{apply: m.addArgMutation(m.scope.Argument(name))})
			}
		}
	}
	return out
}

// omitDependencyCandidates keeps a dependent argument while removing the
// arguments satisfying one of its depends_on references.
func (m *Mutator) omitDependencyCandidates(c *models.Case) []candidate {
	var out []candidate
	for i := range c.Args {
		arg := c.Args[i].Arg
		for _, ref := range arg.DependsOn {
			dep := models.ParseDependency(ref).Target
			var covering []string
			for _, name := range m.res.Expand([]string{dep}) {
				if c.FindArg(name) >= 0 {
					covering = append(covering, name)
				}
			}
			if len(covering) == 0 {
				continue
			}
			trial := selectionSet(c)
			for _, name := range covering {
				delete(trial, name)
			}
			if !m.violatesOnly(trial, "depends") {
				continue
			}
			toRemove := covering
			out = append(out, candidate{apply: func(c *models.Case) error {
				for _, name := range toRemove {
					c.RemoveArg(name)
				}
				return nil
			}})
		}
	}
	return out
}

// addArgMutation force-adds an argument with one generated occurrence.
func (m *Mutator) addArgMutation(arg *models.Argument) func(c *models.Case) error {
	return func(c *models.Case) error {
		value, hasValue, err := m.gen.Generate(&arg.Value, arg.Name)
		if err != nil {
			return fmt.Errorf("generate value for forced argument %q: %w", arg.Name, err)
		}
		c.Args = append(c.Args, models.CaseArg{
			Arg:         arg,
			Occurrences: []models.Occurrence{{Value: value, HasValue: hasValue}},
		})
		return nil
	}
}

// numericCandidates pushes one generated numeric value outside its declared
// bounds.
func (m *Mutator) numericCandidates(c *models.Case) []candidate {
	var out []candidate

	for i := range c.Args {
		spec := &c.Args[i].Arg.Value
		if !spec.IsNumeric() {
			continue
		}
		for j := range c.Args[i].Occurrences {
			if !c.Args[i].Occurrences[j].HasValue {
				continue
			}
			ai, oi := i, j
			out = append(out, candidate{apply: func(c *models.Case) error {
				c.Args[ai].Occurrences[oi].Value = m.outOfBounds(spec)
				return nil
			}})
		}
	}

	for i := range c.Positional {
		spec := &c.Positional[i].Positional.Value
		if !spec.IsNumeric() {
			continue
		}
		for j := range c.Positional[i].Values {
			pi, vi := i, j
			out = append(out, candidate{apply: func(c *models.Case) error {
				c.Positional[pi].Values[vi] = m.outOfBounds(spec)
				return nil
			}})
		}
	}

	return out
}

// outOfBounds produces a value strictly outside [Min, Max], above or below
// by a stream-drawn margin.
func (m *Mutator) outOfBounds(spec *models.ValueSpec) string {
	above := m.rng.Intn(2) == 0
	margin := 1 + m.rng.Intn(100)

	if spec.Kind == models.KindFloat {
		if above {
			return strconv.FormatFloat(spec.Max+float64(margin), 'f', 2, 64)
		}
		return strconv.FormatFloat(spec.Min-float64(margin), 'f', 2, 64)
	}
	if above {
		return strconv.FormatInt(int64(spec.Max)+int64(margin), 10)
	}
	return strconv.FormatInt(int64(spec.Min)-int64(margin), 10)
}

// enumCandidates replaces an enum value with one outside the declared set.
func (m *Mutator) enumCandidates(c *models.Case) []candidate {
	var out []candidate

	replace := func(spec *models.ValueSpec, set func(string)) candidate {
		return candidate{apply: func(*models.Case) error {
			set(m.invalidEnumValue(spec))
			return nil
		}}
	}

	for i := range c.Args {
		spec := &c.Args[i].Arg.Value
		if spec.Kind != models.KindEnum {
			continue
		}
		for j := range c.Args[i].Occurrences {
			if !c.Args[i].Occurrences[j].HasValue {
				continue
			}
			ai, oi := i, j
			out = append(out, replace(spec, func(v string) { c.Args[ai].Occurrences[oi].Value = v }))
		}
	}
	for i := range c.Positional {
		spec := &c.Positional[i].Positional.Value
		if spec.Kind != models.KindEnum {
			continue
		}
		for j := range c.Positional[i].Values {
			pi, vi := i, j
			out = append(out, replace(spec, func(v string) { c.Positional[pi].Values[vi] = v }))
		}
	}

	return out
}

func (m *Mutator) invalidEnumValue(spec *models.ValueSpec) string {
	member := func(v string) bool {
		for _, candidate := range spec.Values {
			if candidate == v {
				return true
			}
		}
		return false
	}
	for attempt := 0; attempt < 8; attempt++ {
		v := "invalid_" + values.FallbackToken(m.rng)
		if !member(v) {
			return v
		}
	}
	// Pathological value sets; extend until the value falls outside.
	v := "invalid_"
	for member(v) {
		v += "_"
	}
	return v
}

// patternCandidates replaces a pattern-bound value with text the pattern
// rejects. Applicability requires a compilable pattern and a probe it does
// not match; patterns matching every probe (such as ".*") are skipped.
func (m *Mutator) patternCandidates(c *models.Case) []candidate {
	var out []candidate

	probeFor := func(spec *models.ValueSpec) (string, bool) {
		if spec.Pattern == "" {
			return "", false
		}
		switch spec.Kind {
		case models.KindString, models.KindFile, models.KindDirectory:
		default:
			return "", false
		}
		re, err := regexp.Compile(spec.Pattern)
		if err != nil {
			return "", false
		}
		for _, probe := range patternProbes {
			if !re.MatchString(probe) {
				return probe, true
			}
		}
		return "", false
	}

	for i := range c.Args {
		probe, ok := probeFor(&c.Args[i].Arg.Value)
		if !ok {
			continue
		}
		for j := range c.Args[i].Occurrences {
			if !c.Args[i].Occurrences[j].HasValue {
				continue
			}
			ai, oi, payload := i, j, probe
			out = append(out, candidate{apply: func(c *models.Case) error {
				c.Args[ai].Occurrences[oi].Value = payload
				return nil
			}})
		}
	}
	for i := range c.Positional {
		probe, ok := probeFor(&c.Positional[i].Positional.Value)
		if !ok {
			continue
		}
		for j := range c.Positional[i].Values {
			pi, vi, payload := i, j, probe
			out = append(out, candidate{apply: func(c *models.Case) error {
				c.Positional[pi].Values[vi] = payload
				return nil
			}})
		}
	}

	return out
}

// repeatCandidates pushes a repeat_flag occurrence count outside
// [min_occurs, max_occurs]: above the ceiling by appending occurrences, or
// below a floor greater than one by truncating.
func (m *Mutator) repeatCandidates(c *models.Case) []candidate {
	var out []candidate
	for i := range c.Args {
		arg := c.Args[i].Arg
		if arg.Repeat == nil {
			continue
		}
		ai := i

		out = append(out, candidate{apply: func(c *models.Case) error {
			target := arg.Repeat.MaxOccurs + 1
			for len(c.Args[ai].Occurrences) < target {
				value, hasValue, err := m.gen.Generate(&arg.Value, arg.Name)
				if err != nil {
					return fmt.Errorf("generate repeat occurrence for %q: %w", arg.Name, err)
				}
				c.Args[ai].Occurrences = append(c.Args[ai].Occurrences,
					models.Occurrence{Value: value, HasValue: hasValue})
			}
			return nil
		}})

		if arg.Repeat.MinOccurs >= 2 {
			out = append(out, candidate{apply: func(c *models.Case) error {
				target := arg.Repeat.MinOccurs - 1
				if len(c.Args[ai].Occurrences) > target {
					c.Args[ai].Occurrences = c.Args[ai].Occurrences[:target]
				}
				return nil
			}})
		}
	}
	return out
}
