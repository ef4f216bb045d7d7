// Package fuzzer orchestrates corpus generation: it derives one independent
// random stream per case, runs selection, value generation, optional
// mutation, and assembly, and hands finished cases to the caller in index
// order.
//
// Each case consumes its stream in a fixed order: the invalid-case decision,
// subcommand choice, argument probability pass, rule-enforcement draws,
// count-window draws, repeat counts, value generation in declaration order,
// positional values in position order, global-argument draws, mutation
// draws (invalid cases only), and finally the assembly draws. Identical
// seeds therefore reproduce identical output, regardless of worker count.
package fuzzer

import (
	"fmt"
	"math/rand"
	"runtime"
	"sync"

	"github.com/rmarinbe/argsfuzz/internal/assembler"
	"github.com/rmarinbe/argsfuzz/internal/models"
	"github.com/rmarinbe/argsfuzz/internal/mutator"
	"github.com/rmarinbe/argsfuzz/internal/resolver"
	"github.com/rmarinbe/argsfuzz/internal/selector"
	"github.com/rmarinbe/argsfuzz/internal/values"
)

// Options configure one generation run.
type Options struct {
	NumCases     int
	Seed         int64
	InvalidRatio float64 // Fraction of cases mutated into invalid variants
	MinArgs      int     // 0 = schema generation config
	MaxArgs      int     // 0 = schema generation config
	Workers      int     // 0 = GOMAXPROCS
}

// CaseResult is one finished corpus entry.
type CaseResult struct {
	Index       int
	Tokens      []string
	Valid       bool
	Subcommand  string
	Strategy    string   // Mutation strategy for invalid cases
	Synthesized []string // File/directory paths invented during generation
}

// Stats summarize a completed run.
type Stats struct {
	Total            int
	Valid            int
	Invalid          int
	SkippedMutations int // Invalid requested but no strategy applicable
	PatternFallbacks int // Pattern generations served by the fallback token
}

// Fuzzer generates cases against one immutable schema. Safe for concurrent
// case generation: the schema is read-only and every case owns its stream.
type Fuzzer struct {
	schema   *models.Schema
	registry *values.Registry
	lister   values.PathLister
	sel      *selector.Selector
	opts     Options
}

// New creates a fuzzer. registry and lister may be shared across runs; nil
// values get defaults.
func New(schema *models.Schema, registry *values.Registry, lister values.PathLister, opts Options) *Fuzzer {
	if registry == nil {
		registry = values.NewRegistry()
	}
	if lister == nil {
		lister = values.NewCachedLister()
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	return &Fuzzer{
		schema:   schema,
		registry: registry,
		lister:   lister,
		sel:      selector.New(schema),
		opts:     opts,
	}
}

// Preflight surfaces configuration errors before any case is attempted:
// custom generators referenced by the schema must be registered, and each
// scope's rules must reach a fixed point for the all-selected and
// none-selected probe selections.
func (f *Fuzzer) Preflight() error {
	if err := f.checkGenerators(); err != nil {
		return err
	}

	scopes := []*models.Scope{f.schema.RootScope()}
	for _, sub := range f.schema.Subcommands {
		scopes = append(scopes, f.schema.SubcommandScope(sub.Name))
	}
	for _, scope := range scopes {
		probe := resolver.New(scope, caseStream(f.opts.Seed, -1))
		if _, err := probe.Enforce(resolver.NewSelection()); err != nil {
			return err
		}
		all := resolver.NewSelection()
		for _, arg := range scope.Arguments {
			all[arg.Name] = true
		}
		if _, err := probe.Enforce(all); err != nil {
			return err
		}
	}
	return nil
}

func (f *Fuzzer) checkGenerators() error {
	check := func(scope string, spec *models.ValueSpec, owner string) error {
		if spec.Kind != models.KindCustom {
			return nil
		}
		if _, ok := f.registry.Lookup(spec.Generator); !ok {
			return models.NewConfigurationError(scope,
				"%q references unregistered generator %q (registered: %v)",
				owner, spec.Generator, f.registry.Names())
		}
		return nil
	}

	for _, arg := range f.schema.Arguments {
		if err := check("", &arg.Value, arg.Name); err != nil {
			return err
		}
	}
	for _, pos := range f.schema.Positionals {
		if err := check("", &pos.Value, pos.Name); err != nil {
			return err
		}
	}
	for _, sub := range f.schema.Subcommands {
		for _, arg := range sub.Arguments {
			if err := check(sub.Name, &arg.Value, arg.Name); err != nil {
				return err
			}
		}
		for _, pos := range sub.Positionals {
			if err := check(sub.Name, &pos.Value, pos.Name); err != nil {
				return err
			}
		}
	}
	return nil
}

// GenerateCase produces the case for one index. The result depends only on
// the schema, the options, and the index.
func (f *Fuzzer) GenerateCase(index int) (*CaseResult, *Stats, error) {
	rng := caseStream(f.opts.Seed, index)
	stats := &Stats{Total: 1}

	wantInvalid := rng.Float64() < f.opts.InvalidRatio

	selection, err := f.sel.Select(rng, f.opts.MinArgs, f.opts.MaxArgs)
	if err != nil {
		return nil, nil, fmt.Errorf("case %d: %w", index, err)
	}

	gen := values.NewGenerator(rng, f.registry, f.lister)
	c, err := f.buildCase(index, selection, gen, rng)
	if err != nil {
		return nil, nil, fmt.Errorf("case %d: %w", index, err)
	}

	if wantInvalid {
		scope := f.scopeFor(selection.Subcommand)
		mut := mutator.New(scope, rng, gen)
		if _, ok, err := mut.Mutate(c); err != nil {
			return nil, nil, fmt.Errorf("case %d: %w", index, err)
		} else if !ok {
			stats.SkippedMutations++
		}
	}

	tokens := assembler.Assemble(c, f.schema.Generation.EqualsFormProbability, rng)

	if c.Valid {
		stats.Valid++
	} else {
		stats.Invalid++
	}
	stats.PatternFallbacks += gen.Fallbacks

	return &CaseResult{
		Index:       index,
		Tokens:      tokens,
		Valid:       c.Valid,
		Subcommand:  c.Subcommand,
		Strategy:    c.Strategy,
		Synthesized: gen.Synthesized,
	}, stats, nil
}

func (f *Fuzzer) scopeFor(subcommand string) *models.Scope {
	if subcommand == "" {
		return f.schema.RootScope()
	}
	return f.schema.SubcommandScope(subcommand)
}

// buildCase generates values for a selection. Argument values are drawn in
// declaration order, then value-conditional dependencies are settled,
// then positionals in position order and global arguments when a subcommand
// is active.
func (f *Fuzzer) buildCase(index int, selection *selector.Result,
	gen *values.Generator, rng *rand.Rand) (*models.Case, error) {

	c := &models.Case{Index: index, Subcommand: selection.Subcommand, Valid: true}

	for _, sa := range selection.Args {
		ca := models.CaseArg{Arg: sa.Arg}
		for i := 0; i < sa.Occurrences; i++ {
			value, hasValue, err := gen.Generate(&sa.Arg.Value, sa.Arg.Name)
			if err != nil {
				return nil, err
			}
			ca.Occurrences = append(ca.Occurrences, models.Occurrence{Value: value, HasValue: hasValue})
		}
		c.Args = append(c.Args, ca)
	}

	f.enforceConditionals(c, rng)

	for _, sp := range selection.Positionals {
		cp := models.CasePositional{Positional: sp.Positional}
		for i := 0; i < sp.Occurrences; i++ {
			value, hasValue, err := gen.Generate(&sp.Positional.Value, sp.Positional.Name)
			if err != nil {
				return nil, err
			}
			if hasValue {
				cp.Values = append(cp.Values, value)
			}
		}
		c.Positional = append(c.Positional, cp)
	}

	// Root-scope global arguments ride along with subcommand cases.
	if selection.Subcommand != "" {
		for _, name := range f.schema.GlobalArgs {
			arg := f.schema.Argument(name)
			if arg == nil {
				continue
			}
			if !arg.Required && rng.Float64() >= arg.Probability {
				continue
			}
			value, hasValue, err := gen.Generate(&arg.Value, arg.Name)
			if err != nil {
				return nil, err
			}
			c.Globals = append(c.Globals, models.CaseArg{
				Arg:         arg,
				Occurrences: []models.Occurrence{{Value: value, HasValue: hasValue}},
			})
		}
	}

	return c, nil
}

// enforceConditionals drops case arguments whose value-conditional
// dependencies (depends_on "target=v1,v2") are unsatisfied by the generated
// values. Targets that produced no value, such as plain flags, never satisfy
// a condition. Consumes no stream draws.
func (f *Fuzzer) enforceConditionals(c *models.Case, rng *rand.Rand) {
	sel := resolver.NewSelection()
	valueByName := make(map[string]string, len(c.Args))
	for i := range c.Args {
		name := c.Args[i].Arg.Name
		sel[name] = true
		for _, occ := range c.Args[i].Occurrences {
			if occ.HasValue {
				valueByName[name] = occ.Value
				break
			}
		}
	}

	res := resolver.New(f.scopeFor(c.Subcommand), rng)
	dropped := res.EnforceConditionals(sel, func(name string) (string, bool) {
		v, ok := valueByName[name]
		return v, ok
	})
	for _, name := range dropped {
		c.RemoveArg(name)
	}
}

// Run generates all cases and delivers them to emit in index order. Workers
// generate in parallel; delivery is reordered so output is deterministic.
func (f *Fuzzer) Run(emit func(*CaseResult) error) (*Stats, error) {
	if err := f.Preflight(); err != nil {
		return nil, err
	}

	total := f.opts.NumCases
	workers := f.opts.Workers
	if workers > total {
		workers = total
	}
	if workers < 1 {
		workers = 1
	}

	type outcome struct {
		res   *CaseResult
		stats *Stats
		err   error
	}

	indices := make(chan int)
	results := make(chan outcome, workers)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range indices {
				res, stats, err := f.GenerateCase(idx)
				results <- outcome{res: res, stats: stats, err: err}
			}
		}()
	}

	go func() {
		for i := 0; i < total; i++ {
			indices <- i
		}
		close(indices)
		wg.Wait()
		close(results)
	}()

	// Reorder buffer: emit strictly by index.
	agg := &Stats{}
	pending := make(map[int]outcome)
	next := 0
	var firstErr error

	for out := range results {
		if out.err != nil {
			if firstErr == nil {
				firstErr = out.err
			}
			continue
		}
		pending[out.res.Index] = out
		for {
			buffered, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			next++
			if firstErr != nil {
				continue
			}
			agg.Total += buffered.stats.Total
			agg.Valid += buffered.stats.Valid
			agg.Invalid += buffered.stats.Invalid
			agg.SkippedMutations += buffered.stats.SkippedMutations
			agg.PatternFallbacks += buffered.stats.PatternFallbacks
			if err := emit(buffered.res); err != nil {
				firstErr = fmt.Errorf("write case %d: %w", buffered.res.Index, err)
			}
		}
	}

	if firstErr != nil {
		return agg, firstErr
	}
	return agg, nil
}
