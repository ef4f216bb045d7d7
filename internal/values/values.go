// Package values produces concrete textual values for selected arguments and
// positionals from their value specifications.
//
// Every draw consumes the case's explicit random stream; no component reads
// an ambient random source. A Generator is created per case; the custom
// generator registry and the filesystem path lister are shared across cases.
package values

import (
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"strings"

	"github.com/rmarinbe/argsfuzz/internal/models"
)

// Probability that an integer_optional argument resolves to a bare flag with
// no numeric value.
const bareIntegerProbability = 0.1

// Generator produces values for one case. It records side observations
// (regex fallbacks, synthesized paths) for the run's statistics and for the
// host tool's opt-in dummy-file creation.
type Generator struct {
	rng      *rand.Rand
	registry *Registry
	lister   PathLister

	// Synthesized collects file/directory paths that were invented because
	// no existing entry matched. The core never creates them; the host tool
	// may, when dummy-file creation is enabled.
	Synthesized []string

	// Fallbacks counts pattern generations that used the deterministic
	// fallback because the pattern was outside the supported subset.
	Fallbacks int
}

// NewGenerator creates a value generator bound to one case stream.
func NewGenerator(rng *rand.Rand, registry *Registry, lister PathLister) *Generator {
	return &Generator{rng: rng, registry: registry, lister: lister}
}

// Generate produces the value for one occurrence of the given spec.
// hasValue is false for flag-kind specs and for integer_optional occurrences
// that resolved to a bare flag. owner names the argument for error messages.
func (g *Generator) Generate(spec *models.ValueSpec, owner string) (value string, hasValue bool, err error) {
	switch spec.Kind {
	case models.KindFlag:
		return "", false, nil

	case models.KindInteger:
		return g.integer(spec), true, nil

	case models.KindIntegerOptional:
		if g.rng.Float64() < bareIntegerProbability {
			return "", false, nil
		}
		return g.integer(spec), true, nil

	case models.KindFloat:
		v := spec.Min + g.rng.Float64()*(spec.Max-spec.Min)
		return strconv.FormatFloat(v, 'f', 2, 64), true, nil

	case models.KindEnum:
		return spec.Values[g.rng.Intn(len(spec.Values))], true, nil

	case models.KindList:
		return g.list(spec), true, nil

	case models.KindString:
		return g.stringValue(spec), true, nil

	case models.KindFile:
		return g.path(spec, false), true, nil

	case models.KindDirectory:
		return g.path(spec, true), true, nil

	case models.KindCustom:
		fn, ok := g.registry.Lookup(spec.Generator)
		if !ok {
			return "", false, models.NewConfigurationError("",
				"argument %q references unregistered generator %q", owner, spec.Generator)
		}
		v, err := fn(g.rng, spec.Params)
		if err != nil {
			return "", false, fmt.Errorf("custom generator %q for %q: %w", spec.Generator, owner, err)
		}
		return v, true, nil
	}

	return "", false, models.NewConfigurationError("", "argument %q: unknown value kind %q", owner, spec.Kind)
}

func (g *Generator) integer(spec *models.ValueSpec) string {
	lo, hi := int64(spec.Min), int64(spec.Max)
	v := lo
	if hi > lo {
		v = lo + g.rng.Int63n(hi-lo+1)
	}
	return strconv.FormatInt(v, 10)
}

// list renders a list value. With a finite value set, elements are sampled
// without replacement and joined in selection order. Without one, integers
// are drawn from [Min,Max] and rendered per the list format.
func (g *Generator) list(spec *models.ValueSpec) string {
	if len(spec.Values) > 0 {
		maxCount := spec.MaxCount
		if maxCount > len(spec.Values) {
			maxCount = len(spec.Values)
		}
		count := boundedDraw(g.rng, spec.MinCount, maxCount)
		perm := g.rng.Perm(len(spec.Values))[:count]
		items := make([]string, count)
		for i, idx := range perm {
			items[i] = spec.Values[idx]
		}
		return strings.Join(items, spec.Separator)
	}

	count := boundedDraw(g.rng, spec.MinCount, spec.MaxCount)
	nums := make([]int, count)
	for i := range nums {
		nums[i] = int(boundedDraw64(g.rng, int64(spec.Min), int64(spec.Max)))
	}

	if spec.Format == models.FormatCSVRange {
		return CompressRanges(nums)
	}

	items := make([]string, count)
	for i, n := range nums {
		items[i] = strconv.Itoa(n)
	}
	return strings.Join(items, spec.Separator)
}

func (g *Generator) stringValue(spec *models.ValueSpec) string {
	if spec.Pattern == "" {
		return fmt.Sprintf("value_%d", 100+g.rng.Intn(900))
	}
	s, err := GenerateFromPattern(g.rng, spec.Pattern)
	if err != nil {
		g.Fallbacks++
		return FallbackToken(g.rng)
	}
	return s
}

// CompressRanges renders the set of integers in nums as a csv_range string:
// duplicates removed, values sorted ascending, maximal runs of three or more
// consecutive integers collapsed to "start-end", shorter runs enumerated.
func CompressRanges(nums []int) string {
	if len(nums) == 0 {
		return ""
	}

	set := make(map[int]bool, len(nums))
	for _, n := range nums {
		set[n] = true
	}
	sorted := make([]int, 0, len(set))
	for n := range set {
		sorted = append(sorted, n)
	}
	sort.Ints(sorted)

	var parts []string
	for i := 0; i < len(sorted); {
		j := i
		for j+1 < len(sorted) && sorted[j+1] == sorted[j]+1 {
			j++
		}
		// Runs of 1 or 2 are enumerated; only 3+ collapse to a range.
		if j-i >= 2 {
			parts = append(parts, fmt.Sprintf("%d-%d", sorted[i], sorted[j]))
		} else {
			for k := i; k <= j; k++ {
				parts = append(parts, strconv.Itoa(sorted[k]))
			}
		}
		i = j + 1
	}
	return strings.Join(parts, ",")
}

// DecompressRanges expands a csv_range string back into its sorted integer
// members. It is the inverse of CompressRanges.
func DecompressRanges(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	var out []int
	for _, tok := range strings.Split(s, ",") {
		lo, hi, isRange := splitRangeToken(tok)
		if !isRange {
			n, err := strconv.Atoi(tok)
			if err != nil {
				return nil, fmt.Errorf("bad range token %q: %w", tok, err)
			}
			out = append(out, n)
			continue
		}
		if hi < lo {
			return nil, fmt.Errorf("bad range token %q: end before start", tok)
		}
		for n := lo; n <= hi; n++ {
			out = append(out, n)
		}
	}
	sort.Ints(out)
	return out, nil
}

// splitRangeToken parses "a-b" tokens, tolerating negative endpoints.
func splitRangeToken(tok string) (lo, hi int, ok bool) {
	if len(tok) < 2 {
		return 0, 0, false
	}
	// Skip a leading '-' so negative singletons aren't mistaken for ranges.
	idx := strings.Index(tok[1:], "-")
	if idx < 0 {
		return 0, 0, false
	}
	idx++
	a, err1 := strconv.Atoi(tok[:idx])
	b, err2 := strconv.Atoi(tok[idx+1:])
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return a, b, true
}

// boundedDraw returns a uniform int in [lo, hi], tolerating hi <= lo.
func boundedDraw(rng *rand.Rand, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + rng.Intn(hi-lo+1)
}

func boundedDraw64(rng *rand.Rand, lo, hi int64) int64 {
	if hi <= lo {
		return lo
	}
	return lo + rng.Int63n(hi-lo+1)
}
