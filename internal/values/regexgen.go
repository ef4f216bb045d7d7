package values

import (
	"errors"
	"math/rand"
	"regexp/syntax"
	"strings"
)

// Bounded expansion limits for unbounded quantifiers. A '*' expands to at
// most maxUnboundedRepeat occurrences, a '+' to between 1 and
// maxUnboundedRepeat.
const maxUnboundedRepeat = 4

// fallbackAlphabet and fallbackLength shape the deterministic token emitted
// when a pattern is outside the supported subset.
const (
	fallbackAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	fallbackLength   = 8
)

// ErrUnsupportedPattern reports a regular expression construct outside the
// supported generation subset (literals, character classes, quantifiers,
// alternation, grouping; anchors are ignored).
var ErrUnsupportedPattern = errors.New("unsupported pattern construct")

// GenerateFromPattern synthesizes a string matching the given regular
// expression, consuming rng for every choice. Unbounded quantifiers expand
// to a bounded number of repetitions. Returns ErrUnsupportedPattern (wrapped)
// when the pattern uses constructs outside the subset; callers fall back to
// FallbackToken.
func GenerateFromPattern(rng *rand.Rand, pattern string) (string, error) {
	re, err := syntax.Parse(pattern, syntax.Perl)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	if err := expand(rng, re, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// FallbackToken returns the deterministic fallback value: a fixed-length
// string over a fixed alphabet, drawn from the case stream.
func FallbackToken(rng *rand.Rand) string {
	b := make([]byte, fallbackLength)
	for i := range b {
		b[i] = fallbackAlphabet[rng.Intn(len(fallbackAlphabet))]
	}
	return string(b)
}

func expand(rng *rand.Rand, re *syntax.Regexp, sb *strings.Builder) error {
	switch re.Op {
	case syntax.OpLiteral:
		sb.WriteString(string(re.Rune))
		return nil

	case syntax.OpCharClass:
		r, ok := pickClassRune(rng, re.Rune)
		if !ok {
			return ErrUnsupportedPattern
		}
		sb.WriteRune(r)
		return nil

	case syntax.OpAnyChar, syntax.OpAnyCharNotNL:
		sb.WriteByte(fallbackAlphabet[rng.Intn(len(fallbackAlphabet))])
		return nil

	case syntax.OpBeginLine, syntax.OpEndLine, syntax.OpBeginText, syntax.OpEndText:
		// Anchors contribute nothing.
		return nil

	case syntax.OpEmptyMatch:
		return nil

	case syntax.OpCapture:
		return expand(rng, re.Sub[0], sb)

	case syntax.OpConcat:
		for _, sub := range re.Sub {
			if err := expand(rng, sub, sb); err != nil {
				return err
			}
		}
		return nil

	case syntax.OpAlternate:
		return expand(rng, re.Sub[rng.Intn(len(re.Sub))], sb)

	case syntax.OpStar:
		return repeatExpand(rng, re.Sub[0], sb, 0, maxUnboundedRepeat)

	case syntax.OpPlus:
		return repeatExpand(rng, re.Sub[0], sb, 1, maxUnboundedRepeat)

	case syntax.OpQuest:
		return repeatExpand(rng, re.Sub[0], sb, 0, 1)

	case syntax.OpRepeat:
		max := re.Max
		if max < 0 {
			max = re.Min + maxUnboundedRepeat
		}
		return repeatExpand(rng, re.Sub[0], sb, re.Min, max)
	}

	// Word boundaries and anything else outside the subset.
	return ErrUnsupportedPattern
}

func repeatExpand(rng *rand.Rand, sub *syntax.Regexp, sb *strings.Builder, min, max int) error {
	n := boundedDraw(rng, min, max)
	for i := 0; i < n; i++ {
		if err := expand(rng, sub, sb); err != nil {
			return err
		}
	}
	return nil
}

// pickClassRune draws one rune from a character class, given as inclusive
// [lo, hi] rune pairs. Wide classes (negations) are narrowed to printable
// ASCII so generated values stay shell-token friendly.
func pickClassRune(rng *rand.Rand, pairs []rune) (rune, bool) {
	type runeRange struct{ lo, hi rune }
	var ranges []runeRange
	total := 0

	for i := 0; i+1 < len(pairs); i += 2 {
		lo, hi := pairs[i], pairs[i+1]
		// Clip to printable ASCII when the range extends beyond it.
		if hi > 126 {
			hi = 126
		}
		if lo < 32 {
			lo = 32
		}
		if lo > hi {
			continue
		}
		ranges = append(ranges, runeRange{lo, hi})
		total += int(hi-lo) + 1
	}
	if total == 0 {
		return 0, false
	}

	n := rng.Intn(total)
	for _, r := range ranges {
		size := int(r.hi-r.lo) + 1
		if n < size {
			return r.lo + rune(n), true
		}
		n -= size
	}
	return 0, false
}
